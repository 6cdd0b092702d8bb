package sim

import (
	"fmt"
	"strings"
)

// SimLogEntry is one recorded event.
type SimLogEntry struct {
	Tick     int
	Subject  string  // unit label e.g. "P3", "E7", or "--" for global events
	Team     string  // "player", "enemy", or "neutral"
	Category string  // unit, base, combat, economy, wave, command, ai, match
	Key      string  // event name within the category
	Value    string  // human-readable detail
	NumVal   float64 // optional numeric value for threshold checks
}

// String formats the entry as a fixed-width log line.
//
//	[T=042] P3   economy  cargo_deposited  50
func (e SimLogEntry) String() string {
	return fmt.Sprintf("[T=%03d] %-4s %-8s %-16s %s",
		e.Tick, e.Subject, e.Category, e.Key, e.Value)
}

// SimLog collects every engine event as a structured, unbounded record.
// Unlike the on-screen EventLog ring buffer it keeps everything, which makes it
// the thing tests assert against.
type SimLog struct {
	entries []SimLogEntry
	verbose bool
}

// NewSimLog creates a SimLog. Shots are high-volume; they are only kept when
// verbose is true.
func NewSimLog(verbose bool) *SimLog {
	return &SimLog{verbose: verbose}
}

// OnEvent records ev.
func (sl *SimLog) OnEvent(ev Event) {
	if ev.Kind == EventShot && !sl.verbose {
		return
	}
	sl.Add(ev.Tick, ev.Subject, ev.Team.String(), ev.Kind.Category(), ev.Kind.String(), ev.Detail, ev.Value)
}

// Add records a new entry.
func (sl *SimLog) Add(tick int, subject, team, category, key, value string, numVal float64) {
	sl.entries = append(sl.entries, SimLogEntry{
		Tick:     tick,
		Subject:  subject,
		Team:     team,
		Category: category,
		Key:      key,
		Value:    value,
		NumVal:   numVal,
	})
}

// Entries returns all recorded entries.
func (sl *SimLog) Entries() []SimLogEntry {
	return sl.entries
}

// Filter returns entries matching the given category and/or key.
// Pass empty string to match any value for that field.
func (sl *SimLog) Filter(category, key string) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		out = append(out, e)
	}
	return out
}

// FilterSubject returns entries for one unit label.
func (sl *SimLog) FilterSubject(label string) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if e.Subject == label {
			out = append(out, e)
		}
	}
	return out
}

// FilterTickRange returns entries within [fromTick, toTick] inclusive.
func (sl *SimLog) FilterTickRange(fromTick, toTick int) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if e.Tick >= fromTick && e.Tick <= toTick {
			out = append(out, e)
		}
	}
	return out
}

// CountCategory returns how many entries match the given category and key.
func (sl *SimLog) CountCategory(category, key string) int {
	return len(sl.Filter(category, key))
}

// LastOf returns the most recent entry matching category+key, or false if none.
func (sl *SimLog) LastOf(category, key string) (SimLogEntry, bool) {
	entries := sl.Filter(category, key)
	if len(entries) == 0 {
		return SimLogEntry{}, false
	}
	return entries[len(entries)-1], true
}

// HasEntry returns true if at least one entry matches category, key, and value substring.
func (sl *SimLog) HasEntry(category, key, valueSubstr string) bool {
	for _, e := range sl.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		if valueSubstr != "" && !strings.Contains(e.Value, valueSubstr) {
			continue
		}
		return true
	}
	return false
}

// Format returns the full log as a single string for t.Log output.
func (sl *SimLog) Format() string {
	var sb strings.Builder
	for _, e := range sl.entries {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// FormatRange returns a log string filtered to a tick range.
func (sl *SimLog) FormatRange(fromTick, toTick int) string {
	var sb strings.Builder
	for _, e := range sl.FilterTickRange(fromTick, toTick) {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Summary returns a short human-readable summary of the match state.
func (sl *SimLog) Summary(e *Engine) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- Summary at T=%03d (%.1fs) ---\n", e.TickCount(), e.SimTime())
	for _, team := range []Team{TeamPlayer, TeamEnemy} {
		counts := map[UnitType]int{}
		states := map[UnitState]int{}
		for _, u := range e.Units() {
			if u.Team != team {
				continue
			}
			counts[u.Type]++
			states[u.State]++
		}
		fmt.Fprintf(&sb, "%s credits=%.0f units:", team, e.Credits(team))
		for _, t := range AllUnitTypes() {
			if n := counts[t]; n > 0 {
				fmt.Fprintf(&sb, " %s=%d", t, n)
			}
		}
		sb.WriteString("  states:")
		for s := UnitIdle; s <= UnitAttacking; s++ {
			if n := states[s]; n > 0 {
				fmt.Fprintf(&sb, " %s=%d", s, n)
			}
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "nodes=%d kills=%d wave=%d\n", len(e.Nodes()), e.Kills(), e.Wave())
	return sb.String()
}
