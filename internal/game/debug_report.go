package game

import (
	"fmt"
	"strings"

	"github.com/Garsondee/Void-Harvest/internal/sim"
)

// debugReportTicks is how much of the event log the clipboard report carries.
const debugReportTicks = 600

// unitHistoryLines is how many past log entries each selected unit shows.
const unitHistoryLines = 3

// matchDebugReport is the text copied to the clipboard: the match report, the
// current selection and the tail of the event log.
func matchDebugReport(e *sim.Engine, lastTicks int) string {
	if lastTicks <= 0 {
		lastTicks = debugReportTicks
	}
	toTick := e.TickCount()
	fromTick := toTick - lastTicks + 1
	if fromTick < 0 {
		fromTick = 0
	}

	var b strings.Builder
	r := e.Report()
	b.WriteString(r.Format())
	fmt.Fprintf(&b, "score=%d scrap=%d\n\n", r.Score(), r.Scrap())

	b.WriteString(e.SimLog.Summary(e))
	for _, k := range []struct{ category, key string }{
		{"ai", "decision"},
		{"wave", "wave_started"},
		{"base", "module_upgraded"},
	} {
		if en, ok := e.SimLog.LastOf(k.category, k.key); ok {
			fmt.Fprintf(&b, "last %-16s %s\n", k.key, en)
		}
	}
	b.WriteByte('\n')

	if sel := e.Selected(); len(sel) > 0 {
		fmt.Fprintf(&b, "== selection (%d) ==\n", len(sel))
		for _, u := range sel {
			fmt.Fprintf(&b, "  %s %s %s hp=%.0f/%.0f pos=(%.0f,%.0f) target=%s cargo=%.0f\n",
				u.Label(), u.Type, u.State, u.Health, u.MaxHealth, u.X, u.Y, u.Target, u.Cargo)
			history := e.SimLog.FilterSubject(u.Label())
			if len(history) > unitHistoryLines {
				history = history[len(history)-unitHistoryLines:]
			}
			for _, en := range history {
				fmt.Fprintf(&b, "    %s\n", en)
			}
		}
		b.WriteByte('\n')
	}

	fmt.Fprintf(&b, "== events T=%d..%d ==\n", fromTick, toTick)
	events := e.SimLog.FormatRange(fromTick, toTick)
	if events == "" {
		b.WriteString("(no events recorded yet)\n")
	} else {
		b.WriteString(events)
	}
	return b.String()
}
