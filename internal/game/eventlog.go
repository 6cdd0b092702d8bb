package game

import (
	"fmt"
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/Garsondee/Void-Harvest/internal/sim"
)

const (
	logPanelWidth = 320
	logMaxEntries = 60
	logLineHeight = 11
)

// EventEntry is a single line in the event log.
type EventEntry struct {
	Tick    int
	Label   string // e.g. "P3", "E7", "--"
	Team    sim.Team
	Message string
}

// EventLog is a ring buffer of recent sim events rendered on-screen. Shots are
// too frequent to be readable and are skipped.
type EventLog struct {
	mu      sync.Mutex
	entries []EventEntry
	head    int
	count   int
}

// NewEventLog creates an event log with a fixed capacity.
func NewEventLog() *EventLog {
	return &EventLog{
		entries: make([]EventEntry, logMaxEntries),
	}
}

// OnEvent implements sim.Listener.
func (el *EventLog) OnEvent(ev sim.Event) {
	if ev.Kind == sim.EventShot {
		return
	}
	label := ev.Subject
	if label == "" {
		label = "--"
	}
	msg := ev.Kind.String()
	if ev.Detail != "" {
		msg += " " + ev.Detail
	}
	el.Add(ev.Tick, label, ev.Team, msg)
}

// Add appends an entry to the log.
func (el *EventLog) Add(tick int, label string, team sim.Team, msg string) {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.entries[el.head] = EventEntry{
		Tick:    tick,
		Label:   label,
		Team:    team,
		Message: msg,
	}
	el.head = (el.head + 1) % logMaxEntries
	if el.count < logMaxEntries {
		el.count++
	}
}

// Recent returns entries in chronological order (oldest first).
func (el *EventLog) Recent() []EventEntry {
	el.mu.Lock()
	defer el.mu.Unlock()
	result := make([]EventEntry, el.count)
	for i := 0; i < el.count; i++ {
		idx := (el.head - el.count + i + logMaxEntries) % logMaxEntries
		result[i] = el.entries[idx]
	}
	return result
}

func teamColor(t sim.Team) color.RGBA {
	switch t {
	case sim.TeamPlayer:
		return color.RGBA{R: 70, G: 200, B: 230, A: 255}
	case sim.TeamEnemy:
		return color.RGBA{R: 230, G: 80, B: 70, A: 255}
	default:
		return color.RGBA{R: 160, G: 160, B: 150, A: 255}
	}
}

// Draw renders the event log panel on the right side of the screen.
func (el *EventLog) Draw(screen *ebiten.Image, panelX int, panelH int) {
	vector.FillRect(screen, float32(panelX), 0, float32(logPanelWidth), float32(panelH), color.RGBA{R: 8, G: 10, B: 16, A: 248}, false)
	vector.StrokeLine(screen, float32(panelX), 0, float32(panelX), float32(panelH), 1.0, color.RGBA{R: 50, G: 60, B: 90, A: 255}, false)

	vector.FillRect(screen, float32(panelX), 0, float32(logPanelWidth), 16, color.RGBA{R: 18, G: 22, B: 36, A: 255}, false)
	ebitenutil.DebugPrintAt(screen, "EVENT LOG", panelX+8, 2)
	vector.StrokeLine(screen, float32(panelX), 16, float32(panelX+logPanelWidth), 16, 1.0, color.RGBA{R: 50, G: 60, B: 100, A: 200}, false)

	entries := el.Recent()

	// Newest at the bottom.
	maxVisible := (panelH - 24) / logLineHeight
	startIdx := 0
	if len(entries) > maxVisible {
		startIdx = len(entries) - maxVisible
	}
	visible := entries[startIdx:]
	recent := 3

	y := 20
	for i, e := range visible {
		if i >= len(visible)-recent {
			vector.FillRect(screen, float32(panelX+2), float32(y), float32(logPanelWidth-4), float32(logLineHeight), color.RGBA{R: 26, G: 32, B: 52, A: 160}, false)
		}
		vector.FillRect(screen, float32(panelX+5), float32(y+3), 3, 5, teamColor(e.Team), false)
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%5d [%s] %s", e.Tick, e.Label, e.Message), panelX+12, y)
		y += logLineHeight
	}
}
