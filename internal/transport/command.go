// Package transport exposes a running match over WebSocket: clients send
// JSON commands and receive msgpack snapshots.
package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/Garsondee/Void-Harvest/internal/sim"
)

// Command types accepted from clients.
const (
	CmdSpawn       = "spawn"
	CmdUpgrade     = "upgrade"
	CmdPointerDown = "pointer_down"
	CmdPointerMove = "pointer_move"
	CmdPointerUp   = "pointer_up"
	CmdToggleLasso = "toggle_lasso"
	CmdSelectArmy  = "select_army"
	CmdPan         = "pan"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrBadCommand     = errors.New("malformed command")
)

// Pan is the held-direction state for a pan command.
type Pan struct {
	Up    bool `json:"up"`
	Down  bool `json:"down"`
	Left  bool `json:"left"`
	Right bool `json:"right"`
}

// Command is one client request. Screen coordinates are used for pointer
// commands, as with local input.
type Command struct {
	Type   string  `json:"type"`
	Unit   string  `json:"unit,omitempty"`
	Module string  `json:"module,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Pan    *Pan    `json:"pan,omitempty"`

	unit   sim.UnitType
	module sim.ModuleKind
}

// DecodeCommand parses and validates a JSON command. Enum fields are checked
// against the closed unit and module sets.
func DecodeCommand(data []byte) (Command, error) {
	var c Command
	if err := json.Unmarshal(data, &c); err != nil {
		return Command{}, fmt.Errorf("%w: %v", ErrBadCommand, err)
	}
	switch c.Type {
	case CmdSpawn:
		t, err := sim.ParseUnitType(c.Unit)
		if err != nil {
			return Command{}, err
		}
		c.unit = t
	case CmdUpgrade:
		k, err := sim.ParseModuleKind(c.Module)
		if err != nil {
			return Command{}, err
		}
		c.module = k
	case CmdPointerDown, CmdPointerMove, CmdPointerUp:
		if math.IsNaN(c.X) || math.IsNaN(c.Y) || math.IsInf(c.X, 0) || math.IsInf(c.Y, 0) {
			return Command{}, fmt.Errorf("%w: non-finite pointer", ErrBadCommand)
		}
	case CmdPan:
		if c.Pan == nil {
			return Command{}, fmt.Errorf("%w: pan without directions", ErrBadCommand)
		}
	case CmdToggleLasso, CmdSelectArmy:
	default:
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, c.Type)
	}
	return c, nil
}

// Apply runs a decoded command against e and reports whether it was accepted.
// It must be called from the goroutine that ticks e.
func Apply(e *sim.Engine, c Command) bool {
	switch c.Type {
	case CmdSpawn:
		return e.SpawnUnit(c.unit)
	case CmdUpgrade:
		return e.UpgradeBase(c.module)
	case CmdPointerDown:
		return e.PointerDown(c.X, c.Y)
	case CmdPointerMove:
		e.PointerMove(c.X, c.Y)
		return true
	case CmdPointerUp:
		return e.PointerUp(c.X, c.Y) > 0
	case CmdToggleLasso:
		e.ToggleLassoMode()
		return true
	case CmdSelectArmy:
		return e.SelectAllArmy() > 0
	case CmdPan:
		e.SetPan(sim.PanInput{Up: c.Pan.Up, Down: c.Pan.Down, Left: c.Pan.Left, Right: c.Pan.Right})
		return true
	}
	return false
}

// Reply is the JSON text message sent back for every command.
type Reply struct {
	Type  string `json:"type"`
	For   string `json:"for,omitempty"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}
