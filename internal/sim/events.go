package sim

// EventKind names something externally interesting that happened during a tick
// or a command. Audio, telemetry and the on-screen log all key off it.
type EventKind int

const (
	EventUnitSpawned EventKind = iota
	EventUnitDestroyed
	EventBaseDestroyed
	EventModuleUpgraded
	EventShot
	EventExplosion
	EventCargoDeposited
	EventPowerup
	EventSupplyDrop
	EventSpawnWarning
	EventWaveStarted
	EventWaveCleared
	EventSelect
	EventOrder
	EventDecision
	EventCommandRejected
	EventGameOver
)

var eventKindNames = [...]string{
	EventUnitSpawned:     "unit_spawned",
	EventUnitDestroyed:   "unit_destroyed",
	EventBaseDestroyed:   "base_destroyed",
	EventModuleUpgraded:  "module_upgraded",
	EventShot:            "shot",
	EventExplosion:       "explosion",
	EventCargoDeposited:  "cargo_deposited",
	EventPowerup:         "powerup",
	EventSupplyDrop:      "supply_drop",
	EventSpawnWarning:    "spawn_warning",
	EventWaveStarted:     "wave_started",
	EventWaveCleared:     "wave_cleared",
	EventSelect:          "select",
	EventOrder:           "order",
	EventDecision:        "decision",
	EventCommandRejected: "rejected",
	EventGameOver:        "game_over",
}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventKindNames) {
		return "unknown"
	}
	return eventKindNames[k]
}

// Category groups kinds for log filtering.
func (k EventKind) Category() string {
	switch k {
	case EventUnitSpawned, EventUnitDestroyed:
		return "unit"
	case EventBaseDestroyed, EventModuleUpgraded:
		return "base"
	case EventShot, EventExplosion:
		return "combat"
	case EventCargoDeposited, EventPowerup, EventSupplyDrop:
		return "economy"
	case EventSpawnWarning, EventWaveStarted, EventWaveCleared:
		return "wave"
	case EventSelect, EventOrder, EventCommandRejected:
		return "command"
	case EventDecision:
		return "ai"
	case EventGameOver:
		return "match"
	default:
		return "misc"
	}
}

// Event is one emitted occurrence. Subject is a unit label or "--".
type Event struct {
	Tick    int       `json:"tick" msgpack:"tick"`
	Time    float64   `json:"time" msgpack:"time"`
	Kind    EventKind `json:"kind" msgpack:"kind"`
	Team    Team      `json:"team" msgpack:"team"`
	Subject string    `json:"subject,omitempty" msgpack:"subject,omitempty"`
	X       float64   `json:"x" msgpack:"x"`
	Y       float64   `json:"y" msgpack:"y"`
	Value   float64   `json:"value,omitempty" msgpack:"value,omitempty"`
	Detail  string    `json:"detail,omitempty" msgpack:"detail,omitempty"`
}

// Listener receives events synchronously, inside the tick or command that
// produced them. Listeners must not call back into Tick.
type Listener interface {
	OnEvent(Event)
}

// ListenerFunc adapts a plain function.
type ListenerFunc func(Event)

func (f ListenerFunc) OnEvent(ev Event) { f(ev) }

// Subscribe adds a listener for every subsequent event.
func (e *Engine) Subscribe(l Listener) {
	if l == nil {
		return
	}
	e.listeners = append(e.listeners, l)
}

func (e *Engine) emit(ev Event) {
	ev.Tick = e.tick
	ev.Time = e.simTime
	if ev.Subject == "" {
		ev.Subject = "--"
	}
	for _, l := range e.listeners {
		l.OnEvent(ev)
	}
}
