package sim

import (
	"time"
)

// MatchStats is attached to the final snapshot.
type MatchStats struct {
	Wave  int `json:"wave" msgpack:"wave"`
	Kills int `json:"kills" msgpack:"kills"`
	Time  int `json:"time" msgpack:"time"` // whole seconds survived
}

// Snapshot is the state pushed to the UI collaborator. Consumers should treat
// every field as optional.
type Snapshot struct {
	Tick        int            `json:"tick" msgpack:"tick"`
	Credits     float64        `json:"credits" msgpack:"credits"`
	Energy      float64        `json:"energy" msgpack:"energy"`
	EnergyMax   float64        `json:"energyMax" msgpack:"energyMax"`
	EnergyRate  float64        `json:"energyRate" msgpack:"energyRate"`
	BaseModules map[string]int `json:"baseModules,omitempty" msgpack:"baseModules,omitempty"`
	Wave        int            `json:"wave" msgpack:"wave"`
	IsLassoMode bool           `json:"isLassoMode" msgpack:"isLassoMode"`
	GameOver    string         `json:"gameOver,omitempty" msgpack:"gameOver,omitempty"`
	Stats       *MatchStats    `json:"stats,omitempty" msgpack:"stats,omitempty"`
}

// SnapshotSink is the UI side of the snapshot channel.
type SnapshotSink interface {
	PushSnapshot(Snapshot)
}

// SnapshotFunc adapts a plain function.
type SnapshotFunc func(Snapshot)

func (f SnapshotFunc) PushSnapshot(s Snapshot) { f(s) }

// Snapshot builds the current player-facing state.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		Tick:        e.tick,
		Credits:     e.ledger.Balance(TeamPlayer),
		Wave:        e.Wave(),
		IsLassoMode: e.lassoMode,
	}
	if b := e.BaseOf(TeamPlayer); b != nil {
		s.Energy = b.Power
		s.EnergyMax = b.PowerCapacity
		s.EnergyRate = b.PowerRate
		s.BaseModules = b.ModuleLevels(e.rules.ModulesFor(e.mode))
	}
	if e.Over() {
		s.GameOver = e.outcome.String()
		s.Stats = &MatchStats{Wave: e.Wave(), Kills: e.kills, Time: int(e.simTime)}
	}
	return s
}

// simNow maps simulation time onto a time.Time for the rate limiter, so the
// throttle follows the simulated clock rather than the wall clock.
func (e *Engine) simNow() time.Time {
	return e.epoch.Add(time.Duration(e.simTime * float64(time.Second)))
}

// maybePushSnapshot emits at most SnapshotHz times per simulated second.
func (e *Engine) maybePushSnapshot() {
	if e.sink == nil || e.limiter == nil {
		return
	}
	if !e.limiter.AllowN(e.simNow(), 1) {
		return
	}
	e.sink.PushSnapshot(e.Snapshot())
}

// pushSnapshot bypasses the throttle; used for terminal events.
func (e *Engine) pushSnapshot() {
	if e.sink == nil {
		return
	}
	e.sink.PushSnapshot(e.Snapshot())
}
