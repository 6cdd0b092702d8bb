package audio

import (
	"sync"

	"github.com/Garsondee/Void-Harvest/internal/sim"
)

// Cue is a named sound.
type Cue int

const (
	CueNone Cue = iota
	CueShoot
	CueExplode
	CueSelect
	CuePowerup
	CueWarning
	CueGameStart
	CueGameOver
	cueCount
)

var cueNames = [...]string{"none", "shoot", "explode", "select", "powerup", "warning", "gamestart", "gameover"}

func (c Cue) String() string {
	if c < 0 || c >= cueCount {
		return "unknown"
	}
	return cueNames[c]
}

// AllCues lists every playable cue.
func AllCues() []Cue {
	return []Cue{CueShoot, CueExplode, CueSelect, CuePowerup, CueWarning, CueGameStart, CueGameOver}
}

// CueFor maps a simulation event to the sound it should make.
func CueFor(ev sim.Event) Cue {
	switch ev.Kind {
	case sim.EventShot:
		return CueShoot
	case sim.EventExplosion, sim.EventUnitDestroyed, sim.EventBaseDestroyed:
		return CueExplode
	case sim.EventSelect:
		return CueSelect
	case sim.EventPowerup:
		return CuePowerup
	case sim.EventSpawnWarning:
		return CueWarning
	case sim.EventWaveStarted:
		return CueGameStart
	case sim.EventGameOver:
		return CueGameOver
	default:
		return CueNone
	}
}

// Queue is a sim.Listener collecting cues for the renderer to play once per
// frame. Repeats of the same cue within a frame collapse into one.
type Queue struct {
	mu      sync.Mutex
	pending [cueCount]bool
}

// OnEvent implements sim.Listener.
func (q *Queue) OnEvent(ev sim.Event) {
	c := CueFor(ev)
	if c == CueNone {
		return
	}
	q.mu.Lock()
	q.pending[c] = true
	q.mu.Unlock()
}

// Drain returns the cues raised since the last call, in cue order.
func (q *Queue) Drain() []Cue {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []Cue
	for c := range q.pending {
		if q.pending[c] {
			out = append(out, Cue(c))
			q.pending[c] = false
		}
	}
	return out
}
