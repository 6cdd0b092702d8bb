package sim

import (
	"math"
	"strconv"
)

// QueuedSpawn is a unit due at At seconds into the active wave.
type QueuedSpawn struct {
	Type UnitType
	At   float64
}

// PendingSpawn is a telegraphed spawn counting down at a map-edge position.
type PendingSpawn struct {
	Type  UnitType
	X, Y  float64
	Timer float64
}

// WaveScheduler drives survival mode: escalating enemy waves announced ahead of
// time at the map edge, plus periodic supply drops.
type WaveScheduler struct {
	e *Engine

	// Wave is the current wave number, starting at 1.
	Wave int

	active  bool
	elapsed float64
	queue   []QueuedSpawn
	pending []*PendingSpawn
	rest    float64

	dropTimer    float64
	dropInterval float64
}

func newWaveScheduler(e *Engine) *WaveScheduler {
	w := &WaveScheduler{e: e, Wave: 1, dropInterval: e.rules.Waves.DropFirst}
	w.startWave()
	return w
}

// WaveBudget is the credit-equivalent a procedural wave n may spend.
func (r *Rules) WaveBudget(n int) float64 {
	return float64(n) * r.Waves.BudgetPerWave
}

func (w *WaveScheduler) startWave() {
	w.active = true
	w.elapsed = 0
	w.rest = 0
	authored := w.e.rules.Waves.Authored
	if w.Wave <= len(authored) {
		w.queue = authoredQueue(authored[w.Wave-1])
	} else {
		w.queue = w.proceduralQueue(w.e.rules.WaveBudget(w.Wave))
	}
	w.e.emit(Event{Kind: EventWaveStarted, Team: TeamEnemy, Value: float64(w.Wave), Detail: "queued " + strconv.Itoa(len(w.queue))})
	w.e.log.Info().Int("wave", w.Wave).Int("spawns", len(w.queue)).Msg("wave started")
}

func authoredQueue(t WaveTemplate) []QueuedSpawn {
	if len(t.Types) == 0 {
		return nil
	}
	q := make([]QueuedSpawn, 0, t.Count)
	for i := 0; i < t.Count; i++ {
		q = append(q, QueuedSpawn{Type: t.Types[i%len(t.Types)], At: float64(i+1) * t.Interval})
	}
	return q
}

// proceduralQueue spends budget on random combat types until nothing more is
// affordable.
func (w *WaveScheduler) proceduralQueue(budget float64) []QueuedSpawn {
	r := w.e.rules
	var q []QueuedSpawn
	at := 0.0
	for {
		var affordable []UnitType
		for _, t := range combatTypes() {
			if c := r.Units[t].Cost; c > 0 && c <= budget {
				affordable = append(affordable, t)
			}
		}
		if len(affordable) == 0 {
			return q
		}
		t := affordable[w.e.rng.Intn(len(affordable))]
		budget -= r.Units[t].Cost
		at += r.Waves.ProceduralInterval
		q = append(q, QueuedSpawn{Type: t, At: at})
	}
}

// Update advances supply drops, the rest timer, the spawn queue and the
// pending telegraphs, then checks for wave completion.
func (w *WaveScheduler) Update(dt float64) {
	w.updateDrops(dt)

	if !w.active {
		w.rest -= dt
		if w.rest <= 0 {
			w.Wave++
			w.startWave()
		}
		return
	}

	w.elapsed += dt
	telegraph := w.e.rules.Waves.TelegraphSeconds
	for len(w.queue) > 0 && w.elapsed >= w.queue[0].At-telegraph {
		next := w.queue[0]
		w.queue = w.queue[1:]
		w.telegraph(next.Type)
	}

	kept := w.pending[:0]
	for _, p := range w.pending {
		p.Timer -= dt
		if p.Timer <= 0 {
			w.materialise(p)
			continue
		}
		kept = append(kept, p)
	}
	clear(w.pending[len(kept):])
	w.pending = kept

	if len(w.queue) == 0 && len(w.pending) == 0 && len(w.e.UnitsOf(TeamEnemy)) == 0 {
		w.complete()
	}
}

func (w *WaveScheduler) complete() {
	w.active = false
	w.rest = w.e.rules.Waves.RestSeconds
	w.e.emit(Event{Kind: EventWaveCleared, Team: TeamPlayer, Value: float64(w.Wave)})
	w.e.log.Info().Int("wave", w.Wave).Float64("time", w.e.simTime).Msg("wave cleared")
}

func (w *WaveScheduler) telegraph(t UnitType) {
	x, y := w.edgePosition()
	w.pending = append(w.pending, &PendingSpawn{Type: t, X: x, Y: y, Timer: w.e.rules.Waves.TelegraphSeconds})
	w.e.emit(Event{Kind: EventSpawnWarning, Team: TeamEnemy, X: x, Y: y, Detail: t.String()})
}

// edgePosition picks a point just outside a random world edge.
func (w *WaveScheduler) edgePosition() (float64, float64) {
	r := w.e.rules
	off := r.Waves.EdgeOffset
	switch w.e.rng.Intn(4) {
	case 0:
		return w.e.rng.Float64() * r.WorldW, -off
	case 1:
		return r.WorldW + off, w.e.rng.Float64() * r.WorldH
	case 2:
		return w.e.rng.Float64() * r.WorldW, r.WorldH + off
	default:
		return -off, w.e.rng.Float64() * r.WorldH
	}
}

// materialise turns a telegraph into a live enemy heading for the player base.
func (w *WaveScheduler) materialise(p *PendingSpawn) {
	u := w.e.placeUnit(TeamEnemy, p.Type, p.X, p.Y)
	tx, ty := w.e.rules.WorldW/2, w.e.rules.WorldH/2
	if b := w.e.BaseOf(TeamPlayer); b != nil {
		tx, ty = b.X, b.Y
	}
	u.orderMove(tx, ty)
	u.Rotation = math.Atan2(ty-u.Y, tx-u.X)
}

func (w *WaveScheduler) updateDrops(dt float64) {
	r := w.e.rules
	if w.dropInterval <= 0 {
		return
	}
	w.dropTimer += dt
	if w.dropTimer < w.dropInterval {
		return
	}
	w.dropTimer = 0
	w.dropInterval = r.Waves.DropMin + w.e.rng.Float64()*(r.Waves.DropMax-r.Waves.DropMin)

	m := r.Waves.DropMargin
	x := m + w.e.rng.Float64()*math.Max(0, r.WorldW-2*m)
	y := m + w.e.rng.Float64()*math.Max(0, r.WorldH-2*m)
	w.e.dropPowerup(w.pickDropKind(), x, y)
}

func (w *WaveScheduler) pickDropKind() PowerupKind {
	weights := w.e.rules.Waves.DropWeights
	var total float64
	for _, wt := range weights {
		total += wt
	}
	roll := w.e.rng.Float64() * total
	for k, wt := range weights {
		if roll < wt {
			return PowerupKind(k)
		}
		roll -= wt
	}
	return PowerupHealth
}

// Active reports whether a wave is in progress rather than resting.
func (w *WaveScheduler) Active() bool { return w.active }

// RestRemaining is the seconds left before the next wave, 0 while active.
func (w *WaveScheduler) RestRemaining() float64 {
	if w.active {
		return 0
	}
	return math.Max(0, w.rest)
}

// Queued is how many spawns of the active wave have not been telegraphed yet.
func (w *WaveScheduler) Queued() int { return len(w.queue) }

// Pending returns copies of the telegraphed spawns for the warning markers.
func (w *WaveScheduler) Pending() []PendingSpawn {
	out := make([]PendingSpawn, len(w.pending))
	for i, p := range w.pending {
		out[i] = *p
	}
	return out
}
