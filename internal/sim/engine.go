package sim

import (
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Outcome is the terminal result of a match from the player's point of view.
type Outcome int

const (
	OutcomeOngoing Outcome = iota
	OutcomeWin
	OutcomeLose
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWin:
		return "win"
	case OutcomeLose:
		return "lose"
	case OutcomeOngoing:
		return "ongoing"
	default:
		return "unknown"
	}
}

// Camera is the top-left corner of the viewport in world coordinates.
type Camera struct {
	X, Y float64
}

// PanInput is the set of held directional keys.
type PanInput struct {
	Up, Down, Left, Right bool
}

// Engine owns every entity collection and advances the match one tick at a
// time. It is single-threaded: Tick and the command methods must be called
// from the same goroutine.
type Engine struct {
	rules      *Rules
	mode       MatchMode
	difficulty Difficulty
	upgrades   Upgrades
	seed       int64
	rng        *rand.Rand
	log        zerolog.Logger
	clock      func() time.Time

	units     []*Unit
	bases     []*Base
	nodes     []*Node
	particles []*Particle
	powerups  []*Powerup
	unitByID  map[int]*Unit
	baseByID  map[int]*Base
	nodeByID  map[int]*Node
	nextID    int

	ledger Ledger
	stats  [teamCount]TeamStats
	kills  int

	tick    int
	simTime float64
	ticking bool
	outcome Outcome

	camera Camera
	pan    PanInput
	shake  Shake

	lassoMode     bool
	lasso         *Lasso
	lastClickAt   time.Time
	lastClickType UnitType
	lastClickHit  bool

	opponent  *Opponent
	autopilot *Opponent
	waves     *WaveScheduler

	listeners []Listener
	sink      SnapshotSink
	limiter   *rate.Limiter
	epoch     time.Time

	// SimLog records every event for tests and reports.
	SimLog *SimLog

	noNodes    bool
	noOpponent bool
	pilot      *Difficulty
}

type optionKind int

const (
	optSetup optionKind = iota // seed, mode, collaborators: applied before the world is built
	optWorld                   // entities and balances: applied after the world is built
)

// Option configures an Engine during construction.
type Option struct {
	kind optionKind
	fn   func(*Engine)
}

// WithSeed sets the RNG seed for deterministic runs.
func WithSeed(seed int64) Option {
	return Option{optSetup, func(e *Engine) {
		e.seed = seed
		e.rng = rand.New(rand.NewSource(seed)) // #nosec G404 -- gameplay randomness
	}}
}

// WithMode selects skirmish or survival.
func WithMode(m MatchMode) Option {
	return Option{optSetup, func(e *Engine) { e.mode = m }}
}

// WithDifficulty picks the opponent preset.
func WithDifficulty(d Difficulty) Option {
	return Option{optSetup, func(e *Engine) {
		if d >= 0 && d < difficultyCount {
			e.difficulty = d
		}
	}}
}

// WithUpgrades applies the player's profile upgrade levels.
func WithUpgrades(u Upgrades) Option {
	return Option{optSetup, func(e *Engine) { e.upgrades = u }}
}

// WithLogger routes engine diagnostics to l.
func WithLogger(l zerolog.Logger) Option {
	return Option{optSetup, func(e *Engine) { e.log = l }}
}

// WithClock replaces the wall clock used for double-click detection.
func WithClock(now func() time.Time) Option {
	return Option{optSetup, func(e *Engine) {
		if now != nil {
			e.clock = now
		}
	}}
}

// WithSnapshotSink registers the UI collaborator that receives snapshots.
func WithSnapshotSink(s SnapshotSink) Option {
	return Option{optSetup, func(e *Engine) { e.sink = s }}
}

// WithListener subscribes l before the world is built so it sees setup events.
func WithListener(l Listener) Option {
	return Option{optSetup, func(e *Engine) { e.Subscribe(l) }}
}

// WithVerboseLog keeps high-volume events (shots) in SimLog.
func WithVerboseLog(v bool) Option {
	return Option{optSetup, func(e *Engine) { e.SimLog.verbose = v }}
}

// WithoutNodes starts the match with an empty field and no respawns.
func WithoutNodes() Option {
	return Option{optSetup, func(e *Engine) { e.noNodes = true }}
}

// WithoutOpponent disables both the opponent controller and the wave scheduler.
func WithoutOpponent() Option {
	return Option{optSetup, func(e *Engine) { e.noOpponent = true }}
}

// WithAutopilot hands the player's side to the scripted controller at the
// given difficulty. Used by headless runs and demos.
func WithAutopilot(d Difficulty) Option {
	return Option{optSetup, func(e *Engine) {
		if d >= 0 && d < difficultyCount {
			e.pilot = &d
		}
	}}
}

// WithCredits overrides a team's starting balance.
func WithCredits(t Team, amount float64) Option {
	return Option{optWorld, func(e *Engine) { e.ledger.set(t, amount) }}
}

// WithModule installs a module level on t's base.
func WithModule(t Team, k ModuleKind, level int) Option {
	return Option{optWorld, func(e *Engine) {
		if b := e.BaseOf(t); b != nil && k >= 0 && k < moduleKindCount && level >= 0 {
			b.Modules[k] = level
			b.PowerRate = b.NetPower(e.rules)
			b.PowerCapacity = b.Capacity(e.rules)
		}
	}}
}

// WithNode adds a stationary resource node holding quantity.
func WithNode(x, y, quantity float64) Option {
	return Option{optWorld, func(e *Engine) {
		n := e.addNode(TierMedium, x, y)
		n.Remaining = quantity
		n.Initial = quantity
		n.VX, n.VY, n.Spin = 0, 0, 0
	}}
}

// WithUnit places a free unit of type t for team at (x, y).
func WithUnit(team Team, t UnitType, x, y float64) Option {
	return Option{optWorld, func(e *Engine) { e.placeUnit(team, t, x, y) }}
}

// NewEngine builds a match from rules (DefaultRules when nil) and options,
// applied in two passes: setup options, then the world, then world options.
func NewEngine(rules *Rules, opts ...Option) *Engine {
	if rules == nil {
		rules = DefaultRules()
	}
	e := &Engine{
		rules:      rules,
		mode:       MatchSkirmish,
		difficulty: DifficultyMedium,
		seed:       1,
		rng:        rand.New(rand.NewSource(1)), // #nosec G404 -- gameplay randomness
		log:        zerolog.Nop(),
		clock:      time.Now,
		unitByID:   map[int]*Unit{},
		baseByID:   map[int]*Base{},
		nodeByID:   map[int]*Node{},
		nextID:     1,
		SimLog:     NewSimLog(false),
		epoch:      time.Unix(0, 0),
	}
	e.Subscribe(e.SimLog)
	for _, o := range opts {
		if o.kind == optSetup {
			o.fn(e)
		}
	}
	if rules.SnapshotHz > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(rules.SnapshotHz), 1)
	}

	e.buildWorld()

	for _, o := range opts {
		if o.kind == optWorld {
			o.fn(e)
		}
	}
	e.log.Debug().
		Str("mode", e.mode.String()).
		Str("difficulty", e.difficulty.String()).
		Int64("seed", e.seed).
		Int("nodes", len(e.nodes)).
		Msg("match created")
	return e
}

func (e *Engine) buildWorld() {
	r := e.rules
	switch e.mode {
	case MatchSurvival:
		e.addBase(TeamPlayer, r.WorldW/2, r.WorldH/2)
	default:
		e.addBase(TeamPlayer, r.BaseInset, r.WorldH/2)
		e.addBase(TeamEnemy, r.WorldW-r.BaseInset, r.WorldH/2)
	}
	e.ledger.set(TeamPlayer, r.StartingCredits)

	if !e.noNodes {
		for i := 0; i < r.InitialNodes; i++ {
			e.spawnRandomNode()
		}
	}

	if !e.noOpponent {
		switch e.mode {
		case MatchSurvival:
			e.waves = newWaveScheduler(e)
		default:
			e.ledger.set(TeamEnemy, r.Opponent.StartingCredits)
			e.opponent = newOpponent(e, TeamEnemy, r.Opponent.Presets[e.difficulty])
		}
	}

	if e.pilot != nil {
		e.autopilot = newOpponent(e, TeamPlayer, r.Opponent.Presets[*e.pilot])
	}

	if b := e.BaseOf(TeamPlayer); b != nil {
		e.camera = Camera{X: b.X - r.ViewW/2, Y: b.Y - r.ViewH/2}
		e.clampCamera()
	}
}

func (e *Engine) allocID() int {
	id := e.nextID
	e.nextID++
	return id
}

func (e *Engine) addBase(t Team, x, y float64) *Base {
	r := e.rules
	b := &Base{
		Entity: Entity{
			ID: e.allocID(), X: x, Y: y, W: r.BaseSize, H: r.BaseSize,
			Team: t, Health: r.BaseHealth, MaxHealth: r.BaseHealth,
		},
		Regen:  r.BaseRegen,
		Vision: r.BaseVision,
	}
	b.Modules[ModuleDepot] = 1
	b.turretSinceMs = r.TurretCooldownMs
	b.PowerRate = b.NetPower(r)
	b.PowerCapacity = b.Capacity(r)
	e.bases = append(e.bases, b)
	e.baseByID[b.ID] = b
	return b
}

func (e *Engine) addNode(tier NodeTier, x, y float64) *Node {
	ts := e.rules.Tiers[tier]
	angle := e.rng.Float64() * 2 * math.Pi
	speed := e.rng.Float64() * e.rules.NodeDriftMax
	n := &Node{
		Entity: Entity{
			ID: e.allocID(), X: x, Y: y, W: ts.Size, H: ts.Size,
			Team: TeamNeutral, Health: 1, MaxHealth: 1,
		},
		Tier:      tier,
		Remaining: ts.Quantity,
		Initial:   ts.Quantity,
		VX:        math.Cos(angle) * speed,
		VY:        math.Sin(angle) * speed,
		Spin:      (e.rng.Float64() - 0.5) * 0.5,
	}
	e.nodes = append(e.nodes, n)
	e.nodeByID[n.ID] = n
	return n
}

func (e *Engine) pickTier() NodeTier {
	var total float64
	for _, t := range e.rules.Tiers {
		total += t.Weight
	}
	roll := e.rng.Float64() * total
	for i, t := range e.rules.Tiers {
		if roll < t.Weight {
			return NodeTier(i)
		}
		roll -= t.Weight
	}
	return TierMedium
}

// spawnRandomNode places a node anywhere in the world but clear of every base.
func (e *Engine) spawnRandomNode() *Node {
	r := e.rules
	var x, y float64
	for attempt := 0; attempt < 20; attempt++ {
		x = e.rng.Float64() * r.WorldW
		y = e.rng.Float64() * r.WorldH
		if !e.nearAnyBase(x, y, r.NodeBaseClearance) {
			break
		}
	}
	return e.addNode(e.pickTier(), x, y)
}

func (e *Engine) nearAnyBase(x, y, radius float64) bool {
	for _, b := range e.bases {
		if b.DistanceTo(x, y) < radius {
			return true
		}
	}
	return false
}

// placeUnit creates a unit without charging anyone. Upgrades apply to player units only.
func (e *Engine) placeUnit(team Team, t UnitType, x, y float64) *Unit {
	st := e.rules.Units[t]
	hp := st.Health
	speed := st.Speed
	if team == TeamPlayer {
		hp *= e.upgrades.healthMultiplier(e.rules)
		speed *= e.upgrades.speedMultiplier(e.rules)
	}
	u := &Unit{
		Entity: Entity{
			ID: e.allocID(), X: x, Y: y, W: st.HitRadius * 2, H: st.HitRadius * 2,
			Team: team, Health: hp, MaxHealth: hp,
		},
		Type:          t,
		Speed:         speed,
		Damage:        st.Damage,
		AttackRange:   st.AttackRange,
		VisionRange:   st.VisionRange,
		CooldownMs:    st.CooldownMs,
		SinceAttackMs: st.CooldownMs,
		HitRadius:     st.HitRadius,
		Capacity:      st.Capacity,
		State:         UnitIdle,
		TargetX:       x,
		TargetY:       y,
	}
	e.units = append(e.units, u)
	e.unitByID[u.ID] = u
	e.stats[team].UnitsBuilt++
	e.emit(Event{Kind: EventUnitSpawned, Team: team, Subject: u.Label(), X: x, Y: y, Detail: t.String()})
	return u
}

// maxSubsteps bounds the work one Tick call can do; time beyond
// maxSubsteps*Rules.MaxDeltaTime is dropped with a warning.
const maxSubsteps = 600

// Tick advances the match by dt seconds. Non-finite or negative dt is treated
// as zero. A dt larger than Rules.MaxDeltaTime is run as equal substeps no
// longer than that bound, so the whole delta is simulated. Re-entrant calls
// and calls after the match has ended are ignored.
func (e *Engine) Tick(dt float64) {
	if e.ticking || e.outcome != OutcomeOngoing {
		return
	}
	e.ticking = true
	defer func() { e.ticking = false }()

	n, slice := e.substeps(e.sanitizeDelta(dt))
	for i := 0; i < n && e.outcome == OutcomeOngoing; i++ {
		e.step(slice)
	}
}

// substeps splits dt into n equal steps of at most Rules.MaxDeltaTime.
func (e *Engine) substeps(dt float64) (int, float64) {
	limit := e.rules.MaxDeltaTime
	if limit <= 0 || dt <= limit {
		return 1, dt
	}
	n := int(math.Ceil(dt/limit - 1e-9))
	if n > maxSubsteps {
		e.log.Warn().
			Float64("dt", dt).
			Float64("simulated", float64(maxSubsteps)*limit).
			Msg("frame delta too large, dropping the excess")
		return maxSubsteps, limit
	}
	return n, dt / float64(n)
}

// step runs one fixed-order simulation step of dt seconds.
func (e *Engine) step(dt float64) {
	e.tick++
	e.simTime += dt

	// 1. Opponent / waves.
	if e.opponent != nil {
		e.opponent.Update(dt)
	}
	if e.autopilot != nil {
		e.autopilot.Update(dt)
	}
	if e.waves != nil {
		e.waves.Update(dt)
	}
	// 2. Node drift.
	e.driftNodes(dt)
	// 3. Node respawn.
	e.respawnNodes()
	// 4. Camera.
	e.advanceCamera(dt)
	// 5. Transients.
	e.advanceParticles(dt)
	e.advancePowerups(dt)
	e.advanceShake(dt)
	// 6. Bases: power, income, repair, turret.
	for _, b := range e.bases {
		e.updateBase(b, dt)
	}
	// 7. Units.
	for _, u := range e.units {
		if u.Alive() {
			e.updateUnit(u, dt)
		}
	}
	// 8. Cleanup; base loss ends the match.
	e.removeDeadUnits()
	if e.removeDeadBases() {
		return
	}
	// 9. Depleted nodes.
	e.removeDepletedNodes()

	e.maybePushSnapshot()
}

func (e *Engine) sanitizeDelta(dt float64) float64 {
	if math.IsNaN(dt) || math.IsInf(dt, 0) || dt < 0 {
		return 0
	}
	return dt
}

func (e *Engine) driftNodes(dt float64) {
	r := e.rules
	for _, n := range e.nodes {
		n.X += n.VX * dt
		n.Y += n.VY * dt
		n.Rotation += n.Spin * dt
		if n.X < -r.NodeWrapMargin {
			n.X = r.WorldW + r.NodeWrapMargin
		} else if n.X > r.WorldW+r.NodeWrapMargin {
			n.X = -r.NodeWrapMargin
		}
		if n.Y < -r.NodeWrapMargin {
			n.Y = r.WorldH + r.NodeWrapMargin
		} else if n.Y > r.WorldH+r.NodeWrapMargin {
			n.Y = -r.NodeWrapMargin
		}
	}
}

func (e *Engine) respawnNodes() {
	if e.noNodes || len(e.nodes) >= e.rules.NodeFloor {
		return
	}
	if e.rng.Float64() < e.rules.NodeRespawnChance {
		e.spawnRandomNode()
	}
}

func (e *Engine) advanceCamera(dt float64) {
	step := e.rules.CameraPanSpeed * dt
	if e.pan.Up {
		e.camera.Y -= step
	}
	if e.pan.Down {
		e.camera.Y += step
	}
	if e.pan.Left {
		e.camera.X -= step
	}
	if e.pan.Right {
		e.camera.X += step
	}
	e.clampCamera()
}

func (e *Engine) clampCamera() {
	r := e.rules
	e.camera.X = math.Max(0, math.Min(e.camera.X, math.Max(0, r.WorldW-r.ViewW)))
	e.camera.Y = math.Max(0, math.Min(e.camera.Y, math.Max(0, r.WorldH-r.ViewH)))
}

func (e *Engine) removeDeadUnits() {
	kept := e.units[:0]
	for _, u := range e.units {
		if u.Alive() {
			kept = append(kept, u)
			continue
		}
		if u.Team == TeamEnemy {
			e.kills++
		}
		e.stats[u.Team].UnitsLost++
		delete(e.unitByID, u.ID)
		e.spawnExplosion(u.X, u.Y, u.Team, e.rules.ExplosionParticles)
		e.emit(Event{Kind: EventUnitDestroyed, Team: u.Team, Subject: u.Label(), X: u.X, Y: u.Y, Detail: u.Type.String()})
	}
	clear(e.units[len(kept):])
	e.units = kept
}

// removeDeadBases drops destroyed bases and reports whether the match ended.
func (e *Engine) removeDeadBases() bool {
	kept := e.bases[:0]
	var lost *Base
	for _, b := range e.bases {
		if b.Alive() {
			kept = append(kept, b)
			continue
		}
		delete(e.baseByID, b.ID)
		if lost == nil {
			lost = b
		}
		e.spawnExplosion(b.X, b.Y, b.Team, e.rules.ExplosionParticles*4)
		e.addShake(20, 1)
		e.emit(Event{Kind: EventBaseDestroyed, Team: b.Team, X: b.X, Y: b.Y})
	}
	clear(e.bases[len(kept):])
	e.bases = kept
	if lost == nil {
		return false
	}

	if lost.Team == TeamPlayer {
		e.outcome = OutcomeLose
	} else {
		e.outcome = OutcomeWin
	}
	e.emit(Event{Kind: EventGameOver, Team: TeamPlayer, Detail: e.outcome.String(), Value: float64(e.kills)})
	e.log.Info().
		Str("outcome", e.outcome.String()).
		Int("kills", e.kills).
		Int("wave", e.Wave()).
		Float64("time", e.simTime).
		Msg("match over")
	e.pushSnapshot()
	return true
}

func (e *Engine) removeDepletedNodes() {
	kept := e.nodes[:0]
	for _, n := range e.nodes {
		if !n.Depleted() {
			kept = append(kept, n)
			continue
		}
		delete(e.nodeByID, n.ID)
	}
	clear(e.nodes[len(kept):])
	e.nodes = kept
}

// --- Handle resolution ---

// resolveUnit returns the unit behind h if it is still alive.
func (e *Engine) resolveUnit(h Handle) *Unit {
	if h.Kind != KindUnit {
		return nil
	}
	u := e.unitByID[h.ID]
	if u == nil || !u.Alive() {
		return nil
	}
	return u
}

func (e *Engine) resolveBase(h Handle) *Base {
	if h.Kind != KindBase {
		return nil
	}
	b := e.baseByID[h.ID]
	if b == nil || !b.Alive() {
		return nil
	}
	return b
}

func (e *Engine) resolveNode(h Handle) *Node {
	if h.Kind != KindNode {
		return nil
	}
	n := e.nodeByID[h.ID]
	if n == nil || n.Depleted() {
		return nil
	}
	return n
}

// resolveTarget returns the live attackable entity behind h.
func (e *Engine) resolveTarget(h Handle) *Entity {
	switch h.Kind {
	case KindUnit:
		if u := e.resolveUnit(h); u != nil {
			return &u.Entity
		}
	case KindBase:
		if b := e.resolveBase(h); b != nil {
			return &b.Entity
		}
	}
	return nil
}

// --- Read accessors ---

func (e *Engine) Rules() *Rules { return e.rules }
func (e *Engine) Mode() MatchMode { return e.mode }
func (e *Engine) Difficulty() Difficulty { return e.difficulty }
func (e *Engine) Seed() int64 { return e.seed }
func (e *Engine) TickCount() int { return e.tick }
func (e *Engine) SimTime() float64 { return e.simTime }
func (e *Engine) Outcome() Outcome { return e.outcome }
func (e *Engine) Over() bool { return e.outcome != OutcomeOngoing }
func (e *Engine) Kills() int { return e.kills }
func (e *Engine) Units() []*Unit { return e.units }
func (e *Engine) Bases() []*Base { return e.bases }
func (e *Engine) Nodes() []*Node { return e.nodes }
func (e *Engine) Particles() []*Particle { return e.particles }
func (e *Engine) Powerups() []*Powerup { return e.powerups }
func (e *Engine) Camera() Camera { return e.camera }
func (e *Engine) Shake() Shake { return e.shake }
func (e *Engine) LassoMode() bool { return e.lassoMode }
func (e *Engine) Upgrades() Upgrades { return e.upgrades }

// Lasso returns the in-progress lasso rectangle, if any.
func (e *Engine) Lasso() (Lasso, bool) {
	if e.lasso == nil {
		return Lasso{}, false
	}
	return *e.lasso, true
}

// Credits returns t's balance.
func (e *Engine) Credits(t Team) float64 { return e.ledger.Balance(t) }

// Stats returns t's running totals.
func (e *Engine) Stats(t Team) TeamStats {
	if t < 0 || t >= teamCount {
		return TeamStats{}
	}
	return e.stats[t]
}

// Wave is the current wave number, 1 outside survival.
func (e *Engine) Wave() int {
	if e.waves == nil {
		return 1
	}
	return e.waves.Wave
}

// Waves exposes the survival scheduler, nil in skirmish.
func (e *Engine) Waves() *WaveScheduler { return e.waves }

// Opponent exposes the opponent controller, nil in survival.
func (e *Engine) Opponent() *Opponent { return e.opponent }

// Autopilot exposes the player-side controller, nil unless WithAutopilot was given.
func (e *Engine) Autopilot() *Opponent { return e.autopilot }

// BaseOf returns t's live base or nil.
func (e *Engine) BaseOf(t Team) *Base {
	for _, b := range e.bases {
		if b.Team == t && b.Alive() {
			return b
		}
	}
	return nil
}

// UnitByID returns a live unit by ID.
func (e *Engine) UnitByID(id int) *Unit { return e.resolveUnit(Handle{Kind: KindUnit, ID: id}) }

// NodeByID returns a live node by ID.
func (e *Engine) NodeByID(id int) *Node { return e.resolveNode(Handle{Kind: KindNode, ID: id}) }

// UnitsOf returns t's live units.
func (e *Engine) UnitsOf(t Team) []*Unit {
	var out []*Unit
	for _, u := range e.units {
		if u.Team == t && u.Alive() {
			out = append(out, u)
		}
	}
	return out
}

// Selected returns the player's current selection.
func (e *Engine) Selected() []*Unit {
	var out []*Unit
	for _, u := range e.units {
		if u.Selected && u.Alive() {
			out = append(out, u)
		}
	}
	return out
}

// VisibleToPlayer reports whether (x, y) is inside the player's vision. In
// survival everything is visible.
func (e *Engine) VisibleToPlayer(x, y float64) bool {
	if e.mode == MatchSurvival {
		return true
	}
	for _, b := range e.bases {
		if b.Team == TeamPlayer && b.DistanceTo(x, y) <= b.Vision {
			return true
		}
	}
	for _, u := range e.units {
		if u.Team == TeamPlayer && u.Alive() && u.DistanceTo(x, y) <= u.VisionRange {
			return true
		}
	}
	return false
}

// nearestNode returns the closest non-depleted node to (x, y).
func (e *Engine) nearestNode(x, y float64) *Node {
	var best *Node
	bestD := math.MaxFloat64
	for _, n := range e.nodes {
		if n.Depleted() {
			continue
		}
		if d := n.DistanceTo(x, y); d < bestD {
			bestD = d
			best = n
		}
	}
	return best
}

// depotBase returns t's nearest live base with a depot.
func (e *Engine) depotBase(t Team, x, y float64) *Base {
	var best *Base
	bestD := math.MaxFloat64
	for _, b := range e.bases {
		if b.Team != t || !b.Alive() || b.Modules[ModuleDepot] <= 0 {
			continue
		}
		if d := b.DistanceTo(x, y); d < bestD {
			bestD = d
			best = b
		}
	}
	return best
}
