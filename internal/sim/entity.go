package sim

import (
	"math"
	"strconv"
)

// Entity is the shared spatial shape of every world object.
type Entity struct {
	ID        int
	X, Y      float64
	W, H      float64
	Team      Team
	Health    float64
	MaxHealth float64
}

// Alive reports whether health is still above zero.
func (e *Entity) Alive() bool { return e.Health > 0 }

// TakeDamage is the only path that lowers health. Negative or non-finite
// amounts are ignored.
func (e *Entity) TakeDamage(amount float64) {
	if !(amount > 0) || math.IsInf(amount, 0) {
		return
	}
	e.Health -= amount
}

// Heal raises health, clamped to MaxHealth. Dead entities stay dead.
func (e *Entity) Heal(amount float64) {
	if !(amount > 0) || e.Health <= 0 {
		return
	}
	e.Health = math.Min(e.Health+amount, e.MaxHealth)
}

// DistanceTo is the Euclidean distance from the entity centre to (x, y).
func (e *Entity) DistanceTo(x, y float64) float64 {
	return math.Hypot(x-e.X, y-e.Y)
}

// Node is a drifting, depletable resource deposit. Its Entity health is unused;
// liveness is Remaining > 0.
type Node struct {
	Entity
	Tier      NodeTier
	Remaining float64
	Initial   float64
	VX, VY    float64
	Rotation  float64
	Spin      float64
}

// Depleted reports whether the node has nothing left.
func (n *Node) Depleted() bool { return n.Remaining <= 0 }

// drain removes up to amount from the node and returns what was actually taken.
func (n *Node) drain(amount float64) float64 {
	if amount <= 0 || n.Remaining <= 0 {
		return 0
	}
	take := math.Min(amount, n.Remaining)
	n.Remaining -= take
	return take
}

// Base is a team's stationary structure.
type Base struct {
	Entity
	Modules [moduleKindCount]int
	Regen   float64
	Vision  float64

	// Power reserve, clamped to [0, PowerCapacity]. Display only.
	Power         float64
	PowerCapacity float64
	// PowerRate is the net balance of generators minus consumers.
	PowerRate float64

	turretSinceMs float64
}

// Level returns the installed level of k.
func (b *Base) Level(k ModuleKind) int {
	if k < 0 || k >= moduleKindCount {
		return 0
	}
	return b.Modules[k]
}

// NetPower is Σ(output × level) − Σ(draw × level) over the installed modules.
func (b *Base) NetPower(r *Rules) float64 {
	var net float64
	for k, lvl := range b.Modules {
		net += r.Modules[k].PowerPerLevel * float64(lvl)
	}
	return net
}

// Capacity is the power reserve ceiling including battery bonus.
func (b *Base) Capacity(r *Rules) float64 {
	return r.BasePowerCapacity + r.BatteryCapacityPerLevel*float64(b.Modules[ModuleBattery])
}

// Unlocks reports whether t can be built from this base.
func (b *Base) Unlocks(r *Rules, t UnitType) bool {
	st := r.Units[t]
	if !st.Gated {
		return true
	}
	return b.Modules[st.Gate] > 0
}

// ModuleLevels returns the levels keyed by module name.
func (b *Base) ModuleLevels(kinds []ModuleKind) map[string]int {
	out := make(map[string]int, len(kinds))
	for _, k := range kinds {
		out[k.String()] = b.Modules[k]
	}
	return out
}

// UnitState is the harvesting/combat FSM state of a mobile unit.
type UnitState int

const (
	UnitIdle UnitState = iota
	UnitMoving
	UnitMining
	UnitReturning
	UnitOffloading
	UnitAttacking
)

func (s UnitState) String() string {
	switch s {
	case UnitIdle:
		return "IDLE"
	case UnitMoving:
		return "MOVING"
	case UnitMining:
		return "MINING"
	case UnitReturning:
		return "RETURNING"
	case UnitOffloading:
		return "OFFLOADING"
	case UnitAttacking:
		return "ATTACKING"
	default:
		return "UNKNOWN"
	}
}

// Unit is a team-owned mobile actor.
type Unit struct {
	Entity
	Type UnitType

	Speed         float64
	Damage        float64
	AttackRange   float64
	VisionRange   float64
	CooldownMs    float64
	SinceAttackMs float64
	HitRadius     float64

	Cargo    float64
	Capacity float64

	State    UnitState
	TargetX  float64
	TargetY  float64
	Target   Handle
	LastNode Handle

	Rotation float64
	Selected bool
}

// Label is the short tag used in logs, e.g. "P3" or "E12".
func (u *Unit) Label() string {
	prefix := "N"
	switch u.Team {
	case TeamPlayer:
		prefix = "P"
	case TeamEnemy:
		prefix = "E"
	}
	return prefix + strconv.Itoa(u.ID)
}

// IsHarvester reports whether the unit carries cargo.
func (u *Unit) IsHarvester() bool { return u.Type == UnitMiner }

func (u *Unit) orderMove(x, y float64) {
	u.State = UnitMoving
	u.TargetX = x
	u.TargetY = y
	u.Target = NoHandle
}

func (u *Unit) orderHarvest(n *Node) {
	u.State = UnitMoving
	u.TargetX = n.X
	u.TargetY = n.Y
	u.Target = Handle{Kind: KindNode, ID: n.ID}
	u.LastNode = u.Target
}

func (u *Unit) goIdle() {
	u.State = UnitIdle
	u.Target = NoHandle
}
