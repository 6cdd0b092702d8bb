package sim

import (
	"math"
)

// Lasso is an in-progress drag rectangle in world coordinates.
type Lasso struct {
	X0, Y0 float64
	X1, Y1 float64
}

// Rect returns the normalised corners.
func (l Lasso) Rect() (minX, minY, maxX, maxY float64) {
	return math.Min(l.X0, l.X1), math.Min(l.Y0, l.Y1), math.Max(l.X0, l.X1), math.Max(l.Y0, l.Y1)
}

// ScreenToWorld converts viewport coordinates using the camera offset.
func (e *Engine) ScreenToWorld(sx, sy float64) (float64, float64) {
	return sx + e.camera.X, sy + e.camera.Y
}

// SetPan records the held directional keys; the camera moves during Tick.
func (e *Engine) SetPan(p PanInput) { e.pan = p }

// PointerDown handles a press at screen coordinates. In lasso mode it starts a
// drag; otherwise it selects or orders.
func (e *Engine) PointerDown(sx, sy float64) bool {
	wx, wy := e.ScreenToWorld(sx, sy)
	if e.lassoMode {
		e.lasso = &Lasso{X0: wx, Y0: wy, X1: wx, Y1: wy}
		return true
	}
	return e.IssuePointerCommand(wx, wy)
}

// PointerMove extends an active lasso drag.
func (e *Engine) PointerMove(sx, sy float64) {
	if e.lasso == nil {
		return
	}
	e.lasso.X1, e.lasso.Y1 = e.ScreenToWorld(sx, sy)
}

// PointerUp completes a lasso drag and leaves lasso mode.
func (e *Engine) PointerUp(sx, sy float64) int {
	if e.lasso == nil {
		return 0
	}
	e.lasso.X1, e.lasso.Y1 = e.ScreenToWorld(sx, sy)
	l := *e.lasso
	e.lasso = nil
	e.lassoMode = false
	return e.IssueLassoSelection(l.X0, l.Y0, l.X1, l.Y1)
}

// IssuePointerCommand resolves a click at world coordinates: select the nearest
// player unit inside its pick radius (a second click on the same type inside
// the double-click window selects every unit of that type), or, with units
// already selected, order them to a resource node or point.
func (e *Engine) IssuePointerCommand(wx, wy float64) bool {
	if hit := e.pickUnit(wx, wy); hit != nil {
		now := e.clock()
		double := e.lastClickHit && e.lastClickType == hit.Type && now.Sub(e.lastClickAt) <= e.rules.DoubleClickWindow
		e.clearSelection()
		if double {
			for _, u := range e.units {
				if u.Team == TeamPlayer && u.Alive() && u.Type == hit.Type {
					u.Selected = true
				}
			}
			e.lastClickHit = false
		} else {
			hit.Selected = true
			e.lastClickHit = true
			e.lastClickType = hit.Type
			e.lastClickAt = now
		}
		e.emit(Event{Kind: EventSelect, Team: TeamPlayer, Subject: hit.Label(), X: hit.X, Y: hit.Y, Value: float64(len(e.Selected())), Detail: hit.Type.String()})
		return true
	}
	e.lastClickHit = false

	selected := e.Selected()
	if len(selected) == 0 {
		return false
	}
	if n := e.pickNode(wx, wy); n != nil {
		for _, u := range selected {
			if u.IsHarvester() {
				u.orderHarvest(n)
			} else {
				u.orderMove(n.X, n.Y)
			}
		}
		e.emit(Event{Kind: EventOrder, Team: TeamPlayer, X: n.X, Y: n.Y, Value: float64(len(selected)), Detail: "harvest"})
		return true
	}
	for _, u := range selected {
		u.orderMove(wx, wy)
	}
	e.emit(Event{Kind: EventOrder, Team: TeamPlayer, X: wx, Y: wy, Value: float64(len(selected)), Detail: "move"})
	return true
}

func (e *Engine) pickUnit(wx, wy float64) *Unit {
	var best *Unit
	bestD := math.MaxFloat64
	for _, u := range e.units {
		if u.Team != TeamPlayer || !u.Alive() {
			continue
		}
		radius := math.Min(u.HitRadius+e.rules.UnitPickPad, e.rules.UnitPickMax)
		d := u.DistanceTo(wx, wy)
		if d < radius && d < bestD {
			bestD = d
			best = u
		}
	}
	return best
}

func (e *Engine) pickNode(wx, wy float64) *Node {
	var best *Node
	bestD := e.rules.NodePickRadius
	for _, n := range e.nodes {
		if n.Depleted() {
			continue
		}
		if d := n.DistanceTo(wx, wy); d < bestD {
			bestD = d
			best = n
		}
	}
	return best
}

func (e *Engine) clearSelection() {
	for _, u := range e.units {
		u.Selected = false
	}
}

// IssueLassoSelection selects exactly the player units inside the axis-aligned
// rectangle spanned by the two corners and returns how many were selected.
func (e *Engine) IssueLassoSelection(x0, y0, x1, y1 float64) int {
	l := Lasso{X0: x0, Y0: y0, X1: x1, Y1: y1}
	minX, minY, maxX, maxY := l.Rect()
	e.clearSelection()
	n := 0
	for _, u := range e.units {
		if u.Team != TeamPlayer || !u.Alive() {
			continue
		}
		if u.X >= minX && u.X <= maxX && u.Y >= minY && u.Y <= maxY {
			u.Selected = true
			n++
		}
	}
	e.emit(Event{Kind: EventSelect, Team: TeamPlayer, X: (minX + maxX) / 2, Y: (minY + maxY) / 2, Value: float64(n), Detail: "lasso"})
	return n
}

// ToggleLassoMode flips lasso mode and abandons any half-finished drag.
func (e *Engine) ToggleLassoMode() bool {
	e.lassoMode = !e.lassoMode
	e.lasso = nil
	return e.lassoMode
}

// SelectAllArmy selects every player combat unit; harvesters are left out.
func (e *Engine) SelectAllArmy() int {
	n := 0
	for _, u := range e.units {
		u.Selected = u.Team == TeamPlayer && u.Alive() && !u.IsHarvester()
		if u.Selected {
			n++
		}
	}
	if n > 0 {
		e.emit(Event{Kind: EventSelect, Team: TeamPlayer, Value: float64(n), Detail: "army"})
	}
	return n
}

// SpawnUnit builds t for the player. It declines without side effects when
// credits are short or the tech gate is missing.
func (e *Engine) SpawnUnit(t UnitType) bool {
	_, ok := e.spawnFor(TeamPlayer, t)
	return ok
}

// UpgradeBase raises one player module by a level.
func (e *Engine) UpgradeBase(k ModuleKind) bool {
	return e.upgradeFor(TeamPlayer, k)
}

// SpawnUnitNamed validates an external unit name before spawning.
func (e *Engine) SpawnUnitNamed(name string) bool {
	t, err := ParseUnitType(name)
	if err != nil {
		e.reject("spawn", err)
		return false
	}
	return e.SpawnUnit(t)
}

// UpgradeBaseNamed validates an external module name before upgrading.
func (e *Engine) UpgradeBaseNamed(name string) bool {
	k, err := ParseModuleKind(name)
	if err != nil {
		e.reject("upgrade", err)
		return false
	}
	return e.UpgradeBase(k)
}

func (e *Engine) reject(cmd string, err error) {
	e.log.Debug().Err(err).Str("command", cmd).Msg("command rejected")
	e.emit(Event{Kind: EventCommandRejected, Team: TeamPlayer, Detail: cmd + ": " + err.Error()})
}

// spawnFor charges team for a unit of type t and places it beside the base.
func (e *Engine) spawnFor(team Team, t UnitType) (*Unit, bool) {
	if e.Over() || t < 0 || t >= unitTypeCount {
		return nil, false
	}
	b := e.BaseOf(team)
	if b == nil || !b.Unlocks(e.rules, t) {
		return nil, false
	}
	cost := e.rules.Units[t].Cost
	if !e.ledger.Spend(team, cost) {
		return nil, false
	}
	e.stats[team].CreditsSpent += cost
	j := e.rules.SpawnJitter
	x := b.X + (e.rng.Float64()-0.5)*2*j
	y := b.Y + (e.rng.Float64()-0.5)*2*j
	u := e.placeUnit(team, t, x, y)
	e.log.Debug().Str("team", team.String()).Str("unit", t.String()).Float64("credits", e.ledger.Balance(team)).Msg("unit built")
	return u, true
}

// upgradeFor charges team and raises module k on its base.
func (e *Engine) upgradeFor(team Team, k ModuleKind) bool {
	if e.Over() || k < 0 || k >= moduleKindCount || !e.rules.ModuleAvailable(e.mode, k) {
		return false
	}
	b := e.BaseOf(team)
	if b == nil {
		return false
	}
	cost := e.rules.Modules[k].Cost
	if !e.ledger.Spend(team, cost) {
		return false
	}
	e.stats[team].CreditsSpent += cost
	e.stats[team].Upgrades++
	b.Modules[k]++
	b.PowerRate = b.NetPower(e.rules)
	b.PowerCapacity = b.Capacity(e.rules)
	e.emit(Event{Kind: EventModuleUpgraded, Team: team, X: b.X, Y: b.Y, Value: float64(b.Modules[k]), Detail: k.String()})
	e.log.Debug().Str("team", team.String()).Str("module", k.String()).Int("level", b.Modules[k]).Msg("module upgraded")
	return true
}
