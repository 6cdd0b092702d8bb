package sim

import "math"

// updateUnit advances one unit: harvesting, auto-acquire, then whichever of
// movement, attack or logistics its state calls for.
func (e *Engine) updateUnit(u *Unit, dt float64) {
	u.SinceAttackMs += dt * 1000

	if u.State == UnitMining {
		e.stepMining(u, dt)
	}
	if u.Damage > 0 && (u.State == UnitIdle || u.State == UnitMoving) {
		e.autoAcquire(u)
	}

	switch u.State {
	case UnitMoving:
		e.stepMoving(u, dt)
	case UnitAttacking:
		e.stepAttacking(u)
	case UnitReturning:
		e.stepReturning(u, dt)
	case UnitOffloading:
		e.stepOffloading(u, dt)
	}
}

// moveToward steps u toward (x, y) and reports arrival. Arrival is distance at
// or under the epsilon, or a step that would overshoot; either way the unit
// snaps onto the point, so a unit parked exactly at epsilon never oscillates.
func (e *Engine) moveToward(u *Unit, x, y, dt float64) bool {
	dx, dy := x-u.X, y-u.Y
	dist := math.Hypot(dx, dy)
	if dist <= e.rules.ArrivalEpsilon {
		u.X, u.Y = x, y
		return true
	}
	step := u.Speed * dt
	u.Rotation = math.Atan2(dy, dx)
	if step >= dist {
		u.X, u.Y = x, y
		return true
	}
	u.X += dx / dist * step
	u.Y += dy / dist * step
	return false
}

func (e *Engine) stepMoving(u *Unit, dt float64) {
	node := e.resolveNode(u.Target)
	if node != nil {
		u.TargetX, u.TargetY = node.X, node.Y
		if u.IsHarvester() && node.DistanceTo(u.X, u.Y) <= e.rules.MiningReach {
			u.State = UnitMining
			u.LastNode = u.Target
			return
		}
	} else if u.Target.Kind == KindNode {
		// Harvest target vanished mid-trip; keep walking to where it was.
		u.Target = NoHandle
	}

	if !e.moveToward(u, u.TargetX, u.TargetY, dt) {
		return
	}
	if node != nil && u.IsHarvester() {
		u.State = UnitMining
		u.LastNode = u.Target
		return
	}
	u.State = UnitIdle
	if u.Target.Kind == KindNode {
		u.Target = NoHandle
	}
}

// stepMining drains the node into cargo. The amount is clamped to both what the
// node has left and the free cargo space, so nothing is ever lost or invented.
func (e *Engine) stepMining(u *Unit, dt float64) {
	node := e.resolveNode(u.Target)
	if node == nil {
		e.finishMining(u)
		return
	}
	if node.DistanceTo(u.X, u.Y) > e.rules.MiningReach {
		e.moveToward(u, node.X, node.Y, dt)
		return
	}
	rate := e.rules.MiningRate
	if u.Team == TeamPlayer {
		rate *= e.upgrades.miningMultiplier(e.rules)
	}
	want := math.Min(rate*dt, u.Capacity-u.Cargo)
	got := node.drain(want)
	u.Cargo += got
	e.stats[u.Team].CreditsMined += got

	if u.Cargo >= u.Capacity || node.Depleted() {
		e.finishMining(u)
	}
}

func (e *Engine) finishMining(u *Unit) {
	if u.Cargo > 0 {
		e.orderReturn(u)
		return
	}
	u.goIdle()
}

// orderReturn heads u to the nearest depot base, or idles if there is none.
func (e *Engine) orderReturn(u *Unit) {
	b := e.depotBase(u.Team, u.X, u.Y)
	if b == nil {
		u.goIdle()
		return
	}
	u.State = UnitReturning
	u.Target = Handle{Kind: KindBase, ID: b.ID}
	u.TargetX, u.TargetY = b.X, b.Y
}

func (e *Engine) dockRange(u *Unit, b *Base) float64 {
	return b.W/2 + u.HitRadius + e.rules.DockPadding
}

func (e *Engine) stepReturning(u *Unit, dt float64) {
	b := e.resolveBase(u.Target)
	if b == nil || b.Modules[ModuleDepot] <= 0 {
		b = e.depotBase(u.Team, u.X, u.Y)
		if b == nil {
			u.goIdle()
			return
		}
		u.Target = Handle{Kind: KindBase, ID: b.ID}
	}
	if b.DistanceTo(u.X, u.Y) > e.dockRange(u, b) {
		e.moveToward(u, b.X, b.Y, dt)
		return
	}
	if e.rules.OffloadRate <= 0 {
		e.deposit(u, b, u.Cargo)
		e.resumeMining(u)
		return
	}
	u.State = UnitOffloading
}

func (e *Engine) stepOffloading(u *Unit, dt float64) {
	b := e.resolveBase(u.Target)
	if b == nil || b.Modules[ModuleDepot] <= 0 {
		u.goIdle()
		return
	}
	e.deposit(u, b, math.Min(u.Cargo, e.rules.OffloadRate*dt))
	if u.Cargo <= 0 {
		e.resumeMining(u)
	}
}

func (e *Engine) deposit(u *Unit, b *Base, amount float64) {
	if amount <= 0 {
		return
	}
	u.Cargo -= amount
	if u.Cargo < 1e-9 {
		u.Cargo = 0
	}
	e.ledger.Deposit(u.Team, amount)
	if u.Cargo == 0 {
		e.emit(Event{Kind: EventCargoDeposited, Team: u.Team, Subject: u.Label(), X: b.X, Y: b.Y, Value: amount})
	}
}

// resumeMining sends an emptied harvester back to its last node, else the
// nearest one, else idles it.
func (e *Engine) resumeMining(u *Unit) {
	u.goIdle()
	if n := e.resolveNode(u.LastNode); n != nil {
		u.orderHarvest(n)
		return
	}
	if n := e.nearestNode(u.X, u.Y); n != nil {
		u.orderHarvest(n)
	}
}

// autoAcquire locks u onto an opposing live unit or base strictly inside
// attack range. An ordered target that is in range wins over a nearer one.
func (e *Engine) autoAcquire(u *Unit) {
	if t := e.resolveTarget(u.Target); t != nil && u.Team.Opposes(t.Team) && t.DistanceTo(u.X, u.Y) < u.AttackRange {
		u.State = UnitAttacking
		return
	}

	best := u.AttackRange
	var pick Handle
	for _, o := range e.units {
		if !u.Team.Opposes(o.Team) || !o.Alive() {
			continue
		}
		if d := o.DistanceTo(u.X, u.Y); d < best {
			best = d
			pick = Handle{Kind: KindUnit, ID: o.ID}
		}
	}
	for _, b := range e.bases {
		if !u.Team.Opposes(b.Team) || !b.Alive() {
			continue
		}
		if d := b.DistanceTo(u.X, u.Y); d < best {
			best = d
			pick = Handle{Kind: KindBase, ID: b.ID}
		}
	}
	if pick.Valid() {
		u.Target = pick
		u.State = UnitAttacking
	}
}

func (e *Engine) stepAttacking(u *Unit) {
	t := e.resolveTarget(u.Target)
	if t == nil || !u.Team.Opposes(t.Team) {
		u.goIdle()
		return
	}
	if t.DistanceTo(u.X, u.Y) > u.AttackRange {
		u.goIdle()
		return
	}
	u.Rotation = math.Atan2(t.Y-u.Y, t.X-u.X)

	if u.Type == UnitKamikaze {
		t.TakeDamage(u.Damage)
		u.Health = 0
		e.addShake(10, 0.5)
		e.emit(Event{Kind: EventExplosion, Team: u.Team, Subject: u.Label(), X: u.X, Y: u.Y, Value: u.Damage, Detail: "kamikaze"})
		return
	}
	if u.SinceAttackMs < u.CooldownMs {
		return
	}
	u.SinceAttackMs = 0
	t.TakeDamage(u.Damage)
	e.emit(Event{Kind: EventShot, Team: u.Team, Subject: u.Label(), X: t.X, Y: t.Y, Value: u.Damage, Detail: u.Type.String()})
}
