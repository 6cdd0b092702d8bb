package sim

import "math"

// updateBase runs one tick of structure upkeep: regeneration, power
// bookkeeping, solar income, then the power-gated repair and turret effects.
func (e *Engine) updateBase(b *Base, dt float64) {
	r := e.rules
	if !b.Alive() {
		return
	}
	b.Heal(b.Regen * dt)

	b.PowerRate = b.NetPower(r)
	b.PowerCapacity = b.Capacity(r)
	b.Power = math.Max(0, math.Min(b.Power+b.PowerRate*dt, b.PowerCapacity))

	if lvl := b.Modules[ModuleSolar]; lvl > 0 {
		income := r.SolarIncomePerLevel * float64(lvl) * dt
		e.ledger.Deposit(b.Team, income)
		e.stats[b.Team].CreditsIncome += income
	}

	b.turretSinceMs += dt * 1000
	if b.PowerRate < 0 {
		return
	}
	if lvl := b.Modules[ModuleRepair]; lvl > 0 {
		e.repairAround(b, r.RepairPerLevel*float64(lvl)*dt)
	}
	if lvl := b.Modules[ModuleTurret]; lvl > 0 && b.turretSinceMs >= r.TurretCooldownMs {
		e.turretFire(b, r.TurretDamagePerLevel*float64(lvl))
	}
}

func (e *Engine) repairAround(b *Base, amount float64) {
	for _, u := range e.units {
		if u.Team != b.Team || !u.Alive() {
			continue
		}
		if b.DistanceTo(u.X, u.Y) <= e.rules.RepairRange {
			u.Heal(amount)
		}
	}
}

// turretFire hits the nearest opposing unit in range. The cooldown only resets
// when a shot is actually fired.
func (e *Engine) turretFire(b *Base, damage float64) {
	var target *Unit
	best := e.rules.TurretRange
	for _, u := range e.units {
		if !b.Team.Opposes(u.Team) || !u.Alive() {
			continue
		}
		if d := b.DistanceTo(u.X, u.Y); d < best {
			best = d
			target = u
		}
	}
	if target == nil {
		return
	}
	target.TakeDamage(damage)
	b.turretSinceMs = 0
	e.emit(Event{Kind: EventShot, Team: b.Team, Subject: "base", X: target.X, Y: target.Y, Value: damage, Detail: "turret"})
}
