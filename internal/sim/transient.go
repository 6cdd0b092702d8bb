package sim

import "math"

// PowerupKind is the effect applied when a player unit picks a powerup up.
type PowerupKind int

const (
	PowerupHealth PowerupKind = iota
	PowerupCredits
	PowerupNuke
	powerupKindCount
)

func (k PowerupKind) String() string {
	switch k {
	case PowerupHealth:
		return "health"
	case PowerupCredits:
		return "credits"
	case PowerupNuke:
		return "nuke"
	default:
		return "unknown"
	}
}

// Powerup is a timed pickup dropped into the world.
type Powerup struct {
	ID   int
	X, Y float64
	Kind PowerupKind
	Life float64 // seconds remaining
}

// Particle is a purely visual spark with a fading life in [0, 1].
type Particle struct {
	X, Y   float64
	VX, VY float64
	Life   float64
	Team   Team
}

// advanceParticles moves and fades particles, dropping dead ones in place.
func (e *Engine) advanceParticles(dt float64) {
	kept := e.particles[:0]
	for _, p := range e.particles {
		p.X += p.VX * dt
		p.Y += p.VY * dt
		p.Life -= e.rules.ParticleDecay * dt
		if p.Life > 0 {
			kept = append(kept, p)
		}
	}
	clear(e.particles[len(kept):])
	e.particles = kept
}

// advancePowerups expires powerups and applies the first overlapping player unit's pickup.
func (e *Engine) advancePowerups(dt float64) {
	kept := e.powerups[:0]
	for _, p := range e.powerups {
		p.Life -= dt
		if p.Life <= 0 {
			continue
		}
		if e.pickupBy(p) {
			continue
		}
		kept = append(kept, p)
	}
	clear(e.powerups[len(kept):])
	e.powerups = kept
}

func (e *Engine) pickupBy(p *Powerup) bool {
	for _, u := range e.units {
		if u.Team != TeamPlayer || !u.Alive() {
			continue
		}
		if u.DistanceTo(p.X, p.Y) >= e.rules.PowerupPickupRadius {
			continue
		}
		e.applyPowerup(p, u)
		return true
	}
	return false
}

func (e *Engine) applyPowerup(p *Powerup, by *Unit) {
	switch p.Kind {
	case PowerupHealth:
		for _, u := range e.units {
			if u.Team == TeamPlayer && u.Alive() {
				u.Health = u.MaxHealth
			}
		}
	case PowerupCredits:
		e.ledger.Deposit(TeamPlayer, e.rules.PowerupCredits)
		e.stats[TeamPlayer].CreditsIncome += e.rules.PowerupCredits
	case PowerupNuke:
		for _, u := range e.units {
			if u.Team == TeamEnemy && u.Alive() {
				u.TakeDamage(e.rules.NukeDamage)
			}
		}
		e.addShake(15, 0.8)
	}
	e.emit(Event{Kind: EventPowerup, Team: TeamPlayer, Subject: by.Label(), X: p.X, Y: p.Y, Detail: p.Kind.String()})
}

// dropPowerup places a new powerup of kind k.
func (e *Engine) dropPowerup(k PowerupKind, x, y float64) *Powerup {
	p := &Powerup{ID: e.allocID(), X: x, Y: y, Kind: k, Life: e.rules.PowerupLifetime}
	e.powerups = append(e.powerups, p)
	e.emit(Event{Kind: EventSupplyDrop, Team: TeamNeutral, X: x, Y: y, Detail: k.String()})
	return p
}

// spawnExplosion scatters particles for the renderer.
func (e *Engine) spawnExplosion(x, y float64, team Team, n int) {
	for i := 0; i < n; i++ {
		angle := e.rng.Float64() * 2 * math.Pi
		speed := 40 + e.rng.Float64()*120
		e.particles = append(e.particles, &Particle{
			X: x, Y: y,
			VX:   math.Cos(angle) * speed,
			VY:   math.Sin(angle) * speed,
			Life: 1,
			Team: team,
		})
	}
}

// Shake is the renderer's camera-shake state.
type Shake struct {
	Intensity float64
	Remaining float64
}

func (e *Engine) addShake(intensity, seconds float64) {
	if intensity > e.shake.Intensity {
		e.shake.Intensity = intensity
	}
	if seconds > e.shake.Remaining {
		e.shake.Remaining = seconds
	}
}

func (e *Engine) advanceShake(dt float64) {
	if e.shake.Remaining <= 0 {
		e.shake = Shake{}
		return
	}
	e.shake.Remaining -= dt
	if e.shake.Remaining <= 0 {
		e.shake = Shake{}
	}
}
