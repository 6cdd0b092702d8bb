package sim

import (
	"fmt"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// DecisionEnv is the world view an opponent rule condition is evaluated
// against. Exported fields and methods are callable from expr sources.
type DecisionEnv struct {
	Credits         float64
	NetPower        float64
	Miners          int
	MinerCap        int
	CombatUnits     int
	TotalUnits      int
	UnitCap         int
	AttackThreshold int
	HasTarget       bool

	levels map[string]int
	costs  map[string]float64
}

// Level returns the installed level of a module by name.
func (d DecisionEnv) Level(kind string) int { return d.levels[kind] }

// Affordable reports whether a unit or module named name costs no more than
// the current balance.
func (d DecisionEnv) Affordable(name string) bool {
	c, ok := d.costs[name]
	return ok && d.Credits >= c
}

// decisionRule is one condition/action pair. Higher priority is evaluated first.
type decisionRule struct {
	Name         string
	Priority     int
	ConditionSrc string
	program      *vm.Program
	Action       func(o *Opponent) bool
}

// Opponent is the scripted enemy controller. It holds only a back-reference to
// the engine and acts through the same spawn and upgrade paths the player uses.
type Opponent struct {
	e      *Engine
	team   Team
	preset DifficultyPreset
	rules  []*decisionRule

	decisionTimer float64
	decisions     int
	lastRule      string
}

func newOpponent(e *Engine, team Team, preset DifficultyPreset) *Opponent {
	o := &Opponent{e: e, team: team, preset: preset}
	rules, err := compileDecisionRules(buildDecisionRules(e.rules.Opponent))
	if err != nil {
		e.log.Error().Err(err).Msg("opponent rules failed to compile; controller idle")
		return o
	}
	o.rules = rules
	return o
}

// buildDecisionRules lays out the fixed priority ladder: power, miners, tech
// gates, defence, army, attack. Thresholds are interpolated from config.
func buildDecisionRules(or OpponentRules) []*decisionRule {
	return []*decisionRule{
		{
			Name:         "power",
			Priority:     100,
			ConditionSrc: fmt.Sprintf(`NetPower < %f`, or.PowerMargin),
			Action:       func(o *Opponent) bool { return o.e.upgradeFor(o.team, ModuleSolar) },
		},
		{
			Name:         "miner",
			Priority:     90,
			ConditionSrc: `Miners < MinerCap && Affordable("miner")`,
			Action:       (*Opponent).buildMiner,
		},
		{
			Name:         "hangar",
			Priority:     80,
			ConditionSrc: fmt.Sprintf(`Credits > %f && Level("hangar") == 0`, or.HangarRich),
			Action:       func(o *Opponent) bool { return o.e.upgradeFor(o.team, ModuleHangar) },
		},
		{
			Name:         "silo",
			Priority:     70,
			ConditionSrc: fmt.Sprintf(`Credits > %f && Level("silo") == 0`, or.SiloRich),
			Action:       func(o *Opponent) bool { return o.e.upgradeFor(o.team, ModuleSilo) },
		},
		{
			Name:         "factory",
			Priority:     60,
			ConditionSrc: fmt.Sprintf(`Credits > %f && Level("factory") == 0`, or.FactoryRich),
			Action:       func(o *Opponent) bool { return o.e.upgradeFor(o.team, ModuleFactory) },
		},
		{
			Name:         "turret",
			Priority:     50,
			ConditionSrc: fmt.Sprintf(`Credits > %f && Level("turret") < %d`, or.TurretRich, or.TurretCap),
			Action:       func(o *Opponent) bool { return o.e.upgradeFor(o.team, ModuleTurret) },
		},
		{
			Name:         "army",
			Priority:     40,
			ConditionSrc: `TotalUnits < UnitCap && CombatUnits < AttackThreshold`,
			Action:       (*Opponent).buildCombatUnit,
		},
		{
			Name:         "attack",
			Priority:     30,
			ConditionSrc: `TotalUnits < UnitCap && CombatUnits >= AttackThreshold && HasTarget`,
			Action:       (*Opponent).launchAttack,
		},
	}
}

func compileDecisionRules(rules []*decisionRule) ([]*decisionRule, error) {
	for _, r := range rules {
		prog, err := expr.Compile(r.ConditionSrc, expr.Env(DecisionEnv{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", r.Name, err)
		}
		r.program = prog
	}
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority > rules[j].Priority
	})
	return rules, nil
}

// Update runs the per-tick bookkeeping and, once the decision interval has
// elapsed, one decision.
func (o *Opponent) Update(dt float64) {
	e := o.e
	if e.BaseOf(o.team) == nil {
		return
	}

	miners := 0
	for _, u := range e.units {
		if u.Team != o.team || !u.Alive() || !u.IsHarvester() {
			continue
		}
		miners++
		if u.State == UnitIdle && u.Cargo == 0 {
			if n := e.nearestNode(u.X, u.Y); n != nil {
				u.orderHarvest(n)
			}
		}
	}

	// Without miners and nearly broke the opponent could never recover.
	if miners == 0 && e.ledger.Balance(o.team) < e.rules.Opponent.TrickleBelow {
		amount := e.rules.Opponent.TrickleRate * dt
		e.ledger.Deposit(o.team, amount)
		e.stats[o.team].CreditsIncome += amount
	}

	o.decisionTimer += dt
	if o.decisionTimer <= o.preset.DecisionInterval {
		return
	}
	o.decisionTimer = 0
	o.decide()
}

// Env snapshots the world as the decision rules see it.
func (o *Opponent) Env() DecisionEnv {
	e := o.e
	env := DecisionEnv{
		Credits:         e.ledger.Balance(o.team),
		MinerCap:        o.preset.MinerCap,
		UnitCap:         e.rules.Opponent.UnitCap,
		AttackThreshold: o.preset.AttackThreshold,
		HasTarget:       e.BaseOf(o.team.Other()) != nil,
		levels:          map[string]int{},
		costs:           map[string]float64{},
	}
	if b := e.BaseOf(o.team); b != nil {
		env.NetPower = b.NetPower(e.rules)
		env.levels = b.ModuleLevels(AllModuleKinds())
	}
	for _, u := range e.units {
		if u.Team != o.team || !u.Alive() {
			continue
		}
		env.TotalUnits++
		if u.IsHarvester() {
			env.Miners++
		} else if inAttackGroup(u) {
			env.CombatUnits++
		}
	}
	for _, t := range AllUnitTypes() {
		env.costs[t.String()] = e.rules.Units[t].Cost
	}
	for _, k := range AllModuleKinds() {
		env.costs[k.String()] = e.rules.Modules[k].Cost
	}
	return env
}

// decide fires the first rule whose condition holds, whether or not its
// action succeeds.
func (o *Opponent) decide() {
	env := o.Env()
	o.decisions++
	for _, r := range o.rules {
		result, err := vm.Run(r.program, env)
		if err != nil {
			o.e.log.Warn().Err(err).Str("rule", r.Name).Msg("rule condition error")
			continue
		}
		if match, ok := result.(bool); !ok || !match {
			continue
		}
		acted := r.Action(o)
		o.lastRule = r.Name
		value := 0.0
		if acted {
			value = 1
		}
		o.e.emit(Event{Kind: EventDecision, Team: o.team, Value: value, Detail: r.Name})
		o.e.log.Debug().Str("rule", r.Name).Bool("acted", acted).Float64("credits", o.e.ledger.Balance(o.team)).Msg("opponent decision")
		return
	}
}

func (o *Opponent) buildMiner() bool {
	u, ok := o.e.spawnFor(o.team, UnitMiner)
	if !ok {
		return false
	}
	if n := o.e.nearestNode(u.X, u.Y); n != nil {
		u.orderHarvest(n)
	}
	return true
}

// buildCombatUnit picks a random unlocked and affordable combat type, weighted
// by the configured unit weights.
func (o *Opponent) buildCombatUnit() bool {
	e := o.e
	b := e.BaseOf(o.team)
	if b == nil {
		return false
	}
	credits := e.ledger.Balance(o.team)
	var choices []UnitType
	var total float64
	for _, t := range combatTypes() {
		w := e.rules.Opponent.UnitWeights[t]
		if w <= 0 || !b.Unlocks(e.rules, t) || credits < e.rules.Units[t].Cost {
			continue
		}
		choices = append(choices, t)
		total += w
	}
	if len(choices) == 0 {
		return false
	}
	roll := e.rng.Float64() * total
	pick := choices[len(choices)-1]
	for _, t := range choices {
		w := e.rules.Opponent.UnitWeights[t]
		if roll < w {
			pick = t
			break
		}
		roll -= w
	}
	_, ok := e.spawnFor(o.team, pick)
	return ok
}

// inAttackGroup reports whether u counts toward the attack threshold and joins
// launched attacks. Kamikazes stay home and only strike what they acquire.
func inAttackGroup(u *Unit) bool {
	return u.Type == UnitFighter || u.Type == UnitTank
}

// launchAttack sends every fighter and tank not already fighting at the
// opposing base, with the base set as its priority target.
func (o *Opponent) launchAttack() bool {
	e := o.e
	target := e.BaseOf(o.team.Other())
	if target == nil {
		return false
	}
	sent := 0
	for _, u := range e.units {
		if u.Team != o.team || !u.Alive() || !inAttackGroup(u) || u.State == UnitAttacking {
			continue
		}
		u.orderMove(target.X, target.Y)
		u.Target = Handle{Kind: KindBase, ID: target.ID}
		sent++
	}
	if sent > 0 {
		e.log.Info().Str("team", o.team.String()).Int("squad", sent).Msg("opponent attack launched")
	}
	return sent > 0
}

// Decisions is how many decision ticks have run.
func (o *Opponent) Decisions() int { return o.decisions }

// LastRule names the most recent rule that fired.
func (o *Opponent) LastRule() string { return o.lastRule }

// Preset returns the difficulty cadence in use.
func (o *Opponent) Preset() DifficultyPreset { return o.preset }
