package sim

import (
	"math"
	"testing"
)

// --- Scenario: node drained to zero by one large-capacity miner ---

func TestScenario_MineNodeToZero(t *testing.T) {
	r := DefaultRules().Clone()
	r.Units[UnitMiner].Capacity = 1000

	e := quietEngineRules(r,
		WithMode(MatchSurvival),
		WithNode(500, 500, 500),
		WithUnit(TeamPlayer, UnitMiner, 550, 500),
	)
	u := onlyUnit(t, e, TeamPlayer)
	n := e.Nodes()[0]
	nodeID := n.ID
	u.orderHarvest(n)

	last := n.Remaining
	removedAt := -1
	for i := 0; i < 520; i++ {
		e.Tick(testDT)
		live := e.NodeByID(nodeID)
		if live == nil {
			if removedAt < 0 {
				removedAt = e.TickCount()
			}
			continue
		}
		if live.Remaining > last {
			t.Fatalf("tick %d: remaining rose %.2f -> %.2f", e.TickCount(), last, live.Remaining)
		}
		if live.Remaining <= 0 {
			t.Fatalf("tick %d: depleted node still present", e.TickCount())
		}
		last = live.Remaining
	}

	if removedAt < 0 {
		dumpLog(t, e)
		t.Fatalf("node never removed, remaining %.2f", last)
	}
	if len(e.Nodes()) != 0 {
		t.Fatalf("expected no nodes, got %d", len(e.Nodes()))
	}
	extracted := u.Cargo + (e.Credits(TeamPlayer) - 150)
	if math.Abs(extracted-500) > 1e-6 {
		t.Fatalf("expected exactly 500 extracted, got %.4f", extracted)
	}
	if got := e.Stats(TeamPlayer).CreditsMined; math.Abs(got-500) > 1e-6 {
		t.Fatalf("expected 500 mined in stats, got %.4f", got)
	}
	if u.State != UnitReturning {
		t.Fatalf("miner with cargo should be RETURNING after depletion, got %s", u.State)
	}
}

func TestMining_FullCycleDepositsCredits(t *testing.T) {
	e := quietEngine(
		WithMode(MatchSurvival),
		WithNode(1300, 1000, 1000),
		WithUnit(TeamPlayer, UnitMiner, 1330, 1000),
	)
	u := onlyUnit(t, e, TeamPlayer)
	u.orderHarvest(e.Nodes()[0])

	runFor(e, 20)

	if got := e.Credits(TeamPlayer); got < 200 {
		dumpLog(t, e)
		t.Fatalf("expected at least one 50-credit load deposited, got %.1f credits", got)
	}
	if !e.SimLog.HasEntry("economy", "cargo_deposited", "") {
		t.Fatal("expected a cargo_deposited entry")
	}
	if u.LastNode.Kind != KindNode {
		t.Fatal("miner should remember its node")
	}
}

func TestMining_NoDepotGoesIdle(t *testing.T) {
	e := quietEngine(
		WithMode(MatchSurvival),
		WithModule(TeamPlayer, ModuleDepot, 0),
		WithNode(500, 500, 500),
		WithUnit(TeamPlayer, UnitMiner, 540, 500),
	)
	u := onlyUnit(t, e, TeamPlayer)
	u.orderHarvest(e.Nodes()[0])

	runFor(e, 7)

	if u.State != UnitIdle {
		t.Fatalf("expected IDLE with no depot, got %s", u.State)
	}
	if u.Cargo != u.Capacity {
		t.Fatalf("expected full cargo %.0f, got %.1f", u.Capacity, u.Cargo)
	}
	if got := e.Credits(TeamPlayer); got != 150 {
		t.Fatalf("credits should not change without a depot, got %.1f", got)
	}
}

func TestMining_DrillUpgradeRaisesRate(t *testing.T) {
	run := func(drill int) float64 {
		e := quietEngine(
			WithMode(MatchSurvival),
			WithUpgrades(Upgrades{Drill: drill}),
			WithNode(500, 500, 500),
			WithUnit(TeamPlayer, UnitMiner, 540, 500),
		)
		u := onlyUnit(t, e, TeamPlayer)
		u.orderHarvest(e.Nodes()[0])
		runFor(e, 2)
		return u.Cargo
	}
	base, boosted := run(0), run(5)
	if math.Abs(boosted/base-1.5) > 1e-6 {
		t.Fatalf("drill 5 should mine 1.5x: base %.2f boosted %.2f", base, boosted)
	}
}

func TestMove_ArrivalEpsilonDoesNotOscillate(t *testing.T) {
	e := quietEngine(WithMode(MatchSurvival), WithUnit(TeamPlayer, UnitMiner, 100, 100))
	u := onlyUnit(t, e, TeamPlayer)
	u.orderMove(100+e.Rules().ArrivalEpsilon, 100)

	for i := 0; i < 5; i++ {
		e.Tick(0)
		if u.State != UnitIdle {
			t.Fatalf("tick %d: expected IDLE at epsilon boundary, got %s", i, u.State)
		}
	}
	if u.X != 105 || u.Y != 100 {
		t.Fatalf("expected unit snapped to (105,100), got (%.2f,%.2f)", u.X, u.Y)
	}
}

func TestMove_ReachesDestination(t *testing.T) {
	e := quietEngine(WithMode(MatchSurvival), WithUnit(TeamPlayer, UnitTank, 100, 100))
	u := onlyUnit(t, e, TeamPlayer)
	u.orderMove(400, 500)

	runFor(e, 6)
	if u.State != UnitIdle {
		t.Fatalf("expected IDLE after arrival, got %s", u.State)
	}
	if u.DistanceTo(400, 500) > e.Rules().ArrivalEpsilon {
		t.Fatalf("unit stopped %.1f from target", u.DistanceTo(400, 500))
	}
}

func TestCombat_FighterShootsOnCooldown(t *testing.T) {
	e := quietEngine(
		WithMode(MatchSurvival),
		WithUnit(TeamPlayer, UnitFighter, 1000, 500),
		WithUnit(TeamEnemy, UnitMiner, 1100, 500),
	)
	f := onlyUnit(t, e, TeamPlayer)
	m := onlyUnit(t, e, TeamEnemy)

	e.Tick(testDT)
	if f.State != UnitAttacking {
		t.Fatalf("expected ATTACKING, got %s", f.State)
	}
	if m.Health != 30 {
		t.Fatalf("expected first shot immediately (30 hp), got %.0f", m.Health)
	}
	e.Tick(testDT)
	if m.Health != 30 {
		t.Fatalf("second shot fired before cooldown, hp %.0f", m.Health)
	}

	runFor(e, 2.5)
	if e.UnitByID(m.ID) != nil {
		t.Fatal("enemy miner should be dead and removed")
	}
	if e.Kills() != 1 {
		t.Fatalf("expected 1 kill, got %d", e.Kills())
	}
	if f.State != UnitIdle {
		t.Fatalf("expected IDLE after target died, got %s", f.State)
	}
}

func TestCombat_KamikazeDetonatesOnce(t *testing.T) {
	e := quietEngine(
		WithMode(MatchSurvival),
		WithUnit(TeamPlayer, UnitKamikaze, 1000, 500),
		WithUnit(TeamEnemy, UnitTank, 1020, 500),
	)
	e.Tick(testDT)

	if n := len(e.Units()); n != 0 {
		t.Fatalf("expected both units gone, %d remain", n)
	}
	if e.Kills() != 1 {
		t.Fatalf("expected 1 kill, got %d", e.Kills())
	}
	if e.Stats(TeamPlayer).UnitsLost != 1 {
		t.Fatalf("kamikaze should count as a lost unit")
	}
	if !e.SimLog.HasEntry("combat", "explosion", "kamikaze") {
		t.Fatal("expected kamikaze explosion entry")
	}
	if e.Shake().Intensity <= 0 {
		t.Fatal("expected camera shake after detonation")
	}
}

func TestCombat_OutOfRangeReturnsIdle(t *testing.T) {
	e := quietEngine(
		WithMode(MatchSurvival),
		WithUnit(TeamPlayer, UnitFighter, 1000, 500),
		WithUnit(TeamEnemy, UnitMiner, 1100, 500),
	)
	f := onlyUnit(t, e, TeamPlayer)
	m := onlyUnit(t, e, TeamEnemy)
	e.Tick(testDT)

	m.X = 1400
	e.Tick(testDT)
	if f.State != UnitIdle {
		t.Fatalf("expected IDLE once target left range, got %s", f.State)
	}
}

func TestHealth_DeadUnitRemovedOnNextCleanup(t *testing.T) {
	e := quietEngine(WithMode(MatchSurvival), WithUnit(TeamEnemy, UnitMiner, 100, 100))
	m := onlyUnit(t, e, TeamEnemy)
	m.TakeDamage(m.MaxHealth)

	if e.UnitByID(m.ID) != nil {
		t.Fatal("dead unit should not resolve")
	}
	if len(e.Units()) != 1 {
		t.Fatal("dead unit must stay in the collection until cleanup")
	}
	e.Tick(testDT)
	if len(e.Units()) != 0 {
		t.Fatal("dead unit should be removed by the next tick")
	}
	m.Heal(100)
	if m.Alive() {
		t.Fatal("healing must not revive a dead unit")
	}
}

func TestUpgrades_ArmorAndSpeedApplyToPlayerOnly(t *testing.T) {
	e := quietEngine(
		WithMode(MatchSurvival),
		WithUpgrades(Upgrades{Armor: 2, Speed: 4}),
		WithUnit(TeamPlayer, UnitTank, 100, 100),
		WithUnit(TeamEnemy, UnitTank, 2900, 1900),
	)
	p := onlyUnit(t, e, TeamPlayer)
	en := onlyUnit(t, e, TeamEnemy)

	if math.Abs(p.MaxHealth-480) > 1e-9 {
		t.Fatalf("expected 480 hp with armor 2, got %.2f", p.MaxHealth)
	}
	if math.Abs(p.Speed-90*1.2) > 1e-9 {
		t.Fatalf("expected speed %.1f with speed 4, got %.2f", 90*1.2, p.Speed)
	}
	if en.MaxHealth != 400 || en.Speed != 90 {
		t.Fatalf("enemy stats should be unmodified, got hp %.0f speed %.0f", en.MaxHealth, en.Speed)
	}
}
