package sim

import (
	"testing"
)

func survivalEngine(r *Rules) *Engine {
	return NewEngine(r, WithSeed(7), WithoutNodes(), WithMode(MatchSurvival))
}

func TestWaves_TelegraphPrecedesSpawn(t *testing.T) {
	e := survivalEngine(nil)
	w := e.Waves()
	if w == nil || w.Wave != 1 || !w.Active() {
		t.Fatal("survival should start wave 1 immediately")
	}

	e.Tick(testDT)
	pend := w.Pending()
	if len(pend) != 1 || w.Queued() != 2 {
		t.Fatalf("expected 1 telegraph and 2 queued, got %d and %d", len(pend), w.Queued())
	}
	if !e.SimLog.HasEntry("wave", "spawn_warning", "fighter") {
		t.Fatal("expected a spawn_warning entry")
	}
	r := e.Rules()
	p := pend[0]
	if p.X >= 0 && p.X <= r.WorldW && p.Y >= 0 && p.Y <= r.WorldH {
		t.Fatalf("telegraph at (%.0f,%.0f) should be outside the world", p.X, p.Y)
	}

	runFor(e, 2.7)
	if n := len(e.UnitsOf(TeamEnemy)); n != 0 {
		t.Fatalf("spawn materialised before the warning ran out: %d enemies", n)
	}
	runFor(e, 0.5)
	enemies := e.UnitsOf(TeamEnemy)
	if len(enemies) != 1 {
		t.Fatalf("expected first fighter on the field, got %d", len(enemies))
	}
	if u := enemies[0]; u.Type != UnitFighter || u.State != UnitMoving {
		t.Fatalf("expected a MOVING fighter, got %s %s", u.Type, u.State)
	}
}

func TestWaves_ClearRestThenNextWave(t *testing.T) {
	e := survivalEngine(nil)
	w := e.Waves()

	runFor(e, 6.5)
	enemies := e.UnitsOf(TeamEnemy)
	if len(enemies) != 3 || w.Queued() != 0 || len(w.Pending()) != 0 {
		dumpLog(t, e)
		t.Fatalf("expected all 3 fighters spawned, got %d live, %d queued", len(enemies), w.Queued())
	}
	for _, u := range enemies {
		u.Health = 0
	}
	e.Tick(testDT)
	e.Tick(testDT)

	if w.Active() {
		t.Fatal("wave should be cleared once every enemy is dead")
	}
	if !e.SimLog.HasEntry("wave", "wave_cleared", "") {
		t.Fatal("expected wave_cleared entry")
	}
	if rest := w.RestRemaining(); rest <= 0 || rest > e.Rules().Waves.RestSeconds {
		t.Fatalf("unexpected rest remaining %.2f", rest)
	}

	runFor(e, e.Rules().Waves.RestSeconds+0.2)
	if w.Wave != 2 || !w.Active() {
		t.Fatalf("expected wave 2 active, got wave %d active=%v", w.Wave, w.Active())
	}
	total := w.Queued() + len(w.Pending()) + len(e.UnitsOf(TeamEnemy))
	if total != e.Rules().Waves.Authored[1].Count {
		t.Fatalf("expected %d spawns in wave 2, got %d", e.Rules().Waves.Authored[1].Count, total)
	}
	if e.Wave() != 2 {
		t.Fatalf("engine should report wave 2, got %d", e.Wave())
	}
}

func TestWaves_AuthoredQueueCyclesTypes(t *testing.T) {
	q := authoredQueue(WaveTemplate{Count: 5, Types: []UnitType{UnitFighter, UnitFighter, UnitKamikaze}, Interval: 1.5})
	want := []UnitType{UnitFighter, UnitFighter, UnitKamikaze, UnitFighter, UnitFighter}
	if len(q) != len(want) {
		t.Fatalf("expected %d spawns, got %d", len(want), len(q))
	}
	for i, s := range q {
		if s.Type != want[i] {
			t.Fatalf("spawn %d: expected %s, got %s", i, want[i], s.Type)
		}
		if s.At != float64(i+1)*1.5 {
			t.Fatalf("spawn %d: expected at %.1f, got %.2f", i, float64(i+1)*1.5, s.At)
		}
	}
	if authoredQueue(WaveTemplate{Count: 3}) != nil {
		t.Fatal("template without types should be empty")
	}
}

func TestWaves_ProceduralSpendsBudget(t *testing.T) {
	r := DefaultRules()
	if r.WaveBudget(2) <= r.WaveBudget(1) {
		t.Fatal("wave budget should grow with the wave number")
	}

	e := survivalEngine(nil)
	q := e.Waves().proceduralQueue(1000)
	if len(q) == 0 {
		t.Fatal("expected a non-empty procedural wave")
	}
	spent := 0.0
	for i, s := range q {
		if s.Type == UnitMiner {
			t.Fatal("procedural waves should only field combat units")
		}
		spent += r.Units[s.Type].Cost
		if s.At != float64(i+1)*r.Waves.ProceduralInterval {
			t.Fatalf("spawn %d at %.2f, expected even spacing", i, s.At)
		}
	}
	if spent > 1000 {
		t.Fatalf("overspent budget: %.0f", spent)
	}
	if 1000-spent >= r.Units[UnitKamikaze].Cost {
		t.Fatalf("stopped with %.0f left, enough for another unit", 1000-spent)
	}
}

func TestWaves_SupplyDropOnSchedule(t *testing.T) {
	r := DefaultRules().Clone()
	r.Waves.Authored = nil
	r.Waves.BudgetPerWave = 0
	e := survivalEngine(r)

	runFor(e, r.Waves.DropFirst-0.5)
	if len(e.Powerups()) != 0 {
		t.Fatal("no supply drop expected before the first interval")
	}
	runFor(e, 1)
	ps := e.Powerups()
	if len(ps) != 1 {
		t.Fatalf("expected one supply drop, got %d", len(ps))
	}
	m := r.Waves.DropMargin
	if p := ps[0]; p.X < m || p.X > r.WorldW-m || p.Y < m || p.Y > r.WorldH-m {
		t.Fatalf("drop at (%.0f,%.0f) outside the margin", p.X, p.Y)
	}
	if !e.SimLog.HasEntry("economy", "supply_drop", "") {
		t.Fatal("expected supply_drop entry")
	}
	if e.Wave() < 2 {
		t.Fatal("empty waves should keep cycling through rests")
	}
}
