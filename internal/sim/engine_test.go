package sim

import (
	"math"
	"strings"
	"testing"
)

func TestTick_IgnoresReentrantCalls(t *testing.T) {
	var e *Engine
	calls := 0
	sink := SnapshotFunc(func(Snapshot) {
		calls++
		e.Tick(testDT)
	})
	e = quietEngine(WithSnapshotSink(sink))

	e.Tick(testDT)
	if calls == 0 {
		t.Fatal("expected a snapshot on the first tick")
	}
	if e.TickCount() != 1 {
		t.Fatalf("re-entrant Tick advanced the match: tick %d", e.TickCount())
	}
}

func TestTick_SanitisesDelta(t *testing.T) {
	e := quietEngine()
	for _, dt := range []float64{math.NaN(), math.Inf(1), -1} {
		e.Tick(dt)
	}
	if e.SimTime() != 0 {
		t.Fatalf("bad deltas should count as zero, sim time %.3f", e.SimTime())
	}
}

// --- Scenario: a 5 Hz driver still advances one simulated second per second ---
func TestTick_LargeDeltaRunsAsSubsteps(t *testing.T) {
	e := quietEngine()
	for i := 0; i < 5; i++ {
		e.Tick(0.2)
	}
	if got := e.SimTime(); math.Abs(got-1) > 1e-9 {
		t.Fatalf("five 0.2s ticks should simulate 1.00s, got %.4f", got)
	}
	if e.TickCount() != 10 {
		t.Fatalf("expected 10 steps of %.2fs, got %d", e.Rules().MaxDeltaTime, e.TickCount())
	}

	e = quietEngine()
	e.Tick(0.25)
	if e.TickCount() != 3 || math.Abs(e.SimTime()-0.25) > 1e-9 {
		t.Fatalf("0.25s should run as 3 equal steps, got %d steps, %.4fs", e.TickCount(), e.SimTime())
	}
}

func TestTick_SubstepsBoundedPerCall(t *testing.T) {
	e := quietEngine()
	e.Tick(1e9)
	want := float64(maxSubsteps) * e.Rules().MaxDeltaTime
	if e.TickCount() != maxSubsteps || math.Abs(e.SimTime()-want) > 1e-6 {
		t.Fatalf("expected %d steps and %.1fs, got %d steps and %.1fs", maxSubsteps, want, e.TickCount(), e.SimTime())
	}
}

func TestTick_SubstepsStopAtGameOver(t *testing.T) {
	e := quietEngine()
	e.BaseOf(TeamPlayer).Health = 0
	e.Tick(1)
	if !e.Over() {
		t.Fatal("expected the match to end")
	}
	if e.TickCount() != 1 {
		t.Fatalf("steps after game over: tick %d", e.TickCount())
	}
}

func TestSnapshot_ThrottledOnSimTime(t *testing.T) {
	var snaps []Snapshot
	e := quietEngine(WithSnapshotSink(SnapshotFunc(func(s Snapshot) { snaps = append(snaps, s) })))

	for i := 0; i < 100; i++ {
		e.Tick(0.01)
	}
	if len(snaps) < 9 || len(snaps) > 11 {
		t.Fatalf("expected about 10 snapshots in one simulated second, got %d", len(snaps))
	}
	last := snaps[len(snaps)-1]
	if last.Credits != 150 || last.EnergyMax != 500 {
		t.Fatalf("unexpected snapshot contents: %+v", last)
	}
	if last.BaseModules["depot"] != 1 || last.BaseModules["turret"] != 0 {
		t.Fatalf("expected depot 1 and turret 0, got %v", last.BaseModules)
	}
	if last.GameOver != "" || last.Stats != nil {
		t.Fatal("ongoing match must not report game over")
	}
}

func TestSnapshot_GameOverBypassesThrottle(t *testing.T) {
	var snaps []Snapshot
	e := quietEngine(WithSnapshotSink(SnapshotFunc(func(s Snapshot) { snaps = append(snaps, s) })))

	e.Tick(0.001)
	n := len(snaps)
	e.BaseOf(TeamEnemy).TakeDamage(1e9)
	e.Tick(0.001)

	if len(snaps) != n+1 {
		t.Fatalf("expected an immediate final snapshot, got %d new", len(snaps)-n)
	}
	final := snaps[len(snaps)-1]
	if final.GameOver != "win" {
		t.Fatalf("expected gameOver=win, got %q", final.GameOver)
	}
	if final.Stats == nil {
		t.Fatal("final snapshot should carry stats")
	}
	if e.Outcome() != OutcomeWin || !e.Over() {
		t.Fatalf("expected win, got %s", e.Outcome())
	}

	tick := e.TickCount()
	e.Tick(testDT)
	if e.TickCount() != tick {
		t.Fatal("match must stop advancing after game over")
	}
	if e.SpawnUnit(UnitMiner) {
		t.Fatal("commands after game over should be declined")
	}
}

func TestGameOver_PlayerBaseLost(t *testing.T) {
	e := quietEngine(WithMode(MatchSurvival))
	e.BaseOf(TeamPlayer).TakeDamage(1e9)
	e.Tick(testDT)
	if e.Outcome() != OutcomeLose {
		t.Fatalf("expected lose, got %s", e.Outcome())
	}
	if !e.SimLog.HasEntry("match", "game_over", "lose") {
		t.Fatal("expected game_over entry")
	}
}

func TestVisibleToPlayer(t *testing.T) {
	e := quietEngine(WithUnit(TeamPlayer, UnitFighter, 1500, 1000))
	b := e.BaseOf(TeamPlayer)

	if !e.VisibleToPlayer(b.X+100, b.Y) {
		t.Fatal("point near the player base should be visible")
	}
	if !e.VisibleToPlayer(1500, 1200) {
		t.Fatal("point inside fighter vision should be visible")
	}
	if e.VisibleToPlayer(2800, 200) {
		t.Fatal("far corner should be fogged in skirmish")
	}

	sv := quietEngine(WithMode(MatchSurvival))
	if !sv.VisibleToPlayer(2800, 200) {
		t.Fatal("survival has no fog")
	}
}

func TestNodes_SpawnClearOfBasesAndRespawn(t *testing.T) {
	e := NewEngine(nil, WithSeed(3), WithoutOpponent())
	r := e.Rules()
	if got := len(e.Nodes()); got != r.InitialNodes {
		t.Fatalf("expected %d nodes, got %d", r.InitialNodes, got)
	}
	for _, n := range e.Nodes() {
		if e.nearAnyBase(n.X, n.Y, r.NodeBaseClearance) {
			t.Fatalf("node %d spawned at (%.0f,%.0f) inside base clearance", n.ID, n.X, n.Y)
		}
	}

	for _, n := range e.Nodes()[:15] {
		n.Remaining = 0
	}
	e.Tick(testDT)
	if got := len(e.Nodes()); got >= r.NodeFloor {
		t.Fatalf("expected depleted nodes removed below the floor, got %d", got)
	}
	runFor(e, 60)
	if got := len(e.Nodes()); got < r.NodeFloor {
		t.Fatalf("expected respawns back to the floor %d, got %d", r.NodeFloor, got)
	}
}

func TestNodes_WrapAroundWorld(t *testing.T) {
	e := quietEngine(WithNode(10, 10, 100))
	n := e.Nodes()[0]
	n.VX = -200
	runFor(e, 1)
	if n.X < e.Rules().WorldW {
		t.Fatalf("node should wrap to the far edge, x=%.0f", n.X)
	}
}

func TestRules_CloneIsDeep(t *testing.T) {
	a := DefaultRules()
	b := a.Clone()
	b.Waves.Authored[0].Types[0] = UnitTank
	b.Units[UnitMiner].Cost = 1
	if a.Waves.Authored[0].Types[0] != UnitFighter || a.Units[UnitMiner].Cost != 50 {
		t.Fatal("clone shares state with the original")
	}
}

func TestParse_ClosedSets(t *testing.T) {
	if _, err := ParseUnitType("battleship"); err == nil {
		t.Fatal("expected error for unknown unit")
	}
	if _, err := ParseModuleKind("radar"); err == nil {
		t.Fatal("radar must be rejected")
	}
	if m, err := ParseMatchMode("Survival"); err != nil || m != MatchSurvival {
		t.Fatalf("expected survival, got %v %v", m, err)
	}
	if d, err := ParseDifficulty("hard"); err != nil || d != DifficultyHard {
		t.Fatalf("expected hard, got %v %v", d, err)
	}
}

func TestReport_ScoreAndScrap(t *testing.T) {
	r := MatchReport{Outcome: OutcomeWin, Kills: 7, Wave: 3, Seconds: 95.7}
	if got := r.Score(); got != 7*10+2*100+95 {
		t.Fatalf("unexpected score %d", got)
	}
	if got := r.Scrap(); got != 7*2+2*10+100 {
		t.Fatalf("unexpected scrap %d", got)
	}
	r.Outcome = OutcomeLose
	if got := r.Scrap(); got != 34 {
		t.Fatalf("loss should not add the win bonus, got %d", got)
	}
}

func TestReport_Format(t *testing.T) {
	e := quietEngine()
	e.SpawnUnit(UnitMiner)
	runFor(e, 1)
	out := e.Report().Format()
	for _, want := range []string{"mode=skirmish", "outcome=ongoing", "player", "enemy", "built=1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}
}

func TestSimLog_SubjectHistoryAndLastOf(t *testing.T) {
	e := quietEngine(WithCredits(TeamPlayer, 1000))
	if _, ok := e.SimLog.LastOf("base", "module_upgraded"); ok {
		t.Fatal("no upgrade recorded yet")
	}
	e.SpawnUnit(UnitMiner)
	e.SpawnUnit(UnitMiner)
	e.UpgradeBase(ModuleSolar)

	miners := e.UnitsOf(TeamPlayer)
	history := e.SimLog.FilterSubject(miners[0].Label())
	if len(history) != 1 || history[0].Key != "unit_spawned" {
		t.Fatalf("expected one spawn entry for %s, got %v", miners[0].Label(), history)
	}

	last, ok := e.SimLog.LastOf("unit", "unit_spawned")
	if !ok || last.Subject != miners[1].Label() {
		t.Fatalf("expected the newest spawn to be %s, got %+v", miners[1].Label(), last)
	}
	if up, ok := e.SimLog.LastOf("base", "module_upgraded"); !ok || up.Value != "solar" {
		t.Fatalf("expected a solar upgrade entry, got %+v", up)
	}
}
