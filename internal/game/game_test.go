package game

import (
	"strings"
	"testing"

	"github.com/Garsondee/Void-Harvest/internal/sim"
)

func TestEventLog_RingKeepsNewest(t *testing.T) {
	el := NewEventLog()
	for i := 0; i < logMaxEntries+5; i++ {
		el.Add(i, "P1", sim.TeamPlayer, "tick")
	}
	got := el.Recent()
	if len(got) != logMaxEntries {
		t.Fatalf("expected %d entries, got %d", logMaxEntries, len(got))
	}
	if got[0].Tick != 5 || got[len(got)-1].Tick != logMaxEntries+4 {
		t.Fatalf("expected ticks 5..%d, got %d..%d", logMaxEntries+4, got[0].Tick, got[len(got)-1].Tick)
	}
}

func TestEventLog_SkipsShotsAndFormatsDetail(t *testing.T) {
	el := NewEventLog()
	el.OnEvent(sim.Event{Tick: 1, Kind: sim.EventShot, Subject: "P2"})
	el.OnEvent(sim.Event{Tick: 2, Kind: sim.EventModuleUpgraded, Team: sim.TeamPlayer, Detail: "solar"})

	got := el.Recent()
	if len(got) != 1 {
		t.Fatalf("shots should be skipped, got %d entries", len(got))
	}
	if got[0].Label != "--" || got[0].Message != "module_upgraded solar" {
		t.Fatalf("unexpected entry %+v", got[0])
	}
}

func TestEventLog_FedByEngine(t *testing.T) {
	el := NewEventLog()
	e := sim.NewEngine(nil, sim.WithSeed(3), sim.WithoutNodes(), sim.WithoutOpponent(), sim.WithListener(el))
	if !e.SpawnUnit(sim.UnitMiner) {
		t.Fatal("spawn should succeed")
	}
	found := false
	for _, en := range el.Recent() {
		if strings.HasPrefix(en.Message, "unit_spawned") && en.Team == sim.TeamPlayer {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a unit_spawned entry")
	}
}

func TestInputBindings_CoverEveryKind(t *testing.T) {
	if len(spawnKeys) != len(sim.AllUnitTypes()) {
		t.Fatalf("%d spawn keys for %d unit types", len(spawnKeys), len(sim.AllUnitTypes()))
	}
	if len(moduleKeys) != len(sim.AllModuleKinds()) {
		t.Fatalf("%d module keys for %d module kinds", len(moduleKeys), len(sim.AllModuleKinds()))
	}
}

func TestHudLines_ModeSpecificRows(t *testing.T) {
	e := sim.NewEngine(nil, sim.WithSeed(1), sim.WithoutNodes(), sim.WithMode(sim.MatchSurvival))
	out := strings.Join(hudLines(e.Snapshot(), sim.MatchSurvival, true), "\n")
	for _, want := range []string{"CREDITS 150", "WAVE    1", "Q:solar0", "E:depot1", "1:miner", "[PAUSED]"} {
		if !strings.Contains(out, want) {
			t.Fatalf("hud missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "battery") {
		t.Fatalf("survival hud should not list battery:\n%s", out)
	}

	sk := sim.NewEngine(nil, sim.WithSeed(1), sim.WithoutNodes(), sim.WithoutOpponent())
	sk.ToggleLassoMode()
	out = strings.Join(hudLines(sk.Snapshot(), sim.MatchSkirmish, false), "\n")
	if strings.Contains(out, "WAVE") {
		t.Fatal("skirmish hud should not show a wave counter")
	}
	if !strings.Contains(out, "W:battery0") || !strings.Contains(out, "[LASSO]") {
		t.Fatalf("unexpected skirmish hud:\n%s", out)
	}
}

func TestInspectorLines(t *testing.T) {
	e := sim.NewEngine(nil, sim.WithSeed(1), sim.WithoutNodes(), sim.WithoutOpponent(),
		sim.WithUnit(sim.TeamPlayer, sim.UnitMiner, 500, 500))
	u := e.UnitsOf(sim.TeamPlayer)[0]
	u.Cargo = u.Capacity / 2

	curated := inspectorLines(u, 2, false)
	if !strings.Contains(curated[0], "MINER") || !strings.HasSuffix(curated[0], "+2") {
		t.Fatalf("unexpected title %q", curated[0])
	}
	joined := strings.Join(curated, "\n")
	if !strings.Contains(joined, "cargo  #######....... 50%") {
		t.Fatalf("expected half cargo gauge:\n%s", joined)
	}

	raw := strings.Join(inspectorLines(u, 0, true), "\n")
	if !strings.Contains(raw, "pos=(500,500)") || !strings.Contains(raw, "cargo=25.0/50") {
		t.Fatalf("unexpected raw view:\n%s", raw)
	}
}

func TestMatchDebugReport(t *testing.T) {
	e := sim.NewEngine(nil, sim.WithSeed(4), sim.WithoutNodes(), sim.WithoutOpponent())
	e.SpawnUnit(sim.UnitMiner)
	e.Tick(0.1)

	out := matchDebugReport(e, 0)
	for _, want := range []string{"match report", "score=", "--- Summary at", "unit_spawned", "== events T=0..1 =="} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "== selection") {
		t.Fatal("no selection section expected without a selection")
	}
}

func TestMatchDebugReport_SelectionHistoryAndLastMarkers(t *testing.T) {
	e := sim.NewEngine(nil, sim.WithSeed(4), sim.WithoutNodes(), sim.WithoutOpponent())
	e.SpawnUnit(sim.UnitMiner)
	e.UpgradeBase(sim.ModuleSolar)
	u := e.UnitsOf(sim.TeamPlayer)[0]
	u.Selected = true

	out := matchDebugReport(e, 0)
	if !strings.Contains(out, "== selection (1) ==") {
		t.Fatalf("expected a selection section:\n%s", out)
	}
	if !strings.Contains(out, "    [T=000] "+u.Label()) {
		t.Fatalf("expected %s's spawn under the selection:\n%s", u.Label(), out)
	}
	if !strings.Contains(out, "last module_upgraded") || !strings.Contains(out, "solar") {
		t.Fatalf("expected the last upgrade marker:\n%s", out)
	}
	if strings.Contains(out, "last wave_started") {
		t.Fatal("skirmish report should not carry a wave marker")
	}
}
