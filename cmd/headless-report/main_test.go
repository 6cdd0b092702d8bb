package main

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Garsondee/Void-Harvest/internal/sim"
)

func TestOutcomeCounts(t *testing.T) {
	all := []runStats{
		{report: sim.MatchReport{Outcome: sim.OutcomeWin}},
		{report: sim.MatchReport{Outcome: sim.OutcomeLose}},
		{report: sim.MatchReport{Outcome: sim.OutcomeWin}},
		{report: sim.MatchReport{Outcome: sim.OutcomeOngoing}},
	}

	wins, losses, ongoing := outcomeCounts(all)
	if wins != 2 || losses != 1 || ongoing != 1 {
		t.Fatalf("expected 2/1/1, got wins=%d losses=%d ongoing=%d", wins, losses, ongoing)
	}
}

func TestDetectStalemate_TrueWhenCappedWithoutFighting(t *testing.T) {
	rs := runStats{
		timedOut:        true,
		firstAttackTick: -1,
		report:          sim.MatchReport{Mode: sim.MatchSkirmish},
	}

	isStalemate, reason := detectStalemate(rs)
	if !isStalemate {
		t.Fatalf("expected stalemate=true, got false (reason=%s)", reason)
	}
	if !strings.Contains(reason, "no_attack_launched") || !strings.Contains(reason, "no_losses") {
		t.Fatalf("expected reason to name both markers, got: %s", reason)
	}
}

func TestDetectStalemate_FalseWhenLossesOccur(t *testing.T) {
	rs := runStats{
		timedOut:        true,
		firstAttackTick: 900,
		report: sim.MatchReport{
			Mode:  sim.MatchSkirmish,
			Enemy: sim.TeamStats{UnitsLost: 3},
		},
	}

	isStalemate, reason := detectStalemate(rs)
	if isStalemate {
		t.Fatalf("expected stalemate=false when units were lost (reason=%s)", reason)
	}
}

func TestDetectStalemate_FalseForSurvivalAndDecidedRuns(t *testing.T) {
	if stale, _ := detectStalemate(runStats{timedOut: false}); stale {
		t.Fatal("a decided match is never a stalemate")
	}
	surv := runStats{timedOut: true, firstAttackTick: -1, report: sim.MatchReport{Mode: sim.MatchSurvival}}
	if stale, reason := detectStalemate(surv); stale || reason != "survival_runs_until_loss" {
		t.Fatalf("survival should not stalemate, got %v (%s)", stale, reason)
	}
}

func TestFirstTick(t *testing.T) {
	entries := []sim.SimLogEntry{
		{Tick: 3, Category: "ai", Key: "decision", Value: "miner"},
		{Tick: 7, Category: "ai", Key: "decision", Value: "attack"},
		{Tick: 9, Category: "ai", Key: "decision", Value: "attack"},
		{Tick: 11, Category: "unit", Key: "unit_destroyed"},
	}
	if got := firstTick(entries, "ai", "decision", "attack"); got != 7 {
		t.Fatalf("expected first attack at 7, got %d", got)
	}
	if got := firstTick(entries, "unit", "unit_destroyed", ""); got != 11 {
		t.Fatalf("expected first kill at 11, got %d", got)
	}
	if got := firstTick(entries, "wave", "wave_cleared", ""); got != -1 {
		t.Fatalf("expected -1 for a missing marker, got %d", got)
	}
}

func TestAggregateHelpers(t *testing.T) {
	if avg(10, 4) != 2.5 || avg(3, 0) != 0 {
		t.Fatal("avg mismatch")
	}
	if avgTickString(nil) != "n/a" || avgTickString([]int{10, 20}) != "15.0" {
		t.Fatal("avgTickString mismatch")
	}
	counts := map[string]int{"miner": 4, "attack": 4, "power": 1}
	if got := topRule(counts); got != "attack(4)" {
		t.Fatalf("ties should break alphabetically, got %s", got)
	}
	if got := joinCounts(counts); got != "attack=4 miner=4 power=1" {
		t.Fatalf("unexpected join %q", got)
	}
	if topRule(nil) != "none" || joinCounts(nil) != "none" {
		t.Fatal("empty maps should print none")
	}
}

func TestRunMatch_ShortCappedRun(t *testing.T) {
	opts := options{
		maxSeconds: 5,
		dt:         0.1,
		mode:       sim.MatchSkirmish,
		difficulty: sim.DifficultyEasy,
		pilot:      sim.DifficultyEasy,
	}
	rs, rec, err := runMatch(1, 99, sim.DefaultRules(), opts, zerolog.Nop())
	if err != nil {
		t.Fatalf("runMatch: %v", err)
	}
	if !rs.timedOut {
		t.Fatal("a five second skirmish should hit the cap")
	}
	if rs.seed != 99 || rec.Seed != 99 {
		t.Fatalf("seed not carried: run=%d replay=%d", rs.seed, rec.Seed)
	}
	if rs.report.Ticks == 0 {
		t.Fatal("expected ticks to advance")
	}
	if rs.totals.Events != int64(len(rec.Events)) {
		t.Fatalf("metrics saw %d events, recorder saw %d", rs.totals.Events, len(rec.Events))
	}
}
