package sim

import (
	"math"
	"testing"
)

const testDT = 0.1

// quietEngine builds a match with no random nodes and no opponent, so a test
// only sees the entities it places itself.
func quietEngine(opts ...Option) *Engine {
	return quietEngineRules(nil, opts...)
}

func quietEngineRules(r *Rules, opts ...Option) *Engine {
	base := []Option{WithSeed(42), WithoutNodes(), WithoutOpponent()}
	return NewEngine(r, append(base, opts...)...)
}

// runFor ticks e in fixed steps for the given number of simulated seconds.
func runFor(e *Engine, seconds float64) {
	n := int(math.Round(seconds / testDT))
	for i := 0; i < n; i++ {
		e.Tick(testDT)
	}
}

// dumpLog prints the SimLog so it appears in `go test -v` output.
func dumpLog(t *testing.T, e *Engine) {
	t.Helper()
	entries := e.SimLog.Entries()
	if len(entries) == 0 {
		t.Log("(no log entries)")
		return
	}
	for _, en := range entries {
		t.Log(en.String())
	}
}

// onlyUnit returns the single unit of team, failing the test otherwise.
func onlyUnit(t *testing.T, e *Engine, team Team) *Unit {
	t.Helper()
	us := e.UnitsOf(team)
	if len(us) != 1 {
		t.Fatalf("expected exactly 1 %s unit, got %d", team, len(us))
	}
	return us[0]
}
