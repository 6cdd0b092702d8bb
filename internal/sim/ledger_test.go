package sim

import (
	"math"
	"math/rand"
	"testing"
)

func TestLedger_SpendNeverGoesNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(7)) // #nosec G404 -- test
	var l Ledger
	l.set(TeamPlayer, 150)

	for i := 0; i < 5000; i++ {
		before := l.Balance(TeamPlayer)
		if rng.Intn(3) == 0 {
			amt := rng.Float64() * 100
			l.Deposit(TeamPlayer, amt)
			if got := l.Balance(TeamPlayer); math.Abs(got-(before+amt)) > 1e-9 {
				t.Fatalf("deposit %.2f: expected %.2f, got %.2f", amt, before+amt, got)
			}
			continue
		}
		cost := rng.Float64() * 400
		ok := l.Spend(TeamPlayer, cost)
		after := l.Balance(TeamPlayer)
		switch {
		case ok && before < cost:
			t.Fatalf("spend %.2f committed with only %.2f", cost, before)
		case ok && math.Abs(after-(before-cost)) > 1e-9:
			t.Fatalf("spend %.2f: expected %.2f, got %.2f", cost, before-cost, after)
		case !ok && after != before:
			t.Fatalf("declined spend changed balance %.2f -> %.2f", before, after)
		}
		if after < 0 {
			t.Fatalf("balance went negative: %.2f", after)
		}
	}
}

func TestLedger_TeamsAreIndependent(t *testing.T) {
	var l Ledger
	l.set(TeamPlayer, 100)
	l.set(TeamEnemy, 200)

	if !l.Spend(TeamEnemy, 150) {
		t.Fatal("enemy spend should succeed")
	}
	if l.Balance(TeamPlayer) != 100 {
		t.Fatalf("player balance leaked: got %.0f", l.Balance(TeamPlayer))
	}
	if l.Spend(TeamPlayer, 150) {
		t.Fatal("player spend of 150 with 100 should fail")
	}
}

func TestLedger_RejectsBadInput(t *testing.T) {
	var l Ledger
	l.set(TeamPlayer, 100)

	for _, amt := range []float64{-1, math.NaN(), math.Inf(1)} {
		if l.Spend(TeamPlayer, amt) {
			t.Fatalf("spend %v should be rejected", amt)
		}
	}
	l.Deposit(TeamPlayer, -50)
	l.Deposit(TeamPlayer, math.NaN())
	if l.Balance(TeamPlayer) != 100 {
		t.Fatalf("expected 100 after rejected deposits, got %v", l.Balance(TeamPlayer))
	}
	if l.Spend(TeamNeutral, 0) {
		t.Fatal("neutral team has no ledger")
	}
}
