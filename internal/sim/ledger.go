package sim

import "math"

// Ledger keeps one credit balance per team. Balances are independent; nothing
// ever moves credits between teams.
type Ledger struct {
	balances [teamCount]float64
}

// Balance returns the spendable credits of t.
func (l *Ledger) Balance(t Team) float64 {
	if t < 0 || t >= teamCount {
		return 0
	}
	return l.balances[t]
}

// Spend commits amount only when the balance covers it. It never lets a
// balance go negative.
func (l *Ledger) Spend(t Team, amount float64) bool {
	if t <= TeamNeutral || t >= teamCount {
		return false
	}
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return false
	}
	if l.balances[t] < amount {
		return false
	}
	l.balances[t] -= amount
	return true
}

// Deposit credits t. Non-positive amounts are ignored.
func (l *Ledger) Deposit(t Team, amount float64) {
	if t <= TeamNeutral || t >= teamCount {
		return
	}
	if !(amount > 0) || math.IsInf(amount, 0) {
		return
	}
	l.balances[t] += amount
}

// set seeds a starting balance.
func (l *Ledger) set(t Team, amount float64) {
	if t <= TeamNeutral || t >= teamCount || !(amount >= 0) {
		return
	}
	l.balances[t] = amount
}

// TeamStats accumulates per-team totals for the match report.
type TeamStats struct {
	CreditsMined  float64 `json:"creditsMined" msgpack:"creditsMined"`
	CreditsIncome float64 `json:"creditsIncome" msgpack:"creditsIncome"`
	CreditsSpent  float64 `json:"creditsSpent" msgpack:"creditsSpent"`
	UnitsBuilt    int     `json:"unitsBuilt" msgpack:"unitsBuilt"`
	UnitsLost     int     `json:"unitsLost" msgpack:"unitsLost"`
	Upgrades      int     `json:"upgrades" msgpack:"upgrades"`
}
