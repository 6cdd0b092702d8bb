package sim

import (
	"fmt"
	"strings"
)

// MatchReport summarises a match for the end screen, the profile's save-run
// request and the headless CLI.
type MatchReport struct {
	Outcome    Outcome    `json:"outcome" msgpack:"outcome"`
	Mode       MatchMode  `json:"mode" msgpack:"mode"`
	Difficulty Difficulty `json:"difficulty" msgpack:"difficulty"`
	Seed       int64      `json:"seed" msgpack:"seed"`
	Ticks      int        `json:"ticks" msgpack:"ticks"`
	Seconds    float64    `json:"seconds" msgpack:"seconds"`
	Kills      int        `json:"kills" msgpack:"kills"`
	Wave       int        `json:"wave" msgpack:"wave"`
	Player     TeamStats  `json:"player" msgpack:"player"`
	Enemy      TeamStats  `json:"enemy" msgpack:"enemy"`
	Survivors  int        `json:"survivors" msgpack:"survivors"`
}

// Report builds a MatchReport from the current state. It can be called mid-match.
func (e *Engine) Report() MatchReport {
	return MatchReport{
		Outcome:    e.outcome,
		Mode:       e.mode,
		Difficulty: e.difficulty,
		Seed:       e.seed,
		Ticks:      e.tick,
		Seconds:    e.simTime,
		Kills:      e.kills,
		Wave:       e.Wave(),
		Player:     e.stats[TeamPlayer],
		Enemy:      e.stats[TeamEnemy],
		Survivors:  len(e.UnitsOf(TeamPlayer)),
	}
}

// Score is kills×10 + (wave−1)×100 + whole seconds survived.
func (r MatchReport) Score() int {
	return r.Kills*10 + (r.Wave-1)*100 + int(r.Seconds)
}

// Scrap is the meta-currency awarded for the run.
func (r MatchReport) Scrap() int {
	s := r.Kills*2 + (r.Wave-1)*10
	if r.Outcome == OutcomeWin {
		s += 100
	}
	return s
}

// Format renders the report as a plain text block.
func (r MatchReport) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "--- Void Harvest match report ---\n")
	fmt.Fprintf(&b, "mode=%s difficulty=%s seed=%d\n", r.Mode, r.Difficulty, r.Seed)
	fmt.Fprintf(&b, "outcome=%s ticks=%d time=%.1fs wave=%d kills=%d survivors=%d\n",
		r.Outcome, r.Ticks, r.Seconds, r.Wave, r.Kills, r.Survivors)
	writeTeam := func(name string, s TeamStats) {
		fmt.Fprintf(&b, "%-6s mined=%.0f income=%.0f spent=%.0f built=%d lost=%d upgrades=%d\n",
			name, s.CreditsMined, s.CreditsIncome, s.CreditsSpent, s.UnitsBuilt, s.UnitsLost, s.Upgrades)
	}
	writeTeam("player", r.Player)
	if r.Mode == MatchSkirmish {
		writeTeam("enemy", r.Enemy)
	}
	fmt.Fprintf(&b, "score=%d scrap=%d\n", r.Score(), r.Scrap())
	return b.String()
}
