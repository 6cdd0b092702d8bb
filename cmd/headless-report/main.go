package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/Garsondee/Void-Harvest/internal/config"
	"github.com/Garsondee/Void-Harvest/internal/logging"
	"github.com/Garsondee/Void-Harvest/internal/profile"
	"github.com/Garsondee/Void-Harvest/internal/replay"
	"github.com/Garsondee/Void-Harvest/internal/sim"
	"github.com/Garsondee/Void-Harvest/internal/telemetry"
)

type runStats struct {
	runIndex int
	seed     int64
	report   sim.MatchReport
	timedOut bool

	firstKillTick    int
	firstUpgradeTick int
	firstAttackTick  int
	firstClearTick   int

	playerDecisions map[string]int
	enemyDecisions  map[string]int
	rejected        int
	totals          telemetry.Totals
}

type options struct {
	runs       int
	seedBase   int64
	seedStep   int64
	maxSeconds float64
	dt         float64
	mode       sim.MatchMode
	difficulty sim.Difficulty
	pilot      sim.Difficulty
	replayDir  string
}

func main() {
	var opts options
	var cfgDir, modeName, diffName, pilotName string
	var save, influx bool

	flag.IntVar(&opts.runs, "runs", 5, "number of headless matches")
	flag.Int64Var(&opts.seedBase, "seed-base", 42, "seed for run 1")
	flag.Int64Var(&opts.seedStep, "seed-step", 1, "seed increment between runs")
	flag.Float64Var(&opts.maxSeconds, "max-seconds", 900, "simulated seconds before a run is called")
	flag.Float64Var(&opts.dt, "dt", 0.05, "fixed tick length in seconds")
	flag.StringVar(&cfgDir, "config", ".", "directory holding "+config.FileName)
	flag.StringVar(&modeName, "mode", "", "skirmish|survival (default from config)")
	flag.StringVar(&diffName, "difficulty", "", "opponent preset easy|medium|hard (default from config)")
	flag.StringVar(&pilotName, "pilot", "medium", "player autopilot preset easy|medium|hard")
	flag.StringVar(&opts.replayDir, "replay-dir", "", "write one compressed event log per run into this directory")
	flag.BoolVar(&save, "save", false, "save each run to the configured profile")
	flag.BoolVar(&influx, "influx", false, "export each run to InfluxDB (overrides influx.enabled)")
	flag.Parse()

	log := logging.New(os.Stderr, "WARN", true)
	cfg, err := config.Load(cfgDir)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	log = logging.New(os.Stderr, cfg.LogLevel, true)

	if opts.runs <= 0 {
		fmt.Println("error: -runs must be > 0")
		return
	}
	if !(opts.dt > 0) || !(opts.maxSeconds > 0) {
		fmt.Println("error: -dt and -max-seconds must be > 0")
		return
	}
	if modeName == "" {
		modeName = cfg.Match.Mode
	}
	if diffName == "" {
		diffName = cfg.Match.Difficulty
	}
	if opts.mode, err = sim.ParseMatchMode(modeName); err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	if opts.difficulty, err = sim.ParseDifficulty(diffName); err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	if opts.pilot, err = sim.ParseDifficulty(pilotName); err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	if opts.replayDir != "" {
		if err := os.MkdirAll(opts.replayDir, 0o755); err != nil {
			fmt.Printf("error: %v\n", err)
			return
		}
	}

	ctx := context.Background()
	var store *profile.Store
	if save {
		store, err = profile.Open(cfg.Profile.PostgresDSN, cfg.Profile.SQLitePath, log)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			return
		}
		defer store.Close()
	}
	var exporter *telemetry.Exporter
	if influx || cfg.Influx.Enabled {
		exporter, err = telemetry.NewExporter(ctx, cfg.Influx.URL, cfg.Influx.Token, cfg.Influx.Org, cfg.Influx.Bucket, log)
		if err != nil {
			log.Warn().Err(err).Msg("influx export disabled")
			exporter = nil
		} else {
			defer exporter.Close()
		}
	}

	fmt.Printf("=== Headless Match Report ===\n")
	fmt.Printf("mode=%s difficulty=%s pilot=%s runs=%d max_seconds=%.0f dt=%.3f seed_base=%d seed_step=%d\n\n",
		opts.mode, opts.difficulty, opts.pilot, opts.runs, opts.maxSeconds, opts.dt, opts.seedBase, opts.seedStep)

	all := make([]runStats, 0, opts.runs)
	for i := 0; i < opts.runs; i++ {
		seed := opts.seedBase + int64(i)*opts.seedStep
		rs, rec, err := runMatch(i+1, seed, cfg.Rules(), opts, log)
		if err != nil {
			fmt.Printf("error: run %d: %v\n", i+1, err)
			return
		}
		all = append(all, rs)
		printRun(rs)

		if opts.replayDir != "" {
			path := filepath.Join(opts.replayDir, fmt.Sprintf("run-%03d-seed-%d.vhr", i+1, seed))
			if err := replay.WriteFile(path, rec); err != nil {
				log.Error().Err(err).Str("path", path).Msg("write replay")
			}
		}
		if store != nil {
			if _, run, err := store.SaveRun(ctx, cfg.Profile.UserID, rs.report); err != nil {
				log.Error().Err(err).Msg("save run")
			} else {
				log.Debug().Str("run", run.ID.String()).Msg("run saved")
			}
		}
		if exporter != nil {
			if err := exporter.Write(ctx, rs.report); err != nil {
				log.Error().Err(err).Msg("influx write")
			}
		}
	}

	printAggregate(all)
}

// runMatch plays one seeded match to completion or the time cap.
func runMatch(runIndex int, seed int64, rules *sim.Rules, opts options, log zerolog.Logger) (runStats, *replay.Log, error) {
	metrics, err := telemetry.NewMetrics(nil)
	if err != nil {
		return runStats{}, nil, fmt.Errorf("metrics: %w", err)
	}
	rec := &replay.Recorder{}
	e := sim.NewEngine(rules,
		sim.WithSeed(seed),
		sim.WithMode(opts.mode),
		sim.WithDifficulty(opts.difficulty),
		sim.WithAutopilot(opts.pilot),
		sim.WithLogger(log),
		sim.WithClock(func() time.Time { return time.Unix(0, 0) }),
		sim.WithListener(metrics),
		sim.WithListener(rec),
	)
	for !e.Over() && e.SimTime() < opts.maxSeconds {
		e.Tick(opts.dt)
	}
	return collect(runIndex, e, metrics.Totals()), rec.Log(e), nil
}

func collect(runIndex int, e *sim.Engine, totals telemetry.Totals) runStats {
	entries := e.SimLog.Entries()
	rs := runStats{
		runIndex:         runIndex,
		seed:             e.Seed(),
		report:           e.Report(),
		timedOut:         !e.Over(),
		firstKillTick:    firstTick(entries, "unit", "unit_destroyed", ""),
		firstUpgradeTick: firstTick(entries, "base", "module_upgraded", ""),
		firstAttackTick:  firstTick(entries, "ai", "decision", "attack"),
		firstClearTick:   firstTick(entries, "wave", "wave_cleared", ""),
		playerDecisions:  map[string]int{},
		enemyDecisions:   map[string]int{},
		rejected:         e.SimLog.CountCategory("command", "rejected"),
		totals:           totals,
	}
	for _, en := range e.SimLog.Filter("ai", "decision") {
		if en.Team == sim.TeamPlayer.String() {
			rs.playerDecisions[en.Value]++
		} else {
			rs.enemyDecisions[en.Value]++
		}
	}
	return rs
}

func firstTick(entries []sim.SimLogEntry, category, key, contains string) int {
	for _, e := range entries {
		if e.Category != category || e.Key != key {
			continue
		}
		if contains == "" || e.Value == contains {
			return e.Tick
		}
	}
	return -1
}

// detectStalemate flags a capped run where neither side made real progress.
func detectStalemate(rs runStats) (bool, string) {
	if !rs.timedOut {
		return false, "decided"
	}
	if rs.report.Mode == sim.MatchSurvival {
		return false, "survival_runs_until_loss"
	}
	kills := rs.report.Player.UnitsLost + rs.report.Enemy.UnitsLost
	if kills > 0 && rs.firstAttackTick >= 0 {
		return false, fmt.Sprintf("timed_out_with_fighting losses=%d", kills)
	}
	reason := "timed_out"
	if rs.firstAttackTick < 0 {
		reason += " no_attack_launched"
	}
	if kills == 0 {
		reason += " no_losses"
	}
	return true, reason
}

func outcomeCounts(all []runStats) (wins, losses, ongoing int) {
	for _, rs := range all {
		switch rs.report.Outcome {
		case sim.OutcomeWin:
			wins++
		case sim.OutcomeLose:
			losses++
		default:
			ongoing++
		}
	}
	return wins, losses, ongoing
}

func printRun(rs runStats) {
	r := rs.report
	fmt.Printf("--- Run %d (seed=%d) ---\n", rs.runIndex, rs.seed)
	fmt.Printf("outcome=%s time=%.1fs ticks=%d wave=%d kills=%d score=%d scrap=%d\n",
		r.Outcome, r.Seconds, r.Ticks, r.Wave, r.Kills, r.Score(), r.Scrap())
	fmt.Printf("phase_markers: first_upgrade=%d first_attack=%d first_kill=%d first_wave_clear=%d\n",
		rs.firstUpgradeTick, rs.firstAttackTick, rs.firstKillTick, rs.firstClearTick)
	fmt.Printf("player: mined=%.0f spent=%.0f built=%d lost=%d upgrades=%d\n",
		r.Player.CreditsMined, r.Player.CreditsSpent, r.Player.UnitsBuilt, r.Player.UnitsLost, r.Player.Upgrades)
	if r.Mode == sim.MatchSkirmish {
		fmt.Printf("enemy:  mined=%.0f spent=%.0f built=%d lost=%d upgrades=%d\n",
			r.Enemy.CreditsMined, r.Enemy.CreditsSpent, r.Enemy.UnitsBuilt, r.Enemy.UnitsLost, r.Enemy.Upgrades)
	}
	fmt.Printf("decisions: player=[%s] enemy=[%s] rejected=%d\n",
		joinCounts(rs.playerDecisions), joinCounts(rs.enemyDecisions), rs.rejected)
	fmt.Printf("telemetry: events=%d spawned=%d destroyed=%d upgrades=%d waves_cleared=%d decisions=%d mined=%.0f\n",
		rs.totals.Events, rs.totals.UnitsSpawned, rs.totals.UnitsDestroyed, rs.totals.Upgrades, rs.totals.WavesCleared, rs.totals.Decisions, rs.totals.CreditsMined)
	if stale, reason := detectStalemate(rs); stale {
		fmt.Printf("STALEMATE: %s\n", reason)
	}
	fmt.Println()
}

func printAggregate(all []runStats) {
	wins, losses, ongoing := outcomeCounts(all)
	totalKills := 0
	totalScore := 0
	totalScrap := 0
	totalWave := 0
	totalSeconds := 0.0
	stalemates := 0
	killTicks := make([]int, 0, len(all))
	attackTicks := make([]int, 0, len(all))
	decisions := map[string]int{}

	for _, rs := range all {
		totalKills += rs.report.Kills
		totalScore += rs.report.Score()
		totalScrap += rs.report.Scrap()
		totalWave += rs.report.Wave
		totalSeconds += rs.report.Seconds
		if stale, _ := detectStalemate(rs); stale {
			stalemates++
		}
		if rs.firstKillTick >= 0 {
			killTicks = append(killTicks, rs.firstKillTick)
		}
		if rs.firstAttackTick >= 0 {
			attackTicks = append(attackTicks, rs.firstAttackTick)
		}
		for k, v := range rs.enemyDecisions {
			decisions[k] += v
		}
	}

	fmt.Println("=== Aggregate ===")
	fmt.Printf("runs=%d wins=%d losses=%d unfinished=%d stalemates=%d\n", len(all), wins, losses, ongoing, stalemates)
	fmt.Printf("avg_per_run: kills=%.1f score=%.1f scrap=%.1f wave=%.1f seconds=%.1f\n",
		avg(totalKills, len(all)), avg(totalScore, len(all)), avg(totalScrap, len(all)), avg(totalWave, len(all)), totalSeconds/float64(len(all)))
	fmt.Printf("phase_marker_avg_ticks: first_kill=%s first_attack=%s\n", avgTickString(killTicks), avgTickString(attackTicks))
	fmt.Printf("enemy_decisions: %s (top %s)\n", joinCounts(decisions), topRule(decisions))
}

func avg(sum int, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func avgTickString(vals []int) string {
	if len(vals) == 0 {
		return "n/a"
	}
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return fmt.Sprintf("%.1f", float64(sum)/float64(len(vals)))
}

func topRule(counts map[string]int) string {
	if len(counts) == 0 {
		return "none"
	}
	best := ""
	bestN := 0
	for k, v := range counts {
		if v > bestN || (v == bestN && k < best) {
			best = k
			bestN = v
		}
	}
	return fmt.Sprintf("%s(%d)", best, bestN)
}

func joinCounts(counts map[string]int) string {
	if len(counts) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := ""
	for i, k := range keys {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s=%d", k, counts[k])
	}
	return out
}
