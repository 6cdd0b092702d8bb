package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Garsondee/Void-Harvest/internal/config"
	"github.com/Garsondee/Void-Harvest/internal/logging"
	"github.com/Garsondee/Void-Harvest/internal/profile"
)

const usage = `usage: profile [flags] <command>

commands:
  show           print scrap, high score and upgrade levels
  buy <upgrade>  spend scrap on drill, armor or speed
  runs           list recent saved matches
`

func main() {
	var cfgDir, user string
	var limit int

	flag.StringVar(&cfgDir, "config", ".", "directory holding "+config.FileName)
	flag.StringVar(&user, "user", "", "profile id (default from config)")
	flag.IntVar(&limit, "limit", 10, "runs to list")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage); flag.PrintDefaults() }
	flag.Parse()

	log := logging.New(os.Stderr, "WARN", true)
	cfg, err := config.Load(cfgDir)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
	if user == "" {
		user = cfg.Profile.UserID
	}

	store, err := profile.Open(cfg.Profile.PostgresDSN, cfg.Profile.SQLitePath, log)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := run(ctx, store, user, limit, flag.Args()); err != nil {
		fmt.Printf("error: %v\n", err)
		if errors.Is(err, errUsage) {
			flag.Usage()
		}
		os.Exit(1)
	}
}

var errUsage = errors.New("bad arguments")

func run(ctx context.Context, store *profile.Store, user string, limit int, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "show":
		p, err := store.Get(ctx, user)
		if err != nil {
			return err
		}
		printProfile(p)
	case "buy":
		if len(args) != 2 {
			return errUsage
		}
		p, err := store.Get(ctx, user)
		if err != nil {
			return err
		}
		level := p.Level(args[1])
		cost, err := profile.UpgradeCost(args[1], level)
		if err != nil {
			return err
		}
		p, err = store.BuyUpgrade(ctx, user, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("bought %s level %d for %d scrap\n", args[1], level+1, cost)
		printProfile(p)
	case "runs":
		runs, err := store.Runs(ctx, user, limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("no runs recorded")
		}
		for _, r := range runs {
			fmt.Printf("%s %-8s %-9s %-6s score=%-6d scrap=%-5d waves=%-3d kills=%-4d %.0fs\n",
				r.CreatedAt.Format("2006-01-02 15:04"), r.Mode, r.Difficulty, r.Outcome,
				r.Score, r.Scrap, r.Waves, r.Kills, r.Seconds)
		}
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
	return nil
}

func printProfile(p *profile.Profile) {
	fmt.Printf("user=%s scrap=%d high_score=%d\n", p.UserID, p.Scrap, p.HighScore)
	fmt.Printf("upgrades: drill=%d armor=%d speed=%d\n", p.Drill, p.Armor, p.Speed)
}
