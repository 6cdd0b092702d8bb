package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/Garsondee/Void-Harvest/internal/config"
	"github.com/Garsondee/Void-Harvest/internal/game"
	"github.com/Garsondee/Void-Harvest/internal/logging"
	"github.com/Garsondee/Void-Harvest/internal/profile"
	"github.com/Garsondee/Void-Harvest/internal/sim"
)

func main() {
	var cfgDir string
	var mute bool
	var noProfile bool

	flag.StringVar(&cfgDir, "config", ".", "directory holding "+config.FileName)
	flag.BoolVar(&mute, "mute", false, "disable sound")
	flag.BoolVar(&noProfile, "no-profile", false, "skip loading and saving the player profile")
	flag.Parse()

	log := logging.New(os.Stderr, "INFO", true)
	cfg, err := config.Load(cfgDir)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	log = logging.New(os.Stderr, cfg.LogLevel, true)
	if cfg.File != "" {
		log.Info().Str("file", cfg.File).Msg("config loaded")
	}

	engineOpts, err := cfg.EngineOptions()
	if err != nil {
		log.Fatal().Err(err).Msg("match settings")
	}

	opts := game.Options{
		Rules:  cfg.Rules(),
		Logger: log,
		Mute:   mute,
	}

	if !noProfile {
		store, err := profile.Open(cfg.Profile.PostgresDSN, cfg.Profile.SQLitePath, log)
		if err != nil {
			log.Warn().Err(err).Msg("profile store unavailable, playing without upgrades")
		} else {
			defer store.Close()
			userID := cfg.Profile.UserID
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			p, err := store.Get(ctx, userID)
			cancel()
			if err != nil {
				log.Warn().Err(err).Msg("load profile")
			} else {
				log.Info().Str("user", userID).Int("scrap", p.Scrap).Int("highScore", p.HighScore).Msg("profile loaded")
				engineOpts = append(engineOpts, sim.WithUpgrades(p.Upgrades()))
			}
			opts.OnGameOver = func(r sim.MatchReport) {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				p, rec, err := store.SaveRun(ctx, userID, r)
				if err != nil {
					log.Error().Err(err).Msg("save run")
					return
				}
				log.Info().Str("run", rec.ID.String()).Int("scrap", p.Scrap).Int("highScore", p.HighScore).Msg("run saved")
			}
		}
	}
	opts.Engine = engineOpts

	g := game.New(opts)
	r := g.Engine().Rules()
	ebiten.SetWindowTitle("Void Harvest")
	ebiten.SetWindowSize(int(r.ViewW)+320, int(r.ViewH))
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal().Err(err).Msg("game loop")
	}
}
