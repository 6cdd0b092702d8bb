package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Garsondee/Void-Harvest/internal/config"
	"github.com/Garsondee/Void-Harvest/internal/logging"
	"github.com/Garsondee/Void-Harvest/internal/profile"
	"github.com/Garsondee/Void-Harvest/internal/sim"
	"github.com/Garsondee/Void-Harvest/internal/telemetry"
	"github.com/Garsondee/Void-Harvest/internal/transport"
)

func main() {
	var cfgDir, addr string
	var save bool

	flag.StringVar(&cfgDir, "config", ".", "directory holding "+config.FileName)
	flag.StringVar(&addr, "addr", "", "listen address (default from config)")
	flag.BoolVar(&save, "save", false, "save the finished match to the configured profile")
	flag.Parse()

	log := logging.New(os.Stderr, "INFO", false)
	cfg, err := config.Load(cfgDir)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	log = logging.New(os.Stderr, cfg.LogLevel, false)
	if addr == "" {
		addr = cfg.Server.Addr
	}

	engineOpts, err := cfg.EngineOptions()
	if err != nil {
		log.Fatal().Err(err).Msg("match settings")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store *profile.Store
	if save {
		if store, err = profile.Open(cfg.Profile.PostgresDSN, cfg.Profile.SQLitePath, log); err != nil {
			log.Fatal().Err(err).Msg("open profile store")
		}
		defer store.Close()
		if p, err := store.Get(ctx, cfg.Profile.UserID); err == nil {
			engineOpts = append(engineOpts, sim.WithUpgrades(p.Upgrades()))
		}
	}

	metrics, err := telemetry.NewMetrics(nil)
	if err != nil {
		log.Fatal().Err(err).Msg("metrics")
	}

	hub := transport.NewHub(log, cfg.Server.TickRate)
	engineOpts = append(engineOpts,
		sim.WithLogger(log),
		sim.WithSnapshotSink(hub),
		sim.WithListener(metrics),
	)
	e := sim.NewEngine(cfg.Rules(), engineOpts...)

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info().Str("addr", addr).Int("tickRate", hub.TickRate).Msg("snapshot server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("listen")
			stop()
		}
	}()

	runErr := hub.Run(ctx, e)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error().Err(runErr).Msg("match loop")
		return
	}

	r := e.Report()
	t := metrics.Totals()
	log.Info().
		Str("outcome", r.Outcome.String()).
		Int("score", r.Score()).
		Int64("events", t.Events).
		Int("clients", hub.Clients()).
		Msg("match finished")

	if store != nil && e.Over() {
		if _, run, err := store.SaveRun(shutdownCtx, cfg.Profile.UserID, r); err != nil {
			log.Error().Err(err).Msg("save run")
		} else {
			log.Info().Str("run", run.ID.String()).Msg("run saved")
		}
	}
	if cfg.Influx.Enabled && e.Over() {
		exp, err := telemetry.NewExporter(shutdownCtx, cfg.Influx.URL, cfg.Influx.Token, cfg.Influx.Org, cfg.Influx.Bucket, log)
		if err != nil {
			log.Warn().Err(err).Msg("influx export disabled")
			return
		}
		defer exp.Close()
		if err := exp.Write(shutdownCtx, r); err != nil {
			log.Error().Err(err).Msg("influx write")
		}
	}
}
