// Package config loads Void Harvest settings from an optional JSON file and
// VOIDHARVEST_* environment variables on top of built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Garsondee/Void-Harvest/internal/sim"
	"github.com/spf13/viper"
)

// FileName is the settings file looked up in the config directory.
const FileName = "void_harvest.cfg.json"

// EnvPrefix namespaces environment overrides, e.g. VOIDHARVEST_MATCH_SEED.
const EnvPrefix = "VOIDHARVEST"

// MatchConfig selects the match variant.
type MatchConfig struct {
	Mode       string `json:"mode" mapstructure:"mode"`
	Difficulty string `json:"difficulty" mapstructure:"difficulty"`
	Seed       int64  `json:"seed" mapstructure:"seed"`
}

// EconomyConfig overrides the economy part of sim.Rules.
type EconomyConfig struct {
	StartingCredits float64 `json:"startingCredits" mapstructure:"startingCredits"`
	MiningRate      float64 `json:"miningRate" mapstructure:"miningRate"`
	OffloadRate     float64 `json:"offloadRate" mapstructure:"offloadRate"`
}

// ProfileConfig points at the profile store. A non-empty PostgresDSN wins over
// the SQLite file.
type ProfileConfig struct {
	UserID      string `json:"userId" mapstructure:"userId"`
	SQLitePath  string `json:"sqlitePath" mapstructure:"sqlitePath"`
	PostgresDSN string `json:"postgresDsn" mapstructure:"postgresDsn"`
}

// InfluxConfig configures the optional match result export.
type InfluxConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	URL     string `json:"url" mapstructure:"url"`
	Token   string `json:"token" mapstructure:"token"`
	Org     string `json:"org" mapstructure:"org"`
	Bucket  string `json:"bucket" mapstructure:"bucket"`
}

// ServerConfig configures cmd/snapshot-server.
type ServerConfig struct {
	Addr     string `json:"addr" mapstructure:"addr"`
	TickRate int    `json:"tickRate" mapstructure:"tickRate"`
}

// Settings is the fully resolved configuration.
type Settings struct {
	LogLevel string        `json:"logLevel" mapstructure:"logLevel"`
	Match    MatchConfig   `json:"match" mapstructure:"match"`
	Economy  EconomyConfig `json:"economy" mapstructure:"economy"`
	Profile  ProfileConfig `json:"profile" mapstructure:"profile"`
	Influx   InfluxConfig  `json:"influx" mapstructure:"influx"`
	Server   ServerConfig  `json:"server" mapstructure:"server"`

	// File is the settings file that was read, empty when running on defaults.
	File string `json:"-" mapstructure:"-"`
}

func setDefaults(v *viper.Viper) {
	r := sim.DefaultRules()

	v.SetDefault("logLevel", "info")

	v.SetDefault("match.mode", "skirmish")
	v.SetDefault("match.difficulty", "medium")
	v.SetDefault("match.seed", 1)

	v.SetDefault("economy.startingCredits", r.StartingCredits)
	v.SetDefault("economy.miningRate", r.MiningRate)
	v.SetDefault("economy.offloadRate", r.OffloadRate)

	v.SetDefault("profile.userId", "local")
	v.SetDefault("profile.sqlitePath", "void_harvest.db")
	v.SetDefault("profile.postgresDsn", "")

	v.SetDefault("influx.enabled", false)
	v.SetDefault("influx.url", "http://localhost:8086")
	v.SetDefault("influx.token", "")
	v.SetDefault("influx.org", "void-harvest")
	v.SetDefault("influx.bucket", "matches")

	v.SetDefault("server.addr", "localhost:8765")
	v.SetDefault("server.tickRate", 60)
}

// Load resolves settings from defaults, dir/void_harvest.cfg.json (if present)
// and the environment, in increasing order of precedence.
func Load(dir string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("stat config file: %w", err)
	} else {
		path = ""
	}

	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	s.File = path
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the closed sets and numeric ranges.
func (s *Settings) Validate() error {
	if _, err := sim.ParseMatchMode(s.Match.Mode); err != nil {
		return fmt.Errorf("match.mode: %w", err)
	}
	if _, err := sim.ParseDifficulty(s.Match.Difficulty); err != nil {
		return fmt.Errorf("match.difficulty: %w", err)
	}
	if s.Economy.StartingCredits < 0 || s.Economy.MiningRate < 0 || s.Economy.OffloadRate < 0 {
		return errors.New("economy values must not be negative")
	}
	if s.Server.TickRate <= 0 {
		return fmt.Errorf("server.tickRate must be positive, got %d", s.Server.TickRate)
	}
	return nil
}

// Mode returns the configured match mode. Settings from Load are already
// validated, so the error is only possible on hand-built values.
func (s *Settings) Mode() (sim.MatchMode, error) { return sim.ParseMatchMode(s.Match.Mode) }

// Difficulty returns the configured opponent preset.
func (s *Settings) Difficulty() (sim.Difficulty, error) {
	return sim.ParseDifficulty(s.Match.Difficulty)
}

// Rules returns a fresh rule set with the economy overrides applied.
func (s *Settings) Rules() *sim.Rules {
	r := sim.DefaultRules()
	r.StartingCredits = s.Economy.StartingCredits
	r.MiningRate = s.Economy.MiningRate
	r.OffloadRate = s.Economy.OffloadRate
	return r
}

// EngineOptions translates the match section into engine options.
func (s *Settings) EngineOptions() ([]sim.Option, error) {
	mode, err := s.Mode()
	if err != nil {
		return nil, err
	}
	diff, err := s.Difficulty()
	if err != nil {
		return nil, err
	}
	return []sim.Option{sim.WithSeed(s.Match.Seed), sim.WithMode(mode), sim.WithDifficulty(diff)}, nil
}
