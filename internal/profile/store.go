// Package profile persists player meta-progression: scrap, high score,
// purchased upgrades and the run history.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Garsondee/Void-Harvest/internal/sim"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Upgrade identifiers accepted by BuyUpgrade.
const (
	UpgradeDrill = "drill"
	UpgradeArmor = "armor"
	UpgradeSpeed = "speed"
)

var (
	ErrNotFound          = errors.New("profile not found")
	ErrUnknownUpgrade    = errors.New("unknown upgrade")
	ErrInsufficientScrap = errors.New("not enough scrap")
)

var upgradeBaseCost = map[string]int{
	UpgradeDrill: 100,
	UpgradeArmor: 200,
	UpgradeSpeed: 300,
}

// UpgradeCost is the scrap price of buying id when it is currently at level.
func UpgradeCost(id string, level int) (int, error) {
	base, ok := upgradeBaseCost[id]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownUpgrade, id)
	}
	return base * (level + 1), nil
}

// Store is the gorm-backed profile repository.
type Store struct {
	DB     *gorm.DB
	Logger zerolog.Logger
}

// NewStore wraps an open connection. Call Migrate before first use.
func NewStore(db *gorm.DB, log zerolog.Logger) *Store {
	return &Store{DB: db, Logger: log}
}

// Open connects to Postgres when dsn is set, falling back to the SQLite file
// at sqlitePath (in memory when empty) if Postgres is unset or unreachable.
// The schema is migrated before returning.
func Open(dsn, sqlitePath string, log zerolog.Logger) (*Store, error) {
	var db *gorm.DB
	var err error
	if dsn != "" {
		db, err = openPostgres(dsn)
		if err != nil {
			log.Error().Err(err).Msg("Failed to connect to Postgres DB, trying SQLite")
			db = nil
		}
	}
	if db == nil {
		db, err = openSQLite(sqlitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite DB: %w", err)
		}
		log.Info().Str("path", sqlitePath).Msg("Using local SQLite profile store")
	} else {
		log.Info().Msg("Connected to Postgres profile store")
	}

	s := NewStore(db, log)
	if err := s.Migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func openPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to validate connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	return db, nil
}

func openSQLite(path string) (*gorm.DB, error) {
	if path == "" {
		path = "file::memory:?cache=shared"
	}
	return gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

// Migrate creates or updates the tables.
func (s *Store) Migrate() error {
	if err := s.DB.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("migrate profile schema: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Get returns the profile for userID, creating a zeroed one on first access.
func (s *Store) Get(ctx context.Context, userID string) (*Profile, error) {
	p := &Profile{}
	err := s.DB.WithContext(ctx).
		Where(Profile{UserID: userID}).
		FirstOrCreate(p).Error
	if err != nil {
		return nil, fmt.Errorf("get profile %q: %w", userID, err)
	}
	return p, nil
}

func (s *Store) find(tx *gorm.DB, userID string) (*Profile, error) {
	p := &Profile{}
	err := tx.Where("user_id = ?", userID).First(p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, userID)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// SaveRun credits the run's scrap, raises the high score when beaten and
// appends a run record. An unknown user gets a fresh profile first.
func (s *Store) SaveRun(ctx context.Context, userID string, r sim.MatchReport) (*Profile, *RunRecord, error) {
	stats, err := json.Marshal(r)
	if err != nil {
		return nil, nil, fmt.Errorf("encode run stats: %w", err)
	}
	rec := &RunRecord{
		ID:         uuid.New(),
		UserID:     userID,
		Outcome:    r.Outcome.String(),
		Mode:       r.Mode.String(),
		Difficulty: r.Difficulty.String(),
		Score:      r.Score(),
		Scrap:      r.Scrap(),
		Waves:      r.Wave,
		Kills:      r.Kills,
		Seconds:    r.Seconds,
		Stats:      stats,
	}

	p := &Profile{}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(Profile{UserID: userID}).FirstOrCreate(p).Error; err != nil {
			return err
		}
		p.Scrap += rec.Scrap
		if rec.Score > p.HighScore {
			p.HighScore = rec.Score
		}
		if err := tx.Save(p).Error; err != nil {
			return err
		}
		return tx.Create(rec).Error
	})
	if err != nil {
		return nil, nil, fmt.Errorf("save run for %q: %w", userID, err)
	}
	s.Logger.Debug().Str("user", userID).Int("score", rec.Score).Int("scrap", rec.Scrap).Int("total", p.Scrap).Msg("run saved")
	return p, rec, nil
}

// BuyUpgrade spends scrap on one level of id and returns the updated profile.
func (s *Store) BuyUpgrade(ctx context.Context, userID, id string) (*Profile, error) {
	var out *Profile
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.find(tx, userID)
		if err != nil {
			return err
		}
		lvl := p.level(id)
		if lvl == nil {
			return fmt.Errorf("%w: %q", ErrUnknownUpgrade, id)
		}
		cost, _ := UpgradeCost(id, *lvl)
		if p.Scrap < cost {
			return fmt.Errorf("%w: need %d, have %d", ErrInsufficientScrap, cost, p.Scrap)
		}
		p.Scrap -= cost
		*lvl++
		if err := tx.Save(p).Error; err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Logger.Debug().Str("user", userID).Str("upgrade", id).Int("scrap", out.Scrap).Msg("upgrade bought")
	return out, nil
}

// Runs lists the most recent runs for userID, newest first.
func (s *Store) Runs(ctx context.Context, userID string, limit int) ([]RunRecord, error) {
	var runs []RunRecord
	q := s.DB.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("list runs for %q: %w", userID, err)
	}
	return runs, nil
}
