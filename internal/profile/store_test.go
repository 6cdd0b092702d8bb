package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/Garsondee/Void-Harvest/internal/sim"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	s, err := Open("", path, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUpgradeCost(t *testing.T) {
	tests := []struct {
		id    string
		level int
		want  int
	}{
		{UpgradeDrill, 0, 100},
		{UpgradeDrill, 2, 300},
		{UpgradeArmor, 0, 200},
		{UpgradeSpeed, 1, 600},
	}
	for _, tt := range tests {
		got, err := UpgradeCost(tt.id, tt.level)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s level %d", tt.id, tt.level)
	}

	_, err := UpgradeCost("shield", 0)
	assert.ErrorIs(t, err, ErrUnknownUpgrade)
}

func TestGet_CreatesDefault(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)
	assert.Zero(t, p.Scrap)
	assert.Zero(t, p.HighScore)
	assert.Equal(t, sim.Upgrades{}, p.Upgrades())

	again, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, p.CreatedAt.Unix(), again.CreatedAt.Unix())
}

func TestSaveRun_AccumulatesScrapAndHighScore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	win := sim.MatchReport{Outcome: sim.OutcomeWin, Mode: sim.MatchSkirmish, Kills: 5, Wave: 1, Seconds: 120}
	p, rec, err := s.SaveRun(ctx, "u2", win)
	require.NoError(t, err)
	assert.Equal(t, 110, p.Scrap)
	assert.Equal(t, 170, p.HighScore)
	assert.Equal(t, "win", rec.Outcome)
	assert.Equal(t, "skirmish", rec.Mode)

	var stored sim.MatchReport
	require.NoError(t, json.Unmarshal(rec.Stats, &stored))
	assert.Equal(t, 5, stored.Kills)

	worse := sim.MatchReport{Outcome: sim.OutcomeLose, Mode: sim.MatchSurvival, Kills: 1, Wave: 2, Seconds: 10}
	p, _, err = s.SaveRun(ctx, "u2", worse)
	require.NoError(t, err)
	assert.Equal(t, 110+12, p.Scrap)
	assert.Equal(t, 170, p.HighScore, "lower score must not replace the high score")

	runs, err := s.Runs(ctx, "u2", 0)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
	assert.NotEqual(t, runs[0].ID, runs[1].ID)
}

func TestBuyUpgrade(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.BuyUpgrade(ctx, "ghost", UpgradeDrill)
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = s.SaveRun(ctx, "u3", sim.MatchReport{Outcome: sim.OutcomeWin, Kills: 50, Wave: 1})
	require.NoError(t, err) // 200 scrap

	p, err := s.BuyUpgrade(ctx, "u3", UpgradeDrill)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Drill)
	assert.Equal(t, 100, p.Scrap)

	_, err = s.BuyUpgrade(ctx, "u3", UpgradeDrill)
	assert.True(t, errors.Is(err, ErrInsufficientScrap), "level 2 drill costs 200, got %v", err)

	_, err = s.BuyUpgrade(ctx, "u3", "shield")
	assert.ErrorIs(t, err, ErrUnknownUpgrade)

	p, err = s.Get(ctx, "u3")
	require.NoError(t, err)
	assert.Equal(t, 100, p.Scrap, "failed purchases must not spend scrap")
	assert.Equal(t, sim.Upgrades{Drill: 1}, p.Upgrades())
}

func TestOpen_FallsBackToSQLite(t *testing.T) {
	path := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	s, err := Open("host=127.0.0.1 port=1 user=nobody dbname=none sslmode=disable connect_timeout=1", path, zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Get(context.Background(), "u4")
	assert.NoError(t, err)
}
