package main

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Garsondee/Void-Harvest/internal/profile"
	"github.com/Garsondee/Void-Harvest/internal/sim"
)

func newStore(t *testing.T) *profile.Store {
	t.Helper()
	s, err := profile.Open("", fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRun_BuySpendsScrap(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	p, err := s.Get(ctx, "pilot")
	require.NoError(t, err)
	p.Scrap = 250
	require.NoError(t, s.DB.Save(p).Error)

	require.NoError(t, run(ctx, s, "pilot", 10, []string{"buy", profile.UpgradeDrill}))

	p, err = s.Get(ctx, "pilot")
	require.NoError(t, err)
	assert.Equal(t, 1, p.Drill)
	assert.Equal(t, 150, p.Scrap)
	assert.Equal(t, 1, p.Level(profile.UpgradeDrill))
}

func TestRun_BuyWithoutScrapFails(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	err := run(ctx, s, "broke", 10, []string{"buy", profile.UpgradeArmor})
	assert.ErrorIs(t, err, profile.ErrInsufficientScrap)
}

func TestRun_ShowAndRuns(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	_, _, err := s.SaveRun(ctx, "pilot", sim.MatchReport{Outcome: sim.OutcomeWin, Kills: 3, Seconds: 120})
	require.NoError(t, err)

	assert.NoError(t, run(ctx, s, "pilot", 10, []string{"show"}))
	assert.NoError(t, run(ctx, s, "pilot", 10, []string{"runs"}))
}

func TestRun_BadArguments(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	assert.ErrorIs(t, run(ctx, s, "pilot", 10, nil), errUsage)
	assert.ErrorIs(t, run(ctx, s, "pilot", 10, []string{"buy"}), errUsage)
	assert.ErrorIs(t, run(ctx, s, "pilot", 10, []string{"sell", "drill"}), errUsage)
	assert.ErrorIs(t, run(ctx, s, "pilot", 10, []string{"buy", "laser"}), profile.ErrUnknownUpgrade)
}
