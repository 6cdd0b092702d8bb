// Package telemetry turns simulation events into OpenTelemetry metrics and
// exports finished matches to InfluxDB.
package telemetry

import (
	"context"
	"sync/atomic"

	"github.com/Garsondee/Void-Harvest/internal/sim"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/Garsondee/Void-Harvest/internal/telemetry"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Totals is a plain tally of what the instruments have recorded, for the
// headless report and tests.
type Totals struct {
	Events         int64
	UnitsSpawned   int64
	UnitsDestroyed int64
	Upgrades       int64
	WavesCleared   int64
	CreditsMined   float64
	Decisions      int64
}

// Metrics is a sim.Listener that records counters per event. Attach it with
// sim.WithListener or Engine.Subscribe.
type Metrics struct {
	events         metric.Int64Counter
	unitsSpawned   metric.Int64Counter
	unitsDestroyed metric.Int64Counter
	upgrades       metric.Int64Counter
	waves          metric.Int64Counter
	decisions      metric.Int64Counter
	credits        metric.Float64Counter

	nEvents, nSpawned, nDestroyed, nUpgrades, nWaves, nDecisions atomic.Int64
	creditsMilli                                                 atomic.Int64
}

// NewMetrics registers the instruments on m, or on the global meter provider
// when m is nil.
func NewMetrics(m metric.Meter) (*Metrics, error) {
	if m == nil {
		m = meter()
	}
	var err error
	x := &Metrics{}

	if x.events, err = m.Int64Counter(
		"voidharvest.sim.events",
		metric.WithDescription("Simulation events emitted"),
	); err != nil {
		return nil, err
	}
	if x.unitsSpawned, err = m.Int64Counter(
		"voidharvest.sim.units_spawned",
		metric.WithDescription("Units placed on the field"),
	); err != nil {
		return nil, err
	}
	if x.unitsDestroyed, err = m.Int64Counter(
		"voidharvest.sim.units_destroyed",
		metric.WithDescription("Units removed after death"),
	); err != nil {
		return nil, err
	}
	if x.upgrades, err = m.Int64Counter(
		"voidharvest.sim.module_upgrades",
		metric.WithDescription("Base module levels bought"),
	); err != nil {
		return nil, err
	}
	if x.waves, err = m.Int64Counter(
		"voidharvest.sim.waves_cleared",
		metric.WithDescription("Survival waves cleared"),
	); err != nil {
		return nil, err
	}
	if x.decisions, err = m.Int64Counter(
		"voidharvest.ai.decisions",
		metric.WithDescription("Opponent rule firings"),
	); err != nil {
		return nil, err
	}
	if x.credits, err = m.Float64Counter(
		"voidharvest.sim.credits_deposited",
		metric.WithDescription("Credits offloaded at depots"),
		metric.WithUnit("{credit}"),
	); err != nil {
		return nil, err
	}
	return x, nil
}

// OnEvent implements sim.Listener.
func (x *Metrics) OnEvent(ev sim.Event) {
	ctx := context.Background()
	team := attribute.String("team", ev.Team.String())

	x.events.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", ev.Kind.String()), team))
	x.nEvents.Add(1)

	switch ev.Kind {
	case sim.EventUnitSpawned:
		x.unitsSpawned.Add(ctx, 1, metric.WithAttributes(team, attribute.String("unit", ev.Detail)))
		x.nSpawned.Add(1)
	case sim.EventUnitDestroyed:
		x.unitsDestroyed.Add(ctx, 1, metric.WithAttributes(team, attribute.String("unit", ev.Detail)))
		x.nDestroyed.Add(1)
	case sim.EventModuleUpgraded:
		x.upgrades.Add(ctx, 1, metric.WithAttributes(team, attribute.String("module", ev.Detail)))
		x.nUpgrades.Add(1)
	case sim.EventWaveCleared:
		x.waves.Add(ctx, 1)
		x.nWaves.Add(1)
	case sim.EventDecision:
		x.decisions.Add(ctx, 1, metric.WithAttributes(team, attribute.String("rule", ev.Detail)))
		x.nDecisions.Add(1)
	case sim.EventCargoDeposited:
		x.credits.Add(ctx, ev.Value, metric.WithAttributes(team))
		x.creditsMilli.Add(int64(ev.Value * 1000))
	}
}

// Totals returns the running tallies.
func (x *Metrics) Totals() Totals {
	return Totals{
		Events:         x.nEvents.Load(),
		UnitsSpawned:   x.nSpawned.Load(),
		UnitsDestroyed: x.nDestroyed.Load(),
		Upgrades:       x.nUpgrades.Load(),
		WavesCleared:   x.nWaves.Load(),
		Decisions:      x.nDecisions.Load(),
		CreditsMined:   float64(x.creditsMilli.Load()) / 1000,
	}
}
