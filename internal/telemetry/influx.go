package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Garsondee/Void-Harvest/internal/sim"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
)

// MatchMeasurement is the InfluxDB measurement match results are written to.
const MatchMeasurement = "match_result"

// MatchPoint converts a finished match into a line-protocol point. Enum
// fields become tags so dashboards can group by them.
func MatchPoint(r sim.MatchReport, at time.Time) *influxdb2_write.Point {
	p := influxdb2_write.NewPointWithMeasurement(MatchMeasurement)
	p.AddTag("mode", r.Mode.String())
	p.AddTag("difficulty", r.Difficulty.String())
	p.AddTag("outcome", r.Outcome.String())

	p.AddField("seed", r.Seed)
	p.AddField("ticks", r.Ticks)
	p.AddField("seconds", r.Seconds)
	p.AddField("kills", r.Kills)
	p.AddField("wave", r.Wave)
	p.AddField("survivors", r.Survivors)
	p.AddField("score", r.Score())
	p.AddField("scrap", r.Scrap())
	p.AddField("player_mined", r.Player.CreditsMined)
	p.AddField("player_spent", r.Player.CreditsSpent)
	p.AddField("player_built", r.Player.UnitsBuilt)
	p.AddField("player_lost", r.Player.UnitsLost)
	if r.Mode == sim.MatchSkirmish {
		p.AddField("enemy_mined", r.Enemy.CreditsMined)
		p.AddField("enemy_spent", r.Enemy.CreditsSpent)
		p.AddField("enemy_built", r.Enemy.UnitsBuilt)
		p.AddField("enemy_lost", r.Enemy.UnitsLost)
	}
	p.SetTime(at)
	return p
}

// Exporter writes match points to a single bucket.
type Exporter struct {
	Client influxdb2.Client
	Writer influxdb2_api.WriteAPIBlocking
	Bucket string
	Logger zerolog.Logger
}

// NewExporter connects to url and checks the server is reachable.
func NewExporter(ctx context.Context, url, token, org, bucket string, log zerolog.Logger) (*Exporter, error) {
	if url == "" || bucket == "" {
		return nil, errors.New("influx url and bucket are required")
	}
	client := influxdb2.NewClientWithOptions(url, token, influxdb2.DefaultOptions().SetBatchSize(100))

	running, err := client.Ping(ctx)
	if err != nil || !running {
		client.Close()
		if err == nil {
			err = errors.New("server not running")
		}
		return nil, fmt.Errorf("influx ping %s: %w", url, err)
	}
	log.Debug().Str("url", url).Str("bucket", bucket).Msg("InfluxDB exporter ready")
	return &Exporter{
		Client: client,
		Writer: client.WriteAPIBlocking(org, bucket),
		Bucket: bucket,
		Logger: log,
	}, nil
}

// Write exports one match.
func (x *Exporter) Write(ctx context.Context, r sim.MatchReport) error {
	if err := x.Writer.WritePoint(ctx, MatchPoint(r, time.Now())); err != nil {
		return fmt.Errorf("write match point: %w", err)
	}
	x.Logger.Trace().Int64("seed", r.Seed).Str("outcome", r.Outcome.String()).Msg("match exported")
	return nil
}

// Close releases the client.
func (x *Exporter) Close() {
	if x.Client != nil {
		x.Client.Close()
	}
}
