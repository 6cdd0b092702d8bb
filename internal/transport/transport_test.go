package transport

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Garsondee/Void-Harvest/internal/sim"
	ws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCommand(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{"spawn", `{"type":"spawn","unit":"Tank"}`, nil},
		{"upgrade", `{"type":"upgrade","module":"turret"}`, nil},
		{"pointer", `{"type":"pointer_down","x":10,"y":20}`, nil},
		{"pan", `{"type":"pan","pan":{"left":true}}`, nil},
		{"lasso", `{"type":"toggle_lasso"}`, nil},
		{"radar", `{"type":"upgrade","module":"radar"}`, sim.ErrUnknownModule},
		{"battleship", `{"type":"spawn","unit":"battleship"}`, sim.ErrUnknownUnitType},
		{"unknown type", `{"type":"self_destruct"}`, ErrUnknownCommand},
		{"pan without body", `{"type":"pan"}`, ErrBadCommand},
		{"not json", `spawn miner`, ErrBadCommand},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeCommand([]byte(tt.raw))
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestApply_SpawnAndUpgrade(t *testing.T) {
	e := sim.NewEngine(nil, sim.WithSeed(1), sim.WithoutNodes(), sim.WithoutOpponent())

	c, err := DecodeCommand([]byte(`{"type":"spawn","unit":"miner"}`))
	require.NoError(t, err)
	assert.True(t, Apply(e, c))
	assert.Equal(t, 100.0, e.Credits(sim.TeamPlayer))

	c, err = DecodeCommand([]byte(`{"type":"upgrade","module":"factory"}`))
	require.NoError(t, err)
	assert.False(t, Apply(e, c), "factory costs more than the balance")

	c, err = DecodeCommand([]byte(`{"type":"toggle_lasso"}`))
	require.NoError(t, err)
	assert.True(t, Apply(e, c))
	assert.True(t, e.LassoMode())
}

func TestSnapshotCodec(t *testing.T) {
	in := sim.Snapshot{
		Tick:        12,
		Credits:     150,
		EnergyMax:   500,
		BaseModules: map[string]int{"depot": 1},
		Wave:        1,
		GameOver:    "win",
		Stats:       &sim.MatchStats{Wave: 1, Kills: 3, Time: 40},
	}
	data, err := EncodeSnapshot(in)
	require.NoError(t, err)

	out, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = DecodeSnapshot([]byte{0xc1})
	assert.Error(t, err)
}

func readUntil(t *testing.T, conn *ws.Conn, match func(kind int, data []byte) bool) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		kind, data, err := conn.ReadMessage()
		require.NoError(t, err)
		if match(kind, data) {
			return
		}
	}
}

func TestHub_CommandsAndSnapshots(t *testing.T) {
	hub := NewHub(zerolog.Nop(), 100)
	e := sim.NewEngine(nil, sim.WithSeed(1), sim.WithoutNodes(), sim.WithoutOpponent(), sim.WithSnapshotSink(hub))

	srv := httptest.NewServer(hub)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- hub.Run(ctx, e) }()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := ws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(ws.TextMessage, []byte(`{"type":"spawn","unit":"miner"}`)))

	var acked, spent bool
	readUntil(t, conn, func(kind int, data []byte) bool {
		switch kind {
		case ws.TextMessage:
			var r Reply
			require.NoError(t, json.Unmarshal(data, &r))
			if r.Type == "ack" && r.For == CmdSpawn {
				assert.True(t, r.OK)
				acked = true
			}
		case ws.BinaryMessage:
			s, err := DecodeSnapshot(data)
			require.NoError(t, err)
			if s.Credits == 100 {
				spent = true
			}
		}
		return acked && spent
	})

	require.NoError(t, conn.WriteMessage(ws.TextMessage, []byte(`{"type":"upgrade","module":"radar"}`)))
	readUntil(t, conn, func(kind int, data []byte) bool {
		if kind != ws.TextMessage {
			return false
		}
		var r Reply
		require.NoError(t, json.Unmarshal(data, &r))
		if r.Type != "error" {
			return false
		}
		assert.Contains(t, r.Error, "unknown module kind")
		return true
	})

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
