package transport

import (
	"fmt"

	"github.com/Garsondee/Void-Harvest/internal/sim"
	"github.com/vmihailenco/msgpack/v5"
)

// EncodeSnapshot packs a snapshot for a binary WebSocket frame.
func EncodeSnapshot(s sim.Snapshot) ([]byte, error) {
	data, err := msgpack.Marshal(&s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot is the client-side inverse of EncodeSnapshot.
func DecodeSnapshot(data []byte) (sim.Snapshot, error) {
	var s sim.Snapshot
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return sim.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return s, nil
}
