// Package replay records a match's event stream and stores it as
// lz4-compressed msgpack.
package replay

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Garsondee/Void-Harvest/internal/sim"
	"github.com/pierrec/lz4/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// FormatVersion is bumped whenever Log changes shape.
const FormatVersion = 1

var ErrVersion = errors.New("unsupported event log version")

// Log is the exported form of a match.
type Log struct {
	Version    int              `msgpack:"version"`
	Seed       int64            `msgpack:"seed"`
	Mode       string           `msgpack:"mode"`
	Difficulty string           `msgpack:"difficulty"`
	Events     []sim.Event      `msgpack:"events"`
	Report     *sim.MatchReport `msgpack:"report,omitempty"`
}

// Recorder is a sim.Listener that keeps every event, shots included.
type Recorder struct {
	events []sim.Event
}

// OnEvent implements sim.Listener.
func (r *Recorder) OnEvent(ev sim.Event) { r.events = append(r.events, ev) }

// Events returns the recorded stream.
func (r *Recorder) Events() []sim.Event { return r.events }

// Log packages the recording together with the match identity and report.
func (r *Recorder) Log(e *sim.Engine) *Log {
	rep := e.Report()
	return &Log{
		Version:    FormatVersion,
		Seed:       e.Seed(),
		Mode:       e.Mode().String(),
		Difficulty: e.Difficulty().String(),
		Events:     r.events,
		Report:     &rep,
	}
}

// Count returns how many events of kind k the log holds.
func (l *Log) Count(k sim.EventKind) int {
	n := 0
	for _, ev := range l.Events {
		if ev.Kind == k {
			n++
		}
	}
	return n
}

// Export writes l to w.
func Export(w io.Writer, l *Log) error {
	zw := lz4.NewWriter(w)
	if err := msgpack.NewEncoder(zw).Encode(l); err != nil {
		return fmt.Errorf("encode event log: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("flush lz4 stream: %w", err)
	}
	return nil
}

// Import reads a log written by Export.
func Import(r io.Reader) (*Log, error) {
	l := &Log{}
	if err := msgpack.NewDecoder(lz4.NewReader(r)).Decode(l); err != nil {
		return nil, fmt.Errorf("decode event log: %w", err)
	}
	if l.Version != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrVersion, l.Version)
	}
	return l, nil
}

// WriteFile exports l to path.
func WriteFile(path string, l *Log) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Export(f, l); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ReadFile imports the log at path.
func ReadFile(path string) (*Log, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Import(f)
}
