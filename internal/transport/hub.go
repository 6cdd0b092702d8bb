package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/Garsondee/Void-Harvest/internal/sim"
	ws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	sendChSize    = 64
	inboundChSize = 256
	writeWait     = 10 * time.Second
	maxMessage    = 4096
)

type frame struct {
	kind int
	data []byte
}

type client struct {
	conn *ws.Conn
	send chan frame
	done chan struct{}
}

type inbound struct {
	from *client
	raw  []byte
}

// Hub runs one match and fans its snapshots out to every connected client.
// It implements sim.SnapshotSink; pass it to sim.WithSnapshotSink.
type Hub struct {
	Logger   zerolog.Logger
	TickRate int

	upgrader ws.Upgrader
	inbound  chan inbound

	mu      sync.Mutex
	clients map[*client]struct{}
	last    []byte
}

// NewHub returns a hub ticking at tickRate Hz.
func NewHub(log zerolog.Logger, tickRate int) *Hub {
	if tickRate <= 0 {
		tickRate = 60
	}
	return &Hub{
		Logger:   log,
		TickRate: tickRate,
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		inbound: make(chan inbound, inboundChSize),
		clients: make(map[*client]struct{}),
	}
}

// PushSnapshot implements sim.SnapshotSink.
func (h *Hub) PushSnapshot(s sim.Snapshot) {
	data, err := EncodeSnapshot(s)
	if err != nil {
		h.Logger.Error().Err(err).Msg("snapshot dropped")
		return
	}
	h.mu.Lock()
	h.last = data
	for c := range h.clients {
		h.enqueue(c, frame{kind: ws.BinaryMessage, data: data})
	}
	h.mu.Unlock()
}

// enqueue never blocks the tick: a client that cannot keep up loses frames.
func (h *Hub) enqueue(c *client, f frame) {
	select {
	case c.send <- f:
	default:
		h.Logger.Debug().Msg("client send buffer full, dropping frame")
	}
}

// ServeHTTP upgrades the request and registers the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	c := &client{conn: conn, send: make(chan frame, sendChSize), done: make(chan struct{})}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	if h.last != nil {
		h.enqueue(c, frame{kind: ws.BinaryMessage, data: h.last})
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.Logger.Info().Str("remote", r.RemoteAddr).Int("clients", n).Msg("client connected")

	go h.writeLoop(c)
	go h.readLoop(c)
}

// Clients is the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.done)
	}
	h.mu.Unlock()
	_ = c.conn.Close()
}

func (h *Hub) writeLoop(c *client) {
	for {
		select {
		case <-c.done:
			return
		case f := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				h.drop(c)
				return
			}
			if err := c.conn.WriteMessage(f.kind, f.data); err != nil {
				h.Logger.Debug().Err(err).Msg("websocket write error")
				h.drop(c)
				return
			}
		}
	}
}

func (h *Hub) readLoop(c *client) {
	defer h.drop(c)
	c.conn.SetReadLimit(maxMessage)
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if ws.IsUnexpectedCloseError(err, ws.CloseGoingAway, ws.CloseNormalClosure) {
				h.Logger.Warn().Err(err).Msg("websocket read error")
			}
			return
		}
		select {
		case h.inbound <- inbound{from: c, raw: msg}:
		case <-c.done:
			return
		}
	}
}

func (h *Hub) reply(c *client, r Reply) {
	data, err := json.Marshal(r)
	if err != nil {
		return
	}
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		h.enqueue(c, frame{kind: ws.TextMessage, data: data})
	}
	h.mu.Unlock()
}

// Run ticks e at the hub's rate until ctx is done or the match ends. Commands
// received between ticks are applied, in arrival order, before the next tick.
func (h *Hub) Run(ctx context.Context, e *sim.Engine) error {
	dt := 1 / float64(h.TickRate)
	ticker := time.NewTicker(time.Second / time.Duration(h.TickRate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case in := <-h.inbound:
			h.handle(e, in)
		case <-ticker.C:
			e.Tick(dt)
			if e.Over() {
				h.Logger.Info().Str("outcome", e.Outcome().String()).Msg("match over")
				return nil
			}
		}
	}
}

func (h *Hub) handle(e *sim.Engine, in inbound) {
	cmd, err := DecodeCommand(in.raw)
	if err != nil {
		h.Logger.Debug().Err(err).Msg("command rejected")
		h.reply(in.from, Reply{Type: "error", Error: err.Error()})
		return
	}
	ok := Apply(e, cmd)
	h.reply(in.from, Reply{Type: "ack", For: cmd.Type, OK: ok})
}
