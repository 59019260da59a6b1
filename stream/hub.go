// Package stream broadcasts simulation frames to websocket clients and
// accepts operator commands from them.
package stream

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/warren/telemetry"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

var errCommandsDisabled = errors.New("commands are disabled")

const (
	writeWait  = 5 * time.Second // deadline for a single write
	outboxSize = 8               // queued messages per client before frames are dropped
)

// Inbound is a message sent by a client.
type Inbound struct {
	Type    string `json:"type"`              // "command"
	Command string `json:"command,omitempty"` // refill, clear, dump
}

// Outbound is a message sent to clients.
type Outbound struct {
	Type   string           `json:"type"` // config, frame, ack, error
	Width  int              `json:"w,omitempty"`
	Height int              `json:"h,omitempty"`
	Frame  *telemetry.Frame `json:"frame,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// CommandFunc handles a command name received from a client.
type CommandFunc func(name string) error

// Client is one websocket connection. A writer goroutine drains its outbox,
// so slow readers never block the caller of Broadcast.
type Client struct {
	conn   *websocket.Conn
	outbox chan Outbound
	done   chan struct{}
	once   sync.Once
}

func newClient(conn *websocket.Conn) *Client {
	return &Client{
		conn:   conn,
		outbox: make(chan Outbound, outboxSize),
		done:   make(chan struct{}),
	}
}

// Send queues msg, waiting for room. It returns false once the client is closed.
func (c *Client) Send(msg Outbound) bool {
	select {
	case c.outbox <- msg:
		return true
	case <-c.done:
		return false
	}
}

// TrySend queues msg without waiting and reports whether it was queued.
func (c *Client) TrySend(msg Outbound) bool {
	select {
	case c.outbox <- msg:
		return true
	default:
		return false
	}
}

// writeLoop writes queued messages until the client closes or a write fails.
func (c *Client) writeLoop(onError func(error)) {
	for {
		select {
		case msg := <-c.outbox:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				onError(err)
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Client) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// Hub tracks clients and fans frames out to them.
type Hub struct {
	width, height int
	onCommand     CommandFunc

	mu      sync.Mutex
	clients map[*Client]struct{}
	dropped int
}

// NewHub creates a hub for a world of the given size. onCommand may be nil.
func NewHub(width, height int, onCommand CommandFunc) *Hub {
	return &Hub{
		width:     width,
		height:    height,
		onCommand: onCommand,
		clients:   make(map[*Client]struct{}),
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast queues a frame for every client without blocking. Clients whose
// outbox is full skip this frame.
func (h *Hub) Broadcast(f *telemetry.Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()

	msg := Outbound{Type: "frame", Frame: f}
	for c := range h.clients {
		if !c.TrySend(msg) {
			h.dropped++
		}
	}
}

// Dropped returns how many frames were skipped for slow clients.
func (h *Hub) Dropped() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()
	c.close()
	if ok {
		slog.Info("stream client disconnected", "clients", n)
	}
}

// ServeHTTP upgrades the request and reads commands until the client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("stream upgrade failed", "error", err)
		return
	}
	client := newClient(conn)
	client.Send(Outbound{Type: "config", Width: h.width, Height: h.height})
	go client.writeLoop(func(err error) {
		slog.Warn("stream client send failed", "error", err)
		h.remove(client)
	})

	h.mu.Lock()
	h.clients[client] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	slog.Info("stream client connected", "remote", r.RemoteAddr, "clients", n)

	for {
		var msg Inbound
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		if err := h.handle(msg); err != nil {
			client.Send(Outbound{Type: "error", Error: err.Error()})
			continue
		}
		client.Send(Outbound{Type: "ack"})
	}

	h.remove(client)
}

func (h *Hub) handle(msg Inbound) error {
	switch msg.Type {
	case "command":
		if h.onCommand == nil {
			return errCommandsDisabled
		}
		return h.onCommand(msg.Command)
	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
}
