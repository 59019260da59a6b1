package stream

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/warren/components"
	"github.com/pthm-cable/warren/telemetry"
)

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(url, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func read(t *testing.T, conn *websocket.Conn) Outbound {
	t.Helper()
	var msg Outbound
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func TestHubCommandsAndFrames(t *testing.T) {
	commands := make(chan string, 4)
	hub := NewHub(200, 150, func(name string) error {
		if name != "refill" && name != "clear" && name != "dump" {
			return errors.New("unknown command")
		}
		commands <- name
		return nil
	})
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv.URL)

	cfg := read(t, conn)
	if cfg.Type != "config" || cfg.Width != 200 || cfg.Height != 150 {
		t.Fatalf("config message = %+v", cfg)
	}

	if err := conn.WriteJSON(Inbound{Type: "command", Command: "refill"}); err != nil {
		t.Fatal(err)
	}
	if ack := read(t, conn); ack.Type != "ack" {
		t.Fatalf("reply = %+v, want ack", ack)
	}
	if got := <-commands; got != "refill" {
		t.Errorf("command = %q", got)
	}

	if err := conn.WriteJSON(Inbound{Type: "command", Command: "explode"}); err != nil {
		t.Fatal(err)
	}
	if reply := read(t, conn); reply.Type != "error" || reply.Error == "" {
		t.Errorf("reply = %+v, want error", reply)
	}

	if hub.Len() != 1 {
		t.Fatalf("hub has %d clients, want 1", hub.Len())
	}
	hub.Broadcast(&telemetry.Frame{
		Tick:   12,
		Agents: []telemetry.AgentState{{ID: 1, X: 3, Y: 4, Species: components.SpeciesPredator, Alive: true}},
	})
	msg := read(t, conn)
	if msg.Type != "frame" || msg.Frame == nil || msg.Frame.Tick != 12 {
		t.Fatalf("frame message = %+v", msg)
	}
	if a := msg.Frame.Agents[0]; a.Species != components.SpeciesPredator || a.X != 3 {
		t.Errorf("agent = %+v", a)
	}
}

func TestHubCommandsDisabled(t *testing.T) {
	hub := NewHub(10, 10, nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv.URL)
	read(t, conn)

	if err := conn.WriteJSON(Inbound{Type: "command", Command: "clear"}); err != nil {
		t.Fatal(err)
	}
	if reply := read(t, conn); reply.Type != "error" {
		t.Errorf("reply = %+v, want error", reply)
	}
}

func TestHubDropsClosedClient(t *testing.T) {
	hub := NewHub(10, 10, nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv.URL)
	read(t, conn)
	if err := conn.WriteJSON(Inbound{Type: "ping"}); err != nil {
		t.Fatal(err)
	}
	read(t, conn) // error reply; client is registered by now
	conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for hub.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.Len() != 0 {
		t.Errorf("hub still has %d clients after disconnect", hub.Len())
	}
}

func bigFrame(tick int32, agents int) *telemetry.Frame {
	f := &telemetry.Frame{Tick: tick, Agents: make([]telemetry.AgentState, agents)}
	for i := range f.Agents {
		f.Agents[i] = telemetry.AgentState{ID: uint32(i), X: i % 200, Y: i / 200, Alive: true}
	}
	return f
}

func TestHubBroadcastDoesNotWaitForStalledClient(t *testing.T) {
	hub := NewHub(200, 150, nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	stalled := dial(t, srv.URL)
	read(t, stalled) // config, then never read again
	healthy := dial(t, srv.URL)
	read(t, healthy)

	deadline := time.Now().Add(5 * time.Second)
	for hub.Len() != 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.Len() != 2 {
		t.Fatalf("hub has %d clients, want 2", hub.Len())
	}

	done := make(chan struct{})
	go func() {
		for i := 0; i < 500; i++ {
			hub.Broadcast(bigFrame(int32(i), 2000))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Broadcast blocked on a client that stopped reading")
	}

	if hub.Dropped() == 0 {
		t.Error("expected frames to be dropped for the stalled client")
	}
	if msg := read(t, healthy); msg.Type != "frame" || len(msg.Frame.Agents) != 2000 {
		t.Errorf("healthy client got %+v", msg.Type)
	}
}
