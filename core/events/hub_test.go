package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Subscribe(conn, r.RemoteAddr)
	}))
	t.Cleanup(func() {
		cancel()
		ts.Close()
	})
	return hub, "ws" + strings.TrimPrefix(ts.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d subscribers, have %d", n, hub.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return ev
}

func TestPublishReachesEverySubscriber(t *testing.T) {
	hub, url := startHub(t)
	a := dial(t, url)
	b := dial(t, url)
	waitForClients(t, hub, 2)

	idx := 3
	hub.Publish(Event{Type: EventPrediction, Transport: "http", Label: "sinistra", ClassIndex: &idx})

	for _, conn := range []*websocket.Conn{a, b} {
		ev := readEvent(t, conn)
		if ev.Type != EventPrediction || ev.Label != "sinistra" {
			t.Fatalf("unexpected event %+v", ev)
		}
		if ev.ClassIndex == nil || *ev.ClassIndex != 3 {
			t.Fatalf("class index not carried: %+v", ev)
		}
		if ev.Timestamp == 0 {
			t.Fatalf("event should be stamped")
		}
	}
}

func TestPingGetsPong(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url)
	waitForClients(t, hub, 1)

	data, _ := json.Marshal(Event{Type: EventPing})
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatal(err)
	}
	if ev := readEvent(t, conn); ev.Type != EventPong {
		t.Fatalf("expected pong, got %+v", ev)
	}
}

func TestDisconnectUnregisters(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestPublishWithoutSubscribersDoesNotBlock(t *testing.T) {
	hub := NewHub()
	// Run is not started, so the queue fills and later events are dropped.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.Publish(Event{Type: EventPrediction, Label: "fermo"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked")
	}
}

func TestSendAfterHubDroppedClient(t *testing.T) {
	tests := []struct {
		name string
		drop func(h *Hub, c *Client)
	}{
		{"stopped", func(h *Hub, c *Client) { h.cleanup() }},
		{"slow subscriber removed", func(h *Hub, c *Client) {
			h.mu.Lock()
			h.removeClient(c)
			h.mu.Unlock()
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := NewHub()
			client := &Client{hub: hub, send: make(chan []byte, 1), Remote: "test"}
			hub.clients[client] = true

			if !client.trySend([]byte(`{"type":"pong"}`)) {
				t.Fatal("live client should accept a message")
			}
			tt.drop(hub, client)

			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("send after drop panicked: %v", r)
				}
			}()
			if client.trySend([]byte(`{"type":"pong"}`)) {
				t.Fatal("dropped client must not accept messages")
			}
		})
	}
}

func TestPingAfterStopClosesQuietly(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url)
	waitForClients(t, hub, 1)

	hub.Stop()
	waitForClients(t, hub, 0)
	data, _ := json.Marshal(Event{Type: EventPing})
	conn.WriteMessage(websocket.TextMessage, data)

	// The hub closes the subscriber; the connection must end without a pong.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var ev Event
		if err := conn.ReadJSON(&ev); err != nil {
			break
		}
		if ev.Type == EventPong {
			t.Fatal("stopped hub should not answer pings")
		}
	}
}
