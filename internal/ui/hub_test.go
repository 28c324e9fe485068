package ui

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialHub(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("client count %d, want %d", hub.ClientCount(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubBroadcastsTypedEvents(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()
	server := httptest.NewServer(hub)
	defer server.Close()

	conn := dialHub(t, server)
	defer conn.Close()
	waitForClients(t, hub, 1)

	hub.Emit("toast", Toast{Message: "hello", Type: "success"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var event struct {
		Type string `json:"type"`
		Data Toast  `json:"data"`
	}
	if err := json.Unmarshal(raw, &event); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if event.Type != "toast" || event.Data.Message != "hello" {
		t.Fatalf("unexpected event %+v", event)
	}
}

func TestHubDropsDisconnectedClients(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()
	server := httptest.NewServer(hub)
	defer server.Close()

	conn := dialHub(t, server)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestHubCloseRefusesNewClients(t *testing.T) {
	hub := NewHub(nil)
	server := httptest.NewServer(hub)
	defer server.Close()

	hub.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		// The upgrade may succeed before the server closes the socket;
		// the connection must die immediately either way.
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		if _, _, readErr := conn.ReadMessage(); readErr == nil {
			t.Fatal("closed hub must not serve events")
		}
		conn.Close()
	}
	if hub.ClientCount() != 0 {
		t.Fatalf("closed hub holds %d clients", hub.ClientCount())
	}
}
