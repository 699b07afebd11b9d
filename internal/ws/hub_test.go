package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialTestHub(t *testing.T, hub *Hub, userID string) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Upgrade() error = %v", err)
			return
		}
		hub.Register(conn, userID)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_BroadcastTransactionChange(t *testing.T) {
	hub := NewHub()
	hub.Start()
	defer hub.Stop()

	conn := dialTestHub(t, hub, "user-1")

	// Give the server-side Register a moment to reach the hub loop.
	time.Sleep(50 * time.Millisecond)

	hub.BroadcastTransactionChange("user-1", 2025, 3)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, body, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}

	var payload struct {
		Type   string `json:"type"`
		UserID string `json:"user_id"`
		Year   int    `json:"year"`
		Month  int    `json:"month"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if payload.Type != "transactions_changed" {
		t.Errorf("payload type = %v, want transactions_changed", payload.Type)
	}
	if payload.UserID != "user-1" {
		t.Errorf("payload user_id = %v, want user-1", payload.UserID)
	}
	if payload.Year != 2025 || payload.Month != 3 {
		t.Errorf("payload month = %d-%d, want 2025-3", payload.Year, payload.Month)
	}
}

func TestHub_BroadcastIsScopedToUser(t *testing.T) {
	hub := NewHub()
	hub.Start()
	defer hub.Stop()

	conn := dialTestHub(t, hub, "user-2")
	time.Sleep(50 * time.Millisecond)

	hub.BroadcastTransactionChange("someone-else", 2025, 3)

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("ReadMessage() should time out, message was for another user")
	}
}
