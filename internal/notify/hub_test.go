package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestHubDeliversToUser(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeUser(w, r, r.URL.Query().Get("user"))
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=u1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount("u1") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.Notify("someone-else", Success("Ignored", "not for u1"))
	hub.Notify("u1", Success("Payment confirmed", "TZS 150,000 from Asha"))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Toast
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if got.Type != ToastSuccess || got.Title != "Payment confirmed" {
		t.Errorf("unexpected toast %+v", got)
	}
}

func TestFailureUsesClassifiedMessage(t *testing.T) {
	toast := Failure("Payment failed", errors.New("dial tcp: connection refused"))
	if toast.Type != ToastError || toast.Kind != "network_error" {
		t.Errorf("unexpected toast %+v", toast)
	}
	if toast.Message == "" || strings.Contains(toast.Message, "dial tcp") {
		t.Errorf("expected a friendly message, got %q", toast.Message)
	}
}
