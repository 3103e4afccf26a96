package events

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestHubPublishSubscribe(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe(4)
	defer cancel()

	h.Publish(Event{Type: TranslationUpdated, Payload: TranslationUpdate{Version: "LIVE", Success: true}})

	select {
	case ev := <-ch:
		if ev.Type != TranslationUpdated || ev.Time.IsZero() {
			t.Errorf("got %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestHubSlowSubscriberDoesNotBlock(t *testing.T) {
	h := NewHub()
	_, cancel := h.Subscribe(1)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			h.Publish(Event{Type: PollCompleted})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
	if got := len(h.Recent()); got != replaySize {
		t.Errorf("Recent() len = %d, want %d", got, replaySize)
	}
}

func TestHubCancel(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe(1)
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Error("channel not closed after cancel")
	}
	if h.Subscribers() != 0 {
		t.Errorf("Subscribers() = %d", h.Subscribers())
	}
	h.Publish(Event{Type: PollCompleted})
}

func TestNilHubPublish(t *testing.T) {
	var h *Hub
	h.Publish(Event{Type: PollCompleted})
}

func TestServeWS(t *testing.T) {
	h := NewHub()
	h.Publish(Event{Type: ServiceState, Payload: "running"})

	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	read := func() Event {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatal(err)
		}
		return ev
	}

	if ev := read(); ev.Type != ServiceState {
		t.Errorf("replayed event = %+v", ev)
	}

	// Wait until the connection is subscribed before publishing.
	deadline := time.Now().Add(2 * time.Second)
	for h.Subscribers() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	h.Publish(Event{Type: TranslationUpdated, Payload: TranslationUpdate{Version: "PTU", Success: true}})

	ev := read()
	if ev.Type != TranslationUpdated {
		t.Fatalf("event = %+v", ev)
	}
	payload, _ := ev.Payload.(map[string]any)
	if payload["version"] != "PTU" || payload["success"] != true {
		t.Errorf("payload = %v", ev.Payload)
	}
}
