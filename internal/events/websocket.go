package events

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // auth is handled at the HTTP layer
	},
}

// ServeWS upgrades the request and streams events to the client. Recent
// events are replayed first so a reconnecting UI catches up.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[events] websocket upgrade error: %v", err)
		return
	}

	replay, ch, cancel := h.subscribe(64)
	closed := make(chan struct{})

	// The stream is one-way; the reader only detects disconnects.
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("[events] ws read error: %v", err)
				}
				return
			}
		}
	}()

	defer func() {
		cancel()
		conn.Close()
	}()

	for _, ev := range replay {
		if err := writeEvent(conn, ev); err != nil {
			return
		}
	}
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := writeEvent(conn, ev); err != nil {
				log.Printf("[events] write to client error: %v", err)
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func writeEvent(conn *websocket.Conn, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[events] marshal %s: %v", ev.Type, err)
		return nil
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}
