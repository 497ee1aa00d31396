package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"gamenight/internal/room"

	"github.com/gorilla/websocket"
)

// wsClient serializes writes; a store subscription can fire from whichever
// goroutine performed the mutation.
type wsClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsClient) send(payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// handleWebsocket bridges a room subscription onto the connection: the first
// frame is the current snapshot, every mutation pushes a fresh one, and a
// deleted or expired room sends a terminal frame before closing.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	roomID, ok := parseWebsocketPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := &wsClient{conn: conn}
	unsubscribe, err := s.store.Subscribe(roomID, func(current *room.Room) {
		if current == nil {
			_ = client.send(map[string]any{"type": "deleted", "room_id": roomID})
			_ = conn.Close()
			return
		}
		if err := client.send(map[string]any{"type": "room", "room": snapshot(current)}); err != nil {
			_ = conn.Close()
		}
	})
	if err != nil {
		_ = client.send(map[string]any{"type": "deleted", "room_id": roomID})
		_ = conn.Close()
		return
	}
	log.Printf("ws connected room_id=%s remote=%s", roomID, r.RemoteAddr)
	go s.readWS(roomID, client, unsubscribe)
}

func (s *Server) readWS(roomID string, client *wsClient, unsubscribe func()) {
	defer func() {
		unsubscribe()
		_ = client.conn.Close()
	}()
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			log.Printf("ws disconnected room_id=%s error=%v", roomID, err)
			return
		}
	}
}
