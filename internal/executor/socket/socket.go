package socket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/namnv2496/gameforge/internal/model"
)

// AllRooms subscribes a client to every run.
const AllRooms = "*"

const serverUser = "gameforge"

// ClientInfo holds metadata for a connected WebSocket client.
type ClientInfo struct {
	username string
	roomID   string
}

// Message is the envelope for all WebSocket messages. The room is a run id.
//
// Type values:
//   - "event" - a pipeline progress event (payload = JSON-encoded model.Event)
//   - "chat"  - a note from a viewer, relayed to the other viewers of the room
//   - "stop"  - client is disconnecting
type Message struct {
	Type    string `json:"type"`
	Payload string `json:"payload"`
	User    string `json:"user"`
	RoomID  string `json:"roomId"`
}

// Hub relays pipeline events to the viewers of each run.
type Hub struct {
	clients   map[*websocket.Conn]*ClientInfo
	clientsMu sync.RWMutex
	broadcast chan Message
	upgrader  websocket.Upgrader
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*websocket.Conn]*ClientInfo),
		broadcast: make(chan Message, 256),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Hub) HandleConnections(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("WebSocket upgrade error", "error", err)
		return
	}
	defer ws.Close()

	username := r.URL.Query().Get("username")
	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		slog.Warn("Rejected connection: missing room query param")
		return
	}
	if username == "" {
		username = r.RemoteAddr
	}

	slog.Info("Viewer connected", "user", username, "room", roomID)
	h.clientsMu.Lock()
	h.clients[ws] = &ClientInfo{username: username, roomID: roomID}
	h.clientsMu.Unlock()

	for {
		var msg Message
		if err := ws.ReadJSON(&msg); err != nil {
			slog.Info("Viewer disconnected", "user", username, "error", err)
			h.drop(ws)
			break
		}
		if msg.Type == "event" {
			continue
		}
		// Overwrite user/room from the query params; never trust the client fields.
		msg.User = username
		msg.RoomID = roomID
		h.broadcast <- msg
	}
}

// Run delivers queued messages until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// Report queues ev for the viewers of its run. A full queue drops the event.
func (h *Hub) Report(ev model.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		slog.Warn("Failed to encode event", "run_id", ev.RunID, "error", err)
		return
	}
	select {
	case h.broadcast <- Message{Type: "event", Payload: string(payload), User: serverUser, RoomID: ev.RunID}:
	default:
		slog.Warn("Event queue full; dropping event", "run_id", ev.RunID, "event", ev.Kind)
	}
}

// Clients returns the number of connected viewers.
func (h *Hub) Clients() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

func (h *Hub) deliver(msg Message) {
	if msg.Type == "stop" {
		h.clientsMu.Lock()
		for conn, info := range h.clients {
			if info.username == msg.User && info.roomID == msg.RoomID {
				slog.Info("Disconnecting viewer", "user", msg.User, "room", msg.RoomID)
				conn.Close()
				delete(h.clients, conn)
				break
			}
		}
		h.clientsMu.Unlock()
		return
	}

	// Snapshot the room except the sender, then write outside the lock so a
	// slow write doesn't block other goroutines.
	h.clientsMu.RLock()
	targets := make(map[*websocket.Conn]*ClientInfo)
	for conn, info := range h.clients {
		inRoom := info.roomID == msg.RoomID || info.roomID == AllRooms
		if inRoom && info.username != msg.User {
			targets[conn] = info
		}
	}
	h.clientsMu.RUnlock()

	for conn, info := range targets {
		if err := conn.WriteJSON(msg); err != nil {
			slog.Warn("Write error", "user", info.username, "error", err)
			h.clientsMu.Lock()
			conn.Close()
			delete(h.clients, conn)
			h.clientsMu.Unlock()
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.clientsMu.Lock()
	delete(h.clients, conn)
	h.clientsMu.Unlock()
}

func (h *Hub) closeAll() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}
