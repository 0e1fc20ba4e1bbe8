package ws

import (
	"log"
	"sort"
	"sync"
)

type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Conn is the subset of *websocket.Conn the hub needs. Tests substitute
// in-memory fakes.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Hub owns process-wide connection state: every attached connection, the
// presence map (at most one entry per uid) and per-room broadcast groups.
// All writes to connections happen under the hub lock, so writes to a single
// connection are serialized and events broadcast to a room are delivered in
// the order their transitions were applied.
type Hub struct {
	mu       sync.Mutex
	conns    map[Conn]bool
	presence map[string]Conn
	rooms    map[string]map[Conn]bool
}

func NewHub() *Hub {
	return &Hub{
		conns:    make(map[Conn]bool),
		presence: make(map[string]Conn),
		rooms:    make(map[string]map[Conn]bool),
	}
}

// Attach makes a freshly upgraded connection known to the hub so it receives
// global broadcasts before (or without) ever joining a room.
func (h *Hub) Attach(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = true
}

// Register binds a uid to its connection, replacing any prior entry for that
// uid, and broadcasts the full online-uid set to every connection.
func (h *Hub) Register(uid string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.conns[conn] = true
	h.presence[uid] = conn
	h.broadcastPresenceLocked()
	log.Printf("ws: user %s online (%d connected)", uid, len(h.presence))
}

// Unregister removes the connection from the presence map (scan by
// connection), every room group and the connection set, then broadcasts the
// updated online-uid set. Room participant state is untouched.
func (h *Hub) Unregister(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.dropConnLocked(conn)
	h.broadcastPresenceLocked()
}

// Lookup returns the active connection for uid. Absence is a normal outcome:
// the user is offline.
func (h *Hub) Lookup(uid string) (Conn, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conn, ok := h.presence[uid]
	return conn, ok
}

// Subscribe adds the connection to a room's broadcast group.
func (h *Hub) Subscribe(roomID string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[Conn]bool)
	}
	h.rooms[roomID][conn] = true
	h.conns[conn] = true
}

// BroadcastToRoom sends a message to every subscriber of the room.
func (h *Hub) BroadcastToRoom(roomID string, msg WSMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.rooms[roomID] {
		h.writeLocked(conn, msg)
	}
}

// SendToUser delivers a message to uid's connection if the user is online.
// Reports whether the user was reachable.
func (h *Hub) SendToUser(uid string, msg WSMessage) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.presence[uid]
	if !ok {
		return false
	}
	return h.writeLocked(conn, msg)
}

// Send writes a message to one connection (requester-only replies).
func (h *Hub) Send(conn Conn, msg WSMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.writeLocked(conn, msg)
}

// OnlineUsers returns the sorted set of uids with a live connection.
func (h *Hub) OnlineUsers() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.onlineUsersLocked()
}

func (h *Hub) onlineUsersLocked() []string {
	uids := make([]string, 0, len(h.presence))
	for uid := range h.presence {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	return uids
}

func (h *Hub) broadcastPresenceLocked() {
	msg := WSMessage{Type: "onlineUsersUpdate", Data: h.onlineUsersLocked()}
	for conn := range h.conns {
		h.writeLocked(conn, msg)
	}
}

// writeLocked writes one message and evicts the connection on failure so a
// dead peer cannot wedge later broadcasts.
func (h *Hub) writeLocked(conn Conn, msg WSMessage) bool {
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("ws: write error: %v", err)
		h.dropConnLocked(conn)
		return false
	}
	return true
}

func (h *Hub) dropConnLocked(conn Conn) {
	conn.Close()
	delete(h.conns, conn)
	for uid, c := range h.presence {
		if c == conn {
			delete(h.presence, uid)
			log.Printf("ws: user %s offline", uid)
		}
	}
	for roomID, subs := range h.rooms {
		delete(subs, conn)
		if len(subs) == 0 {
			delete(h.rooms, roomID)
		}
	}
}
