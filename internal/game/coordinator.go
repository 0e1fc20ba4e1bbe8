package game

import (
	"log"
	"sync"
	"time"

	"github.com/Krishna-Gupta17/OneFocus-B/internal/ws"
)

// MatchEntry is one concluded race as recorded against the durable room.
type MatchEntry struct {
	WinnerUID  string    `json:"winnerUid"`
	WinnerName string    `json:"winnerName"`
	TargetTime float64   `json:"targetTime"`
	Timestamp  time.Time `json:"timestamp"`
}

// RoomStore is the durable room record the coordinator reconciles ephemeral
// state against. EnsureRoom and AddParticipant must be atomic insert-if-absent
// operations at the storage layer; two users joining a never-before-seen room
// concurrently must not produce two records.
type RoomStore interface {
	EnsureRoom(roomID, hostUID string) error
	AddParticipant(roomID, uid string) error
	Participants(roomID string) ([]string, error)
	AppendMatch(roomID string, entry MatchEntry) error
	MatchHistory(roomID string) ([]MatchEntry, error)
}

// UserDirectory resolves display names and records pending invites on the
// durable user record.
type UserDirectory interface {
	DisplayName(uid string) (string, error)
	SetInvitedRoom(uid, roomID string) error
}

// Coordinator drives each room's race lifecycle: join, start, progress
// reports, winner declaration and teardown. Every mutation of a room — and
// the broadcast it triggers — runs under that room's mutex, so subscribers
// observe events in the order the transitions were serialized and at most
// one winner is ever declared.
type Coordinator struct {
	races *RaceStore
	hub   *ws.Hub
	rooms RoomStore
	users UserDirectory

	locks sync.Map // roomID -> *sync.Mutex
}

func NewCoordinator(races *RaceStore, hub *ws.Hub, rooms RoomStore, users UserDirectory) *Coordinator {
	return &Coordinator{races: races, hub: hub, rooms: rooms, users: users}
}

func (c *Coordinator) roomLock(roomID string) *sync.Mutex {
	mu, _ := c.locks.LoadOrStore(roomID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Join handles a joinRoom event: registers presence, subscribes the
// connection to the room, ensures durable and ephemeral room state exist
// (the first joiner becomes host of a new room) and broadcasts the durable
// participant list to the room.
func (c *Coordinator) Join(conn ws.Conn, roomID, uid string) {
	c.hub.Register(uid, conn)
	c.hub.Subscribe(roomID, conn)

	mu := c.roomLock(roomID)
	mu.Lock()
	defer mu.Unlock()

	if err := c.rooms.EnsureRoom(roomID, uid); err != nil {
		log.Printf("game: ensure room %s: %v", roomID, err)
		return
	}
	if err := c.rooms.AddParticipant(roomID, uid); err != nil {
		log.Printf("game: add participant %s to %s: %v", uid, roomID, err)
		return
	}

	c.races.CreateIfAbsent(roomID, uid)
	c.races.AddParticipant(roomID, uid)

	participants, err := c.rooms.Participants(roomID)
	if err != nil {
		log.Printf("game: load participants for %s: %v", roomID, err)
		return
	}
	c.hub.BroadcastToRoom(roomID, ws.WSMessage{Type: "roomUpdate", Data: participants})
}

// Start sets the race's target time and announces the start. Restarting an
// already racing room overwrites the target without resetting participants.
// Any participant may start; there is no host-only check.
func (c *Coordinator) Start(roomID string, targetTime float64) {
	mu := c.roomLock(roomID)
	mu.Lock()
	defer mu.Unlock()

	if !c.races.SetTargetTime(roomID, targetTime) {
		log.Printf("game: start for unknown room %s", roomID)
		return
	}
	c.hub.BroadcastToRoom(roomID, ws.WSMessage{
		Type: "gameStarted",
		Data: map[string]interface{}{"targetTime": targetTime},
	})
}

// ReportProgress records a participant's reported time. When the report
// first reaches the target it emits a winner-candidate notice to the room;
// declaring the winner stays a separate, explicit call.
func (c *Coordinator) ReportProgress(roomID, uid string, reported float64) {
	mu := c.roomLock(roomID)
	mu.Lock()
	defer mu.Unlock()

	if !c.races.UpdateProgress(roomID, uid, reported) {
		return
	}

	name, err := c.users.DisplayName(uid)
	if err != nil {
		// Reopen the candidate window so a later report can retry once
		// the directory is reachable again.
		log.Printf("game: display name for %s: %v", uid, err)
		c.races.ReopenCandidate(roomID)
		return
	}

	c.hub.BroadcastToRoom(roomID, ws.WSMessage{
		Type: "declarewinner",
		Data: map[string]interface{}{
			"roomId":     roomID,
			"winnerUid":  uid,
			"winnerName": name,
		},
	})
}

// DeclareWinner finalizes the race. Exactly one concurrent caller succeeds:
// the match entry is appended to the durable room before the ephemeral
// winner is set and announced, so clients are never told about a match that
// was not recorded. Afterwards the room's ephemeral state is discarded.
// Losing callers get false and no side effects; that is a normal race
// outcome, not an error.
func (c *Coordinator) DeclareWinner(roomID, uid, displayName string) bool {
	mu := c.roomLock(roomID)
	mu.Lock()
	defer mu.Unlock()

	snap, ok := c.races.Get(roomID)
	if !ok || snap.WinnerUID != "" {
		return false
	}

	var target float64
	if snap.TargetTime != nil {
		target = *snap.TargetTime
	}
	entry := MatchEntry{
		WinnerUID:  uid,
		WinnerName: displayName,
		TargetTime: target,
		Timestamp:  time.Now(),
	}
	if err := c.rooms.AppendMatch(roomID, entry); err != nil {
		log.Printf("game: record match for %s: %v", roomID, err)
		return false
	}

	if !c.races.SetWinner(roomID, uid, displayName) {
		return false
	}

	c.hub.BroadcastToRoom(roomID, ws.WSMessage{
		Type: "winnerAnnounced",
		Data: map[string]interface{}{
			"winnerUid":  uid,
			"winnerName": displayName,
		},
	})

	c.races.Remove(roomID)
	c.locks.Delete(roomID)
	return true
}

// MatchHistory sends the durable room's match history to the requesting
// connection only.
func (c *Coordinator) MatchHistory(conn ws.Conn, roomID string) {
	entries, err := c.rooms.MatchHistory(roomID)
	if err != nil {
		log.Printf("game: match history for %s: %v", roomID, err)
		return
	}
	c.hub.Send(conn, ws.WSMessage{Type: "matchHistory", Data: entries})
}

// Invite records the pending invite on the target's durable user record,
// then notifies the target's connection if one is present. An offline target
// is not an error: the client polls the durable field.
func (c *Coordinator) Invite(friendUID, roomID string) {
	if err := c.users.SetInvitedRoom(friendUID, roomID); err != nil {
		log.Printf("game: persist invite for %s: %v", friendUID, err)
		return
	}
	c.hub.SendToUser(friendUID, ws.WSMessage{
		Type: "invite-" + friendUID,
		Data: map[string]interface{}{"roomId": roomID},
	})
}

// Disconnect drops the connection from presence and broadcasts the updated
// online set. The user's room participation and last reported progress are
// deliberately left frozen.
func (c *Coordinator) Disconnect(conn ws.Conn) {
	c.hub.Unregister(conn)
}
