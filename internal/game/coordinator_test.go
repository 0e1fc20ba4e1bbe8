package game_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Krishna-Gupta17/OneFocus-B/internal/game"
	"github.com/Krishna-Gupta17/OneFocus-B/internal/ws"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu     sync.Mutex
	msgs   []ws.WSMessage
	closed bool
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if msg, ok := v.(ws.WSMessage); ok {
		c.msgs = append(c.msgs, msg)
	}
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) byType(eventType string) []ws.WSMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []ws.WSMessage
	for _, m := range c.msgs {
		if m.Type == eventType {
			out = append(out, m)
		}
	}
	return out
}

func (c *fakeConn) typeSequence() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	types := make([]string, 0, len(c.msgs))
	for _, m := range c.msgs {
		types = append(types, m.Type)
	}
	return types
}

type fakeRoomStore struct {
	mu           sync.Mutex
	hosts        map[string]string
	participants map[string][]string
	matches      map[string][]game.MatchEntry
	failAppend   bool
}

func newFakeRoomStore() *fakeRoomStore {
	return &fakeRoomStore{
		hosts:        make(map[string]string),
		participants: make(map[string][]string),
		matches:      make(map[string][]game.MatchEntry),
	}
}

func (f *fakeRoomStore) EnsureRoom(roomID, hostUID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.hosts[roomID]; !ok {
		f.hosts[roomID] = hostUID
	}
	return nil
}

func (f *fakeRoomStore) AddParticipant(roomID, uid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.hosts[roomID]; !ok {
		return fmt.Errorf("room %s not found", roomID)
	}
	for _, p := range f.participants[roomID] {
		if p == uid {
			return nil
		}
	}
	f.participants[roomID] = append(f.participants[roomID], uid)
	return nil
}

func (f *fakeRoomStore) Participants(roomID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.participants[roomID]...), nil
}

func (f *fakeRoomStore) AppendMatch(roomID string, entry game.MatchEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAppend {
		return errors.New("storage unavailable")
	}
	f.matches[roomID] = append(f.matches[roomID], entry)
	return nil
}

func (f *fakeRoomStore) MatchHistory(roomID string) ([]game.MatchEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entries := f.matches[roomID]
	out := make([]game.MatchEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		out = append(out, entries[i])
	}
	return out, nil
}

func (f *fakeRoomStore) setFailAppend(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failAppend = fail
}

type fakeDirectory struct {
	mu      sync.Mutex
	names   map[string]string
	invites map[string]string
	fail    bool
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{names: make(map[string]string), invites: make(map[string]string)}
}

func (f *fakeDirectory) DisplayName(uid string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return "", errors.New("storage unavailable")
	}
	if name, ok := f.names[uid]; ok {
		return name, nil
	}
	return "", errors.New("user not found")
}

func (f *fakeDirectory) SetInvitedRoom(uid, roomID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invites[uid] = roomID
	return nil
}

func (f *fakeDirectory) invitedRoom(uid string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.invites[uid]
}

type fixture struct {
	coordinator *game.Coordinator
	races       *game.RaceStore
	hub         *ws.Hub
	rooms       *fakeRoomStore
	users       *fakeDirectory
}

func newFixture() *fixture {
	races := game.NewRaceStore(0)
	hub := ws.NewHub()
	rooms := newFakeRoomStore()
	users := newFakeDirectory()
	return &fixture{
		coordinator: game.NewCoordinator(races, hub, rooms, users),
		races:       races,
		hub:         hub,
		rooms:       rooms,
		users:       users,
	}
}

func TestCoordinator_JoinIdempotent(t *testing.T) {
	f := newFixture()
	conn := &fakeConn{}

	f.coordinator.Join(conn, "r1", "alice")
	f.coordinator.Join(conn, "r1", "alice")

	participants, err := f.rooms.Participants("r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, participants)

	snap, ok := f.races.Get("r1")
	require.True(t, ok)
	assert.Equal(t, []string{"alice"}, snap.Participants)
	assert.Equal(t, "alice", snap.HostUID, "first joiner becomes host")

	// each join still broadcasts the current roster
	assert.Len(t, conn.byType("roomUpdate"), 2)
}

func TestCoordinator_FullRaceScenario(t *testing.T) {
	f := newFixture()
	f.users.names["a"] = "Alice"
	f.users.names["b"] = "Bob"

	host := &fakeConn{}
	connA := &fakeConn{}
	connB := &fakeConn{}

	f.coordinator.Join(host, "R1", "h")
	f.coordinator.Join(connA, "R1", "a")
	f.coordinator.Join(connB, "R1", "b")

	participants, _ := f.rooms.Participants("R1")
	assert.Equal(t, []string{"h", "a", "b"}, participants)

	f.coordinator.Start("R1", 60)
	started := connB.byType("gameStarted")
	require.Len(t, started, 1)
	assert.Equal(t, map[string]interface{}{"targetTime": 60.0}, started[0].Data)

	f.coordinator.ReportProgress("R1", "a", 45)
	assert.Empty(t, connB.byType("declarewinner"), "below target never fires a candidate")

	f.coordinator.ReportProgress("R1", "a", 61)
	candidates := connB.byType("declarewinner")
	require.Len(t, candidates, 1)
	assert.Equal(t, map[string]interface{}{
		"roomId":     "R1",
		"winnerUid":  "a",
		"winnerName": "Alice",
	}, candidates[0].Data)

	require.True(t, f.coordinator.DeclareWinner("R1", "a", "Alice"))

	announced := connB.byType("winnerAnnounced")
	require.Len(t, announced, 1)
	assert.Equal(t, map[string]interface{}{
		"winnerUid":  "a",
		"winnerName": "Alice",
	}, announced[0].Data)

	history, _ := f.rooms.MatchHistory("R1")
	require.Len(t, history, 1)
	assert.Equal(t, "a", history[0].WinnerUID)
	assert.Equal(t, 60.0, history[0].TargetTime)

	// ephemeral state is gone; the losing declare is a harmless no-op
	_, ok := f.races.Get("R1")
	assert.False(t, ok)
	assert.False(t, f.coordinator.DeclareWinner("R1", "b", "Bob"))
	history, _ = f.rooms.MatchHistory("R1")
	assert.Len(t, history, 1)
	assert.Empty(t, connB.byType("winnerAnnounced")[1:])
}

func TestCoordinator_RoomEventOrdering(t *testing.T) {
	f := newFixture()
	f.users.names["a"] = "Alice"

	conn := &fakeConn{}
	f.coordinator.Join(conn, "r1", "a")
	f.coordinator.Start("r1", 60)
	f.coordinator.ReportProgress("r1", "a", 61)
	require.True(t, f.coordinator.DeclareWinner("r1", "a", "Alice"))

	var roomEvents []string
	for _, et := range conn.typeSequence() {
		if et != "onlineUsersUpdate" {
			roomEvents = append(roomEvents, et)
		}
	}
	assert.Equal(t,
		[]string{"roomUpdate", "gameStarted", "declarewinner", "winnerAnnounced"},
		roomEvents,
	)
}

func TestCoordinator_AtMostOneWinner(t *testing.T) {
	f := newFixture()

	const racers = 16
	for i := 0; i < racers; i++ {
		uid := fmt.Sprintf("u%02d", i)
		f.users.names[uid] = uid
		f.coordinator.Join(&fakeConn{}, "r1", uid)
	}
	f.coordinator.Start("r1", 60)

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			uid := fmt.Sprintf("u%02d", i)
			if f.coordinator.DeclareWinner("r1", uid, uid) {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, wins, "exactly one declare succeeds")
	history, _ := f.rooms.MatchHistory("r1")
	assert.Len(t, history, 1)
}

func TestCoordinator_StorageFailureKeepsWinnerUnset(t *testing.T) {
	f := newFixture()
	f.users.names["a"] = "Alice"

	f.coordinator.Join(&fakeConn{}, "r1", "a")
	f.coordinator.Start("r1", 60)

	f.rooms.setFailAppend(true)
	assert.False(t, f.coordinator.DeclareWinner("r1", "a", "Alice"))

	snap, ok := f.races.Get("r1")
	require.True(t, ok, "room must survive a failed append")
	assert.Empty(t, snap.WinnerUID)

	// once storage recovers the declare goes through
	f.rooms.setFailAppend(false)
	assert.True(t, f.coordinator.DeclareWinner("r1", "a", "Alice"))
	history, _ := f.rooms.MatchHistory("r1")
	assert.Len(t, history, 1)
}

func TestCoordinator_RepeatedRacesAccumulateHistory(t *testing.T) {
	f := newFixture()
	f.users.names["a"] = "Alice"
	f.users.names["b"] = "Bob"

	connA := &fakeConn{}
	connB := &fakeConn{}

	const rounds = 3
	for i := 0; i < rounds; i++ {
		f.coordinator.Join(connA, "r1", "a")
		f.coordinator.Join(connB, "r1", "b")
		f.coordinator.Start("r1", float64(30+i))
		winner := "a"
		if i%2 == 1 {
			winner = "b"
		}
		f.coordinator.ReportProgress("r1", winner, 100)
		require.True(t, f.coordinator.DeclareWinner("r1", winner, f.users.names[winner]))
	}

	history, _ := f.rooms.MatchHistory("r1")
	require.Len(t, history, rounds)
	// newest first
	assert.Equal(t, 32.0, history[0].TargetTime)
	assert.Equal(t, 30.0, history[2].TargetTime)

	participants, _ := f.rooms.Participants("r1")
	assert.Equal(t, []string{"a", "b"}, participants, "durable roster survives races")
}

func TestCoordinator_MatchHistoryGoesToRequesterOnly(t *testing.T) {
	f := newFixture()
	f.users.names["a"] = "Alice"

	connA := &fakeConn{}
	connB := &fakeConn{}
	f.coordinator.Join(connA, "r1", "a")
	f.coordinator.Join(connB, "r1", "b")

	f.coordinator.MatchHistory(connA, "r1")

	assert.Len(t, connA.byType("matchHistory"), 1)
	assert.Empty(t, connB.byType("matchHistory"))
}

func TestCoordinator_CandidateRetriesAfterDirectoryFailure(t *testing.T) {
	f := newFixture()
	f.users.names["a"] = "Alice"

	conn := &fakeConn{}
	f.coordinator.Join(conn, "r1", "a")
	f.coordinator.Start("r1", 60)

	f.users.fail = true
	f.coordinator.ReportProgress("r1", "a", 61)
	assert.Empty(t, conn.byType("declarewinner"))

	f.users.fail = false
	f.coordinator.ReportProgress("r1", "a", 62)
	assert.Len(t, conn.byType("declarewinner"), 1)
}

func TestCoordinator_InviteOnlineAndOffline(t *testing.T) {
	f := newFixture()

	friendConn := &fakeConn{}
	f.hub.Register("friend", friendConn)

	f.coordinator.Invite("friend", "r1")
	invites := friendConn.byType("invite-friend")
	require.Len(t, invites, 1)
	assert.Equal(t, map[string]interface{}{"roomId": "r1"}, invites[0].Data)
	assert.Equal(t, "r1", f.users.invitedRoom("friend"))

	// offline target: invite is persisted, nothing is delivered, no error
	f.coordinator.Invite("ghost", "r2")
	assert.Equal(t, "r2", f.users.invitedRoom("ghost"))
}

func TestCoordinator_DisconnectFreezesRoomState(t *testing.T) {
	f := newFixture()
	f.users.names["a"] = "Alice"

	connA := &fakeConn{}
	connB := &fakeConn{}
	f.coordinator.Join(connA, "r1", "a")
	f.coordinator.Join(connB, "r1", "b")
	f.coordinator.Start("r1", 60)
	f.coordinator.ReportProgress("r1", "a", 40)

	f.coordinator.Disconnect(connA)

	assert.Equal(t, []string{"b"}, f.hub.OnlineUsers())

	participants, _ := f.rooms.Participants("r1")
	assert.Equal(t, []string{"a", "b"}, participants, "durable roster untouched")

	snap, ok := f.races.Get("r1")
	require.True(t, ok)
	assert.Equal(t, 40.0, snap.Progress["a"], "progress stays frozen")
}

func TestCoordinator_StartUnknownRoomIsSilent(t *testing.T) {
	f := newFixture()
	conn := &fakeConn{}
	f.hub.Attach(conn)
	f.hub.Subscribe("ghost", conn)

	f.coordinator.Start("ghost", 60)
	assert.Empty(t, conn.byType("gameStarted"))
}
