package ws_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Krishna-Gupta17/OneFocus-B/internal/ws"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu      sync.Mutex
	msgs    []ws.WSMessage
	closed  bool
	failing bool
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return errors.New("broken pipe")
	}
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

func (c *fakeConn) lastOfType(eventType string) (ws.WSMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.msgs) - 1; i >= 0; i-- {
		if c.msgs[i].Type == eventType {
			return c.msgs[i], true
		}
	}
	return ws.WSMessage{}, false
}

func (c *fakeConn) count(eventType string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, m := range c.msgs {
		if m.Type == eventType {
			n++
		}
	}
	return n
}

func TestHub_RegisterAndLookup(t *testing.T) {
	h := ws.NewHub()
	conn := &fakeConn{}

	h.Register("alice", conn)

	got, ok := h.Lookup("alice")
	require.True(t, ok)
	assert.Same(t, conn, got.(*fakeConn))

	_, ok = h.Lookup("bob")
	assert.False(t, ok, "offline user is a normal miss")
}

func TestHub_ReRegisterReplacesEntry(t *testing.T) {
	h := ws.NewHub()
	old := &fakeConn{}
	fresh := &fakeConn{}

	h.Register("alice", old)
	h.Register("alice", fresh)

	assert.Equal(t, []string{"alice"}, h.OnlineUsers(), "no duplicate entries")
	got, ok := h.Lookup("alice")
	require.True(t, ok)
	assert.Same(t, fresh, got.(*fakeConn))
}

func TestHub_PresenceBroadcast(t *testing.T) {
	h := ws.NewHub()
	connA := &fakeConn{}
	connB := &fakeConn{}

	h.Register("a", connA)
	h.Register("b", connB)

	msg, ok := connA.lastOfType("onlineUsersUpdate")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, msg.Data)
}

func TestHub_ConcurrentRegistrationsThenUnregister(t *testing.T) {
	h := ws.NewHub()

	const n = 32
	conns := make([]*fakeConn, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		conns[i] = &fakeConn{}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h.Register(fmt.Sprintf("u%02d", i), conns[i])
		}(i)
	}
	wg.Wait()

	require.Len(t, h.OnlineUsers(), n)

	h.Unregister(conns[0])

	online := h.OnlineUsers()
	assert.Len(t, online, n-1)
	assert.NotContains(t, online, "u00")

	// survivors saw the final presence set
	msg, ok := conns[1].lastOfType("onlineUsersUpdate")
	require.True(t, ok)
	assert.Equal(t, online, msg.Data)
}

func TestHub_BroadcastToRoomOnlyReachesSubscribers(t *testing.T) {
	h := ws.NewHub()
	in := &fakeConn{}
	out := &fakeConn{}

	h.Attach(in)
	h.Attach(out)
	h.Subscribe("r1", in)

	h.BroadcastToRoom("r1", ws.WSMessage{Type: "roomUpdate", Data: []string{"a"}})

	assert.Equal(t, 1, in.count("roomUpdate"))
	assert.Equal(t, 0, out.count("roomUpdate"))
}

func TestHub_SendToUser(t *testing.T) {
	h := ws.NewHub()
	conn := &fakeConn{}
	h.Register("alice", conn)

	assert.True(t, h.SendToUser("alice", ws.WSMessage{Type: "invite-alice"}))
	assert.Equal(t, 1, conn.count("invite-alice"))

	assert.False(t, h.SendToUser("ghost", ws.WSMessage{Type: "invite-ghost"}))
}

func TestHub_WriteFailureEvictsConnection(t *testing.T) {
	h := ws.NewHub()
	good := &fakeConn{}
	bad := &fakeConn{failing: true}

	h.Register("good", good)
	h.Register("bad", bad)
	h.Subscribe("r1", bad)

	h.BroadcastToRoom("r1", ws.WSMessage{Type: "roomUpdate"})

	assert.True(t, bad.closed)
	assert.Equal(t, []string{"good"}, h.OnlineUsers())
	_, ok := h.Lookup("bad")
	assert.False(t, ok)
}

func TestHub_UnregisterDetachesFromRooms(t *testing.T) {
	h := ws.NewHub()
	conn := &fakeConn{}
	h.Register("alice", conn)
	h.Subscribe("r1", conn)

	h.Unregister(conn)

	h.BroadcastToRoom("r1", ws.WSMessage{Type: "roomUpdate"})
	assert.Equal(t, 0, conn.count("roomUpdate"))
	assert.True(t, conn.closed)
}
