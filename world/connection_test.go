package world

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brensch/tronio/game"
	"github.com/brensch/tronio/protocol"
)

func joinMsg(state protocol.WorldState, ready bool) *protocol.ClientMsg {
	return &protocol.ClientMsg{
		Players: []protocol.ClientPlayer{{Name: "ann", Ready: ready, TeamRequest: protocol.AnyTeam}},
		State:   state,
	}
}

func TestConnection_JoinReply(t *testing.T) {
	w := newTestServer(duel())
	c := NewConnection(nil)

	reply := c.OnMessage(w, joinMsg(protocol.StateWaiting(), false), t0)
	require.NotNil(t, reply)
	assert.Equal(t, []uint8{0}, reply.LocalPlayerIDs)
	require.NotNil(t, reply.Options)
	assert.True(t, reply.Options.Equal(duel()))
	assert.Equal(t, protocol.StateWaiting(), reply.State)
	assert.Nil(t, reply.GridUpdate)
	assert.Equal(t, []uint8{0}, c.Slots())

	assert.Nil(t, c.Poll(w, t0), "idle peer is owed nothing")
	assert.Nil(t, c.OnMessage(w, joinMsg(protocol.StateWaiting(), false), t0))

	again := c.OnMessage(w, joinMsg(protocol.StateWaiting(), true), t0)
	require.NotNil(t, again, "roster change is owed")
	assert.Nil(t, again.Options, "options are only sent once")
	assert.True(t, again.Players[0].Ready)
}

func TestConnection_RejectsWhenFull(t *testing.T) {
	w := newTestServer(game.GridOptions{Teams: 2, Players: 1})
	c := NewConnection(nil)
	msg := &protocol.ClientMsg{
		Players: []protocol.ClientPlayer{{Name: "a"}, {Name: "b"}, {Name: "c"}},
		State:   protocol.StateWaiting(),
	}
	reply := c.OnMessage(w, msg, t0)
	require.NotNil(t, reply)
	assert.Equal(t, []uint8{0, 1}, reply.LocalPlayerIDs)
}

func playing(t *testing.T) (*Server, *Connection) {
	t.Helper()
	w := newTestServer(duel())
	c := NewConnection(nil)
	c.OnMessage(w, joinMsg(protocol.StateWaiting(), false), t0)
	c.OnMessage(w, joinMsg(protocol.StateWaiting(), true), t0)
	require.True(t, w.Advance(t0))

	m := c.Poll(w, t0)
	require.NotNil(t, m)
	require.Equal(t, protocol.StatePlaying(), m.State)
	assert.Nil(t, m.GridUpdate, "no delta before the first tick")
	return w, c
}

func TestConnection_DeltaOwedUntilAcked(t *testing.T) {
	w, c := playing(t)
	period := testSettings().TickPeriod

	now := t0.Add(period)
	w.Advance(now)
	m := c.Poll(w, now)
	require.NotNil(t, m)
	require.NotNil(t, m.GridUpdate)
	assert.Equal(t, uint32(1), m.GridUpdate.Tick)
	assert.Empty(t, m.Backlog)

	assert.Nil(t, c.Poll(w, now.Add(time.Millisecond)), "just sent")
	resend := c.Poll(w, now.Add(ResendAfter))
	require.NotNil(t, resend, "unacked delta is resent")
	assert.Equal(t, uint32(1), resend.GridUpdate.Tick)

	ack := &protocol.ClientMsg{
		Players: []protocol.ClientPlayer{{Name: "ann", TeamRequest: protocol.AnyTeam}},
		State:   protocol.StatePlaying(),
		Update:  &game.GridUpdateMsg{Tick: 1},
	}
	assert.Nil(t, c.OnMessage(w, ack, now.Add(ResendAfter)))
	assert.Nil(t, c.Poll(w, now.Add(2*ResendAfter)), "acked peer is owed nothing")
}

func TestConnection_Backlog(t *testing.T) {
	w, c := playing(t)
	period := testSettings().TickPeriod

	w.Advance(t0.Add(period))
	w.Advance(t0.Add(2 * period))
	w.Advance(t0.Add(3 * period))

	m := c.Poll(w, t0.Add(3*period))
	require.NotNil(t, m)
	assert.Equal(t, uint32(3), m.GridUpdate.Tick)
	require.Len(t, m.Backlog, 2)
	assert.Equal(t, uint32(1), m.Backlog[0].Tick)
	assert.Equal(t, uint32(2), m.Backlog[1].Tick)
}

func TestConnection_FiltersForeignCommands(t *testing.T) {
	w, c := playing(t)

	msg := &protocol.ClientMsg{
		Players: []protocol.ClientPlayer{{Name: "ann", TeamRequest: protocol.AnyTeam}},
		State:   protocol.StatePlaying(),
		Update: &game.GridUpdateMsg{Updates: []game.BikeUpdate{
			{ID: 0, Dir: game.Up},
			{ID: 1, Dir: game.Up},
		}},
	}
	c.OnMessage(w, msg, t0)
	w.Advance(t0.Add(testSettings().TickPeriod))

	for _, u := range w.LastUpdate().Updates {
		assert.False(t, u.ID == 1 && u.Dir.Eq(game.Up), "foreign command broadcast")
	}
	assert.True(t, w.Simulation().Bikes[0].Dir.Eq(game.Up))
}

func TestConnection_StaleStateCommandsDropped(t *testing.T) {
	w, c := playing(t)
	msg := &protocol.ClientMsg{
		Players: []protocol.ClientPlayer{{Name: "ann", TeamRequest: protocol.AnyTeam}},
		State:   protocol.StateWaiting(),
		Update:  &game.GridUpdateMsg{Updates: []game.BikeUpdate{{ID: 0, Dir: game.Up}}},
	}
	c.OnMessage(w, msg, t0)
	w.Advance(t0.Add(testSettings().TickPeriod))
	assert.True(t, w.Simulation().Bikes[0].Dir.Eq(game.Right))
}

func TestConnection_DisconnectAbandons(t *testing.T) {
	w := newTestServer(duel())
	c := NewConnection(nil)
	c.OnMessage(w, joinMsg(protocol.StateWaiting(), false), t0)
	c.Disconnect(w)
	assert.True(t, w.Players()[0].Abandoned)
	assert.Equal(t, 0, w.Humans())
}
