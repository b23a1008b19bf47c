package world

import (
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/brensch/tronio/protocol"
)

// ResendAfter is how long an unacknowledged delta waits before it is sent
// again to a peer.
const ResendAfter = 100 * time.Millisecond

// Connection adapts one peer to a Server. It remembers which slots the peer
// owns, the last tick it acknowledged and the last state it was sent, and
// only produces a message when the peer is owed one.
type Connection struct {
	ID  uuid.UUID
	log *slog.Logger

	slots []uint8

	acked  uint32 // last tick the peer confirmed applying
	sent   uint32 // last tick included in a message
	sentAt time.Time

	state       protocol.WorldState
	stateSent   bool
	roster      uint64
	optionsSent bool
	warnedGap   bool
}

func NewConnection(logger *slog.Logger) *Connection {
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.New()
	return &Connection{ID: id, log: logger.With("conn", id.String())}
}

// Slots returns the roster slots owned by the peer, in local player order.
func (c *Connection) Slots() []uint8 {
	return slices.Clone(c.slots)
}

func (c *Connection) owns(id uint8) bool {
	return slices.Contains(c.slots, id)
}

// Joined reports whether the peer holds any slot.
func (c *Connection) Joined() bool {
	return len(c.slots) > 0
}

// OnMessage applies an inbound client message and returns the reply the peer
// is owed, if any.
func (c *Connection) OnMessage(w *Server, msg *protocol.ClientMsg, now time.Time) *protocol.ServerMsg {
	sameState := msg.State == w.State()

	for i, p := range msg.Players {
		if i >= len(c.slots) {
			slot, err := w.Join(p)
			if err != nil {
				c.log.Error("rejecting local player", "name", p.Name, "err", err)
				break
			}
			c.slots = append(c.slots, slot)
			continue
		}
		slot, err := w.UpdatePlayer(c.slots[i], p, sameState)
		if err != nil {
			c.log.Warn("update player", "slot", c.slots[i], "err", err)
			continue
		}
		c.slots[i] = slot
	}

	if u := msg.Update; u != nil && sameState {
		if u.Tick > c.acked && u.Tick <= w.LastTick() {
			c.acked = u.Tick
		}
		for _, cmd := range u.Updates {
			if !c.owns(cmd.ID) {
				c.log.Warn("command for foreign bike dropped", "bike", cmd.ID)
				continue
			}
			w.PushUpdate(cmd)
		}
	}

	return c.Poll(w, now)
}

// Poll returns a message if the peer is owed one: the state or roster
// changed since the last send, or a newer delta than it acknowledged exists.
func (c *Connection) Poll(w *Server, now time.Time) *protocol.ServerMsg {
	state := w.State()
	stateChanged := !c.stateSent || state != c.state
	if stateChanged {
		c.acked, c.sent = 0, 0
		c.warnedGap = false
	}

	last := w.LastTick()
	deltaOwed := state.Phase == protocol.Playing && last != c.acked &&
		(last != c.sent || now.Sub(c.sentAt) >= ResendAfter)

	if !stateChanged && !deltaOwed && w.RosterVersion() == c.roster {
		return nil
	}

	out := &protocol.ServerMsg{
		LocalPlayerIDs: c.Slots(),
		Players:        w.Players(),
		State:          state,
		Scores:         w.Scores(),
	}
	if !c.optionsSent {
		opts := w.Options()
		out.Options = &opts
		c.optionsSent = true
	}
	if state.Phase == protocol.Playing && last > 0 {
		out.GridUpdate = w.LastUpdate().Clone()
		if c.acked+1 < last {
			out.Backlog = w.DeltasSince(c.acked)
			if oldest := w.history.oldest(); oldest > c.acked+1 && !c.warnedGap {
				c.log.Warn("peer fell behind delta history", "acked", c.acked, "oldest", oldest)
				c.warnedGap = true
			}
		}
		c.sent = last
		c.sentAt = now
	}

	c.state = state
	c.stateSent = true
	c.roster = w.RosterVersion()
	return out
}

// Disconnect releases the peer. Its slots stay human but are abandoned.
func (c *Connection) Disconnect(w *Server) {
	w.Abandon(c.slots)
	c.log.Info("connection closed", "slots", c.slots)
}
