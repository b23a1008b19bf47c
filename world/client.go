package world

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/brensch/tronio/game"
	"github.com/brensch/tronio/protocol"
	"github.com/brensch/tronio/rules"
)

// NoPlayer is the local index of an input device that has not joined.
const NoPlayer = -1

type EventKind uint8

const (
	EventPlayerJoin EventKind = iota + 1
	EventPlayerReady
	EventLocalUpdate
	EventServerUpdate
	EventStateChange
	EventBikeDeath
	EventDesync
)

func (k EventKind) String() string {
	switch k {
	case EventPlayerJoin:
		return "player_join"
	case EventPlayerReady:
		return "player_ready"
	case EventLocalUpdate:
		return "local_update"
	case EventServerUpdate:
		return "server_update"
	case EventStateChange:
		return "state_change"
	case EventBikeDeath:
		return "bike_death"
	case EventDesync:
		return "desync"
	default:
		return fmt.Sprintf("event(%d)", uint8(k))
	}
}

// Event is a notification for audio and visual collaborators. Only the fields
// relevant to Kind are set.
type Event struct {
	Kind  EventKind
	Local int
	Tick  uint32
	Bike  uint8
	Pos   game.Point
	State protocol.WorldState

	LocalHash  uint64
	RemoteHash uint64
}

type localPlayer struct {
	protocol.ClientPlayer
	slot int
}

// Client mirrors the server world for rendering. Local commands are sent to
// the server and only take effect when they come back inside a delta.
type Client struct {
	log       *slog.Logger
	transport Transport
	name      string

	locals  []localPlayer
	state   protocol.WorldState
	options game.GridOptions
	sim     *rules.Simulation
	players []protocol.ServerPlayer
	scores  []uint8
	events  []Event
}

func NewClient(t Transport, name string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if name == "" {
		name = "player"
	}
	opts := game.DefaultGridOptions()
	return &Client{
		log:       logger,
		transport: t,
		name:      name,
		state:     protocol.StateWaiting(),
		options:   opts,
		sim:       rules.New(opts, 0),
	}
}

func (c *Client) State() protocol.WorldState       { return c.state }
func (c *Client) Options() game.GridOptions        { return c.options }
func (c *Client) Simulation() *rules.Simulation    { return c.sim }
func (c *Client) Players() []protocol.ServerPlayer { return c.players }
func (c *Client) Scores() []uint8                  { return c.scores }

// LocalCount is the number of players joined from this client.
func (c *Client) LocalCount() int {
	return len(c.locals)
}

// LocalSlot returns the server slot of a local player, once assigned.
func (c *Client) LocalSlot(local int) (uint8, bool) {
	if local < 0 || local >= len(c.locals) || c.locals[local].slot < 0 {
		return 0, false
	}
	return uint8(c.locals[local].slot), true
}

// LocalPlayer returns the client-side view of a local player.
func (c *Client) LocalPlayer(local int) (protocol.ClientPlayer, bool) {
	if local < 0 || local >= len(c.locals) {
		return protocol.ClientPlayer{}, false
	}
	return c.locals[local].ClientPlayer, true
}

// ConnectionError reports a broken transport, if the transport can tell.
func (c *Client) ConnectionError() error {
	if e, ok := c.transport.(interface{ Err() error }); ok {
		return e.Err()
	}
	return nil
}

// DrainEvents returns and clears the pending events.
func (c *Client) DrainEvents() []Event {
	out := c.events
	c.events = nil
	return out
}

func (c *Client) emit(e Event) {
	c.events = append(c.events, e)
}

// HandleInput applies one action from input device local. A device that has
// not joined passes NoPlayer; confirming while Waiting registers it and its
// new local index is returned. Otherwise local is returned unchanged.
func (c *Client) HandleInput(local int, a game.Action) int {
	if local < 0 || local >= len(c.locals) {
		if a != game.ActionConfirm || c.state.Phase != protocol.Waiting {
			return NoPlayer
		}
		idx := len(c.locals)
		c.locals = append(c.locals, localPlayer{
			ClientPlayer: protocol.ClientPlayer{
				Name:        fmt.Sprintf("%s %d", c.name, idx+1),
				TeamRequest: protocol.AnyTeam,
			},
			slot: -1,
		})
		c.log.Info("local player added", "local", idx)
		c.send(nil)
		return idx
	}

	lp := &c.locals[local]
	if c.state.Lobby() {
		switch a {
		case game.ActionConfirm:
			if lp.slot < 0 || lp.Ready {
				return local
			}
			lp.Ready = true
			c.emit(Event{Kind: EventPlayerReady, Local: local})
		case game.ActionCancel:
			if !lp.Ready {
				return local
			}
			lp.Ready = false
		case game.ActionLeft, game.ActionRight:
			if c.state.Phase != protocol.Waiting || lp.Ready || lp.slot < 0 {
				return local
			}
			teams := c.options.Teams
			if a == game.ActionLeft {
				lp.TeamRequest = (lp.TeamRequest + teams - 1) % teams
			} else {
				lp.TeamRequest = (lp.TeamRequest + 1) % teams
			}
		default:
			return local
		}
		c.send(nil)
		return local
	}

	if lp.slot < 0 {
		return local
	}
	b := c.sim.Bike(uint8(lp.slot))
	if b == nil {
		return local
	}
	u, ok := b.HandleAction(a)
	if !ok {
		return local
	}
	c.send(&game.GridUpdateMsg{Tick: c.sim.Tick, Hash: c.sim.Hash, Updates: []game.BikeUpdate{u}})
	c.emit(Event{Kind: EventLocalUpdate, Local: local, Bike: u.ID, Tick: c.sim.Tick})
	return local
}

func (c *Client) send(update *game.GridUpdateMsg) {
	players := make([]protocol.ClientPlayer, len(c.locals))
	for i := range c.locals {
		players[i] = c.locals[i].ClientPlayer
	}
	c.transport.Send(&protocol.ClientMsg{Players: players, State: c.state, Update: update})
}

// Update drives the transport and applies everything the server sent.
func (c *Client) Update(now time.Time) {
	c.transport.Update(now)
	for {
		msg, ok := c.transport.TryRecv()
		if !ok {
			return
		}
		c.handle(msg)
	}
}

func (c *Client) handle(msg *protocol.ServerMsg) {
	rebuild := false
	if msg.Options != nil && !msg.Options.Equal(c.options) {
		c.options = msg.Options.Clamp()
		rebuild = true
		c.log.Info("grid options", "options", c.options.String())
	}
	c.players = msg.Players
	c.scores = msg.Scores

	for i, id := range msg.LocalPlayerIDs {
		if i >= len(c.locals) {
			break
		}
		lp := &c.locals[i]
		if lp.slot < 0 {
			c.emit(Event{Kind: EventPlayerJoin, Local: i, Bike: id})
			lp.TeamRequest = c.options.TeamOf(id)
		}
		lp.slot = int(id)
	}

	if msg.State != c.state {
		c.log.Info("state change", "from", c.state.String(), "to", msg.State.String())
		c.state = msg.State
		for i := range c.locals {
			c.locals[i].Ready = false
		}
		rebuild = true
		c.emit(Event{Kind: EventStateChange, State: msg.State})
	}
	if rebuild {
		c.sim = rules.New(c.options, 0)
		c.send(nil)
	}

	if c.state.Phase != protocol.Playing {
		return
	}
	applied := 0
	deltas := msg.Backlog
	if msg.GridUpdate != nil {
		deltas = append(deltas, *msg.GridUpdate)
	}
	for i := range deltas {
		ok, gap := c.apply(&deltas[i])
		if gap {
			break
		}
		if ok {
			applied++
		}
	}
	if applied > 0 {
		c.send(&game.GridUpdateMsg{Tick: c.sim.Tick, Hash: c.sim.Hash})
	}
}

// apply runs one delta if it is exactly the next tick. Stale deltas are
// skipped. A gap is reported so the caller stops until the server resends.
func (c *Client) apply(d *game.GridUpdateMsg) (applied, gap bool) {
	switch {
	case d.Tick <= c.sim.Tick:
		return false, false
	case d.Tick != c.sim.Tick+1:
		c.log.Warn("delta gap, waiting for resend", "local_tick", c.sim.Tick, "remote_tick", d.Tick)
		return false, true
	}
	res, _ := c.sim.ApplyUpdates(d)
	for _, death := range res.Deaths {
		c.emit(Event{Kind: EventBikeDeath, Tick: d.Tick, Bike: death.ID, Pos: death.Pos})
	}
	if c.sim.Hash != d.Hash {
		c.log.Error("desync", "tick", d.Tick, "local_hash", c.sim.Hash, "remote_hash", d.Hash)
		c.emit(Event{Kind: EventDesync, Tick: d.Tick, LocalHash: c.sim.Hash, RemoteHash: d.Hash})
	}
	c.emit(Event{Kind: EventServerUpdate, Tick: d.Tick})
	return true, false
}
