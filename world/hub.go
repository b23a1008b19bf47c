package world

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/sasha-s/go-deadlock"

	"github.com/brensch/tronio/game"
	"github.com/brensch/tronio/protocol"
	"github.com/brensch/tronio/rules"
)

// Match is one Server plus the connections playing in it. A single mutex
// serializes the tick driver and every connection handler.
type Match struct {
	ID      uuid.UUID
	Created time.Time

	mu     deadlock.Mutex
	server *Server
	conns  map[uuid.UUID]*Connection

	cancel context.CancelFunc
	done   chan struct{}
}

// OnMessage applies a client message for conn and returns its reply.
func (m *Match) OnMessage(conn *Connection, msg *protocol.ClientMsg, now time.Time) *protocol.ServerMsg {
	m.mu.Lock()
	defer m.mu.Unlock()
	return conn.OnMessage(m.server, msg, now)
}

// Poll returns what conn is owed right now, if anything.
func (m *Match) Poll(conn *Connection, now time.Time) *protocol.ServerMsg {
	m.mu.Lock()
	defer m.mu.Unlock()
	return conn.Poll(m.server, now)
}

func (m *Match) run(ctx context.Context, period time.Duration) {
	defer close(m.done)
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.mu.Lock()
			m.server.Advance(now)
			m.mu.Unlock()
		}
	}
}

// open reports whether a newcomer may be placed here.
func (m *Match) open() bool {
	if m.server.State().Phase != protocol.Waiting {
		return false
	}
	waiting := 0
	for _, c := range m.conns {
		if !c.Joined() {
			waiting++
		}
	}
	return m.server.FreeSlots() > waiting
}

// MatchInfo is a read-only snapshot for the status API.
type MatchInfo struct {
	ID          string                  `json:"id"`
	Created     time.Time               `json:"created"`
	State       string                  `json:"state"`
	Round       uint32                  `json:"round"`
	Tick        uint32                  `json:"tick"`
	Options     string                  `json:"options"`
	Scores      []uint8                 `json:"scores"`
	Connections int                     `json:"connections"`
	Players     []protocol.ServerPlayer `json:"players"`
	Grid        string                  `json:"grid,omitempty"`
}

func (m *Match) info(withGrid bool) MatchInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	w := m.server
	mi := MatchInfo{
		ID:          m.ID.String(),
		Created:     m.Created,
		State:       w.State().String(),
		Round:       w.Round(),
		Tick:        w.Simulation().Tick,
		Options:     w.Options().String(),
		Scores:      w.Scores(),
		Connections: len(m.conns),
		Players:     w.Players(),
	}
	if withGrid {
		mi.Grid = rules.Render(w.Simulation())
	}
	return mi
}

// Hub places connections into matches, creating matches on demand and
// removing them once their last connection leaves.
type Hub struct {
	log      *slog.Logger
	options  game.GridOptions
	settings Settings

	mu      deadlock.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	matches []*Match
}

func NewHub(opts game.GridOptions, settings Settings, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		log:      logger,
		options:  opts.Clamp(),
		settings: settings.withDefaults(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Assign places a new connection in the newest open match, or a new one.
func (h *Hub) Assign() (*Match, *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var m *Match
	for i := len(h.matches) - 1; i >= 0; i-- {
		cand := h.matches[i]
		cand.mu.Lock()
		ok := cand.open()
		cand.mu.Unlock()
		if ok {
			m = cand
			break
		}
	}
	if m == nil {
		m = h.newMatch()
	}

	conn := NewConnection(h.log.With("match", m.ID.String()))
	m.mu.Lock()
	m.conns[conn.ID] = conn
	m.mu.Unlock()
	h.log.Info("connection assigned", "match", m.ID.String(), "conn", conn.ID.String())
	return m, conn
}

func (h *Hub) newMatch() *Match {
	id := uuid.New()
	settings := h.settings
	settings.MatchID = id.String()
	ctx, cancel := context.WithCancel(h.ctx)
	m := &Match{
		ID:      id,
		Created: time.Now(),
		server:  NewServer(h.options, settings, h.log),
		conns:   make(map[uuid.UUID]*Connection),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	h.matches = append(h.matches, m)
	go m.run(ctx, settings.TickPeriod)
	h.log.Info("match created", "match", id.String(), "options", h.options.String())
	return m
}

// Leave abandons conn's slots and drops the match once nobody is left. A
// dropped match's tick driver has stopped by the time Leave returns.
func (h *Hub) Leave(m *Match, conn *Connection) {
	h.mu.Lock()
	m.mu.Lock()
	conn.Disconnect(m.server)
	delete(m.conns, conn.ID)
	empty := len(m.conns) == 0
	m.mu.Unlock()

	if !empty {
		h.mu.Unlock()
		return
	}
	m.cancel()
	h.matches = slices.DeleteFunc(h.matches, func(x *Match) bool { return x == m })
	h.mu.Unlock()

	<-m.done
	h.log.Info("match removed", "match", m.ID.String())
}

// Matches lists every live match, oldest first.
func (h *Hub) Matches() []MatchInfo {
	h.mu.Lock()
	ms := slices.Clone(h.matches)
	h.mu.Unlock()
	out := make([]MatchInfo, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.info(false))
	}
	return out
}

// Match returns one match including a rendered grid.
func (h *Hub) Match(id string) (MatchInfo, bool) {
	h.mu.Lock()
	var found *Match
	for _, m := range h.matches {
		if m.ID.String() == id {
			found = m
			break
		}
	}
	h.mu.Unlock()
	if found == nil {
		return MatchInfo{}, false
	}
	return found.info(true), true
}

// Close stops every match driver and waits for them.
func (h *Hub) Close() {
	h.mu.Lock()
	ms := slices.Clone(h.matches)
	h.matches = nil
	h.mu.Unlock()
	h.cancel()
	for _, m := range ms {
		<-m.done
	}
}
