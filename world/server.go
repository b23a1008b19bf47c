// Package world runs matches: the authoritative server world, the adapter
// that serves one connected peer, and the client-side mirror.
package world

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/brensch/tronio/ai"
	"github.com/brensch/tronio/game"
	"github.com/brensch/tronio/protocol"
	"github.com/brensch/tronio/rules"
)

var (
	ErrWorldFull   = errors.New("world: no free slot")
	ErrUnknownSlot = errors.New("world: unknown slot")
)

const (
	// ScoreWin is the number of round wins that ends a game.
	ScoreWin uint8 = 3
	// DefaultGraceTicks is how long a decided round is held before ending.
	DefaultGraceTicks = 30
	// DefaultHistorySize is how many broadcast deltas are kept for resends.
	DefaultHistorySize = 256
	// maxCatchUp bounds how many ticks one Advance call may run after a stall.
	maxCatchUp = 5
)

const aiName = "AI"

// RoundTrace is every delta broadcast during one round.
type RoundTrace struct {
	MatchID string
	Round   uint32
	Options game.GridOptions
	Deltas  []game.GridUpdateMsg
}

// RoundRecorder receives a finished round. It is called with the match lock
// held and must not block.
type RoundRecorder interface {
	RecordRound(RoundTrace)
}

type Settings struct {
	MatchID     string
	TickPeriod  time.Duration
	ScoreWin    uint8
	GraceTicks  int
	Difficulty  ai.Difficulty
	Tuning      ai.Tuning
	HistorySize int
	Recorder    RoundRecorder

	// Seed returns the AI seed of a new round. Defaults to the wall clock.
	Seed func() int64
}

func DefaultSettings() Settings {
	return Settings{
		TickPeriod:  protocol.DefaultTickPeriod,
		ScoreWin:    ScoreWin,
		GraceTicks:  DefaultGraceTicks,
		Difficulty:  ai.Medium,
		Tuning:      ai.DefaultTuning(),
		HistorySize: DefaultHistorySize,
	}
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.TickPeriod <= 0 {
		s.TickPeriod = d.TickPeriod
	}
	if s.ScoreWin == 0 {
		s.ScoreWin = d.ScoreWin
	}
	if s.GraceTicks < 0 {
		s.GraceTicks = 0
	}
	if s.HistorySize <= 0 {
		s.HistorySize = d.HistorySize
	}
	if s.Tuning == (ai.Tuning{}) {
		s.Tuning = d.Tuning
	}
	if s.Seed == nil {
		s.Seed = func() int64 {
			return int64(game.Mix64(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15))
		}
	}
	return s
}

// Server is the authoritative world of one match. It is not safe for
// concurrent use; callers serialize access (see Match).
type Server struct {
	log      *slog.Logger
	settings Settings

	options game.GridOptions
	state   protocol.WorldState
	players []protocol.ServerPlayer
	scores  []uint8
	version uint64 // bumped on every roster change

	sim      *rules.Simulation
	judge    rules.Judge
	pending  []game.BikeUpdate
	last     *game.GridUpdateMsg
	history  *history
	trace    []game.GridUpdateMsg
	round    uint32
	nextTick time.Time
}

// NewServer builds a match in the Waiting state with every slot held by AI.
func NewServer(opts game.GridOptions, settings Settings, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	settings = settings.withDefaults()
	opts = opts.Clamp()
	w := &Server{
		log:      logger.With("match", settings.MatchID),
		settings: settings,
		options:  opts,
		state:    protocol.StateWaiting(),
		players:  make([]protocol.ServerPlayer, opts.Slots()),
		scores:   make([]uint8, opts.Teams),
		judge:    rules.Judge{Grace: settings.GraceTicks},
		history:  newHistory(settings.HistorySize),
	}
	for i := range w.players {
		w.players[i] = aiPlayer()
	}
	w.sim = rules.New(opts, settings.Seed())
	return w
}

func aiPlayer() protocol.ServerPlayer {
	return protocol.ServerPlayer{Name: aiName, Ready: true, IsAI: true}
}

func (w *Server) Options() game.GridOptions     { return w.options }
func (w *Server) State() protocol.WorldState    { return w.state }
func (w *Server) Round() uint32                 { return w.round }
func (w *Server) RosterVersion() uint64         { return w.version }
func (w *Server) Simulation() *rules.Simulation { return w.sim }

// Players returns a copy of the roster, indexed by slot.
func (w *Server) Players() []protocol.ServerPlayer {
	out := make([]protocol.ServerPlayer, len(w.players))
	copy(out, w.players)
	return out
}

func (w *Server) Scores() []uint8 {
	out := make([]uint8, len(w.scores))
	copy(out, w.scores)
	return out
}

// LastUpdate is the most recent broadcast delta, or nil before the first
// tick of a round.
func (w *Server) LastUpdate() *game.GridUpdateMsg {
	return w.last
}

func (w *Server) LastTick() uint32 {
	if w.last == nil {
		return 0
	}
	return w.last.Tick
}

// DeltasSince returns the broadcast deltas after ack and before the latest,
// oldest first.
func (w *Server) DeltasSince(ack uint32) []game.GridUpdateMsg {
	last := w.LastTick()
	if ack >= last {
		return nil
	}
	return w.history.between(ack, last)
}

// FreeSlots counts slots still held by AI.
func (w *Server) FreeSlots() int {
	n := 0
	for _, p := range w.players {
		if p.IsAI {
			n++
		}
	}
	return n
}

// Join claims the first AI slot for a human.
func (w *Server) Join(p protocol.ClientPlayer) (uint8, error) {
	for i := range w.players {
		if !w.players[i].IsAI {
			continue
		}
		w.players[i] = protocol.ServerPlayer{Name: p.Name}
		w.version++
		w.log.Info("player joined", "slot", i, "name", p.Name, "team", w.options.TeamOf(uint8(i)))
		return uint8(i), nil
	}
	return 0, ErrWorldFull
}

// UpdatePlayer applies a client's view of one of its players. Ready flags are
// only honoured when the client has seen the current state. It returns the
// slot the player holds afterwards, which differs after a team change.
func (w *Server) UpdatePlayer(slot uint8, p protocol.ClientPlayer, sameState bool) (uint8, error) {
	if int(slot) >= len(w.players) || w.players[slot].IsAI {
		return slot, fmt.Errorf("update slot %d: %w", slot, ErrUnknownSlot)
	}
	cur := &w.players[slot]
	if p.Name != "" && p.Name != cur.Name {
		cur.Name = p.Name
		w.version++
	}
	if p.TeamRequest != w.options.TeamOf(slot) {
		if moved, ok := w.RequestTeamChange(slot, p.TeamRequest); ok {
			slot = moved
			cur = &w.players[slot]
		}
	}
	if sameState && w.state.Lobby() && cur.Ready != p.Ready {
		cur.Ready = p.Ready
		w.version++
		w.log.Info("player ready", "slot", slot, "ready", p.Ready)
	}
	return slot, nil
}

// RequestTeamChange moves a human onto the first AI slot of team. It only
// works while Waiting and before the player is ready.
func (w *Server) RequestTeamChange(slot, team uint8) (uint8, bool) {
	if w.state.Phase != protocol.Waiting || int(slot) >= len(w.players) || team >= w.options.Teams {
		return slot, false
	}
	p := w.players[slot]
	if p.IsAI || p.Ready || w.options.TeamOf(slot) == team {
		return slot, false
	}
	for player := uint8(0); player < w.options.Players; player++ {
		target := w.options.SlotID(team, player)
		if !w.players[target].IsAI {
			continue
		}
		w.players[target], w.players[slot] = p, aiPlayer()
		w.version++
		w.log.Info("team change", "from", slot, "to", target, "team", team)
		return target, true
	}
	return slot, false
}

// PushUpdate queues a command for the next tick. Commands outside Playing are
// dropped.
func (w *Server) PushUpdate(u game.BikeUpdate) {
	if w.state.Phase != protocol.Playing {
		return
	}
	w.pending = append(w.pending, u)
}

// Abandon marks human slots whose peer has gone away.
func (w *Server) Abandon(slots []uint8) {
	for _, s := range slots {
		if int(s) >= len(w.players) || w.players[s].IsAI {
			continue
		}
		w.players[s].Abandoned = true
		w.version++
		w.log.Info("player abandoned", "slot", s, "name", w.players[s].Name)
	}
}

// Humans counts connected human slots.
func (w *Server) Humans() int {
	n := 0
	for _, p := range w.players {
		if !p.IsAI && !p.Abandoned {
			n++
		}
	}
	return n
}

func (w *Server) allReady() bool {
	if w.Humans() == 0 {
		return false
	}
	for _, p := range w.players {
		if !p.IsAI && !p.Abandoned && !p.Ready {
			return false
		}
	}
	return true
}

// Advance moves the world forward to now. In lobby states it starts a round
// once every human is ready; while Playing it runs every tick that is due.
// It reports whether the state or the tick changed.
func (w *Server) Advance(now time.Time) bool {
	if w.state.Lobby() {
		if !w.allReady() {
			return false
		}
		w.startRound(now)
		return true
	}

	changed := false
	for n := 0; n < maxCatchUp && !now.Before(w.nextTick); n++ {
		w.nextTick = w.nextTick.Add(w.settings.TickPeriod)
		w.tick()
		changed = true
		if w.state.Phase != protocol.Playing {
			return true
		}
	}
	if !now.Before(w.nextTick) {
		// Too far behind; drop the backlog rather than spiral.
		w.nextTick = now.Add(w.settings.TickPeriod)
	}
	return changed
}

func (w *Server) startRound(now time.Time) {
	if w.state.Phase == protocol.GameOver {
		for i := range w.scores {
			w.scores[i] = 0
		}
	}
	w.round++
	w.sim = rules.New(w.options, w.settings.Seed())
	w.judge.Reset()
	w.pending = w.pending[:0]
	w.last = nil
	w.history.reset()
	w.trace = nil
	w.resetReady()
	w.state = protocol.StatePlaying()
	w.nextTick = now.Add(w.settings.TickPeriod)
	w.log.Info("round started", "round", w.round, "options", w.options.String())
}

func (w *Server) resetReady() {
	for i := range w.players {
		if !w.players[i].IsAI {
			w.players[i].Ready = false
		}
	}
	w.version++
}

// tick snapshots the queued human commands plus this tick's AI commands,
// applies them and keeps the result as the broadcastable delta.
func (w *Server) tick() {
	msg := &game.GridUpdateMsg{Tick: w.sim.Tick + 1}
	msg.Updates = append(msg.Updates, w.pending...)
	w.pending = w.pending[:0]
	for i := range w.players {
		if !w.players[i].IsAI {
			continue
		}
		if u, ok := ai.Decide(w.sim, uint8(i), w.settings.Difficulty, w.settings.Tuning); ok {
			msg.Updates = append(msg.Updates, u)
		}
	}

	res, _ := w.sim.ApplyUpdates(msg)
	msg.Hash = w.sim.Hash
	w.last = msg
	w.history.push(*msg)
	if w.settings.Recorder != nil {
		w.trace = append(w.trace, *msg.Clone())
	}
	for _, d := range res.Deaths {
		w.log.Debug("bike died", "tick", msg.Tick, "bike", d.ID, "x", d.Pos.X, "y", d.Pos.Y)
	}

	if verdict, done := w.judge.Observe(res.Outcome); done {
		w.endRound(verdict)
	}
}

func (w *Server) endRound(verdict rules.Outcome) {
	winner := protocol.NoTeam
	if !verdict.Tie() {
		winner = verdict.Winner
	}
	w.state = protocol.StateRoundOver(winner)
	if winner >= 0 && int(winner) < len(w.scores) {
		w.scores[winner]++
		if w.scores[winner] >= w.settings.ScoreWin {
			w.state = protocol.StateGameOver(winner)
		}
	}
	w.resetReady()
	w.log.Info("round over", "round", w.round, "tick", w.sim.Tick, "state", w.state.String(), "scores", w.scores)

	if w.settings.Recorder != nil {
		w.settings.Recorder.RecordRound(RoundTrace{
			MatchID: w.settings.MatchID,
			Round:   w.round,
			Options: w.options,
			Deltas:  w.trace,
		})
		w.trace = nil
	}
}
