package world

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brensch/tronio/ai"
	"github.com/brensch/tronio/game"
	"github.com/brensch/tronio/protocol"
)

var t0 = time.Unix(1_700_000_000, 0)

func duel() game.GridOptions {
	return game.GridOptions{Size: game.Small, Teams: 2, Players: 1}
}

func testSettings() Settings {
	s := DefaultSettings()
	s.GraceTicks = 0
	s.Difficulty = ai.Easy
	s.Seed = func() int64 { return 1 }
	return s
}

func newTestServer(opts game.GridOptions) *Server {
	return NewServer(opts, testSettings(), nil)
}

// startRound joins one human on slot 0 and starts a round at t0.
func startRound(t *testing.T, w *Server) {
	t.Helper()
	slot, err := w.Join(protocol.ClientPlayer{Name: "ann"})
	require.NoError(t, err)
	_, err = w.UpdatePlayer(slot, protocol.ClientPlayer{Name: "ann", Ready: true, TeamRequest: protocol.AnyTeam}, true)
	require.NoError(t, err)
	require.True(t, w.Advance(t0))
	require.Equal(t, protocol.StatePlaying(), w.State())
}

func TestServer_StartsAllAI(t *testing.T) {
	w := newTestServer(game.GridOptions{Teams: 3, Players: 2})
	players := w.Players()
	require.Len(t, players, 6)
	for _, p := range players {
		assert.True(t, p.IsAI)
	}
	assert.Equal(t, 6, w.FreeSlots())
	assert.Equal(t, protocol.StateWaiting(), w.State())
	assert.Equal(t, []uint8{0, 0, 0}, w.Scores())
}

func TestServer_JoinUntilFull(t *testing.T) {
	w := newTestServer(duel())

	s0, err := w.Join(protocol.ClientPlayer{Name: "a"})
	require.NoError(t, err)
	s1, err := w.Join(protocol.ClientPlayer{Name: "b"})
	require.NoError(t, err)
	assert.Equal(t, uint8(0), s0)
	assert.Equal(t, uint8(1), s1)

	_, err = w.Join(protocol.ClientPlayer{Name: "c"})
	assert.ErrorIs(t, err, ErrWorldFull)
	assert.Equal(t, 0, w.FreeSlots())
}

func TestServer_TeamChange(t *testing.T) {
	w := newTestServer(duel())
	slot, err := w.Join(protocol.ClientPlayer{Name: "a"})
	require.NoError(t, err)

	moved, ok := w.RequestTeamChange(slot, 1)
	require.True(t, ok)
	assert.Equal(t, uint8(1), moved)
	players := w.Players()
	assert.True(t, players[0].IsAI)
	assert.Equal(t, "a", players[1].Name)

	other, err := w.Join(protocol.ClientPlayer{Name: "b"})
	require.NoError(t, err)
	require.Equal(t, uint8(0), other)

	before := w.Players()
	_, ok = w.RequestTeamChange(other, 1)
	assert.False(t, ok, "no AI slot left on team 1")
	assert.Equal(t, before, w.Players())

	_, ok = w.RequestTeamChange(other, 7)
	assert.False(t, ok)
}

func TestServer_TeamChangeBlockedWhenReady(t *testing.T) {
	w := newTestServer(duel())
	slot, _ := w.Join(protocol.ClientPlayer{Name: "a"})
	_, err := w.UpdatePlayer(slot, protocol.ClientPlayer{Name: "a", Ready: true, TeamRequest: 0}, true)
	require.NoError(t, err)

	_, ok := w.RequestTeamChange(slot, 1)
	assert.False(t, ok)
}

func TestServer_ReadyNeedsSameState(t *testing.T) {
	w := newTestServer(duel())
	slot, _ := w.Join(protocol.ClientPlayer{Name: "a"})

	_, err := w.UpdatePlayer(slot, protocol.ClientPlayer{Name: "a", Ready: true, TeamRequest: 0}, false)
	require.NoError(t, err)
	assert.False(t, w.Players()[slot].Ready)
	assert.False(t, w.Advance(t0))

	_, err = w.UpdatePlayer(slot, protocol.ClientPlayer{Name: "a", Ready: true, TeamRequest: 0}, true)
	require.NoError(t, err)
	assert.True(t, w.Players()[slot].Ready)

	_, err = w.UpdatePlayer(1, protocol.ClientPlayer{Name: "x"}, true)
	assert.ErrorIs(t, err, ErrUnknownSlot)
}

func TestServer_NoHumansNeverStarts(t *testing.T) {
	w := newTestServer(duel())
	assert.False(t, w.Advance(t0))
	assert.Equal(t, protocol.StateWaiting(), w.State())
}

func TestServer_TicksOnPeriod(t *testing.T) {
	w := newTestServer(duel())
	startRound(t, w)
	period := testSettings().TickPeriod

	assert.False(t, w.Advance(t0.Add(period/2)))
	assert.Equal(t, uint32(0), w.LastTick())

	assert.True(t, w.Advance(t0.Add(period)))
	assert.Equal(t, uint32(1), w.LastTick())
	assert.Equal(t, w.Simulation().Hash, w.LastUpdate().Hash)

	w.Advance(t0.Add(3 * period))
	assert.Equal(t, uint32(3), w.LastTick())
	assert.Len(t, w.DeltasSince(0), 2)
	assert.Empty(t, w.DeltasSince(3))
}

func TestServer_PendingCommandsBroadcast(t *testing.T) {
	w := newTestServer(duel())
	startRound(t, w)

	w.PushUpdate(game.BikeUpdate{ID: 0, Dir: game.Up})
	w.Advance(t0.Add(testSettings().TickPeriod))

	last := w.LastUpdate()
	require.NotNil(t, last)
	require.NotEmpty(t, last.Updates)
	assert.Equal(t, uint8(0), last.Updates[0].ID)
	assert.True(t, w.Simulation().Bikes[0].Dir.Eq(game.Up))
}

func TestServer_RoundOverAndGameOver(t *testing.T) {
	settings := testSettings()
	settings.ScoreWin = 2
	w := NewServer(duel(), settings, nil)
	startRound(t, w)

	// Kill the human: its head is exploded and it dies on its first move.
	sim := w.Simulation()
	sim.Grid.Explode(sim.Bikes[0].Head)
	w.Advance(t0.Add(settings.TickPeriod))

	assert.Equal(t, protocol.StateRoundOver(1), w.State())
	assert.Equal(t, []uint8{0, 1}, w.Scores())
	assert.False(t, w.Players()[0].Ready, "ready reset at round end")

	// Next round: ready again, same outcome ends the game.
	now := t0.Add(time.Second)
	_, err := w.UpdatePlayer(0, protocol.ClientPlayer{Name: "ann", Ready: true, TeamRequest: protocol.AnyTeam}, true)
	require.NoError(t, err)
	require.True(t, w.Advance(now))
	assert.Equal(t, uint32(2), w.Round())
	assert.Equal(t, uint32(0), w.LastTick(), "history restarts each round")

	sim = w.Simulation()
	sim.Grid.Explode(sim.Bikes[0].Head)
	w.Advance(now.Add(settings.TickPeriod))
	assert.Equal(t, protocol.StateGameOver(1), w.State())
	assert.Equal(t, []uint8{0, 2}, w.Scores())

	// Ready after game over resets the scores.
	_, err = w.UpdatePlayer(0, protocol.ClientPlayer{Name: "ann", Ready: true, TeamRequest: protocol.AnyTeam}, true)
	require.NoError(t, err)
	require.True(t, w.Advance(now.Add(time.Second)))
	assert.Equal(t, protocol.StatePlaying(), w.State())
	assert.Equal(t, []uint8{0, 0}, w.Scores())
}

type captureRecorder struct {
	rounds []RoundTrace
}

func (c *captureRecorder) RecordRound(r RoundTrace) { c.rounds = append(c.rounds, r) }

func TestServer_RecordsRound(t *testing.T) {
	rec := &captureRecorder{}
	settings := testSettings()
	settings.Recorder = rec
	settings.MatchID = "m1"
	w := NewServer(duel(), settings, nil)
	startRound(t, w)

	w.Advance(t0.Add(settings.TickPeriod))
	sim := w.Simulation()
	sim.Grid.Explode(sim.Bikes[0].Head)
	w.Advance(t0.Add(3 * settings.TickPeriod))
	require.NotEqual(t, protocol.Playing, w.State().Phase)

	require.Len(t, rec.rounds, 1)
	r := rec.rounds[0]
	assert.Equal(t, "m1", r.MatchID)
	assert.Equal(t, uint32(1), r.Round)
	require.NotEmpty(t, r.Deltas)
	assert.Equal(t, uint32(1), r.Deltas[0].Tick)
	assert.Equal(t, w.LastTick(), r.Deltas[len(r.Deltas)-1].Tick)
}

func TestServer_AbandonedCountsAsReady(t *testing.T) {
	w := newTestServer(duel())
	a, _ := w.Join(protocol.ClientPlayer{Name: "a"})
	b, _ := w.Join(protocol.ClientPlayer{Name: "b"})
	w.Abandon([]uint8{b})
	assert.Equal(t, 1, w.Humans())
	assert.False(t, w.Players()[b].IsAI, "abandoned slots stay human")

	_, err := w.UpdatePlayer(a, protocol.ClientPlayer{Name: "a", Ready: true, TeamRequest: protocol.AnyTeam}, true)
	require.NoError(t, err)
	assert.True(t, w.Advance(t0))
}

func TestHistory_Ring(t *testing.T) {
	h := newHistory(4)
	for tick := uint32(1); tick <= 6; tick++ {
		h.push(game.GridUpdateMsg{Tick: tick})
	}
	assert.Equal(t, uint32(3), h.oldest())
	got := h.between(0, 6)
	require.Len(t, got, 3)
	assert.Equal(t, uint32(3), got[0].Tick)
	assert.Equal(t, uint32(5), got[2].Tick)

	h.reset()
	assert.Empty(t, h.between(0, 10))
	assert.Equal(t, uint32(0), h.oldest())
}
