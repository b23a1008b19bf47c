package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brensch/tronio/ai"
	"github.com/brensch/tronio/game"
	"github.com/brensch/tronio/protocol"
	"github.com/brensch/tronio/rules"
	"github.com/brensch/tronio/world"
)

func localDialer() Dialer {
	return func(context.Context) (world.Transport, error) {
		s := world.DefaultSettings()
		s.Difficulty = ai.Easy
		s.Seed = func() int64 { return 1 }
		return world.NewLocal(game.DefaultGridOptions(), s, nil), nil
	}
}

// connect runs the dial command and feeds its result back.
func connect(t *testing.T, m Model) Model {
	t.Helper()
	msg := m.Init()()
	next, cmd := m.Update(msg)
	require.NotNil(t, cmd, "a connected model starts ticking")
	return next.(Model)
}

func press(m Model, key string) Model {
	var msg tea.KeyMsg
	switch key {
	case " ":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "up":
		msg = tea.KeyMsg{Type: tea.KeyUp}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, _ := m.Update(msg)
	return next.(Model)
}

func tick(m Model, now time.Time) Model {
	next, _ := m.Update(tickMsg(now))
	return next.(Model)
}

func TestResolve(t *testing.T) {
	dev, a, ok := resolve("w", false, true)
	require.True(t, ok)
	assert.Equal(t, DeviceWASD, dev)
	assert.Equal(t, game.ActionUp, a)

	_, a, _ = resolve("enter", true, true)
	assert.Equal(t, game.ActionConfirm, a)
	_, a, _ = resolve("enter", false, true)
	assert.Equal(t, game.ActionBoost, a)
	_, a, _ = resolve("enter", false, false)
	assert.Equal(t, game.ActionConfirm, a, "an unjoined device only confirms")

	dev, a, _ = resolve("backspace", true, true)
	assert.Equal(t, DeviceArrows, dev)
	assert.Equal(t, game.ActionCancel, a)

	_, _, ok = resolve("z", true, true)
	assert.False(t, ok)
}

func TestViewBeforeConnect(t *testing.T) {
	m := New(localDialer(), "ann", "local", nil)
	assert.Contains(t, m.View(), "connecting to local")
}

func TestDialError(t *testing.T) {
	m := New(func(context.Context) (world.Transport, error) {
		return nil, errors.New("connection refused")
	}, "ann", "localhost:8090", nil)

	next, cmd := m.Update(m.Init()())
	assert.Nil(t, cmd)
	m = next.(Model)
	require.Error(t, m.Err())
	assert.Contains(t, m.View(), "error connecting to localhost:8090")
	assert.Contains(t, m.View(), "connection refused")

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestJoinReadyAndPlay(t *testing.T) {
	m := connect(t, New(localDialer(), "ann", "local", nil))
	now := time.Now()

	m = press(m, " ")
	m = tick(m, now)
	c := m.Client()
	require.Equal(t, 1, c.LocalCount())
	_, joined := c.LocalSlot(0)
	require.True(t, joined)
	assert.Contains(t, m.View(), "wasd")

	m = press(m, " ")
	now = now.Add(protocol.PollInterval)
	m = tick(m, now)
	require.Equal(t, protocol.Playing, c.State().Phase)

	for i := 0; i < 10; i++ {
		now = now.Add(protocol.DefaultTickPeriod)
		m = tick(m, now)
	}
	assert.Greater(t, c.Simulation().Tick, uint32(0))
	assert.Zero(t, m.desyncs)

	view := m.View()
	assert.Contains(t, view, "playing")
	assert.Contains(t, view, "▀")
}

func TestSecondDeviceJoinsSeparately(t *testing.T) {
	m := connect(t, New(localDialer(), "ann", "local", nil))
	m = press(m, " ")
	m = press(m, "enter")
	m = tick(m, time.Now())

	assert.Equal(t, 2, m.Client().LocalCount())
	assert.Equal(t, 0, m.devices[DeviceWASD])
	assert.Equal(t, 1, m.devices[DeviceArrows])
}

func TestKeysIgnoredForUnjoinedDevice(t *testing.T) {
	m := connect(t, New(localDialer(), "ann", "local", nil))
	m = press(m, "up")
	assert.Equal(t, world.NoPlayer, m.devices[DeviceArrows])
	assert.Zero(t, m.Client().LocalCount())
}

func TestRenderGridHalfBlocks(t *testing.T) {
	s := rules.New(game.DefaultGridOptions(), 0)
	out := renderGrid(s)
	w, h := s.Grid.Width(), s.Grid.Height()
	assert.Equal(t, int(h/2)-1, strings.Count(out, "\n"))
	assert.Equal(t, int(w)*int(h/2), strings.Count(out, "▀"))
}

func TestCellHex(t *testing.T) {
	s := rules.New(game.DefaultGridOptions(), 0)
	b := s.Bike(0)
	assert.Equal(t, headHex, cellHex(s, s.Grid.CellAt(b.Head)))
	assert.Equal(t, emptyHex, cellHex(s, s.Grid.CellAt(game.P(1, 1))))

	s.Grid.Explode(b.Head)
	assert.Equal(t, explodedHex, cellHex(s, s.Grid.CellAt(b.Head)))
}
