// Package tui is the terminal front end of the tronio client.
package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/brensch/tronio/protocol"
	"github.com/brensch/tronio/world"
)

// Dialer opens the transport a Model plays over.
type Dialer func(ctx context.Context) (world.Transport, error)

const maxFeed = 6

type tickMsg time.Time

type connectedMsg struct{ t world.Transport }

type dialErrMsg struct{ err error }

func tickCmd() tea.Cmd {
	return tea.Tick(protocol.PollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Model drives a world.Client from bubbletea messages.
type Model struct {
	log    *slog.Logger
	name   string
	target string
	dial   Dialer

	client    *world.Client
	transport world.Transport
	devices   [numDevices]int
	err       error

	feed    []string
	desyncs int
	width   int
	height  int
}

// New builds a model that dials on Init. target is only shown to the user.
func New(dial Dialer, name, target string, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}
	m := Model{log: logger, name: name, target: target, dial: dial}
	for i := range m.devices {
		m.devices[i] = world.NoPlayer
	}
	return m
}

func (m Model) Init() tea.Cmd {
	dial := m.dial
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		t, err := dial(ctx)
		if err != nil {
			return dialErrMsg{err}
		}
		return connectedMsg{t}
	}
}

// Client is nil until the transport is up.
func (m Model) Client() *world.Client { return m.client }

// Err is the error that stopped play, if any.
func (m Model) Err() error { return m.err }

// Close releases the transport if it holds resources.
func (m Model) Close() error {
	if c, ok := m.transport.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case connectedMsg:
		m.transport = msg.t
		m.client = world.NewClient(msg.t, m.name, m.log)
		m.push("connected to " + m.target)
		return m, tickCmd()
	case dialErrMsg:
		m.err = msg.err
		m.log.Error("connect failed", "target", m.target, "error", msg.err)
	case tickMsg:
		if m.client == nil || m.err != nil {
			return m, nil
		}
		m.client.Update(time.Time(msg))
		m.consume(m.client.DrainEvents())
		if err := m.client.ConnectionError(); err != nil {
			m.err = err
			m.log.Error("connection lost", "error", err)
			return m, nil
		}
		return m, tickCmd()
	case tea.KeyMsg:
		return m.key(msg.String())
	}
	return m, nil
}

func (m Model) key(name string) (tea.Model, tea.Cmd) {
	if name == "q" || name == "ctrl+c" {
		return m, tea.Quit
	}
	if m.client == nil || m.err != nil {
		return m, nil
	}
	k, ok := keymap[name]
	if !ok {
		return m, nil
	}
	local := m.devices[k.device]
	_, action, _ := resolve(name, m.client.State().Lobby(), local != world.NoPlayer)
	m.devices[k.device] = m.client.HandleInput(local, action)
	m.consume(m.client.DrainEvents())
	return m, nil
}

func (m *Model) consume(events []world.Event) {
	for _, e := range events {
		switch e.Kind {
		case world.EventPlayerJoin:
			m.push(fmt.Sprintf("%s joined as bike %d", m.deviceOf(e.Local), e.Bike))
		case world.EventPlayerReady:
			m.push(fmt.Sprintf("%s ready", m.deviceOf(e.Local)))
		case world.EventStateChange:
			m.push(e.State.String())
		case world.EventBikeDeath:
			m.push(fmt.Sprintf("bike %d crashed at %d,%d (tick %d)", e.Bike, e.Pos.X, e.Pos.Y, e.Tick))
		case world.EventDesync:
			m.desyncs++
			m.push(fmt.Sprintf("desync at tick %d", e.Tick))
		}
	}
}

func (m *Model) deviceOf(local int) string {
	for d, l := range m.devices {
		if l == local {
			return Device(d).String()
		}
	}
	return fmt.Sprintf("local %d", local)
}

func (m *Model) push(line string) {
	m.feed = append(m.feed, line)
	if len(m.feed) > maxFeed {
		m.feed = m.feed[len(m.feed)-maxFeed:]
	}
}
