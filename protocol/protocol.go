// Package protocol defines the messages exchanged between clients and the
// authoritative server, and their binary encoding.
package protocol

import (
	"fmt"
	"time"

	"github.com/brensch/tronio/game"
)

const (
	TCPPort = 8090
	WSPort  = 8091

	// PollInterval drives each connection's timer on the server.
	PollInterval = 10 * time.Millisecond
	// DefaultTickPeriod is the simulation cadence while Playing.
	DefaultTickPeriod = time.Second / 60

	// MaxFrameSize bounds a single encoded message.
	MaxFrameSize = 1 << 20
)

// Phase is the session state machine.
type Phase uint8

const (
	Waiting Phase = iota
	Playing
	RoundOver
	GameOver
)

func (p Phase) String() string {
	switch p {
	case Waiting:
		return "waiting"
	case Playing:
		return "playing"
	case RoundOver:
		return "round_over"
	case GameOver:
		return "game_over"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

// NoTeam is the Winner of a tie, and of states without a winner.
const NoTeam int8 = -1

// WorldState is a Phase plus the winning team where it applies. It is
// comparable with ==.
type WorldState struct {
	_msgpack struct{} `msgpack:",as_array"`

	Phase  Phase
	Winner int8
}

func StateWaiting() WorldState { return WorldState{Phase: Waiting, Winner: NoTeam} }
func StatePlaying() WorldState { return WorldState{Phase: Playing, Winner: NoTeam} }

func StateRoundOver(winner int8) WorldState {
	return WorldState{Phase: RoundOver, Winner: winner}
}

func StateGameOver(winner int8) WorldState {
	return WorldState{Phase: GameOver, Winner: winner}
}

// Lobby reports whether the state waits on ready flags.
func (s WorldState) Lobby() bool {
	return s.Phase != Playing
}

func (s WorldState) String() string {
	switch s.Phase {
	case RoundOver, GameOver:
		if s.Winner < 0 {
			return s.Phase.String() + "(tie)"
		}
		return fmt.Sprintf("%s(team %d)", s.Phase, s.Winner)
	default:
		return s.Phase.String()
	}
}

// AnyTeam is a TeamRequest that asks for no particular team.
const AnyTeam uint8 = 0xff

// ClientPlayer is one locally controlled player as the client describes it.
type ClientPlayer struct {
	_msgpack struct{} `msgpack:",as_array"`

	Name        string
	Ready       bool
	TeamRequest uint8
}

// ServerPlayer is one roster slot.
type ServerPlayer struct {
	_msgpack struct{} `msgpack:",as_array"`

	Name  string `json:"name"`
	Ready bool   `json:"ready"`
	IsAI  bool   `json:"ai"`

	// Abandoned marks a human slot whose connection has gone away.
	Abandoned bool `msgpack:"-" json:"abandoned"`
}

// ClientMsg is sent client to server. State is the last state the client saw.
type ClientMsg struct {
	_msgpack struct{} `msgpack:",as_array"`

	Players []ClientPlayer
	State   WorldState
	Update  *game.GridUpdateMsg
}

// ServerMsg is sent server to client. Options is only set when it changed
// for the receiving peer. Backlog carries deltas the peer missed, oldest
// first, and never includes GridUpdate itself.
type ServerMsg struct {
	_msgpack struct{} `msgpack:",as_array"`

	LocalPlayerIDs []uint8
	Players        []ServerPlayer
	State          WorldState
	GridUpdate     *game.GridUpdateMsg
	Backlog        []game.GridUpdateMsg
	Options        *game.GridOptions
	Scores         []uint8
}
