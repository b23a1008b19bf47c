// Package transport moves whole byte messages between a client and the
// server, over length-framed TCP or over WebSocket.
package transport

import (
	"errors"
	"time"
)

var (
	ErrClosed        = errors.New("transport: connection closed")
	ErrFrameTooLarge = errors.New("transport: frame too large")
)

const (
	// MaxFrameSize bounds one inbound message.
	MaxFrameSize = 1 << 20

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 25 * time.Second
	sendChSize = 1024
)

// Conn is a bidirectional message channel. Messages arrive whole and in
// order. Send never blocks on the network.
type Conn interface {
	Send(b []byte) error
	// TryReceive returns the next inbound message, if one is queued.
	TryReceive() ([]byte, bool)
	// Ready fires after new messages are queued.
	Ready() <-chan struct{}
	// Done is closed once the connection is dead.
	Done() <-chan struct{}
	// Err is the reason the connection died, if it has.
	Err() error
	Close() error
	RemoteAddr() string
}
