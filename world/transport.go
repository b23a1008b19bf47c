package world

import (
	"log/slog"
	"time"

	"github.com/brensch/tronio/game"
	"github.com/brensch/tronio/protocol"
	"github.com/brensch/tronio/queue"
	"github.com/brensch/tronio/transport"
)

// Transport is how a Client reaches its server.
type Transport interface {
	Send(msg *protocol.ClientMsg)
	TryRecv() (*protocol.ServerMsg, bool)
	Update(now time.Time)
}

// Local runs a private server in-process. Messages are handed over as values,
// never serialized.
type Local struct {
	server *Server
	conn   *Connection
	out    *queue.Queue[*protocol.ServerMsg]
	now    time.Time
}

func NewLocal(opts game.GridOptions, settings Settings, logger *slog.Logger) *Local {
	return &Local{
		server: NewServer(opts, settings, logger),
		conn:   NewConnection(logger),
		out:    queue.New[*protocol.ServerMsg](),
		now:    time.Now(),
	}
}

// Server exposes the private world, for inspection.
func (l *Local) Server() *Server { return l.server }

func (l *Local) Send(msg *protocol.ClientMsg) {
	if reply := l.conn.OnMessage(l.server, msg, l.now); reply != nil {
		l.out.Push(reply)
	}
}

func (l *Local) TryRecv() (*protocol.ServerMsg, bool) {
	return l.out.TryPop()
}

func (l *Local) Update(now time.Time) {
	l.now = now
	l.server.Advance(now)
	if m := l.conn.Poll(l.server, now); m != nil {
		l.out.Push(m)
	}
}

// Online speaks to a remote server over a byte connection.
type Online struct {
	conn transport.Conn
	log  *slog.Logger
}

func NewOnline(c transport.Conn, logger *slog.Logger) *Online {
	if logger == nil {
		logger = slog.Default()
	}
	return &Online{conn: c, log: logger}
}

func (o *Online) Send(msg *protocol.ClientMsg) {
	b, err := protocol.EncodeClient(msg)
	if err != nil {
		o.log.Error("encode client message", "error", err)
		return
	}
	if err := o.conn.Send(b); err != nil {
		o.log.Debug("send failed", "error", err)
	}
}

// TryRecv returns the next decodable message. Frames that fail to decode are
// logged and skipped.
func (o *Online) TryRecv() (*protocol.ServerMsg, bool) {
	for {
		b, ok := o.conn.TryReceive()
		if !ok {
			return nil, false
		}
		msg, err := protocol.DecodeServer(b)
		if err != nil {
			o.log.Warn("dropping undecodable frame", "bytes", len(b), "error", err)
			continue
		}
		return &msg, true
	}
}

func (o *Online) Update(time.Time) {}

// Err is set once the connection has died.
func (o *Online) Err() error {
	select {
	case <-o.conn.Done():
		return o.conn.Err()
	default:
		return nil
	}
}

func (o *Online) Close() error {
	return o.conn.Close()
}
