// Package server connects byte transports to the match hub and exposes a
// small HTTP status API.
package server

import (
	"log/slog"
	"time"

	"github.com/brensch/tronio/protocol"
	"github.com/brensch/tronio/transport"
	"github.com/brensch/tronio/world"
)

// Handler opens a session per accepted connection, placing it in a match.
type Handler struct {
	hub *world.Hub
	log *slog.Logger
}

func NewHandler(hub *world.Hub, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{hub: hub, log: logger}
}

var _ transport.Handler = (*Handler)(nil)

func (h *Handler) Open(c transport.Conn) transport.Session {
	m, conn := h.hub.Assign()
	return &session{
		hub:   h.hub,
		match: m,
		conn:  conn,
		c:     c,
		log:   h.log.With("match", m.ID.String(), "conn", conn.ID.String(), "remote", c.RemoteAddr()),
	}
}

type session struct {
	hub   *world.Hub
	match *world.Match
	conn  *world.Connection
	c     transport.Conn
	log   *slog.Logger
}

func (s *session) OnMessage(b []byte) {
	msg, err := protocol.DecodeClient(b)
	if err != nil {
		s.log.Warn("dropping undecodable frame", "bytes", len(b), "error", err)
		return
	}
	s.send(s.match.OnMessage(s.conn, &msg, time.Now()))
}

func (s *session) OnTimer(now time.Time) {
	s.send(s.match.Poll(s.conn, now))
}

func (s *session) OnDisconnect() {
	s.hub.Leave(s.match, s.conn)
}

func (s *session) send(m *protocol.ServerMsg) {
	if m == nil {
		return
	}
	b, err := protocol.EncodeServer(m)
	if err != nil {
		s.log.Error("encode server message", "error", err)
		return
	}
	if err := s.c.Send(b); err != nil {
		s.log.Debug("send failed", "error", err)
	}
}
