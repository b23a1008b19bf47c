package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

// Session is the server-side logic of one connection. Its methods are only
// ever called from that connection's driver goroutine.
type Session interface {
	OnMessage(b []byte)
	OnTimer(now time.Time)
	OnDisconnect()
}

// Handler opens a Session for every accepted connection.
type Handler interface {
	Open(c Conn) Session
}

// Drive feeds a connection's messages and a fixed timer into s until the
// connection dies or ctx is cancelled. The connection is closed on return.
func Drive(ctx context.Context, c Conn, s Session, poll time.Duration) {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	defer s.OnDisconnect()
	defer c.Close()

	drain := func() {
		for {
			b, ok := c.TryReceive()
			if !ok {
				return
			}
			s.OnMessage(b)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.Done():
			drain()
			return
		case <-c.Ready():
			drain()
		case now := <-ticker.C:
			s.OnTimer(now)
		}
	}
}

// Server accepts TCP and WebSocket connections and drives a Session for each.
type Server struct {
	handler Handler
	poll    time.Duration
	log     *slog.Logger

	wg sync.WaitGroup
}

func NewServer(h Handler, poll time.Duration, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{handler: h, poll: poll, log: logger}
}

func (s *Server) serveConn(ctx context.Context, c Conn) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.log.Info("connection opened", "remote", c.RemoteAddr())
		Drive(ctx, c, s.handler.Open(c), s.poll)
		s.log.Info("connection closed", "remote", c.RemoteAddr(), "reason", c.Err())
	}()
}

// ServeTCP accepts length-framed connections on ln until ctx is cancelled.
func (s *Server) ServeTCP(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()
	for {
		c, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		if tc, ok := c.(*net.TCPConn); ok {
			_ = tc.SetNoDelay(true)
		}
		s.serveConn(ctx, NewTCPConn(c, s.log))
	}
}

// WebSocketHandler upgrades requests and serves them until ctx is cancelled.
func (s *Server) WebSocketHandler(ctx context.Context) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := Upgrade(w, r, s.log)
		if err != nil {
			s.log.Warn("upgrade failed", "remote", r.RemoteAddr, "error", err)
			return
		}
		s.serveConn(ctx, c)
	})
}

// Wait blocks until every driven connection has finished.
func (s *Server) Wait() {
	s.wg.Wait()
}
