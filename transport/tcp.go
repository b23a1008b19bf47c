package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"
)

type tcpConn struct {
	base
	c      net.Conn
	sendCh chan []byte
	log    *slog.Logger
}

// NewTCPConn wraps an established stream connection and starts its read and
// write loops.
func NewTCPConn(c net.Conn, logger *slog.Logger) Conn {
	if logger == nil {
		logger = slog.Default()
	}
	t := &tcpConn{
		c:      c,
		sendCh: make(chan []byte, sendChSize),
		log:    logger.With("remote", c.RemoteAddr().String(), "transport", "tcp"),
	}
	t.init()
	go t.readLoop()
	go t.writeLoop()
	return t
}

// DialTCP connects to a length-framed server.
func DialTCP(ctx context.Context, addr string, logger *slog.Logger) (Conn, error) {
	var d net.Dialer
	c, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial tcp %s: %w", addr, err)
	}
	if tc, ok := c.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}
	return NewTCPConn(c, logger), nil
}

func (t *tcpConn) RemoteAddr() string { return t.c.RemoteAddr().String() }

func (t *tcpConn) Send(b []byte) error {
	if t.closed() {
		return ErrClosed
	}
	if len(b) > MaxFrameSize {
		return ErrFrameTooLarge
	}
	select {
	case t.sendCh <- b:
		return nil
	case <-t.done:
		return ErrClosed
	default:
		t.log.Warn("send channel full, dropping message")
		return nil
	}
}

func (t *tcpConn) Close() error {
	if t.fail(ErrClosed) {
		return t.c.Close()
	}
	return nil
}

func (t *tcpConn) readLoop() {
	for {
		b, err := ReadFrame(t.c)
		if err != nil {
			if !t.closed() && !errors.Is(err, io.EOF) {
				t.log.Warn("read error", "error", err)
			}
			if t.fail(err) {
				_ = t.c.Close()
			}
			return
		}
		t.in.Push(b)
	}
}

func (t *tcpConn) writeLoop() {
	for {
		select {
		case <-t.done:
			return
		case b := <-t.sendCh:
			if err := t.c.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				t.fail(err)
				_ = t.c.Close()
				return
			}
			if err := WriteFrame(t.c, b); err != nil {
				t.log.Warn("write error", "error", err)
				if t.fail(err) {
					_ = t.c.Close()
				}
				return
			}
		}
	}
}
