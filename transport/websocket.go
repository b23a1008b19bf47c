package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	ws "github.com/gorilla/websocket"
)

var upgrader = ws.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Browser clients are served from anywhere.
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsConn carries one message per binary WebSocket frame. A single goroutine
// owns writes, including pings.
type wsConn struct {
	base
	c      *ws.Conn
	sendCh chan []byte
	log    *slog.Logger
}

func newWSConn(c *ws.Conn, logger *slog.Logger) *wsConn {
	if logger == nil {
		logger = slog.Default()
	}
	w := &wsConn{
		c:      c,
		sendCh: make(chan []byte, sendChSize),
		log:    logger.With("remote", c.RemoteAddr().String(), "transport", "ws"),
	}
	w.init()
	c.SetReadLimit(MaxFrameSize)
	_ = c.SetReadDeadline(time.Now().Add(pongWait))
	c.SetPongHandler(func(string) error {
		return c.SetReadDeadline(time.Now().Add(pongWait))
	})
	go w.readLoop()
	go w.writeLoop()
	return w
}

// Upgrade turns an HTTP request into a Conn.
func Upgrade(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (Conn, error) {
	c, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket upgrade: %w", err)
	}
	return newWSConn(c, logger), nil
}

// DialWebSocket connects to a ws:// or wss:// endpoint.
func DialWebSocket(ctx context.Context, url string, logger *slog.Logger) (Conn, error) {
	c, _, err := ws.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial %s: %w", url, err)
	}
	return newWSConn(c, logger), nil
}

func (w *wsConn) RemoteAddr() string { return w.c.RemoteAddr().String() }

func (w *wsConn) Send(b []byte) error {
	if w.closed() {
		return ErrClosed
	}
	if len(b) > MaxFrameSize {
		return ErrFrameTooLarge
	}
	select {
	case w.sendCh <- b:
		return nil
	case <-w.done:
		return ErrClosed
	default:
		w.log.Warn("send channel full, dropping message")
		return nil
	}
}

func (w *wsConn) Close() error {
	if !w.fail(ErrClosed) {
		return nil
	}
	_ = w.c.WriteControl(
		ws.CloseMessage,
		ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return w.c.Close()
}

func (w *wsConn) readLoop() {
	for {
		kind, b, err := w.c.ReadMessage()
		if err != nil {
			if !w.closed() && !ws.IsCloseError(err, ws.CloseNormalClosure, ws.CloseGoingAway) {
				w.log.Warn("read error", "error", err)
			}
			if w.fail(err) {
				_ = w.c.Close()
			}
			return
		}
		if kind != ws.BinaryMessage {
			w.log.Debug("ignoring non-binary frame", "type", kind)
			continue
		}
		w.in.Push(b)
	}
}

func (w *wsConn) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-w.done:
			return
		case b := <-w.sendCh:
			_ = w.c.SetWriteDeadline(time.Now().Add(writeWait))
			if err := w.c.WriteMessage(ws.BinaryMessage, b); err != nil {
				w.log.Warn("write error", "error", err)
				if w.fail(err) {
					_ = w.c.Close()
				}
				return
			}
		case <-ticker.C:
			_ = w.c.SetWriteDeadline(time.Now().Add(writeWait))
			if err := w.c.WriteMessage(ws.PingMessage, nil); err != nil {
				if w.fail(err) {
					_ = w.c.Close()
				}
				return
			}
		}
	}
}
