package protocol

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

var ErrEmptyFrame = errors.New("protocol: empty frame")

// Encode serializes a message with msgpack.
func Encode(msg any) ([]byte, error) {
	if msg == nil {
		return nil, errors.New("protocol: encode nil message")
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseCompactInts(true)
	if err := enc.Encode(msg); err != nil {
		return nil, fmt.Errorf("protocol: encode %T: %w", msg, err)
	}
	if buf.Len() > MaxFrameSize {
		return nil, fmt.Errorf("protocol: encoded %T is %d bytes, limit %d", msg, buf.Len(), MaxFrameSize)
	}
	return buf.Bytes(), nil
}

// Decode parses one message of type T.
func Decode[T any](b []byte) (T, error) {
	var out T
	if len(b) == 0 {
		return out, ErrEmptyFrame
	}
	if err := msgpack.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("protocol: decode %T: %w", out, err)
	}
	return out, nil
}

func EncodeClient(m *ClientMsg) ([]byte, error) { return Encode(m) }
func EncodeServer(m *ServerMsg) ([]byte, error) { return Encode(m) }

func DecodeClient(b []byte) (ClientMsg, error) { return Decode[ClientMsg](b) }
func DecodeServer(b []byte) (ServerMsg, error) { return Decode[ServerMsg](b) }
