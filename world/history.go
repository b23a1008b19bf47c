package world

import "github.com/brensch/tronio/game"

// history is a fixed ring of recent broadcast deltas, in tick order.
type history struct {
	buf   []game.GridUpdateMsg
	start int
	n     int
}

func newHistory(size int) *history {
	return &history{buf: make([]game.GridUpdateMsg, size)}
}

func (h *history) push(m game.GridUpdateMsg) {
	if len(h.buf) == 0 {
		return
	}
	i := (h.start + h.n) % len(h.buf)
	h.buf[i] = m
	if h.n < len(h.buf) {
		h.n++
	} else {
		h.start = (h.start + 1) % len(h.buf)
	}
}

func (h *history) reset() {
	clear(h.buf)
	h.start, h.n = 0, 0
}

// between returns deltas with from < tick < to, oldest first.
func (h *history) between(from, to uint32) []game.GridUpdateMsg {
	var out []game.GridUpdateMsg
	for k := 0; k < h.n; k++ {
		m := h.buf[(h.start+k)%len(h.buf)]
		if m.Tick > from && m.Tick < to {
			out = append(out, *m.Clone())
		}
	}
	return out
}

// oldest is the first tick still held, or zero when empty.
func (h *history) oldest() uint32 {
	if h.n == 0 {
		return 0
	}
	return h.buf[h.start].Tick
}
