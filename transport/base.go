package transport

import (
	"sync"

	"github.com/brensch/tronio/queue"
)

// base holds the inbound queue and shutdown state shared by both conn kinds.
type base struct {
	in   *queue.Queue[[]byte]
	done chan struct{}

	mu   sync.Mutex
	err  error
	once sync.Once
}

func (b *base) init() {
	b.in = queue.New[[]byte]()
	b.done = make(chan struct{})
}

func (b *base) TryReceive() ([]byte, bool) { return b.in.TryPop() }

func (b *base) Ready() <-chan struct{} { return b.in.Signal() }

func (b *base) Done() <-chan struct{} { return b.done }

func (b *base) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// fail records the first error and marks the connection dead. It reports
// whether this call did the shutdown.
func (b *base) fail(err error) bool {
	first := false
	b.once.Do(func() {
		if err == nil {
			err = ErrClosed
		}
		b.mu.Lock()
		b.err = err
		b.mu.Unlock()
		close(b.done)
		first = true
	})
	return first
}

func (b *base) closed() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}
