package store

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/brensch/tronio/world"
)

// DefaultFlushRounds is how many rounds are buffered before a file is cut.
const DefaultFlushRounds = 16

const recorderQueue = 64

// TraceRecorder persists finished rounds to parquet files in the background.
// RecordRound never blocks: rounds arriving while the queue is full are
// dropped and counted.
type TraceRecorder struct {
	outDir      string
	source      string
	flushRounds int
	log         *slog.Logger

	sendMu  sync.Mutex
	closed  bool
	rounds  chan world.RoundTrace
	done    chan struct{}
	dropped atomic.Int64

	mu      sync.Mutex
	files   []string
	lastErr error
}

func NewTraceRecorder(outDir, source string, flushRounds int, logger *slog.Logger) (*TraceRecorder, error) {
	if outDir == "" {
		return nil, fmt.Errorf("outDir is required")
	}
	if flushRounds <= 0 {
		flushRounds = DefaultFlushRounds
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &TraceRecorder{
		outDir:      outDir,
		source:      source,
		flushRounds: flushRounds,
		log:         logger.With("component", "trace_recorder"),
		rounds:      make(chan world.RoundTrace, recorderQueue),
		done:        make(chan struct{}),
	}
	go r.loop()
	return r, nil
}

// RecordRound queues a finished round. Rounds arriving after Close are
// dropped and counted.
func (r *TraceRecorder) RecordRound(t world.RoundTrace) {
	r.sendMu.Lock()
	defer r.sendMu.Unlock()
	if r.closed {
		n := r.dropped.Add(1)
		r.log.Warn("trace recorder closed, dropping round", "match", t.MatchID, "round", t.Round, "dropped", n)
		return
	}
	select {
	case r.rounds <- t:
	default:
		n := r.dropped.Add(1)
		r.log.Warn("trace queue full, dropping round", "match", t.MatchID, "round", t.Round, "dropped", n)
	}
}

func (r *TraceRecorder) loop() {
	defer close(r.done)

	var (
		buf    []TickRow
		rounds int
	)
	flush := func() {
		if len(buf) == 0 {
			return
		}
		path, err := WriteTraceAtomic(r.outDir, buf)
		r.mu.Lock()
		if err != nil {
			r.lastErr = err
		} else {
			r.files = append(r.files, path)
		}
		r.mu.Unlock()
		if err != nil {
			r.log.Error("write trace failed", "error", err, "rows", len(buf))
		} else {
			r.log.Info("trace written", "path", path, "rows", len(buf), "rounds", rounds)
		}
		buf = nil
		rounds = 0
	}

	for t := range r.rounds {
		buf = append(buf, RowsFromRound(t, r.source)...)
		rounds++
		if rounds >= r.flushRounds {
			flush()
		}
	}
	flush()
}

// Files lists every trace file written so far.
func (r *TraceRecorder) Files() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.files...)
}

func (r *TraceRecorder) Dropped() int64 { return r.dropped.Load() }

// Close flushes buffered rounds and waits for the writer to finish.
func (r *TraceRecorder) Close() error {
	r.sendMu.Lock()
	if !r.closed {
		r.closed = true
		close(r.rounds)
	}
	r.sendMu.Unlock()
	<-r.done
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}
