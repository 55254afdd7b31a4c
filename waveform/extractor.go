package waveform

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
)

const progressBuffer = 16

// Result is the terminal outcome of one extraction session: either the
// finished envelope or the error that ended it.
type Result struct {
	Samples []float64
	Err     error
}

// Session is one cancellable extraction in flight. At most one Result
// is ever delivered; a cancelled session delivers nothing and only
// closes Done.
type Session struct {
	// Result delivers the terminal outcome exactly once (buffered, so
	// the session never blocks on a slow receiver).
	Result <-chan Result
	// Progress is a monotonically non-decreasing fraction stream in
	// [0,1]. Values are dropped, never blocked on.
	Progress <-chan float64
	// Done is closed when the session ends for any reason, including
	// cancellation.
	Done <-chan struct{}

	resultCh   chan Result
	progressCh chan float64
	done       chan struct{}
	cancel     context.CancelFunc
	fraction   atomic.Uint64
	count      int

	mu        sync.Mutex
	cancelled bool
}

func newSession(cancel context.CancelFunc, count int) *Session {
	s := &Session{
		resultCh:   make(chan Result, 1),
		progressCh: make(chan float64, progressBuffer),
		done:       make(chan struct{}),
		cancel:     cancel,
		count:      count,
	}
	s.Result = s.resultCh
	s.Progress = s.progressCh
	s.Done = s.done
	return s
}

// Cancel aborts the session. Partial results are discarded and no
// Result is delivered: delivery and cancellation are mutually
// exclusive, so once Cancel returns no result can surface, even if the
// extraction goroutine was already past its last context check.
// Idempotent.
func (s *Session) Cancel() {
	s.mu.Lock()
	s.cancelled = true
	s.mu.Unlock()
	s.cancel()
}

// Fraction returns the current progress fraction in [0,1].
func (s *Session) Fraction() float64 {
	return math.Float64frombits(s.fraction.Load())
}

// SampleCount returns the requested envelope resolution.
func (s *Session) SampleCount() int {
	return s.count
}

func (s *Session) report(done, total int) {
	f := float64(done) / float64(total)
	s.fraction.Store(math.Float64bits(f))
	select {
	case s.progressCh <- f:
	default:
	}
}

func (s *Session) deliver(r Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelled {
		return
	}
	select {
	case s.resultCh <- r:
	default:
	}
}

// Extractor decodes audio files into amplitude envelopes through a
// pluggable Decoder.
type Extractor struct {
	dec Decoder
}

// NewExtractor creates an extractor. A nil decoder falls back to
// FileDecoder.
func NewExtractor(dec Decoder) *Extractor {
	if dec == nil {
		dec = FileDecoder{}
	}
	return &Extractor{dec: dec}
}

// Extract starts an asynchronous extraction of sampleCount amplitude
// values from the file at path and returns its session handle.
// Cancelling ctx cancels the session.
func (e *Extractor) Extract(ctx context.Context, path string, sampleCount int) *Session {
	ctx, cancel := context.WithCancel(ctx)
	s := newSession(cancel, sampleCount)
	go e.run(ctx, s, path, sampleCount)
	return s
}

func (e *Extractor) run(ctx context.Context, s *Session, path string, sampleCount int) {
	defer close(s.done)
	defer s.cancel()

	if sampleCount <= 0 {
		s.deliver(Result{Err: ErrInvalidSampleCount})
		return
	}

	buf, err := e.dec.Decode(path)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		s.deliver(Result{Err: err})
		return
	}

	out := envelope(monoMix(buf), sampleCount, func(done, total int) bool {
		s.report(done, total)
		return ctx.Err() == nil
	})
	if ctx.Err() != nil {
		return
	}
	if out == nil {
		s.deliver(Result{Err: ErrEmptySource})
		return
	}
	s.deliver(Result{Samples: out})
}
