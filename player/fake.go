package player

import (
	"context"
	"sync"
	"time"

	"github.com/mlaroche/polyplay/ident"
)

const fakeEventBuffer = 64

// Fake is a scriptable Backend test double. It records every command,
// lets tests inject per-command failures, and can push events on the
// raw channels as if the native engine had emitted them.
type Fake struct {
	mu        sync.Mutex
	calls     []string
	prepared  map[ident.ID]PrepareOptions
	states    map[ident.ID]State
	durations map[ident.ID]map[DurationKind]time.Duration
	seeks     []time.Duration
	errs      map[string]error

	stateCh      chan StateEvent
	durationCh   chan DurationEvent
	completionCh chan CompletionEvent
}

// NewFake creates a fake backend for testing.
func NewFake() *Fake {
	return &Fake{
		prepared:     make(map[ident.ID]PrepareOptions),
		states:       make(map[ident.ID]State),
		durations:    make(map[ident.ID]map[DurationKind]time.Duration),
		errs:         make(map[string]error),
		stateCh:      make(chan StateEvent, fakeEventBuffer),
		durationCh:   make(chan DurationEvent, fakeEventBuffer),
		completionCh: make(chan CompletionEvent, fakeEventBuffer),
	}
}

func (f *Fake) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op)
	return f.errs[op]
}

func (f *Fake) Prepare(_ context.Context, id ident.ID, opts PrepareOptions) error {
	if err := f.record("prepare"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prepared[id] = opts
	f.states[id] = Stopped
	return nil
}

func (f *Fake) Start(_ context.Context, id ident.ID) error {
	if err := f.record("start"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[id] = Playing
	return nil
}

func (f *Fake) Pause(_ context.Context, id ident.ID) error {
	if err := f.record("pause"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[id] = Paused
	return nil
}

func (f *Fake) Stop(_ context.Context, id ident.ID) error {
	if err := f.record("stop"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[id] = Stopped
	return nil
}

func (f *Fake) SetVolume(_ context.Context, _ ident.ID, _ float64) error {
	return f.record("setVolume")
}

func (f *Fake) SetRate(_ context.Context, _ ident.ID, _ float64) error {
	return f.record("setRate")
}

func (f *Fake) Seek(_ context.Context, _ ident.ID, pos time.Duration) error {
	if err := f.record("seek"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seeks = append(f.seeks, pos)
	return nil
}

func (f *Fake) SetFinishMode(_ context.Context, _ ident.ID, _ FinishMode) error {
	return f.record("setFinishMode")
}

func (f *Fake) Duration(_ context.Context, id ident.ID, kind DurationKind) (time.Duration, error) {
	if err := f.record("duration"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.durations[id][kind]
	if !ok {
		return 0, ErrDurationUnknown
	}
	return d, nil
}

func (f *Fake) Release(_ context.Context, id ident.ID) error {
	if err := f.record("release"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.prepared, id)
	delete(f.states, id)
	return nil
}

func (f *Fake) StopAll(_ context.Context) error {
	if err := f.record("stopAll"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for id := range f.states {
		f.states[id] = Stopped
	}
	return nil
}

func (f *Fake) PauseAll(_ context.Context) error {
	if err := f.record("pauseAll"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for id := range f.states {
		f.states[id] = Paused
	}
	return nil
}

func (f *Fake) StateEvents() <-chan StateEvent { return f.stateCh }

func (f *Fake) DurationEvents() <-chan DurationEvent { return f.durationCh }

func (f *Fake) CompletionEvents() <-chan CompletionEvent { return f.completionCh }

// Test helpers

// SetError makes the named command fail with err until cleared with nil.
// Command names are the lowerCamel wire names: "prepare", "start",
// "pause", "stop", "setVolume", "setRate", "seek", "setFinishMode",
// "duration", "release", "stopAll", "pauseAll".
func (f *Fake) SetError(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, op)
		return
	}
	f.errs[op] = err
}

// SetDuration scripts the answer for a duration query.
func (f *Fake) SetDuration(id ident.ID, kind DurationKind, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.durations[id] == nil {
		f.durations[id] = make(map[DurationKind]time.Duration)
	}
	f.durations[id][kind] = d
}

// Calls returns how many times the named command was issued.
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == op {
			n++
		}
	}
	return n
}

// TotalCalls returns the total number of commands issued.
func (f *Fake) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// SeekCalls returns the positions of all accepted seek commands.
func (f *Fake) SeekCalls() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.seeks...)
}

// PreparedOptions returns the options the track was prepared with.
func (f *Fake) PreparedOptions(id ident.ID) (PrepareOptions, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	opts, ok := f.prepared[id]
	return opts, ok
}

// PushState emits a backend state event (non-blocking).
func (f *Fake) PushState(id ident.ID, s State) {
	select {
	case f.stateCh <- StateEvent{ID: id, State: s}:
	default:
	}
}

// PushDuration emits a backend duration tick (non-blocking).
func (f *Fake) PushDuration(id ident.ID, pos time.Duration) {
	select {
	case f.durationCh <- DurationEvent{ID: id, Position: pos}:
	default:
	}
}

// PushCompletion emits a backend completion event (non-blocking).
func (f *Fake) PushCompletion(id ident.ID) {
	select {
	case f.completionCh <- CompletionEvent{ID: id}:
	default:
	}
}

// Verify Fake implements Backend at compile time.
var _ Backend = (*Fake)(nil)
