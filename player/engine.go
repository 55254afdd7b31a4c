package player

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"

	"github.com/mlaroche/polyplay/ident"
)

const (
	// engineRate is the shared output rate; every source is resampled
	// to it so any number of tracks can mix on one speaker.
	engineRate = beep.SampleRate(44100)

	defaultUpdateInterval = 200 * time.Millisecond
	resampleQuality       = 4
	engineEventBuffer     = 64
)

// Engine is the default Backend, built on beep. It decodes mp3, flac
// and wav files, mixes all prepared tracks on a single speaker, and
// emits duration ticks and completion events on the raw channels.
//
// Engine never pushes state events: every state change it performs is
// acknowledged synchronously by the command that caused it. The state
// channel exists for backends with externally-originated transitions.
type Engine struct {
	mu     sync.Mutex
	tracks map[ident.ID]*track

	stateCh      chan StateEvent
	durationCh   chan DurationEvent
	completionCh chan CompletionEvent

	speakerOnce sync.Once
	speakerErr  error
}

type track struct {
	id        ident.ID
	file      *os.File
	streamer  beep.StreamSeekCloser
	format    beep.Format
	ctrl      *beep.Ctrl
	volume    *effects.Volume
	resampler *beep.Resampler
	gate      *gate
	baseRatio float64
	state     State
	interval  time.Duration
	started   bool
	stopTick  chan struct{}
}

// NewEngine creates a beep-backed Engine. The speaker is initialized
// lazily on the first successful Prepare.
func NewEngine() *Engine {
	return &Engine{
		tracks:       make(map[ident.ID]*track),
		stateCh:      make(chan StateEvent, engineEventBuffer),
		durationCh:   make(chan DurationEvent, engineEventBuffer),
		completionCh: make(chan CompletionEvent, engineEventBuffer),
	}
}

// Prepare decodes the file and registers a track for id. Preparing an
// identifier that already has a track releases the old one first.
func (e *Engine) Prepare(ctx context.Context, id ident.ID, opts PrepareOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(opts.Path))
	f, err := os.Open(opts.Path)
	if err != nil {
		return err
	}

	var streamer beep.StreamSeekCloser
	var format beep.Format
	switch ext {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	default:
		f.Close()
		return ErrUnsupportedFormat
	}
	if err != nil {
		f.Close()
		return err
	}

	e.speakerOnce.Do(func() {
		e.speakerErr = speaker.Init(engineRate, engineRate.N(time.Second/10))
	})
	if e.speakerErr != nil {
		streamer.Close()
		f.Close()
		return e.speakerErr
	}

	interval := opts.UpdateInterval
	if interval <= 0 {
		interval = defaultUpdateInterval
	}

	t := &track{
		id:        id,
		file:      f,
		streamer:  streamer,
		format:    format,
		baseRatio: float64(format.SampleRate) / float64(engineRate),
		state:     Stopped,
		interval:  interval,
		stopTick:  make(chan struct{}),
	}
	t.ctrl = &beep.Ctrl{Streamer: streamer}
	t.volume = &effects.Volume{
		Streamer: t.ctrl,
		Base:     2,
		Volume:   levelToVolume(opts.Volume),
		Silent:   opts.Volume <= 0,
	}
	t.resampler = beep.Resample(resampleQuality, format.SampleRate, engineRate, t.volume)
	t.gate = &gate{
		inner: t.resampler,
		rewind: func() bool {
			if err := streamer.Seek(0); err != nil {
				return false
			}
			e.emitCompletion(id)
			return true
		},
		onDrain: func() { e.emitCompletion(id) },
	}

	e.mu.Lock()
	if old := e.tracks[id]; old != nil {
		e.releaseLocked(old)
	}
	e.tracks[id] = t
	e.mu.Unlock()

	go e.tickLoop(t)
	return nil
}

// Start begins or resumes playback.
func (e *Engine) Start(_ context.Context, id ident.ID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	t := e.tracks[id]
	if t == nil {
		return ErrUnknownPlayer
	}
	if t.started {
		speaker.Lock()
		t.ctrl.Paused = false
		speaker.Unlock()
	} else {
		t.started = true
		speaker.Play(t.gate)
	}
	t.state = Playing
	return nil
}

// Pause halts playback while keeping the position.
func (e *Engine) Pause(_ context.Context, id ident.ID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	t := e.tracks[id]
	if t == nil {
		return ErrUnknownPlayer
	}
	speaker.Lock()
	t.ctrl.Paused = true
	speaker.Unlock()
	t.state = Paused
	return nil
}

// Stop removes the track from the mixer. The track cannot be restarted
// without a new Prepare.
func (e *Engine) Stop(_ context.Context, id ident.ID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	t := e.tracks[id]
	if t == nil {
		return ErrUnknownPlayer
	}
	speaker.Lock()
	t.gate.closed = true
	speaker.Unlock()
	t.state = Stopped
	return nil
}

// SetVolume adjusts the track volume, clamped to [0,1].
func (e *Engine) SetVolume(_ context.Context, id ident.ID, level float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	t := e.tracks[id]
	if t == nil {
		return ErrUnknownPlayer
	}
	level = min(max(level, 0), 1)
	speaker.Lock()
	t.volume.Volume = levelToVolume(level)
	t.volume.Silent = level <= 0
	speaker.Unlock()
	return nil
}

// SetRate adjusts the playback speed. rate must be positive; 1 is
// normal speed.
func (e *Engine) SetRate(_ context.Context, id ident.ID, rate float64) error {
	if rate <= 0 {
		return ErrInvalidRate
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	t := e.tracks[id]
	if t == nil {
		return ErrUnknownPlayer
	}
	speaker.Lock()
	t.resampler.SetRatio(t.baseRatio * rate)
	speaker.Unlock()
	return nil
}

// Seek moves the playback position, clamped to the track bounds.
func (e *Engine) Seek(_ context.Context, id ident.ID, pos time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	t := e.tracks[id]
	if t == nil {
		return ErrUnknownPlayer
	}
	n := t.format.SampleRate.N(pos)
	n = min(max(n, 0), t.streamer.Len())
	speaker.Lock()
	err := t.streamer.Seek(n)
	speaker.Unlock()
	return err
}

// SetFinishMode selects the policy applied when the track drains.
func (e *Engine) SetFinishMode(_ context.Context, id ident.ID, mode FinishMode) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	t := e.tracks[id]
	if t == nil {
		return ErrUnknownPlayer
	}
	speaker.Lock()
	t.gate.mode = mode
	speaker.Unlock()
	return nil
}

// Duration reports the position or total length of the track.
func (e *Engine) Duration(_ context.Context, id ident.ID, kind DurationKind) (time.Duration, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t := e.tracks[id]
	if t == nil {
		return 0, ErrUnknownPlayer
	}
	switch kind {
	case DurationCurrent:
		// Read without the speaker lock; may be slightly stale but
		// cannot deadlock against the mixer.
		return t.format.SampleRate.D(t.streamer.Position()), nil
	case DurationMax:
		n := t.streamer.Len()
		if n <= 0 {
			return 0, ErrDurationUnknown
		}
		return t.format.SampleRate.D(n), nil
	default:
		return 0, ErrDurationUnknown
	}
}

// Release frees everything held for id. Releasing an unknown
// identifier is a no-op.
func (e *Engine) Release(_ context.Context, id ident.ID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	t := e.tracks[id]
	if t == nil {
		return nil
	}
	e.releaseLocked(t)
	delete(e.tracks, id)
	return nil
}

func (e *Engine) releaseLocked(t *track) {
	close(t.stopTick)
	speaker.Lock()
	t.gate.closed = true
	speaker.Unlock()
	t.streamer.Close()
	t.file.Close()
}

// StopAll removes every track from the mixer in one pass.
func (e *Engine) StopAll(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	speaker.Lock()
	for _, t := range e.tracks {
		t.gate.closed = true
	}
	speaker.Unlock()
	for _, t := range e.tracks {
		t.state = Stopped
	}
	return nil
}

// PauseAll pauses every playing track in one pass.
func (e *Engine) PauseAll(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	speaker.Lock()
	for _, t := range e.tracks {
		if t.state == Playing {
			t.ctrl.Paused = true
		}
	}
	speaker.Unlock()
	for _, t := range e.tracks {
		if t.state == Playing {
			t.state = Paused
		}
	}
	return nil
}

func (e *Engine) StateEvents() <-chan StateEvent { return e.stateCh }

func (e *Engine) DurationEvents() <-chan DurationEvent { return e.durationCh }

func (e *Engine) CompletionEvents() <-chan CompletionEvent { return e.completionCh }

// tickLoop emits periodic duration events while the track is playing.
// It exits when the track is released.
func (e *Engine) tickLoop(t *track) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-t.stopTick:
			return
		case <-ticker.C:
			e.mu.Lock()
			playing := e.tracks[t.id] == t && t.state == Playing && !t.gate.drained.Load()
			var pos time.Duration
			if playing {
				pos = t.format.SampleRate.D(t.streamer.Position())
			}
			e.mu.Unlock()
			if playing {
				e.emitDuration(t.id, pos)
			}
		}
	}
}

func (e *Engine) emitDuration(id ident.ID, pos time.Duration) {
	select {
	case e.durationCh <- DurationEvent{ID: id, Position: pos}:
	default:
	}
}

func (e *Engine) emitCompletion(id ident.ID) {
	select {
	case e.completionCh <- CompletionEvent{ID: id}:
	default:
	}
}

// gate sits at the top of a track's streamer chain. Closing it removes
// the track from the mixer without firing the completion callback;
// natural drain fires it exactly once. All fields except drained are
// mutated only under the speaker lock.
type gate struct {
	inner   beep.Streamer
	mode    FinishMode
	closed  bool
	drained atomic.Bool
	rewind  func() bool
	onDrain func()
}

func (g *gate) Stream(samples [][2]float64) (int, bool) {
	if g.closed {
		return 0, false
	}
	n, ok := g.inner.Stream(samples)
	if ok || g.drained.Load() {
		return n, ok
	}
	if g.mode == FinishLoop && g.rewind() {
		m, _ := g.inner.Stream(samples[n:])
		if n+m > 0 {
			return n + m, true
		}
	}
	g.drained.Store(true)
	if g.onDrain != nil {
		g.onDrain()
	}
	return n, false
}

func (g *gate) Err() error { return nil }

// Verify Engine implements Backend at compile time.
var _ Backend = (*Engine)(nil)
