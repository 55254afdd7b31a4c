package playback

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mlaroche/polyplay/bus"
	"github.com/mlaroche/polyplay/ident"
	"github.com/mlaroche/polyplay/player"
	"github.com/mlaroche/polyplay/waveform"
)

// ErrDisposed is returned by operations that need a live player, such
// as waveform extraction, after the player has been disposed.
var ErrDisposed = errors.New("playback: player disposed")

// Options configures one player instance. Zero values select defaults:
// a 200ms update interval, full volume, normal rate, finish mode stop.
type Options struct {
	UpdateInterval  time.Duration
	FinishMode      player.FinishMode
	Volume          float64
	Rate            float64
	OverrideSession bool
}

// Controller owns the lifecycle of one player instance. All methods
// are safe for concurrent use; commands for this player are serialized
// through its mutex, so at most one backend command is in flight per
// identifier at a time.
//
// After Dispose, every state-changing method becomes a no-op rather
// than an error. This tolerates dangling references held by async
// callbacks still in flight.
type Controller struct {
	id      ident.ID
	mgr     *Manager
	backend player.Backend
	hub     *hub

	mu          sync.Mutex
	state       State
	maxDuration time.Duration
	opts        Options
	session     *waveform.Session
	disposed    bool
	onChange    func()
}

// ID returns the player's identifier.
func (c *Controller) ID() ident.ID {
	return c.id
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Disposed reports whether the player has been disposed.
func (c *Controller) Disposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

// MaxDuration returns the track length recorded at the last successful
// Prepare, or zero if none succeeded yet.
func (c *Controller) MaxDuration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxDuration
}

// Volume returns the last volume level the backend accepted.
func (c *Controller) Volume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opts.Volume
}

// Rate returns the last playback rate the backend accepted.
func (c *Controller) Rate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opts.Rate
}

// OnChange registers a hook fired after every mutating operation.
// Passing nil clears it. The hook runs outside the controller lock.
func (c *Controller) OnChange(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// Prepare loads the file into the backend. On success the player
// becomes Initialized and the track length reported by the backend is
// recorded; re-preparing overwrites it.
func (c *Controller) Prepare(ctx context.Context, path string) error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil
	}
	err := c.backend.Prepare(ctx, c.id, player.PrepareOptions{
		Path:            path,
		UpdateInterval:  c.opts.UpdateInterval,
		Volume:          c.opts.Volume,
		OverrideSession: c.opts.OverrideSession,
	})
	if err != nil {
		c.mu.Unlock()
		return err
	}
	if d, derr := c.backend.Duration(ctx, c.id, player.DurationMax); derr == nil {
		c.maxDuration = d
	}
	c.setStateLocked(StateInitialized)
	c.mu.Unlock()
	c.notify()
	return nil
}

// Start begins or resumes playback. A no-op unless the player is
// Initialized or Paused; a backend rejection is returned and leaves
// the state unchanged.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.disposed || !c.state.CanStart() {
		c.mu.Unlock()
		return nil
	}
	if err := c.backend.Start(ctx, c.id); err != nil {
		c.mu.Unlock()
		return err
	}
	c.setStateLocked(StatePlaying)
	c.mu.Unlock()
	c.notify()
	return nil
}

// Pause halts playback. A no-op unless the player is Playing.
func (c *Controller) Pause(ctx context.Context) error {
	c.mu.Lock()
	if c.disposed || !c.state.CanPause() {
		c.mu.Unlock()
		return nil
	}
	if err := c.backend.Pause(ctx, c.id); err != nil {
		c.mu.Unlock()
		return err
	}
	c.setStateLocked(StatePaused)
	c.mu.Unlock()
	c.notify()
	return nil
}

// Stop ends playback. A no-op unless the player is Playing, Paused or
// Initialized.
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.disposed || !c.state.CanStop() {
		c.mu.Unlock()
		return nil
	}
	if err := c.backend.Stop(ctx, c.id); err != nil {
		c.mu.Unlock()
		return err
	}
	c.setStateLocked(StateStopped)
	c.mu.Unlock()
	c.notify()
	return nil
}

// Seek moves the playback position. Negative positions and seeks while
// stopped are silent no-ops with no backend call.
func (c *Controller) Seek(ctx context.Context, pos time.Duration) error {
	c.mu.Lock()
	if c.disposed || pos < 0 || c.state == StateStopped {
		c.mu.Unlock()
		return nil
	}
	err := c.backend.Seek(ctx, c.id, pos)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	c.notify()
	return nil
}

// SetVolume forwards the level to the backend and reports acceptance.
// The accepted value is cached and reused on re-prepare.
func (c *Controller) SetVolume(ctx context.Context, level float64) bool {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return false
	}
	err := c.backend.SetVolume(ctx, c.id, level)
	if err == nil {
		c.opts.Volume = level
	}
	c.mu.Unlock()
	if err != nil {
		return false
	}
	c.notify()
	return true
}

// SetRate forwards the playback rate to the backend and reports
// acceptance.
func (c *Controller) SetRate(ctx context.Context, rate float64) bool {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return false
	}
	err := c.backend.SetRate(ctx, c.id, rate)
	if err == nil {
		c.opts.Rate = rate
	}
	c.mu.Unlock()
	if err != nil {
		return false
	}
	c.notify()
	return true
}

// SetFinishMode selects the policy applied on natural completion.
func (c *Controller) SetFinishMode(ctx context.Context, mode player.FinishMode) error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil
	}
	err := c.backend.SetFinishMode(ctx, c.id, mode)
	if err == nil {
		c.opts.FinishMode = mode
	}
	c.mu.Unlock()
	if err != nil {
		return err
	}
	c.notify()
	return nil
}

// Duration queries the backend. ok is false when the backend has no
// answer; that is a sentinel, not a failure.
func (c *Controller) Duration(ctx context.Context, kind player.DurationKind) (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return 0, false
	}
	d, err := c.backend.Duration(ctx, c.id, kind)
	if err != nil {
		return 0, false
	}
	return d, true
}

// ExtractWaveform starts an asynchronous extraction of sampleCount
// amplitude values from the file at path. Any extraction already in
// flight for this player is cancelled first: it delivers no result,
// and only the new session's outcome is ever observed.
func (c *Controller) ExtractWaveform(ctx context.Context, path string, sampleCount int) (*waveform.Session, error) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil, ErrDisposed
	}
	if c.session != nil {
		c.session.Cancel()
	}
	s := c.mgr.extractor.Extract(ctx, path, sampleCount)
	c.session = s
	c.mu.Unlock()
	c.notify()
	return s, nil
}

// WaveformSession returns the most recent extraction session, or nil.
func (c *Controller) WaveformSession() *waveform.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// StateChanges returns a live filtered view of this player's state
// transitions. Close it when done.
func (c *Controller) StateChanges() *bus.Subscription[StateChange] {
	return c.hub.states.Subscribe(c.id)
}

// DurationTicks returns a live filtered view of this player's position
// reports. Close it when done.
func (c *Controller) DurationTicks() *bus.Subscription[DurationTick] {
	return c.hub.durations.Subscribe(c.id)
}

// Completions returns a live filtered view of this player's completion
// events. Close it when done.
func (c *Controller) Completions() *bus.Subscription[Completion] {
	return c.hub.completions.Subscribe(c.id)
}

// Dispose releases the player: stops it if needed (best-effort),
// releases backend resources, cancels any extraction in flight and
// unregisters from the manager. Idempotent; a second call performs no
// backend calls. The instance is permanently inert afterwards.
func (c *Controller) Dispose(ctx context.Context) error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil
	}
	if c.state != StateStopped {
		// Best-effort: a failing stop must not block disposal.
		_ = c.backend.Stop(ctx, c.id)
		c.setStateLocked(StateStopped)
	}
	_ = c.backend.Release(ctx, c.id)
	if c.session != nil {
		c.session.Cancel()
		c.session = nil
	}
	c.disposed = true
	c.mu.Unlock()

	c.mgr.remove(c.id)
	c.notify()
	return nil
}

// setStateLocked mutates the state and publishes the transition in the
// same critical section. Callers must hold c.mu.
func (c *Controller) setStateLocked(next State) {
	prev := c.state
	c.state = next
	c.hub.states.Publish(c.id, StateChange{Previous: prev, Current: next})
}

// applyBackendState force-sets the state from a backend push and
// publishes the transition in the same critical section, so a
// subscriber that observes the event can never read an older state.
func (c *Controller) applyBackendState(s player.State) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.setStateLocked(fromBackend(s))
	c.mu.Unlock()
	c.notify()
}

// handleCompletion applies the finish-mode policy to a backend
// completion event.
func (c *Controller) handleCompletion() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	switch c.opts.FinishMode {
	case player.FinishStop:
		c.setStateLocked(StateStopped)
	case player.FinishPause:
		c.setStateLocked(StatePaused)
	case player.FinishLoop:
		// Backend keeps playing; no transition.
	}
	c.mu.Unlock()
	c.notify()
}

// forceState applies a backend-authoritative bulk transition, bypassing
// the per-instance guard policy. Disposed players are silently skipped.
func (c *Controller) forceState(target State) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.setStateLocked(target)
	c.mu.Unlock()
	c.notify()
}

// notify fires the change hook outside the lock.
func (c *Controller) notify() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}
