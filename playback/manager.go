package playback

import (
	"context"
	"sync"
	"time"

	"github.com/mlaroche/polyplay/bus"
	"github.com/mlaroche/polyplay/ident"
	"github.com/mlaroche/polyplay/player"
	"github.com/mlaroche/polyplay/waveform"
)

const defaultUpdateInterval = 200 * time.Millisecond

// hub carries the three filtered event buses of one registry
// generation. It is created when the registry becomes non-empty and
// closed when it empties; every subscription taken from it observes
// Done on teardown and no further events.
type hub struct {
	states      *bus.Bus[StateChange]
	durations   *bus.Bus[DurationTick]
	completions *bus.Bus[Completion]
}

func newHub() *hub {
	return &hub{
		states:      bus.New[StateChange](),
		durations:   bus.New[DurationTick](),
		completions: bus.New[Completion](),
	}
}

func (h *hub) close() {
	h.states.Close()
	h.durations.Close()
	h.completions.Close()
}

// Manager is the process-scoped registry of player instances sharing
// one backend. It owns the event hub lifecycle (torn down when the
// last player is disposed, lazily re-initialized by the next NewPlayer)
// and demultiplexes the backend's raw event channels onto per-player
// filtered views.
//
// Pass the Manager to whoever constructs players; it replaces ambient
// global state.
type Manager struct {
	backend   player.Backend
	extractor *waveform.Extractor

	mu      sync.Mutex
	players map[ident.ID]*Controller
	hub     *hub

	pumpOnce sync.Once
}

// NewManager creates a manager over a backend. A nil extractor falls
// back to one using the default file decoder.
func NewManager(b player.Backend, ext *waveform.Extractor) *Manager {
	if ext == nil {
		ext = waveform.NewExtractor(nil)
	}
	return &Manager{
		backend:   b,
		extractor: ext,
		players:   make(map[ident.ID]*Controller),
	}
}

// NewPlayer registers a new player instance. Zero-value option fields
// select defaults. Constructing the first player (re)initializes the
// event hub; the transition is race-free under the manager lock.
func (m *Manager) NewPlayer(opts Options) *Controller {
	if opts.UpdateInterval <= 0 {
		opts.UpdateInterval = defaultUpdateInterval
	}
	if opts.Volume <= 0 {
		opts.Volume = 1
	}
	if opts.Rate <= 0 {
		opts.Rate = 1
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.hub == nil {
		m.hub = newHub()
	}
	c := &Controller{
		id:      ident.New(),
		mgr:     m,
		backend: m.backend,
		hub:     m.hub,
		state:   StateUninitialized,
		opts:    opts,
	}
	m.players[c.id] = c

	m.pumpOnce.Do(func() { go m.pump() })
	return c
}

// Player looks up a live player by identifier. The reference is weak:
// a missing identifier means the instance was disposed and callers
// must treat its events as ignorable, never as fatal.
func (m *Manager) Player(id ident.ID) (*Controller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.players[id]
	return c, ok
}

// Players returns a snapshot of all live players.
func (m *Manager) Players() []*Controller {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Controller, 0, len(m.players))
	for _, c := range m.players {
		out = append(out, c)
	}
	return out
}

// Len returns the number of live players.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.players)
}

// StopAll stops every active native player in one backend call. On
// success each live player is force-set to Stopped, bypassing the
// per-instance guard policy; players disposed concurrently are
// silently skipped.
func (m *Manager) StopAll(ctx context.Context) error {
	if err := m.backend.StopAll(ctx); err != nil {
		return err
	}
	for _, c := range m.Players() {
		c.forceState(StateStopped)
	}
	return nil
}

// PauseAll pauses every active native player in one backend call. On
// success each live player is force-set to Paused.
func (m *Manager) PauseAll(ctx context.Context) error {
	if err := m.backend.PauseAll(ctx); err != nil {
		return err
	}
	for _, c := range m.Players() {
		c.forceState(StatePaused)
	}
	return nil
}

// remove unregisters a disposed player. When the registry empties, the
// hub is closed: all filtered views observe Done and later backend
// events are dropped until the next NewPlayer re-initializes it.
func (m *Manager) remove(id ident.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.players, id)
	if len(m.players) == 0 && m.hub != nil {
		m.hub.close()
		m.hub = nil
	}
}

// route resolves an event target. Both values reflect one consistent
// snapshot: a nil controller means the identifier is stale and the
// event must be dropped.
func (m *Manager) route(id ident.ID) (*Controller, *hub) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.players[id], m.hub
}

// pump drains the backend's raw event channels for the life of the
// process, demultiplexing by the identifier embedded in each event.
// Events for unregistered identifiers are dropped, not escalated.
func (m *Manager) pump() {
	states := m.backend.StateEvents()
	durations := m.backend.DurationEvents()
	completions := m.backend.CompletionEvents()
	for {
		select {
		case ev := <-states:
			c, _ := m.route(ev.ID)
			if c == nil {
				continue
			}
			// The controller publishes the transition itself, inside
			// its own critical section, so the event stream can never
			// run behind the state.
			c.applyBackendState(ev.State)
		case ev := <-durations:
			c, h := m.route(ev.ID)
			if c == nil || h == nil {
				continue
			}
			h.durations.Publish(ev.ID, DurationTick{Position: ev.Position})
		case ev := <-completions:
			c, h := m.route(ev.ID)
			if c == nil {
				continue
			}
			c.handleCompletion()
			if h != nil {
				h.completions.Publish(ev.ID, Completion{})
			}
		}
	}
}
