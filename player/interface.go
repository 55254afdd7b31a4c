// Package player defines the native playback backend contract and its
// implementations: Engine, the default backend built on beep, and Fake,
// a scriptable test double.
//
// A backend executes decode/playback work asynchronously for many
// players at once and reports back through identifier-tagged events on
// one raw channel per event kind. It never addresses a player other
// than by its identifier and never owns player instances.
package player

import (
	"context"
	"errors"
	"time"

	"github.com/mlaroche/polyplay/ident"
)

// Backend command failures surfaced to callers.
var (
	// ErrUnknownPlayer is returned for commands addressing an identifier
	// the backend has no prepared track for.
	ErrUnknownPlayer = errors.New("player: unknown identifier")
	// ErrDurationUnknown is returned when the backend has no answer for
	// a duration query. Callers treat it as a sentinel, not a failure.
	ErrDurationUnknown = errors.New("player: duration unknown")
	// ErrUnsupportedFormat is returned by Prepare for files the backend
	// cannot decode.
	ErrUnsupportedFormat = errors.New("player: unsupported format")
	// ErrInvalidRate is returned by SetRate for non-positive rates.
	ErrInvalidRate = errors.New("player: invalid playback rate")
)

// PrepareOptions configures a track at preparation time.
type PrepareOptions struct {
	Path            string
	UpdateInterval  time.Duration // cadence of duration events; 0 = default
	Volume          float64       // initial volume in [0,1]
	OverrideSession bool          // take over the platform audio session
}

// StateEvent is a backend-pushed state change tagged with its player.
type StateEvent struct {
	ID    ident.ID
	State State
}

// DurationEvent is a periodic position report tagged with its player.
type DurationEvent struct {
	ID       ident.ID
	Position time.Duration
}

// CompletionEvent signals natural end of playback for one player.
type CompletionEvent struct {
	ID ident.ID
}

// Backend is the native playback engine contract. A nil error means the
// command was accepted; a non-nil error is a backend rejection and must
// leave the caller's state untouched.
//
// All methods are safe for concurrent use across identifiers. Commands
// for the same identifier are expected to be serialized by the caller.
type Backend interface {
	Prepare(ctx context.Context, id ident.ID, opts PrepareOptions) error
	Start(ctx context.Context, id ident.ID) error
	Pause(ctx context.Context, id ident.ID) error
	Stop(ctx context.Context, id ident.ID) error

	SetVolume(ctx context.Context, id ident.ID, level float64) error
	SetRate(ctx context.Context, id ident.ID, rate float64) error
	Seek(ctx context.Context, id ident.ID, pos time.Duration) error
	SetFinishMode(ctx context.Context, id ident.ID, mode FinishMode) error

	// Duration reports the current position or total length of a track.
	// Returns ErrDurationUnknown when the backend has no answer.
	Duration(ctx context.Context, id ident.ID, kind DurationKind) (time.Duration, error)

	// Release frees all backend resources held for id.
	Release(ctx context.Context, id ident.ID) error

	// StopAll and PauseAll act on every active native player in one call.
	StopAll(ctx context.Context) error
	PauseAll(ctx context.Context) error

	// Raw event channels: one per kind, shared by all players, with the
	// target embedded in each event. Consumers demultiplex by identifier.
	StateEvents() <-chan StateEvent
	DurationEvents() <-chan DurationEvent
	CompletionEvents() <-chan CompletionEvent
}
