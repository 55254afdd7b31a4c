// Package playback coordinates many independently controlled players
// sharing one native backend: a per-player lifecycle state machine, a
// process-scoped registry with occupancy-driven event hub lifecycle,
// and identifier-filtered event views for callers.
package playback

import "github.com/mlaroche/polyplay/player"

// State is the lifecycle state of one player instance.
//
// The state machine has five states with the following transitions:
//
//	uninitialized --prepare--> initialized
//	initialized   --start----> playing
//	paused        --start----> playing
//	playing       --pause----> paused
//	{playing,paused,initialized} --stop--> stopped
//	(completion event, finish mode = stop) --> stopped
//	any --dispose--> inert (no further transitions)
//
// Commands that do not match a valid transition are silent no-ops; a
// command the backend rejects leaves the state unchanged.
type State int

const (
	StateUninitialized State = iota
	StateInitialized
	StatePlaying
	StatePaused
	StateStopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateInitialized:
		return "Initialized"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// CanStart returns true if the state allows starting playback.
func (s State) CanStart() bool {
	return s == StateInitialized || s == StatePaused
}

// CanPause returns true if the state allows pausing.
func (s State) CanPause() bool {
	return s == StatePlaying
}

// CanStop returns true if the state allows stopping.
func (s State) CanStop() bool {
	return s == StatePlaying || s == StatePaused || s == StateInitialized
}

// IsActive returns true if playback is active (playing or paused).
func (s State) IsActive() bool {
	return s == StatePlaying || s == StatePaused
}

// fromBackend maps a backend-level state onto the player lifecycle.
func fromBackend(s player.State) State {
	switch s {
	case player.Playing:
		return StatePlaying
	case player.Paused:
		return StatePaused
	default:
		return StateStopped
	}
}
