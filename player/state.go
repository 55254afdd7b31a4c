package player

// State is the backend-level playback state of one native player.
// The coordination layer in package playback tracks a richer per-player
// lifecycle; this enum only covers what the native engine itself knows.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

// String returns the state name for debugging.
func (s State) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// DurationKind selects which duration a query reports.
type DurationKind int

const (
	// DurationCurrent is the current playback position.
	DurationCurrent DurationKind = iota
	// DurationMax is the total track length.
	DurationMax
)

// String returns the kind name.
func (k DurationKind) String() string {
	switch k {
	case DurationCurrent:
		return "Current"
	case DurationMax:
		return "Max"
	default:
		return "Unknown"
	}
}

// FinishMode is the policy applied when a track plays to its natural end.
type FinishMode int

const (
	// FinishStop stops the player on completion.
	FinishStop FinishMode = iota
	// FinishPause holds the player paused at the end of the track.
	FinishPause
	// FinishLoop restarts the track from the beginning.
	FinishLoop
)

// String returns the mode name.
func (m FinishMode) String() string {
	switch m {
	case FinishStop:
		return "Stop"
	case FinishPause:
		return "Pause"
	case FinishLoop:
		return "Loop"
	default:
		return "Unknown"
	}
}
