package playback

import "time"

// StateChange is emitted on a player's filtered stream whenever its
// lifecycle state changes, whether from a validated local command, a
// backend push, or a bulk operation. The publish happens synchronously
// with the state mutation so observers never read a stale state after
// being notified.
type StateChange struct {
	Previous State
	Current  State
}

// DurationTick is the periodic position report for one player. Cadence
// follows the update interval the player was prepared with.
type DurationTick struct {
	Position time.Duration
}

// Completion is emitted when a track plays to its natural end. The
// accompanying state transition (if any) is governed by the player's
// finish mode and arrives on the state stream.
type Completion struct{}
