package playback

import (
	"testing"

	"github.com/mlaroche/polyplay/player"
)

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateUninitialized, "Uninitialized"},
		{StateInitialized, "Initialized"},
		{StatePlaying, "Playing"},
		{StatePaused, "Paused"},
		{StateStopped, "Stopped"},
		{State(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestState_Guards(t *testing.T) {
	tests := []struct {
		state    State
		canStart bool
		canPause bool
		canStop  bool
	}{
		{StateUninitialized, false, false, false},
		{StateInitialized, true, false, true},
		{StatePlaying, false, true, true},
		{StatePaused, true, false, true},
		{StateStopped, false, false, false},
	}
	for _, tt := range tests {
		if got := tt.state.CanStart(); got != tt.canStart {
			t.Errorf("%v.CanStart() = %v, want %v", tt.state, got, tt.canStart)
		}
		if got := tt.state.CanPause(); got != tt.canPause {
			t.Errorf("%v.CanPause() = %v, want %v", tt.state, got, tt.canPause)
		}
		if got := tt.state.CanStop(); got != tt.canStop {
			t.Errorf("%v.CanStop() = %v, want %v", tt.state, got, tt.canStop)
		}
	}
}

func TestState_IsActive(t *testing.T) {
	tests := []struct {
		state State
		want  bool
	}{
		{StateUninitialized, false},
		{StateInitialized, false},
		{StatePlaying, true},
		{StatePaused, true},
		{StateStopped, false},
	}
	for _, tt := range tests {
		if got := tt.state.IsActive(); got != tt.want {
			t.Errorf("%v.IsActive() = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestFromBackend(t *testing.T) {
	tests := []struct {
		backend player.State
		want    State
	}{
		{player.Playing, StatePlaying},
		{player.Paused, StatePaused},
		{player.Stopped, StateStopped},
	}
	for _, tt := range tests {
		if got := fromBackend(tt.backend); got != tt.want {
			t.Errorf("fromBackend(%v) = %v, want %v", tt.backend, got, tt.want)
		}
	}
}
