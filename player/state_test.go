package player

import "testing"

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{Stopped, "Stopped"},
		{Playing, "Playing"},
		{Paused, "Paused"},
		{State(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestDurationKind_String(t *testing.T) {
	tests := []struct {
		kind DurationKind
		want string
	}{
		{DurationCurrent, "Current"},
		{DurationMax, "Max"},
		{DurationKind(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestFinishMode_String(t *testing.T) {
	tests := []struct {
		mode FinishMode
		want string
	}{
		{FinishStop, "Stop"},
		{FinishPause, "Pause"},
		{FinishLoop, "Loop"},
		{FinishMode(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.mode, got, tt.want)
		}
	}
}
