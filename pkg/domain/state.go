package domain

// PlaybackStatus is the coarse state of a playback controller.
type PlaybackStatus string

const (
	StatusIdle    PlaybackStatus = "idle"    // Cursor at the first step, not playing
	StatusPlaying PlaybackStatus = "playing" // Advancing on a timer
	StatusPaused  PlaybackStatus = "paused"  // Stopped somewhere past the first step
)

// Speed bounds. Speed is a unitless 0..100 dial mapped to a per-step delay.
const (
	MinSpeed     = 0
	MaxSpeed     = 100
	DefaultSpeed = 25
)

// ClampSpeed forces v into [MinSpeed, MaxSpeed].
func ClampSpeed(v int) int {
	if v < MinSpeed {
		return MinSpeed
	}
	if v > MaxSpeed {
		return MaxSpeed
	}
	return v
}

// PlaybackState is the mutable part of a playback session.
// It is owned exclusively by a playback controller.
type PlaybackState struct {
	Cursor    int  `json:"cursor"`
	IsPlaying bool `json:"is_playing"`
	Speed     int  `json:"speed"`
}

// Status derives the coarse status from the state.
func (s PlaybackState) Status() PlaybackStatus {
	switch {
	case s.IsPlaying:
		return StatusPlaying
	case s.Cursor == 0:
		return StatusIdle
	default:
		return StatusPaused
	}
}

// View is what a render layer consumes on every change.
// Render layers must treat it as read-only.
type View struct {
	CurrentStep Step           `json:"current_step"`
	Cursor      int            `json:"cursor"`
	TotalSteps  int            `json:"total_steps"`
	IsPlaying   bool           `json:"is_playing"`
	Speed       int            `json:"speed"`
	Status      PlaybackStatus `json:"status"`
}

// AtEnd reports whether the view shows the final step.
func (v View) AtEnd() bool {
	return v.Cursor == v.TotalSteps-1
}
