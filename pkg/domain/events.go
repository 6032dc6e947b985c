package domain

import (
	"time"
)

// EventType defines the controller operation that produced an event.
type EventType string

const (
	EventPlay      EventType = "play"
	EventPause     EventType = "pause"
	EventAdvance   EventType = "advance" // Timer driven increment
	EventStep      EventType = "step"
	EventStepBack  EventType = "step_back"
	EventSeek      EventType = "seek"
	EventReset     EventType = "reset"
	EventReinit    EventType = "reinitialize"
	EventSpeed     EventType = "speed"
	EventAutoPause EventType = "auto_pause" // Reached the last step while playing
	EventGenerated EventType = "generated"  // A new trace was compiled
	EventClose     EventType = "close"
)

// PlaybackEvent describes one state transition of a controller.
type PlaybackEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	Type      EventType     `json:"type"`
	Session   string        `json:"session,omitempty"`
	Algorithm string        `json:"algorithm,omitempty"`
	Before    PlaybackState `json:"before"`
	After     PlaybackState `json:"after"`
	Total     int           `json:"total"`
	// Duration is set for EventGenerated.
	Duration time.Duration `json:"duration,omitempty"`
}

// PlaybackHooks defines callbacks for controller observability.
// Hooks run after the controller has released its lock, so they may call back into it.
type PlaybackHooks struct {
	OnChange func(*PlaybackEvent)
}

// Emit invokes the hook if it is set.
func (h PlaybackHooks) Emit(e *PlaybackEvent) {
	if h.OnChange != nil {
		h.OnChange(e)
	}
}

// Chain combines several hook sets into one, invoked in order.
func Chain(hooks ...PlaybackHooks) PlaybackHooks {
	return PlaybackHooks{
		OnChange: func(e *PlaybackEvent) {
			for _, h := range hooks {
				h.Emit(e)
			}
		},
	}
}
