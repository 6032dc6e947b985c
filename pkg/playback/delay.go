package playback

import (
	"time"

	"github.com/aretw0/stepper/pkg/domain"
)

const (
	// SlowestDelay is the per-step delay at speed 0.
	SlowestDelay = 2000 * time.Millisecond
	// DelayFloor is the shortest per-step delay, reached at speed 100.
	DelayFloor = 100 * time.Millisecond
	// delayPerSpeed is how much each speed unit shaves off the delay.
	delayPerSpeed = 19 * time.Millisecond
)

// Delay maps a speed dial value to the time between two timer driven advances:
// max(100ms, 2000ms - speed*19ms). Out of range speeds are clamped first.
func Delay(speed int) time.Duration {
	d := SlowestDelay - time.Duration(domain.ClampSpeed(speed))*delayPerSpeed
	if d < DelayFloor {
		return DelayFloor
	}
	return d
}
