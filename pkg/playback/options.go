package playback

import (
	"log/slog"

	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/ports"
)

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(clock ports.Clock) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.PlaybackHooks) Option {
	return func(c *Controller) {
		c.hooks = hooks
	}
}

// WithSpeed sets the initial speed (clamped). Default is domain.DefaultSpeed.
func WithSpeed(speed int) Option {
	return func(c *Controller) {
		c.state.Speed = domain.ClampSpeed(speed)
	}
}

// WithOnReset registers a callback run by Reset after the cursor has been rewound.
// It is meant for side effects outside the trace, like re-randomizing a displayed array.
func WithOnReset(fn func() error) Option {
	return func(c *Controller) {
		c.onReset = fn
	}
}

// WithGenerator attaches the generator used by Reinitialize.
func WithGenerator(gen ports.TraceGenerator) Option {
	return func(c *Controller) {
		c.gen = gen
	}
}

// WithSession labels emitted events with a session ID.
func WithSession(id string) Option {
	return func(c *Controller) {
		c.session = id
	}
}

// WithAlgorithm labels emitted events with the algorithm name.
func WithAlgorithm(name string) Option {
	return func(c *Controller) {
		c.algorithm = name
	}
}
