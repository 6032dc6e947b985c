package share

import (
	"context"
	"time"

	"github.com/aretw0/stepper/pkg/ports"
)

// DefaultSettleDelay is how long Restore waits before running the focus callback.
const DefaultSettleDelay = 150 * time.Millisecond

// Player is the part of a playback controller a restored state is applied to.
type Player interface {
	Seek(i int)
	SetSpeed(v int)
}

type restoreConfig struct {
	clock      ports.Clock
	settle     time.Duration
	focus      func()
	regenerate func(ctx context.Context, s VisualizerState) error
}

// RestoreOption configures Restore.
type RestoreOption func(*restoreConfig)

// WithFocus runs fn once the layout had time to settle, e.g. to scroll the
// visualizer into view.
func WithFocus(fn func()) RestoreOption {
	return func(c *restoreConfig) {
		c.focus = fn
	}
}

// WithSettleDelay overrides DefaultSettleDelay.
func WithSettleDelay(d time.Duration) RestoreOption {
	return func(c *restoreConfig) {
		c.settle = d
	}
}

// WithRestoreClock replaces the wall clock, mostly for tests.
func WithRestoreClock(clock ports.Clock) RestoreOption {
	return func(c *restoreConfig) {
		c.clock = clock
	}
}

// WithRegenerate is called before the cursor is applied when the state carries an
// array or an algorithm, so the trace matches the shared input.
func WithRegenerate(fn func(ctx context.Context, s VisualizerState) error) RestoreOption {
	return func(c *restoreConfig) {
		c.regenerate = fn
	}
}

// Restore decodes the fragment of loc once and applies it to p.
// It returns the decoded state, or nil when the fragment held nothing usable.
// A failing regeneration is returned and the cursor is left alone.
func Restore(ctx context.Context, codec *Codec[VisualizerState], loc *Location, p Player, opts ...RestoreOption) (*VisualizerState, error) {
	cfg := restoreConfig{
		clock:  ports.SystemClock{},
		settle: DefaultSettleDelay,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	state := codec.Read(loc)
	if state == nil {
		return nil, nil
	}

	if cfg.regenerate != nil && (len(state.Array) > 0 || state.Algorithm != "" || state.Target != nil) {
		if err := cfg.regenerate(ctx, *state); err != nil {
			return state, err
		}
	}
	Apply(*state, p)
	if cfg.focus != nil {
		cfg.clock.AfterFunc(cfg.settle, cfg.focus)
	}
	return state, nil
}

// Apply sets the speed and then the cursor of p from s. Undefined fields are skipped.
func Apply(s VisualizerState, p Player) {
	if s.Speed != nil {
		p.SetSpeed(*s.Speed)
	}
	if s.Step != nil {
		p.Seek(*s.Step)
	}
}
