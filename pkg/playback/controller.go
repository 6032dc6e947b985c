package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/stepper/internal/logging"
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/ports"
)

// ErrNoGenerator is returned by Reinitialize when the controller was built from a bare trace.
var ErrNoGenerator = errors.New("controller has no trace generator")

// Controller plays a Trace back under user control.
//
// It owns the trace, the cursor and the advance timer exclusively. Every operation is
// total: boundaries turn into no-ops instead of errors. The advance timer is an owned
// handle tagged with an epoch; every state change that must not be followed by a stale
// advance bumps the epoch, and a firing timer whose epoch is no longer current is dropped.
//
// Hooks and listeners observe changes in the order they were applied, whichever
// goroutine applied them.
type Controller struct {
	mu      sync.Mutex
	trace   domain.Trace
	state   domain.PlaybackState
	pending ports.Timer
	epoch   uint64
	closed  bool
	done    chan struct{}

	// outbox holds publications not yet delivered; publishing is set while
	// one goroutine drains it.
	outbox     []publication
	publishing bool

	gen     ports.TraceGenerator
	params  domain.Params
	clock   ports.Clock
	onReset func() error

	hooks     domain.PlaybackHooks
	logger    *slog.Logger
	session   string
	algorithm string

	listenersMu  sync.Mutex
	listeners    map[int]func(domain.View)
	nextListener int
}

// New creates an idle controller over t.
func New(t domain.Trace, opts ...Option) (*Controller, error) {
	if t.IsZero() {
		return nil, domain.ErrEmptyTrace
	}
	c := &Controller{
		trace:     t,
		state:     domain.PlaybackState{Speed: domain.DefaultSpeed},
		clock:     ports.SystemClock{},
		logger:    logging.NewNop(),
		listeners: make(map[int]func(domain.View)),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewFromGenerator compiles a trace with gen and returns an idle controller over it.
// The generator is kept for Reinitialize.
func NewFromGenerator(ctx context.Context, gen ports.TraceGenerator, params domain.Params, opts ...Option) (*Controller, error) {
	start := time.Now()
	t, err := gen.Generate(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("generate trace: %w", err)
	}
	elapsed := time.Since(start)

	c, err := New(t, append([]Option{WithGenerator(gen)}, opts...)...)
	if err != nil {
		return nil, err
	}
	c.params = params.Clone()
	c.transition(func() []domain.EventType {
		return []domain.EventType{domain.EventGenerated}
	}, withDuration(elapsed))
	return c, nil
}

// Subscribe registers a render callback invoked with the new View after every change.
// The returned function removes the subscription.
func (c *Controller) Subscribe(fn func(domain.View)) (unsubscribe func()) {
	c.listenersMu.Lock()
	id := c.nextListener
	c.nextListener++
	c.listeners[id] = fn
	c.listenersMu.Unlock()

	return func() {
		c.listenersMu.Lock()
		delete(c.listeners, id)
		c.listenersMu.Unlock()
	}
}

// View returns the current render view.
func (c *Controller) View() domain.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// State returns a copy of the playback state.
func (c *Controller) State() domain.PlaybackState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Trace returns the trace being played.
func (c *Controller) Trace() domain.Trace {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.trace
}

// Algorithm returns the name of the algorithm being played, if known.
func (c *Controller) Algorithm() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.algorithm
}

// Params returns the parameters the current trace was generated from, if known.
func (c *Controller) Params() domain.Params {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params.Clone()
}

// Play starts timer driven playback. At the last step it rewinds to the first step first.
// Calling Play while playing does nothing. A single step trace never plays.
func (c *Controller) Play() {
	c.transition(func() []domain.EventType {
		if c.state.IsPlaying || c.closed {
			return nil
		}
		var events []domain.EventType
		if c.state.Cursor == c.trace.LastIndex() && c.state.Cursor != 0 {
			c.state.Cursor = 0
			events = append(events, domain.EventSeek)
		}
		if c.state.Cursor == c.trace.LastIndex() {
			return events
		}
		c.state.IsPlaying = true
		c.armLocked()
		return append(events, domain.EventPlay)
	})
}

// Pause stops playback and cancels any pending advance.
func (c *Controller) Pause() {
	c.transition(func() []domain.EventType {
		c.cancelLocked()
		if !c.state.IsPlaying {
			return nil
		}
		c.state.IsPlaying = false
		return []domain.EventType{domain.EventPause}
	})
}

// Toggle pauses when playing and plays otherwise.
func (c *Controller) Toggle() {
	if c.State().IsPlaying {
		c.Pause()
		return
	}
	c.Play()
}

// Step moves one step forward. It does not change the playing flag, except that
// reaching the last step ends playback.
func (c *Controller) Step() {
	c.transition(func() []domain.EventType {
		if c.closed || c.state.Cursor >= c.trace.LastIndex() {
			return nil
		}
		c.state.Cursor++
		return append([]domain.EventType{domain.EventStep}, c.stopAtEndLocked()...)
	})
}

// StepBack moves one step backward and cancels the pending advance.
// If playback is running it continues from the new position with a fresh delay.
func (c *Controller) StepBack() {
	c.transition(func() []domain.EventType {
		if c.closed || c.state.Cursor <= 0 {
			return nil
		}
		c.cancelLocked()
		c.state.Cursor--
		if c.state.IsPlaying {
			c.armLocked()
		}
		return []domain.EventType{domain.EventStepBack}
	})
}

// Seek jumps to index i, clamped into the trace.
func (c *Controller) Seek(i int) {
	c.transition(func() []domain.EventType {
		if c.closed {
			return nil
		}
		if i < 0 {
			i = 0
		}
		if last := c.trace.LastIndex(); i > last {
			i = last
		}
		if i == c.state.Cursor {
			return nil
		}
		c.cancelLocked()
		c.state.Cursor = i
		events := append([]domain.EventType{domain.EventSeek}, c.stopAtEndLocked()...)
		if c.state.IsPlaying {
			c.armLocked()
		}
		return events
	})
}

// Reset rewinds to the first step, stops playback and then runs the OnReset callback.
// The callback's error is returned as is. Reset on a closed controller does nothing.
func (c *Controller) Reset() error {
	closed := false
	c.transition(func() []domain.EventType {
		if c.closed {
			closed = true
			return nil
		}
		c.cancelLocked()
		c.state.Cursor = 0
		c.state.IsPlaying = false
		return []domain.EventType{domain.EventReset}
	})

	if !closed && c.onReset != nil {
		return c.onReset()
	}
	return nil
}

// SetSpeed changes the speed dial. The new delay applies from the next armed advance.
func (c *Controller) SetSpeed(v int) {
	c.transition(func() []domain.EventType {
		v = domain.ClampSpeed(v)
		if c.closed || v == c.state.Speed {
			return nil
		}
		c.state.Speed = v
		return []domain.EventType{domain.EventSpeed}
	})
}

// Reinitialize regenerates the whole trace from params and returns to idle.
// On error the current trace and state are left untouched.
func (c *Controller) Reinitialize(ctx context.Context, params domain.Params) error {
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()
	if gen == nil {
		return ErrNoGenerator
	}
	return c.regenerate(ctx, "", gen, params)
}

// SwitchAlgorithm regenerates with a different generator, which Reinitialize
// uses from then on. On error nothing changes.
func (c *Controller) SwitchAlgorithm(ctx context.Context, name string, gen ports.TraceGenerator, params domain.Params) error {
	return c.regenerate(ctx, name, gen, params)
}

func (c *Controller) regenerate(ctx context.Context, name string, gen ports.TraceGenerator, params domain.Params) error {
	start := time.Now()
	t, err := gen.Generate(ctx, params)
	if err != nil {
		return fmt.Errorf("generate trace: %w", err)
	}
	if t.IsZero() {
		return domain.ErrEmptyTrace
	}
	elapsed := time.Since(start)

	c.transition(func() []domain.EventType {
		if c.closed {
			return nil
		}
		c.cancelLocked()
		if name != "" {
			c.algorithm = name
		}
		c.gen = gen
		c.trace = t
		c.params = params.Clone()
		c.state.Cursor = 0
		c.state.IsPlaying = false
		return []domain.EventType{domain.EventReinit}
	}, withDuration(elapsed))
	return nil
}

// Load replaces the trace with t and returns to idle.
func (c *Controller) Load(t domain.Trace) error {
	if t.IsZero() {
		return domain.ErrEmptyTrace
	}
	c.transition(func() []domain.EventType {
		if c.closed {
			return nil
		}
		c.cancelLocked()
		c.trace = t
		c.params = nil
		c.state.Cursor = 0
		c.state.IsPlaying = false
		return []domain.EventType{domain.EventReinit}
	})
	return nil
}

// Close cancels the pending advance and drops all subscribers once they have
// seen the final view. The controller stays readable; every operation after
// Close does nothing.
func (c *Controller) Close() {
	c.transition(func() []domain.EventType {
		if c.closed {
			return nil
		}
		c.cancelLocked()
		c.state.IsPlaying = false
		c.closed = true
		close(c.done)
		return []domain.EventType{domain.EventClose}
	})
}

// Done returns a channel that is closed when the controller is closed.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// fire is the advance timer callback. A stale epoch means the timer was
// cancelled after it had already started; such a tick must not touch state.
func (c *Controller) fire(epoch uint64) {
	c.transition(func() []domain.EventType {
		if epoch != c.epoch || !c.state.IsPlaying || c.closed {
			c.logger.Debug("dropping stale advance", "epoch", epoch, "current", c.epoch)
			return nil
		}
		c.pending = nil
		if c.state.Cursor >= c.trace.LastIndex() {
			c.state.IsPlaying = false
			return []domain.EventType{domain.EventAutoPause}
		}
		c.state.Cursor++
		if c.state.Cursor == c.trace.LastIndex() {
			c.state.IsPlaying = false
			return []domain.EventType{domain.EventAdvance, domain.EventAutoPause}
		}
		c.armLocked()
		return []domain.EventType{domain.EventAdvance}
	})
}

// stopAtEndLocked enforces that playback never continues on the last step.
func (c *Controller) stopAtEndLocked() []domain.EventType {
	if c.state.Cursor == c.trace.LastIndex() && c.state.IsPlaying {
		c.cancelLocked()
		c.state.IsPlaying = false
		return []domain.EventType{domain.EventAutoPause}
	}
	return nil
}

func (c *Controller) armLocked() {
	c.cancelLocked()
	if c.closed {
		return
	}
	epoch := c.epoch
	c.pending = c.clock.AfterFunc(Delay(c.state.Speed), func() { c.fire(epoch) })
}

func (c *Controller) cancelLocked() {
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
	c.epoch++
}

func (c *Controller) viewLocked() domain.View {
	return domain.View{
		CurrentStep: c.trace.At(c.state.Cursor),
		Cursor:      c.state.Cursor,
		TotalSteps:  c.trace.Len(),
		IsPlaying:   c.state.IsPlaying,
		Speed:       c.state.Speed,
		Status:      c.state.Status(),
	}
}

type transitionConfig struct {
	duration time.Duration
}

type transitionOption func(*transitionConfig)

func withDuration(d time.Duration) transitionOption {
	return func(tc *transitionConfig) {
		tc.duration = d
	}
}

// publication is one applied change waiting to be delivered.
type publication struct {
	at        time.Time
	events    []domain.EventType
	before    domain.PlaybackState
	after     domain.PlaybackState
	total     int
	algorithm string
	view      domain.View
	duration  time.Duration
}

// transition runs fn under the lock and queues the produced events with the
// resulting view. Publications are delivered in queue order by whichever caller
// finds nobody else draining, with the lock released so hooks and listeners may
// call back in. A call made from inside a listener returns before its own
// publication is delivered.
func (c *Controller) transition(fn func() []domain.EventType, opts ...transitionOption) {
	var cfg transitionConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	c.mu.Lock()
	before := c.state
	events := fn()
	if len(events) == 0 {
		c.mu.Unlock()
		return
	}
	c.outbox = append(c.outbox, publication{
		at:        c.clock.Now(),
		events:    events,
		before:    before,
		after:     c.state,
		total:     c.trace.Len(),
		algorithm: c.algorithm,
		view:      c.viewLocked(),
		duration:  cfg.duration,
	})
	if c.publishing {
		c.mu.Unlock()
		return
	}
	c.publishing = true
	c.mu.Unlock()

	c.drain()
}

func (c *Controller) drain() {
	for {
		c.mu.Lock()
		batch := c.outbox
		c.outbox = nil
		if len(batch) == 0 {
			c.publishing = false
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()

		for _, p := range batch {
			c.publish(p)
		}
	}
}

func (c *Controller) publish(p publication) {
	for _, typ := range p.events {
		c.logger.Debug("playback transition",
			"event", typ,
			"cursor", p.after.Cursor,
			"playing", p.after.IsPlaying,
			"total", p.total,
		)
		c.hooks.Emit(&domain.PlaybackEvent{
			Timestamp: p.at,
			Type:      typ,
			Session:   c.session,
			Algorithm: p.algorithm,
			Before:    p.before,
			After:     p.after,
			Total:     p.total,
			Duration:  p.duration,
		})
	}

	c.listenersMu.Lock()
	listeners := make([]func(domain.View), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	if slices.Contains(p.events, domain.EventClose) {
		c.listeners = make(map[int]func(domain.View))
	}
	c.listenersMu.Unlock()

	for _, fn := range listeners {
		fn(p.view)
	}
}
