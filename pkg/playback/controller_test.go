package playback_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/stepper/internal/testutils"
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/playback"
	"github.com/aretw0/stepper/pkg/ports"
	"github.com/aretw0/stepper/pkg/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTrace(t *testing.T, n int) domain.Trace {
	t.Helper()
	steps := make([]domain.Step, n)
	for i := range steps {
		steps[i] = domain.Step{Description: fmt.Sprintf("step %d", i), Payload: i}
	}
	tr, err := domain.NewTrace(steps)
	require.NoError(t, err)
	return tr
}

func newController(t *testing.T, n int, opts ...playback.Option) (*playback.Controller, *testutils.FakeClock) {
	t.Helper()
	clock := testutils.NewFakeClock()
	c, err := playback.New(newTrace(t, n), append([]playback.Option{playback.WithClock(clock)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c, clock
}

func assertInvariants(t *testing.T, c *playback.Controller) {
	t.Helper()
	s := c.State()
	last := c.Trace().LastIndex()
	require.GreaterOrEqual(t, s.Cursor, 0)
	require.LessOrEqual(t, s.Cursor, last)
	if s.Cursor == last {
		require.False(t, s.IsPlaying, "must not be playing on the last step")
	}
	require.GreaterOrEqual(t, s.Speed, domain.MinSpeed)
	require.LessOrEqual(t, s.Speed, domain.MaxSpeed)
}

func TestNew_RejectsZeroTrace(t *testing.T) {
	_, err := playback.New(domain.Trace{})
	assert.ErrorIs(t, err, domain.ErrEmptyTrace)
}

func TestController_Defaults(t *testing.T) {
	c, _ := newController(t, 3)

	v := c.View()
	assert.Equal(t, 0, v.Cursor)
	assert.Equal(t, 3, v.TotalSteps)
	assert.False(t, v.IsPlaying)
	assert.Equal(t, domain.DefaultSpeed, v.Speed)
	assert.Equal(t, domain.StatusIdle, v.Status)
	assert.Equal(t, "step 0", v.CurrentStep.Description)
}

func TestController_PlaysToEndAndAutoPauses(t *testing.T) {
	c, clock := newController(t, 5, playback.WithSpeed(100))

	c.Play()
	assert.True(t, c.State().IsPlaying)
	assert.Equal(t, 100*time.Millisecond, clock.LastDelay())

	for i := 1; i <= 4; i++ {
		clock.Advance(100 * time.Millisecond)
		assertInvariants(t, c)
		assert.Equal(t, i, c.State().Cursor)
	}

	s := c.State()
	assert.Equal(t, 4, s.Cursor)
	assert.False(t, s.IsPlaying)
	assert.Equal(t, 0, clock.Pending(), "no timer may stay armed at the end")
	assert.Equal(t, domain.StatusPaused, c.View().Status)

	// Nothing else happens no matter how long we wait.
	clock.Advance(time.Minute)
	assert.Equal(t, 4, c.State().Cursor)
}

func TestController_PlayAtEndRewinds(t *testing.T) {
	c, _ := newController(t, 5)
	c.Seek(4)

	c.Play()

	s := c.State()
	assert.Equal(t, 0, s.Cursor)
	assert.True(t, s.IsPlaying)
}

func TestController_PlayIsIdempotent(t *testing.T) {
	c, clock := newController(t, 5)
	c.Play()
	c.Play()
	assert.Equal(t, 1, clock.Pending())
}

func TestController_SingleStepTraceNeverPlays(t *testing.T) {
	c, clock := newController(t, 1)

	c.Play()

	assert.False(t, c.State().IsPlaying)
	assert.Equal(t, 0, clock.Pending())
	assertInvariants(t, c)
}

func TestController_PauseCancelsPendingAdvance(t *testing.T) {
	c, clock := newController(t, 5)
	c.Play()
	c.Pause()

	clock.Advance(time.Hour)

	s := c.State()
	assert.Equal(t, 0, s.Cursor)
	assert.False(t, s.IsPlaying)
	assert.Equal(t, 0, clock.Pending())
}

// leakyClock hands out timers that cannot be stopped, so the callback always
// runs. This is what happens when a timer has already fired and is waiting on
// the controller lock while another goroutine pauses.
type leakyClock struct {
	mu        sync.Mutex
	callbacks []func()
}

type leakyTimer struct{}

func (leakyTimer) Stop() bool { return false }

func (l *leakyClock) Now() time.Time { return time.Time{} }

func (l *leakyClock) AfterFunc(d time.Duration, f func()) ports.Timer {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.callbacks = append(l.callbacks, f)
	return leakyTimer{}
}

func TestController_StaleTickIsDropped(t *testing.T) {
	tests := []struct {
		name   string
		action func(c *playback.Controller)
		cursor int
	}{
		{name: "pause", action: func(c *playback.Controller) { c.Pause() }, cursor: 2},
		{name: "reset", action: func(c *playback.Controller) { _ = c.Reset() }, cursor: 0},
		{name: "step back", action: func(c *playback.Controller) { c.Pause(); c.StepBack() }, cursor: 1},
		{name: "seek", action: func(c *playback.Controller) { c.Pause(); c.Seek(3) }, cursor: 3},
		{name: "reload", action: func(c *playback.Controller) { _ = c.Load(trace.Must(domain.NewTrace(make([]domain.Step, 6)))) }, cursor: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &leakyClock{}
			c, err := playback.New(newTrace(t, 6), playback.WithClock(clock))
			require.NoError(t, err)

			c.Seek(2)
			c.Play()
			require.Len(t, clock.callbacks, 1)
			stale := clock.callbacks[0]

			tt.action(c)
			stale()

			assert.Equal(t, tt.cursor, c.State().Cursor)
			assert.False(t, c.State().IsPlaying)
		})
	}
}

func TestController_StepStepBackInvertible(t *testing.T) {
	c, _ := newController(t, 5)

	for start := 0; start < 5; start++ {
		c.Seek(start)
		c.Step()
		c.StepBack()
		if start == 4 {
			// Step is a no-op at the end, so StepBack moves.
			assert.Equal(t, 3, c.State().Cursor)
			continue
		}
		assert.Equal(t, start, c.State().Cursor, "start=%d", start)
	}
}

func TestController_BoundariesAreNoOps(t *testing.T) {
	var events []domain.EventType
	hooks := domain.PlaybackHooks{OnChange: func(e *domain.PlaybackEvent) { events = append(events, e.Type) }}
	c, _ := newController(t, 3, playback.WithHooks(hooks))

	c.StepBack()
	assert.Equal(t, 0, c.State().Cursor)

	c.Seek(2)
	events = nil
	c.Step()
	assert.Equal(t, 2, c.State().Cursor)
	assert.Empty(t, events)
}

func TestController_StepWhilePlayingDoesNotPause(t *testing.T) {
	c, clock := newController(t, 5)
	c.Play()

	c.Step()
	assert.Equal(t, 1, c.State().Cursor)
	assert.True(t, c.State().IsPlaying)

	c.Seek(3)
	c.Step()
	s := c.State()
	assert.Equal(t, 4, s.Cursor)
	assert.False(t, s.IsPlaying, "reaching the end while playing auto-pauses")
	assert.Equal(t, 0, clock.Pending())
}

func TestController_StepBackWhilePlayingRearms(t *testing.T) {
	c, clock := newController(t, 5, playback.WithSpeed(100))
	c.Play()
	clock.Advance(100 * time.Millisecond)
	require.Equal(t, 1, c.State().Cursor)

	clock.Advance(50 * time.Millisecond)
	c.StepBack()

	assert.Equal(t, 0, c.State().Cursor)
	assert.True(t, c.State().IsPlaying)
	assert.Equal(t, 1, clock.Pending())

	// The old timer would have fired at +50ms; the fresh one needs a full delay.
	clock.Advance(50 * time.Millisecond)
	assert.Equal(t, 0, c.State().Cursor)
	clock.Advance(50 * time.Millisecond)
	assert.Equal(t, 1, c.State().Cursor)
}

func TestController_SeekClamps(t *testing.T) {
	c, _ := newController(t, 5)

	c.Seek(100)
	assert.Equal(t, 4, c.State().Cursor)

	c.Seek(-3)
	assert.Equal(t, 0, c.State().Cursor)
}

func TestController_ResetRunsCallback(t *testing.T) {
	called := 0
	c, clock := newController(t, 5, playback.WithOnReset(func() error {
		called++
		return nil
	}))
	c.Seek(3)
	c.Play()

	require.NoError(t, c.Reset())

	s := c.State()
	assert.Equal(t, 0, s.Cursor)
	assert.False(t, s.IsPlaying)
	assert.Equal(t, 1, called)
	assert.Equal(t, 0, clock.Pending())
}

func TestController_ResetPropagatesCallbackError(t *testing.T) {
	boom := errors.New("reshuffle failed")
	c, _ := newController(t, 5, playback.WithOnReset(func() error { return boom }))
	c.Seek(2)

	err := c.Reset()

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.State().Cursor, "state is reset before the callback runs")
}

func TestController_SetSpeedAppliesToNextAdvance(t *testing.T) {
	c, clock := newController(t, 5, playback.WithSpeed(0))
	c.Play()
	assert.Equal(t, 2000*time.Millisecond, clock.LastDelay())

	c.SetSpeed(100)
	assert.Equal(t, 100, c.State().Speed)

	clock.Advance(100 * time.Millisecond)
	assert.Equal(t, 0, c.State().Cursor, "pending advance keeps its original delay")

	clock.Advance(1900 * time.Millisecond)
	assert.Equal(t, 1, c.State().Cursor)
	assert.Equal(t, 100*time.Millisecond, clock.LastDelay())
}

func TestController_SetSpeedClamps(t *testing.T) {
	c, _ := newController(t, 2)

	c.SetSpeed(150)
	assert.Equal(t, 100, c.State().Speed)

	c.SetSpeed(-1)
	assert.Equal(t, 0, c.State().Speed)
}

type lengthGenerator struct {
	calls int
}

func (g *lengthGenerator) Generate(ctx context.Context, params domain.Params) (domain.Trace, error) {
	g.calls++
	n, _ := params["n"].(int)
	if n <= 0 {
		return domain.Trace{}, domain.ErrInvalidParams
	}
	b := trace.NewBuilder(n)
	for i := 0; i < n; i++ {
		b.Pushf(i, "item %d", i)
	}
	return b.Build()
}

func TestController_Reinitialize(t *testing.T) {
	gen := &lengthGenerator{}
	clock := testutils.NewFakeClock()
	c, err := playback.NewFromGenerator(context.Background(), gen, domain.Params{"n": 3}, playback.WithClock(clock), playback.WithSpeed(60))
	require.NoError(t, err)
	defer c.Close()

	c.Seek(1)
	c.Play()

	require.NoError(t, c.Reinitialize(context.Background(), domain.Params{"n": 7}))

	v := c.View()
	assert.Equal(t, 7, v.TotalSteps)
	assert.Equal(t, 0, v.Cursor)
	assert.False(t, v.IsPlaying)
	assert.Equal(t, 60, v.Speed, "speed survives regeneration")
	assert.Equal(t, 0, clock.Pending())
	assert.Equal(t, domain.Params{"n": 7}, c.Params())
	assert.Equal(t, 2, gen.calls)
}

func TestController_ReinitializeFailureKeepsState(t *testing.T) {
	gen := &lengthGenerator{}
	c, err := playback.NewFromGenerator(context.Background(), gen, domain.Params{"n": 3}, playback.WithClock(testutils.NewFakeClock()))
	require.NoError(t, err)
	c.Seek(2)

	err = c.Reinitialize(context.Background(), domain.Params{"n": 0})

	assert.ErrorIs(t, err, domain.ErrInvalidParams)
	assert.Equal(t, 3, c.Trace().Len())
	assert.Equal(t, 2, c.State().Cursor)
}

func TestController_ReinitializeWithoutGenerator(t *testing.T) {
	c, _ := newController(t, 3)
	assert.ErrorIs(t, c.Reinitialize(context.Background(), nil), playback.ErrNoGenerator)
}

func TestController_SubscribeReceivesViews(t *testing.T) {
	c, _ := newController(t, 4)

	var views []domain.View
	unsubscribe := c.Subscribe(func(v domain.View) { views = append(views, v) })

	c.Step()
	c.Step()
	require.Len(t, views, 2)
	assert.Equal(t, 2, views[1].Cursor)
	assert.Equal(t, "step 2", views[1].CurrentStep.Description)
	assert.Equal(t, 4, views[1].TotalSteps)

	unsubscribe()
	c.Step()
	assert.Len(t, views, 2)
}

func TestController_ListenerMayCallBack(t *testing.T) {
	c, _ := newController(t, 4)

	// A listener pausing from inside a notification must not deadlock.
	c.Subscribe(func(v domain.View) {
		if v.IsPlaying {
			c.Pause()
		}
	})

	c.Play()
	assert.False(t, c.State().IsPlaying)
}

func TestController_HooksSequence(t *testing.T) {
	var events []domain.EventType
	hooks := domain.PlaybackHooks{OnChange: func(e *domain.PlaybackEvent) {
		events = append(events, e.Type)
		assert.Equal(t, "sess-1", e.Session)
		assert.Equal(t, "demo", e.Algorithm)
	}}
	c, clock := newController(t, 3,
		playback.WithHooks(hooks),
		playback.WithSession("sess-1"),
		playback.WithAlgorithm("demo"),
		playback.WithSpeed(100),
	)

	c.Play()
	clock.Advance(time.Second)

	assert.Equal(t, []domain.EventType{
		domain.EventPlay,
		domain.EventAdvance,
		domain.EventAdvance,
		domain.EventAutoPause,
	}, events)
}

func TestController_Toggle(t *testing.T) {
	c, _ := newController(t, 3)

	c.Toggle()
	assert.True(t, c.State().IsPlaying)
	c.Toggle()
	assert.False(t, c.State().IsPlaying)
}

func TestController_CloseStopsPlayback(t *testing.T) {
	c, clock := newController(t, 5)
	c.Play()

	c.Close()
	clock.Advance(time.Hour)
	c.Play()

	assert.Equal(t, 0, c.State().Cursor)
	assert.Equal(t, 0, clock.Pending())
}

func TestController_RandomOperationsKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	c, clock := newController(t, 7)

	ops := []func(){
		c.Play,
		c.Pause,
		c.Step,
		c.StepBack,
		c.Toggle,
		func() { _ = c.Reset() },
		func() { c.Seek(rng.Intn(12) - 2) },
		func() { c.SetSpeed(rng.Intn(140) - 20) },
		func() { clock.Advance(time.Duration(rng.Intn(3000)) * time.Millisecond) },
	}

	for i := 0; i < 2000; i++ {
		ops[rng.Intn(len(ops))]()
		assertInvariants(t, c)
		if !c.State().IsPlaying {
			assert.Equal(t, 0, clock.Pending(), "paused controller must not hold a timer (op %d)", i)
		}
	}
}

func TestController_SwitchAlgorithm(t *testing.T) {
	first := &lengthGenerator{}
	second := &lengthGenerator{}
	var algorithms []string
	hooks := domain.PlaybackHooks{OnChange: func(e *domain.PlaybackEvent) { algorithms = append(algorithms, e.Algorithm) }}

	c, err := playback.NewFromGenerator(context.Background(), first, domain.Params{"n": 2},
		playback.WithClock(testutils.NewFakeClock()),
		playback.WithAlgorithm("first"),
		playback.WithHooks(hooks),
	)
	require.NoError(t, err)

	require.NoError(t, c.SwitchAlgorithm(context.Background(), "second", second, domain.Params{"n": 5}))
	assert.Equal(t, "second", c.Algorithm())
	assert.Equal(t, 5, c.Trace().Len())

	require.NoError(t, c.Reinitialize(context.Background(), domain.Params{"n": 6}))
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 2, second.calls)
	assert.Equal(t, []string{"first", "second", "second"}, algorithms)
}

// eagerClock fires every timer on its own goroutine after a millisecond.
type eagerClock struct{}

func (eagerClock) Now() time.Time { return time.Now() }

func (eagerClock) AfterFunc(_ time.Duration, f func()) ports.Timer {
	return time.AfterFunc(time.Millisecond, f)
}

type viewRecorder struct {
	mu   sync.Mutex
	seen []domain.View
}

func (r *viewRecorder) record(v domain.View) {
	r.mu.Lock()
	r.seen = append(r.seen, v)
	r.mu.Unlock()
}

func (r *viewRecorder) last() (domain.View, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.seen) == 0 {
		return domain.View{}, false
	}
	return r.seen[len(r.seen)-1], true
}

func newEagerController(t *testing.T, n int) (*playback.Controller, *viewRecorder) {
	t.Helper()
	slow := domain.PlaybackHooks{OnChange: func(e *domain.PlaybackEvent) {
		if e.Type == domain.EventAdvance {
			time.Sleep(time.Millisecond)
		}
	}}
	c, err := playback.New(newTrace(t, n), playback.WithClock(eagerClock{}), playback.WithHooks(slow))
	require.NoError(t, err)
	t.Cleanup(c.Close)

	rec := &viewRecorder{}
	c.Subscribe(rec.record)
	return c, rec
}

func assertLastViewMatches(t *testing.T, c *playback.Controller, rec *viewRecorder) {
	t.Helper()
	require.Eventually(t, func() bool {
		v, ok := rec.last()
		s := c.State()
		return ok && v.Cursor == s.Cursor && v.IsPlaying == s.IsPlaying
	}, 2*time.Second, time.Millisecond)
}

func TestController_ListenersSeeChangesInOrder(t *testing.T) {
	c, rec := newEagerController(t, 50)

	c.Play()
	require.Eventually(t, func() bool { return !c.State().IsPlaying }, 5*time.Second, time.Millisecond)
	assert.Equal(t, 49, c.State().Cursor)
	assertLastViewMatches(t, c, rec)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	for i := 1; i < len(rec.seen); i++ {
		assert.GreaterOrEqual(t, rec.seen[i].Cursor, rec.seen[i-1].Cursor, "view %d went backwards", i)
	}
	assert.False(t, rec.seen[len(rec.seen)-1].IsPlaying)
}

func TestController_PauseIsTheLastViewDelivered(t *testing.T) {
	c, rec := newEagerController(t, 50)

	for round := 0; round < 10; round++ {
		c.Seek(0)
		c.Play()
		time.Sleep(5 * time.Millisecond)
		c.Pause()
		assertLastViewMatches(t, c, rec)
	}
}

func TestController_OperationsAfterCloseDoNothing(t *testing.T) {
	resets := 0
	c, clock := newController(t, 5, playback.WithOnReset(func() error {
		resets++
		return nil
	}))
	c.Seek(2)

	views := 0
	c.Subscribe(func(domain.View) { views++ })
	c.Close()
	assert.Equal(t, 1, views)
	select {
	case <-c.Done():
	default:
		t.Fatal("Done channel still open after Close")
	}

	c.Step()
	c.StepBack()
	c.Seek(4)
	require.NoError(t, c.Reset())
	c.SetSpeed(90)
	c.Play()
	require.NoError(t, c.Load(newTrace(t, 3)))
	clock.Advance(time.Hour)

	s := c.State()
	assert.Equal(t, 2, s.Cursor)
	assert.False(t, s.IsPlaying)
	assert.Equal(t, domain.DefaultSpeed, s.Speed)
	assert.Equal(t, 5, c.Trace().Len())
	assert.Equal(t, 0, resets)
	assert.Equal(t, 1, views)
}
