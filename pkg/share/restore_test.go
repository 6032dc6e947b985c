package share_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/stepper/internal/testutils"
	"github.com/aretw0/stepper/pkg/share"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPlayer struct {
	calls []string
	seek  int
	speed int
}

func (p *recordingPlayer) Seek(i int) {
	p.calls = append(p.calls, "seek")
	p.seek = i
}

func (p *recordingPlayer) SetSpeed(v int) {
	p.calls = append(p.calls, "speed")
	p.speed = v
}

func TestRestore(t *testing.T) {
	loc, err := share.NewLocation("https://example.com/v#alg=bubble-sort&s=5&sp=70")
	require.NoError(t, err)
	clock := testutils.NewFakeClock()
	player := &recordingPlayer{}

	var regenerated share.VisualizerState
	focused := false

	state, err := share.Restore(context.Background(), share.NewVisualizerCodec(), loc, player,
		share.WithRestoreClock(clock),
		share.WithRegenerate(func(ctx context.Context, s share.VisualizerState) error {
			player.calls = append(player.calls, "regenerate")
			regenerated = s
			return nil
		}),
		share.WithFocus(func() { focused = true }),
	)

	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, []string{"regenerate", "speed", "seek"}, player.calls)
	assert.Equal(t, "bubble-sort", regenerated.Algorithm)
	assert.Equal(t, 5, player.seek)
	assert.Equal(t, 70, player.speed)

	assert.False(t, focused, "focus waits for the layout to settle")
	clock.Advance(share.DefaultSettleDelay)
	assert.True(t, focused)
}

func TestRestore_NothingToApply(t *testing.T) {
	loc, err := share.NewLocation("https://example.com/v")
	require.NoError(t, err)
	clock := testutils.NewFakeClock()
	player := &recordingPlayer{}

	state, err := share.Restore(context.Background(), share.NewVisualizerCodec(), loc, player,
		share.WithRestoreClock(clock),
		share.WithFocus(func() { t.Fatal("focus must not run") }),
	)

	require.NoError(t, err)
	assert.Nil(t, state)
	assert.Empty(t, player.calls)
	clock.Advance(time.Second)
}

func TestRestore_RegenerateFailure(t *testing.T) {
	loc, err := share.NewLocation("https://example.com/v#a=1,2&s=1")
	require.NoError(t, err)
	player := &recordingPlayer{}
	boom := errors.New("bad input")

	_, err = share.Restore(context.Background(), share.NewVisualizerCodec(), loc, player,
		share.WithRegenerate(func(ctx context.Context, s share.VisualizerState) error { return boom }),
	)

	assert.ErrorIs(t, err, boom)
	assert.Empty(t, player.calls)
}
