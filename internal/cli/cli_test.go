package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/stepper/internal/config"
	"github.com/aretw0/stepper/internal/presentation/tui"
	"github.com/aretw0/stepper/pkg/adapters/file"
	"github.com/aretw0/stepper/pkg/adapters/memory"
	"github.com/aretw0/stepper/pkg/adapters/redis"
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/keys"
	"github.com/aretw0/stepper/pkg/share"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, config.DefaultPath)
	body = strings.ReplaceAll(body, "$DIR", dir)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func newTestApp(t *testing.T, body string) *App {
	t.Helper()
	app, err := NewApp(context.Background(), AppOptions{ConfigPath: writeConfig(t, body)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestParseParams(t *testing.T) {
	params, err := ParseParams(`{"array": [5, 2], "target": 2}`, []string{"target=9", "seed=3"})
	require.NoError(t, err)
	assert.Equal(t, domain.Params{"array": []any{float64(5), float64(2)}, "target": "9", "seed": "3"}, params)

	params, err = ParseParams("", nil)
	require.NoError(t, err)
	assert.NotNil(t, params)

	_, err = ParseParams("[1]", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidParams)
	_, err = ParseParams("", []string{"target"})
	assert.ErrorIs(t, err, domain.ErrInvalidParams)
}

func TestNewApp_CacheBackends(t *testing.T) {
	t.Run("Memory By Default", func(t *testing.T) {
		app := newTestApp(t, "log_level: error\n")
		assert.IsType(t, &memory.Cache{}, app.Cache)
		assert.Equal(t, domain.DefaultSpeed, app.Config.Playback.Speed)
	})

	t.Run("File", func(t *testing.T) {
		app := newTestApp(t, "log_level: error\ncache:\n  backend: file\n  dir: $DIR/cache\n")
		assert.IsType(t, &file.Cache{}, app.Cache)

		sess, err := app.Sessions.Create(context.Background(), "bubble-sort", nil)
		require.NoError(t, err)
		assert.Greater(t, sess.Controller.Trace().Len(), 1)
		entries, err := os.ReadDir(app.Config.Cache.Dir)
		require.NoError(t, err)
		assert.NotEmpty(t, entries)
	})

	t.Run("None", func(t *testing.T) {
		app := newTestApp(t, "log_level: error\ncache:\n  backend: none\n")
		assert.Nil(t, app.Cache)
	})

	t.Run("Redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		app := newTestApp(t, "log_level: error\ncache:\n  backend: redis\n  redis:\n    addr: "+mr.Addr()+"\n")
		assert.IsType(t, &redis.Cache{}, app.Cache)

		_, err := app.Sessions.Create(context.Background(), "min-heap", nil)
		require.NoError(t, err)
		assert.NotEmpty(t, mr.Keys())
	})

	t.Run("Redis Unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()
		_, err := NewApp(context.Background(), AppOptions{
			ConfigPath: writeConfig(t, "cache:\n  backend: redis\n  redis:\n    addr: "+addr+"\n"),
		})
		assert.ErrorContains(t, err, "connect to redis")
	})
}

func TestNewApp_ConfigHandling(t *testing.T) {
	_, err := NewApp(context.Background(), AppOptions{ConfigPath: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)

	_, err = NewApp(context.Background(), AppOptions{
		ConfigPath: writeConfig(t, "log_level: error\n"),
		Override:   func(c *config.Config) { c.Playback.Speed = 500 },
	})
	assert.ErrorContains(t, err, "playback.speed")

	_, err = NewApp(context.Background(), AppOptions{ConfigPath: writeConfig(t, "log_level: loud\n")})
	assert.Error(t, err)
}

func TestNewApp_ExternalGenerators(t *testing.T) {
	dir := t.TempDir()
	generators := filepath.Join(dir, "generators.yaml")
	require.NoError(t, os.WriteFile(generators, []byte(`
generators:
  - name: constant
    command: sh
    args: ["-c", "echo '[{\"description\":\"only\"}]'"]
    description: One fixed step.
`), 0o644))

	app := newTestApp(t, "log_level: error\ngenerators: "+generators+"\n")
	alg, err := app.Registry.Get("constant")
	require.NoError(t, err)
	assert.Equal(t, "One fixed step.", alg.Description)
	_, err = app.Registry.Get("bubble-sort")
	assert.NoError(t, err)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type recordingClipboard struct {
	mu   sync.Mutex
	text string
}

func (c *recordingClipboard) WriteText(ctx context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
	return nil
}

func newTestPlayer(t *testing.T, app *App, opts PlayOptions, cb share.Clipboard) (*player, *syncBuffer) {
	t.Helper()
	out := &syncBuffer{}
	p, err := newPlayer(context.Background(), app, opts, tui.NewRenderer(tui.WithStyle("notty"), tui.WithChart(false)), out, cb)
	require.NoError(t, err)
	t.Cleanup(p.close)
	return p, out
}

func TestPlayer_Keys(t *testing.T) {
	app := newTestApp(t, "log_level: error\nshare:\n  base_url: https://viz.example.com/search\n")
	cb := &recordingClipboard{}
	p, out := newTestPlayer(t, app, PlayOptions{
		Algorithm: "linear-search",
		Set:       []string{"array=9,8,7", "target=7"},
	}, cb)
	ctrl := p.sess.Controller

	assert.Contains(t, out.String(), "linear-search")
	assert.Equal(t, 4, ctrl.Trace().Len())

	assert.True(t, p.handle(keys.Event{Key: ']'}))
	assert.True(t, p.handle(keys.Event{Key: ']'}))
	assert.Equal(t, 2, ctrl.State().Cursor)
	assert.True(t, p.handle(keys.Event{Key: '['}))
	assert.Equal(t, 1, ctrl.State().Cursor)

	assert.True(t, p.handle(keys.Event{Key: '+'}))
	assert.Equal(t, domain.DefaultSpeed+speedStep, ctrl.State().Speed)
	assert.True(t, p.handle(keys.Event{Key: '-'}))
	assert.True(t, p.handle(keys.Event{Key: '-'}))
	assert.Equal(t, domain.DefaultSpeed-speedStep, ctrl.State().Speed)

	assert.True(t, p.handle(keys.Event{Key: 'c'}))
	want := "https://viz.example.com/search#a=9,8,7&alg=linear-search&s=1&sp=15&t=7"
	assert.Equal(t, want, cb.text)
	assert.Contains(t, out.String(), "Copied "+want)

	assert.True(t, p.handle(keys.Event{Key: 'r', TextEntry: true}))
	assert.Equal(t, 1, ctrl.State().Cursor)
	assert.True(t, p.handle(keys.Event{Key: 'r'}))
	assert.Equal(t, 0, ctrl.State().Cursor)

	assert.True(t, p.handle(keys.Event{Key: 'q', Ctrl: true}))
	assert.False(t, p.handle(keys.Event{Key: 'q'}))
	assert.False(t, p.handle(keys.CtrlC))
}

func TestPlayer_CopyFallsBackToPrinting(t *testing.T) {
	app := newTestApp(t, "log_level: error\n")
	failing := share.ClipboardFunc(func(ctx context.Context, text string) error { return io.ErrClosedPipe })
	p, out := newTestPlayer(t, app, PlayOptions{Algorithm: "bubble-sort"}, failing)

	p.handle(keys.Event{Key: 'C'})
	assert.Contains(t, out.String(), "Clipboard unavailable, link: http://localhost:8080/#a=")
}

func TestPlayer_RestoresLink(t *testing.T) {
	app := newTestApp(t, "log_level: error\n")
	p, _ := newTestPlayer(t, app, PlayOptions{
		Link: "#a=1,3,5,7&alg=binary-search&s=2&sp=60&t=5",
	}, &recordingClipboard{})

	ctrl := p.sess.Controller
	assert.Equal(t, "binary-search", p.sess.Algorithm())
	assert.Equal(t, 2, ctrl.State().Cursor)
	assert.Equal(t, 60, ctrl.State().Speed)
	assert.Equal(t, []int{1, 3, 5, 7}, tui.Values(ctrl.View().CurrentStep.Payload))

	_, err := newPlayer(context.Background(), app, PlayOptions{Link: "#alg=quantum-sort"}, tui.NewRenderer(tui.WithStyle("notty")), io.Discard, &recordingClipboard{})
	assert.ErrorIs(t, err, domain.ErrUnknownAlgorithm)
}

func TestWriteTrace(t *testing.T) {
	tr, err := domain.NewTrace([]domain.Step{
		{Description: "start", Payload: []int{3, 1}},
		{Description: "done"},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteTrace(&buf, tr, "json"))
	var decoded domain.Trace
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 2, decoded.Len())

	buf.Reset()
	require.NoError(t, WriteTrace(&buf, tr, "text"))
	assert.Contains(t, buf.String(), "  1. start")
	assert.Contains(t, buf.String(), "  2. done")

	assert.Error(t, WriteTrace(&buf, tr, "xml"))
}

func TestRunTraceAndList(t *testing.T) {
	path := writeConfig(t, "log_level: error\ncache:\n  backend: none\n")

	var buf bytes.Buffer
	require.NoError(t, RunTrace(&buf, TraceOptions{
		App:       AppOptions{ConfigPath: path},
		Algorithm: "linear-search",
		Set:       []string{"array=9,8,7", "target=7"},
		Format:    "text",
	}))
	assert.Equal(t, 4, strings.Count(buf.String(), "\n"))

	err := RunTrace(&buf, TraceOptions{App: AppOptions{ConfigPath: path}, Algorithm: "nope"})
	assert.ErrorIs(t, err, domain.ErrUnknownAlgorithm)

	buf.Reset()
	require.NoError(t, ListAlgorithms(&buf, AppOptions{ConfigPath: path}))
	for _, name := range []string{"NAME", "binary-search", "bubble-sort", "linear-search", "min-heap"} {
		assert.Contains(t, buf.String(), name)
	}
}

func TestRunShare(t *testing.T) {
	path := writeConfig(t, "log_level: error\nshare:\n  base_url: https://viz.example.com/\n  prefix: viz\n")

	var buf bytes.Buffer
	require.NoError(t, RunShare(&buf, ShareOptions{
		App:       AppOptions{ConfigPath: path},
		Algorithm: "bubble-sort",
		Array:     []int{3, 1, 2},
		Step:      3,
		Speed:     40,
	}))
	link := strings.TrimSpace(buf.String())
	assert.Equal(t, "https://viz.example.com/#viz-a=3,1,2&alg=bubble-sort&s=3&sp=40", link)

	buf.Reset()
	require.NoError(t, RunShare(&buf, ShareOptions{App: AppOptions{ConfigPath: path}, Decode: link}))
	var state share.VisualizerState
	require.NoError(t, json.Unmarshal(buf.Bytes(), &state))
	assert.Equal(t, []int{3, 1, 2}, state.Array)
	require.NotNil(t, state.Step)
	assert.Equal(t, 3, *state.Step)

	err := RunShare(&buf, ShareOptions{App: AppOptions{ConfigPath: path}, Decode: "#s=1"})
	assert.Error(t, err)
}

func TestHandleExecutionError(t *testing.T) {
	assert.NoError(t, handleExecutionError(nil))
	assert.NoError(t, handleExecutionError(context.Canceled))
	assert.NoError(t, handleExecutionError(io.EOF))
	assert.Equal(t, io.ErrUnexpectedEOF, handleExecutionError(io.ErrUnexpectedEOF))
}
