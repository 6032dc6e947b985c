package stepper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/stepper/internal/logging"
	"github.com/aretw0/stepper/pkg/algorithms"
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/keys"
	"github.com/aretw0/stepper/pkg/playback"
	"github.com/aretw0/stepper/pkg/ports"
	"github.com/aretw0/stepper/pkg/registry"
	"github.com/aretw0/stepper/pkg/share"
	"github.com/aretw0/stepper/pkg/trace"
)

// Visualizer is the high-level entry point for the stepper library.
// It binds one playback controller to a share location and, optionally, a key scope.
type Visualizer struct {
	*playback.Controller

	registry  *registry.Registry
	cache     ports.TraceCache
	codec     *share.Codec[share.VisualizerState]
	loc       *share.Location
	shareBase string
	prefix    string
	logger    *slog.Logger
	ctrlOpts  []playback.Option
	scope     *keys.Scope
}

// Option defines a functional option for configuring the Visualizer.
type Option func(*Visualizer)

// WithRegistry replaces the reference algorithms with a custom registry.
func WithRegistry(reg *registry.Registry) Option {
	return func(v *Visualizer) {
		v.registry = reg
	}
}

// WithCache memoizes generated traces. Hits from serialized caches carry the
// same payload types as fresh traces for algorithms registered with a Payload decoder.
func WithCache(cache ports.TraceCache) Option {
	return func(v *Visualizer) {
		v.cache = cache
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Visualizer) {
		v.logger = logger
	}
}

// WithHooks registers observability hooks on the controller.
func WithHooks(hooks domain.PlaybackHooks) Option {
	return func(v *Visualizer) {
		v.ctrlOpts = append(v.ctrlOpts, playback.WithHooks(hooks))
	}
}

// WithClock replaces the wall clock driving the advance timer.
func WithClock(clock ports.Clock) Option {
	return func(v *Visualizer) {
		v.ctrlOpts = append(v.ctrlOpts, playback.WithClock(clock))
	}
}

// WithSpeed sets the initial speed.
func WithSpeed(speed int) Option {
	return func(v *Visualizer) {
		v.ctrlOpts = append(v.ctrlOpts, playback.WithSpeed(speed))
	}
}

// WithOnReset runs fn after every Reset.
func WithOnReset(fn func() error) Option {
	return func(v *Visualizer) {
		v.ctrlOpts = append(v.ctrlOpts, playback.WithOnReset(fn))
	}
}

// WithShareBase sets the page share links point to (default http://localhost/).
func WithShareBase(url string) Option {
	return func(v *Visualizer) {
		v.shareBase = url
	}
}

// WithSharePrefix namespaces the fragment so several visualizers can share a page.
func WithSharePrefix(prefix string) Option {
	return func(v *Visualizer) {
		v.prefix = prefix
	}
}

// New generates the trace of algorithm over params and returns an idle Visualizer.
func New(ctx context.Context, algorithm string, params domain.Params, opts ...Option) (*Visualizer, error) {
	v := &Visualizer{
		shareBase: "http://localhost/",
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.registry == nil {
		v.registry = algorithms.Default()
	}

	codec, err := share.NewCodec[share.VisualizerState](share.WithPrefix(v.prefix))
	if err != nil {
		return nil, err
	}
	v.codec = codec
	if v.loc, err = share.NewLocation(v.shareBase); err != nil {
		return nil, fmt.Errorf("invalid share base: %w", err)
	}

	alg, err := v.registry.Get(algorithm)
	if err != nil {
		return nil, err
	}
	ctrlOpts := append([]playback.Option{
		playback.WithAlgorithm(alg.Name),
		playback.WithLogger(v.logger.With("algorithm", alg.Name)),
	}, v.ctrlOpts...)
	v.Controller, err = playback.NewFromGenerator(ctx, v.generator(alg), alg.WithDefaults(params), ctrlOpts...)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (v *Visualizer) generator(alg registry.Algorithm) ports.TraceGenerator {
	gen := alg.New()
	if v.cache != nil {
		gen = trace.NewCachedGenerator(alg.Name, gen, v.cache, trace.WithCacheLogger(v.logger), trace.WithPayloadDecoder(alg.Payload))
	}
	return gen
}

// Regenerate compiles a new trace and resets to the first step. An empty algorithm
// keeps the current one. Params missing from the call fall back to the algorithm defaults.
func (v *Visualizer) Regenerate(ctx context.Context, algorithm string, params domain.Params) error {
	if algorithm == "" {
		algorithm = v.Algorithm()
	}
	alg, err := v.registry.Get(algorithm)
	if err != nil {
		return err
	}
	if alg.Name == v.Algorithm() {
		return v.Reinitialize(ctx, alg.WithDefaults(params))
	}
	return v.SwitchAlgorithm(ctx, alg.Name, v.generator(alg), alg.WithDefaults(params))
}

// ShareState snapshots the input, cursor and speed.
func (v *Visualizer) ShareState() share.VisualizerState {
	return algorithms.ShareState(v.Algorithm(), v.Params(), v.State())
}

// ShareLink writes the current state into the location fragment and returns the link.
func (v *Visualizer) ShareLink() string {
	return v.codec.Write(v.loc, v.ShareState())
}

// CopyLink writes the current link to cb. It reports success and never fails otherwise.
func (v *Visualizer) CopyLink(ctx context.Context, cb share.Clipboard) bool {
	return v.codec.Copy(ctx, cb, v.loc, v.ShareState())
}

// Restore loads link (absolute, or a bare fragment) and applies it, regenerating the
// trace when the link carries an input. It returns nil when the link holds no state.
func (v *Visualizer) Restore(ctx context.Context, link string, opts ...share.RestoreOption) (*share.VisualizerState, error) {
	loc, err := share.NewLocation(v.loc.Href())
	if err != nil {
		return nil, err
	}
	if parsed, err := share.NewLocation(link); err == nil {
		loc = parsed
	} else {
		loc.ReplaceFragment(trimHash(link))
	}
	v.loc = loc

	regenerate := share.WithRegenerate(func(ctx context.Context, s share.VisualizerState) error {
		return v.Regenerate(ctx, s.Algorithm, algorithms.ParamsFromShare(s))
	})
	return share.Restore(ctx, v.codec, loc, v.Controller, append([]share.RestoreOption{regenerate}, opts...)...)
}

func trimHash(s string) string {
	if len(s) > 0 && s[0] == '#' {
		return s[1:]
	}
	return s
}

// BindKeys registers the visualizer with r. The scope is removed by Close.
func (v *Visualizer) BindKeys(r *keys.Router, opts ...keys.ScopeOption) {
	if v.scope != nil {
		v.scope.Unregister()
	}
	v.scope = r.Register(v.Controller, opts...)
}

// Close stops playback and removes the key scope.
func (v *Visualizer) Close() {
	if v.scope != nil {
		v.scope.Unregister()
	}
	v.Controller.Close()
}
