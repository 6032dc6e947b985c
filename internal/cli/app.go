package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/stepper/internal/config"
	"github.com/aretw0/stepper/pkg/adapters/file"
	"github.com/aretw0/stepper/pkg/adapters/memory"
	"github.com/aretw0/stepper/pkg/adapters/process"
	"github.com/aretw0/stepper/pkg/adapters/redis"
	"github.com/aretw0/stepper/pkg/algorithms"
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/observability"
	"github.com/aretw0/stepper/pkg/ports"
	"github.com/aretw0/stepper/pkg/registry"
	"github.com/aretw0/stepper/pkg/session"
	"github.com/aretw0/stepper/pkg/share"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// AppOptions selects the config file and the overrides coming from flags.
type AppOptions struct {
	ConfigPath string
	Debug      bool
	// Override runs after the file is loaded, so flags win over the file.
	Override func(*config.Config)
}

// App holds the components every command shares.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Registry *registry.Registry
	Cache    ports.TraceCache
	Metrics  *prometheus.Registry
	Sessions *session.Manager
	Codec    *share.Codec[share.VisualizerState]

	closeCache func() error
}

// NewApp loads the configuration and wires the registry, cache, metrics and sessions.
func NewApp(ctx context.Context, opts AppOptions) (*App, error) {
	path := opts.ConfigPath
	required := path != ""
	if path == "" {
		path = config.DefaultPath
	}
	cfg, err := config.Load(path, required)
	if err != nil {
		return nil, err
	}
	if opts.Override != nil {
		opts.Override(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	logger, err := createLogger(opts.Debug, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	reg := algorithms.Default()
	external, err := process.LoadGenerators(cfg.Generators)
	if err != nil {
		logger.Warn("Failed to load generators config", "path", cfg.Generators, "err", err)
	}
	process.Register(reg, external)
	if len(external) > 0 {
		logger.Info("External generators registered", "count", len(external))
	}

	cache, closeCache, err := buildCache(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := observability.NewMetrics(promReg)
	if err != nil {
		_ = closeCache()
		return nil, err
	}

	hooks := []domain.PlaybackHooks{metrics.Hooks()}
	if opts.Debug {
		hooks = append(hooks, observability.LogHooks(logger))
	}

	codec, err := share.NewCodec[share.VisualizerState](share.WithPrefix(cfg.Share.Prefix))
	if err != nil {
		_ = closeCache()
		return nil, err
	}

	sessionOpts := []session.Option{
		session.WithLogger(logger),
		session.WithHooks(domain.Chain(hooks...)),
		session.WithDefaultSpeed(cfg.Playback.Speed),
		session.WithMaxSessions(cfg.HTTP.MaxSessions),
	}
	if cache != nil {
		sessionOpts = append(sessionOpts, session.WithCache(cache))
	}

	return &App{
		Config:     cfg,
		Logger:     logger,
		Registry:   reg,
		Cache:      cache,
		Metrics:    promReg,
		Sessions:   session.NewManager(reg, sessionOpts...),
		Codec:      codec,
		closeCache: closeCache,
	}, nil
}

// Close stops every session and releases the cache.
func (a *App) Close() error {
	a.Sessions.CloseAll()
	return a.closeCache()
}

func buildCache(ctx context.Context, cfg config.CacheConfig) (ports.TraceCache, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Backend {
	case config.CacheNone:
		return nil, noop, nil
	case config.CacheFile:
		return file.New(cfg.Dir), noop, nil
	case config.CacheRedis:
		opts := []redis.Option{redis.WithTTL(cfg.TTL)}
		if cfg.Redis.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Redis.Prefix))
		}
		c := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := c.Ping(pingCtx); err != nil {
			_ = c.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		return c, c.Close, nil
	default:
		return memory.NewCache(), noop, nil
	}
}
