package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/stepper/internal/logging"
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/playback"
	"github.com/aretw0/stepper/pkg/ports"
	"github.com/aretw0/stepper/pkg/registry"
	"github.com/aretw0/stepper/pkg/trace"
	"github.com/google/uuid"
)

// Session is one visualizer instance.
type Session struct {
	ID         string
	CreatedAt  time.Time
	Controller *playback.Controller
}

// Algorithm returns the name of the algorithm currently played.
func (s *Session) Algorithm() string {
	return s.Controller.Algorithm()
}

// Manager creates, looks up and closes sessions.
type Manager struct {
	registry *registry.Registry

	mu       sync.Mutex
	sessions map[string]*Session
	// reserved counts slots taken by Create calls still generating their trace.
	reserved int

	cache       ports.TraceCache
	hooks       domain.PlaybackHooks
	clock       ports.Clock
	speed       int
	maxSessions int
	newID       func() string
	logger      *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogger configures a logger for the Manager and its controllers.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithCache memoizes generated traces.
func WithCache(cache ports.TraceCache) Option {
	return func(m *Manager) {
		m.cache = cache
	}
}

// WithHooks attaches observability hooks to every controller.
func WithHooks(hooks domain.PlaybackHooks) Option {
	return func(m *Manager) {
		m.hooks = hooks
	}
}

// WithClock sets the clock handed to controllers.
func WithClock(clock ports.Clock) Option {
	return func(m *Manager) {
		m.clock = clock
	}
}

// WithDefaultSpeed sets the initial speed of new sessions.
func WithDefaultSpeed(speed int) Option {
	return func(m *Manager) {
		m.speed = domain.ClampSpeed(speed)
	}
}

// WithMaxSessions caps the number of open sessions. Zero means unlimited.
func WithMaxSessions(n int) Option {
	return func(m *Manager) {
		m.maxSessions = n
	}
}

// WithIDGenerator replaces the UUID generator, for stable IDs in tests.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		m.newID = fn
	}
}

// NewManager creates a session manager over the algorithms in reg.
func NewManager(reg *registry.Registry, opts ...Option) *Manager {
	m := &Manager{
		registry: reg,
		sessions: make(map[string]*Session),
		clock:    ports.SystemClock{},
		speed:    domain.DefaultSpeed,
		newID:    uuid.NewString,
		logger:   logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ErrTooManySessions is returned by Create when the session cap is reached.
var ErrTooManySessions = fmt.Errorf("too many open sessions")

// Create generates a trace for algorithm and opens a session over it.
// Params missing from the request fall back to the algorithm defaults.
func (m *Manager) Create(ctx context.Context, algorithm string, params domain.Params) (*Session, error) {
	alg, err := m.registry.Get(algorithm)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.maxSessions > 0 && len(m.sessions)+m.reserved >= m.maxSessions {
		m.mu.Unlock()
		return nil, ErrTooManySessions
	}
	m.reserved++
	m.mu.Unlock()

	id := m.newID()
	gen := m.generator(alg)
	ctrl, err := playback.NewFromGenerator(ctx, gen, alg.WithDefaults(params),
		playback.WithSession(id),
		playback.WithAlgorithm(alg.Name),
		playback.WithHooks(m.hooks),
		playback.WithClock(m.clock),
		playback.WithSpeed(m.speed),
		playback.WithLogger(m.logger.With("session_id", id)),
	)
	if err != nil {
		m.mu.Lock()
		m.reserved--
		m.mu.Unlock()
		return nil, fmt.Errorf("create session for %s: %w", alg.Name, err)
	}

	s := &Session{
		ID:         id,
		CreatedAt:  m.clock.Now(),
		Controller: ctrl,
	}
	m.mu.Lock()
	m.reserved--
	m.sessions[id] = s
	m.mu.Unlock()

	m.logger.Info("session created", "session_id", id, "algorithm", alg.Name, "steps", ctrl.Trace().Len())
	return s, nil
}

// Get returns the session with the given ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	return s, nil
}

// Reinitialize regenerates the trace of a session, switching algorithm when
// algorithm is not empty and differs from the current one.
func (m *Manager) Reinitialize(ctx context.Context, id, algorithm string, params domain.Params) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	if algorithm == "" {
		algorithm = s.Algorithm()
	}
	alg, err := m.registry.Get(algorithm)
	if err != nil {
		return err
	}
	if alg.Name == s.Algorithm() {
		return s.Controller.Reinitialize(ctx, alg.WithDefaults(params))
	}
	return s.Controller.SwitchAlgorithm(ctx, alg.Name, m.generator(alg), alg.WithDefaults(params))
}

func (m *Manager) generator(alg registry.Algorithm) ports.TraceGenerator {
	gen := alg.New()
	if m.cache != nil {
		gen = trace.NewCachedGenerator(alg.Name, gen, m.cache, trace.WithCacheLogger(m.logger), trace.WithPayloadDecoder(alg.Payload))
	}
	return gen
}

// Close stops the session's playback and forgets it.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	s.Controller.Close()
	m.logger.Info("session closed", "session_id", id)
	return nil
}

// CloseAll closes every open session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Controller.Close()
	}
}

// List returns the open sessions, oldest first.
func (m *Manager) List() []*Session {
	m.mu.Lock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Registry returns the algorithm registry.
func (m *Manager) Registry() *registry.Registry {
	return m.registry
}
