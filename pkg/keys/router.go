package keys

import (
	"log/slog"
	"sync"

	"github.com/aretw0/stepper/internal/logging"
	"github.com/aretw0/stepper/pkg/domain"
)

// Event is a single key press.
type Event struct {
	Key  rune
	Ctrl bool
	Meta bool
	// TextEntry is set when focus is on a field that accepts typed text.
	TextEntry bool
}

// Controller is the part of a playback controller the shortcuts drive.
type Controller interface {
	Toggle()
	Step()
	StepBack()
	Reset() error
	State() domain.PlaybackState
}

// Action runs a bound operation against the scope's controller.
type Action func(c Controller) error

// Toggle plays or pauses.
func Toggle(c Controller) error {
	c.Toggle()
	return nil
}

// StepWhilePaused steps forward unless playback is running.
func StepWhilePaused(c Controller) error {
	if !c.State().IsPlaying {
		c.Step()
	}
	return nil
}

// StepBackWhilePaused steps backward unless playback is running.
func StepBackWhilePaused(c Controller) error {
	if !c.State().IsPlaying {
		c.StepBack()
	}
	return nil
}

// Reset rewinds the controller.
func Reset(c Controller) error {
	return c.Reset()
}

// DefaultBindings returns a fresh copy of the standard key map.
func DefaultBindings() map[rune]Action {
	return map[rune]Action{
		'p': Toggle,
		'P': Toggle,
		'[': StepBackWhilePaused,
		']': StepWhilePaused,
		'r': Reset,
		'R': Reset,
	}
}

// Router dispatches key events to registered scopes.
type Router struct {
	mu       sync.Mutex
	scopes   []*Scope
	bindings map[rune]Action
	logger   *slog.Logger
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithLogger sets the logger used to report failed actions.
func WithLogger(logger *slog.Logger) RouterOption {
	return func(r *Router) {
		r.logger = logger
	}
}

// WithBinding adds or replaces the action for key. A nil action removes the binding.
func WithBinding(key rune, action Action) RouterOption {
	return func(r *Router) {
		if action == nil {
			delete(r.bindings, key)
			return
		}
		r.bindings[key] = action
	}
}

// NewRouter creates a router with the default bindings.
func NewRouter(opts ...RouterOption) *Router {
	r := &Router{
		bindings: DefaultBindings(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Scope ties a controller to a router until Unregister is called.
type Scope struct {
	router *Router
	ctrl   Controller
	active func() bool
	once   sync.Once
}

// ScopeOption configures a Scope.
type ScopeOption func(*Scope)

// WhenActive restricts the scope to moments where fn reports true,
// e.g. while its visualizer is focused or on screen.
func WhenActive(fn func() bool) ScopeOption {
	return func(s *Scope) {
		s.active = fn
	}
}

// Register adds a scope for c. Scopes without an active predicate are always active.
func (r *Router) Register(c Controller, opts ...ScopeOption) *Scope {
	s := &Scope{router: r, ctrl: c}
	for _, opt := range opts {
		opt(s)
	}
	r.mu.Lock()
	r.scopes = append(r.scopes, s)
	r.mu.Unlock()
	return s
}

// Unregister removes the scope. It is safe to call more than once.
func (s *Scope) Unregister() {
	s.once.Do(func() {
		r := s.router
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, other := range r.scopes {
			if other == s {
				r.scopes = append(r.scopes[:i], r.scopes[i+1:]...)
				return
			}
		}
	})
}

func (s *Scope) isActive() bool {
	return s.active == nil || s.active()
}

// Len returns the number of registered scopes.
func (r *Router) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.scopes)
}

// Dispatch routes ev and reports whether a binding ran.
// Errors from the action are logged, not returned; the key press has no caller to report to.
func (r *Router) Dispatch(ev Event) bool {
	if ev.TextEntry || ev.Ctrl || ev.Meta {
		return false
	}

	r.mu.Lock()
	action, ok := r.bindings[ev.Key]
	var target *Scope
	if ok {
		for _, s := range r.scopes {
			if s.isActive() {
				target = s
				break
			}
		}
	}
	r.mu.Unlock()

	if target == nil {
		return false
	}
	if err := action(target.ctrl); err != nil {
		r.logger.Error("shortcut failed", "key", string(ev.Key), "error", err)
	}
	return true
}
