package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/ports"
)

// Factory builds a fresh generator for one algorithm.
type Factory func() ports.TraceGenerator

// Algorithm describes a registered trace generator.
type Algorithm struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Defaults    domain.Params `json:"defaults,omitempty"`
	New         Factory       `json:"-"`
	// Payload restores typed step payloads after a trip through a serialized cache.
	Payload func(payload any) (any, error) `json:"-"`
}

// Registry manages the available algorithms.
type Registry struct {
	mu         sync.RWMutex
	algorithms map[string]Algorithm
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		algorithms: make(map[string]Algorithm),
	}
}

// Register adds an algorithm to the registry.
// If an algorithm with the same name exists, it is overwritten.
func (r *Registry) Register(alg Algorithm) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.algorithms[alg.Name] = alg
}

// Get looks up an algorithm by name.
func (r *Registry) Get(name string) (Algorithm, error) {
	r.mu.RLock()
	alg, ok := r.algorithms[name]
	r.mu.RUnlock()

	if !ok {
		return Algorithm{}, fmt.Errorf("%w: %s", domain.ErrUnknownAlgorithm, name)
	}
	return alg, nil
}

// Generator returns a new generator for name.
func (r *Registry) Generator(name string) (ports.TraceGenerator, error) {
	alg, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return alg.New(), nil
}

// Generate compiles a trace for name. Missing params fall back to the algorithm defaults.
func (r *Registry) Generate(ctx context.Context, name string, params domain.Params) (domain.Trace, error) {
	alg, err := r.Get(name)
	if err != nil {
		return domain.Trace{}, err
	}
	return alg.New().Generate(ctx, alg.WithDefaults(params))
}

// List returns every algorithm sorted by name.
func (r *Registry) List() []Algorithm {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Algorithm, 0, len(r.algorithms))
	for _, alg := range r.algorithms {
		out = append(out, alg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// WithDefaults overlays params on top of the algorithm defaults.
func (a Algorithm) WithDefaults(params domain.Params) domain.Params {
	merged := a.Defaults.Clone()
	if merged == nil {
		merged = make(domain.Params, len(params))
	}
	for k, v := range params {
		merged[k] = v
	}
	return merged
}
