package ports

import (
	"context"

	"github.com/aretw0/stepper/pkg/domain"
)

// TraceCache stores compiled traces by key.
// Since generation is deterministic a cached trace is interchangeable with a fresh one.
type TraceCache interface {
	// Get returns the trace for key, or domain.ErrCacheMiss.
	Get(ctx context.Context, key string) (domain.Trace, error)

	// Put stores the trace under key, replacing any previous entry.
	Put(ctx context.Context, key string, trace domain.Trace) error

	// Delete removes the entry. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
