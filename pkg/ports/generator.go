package ports

import (
	"context"

	"github.com/aretw0/stepper/pkg/domain"
)

// TraceGenerator compiles an algorithm run into a Trace before playback begins.
//
// Implementations must be pure and total: the same params always yield the same
// trace, no I/O happens, randomness only comes from a seed carried in params, and
// every run terminates. An input the algorithm rejects still produces a trace with
// at least one step describing the outcome.
type TraceGenerator interface {
	Generate(ctx context.Context, params domain.Params) (domain.Trace, error)
}
