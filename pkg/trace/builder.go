package trace

import (
	"fmt"

	"github.com/aretw0/stepper/pkg/domain"
	"github.com/mohae/deepcopy"
)

// Builder accumulates steps in execution order.
// The zero value is ready to use.
type Builder struct {
	steps []domain.Step
}

// NewBuilder creates a Builder with room for sizeHint steps.
func NewBuilder(sizeHint int) *Builder {
	if sizeHint < 0 {
		sizeHint = 0
	}
	return &Builder{steps: make([]domain.Step, 0, sizeHint)}
}

// Push records a step. The payload is deep-copied, so callers may keep mutating
// their working slices and maps after pushing. Only exported struct fields survive the copy.
func (b *Builder) Push(description string, payload any) {
	b.steps = append(b.steps, domain.Step{
		Description: description,
		Payload:     deepcopy.Copy(payload),
	})
}

// Pushf records a step with a formatted description.
func (b *Builder) Pushf(payload any, format string, args ...any) {
	b.Push(fmt.Sprintf(format, args...), payload)
}

// Len returns the number of recorded steps.
func (b *Builder) Len() int {
	return len(b.steps)
}

// Build returns the recorded trace, or domain.ErrEmptyTrace if nothing was pushed.
func (b *Builder) Build() (domain.Trace, error) {
	return domain.NewTrace(b.steps)
}
