package domain

import (
	"encoding/json"
	"fmt"
)

// Trace is the full, pre-computed, ordered list of Steps for one algorithm run.
// A Trace always holds at least one step and is read-only once built.
type Trace struct {
	steps []Step
}

// NewTrace builds a Trace from the given steps.
// It returns ErrEmptyTrace if steps is empty. The slice is copied so later
// appends by the caller cannot leak into the trace.
func NewTrace(steps []Step) (Trace, error) {
	if len(steps) == 0 {
		return Trace{}, ErrEmptyTrace
	}
	owned := make([]Step, len(steps))
	copy(owned, steps)
	return Trace{steps: owned}, nil
}

// Len returns the number of steps.
func (t Trace) Len() int {
	return len(t.steps)
}

// LastIndex returns the index of the final step.
func (t Trace) LastIndex() int {
	return len(t.steps) - 1
}

// At returns the step at index i. It panics if i is out of range,
// which is a programming error in the caller.
func (t Trace) At(i int) Step {
	return t.steps[i]
}

// Steps returns a copy of the step list.
func (t Trace) Steps() []Step {
	out := make([]Step, len(t.steps))
	copy(out, t.steps)
	return out
}

// IsZero reports whether the trace was never built.
func (t Trace) IsZero() bool {
	return t.steps == nil
}

func (t Trace) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Steps []Step `json:"steps"`
	}{Steps: t.steps})
}

func (t *Trace) UnmarshalJSON(data []byte) error {
	var raw struct {
		Steps []Step `json:"steps"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	built, err := NewTrace(raw.Steps)
	if err != nil {
		return fmt.Errorf("decode trace: %w", err)
	}
	*t = built
	return nil
}
