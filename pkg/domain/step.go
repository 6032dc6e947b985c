package domain

// Step is one snapshot of algorithm state.
// A Step must carry everything a render layer needs to draw that instant;
// it never refers to neighbouring steps.
type Step struct {
	// Description is the human readable narration for this step.
	Description string `json:"description"`

	// Payload is the algorithm specific state (array, heap, grid, ...).
	// It is owned by the step and must not be shared with any other step.
	Payload any `json:"payload,omitempty"`
}
