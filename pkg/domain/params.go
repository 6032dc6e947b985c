package domain

// Params holds the generation inputs of an algorithm run (array, target, seed, ...).
// Generators decode it into their own typed parameter struct.
type Params map[string]any

// Clone returns a shallow copy of the parameters.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
