package share

// VisualizerState is the fragment schema shared by the visualizers:
// the input array, the algorithm, the cursor, the speed dial and, for
// searches, the target.
type VisualizerState struct {
	Array     []int  `share:"a" json:"array,omitempty"`
	Algorithm string `share:"alg" json:"algorithm,omitempty"`
	Step      *int   `share:"s" json:"step,omitempty"`
	Speed     *int   `share:"sp" json:"speed,omitempty"`
	Target    *int   `share:"t" json:"target,omitempty"`
}

// IsEmpty reports whether no field is defined.
func (s VisualizerState) IsEmpty() bool {
	return len(s.Array) == 0 && s.Algorithm == "" && s.Step == nil && s.Speed == nil && s.Target == nil
}

// Int returns a pointer to v, for filling optional fields.
func Int(v int) *int {
	return &v
}

// NewVisualizerCodec returns the codec for VisualizerState.
func NewVisualizerCodec(opts ...CodecOption) *Codec[VisualizerState] {
	return MustCodec[VisualizerState](opts...)
}
