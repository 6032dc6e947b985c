package algorithms

import (
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/share"
	"github.com/aretw0/stepper/pkg/trace"
)

// InputArray returns the array a run over params starts from, drawing it from
// size and seed when no explicit array is given. Undecodable params yield nil.
func InputArray(params domain.Params) []int {
	var in Input
	if err := trace.DecodeParams(params, &in); err != nil {
		return nil
	}
	return in.values()
}

// ShareState snapshots a run into the fragment schema. The array is always
// spelled out so the link does not depend on the random generator.
func ShareState(algorithm string, params domain.Params, state domain.PlaybackState) share.VisualizerState {
	s := share.VisualizerState{
		Array:     InputArray(params),
		Algorithm: algorithm,
		Step:      share.Int(state.Cursor),
		Speed:     share.Int(state.Speed),
	}
	if _, ok := params["target"]; ok {
		var in Input
		if err := trace.DecodeParams(params, &in); err == nil {
			s.Target = share.Int(in.Target)
		}
	}
	return s
}

// ParamsFromShare converts the input part of a shared state back into params.
func ParamsFromShare(s share.VisualizerState) domain.Params {
	params := domain.Params{}
	if len(s.Array) > 0 {
		params["array"] = append([]int(nil), s.Array...)
	}
	if s.Target != nil {
		params["target"] = *s.Target
	}
	return params
}
