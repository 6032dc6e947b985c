package algorithms

import (
	"math/rand"
)

// SearchFrame is the payload of a search step.
type SearchFrame struct {
	Array  []int `json:"array"`
	Target int   `json:"target"`
	Low    int   `json:"low"`
	High   int   `json:"high"`
	Probe  int   `json:"probe"` // Index being compared, -1 when none
	Found  int   `json:"found"` // Index of the target, -1 until found
}

// Values returns the array being searched.
func (f SearchFrame) Values() []int { return f.Array }

// Marks returns the indices worth highlighting.
func (f SearchFrame) Marks() []int {
	if f.Found >= 0 {
		return []int{f.Found}
	}
	if f.Probe >= 0 {
		return []int{f.Probe}
	}
	return nil
}

// ArrayFrame is the payload of a sort or heap step.
type ArrayFrame struct {
	Array   []int `json:"array"`
	Active  []int `json:"active,omitempty"`  // Indices being compared or swapped
	Settled int   `json:"settled,omitempty"` // Elements known to be in final position
}

// Values returns the array at this step.
func (f ArrayFrame) Values() []int { return f.Array }

// Marks returns the active indices.
func (f ArrayFrame) Marks() []int { return f.Active }

// Input is the parameter set shared by all reference algorithms.
// Array wins over Size; when only Size is given, values are drawn from Seed.
type Input struct {
	Array  []int `param:"array"`
	Size   int   `param:"size"`
	Seed   int64 `param:"seed"`
	Target int   `param:"target"`
}

// MaxSize caps generated and supplied arrays.
const MaxSize = 256

func (in Input) values() []int {
	if len(in.Array) > 0 {
		out := make([]int, min(len(in.Array), MaxSize))
		copy(out, in.Array)
		return out
	}
	if in.Size <= 0 {
		return nil
	}
	return RandomArray(min(in.Size, MaxSize), in.Seed)
}

// RandomArray returns n values in [1, 99] drawn deterministically from seed.
func RandomArray(n int, seed int64) []int {
	rng := rand.New(rand.NewSource(seed))
	out := make([]int, n)
	for i := range out {
		out[i] = 1 + rng.Intn(99)
	}
	return out
}
