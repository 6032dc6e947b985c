package algorithms

import (
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/registry"
	"github.com/aretw0/stepper/pkg/trace"
)

// Register adds the reference algorithms to reg.
func Register(reg *registry.Registry) {
	defaults := domain.Params{"size": 8, "seed": 1}
	searchDefaults := domain.Params{"size": 8, "seed": 1, "target": 42}

	reg.Register(registry.Algorithm{
		Name:        "binary-search",
		Description: "Halve a sorted window until the target is found.",
		Defaults:    searchDefaults,
		New:         BinarySearch,
		Payload:     trace.PayloadAs[SearchFrame](),
	})
	reg.Register(registry.Algorithm{
		Name:        "bubble-sort",
		Description: "Swap adjacent out-of-order pairs until a pass makes no swaps.",
		Defaults:    defaults,
		New:         BubbleSort,
		Payload:     trace.PayloadAs[ArrayFrame](),
	})
	reg.Register(registry.Algorithm{
		Name:        "linear-search",
		Description: "Compare every element with the target, left to right.",
		Defaults:    searchDefaults,
		New:         LinearSearch,
		Payload:     trace.PayloadAs[SearchFrame](),
	})
	reg.Register(registry.Algorithm{
		Name:        "min-heap",
		Description: "Insert values into a binary min-heap with sift-up.",
		Defaults:    defaults,
		New:         MinHeap,
		Payload:     trace.PayloadAs[ArrayFrame](),
	})
}

// Default returns a registry holding the reference algorithms.
func Default() *registry.Registry {
	reg := registry.NewRegistry()
	Register(reg)
	return reg
}
