package algorithms

import (
	"context"

	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/ports"
	"github.com/aretw0/stepper/pkg/trace"
)

// BubbleSort records every comparison and swap of an ascending bubble sort.
// A pass without swaps ends the sort early.
func BubbleSort() ports.TraceGenerator {
	return trace.Typed(func(ctx context.Context, in Input) (domain.Trace, error) {
		arr := in.values()
		b := trace.NewBuilder(len(arr) * len(arr))
		if len(arr) == 0 {
			b.Push("The array is empty, it is already sorted.", ArrayFrame{})
			return b.Build()
		}

		b.Pushf(ArrayFrame{Array: arr}, "Sort %d elements in ascending order.", len(arr))
		n := len(arr)
		for pass := 0; pass < n-1; pass++ {
			swapped := false
			for i := 0; i < n-1-pass; i++ {
				if err := ctx.Err(); err != nil {
					return domain.Trace{}, err
				}
				frame := ArrayFrame{Array: arr, Active: []int{i, i + 1}, Settled: pass}
				if arr[i] > arr[i+1] {
					b.Pushf(frame, "%d > %d, swap them.", arr[i], arr[i+1])
					arr[i], arr[i+1] = arr[i+1], arr[i]
					swapped = true
					b.Pushf(frame, "Swapped positions %d and %d.", i, i+1)
					continue
				}
				b.Pushf(frame, "%d ≤ %d, keep the order.", arr[i], arr[i+1])
			}
			if !swapped {
				b.Pushf(ArrayFrame{Array: arr, Settled: n}, "Pass %d made no swaps, the array is sorted.", pass+1)
				return b.Build()
			}
		}
		b.Push("The array is sorted.", ArrayFrame{Array: arr, Settled: n})
		return b.Build()
	})
}
