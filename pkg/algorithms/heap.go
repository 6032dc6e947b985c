package algorithms

import (
	"context"

	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/ports"
	"github.com/aretw0/stepper/pkg/trace"
)

// MinHeap inserts the values one by one into a binary min-heap, recording each sift-up.
func MinHeap() ports.TraceGenerator {
	return trace.Typed(func(ctx context.Context, in Input) (domain.Trace, error) {
		values := in.values()
		b := trace.NewBuilder(len(values) * 3)
		if len(values) == 0 {
			b.Push("No values to insert, the heap stays empty.", ArrayFrame{})
			return b.Build()
		}

		heap := make([]int, 0, len(values))
		b.Pushf(ArrayFrame{Array: heap}, "Build a min-heap from %d values.", len(values))
		for _, v := range values {
			if err := ctx.Err(); err != nil {
				return domain.Trace{}, err
			}
			heap = append(heap, v)
			i := len(heap) - 1
			b.Pushf(ArrayFrame{Array: heap, Active: []int{i}}, "Insert **%d** at index %d.", v, i)
			for i > 0 {
				parent := (i - 1) / 2
				if heap[parent] <= heap[i] {
					b.Pushf(ArrayFrame{Array: heap, Active: []int{parent, i}}, "Parent %d ≤ %d, the heap property holds.", heap[parent], heap[i])
					break
				}
				heap[parent], heap[i] = heap[i], heap[parent]
				b.Pushf(ArrayFrame{Array: heap, Active: []int{parent, i}}, "Parent was larger, swap %d up to index %d.", heap[parent], parent)
				i = parent
			}
		}
		b.Pushf(ArrayFrame{Array: heap, Settled: len(heap)}, "Done. The minimum **%d** sits at the root.", heap[0])
		return b.Build()
	})
}
