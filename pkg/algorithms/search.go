package algorithms

import (
	"context"
	"sort"

	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/ports"
	"github.com/aretw0/stepper/pkg/trace"
)

// LinearSearch scans the array left to right.
func LinearSearch() ports.TraceGenerator {
	return trace.Typed(func(ctx context.Context, in Input) (domain.Trace, error) {
		arr := in.values()
		b := trace.NewBuilder(len(arr) + 2)
		if len(arr) == 0 {
			b.Push("The array is empty, there is nothing to search.", SearchFrame{Probe: -1, Found: -1, Target: in.Target})
			return b.Build()
		}

		frame := SearchFrame{Array: arr, Target: in.Target, High: len(arr) - 1, Probe: -1, Found: -1}
		b.Pushf(frame, "Search for **%d** in %d elements.", in.Target, len(arr))
		for i, v := range arr {
			if err := ctx.Err(); err != nil {
				return domain.Trace{}, err
			}
			frame.Low, frame.Probe = i, i
			if v == in.Target {
				frame.Found = i
				b.Pushf(frame, "`a[%d] = %d` matches the target. Found at index **%d**.", i, v, i)
				return b.Build()
			}
			b.Pushf(frame, "`a[%d] = %d` is not %d, move on.", i, v, in.Target)
		}
		frame.Probe = -1
		b.Pushf(frame, "Reached the end: **%d** is not in the array.", in.Target)
		return b.Build()
	})
}

// BinarySearch halves a sorted copy of the array until the target is found.
func BinarySearch() ports.TraceGenerator {
	return trace.Typed(func(ctx context.Context, in Input) (domain.Trace, error) {
		arr := in.values()
		b := trace.NewBuilder(len(arr) + 2)
		if len(arr) == 0 {
			b.Push("The array is empty, there is nothing to search.", SearchFrame{Probe: -1, Found: -1, Target: in.Target})
			return b.Build()
		}

		frame := SearchFrame{Array: arr, Target: in.Target, High: len(arr) - 1, Probe: -1, Found: -1}
		if !sort.IntsAreSorted(arr) {
			b.Push("Binary search needs sorted input, so sort it first.", frame)
			sort.Ints(arr)
		}
		b.Pushf(frame, "Search for **%d** between index 0 and %d.", in.Target, len(arr)-1)

		low, high := 0, len(arr)-1
		for low <= high {
			if err := ctx.Err(); err != nil {
				return domain.Trace{}, err
			}
			mid := low + (high-low)/2
			frame.Low, frame.High, frame.Probe = low, high, mid
			switch {
			case arr[mid] == in.Target:
				frame.Found = mid
				b.Pushf(frame, "`a[%d] = %d` is the target. Found at index **%d**.", mid, arr[mid], mid)
				return b.Build()
			case arr[mid] < in.Target:
				b.Pushf(frame, "`a[%d] = %d` < %d, discard the left half.", mid, arr[mid], in.Target)
				low = mid + 1
			default:
				b.Pushf(frame, "`a[%d] = %d` > %d, discard the right half.", mid, arr[mid], in.Target)
				high = mid - 1
			}
		}
		frame.Low, frame.High, frame.Probe = low, high, -1
		b.Pushf(frame, "The window is empty: **%d** is not in the array.", in.Target)
		return b.Build()
	})
}
