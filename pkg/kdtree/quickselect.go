package kdtree

import (
	mrand "math/rand"

	"golang.org/x/exp/constraints"
)

// QuickSelect returns the k-th smallest element (0-indexed) of values
// using the same randomized-pivot partitioning scheme the tree uses to
// find each axis's median, exposed standalone for direct testing (§6, §9).
// values is partitioned in place.
func QuickSelect[T constraints.Ordered](values []T, k int) T {
	lo, hi := 0, len(values)-1
	for lo < hi {
		pivotIdx := lo + mrand.Intn(hi-lo+1)
		pivotIdx = partitionOrdered(values, lo, hi, pivotIdx)
		switch {
		case k == pivotIdx:
			return values[k]
		case k < pivotIdx:
			hi = pivotIdx - 1
		default:
			lo = pivotIdx + 1
		}
	}
	return values[k]
}

func partitionOrdered[T constraints.Ordered](values []T, lo, hi, pivotIdx int) int {
	pivotVal := values[pivotIdx]
	values[pivotIdx], values[hi] = values[hi], values[pivotIdx]
	store := lo
	for i := lo; i < hi; i++ {
		if values[i] < pivotVal {
			values[i], values[store] = values[store], values[i]
			store++
		}
	}
	values[store], values[hi] = values[hi], values[store]
	return store
}
