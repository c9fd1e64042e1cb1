package kdtree

import (
	"math/rand"
	"sort"
	"testing"
)

// S5: quick_select_k([1,3,5,7,9], k=3) returns 7, the 4th-smallest
// (zero-indexed 3) element.
func TestQuickSelect_LiteralScenario(t *testing.T) {
	values := []int{1, 3, 5, 7, 9}
	got := QuickSelect(values, 3)
	if got != 7 {
		t.Errorf("QuickSelect(..., 3) = %d, want 7", got)
	}
}

func TestQuickSelect_MatchesSortedOrder(t *testing.T) {
	r := rand.New(rand.NewSource(13))
	for trial := 0; trial < 20; trial++ {
		n := 1 + r.Intn(50)
		values := make([]int, n)
		for i := range values {
			values[i] = r.Intn(1000)
		}
		sorted := append([]int(nil), values...)
		sort.Ints(sorted)

		for k := 0; k < n; k++ {
			work := append([]int(nil), values...)
			got := QuickSelect(work, k)
			if got != sorted[k] {
				t.Fatalf("trial %d k=%d: QuickSelect = %d, want %d", trial, k, got, sorted[k])
			}
		}
	}
}

func TestQuickSelect_SingleElement(t *testing.T) {
	values := []float64{42}
	if got := QuickSelect(values, 0); got != 42 {
		t.Errorf("QuickSelect([42], 0) = %f, want 42", got)
	}
}

func TestQuickSelect_AllEqualElements(t *testing.T) {
	values := make([]int, 10)
	for i := range values {
		values[i] = 7
	}
	for k := 0; k < len(values); k++ {
		work := append([]int(nil), values...)
		if got := QuickSelect(work, k); got != 7 {
			t.Errorf("QuickSelect(all-7s, %d) = %d, want 7", k, got)
		}
	}
}
