package kdtree

import (
	"math"
	"math/rand"
	"testing"
)

// S6: a three-point kd-tree returns the literal nearest center and its
// exact distance (1, which is also the squared distance here).
func TestNNSearch_ThreeCenters(t *testing.T) {
	centers := [][]float32{{0, 0}, {5, 5}, {0, 10}}
	tree, err := Build(centers, L2)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	id, d := tree.NNSearch([]float32{0, 9})
	if id != 2 {
		t.Errorf("NNSearch id = %d, want 2", id)
	}
	if math.Abs(float64(d-1)) > 1e-6 {
		t.Errorf("NNSearch distance = %f, want 1", d)
	}
}

func TestBuild_RejectsEmptyPoints(t *testing.T) {
	if _, err := Build(nil, L2); err == nil {
		t.Fatal("expected an error building a tree over zero points")
	}
}

// kd-NN must agree with an exhaustive linear scan on random point sets,
// across both metrics.
func TestNNSearch_MatchesLinearScan(t *testing.T) {
	for _, kind := range []DistanceKind{L2, L1} {
		r := rand.New(rand.NewSource(42))
		centers := make([][]float32, 30)
		for i := range centers {
			centers[i] = []float32{r.Float32() * 100, r.Float32() * 100, r.Float32() * 100}
		}
		tree, err := Build(centers, kind)
		if err != nil {
			t.Fatalf("Build: %v", err)
		}

		for q := 0; q < 50; q++ {
			query := []float32{r.Float32() * 100, r.Float32() * 100, r.Float32() * 100}
			gotID, _ := tree.NNSearch(query)

			wantID := linearNearest(centers, query, kind)
			if gotID != wantID {
				t.Fatalf("kind=%v query=%v: NNSearch=%d, linear scan=%d", kind, query, gotID, wantID)
			}
		}
	}
}

// Boundary: alpha = 1 in ANNSearch is equivalent to NNSearch.
func TestANNSearch_AlphaOneMatchesExact(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	centers := make([][]float32, 25)
	for i := range centers {
		centers[i] = []float32{r.Float32() * 50, r.Float32() * 50}
	}
	tree, err := Build(centers, L2)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	for q := 0; q < 20; q++ {
		query := []float32{r.Float32() * 50, r.Float32() * 50}
		exactID, exactDist := tree.NNSearch(query)
		approxID, approxDist := tree.ANNSearch(query, 1.0)
		if exactID != approxID {
			t.Errorf("query %v: exact id %d, alpha=1 approx id %d", query, exactID, approxID)
		}
		if exactDist != approxDist {
			t.Errorf("query %v: exact dist %f, alpha=1 approx dist %f", query, exactDist, approxDist)
		}
	}
}

// A looser alpha can only ever match or exceed the exact nearest distance,
// never undercut it.
func TestANNSearch_NeverBeatsExactDistance(t *testing.T) {
	r := rand.New(rand.NewSource(9))
	centers := make([][]float32, 40)
	for i := range centers {
		centers[i] = []float32{r.Float32() * 30, r.Float32() * 30}
	}
	tree, err := Build(centers, L2)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	for q := 0; q < 30; q++ {
		query := []float32{r.Float32() * 30, r.Float32() * 30}
		_, exactDist := tree.NNSearch(query)
		_, approxDist := tree.ANNSearch(query, 2.0)
		if approxDist < exactDist-1e-4 {
			t.Errorf("query %v: approx dist %f < exact dist %f", query, approxDist, exactDist)
		}
	}
}

func linearNearest(centers [][]float32, q []float32, kind DistanceKind) int {
	best, bestDist := -1, float32(math.MaxFloat32)
	for i, c := range centers {
		var d float32
		if kind == L1 {
			for j := range c {
				diff := c[j] - q[j]
				if diff < 0 {
					diff = -diff
				}
				d += diff
			}
		} else {
			for j := range c {
				diff := c[j] - q[j]
				d += diff * diff
			}
		}
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}
