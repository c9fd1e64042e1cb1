package kmeans

import (
	"math"
	"testing"
)

func mustDataset(t *testing.T, points [][]float32) Dataset[float32] {
	t.Helper()
	d, err := NewDataset(points)
	if err != nil {
		t.Fatalf("NewDataset: %v", err)
	}
	return d
}

// S1: two well-separated 2-D clusters converge to their means.
func TestSimpleKMeans_TwoClusters(t *testing.T) {
	data := mustDataset(t, [][]float32{
		{1, 1},
		{1, 2},
		{10, 10},
		{10, 11},
	})

	result, err := SimpleKMeans(data, Options{
		K:            2,
		DistanceKind: L2,
		Seeding:      RandomSeeding,
		Assignment:   LinearBound,
		Criteria:     Criteria{Alpha: 1, Accuracy: 1e-6, Iterations: 100},
		NThreads:     1,
	})
	if err != nil {
		t.Fatalf("SimpleKMeans: %v", err)
	}

	if result.Labels[0] != result.Labels[1] {
		t.Errorf("points 0,1 should share a cluster, got labels %v", result.Labels)
	}
	if result.Labels[2] != result.Labels[3] {
		t.Errorf("points 2,3 should share a cluster, got labels %v", result.Labels)
	}
	if result.Labels[0] == result.Labels[2] {
		t.Errorf("the two groups should not share a cluster, got labels %v", result.Labels)
	}

	lowCenter := result.Centers[result.Labels[0]]
	highCenter := result.Centers[result.Labels[2]]
	wantLow := []float32{1, 1.5}
	wantHigh := []float32{10, 10.5}
	for j := range wantLow {
		if math.Abs(float64(lowCenter[j]-wantLow[j])) > 1e-3 {
			t.Errorf("low center[%d] = %v, want %v", j, lowCenter, wantLow)
		}
		if math.Abs(float64(highCenter[j]-wantHigh[j])) > 1e-3 {
			t.Errorf("high center[%d] = %v, want %v", j, highCenter, wantHigh)
		}
	}
}

// S2: coincident points leave one cluster permanently empty without crashing.
func TestSimpleKMeans_CoincidentPointsLeaveEmptyCluster(t *testing.T) {
	data := mustDataset(t, [][]float32{
		{0, 0},
		{0, 0},
		{0, 0},
	})

	result, err := SimpleKMeans(data, Options{
		K:            2,
		DistanceKind: L2,
		Seeding:      RandomSeeding,
		Assignment:   LinearBound,
		Criteria:     Criteria{Alpha: 1, Accuracy: 1e-6, Iterations: 20},
		NThreads:     1,
	})
	if err != nil {
		t.Fatalf("SimpleKMeans: %v", err)
	}

	if result.Stats.FinalDistortion != 0 {
		t.Errorf("distortion = %f, want 0", result.Stats.FinalDistortion)
	}

	sizes := map[int]int{}
	for _, l := range result.Labels {
		sizes[l]++
	}
	var counts []int
	for _, n := range sizes {
		counts = append(counts, n)
	}
	if len(counts) != 1 || counts[0] != 3 {
		t.Errorf("expected a single populated cluster of size 3, got sizes %v", sizes)
	}
}

// S3: ten evenly spaced groups along a line cluster into low distortion.
func TestSimpleKMeans_EvenlySpacedLine(t *testing.T) {
	points := make([][]float32, 100)
	for i := range points {
		points[i] = []float32{float32(i), 0}
	}
	data := mustDataset(t, points)

	result, err := SimpleKMeans(data, Options{
		K:            10,
		DistanceKind: L2,
		Seeding:      KMeansPlusPlusSeeding,
		Assignment:   LinearBound,
		Criteria:     Criteria{Alpha: 1, Accuracy: 1e-6, Iterations: 50},
		NThreads:     1,
	})
	if err != nil {
		t.Fatalf("SimpleKMeans: %v", err)
	}

	if result.Stats.FinalDistortion > 1000 {
		t.Errorf("distortion = %f, want <= 1000", result.Stats.FinalDistortion)
	}
}

// S4 / boundary: k == N drives distortion to zero since every point can be
// its own cluster.
func TestSimpleKMeans_KEqualsN(t *testing.T) {
	r := newTestRand(7)
	points := make([][]float32, 50)
	for i := range points {
		points[i] = make([]float32, 8)
		for j := range points[i] {
			points[i][j] = r.Float32()
		}
	}
	data := mustDataset(t, points)

	result, err := SimpleKMeans(data, Options{
		K:            50,
		DistanceKind: L2,
		Seeding:      KMeansPlusPlusSeeding,
		Assignment:   LinearBound,
		Criteria:     Criteria{Alpha: 1, Accuracy: 1e-6, Iterations: 50},
		NThreads:     1,
	})
	if err != nil {
		t.Fatalf("SimpleKMeans: %v", err)
	}
	if result.Stats.FinalDistortion > 1e-3 {
		t.Errorf("distortion = %f, want ~0 when k == N", result.Stats.FinalDistortion)
	}
}

// Boundary: k = 1 puts every point in cluster 0, at the dataset mean.
func TestSimpleKMeans_KEqualsOne(t *testing.T) {
	data := mustDataset(t, [][]float32{
		{0, 0},
		{2, 0},
		{4, 0},
		{6, 0},
	})

	result, err := SimpleKMeans(data, Options{
		K:            1,
		DistanceKind: L2,
		Seeding:      RandomSeeding,
		Assignment:   LinearBound,
		Criteria:     Criteria{Alpha: 1, Accuracy: 1e-6, Iterations: 10},
		NThreads:     1,
	})
	if err != nil {
		t.Fatalf("SimpleKMeans: %v", err)
	}
	for _, l := range result.Labels {
		if l != 0 {
			t.Errorf("labels = %v, want all 0 for k=1", result.Labels)
			break
		}
	}
	want := float32(3)
	if math.Abs(float64(result.Centers[0][0]-want)) > 1e-4 {
		t.Errorf("center = %v, want mean x = %f", result.Centers[0], want)
	}
}

// Round-trip law: seeding with the centers of an already-converged
// solution reports zero movement on the first iteration and stops via the
// accuracy criterion.
func TestSimpleKMeans_AlreadyConvergedSeedsStopImmediately(t *testing.T) {
	data := mustDataset(t, [][]float32{
		{0, 0}, {0, 1}, {1, 0}, {1, 1},
		{10, 10}, {10, 11}, {11, 10}, {11, 11},
	})

	result, err := SimpleKMeans(data, Options{
		K:          2,
		Seeding:    UserSeeding,
		Seeds:      [][]float32{{0.5, 0.5}, {10.5, 10.5}},
		Assignment: LinearBound,
		Criteria:   Criteria{Alpha: 1, Accuracy: 1e-6, Iterations: 50},
		NThreads:   1,
	})
	if err != nil {
		t.Fatalf("SimpleKMeans: %v", err)
	}
	if result.Stats.Iterations > 2 {
		t.Errorf("expected convergence within 2 iterations from converged seeds, got %d", result.Stats.Iterations)
	}
	if !result.Stats.Converged {
		t.Errorf("expected Converged = true")
	}
}

// Invariant 1/2: every point is assigned to exactly one valid cluster.
func TestSimpleKMeans_LabelsAndSizesInvariant(t *testing.T) {
	r := newTestRand(3)
	points := make([][]float32, 40)
	for i := range points {
		points[i] = []float32{r.Float32() * 10, r.Float32() * 10}
	}
	data := mustDataset(t, points)

	result, err := SimpleKMeans(data, Options{
		K:          4,
		Seeding:    KMeansPlusPlusSeeding,
		Assignment: LinearBound,
		Criteria:   Criteria{Alpha: 1, Accuracy: 1e-6, Iterations: 30},
		NThreads:   2,
	})
	if err != nil {
		t.Fatalf("SimpleKMeans: %v", err)
	}

	sizes := make([]int, 4)
	for _, l := range result.Labels {
		if l < 0 || l >= 4 {
			t.Fatalf("label %d out of range [0,4)", l)
		}
		sizes[l]++
	}
	total := 0
	for _, s := range sizes {
		total += s
	}
	if total != len(points) {
		t.Errorf("sum of cluster sizes = %d, want %d", total, len(points))
	}
}

// Result stability (invariant 6): a fixed RNG and thread count reproduce
// bit-identical centers and labels.
func TestSimpleKMeans_DeterministicWithFixedSeed(t *testing.T) {
	points := make([][]float32, 60)
	r := newTestRand(11)
	for i := range points {
		points[i] = []float32{r.Float32() * 5, r.Float32() * 5, r.Float32() * 5}
	}
	data := mustDataset(t, points)

	run := func() Result {
		res, err := SimpleKMeans(data, Options{
			K:          5,
			Seeding:    KMeansPlusPlusSeeding,
			Assignment: LinearBound,
			Criteria:   Criteria{Alpha: 1, Accuracy: 1e-6, Iterations: 30},
			NThreads:   2,
			Rand:       newTestRand(99),
		})
		if err != nil {
			t.Fatalf("SimpleKMeans: %v", err)
		}
		return res
	}

	a := run()
	b := run()

	if len(a.Centers) != len(b.Centers) {
		t.Fatalf("center count mismatch: %d vs %d", len(a.Centers), len(b.Centers))
	}
	for c := range a.Centers {
		for j := range a.Centers[c] {
			if a.Centers[c][j] != b.Centers[c][j] {
				t.Errorf("center[%d][%d] differs across runs: %f vs %f", c, j, a.Centers[c][j], b.Centers[c][j])
			}
		}
	}
	for i := range a.Labels {
		if a.Labels[i] != b.Labels[i] {
			t.Errorf("label[%d] differs across runs: %d vs %d", i, a.Labels[i], b.Labels[i])
		}
	}
}

// From the same seeds and over one iteration, the kd-exact assignment path
// must give every point a center at the same distance as the linear-bound
// path does, since both compute exact nearest-center assignment.
func TestSimpleKMeans_KDExactAgreesWithLinearBound(t *testing.T) {
	r := newTestRand(21)
	points := make([][]float32, 80)
	for i := range points {
		points[i] = []float32{r.Float32() * 20, r.Float32() * 20}
	}
	data := mustDataset(t, points)
	seeds, err := KMeansPlusPlusSeeds(data, 6, L2, newTestRand(5))
	if err != nil {
		t.Fatalf("KMeansPlusPlusSeeds: %v", err)
	}

	linear, err := SimpleKMeans(data, Options{
		K: 6, Seeding: UserSeeding, Seeds: seeds, Assignment: LinearBound,
		Criteria: Criteria{Alpha: 1, Accuracy: 1e-6, Iterations: 1}, NThreads: 1,
	})
	if err != nil {
		t.Fatalf("SimpleKMeans(linear): %v", err)
	}

	kdExact, err := SimpleKMeans(data, Options{
		K: 6, Seeding: UserSeeding, Seeds: seeds, Assignment: KDExact,
		Criteria: Criteria{Alpha: 1, Accuracy: 1e-6, Iterations: 1}, NThreads: 1,
	})
	if err != nil {
		t.Fatalf("SimpleKMeans(kdExact): %v", err)
	}

	for i := range points {
		linCenter := linear.Centers[linear.Labels[i]]
		kdCenter := kdExact.Centers[kdExact.Labels[i]]
		if L2Dist(linCenter, points[i], 2) != L2Dist(kdCenter, points[i], 2) {
			t.Errorf("point %d assigned to a non-nearest center under kd-exact", i)
		}
	}
}

// Boundary: alpha = 1 in kd-ANN is equivalent to kd-NN.
func TestSimpleKMeans_KDApproxAlphaOneMatchesExact(t *testing.T) {
	r := newTestRand(31)
	points := make([][]float32, 60)
	for i := range points {
		points[i] = []float32{r.Float32() * 20, r.Float32() * 20}
	}
	data := mustDataset(t, points)
	seeds, err := KMeansPlusPlusSeeds(data, 5, L2, newTestRand(5))
	if err != nil {
		t.Fatalf("KMeansPlusPlusSeeds: %v", err)
	}

	exact, err := SimpleKMeans(data, Options{
		K: 5, Seeding: UserSeeding, Seeds: seeds, Assignment: KDExact,
		Criteria: Criteria{Alpha: 1, Accuracy: 1e-6, Iterations: 1}, NThreads: 1,
	})
	if err != nil {
		t.Fatalf("SimpleKMeans(exact): %v", err)
	}

	approx, err := SimpleKMeans(data, Options{
		K: 5, Seeding: UserSeeding, Seeds: seeds, Assignment: KDApprox,
		Criteria: Criteria{Alpha: 1, Accuracy: 1e-6, Iterations: 1}, NThreads: 1,
	})
	if err != nil {
		t.Fatalf("SimpleKMeans(approx): %v", err)
	}

	for i := range points {
		if exact.Labels[i] != approx.Labels[i] {
			t.Errorf("point %d: exact label %d, alpha=1 approx label %d", i, exact.Labels[i], approx.Labels[i])
		}
	}
}

func TestSimpleKMeans_RejectsNLessThanK(t *testing.T) {
	data := mustDataset(t, [][]float32{{0, 0}, {1, 1}})
	_, err := SimpleKMeans(data, Options{K: 3, Criteria: Criteria{Accuracy: 1e-6, Iterations: 10}, NThreads: 1})
	if err == nil {
		t.Fatal("expected an error when N < k")
	}
}

func TestSimpleKMeans_RejectsInvalidAlpha(t *testing.T) {
	data := mustDataset(t, [][]float32{{0, 0}, {1, 1}, {2, 2}})
	_, err := SimpleKMeans(data, Options{
		K: 2, Assignment: KDApprox,
		Criteria: Criteria{Alpha: 0.5, Accuracy: 1e-6, Iterations: 10}, NThreads: 1,
	})
	if err == nil {
		t.Fatal("expected an error when alpha < 1 for kd-ANN")
	}
}
