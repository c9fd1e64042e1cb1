// Package kmeans implements an accelerated Lloyd-iteration k-means engine.
//
// The iterator follows the bound-maintenance scheme of Hamerly's k-means:
// each point carries an upper bound on its distance to its own center and a
// lower bound on its distance to every other center, which lets most
// iterations skip the full k-way distance scan once the clustering starts
// to converge.
package kmeans

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// Numeric is the set of element types a Dataset's points may be made of.
// Center arithmetic is always promoted to float32 regardless of T.
type Numeric interface {
	constraints.Integer | constraints.Float
}

// Dataset is an ordered, read-only view over N points of dimension D.
type Dataset[T Numeric] struct {
	Points [][]T
	Dim    int
}

// NewDataset validates and wraps a slice of equal-length points.
func NewDataset[T Numeric](points [][]T) (Dataset[T], error) {
	if len(points) == 0 {
		return Dataset[T]{}, fmt.Errorf("kmeans: empty dataset")
	}
	dim := len(points[0])
	if dim == 0 {
		return Dataset[T]{}, fmt.Errorf("kmeans: zero-dimensional points")
	}
	for i, p := range points {
		if len(p) != dim {
			return Dataset[T]{}, fmt.Errorf("kmeans: point %d has dimension %d, want %d", i, len(p), dim)
		}
	}
	return Dataset[T]{Points: points, Dim: dim}, nil
}

// N returns the number of points in the dataset.
func (d Dataset[T]) N() int { return len(d.Points) }

// DistanceKind selects the metric used throughout seeding and assignment.
type DistanceKind int

const (
	L2 DistanceKind = iota
	L1
)

func (k DistanceKind) String() string {
	switch k {
	case L2:
		return "L2"
	case L1:
		return "L1"
	default:
		return "unknown"
	}
}

// SeedingMode selects how the initial k centers are produced.
type SeedingMode int

const (
	RandomSeeding SeedingMode = iota
	KMeansPlusPlusSeeding
	UserSeeding
)

// AssignmentStrategy selects the per-point assignment step used by the
// outer Lloyd loop.
type AssignmentStrategy int

const (
	// LinearBound is the Hamerly bound-accelerated assignment (§4.D).
	LinearBound AssignmentStrategy = iota
	// KDExact assigns via an exact kd-tree nearest-neighbor query.
	KDExact
	// KDApprox assigns via an alpha-approximate kd-tree query.
	KDApprox
)

// Criteria bounds the outer iteration.
type Criteria struct {
	// Alpha is the approximation slack for KDApprox assignment; must be >= 1.
	Alpha float32
	// Accuracy is the convergence threshold on successive |e - e_prev|.
	Accuracy float32
	// Iterations is the hard cap on outer iterations.
	Iterations int
}

// Options configures a SimpleKMeans run.
type Options struct {
	K            int
	DistanceKind DistanceKind
	Seeding      SeedingMode
	Assignment   AssignmentStrategy
	Criteria     Criteria
	// Seeds is read only when Seeding == UserSeeding; the other modes ignore
	// it and do not write the chosen seeds back into it.
	Seeds    [][]float32
	NThreads int
	Verbose  bool
	// Rand, when non-nil, overrides the entropy source used by seeding.
	Rand RandSource
	// Logger receives verbose-mode diagnostics; nil disables logging.
	Logger VerboseLogger
}

// VerboseLogger is the minimal logging contract the engine calls into when
// Options.Verbose is set. *observability.Logger satisfies it.
type VerboseLogger interface {
	LogIteration(iteration int, e, distortion float32)
	LogEmptyClusterRecovered(cluster, victim, point int)
	LogConverged(iteration int, e float32, reason string)
}

// Result bundles the output of a clustering run together with the
// diagnostics a caller may want to report or assert on in tests.
type Result struct {
	Centers [][]float32
	Labels  []int
	Stats   RunStats
}

// RunStats captures counters accumulated over the outer loop, mirroring
// what the reference implementation's verbose mode prints per iteration.
type RunStats struct {
	Iterations             int
	EmptyClusterRecoveries int
	FinalError             float32
	FinalDistortion        float32
	Converged              bool
}
