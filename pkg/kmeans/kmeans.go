package kmeans

import (
	"fmt"
	"math"

	"github.com/hamerlykmeans/vector/pkg/kdtree"
)

const stallLimit = 10

// SimpleKMeans is the engine's single top-level entry point: it seeds,
// initializes, and iterates to convergence, then returns the final
// centers and labels (§6).
func SimpleKMeans[T Numeric](data Dataset[T], opts Options) (Result, error) {
	if err := validate(data, opts); err != nil {
		return Result{}, err
	}

	seeds, err := seed(data, opts)
	if err != nil {
		return Result{}, err
	}

	s := newState[T](data, opts.DistanceKind, opts.K, opts.NThreads)
	s.centers = make([][]float32, opts.K)
	for c := range s.centers {
		s.centers[c] = append([]float32(nil), seeds[c]...)
	}

	switch opts.Assignment {
	case LinearBound:
		return runLinearBound(s, opts)
	case KDExact, KDApprox:
		return runKDAssignment(s, opts)
	default:
		return Result{}, fmt.Errorf("kmeans: unknown assignment strategy %v", opts.Assignment)
	}
}

func validate[T Numeric](data Dataset[T], opts Options) error {
	if data.N() < opts.K {
		return fmt.Errorf("kmeans: N=%d < k=%d", data.N(), opts.K)
	}
	if opts.Criteria.Iterations <= 0 {
		return fmt.Errorf("kmeans: criteria.iterations must be > 0, got %d", opts.Criteria.Iterations)
	}
	if opts.Criteria.Accuracy < 0 {
		return fmt.Errorf("kmeans: criteria.accuracy must be >= 0, got %f", opts.Criteria.Accuracy)
	}
	if opts.Assignment == KDApprox && opts.Criteria.Alpha < 1 {
		return fmt.Errorf("kmeans: criteria.alpha must be >= 1 for ANN, got %f", opts.Criteria.Alpha)
	}
	if opts.Seeding == UserSeeding && len(opts.Seeds) != opts.K {
		return fmt.Errorf("kmeans: user seeding requires %d seeds, got %d", opts.K, len(opts.Seeds))
	}
	return nil
}

func seed[T Numeric](data Dataset[T], opts Options) ([][]float32, error) {
	switch opts.Seeding {
	case RandomSeeding:
		return RandomSeeds(data, opts.K, opts.Rand)
	case KMeansPlusPlusSeeding:
		return KMeansPlusPlusSeeds(data, opts.K, opts.DistanceKind, opts.Rand)
	case UserSeeding:
		return opts.Seeds, nil
	default:
		return nil, fmt.Errorf("kmeans: unknown seeding mode %v", opts.Seeding)
	}
}

// runLinearBound is the Hamerly bound-accelerated outer loop of §4.D.
func runLinearBound[T Numeric](s *state[T], opts Options) (Result, error) {
	s.gregInitialize()
	s.refreshFarthest()

	var e, ePrev float32
	stall := 0
	recoveries := 0
	it := 0

	for {
		s.refreshClosest()
		s.refreshFarthest()

		sizeBefore := append([]int(nil), s.size...)
		s.assignAndBound()
		for c := 0; c < s.k; c++ {
			if sizeBefore[c] != 0 && s.size[c] == 0 {
				recoveries++
				if opts.Verbose && opts.Logger != nil {
					opts.Logger.LogEmptyClusterRecovered(c, -1, s.farthest[c])
				}
			}
		}

		moved := s.updateCenters()
		s.updateBounds(moved)

		ePrev = e
		var sumMoved float32
		for _, m := range moved {
			sumMoved += m
		}
		e = float32(math.Sqrt(float64(sumMoved)))

		if absF32(e-ePrev) < opts.Criteria.Accuracy {
			stall++
		} else {
			stall = 0
		}
		it++

		if opts.Verbose && opts.Logger != nil {
			distortion := Distortion(s.data, s.centers, s.labels, s.kind, s.nThreads)
			opts.Logger.LogIteration(it, e, distortion)
		}

		done := it >= opts.Criteria.Iterations || e < opts.Criteria.Accuracy || stall >= stallLimit
		if done {
			reason := "iterations"
			if e < opts.Criteria.Accuracy {
				reason = "accuracy"
			} else if stall >= stallLimit {
				reason = "stalled"
			}
			if opts.Verbose && opts.Logger != nil {
				opts.Logger.LogConverged(it, e, reason)
			}
			break
		}
	}

	return Result{
		Centers: s.centers,
		Labels:  s.labels,
		Stats: RunStats{
			Iterations:             it,
			EmptyClusterRecoveries: recoveries,
			FinalError:             e,
			FinalDistortion:        Distortion(s.data, s.centers, s.labels, s.kind, s.nThreads),
			Converged:              e < opts.Criteria.Accuracy || stall >= stallLimit,
		},
	}, nil
}

// runKDAssignment is the alternative assignment path of §4.D: it rebuilds
// a kd-tree over the current centers each iteration and assigns every
// point via NNSearch/ANNSearch instead of maintaining Hamerly bounds.
func runKDAssignment[T Numeric](s *state[T], opts Options) (Result, error) {
	n := s.data.N()
	labels := make([]int, n)

	var e, ePrev float32
	stall := 0
	it := 0

	for {
		tree, err := kdtree.Build(s.centers, kdKind(s.kind))
		if err != nil {
			return Result{}, fmt.Errorf("kmeans: kd-tree build failed: %w", err)
		}

		newSum := make([][]float32, s.k)
		for c := range newSum {
			newSum[c] = make([]float32, s.data.Dim)
		}
		newSize := make([]int, s.k)

		for i := 0; i < n; i++ {
			q := toFloat32(s.data.Points[i])
			var id int
			if opts.Assignment == KDApprox {
				id, _ = tree.ANNSearch(q, opts.Criteria.Alpha)
			} else {
				id, _ = tree.NNSearch(q)
			}
			labels[i] = id
			newSize[id]++
			addInto(newSum[id], s.data.Points[i], s.data.Dim)
		}

		s.labels = labels
		s.size = newSize
		s.sum = newSum
		moved := s.updateCenters()

		ePrev = e
		var sumMoved float32
		for _, m := range moved {
			sumMoved += m
		}
		e = float32(math.Sqrt(float64(sumMoved)))

		if absF32(e-ePrev) < opts.Criteria.Accuracy {
			stall++
		} else {
			stall = 0
		}
		it++

		if opts.Verbose && opts.Logger != nil {
			distortion := Distortion(s.data, s.centers, s.labels, s.kind, s.nThreads)
			opts.Logger.LogIteration(it, e, distortion)
		}

		if it >= opts.Criteria.Iterations || e < opts.Criteria.Accuracy || stall >= stallLimit {
			break
		}
	}

	return Result{
		Centers: s.centers,
		Labels:  s.labels,
		Stats: RunStats{
			Iterations:      it,
			FinalError:      e,
			FinalDistortion: Distortion(s.data, s.centers, s.labels, s.kind, s.nThreads),
			Converged:       e < opts.Criteria.Accuracy || stall >= stallLimit,
		},
	}, nil
}

func kdKind(kind DistanceKind) kdtree.DistanceKind {
	if kind == L1 {
		return kdtree.L1
	}
	return kdtree.L2
}

func absF32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
