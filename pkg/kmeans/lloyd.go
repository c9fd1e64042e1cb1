package kmeans

import (
	"math"
	"sync"
)

// state holds all session-local working storage for one bound-accelerated
// clustering run. Nothing here is package-level: every field is allocated
// fresh per call and discarded on return, per §9's redesign away from the
// reference implementation's process-wide `range` array.
type state[T Numeric] struct {
	data Dataset[T]
	kind DistanceKind
	k    int

	centers [][]float32
	labels  []int

	sum  [][]float32
	size []int

	upper []float32
	lower []float32

	closest  []float32
	farthest []int

	nThreads int
	recoveryMu sync.Mutex
}

func newState[T Numeric](data Dataset[T], kind DistanceKind, k, nThreads int) *state[T] {
	if nThreads < 1 {
		nThreads = 1
	}
	sum := make([][]float32, k)
	for c := range sum {
		sum[c] = make([]float32, data.Dim)
	}
	return &state[T]{
		data:     data,
		kind:     kind,
		k:        k,
		sum:      sum,
		size:     make([]int, k),
		upper:    make([]float32, data.N()),
		lower:    make([]float32, data.N()),
		closest:  make([]float32, k),
		farthest: make([]int, k),
		nThreads: nThreads,
	}
}

// gregInitialize implements §4.D's "Initialization": compute each point's
// distance to every center, track the nearest and second-nearest, and seed
// the bounds/size/sum accumulators accordingly.
func (s *state[T]) gregInitialize() {
	n := s.data.N()
	labels := make([]int, n)

	var wg sync.WaitGroup
	type partial struct {
		sum  [][]float32
		size []int
	}
	partials := make([]partial, s.nThreads)

	for t := 0; t < s.nThreads; t++ {
		start, end := partitionRange(n, s.nThreads, t)
		localSum := make([][]float32, s.k)
		for c := range localSum {
			localSum[c] = make([]float32, s.data.Dim)
		}
		localSize := make([]int, s.k)
		partials[t] = partial{sum: localSum, size: localSize}

		wg.Add(1)
		go func(start, end int, p *partial) {
			defer wg.Done()
			for i := start; i < end; i++ {
				min, min2, label := s.nearestTwo(s.data.Points[i], s.centers)
				labels[i] = label
				s.upper[i] = min
				s.lower[i] = min2
				p.size[label]++
				addInto(p.sum[label], s.data.Points[i], s.data.Dim)
			}
		}(start, end, &partials[t])
	}
	wg.Wait()

	s.labels = labels
	for _, p := range partials {
		for c := 0; c < s.k; c++ {
			s.size[c] += p.size[c]
			for j := 0; j < s.data.Dim; j++ {
				s.sum[c][j] += p.sum[c][j]
			}
		}
	}
}

// nearestTwo returns (distance to nearest, distance to second-nearest,
// nearest cluster id) for point p against the given centers.
func (s *state[T]) nearestTwo(p []T, centers [][]float32) (min, min2 float32, label int) {
	min, min2 = float32(math.MaxFloat32), float32(math.MaxFloat32)
	label = -1
	for c, center := range centers {
		d := dist(s.kind, center, p, s.data.Dim)
		if d <= min {
			min2 = min
			min = d
			label = c
		} else if d < min2 {
			min2 = d
		}
	}
	return min, min2, label
}

func addInto[T Numeric](sum []float32, p []T, d int) {
	for j := 0; j < d; j++ {
		sum[j] += float32(p[j])
	}
}

func subFrom[T Numeric](sum []float32, p []T, d int) {
	for j := 0; j < d; j++ {
		sum[j] -= float32(p[j])
	}
}

// refreshClosest recomputes closest[c] = min_{j!=c} dist(center[c], center[j]).
func (s *state[T]) refreshClosest() {
	for c := 0; c < s.k; c++ {
		min := float32(math.MaxFloat32)
		for j := 0; j < s.k; j++ {
			if j == c {
				continue
			}
			d := dist(s.kind, s.centers[c], s.centers[j], s.data.Dim)
			if d < min {
				min = d
			}
		}
		s.closest[c] = min
	}
}

// refreshFarthest recomputes, for each cluster, the point index with the
// largest distance to that cluster's center.
func (s *state[T]) refreshFarthest() {
	df := make([]float32, s.k)
	for c := range df {
		df[c] = -1
		s.farthest[c] = -1
	}
	for i := 0; i < s.data.N(); i++ {
		for c := 0; c < s.k; c++ {
			d := dist(s.kind, s.data.Points[i], s.centers[c], s.data.Dim)
			if d > df[c] {
				df[c] = d
				s.farthest[c] = i
			}
		}
	}
}

// assignAndBound runs §4.D step 3: the per-point assignment with bound
// tests, parallelized across nThreads workers each owning a contiguous
// range of point indices and a private (sum,size) accumulator that is
// reduced into the shared accumulators at the barrier.
func (s *state[T]) assignAndBound() {
	n := s.data.N()
	var wg sync.WaitGroup

	// oldLabels is a read-only snapshot of this iteration's starting labels.
	// assignOnePoint mutates s.labels[i] but only within its own goroutine's
	// index range; maybeRecoverEmptyCluster needs to know who currently owns
	// the farthest point, which may fall in a *different* goroutine's range
	// and could already have been rewritten by the time recovery runs. Every
	// goroutine consults this frozen copy instead of the live s.labels slice,
	// so the recovery read never races another goroutine's assignment write.
	oldLabels := make([]int, n)
	copy(oldLabels, s.labels)

	type partial struct {
		sumDelta [][]float32
		sizeDelta []int
	}
	partials := make([]partial, s.nThreads)

	for t := 0; t < s.nThreads; t++ {
		start, end := partitionRange(n, s.nThreads, t)
		localSum := make([][]float32, s.k)
		for c := range localSum {
			localSum[c] = make([]float32, s.data.Dim)
		}
		partials[t] = partial{sumDelta: localSum, sizeDelta: make([]int, s.k)}

		wg.Add(1)
		go func(start, end int, p *partial) {
			defer wg.Done()
			for i := start; i < end; i++ {
				s.assignOnePoint(i, oldLabels, p.sumDelta, p.sizeDelta)
			}
		}(start, end, &partials[t])
	}
	wg.Wait()

	for _, p := range partials {
		for c := 0; c < s.k; c++ {
			s.size[c] += p.sizeDelta[c]
			for j := 0; j < s.data.Dim; j++ {
				s.sum[c][j] += p.sumDelta[c][j]
			}
		}
	}
}

// assignOnePoint applies the two bound tests of §4.D step 3 to point i,
// recording cluster-membership deltas into the caller's thread-local
// accumulators, including the moves made by empty-cluster recovery
// (checked under recoveryMu).
func (s *state[T]) assignOnePoint(i int, oldLabels []int, localSum [][]float32, localSize []int) {
	l := s.labels[i]
	m := s.closest[l] / 2
	if s.lower[i] > m {
		m = s.lower[i]
	}

	if s.upper[i] <= m {
		return
	}

	s.upper[i] = dist(s.kind, s.data.Points[i], s.centers[l], s.data.Dim)
	if s.upper[i] <= m {
		return
	}

	min, min2, t := s.nearestTwo(s.data.Points[i], s.centers)
	s.labels[i] = t
	s.upper[i] = min
	s.lower[i] = min2

	if t == l {
		return
	}

	localSize[t]++
	localSize[l]--
	addInto(localSum[t], s.data.Points[i], s.data.Dim)
	subFrom(localSum[l], s.data.Points[i], s.data.Dim)

	s.maybeRecoverEmptyCluster(l, oldLabels, localSum, localSize)
}

// maybeRecoverEmptyCluster implements §4.D's empty-cluster handling. Under
// recoveryMu it adds the global size[l], as it stood at the start of this
// pass, to the calling goroutine's own delta localSize[l]; deltas other
// goroutines have not yet flushed are not included. When that sum is
// exactly 0, the farthest point of cluster l is moved from its victim
// cluster into l in the caller's thread-local accumulators. The victim's label is
// read from oldLabels, the frozen pre-pass snapshot, never from the live
// s.labels slice another goroutine may be concurrently rewriting.
func (s *state[T]) maybeRecoverEmptyCluster(l int, oldLabels []int, localSum [][]float32, localSize []int) {
	s.recoveryMu.Lock()
	defer s.recoveryMu.Unlock()

	if s.size[l]+localSize[l] != 0 {
		return
	}

	p := s.farthest[l]
	if p < 0 {
		return
	}
	victim := oldLabels[p]
	if victim == l {
		return
	}

	subFrom(localSum[victim], s.data.Points[p], s.data.Dim)
	localSize[victim]--
	addInto(localSum[l], s.data.Points[p], s.data.Dim)
	localSize[l]++
}

// updateCenters implements §4.D step 4: recompute centers for non-empty
// clusters and return the per-cluster movement distance.
func (s *state[T]) updateCenters() []float32 {
	moved := make([]float32, s.k)
	for c := 0; c < s.k; c++ {
		if s.size[c] <= 0 {
			moved[c] = 0
			continue
		}
		newCenter := make([]float32, s.data.Dim)
		for j := 0; j < s.data.Dim; j++ {
			newCenter[j] = s.sum[c][j] / float32(s.size[c])
		}
		moved[c] = L2Dist(s.centers[c], newCenter, s.data.Dim)
		s.centers[c] = newCenter
	}
	return moved
}

// updateBounds implements §4.D step 5.
func (s *state[T]) updateBounds(moved []float32) {
	r, rPrime := twoLargest(moved)
	for i := 0; i < s.data.N(); i++ {
		s.upper[i] += moved[s.labels[i]]
		if s.labels[i] != r {
			s.lower[i] -= moved[r]
		} else {
			s.lower[i] -= moved[rPrime]
		}
	}
}

func twoLargest(v []float32) (r, rPrime int) {
	r, rPrime = -1, -1
	for i, x := range v {
		if r == -1 || x > v[r] {
			rPrime = r
			r = i
		} else if rPrime == -1 || x > v[rPrime] {
			rPrime = i
		}
	}
	if rPrime == -1 {
		rPrime = r
	}
	return r, rPrime
}
