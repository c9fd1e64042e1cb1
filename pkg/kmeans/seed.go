package kmeans

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	mrand "math/rand"
)

// RandSource is the subset of *math/rand.Rand the seeders need; it lets
// callers override the entropy source for reproducible tests (§4.B).
type RandSource interface {
	Intn(n int) int
	Float32() float32
}

// defaultRand seeds a math/rand source from crypto/rand so that production
// runs are non-deterministic by default, while every exported entry point
// still accepts an explicit override.
func defaultRand() RandSource {
	var seed [8]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return mrand.New(mrand.NewSource(1))
	}
	return mrand.New(mrand.NewSource(int64(binary.LittleEndian.Uint64(seed[:]))))
}

func pickRand(r RandSource) RandSource {
	if r != nil {
		return r
	}
	return defaultRand()
}

// RandomSeeds performs uniform reservoir sampling of k distinct point
// indices from data and copies those points, promoted to float32, into the
// returned seed array. Every size-k subset is equally likely.
func RandomSeeds[T Numeric](data Dataset[T], k int, r RandSource) ([][]float32, error) {
	if data.N() < k {
		return nil, fmt.Errorf("kmeans: N=%d < k=%d", data.N(), k)
	}
	r = pickRand(r)

	reservoir := make([]int, k)
	for i := 0; i < k; i++ {
		reservoir[i] = i
	}
	for i := k; i < data.N(); i++ {
		j := r.Intn(i + 1)
		if j < k {
			reservoir[j] = i
		}
	}

	seeds := make([][]float32, k)
	for i, idx := range reservoir {
		seeds[i] = toFloat32(data.Points[idx])
	}
	return seeds, nil
}

// KMeansPlusPlusSeeds performs D²-weighted seeding (§4.B):
// the first seed is uniform; every subsequent seed is drawn with
// probability proportional to its squared distance (or L1 distance, for
// the L1 kind) to the nearest seed chosen so far.
func KMeansPlusPlusSeeds[T Numeric](data Dataset[T], k int, kind DistanceKind, r RandSource) ([][]float32, error) {
	if data.N() < k {
		return nil, fmt.Errorf("kmeans: N=%d < k=%d", data.N(), k)
	}
	r = pickRand(r)
	n := data.N()

	seeds := make([][]float32, 0, k)
	first := r.Intn(n)
	seeds = append(seeds, toFloat32(data.Points[first]))

	dMin := make([]float32, n)
	for i := range dMin {
		dMin[i] = distSq(kind, data.Points[i], seeds[0], data.Dim)
	}

	cumulative := make([]float32, n)
	for len(seeds) < k {
		var total float32
		for i := 0; i < n; i++ {
			total += dMin[i]
			cumulative[i] = total
		}

		var next int
		if total <= 0 {
			next = r.Intn(n)
		} else {
			pivot := r.Float32() * total
			next = n - 1
			for i := 0; i < n-1; i++ {
				if cumulative[i] < pivot && pivot <= cumulative[i+1] {
					next = i + 1
					break
				}
			}
			if pivot <= cumulative[0] {
				next = 0
			}
		}

		seed := toFloat32(data.Points[next])
		seeds = append(seeds, seed)

		if len(seeds) < k {
			for i := 0; i < n; i++ {
				d := distSq(kind, data.Points[i], seed, data.Dim)
				if d < dMin[i] {
					dMin[i] = d
				}
			}
		}
	}

	return seeds, nil
}

func toFloat32[T Numeric](p []T) []float32 {
	out := make([]float32, len(p))
	for i, v := range p {
		out[i] = float32(v)
	}
	return out
}
