package kmeans

import mrand "math/rand"

// newTestRand returns a seeded RandSource so tests stay deterministic
// without reaching for the package's crypto/rand-backed default.
func newTestRand(seed int64) RandSource {
	return mrand.New(mrand.NewSource(seed))
}
