package kmeans

import (
	"math"
	"testing"
)

func TestL2Dist(t *testing.T) {
	a := []float32{0, 0}
	b := []float32{3, 4}
	got := L2Dist(a, b, 2)
	if math.Abs(float64(got-5)) > 1e-6 {
		t.Errorf("L2Dist = %f, want 5", got)
	}
}

func TestL2SqDist(t *testing.T) {
	a := []float32{0, 0}
	b := []float32{3, 4}
	got := L2SqDist(a, b, 2)
	if got != 25 {
		t.Errorf("L2SqDist = %f, want 25", got)
	}
}

func TestL1Dist(t *testing.T) {
	a := []float32{0, 0}
	b := []float32{3, -4}
	got := L1Dist(a, b, 2)
	if got != 7 {
		t.Errorf("L1Dist = %f, want 7", got)
	}
}

func TestL2Dist_MixedElementTypes(t *testing.T) {
	a := []int32{0, 0}
	b := []float32{3, 4}
	got := L2Dist(a, b, 2)
	if math.Abs(float64(got-5)) > 1e-6 {
		t.Errorf("L2Dist(int32,float32) = %f, want 5", got)
	}
}

func TestDistDispatch(t *testing.T) {
	a := []float32{0, 0}
	b := []float32{3, 4}
	if got := dist(L2, a, b, 2); math.Abs(float64(got-5)) > 1e-6 {
		t.Errorf("dist(L2) = %f, want 5", got)
	}
	if got := dist(L1, a, b, 2); got != 7 {
		t.Errorf("dist(L1) = %f, want 7", got)
	}
}

func TestDistSqDispatch(t *testing.T) {
	a := []float32{0, 0}
	b := []float32{3, 4}
	if got := distSq(L2, a, b, 2); got != 25 {
		t.Errorf("distSq(L2) = %f, want 25", got)
	}
	if got := distSq(L1, a, b, 2); got != 7 {
		t.Errorf("distSq(L1) = %f, want 7 (L1 has no separate squared form)", got)
	}
}

func TestDistanceKindString(t *testing.T) {
	if L2.String() != "L2" {
		t.Errorf("L2.String() = %q, want L2", L2.String())
	}
	if L1.String() != "L1" {
		t.Errorf("L1.String() = %q, want L1", L1.String())
	}
}
