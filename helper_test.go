package adr

import (
	"fmt"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func assertPanic(t *testing.T, f func()) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("code did not panic")
		}
	}()
	f()
}

func vectorsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := len(a) - 1; i >= 0; i-- {
		if !scalar.EqualWithinRel(a[i], b[i], 1e-3) {
			return false
		}
	}
	return true
}

// anglesEqual returns whether two angles in Radians are equal.
func anglesEqual(a, b float64) (bool, error) {
	diff := math.Mod(math.Abs(a-b), 2*math.Pi)
	if diff < angleε {
		return true, nil
	}
	return false, fmt.Errorf("difference of %3.10f degrees", math.Abs(Rad2deg(diff)))
}

// circularOrbit builds a circular orbit, failing the test on bad elements.
func circularOrbit(t *testing.T, radius, iDeg, ΩDeg, νDeg float64) Orbit {
	t.Helper()
	o, err := NewOrbit(radius, 0, iDeg, ΩDeg, 0, νDeg, Earth)
	if err != nil {
		t.Fatalf("could not build circular orbit: %s", err)
	}
	return *o
}
