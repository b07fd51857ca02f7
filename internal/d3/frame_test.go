package d3

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestTriangleFrame(t *testing.T) {
	tri := r3.Triangle{
		{X: 1, Y: 2, Z: 3},
		{X: 4, Y: 2, Z: 7},
		{X: 1, Y: 5, Z: 3},
	}
	f := TriangleFrame(tri)
	const tol = 1e-12
	// The first vertex maps to the origin, the second onto the X axis
	// and the third into the XY plane.
	if got := f.To(tri[0]); !EqualWithin(got, r3.Vec{}, tol) {
		t.Errorf("t0: got %v, want origin", got)
	}
	if got := f.To(tri[1]); math.Abs(got.Y) > tol || math.Abs(got.Z) > tol || got.X <= 0 {
		t.Errorf("t1 not on positive X axis: %v", got)
	}
	if got := f.To(tri[2]); math.Abs(got.Z) > tol {
		t.Errorf("t2 not in XY plane: %v", got)
	}
	// Round trip.
	p := r3.Vec{X: -2, Y: 0.5, Z: 9}
	if got := f.From(f.To(p)); !EqualWithin(got, p, 1e-9) {
		t.Errorf("round trip: got %v, want %v", got, p)
	}
}
