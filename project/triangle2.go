package project

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// 2-D closest-point kernels used by the flattened triangle queries.

func closestOnTriangle2(p r2.Vec, tri [3]r2.Vec) r2.Vec {
	if inTriangle(p, tri) {
		return p
	}
	best := tri[0]
	bestDist := math.MaxFloat64
	for j := range tri {
		q := closestOnSegment2(p, tri[j], tri[(j+1)%3])
		if d2 := r2.Norm2(r2.Sub(p, q)); d2 < bestDist {
			bestDist = d2
			best = q
		}
	}
	return best
}

// inTriangle returns true if pt is contained in the bounds defined by
// the triangle vertices tri.
func inTriangle(pt r2.Vec, tri [3]r2.Vec) bool {
	d1 := sign2(pt, tri[0], tri[1])
	d2 := sign2(pt, tri[1], tri[2])
	d3 := sign2(pt, tri[2], tri[0])
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

func sign2(p1, p2, p3 r2.Vec) float64 {
	return (p1.X-p3.X)*(p2.Y-p3.Y) - (p2.X-p3.X)*(p1.Y-p3.Y)
}

// closestOnSegment2 returns the point of segment (a,b) closest to p.
func closestOnSegment2(p, a, b r2.Vec) r2.Vec {
	ab := r2.Sub(b, a)
	den := r2.Norm2(ab)
	if den == 0 {
		return a
	}
	t := r2.Dot(r2.Sub(p, a), ab) / den
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}
	return r2.Add(a, r2.Scale(t, ab))
}
