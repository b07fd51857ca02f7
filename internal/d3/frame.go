package d3

import "gonum.org/v1/gonum/spatial/r3"

// Frame is a rigid orthonormal coordinate frame. It maps between world
// coordinates and the frame's local coordinates without scaling, so the
// inverse mapping is the transposed rotation.
type Frame struct {
	origin  r3.Vec
	x, y, z r3.Vec
}

// TriangleFrame returns the frame of a triangle so that in local coordinates
//   - the vertex t[0] is at the origin,
//   - the edge (t[0],t[1]) lies on the X axis,
//   - the vertex t[2] lies in the XY plane.
//
// Degenerate triangles yield frames with zero axes; callers are expected
// to screen those out beforehand.
func TriangleFrame(t r3.Triangle) Frame {
	u := r3.Sub(t[1], t[0])
	v := r3.Sub(t[2], t[0])
	x := r3.Unit(u)
	y := r3.Sub(v, r3.Scale(r3.Dot(x, v), x)) // v with its X component removed.
	y = r3.Unit(y)
	return Frame{
		origin: t[0],
		x:      x,
		y:      y,
		z:      r3.Cross(x, y),
	}
}

// To maps a world-space point into the frame's local coordinates.
func (f Frame) To(p r3.Vec) r3.Vec {
	d := r3.Sub(p, f.origin)
	return r3.Vec{X: r3.Dot(f.x, d), Y: r3.Dot(f.y, d), Z: r3.Dot(f.z, d)}
}

// From maps a point in the frame's local coordinates back to world space.
func (f Frame) From(p r3.Vec) r3.Vec {
	w := r3.Add(r3.Scale(p.X, f.x), r3.Add(r3.Scale(p.Y, f.y), r3.Scale(p.Z, f.z)))
	return r3.Add(f.origin, w)
}
