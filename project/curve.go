package project

import (
	"errors"
	"math"

	"github.com/zeroseven-hash/meshsmooth/internal/d3"
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	_ kdtree.Interface  = segList{}
	_ kdtree.Bounder    = segList{}
	_ kdtree.Comparable = &curveSegment{}
)

// Curve answers nearest-point queries against a set of line segments,
// typically the marked feature edges of a reference mesh.
type Curve struct {
	tree kdtree.Tree
	// radius is the largest midpoint-to-endpoint distance over all
	// indexed segments, bounding how far a segment's closest point can
	// stray from its kd-tree key.
	radius float64
}

// NewCurve indexes the argument segments.
func NewCurve(segs [][2]r3.Vec) (*Curve, error) {
	if len(segs) == 0 {
		return nil, errors.New("project: no segments to index")
	}
	list := make(segList, len(segs))
	radius := 0.0
	for i, s := range segs {
		mid := r3.Scale(0.5, r3.Add(s[0], s[1]))
		radius = math.Max(radius, r3.Norm(r3.Sub(s[0], mid)))
		list[i] = &curveSegment{
			c: mid,
			a: s[0],
			b: s[1],
		}
	}
	tree := kdtree.New(list, true)
	return &Curve{tree: *tree, radius: radius}, nil
}

// Nearest returns the point of the indexed curve set closest to p.
// The midpoint-nearest segment bounds the search radius; the exact
// minimum is taken over all segments within that bound plus the
// segment radius.
func (c *Curve) Nearest(p r3.Vec) r3.Vec {
	q := &curveSegment{c: p}
	got, cdist2 := c.tree.Nearest(q)
	r := math.Sqrt(cdist2) + c.radius
	keep := kdtree.NewDistKeeper(r * r)
	c.tree.NearestSet(keep, q)

	best := got.(*curveSegment).closest(p)
	bestDist := r3.Norm2(r3.Sub(p, best))
	for _, cd := range keep.Heap {
		if cd.Comparable == nil {
			continue
		}
		on := cd.Comparable.(*curveSegment).closest(p)
		if d := r3.Norm2(r3.Sub(p, on)); d < bestDist {
			best, bestDist = on, d
		}
	}
	return best
}

// curveSegment is a kd-tree element keyed on the segment midpoint.
// A query point is represented as a curveSegment with only c set.
type curveSegment struct {
	c    r3.Vec
	a, b r3.Vec
}

// closest returns the point of the segment closest to p.
func (s *curveSegment) closest(p r3.Vec) r3.Vec {
	ab := r3.Sub(s.b, s.a)
	den := r3.Norm2(ab)
	if den == 0 {
		return s.a
	}
	t := r3.Dot(r3.Sub(p, s.a), ab) / den
	if t <= 0 {
		return s.a
	}
	if t >= 1 {
		return s.b
	}
	return r3.Add(s.a, r3.Scale(t, ab))
}

func (s *curveSegment) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(*curveSegment)
	switch d {
	case 0:
		return s.c.X - q.c.X
	case 1:
		return s.c.Y - q.c.Y
	case 2:
		return s.c.Z - q.c.Z
	}
	panic("unreachable")
}

func (s *curveSegment) Dims() int { return 3 }

// Distance returns the squared midpoint distance, matching the metric
// of the Compare planes so kd-tree pruning stays admissible.
func (s *curveSegment) Distance(c kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(s.c, c.(*curveSegment).c))
}

type segList []*curveSegment

func (l segList) Index(i int) kdtree.Comparable { return l[i] }
func (l segList) Len() int                      { return len(l) }
func (l segList) Slice(start, end int) kdtree.Interface {
	return l[start:end]
}

// Pivot partitions the list based on the dimension specified.
func (l segList) Pivot(d kdtree.Dim) int {
	p := segPlane{dim: int(d), list: l}
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

func (l segList) Bounds() *kdtree.Bounding {
	min := r3.Vec{X: math.MaxFloat64, Y: math.MaxFloat64, Z: math.MaxFloat64}
	max := r3.Scale(-1, min)
	for _, s := range l {
		min = d3.MinElem(min, s.c)
		max = d3.MaxElem(max, s.c)
	}
	return &kdtree.Bounding{
		Min: &curveSegment{c: min},
		Max: &curveSegment{c: max},
	}
}

type segPlane struct {
	dim  int
	list segList
}

func (p segPlane) Less(i, j int) bool {
	return p.list[i].Compare(p.list[j], kdtree.Dim(p.dim)) < 0
}
func (p segPlane) Swap(i, j int) {
	p.list[i], p.list[j] = p.list[j], p.list[i]
}
func (p segPlane) Len() int { return len(p.list) }
func (p segPlane) Slice(start, end int) kdtree.SortSlicer {
	p.list = p.list[start:end]
	return p
}
