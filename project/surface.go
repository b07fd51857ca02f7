// Package project implements nearest-point queries against reference
// geometry: a triangle surface and a feature-curve segment set. Both
// oracles are immutable once built and safe for concurrent queries.
package project

import (
	"errors"
	"math"

	"github.com/zeroseven-hash/meshsmooth/internal/d3"
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	_ kdtree.Interface  = triList{}
	_ kdtree.Bounder    = triList{}
	_ kdtree.Comparable = &surfTriangle{}
)

// Surface answers nearest-point queries against a triangle soup,
// typically the fan triangulation of a reference mesh's faces.
type Surface struct {
	tree kdtree.Tree
	// radius is the largest centroid-to-vertex distance over all
	// indexed triangles. The centroid distance to any triangle
	// overestimates the surface distance by at most radius.
	radius float64
}

// NewSurface indexes the argument triangles. Degenerate triangles are
// dropped; an error is returned if no usable triangle remains.
func NewSurface(tris []r3.Triangle) (*Surface, error) {
	list := make(triList, 0, len(tris))
	radius := 0.0
	for _, tri := range tris {
		if tri.IsDegenerate(1e-12) {
			continue
		}
		c := tri.Centroid()
		for _, v := range tri {
			radius = math.Max(radius, r3.Norm(r3.Sub(v, c)))
		}
		list = append(list, &surfTriangle{
			c:     c,
			tri:   tri,
			frame: d3.TriangleFrame(tri),
		})
	}
	if len(list) == 0 {
		return nil, errors.New("project: no non-degenerate triangles to index")
	}
	tree := kdtree.New(list, true)
	return &Surface{tree: *tree, radius: radius}, nil
}

// Nearest returns the point of the indexed surface closest to p.
//
// The kd-tree prunes on the centroid metric, which can rank triangles
// of uneven extents in the wrong order, so the centroid-nearest result
// only bounds the search: every triangle whose surface could beat it
// lies within that bound plus the triangle radius, and the exact
// minimum is taken over that candidate set.
func (s *Surface) Nearest(p r3.Vec) r3.Vec {
	q := &surfTriangle{c: p}
	got, cdist2 := s.tree.Nearest(q)
	r := math.Sqrt(cdist2) + s.radius
	keep := kdtree.NewDistKeeper(r * r)
	s.tree.NearestSet(keep, q)

	best := got.(*surfTriangle).closest(p)
	bestDist := r3.Norm2(r3.Sub(p, best))
	for _, c := range keep.Heap {
		if c.Comparable == nil {
			continue
		}
		on := c.Comparable.(*surfTriangle).closest(p)
		if d := r3.Norm2(r3.Sub(p, on)); d < bestDist {
			best, bestDist = on, d
		}
	}
	return best
}

// surfTriangle is a kd-tree element keyed on the triangle centroid.
// A query point is represented as a surfTriangle with only c set.
type surfTriangle struct {
	c     r3.Vec
	tri   r3.Triangle
	frame d3.Frame
}

// closest returns the point of the triangle closest to p. The triangle
// is flattened into its own plane so the search reduces to a 2-D
// point-in-triangle test and per-edge projections.
func (t *surfTriangle) closest(p r3.Vec) r3.Vec {
	lp := t.frame.To(p)
	ltri := [3]r2.Vec{
		lower(t.frame.To(t.tri[0])),
		lower(t.frame.To(t.tri[1])),
		lower(t.frame.To(t.tri[2])),
	}
	on := closestOnTriangle2(lower(lp), ltri)
	return t.frame.From(r3.Vec{X: on.X, Y: on.Y})
}

func (t *surfTriangle) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(*surfTriangle)
	switch d {
	case 0:
		return t.c.X - q.c.X
	case 1:
		return t.c.Y - q.c.Y
	case 2:
		return t.c.Z - q.c.Z
	}
	panic("unreachable")
}

func (t *surfTriangle) Dims() int { return 3 }

// Distance returns the squared centroid distance. It uses the same
// metric as the Compare planes, keeping kd-tree pruning admissible;
// exact surface distances are resolved by Surface.Nearest over the
// kept candidate set.
func (t *surfTriangle) Distance(c kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(t.c, c.(*surfTriangle).c))
}

type triList []*surfTriangle

func (l triList) Index(i int) kdtree.Comparable { return l[i] }
func (l triList) Len() int                      { return len(l) }
func (l triList) Slice(start, end int) kdtree.Interface {
	return l[start:end]
}

// Pivot partitions the list based on the dimension specified.
func (l triList) Pivot(d kdtree.Dim) int {
	p := triPlane{dim: int(d), list: l}
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

func (l triList) Bounds() *kdtree.Bounding {
	min := r3.Vec{X: math.MaxFloat64, Y: math.MaxFloat64, Z: math.MaxFloat64}
	max := r3.Scale(-1, min)
	for _, t := range l {
		min = d3.MinElem(min, t.c)
		max = d3.MaxElem(max, t.c)
	}
	return &kdtree.Bounding{
		Min: &surfTriangle{c: min},
		Max: &surfTriangle{c: max},
	}
}

type triPlane struct {
	dim  int
	list triList
}

func (p triPlane) Less(i, j int) bool {
	return p.list[i].Compare(p.list[j], kdtree.Dim(p.dim)) < 0
}
func (p triPlane) Swap(i, j int) {
	p.list[i], p.list[j] = p.list[j], p.list[i]
}
func (p triPlane) Len() int { return len(p.list) }
func (p triPlane) Slice(start, end int) kdtree.SortSlicer {
	p.list = p.list[start:end]
	return p
}

func lower(v r3.Vec) r2.Vec {
	return r2.Vec{X: v.X, Y: v.Y}
}
