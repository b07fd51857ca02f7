package mesh

import (
	"errors"
	"fmt"
	"math"

	"github.com/zeroseven-hash/meshsmooth/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// FromTriangles builds an indexed mesh from a triangle soup such as the
// contents of an STL file, welding shared vertices at a tolerance.
// vertexTol should be of the order of 1/1000th of the size of the
// smallest triangle in the soup. If set to 0 then it is inferred
// automatically. Triangles that collapse under welding are discarded.
func FromTriangles(tris []r3.Triangle, vertexTolOrZero float64) (*PolyMesh, error) {
	if len(tris) == 0 {
		return nil, errors.New("mesh: empty triangle slice")
	}
	tol := vertexTolOrZero
	bb := d3.EmptyBox()
	minSide2 := math.MaxFloat64
	maxSide2 := -math.MaxFloat64
	for i := range tris {
		for j, vert := range tris[i] {
			bb = bb.Include(vert)
			side2 := r3.Norm2(r3.Sub(tris[i][(j+1)%3], vert))
			minSide2 = math.Min(minSide2, side2)
			maxSide2 = math.Max(maxSide2, side2)
		}
	}
	suggested := math.Sqrt(minSide2) / 256
	if tol > math.Sqrt(maxSide2)/2 {
		return nil, fmt.Errorf("mesh: vertex tolerance too large to weld mesh, suggested tolerance: %g", suggested)
	}
	if tol == 0 {
		tol = suggested
	}
	maxDim := d3.Max(bb.Size())
	div := int64(maxDim/tol + 1e-12)
	if div <= 0 {
		return nil, errors.New("mesh: tolerance larger than model size")
	}
	if div > math.MaxInt64/2 {
		return nil, errors.New("mesh: tolerance too small, overflowed int64")
	}

	// Weld vertices via a cache of positions quantized to the tolerance.
	cache := make(map[[3]int64]int)
	ri := 1 / tol
	var verts []r3.Vec
	var faces [][]int
	for _, tri := range tris {
		var face [3]int
		for j, vert := range tri {
			v := r3.Scale(ri, vert)
			key := [3]int64{int64(v.X), int64(v.Y), int64(v.Z)}
			idx, ok := cache[key]
			if !ok {
				idx = len(verts)
				cache[key] = idx
				verts = append(verts, vert)
			}
			face[j] = idx
		}
		if face[0] == face[1] || face[1] == face[2] || face[2] == face[0] {
			continue // collapsed under welding.
		}
		faces = append(faces, []int{face[0], face[1], face[2]})
	}
	if len(faces) == 0 {
		return nil, errors.New("mesh: all triangles degenerate after welding")
	}
	return New(verts, faces)
}
