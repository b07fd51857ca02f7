// Package laplacian builds discrete Laplacian operators of polygon
// meshes in sparse triplet form, for use as the smoothing term of
// least-squares geometry-processing systems.
package laplacian

import (
	"fmt"

	"github.com/zeroseven-hash/meshsmooth/lsq"
	"github.com/zeroseven-hash/meshsmooth/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// Mode selects the discretization of the Laplacian edge weights.
type Mode uint8

const (
	// Uniform weighs every incident edge equally.
	Uniform Mode = iota
	// Cotangent weighs each edge by the cotangents of the angles
	// opposite to it, computed on the fan triangulation of each face.
	Cotangent
)

func (mode Mode) String() string {
	switch mode {
	case Uniform:
		return "uniform"
	case Cotangent:
		return "cotangent"
	}
	return fmt.Sprintf("Mode(%d)", uint8(mode))
}

// MatrixEntries returns the triplets of the discrete Laplacian of m,
// replicated blockSize times along the diagonal so that independent
// coordinate blocks share one operator. Rows are normalized so every
// vertex row reads as (mean of neighbors) - vertex: the diagonal
// coefficient is -1 and neighbor coefficients sum to 1. Vertices
// without usable neighbor weights contribute an all-zero row.
//
// The entry block for coordinate k occupies rows and columns
// [k·V, (k+1)·V) where V is the vertex count of m.
func MatrixEntries(m *mesh.PolyMesh, mode Mode, blockSize int) []lsq.Entry {
	if blockSize < 1 {
		panic("laplacian: block size must be at least 1")
	}
	nv := m.NumVerts()
	wEdge := edgeWeights(m, mode)

	var entries []lsq.Entry
	for vid := 0; vid < nv; vid++ {
		adj := m.VertEdges(vid)
		sum := 0.0
		for _, eid := range adj {
			sum += wEdge[eid]
		}
		if sum <= 0 {
			continue
		}
		for block := 0; block < blockSize; block++ {
			off := block * nv
			entries = append(entries, lsq.Entry{Row: off + vid, Col: off + vid, Val: -1})
			for _, eid := range adj {
				if wEdge[eid] == 0 {
					continue
				}
				nbr := m.VertOpposite(eid, vid)
				entries = append(entries, lsq.Entry{Row: off + vid, Col: off + nbr, Val: wEdge[eid] / sum})
			}
		}
	}
	return entries
}

func edgeWeights(m *mesh.PolyMesh, mode Mode) []float64 {
	w := make([]float64, m.NumEdges())
	if mode == Uniform {
		for i := range w {
			w[i] = 1
		}
		return w
	}
	// Cotangent weights accumulated per fan triangle: the corner angle
	// at each triangle vertex contributes half its cotangent to the
	// opposite edge. Fan diagonals of polygon faces are not mesh edges
	// and their contributions are dropped.
	for fid := 0; fid < m.NumFaces(); fid++ {
		face := m.Face(fid)
		for i := 1; i < len(face)-1; i++ {
			tri := [3]int{face[0], face[i], face[i+1]}
			for c := 0; c < 3; c++ {
				a, b := tri[(c+1)%3], tri[(c+2)%3]
				eid, ok := m.Edge(a, b)
				if !ok {
					continue
				}
				w[eid] += 0.5 * cotAngle(m.Vert(tri[c]), m.Vert(a), m.Vert(b))
			}
		}
	}
	// Negative accumulated weights from obtuse triangles can make rows
	// indefinite; clamp them out.
	for i := range w {
		if w[i] < 0 {
			w[i] = 0
		}
	}
	return w
}

// cotAngle returns the cotangent of the angle at apex formed with points
// a and b, or 0 for a degenerate corner.
func cotAngle(apex, a, b r3.Vec) float64 {
	u := r3.Sub(a, apex)
	v := r3.Sub(b, apex)
	cross := r3.Norm(r3.Cross(u, v))
	if cross == 0 {
		return 0
	}
	return r3.Dot(u, v) / cross
}
