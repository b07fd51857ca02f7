// Package mesh implements an indexed polygon-mesh container with the
// adjacency and per-element attributes needed by feature-preserving
// geometry processing: marked feature edges, per-vertex feature labels
// and per-face normals.
package mesh

import (
	"fmt"

	"github.com/zeroseven-hash/meshsmooth/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Label classifies a vertex by its incident marked-edge topology.
type Label uint8

const (
	// Regular vertices have no incident marked edges and are free to
	// move within the tangent planes of their incident faces.
	Regular Label = iota
	// Feature vertices have exactly two incident marked edges and move
	// only along the feature line through their marked neighbors.
	Feature
	// Corner vertices have any other number of marked incident edges
	// and stay pinned at their current position.
	Corner
)

func (l Label) String() string {
	switch l {
	case Regular:
		return "regular"
	case Feature:
		return "feature"
	case Corner:
		return "corner"
	}
	return fmt.Sprintf("Label(%d)", uint8(l))
}

// PolyMesh is an indexed mesh of polygonal faces. Faces need not be
// triangles and face orientation is not assumed globally consistent.
type PolyMesh struct {
	verts  []r3.Vec
	labels []Label

	// edges stores vertex pairs with the lower index first.
	edges  [][2]int
	marked []bool
	// edgeOf resolves a sorted vertex pair to its edge index.
	edgeOf map[[2]int]int

	faces   [][]int
	normals []r3.Vec

	v2e [][]int
	v2f [][]int
}

// New builds a polygon mesh from vertex positions and face loops.
// Edges, adjacency and face normals are derived from the face loops.
// All edges start out unmarked and all vertices labeled Regular.
func New(verts []r3.Vec, faces [][]int) (*PolyMesh, error) {
	m := &PolyMesh{
		verts:   verts,
		labels:  make([]Label, len(verts)),
		edgeOf:  make(map[[2]int]int),
		faces:   faces,
		normals: make([]r3.Vec, len(faces)),
		v2e:     make([][]int, len(verts)),
		v2f:     make([][]int, len(verts)),
	}
	for fid, face := range faces {
		if len(face) < 3 {
			return nil, fmt.Errorf("mesh: face %d has %d vertices, need at least 3", fid, len(face))
		}
		for i, vid := range face {
			if vid < 0 || vid >= len(verts) {
				return nil, fmt.Errorf("mesh: face %d references vertex %d of %d", fid, vid, len(verts))
			}
			m.v2f[vid] = append(m.v2f[vid], fid)
			m.addEdge(vid, face[(i+1)%len(face)])
		}
	}
	m.RecalcNormals()
	return m, nil
}

func (m *PolyMesh) addEdge(a, b int) {
	key := edgeKey(a, b)
	if _, ok := m.edgeOf[key]; ok {
		return
	}
	eid := len(m.edges)
	m.edgeOf[key] = eid
	m.edges = append(m.edges, key)
	m.marked = append(m.marked, false)
	m.v2e[a] = append(m.v2e[a], eid)
	m.v2e[b] = append(m.v2e[b], eid)
}

func edgeKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// NumVerts returns the number of vertices.
func (m *PolyMesh) NumVerts() int { return len(m.verts) }

// NumEdges returns the number of edges.
func (m *PolyMesh) NumEdges() int { return len(m.edges) }

// NumFaces returns the number of faces.
func (m *PolyMesh) NumFaces() int { return len(m.faces) }

// Vert returns the position of vertex vid.
func (m *PolyMesh) Vert(vid int) r3.Vec { return m.verts[vid] }

// SetVert overwrites the position of vertex vid. Face normals are not
// updated; call RecalcNormals after a batch of position changes.
func (m *PolyMesh) SetVert(vid int, p r3.Vec) { m.verts[vid] = p }

// Label returns the feature label of vertex vid.
func (m *PolyMesh) Label(vid int) Label { return m.labels[vid] }

// SetLabel overwrites the feature label of vertex vid.
func (m *PolyMesh) SetLabel(vid int, l Label) { m.labels[vid] = l }

// Face returns the vertex loop of face fid. The slice is owned by the mesh.
func (m *PolyMesh) Face(fid int) []int { return m.faces[fid] }

// FaceNormal returns the unit normal of face fid, or the zero vector for
// a degenerate face.
func (m *PolyMesh) FaceNormal(fid int) r3.Vec { return m.normals[fid] }

// EdgeVerts returns the two vertices of edge eid, lower index first.
func (m *PolyMesh) EdgeVerts(eid int) (int, int) {
	return m.edges[eid][0], m.edges[eid][1]
}

// Edge returns the edge joining vertices a and b, if any.
func (m *PolyMesh) Edge(a, b int) (eid int, ok bool) {
	eid, ok = m.edgeOf[edgeKey(a, b)]
	return eid, ok
}

// EdgeMarked reports whether edge eid is marked as a feature edge.
func (m *PolyMesh) EdgeMarked(eid int) bool { return m.marked[eid] }

// MarkEdge sets the feature flag of edge eid.
func (m *PolyMesh) MarkEdge(eid int, mark bool) { m.marked[eid] = mark }

// VertOpposite returns the vertex of edge eid that is not vid.
func (m *PolyMesh) VertOpposite(eid, vid int) int {
	e := m.edges[eid]
	if e[0] == vid {
		return e[1]
	}
	if e[1] == vid {
		return e[0]
	}
	panic("mesh: vertex not on edge")
}

// VertEdges returns the edges incident to vertex vid. The slice is owned
// by the mesh.
func (m *PolyMesh) VertEdges(vid int) []int { return m.v2e[vid] }

// VertFaces returns the faces incident to vertex vid. The slice is owned
// by the mesh.
func (m *PolyMesh) VertFaces(vid int) []int { return m.v2f[vid] }

// RecalcNormals recomputes all face normals from current vertex
// positions using Newell's method, which stays well defined for
// non-planar polygon loops. Degenerate faces get a zero normal.
func (m *PolyMesh) RecalcNormals() {
	for fid, face := range m.faces {
		var n r3.Vec
		for i, vid := range face {
			a := m.verts[vid]
			b := m.verts[face[(i+1)%len(face)]]
			n.X += (a.Y - b.Y) * (a.Z + b.Z)
			n.Y += (a.Z - b.Z) * (a.X + b.X)
			n.Z += (a.X - b.X) * (a.Y + b.Y)
		}
		if r3.Norm2(n) == 0 {
			m.normals[fid] = r3.Vec{}
			continue
		}
		m.normals[fid] = r3.Unit(n)
	}
}

// Triangles fan-triangulates all faces and returns the triangle soup.
func (m *PolyMesh) Triangles() []r3.Triangle {
	tris := make([]r3.Triangle, 0, len(m.faces))
	for _, face := range m.faces {
		for i := 1; i < len(face)-1; i++ {
			tris = append(tris, r3.Triangle{
				m.verts[face[0]],
				m.verts[face[i]],
				m.verts[face[i+1]],
			})
		}
	}
	return tris
}

// MarkedSegments returns the endpoint positions of every marked edge.
func (m *PolyMesh) MarkedSegments() [][2]r3.Vec {
	var segs [][2]r3.Vec
	for eid, e := range m.edges {
		if m.marked[eid] {
			segs = append(segs, [2]r3.Vec{m.verts[e[0]], m.verts[e[1]]})
		}
	}
	return segs
}

// Bounds returns the axis-aligned bounding box of the mesh vertices.
func (m *PolyMesh) Bounds() d3.Box {
	bb := d3.EmptyBox()
	for _, v := range m.verts {
		bb = bb.Include(v)
	}
	return bb
}
