package smoother

import (
	"testing"

	"github.com/zeroseven-hash/meshsmooth/laplacian"
	"github.com/zeroseven-hash/meshsmooth/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// markedFan returns the planar quad fan with all boundary edges marked:
// the four boundary vertices classify as Feature, the center as Regular.
func markedFan(t *testing.T) *mesh.PolyMesh {
	t.Helper()
	verts := []r3.Vec{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
		{X: 0.5, Y: 0.5},
	}
	m, err := mesh.New(verts, [][]int{{0, 1, 4}, {1, 2, 4}, {2, 3, 4}, {3, 0, 4}})
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}} {
		eid, ok := m.Edge(e[0], e[1])
		if !ok {
			t.Fatalf("edge %v not found", e)
		}
		m.MarkEdge(eid, true)
	}
	return m
}

func discard(string, ...any) {}

func buildSystem(t *testing.T, m *mesh.PolyMesh) *system {
	t.Helper()
	sys := newSystem(m, discard)
	if err := sys.allocFeatureColumns(); err != nil {
		t.Fatal(err)
	}
	sys.laplacianTerm(laplacian.Uniform, 1)
	for vid := 0; vid < m.NumVerts(); vid++ {
		switch m.Label(vid) {
		case mesh.Regular:
			sys.tangentPlaneTerm(vid, 1)
		case mesh.Feature:
			sys.tangentLineTerm(vid, 1)
		case mesh.Corner:
			sys.holdCorner(vid, 1)
		}
	}
	return sys
}

func TestRowAndColumnCount(t *testing.T) {
	m := markedFan(t)
	ClassifyFeatures(m)
	// Additionally mark one spoke: vertex 0 gets 3 marked edges and
	// vertex 4 gets 1, so both become corners.
	eid, _ := m.Edge(0, 4)
	m.MarkEdge(eid, true)
	ClassifyFeatures(m)

	var nRegular, nFeature, nCorner, regularFaces int
	for vid := 0; vid < m.NumVerts(); vid++ {
		switch m.Label(vid) {
		case mesh.Regular:
			nRegular++
			regularFaces += len(m.VertFaces(vid))
		case mesh.Feature:
			nFeature++
		case mesh.Corner:
			nCorner++
		}
	}
	if nRegular != 0 || nFeature != 3 || nCorner != 2 {
		t.Fatalf("labels: got %d/%d/%d regular/feature/corner, want 0/3/2", nRegular, nFeature, nCorner)
	}

	sys := buildSystem(t, m)
	wantRows := 3*m.NumVerts() + regularFaces + 4*nFeature + 3*nCorner
	if sys.rows != wantRows {
		t.Errorf("row count: got %d, want %d", sys.rows, wantRows)
	}
	if got, want := len(sys.weights), wantRows; got != want {
		t.Errorf("weight count: got %d, want %d", got, want)
	}
	if got, want := len(sys.rhs), wantRows; got != want {
		t.Errorf("rhs count: got %d, want %d", got, want)
	}
	if got, want := sys.cols(), 3*m.NumVerts()+nFeature; got != want {
		t.Errorf("column count: got %d, want %d", got, want)
	}
}

func TestFeatureColumnLayoutDeterministic(t *testing.T) {
	m := markedFan(t)
	ClassifyFeatures(m)

	first := newSystem(m, discard)
	if err := first.allocFeatureColumns(); err != nil {
		t.Fatal(err)
	}
	if len(first.feature) != 4 {
		t.Fatalf("feature vertex count: got %d, want 4", len(first.feature))
	}
	// Columns follow increasing vertex id starting at 3V.
	next := 3 * m.NumVerts()
	for vid := 0; vid < m.NumVerts(); vid++ {
		fl, ok := first.feature[vid]
		if !ok {
			continue
		}
		if fl.col != next {
			t.Errorf("vertex %d column: got %d, want %d", vid, fl.col, next)
		}
		next++
	}

	second := newSystem(m, discard)
	if err := second.allocFeatureColumns(); err != nil {
		t.Fatal(err)
	}
	for vid, fl := range first.feature {
		if got := second.feature[vid]; got != fl {
			t.Errorf("vertex %d: got %+v on rerun, want %+v", vid, got, fl)
		}
	}
}

func TestMalformedFeatureTopology(t *testing.T) {
	m := markedFan(t)
	ClassifyFeatures(m)
	// Mislabel the center vertex, which has no marked edges.
	m.SetLabel(4, mesh.Feature)
	sys := newSystem(m, discard)
	if err := sys.allocFeatureColumns(); err == nil {
		t.Error("expected error for feature vertex without two marked edges")
	}
}

func TestDegenerateTangentWarns(t *testing.T) {
	// Both marked neighbors of vertex 1 at the same position: the
	// tangent direction is zero length.
	verts := []r3.Vec{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 0}, {X: 1, Y: 1},
	}
	m, err := mesh.New(verts, [][]int{{0, 1, 3}, {1, 2, 3}})
	if err != nil {
		t.Fatal(err)
	}
	e0, _ := m.Edge(0, 1)
	e1, _ := m.Edge(1, 2)
	m.MarkEdge(e0, true)
	m.MarkEdge(e1, true)
	ClassifyFeatures(m)
	if m.Label(1) != mesh.Feature {
		t.Fatalf("vertex 1 label: got %v, want feature", m.Label(1))
	}

	warned := false
	sys := newSystem(m, func(string, ...any) { warned = true })
	if err := sys.allocFeatureColumns(); err != nil {
		t.Fatal(err)
	}
	if !warned {
		t.Error("zero length tangent did not warn")
	}
	fl := sys.feature[1]
	if fl.dir != (r3.Vec{}) {
		t.Errorf("degenerate tangent direction: got %v, want zero", fl.dir)
	}
	// Rows are still contributed for the vertex.
	sys.tangentLineTerm(1, 1)
	if sys.rows != 4 {
		t.Errorf("row count after degenerate tangent term: got %d, want 4", sys.rows)
	}
}
