package laplacian_test

import (
	"math"
	"testing"

	"github.com/zeroseven-hash/meshsmooth/laplacian"
	"github.com/zeroseven-hash/meshsmooth/lsq"
	"github.com/zeroseven-hash/meshsmooth/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

func fanMesh(t *testing.T) *mesh.PolyMesh {
	t.Helper()
	verts := []r3.Vec{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
		{X: 0.5, Y: 0.5},
	}
	m, err := mesh.New(verts, [][]int{{0, 1, 4}, {1, 2, 4}, {2, 3, 4}, {3, 0, 4}})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

// rowsOf buckets entries by row index.
func rowsOf(entries []lsq.Entry) map[int][]lsq.Entry {
	rows := make(map[int][]lsq.Entry)
	for _, e := range entries {
		rows[e.Row] = append(rows[e.Row], e)
	}
	return rows
}

func TestUniformRowsSumToZero(t *testing.T) {
	m := fanMesh(t)
	nv := m.NumVerts()
	entries := laplacian.MatrixEntries(m, laplacian.Uniform, 1)
	rows := rowsOf(entries)
	if len(rows) != nv {
		t.Fatalf("row count: got %d, want %d", len(rows), nv)
	}
	for vid := 0; vid < nv; vid++ {
		sum := 0.0
		var diag float64
		for _, e := range rows[vid] {
			sum += e.Val
			if e.Col == vid {
				diag = e.Val
			}
		}
		if math.Abs(sum) > 1e-12 {
			t.Errorf("row %d sums to %g, want 0", vid, sum)
		}
		if diag != -1 {
			t.Errorf("row %d diagonal: got %g, want -1", vid, diag)
		}
	}
	// Uniform weights: center row has 4 neighbors at 1/4 each.
	for _, e := range rows[4] {
		if e.Col != 4 && math.Abs(e.Val-0.25) > 1e-12 {
			t.Errorf("center neighbor coefficient: got %g, want 0.25", e.Val)
		}
	}
}

func TestBlockReplication(t *testing.T) {
	m := fanMesh(t)
	nv := m.NumVerts()
	single := laplacian.MatrixEntries(m, laplacian.Uniform, 1)
	tripled := laplacian.MatrixEntries(m, laplacian.Uniform, 3)
	if got, want := len(tripled), 3*len(single); got != want {
		t.Fatalf("entry count: got %d, want %d", got, want)
	}
	for _, e := range tripled {
		block := e.Row / nv
		if e.Col/nv != block {
			t.Errorf("entry (%d,%d) couples columns across coordinate blocks", e.Row, e.Col)
		}
	}
}

func TestCotangentRowsNormalized(t *testing.T) {
	m := fanMesh(t)
	entries := laplacian.MatrixEntries(m, laplacian.Cotangent, 1)
	rows := rowsOf(entries)
	for vid, row := range rows {
		sum := 0.0
		for _, e := range row {
			sum += e.Val
			if e.Col != vid && e.Val < 0 {
				t.Errorf("row %d has negative neighbor coefficient %g", vid, e.Val)
			}
		}
		if math.Abs(sum) > 1e-12 {
			t.Errorf("cotangent row %d sums to %g, want 0", vid, sum)
		}
	}
}

func TestIsolatedVertexSkipped(t *testing.T) {
	verts := []r3.Vec{{}, {X: 1}, {Y: 1}, {X: 5, Y: 5}} // vertex 3 unused
	m, err := mesh.New(verts, [][]int{{0, 1, 2}})
	if err != nil {
		t.Fatal(err)
	}
	entries := laplacian.MatrixEntries(m, laplacian.Uniform, 1)
	for _, e := range entries {
		if e.Row == 3 || e.Col == 3 {
			t.Errorf("isolated vertex contributed entry %+v", e)
		}
	}
}
