package smoother

import (
	"fmt"

	"github.com/zeroseven-hash/meshsmooth/laplacian"
	"github.com/zeroseven-hash/meshsmooth/lsq"
	"github.com/zeroseven-hash/meshsmooth/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// featureLine parameterizes a feature vertex: its new position is
// old position + t*dir where t occupies auxiliary column col.
type featureLine struct {
	dir r3.Vec
	col int
}

// system accumulates the heterogeneous constraint rows of one smoothing
// iteration. Columns [0,V) hold x coordinates, [V,2V) y, [2V,3V) z and
// [3V,3V+F) the auxiliary per-feature-vertex parameters.
type system struct {
	m       *mesh.PolyMesh
	entries []lsq.Entry
	weights []float64
	rhs     []float64
	rows    int
	feature map[int]featureLine
	logf    func(format string, args ...any)
}

func newSystem(m *mesh.PolyMesh, logf func(format string, args ...any)) *system {
	return &system{
		m:       m,
		feature: make(map[int]featureLine),
		logf:    logf,
	}
}

func (sys *system) cols() int {
	return 3*sys.m.NumVerts() + len(sys.feature)
}

// allocFeatureColumns assigns every feature vertex its tangent direction
// and auxiliary column before any row is built. Walking vertices by
// increasing id keeps the column layout deterministic and independent of
// row construction order.
func (sys *system) allocFeatureColumns() error {
	m := sys.m
	nv := m.NumVerts()
	next := 3 * nv
	for vid := 0; vid < nv; vid++ {
		if m.Label(vid) != mesh.Feature {
			continue
		}
		var nbrs []r3.Vec
		for _, eid := range m.VertEdges(vid) {
			if m.EdgeMarked(eid) {
				nbrs = append(nbrs, m.Vert(m.VertOpposite(eid, vid)))
			}
		}
		if len(nbrs) != 2 {
			return fmt.Errorf("smoother: feature vertex %d has %d marked edges, want 2", vid, len(nbrs))
		}
		dir := r3.Sub(nbrs[0], nbrs[1])
		if r3.Norm2(dir) == 0 {
			sys.logf("smoother: zero length feature tangent at vertex %d", vid)
		} else {
			dir = r3.Unit(dir)
		}
		sys.feature[vid] = featureLine{dir: dir, col: next}
		next++
	}
	return nil
}

func (sys *system) push(rhs, weight float64, entries ...lsq.Entry) {
	sys.entries = append(sys.entries, entries...)
	sys.rhs = append(sys.rhs, rhs)
	sys.weights = append(sys.weights, weight)
	sys.rows++
}

// laplacianTerm appends the 3V smoothing rows: the discrete Laplacian of
// every coordinate should vanish.
func (sys *system) laplacianTerm(mode laplacian.Mode, weight float64) {
	base := sys.rows
	for _, e := range laplacian.MatrixEntries(sys.m, mode, 3) {
		sys.entries = append(sys.entries, lsq.Entry{Row: base + e.Row, Col: e.Col, Val: e.Val})
	}
	extra := 3 * sys.m.NumVerts()
	for i := 0; i < extra; i++ {
		sys.weights = append(sys.weights, weight)
		sys.rhs = append(sys.rhs, 0)
	}
	sys.rows += extra
}

// tangentPlaneTerm appends one row per face incident to the regular
// vertex vid, keeping the new position on that face's tangent plane.
// Face orientation is not globally consistent, so per-face planes are
// used instead of a vertex normal. High-valence vertices end up more
// constrained than low-valence ones; accepted approximation.
func (sys *system) tangentPlaneTerm(vid int, weight float64) {
	m := sys.m
	nv := m.NumVerts()
	p := m.Vert(vid)
	for _, fid := range m.VertFaces(vid) {
		n := m.FaceNormal(fid)
		if r3.Norm2(n) == 0 {
			sys.logf("smoother: zero length normal on face %d", fid)
		}
		sys.push(r3.Dot(n, p), weight,
			lsq.Entry{Row: sys.rows, Col: vid, Val: n.X},
			lsq.Entry{Row: sys.rows, Col: nv + vid, Val: n.Y},
			lsq.Entry{Row: sys.rows, Col: 2*nv + vid, Val: n.Z},
		)
	}
}

// tangentLineTerm appends the four rows of the feature vertex vid: three
// coordinate rows enforcing new = old + t*dir and one Tikhonov row
// pulling the auxiliary parameter t toward zero with unit weight.
func (sys *system) tangentLineTerm(vid int, weight float64) {
	m := sys.m
	nv := m.NumVerts()
	p := m.Vert(vid)
	fl, ok := sys.feature[vid]
	if !ok {
		panic("smoother: feature vertex without allocated column")
	}
	sys.push(p.X, weight,
		lsq.Entry{Row: sys.rows, Col: vid, Val: 1},
		lsq.Entry{Row: sys.rows, Col: fl.col, Val: -fl.dir.X},
	)
	sys.push(p.Y, weight,
		lsq.Entry{Row: sys.rows, Col: nv + vid, Val: 1},
		lsq.Entry{Row: sys.rows, Col: fl.col, Val: -fl.dir.Y},
	)
	sys.push(p.Z, weight,
		lsq.Entry{Row: sys.rows, Col: 2*nv + vid, Val: 1},
		lsq.Entry{Row: sys.rows, Col: fl.col, Val: -fl.dir.Z},
	)
	sys.push(0, 1,
		lsq.Entry{Row: sys.rows, Col: fl.col, Val: 1},
	)
}

// holdCorner appends three rows pinning the corner vertex vid at its
// current position.
func (sys *system) holdCorner(vid int, weight float64) {
	m := sys.m
	nv := m.NumVerts()
	p := m.Vert(vid)
	sys.push(p.X, weight, lsq.Entry{Row: sys.rows, Col: vid, Val: 1})
	sys.push(p.Y, weight, lsq.Entry{Row: sys.rows, Col: nv + vid, Val: 1})
	sys.push(p.Z, weight, lsq.Entry{Row: sys.rows, Col: 2*nv + vid, Val: 1})
}
