// Package smoother iteratively relaxes the vertex positions of a
// polygon mesh while preserving marked feature lines and corners. Every
// iteration assembles a weighted least-squares system mixing a Laplacian
// smoothing term with per-vertex constraints chosen by feature label,
// solves it, and commits the new positions, optionally reprojecting them
// onto a reference surface and reference feature curves.
package smoother

import (
	"errors"
	"fmt"
	"log"

	"github.com/zeroseven-hash/meshsmooth/laplacian"
	"github.com/zeroseven-hash/meshsmooth/lsq"
	"github.com/zeroseven-hash/meshsmooth/mesh"
	"github.com/zeroseven-hash/meshsmooth/project"
	"gonum.org/v1/gonum/spatial/r3"
)

// Options configures a smoothing run. All weights must be non-negative.
type Options struct {
	// Iterations is the number of relaxation passes.
	Iterations int
	// Mode selects the Laplacian discretization of the smoothing term.
	Mode laplacian.Mode
	// SmoothWeight scales the Laplacian smoothing rows.
	SmoothWeight float64
	// TangentWeight scales the tangent-plane rows of regular vertices.
	TangentWeight float64
	// FeatureWeight scales the tangent-line rows of feature vertices.
	FeatureWeight float64
	// CornerWeight scales the pin rows of corner vertices.
	CornerWeight float64
	// Reproject snaps every committed position onto the target mesh
	// surface, or onto the input mesh's marked-edge curves for feature
	// vertices.
	Reproject bool
	// Log receives degenerate-geometry warnings. A nil Log discards them.
	Log *log.Logger
}

// DefaultOptions returns the options of a mild feature-preserving
// relaxation without reprojection.
func DefaultOptions() Options {
	return Options{
		Iterations:    10,
		Mode:          laplacian.Uniform,
		SmoothWeight:  0.001,
		TangentWeight: 1,
		FeatureWeight: 1,
		CornerWeight:  1,
	}
}

func (opt Options) validate() error {
	if opt.Iterations < 0 {
		return fmt.Errorf("smoother: %d iterations", opt.Iterations)
	}
	if opt.SmoothWeight < 0 || opt.TangentWeight < 0 || opt.FeatureWeight < 0 || opt.CornerWeight < 0 {
		return errors.New("smoother: weights must be non-negative")
	}
	return nil
}

// Smooth runs opt.Iterations relaxation passes over m. If reprojection
// is enabled target supplies the reference surface; the reference
// feature curves are taken from m's marked edges before the first pass.
//
// Vertex labels are recomputed from the edge marking once, before the
// first iteration. On error the mesh is left at the positions of the
// last fully completed iteration; no partial update is ever applied.
func Smooth(m *mesh.PolyMesh, target *mesh.PolyMesh, opt Options) error {
	if err := opt.validate(); err != nil {
		return err
	}
	logf := func(format string, args ...any) {}
	if opt.Log != nil {
		logf = opt.Log.Printf
	}

	var (
		refSurface *project.Surface
		refCurve   *project.Curve
		err        error
	)
	if opt.Reproject {
		if target == nil {
			return errors.New("smoother: reprojection enabled without a target mesh")
		}
		refSurface, err = project.NewSurface(target.Triangles())
		if err != nil {
			return fmt.Errorf("smoother: building surface oracle: %w", err)
		}
		if segs := m.MarkedSegments(); len(segs) > 0 {
			refCurve, err = project.NewCurve(segs)
			if err != nil {
				return fmt.Errorf("smoother: building feature-curve oracle: %w", err)
			}
		}
	}

	ClassifyFeatures(m)

	nv := m.NumVerts()
	for it := 0; it < opt.Iterations; it++ {
		sys := newSystem(m, logf)
		if err := sys.allocFeatureColumns(); err != nil {
			return err
		}
		sys.laplacianTerm(opt.Mode, opt.SmoothWeight)
		for vid := 0; vid < nv; vid++ {
			switch m.Label(vid) {
			case mesh.Regular:
				sys.tangentPlaneTerm(vid, opt.TangentWeight)
			case mesh.Feature:
				sys.tangentLineTerm(vid, opt.FeatureWeight)
			case mesh.Corner:
				sys.holdCorner(vid, opt.CornerWeight)
			default:
				panic("smoother: unknown vertex label")
			}
		}

		res, err := lsq.SolveWeighted(sys.entries, sys.rows, sys.cols(), sys.weights, sys.rhs)
		if err != nil {
			return fmt.Errorf("smoother: iteration %d: %w", it, err)
		}

		// Commit positions only after the full solve. Regular and corner
		// vertices read their coordinate columns; feature vertices move
		// along their tangent line by the solved parameter.
		for vid := 0; vid < nv; vid++ {
			switch m.Label(vid) {
			case mesh.Regular, mesh.Corner:
				p := r3.Vec{X: res[vid], Y: res[nv+vid], Z: res[2*nv+vid]}
				if refSurface != nil {
					p = refSurface.Nearest(p)
				}
				m.SetVert(vid, p)
			case mesh.Feature:
				fl := sys.feature[vid]
				p := r3.Add(m.Vert(vid), r3.Scale(res[fl.col], fl.dir))
				if refCurve != nil {
					p = refCurve.Nearest(p)
				}
				m.SetVert(vid, p)
			default:
				panic("smoother: unknown vertex label")
			}
		}
	}
	return nil
}
