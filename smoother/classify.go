package smoother

import "github.com/zeroseven-hash/meshsmooth/mesh"

// ClassifyFeatures labels every vertex of m from the number of marked
// edges incident to it: none is Regular, exactly two is Feature and any
// other count is Corner. A vertex with two marked edges sits on the
// smooth interior of a feature polyline and gets one tangential degree
// of freedom; endpoints, branch points and isolated marked edges are
// over- or under-constrained and get frozen as Corner.
func ClassifyFeatures(m *mesh.PolyMesh) {
	for vid := 0; vid < m.NumVerts(); vid++ {
		count := 0
		for _, eid := range m.VertEdges(vid) {
			if m.EdgeMarked(eid) {
				count++
			}
		}
		switch count {
		case 0:
			m.SetLabel(vid, mesh.Regular)
		case 2:
			m.SetLabel(vid, mesh.Feature)
		default:
			m.SetLabel(vid, mesh.Corner)
		}
	}
}
