package field

import (
	"math"

	"github.com/katalvlaran/repfield/planar"
)

// GeometryCollection is a heterogeneous union of owned sub-geometries,
// each ranked under its own repulsion metric. A collection cannot contain
// another collection.
type GeometryCollection struct {
	metric
	geoms []Geometry
	box   planar.BBox
}

// NewGeometryCollection builds a collection from owned sub-geometries.
// Returns ErrEmptyGeometry for an empty set and ErrNestedCollection when
// a member is itself a collection.
func NewGeometryCollection(geoms []Geometry, opts ...GeomOption) (*GeometryCollection, error) {
	if len(geoms) == 0 {
		return nil, ErrEmptyGeometry
	}
	for _, g := range geoms {
		if g.Kind() == KindGeometryCollection {
			return nil, ErrNestedCollection
		}
	}
	m, err := newMetric(opts)
	if err != nil {
		return nil, err
	}

	return &GeometryCollection{metric: m, geoms: geoms, box: unionBox(geoms)}, nil
}

func unionBox(geoms []Geometry) planar.BBox {
	box := geoms[0].BBoxes()[0]
	for _, g := range geoms {
		for _, b := range g.BBoxes() {
			box = box.Union(b)
		}
	}

	return box
}

// Kind reports KindGeometryCollection.
func (g *GeometryCollection) Kind() Kind { return KindGeometryCollection }

// Geometries returns the owned sub-geometries.
func (g *GeometryCollection) Geometries() []Geometry { return g.geoms }

// SetCoordinates always fails: a collection owns heterogeneous
// sub-geometries and has no single coordinate array to rewrite.
func (g *GeometryCollection) SetCoordinates() error { return ErrImmutableCollection }

// SetRepulsion replaces the metric of every sub-geometry.
func (g *GeometryCollection) SetRepulsion(a planar.Mat2) error {
	for _, sub := range g.geoms {
		if err := sub.SetRepulsion(a); err != nil {
			return err
		}
	}

	return nil
}

// RepulsionTensor concatenates the sub-geometry candidate stacks in
// declaration order.
func (g *GeometryCollection) RepulsionTensor(pts []planar.Vec2) [][]planar.Vec2 {
	var out [][]planar.Vec2
	for _, sub := range g.geoms {
		out = append(out, sub.RepulsionTensor(pts)...)
	}

	return out
}

// RepulsionVectors min-selects across the sub-geometries' own selected
// vectors, ranking each candidate under its source geometry's metric.
func (g *GeometryCollection) RepulsionVectors(pts []planar.Vec2) []planar.Vec2 {
	out := make([]planar.Vec2, len(pts))
	best := make([]float64, len(pts))
	for i := range best {
		best[i] = math.Inf(1)
	}
	for _, sub := range g.geoms {
		inv := sub.metricRef().invRepulsion
		vs := sub.RepulsionVectors(pts)
		for i, v := range vs {
			if d := rowForm(v, inv); d < best[i] {
				best[i] = d
				out[i] = v
			}
		}
	}

	return out
}

// squaredDistRef returns the per-point minimum squared distance across
// sub-geometries together with the argmin sub-geometry index.
func (g *GeometryCollection) squaredDistRef(pts []planar.Vec2, form Form) ([]float64, []int) {
	dists := make([]float64, len(pts))
	refs := make([]int, len(pts))
	for i := range dists {
		dists[i] = math.Inf(1)
	}
	for si, sub := range g.geoms {
		dd := sub.SquaredDist(pts, form)
		for i, d := range dd {
			if d < dists[i] {
				dists[i] = d
				refs[i] = si
			}
		}
	}

	return dists, refs
}

// SquaredDist returns, per query point, the minimum squared distance
// across sub-geometries, each evaluated under its own metric.
func (g *GeometryCollection) SquaredDist(pts []planar.Vec2, form Form) []float64 {
	dd, _ := g.squaredDistRef(pts, form)

	return dd
}

// Eval returns exp(−d²) of the minimum distance: the outer envelope of
// the sub-geometry wells.
func (g *GeometryCollection) Eval(pts []planar.Vec2) []float64 {
	dd := g.SquaredDist(pts, FormInverse)
	out := make([]float64, len(dd))
	for i, d := range dd {
		out[i] = math.Exp(-d)
	}

	return out
}

// Gradient differentiates the envelope: only the argmin sub-geometry
// contributes, through its own gradient matrix.
func (g *GeometryCollection) Gradient(pts []planar.Vec2) []planar.Vec2 {
	_, refs := g.squaredDistRef(pts, FormInverse)
	evals := g.Eval(pts)
	vs := g.RepulsionVectors(pts)

	out := make([]planar.Vec2, len(pts))
	for i := range pts {
		grad := g.geoms[refs[i]].metricRef().gradMatrix
		out[i] = grad.MulVec(vs[i]).Scale(-evals[i])
	}

	return out
}

// BBoxes returns the union box over every sub-geometry.
func (g *GeometryCollection) BBoxes() []planar.BBox { return []planar.BBox{g.box} }

// CenterPoint returns the midpoint of the sub-geometry centers' extent.
func (g *GeometryCollection) CenterPoint() planar.Vec2 {
	centers := make([]planar.Vec2, len(g.geoms))
	for i, sub := range g.geoms {
		centers[i] = sub.CenterPoint()
	}

	return planar.BBoxOf(centers).Center()
}

// InBBox reports whether any sub-geometry claims p.
func (g *GeometryCollection) InBBox(p planar.Vec2) bool {
	for _, sub := range g.geoms {
		if sub.InBBox(p) {
			return true
		}
	}

	return false
}
