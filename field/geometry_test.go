package field_test

import (
	"math"
	"testing"

	"github.com/katalvlaran/repfield/field"
	"github.com/katalvlaran/repfield/planar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pt is shorthand for building a point geometry in tests.
func pt(t *testing.T, x, y float64, opts ...field.GeomOption) *field.Point {
	t.Helper()
	g, err := field.NewPoint(planar.V(x, y), opts...)
	require.NoError(t, err)

	return g
}

// TestPoint_Kernel verifies the point kernel: v = p − c, eval 1 exactly
// on the point, and the Mahalanobis scaling under A = 5·I.
func TestPoint_Kernel(t *testing.T) {
	g := pt(t, 50, 50, field.WithRepulsion(planar.Diag(5, 5)))

	vs := g.RepulsionVectors([]planar.Vec2{{53, 54}})
	assert.Equal(t, planar.V(3, 4), vs[0])

	dd := g.SquaredDist([]planar.Vec2{{53, 54}}, field.FormInverse)
	assert.InDelta(t, 25.0/5.0, dd[0], 1e-12)

	ev := g.Eval([]planar.Vec2{{50, 50}, {53, 54}})
	assert.Equal(t, 1.0, ev[0])
	assert.InDelta(t, math.Exp(-5.0), ev[1], 1e-12)
}

// TestPoint_EvalOneIffZeroVector cross-checks invariants: eval(p) = 1
// exactly where the repulsion vector vanishes.
func TestPoint_EvalOneIffZeroVector(t *testing.T) {
	g := pt(t, 2, 3)

	on := []planar.Vec2{{2, 3}}
	off := []planar.Vec2{{2.1, 3}}
	assert.Equal(t, planar.Vec2{}, g.RepulsionVectors(on)[0])
	assert.Equal(t, 1.0, g.Eval(on)[0])
	assert.NotEqual(t, planar.Vec2{}, g.RepulsionVectors(off)[0])
	assert.Less(t, g.Eval(off)[0], 1.0)
}

// TestPoint_SingularRepulsion verifies fail-fast construction with a
// non-invertible metric.
func TestPoint_SingularRepulsion(t *testing.T) {
	_, err := field.NewPoint(planar.V(0, 0), field.WithRepulsion(planar.Mat2{{1, 2}, {2, 4}}))
	assert.ErrorIs(t, err, planar.ErrSingularMatrix)
}

// TestLineString_Kernel verifies clamped segment projection: beside the
// segment the vector is the perpendicular drop, past an endpoint it
// points from that endpoint.
func TestLineString_Kernel(t *testing.T) {
	g, err := field.NewLineString([]planar.Vec2{{0, 0}, {10, 0}})
	require.NoError(t, err)

	vs := g.RepulsionVectors([]planar.Vec2{{5, 2}, {13, 4}, {-3, -4}})
	assert.Equal(t, planar.V(0, 2), vs[0])
	assert.Equal(t, planar.V(3, 4), vs[1])
	assert.Equal(t, planar.V(-3, -4), vs[2])

	// On the segment the field peaks at exactly one.
	assert.Equal(t, 1.0, g.Eval([]planar.Vec2{{7, 0}})[0])
}

// TestLineString_MinSelect verifies per-segment min-selection on a bent
// polyline: the nearer segment wins per query point.
func TestLineString_MinSelect(t *testing.T) {
	g, err := field.NewLineString([]planar.Vec2{{0, 0}, {10, 0}, {10, 10}})
	require.NoError(t, err)

	// (2, 1) is nearest the horizontal segment; (9, 8) the vertical one.
	vs := g.RepulsionVectors([]planar.Vec2{{2, 1}, {9, 8}})
	assert.Equal(t, planar.V(0, 1), vs[0])
	assert.Equal(t, planar.V(-1, 0), vs[1])

	// The unselected tensor is segment-major: one candidate per segment.
	tensor := g.RepulsionTensor([]planar.Vec2{{2, 1}})
	require.Len(t, tensor, 2)
	assert.Equal(t, planar.V(0, 1), tensor[0][0])
	assert.Equal(t, planar.V(-8, 0), tensor[1][0])
}

// TestLineString_TooShort verifies ErrShortLineString.
func TestLineString_TooShort(t *testing.T) {
	_, err := field.NewLineString([]planar.Vec2{{0, 0}})
	assert.ErrorIs(t, err, field.ErrShortLineString)
}

// TestRectangle_Kernel verifies the signed-clamp formula: zero inside
// (and on the boundary), per-coordinate outward displacement outside.
func TestRectangle_Kernel(t *testing.T) {
	g, err := field.NewRectangle(planar.V(0, 0), planar.V(4, 2))
	require.NoError(t, err)

	vs := g.RepulsionVectors([]planar.Vec2{{2, 1}, {4, 2}, {7, 1}, {-2, -3}})
	assert.Equal(t, planar.Vec2{}, vs[0], "interior")
	assert.Equal(t, planar.Vec2{}, vs[1], "boundary corner")
	assert.Equal(t, planar.V(3, 0), vs[2], "right of the box")
	assert.Equal(t, planar.V(-2, -3), vs[3], "below-left of the box")

	assert.Equal(t, 1.0, g.Eval([]planar.Vec2{{2, 1}})[0])
	assert.Less(t, g.Eval([]planar.Vec2{{7, 1}})[0], 1.0)
}

// TestEllipse_Kernel reproduces the unit-circle scenario: with c=(0,0),
// B=I, A=I the field is 1 at the center and on the rim, exp(−1) at
// (2,0), and the gradient there is axis-aligned with magnitude
// 2·exp(−1), pointing toward the ellipse along −x (the field decreases
// away from the obstacle).
func TestEllipse_Kernel(t *testing.T) {
	g, err := field.NewEllipse(planar.V(0, 0), planar.Identity())
	require.NoError(t, err)

	ev := g.Eval([]planar.Vec2{{0, 0}, {1, 0}, {2, 0}})
	assert.Equal(t, 1.0, ev[0])
	assert.Equal(t, 1.0, ev[1])
	assert.InDelta(t, math.Exp(-1), ev[2], 1e-12)

	grad := g.Gradient([]planar.Vec2{{2, 0}})
	assert.InDelta(t, 2*math.Exp(-1), grad[0].Norm(), 1e-12)
	assert.Less(t, grad[0][0], 0.0)
	assert.InDelta(t, 0.0, grad[0][1], 1e-12)
}

// TestEllipse_BBox verifies the eigen-derived box of an axis-aligned
// ellipse: the box covers c ± rows of √B, so B = diag(4, 9) spans ±2 in
// x and ±3 in y around the center.
func TestEllipse_BBox(t *testing.T) {
	g, err := field.NewEllipse(planar.V(1, -1), planar.Diag(4, 9))
	require.NoError(t, err)

	box := g.BBoxes()[0]
	assert.InDelta(t, -1.0, box.Min[0], 1e-9)
	assert.InDelta(t, -4.0, box.Min[1], 1e-9)
	assert.InDelta(t, 3.0, box.Max[0], 1e-9)
	assert.InDelta(t, 2.0, box.Max[1], 1e-9)
}

// TestEllipse_SingularShape verifies fail-fast construction.
func TestEllipse_SingularShape(t *testing.T) {
	_, err := field.NewEllipse(planar.V(0, 0), planar.Mat2{{1, 1}, {1, 1}})
	assert.ErrorIs(t, err, planar.ErrSingularMatrix)
}

// TestMultiPoint_Kernel verifies min-selection across stored points and
// the exact-match bbox pre-filter.
func TestMultiPoint_Kernel(t *testing.T) {
	g, err := field.NewMultiPoint([]planar.Vec2{{0, 0}, {10, 0}})
	require.NoError(t, err)

	vs := g.RepulsionVectors([]planar.Vec2{{1, 0}, {9, 0}})
	assert.Equal(t, planar.V(1, 0), vs[0])
	assert.Equal(t, planar.V(-1, 0), vs[1])

	assert.True(t, g.InBBox(planar.V(10, 0)))
	assert.False(t, g.InBBox(planar.V(5, 0)), "between the points is not a match")
}

// TestMultiRectangle_Kernel verifies min-selection across member boxes.
func TestMultiRectangle_Kernel(t *testing.T) {
	g, err := field.NewMultiRectangle([][2]planar.Vec2{
		{{0, 0}, {2, 2}},
		{{10, 0}, {12, 2}},
	})
	require.NoError(t, err)

	vs := g.RepulsionVectors([]planar.Vec2{{3, 1}, {9, 1}})
	assert.Equal(t, planar.V(1, 0), vs[0], "just right of the first box")
	assert.Equal(t, planar.V(-1, 0), vs[1], "just left of the second box")

	assert.Equal(t, 1.0, g.Eval([]planar.Vec2{{11, 1}})[0])
}

// TestMultiEllipse_Kernel verifies the per-ellipse shapes and boxes.
func TestMultiEllipse_Kernel(t *testing.T) {
	g, err := field.NewMultiEllipse(
		[]planar.Vec2{{0, 0}, {10, 0}},
		[]planar.Mat2{planar.Identity(), planar.Diag(2, 2)},
	)
	require.NoError(t, err)

	assert.Equal(t, 1.0, g.Eval([]planar.Vec2{{10, 1.5}})[0], "inside the wider ellipse")
	assert.Less(t, g.Eval([]planar.Vec2{{0, 1.5}})[0], 1.0, "outside the unit ellipse")

	boxes := g.BBoxes()
	require.Len(t, boxes, 2)
	assert.InDelta(t, 10.0-math.Sqrt2, boxes[1].Min[0], 1e-9)

	_, err = field.NewMultiEllipse([]planar.Vec2{{0, 0}}, nil)
	assert.ErrorIs(t, err, field.ErrShapeMismatch)
}

// TestGeometryCollection verifies envelope semantics across
// heterogeneous members with distinct metrics, and the nesting guard.
func TestGeometryCollection(t *testing.T) {
	near := pt(t, 0, 0)
	wide := pt(t, 10, 0, field.WithRepulsion(planar.Diag(25, 25)))
	coll, err := field.NewGeometryCollection([]field.Geometry{near, wide})
	require.NoError(t, err)

	pts := []planar.Vec2{{1, 0}, {6, 0}}
	dd := coll.SquaredDist(pts, field.FormInverse)
	assert.InDelta(t, 1.0, dd[0], 1e-12, "near point dominates at (1,0)")
	assert.InDelta(t, 16.0/25.0, dd[1], 1e-12, "wide point dominates at (6,0)")

	ev := coll.Eval(pts)
	for i := range pts {
		assert.InDelta(t, math.Exp(-dd[i]), ev[i], 1e-12)
	}

	_, err = field.NewGeometryCollection([]field.Geometry{coll})
	assert.ErrorIs(t, err, field.ErrNestedCollection)
}

// TestGeometry_GradientPointsUphill samples several kinds and checks
// that a small step along the gradient increases the field: the wells
// peak on the geometry, so the gradient points back toward it.
func TestGeometry_GradientPointsUphill(t *testing.T) {
	ls, err := field.NewLineString([]planar.Vec2{{0, 0}, {4, 0}})
	require.NoError(t, err)
	rect, err := field.NewRectangle(planar.V(0, 0), planar.V(2, 2))
	require.NoError(t, err)

	for _, g := range []field.Geometry{pt(t, 0, 0), ls, rect} {
		p := planar.V(2.5, 1.7)
		grad := g.Gradient([]planar.Vec2{p})[0]
		stepped := p.Add(grad.Unit().Scale(0.05))
		assert.Greater(t, g.Eval([]planar.Vec2{stepped})[0], g.Eval([]planar.Vec2{p})[0],
			"%s: field must increase along the gradient direction", g.Kind())
	}
}
