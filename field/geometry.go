// Package field implements repulsion geometry kernels and the potential
// field built from them.
//
// Every geometry contributes a Gaussian-like repulsion well: for a query
// point p the kernel produces the repulsion vector v from the nearest
// point of the geometry to p, the squared Mahalanobis distance vᵀ·A⁻¹·v
// under the geometry's repulsion metric A, the field value exp(−d²) in
// (0, 1], and its gradient. All kernels are batched: inputs are point
// slices and outputs preserve the batch shape.
package field

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/repfield/planar"
)

// Geometry is the shared capability set of all shape variants. The
// interface is sealed: variants live in this package and form a tagged
// union rather than an open hierarchy.
type Geometry interface {
	// Kind reports the shape variant.
	Kind() Kind
	// RepulsionVectors returns, per query point, the vector from the
	// geometry to the point whose Mahalanobis norm under the geometry's
	// metric is minimal across sub-units. Zero on or inside the geometry.
	RepulsionVectors(pts []planar.Vec2) []planar.Vec2
	// RepulsionTensor returns the unselected per-sub-unit candidate
	// vectors in unit-major order: result[u][i] is the candidate from
	// sub-unit u to point i.
	RepulsionTensor(pts []planar.Vec2) [][]planar.Vec2
	// SquaredDist returns ⟨v,v⟩ for the selected repulsion vectors under
	// the requested bilinear form (FormInverse by default elsewhere).
	SquaredDist(pts []planar.Vec2, form Form) []float64
	// Eval returns exp(−SquaredDist) in (0, 1]; exactly 1 on the geometry.
	Eval(pts []planar.Vec2) []float64
	// Gradient returns −Eval(p)·(G·v) with G = A⁻¹ + (A⁻¹)ᵀ.
	Gradient(pts []planar.Vec2) []planar.Vec2
	// BBoxes returns one axis-aligned bounding box per sub-unit; a
	// GeometryCollection returns the single union box of its members.
	BBoxes() []planar.BBox
	// CenterPoint returns the midpoint of the geometry's coordinate extent.
	CenterPoint() planar.Vec2
	// InBBox reports whether p lies inside any sub-unit bounding box.
	InBBox(p planar.Vec2) bool
	// Repulsion returns the 2×2 repulsion metric A.
	Repulsion() planar.Mat2
	// SetRepulsion replaces A, recomputing A⁻¹ and the gradient matrix.
	// Fails with planar.ErrSingularMatrix when the new metric is not
	// invertible.
	SetRepulsion(a planar.Mat2) error
	// Properties returns the opaque passthrough dictionary (may be nil).
	Properties() map[string]any

	metricRef() *metric
	encode() (*GeometryDoc, error)
}

// metric carries the repulsion metric A shared by all variants, with its
// lazily derived inverse and gradient matrix G = A⁻¹ + (A⁻¹)ᵀ.
type metric struct {
	repulsion    planar.Mat2
	invRepulsion planar.Mat2
	gradMatrix   planar.Mat2
	properties   map[string]any
}

func newMetric(opts []GeomOption) (metric, error) {
	var cfg geomConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	a := planar.Identity()
	if cfg.repulsion != nil {
		a = *cfg.repulsion
	}

	m := metric{properties: cfg.properties}
	if err := m.setRepulsion(a); err != nil {
		return metric{}, err
	}

	return m, nil
}

func (m *metric) metricRef() *metric { return m }

// Repulsion returns the repulsion metric A.
func (m *metric) Repulsion() planar.Mat2 { return m.repulsion }

// Properties returns the passthrough properties dictionary.
func (m *metric) Properties() map[string]any { return m.properties }

// SetRepulsion replaces the metric, recomputing the derived matrices.
func (m *metric) SetRepulsion(a planar.Mat2) error { return m.setRepulsion(a) }

func (m *metric) setRepulsion(a planar.Mat2) error {
	inv, err := a.Inverse()
	if err != nil {
		return err
	}
	m.repulsion = a
	m.invRepulsion = inv
	m.gradMatrix = inv.Add(inv.Transpose())

	return nil
}

// distMatrix selects the bilinear form matrix for squared distances.
func (m *metric) distMatrix(form Form) planar.Mat2 {
	switch form {
	case FormIdentity:
		return planar.Identity()
	case FormRepulsion:
		return m.repulsion
	default:
		return m.invRepulsion
	}
}

// rowForm evaluates (v·M)·v, the row-vector bilinear form.
func rowForm(v planar.Vec2, m planar.Mat2) float64 {
	return m.VecMul(v).Dot(v)
}

// minSelect picks, per query point, the candidate vector of least
// (v·M)·v across the unit-major candidate tensor.
func minSelect(units [][]planar.Vec2, m planar.Mat2) []planar.Vec2 {
	n := len(units[0])
	out := make([]planar.Vec2, n)
	for i := 0; i < n; i++ {
		best := units[0][i]
		bestDist := rowForm(best, m)
		for u := 1; u < len(units); u++ {
			if d := rowForm(units[u][i], m); d < bestDist {
				best, bestDist = units[u][i], d
			}
		}
		out[i] = best
	}

	return out
}

// sharedSquaredDist computes ⟨v,v⟩ over the selected repulsion vectors.
func sharedSquaredDist(g Geometry, pts []planar.Vec2, form Form) []float64 {
	vs := g.RepulsionVectors(pts)
	m := g.metricRef().distMatrix(form)
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = rowForm(v, m)
	}

	return out
}

// sharedEval computes exp(−d²) under the Mahalanobis form.
func sharedEval(g Geometry, pts []planar.Vec2) []float64 {
	dd := g.SquaredDist(pts, FormInverse)
	out := make([]float64, len(dd))
	for i, d := range dd {
		out[i] = math.Exp(-d)
	}

	return out
}

// sharedGradient computes −eval·(G·v) per query point.
func sharedGradient(g Geometry, pts []planar.Vec2) []planar.Vec2 {
	vs := g.RepulsionVectors(pts)
	evals := g.Eval(pts)
	grad := g.metricRef().gradMatrix
	out := make([]planar.Vec2, len(vs))
	for i, v := range vs {
		out[i] = grad.MulVec(v).Scale(-evals[i])
	}

	return out
}

func anyBoxContains(boxes []planar.BBox, p planar.Vec2) bool {
	for _, b := range boxes {
		if b.Contains(p) {
			return true
		}
	}

	return false
}

// sign mirrors the three-valued sign with sign(0) = 0, which makes the
// rectangle kernel vanish on the interior.
func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

// segmentRepulsion returns p − q where q is the clamped projection of p
// onto the segment (a, b).
func segmentRepulsion(pts []planar.Vec2, a, b planar.Vec2) []planar.Vec2 {
	ab := b.Sub(a)
	den := ab.SquaredNorm()
	out := make([]planar.Vec2, len(pts))
	for i, p := range pts {
		t := 0.0
		if den > 0 {
			t = p.Sub(a).Dot(ab) / den
			t = math.Min(math.Max(t, 0.0), 1.0)
		}
		out[i] = p.Sub(a.Add(ab.Scale(t)))
	}

	return out
}

// ellipseRepulsion evaluates the single-ellipse kernel: with u = p − c and
// w = B⁻¹·u, the vector max(1 − 1/max(‖w‖, ε), 0)·u.
func ellipseRepulsion(pts []planar.Vec2, c planar.Vec2, invShape planar.Mat2) []planar.Vec2 {
	out := make([]planar.Vec2, len(pts))
	for i, p := range pts {
		u := p.Sub(c)
		den := math.Max(invShape.MulVec(u).Norm(), ellipseDenominatorFloor)
		out[i] = u.Scale(math.Max(1.0-1.0/den, 0.0))
	}

	return out
}

// ellipseBBox derives the bounding box of the ellipse (c, B) from the
// symmetric square root of B: the box covers c ± the rows of √B.
func ellipseBBox(c planar.Vec2, shape planar.Mat2) planar.BBox {
	sym := mat.NewSymDense(2, []float64{shape[0][0], shape[0][1], shape[0][1], shape[1][1]})
	var eig mat.EigenSym
	if !eig.Factorize(sym, true) {
		// A 2×2 symmetric factorization cannot fail for finite input; a
		// degenerate shape still yields a usable point box at the center.
		return planar.BBox{Min: c, Max: c}
	}
	vals := eig.Values(nil)
	var q mat.Dense
	eig.VectorsTo(&q)

	var sqrtB planar.Mat2
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			for k := 0; k < 2; k++ {
				sqrtB[i][j] += q.At(i, k) * math.Sqrt(math.Max(vals[k], 0)) * q.At(j, k)
			}
		}
	}

	box := planar.BBox{Min: c, Max: c}
	for i := 0; i < 2; i++ {
		box = box.Extend(c.Add(sqrtB.Row(i))).Extend(c.Sub(sqrtB.Row(i)))
	}

	return box
}

// Point is a single repulsive location.
type Point struct {
	metric
	coord planar.Vec2
	box   planar.BBox
}

// NewPoint builds a point geometry at c.
func NewPoint(c planar.Vec2, opts ...GeomOption) (*Point, error) {
	m, err := newMetric(opts)
	if err != nil {
		return nil, err
	}

	return &Point{metric: m, coord: c, box: planar.BBox{Min: c, Max: c}}, nil
}

// Kind reports KindPoint.
func (g *Point) Kind() Kind { return KindPoint }

// Coordinates returns the point location.
func (g *Point) Coordinates() planar.Vec2 { return g.coord }

// SetCoordinates moves the point, refreshing the bounding box.
func (g *Point) SetCoordinates(c planar.Vec2) {
	g.coord = c
	g.box = planar.BBox{Min: c, Max: c}
}

// RepulsionVectors returns p − c per query point.
func (g *Point) RepulsionVectors(pts []planar.Vec2) []planar.Vec2 {
	out := make([]planar.Vec2, len(pts))
	for i, p := range pts {
		out[i] = p.Sub(g.coord)
	}

	return out
}

// RepulsionTensor returns the single-unit candidate stack.
func (g *Point) RepulsionTensor(pts []planar.Vec2) [][]planar.Vec2 {
	return [][]planar.Vec2{g.RepulsionVectors(pts)}
}

// SquaredDist returns ⟨v,v⟩ under the requested form.
func (g *Point) SquaredDist(pts []planar.Vec2, form Form) []float64 {
	return sharedSquaredDist(g, pts, form)
}

// Eval returns exp(−d²).
func (g *Point) Eval(pts []planar.Vec2) []float64 { return sharedEval(g, pts) }

// Gradient returns the field gradient per query point.
func (g *Point) Gradient(pts []planar.Vec2) []planar.Vec2 { return sharedGradient(g, pts) }

// BBoxes returns the degenerate point box.
func (g *Point) BBoxes() []planar.BBox { return []planar.BBox{g.box} }

// CenterPoint returns the point itself.
func (g *Point) CenterPoint() planar.Vec2 { return g.coord }

// InBBox reports whether p coincides with the point box.
func (g *Point) InBBox(p planar.Vec2) bool { return g.box.Contains(p) }

// LineString is a polyline of n ≥ 2 vertices forming n−1 repulsive
// segments.
type LineString struct {
	metric
	coords   []planar.Vec2
	segments [][2]planar.Vec2
	box      planar.BBox
}

// NewLineString builds a polyline geometry. Returns ErrShortLineString
// for fewer than two vertices.
func NewLineString(coords []planar.Vec2, opts ...GeomOption) (*LineString, error) {
	if len(coords) < 2 {
		return nil, ErrShortLineString
	}
	m, err := newMetric(opts)
	if err != nil {
		return nil, err
	}

	g := &LineString{metric: m}
	g.assign(coords)

	return g, nil
}

func (g *LineString) assign(coords []planar.Vec2) {
	g.coords = append([]planar.Vec2(nil), coords...)
	g.segments = make([][2]planar.Vec2, len(coords)-1)
	for i := range g.segments {
		g.segments[i] = [2]planar.Vec2{coords[i], coords[i+1]}
	}
	g.box = planar.BBoxOf(g.coords)
}

// Kind reports KindLineString.
func (g *LineString) Kind() Kind { return KindLineString }

// Coordinates returns the polyline vertices.
func (g *LineString) Coordinates() []planar.Vec2 { return g.coords }

// SetCoordinates replaces the vertices, refreshing segments and the
// bounding box. Returns ErrShortLineString for fewer than two vertices.
func (g *LineString) SetCoordinates(coords []planar.Vec2) error {
	if len(coords) < 2 {
		return ErrShortLineString
	}
	g.assign(coords)

	return nil
}

// RepulsionTensor returns one candidate per segment, segment-major.
func (g *LineString) RepulsionTensor(pts []planar.Vec2) [][]planar.Vec2 {
	out := make([][]planar.Vec2, len(g.segments))
	for s, seg := range g.segments {
		out[s] = segmentRepulsion(pts, seg[0], seg[1])
	}

	return out
}

// RepulsionVectors min-selects across segments under the metric.
func (g *LineString) RepulsionVectors(pts []planar.Vec2) []planar.Vec2 {
	return minSelect(g.RepulsionTensor(pts), g.invRepulsion)
}

// SquaredDist returns ⟨v,v⟩ under the requested form.
func (g *LineString) SquaredDist(pts []planar.Vec2, form Form) []float64 {
	return sharedSquaredDist(g, pts, form)
}

// Eval returns exp(−d²).
func (g *LineString) Eval(pts []planar.Vec2) []float64 { return sharedEval(g, pts) }

// Gradient returns the field gradient per query point.
func (g *LineString) Gradient(pts []planar.Vec2) []planar.Vec2 { return sharedGradient(g, pts) }

// BBoxes returns the tight box around all vertices.
func (g *LineString) BBoxes() []planar.BBox { return []planar.BBox{g.box} }

// CenterPoint returns the midpoint of the vertex extent.
func (g *LineString) CenterPoint() planar.Vec2 { return g.box.Center() }

// InBBox reports whether p lies in the vertex bounding box.
func (g *LineString) InBBox(p planar.Vec2) bool { return g.box.Contains(p) }

// Rectangle is an axis-aligned box given by two opposite corners.
type Rectangle struct {
	metric
	c0, c1  planar.Vec2
	absDiff planar.Vec2
	box     planar.BBox
}

// NewRectangle builds an axis-aligned rectangle geometry.
func NewRectangle(c0, c1 planar.Vec2, opts ...GeomOption) (*Rectangle, error) {
	m, err := newMetric(opts)
	if err != nil {
		return nil, err
	}

	g := &Rectangle{metric: m}
	g.assign(c0, c1)

	return g, nil
}

func (g *Rectangle) assign(c0, c1 planar.Vec2) {
	g.c0, g.c1 = c0, c1
	g.absDiff = planar.Vec2{math.Abs(c0[0] - c1[0]), math.Abs(c0[1] - c1[1])}
	g.box = planar.NewBBox(c0, c1)
}

// Kind reports KindRectangle.
func (g *Rectangle) Kind() Kind { return KindRectangle }

// Coordinates returns the two defining corners.
func (g *Rectangle) Coordinates() (planar.Vec2, planar.Vec2) { return g.c0, g.c1 }

// SetCoordinates replaces the corners, refreshing derived data.
func (g *Rectangle) SetCoordinates(c0, c1 planar.Vec2) { g.assign(c0, c1) }

// rectRepulsion evaluates 0.5·sign(p−c0)⊙(|p−c0| + |p−c1| − |c0−c1|):
// zero inside the rectangle, the outward clamped displacement outside.
func rectRepulsion(pts []planar.Vec2, c0, c1, absDiff planar.Vec2) []planar.Vec2 {
	out := make([]planar.Vec2, len(pts))
	for i, p := range pts {
		for ax := 0; ax < 2; ax++ {
			out[i][ax] = 0.5 * sign(p[ax]-c0[ax]) *
				(math.Abs(p[ax]-c0[ax]) + math.Abs(p[ax]-c1[ax]) - absDiff[ax])
		}
	}

	return out
}

// RepulsionVectors returns the per-coordinate clamped displacement.
func (g *Rectangle) RepulsionVectors(pts []planar.Vec2) []planar.Vec2 {
	return rectRepulsion(pts, g.c0, g.c1, g.absDiff)
}

// RepulsionTensor returns the single-unit candidate stack.
func (g *Rectangle) RepulsionTensor(pts []planar.Vec2) [][]planar.Vec2 {
	return [][]planar.Vec2{g.RepulsionVectors(pts)}
}

// SquaredDist returns ⟨v,v⟩ under the requested form.
func (g *Rectangle) SquaredDist(pts []planar.Vec2, form Form) []float64 {
	return sharedSquaredDist(g, pts, form)
}

// Eval returns exp(−d²).
func (g *Rectangle) Eval(pts []planar.Vec2) []float64 { return sharedEval(g, pts) }

// Gradient returns the field gradient per query point.
func (g *Rectangle) Gradient(pts []planar.Vec2) []planar.Vec2 { return sharedGradient(g, pts) }

// BBoxes returns the rectangle itself.
func (g *Rectangle) BBoxes() []planar.BBox { return []planar.BBox{g.box} }

// CenterPoint returns the rectangle center.
func (g *Rectangle) CenterPoint() planar.Vec2 { return g.box.Center() }

// InBBox reports whether p lies in the rectangle.
func (g *Rectangle) InBBox(p planar.Vec2) bool { return g.box.Contains(p) }

// Ellipse is the set {x : ‖B⁻¹(x−c)‖ ≤ 1} for a symmetric
// positive-definite shape matrix B.
type Ellipse struct {
	metric
	coord    planar.Vec2
	shape    planar.Mat2
	invShape planar.Mat2
	box      planar.BBox
}

// NewEllipse builds an ellipse geometry. The shape matrix must be
// invertible; fails with planar.ErrSingularMatrix otherwise.
func NewEllipse(c planar.Vec2, shape planar.Mat2, opts ...GeomOption) (*Ellipse, error) {
	m, err := newMetric(opts)
	if err != nil {
		return nil, err
	}
	invShape, err := shape.Inverse()
	if err != nil {
		return nil, err
	}

	return &Ellipse{
		metric:   m,
		coord:    c,
		shape:    shape,
		invShape: invShape,
		box:      ellipseBBox(c, shape),
	}, nil
}

// Kind reports KindEllipse.
func (g *Ellipse) Kind() Kind { return KindEllipse }

// Coordinates returns the ellipse center.
func (g *Ellipse) Coordinates() planar.Vec2 { return g.coord }

// Shape returns the shape matrix B.
func (g *Ellipse) Shape() planar.Mat2 { return g.shape }

// SetCoordinates moves the ellipse center, refreshing the bounding box.
func (g *Ellipse) SetCoordinates(c planar.Vec2) {
	g.coord = c
	g.box = ellipseBBox(c, g.shape)
}

// SetShape replaces the shape matrix, recomputing B⁻¹ and the box.
func (g *Ellipse) SetShape(shape planar.Mat2) error {
	invShape, err := shape.Inverse()
	if err != nil {
		return err
	}
	g.shape = shape
	g.invShape = invShape
	g.box = ellipseBBox(g.coord, shape)

	return nil
}

// RepulsionVectors evaluates the ellipse kernel: zero inside, the radial
// overshoot outside.
func (g *Ellipse) RepulsionVectors(pts []planar.Vec2) []planar.Vec2 {
	return ellipseRepulsion(pts, g.coord, g.invShape)
}

// RepulsionTensor returns the single-unit candidate stack.
func (g *Ellipse) RepulsionTensor(pts []planar.Vec2) [][]planar.Vec2 {
	return [][]planar.Vec2{g.RepulsionVectors(pts)}
}

// SquaredDist returns ⟨v,v⟩ under the requested form.
func (g *Ellipse) SquaredDist(pts []planar.Vec2, form Form) []float64 {
	return sharedSquaredDist(g, pts, form)
}

// Eval returns exp(−d²).
func (g *Ellipse) Eval(pts []planar.Vec2) []float64 { return sharedEval(g, pts) }

// Gradient returns the field gradient per query point.
func (g *Ellipse) Gradient(pts []planar.Vec2) []planar.Vec2 { return sharedGradient(g, pts) }

// BBoxes returns the eigen-derived ellipse box.
func (g *Ellipse) BBoxes() []planar.BBox { return []planar.BBox{g.box} }

// CenterPoint returns the ellipse center.
func (g *Ellipse) CenterPoint() planar.Vec2 { return g.coord }

// InBBox reports whether p lies in the ellipse bounding box.
func (g *Ellipse) InBBox(p planar.Vec2) bool { return g.box.Contains(p) }
