package field

import (
	"math"

	"github.com/katalvlaran/repfield/planar"
)

// MultiPoint is a union of repulsive locations sharing one metric.
type MultiPoint struct {
	metric
	coords []planar.Vec2
	boxes  []planar.BBox
}

// NewMultiPoint builds a multi-point geometry. Returns ErrEmptyGeometry
// for an empty point set.
func NewMultiPoint(coords []planar.Vec2, opts ...GeomOption) (*MultiPoint, error) {
	if len(coords) == 0 {
		return nil, ErrEmptyGeometry
	}
	m, err := newMetric(opts)
	if err != nil {
		return nil, err
	}

	g := &MultiPoint{metric: m}
	g.assign(coords)

	return g, nil
}

func (g *MultiPoint) assign(coords []planar.Vec2) {
	g.coords = append([]planar.Vec2(nil), coords...)
	g.boxes = make([]planar.BBox, len(coords))
	for i, c := range coords {
		g.boxes[i] = planar.BBox{Min: c, Max: c}
	}
}

// Kind reports KindMultiPoint.
func (g *MultiPoint) Kind() Kind { return KindMultiPoint }

// Coordinates returns the stored points.
func (g *MultiPoint) Coordinates() []planar.Vec2 { return g.coords }

// SetCoordinates replaces the point set. Returns ErrEmptyGeometry for an
// empty set.
func (g *MultiPoint) SetCoordinates(coords []planar.Vec2) error {
	if len(coords) == 0 {
		return ErrEmptyGeometry
	}
	g.assign(coords)

	return nil
}

// RepulsionTensor returns one candidate stack per stored point.
func (g *MultiPoint) RepulsionTensor(pts []planar.Vec2) [][]planar.Vec2 {
	out := make([][]planar.Vec2, len(g.coords))
	for u, c := range g.coords {
		vs := make([]planar.Vec2, len(pts))
		for i, p := range pts {
			vs[i] = p.Sub(c)
		}
		out[u] = vs
	}

	return out
}

// RepulsionVectors min-selects p − cⱼ across stored points.
func (g *MultiPoint) RepulsionVectors(pts []planar.Vec2) []planar.Vec2 {
	return minSelect(g.RepulsionTensor(pts), g.invRepulsion)
}

// SquaredDist returns ⟨v,v⟩ under the requested form.
func (g *MultiPoint) SquaredDist(pts []planar.Vec2, form Form) []float64 {
	return sharedSquaredDist(g, pts, form)
}

// Eval returns exp(−d²).
func (g *MultiPoint) Eval(pts []planar.Vec2) []float64 { return sharedEval(g, pts) }

// Gradient returns the field gradient per query point.
func (g *MultiPoint) Gradient(pts []planar.Vec2) []planar.Vec2 { return sharedGradient(g, pts) }

// BBoxes returns one degenerate box per stored point.
func (g *MultiPoint) BBoxes() []planar.BBox { return g.boxes }

// CenterPoint returns the midpoint of the point extent.
func (g *MultiPoint) CenterPoint() planar.Vec2 { return planar.BBoxOf(g.coords).Center() }

// InBBox reports whether p exactly matches a stored point. The exact
// semantics make it a cheap pre-filter rather than a containment test.
func (g *MultiPoint) InBBox(p planar.Vec2) bool {
	for _, c := range g.coords {
		if c == p {
			return true
		}
	}

	return false
}

// MultiLineString is a union of polylines sharing one metric.
type MultiLineString struct {
	metric
	lines    [][]planar.Vec2
	segments [][2]planar.Vec2
	boxes    []planar.BBox
}

// NewMultiLineString builds a multi-polyline geometry. Returns
// ErrEmptyGeometry for an empty set and ErrShortLineString when any
// member polyline has fewer than two vertices.
func NewMultiLineString(lines [][]planar.Vec2, opts ...GeomOption) (*MultiLineString, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyGeometry
	}
	for _, line := range lines {
		if len(line) < 2 {
			return nil, ErrShortLineString
		}
	}
	m, err := newMetric(opts)
	if err != nil {
		return nil, err
	}

	g := &MultiLineString{metric: m}
	g.assign(lines)

	return g, nil
}

func (g *MultiLineString) assign(lines [][]planar.Vec2) {
	g.lines = make([][]planar.Vec2, len(lines))
	g.segments = g.segments[:0]
	g.boxes = make([]planar.BBox, len(lines))
	for li, line := range lines {
		g.lines[li] = append([]planar.Vec2(nil), line...)
		for i := 0; i+1 < len(line); i++ {
			g.segments = append(g.segments, [2]planar.Vec2{line[i], line[i+1]})
		}
		g.boxes[li] = planar.BBoxOf(line)
	}
}

// Kind reports KindMultiLineString.
func (g *MultiLineString) Kind() Kind { return KindMultiLineString }

// Coordinates returns the stored polylines.
func (g *MultiLineString) Coordinates() [][]planar.Vec2 { return g.lines }

// SetCoordinates replaces the polylines, refreshing segments and boxes.
func (g *MultiLineString) SetCoordinates(lines [][]planar.Vec2) error {
	if len(lines) == 0 {
		return ErrEmptyGeometry
	}
	for _, line := range lines {
		if len(line) < 2 {
			return ErrShortLineString
		}
	}
	g.assign(lines)

	return nil
}

// RepulsionTensor returns one candidate per segment across all member
// polylines, segment-major.
func (g *MultiLineString) RepulsionTensor(pts []planar.Vec2) [][]planar.Vec2 {
	out := make([][]planar.Vec2, len(g.segments))
	for s, seg := range g.segments {
		out[s] = segmentRepulsion(pts, seg[0], seg[1])
	}

	return out
}

// RepulsionVectors min-selects across all segments under the metric.
func (g *MultiLineString) RepulsionVectors(pts []planar.Vec2) []planar.Vec2 {
	return minSelect(g.RepulsionTensor(pts), g.invRepulsion)
}

// SquaredDist returns ⟨v,v⟩ under the requested form.
func (g *MultiLineString) SquaredDist(pts []planar.Vec2, form Form) []float64 {
	return sharedSquaredDist(g, pts, form)
}

// Eval returns exp(−d²).
func (g *MultiLineString) Eval(pts []planar.Vec2) []float64 { return sharedEval(g, pts) }

// Gradient returns the field gradient per query point.
func (g *MultiLineString) Gradient(pts []planar.Vec2) []planar.Vec2 { return sharedGradient(g, pts) }

// BBoxes returns one box per member polyline.
func (g *MultiLineString) BBoxes() []planar.BBox { return g.boxes }

// CenterPoint returns the midpoint of the extent over all vertices.
func (g *MultiLineString) CenterPoint() planar.Vec2 {
	box := g.boxes[0]
	for _, b := range g.boxes[1:] {
		box = box.Union(b)
	}

	return box.Center()
}

// InBBox reports whether p lies inside any member polyline box.
func (g *MultiLineString) InBBox(p planar.Vec2) bool { return anyBoxContains(g.boxes, p) }

// MultiRectangle is a union of axis-aligned rectangles sharing one
// metric. Each rectangle is given by two opposite corners.
type MultiRectangle struct {
	metric
	rects    [][2]planar.Vec2
	absDiffs []planar.Vec2
	boxes    []planar.BBox
}

// NewMultiRectangle builds a multi-rectangle geometry. Returns
// ErrEmptyGeometry for an empty set.
func NewMultiRectangle(rects [][2]planar.Vec2, opts ...GeomOption) (*MultiRectangle, error) {
	if len(rects) == 0 {
		return nil, ErrEmptyGeometry
	}
	m, err := newMetric(opts)
	if err != nil {
		return nil, err
	}

	g := &MultiRectangle{metric: m}
	g.assign(rects)

	return g, nil
}

func (g *MultiRectangle) assign(rects [][2]planar.Vec2) {
	g.rects = append([][2]planar.Vec2(nil), rects...)
	g.absDiffs = make([]planar.Vec2, len(rects))
	g.boxes = make([]planar.BBox, len(rects))
	for i, r := range rects {
		g.absDiffs[i] = planar.Vec2{math.Abs(r[0][0] - r[1][0]), math.Abs(r[0][1] - r[1][1])}
		g.boxes[i] = planar.NewBBox(r[0], r[1])
	}
}

// Kind reports KindMultiRectangle.
func (g *MultiRectangle) Kind() Kind { return KindMultiRectangle }

// Coordinates returns the stored corner pairs.
func (g *MultiRectangle) Coordinates() [][2]planar.Vec2 { return g.rects }

// SetCoordinates replaces the rectangles, refreshing derived data.
func (g *MultiRectangle) SetCoordinates(rects [][2]planar.Vec2) error {
	if len(rects) == 0 {
		return ErrEmptyGeometry
	}
	g.assign(rects)

	return nil
}

// RepulsionTensor returns one candidate stack per member rectangle.
func (g *MultiRectangle) RepulsionTensor(pts []planar.Vec2) [][]planar.Vec2 {
	out := make([][]planar.Vec2, len(g.rects))
	for u, r := range g.rects {
		out[u] = rectRepulsion(pts, r[0], r[1], g.absDiffs[u])
	}

	return out
}

// RepulsionVectors min-selects across member rectangles under the metric.
func (g *MultiRectangle) RepulsionVectors(pts []planar.Vec2) []planar.Vec2 {
	return minSelect(g.RepulsionTensor(pts), g.invRepulsion)
}

// SquaredDist returns ⟨v,v⟩ under the requested form.
func (g *MultiRectangle) SquaredDist(pts []planar.Vec2, form Form) []float64 {
	return sharedSquaredDist(g, pts, form)
}

// Eval returns exp(−d²).
func (g *MultiRectangle) Eval(pts []planar.Vec2) []float64 { return sharedEval(g, pts) }

// Gradient returns the field gradient per query point.
func (g *MultiRectangle) Gradient(pts []planar.Vec2) []planar.Vec2 { return sharedGradient(g, pts) }

// BBoxes returns one box per member rectangle.
func (g *MultiRectangle) BBoxes() []planar.BBox { return g.boxes }

// CenterPoint returns the midpoint of the extent over all corners.
func (g *MultiRectangle) CenterPoint() planar.Vec2 {
	box := g.boxes[0]
	for _, b := range g.boxes[1:] {
		box = box.Union(b)
	}

	return box.Center()
}

// InBBox reports whether p lies inside any member rectangle.
func (g *MultiRectangle) InBBox(p planar.Vec2) bool { return anyBoxContains(g.boxes, p) }

// MultiEllipse is a union of ellipses sharing one metric, each with its
// own shape matrix.
type MultiEllipse struct {
	metric
	centers   []planar.Vec2
	shapes    []planar.Mat2
	invShapes []planar.Mat2
	boxes     []planar.BBox
}

// NewMultiEllipse builds a multi-ellipse geometry. Returns
// ErrEmptyGeometry for an empty set, ErrShapeMismatch when centers and
// shapes differ in count, and planar.ErrSingularMatrix for any
// non-invertible shape.
func NewMultiEllipse(centers []planar.Vec2, shapes []planar.Mat2, opts ...GeomOption) (*MultiEllipse, error) {
	if len(centers) == 0 {
		return nil, ErrEmptyGeometry
	}
	if len(centers) != len(shapes) {
		return nil, ErrShapeMismatch
	}
	m, err := newMetric(opts)
	if err != nil {
		return nil, err
	}

	g := &MultiEllipse{metric: m}
	if err = g.assign(centers, shapes); err != nil {
		return nil, err
	}

	return g, nil
}

func (g *MultiEllipse) assign(centers []planar.Vec2, shapes []planar.Mat2) error {
	invShapes := make([]planar.Mat2, len(shapes))
	boxes := make([]planar.BBox, len(shapes))
	for i, s := range shapes {
		inv, err := s.Inverse()
		if err != nil {
			return err
		}
		invShapes[i] = inv
		boxes[i] = ellipseBBox(centers[i], s)
	}
	g.centers = append([]planar.Vec2(nil), centers...)
	g.shapes = append([]planar.Mat2(nil), shapes...)
	g.invShapes = invShapes
	g.boxes = boxes

	return nil
}

// Kind reports KindMultiEllipse.
func (g *MultiEllipse) Kind() Kind { return KindMultiEllipse }

// Coordinates returns the ellipse centers.
func (g *MultiEllipse) Coordinates() []planar.Vec2 { return g.centers }

// Shapes returns the per-ellipse shape matrices.
func (g *MultiEllipse) Shapes() []planar.Mat2 { return g.shapes }

// SetCoordinates replaces centers and shapes together, refreshing the
// inverses and boxes.
func (g *MultiEllipse) SetCoordinates(centers []planar.Vec2, shapes []planar.Mat2) error {
	if len(centers) == 0 {
		return ErrEmptyGeometry
	}
	if len(centers) != len(shapes) {
		return ErrShapeMismatch
	}

	return g.assign(centers, shapes)
}

// RepulsionTensor returns one candidate stack per member ellipse.
func (g *MultiEllipse) RepulsionTensor(pts []planar.Vec2) [][]planar.Vec2 {
	out := make([][]planar.Vec2, len(g.centers))
	for u := range g.centers {
		out[u] = ellipseRepulsion(pts, g.centers[u], g.invShapes[u])
	}

	return out
}

// RepulsionVectors min-selects across member ellipses under the metric.
func (g *MultiEllipse) RepulsionVectors(pts []planar.Vec2) []planar.Vec2 {
	return minSelect(g.RepulsionTensor(pts), g.invRepulsion)
}

// SquaredDist returns ⟨v,v⟩ under the requested form.
func (g *MultiEllipse) SquaredDist(pts []planar.Vec2, form Form) []float64 {
	return sharedSquaredDist(g, pts, form)
}

// Eval returns exp(−d²).
func (g *MultiEllipse) Eval(pts []planar.Vec2) []float64 { return sharedEval(g, pts) }

// Gradient returns the field gradient per query point.
func (g *MultiEllipse) Gradient(pts []planar.Vec2) []planar.Vec2 { return sharedGradient(g, pts) }

// BBoxes returns one eigen-derived box per member ellipse.
func (g *MultiEllipse) BBoxes() []planar.BBox { return g.boxes }

// CenterPoint returns the midpoint of the center extent.
func (g *MultiEllipse) CenterPoint() planar.Vec2 { return planar.BBoxOf(g.centers).Center() }

// InBBox reports whether p lies inside any member ellipse box.
func (g *MultiEllipse) InBBox(p planar.Vec2) bool { return anyBoxContains(g.boxes, p) }
