package field

import (
	"math"
	"sort"

	"github.com/katalvlaran/repfield/planar"
)

// PotentialField is an ordered collection of geometries whose indices are
// stable identifiers shared with the quadtree and the routing graph. The
// aggregate field value at a point is the maximum over member wells; the
// aggregate squared distance is the minimum.
//
// The field is not safe for concurrent mutation; callers must serialize
// Add/Del against readers.
type PotentialField struct {
	rgjs []Geometry

	centerPoint  planar.Vec2
	hasCenter    bool
	size         planar.Vec2
	hasSize      bool
	reloadCenter bool

	bbox    planar.BBox
	hasBBox bool
}

// FieldOption configures a PotentialField at construction.
type FieldOption func(*PotentialField)

// WithCenterPoint pins the field center, disabling auto-derivation on
// later insertions.
func WithCenterPoint(c planar.Vec2) FieldOption {
	return func(f *PotentialField) {
		f.centerPoint = c
		f.hasCenter = true
	}
}

// WithSize pins the field extent (full widths along x and y).
func WithSize(size planar.Vec2) FieldOption {
	return func(f *PotentialField) {
		f.size = size
		f.hasSize = true
	}
}

// WithScalarSize pins a square field extent.
func WithScalarSize(size float64) FieldOption {
	return func(f *PotentialField) {
		f.size = planar.Vec2{size, size}
		f.hasSize = true
	}
}

// NewPotentialField builds a field over the given geometries. When no
// center is supplied it is derived from the union bounding box and kept
// up to date on insertions; when no size is supplied it is derived as
// twice the maximum distance from the center to any bbox corner.
func NewPotentialField(rgjs []Geometry, opts ...FieldOption) *PotentialField {
	f := &PotentialField{}
	for _, opt := range opts {
		opt(f)
	}

	f.rgjs = append(f.rgjs, rgjs...)

	if !f.hasCenter {
		f.reloadCenter = true
		if len(f.rgjs) > 0 {
			center, suggest := f.deriveCenter()
			f.centerPoint, f.hasCenter = center, true
			if !f.hasSize {
				f.size, f.hasSize = planar.Vec2{suggest, suggest}, true
			}
		}
	} else if len(f.rgjs) > 0 {
		f.reloadBBox()
		if !f.hasSize {
			s := 0.0
			for _, corner := range [2]planar.Vec2{f.bbox.Min, f.bbox.Max} {
				s = math.Max(s, math.Abs(corner[0]-f.centerPoint[0]))
				s = math.Max(s, math.Abs(corner[1]-f.centerPoint[1]))
			}
			f.size, f.hasSize = planar.Vec2{s * 2, s * 2}, true
		}
	}

	return f
}

// Len returns the number of geometries in the field.
func (f *PotentialField) Len() int { return len(f.rgjs) }

// At returns the geometry at index i.
func (f *PotentialField) At(i int) (Geometry, error) {
	if i < 0 || i >= len(f.rgjs) {
		return nil, ErrIndexRange
	}

	return f.rgjs[i], nil
}

// Geometries returns the member geometries in index order. The slice is
// shared; callers must not reorder it.
func (f *PotentialField) Geometries() []Geometry { return f.rgjs }

// CenterPoint returns the field center and whether one has been set or
// derived.
func (f *PotentialField) CenterPoint() (planar.Vec2, bool) { return f.centerPoint, f.hasCenter }

// SetCenterPoint pins the center and disables auto-derivation.
func (f *PotentialField) SetCenterPoint(c planar.Vec2) {
	f.centerPoint, f.hasCenter = c, true
	f.reloadCenter = false
}

// Size returns the field extent and whether one has been set or derived.
func (f *PotentialField) Size() (planar.Vec2, bool) { return f.size, f.hasSize }

// SetSize pins the field extent.
func (f *PotentialField) SetSize(size planar.Vec2) { f.size, f.hasSize = size, true }

// deriveCenter recomputes the union bbox midpoint and the suggested
// square extent (twice the maximum coordinate distance from the center to
// the bbox maximum corner).
func (f *PotentialField) deriveCenter() (planar.Vec2, float64) {
	f.reloadBBox()
	center := f.bbox.Center()
	suggest := 2 * math.Max(f.bbox.Max[0]-center[0], f.bbox.Max[1]-center[1])

	return center, suggest
}

// reloadBBox recomputes the union bounding box over all member
// sub-unit boxes.
func (f *PotentialField) reloadBBox() {
	f.hasBBox = len(f.rgjs) > 0
	if !f.hasBBox {
		return
	}
	box := f.rgjs[0].BBoxes()[0]
	for _, g := range f.rgjs {
		for _, b := range g.BBoxes() {
			box = box.Union(b)
		}
	}
	f.bbox = box
}

// BBox returns the union bounding box over all member geometries.
func (f *PotentialField) BBox() (planar.BBox, bool) {
	f.reloadBBox()

	return f.bbox, f.hasBBox
}

// ReloadCenterPoint toggles center auto-derivation and, when enabled on a
// non-empty field, recomputes the center immediately — optionally the
// size as well.
func (f *PotentialField) ReloadCenterPoint(toggle, recalcSize bool) (planar.Vec2, bool) {
	f.reloadCenter = toggle
	if toggle && len(f.rgjs) > 0 {
		center, suggest := f.deriveCenter()
		f.centerPoint, f.hasCenter = center, true
		if recalcSize {
			f.size, f.hasSize = planar.Vec2{suggest, suggest}, true
		}
	}

	return f.centerPoint, f.hasCenter
}

// Extent returns [xmin, xmax, ymin, ymax] of the field area grown by
// margin on every side. Fails when the field has no center or size.
func (f *PotentialField) Extent(margin float64) ([4]float64, error) {
	if !f.hasCenter {
		return [4]float64{}, ErrNoCenterPoint
	}
	if !f.hasSize {
		return [4]float64{}, ErrNoSize
	}
	s2 := f.size.Scale(0.5)

	return [4]float64{
		f.centerPoint[0] - s2[0] - margin,
		f.centerPoint[0] + s2[0] + margin,
		f.centerPoint[1] - s2[1] - margin,
		f.centerPoint[1] + s2[1] + margin,
	}, nil
}

// Add appends a geometry, assigning it the next index. When the center
// auto-reloads it is re-derived from the grown bounding box.
func (f *PotentialField) Add(g Geometry) int {
	f.rgjs = append(f.rgjs, g)
	if f.reloadCenter {
		center, _ := f.deriveCenter()
		f.centerPoint, f.hasCenter = center, true
	}

	return len(f.rgjs) - 1
}

// Del removes the geometries at the given indices. Duplicates are
// ignored; removal happens in descending order so surviving geometries
// keep their relative order and earlier indices stay valid during the
// sweep. Returns ErrIndexRange when any index is out of range.
func (f *PotentialField) Del(idxs ...int) error {
	uniq := uniqueSorted(idxs)
	for _, idx := range uniq {
		if idx < 0 || idx >= len(f.rgjs) {
			return ErrIndexRange
		}
	}
	for i := len(uniq) - 1; i >= 0; i-- {
		idx := uniq[i]
		f.rgjs = append(f.rgjs[:idx], f.rgjs[idx+1:]...)
	}
	if f.reloadCenter && len(f.rgjs) > 0 {
		center, _ := f.deriveCenter()
		f.centerPoint, f.hasCenter = center, true
	}

	return nil
}

// uniqueSorted returns the distinct values of idxs in ascending order.
func uniqueSorted(idxs []int) []int {
	seen := make(map[int]struct{}, len(idxs))
	out := make([]int, 0, len(idxs))
	for _, idx := range idxs {
		if _, ok := seen[idx]; ok {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, idx)
	}
	sort.Ints(out)

	return out
}

// SetAllRepulsion rewrites the repulsion metric of every member geometry.
func (f *PotentialField) SetAllRepulsion(a planar.Mat2) error {
	for _, g := range f.rgjs {
		if err := g.SetRepulsion(a); err != nil {
			return err
		}
	}

	return nil
}

// InBBox reports whether any member geometry's bbox pre-filter claims p.
func (f *PotentialField) InBBox(p planar.Vec2) bool {
	for _, g := range f.rgjs {
		if g.InBBox(p) {
			return true
		}
	}

	return false
}

// FindBBox returns the indices of geometries whose bbox pre-filter claims
// p.
func (f *PotentialField) FindBBox(p planar.Vec2) []int {
	var out []int
	for i, g := range f.rgjs {
		if g.InBBox(p) {
			out = append(out, i)
		}
	}

	return out
}

// selected resolves a filter to concrete indices: nil means all.
func (f *PotentialField) selected(filter []int) []int {
	if filter != nil {
		return filter
	}
	all := make([]int, len(f.rgjs))
	for i := range all {
		all[i] = i
	}

	return all
}

// Eval returns, per query point, the elementwise maximum of the member
// field values — the outer envelope of the obstacle union. An empty
// field (or empty filter) evaluates to zero everywhere.
func (f *PotentialField) Eval(pts []planar.Vec2, filter []int) []float64 {
	idxs := f.selected(filter)
	out := make([]float64, len(pts))
	if len(idxs) == 0 {
		return out
	}
	for i := range out {
		out[i] = math.Inf(-1)
	}
	for _, idx := range idxs {
		ev := f.rgjs[idx].Eval(pts)
		for i, e := range ev {
			if e > out[i] {
				out[i] = e
			}
		}
	}

	return out
}

// squaredDistList returns the per-geometry squared distances,
// geometry-major over the filter.
func (f *PotentialField) squaredDistList(pts []planar.Vec2, filter []int, form Form) [][]float64 {
	idxs := f.selected(filter)
	out := make([][]float64, len(idxs))
	for i, idx := range idxs {
		out[i] = f.rgjs[idx].SquaredDist(pts, form)
	}

	return out
}

// SquaredDist returns, per query point, the elementwise minimum squared
// distance across the (filtered) members. An empty field yields +Inf —
// the documented sentinel, not an error.
func (f *PotentialField) SquaredDist(pts []planar.Vec2, filter []int, form Form) []float64 {
	dd, _ := f.SquaredDistRef(pts, filter, form)

	return dd
}

// SquaredDistRef is SquaredDist plus, per query point, the argmin
// geometry index (−1 on an empty field).
func (f *PotentialField) SquaredDistRef(pts []planar.Vec2, filter []int, form Form) ([]float64, []int) {
	dists := make([]float64, len(pts))
	refs := make([]int, len(pts))
	for i := range dists {
		dists[i] = math.Inf(1)
		refs[i] = -1
	}
	if len(f.rgjs) == 0 {
		return dists, refs
	}
	for _, idx := range f.selected(filter) {
		dd := f.rgjs[idx].SquaredDist(pts, form)
		for i, d := range dd {
			if d < dists[i] {
				dists[i] = d
				refs[i] = idx
			}
		}
	}

	return dists, refs
}

// RepulsionVectors concatenates the min-selected repulsion vectors of the
// (filtered) members: the first len(pts) rows belong to the first
// filtered geometry, and so on. An empty field yields +Inf vectors.
func (f *PotentialField) RepulsionVectors(pts []planar.Vec2, filter []int) []planar.Vec2 {
	vs, _ := f.RepulsionVectorsRef(pts, filter)

	return vs
}

// RepulsionVectorsRef is RepulsionVectors plus, per output row, the index
// of the geometry that produced it.
func (f *PotentialField) RepulsionVectorsRef(pts []planar.Vec2, filter []int) ([]planar.Vec2, []int) {
	if len(f.rgjs) == 0 {
		vs := make([]planar.Vec2, len(pts))
		refs := make([]int, len(pts))
		for i := range vs {
			vs[i] = planar.Vec2{math.Inf(1), math.Inf(1)}
			refs[i] = -1
		}

		return vs, refs
	}

	idxs := f.selected(filter)
	vs := make([]planar.Vec2, 0, len(idxs)*len(pts))
	refs := make([]int, 0, len(idxs)*len(pts))
	for _, idx := range idxs {
		for _, v := range f.rgjs[idx].RepulsionVectors(pts) {
			vs = append(vs, v)
			refs = append(refs, idx)
		}
	}

	return vs, refs
}

// RepulsionTensors concatenates the unselected candidate stacks of the
// (filtered) members, unit-major across geometries.
func (f *PotentialField) RepulsionTensors(pts []planar.Vec2, filter []int) [][]planar.Vec2 {
	var out [][]planar.Vec2
	for _, idx := range f.selected(filter) {
		out = append(out, f.rgjs[idx].RepulsionTensor(pts)...)
	}

	return out
}

// Gradient returns, per query point, the gradient of the dominant
// (argmin-distance) geometry: only the well forming the outer envelope
// contributes to its subgradient. An empty field yields zeros.
func (f *PotentialField) Gradient(pts []planar.Vec2) []planar.Vec2 {
	out := make([]planar.Vec2, len(pts))
	if len(f.rgjs) == 0 {
		return out
	}
	_, refs := f.SquaredDistRef(pts, nil, FormInverse)

	// Group query points by their dominant geometry so each kernel runs
	// one batch.
	groups := make(map[int][]int)
	for i, ref := range refs {
		groups[ref] = append(groups[ref], i)
	}
	for ref, rows := range groups {
		sub := make([]planar.Vec2, len(rows))
		for j, row := range rows {
			sub[j] = pts[row]
		}
		grads := f.rgjs[ref].Gradient(sub)
		for j, row := range rows {
			out[row] = grads[j]
		}
	}

	return out
}

// SquaredDistPer evaluates each query point against exactly the geometry
// named by idxs[i]. Lengths must match: ErrLengthMismatch otherwise. On
// an empty field with no indices the +Inf sentinel is returned for every
// point.
func (f *PotentialField) SquaredDistPer(pts []planar.Vec2, idxs []int, form Form) ([]float64, error) {
	if len(f.rgjs) == 0 && len(idxs) == 0 {
		out := make([]float64, len(pts))
		for i := range out {
			out[i] = math.Inf(1)
		}

		return out, nil
	}
	if len(pts) != len(idxs) {
		return nil, ErrLengthMismatch
	}

	return f.perGeometry(pts, idxs, func(g Geometry, sub []planar.Vec2) []float64 {
		return g.SquaredDist(sub, form)
	})
}

// EvalPer evaluates each query point against exactly the geometry named
// by idxs[i]. Lengths must match: ErrLengthMismatch otherwise. On an
// empty field with no indices every point evaluates to zero.
func (f *PotentialField) EvalPer(pts []planar.Vec2, idxs []int) ([]float64, error) {
	if len(f.rgjs) == 0 && len(idxs) == 0 {
		return make([]float64, len(pts)), nil
	}
	if len(pts) != len(idxs) {
		return nil, ErrLengthMismatch
	}

	return f.perGeometry(pts, idxs, func(g Geometry, sub []planar.Vec2) []float64 {
		return g.Eval(sub)
	})
}

// perGeometry groups points by target geometry and evaluates each group
// as one batch.
func (f *PotentialField) perGeometry(pts []planar.Vec2, idxs []int, eval func(Geometry, []planar.Vec2) []float64) ([]float64, error) {
	groups := make(map[int][]int)
	for i, idx := range idxs {
		if idx < 0 || idx >= len(f.rgjs) {
			return nil, ErrIndexRange
		}
		groups[idx] = append(groups[idx], i)
	}

	out := make([]float64, len(pts))
	for idx, rows := range groups {
		sub := make([]planar.Vec2, len(rows))
		for j, row := range rows {
			sub[j] = pts[row]
		}
		vals := eval(f.rgjs[idx], sub)
		for j, row := range rows {
			out[row] = vals[j]
		}
	}

	return out, nil
}

// ScaleTransform remaps field values before route integration; nil means
// identity.
type ScaleTransform func(float64) float64

// EstimateRouteArea integrates scale(Eval) along a polyline as a Riemann
// sum over equally spaced samples.
func (f *PotentialField) EstimateRouteArea(route []planar.Vec2, scale ScaleTransform, opts ...planar.SampleOption) (float64, error) {
	evals, step, err := f.sampleRoute(route, scale, opts)
	if err != nil {
		return 0, err
	}
	sum := 0.0
	for _, e := range evals {
		sum += e
	}

	return sum * step, nil
}

// EstimateRouteHighestPotential returns the maximum of scale(Eval) over
// equally spaced samples along a polyline. The default spacing is 1e-2.
func (f *PotentialField) EstimateRouteHighestPotential(route []planar.Vec2, scale ScaleTransform, opts ...planar.SampleOption) (float64, error) {
	opts = append([]planar.SampleOption{planar.WithStep(1e-2)}, opts...)
	evals, _, err := f.sampleRoute(route, scale, opts)
	if err != nil {
		return 0, err
	}
	best := math.Inf(-1)
	for _, e := range evals {
		best = math.Max(best, e)
	}

	return best, nil
}

// sampleRoute interpolates the route and evaluates the (scaled) field at
// the samples. With an explicit sample count the trailing endpoint is
// dropped so the Riemann sum stays left-sided.
func (f *PotentialField) sampleRoute(route []planar.Vec2, scale ScaleTransform, opts []planar.SampleOption) ([]float64, float64, error) {
	pts, step, _, err := planar.InterpolateAlongRoute(route, opts...)
	if err != nil {
		return nil, 0, err
	}
	cfg := planar.DefaultSampleOptions()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.N > 0 && len(pts) > 0 {
		pts = pts[:len(pts)-1]
	}

	evals := f.Eval(pts, nil)
	if scale != nil {
		for i, e := range evals {
			evals[i] = scale(e)
		}
	}

	return evals, step, nil
}
