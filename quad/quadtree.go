// Package quad discretizes a potential field into an adaptive quadtree
// whose leaf resolution tracks the field gradient.
//
// The plane is subdivided top-down from the field center. At every node
// each still-relevant geometry is classified into a proximity zone by a
// cheap sector approximation; subdivision stops once the sector is small
// enough or every geometry is far enough to ignore. Leaves carry the
// surviving geometry indices and a field-value upper bound, which the
// routing graph turns into traversal costs.
package quad

import (
	"math"
	"sort"

	"github.com/katalvlaran/repfield/field"
	"github.com/katalvlaran/repfield/planar"
)

// QuadTree owns the subdivision of one potential field. Leaves are also
// held in a set for O(1) enumeration and membership.
//
// The tree is not safe for concurrent mutation; Build and the hot-load
// walks must be serialized against readers.
type QuadTree struct {
	// MinSectorSize is the refinement floor; every node's size stays ≥ it.
	MinSectorSize float64
	// MaxSectorSize is the merge ceiling.
	MaxSectorSize float64
	// Conservative enables the stricter leaf predicate. Hot-loading
	// disables it: the incremental walks do not support it.
	Conservative bool

	fld  *field.PotentialField
	size float64

	edgeBounds     []float64 // decreasing thresholds in (0, 1)
	nZones         int
	zonesRadLn     []float64 // ascending −ln(edgeBounds)
	zoneToMaxRange []float64
	zoneToMinRange []float64

	root   *QuadNode
	leaves map[*QuadNode]struct{}
}

// New builds a QuadTree over a field. Without WithSize the root edge
// length is the larger field extent; building (immediately with
// WithBuild, or later via Build) requires the field to be placed.
// Returns ErrNilField, ErrBadEdgeBounds or ErrUnplacedField.
func New(f *field.PotentialField, opts ...Option) (*QuadTree, error) {
	if f == nil {
		return nil, ErrNilField
	}
	cfg := DefaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(cfg.EdgeBounds) == 0 {
		return nil, ErrBadEdgeBounds
	}
	bounds := append([]float64(nil), cfg.EdgeBounds...)
	sort.Sort(sort.Reverse(sort.Float64Slice(bounds)))
	for _, b := range bounds {
		if b <= 0 || b >= 1 {
			return nil, ErrBadEdgeBounds
		}
	}

	size := cfg.Size
	if size == 0 {
		fsize, ok := f.Size()
		if !ok {
			return nil, ErrUnplacedField
		}
		size = math.Max(fsize[0], fsize[1])
	}

	nZones := len(bounds) + 1
	t := &QuadTree{
		MinSectorSize: cfg.MinSectorSize,
		MaxSectorSize: cfg.MaxSectorSize,
		Conservative:  cfg.Conservative,
		fld:           f,
		size:          size,
		edgeBounds:    bounds,
		nZones:        nZones,
		zonesRadLn:    make([]float64, len(bounds)),
		leaves:        make(map[*QuadNode]struct{}),
	}
	for i, b := range bounds {
		t.zonesRadLn[i] = -math.Log(b)
	}
	// zoneToMaxRange[z] and zoneToMinRange[z] bracket the field values a
	// geometry in zone z can take: [1, 1, e₁..e_k] and [e₁, e₁..e_k, 0].
	t.zoneToMaxRange = append([]float64{1.0, 1.0}, bounds...)
	t.zoneToMinRange = append(append([]float64{bounds[0]}, bounds...), 0.0)

	if cfg.Build {
		if err := t.Build(); err != nil {
			return nil, err
		}
	}

	return t, nil
}

// Field returns the underlying potential field.
func (t *QuadTree) Field() *field.PotentialField { return t.fld }

// Size returns the root sector edge length.
func (t *QuadTree) Size() float64 { return t.size }

// EdgeBounds returns the decreasing zone thresholds.
func (t *QuadTree) EdgeBounds() []float64 { return t.edgeBounds }

// NZones returns the index of the "far enough to ignore" zone.
func (t *QuadTree) NZones() int { return t.nZones }

// ZoneMaxRange returns the field-value upper bound of a zone.
func (t *QuadTree) ZoneMaxRange(zone int) float64 { return t.zoneToMaxRange[zone] }

// ZoneMinRange returns the field-value lower bound of a zone.
func (t *QuadTree) ZoneMinRange(zone int) float64 { return t.zoneToMinRange[zone] }

// Root returns the root node, nil before any build.
func (t *QuadTree) Root() *QuadNode { return t.root }

// Leaves returns the current leaf set ordered by center (x, then y), so
// repeated calls — and the per-leaf views built on it — agree on order.
func (t *QuadTree) Leaves() []*QuadNode {
	out := make([]*QuadNode, 0, len(t.leaves))
	for leaf := range t.leaves {
		out = append(out, leaf)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Center[0] != out[j].Center[0] {
			return out[i].Center[0] < out[j].Center[0]
		}

		return out[i].Center[1] < out[j].Center[1]
	})

	return out
}

// HasLeaf reports whether n is in the leaf set.
func (t *QuadTree) HasLeaf(n *QuadNode) bool {
	_, ok := t.leaves[n]

	return ok
}

// LeafCount returns the number of leaves.
func (t *QuadTree) LeafCount() int { return len(t.leaves) }

// MarkLeaf flags n as a leaf and adds it to the leaf set.
func (t *QuadTree) MarkLeaf(n *QuadNode) {
	n.Leaf = true
	t.leaves[n] = struct{}{}
}

// DetachLeaf removes n from the leaf set without touching the node.
func (t *QuadTree) DetachLeaf(n *QuadNode) {
	delete(t.leaves, n)
}

// Build (re)builds the whole tree from the field center.
// Returns ErrUnplacedField when the field has no center point.
// Complexity: O(L·F) field kernel evaluations for L produced nodes over
// filter lists of mean length F.
func (t *QuadTree) Build() error {
	center, ok := t.fld.CenterPoint()
	if !ok {
		return ErrUnplacedField
	}

	t.leaves = make(map[*QuadNode]struct{})
	all := make([]int, t.fld.Len())
	for i := range all {
		all[i] = i
	}
	t.root = t.BuildSubtree(center, t.size, all)

	return nil
}

// digitizeRight returns the smallest index i with x ≤ bins[i], or
// len(bins) otherwise. bins must be ascending.
func digitizeRight(x float64, bins []float64) int {
	for i, b := range bins {
		if x <= b {
			return i
		}
	}

	return len(bins)
}

// approximateZones classifies each filtered geometry against the sector
// (center, size): class 0 when the repulsion vector from the sector
// center reaches inside the inscribed square (⟨v,v⟩ ≤ size²/2), else the
// squared Mahalanobis distance one half-diagonal toward the geometry,
// digitized against the log thresholds, plus one.
//
// Returns the classes along with the center repulsion vectors and their
// per-row reference geometry indices for reuse by the conservative
// predicate.
func (t *QuadTree) approximateZones(center planar.Vec2, size float64, filter []int) ([]int, []planar.Vec2, []int) {
	zones := make([]int, len(filter))
	for i := range zones {
		zones[i] = t.nZones
	}

	repVecs, refIdxs := t.fld.RepulsionVectorsRef([]planar.Vec2{center}, filter)

	var probes []planar.Vec2
	var probeIdxs []int
	var probeRows []int
	halfDiag := size / math.Sqrt2
	for i, v := range repVecs {
		if v.SquaredNorm() <= size*size/2.0 {
			zones[i] = 0

			continue
		}
		probes = append(probes, center.Sub(v.Unit().Scale(halfDiag)))
		probeIdxs = append(probeIdxs, filter[i])
		probeRows = append(probeRows, i)
	}

	if len(probes) > 0 {
		dists, err := t.fld.SquaredDistPer(probes, probeIdxs, field.FormInverse)
		if err == nil {
			for j, d := range dists {
				zones[probeRows[j]] = digitizeRight(d, t.zonesRadLn) + 1
			}
		}
	}

	return zones, repVecs, refIdxs
}

// BuildSubtree builds the subdivision of one sector restricted to the
// given candidate filter list and registers the produced leaves on the
// tree. The hot-loader uses it to rebuild replaced branches in place.
func (t *QuadTree) BuildSubtree(center planar.Vec2, size float64, filter []int) *QuadNode {
	q := NewQuadNode(center, size)

	var zones []int
	var repVecs []planar.Vec2
	var refIdxs []int
	if len(filter) > 0 {
		zones, repVecs, refIdxs = t.approximateZones(center, size, filter)
		q.BoundaryZone = zones[0]
		for _, z := range zones[1:] {
			if z < q.BoundaryZone {
				q.BoundaryZone = z
			}
		}
		for i, z := range zones {
			if z < t.nZones {
				q.RGJIdx = append(q.RGJIdx, filter[i])
				q.RGJZones = append(q.RGJZones, z)
			}
		}
	} else {
		q.BoundaryZone = t.nZones
	}
	q.BoundaryMaxRange = t.zoneToMaxRange[q.BoundaryZone]

	size2 := size / 2.0
	if size <= t.MaxSectorSize {
		if size2 < t.MinSectorSize || q.BoundaryZone == t.nZones {
			// Stop subdividing: the sector is at the floor or every
			// geometry is ignorable here.
			t.MarkLeaf(q)

			return q
		}
		if t.Conservative && q.BoundaryZone > 0 && t.conservativeLeaf(q, zones, repVecs, refIdxs) {
			t.MarkLeaf(q)

			return q
		}
	}

	size4 := size2 / 2.0
	q.Children[ChildTL] = t.BuildSubtree(center.Add(planar.Vec2{-size4, size4}), size2, q.RGJIdx)
	q.Children[ChildTR] = t.BuildSubtree(center.Add(planar.Vec2{size4, size4}), size2, q.RGJIdx)
	q.Children[ChildBL] = t.BuildSubtree(center.Add(planar.Vec2{-size4, -size4}), size2, q.RGJIdx)
	q.Children[ChildBR] = t.BuildSubtree(center.Add(planar.Vec2{size4, -size4}), size2, q.RGJIdx)

	return q
}

// conservativeLeaf applies the stricter predicate: step one half-diagonal
// away from each boundary-zone geometry and keep the sector whole if any
// such corner still evaluates inside the zone.
func (t *QuadTree) conservativeLeaf(q *QuadNode, zones []int, repVecs []planar.Vec2, refIdxs []int) bool {
	lower := t.zoneToMinRange[q.BoundaryZone]
	halfDiag := q.Size / math.Sqrt2

	var probes []planar.Vec2
	var refs []int
	for i, z := range zones {
		if z != q.BoundaryZone {
			continue
		}
		probes = append(probes, q.Center.Add(repVecs[i].Unit().Scale(halfDiag)))
		refs = append(refs, refIdxs[i])
	}
	evals, err := t.fld.EvalPer(probes, refs)
	if err != nil {
		return false
	}
	for _, e := range evals {
		if e >= lower {
			return true
		}
	}

	return false
}

// FindQuads descends from the root for every query point, picking the
// quadrant by the sign of p − center, and returns the containing leaf
// per point (nil entries before any build).
func (t *QuadTree) FindQuads(pts []planar.Vec2) []*QuadNode {
	out := make([]*QuadNode, len(pts))
	for i, p := range pts {
		n := t.root
		for n != nil && !n.Leaf {
			d := p.Sub(n.Center)
			if d[1] >= 0.0 {
				if d[0] >= 0.0 {
					n = n.Children[ChildTR]
				} else {
					n = n.Children[ChildTL]
				}
			} else {
				if d[0] >= 0.0 {
					n = n.Children[ChildBR]
				} else {
					n = n.Children[ChildBL]
				}
			}
		}
		out[i] = n
	}

	return out
}

// SearchLeaves returns the leaves under start (the root when nil) by
// structural descent. Returns ErrMissingChild when an internal node has
// a nil branch, and ErrNotBuilt on an empty tree.
func (t *QuadTree) SearchLeaves(start *QuadNode) ([]*QuadNode, error) {
	if start == nil {
		start = t.root
	}
	if start == nil {
		return nil, ErrNotBuilt
	}

	return searchLeaves(start)
}

func searchLeaves(q *QuadNode) ([]*QuadNode, error) {
	if q.Leaf {
		return []*QuadNode{q}, nil
	}

	var out []*QuadNode
	for _, child := range q.Children {
		if child == nil {
			return nil, ErrMissingChild
		}
		sub, err := searchLeaves(child)
		if err != nil {
			return nil, err
		}
		out = append(out, sub...)
	}

	return out, nil
}

// LeafZones returns the boundary zone of every leaf, order matching
// Leaves.
func (t *QuadTree) LeafZones() []int {
	leaves := t.Leaves()
	out := make([]int, len(leaves))
	for i, leaf := range leaves {
		out[i] = leaf.BoundaryZone
	}

	return out
}

// LeafMaxRanges returns the field-value upper bound of every leaf, order
// matching Leaves.
func (t *QuadTree) LeafMaxRanges() []float64 {
	leaves := t.Leaves()
	out := make([]float64, len(leaves))
	for i, leaf := range leaves {
		out[i] = leaf.BoundaryMaxRange
	}

	return out
}

// QuadImage rasterizes the field restricted to one sector and its
// associated geometries (the root when q is nil). The raster options may
// further tune resolution and margin; center, size and filter come from
// the sector.
func (t *QuadTree) QuadImage(q *QuadNode, opts ...field.RasterOption) ([][]float64, error) {
	if q == nil {
		q = t.root
	}
	if q == nil {
		return nil, ErrNotBuilt
	}
	filter := q.RGJIdx
	if filter == nil {
		// An ignorable sector rasterizes flat: an explicit empty filter
		// keeps it from falling back to the whole field.
		filter = []int{}
	}
	opts = append(opts,
		field.WithRasterCenter(q.Center),
		field.WithRasterSize(planar.Vec2{q.Size, q.Size}),
		field.WithRasterFilter(filter),
	)

	return t.fld.ToImage(opts...)
}

// BoundaryLinesCollection returns the outline of every leaf, shrunk by
// margin, for plotting.
func (t *QuadTree) BoundaryLinesCollection(margin float64) [][]planar.Vec2 {
	leaves := t.Leaves()
	out := make([][]planar.Vec2, len(leaves))
	for i, leaf := range leaves {
		out[i] = leaf.BoundaryLines(margin)
	}

	return out
}
