// Package hotload mutates a live (field, quadtree, routing graph) triple
// in place: geometries are inserted or removed and only the affected
// sectors are re-subdivided or merged, instead of rebuilding the tree.
//
// Both mutation paths disable the tree's conservative predicate — the
// incremental walks do not support it. Dirtied leaves are staged in two
// sets during the structural walk and applied to the routing graph only
// after the walk completes, so a failure partway never leaves the graph
// half-updated.
package hotload

import (
	"sort"

	"github.com/katalvlaran/repfield/field"
	"github.com/katalvlaran/repfield/quad"
)

// HotLoader owns the coherence of one field, its quadtree and the
// routing graph derived from the tree's leaves. It is the only component
// allowed to mutate all three together.
type HotLoader struct {
	fld   *field.PotentialField
	tree  *quad.QuadTree
	graph RoutingGraph
}

// New builds a hot-loader over an already-built triple, disabling the
// tree's conservative predicate. Returns ErrNilComponent when any part
// is missing.
func New(f *field.PotentialField, t *quad.QuadTree, g RoutingGraph) (*HotLoader, error) {
	if f == nil || t == nil || g == nil {
		return nil, ErrNilComponent
	}
	t.Conservative = false

	return &HotLoader{fld: f, tree: t, graph: g}, nil
}

// tempTree builds a throwaway quadtree over extra, anchored at the host
// tree's center and size with the host's refinement floor and zone
// thresholds. The host's merge ceiling is intentionally not carried: the
// temporary tree subdivides from the full root sector.
func (hl *HotLoader) tempTree(extra *field.PotentialField) (*quad.QuadTree, error) {
	center, ok := hl.fld.CenterPoint()
	if !ok {
		return nil, quad.ErrUnplacedField
	}
	size, ok := hl.fld.Size()
	if !ok {
		return nil, quad.ErrUnplacedField
	}
	extra.SetCenterPoint(center)
	extra.SetSize(size)

	return quad.New(extra,
		quad.WithMinSectorSize(hl.tree.MinSectorSize),
		quad.WithEdgeBounds(hl.tree.EdgeBounds()),
		quad.WithSize(hl.tree.Size()),
		quad.WithBuild(),
	)
}

// AddGeometry inserts a single geometry and returns its field index.
func (hl *HotLoader) AddGeometry(g field.Geometry) (int, error) {
	idxs, err := hl.AddField(field.NewPotentialField([]field.Geometry{g}))
	if err != nil {
		return 0, err
	}

	return idxs[0], nil
}

// AddField inserts every geometry of extra into the host field and
// merges a temporary quadtree built over them into the host tree,
// re-subdividing only where the new wells demand finer leaves. The
// argument's center and size are overwritten with the host's.
//
// When the host root is itself a leaf shallower than the temporary tree
// the root keeps its depth, matching the in-place walk's contract that
// replacement is handled by the parent.
//
// Returns the indices assigned to the inserted geometries.
func (hl *HotLoader) AddField(extra *field.PotentialField) ([]int, error) {
	hl.tree.Conservative = false
	if hl.tree.Root() == nil {
		return nil, quad.ErrNotBuilt
	}

	tmp, err := hl.tempTree(extra)
	if err != nil {
		return nil, err
	}

	nOriginal := hl.fld.Len()
	for _, g := range extra.Geometries() {
		hl.fld.Add(g)
	}
	shiftIndices(tmp.Root(), nOriginal)

	w := &mergeWalk{
		hl:        hl,
		nOriginal: nOriginal,
		dirtyOld:  make(map[*quad.QuadNode]struct{}),
		dirtyNew:  make(map[*quad.QuadNode]struct{}),
	}
	w.update(hl.tree.Root(), tmp.Root())
	hl.finalize(w.dirtyOld, w.dirtyNew)

	idxs := make([]int, hl.fld.Len()-nOriginal)
	for i := range idxs {
		idxs[i] = nOriginal + i
	}

	return idxs, nil
}

// shiftIndices rewrites a temporary tree's geometry indices into the
// host field's index space.
func shiftIndices(q *quad.QuadNode, offset int) {
	if q == nil {
		return
	}
	for i := range q.RGJIdx {
		q.RGJIdx[i] += offset
	}
	for _, child := range q.Children {
		shiftIndices(child, offset)
	}
}

// mergeWalk carries the state of one AddField traversal.
type mergeWalk struct {
	hl        *HotLoader
	nOriginal int
	dirtyOld  map[*quad.QuadNode]struct{}
	dirtyNew  map[*quad.QuadNode]struct{}
}

// update merges the temporary node into the host node and reports
// whether the caller must replace the host branch (host leaf shallower
// than the temporary subdivision).
func (w *mergeWalk) update(root, tmp *quad.QuadNode) bool {
	tree := w.hl.tree

	// Nothing relevant under this sector of the temporary tree.
	if tmp == nil || tmp.BoundaryZone == tree.NZones() {
		return false
	}

	if tmp.BoundaryZone < root.BoundaryZone {
		root.BoundaryZone = tmp.BoundaryZone
	}
	root.RGJIdx = append(root.RGJIdx, tmp.RGJIdx...)
	root.RGJZones = append(root.RGJZones, tmp.RGJZones...)

	if root.Leaf && !tmp.Leaf {
		return true
	}

	for ci := range root.Children {
		if !w.update(root.Children[ci], tmp.Children[ci]) {
			continue
		}
		child := root.Children[ci]

		oldLeaves, _ := tree.SearchLeaves(child)
		for _, leaf := range oldLeaves {
			tree.DetachLeaf(leaf)
			w.dirtyOld[leaf] = struct{}{}
		}

		if child.HasIndexBelow(w.nOriginal) {
			// The branch still serves host geometries: rebuild it locally
			// over the merged filter list.
			rebuilt := tree.BuildSubtree(child.Center, child.Size, child.RGJIdx)
			root.Children[ci] = rebuilt
			newLeaves, _ := tree.SearchLeaves(rebuilt)
			for _, leaf := range newLeaves {
				w.dirtyNew[leaf] = struct{}{}
			}
		} else {
			// Only inserted geometries here: splice the temporary branch.
			root.Children[ci] = tmp.Children[ci]
			newLeaves, _ := tree.SearchLeaves(tmp.Children[ci])
			for _, leaf := range newLeaves {
				tree.MarkLeaf(leaf)
				w.dirtyNew[leaf] = struct{}{}
			}
		}
	}

	return false
}

// Remove deletes the geometries at the given indices from the field,
// rewrites every surviving node's index lists, and merges sectors whose
// geometries all became ignorable. Duplicated indices are collapsed.
func (hl *HotLoader) Remove(idxs ...int) error {
	hl.tree.Conservative = false
	if hl.tree.Root() == nil {
		return quad.ErrNotBuilt
	}

	uniq := uniqueSorted(idxs)
	if len(uniq) == 0 {
		return ErrEmptyRemoval
	}
	removed := make([]field.Geometry, len(uniq))
	for i, idx := range uniq {
		g, err := hl.fld.At(idx)
		if err != nil {
			return ErrIndexRange
		}
		removed[i] = g
	}

	// The temporary tree over only the removed geometries covers exactly
	// the sectors they influenced.
	tmp, err := hl.tempTree(field.NewPotentialField(removed))
	if err != nil {
		return err
	}

	if err = hl.fld.Del(uniq...); err != nil {
		return err
	}

	w := &removeWalk{
		hl:         hl,
		removed:    uniq,
		removedSet: make(map[int]struct{}, len(uniq)),
		minIdx:     uniq[0],
		dirtyOld:   make(map[*quad.QuadNode]struct{}),
		dirtyNew:   make(map[*quad.QuadNode]struct{}),
	}
	for _, idx := range uniq {
		w.removedSet[idx] = struct{}{}
	}
	w.update(hl.tree.Root(), tmp.Root())
	hl.finalize(w.dirtyOld, w.dirtyNew)

	return nil
}

// removeWalk carries the state of one Remove traversal.
type removeWalk struct {
	hl         *HotLoader
	removed    []int // ascending
	removedSet map[int]struct{}
	minIdx     int
	dirtyOld   map[*quad.QuadNode]struct{}
	dirtyNew   map[*quad.QuadNode]struct{}
}

// countBelow returns how many removed indices are smaller than idx.
func (w *removeWalk) countBelow(idx int) int {
	n := 0
	for _, r := range w.removed {
		if r >= idx {
			break
		}
		n++
	}

	return n
}

// rewriteIndices drops entries equal to a removed index and decrements
// entries above one; the boundary zone is recomputed whenever an entry
// was dropped.
func (w *removeWalk) rewriteIndices(q *quad.QuadNode) {
	kept := q.RGJIdx[:0]
	keptZones := q.RGJZones[:0]
	dropped := false
	for j, idx := range q.RGJIdx {
		if _, ok := w.removedSet[idx]; ok {
			dropped = true

			continue
		}
		kept = append(kept, idx-w.countBelow(idx))
		keptZones = append(keptZones, q.RGJZones[j])
	}
	q.RGJIdx, q.RGJZones = kept, keptZones
	if dropped {
		q.BoundaryZone = w.minZone(q.RGJZones)
	}
}

// minZone returns the minimum of zones, or the ignorable zone when the
// list is empty.
func (w *removeWalk) minZone(zones []int) int {
	if len(zones) == 0 {
		return w.hl.tree.NZones()
	}
	minz := zones[0]
	for _, z := range zones[1:] {
		if z < minz {
			minz = z
		}
	}

	return minz
}

// rewriteSubtree sweeps stale indices in a host subtree that has no
// delete-tree counterpart. Subtrees whose every index is below the
// smallest removed one need no rewrite.
func (w *removeWalk) rewriteSubtree(q *quad.QuadNode) {
	if q == nil || len(q.RGJIdx) == 0 {
		return
	}
	below := true
	for _, idx := range q.RGJIdx {
		if idx >= w.minIdx {
			below = false

			break
		}
	}
	if below {
		return
	}

	w.rewriteIndices(q)
	for _, child := range q.Children {
		w.rewriteSubtree(child)
	}
}

// update walks host and delete-tree in lockstep and reports whether the
// host node is mergeable (a leaf whose geometries all became ignorable,
// or a node just merged into one).
func (w *removeWalk) update(root, del *quad.QuadNode) bool {
	tree := w.hl.tree

	if del == nil || root == nil {
		w.rewriteSubtree(root)

		return false
	}

	// Drop the removed indices from this node.
	kept := root.RGJIdx[:0]
	keptZones := root.RGJZones[:0]
	for j, idx := range root.RGJIdx {
		if _, ok := w.removedSet[idx]; ok {
			continue
		}
		kept = append(kept, idx)
		keptZones = append(keptZones, root.RGJZones[j])
	}
	root.RGJIdx, root.RGJZones = kept, keptZones

	if del.BoundaryZone == root.BoundaryZone {
		root.BoundaryZone = w.minZone(root.RGJZones)
	} else if len(root.RGJIdx) == 0 {
		root.BoundaryZone = tree.NZones()
	}

	// Decrement the survivors into the renumbered index space. No removed
	// entries remain here, so the boundary zone is untouched.
	w.rewriteIndices(root)

	if root.Leaf && root.BoundaryZone == tree.NZones() {
		return true
	}

	// Walk every child — no short-circuit, each subtree must renumber.
	mergeable := true
	for ci := range root.Children {
		if !w.update(root.Children[ci], del.Children[ci]) {
			mergeable = false
		}
	}
	if !mergeable {
		return false
	}

	// The redundant parent-zone requirement is intentional: merge only
	// when the four children and the parent all sit in the ignorable
	// zone and the merged sector stays within the ceiling.
	if root.Size > tree.MaxSectorSize || root.BoundaryZone != tree.NZones() {
		return false
	}
	for _, child := range root.Children {
		if child == nil || child.BoundaryZone != tree.NZones() {
			return false
		}
	}

	oldLeaves, _ := tree.SearchLeaves(root)
	for _, leaf := range oldLeaves {
		tree.DetachLeaf(leaf)
		w.dirtyOld[leaf] = struct{}{}
	}
	root.ClearChildren()
	root.ClearNeighbors()
	tree.MarkLeaf(root)
	w.dirtyNew[root] = struct{}{}

	return true
}

// finalize applies the staged dirty sets to the routing graph: removed
// leaves leave the graph, neighbor caches are refilled, and adjacency is
// rebuilt for the new leaves without overwriting pre-existing directed
// edges.
func (hl *HotLoader) finalize(dirtyOld, dirtyNew map[*quad.QuadNode]struct{}) {
	for n := range dirtyOld {
		hl.graph.Remove(n)
	}
	hl.graph.FillShallowNeighbors()

	nodes := make([]*quad.QuadNode, 0, len(dirtyNew))
	for n := range dirtyNew {
		nodes = append(nodes, n)
	}
	hl.graph.BuildGraph(nodes, false)
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
