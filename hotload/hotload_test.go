package hotload_test

import (
	"sort"
	"testing"

	"github.com/katalvlaran/repfield/field"
	"github.com/katalvlaran/repfield/hotload"
	"github.com/katalvlaran/repfield/network"
	"github.com/katalvlaran/repfield/planar"
	"github.com/katalvlaran/repfield/quad"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wellAt builds a point well with the given isotropic metric weight.
func wellAt(t *testing.T, x, y, weight float64) *field.Point {
	t.Helper()
	g, err := field.NewPoint(planar.V(x, y), field.WithRepulsion(planar.Diag(weight, weight)))
	require.NoError(t, err)

	return g
}

// triple assembles a built (field, tree, network, loader) stack over the
// given wells.
func triple(t *testing.T, geoms []field.Geometry, size, minSector float64) (*field.PotentialField, *quad.QuadTree, *network.Network, *hotload.HotLoader) {
	t.Helper()
	f := field.NewPotentialField(geoms,
		field.WithCenterPoint(planar.V(55, 55)),
		field.WithScalarSize(size),
	)
	tree, err := quad.New(f,
		quad.WithMinSectorSize(minSector),
		quad.WithEdgeBounds([]float64{0.2, 0.4, 0.6}),
		quad.WithBuild(),
	)
	require.NoError(t, err)
	net, err := network.New(tree, network.WithBuild())
	require.NoError(t, err)
	loader, err := hotload.New(f, tree, net)
	require.NoError(t, err)

	return f, tree, net, loader
}

// sortedInts returns a sorted copy for order-free comparison; nil and
// empty inputs compare equal.
func sortedInts(in []int) []int {
	out := make([]int, 0, len(in))
	out = append(out, in...)
	sort.Ints(out)

	return out
}

// assertSameSubdivision compares two trees structurally: geometry of
// every sector, leaf flags, boundary zones and index sets.
func assertSameSubdivision(t *testing.T, want, got *quad.QuadNode) {
	t.Helper()
	if want == nil || got == nil {
		require.Equal(t, want == nil, got == nil, "structure mismatch")

		return
	}
	require.Equal(t, want.Center, got.Center)
	require.Equal(t, want.Size, got.Size)
	assert.Equal(t, want.Leaf, got.Leaf, "leaf flag at %s", want)
	assert.Equal(t, want.BoundaryZone, got.BoundaryZone, "boundary zone at %s", want)
	assert.Equal(t, sortedInts(want.RGJIdx), sortedInts(got.RGJIdx), "index set at %s", want)
	for i := range want.Children {
		assertSameSubdivision(t, want.Children[i], got.Children[i])
	}
}

// checkInvariants re-validates the structural contracts on a mutated
// tree: subset filter lists, monotone zones, clean ignorable leaves,
// and nil children under leaves.
func checkInvariants(t *testing.T, tree *quad.QuadTree, q *quad.QuadNode) {
	t.Helper()
	if q == nil {
		return
	}
	if q.BoundaryZone == tree.NZones() && q.Leaf {
		assert.Empty(t, q.RGJIdx, "%s: ignorable leaf with indices", q)
	}
	if q.Leaf {
		for _, child := range q.Children {
			assert.Nil(t, child, "%s: leaf with a child", q)
		}

		return
	}
	parentSet := make(map[int]struct{}, len(q.RGJIdx))
	for _, idx := range q.RGJIdx {
		parentSet[idx] = struct{}{}
	}
	for _, child := range q.Children {
		require.NotNil(t, child, "%s: internal node with nil child", q)
		assert.GreaterOrEqual(t, child.BoundaryZone, q.BoundaryZone, "%s: zone below parent", child)
		for _, idx := range child.RGJIdx {
			_, ok := parentSet[idx]
			assert.True(t, ok, "%s: index %d missing from parent", child, idx)
		}
		checkInvariants(t, tree, child)
	}
}

// checkFieldIndexSpace verifies invariant 7: every index on every node
// addresses a live geometry.
func checkFieldIndexSpace(t *testing.T, f *field.PotentialField, q *quad.QuadNode) {
	t.Helper()
	if q == nil {
		return
	}
	for _, idx := range q.RGJIdx {
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, f.Len(), "%s: stale index %d", q, idx)
	}
	for _, child := range q.Children {
		checkFieldIndexSpace(t, f, child)
	}
}

// TestHotLoader_AddThenRemoveRestoresTree inserts a central well into
// the two-well field and immediately removes it: the resulting tree must
// equal the one built without any insertion — leaf set, per-leaf index
// sets and boundary zones.
func TestHotLoader_AddThenRemoveRestoresTree(t *testing.T) {
	twoWells := func() []field.Geometry {
		return []field.Geometry{wellAt(t, 50, 50, 5), wellAt(t, 60, 60, 5)}
	}

	_, baseline, _, _ := triple(t, twoWells(), 50, 5)
	f, tree, _, loader := triple(t, twoWells(), 50, 5)

	idx, err := loader.AddGeometry(wellAt(t, 55, 55, 10))
	require.NoError(t, err)
	assert.Equal(t, 2, idx)
	require.Equal(t, 3, f.Len())

	require.NoError(t, loader.Remove(idx))
	require.Equal(t, 2, f.Len())

	assertSameSubdivision(t, baseline.Root(), tree.Root())
	assert.Equal(t, baseline.LeafCount(), tree.LeafCount())

	searched, err := tree.SearchLeaves(nil)
	require.NoError(t, err)
	assert.Equal(t, tree.LeafCount(), len(searched))
	for _, leaf := range searched {
		assert.True(t, tree.HasLeaf(leaf))
	}
}

// TestHotLoader_AddKeepsInvariants inserts a wide central well into the
// four-corner field and checks that subset and zone monotonicity hold at
// every node afterwards.
func TestHotLoader_AddKeepsInvariants(t *testing.T) {
	corners := []field.Geometry{
		wellAt(t, 50, 50, 5), wellAt(t, 60, 60, 5),
		wellAt(t, 60, 50, 5), wellAt(t, 50, 60, 5),
	}
	f, tree, _, loader := triple(t, corners, 40, 5)

	idx, err := loader.AddGeometry(wellAt(t, 55, 55, 25))
	require.NoError(t, err)
	assert.Equal(t, 4, idx)

	checkInvariants(t, tree, tree.Root())
	checkFieldIndexSpace(t, f, tree.Root())
}

// TestHotLoader_AddLeafChildren verifies that after an insertion every
// leaf — in the set and by search — has four nil children and the two
// views agree.
func TestHotLoader_AddLeafChildren(t *testing.T) {
	corners := []field.Geometry{
		wellAt(t, 50, 50, 5), wellAt(t, 60, 60, 5),
		wellAt(t, 60, 50, 5), wellAt(t, 50, 60, 5),
	}
	_, tree, _, loader := triple(t, corners, 40, 5)

	_, err := loader.AddGeometry(wellAt(t, 55, 55, 25))
	require.NoError(t, err)

	for _, leaf := range tree.Leaves() {
		for _, child := range leaf.Children {
			assert.Nil(t, child, "%s in the leaf set has a child", leaf)
		}
	}
	searched, err := tree.SearchLeaves(nil)
	require.NoError(t, err)
	require.Equal(t, tree.LeafCount(), len(searched))
	for _, leaf := range searched {
		assert.True(t, tree.HasLeaf(leaf), "%s found by search but missing from the set", leaf)
		for _, child := range leaf.Children {
			assert.Nil(t, child)
		}
	}
}

// TestHotLoader_RemoveKeepsInvariants removes two of five wells from a
// finely subdivided field and checks invariants, index renumbering and
// the leaf bookkeeping.
func TestHotLoader_RemoveKeepsInvariants(t *testing.T) {
	five := []field.Geometry{
		wellAt(t, 50, 50, 5), wellAt(t, 60, 60, 5),
		wellAt(t, 60, 50, 5), wellAt(t, 50, 60, 5),
		wellAt(t, 55, 55, 25),
	}
	f, tree, _, loader := triple(t, five, 40, 0.5)

	require.NoError(t, loader.Remove(2, 3))
	require.Equal(t, 3, f.Len())

	checkInvariants(t, tree, tree.Root())
	checkFieldIndexSpace(t, f, tree.Root())

	searched, err := tree.SearchLeaves(nil)
	require.NoError(t, err)
	assert.Equal(t, tree.LeafCount(), len(searched))
	for _, leaf := range searched {
		assert.True(t, tree.HasLeaf(leaf))
		for _, child := range leaf.Children {
			assert.Nil(t, child)
		}
	}
}

// TestHotLoader_RemoveValidation verifies removal guards.
func TestHotLoader_RemoveValidation(t *testing.T) {
	_, _, _, loader := triple(t, []field.Geometry{wellAt(t, 50, 50, 5), wellAt(t, 60, 60, 5)}, 50, 5)

	assert.ErrorIs(t, loader.Remove(), hotload.ErrEmptyRemoval)
	assert.ErrorIs(t, loader.Remove(7), hotload.ErrIndexRange)
}

// TestHotLoader_New verifies construction guards and that the tree's
// conservative predicate is switched off.
func TestHotLoader_New(t *testing.T) {
	f, tree, net, _ := triple(t, []field.Geometry{wellAt(t, 50, 50, 5), wellAt(t, 60, 60, 5)}, 50, 5)

	_, err := hotload.New(nil, tree, net)
	assert.ErrorIs(t, err, hotload.ErrNilComponent)
	_, err = hotload.New(f, nil, net)
	assert.ErrorIs(t, err, hotload.ErrNilComponent)
	_, err = hotload.New(f, tree, nil)
	assert.ErrorIs(t, err, hotload.ErrNilComponent)

	tree.Conservative = true
	_, err = hotload.New(f, tree, net)
	require.NoError(t, err)
	assert.False(t, tree.Conservative, "hot-loading must disable conservatism")
}

// TestHotLoader_AddFieldIndices verifies that a bulk insertion returns
// the contiguous block of assigned indices.
func TestHotLoader_AddFieldIndices(t *testing.T) {
	f, tree, _, loader := triple(t, []field.Geometry{wellAt(t, 50, 50, 5), wellAt(t, 60, 60, 5)}, 50, 5)

	extra := field.NewPotentialField([]field.Geometry{
		wellAt(t, 45, 45, 5), wellAt(t, 65, 65, 5),
	})
	idxs, err := loader.AddField(extra)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, idxs)
	assert.Equal(t, 4, f.Len())

	checkInvariants(t, tree, tree.Root())
	checkFieldIndexSpace(t, f, tree.Root())
}
