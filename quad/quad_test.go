package quad_test

import (
	"bytes"
	"math"
	"testing"

	"github.com/katalvlaran/repfield/field"
	"github.com/katalvlaran/repfield/planar"
	"github.com/katalvlaran/repfield/quad"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testField builds the two-well field pinned at (55,55) with size 50
// used throughout the quadtree suite.
func testField(t *testing.T) *field.PotentialField {
	t.Helper()
	var geoms []field.Geometry
	for _, c := range []planar.Vec2{{50, 50}, {60, 60}} {
		g, err := field.NewPoint(c, field.WithRepulsion(planar.Diag(5, 5)))
		require.NoError(t, err)
		geoms = append(geoms, g)
	}

	return field.NewPotentialField(geoms,
		field.WithCenterPoint(planar.V(55, 55)),
		field.WithScalarSize(50),
	)
}

func buildTree(t *testing.T, f *field.PotentialField, opts ...quad.Option) *quad.QuadTree {
	t.Helper()
	opts = append([]quad.Option{
		quad.WithMinSectorSize(5),
		quad.WithEdgeBounds([]float64{0.2, 0.4, 0.6}),
		quad.WithBuild(),
	}, opts...)
	tree, err := quad.New(f, opts...)
	require.NoError(t, err)

	return tree
}

// checkTreeInvariants walks the whole tree checking the structural
// contracts: child filter lists are subsets of the parent's, child zones
// never fall below the parent's, ignorable leaves carry no indices, and
// leaves have four nil children.
func checkTreeInvariants(t *testing.T, tree *quad.QuadTree, q *quad.QuadNode) {
	t.Helper()
	if q == nil {
		return
	}
	if q.BoundaryZone == tree.NZones() {
		assert.Empty(t, q.RGJIdx, "%s: ignorable sector with indices", q)
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
		require.NotNil(t, child, "%s: internal node with a nil child", q)
		assert.GreaterOrEqual(t, child.BoundaryZone, q.BoundaryZone,
			"%s: child zone below parent", child)
		for _, idx := range child.RGJIdx {
			_, ok := parentSet[idx]
			assert.True(t, ok, "%s: child index %d not in parent", child, idx)
		}
		checkTreeInvariants(t, tree, child)
	}
}

// TestQuadTree_BuildInvariants builds the canonical tree and checks the
// structural invariants plus the leaf-set bookkeeping.
func TestQuadTree_BuildInvariants(t *testing.T) {
	tree := buildTree(t, testField(t))
	require.NotNil(t, tree.Root())

	checkTreeInvariants(t, tree, tree.Root())

	searched, err := tree.SearchLeaves(nil)
	require.NoError(t, err)
	assert.Equal(t, tree.LeafCount(), len(searched))
	for _, leaf := range searched {
		assert.True(t, tree.HasLeaf(leaf), "%s found by search but not in the set", leaf)
		assert.True(t, leaf.Leaf)
	}
}

// TestQuadTree_ZoneTables verifies the derived zone tables for bounds
// (0.6, 0.4, 0.2): four zones, log thresholds ascending, and the
// max/min range brackets.
func TestQuadTree_ZoneTables(t *testing.T) {
	tree := buildTree(t, testField(t))

	assert.Equal(t, 4, tree.NZones())
	assert.Equal(t, []float64{0.6, 0.4, 0.2}, tree.EdgeBounds())

	assert.Equal(t, 1.0, tree.ZoneMaxRange(0))
	assert.Equal(t, 1.0, tree.ZoneMaxRange(1))
	assert.Equal(t, 0.6, tree.ZoneMaxRange(2))
	assert.Equal(t, 0.2, tree.ZoneMaxRange(4))

	assert.Equal(t, 0.6, tree.ZoneMinRange(0))
	assert.Equal(t, 0.6, tree.ZoneMinRange(1))
	assert.Equal(t, 0.0, tree.ZoneMinRange(4))
}

// TestQuadTree_BadEdgeBounds verifies construction guards.
func TestQuadTree_BadEdgeBounds(t *testing.T) {
	f := testField(t)

	_, err := quad.New(f, quad.WithEdgeBounds(nil))
	assert.ErrorIs(t, err, quad.ErrBadEdgeBounds)

	_, err = quad.New(f, quad.WithEdgeBounds([]float64{0.5, 1.2}))
	assert.ErrorIs(t, err, quad.ErrBadEdgeBounds)

	_, err = quad.New(nil)
	assert.ErrorIs(t, err, quad.ErrNilField)
}

// TestQuadTree_MinSectorFloor verifies that no node is subdivided below
// the refinement floor.
func TestQuadTree_MinSectorFloor(t *testing.T) {
	tree := buildTree(t, testField(t))

	var walk func(q *quad.QuadNode)
	walk = func(q *quad.QuadNode) {
		if q == nil {
			return
		}
		assert.GreaterOrEqual(t, q.Size, tree.MinSectorSize)
		for _, child := range q.Children {
			walk(child)
		}
	}
	walk(tree.Root())
}

// TestQuadTree_FindQuads verifies the sign-quadrant descent: each point
// resolves to a leaf whose sector contains it.
func TestQuadTree_FindQuads(t *testing.T) {
	tree := buildTree(t, testField(t))

	pts := []planar.Vec2{{50, 50}, {60, 60}, {55, 55}, {40, 70}}
	leaves := tree.FindQuads(pts)
	require.Len(t, leaves, len(pts))
	for i, leaf := range leaves {
		require.NotNil(t, leaf)
		assert.True(t, leaf.Leaf)
		half := leaf.Size / 2.0
		assert.LessOrEqual(t, math.Abs(pts[i][0]-leaf.Center[0]), half, "point %d x", i)
		assert.LessOrEqual(t, math.Abs(pts[i][1]-leaf.Center[1]), half, "point %d y", i)
	}
}

// TestQuadTree_ZoneOrdering verifies that leaves right on a well sit in
// zone 0 and leaves far from both wells are ignorable.
func TestQuadTree_ZoneOrdering(t *testing.T) {
	tree := buildTree(t, testField(t))

	at := tree.FindQuads([]planar.Vec2{{50, 50}, {33, 77}})
	assert.Equal(t, 0, at[0].BoundaryZone, "leaf on the well")
	assert.Equal(t, tree.NZones(), at[1].BoundaryZone, "leaf in the far corner")
	assert.Empty(t, at[1].RGJIdx)
	assert.Equal(t, tree.ZoneMaxRange(tree.NZones()), at[1].BoundaryMaxRange)
}

// TestQuadTree_Conservative verifies that the stricter predicate never
// yields a finer tree and keeps the invariants.
func TestQuadTree_Conservative(t *testing.T) {
	plain := buildTree(t, testField(t))
	conservative := buildTree(t, testField(t), quad.WithConservative())

	assert.LessOrEqual(t, conservative.LeafCount(), plain.LeafCount())
	checkTreeInvariants(t, conservative, conservative.Root())
}

// TestQuadTree_LeafScalars verifies the per-leaf scalar views used by
// the router.
func TestQuadTree_LeafScalars(t *testing.T) {
	tree := buildTree(t, testField(t))

	zones := tree.LeafZones()
	ranges := tree.LeafMaxRanges()
	require.Equal(t, tree.LeafCount(), len(zones))
	require.Equal(t, tree.LeafCount(), len(ranges))
	for i, z := range zones {
		assert.Equal(t, tree.ZoneMaxRange(z), ranges[i])
	}
}

// TestQuadTree_SnapshotRoundTrip persists the tree to a binary snapshot
// and restores it, checking structure, zone data and the leaf set.
func TestQuadTree_SnapshotRoundTrip(t *testing.T) {
	tree := buildTree(t, testField(t))

	var buf bytes.Buffer
	require.NoError(t, tree.EncodeSnapshot(&buf))

	back, err := quad.DecodeSnapshot(&buf)
	require.NoError(t, err)

	assert.Equal(t, tree.LeafCount(), back.LeafCount())
	assert.Equal(t, tree.NZones(), back.NZones())
	assert.Equal(t, tree.Size(), back.Size())
	assert.Equal(t, tree.Field().Len(), back.Field().Len())
	assertSameTree(t, tree.Root(), back.Root())
	checkTreeInvariants(t, back, back.Root())
}

// assertSameTree compares two subdivisions node by node.
func assertSameTree(t *testing.T, a, b *quad.QuadNode) {
	t.Helper()
	if a == nil || b == nil {
		require.Equal(t, a == nil, b == nil)

		return
	}
	assert.Equal(t, a.Center, b.Center)
	assert.Equal(t, a.Size, b.Size)
	assert.Equal(t, a.Leaf, b.Leaf)
	assert.Equal(t, a.BoundaryZone, b.BoundaryZone)
	assert.Equal(t, a.RGJIdx, b.RGJIdx)
	assert.Equal(t, a.RGJZones, b.RGJZones)
	for i := range a.Children {
		assertSameTree(t, a.Children[i], b.Children[i])
	}
}

// TestQuadTree_QuadImage verifies per-sector rasterization: a sector on
// a well renders bright, an ignorable sector renders flat zero.
func TestQuadTree_QuadImage(t *testing.T) {
	tree := buildTree(t, testField(t))
	at := tree.FindQuads([]planar.Vec2{{50, 50}, {33, 77}})

	img, err := tree.QuadImage(at[0], field.WithResolution(8))
	require.NoError(t, err)
	best := 0.0
	for _, row := range img {
		for _, v := range row {
			best = math.Max(best, v)
		}
	}
	assert.Greater(t, best, 0.5, "sector on the well renders bright")

	flat, err := tree.QuadImage(at[1], field.WithResolution(8))
	require.NoError(t, err)
	for _, row := range flat {
		for _, v := range row {
			assert.Zero(t, v, "ignorable sector renders flat")
		}
	}
}

// TestQuadNode_BoundaryLines verifies the closed leaf outline.
func TestQuadNode_BoundaryLines(t *testing.T) {
	n := quad.NewQuadNode(planar.V(0, 0), 4)
	path := n.BoundaryLines(0.5)
	require.Len(t, path, 5)
	assert.Equal(t, path[0], path[4], "outline closes")
	assert.Equal(t, planar.V(-1.5, 1.5), path[0])
}
