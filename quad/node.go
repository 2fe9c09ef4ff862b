package quad

import (
	"fmt"

	"github.com/katalvlaran/repfield/planar"
)

// Child slot indices: top-left, top-right, bottom-left, bottom-right.
const (
	ChildTL = iota
	ChildTR
	ChildBL
	ChildBR
)

// Neighbor slot indices for the eight cached direction links.
const (
	NeighborTL = iota
	NeighborT
	NeighborTR
	NeighborR
	NeighborBR
	NeighborB
	NeighborBL
	NeighborL
)

// neighborOffsets maps each neighbor slot to its direction, slot order
// matching the Neighbor constants.
var neighborOffsets = [8]planar.Vec2{
	{-1, 1}, {0, 1}, {1, 1}, {1, 0}, {1, -1}, {0, -1}, {-1, -1}, {-1, 0},
}

// NeighborDirection returns the direction of a neighbor slot with unit
// components.
func NeighborDirection(slot int) planar.Vec2 {
	return neighborOffsets[slot]
}

// QuadNode is one square sector of the subdivision. Children are owning
// links set during build or re-subdivision; Neighbors are non-owning
// cached links filled by the routing graph and cleared on merges.
//
// RGJIdx holds the indices of field geometries still relevant to this
// sector, RGJZones the zone each occupies here; both always form a
// subset of the parent's.
type QuadNode struct {
	Center           planar.Vec2
	Size             float64
	Leaf             bool
	BoundaryZone     int
	BoundaryMaxRange float64
	RGJIdx           []int
	RGJZones         []int
	Children         [4]*QuadNode
	Neighbors        [8]*QuadNode
}

// NewQuadNode returns a fresh internal node covering the square of the
// given edge length around center.
func NewQuadNode(center planar.Vec2, size float64) *QuadNode {
	return &QuadNode{Center: center, Size: size, BoundaryMaxRange: 1.0}
}

// ClearNeighbors drops all cached direction links.
func (q *QuadNode) ClearNeighbors() {
	q.Neighbors = [8]*QuadNode{}
}

// ClearChildren drops the four owning child links.
func (q *QuadNode) ClearChildren() {
	q.Children = [4]*QuadNode{}
}

// HasIndexBelow reports whether any associated geometry index is below
// limit.
func (q *QuadNode) HasIndexBelow(limit int) bool {
	for _, idx := range q.RGJIdx {
		if idx < limit {
			return true
		}
	}

	return false
}

// BoundaryLines returns the closed sector outline shrunk by margin on
// every side, as five points (the first repeated last).
func (q *QuadNode) BoundaryLines(margin float64) []planar.Vec2 {
	s2 := q.Size/2.0 - margin
	offsets := [5]planar.Vec2{{-1, 1}, {1, 1}, {1, -1}, {-1, -1}, {-1, 1}}

	path := make([]planar.Vec2, len(offsets))
	for i, off := range offsets {
		path[i] = q.Center.Add(off.Scale(s2))
	}

	return path
}

// String identifies the sector by center and edge length.
func (q *QuadNode) String() string {
	return fmt.Sprintf("Qd(%v, %g)", q.Center, q.Size)
}
