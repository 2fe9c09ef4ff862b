package quad

import (
	"encoding/gob"
	"fmt"
	"io"

	"github.com/katalvlaran/repfield/field"
	"github.com/katalvlaran/repfield/planar"
)

// Snapshot is the persisted form of a quadtree: the RGeoJSON-encoded
// field, every construction parameter with its derived zone tables, and
// the recursive node record.
type Snapshot struct {
	Field          []byte
	MinSectorSize  float64
	MaxSectorSize  float64
	Size           float64
	EdgeBounds     []float64
	NZones         int
	ZonesRadLn     []float64
	ZoneToMaxRange []float64
	ZoneToMinRange []float64
	Conservative   bool
	Root           *NodeSnapshot
}

// NodeSnapshot mirrors one QuadNode. Children is empty for a node without
// children and otherwise holds all four child records in slot order; a
// node with only some children set cannot be encoded. Cached neighbor
// links are not persisted — the routing graph refills them.
type NodeSnapshot struct {
	Center           planar.Vec2
	Size             float64
	Leaf             bool
	BoundaryZone     int
	BoundaryMaxRange float64
	RGJIdx           []int
	RGJZones         []int
	Children         []*NodeSnapshot
}

// Snapshot captures the tree and its field.
func (t *QuadTree) Snapshot() (*Snapshot, error) {
	encoded, err := t.fld.MarshalGeoJSON(false)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Field:          encoded,
		MinSectorSize:  t.MinSectorSize,
		MaxSectorSize:  t.MaxSectorSize,
		Size:           t.size,
		EdgeBounds:     t.edgeBounds,
		NZones:         t.nZones,
		ZonesRadLn:     t.zonesRadLn,
		ZoneToMaxRange: t.zoneToMaxRange,
		ZoneToMinRange: t.zoneToMinRange,
		Conservative:   t.Conservative,
		Root:           snapshotNode(t.root),
	}, nil
}

func snapshotNode(q *QuadNode) *NodeSnapshot {
	if q == nil {
		return nil
	}
	s := &NodeSnapshot{
		Center:           q.Center,
		Size:             q.Size,
		Leaf:             q.Leaf,
		BoundaryZone:     q.BoundaryZone,
		BoundaryMaxRange: q.BoundaryMaxRange,
		RGJIdx:           append([]int(nil), q.RGJIdx...),
		RGJZones:         append([]int(nil), q.RGJZones...),
	}
	if q.Children != ([4]*QuadNode{}) {
		s.Children = make([]*NodeSnapshot, len(q.Children))
		for i, child := range q.Children {
			s.Children[i] = snapshotNode(child)
		}
	}

	return s
}

// FromSnapshot rebuilds a tree — field included — from a snapshot.
func FromSnapshot(s *Snapshot) (*QuadTree, error) {
	fld, err := field.UnmarshalGeoJSON(s.Field)
	if err != nil {
		return nil, err
	}

	t := &QuadTree{
		MinSectorSize:  s.MinSectorSize,
		MaxSectorSize:  s.MaxSectorSize,
		Conservative:   s.Conservative,
		fld:            fld,
		size:           s.Size,
		edgeBounds:     s.EdgeBounds,
		nZones:         s.NZones,
		zonesRadLn:     s.ZonesRadLn,
		zoneToMaxRange: s.ZoneToMaxRange,
		zoneToMinRange: s.ZoneToMinRange,
		leaves:         make(map[*QuadNode]struct{}),
	}
	t.root = restoreNode(s.Root)

	if t.root != nil {
		leaves, err := t.SearchLeaves(nil)
		if err != nil {
			return nil, err
		}
		for _, leaf := range leaves {
			t.leaves[leaf] = struct{}{}
		}
	}

	return t, nil
}

func restoreNode(s *NodeSnapshot) *QuadNode {
	if s == nil {
		return nil
	}
	q := &QuadNode{
		Center:           s.Center,
		Size:             s.Size,
		Leaf:             s.Leaf,
		BoundaryZone:     s.BoundaryZone,
		BoundaryMaxRange: s.BoundaryMaxRange,
		RGJIdx:           append([]int(nil), s.RGJIdx...),
		RGJZones:         append([]int(nil), s.RGJZones...),
	}
	for i, child := range s.Children {
		q.Children[i] = restoreNode(child)
	}

	return q
}

// EncodeSnapshot writes the binary snapshot to w.
func (t *QuadTree) EncodeSnapshot(w io.Writer) error {
	snap, err := t.Snapshot()
	if err != nil {
		return err
	}
	if err = gob.NewEncoder(w).Encode(snap); err != nil {
		return fmt.Errorf("quad: encoding snapshot: %w", err)
	}

	return nil
}

// DecodeSnapshot reads a binary snapshot from r and rebuilds the tree.
func DecodeSnapshot(r io.Reader) (*QuadTree, error) {
	var snap Snapshot
	if err := gob.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("quad: decoding snapshot: %w", err)
	}

	return FromSnapshot(&snap)
}
