// Package hotload defines the consumer-side routing graph interface and
// sentinel errors for the hotload subpackage of
// github.com/katalvlaran/repfield.
package hotload

import (
	"errors"

	"github.com/katalvlaran/repfield/quad"
)

// Sentinel errors for hot-load operations.
var (
	// ErrNilComponent indicates construction with a nil field, tree or
	// graph.
	ErrNilComponent = errors.New("hotload: field, quadtree and graph must be non-nil")
	// ErrIndexRange indicates a removal index outside the field's index
	// space.
	ErrIndexRange = errors.New("hotload: geometry index out of range")
	// ErrEmptyRemoval indicates a removal call without indices.
	ErrEmptyRemoval = errors.New("hotload: no indices to remove")
)

// RoutingGraph is the slice of the router the hot-loader talks to: the
// only coupling between the core and path search. Implementations must
// tolerate BuildGraph receiving nodes that have stopped being live
// leaves between staging and application.
type RoutingGraph interface {
	// Remove drops a node and its incident edges from the graph.
	Remove(n *quad.QuadNode)
	// FillShallowNeighbors recomputes the cached 8-direction neighbor
	// links of the tree's current leaves.
	FillShallowNeighbors()
	// BuildGraph (re)builds adjacency for the given nodes. With
	// overwriteDirected false, directed edges that already exist keep
	// their weights.
	BuildGraph(nodes []*quad.QuadNode, overwriteDirected bool)
}
