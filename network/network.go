// Package network turns a quadtree's leaf set into a weighted routing
// graph. Each leaf becomes a vertex; edges connect a leaf to its eight
// cached direction neighbors, weighted by center distance surcharged by
// the leaves' field-value bounds so travel near obstacles costs more.
//
// The network implements the hot-loader's RoutingGraph interface, which
// is its whole mutation surface: Remove, FillShallowNeighbors and
// BuildGraph keep the adjacency coherent while the tree changes
// underneath it.
package network

import (
	"github.com/katalvlaran/repfield/planar"
	"github.com/katalvlaran/repfield/quad"
)

// Network is the routing graph over one quadtree's leaves.
//
// Not safe for concurrent mutation; route queries are safe to run in
// parallel on a quiescent network.
type Network struct {
	tree *quad.QuadTree
	adj  map[*quad.QuadNode]map[*quad.QuadNode]float64
}

// New builds a network over a tree. With WithBuild the neighbor caches
// are filled and the full leaf adjacency is built immediately.
// Returns ErrNilTree.
func New(tree *quad.QuadTree, opts ...Option) (*Network, error) {
	if tree == nil {
		return nil, ErrNilTree
	}
	var cfg Options
	for _, opt := range opts {
		opt(&cfg)
	}

	n := &Network{
		tree: tree,
		adj:  make(map[*quad.QuadNode]map[*quad.QuadNode]float64),
	}
	if cfg.Build {
		n.FillShallowNeighbors()
		n.BuildGraph(tree.Leaves(), true)
	}

	return n, nil
}

// Len returns the number of graph vertices.
func (n *Network) Len() int { return len(n.adj) }

// EdgeWeight returns the directed edge weight from a to b, and whether
// the edge exists.
func (n *Network) EdgeWeight(a, b *quad.QuadNode) (float64, bool) {
	w, ok := n.adj[a][b]

	return w, ok
}

// FillShallowNeighbors recomputes the cached 8-direction links of every
// current leaf: each direction is probed just across the sector edge and
// resolved through the tree. Every node's size stays at or above the
// refinement floor, so a half-floor probe offset always lands strictly
// inside the adjacent leaf. Probes that resolve back to the same leaf
// (outside the root sector) clear the link.
func (n *Network) FillShallowNeighbors() {
	eps := n.tree.MinSectorSize / 2.0
	for _, leaf := range n.tree.Leaves() {
		reach := leaf.Size/2.0 + eps
		probes := make([]planar.Vec2, 8)
		for slot := 0; slot < 8; slot++ {
			dir := quad.NeighborDirection(slot)
			probes[slot] = leaf.Center.Add(planar.Vec2{dir[0] * reach, dir[1] * reach})
		}
		found := n.tree.FindQuads(probes)
		for slot, nb := range found {
			if nb == leaf {
				nb = nil
			}
			leaf.Neighbors[slot] = nb
		}
	}
}

// edgeWeight prices travel between adjacent leaves: Euclidean center
// distance surcharged by the mean field-value bound of the two sectors.
func edgeWeight(a, b *quad.QuadNode) float64 {
	return a.Center.Sub(b.Center).Norm() * (1.0 + (a.BoundaryMaxRange+b.BoundaryMaxRange)/2.0)
}

// BuildGraph (re)builds adjacency for the given nodes against their
// cached neighbors. Nodes that are no longer live leaves are skipped —
// the hot-loader may hand over sectors merged away after staging. With
// overwriteDirected false, directed edges that already exist keep their
// weights.
func (n *Network) BuildGraph(nodes []*quad.QuadNode, overwriteDirected bool) {
	for _, node := range nodes {
		if node == nil || !n.tree.HasLeaf(node) {
			continue
		}
		if n.adj[node] == nil {
			n.adj[node] = make(map[*quad.QuadNode]float64)
		}
		for _, nb := range node.Neighbors {
			if nb == nil || !n.tree.HasLeaf(nb) {
				continue
			}
			if n.adj[nb] == nil {
				n.adj[nb] = make(map[*quad.QuadNode]float64)
			}
			w := edgeWeight(node, nb)
			if _, ok := n.adj[node][nb]; overwriteDirected || !ok {
				n.adj[node][nb] = w
			}
			if _, ok := n.adj[nb][node]; overwriteDirected || !ok {
				n.adj[nb][node] = w
			}
		}
	}
}

// Remove drops a node and every directed edge incident to it.
func (n *Network) Remove(node *quad.QuadNode) {
	delete(n.adj, node)
	for _, edges := range n.adj {
		delete(edges, node)
	}
}

// FindRoute returns the leaf-center waypoints of the cheapest route
// between the leaves containing src and dst. Returns ErrNotBuilt when
// the tree has no leaves, ErrEmptyNetwork before any adjacency build,
// and ErrNoRoute when the endpoints are disconnected.
func (n *Network) FindRoute(src, dst planar.Vec2, opts ...RouteOption) ([]planar.Vec2, error) {
	cfg := DefaultRouteOptions()
	for _, opt := range opts {
		opt(&cfg)
	}

	endpoints := n.tree.FindQuads([]planar.Vec2{src, dst})
	if endpoints[0] == nil || endpoints[1] == nil {
		return nil, ErrNotBuilt
	}
	if len(n.adj) == 0 {
		return nil, ErrEmptyNetwork
	}

	nodes, err := n.search(endpoints[0], endpoints[1], cfg.Algorithm)
	if err != nil {
		return nil, err
	}

	route := make([]planar.Vec2, len(nodes))
	for i, node := range nodes {
		route[i] = node.Center
	}

	return route, nil
}

// RoutePoints assembles the full polyline of a found route: the true
// endpoints with the waypoints between them.
func RoutePoints(src, dst planar.Vec2, route []planar.Vec2) []planar.Vec2 {
	out := make([]planar.Vec2, 0, len(route)+2)
	out = append(out, src)
	out = append(out, route...)

	return append(out, dst)
}
