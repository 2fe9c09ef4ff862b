package network

import (
	"container/heap"

	"github.com/katalvlaran/repfield/quad"
)

// Route search over the leaf adjacency: Dijkstra, or A* with a Euclidean
// lower bound toward the destination. Both use a min-heap with the
// "lazy decrease-key" strategy — improved distances push duplicate heap
// entries, and stale ones are skipped when popped.
//
// Complexity: O((V + E) log V) time, O(V + E) space.

// search runs the selected algorithm from src to dst and reconstructs
// the node path.
func (n *Network) search(src, dst *quad.QuadNode, alg Algorithm) ([]*quad.QuadNode, error) {
	var heuristic func(*quad.QuadNode) float64
	switch alg {
	case Dijkstra:
		heuristic = func(*quad.QuadNode) float64 { return 0 }
	case AStar:
		heuristic = func(q *quad.QuadNode) float64 { return q.Center.Sub(dst.Center).Norm() }
	default:
		return nil, ErrUnknownAlgorithm
	}

	dist := map[*quad.QuadNode]float64{src: 0}
	prev := make(map[*quad.QuadNode]*quad.QuadNode)
	visited := make(map[*quad.QuadNode]bool, len(n.adj))

	pq := make(routePQ, 0, len(n.adj))
	heap.Init(&pq)
	heap.Push(&pq, &routeItem{node: src, dist: 0, priority: heuristic(src)})

	for pq.Len() > 0 {
		item := heap.Pop(&pq).(*routeItem)
		u := item.node

		// Skip stale heap entries for already-finalized nodes.
		if visited[u] {
			continue
		}
		visited[u] = true

		if u == dst {
			return reconstruct(prev, src, dst), nil
		}

		for v, w := range n.adj[u] {
			if visited[v] {
				continue
			}
			newDist := item.dist + w
			if d, ok := dist[v]; ok && newDist >= d {
				continue
			}
			dist[v] = newDist
			prev[v] = u
			heap.Push(&pq, &routeItem{node: v, dist: newDist, priority: newDist + heuristic(v)})
		}
	}

	return nil, ErrNoRoute
}

// reconstruct follows the predecessor links back from dst to src.
func reconstruct(prev map[*quad.QuadNode]*quad.QuadNode, src, dst *quad.QuadNode) []*quad.QuadNode {
	var path []*quad.QuadNode
	for at := dst; at != nil; at = prev[at] {
		path = append(path, at)
		if at == src {
			break
		}
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return path
}

// routeItem is one heap entry: a node with its accumulated cost and its
// heap priority (cost plus heuristic).
type routeItem struct {
	node     *quad.QuadNode
	dist     float64
	priority float64
}

// routePQ is a min-heap of *routeItem ordered by priority.
type routePQ []*routeItem

func (pq routePQ) Len() int { return len(pq) }

func (pq routePQ) Less(i, j int) bool { return pq[i].priority < pq[j].priority }

func (pq routePQ) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

// Push adds a new element onto the heap; x must be a *routeItem.
func (pq *routePQ) Push(x interface{}) { *pq = append(*pq, x.(*routeItem)) }

// Pop removes and returns the minimum-priority element.
func (pq *routePQ) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]

	return item
}
