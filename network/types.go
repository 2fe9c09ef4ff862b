// Package network defines core types, options, and sentinel errors for
// the network subpackage of github.com/katalvlaran/repfield.
package network

import "errors"

// Sentinel errors for routing-network operations.
var (
	// ErrNilTree indicates construction without a quadtree.
	ErrNilTree = errors.New("network: quadtree is nil")
	// ErrNotBuilt indicates a route query against a tree with no leaves.
	ErrNotBuilt = errors.New("network: quadtree has not been built")
	// ErrEmptyNetwork indicates a route query before any adjacency build.
	ErrEmptyNetwork = errors.New("network: adjacency has not been built")
	// ErrNoRoute indicates the endpoints are in disconnected components.
	ErrNoRoute = errors.New("network: no route between the given points")
	// ErrUnknownAlgorithm indicates a route search algorithm outside the
	// supported set.
	ErrUnknownAlgorithm = errors.New("network: unknown search algorithm")
)

// Algorithm selects the route search strategy.
type Algorithm int

const (
	// Dijkstra explores by increasing cost from the source.
	Dijkstra Algorithm = iota
	// AStar adds a Euclidean lower bound toward the destination.
	AStar
)

// Options configures a Network.
//
// Build — fill shallow neighbors and build the full adjacency during
// construction.
type Options struct {
	Build bool
}

// Option is a functional option for configuring a Network.
type Option func(*Options)

// WithBuild builds the adjacency during construction.
func WithBuild() Option {
	return func(o *Options) { o.Build = true }
}

// RouteOptions configures FindRoute.
type RouteOptions struct {
	Algorithm Algorithm
}

// RouteOption is a functional option for configuring FindRoute.
type RouteOption func(*RouteOptions)

// WithAlgorithm selects the search strategy. Defaults to AStar.
func WithAlgorithm(alg Algorithm) RouteOption {
	return func(o *RouteOptions) { o.Algorithm = alg }
}

// DefaultRouteOptions returns the route search defaults: AStar.
func DefaultRouteOptions() RouteOptions {
	return RouteOptions{Algorithm: AStar}
}
