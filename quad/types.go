// Package quad defines core types, options, and sentinel errors for the
// quad subpackage of github.com/katalvlaran/repfield.
package quad

import (
	"errors"
	"math"
)

// Sentinel errors for quadtree operations.
var (
	// ErrNilField indicates construction without a potential field.
	ErrNilField = errors.New("quad: field is nil")
	// ErrBadEdgeBounds indicates zone thresholds that are empty or outside
	// the open interval (0, 1).
	ErrBadEdgeBounds = errors.New("quad: edge bounds must be a non-empty subset of (0, 1)")
	// ErrUnplacedField indicates a build over a field with no center point
	// or size to anchor the root sector.
	ErrUnplacedField = errors.New("quad: field has no center point or size")
	// ErrNotBuilt indicates a query against a tree whose root has not been
	// built.
	ErrNotBuilt = errors.New("quad: tree has not been built")
	// ErrMissingChild indicates a nil branch under an internal node during
	// a leaf search.
	ErrMissingChild = errors.New("quad: branch missing leaf")
)

// Options configures a QuadTree.
//
// MinSectorSize — refinement floor: a node is never subdivided below it.
// MaxSectorSize — merge ceiling: sectors above it always subdivide, and
//
//	hot-load merges never grow a leaf beyond it.
//
// EdgeBounds    — field-value thresholds in (0, 1), sorted into decreasing
//
//	order internally, classifying geometries into zones 0 … len+1; zone 0
//	touches the sector and zone len+1 (NZones) means
//	"far enough to ignore".
//
// Size          — root sector edge length; defaults to the field size.
// Conservative  — stricter leaf predicate requiring a sector to sit
//
//	entirely within one zone.
//
// Build         — build the tree immediately during construction.
type Options struct {
	MinSectorSize float64
	MaxSectorSize float64
	EdgeBounds    []float64
	Size          float64
	Conservative  bool
	Build         bool
}

// Option is a functional option for configuring a QuadTree.
type Option func(*Options)

// WithMinSectorSize sets the refinement floor.
func WithMinSectorSize(size float64) Option {
	return func(o *Options) { o.MinSectorSize = size }
}

// WithMaxSectorSize sets the merge ceiling.
func WithMaxSectorSize(size float64) Option {
	return func(o *Options) { o.MaxSectorSize = size }
}

// WithEdgeBounds sets the zone thresholds. The values are sorted into
// decreasing order internally; each must lie strictly inside (0, 1).
func WithEdgeBounds(bounds []float64) Option {
	return func(o *Options) { o.EdgeBounds = bounds }
}

// WithSize overrides the root sector edge length.
func WithSize(size float64) Option {
	return func(o *Options) { o.Size = size }
}

// WithConservative enables the stricter leaf predicate, trading extra
// evaluations for tighter per-leaf cost homogeneity.
func WithConservative() Option {
	return func(o *Options) { o.Conservative = true }
}

// WithBuild builds the tree during construction.
func WithBuild() Option {
	return func(o *Options) { o.Build = true }
}

// DefaultOptions returns the construction defaults: MinSectorSize=5,
// unbounded MaxSectorSize, EdgeBounds=[0.6, 0.4, 0.2], size from the
// field, non-conservative, no immediate build.
func DefaultOptions() Options {
	return Options{
		MinSectorSize: 5.0,
		MaxSectorSize: math.Inf(1),
		EdgeBounds:    []float64{0.6, 0.4, 0.2},
	}
}
