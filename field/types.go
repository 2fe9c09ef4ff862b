// Package field defines core types, options, and sentinel errors for the
// field subpackage of github.com/katalvlaran/repfield.
package field

import (
	"errors"

	"github.com/katalvlaran/repfield/planar"
)

// Sentinel errors for field operations.
var (
	// ErrLengthMismatch indicates per-index evaluation with idxs and points
	// of different lengths.
	ErrLengthMismatch = errors.New("field: number of points does not match number of indices")
	// ErrIndexRange indicates a geometry index outside [0, Len()).
	ErrIndexRange = errors.New("field: geometry index out of range")
	// ErrImmutableCollection indicates a coordinate mutation on a
	// GeometryCollection, which owns heterogeneous sub-geometries and has
	// no single coordinate array to rewrite.
	ErrImmutableCollection = errors.New("field: geometry collection coordinates cannot be reassigned")
	// ErrNestedCollection indicates a GeometryCollection nested inside
	// another at construction time.
	ErrNestedCollection = errors.New("field: geometry collection cannot contain another collection")
	// ErrUnknownGeometryType indicates an RGeoJSON geometry type outside the
	// supported seven kinds.
	ErrUnknownGeometryType = errors.New("field: unknown RGeoJSON geometry type")
	// ErrShortLineString indicates a polyline with fewer than two vertices.
	ErrShortLineString = errors.New("field: line string needs at least two vertices")
	// ErrEmptyGeometry indicates a multi-variant built from zero sub-units.
	ErrEmptyGeometry = errors.New("field: geometry needs at least one sub-unit")
	// ErrShapeMismatch indicates a MultiEllipse with differing center and
	// shape counts.
	ErrShapeMismatch = errors.New("field: number of shapes does not match number of centers")
	// ErrNoCenterPoint indicates a rasterization of a field whose center has
	// never been set or derived.
	ErrNoCenterPoint = errors.New("field: center point has not been defined")
	// ErrNoSize indicates a rasterization of a field whose size has never
	// been set or derived.
	ErrNoSize = errors.New("field: size has not been defined")
)

// Form selects the bilinear form used by squared-distance evaluation.
type Form int

const (
	// FormInverse measures vᵀ·A⁻¹·v, the Mahalanobis form under the
	// repulsion metric. This is the default everywhere.
	FormInverse Form = iota
	// FormIdentity measures the plain Euclidean vᵀ·v.
	FormIdentity
	// FormRepulsion measures vᵀ·A·v.
	FormRepulsion
)

// Kind tags the shape variant of a Geometry.
type Kind int

const (
	KindPoint Kind = iota
	KindLineString
	KindRectangle
	KindEllipse
	KindMultiPoint
	KindMultiLineString
	KindMultiRectangle
	KindMultiEllipse
	KindGeometryCollection
)

// kindNames maps Kind to its RGeoJSON type string.
var kindNames = [...]string{
	KindPoint:              "Point",
	KindLineString:         "LineString",
	KindRectangle:          "Rectangle",
	KindEllipse:            "Ellipse",
	KindMultiPoint:         "MultiPoint",
	KindMultiLineString:    "MultiLineString",
	KindMultiRectangle:     "MultiRectangle",
	KindMultiEllipse:       "MultiEllipse",
	KindGeometryCollection: "GeometryCollection",
}

// String returns the RGeoJSON type name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return "Unknown"
}

// GeomOption configures optional geometry attributes at construction.
type GeomOption func(*geomConfig)

type geomConfig struct {
	repulsion  *planar.Mat2
	properties map[string]any
}

// WithRepulsion sets the 2×2 repulsion metric A. The matrix must be
// invertible; constructors fail with planar.ErrSingularMatrix otherwise.
// Defaults to the identity when omitted.
func WithRepulsion(a planar.Mat2) GeomOption {
	return func(c *geomConfig) { c.repulsion = &a }
}

// WithProperties attaches an opaque properties dictionary carried through
// RGeoJSON round-trips untouched.
func WithProperties(props map[string]any) GeomOption {
	return func(c *geomConfig) { c.properties = props }
}

// ellipseDenominatorFloor clamps the ellipse distance denominator away
// from zero near the center.
const ellipseDenominatorFloor = 1e-6
