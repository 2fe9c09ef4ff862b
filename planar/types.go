// Package planar defines core types and sentinel errors for the planar
// subpackage of github.com/katalvlaran/repfield.
package planar

import "errors"

// Sentinel errors for planar operations.
var (
	// ErrSingularMatrix indicates a 2×2 matrix with a vanishing determinant.
	ErrSingularMatrix = errors.New("planar: matrix is singular")
	// ErrShortRoute indicates a polyline with fewer than two points.
	ErrShortRoute = errors.New("planar: route must contain at least two points")
	// ErrBadStep indicates a non-positive sampling step.
	ErrBadStep = errors.New("planar: step must be positive")
)

// detEpsilon is the determinant magnitude below which a matrix is treated
// as singular.
const detEpsilon = 1e-12
