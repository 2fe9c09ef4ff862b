package planar_test

import (
	"testing"

	"github.com/katalvlaran/repfield/planar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRouteDistance verifies pairwise segment accumulation on an L-shaped
// route: (0,0)→(10,0)→(10,10) has length 20.
func TestRouteDistance(t *testing.T) {
	route := []planar.Vec2{{0, 0}, {10, 0}, {10, 10}}
	total, err := planar.RouteDistance(route)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, total, 1e-12)
}

// TestRouteDistance_Short verifies ErrShortRoute for degenerate input.
func TestRouteDistance_Short(t *testing.T) {
	_, err := planar.RouteDistance([]planar.Vec2{{1, 1}})
	assert.ErrorIs(t, err, planar.ErrShortRoute)
}

// TestRouteJoints verifies the cumulative joint distances.
func TestRouteJoints(t *testing.T) {
	route := []planar.Vec2{{0, 0}, {3, 4}, {3, 10}}
	total, joints, err := planar.RouteJoints(route)
	require.NoError(t, err)
	assert.InDelta(t, 11.0, total, 1e-12)
	assert.InDeltaSlice(t, []float64{5, 11}, joints, 1e-12)
}

// TestInterpolateAlongRoute_FixedCount reproduces the canonical
// five-sample case: the L-route (0,0)→(10,0)→(10,10) resampled at n=5
// must yield (0,0),(5,0),(10,0),(10,5),(10,10) with step 5.
func TestInterpolateAlongRoute_FixedCount(t *testing.T) {
	route := []planar.Vec2{{0, 0}, {10, 0}, {10, 10}}
	pts, step, n, err := planar.InterpolateAlongRoute(route, planar.WithSamples(5))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.InDelta(t, 5.0, step, 1e-12)

	want := []planar.Vec2{{0, 0}, {5, 0}, {10, 0}, {10, 5}, {10, 10}}
	require.Len(t, pts, len(want))
	for i := range want {
		assert.InDelta(t, want[i][0], pts[i][0], 1e-9, "point %d x", i)
		assert.InDelta(t, want[i][1], pts[i][1], 1e-9, "point %d y", i)
	}
}

// TestInterpolateAlongRoute_StepDriven verifies that step-driven sampling
// stays strictly below the total length.
func TestInterpolateAlongRoute_StepDriven(t *testing.T) {
	route := []planar.Vec2{{0, 0}, {4, 0}}
	pts, step, n, err := planar.InterpolateAlongRoute(route, planar.WithStep(1.0))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.InDelta(t, 1.0, step, 1e-12)
	assert.Equal(t, planar.V(3, 0), pts[len(pts)-1])
}

// TestInterpolateAlongRoute_BadStep verifies ErrBadStep on non-positive
// spacing without a sample count.
func TestInterpolateAlongRoute_BadStep(t *testing.T) {
	route := []planar.Vec2{{0, 0}, {1, 0}}
	_, _, _, err := planar.InterpolateAlongRoute(route, planar.WithStep(0))
	assert.ErrorIs(t, err, planar.ErrBadStep)
}

// TestInterpolateAlongRoute_LengthPreserved checks that resampling a
// route and re-measuring it recovers the original length within O(1/k).
func TestInterpolateAlongRoute_LengthPreserved(t *testing.T) {
	route := []planar.Vec2{{0, 0}, {7, 3}, {2, 9}, {-4, 1}}
	total, err := planar.RouteDistance(route)
	require.NoError(t, err)

	const k = 400
	pts, _, _, err := planar.InterpolateAlongRoute(route, planar.WithSamples(k))
	require.NoError(t, err)

	resampled, err := planar.RouteDistance(pts)
	require.NoError(t, err)
	assert.InDelta(t, total, resampled, total*4.0/k)
}
