package planar

// Route helpers: length measurement and equidistant resampling of
// polylines. A route is an ordered, non-empty point sequence; every
// consecutive pair forms a segment.

// SampleOptions configures InterpolateAlongRoute.
//
// Step — spacing between consecutive samples; used when N ≤ 0.
// N    — when positive, take exactly N evenly spaced samples including
//
//	both endpoints, and derive Step as total/(N−1).
type SampleOptions struct {
	Step float64
	N    int
}

// SampleOption mutates SampleOptions.
type SampleOption func(*SampleOptions)

// WithStep sets the sampling spacing used when no sample count is given.
func WithStep(step float64) SampleOption {
	return func(o *SampleOptions) { o.Step = step }
}

// WithSamples requests exactly n evenly spaced samples, endpoints
// included. Values ≤ 0 fall back to step-driven sampling.
func WithSamples(n int) SampleOption {
	return func(o *SampleOptions) { o.N = n }
}

// DefaultSampleOptions returns the sampling defaults: Step=1e-3, N=0.
func DefaultSampleOptions() SampleOptions {
	return SampleOptions{Step: 1e-3, N: 0}
}

// RouteDistance returns the total Euclidean length of a polyline.
// Returns ErrShortRoute when the route has fewer than two points.
// Complexity: O(len(route)).
func RouteDistance(route []Vec2) (float64, error) {
	total, _, err := RouteJoints(route)

	return total, err
}

// RouteJoints returns the total length of a polyline together with the
// cumulative distance at every joint: joints[i] is the distance from the
// start to route[i+1].
// Complexity: O(len(route)).
func RouteJoints(route []Vec2) (float64, []float64, error) {
	if len(route) < 2 {
		return 0, nil, ErrShortRoute
	}

	joints := make([]float64, len(route)-1)
	total := 0.0
	for i := 1; i < len(route); i++ {
		total += route[i].Sub(route[i-1]).Norm()
		joints[i-1] = total
	}

	return total, joints, nil
}

// digitizeRight returns the smallest index i with x ≤ bins[i], or
// len(bins) when x exceeds every bin. bins must be ascending.
func digitizeRight(x float64, bins []float64) int {
	for i, b := range bins {
		if x <= b {
			return i
		}
	}

	return len(bins)
}

// InterpolateAlongRoute returns equally spaced points along a polyline.
//
// With N ≤ 0 (default) samples sit at offsets 0, step, 2·step, …
// strictly below the total length. With N > 0 exactly N samples are
// taken, both endpoints included, and step is recomputed as
// total/(N−1).
//
// Each offset is located on its segment by right-inclusive digitization
// against the cumulative joint distances, then advanced along the
// segment's unit vector.
//
// Returns the samples along with the realized step and sample count.
// Returns ErrShortRoute for routes of fewer than two points and
// ErrBadStep when step-driven sampling is requested with step ≤ 0.
// Complexity: O(len(route) + n).
func InterpolateAlongRoute(route []Vec2, opts ...SampleOption) ([]Vec2, float64, int, error) {
	cfg := DefaultSampleOptions()
	for _, opt := range opts {
		opt(&cfg)
	}

	total, joints, err := RouteJoints(route)
	if err != nil {
		return nil, 0, 0, err
	}

	step, n := cfg.Step, cfg.N
	var offsets []float64
	if n <= 0 {
		if step <= 0 {
			return nil, 0, 0, ErrBadStep
		}
		for off := 0.0; off < total; off += step {
			offsets = append(offsets, off)
		}
		n = len(offsets)
	} else {
		offsets = make([]float64, n)
		if n == 1 {
			offsets[0] = 0
		} else {
			step = total / float64(n-1)
			for i := range offsets {
				offsets[i] = total * float64(i) / float64(n-1)
			}
		}
	}

	// Cumulative distance at the start of each segment.
	starts := make([]float64, len(joints))
	copy(starts[1:], joints[:len(joints)-1])

	points := make([]Vec2, len(offsets))
	for i, off := range offsets {
		seg := digitizeRight(off, joints)
		if seg >= len(joints) {
			seg = len(joints) - 1
		}
		unit := route[seg+1].Sub(route[seg]).Unit()
		points[i] = route[seg].Add(unit.Scale(off - starts[seg]))
	}

	return points, step, n, nil
}
