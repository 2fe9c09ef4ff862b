package field

import (
	"math"

	"github.com/katalvlaran/repfield/planar"
)

// RasterOptions configures field rasterization.
//
// Resolution — number of sample columns (rows follow the aspect ratio).
// Margin     — extra border around the field extent.
// Center     — overrides the field center.
// Size       — overrides the field size.
// Filter     — restricts evaluation to the given geometry indices.
type RasterOptions struct {
	Resolution int
	Margin     float64
	Center     *planar.Vec2
	Size       *planar.Vec2
	Filter     []int
}

// RasterOption mutates RasterOptions.
type RasterOption func(*RasterOptions)

// WithResolution sets the number of sample columns.
func WithResolution(res int) RasterOption {
	return func(o *RasterOptions) { o.Resolution = res }
}

// WithMargin grows the rasterized area on every side.
func WithMargin(margin float64) RasterOption {
	return func(o *RasterOptions) { o.Margin = margin }
}

// WithRasterCenter overrides the field center for this rasterization.
func WithRasterCenter(c planar.Vec2) RasterOption {
	return func(o *RasterOptions) { o.Center = &c }
}

// WithRasterSize overrides the field size for this rasterization.
func WithRasterSize(size planar.Vec2) RasterOption {
	return func(o *RasterOptions) { o.Size = &size }
}

// WithRasterFilter restricts evaluation to the given geometry indices.
func WithRasterFilter(filter []int) RasterOption {
	return func(o *RasterOptions) { o.Filter = filter }
}

// DefaultRasterOptions returns the rasterization defaults:
// Resolution=200, no margin, field placement, all geometries.
func DefaultRasterOptions() RasterOptions {
	return RasterOptions{Resolution: 200}
}

// ToImage samples the field on a regular grid over its extent and
// returns the values row-major, top row first. The row count follows the
// aspect ratio of the sampled area. Fails with ErrNoCenterPoint or
// ErrNoSize when the field is unplaced and no override is given.
func (f *PotentialField) ToImage(opts ...RasterOption) ([][]float64, error) {
	cfg := DefaultRasterOptions()
	for _, opt := range opts {
		opt(&cfg)
	}

	center := f.centerPoint
	if cfg.Center != nil {
		center = *cfg.Center
	} else if !f.hasCenter {
		return nil, ErrNoCenterPoint
	}
	size := f.size
	if cfg.Size != nil {
		size = *cfg.Size
	} else if !f.hasSize {
		return nil, ErrNoSize
	}

	s2 := size.Scale(0.5)
	topLeft := center.Add(planar.Vec2{-s2[0] - cfg.Margin, s2[1] + cfg.Margin})
	bottomRight := center.Add(planar.Vec2{s2[0] + cfg.Margin, -s2[1] - cfg.Margin})

	cols := cfg.Resolution
	rows := int(float64(cols) * math.Abs(topLeft[1]-bottomRight[1]) / math.Abs(bottomRight[0]-topLeft[0]))

	pts := make([]planar.Vec2, 0, rows*cols)
	for r := 0; r < rows; r++ {
		y := lerp(topLeft[1], bottomRight[1], r, rows)
		for c := 0; c < cols; c++ {
			pts = append(pts, planar.Vec2{lerp(topLeft[0], bottomRight[0], c, cols), y})
		}
	}

	evals := f.Eval(pts, cfg.Filter)
	img := make([][]float64, rows)
	for r := 0; r < rows; r++ {
		img[r] = evals[r*cols : (r+1)*cols]
	}

	return img, nil
}

// lerp places sample i of n evenly across [a, b], endpoints included.
func lerp(a, b float64, i, n int) float64 {
	if n <= 1 {
		return a
	}

	return a + (b-a)*float64(i)/float64(n-1)
}
