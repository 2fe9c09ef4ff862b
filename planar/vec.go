package planar

import "math"

// Vec2 is a point or displacement in the Euclidean plane.
type Vec2 [2]float64

// V is a convenience constructor for Vec2.
func V(x, y float64) Vec2 { return Vec2{x, y} }

// X returns the first coordinate.
func (v Vec2) X() float64 { return v[0] }

// Y returns the second coordinate.
func (v Vec2) Y() float64 { return v[1] }

// Add returns v + w.
func (v Vec2) Add(w Vec2) Vec2 { return Vec2{v[0] + w[0], v[1] + w[1]} }

// Sub returns v − w.
func (v Vec2) Sub(w Vec2) Vec2 { return Vec2{v[0] - w[0], v[1] - w[1]} }

// Scale returns s·v.
func (v Vec2) Scale(s float64) Vec2 { return Vec2{s * v[0], s * v[1]} }

// Dot returns the Euclidean inner product v·w.
func (v Vec2) Dot(w Vec2) float64 { return v[0]*w[0] + v[1]*w[1] }

// SquaredNorm returns v·v.
func (v Vec2) SquaredNorm() float64 { return v[0]*v[0] + v[1]*v[1] }

// Norm returns the Euclidean length of v.
func (v Vec2) Norm() float64 { return math.Hypot(v[0], v[1]) }

// Unit returns v normalized to unit length. The zero vector is returned
// unchanged.
func (v Vec2) Unit() Vec2 {
	n := v.Norm()
	if n == 0 {
		return v
	}

	return Vec2{v[0] / n, v[1] / n}
}

// BBox is an axis-aligned bounding box given by two opposite corners,
// Min ≤ Max componentwise.
type BBox struct {
	Min, Max Vec2
}

// NewBBox returns the box spanned by two arbitrary opposite corners.
func NewBBox(a, b Vec2) BBox {
	return BBox{
		Min: Vec2{math.Min(a[0], b[0]), math.Min(a[1], b[1])},
		Max: Vec2{math.Max(a[0], b[0]), math.Max(a[1], b[1])},
	}
}

// BBoxOf returns the tight box around a non-empty point set.
func BBoxOf(pts []Vec2) BBox {
	box := BBox{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		box = box.Extend(p)
	}

	return box
}

// Contains reports whether p lies inside the box, boundary inclusive.
func (b BBox) Contains(p Vec2) bool {
	return p[0] >= b.Min[0] && p[0] <= b.Max[0] && p[1] >= b.Min[1] && p[1] <= b.Max[1]
}

// Center returns the midpoint of the box.
func (b BBox) Center() Vec2 {
	return Vec2{(b.Min[0] + b.Max[0]) / 2.0, (b.Min[1] + b.Max[1]) / 2.0}
}

// Extend returns the smallest box covering b and p.
func (b BBox) Extend(p Vec2) BBox {
	return BBox{
		Min: Vec2{math.Min(b.Min[0], p[0]), math.Min(b.Min[1], p[1])},
		Max: Vec2{math.Max(b.Max[0], p[0]), math.Max(b.Max[1], p[1])},
	}
}

// Union returns the smallest box covering both b and o.
func (b BBox) Union(o BBox) BBox {
	return b.Extend(o.Min).Extend(o.Max)
}

// Corners returns the four corners of the box.
func (b BBox) Corners() [4]Vec2 {
	return [4]Vec2{
		b.Min,
		{b.Max[0], b.Min[1]},
		b.Max,
		{b.Min[0], b.Max[1]},
	}
}
