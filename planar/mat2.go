package planar

import "math"

// Mat2 is a 2×2 matrix in row-major order: Mat2{{a, b}, {c, d}} represents
//
//	| a b |
//	| c d |
type Mat2 [2][2]float64

// Identity returns the 2×2 identity matrix.
func Identity() Mat2 {
	return Mat2{{1, 0}, {0, 1}}
}

// Diag returns the diagonal matrix diag(a, d).
func Diag(a, d float64) Mat2 {
	return Mat2{{a, 0}, {0, d}}
}

// Det returns the determinant of m.
func (m Mat2) Det() float64 {
	return m[0][0]*m[1][1] - m[0][1]*m[1][0]
}

// Transpose returns mᵀ.
func (m Mat2) Transpose() Mat2 {
	return Mat2{{m[0][0], m[1][0]}, {m[0][1], m[1][1]}}
}

// Add returns m + o.
func (m Mat2) Add(o Mat2) Mat2 {
	return Mat2{
		{m[0][0] + o[0][0], m[0][1] + o[0][1]},
		{m[1][0] + o[1][0], m[1][1] + o[1][1]},
	}
}

// MulVec returns the column-vector product m·v.
func (m Mat2) MulVec(v Vec2) Vec2 {
	return Vec2{
		m[0][0]*v[0] + m[0][1]*v[1],
		m[1][0]*v[0] + m[1][1]*v[1],
	}
}

// VecMul returns the row-vector product v·m.
func (m Mat2) VecMul(v Vec2) Vec2 {
	return Vec2{
		v[0]*m[0][0] + v[1]*m[1][0],
		v[0]*m[0][1] + v[1]*m[1][1],
	}
}

// Mul returns the matrix product m·o.
func (m Mat2) Mul(o Mat2) Mat2 {
	return Mat2{
		{m[0][0]*o[0][0] + m[0][1]*o[1][0], m[0][0]*o[0][1] + m[0][1]*o[1][1]},
		{m[1][0]*o[0][0] + m[1][1]*o[1][0], m[1][0]*o[0][1] + m[1][1]*o[1][1]},
	}
}

// QuadForm returns the bilinear form vᵀ·m·v.
func (m Mat2) QuadForm(v Vec2) float64 {
	return v.Dot(m.MulVec(v))
}

// Inverse returns m⁻¹, failing fast with ErrSingularMatrix when the
// determinant vanishes.
// Complexity: O(1).
func (m Mat2) Inverse() (Mat2, error) {
	det := m.Det()
	if math.Abs(det) <= detEpsilon {
		return Mat2{}, ErrSingularMatrix
	}
	inv := 1.0 / det

	return Mat2{
		{m[1][1] * inv, -m[0][1] * inv},
		{-m[1][0] * inv, m[0][0] * inv},
	}, nil
}

// Row returns row i of the matrix as a vector.
func (m Mat2) Row(i int) Vec2 {
	return Vec2{m[i][0], m[i][1]}
}
