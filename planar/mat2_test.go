package planar_test

import (
	"testing"

	"github.com/katalvlaran/repfield/planar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMat2_Inverse verifies m·m⁻¹ = I for a well-conditioned matrix.
func TestMat2_Inverse(t *testing.T) {
	m := planar.Mat2{{4, 1}, {2, 3}}
	inv, err := m.Inverse()
	require.NoError(t, err)

	prod := m.Mul(inv)
	assert.InDelta(t, 1.0, prod[0][0], 1e-12)
	assert.InDelta(t, 0.0, prod[0][1], 1e-12)
	assert.InDelta(t, 0.0, prod[1][0], 1e-12)
	assert.InDelta(t, 1.0, prod[1][1], 1e-12)
}

// TestMat2_InverseSingular verifies that a rank-deficient matrix fails
// fast with ErrSingularMatrix.
func TestMat2_InverseSingular(t *testing.T) {
	m := planar.Mat2{{1, 2}, {2, 4}}
	_, err := m.Inverse()
	assert.ErrorIs(t, err, planar.ErrSingularMatrix)
}

// TestMat2_QuadForm checks vᵀ·A⁻¹·v for A = 5·I: the form must equal
// |v|²/5.
func TestMat2_QuadForm(t *testing.T) {
	a := planar.Diag(5, 5)
	inv, err := a.Inverse()
	require.NoError(t, err)

	v := planar.V(3, 4)
	assert.InDelta(t, 25.0/5.0, inv.QuadForm(v), 1e-12)
}

// TestMat2_VecMul verifies the row-vector product against the transposed
// column product: v·m == mᵀ·v.
func TestMat2_VecMul(t *testing.T) {
	m := planar.Mat2{{1, 2}, {3, 4}}
	v := planar.V(5, 7)
	assert.Equal(t, m.Transpose().MulVec(v), m.VecMul(v))
}
