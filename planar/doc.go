// Package planar provides the small geometric vocabulary shared by the
// repfield subpackages: 2-vectors, axis-aligned boxes, 2×2 matrices and
// polyline helpers.
//
// The matrix type is fixed-size and allocation-free because it sits on the
// hot path of every field evaluation: a repulsion metric A participates in
// a Mahalanobis form vᵀ·A⁻¹·v once per query point per primitive.
//
// Route helpers measure polylines and resample them at equal spacing,
// which the field package uses to integrate potential along candidate
// routes.
package planar
