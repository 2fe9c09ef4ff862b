// Package repfield builds continuous repulsion potential fields over the
// 2-D Euclidean plane and turns them into a navigable routing substrate.
//
// 🚀 What is repfield?
//
//	A library for path planning around soft obstacles:
//
//	  • Geometry kernels: points, polylines, rectangles, ellipses and their
//	    multi-variants, each contributing a Gaussian-like repulsion well
//	    shaped by a 2×2 metric matrix
//	  • Adaptive quadtree: leaf resolution tracks the field gradient via
//	    per-sector zone classification
//	  • Hot-loading: insert and remove obstacles in place, re-subdividing
//	    or merging only the affected sectors
//	  • Routing: Dijkstra and A* over the leaf adjacency graph
//
// Everything is organized under five subpackages:
//
//	planar/   — vectors, 2×2 matrices, polyline helpers
//	field/    — geometry kernels, the potential field, RGeoJSON I/O
//	quad/     — adaptive quadtree build, search and snapshots
//	hotload/  — incremental field mutation against a live tree and graph
//	network/  — routing graph over quadtree leaves
//
// The core is single-threaded and synchronous: read-only queries are safe
// to run in parallel on an immutable snapshot, while any mutation path
// (field add/delete, tree build, hot-loading) must be serialized by the
// caller.
package repfield
