// Package spacemath provides the double-precision math used by the LOD
// visitor's camera-space computations: frustum planes, camera position,
// tile bounding boxes, and the normal matrix all stay in float64, since at
// planetary distances a float32 view/projection matrix loses enough
// precision to make the horizon and refinement tests unstable.
package spacemath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec3 is an alias for the double-precision vector type used throughout
// this package.
type Vec3 = mgl64.Vec3

// Mat4 is an alias for the double-precision 4x4 matrix type, column-major
// like the projection/view matrices it is built from.
type Mat4 = mgl64.Mat4

// Mat3 is a plain 3x3 matrix, row-major, used only for the normal matrix.
// It intentionally does not alias mgl64.Mat3 - only Vec3/Mat4 from
// mathgl are used elsewhere, so the inverse-transpose below is spelled out
// directly instead of pulling in another generated type.
type Mat3 [9]float64

// AABB is an axis-aligned bounding box using double-precision coordinates,
// the precision the visitor needs for camera-relative angle and distance
// computations.
type AABB struct {
	Min Vec3
	Max Vec3
}

// Center returns the midpoint of the box.
func (b AABB) Center() Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Corners returns the eight corners of the box in the canonical order used
// by the frustum and horizon tests: (---, +--, +-+, --+, -+-, ++-, +++, -++).
func (b AABB) Corners() [8]Vec3 {
	return [8]Vec3{
		{b.Min[0], b.Min[1], b.Min[2]},
		{b.Max[0], b.Min[1], b.Min[2]},
		{b.Max[0], b.Min[1], b.Max[2]},
		{b.Min[0], b.Min[1], b.Max[2]},

		{b.Min[0], b.Max[1], b.Min[2]},
		{b.Max[0], b.Max[1], b.Min[2]},
		{b.Max[0], b.Max[1], b.Max[2]},
		{b.Min[0], b.Max[1], b.Max[2]},
	}
}

// Union returns the smallest AABB containing both b and other.
func (b AABB) Union(other AABB) AABB {
	return AABB{
		Min: Vec3{
			math.Min(b.Min[0], other.Min[0]),
			math.Min(b.Min[1], other.Min[1]),
			math.Min(b.Min[2], other.Min[2]),
		},
		Max: Vec3{
			math.Max(b.Max[0], other.Max[0]),
			math.Max(b.Max[1], other.Max[1]),
			math.Max(b.Max[2], other.Max[2]),
		},
	}
}

