package lodvisitor

import (
	"math"

	"github.com/Faultbox/lodbodies/internal/quadtree"
	"github.com/Faultbox/lodbodies/pkg/spacemath"
)

// testVisible applies the frustum and horizon tests to rd's bounding box.
// A nil rd (no DEM data at this level) is never visible.
func (v *Visitor) testVisible(rd *quadtree.RenderData) bool {
	if rd == nil {
		return false
	}
	corners := rd.Bounds.Corners()

	for _, plane := range v.cullFrustum.Planes {
		allOutside := true
		for _, c := range corners {
			if plane.Distance(c) >= 0 {
				allOutside = false
				break
			}
		}
		if allOutside {
			return false
		}
	}

	for _, c := range corners {
		if v.frontFacing(c) {
			return true
		}
	}
	return false
}

// frontFacing reports whether corner is not occluded by the proxy sphere
// centered at the model-space origin, as seen from the camera.
func (v *Visitor) frontFacing(corner spacemath.Vec3) bool {
	d := corner.Sub(v.camPos)
	a := d.Dot(d)
	if a == 0 {
		return true
	}
	b := 2 * v.camPos.Dot(d)
	c := v.camPos.Dot(v.camPos) - v.proxyRadius*v.proxyRadius

	disc := b*b - 4*a*c
	if disc < 0 {
		return true // ray misses the proxy sphere entirely
	}
	sq := math.Sqrt(disc)
	t0 := (-b - sq) / (2 * a)
	t1 := (-b + sq) / (2 * a)
	tNear, tFar := t0, t1
	if tNear > tFar {
		tNear, tFar = tFar, tNear
	}

	if tFar < 0 {
		return true // both intersections behind the camera
	}
	if tNear > 1 {
		return true // sphere entered beyond the corner's own distance
	}
	return false
}
