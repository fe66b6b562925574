package spacemath

import "math"

// SurfacePoint returns the model-space position of a point at the given
// longitude/latitude (radians) on a triaxial ellipsoid with the given
// radii, displaced along the local sphere normal by height. This is the
// same construction TileRenderer uses to turn a tile's spherical corners
// and DEM range into an axis-aligned bounding box: elevate the unit-sphere
// direction, scale by the ellipsoid radii, then push out by height along
// the un-scaled direction.
func SurfacePoint(radii Vec3, lng, lat, height float64) Vec3 {
	cl := math.Cos(lat)
	dir := Vec3{cl * math.Cos(lng), math.Sin(lat), cl * math.Sin(lng)}
	base := Vec3{dir[0] * radii[0], dir[1] * radii[1], dir[2] * radii[2]}
	return base.Add(dir.Mul(height))
}
