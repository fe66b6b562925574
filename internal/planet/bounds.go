package planet

import (
	"github.com/Faultbox/lodbodies/internal/tile"
	"github.com/Faultbox/lodbodies/internal/tileid"
	"github.com/Faultbox/lodbodies/pkg/spacemath"
)

// BoundsForTile builds a treemanager.BoundsFn closed over a fixed ellipsoid
// and height scale: it elevates each of a tile's four spherical corners by
// the DEM's min and max sample (scaled) and unions the eight resulting
// model-space points into an axis-aligned box, the same construction
// UpdateBoundsVisitor uses per node.
func BoundsForTile(radii spacemath.Vec3, heightScale float64) func(id tileid.ID, mm *tile.MinMaxPyramid) [2][3]float64 {
	return func(id tileid.ID, mm *tile.MinMaxPyramid) [2][3]float64 {
		corners := tileid.CornersLngLat(id)

		lo := float64(mm.Min()) * heightScale
		hi := float64(mm.Max()) * heightScale

		var box spacemath.AABB
		first := true
		for _, c := range corners {
			for _, h := range [2]float64{lo, hi} {
				p := spacemath.SurfacePoint(radii, c.Lng, c.Lat, h)
				if first {
					box = spacemath.AABB{Min: p, Max: p}
					first = false
					continue
				}
				box = box.Union(spacemath.AABB{Min: p, Max: p})
			}
		}
		return [2][3]float64{box.Min, box.Max}
	}
}
