// Package tileid implements the HEALPix-style quad-tree addressing scheme
// used to name tiles on the twelve base patches of a planet: a level,
// a root patch index in [0,12), and a Morton-coded patch index locating the
// tile within its root at that level.
package tileid

import "math"

// ID names a single tile: which of the 12 base (root) patches it descends
// from, how deep it is, and where inside the root it sits.
type ID struct {
	Level int
	Root  int
	Patch int64
}

// Root returns the level-0 tile for the given base patch.
func Root(root int) ID {
	return ID{Level: 0, Root: root, Patch: 0}
}

// NSide returns the number of tiles along one edge of the root patch at
// id's level: 2^level.
func NSide(id ID) int {
	return 1 << uint(id.Level)
}

// ChildID returns the k-th child (k in [0,3]) of parent. Quadrant layout:
//
//	2 (NW) 3 (NE)
//	0 (SW) 1 (SE)
func ChildID(parent ID, k int) ID {
	if k < 0 || k > 3 {
		panic("tileid: child index out of range")
	}
	return ID{Level: parent.Level + 1, Root: parent.Root, Patch: parent.Patch*4 + int64(k)}
}

// ParentID returns the parent of child and true, or the zero ID and false
// if child is already a root tile.
func ParentID(child ID) (ID, bool) {
	if child.Level == 0 {
		return ID{}, false
	}
	return ID{Level: child.Level - 1, Root: child.Root, Patch: child.Patch / 4}, true
}

// BaseXY decodes id's Morton-coded patch index into integer (x,y)
// coordinates within its root, each in [0, NSide(id)).
func BaseXY(id ID) (root, x, y int) {
	return id.Root, deinterleaveEven(uint64(id.Patch)), deinterleaveEven(uint64(id.Patch) >> 1)
}

// FromXY builds the ID at the given level/root for integer coordinates
// (x,y) in [0, 2^level).
func FromXY(level, root, x, y int) ID {
	return ID{Level: level, Root: root, Patch: int64(interleave(uint32(x), uint32(y)))}
}

func interleave(x, y uint32) uint64 {
	return spreadBits(uint64(x)) | (spreadBits(uint64(y)) << 1)
}

func spreadBits(v uint64) uint64 {
	v &= 0x00000000ffffffff
	v = (v | (v << 16)) & 0x0000FFFF0000FFFF
	v = (v | (v << 8)) & 0x00FF00FF00FF00FF
	v = (v | (v << 4)) & 0x0F0F0F0F0F0F0F0F
	v = (v | (v << 2)) & 0x3333333333333333
	v = (v | (v << 1)) & 0x5555555555555555
	return v
}

func deinterleaveEven(v uint64) int {
	v &= 0x5555555555555555
	v = (v | (v >> 1)) & 0x3333333333333333
	v = (v | (v >> 2)) & 0x0F0F0F0F0F0F0F0F
	v = (v | (v >> 4)) & 0x00FF00FF00FF00FF
	v = (v | (v >> 8)) & 0x0000FFFF0000FFFF
	v = (v | (v >> 16)) & 0x00000000FFFFFFFF
	return int(v)
}

// baseCenters holds the (lng, lat) of the 12 HEALPix base patch centers,
// in radians: four around the north polar cap, four on the equatorial
// belt, four around the south polar cap, matching the standard Nside=1
// base pixel layout.
var baseCenters = func() [12][2]float64 {
	var c [12][2]float64
	poleLat := math.Asin(2.0 / 3.0)
	for i := 0; i < 4; i++ {
		lng := (float64(i)*90 + 45) * math.Pi / 180
		c[i] = [2]float64{lng, poleLat}
		c[4+i] = [2]float64{float64(i) * 90 * math.Pi / 180, 0}
		c[8+i] = [2]float64{(float64(i)*90 + 45) * math.Pi / 180, -poleLat}
	}
	return c
}()

// baseBasis returns an orthonormal (center, right, up) frame for a root
// patch, tangent to the unit sphere at the patch's center direction.
func baseBasis(root int) (center, right, up [3]float64) {
	lng, lat := baseCenters[root][0], baseCenters[root][1]
	cl, sl := math.Cos(lat), math.Sin(lat)
	cg, sg := math.Cos(lng), math.Sin(lng)
	center = [3]float64{cl * cg, sl, cl * sg}
	// East tangent (derivative w.r.t. longitude, normalized).
	right = [3]float64{-sg, 0, cg}
	// North tangent (derivative w.r.t. latitude, normalized).
	up = [3]float64{-sl * cg, cl, -sl * sg}
	return
}

// LngLat is a point on the sphere in radians.
type LngLat struct {
	Lng float64
	Lat float64
}

func normalize(v [3]float64) [3]float64 {
	n := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	return [3]float64{v[0] / n, v[1] / n, v[2] / n}
}

func toLngLat(v [3]float64) LngLat {
	return LngLat{Lng: math.Atan2(v[2], v[0]), Lat: math.Asin(v[1])}
}

// CornersLngLat returns id's four corners on the sphere in canonical
// (N, W, S, E) order. The labels name a fixed traversal around the tile's
// parameter square rather than true compass directions away from the base
// patch center - only the twelve root patches are laid out at the real
// HEALPix cardinal centers; corners of a descendant tile are ordered
// consistently with their parent's, which is all the LOD visitor needs.
func CornersLngLat(id ID) [4]LngLat {
	root, x, y := BaseXY(id)
	n := float64(NSide(id))
	center, right, up := baseBasis(root)

	project := func(u, v float64) LngLat {
		a := u*2 - 1
		b := v*2 - 1
		dir := [3]float64{
			center[0] + a*right[0] + b*up[0],
			center[1] + a*right[1] + b*up[1],
			center[2] + a*right[2] + b*up[2],
		}
		return toLngLat(normalize(dir))
	}

	x0, x1 := float64(x)/n, float64(x+1)/n
	y0, y1 := float64(y)/n, float64(y+1)/n

	return [4]LngLat{
		project(x0, y1), // N
		project(x0, y0), // W
		project(x1, y0), // S
		project(x1, y1), // E
	}
}

// F1 returns the linear scale factor mapping id's local unit square onto
// its root patch's parameter square: 1/NSide(id).
func F1(id ID) float64 {
	return 1.0 / float64(NSide(id))
}

// F2 returns the (u,v) offset of id's origin corner within its root
// patch's [0,1]x[0,1] parameter square.
func F2(id ID) (u, v float64) {
	_, x, y := BaseXY(id)
	n := float64(NSide(id))
	return float64(x) / n, float64(y) / n
}
