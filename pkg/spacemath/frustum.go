package spacemath

import "math"

// Plane is a half-space boundary: a point p is on the positive (inside)
// side of the plane iff Normal.Dot(p) + D >= 0.
type Plane struct {
	Normal Vec3
	D      float64
}

// Distance returns the signed distance of pt from the plane; positive
// values are on the inside/positive half-space.
func (p Plane) Distance(pt Vec3) float64 {
	return p.Normal.Dot(pt) + p.D
}

// Frustum holds the six clipping planes of a view frustum in whatever space
// the source matrix was defined in (eye space if built from a projection
// matrix alone, model space if built from projection*view).
type Frustum struct {
	Planes [6]Plane
}

// FrustumFromMatrix extracts the six frustum planes from a combined
// clip-space matrix (e.g. projection, or projection*view) using the
// standard Gribb/Hartmann plane extraction. Plane order is
// [left, right, bottom, top, near, far].
func FrustumFromMatrix(m Mat4) Frustum {
	// m is column-major: element (row, col) lives at m[col*4+row].
	at := func(row, col int) float64 { return m[col*4+row] }

	row := func(r int) [4]float64 {
		return [4]float64{at(r, 0), at(r, 1), at(r, 2), at(r, 3)}
	}

	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	mk := func(a, b, c, d float64) Plane {
		n := Vec3{a, b, c}
		length := n.Len()
		if length == 0 {
			return Plane{Normal: n, D: d}
		}
		invLen := 1.0 / length
		return Plane{Normal: n.Mul(invLen), D: d * invLen}
	}

	add := func(a, b [4]float64) (float64, float64, float64, float64) {
		return a[0] + b[0], a[1] + b[1], a[2] + b[2], a[3] + b[3]
	}
	sub := func(a, b [4]float64) (float64, float64, float64, float64) {
		return a[0] - b[0], a[1] - b[1], a[2] - b[2], a[3] - b[3]
	}

	left := mk(add(r3, r0))
	right := mk(sub(r3, r0))
	bottom := mk(add(r3, r1))
	top := mk(sub(r3, r1))
	near := mk(add(r3, r2))
	far := mk(sub(r3, r2))

	return Frustum{Planes: [6]Plane{left, right, bottom, top, near, far}}
}

// HorizontalFOV returns the full horizontal field of view (radians) encoded
// in a perspective projection matrix built the way mgl64.Perspective builds
// one.
func HorizontalFOV(proj Mat4) float64 {
	m00 := proj[0]
	if m00 == 0 {
		return 0
	}
	return 2 * math.Atan(1/m00)
}

// VerticalFOV returns the full vertical field of view (radians) encoded in
// a perspective projection matrix.
func VerticalFOV(proj Mat4) float64 {
	m11 := proj[5]
	if m11 == 0 {
		return 0
	}
	return 2 * math.Atan(1/m11)
}

// CameraPosition returns the camera's position in the space the inverse of
// view maps into, i.e. the translation column of view.Inv().
func CameraPosition(view Mat4) Vec3 {
	inv := view.Inv()
	return Vec3{inv[12], inv[13], inv[14]}
}

// NormalMatrix returns the inverse-transpose of the upper-left 3x3 of m,
// used to transform normal vectors correctly under non-uniform scale.
func NormalMatrix(m Mat4) Mat3 {
	// upper-left 3x3, row-major for readability of the cofactor expansion.
	a, b, c := m[0], m[4], m[8]
	d, e, f := m[1], m[5], m[9]
	g, h, i := m[2], m[6], m[10]

	// cofactors of the 3x3 matrix [[a b c][d e f][g h i]]
	c00 := e*i - f*h
	c01 := -(d*i - f*g)
	c02 := d*h - e*g
	c10 := -(b*i - c*h)
	c11 := a*i - c*g
	c12 := -(a*h - b*g)
	c20 := b*f - c*e
	c21 := -(a*f - c*d)
	c22 := a*e - b*d

	det := a*c00 + b*c01 + c*c02
	if det == 0 {
		return Mat3{1, 0, 0, 0, 1, 0, 0, 0, 1}
	}
	invDet := 1.0 / det

	// inverse(M) = cofactor(M)^T / det, so transpose(inverse(M)) is just
	// the cofactor matrix itself, scaled and laid out row-major.
	return Mat3{
		c00 * invDet, c01 * invDet, c02 * invDet,
		c10 * invDet, c11 * invDet, c12 * invDet,
		c20 * invDet, c21 * invDet, c22 * invDet,
	}
}
