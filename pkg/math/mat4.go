package math

import "github.com/chewxy/math32"

// Mat4 is a 4x4 matrix in column-major order (OpenGL compatible).
// Layout: [m0 m4 m8  m12]
//
//	[m1 m5 m9  m13]
//	[m2 m6 m10 m14]
//	[m3 m7 m11 m15]
type Mat4 [16]float32

// Identity returns an identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Radians converts degrees to radians.
func Radians(deg float32) float32 {
	return deg * math32.Pi / 180
}

// Perspective returns a perspective projection matrix.
// fovY is in radians, aspect is width/height.
func Perspective(fovY, aspect, near, far float32) Mat4 {
	f := 1 / math32.Tan(fovY/2)
	nf := 1 / (near - far)

	return Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, (far + near) * nf, -1,
		0, 0, 2 * far * near * nf, 0,
	}
}

// LookAt returns a view matrix looking from eye to center with up direction.
func LookAt(eye, center, up Vec3) Mat4 {
	f := center.Sub(eye).Normalize()
	s := f.Cross(up).Normalize()
	u := s.Cross(f)

	return Mat4{
		s.X, u.X, -f.X, 0,
		s.Y, u.Y, -f.Y, 0,
		s.Z, u.Z, -f.Z, 0,
		-s.Dot(eye), -u.Dot(eye), f.Dot(eye), 1,
	}
}

// Translate returns a translation matrix.
func Translate(x, y, z float32) Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		x, y, z, 1,
	}
}

// Scale returns a scale matrix.
func Scale(x, y, z float32) Mat4 {
	return Mat4{
		x, 0, 0, 0,
		0, y, 0, 0,
		0, 0, z, 0,
		0, 0, 0, 1,
	}
}

// RotateX returns a rotation matrix around the X axis.
// angle is in radians.
func RotateX(angle float32) Mat4 {
	s, c := math32.Sincos(angle)

	return Mat4{
		1, 0, 0, 0,
		0, c, s, 0,
		0, -s, c, 0,
		0, 0, 0, 1,
	}
}

// RotateY returns a rotation matrix around the Y axis.
// angle is in radians.
func RotateY(angle float32) Mat4 {
	s, c := math32.Sincos(angle)

	return Mat4{
		c, 0, -s, 0,
		0, 1, 0, 0,
		s, 0, c, 0,
		0, 0, 0, 1,
	}
}

// RotateZ returns a rotation matrix around the Z axis.
// angle is in radians.
func RotateZ(angle float32) Mat4 {
	s, c := math32.Sincos(angle)

	return Mat4{
		c, s, 0, 0,
		-s, c, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// EulerXYZ returns RotateX * RotateY * RotateZ for angles in degrees.
// Applied to a column vector, Z acts first.
func EulerXYZ(deg Vec3) Mat4 {
	return RotateX(Radians(deg.X)).Mul(RotateY(Radians(deg.Y))).Mul(RotateZ(Radians(deg.Z)))
}

// EulerZYX returns RotateZ * RotateY * RotateX for angles in degrees.
// Applied to a column vector, X acts first.
func EulerZYX(deg Vec3) Mat4 {
	return RotateZ(Radians(deg.Z)).Mul(RotateY(Radians(deg.Y))).Mul(RotateX(Radians(deg.X)))
}

// Mul multiplies this matrix by another (m * other).
func (m Mat4) Mul(other Mat4) Mat4 {
	var result Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			result[col*4+row] =
				m[0*4+row]*other[col*4+0] +
					m[1*4+row]*other[col*4+1] +
					m[2*4+row]*other[col*4+2] +
					m[3*4+row]*other[col*4+3]
		}
	}
	return result
}

// TransformPoint transforms a 3D point by this matrix (assumes w=1).
func (m Mat4) TransformPoint(p [3]float32) [3]float32 {
	x := m[0]*p[0] + m[4]*p[1] + m[8]*p[2] + m[12]
	y := m[1]*p[0] + m[5]*p[1] + m[9]*p[2] + m[13]
	z := m[2]*p[0] + m[6]*p[1] + m[10]*p[2] + m[14]
	w := m[3]*p[0] + m[7]*p[1] + m[11]*p[2] + m[15]
	if w != 0 && w != 1 {
		return [3]float32{x / w, y / w, z / w}
	}
	return [3]float32{x, y, z}
}

// TransformVec3 transforms a Vec3 point by this matrix.
func (m Mat4) TransformVec3(v Vec3) Vec3 {
	return FromArray(m.TransformPoint(v.Array()))
}

// TransformDirection transforms a direction vector (ignores translation).
func (m Mat4) TransformDirection(d [3]float32) [3]float32 {
	return [3]float32{
		m[0]*d[0] + m[4]*d[1] + m[8]*d[2],
		m[1]*d[0] + m[5]*d[1] + m[9]*d[2],
		m[2]*d[0] + m[6]*d[1] + m[10]*d[2],
	}
}

// NormalMatrix returns the inverse transpose of the upper-left 3x3, padded
// to a Mat4, for transforming normals under non-uniform scale.
func (m Mat4) NormalMatrix() Mat4 {
	inv := m.Inverse()
	return Mat4{
		inv[0], inv[4], inv[8], 0,
		inv[1], inv[5], inv[9], 0,
		inv[2], inv[6], inv[10], 0,
		0, 0, 0, 1,
	}
}

// Ptr returns a pointer to the first element (for OpenGL uniform calls).
func (m *Mat4) Ptr() *float32 {
	return &m[0]
}

// Inverse returns the inverse of the matrix, computed from the 2x2 minors
// of its upper and lower column pairs. A singular matrix yields Identity.
func (m Mat4) Inverse() Mat4 {
	a00, a01, a02, a03 := m[0], m[1], m[2], m[3]
	a10, a11, a12, a13 := m[4], m[5], m[6], m[7]
	a20, a21, a22, a23 := m[8], m[9], m[10], m[11]
	a30, a31, a32, a33 := m[12], m[13], m[14], m[15]

	s0 := a00*a11 - a01*a10
	s1 := a00*a12 - a02*a10
	s2 := a00*a13 - a03*a10
	s3 := a01*a12 - a02*a11
	s4 := a01*a13 - a03*a11
	s5 := a02*a13 - a03*a12

	c0 := a20*a31 - a21*a30
	c1 := a20*a32 - a22*a30
	c2 := a20*a33 - a23*a30
	c3 := a21*a32 - a22*a31
	c4 := a21*a33 - a23*a31
	c5 := a22*a33 - a23*a32

	det := s0*c5 - s1*c4 + s2*c3 + s3*c2 - s4*c1 + s5*c0
	if det == 0 {
		return Identity()
	}
	inv := 1 / det

	return Mat4{
		(a11*c5 - a12*c4 + a13*c3) * inv,
		(a02*c4 - a01*c5 - a03*c3) * inv,
		(a31*s5 - a32*s4 + a33*s3) * inv,
		(a22*s4 - a21*s5 - a23*s3) * inv,

		(a12*c2 - a10*c5 - a13*c1) * inv,
		(a00*c5 - a02*c2 + a03*c1) * inv,
		(a32*s2 - a30*s5 - a33*s1) * inv,
		(a20*s5 - a22*s2 + a23*s1) * inv,

		(a10*c4 - a11*c2 + a13*c0) * inv,
		(a01*c2 - a00*c4 - a03*c0) * inv,
		(a30*s4 - a31*s2 + a33*s0) * inv,
		(a21*s2 - a20*s4 - a23*s0) * inv,

		(a11*c1 - a10*c3 - a12*c0) * inv,
		(a00*c3 - a01*c1 + a02*c0) * inv,
		(a31*s1 - a30*s3 - a32*s0) * inv,
		(a20*s3 - a21*s1 + a22*s0) * inv,
	}
}
