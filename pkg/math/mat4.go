package math

// Mat4 is a 4x4 matrix in column-major order (OpenGL compatible).
// Layout: [m0 m4 m8  m12]
//
//	[m1 m5 m9  m13]
//	[m2 m6 m10 m14]
//	[m3 m7 m11 m15]
//
// Mat4 is the float32 form handed to the GPU. Geocentric math stays in
// float64 and is narrowed with Mat4FromFloat64 only after the large
// translations have cancelled (e.g. after view * model).
type Mat4 [16]float32

// Mat4FromFloat64 narrows a column-major float64 matrix.
func Mat4FromFloat64(m [16]float64) Mat4 {
	var out Mat4
	for i, v := range m {
		out[i] = float32(v)
	}
	return out
}

// Mat3x3 returns the upper-left 3x3 portion of the matrix, column-major.
// For rigid transforms this is also the normal matrix.
func (m Mat4) Mat3x3() [9]float32 {
	return [9]float32{
		m[0], m[1], m[2],
		m[4], m[5], m[6],
		m[8], m[9], m[10],
	}
}

// Ptr returns a pointer to the first element (for OpenGL uniform calls).
func (m *Mat4) Ptr() *float32 {
	return &m[0]
}
