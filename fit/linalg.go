package fit

import (
	"gonum.org/v1/gonum/mat"
)

// Represents a 3x3 matrix, in row-major order
// | 0 1 2 |
// | 3 4 5 |
// | 6 7 8 |
type matrix3 [9]float64

var identity3 = matrix3{
	1, 0, 0,
	0, 1, 0,
	0, 0, 1,
}

func (a matrix3) mult(b matrix3) matrix3 {
	var m matrix3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m[r*3+c] = a[r*3]*b[c] + a[r*3+1]*b[3+c] + a[r*3+2]*b[6+c]
		}
	}
	return m
}

func (a matrix3) transpose() matrix3 {
	return matrix3{
		a[0], a[3], a[6],
		a[1], a[4], a[7],
		a[2], a[5], a[8],
	}
}

func (a matrix3) det() float64 {
	// 048 + 156 + 237 - 246 - 138 - 057
	return a[0]*a[4]*a[8] +
		a[1]*a[5]*a[6] +
		a[2]*a[3]*a[7] -
		a[2]*a[4]*a[6] -
		a[1]*a[3]*a[8] -
		a[0]*a[5]*a[7]
}

// apply returns a*v.
func (a matrix3) apply(v [3]float64) [3]float64 {
	return [3]float64{
		a[0]*v[0] + a[1]*v[1] + a[2]*v[2],
		a[3]*v[0] + a[4]*v[1] + a[5]*v[2],
		a[6]*v[0] + a[7]*v[1] + a[8]*v[2],
	}
}

func mult_3x3_3xN(cols int, a, b []float64) []float64 {
	m := make([]float64, 3*cols)
	for r := 0; r < 3; r++ {
		for c := 0; c < cols; c++ {
			for i := 0; i < 3; i++ {
				m[r*cols+c] += a[r*3+i] * b[i*cols+c]
			}
		}
	}
	return m
}

// covariant_3x3 computes a(b^T) for two 3xN matrices.
func covariant_3x3(cols int, a, b []float64) matrix3 {
	var C matrix3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			for i := 0; i < cols; i++ {
				C[r*3+c] += a[r*cols+i] * b[c*cols+i]
			}
		}
	}
	return C
}

// svd computes the decomposition A = U S V^T and returns U and V.
func (A matrix3) svd() (matrix3, matrix3, bool) {
	var dec mat.SVD
	if !dec.Factorize(mat.NewDense(3, 3, A[:]), mat.SVDFull) {
		return identity3, identity3, false
	}
	var u, v mat.Dense
	dec.UTo(&u)
	dec.VTo(&v)
	return fromDense(&u), fromDense(&v), true
}

func fromDense(m *mat.Dense) matrix3 {
	var a matrix3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			a[r*3+c] = m.At(r, c)
		}
	}
	return a
}
