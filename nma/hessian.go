package nma

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/BurntSushi/reach/protein"
)

// ErrDimension is returned when matrix, vector or selection sizes do not
// agree.
var ErrDimension = errors.New("dimension mismatch")

// Classifier returns the interaction category of two residues.
type Classifier interface {
	Classify(i, j int) protein.StructureType
}

// ForceConstants chooses the spring constant of a residue pair.
type ForceConstants interface {
	Select(t protein.StructureType, offset int, r2 float64) float64
}

// Hessian assembles the 3Nx3N Hessian of springs between every pair of the N
// residues at positions (x1, y1, z1, x2, ...) and weights it by mass:
//
//	H(3i+a, 3j+b) / sqrt(m(i) m(j))
//
// The spring between residues i and j is chosen by kk from their category
// and sequence offset.
func Hessian(positions, masses []float64, c Classifier, kk ForceConstants) (*mat.SymDense, error) {
	n := len(masses)
	if n == 0 {
		return nil, fmt.Errorf("%w: a Hessian needs at least one residue",
			ErrDimension)
	}
	if len(positions) != 3*n {
		return nil, fmt.Errorf("%w: %d coordinates for %d residues",
			ErrDimension, len(positions), n)
	}

	dim := 3 * n
	h := make([]float64, dim*dim)
	add := func(row, col int, v float64) { h[row*dim+col] += v }
	for i := 0; i < n; i++ {
		for j := 0; j < i; j++ {
			var dr [3]float64
			var r2 float64
			for a := 0; a < 3; a++ {
				dr[a] = positions[3*i+a] - positions[3*j+a]
				r2 += dr[a] * dr[a]
			}
			k := kk.Select(c.Classify(i+1, j+1), i-j, r2)
			for a := 0; a < 3; a++ {
				for b := 0; b < 3; b++ {
					v := k * dr[a] * dr[b] / r2
					add(3*i+a, 3*i+b, v)
					add(3*i+a, 3*j+b, -v)
					add(3*j+a, 3*i+b, -v)
					add(3*j+a, 3*j+b, v)
				}
			}
		}
	}
	for row := 0; row < dim; row++ {
		for col := 0; col < dim; col++ {
			h[row*dim+col] /= math.Sqrt(masses[row/3] * masses[col/3])
		}
	}
	return mat.NewSymDense(dim, h), nil
}
