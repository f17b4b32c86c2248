package nma

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/BurntSushi/reach/ensemble"
)

const (
	// Mode is the 1-based index of the non-trivial mode that is reported
	// as the weighted eigenvector.
	Mode = 1

	// Frequency converts the square root of an eigenvalue of a mass
	// weighted Hessian into a wave number.
	Frequency = 53.0516
)

// Modes are the normal modes of a mass weighted Hessian.
type Modes struct {
	// Eigenvalues in ascending order and the matching eigenvectors in the
	// columns of Vectors.
	Values  []float64
	Vectors *mat.Dense

	// Trivial is the number of lowest modes describing rigid body motion.
	Trivial int

	// Frequency * sqrt(|lambda|) for every eigenvalue.
	Weighted []float64

	// The eigenvector of the reported mode with every component divided by
	// the square root of the mass of its residue.
	WeightedVector []float64

	// Predicted mean square fluctuation of every residue.
	MeanSquareFluctuation []float64
}

// Analyze decomposes the mass weighted Hessian h of len(masses) residues
// at the given temperature.
func Analyze(h mat.Symmetric, masses []float64, temperature float64) (*Modes, error) {
	dim := h.SymmetricDim()
	n := len(masses)
	if dim != 3*n {
		return nil, fmt.Errorf("%w: a Hessian of size %d for %d residues",
			ErrDimension, dim, n)
	}
	if n < 2 {
		return nil, fmt.Errorf("%w: normal modes need at least two residues",
			ErrDimension)
	}

	var eig mat.EigenSym
	if !eig.Factorize(h, true) {
		return nil, fmt.Errorf("The eigen decomposition of the Hessian failed.")
	}
	m := &Modes{
		Values:                eig.Values(nil),
		Vectors:               &mat.Dense{},
		Trivial:               ensemble.TrivialModes(n),
		Weighted:              make([]float64, dim),
		WeightedVector:        make([]float64, dim),
		MeanSquareFluctuation: make([]float64, n),
	}
	eig.VectorsTo(m.Vectors)

	for i, v := range m.Values {
		m.Weighted[i] = Frequency * math.Sqrt(math.Abs(v))
	}
	mode := m.Trivial + Mode - 1
	for c := 0; c < dim; c++ {
		m.WeightedVector[c] = m.Vectors.At(c, mode) / math.Sqrt(masses[c/3])
	}

	kT := ensemble.KT(temperature)
	for i := 0; i < n; i++ {
		var sum float64
		for j := m.Trivial; j < dim; j++ {
			for a := 0; a < 3; a++ {
				v := m.Vectors.At(3*i+a, j)
				sum += v * v / m.Values[j]
			}
		}
		m.MeanSquareFluctuation[i] = sum / masses[i] * kT
	}
	return m, nil
}
