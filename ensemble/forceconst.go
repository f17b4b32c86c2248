package ensemble

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// GasConstant is the molar gas constant in J/(mol K). Energies are reported
// in kJ/mol, so kT = GasConstant * T * 0.001.
const GasConstant = 8.31

var (
	// ErrNoVariance is returned when the displacements of an ensemble do not
	// vary, so that force constants are undefined.
	ErrNoVariance = errors.New("the ensemble has no variance")

	// ErrNoSamples is returned when averages are requested before any sample
	// was added.
	ErrNoSamples = errors.New("no samples have been added")
)

// KT returns the thermal energy at temperature t, in kJ/mol.
func KT(t float64) float64 {
	return GasConstant * t * 0.001
}

// ForceConstants holds, for every pair of residues of a segment, the force
// constant between them and their distance.
type ForceConstants struct {
	K *mat.SymDense
	R *mat.SymDense
}

// Len returns the number of residues.
func (fc *ForceConstants) Len() int {
	n, _ := fc.K.Dims()
	return n
}

// Diagonal returns the force constants and distances of all residue pairs
// that are offset residues apart, in order of the first residue.
func (fc *ForceConstants) Diagonal(offset int) (ks, rs []float64) {
	n := fc.Len()
	for i := 0; i+offset < n; i++ {
		ks = append(ks, fc.K.At(i+offset, i))
		rs = append(rs, fc.R.At(i, i+offset))
	}
	return ks, rs
}

// Packed returns a single matrix holding the force constants below the
// diagonal and the distances above it.
func (fc *ForceConstants) Packed() *mat.Dense {
	n := fc.Len()
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < i; j++ {
			m.Set(i, j, fc.K.At(i, j))
			m.Set(j, i, fc.R.At(j, i))
		}
	}
	return m
}

// TrivialModes is the number of lowest eigenmodes of a set of n residues
// that describe rigid body motion.
func TrivialModes(n int) int {
	if n == 2 {
		return 5
	}
	return 6
}

// Extract derives force constants from the covariance of the displacement
// vectors of a segment. The inverse of the covariance is built from its
// eigenvectors, skipping the lowest modes that correspond to rigid body
// motion:
//
//	K(i,j) = -kT * sum_{k>=cutoff} (v(3i,k)v(3j,k) + v(3i+1,k)v(3j+1,k) +
//	         v(3i+2,k)v(3j+2,k)) / lambda(k)
//
// The distance between residues i and j is taken from disp.
func Extract(cov mat.Symmetric, disp []float64, temperature float64) (*ForceConstants, error) {
	dim := cov.SymmetricDim()
	if dim == 0 || dim%3 != 0 {
		return nil, fmt.Errorf("A covariance matrix of size %d does not "+
			"describe whole residues.", dim)
	}
	if len(disp) != dim {
		return nil, fmt.Errorf("The displacement vector has length %d, but "+
			"the covariance matrix has size %d.", len(disp), dim)
	}
	n := dim / 3

	var eig mat.EigenSym
	if !eig.Factorize(cov, true) {
		return nil, fmt.Errorf("The eigen decomposition of the covariance " +
			"matrix failed.")
	}
	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)
	raw := vecs.RawMatrix()
	at := func(r, c int) float64 { return raw.Data[r*raw.Stride+c] }

	kT := KT(temperature)
	cutoff := TrivialModes(n)
	fc := &ForceConstants{
		K: mat.NewSymDense(n, nil),
		R: mat.NewSymDense(n, nil),
	}
	for i := 0; i < n; i++ {
		for j := 0; j < i; j++ {
			var sum float64
			for k := cutoff; k < dim; k++ {
				sum += (at(3*i, k)*at(3*j, k) +
					at(3*i+1, k)*at(3*j+1, k) +
					at(3*i+2, k)*at(3*j+2, k)) / vals[k]
			}
			fc.K.SetSym(i, j, -sum*kT)
			fc.R.SetSym(i, j, distance(disp, i, j))
		}
	}
	return fc, nil
}

func distance(disp []float64, i, j int) float64 {
	dx := disp[3*i] - disp[3*j]
	dy := disp[3*i+1] - disp[3*j+1]
	dz := disp[3*i+2] - disp[3*j+2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Sample is what one ensemble window yields for one segment.
type Sample struct {
	ForceConstants *ForceConstants
	Displacement   []float64
	Covariance     *mat.SymDense
}

// MeanSquareFluctuation returns, for each residue, the trace of its 3x3
// block of the covariance matrix.
func (s *Sample) MeanSquareFluctuation() []float64 {
	return meanSquareFluctuation(s.Covariance)
}

func meanSquareFluctuation(cov mat.Symmetric) []float64 {
	msf := make([]float64, cov.SymmetricDim()/3)
	for i := range msf {
		msf[i] = cov.At(3*i, 3*i) + cov.At(3*i+1, 3*i+1) + cov.At(3*i+2, 3*i+2)
	}
	return msf
}

// FromCovariance computes a sample directly from a covariance matrix, for
// when no trajectory is available. The displacement of each coordinate is
// taken to be the square root of its variance.
func FromCovariance(cov mat.Symmetric, temperature float64) (*Sample, error) {
	dim := cov.SymmetricDim()
	disp := make([]float64, dim)
	var trace float64
	for i := range disp {
		v := cov.At(i, i)
		trace += v
		disp[i] = math.Sqrt(v)
	}
	if !(trace > 0) {
		return nil, ErrNoVariance
	}
	fc, err := Extract(cov, disp, temperature)
	if err != nil {
		return nil, err
	}
	copied := mat.NewSymDense(dim, nil)
	copied.CopySym(cov)
	return &Sample{ForceConstants: fc, Displacement: disp, Covariance: copied}, nil
}
