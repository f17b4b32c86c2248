package fit

import (
	"fmt"
	"math"

	"github.com/BurntSushi/reach/protein"
)

// Reference is the geometry that frames are superposed onto.
type Reference struct {
	// X is the 3xN matrix of positions relative to the center of mass.
	X      []float64
	masses []float64
}

// NewReference builds a reference from absolute positions and the mass of
// each atom. If masses is nil, all atoms weigh the same.
func NewReference(coords []protein.Coords, masses []float64) (*Reference, error) {
	if len(coords) == 0 {
		return nil, fmt.Errorf("A reference needs at least one atom.")
	}
	if masses == nil {
		masses = make([]float64, len(coords))
		for i := range masses {
			masses[i] = 1
		}
	}
	if len(masses) != len(coords) {
		return nil, fmt.Errorf("There are %d masses for %d atoms.",
			len(masses), len(coords))
	}
	ref := &Reference{masses: masses}
	ref.X = ref.relative(coords)
	return ref, nil
}

// Len returns the number of atoms in the reference.
func (ref *Reference) Len() int {
	return len(ref.masses)
}

// Relative returns the reference position of atom i relative to the center
// of mass.
func (ref *Reference) Relative(i int) [3]float64 {
	cols := ref.Len()
	return [3]float64{ref.X[i], ref.X[cols+i], ref.X[2*cols+i]}
}

// relative builds the 3xN matrix of coords minus their center of mass.
func (ref *Reference) relative(coords []protein.Coords) []float64 {
	var com [3]float64
	var total float64
	for i, c := range coords {
		m := ref.masses[i]
		total += m
		com[0] += m * c[0]
		com[1] += m * c[1]
		com[2] += m * c[2]
	}

	cols := len(coords)
	Y := make([]float64, 3*cols)
	for i, c := range coords {
		for r := 0; r < 3; r++ {
			Y[r*cols+i] = c[r] - com[r]/total
		}
	}
	return Y
}

// Superpose finds the rotation that best superposes current onto the
// reference and returns the rotated positions of current, relative to its
// center of mass, as a vector (x1, y1, z1, x2, ...) of length 3N.
//
// Let C = X(Y^T) be the covariance of the reference positions X and the
// current positions Y, and C = US(V^T) its singular value decomposition. The
// rotation is R = V diag(1, 1, d) U^T where d = sign(det(V U^T)), which is
// always a proper rotation. The returned positions are R^T Y.
func (ref *Reference) Superpose(current []protein.Coords) ([]float64, error) {
	cols := ref.Len()
	if len(current) != cols {
		return nil, fmt.Errorf("Cannot superpose %d atoms onto a reference "+
			"of %d atoms.", len(current), cols)
	}
	Y := ref.relative(current)

	U, V, ok := covariant_3x3(cols, ref.X, Y).svd()
	if !ok {
		return nil, fmt.Errorf("The singular value decomposition of the " +
			"covariance matrix failed.")
	}
	UT := U.transpose()
	if V.mult(UT).det() < 0 {
		V = V.mult(matrix3{
			1, 0, 0,
			0, 1, 0,
			0, 0, -1,
		})
	}
	RT := V.mult(UT).transpose()

	rotated := mult_3x3_3xN(cols, RT[:], Y)
	d := make([]float64, 3*cols)
	for i := 0; i < cols; i++ {
		d[3*i] = rotated[i]
		d[3*i+1] = rotated[cols+i]
		d[3*i+2] = rotated[2*cols+i]
	}
	return d, nil
}

// Deviation returns the root mean square distance between positions returned
// by Superpose and the reference.
func (ref *Reference) Deviation(d []float64) float64 {
	cols := ref.Len()
	var sum float64
	for i := 0; i < cols; i++ {
		for r := 0; r < 3; r++ {
			diff := d[3*i+r] - ref.X[r*cols+i]
			sum += diff * diff
		}
	}
	return math.Sqrt(sum / float64(cols))
}

// RMSD computes the root mean square deviation of struct1 and struct2 after
// optimal superposition, weighting all atoms equally.
//
// Note that RMSD will panic if the lengths of struct1 and struct2 differ
// or if they are empty.
func RMSD(struct1, struct2 []protein.Coords) float64 {
	if len(struct1) != len(struct2) {
		panic(fmt.Sprintf("Computing the RMSD of two structures require that "+
			"they have equal length. But the lengths of the two structures "+
			"provided are %d and %d.", len(struct1), len(struct2)))
	}
	ref, err := NewReference(struct2, nil)
	if err != nil {
		panic(err)
	}
	d, err := ref.Superpose(struct1)
	if err != nil {
		panic(err)
	}
	return ref.Deviation(d)
}
