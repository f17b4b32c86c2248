package protein

import "strings"

// Coords is a position in three dimensional space, in Angstroms.
type Coords [3]float64

// Atom is a single ATOM record from a structure file.
type Atom struct {
	Coords Coords

	// Type is the four character atom name field, e.g., "CA  ".
	Type string

	// Number is the 1-based position of the atom in file order. It is also
	// the index of the atom in every trajectory frame.
	Number int

	// Residue is the residue sequence number the atom belongs to.
	Residue int

	// ResidueName is the three letter residue name, e.g., "ALA".
	ResidueName string
}

var elementMass = map[byte]float64{
	'C': 12.011,
	'O': 15.999,
	'N': 14.077,
	'S': 32.06,
}

// Mass returns the mass of the atom derived from the first letter of its
// type. Unknown elements are treated as hydrogen.
func (a Atom) Mass() float64 {
	name := strings.TrimSpace(a.Type)
	if len(name) == 0 {
		return 1.008
	}
	if m, ok := elementMass[name[0]]; ok {
		return m
	}
	return 1.008
}

// IsCAlpha returns true when the atom is a carbon-alpha atom. Alternate
// locations other than 'A' are not considered.
func (a Atom) IsCAlpha() bool {
	return a.Type == "CA  " || a.Type == "CA A"
}
