package protein

// Residue is a carbon-alpha atom together with all atoms of its residue.
type Residue struct {
	CAlpha  Atom
	Members []Atom
	mass    float64
}

func newResidue(ca Atom, members []Atom) *Residue {
	r := &Residue{CAlpha: ca, Members: members}
	for _, a := range members {
		r.mass += a.Mass()
	}
	return r
}

// Mass is the sum of the masses of all member atoms.
func (r *Residue) Mass() float64 {
	return r.mass
}

// Number returns the residue sequence number from the structure file.
func (r *Residue) Number() int {
	return r.CAlpha.Residue
}
