package protein

import "fmt"

// Protein is an ordered list of residues and the secondary structure
// annotation that goes with them.
type Protein struct {
	Atoms    []Atom
	Residues []*Residue
	SS       SecondaryStructure
}

// New builds a protein from atoms in file order. A residue is created for
// every carbon-alpha atom, and its members are the contiguous run of atoms
// that share its residue number.
func New(atoms []Atom, ss SecondaryStructure) (*Protein, error) {
	p := &Protein{Atoms: atoms, SS: ss}
	for start := 0; start < len(atoms); {
		end := start + 1
		for end < len(atoms) && atoms[end].Residue == atoms[start].Residue {
			end++
		}
		run := atoms[start:end]
		for _, a := range run {
			if a.IsCAlpha() {
				p.Residues = append(p.Residues, newResidue(a, run))
			}
		}
		start = end
	}
	if len(p.Residues) == 0 {
		return nil, fmt.Errorf("The structure does not contain any " +
			"carbon-alpha atoms.")
	}
	return p, nil
}

// Len returns the number of residues.
func (p *Protein) Len() int {
	return len(p.Residues)
}

// Residue returns the residue with 1-based index i.
func (p *Protein) Residue(i int) *Residue {
	return p.Residues[i-1]
}

// Masses returns the mass of every residue in order.
func (p *Protein) Masses() []float64 {
	ms := make([]float64, len(p.Residues))
	for i, r := range p.Residues {
		ms[i] = r.Mass()
	}
	return ms
}

// Classify returns the interaction category of the residues with 1-based
// indices i and j.
func (p *Protein) Classify(i, j int) StructureType {
	return p.SS.Classify(i, j)
}

// HasSecondaryStructure returns true if any helix, strand or beta pair is
// known for this protein.
func (p *Protein) HasSecondaryStructure() bool {
	return !p.SS.Empty()
}
