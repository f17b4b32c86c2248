package protein

// StructureType is the structural category of a segment or of a pair of
// residues.
type StructureType int

const (
	None StructureType = iota
	AlphaHelix
	BetaStrand
	BetaPair
	LocalInteraction
	CompleteProtein
)

func (t StructureType) String() string {
	switch t {
	case AlphaHelix:
		return "alpha_helix"
	case BetaStrand:
		return "beta_strand"
	case BetaPair:
		return "beta_pair"
	case LocalInteraction:
		return "local_interaction"
	case CompleteProtein:
		return "complete_protein"
	}
	return "none"
}

// Range is an inclusive, 1-based range of residues.
type Range struct {
	Start, End int
}

// Contains returns true if residue i is inside the range.
func (r Range) Contains(i int) bool {
	return i >= r.Start && i <= r.End
}

// Len returns the number of residues in the range.
func (r Range) Len() int {
	return r.End - r.Start + 1
}

// Pair is a pair of residues, 1-based, that are bridged in a beta sheet.
type Pair struct {
	First, Second int
}

func (p Pair) matches(i, j int) bool {
	return (p.First == i && p.Second == j) || (p.First == j && p.Second == i)
}

// SecondaryStructure is the annotation read from a DSSP file. The zero
// value is an empty annotation.
type SecondaryStructure struct {
	Helices   []Range
	Strands   []Range
	BetaPairs []Pair
}

// Empty returns true if the annotation contains no information at all.
func (ss SecondaryStructure) Empty() bool {
	return len(ss.Helices) == 0 && len(ss.Strands) == 0 &&
		len(ss.BetaPairs) == 0
}

// Classify returns the interaction category of residues i and j.
//
// Beta pairs take precedence, followed by residues of the same strand that
// are at most 3 apart and residues of the same helix that are at most 4
// apart. Every other pair is None.
func (ss SecondaryStructure) Classify(i, j int) StructureType {
	for _, p := range ss.BetaPairs {
		if p.matches(i, j) {
			return BetaPair
		}
	}
	off := i - j
	if off < 0 {
		off = -off
	}
	if off <= 3 && sameRange(ss.Strands, i, j) {
		return BetaStrand
	}
	if off <= 4 && sameRange(ss.Helices, i, j) {
		return AlphaHelix
	}
	return None
}

func sameRange(ranges []Range, i, j int) bool {
	for _, r := range ranges {
		if r.Contains(i) && r.Contains(j) {
			return true
		}
	}
	return false
}
