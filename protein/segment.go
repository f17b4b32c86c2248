package protein

import "fmt"

// Segment is a contiguous range of residues of a protein, tagged with the
// structural category it was created for.
type Segment struct {
	Type StructureType
	Range

	residues []*Residue
}

// NewSegment returns the segment of p covering residues start through end.
func NewSegment(p *Protein, start, end int, t StructureType) (*Segment, error) {
	if start < 1 || end > p.Len() || start > end {
		return nil, fmt.Errorf("The residue range %d-%d is not valid for a "+
			"protein with %d residues.", start, end, p.Len())
	}
	return &Segment{
		Type:     t,
		Range:    Range{start, end},
		residues: p.Residues[start-1 : end],
	}, nil
}

// Name identifies the segment in output file names.
func (s *Segment) Name() string {
	if s.Type == CompleteProtein {
		return s.Type.String()
	}
	return fmt.Sprintf("%s_%04d_%04d", s.Type, s.Start, s.End)
}

func (s *Segment) String() string {
	return s.Name()
}

// Residues returns the residues of the segment in order.
func (s *Segment) Residues() []*Residue {
	return s.residues
}

// AtomNumbers returns the frame index of each residue's carbon-alpha atom.
func (s *Segment) AtomNumbers() []int {
	nums := make([]int, len(s.residues))
	for i, r := range s.residues {
		nums[i] = r.CAlpha.Number
	}
	return nums
}

// Reference returns the reference coordinates and masses of the
// carbon-alpha atoms of the segment.
func (s *Segment) Reference() ([]Coords, []float64) {
	coords := make([]Coords, len(s.residues))
	masses := make([]float64, len(s.residues))
	for i, r := range s.residues {
		coords[i] = r.CAlpha.Coords
		masses[i] = r.CAlpha.Mass()
	}
	return coords, masses
}

// Overlap is the number of residues shared by consecutive local segments.
const Overlap = 3

// Segments returns the segments analyzed for p: the complete protein first,
// then overlapping local segments of localLen residues, then one segment per
// helix and one per strand.
func Segments(p *Protein, localLen int) ([]*Segment, error) {
	n := p.Len()
	if localLen <= Overlap {
		return nil, fmt.Errorf("Local segments must be longer than %d "+
			"residues, but %d was requested.", Overlap, localLen)
	}
	if n < localLen {
		return nil, fmt.Errorf("The protein has %d residues, but at least %d "+
			"are needed to build local segments.", n, localLen)
	}

	var segs []*Segment
	add := func(start, end int, t StructureType) error {
		seg, err := NewSegment(p, start, end, t)
		if err != nil {
			return fmt.Errorf("Could not create %s segment: %w", t, err)
		}
		segs = append(segs, seg)
		return nil
	}

	if err := add(1, n, CompleteProtein); err != nil {
		return nil, err
	}
	for start := 1; start < n-localLen; start += localLen - Overlap {
		if err := add(start, start+localLen-1, LocalInteraction); err != nil {
			return nil, err
		}
	}
	if err := add(n-localLen+1, n, LocalInteraction); err != nil {
		return nil, err
	}
	for _, r := range p.SS.Helices {
		if err := add(r.Start, r.End, AlphaHelix); err != nil {
			return nil, err
		}
	}
	for _, r := range p.SS.Strands {
		if err := add(r.Start, r.End, BetaStrand); err != nil {
			return nil, err
		}
	}
	return segs, nil
}
