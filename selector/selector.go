// Package selector chooses the force constant of a residue pair from the
// fitted categorical averages, falling back to a fitted decay with
// distance for pairs that no category covers.
package selector

import (
	"math"

	"github.com/BurntSushi/reach/protein"
)

// CisThreshold is the distance, in Angstroms, that separates cis from trans
// geometry of adjacent residues.
const CisThreshold = 3.5

// Constant names one of the fitted categorical force constants.
type Constant int

const (
	Local12 Constant = iota
	Local12Cis
	Local13
	Local14
	Helix12
	Helix13
	Helix14
	Helix15
	Strand12
	Strand13
	Strand14
	BetaPair
	numConstants
)

var constantNames = [numConstants]string{
	"local_12", "local_12_cis", "local_13", "local_14",
	"helix_12", "helix_13", "helix_14", "helix_15",
	"strand_12", "strand_13", "strand_14",
	"beta_pair",
}

func (c Constant) String() string {
	if c < 0 || c >= numConstants {
		return "unknown"
	}
	return constantNames[c]
}

// Constants holds the value of every categorical force constant.
type Constants [numConstants]float64

// Decay is the fitted force constant as a function of distance:
// b*exp(-a*r) + b2*exp(-a2*r), where the second term is only used when Slow
// is set.
type Decay struct {
	A, B   float64
	A2, B2 float64
	Slow   bool
}

// At evaluates the decay at distance r.
func (d Decay) At(r float64) float64 {
	k := math.Exp(-d.A*r) * d.B
	if d.Slow {
		k += math.Exp(-d.A2*r) * d.B2
	}
	return k
}

// source is the kind of value a table entry resolves to.
type source int

const (
	fromConstant source = iota
	fromAdjacent
	fromDecay
)

type rule struct {
	source   source
	constant Constant
}

// row maps sequence offsets to rules for one category. Offsets without an
// entry use otherwise.
type row struct {
	offsets   map[int]rule
	otherwise rule
}

func constant(c Constant) rule { return rule{source: fromConstant, constant: c} }

var (
	adjacent = rule{source: fromAdjacent}
	decay    = rule{source: fromDecay}
)

// generic is used by local interactions, the complete protein and pairs
// without secondary structure.
var generic = row{
	offsets: map[int]rule{
		1: adjacent,
		2: constant(Local13),
		3: constant(Local14),
	},
	otherwise: decay,
}

// table is the decision table. Strands beyond their tabulated offsets
// continue with the helix entries, and helices beyond theirs use the beta
// pair constant. Classification limits strand pairs to offsets up to 3 and
// helix pairs to offsets up to 4, so those entries are only reached by
// callers that classify pairs differently.
var table = map[protein.StructureType]row{
	protein.BetaStrand: {
		offsets: map[int]rule{
			1: constant(Strand12),
			2: constant(Strand13),
			3: constant(Strand14),
			4: constant(Helix15),
		},
		otherwise: constant(BetaPair),
	},
	protein.AlphaHelix: {
		offsets: map[int]rule{
			1: constant(Helix12),
			2: constant(Helix13),
			3: constant(Helix14),
			4: constant(Helix15),
		},
		otherwise: constant(BetaPair),
	},
	protein.BetaPair: {
		otherwise: constant(BetaPair),
	},
}

// Selector is an immutable lookup of force constants.
type Selector struct {
	Constants Constants
	Decay     Decay
}

// New returns a selector for the given constants and decay.
func New(constants Constants, decay Decay) *Selector {
	return &Selector{Constants: constants, Decay: decay}
}

// Select returns the force constant of a residue pair of category t that is
// offset residues apart at squared distance r2.
func (s *Selector) Select(t protein.StructureType, offset int, r2 float64) float64 {
	if offset < 0 {
		offset = -offset
	}
	rw, ok := table[t]
	if !ok {
		rw = generic
	}
	rl, ok := rw.offsets[offset]
	if !ok {
		rl = rw.otherwise
	}

	r := math.Sqrt(r2)
	switch rl.source {
	case fromAdjacent:
		if r > CisThreshold {
			return s.Constants[Local12Cis]
		}
		return s.Constants[Local12]
	case fromDecay:
		return s.Decay.At(r)
	}
	return s.Constants[rl.constant]
}
