package util

import (
	"io"

	"gonum.org/v1/gonum/mat"

	"github.com/BurntSushi/reach/csvmat"
	"github.com/BurntSushi/reach/dssp"
	"github.com/BurntSushi/reach/internal/fileio"
	"github.com/BurntSushi/reach/nma"
	"github.com/BurntSushi/reach/pdb"
	"github.com/BurntSushi/reach/protein"
)

func PDBRead(path string) *pdb.Entry {
	entry, err := pdb.New(path)
	Assert(err, "Could not open PDB file '%s'", path)
	return entry
}

// ProteinRead loads the protein in the PDB file at path, annotated with the
// DSSP secondary structure at ssPath if ssPath is not empty.
func ProteinRead(path, ssPath string) *protein.Protein {
	var ss protein.SecondaryStructure
	if ssPath != "" {
		var err error
		ss, err = dssp.New(ssPath)
		Assert(err, "Could not read secondary structure '%s'", ssPath)
	}
	p, err := PDBRead(path).Protein(ss)
	Assert(err, "Could not build protein from '%s'", path)
	return p
}

func SelectionRead(path string, residues int) nma.Selection {
	f := OpenFile(path)
	defer f.Close()
	sel, err := nma.ParseSelection(f, residues)
	Assert(err, "Could not read reduction '%s'", path)
	return sel
}

func CovarianceRead(path string, dim int) *mat.Dense {
	f := OpenFile(path)
	defer f.Close()
	cov, err := csvmat.Read(f, dim)
	Assert(err, "Could not read covariance matrix '%s'", path)
	return cov
}

// OpenFile opens path for reading, decompressing it if its extension names a
// compression format.
func OpenFile(path string) io.ReadCloser {
	f, err := fileio.Open(path)
	Assert(err, "Could not open file '%s'", path)
	return f
}
