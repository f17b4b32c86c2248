// Package pdb reads the ATOM records of PDB files into the atoms of a
// protein structure.
package pdb

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/BurntSushi/reach/internal/fileio"
	"github.com/BurntSushi/reach/protein"
)

// AminoThreeToOne is a map from three letter amino acids to their
// corresponding single letter representation.
var AminoThreeToOne = map[string]byte{
	"ALA": 'A', "ARG": 'R', "ASN": 'N', "ASP": 'D', "CYS": 'C',
	"GLU": 'E', "GLN": 'Q', "GLY": 'G', "HIS": 'H', "ILE": 'I',
	"LEU": 'L', "LYS": 'K', "MET": 'M', "PHE": 'F', "PRO": 'P',
	"SER": 'S', "THR": 'T', "TRP": 'W', "TYR": 'Y', "VAL": 'V',
	"SEC": 'U', "PYL": 'O',
}

// Entry represents all information known about a particular PDB file (that
// has been implemented in this package).
//
// Currently, a PDB entry is simply a file path and its ATOM records in file
// order.
type Entry struct {
	Path  string
	Atoms []protein.Atom
}

// New creates a new PDB Entry from a file. If the file cannot be read, or
// there is an error parsing the PDB file, an error is returned.
//
// Compressed files (".gz", ".zst", ".lz4") are decompressed transparently.
func New(fileName string) (*Entry, error) {
	r, err := fileio.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	entry, err := Read(r)
	if err != nil {
		return nil, fmt.Errorf("Could not parse PDB file '%s': %w",
			fileName, err)
	}
	entry.Path = fileName
	return entry, nil
}

// Read parses the ATOM records from r. Every other record is ignored.
func Read(r io.Reader) (*Entry, error) {
	entry := &Entry{}
	scanner := bufio.NewScanner(r)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		line := scanner.Text()
		if len(line) < 6 || strings.TrimSpace(line[0:6]) != "ATOM" {
			continue
		}
		atom, err := parseAtom(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		atom.Number = len(entry.Atoms) + 1
		entry.Atoms = append(entry.Atoms, atom)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entry, nil
}

// Protein builds a protein from the atoms of the entry and the given
// secondary structure annotation.
func (e *Entry) Protein(ss protein.SecondaryStructure) (*protein.Protein, error) {
	return protein.New(e.Atoms, ss)
}

// Sequence returns the amino acid sequence of the carbon-alpha atoms. Unknown
// residues are written as 'X'.
func (e *Entry) Sequence() string {
	seq := make([]byte, 0, len(e.Atoms)/8)
	for _, atom := range e.Atoms {
		if !atom.IsCAlpha() {
			continue
		}
		if single, ok := AminoThreeToOne[atom.ResidueName]; ok {
			seq = append(seq, single)
		} else {
			seq = append(seq, 'X')
		}
	}
	return string(seq)
}

// parseAtom reads the atom name with its alternate location (columns
// 14-17), the residue name (18-20), the residue sequence number (23-26) and
// the coordinates (31-54) of an ATOM record.
func parseAtom(line string) (protein.Atom, error) {
	if len(line) < 54 {
		return protein.Atom{}, fmt.Errorf("The ATOM record '%s' is too short.",
			line)
	}

	var atom protein.Atom
	atom.Type = line[13:17]
	atom.ResidueName = strings.TrimSpace(line[17:20])

	resnum := strings.TrimSpace(line[22:26])
	num, err := strconv.Atoi(resnum)
	if err != nil {
		return protein.Atom{}, fmt.Errorf("Could not parse residue number "+
			"'%s': %w", resnum, err)
	}
	atom.Residue = num

	for i, col := range [3]int{30, 38, 46} {
		field := strings.TrimSpace(line[col : col+8])
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return protein.Atom{}, fmt.Errorf("Could not parse coordinate "+
				"'%s': %w", field, err)
		}
		atom.Coords[i] = v
	}
	return atom, nil
}
