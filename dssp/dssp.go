// Package dssp reads secondary structure assignments from DSSP output.
//
// Only helices ('H'), strands ('E') and the beta bridge partners of strand
// residues are used. Residues are numbered by their order in the file,
// starting at 1.
package dssp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/BurntSushi/reach/internal/fileio"
	"github.com/BurntSushi/reach/protein"
)

const headerMarker = "  #  RESIDUE"

// New reads the DSSP file at path.
func New(path string) (protein.SecondaryStructure, error) {
	r, err := fileio.Open(path)
	if err != nil {
		return protein.SecondaryStructure{}, err
	}
	defer r.Close()

	ss, err := Read(r)
	if err != nil {
		return protein.SecondaryStructure{}, fmt.Errorf("Could not parse "+
			"DSSP file '%s': %w", path, err)
	}
	return ss, nil
}

// Read parses DSSP output from r.
func Read(r io.Reader) (protein.SecondaryStructure, error) {
	var ss protein.SecondaryStructure
	run := newRuns()

	scanner := bufio.NewScanner(r)
	inHeader := true
	residue := 0
	for scanner.Scan() {
		line := scanner.Text()
		if inHeader {
			if strings.Contains(line, headerMarker) {
				inHeader = false
			}
			continue
		}
		residue++

		var code byte = ' '
		if len(line) > 16 {
			code = line[16]
		}
		run.add(code, residue)
		if code != 'E' {
			continue
		}
		for _, col := range [2]int{25, 29} {
			partner, err := bridgePartner(line, col)
			if err != nil {
				return protein.SecondaryStructure{}, fmt.Errorf(
					"residue %d: %w", residue, err)
			}
			if partner > residue {
				ss.BetaPairs = append(ss.BetaPairs,
					protein.Pair{First: residue, Second: partner})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return protein.SecondaryStructure{}, err
	}
	if inHeader {
		return protein.SecondaryStructure{}, fmt.Errorf("The residue "+
			"table header '%s' could not be found.", strings.TrimSpace(headerMarker))
	}
	run.add(' ', residue+1)
	ss.Helices = run.ranges['H']
	ss.Strands = run.ranges['E']
	return ss, nil
}

func bridgePartner(line string, col int) (int, error) {
	if len(line) < col+4 {
		return 0, nil
	}
	field := strings.TrimSpace(line[col : col+4])
	if field == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(field)
	if err != nil {
		return 0, fmt.Errorf("Could not parse bridge partner '%s': %w",
			field, err)
	}
	return n, nil
}

// runs turns a sequence of per residue structure codes into ranges of
// consecutive residues with the same code.
type runs struct {
	code   byte
	start  int
	ranges map[byte][]protein.Range
}

func newRuns() *runs {
	return &runs{code: ' ', ranges: make(map[byte][]protein.Range)}
}

func (r *runs) add(code byte, residue int) {
	if code == r.code {
		return
	}
	if r.code == 'H' || r.code == 'E' {
		r.ranges[r.code] = append(r.ranges[r.code],
			protein.Range{Start: r.start, End: residue - 1})
	}
	r.code, r.start = code, residue
}
