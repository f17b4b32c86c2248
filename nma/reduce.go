package nma

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Selection is a sorted set of 1-based residue indices to keep when
// reducing a Hessian. The empty selection keeps everything.
type Selection []int

// NewSelection returns the sorted, deduplicated selection of residues.
func NewSelection(residues ...int) Selection {
	s := append(Selection(nil), residues...)
	sort.Ints(s)
	out := s[:0]
	for i, r := range s {
		if i == 0 || r != s[i-1] {
			out = append(out, r)
		}
	}
	return out
}

// ParseSelection reads a selection from the first line of r: a comma
// separated list of residues and inclusive ranges "a-b". The word "end"
// stands for the last residue, residues.
func ParseSelection(r io.Reader, residues int) (Selection, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, err
	}
	line = strings.ReplaceAll(strings.TrimSpace(line), "end",
		strconv.Itoa(residues))

	var picked []int
	for _, item := range strings.Split(line, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		lo, hi, found := strings.Cut(item, "-")
		start, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("Could not parse residue '%s': %w", item, err)
		}
		end := start
		if found {
			end, err = strconv.Atoi(strings.TrimSpace(hi))
			if err != nil {
				return nil, fmt.Errorf("Could not parse residue range '%s': %w",
					item, err)
			}
		}
		if start < 1 || end > residues || start > end {
			return nil, fmt.Errorf("The residue range '%s' is not within "+
				"1-%d.", item, residues)
		}
		for i := start; i <= end; i++ {
			picked = append(picked, i)
		}
	}
	return NewSelection(picked...), nil
}

// Pick returns the entries of a per residue vector, such as the masses, for
// the selected residues. The empty selection returns v itself.
func (s Selection) Pick(v []float64) []float64 {
	if len(s) == 0 {
		return v
	}
	picked := make([]float64, len(s))
	for i, r := range s {
		picked[i] = v[r-1]
	}
	return picked
}

// Reduce projects h onto the selected residues with the Schur complement
//
//	H_AA - H_AB H_BB^-1 H_BA
//
// where A are the selected and B the remaining residues. The empty selection
// returns h unchanged.
//
// If the block of the remaining residues is ill conditioned, the reduced
// matrix is still returned, together with an error wrapping mat.Condition.
func (s Selection) Reduce(h *mat.SymDense) (*mat.SymDense, error) {
	dim := h.SymmetricDim()
	if dim%3 != 0 {
		return nil, fmt.Errorf("%w: a Hessian of size %d does not describe "+
			"whole residues", ErrDimension, dim)
	}
	n := dim / 3
	if len(s) > n {
		return nil, fmt.Errorf("%w: %d residues selected of %d", ErrDimension,
			len(s), n)
	}
	if len(s) == 0 {
		return h, nil
	}

	keep := make([]bool, n)
	for _, r := range s {
		if r < 1 || r > n {
			return nil, fmt.Errorf("%w: residue %d is not within 1-%d",
				ErrDimension, r, n)
		}
		keep[r-1] = true
	}
	var a, b []int
	for i, k := range keep {
		if k {
			a = append(a, i)
		} else {
			b = append(b, i)
		}
	}

	haa := blocks(h, a, a)
	if len(b) == 0 {
		return symmetric(haa), nil
	}
	hab := blocks(h, a, b)
	hbb := blocks(h, b, b)
	hba := blocks(h, b, a)

	var inv mat.Dense
	var illCond error
	if err := inv.Inverse(hbb); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("Could not invert the block of unselected "+
				"residues: %w", err)
		}
		illCond = fmt.Errorf("The block of %d unselected residues is ill "+
			"conditioned: %w", len(b), err)
	}
	var tmp, schur mat.Dense
	tmp.Mul(hab, &inv)
	schur.Mul(&tmp, hba)
	haa.Sub(haa, &schur)
	return symmetric(haa), illCond
}

// blocks copies the 3x3 blocks of rows and cols out of h.
func blocks(h mat.Matrix, rows, cols []int) *mat.Dense {
	m := mat.NewDense(3*len(rows), 3*len(cols), nil)
	for i, r := range rows {
		for j, c := range cols {
			for a := 0; a < 3; a++ {
				for b := 0; b < 3; b++ {
					m.Set(3*i+a, 3*j+b, h.At(3*r+a, 3*c+b))
				}
			}
		}
	}
	return m
}

// symmetric builds a symmetric matrix from the lower triangle of m.
func symmetric(m *mat.Dense) *mat.SymDense {
	n, _ := m.Dims()
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			s.SetSym(i, j, m.At(i, j))
		}
	}
	return s
}
