// Package csvmat reads and writes dense matrices and vectors as comma
// separated text.
//
// Header fields are always quoted and numbers are written with the fewest
// digits that read back to the same float64.
package csvmat

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Read reads a dim x dim matrix. Every row must have exactly dim fields.
func Read(r io.Reader, dim int) (*mat.Dense, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("Cannot read a matrix of size %d.", dim)
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = dim
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	m := mat.NewDense(dim, dim, nil)
	row := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("Could not read row %d: %w", row+1, err)
		}
		if row >= dim {
			return nil, fmt.Errorf("Expected %d rows but found more.", dim)
		}
		for col, field := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("Could not parse entry (%d, %d) '%s': %w",
					row+1, col+1, field, err)
			}
			m.Set(row, col, v)
		}
		row++
	}
	if row != dim {
		return nil, fmt.Errorf("Expected %d rows but found %d.", dim, row)
	}
	return m, nil
}

type writer struct {
	buf *bufio.Writer
	err error
}

func newWriter(w io.Writer) *writer {
	return &writer{buf: bufio.NewWriter(w)}
}

func (w *writer) header(names []string) {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = strconv.Quote(name)
	}
	w.line(quoted)
}

func (w *writer) values(vs []float64) {
	fields := make([]string, len(vs))
	for i, v := range vs {
		fields[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	w.line(fields)
}

func (w *writer) line(fields []string) {
	if w.err != nil {
		return
	}
	_, w.err = w.buf.WriteString(strings.Join(fields, ",") + "\n")
}

func (w *writer) flush() error {
	if w.err != nil {
		return w.err
	}
	return w.buf.Flush()
}

// WriteMatrix writes m one row per line. With header set, the first line
// names the columns x1, x2, ...
func WriteMatrix(w io.Writer, m mat.Matrix, header bool) error {
	rows, cols := m.Dims()
	cw := newWriter(w)
	if header {
		names := make([]string, cols)
		for j := range names {
			names[j] = fmt.Sprintf("x%d", j+1)
		}
		cw.header(names)
	}
	line := make([]float64, cols)
	for i := 0; i < rows; i++ {
		for j := range line {
			line[j] = m.At(i, j)
		}
		cw.values(line)
	}
	return cw.flush()
}

// WriteVector writes v as a single column. With header set, the column is
// named row1.
func WriteVector(w io.Writer, v []float64, header bool) error {
	cw := newWriter(w)
	if header {
		cw.header([]string{"row1"})
	}
	for _, x := range v {
		cw.values([]float64{x})
	}
	return cw.flush()
}

// WriteTable writes named columns side by side under a header line. All
// columns must have the same length.
func WriteTable(w io.Writer, names []string, columns ...[]float64) error {
	if len(names) != len(columns) {
		return fmt.Errorf("There are %d column names for %d columns.",
			len(names), len(columns))
	}
	rows := 0
	for i, c := range columns {
		if i == 0 {
			rows = len(c)
		} else if len(c) != rows {
			return fmt.Errorf("Column '%s' has %d rows, but column '%s' "+
				"has %d.", names[i], len(c), names[0], rows)
		}
	}

	cw := newWriter(w)
	cw.header(names)
	line := make([]float64, len(columns))
	for i := 0; i < rows; i++ {
		for j, c := range columns {
			line[j] = c[i]
		}
		cw.values(line)
	}
	return cw.flush()
}
