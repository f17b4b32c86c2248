package trajectory

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/BurntSushi/reach/protein"
)

const (
	dcdHeaderSize = 84
	unitCellSize  = 48
)

// DCD reads frames from a CHARMM/NAMD DCD file. The byte order is detected
// from the first record marker.
type DCD struct {
	rec      recordReader
	atoms    int
	frames   int
	read     int
	unitCell bool

	cur *Frame
	err error
}

// NewDCD reads the DCD header from r. When unitCell is true every frame is
// expected to carry a unit cell record; the header flag written by CHARMM
// enables this as well.
func NewDCD(r io.Reader, unitCell bool) (*DCD, error) {
	br := bufio.NewReader(r)
	peek, err := br.Peek(4)
	if err != nil {
		return nil, fmt.Errorf("Could not read DCD header: %w", unexpected(err))
	}

	d := &DCD{unitCell: unitCell}
	switch {
	case binary.LittleEndian.Uint32(peek) == dcdHeaderSize:
		d.rec = recordReader{r: br, order: binary.LittleEndian}
	case binary.BigEndian.Uint32(peek) == dcdHeaderSize:
		d.rec = recordReader{r: br, order: binary.BigEndian}
	default:
		return nil, fmt.Errorf("%w: the first record is not a DCD header",
			ErrUnsupportedFormat)
	}
	if err := d.readHeader(); err != nil {
		return nil, fmt.Errorf("Could not read DCD header: %w", err)
	}
	return d, nil
}

func (d *DCD) readHeader() error {
	order := d.rec.order

	hdr, err := d.rec.next()
	if err != nil {
		return unexpected(err)
	}
	if len(hdr) != dcdHeaderSize || string(hdr[0:4]) != "CORD" {
		return fmt.Errorf("%w: missing 'CORD' signature", ErrUnsupportedFormat)
	}
	var icntrl [20]int32
	for i := range icntrl {
		icntrl[i] = int32(order.Uint32(hdr[4+4*i:]))
	}
	d.frames = int(icntrl[0])
	if icntrl[8] != 0 {
		return fmt.Errorf("%w: %d fixed atoms", ErrUnsupportedFormat,
			icntrl[8])
	}
	if icntrl[19] != 0 && icntrl[10] == 1 {
		d.unitCell = true
	}

	// Titles are not used.
	if _, err := d.rec.next(); err != nil {
		return unexpected(err)
	}

	natom, err := d.rec.next()
	if err != nil {
		return unexpected(err)
	}
	if len(natom) != 4 {
		return fmt.Errorf("The atom count record has %d bytes.", len(natom))
	}
	d.atoms = int(int32(order.Uint32(natom)))
	if d.atoms <= 0 {
		return fmt.Errorf("The DCD file has %d atoms.", d.atoms)
	}
	return nil
}

// Atoms returns the number of atoms in every frame.
func (d *DCD) Atoms() int {
	return d.atoms
}

func (d *DCD) Scan() bool {
	d.cur = nil
	if d.err != nil || (d.frames > 0 && d.read >= d.frames) {
		return false
	}
	frame, err := d.readFrame()
	if err != nil {
		if err != io.EOF {
			d.err = fmt.Errorf("Could not read DCD frame %d: %w",
				d.read+1, err)
		}
		return false
	}
	d.read++
	d.cur = frame
	return true
}

func (d *DCD) readFrame() (*Frame, error) {
	coords := make([]protein.Coords, d.atoms)
	first := true
	if d.unitCell {
		rec, err := d.rec.next()
		if err != nil {
			return nil, err
		}
		if len(rec) != unitCellSize {
			return nil, fmt.Errorf("The unit cell record has %d bytes.",
				len(rec))
		}
		first = false
	}
	for axis := 0; axis < 3; axis++ {
		rec, err := d.rec.next()
		if err != nil {
			if first {
				return nil, err
			}
			return nil, unexpected(err)
		}
		first = false
		if len(rec) != 4*d.atoms {
			return nil, fmt.Errorf("A coordinate record has %d bytes but "+
				"%d atoms need %d.", len(rec), d.atoms, 4*d.atoms)
		}
		for i := range coords {
			bits := d.rec.order.Uint32(rec[4*i:])
			coords[i][axis] = float64(math.Float32frombits(bits))
		}
	}
	return NewFrame(coords), nil
}

func (d *DCD) Frame() *Frame { return d.cur }
func (d *DCD) Err() error    { return d.err }
