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
	trrMagic   = 1993
	trrVersion = "GMX_trn_file"

	// nmToAngstrom converts GROMACS lengths to the units of PDB files.
	nmToAngstrom = 10.0
)

// TRR reads frames from a GROMACS TRR file. Frames that carry no
// coordinates (velocity or force only frames) are skipped.
type TRR struct {
	r    *bufio.Reader
	read int

	cur *Frame
	err error
}

// NewTRR returns a TRR reader for r.
func NewTRR(r io.Reader) *TRR {
	return &TRR{r: bufio.NewReader(r)}
}

type trrHeader struct {
	irSize, eSize, boxSize, virSize, presSize int32
	topSize, symSize, xSize, vSize, fSize     int32
	natoms, step, nre                         int32
}

func (t *TRR) Scan() bool {
	t.cur = nil
	if t.err != nil {
		return false
	}
	for {
		frame, err := t.readFrame()
		if err == io.EOF {
			return false
		} else if err != nil {
			t.err = fmt.Errorf("Could not read TRR frame %d: %w", t.read+1, err)
			return false
		}
		t.read++
		if frame != nil {
			t.cur = frame
			return true
		}
	}
}

func (t *TRR) readFrame() (*Frame, error) {
	magic, err := t.int()
	if err != nil {
		return nil, err
	}
	if magic != trrMagic {
		return nil, fmt.Errorf("%w: bad TRR magic number %d",
			ErrUnsupportedFormat, magic)
	}
	if err := t.version(); err != nil {
		return nil, unexpected(err)
	}

	var h trrHeader
	for _, field := range []*int32{
		&h.irSize, &h.eSize, &h.boxSize, &h.virSize, &h.presSize,
		&h.topSize, &h.symSize, &h.xSize, &h.vSize, &h.fSize,
		&h.natoms, &h.step, &h.nre,
	} {
		if *field, err = t.int(); err != nil {
			return nil, unexpected(err)
		}
	}
	if h.natoms <= 0 {
		return nil, fmt.Errorf("The frame has %d atoms.", h.natoms)
	}
	if h.irSize != 0 || h.eSize != 0 || h.topSize != 0 || h.symSize != 0 {
		return nil, fmt.Errorf("%w: TRR frames with topology or energy "+
			"blocks", ErrUnsupportedFormat)
	}

	prec, err := h.precision()
	if err != nil {
		return nil, err
	}

	// Time and lambda.
	if err := t.skip(2 * prec); err != nil {
		return nil, unexpected(err)
	}
	if err := t.skip(int(h.boxSize + h.virSize + h.presSize)); err != nil {
		return nil, unexpected(err)
	}

	var frame *Frame
	if h.xSize != 0 {
		coords := make([]protein.Coords, h.natoms)
		for i := range coords {
			for axis := 0; axis < 3; axis++ {
				v, err := t.real(prec)
				if err != nil {
					return nil, unexpected(err)
				}
				coords[i][axis] = v * nmToAngstrom
			}
		}
		frame = NewFrame(coords)
	}
	if err := t.skip(int(h.vSize + h.fSize)); err != nil {
		return nil, unexpected(err)
	}
	return frame, nil
}

// precision returns the size in bytes of a real number in the frame.
func (h trrHeader) precision() (int, error) {
	var n int32
	switch {
	case h.boxSize != 0:
		n = h.boxSize / 9
	case h.xSize != 0:
		n = h.xSize / (3 * h.natoms)
	case h.vSize != 0:
		n = h.vSize / (3 * h.natoms)
	case h.fSize != 0:
		n = h.fSize / (3 * h.natoms)
	}
	if n != 4 && n != 8 {
		return 0, fmt.Errorf("Could not determine the precision of the " +
			"frame.")
	}
	return int(n), nil
}

// version reads the length prefixed XDR version string.
func (t *TRR) version() error {
	if _, err := t.int(); err != nil {
		return err
	}
	n, err := t.int()
	if err != nil {
		return err
	}
	if n < 0 || n > 128 {
		return fmt.Errorf("The version string has length %d.", n)
	}
	buf := make([]byte, (n+3)/4*4)
	if _, err := io.ReadFull(t.r, buf); err != nil {
		return err
	}
	if string(buf[:n]) != trrVersion {
		return fmt.Errorf("%w: version '%s'", ErrUnsupportedFormat, buf[:n])
	}
	return nil
}

func (t *TRR) int() (int32, error) {
	var b [4]byte
	if _, err := io.ReadFull(t.r, b[:]); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b[:])), nil
}

func (t *TRR) real(prec int) (float64, error) {
	var b [8]byte
	if _, err := io.ReadFull(t.r, b[:prec]); err != nil {
		return 0, err
	}
	if prec == 4 {
		return float64(math.Float32frombits(binary.BigEndian.Uint32(b[:4]))), nil
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b[:])), nil
}

func (t *TRR) skip(n int) error {
	if n < 0 {
		return fmt.Errorf("Cannot skip %d bytes.", n)
	}
	_, err := t.r.Discard(n)
	return err
}

func (t *TRR) Frame() *Frame { return t.cur }
func (t *TRR) Err() error    { return t.err }
