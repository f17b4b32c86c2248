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
	xtcMagic = 1995

	// Frames with this many atoms or fewer store plain floats.
	xtcUncompressed = 9

	xtcFirstIdx = 9
)

// xtcMagicInts are the sizes of the small integer runs used by the GROMACS
// coordinate compression. Entries below xtcFirstIdx are never used.
var xtcMagicInts = [...]uint32{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 8, 10, 12, 16, 20, 25, 32, 40, 50, 64,
	80, 101, 128, 161, 203, 256, 322, 406, 512, 645, 812, 1024, 1290,
	1625, 2048, 2580, 3250, 4096, 5060, 6501, 8192, 10321, 13003,
	16384, 20642, 26007, 32768, 41285, 52015, 65536, 82570, 104031,
	131072, 165140, 208063, 262144, 330280, 416127, 524287, 660561,
	832255, 1048576, 1321122, 1664510, 2097152, 2642245, 3329021,
	4194304, 5284491, 6658042, 8388607, 10568983, 13316085, 16777216,
}

// XTC reads frames from a GROMACS XTC file, the lossy compressed trajectory
// format. Coordinates are converted from nanometers to Angstroms.
type XTC struct {
	r    *bufio.Reader
	read int

	cur *Frame
	err error
}

// NewXTC returns an XTC reader for r.
func NewXTC(r io.Reader) *XTC {
	return &XTC{r: bufio.NewReader(r)}
}

func (x *XTC) Scan() bool {
	x.cur = nil
	if x.err != nil {
		return false
	}
	frame, err := x.readFrame()
	if err == io.EOF {
		return false
	} else if err != nil {
		x.err = fmt.Errorf("Could not read XTC frame %d: %w", x.read+1, err)
		return false
	}
	x.read++
	x.cur = frame
	return true
}

func (x *XTC) readFrame() (*Frame, error) {
	magic, err := x.int()
	if err != nil {
		return nil, err
	}
	if magic != xtcMagic {
		return nil, fmt.Errorf("%w: bad XTC magic number %d",
			ErrUnsupportedFormat, magic)
	}
	natoms, err := x.int()
	if err != nil {
		return nil, unexpected(err)
	}
	if natoms <= 0 {
		return nil, fmt.Errorf("The frame has %d atoms.", natoms)
	}

	// Step, time and the 3x3 box.
	if _, err := x.r.Discard(4 * 11); err != nil {
		return nil, unexpected(err)
	}

	n, err := x.int()
	if err != nil {
		return nil, unexpected(err)
	}
	if n != natoms {
		return nil, fmt.Errorf("The frame header has %d atoms but its "+
			"coordinates have %d.", natoms, n)
	}

	var coords []protein.Coords
	if natoms <= xtcUncompressed {
		coords, err = x.plain(int(natoms))
	} else {
		coords, err = x.compressed(int(natoms))
	}
	if err != nil {
		return nil, unexpected(err)
	}
	return NewFrame(coords), nil
}

func (x *XTC) plain(natoms int) ([]protein.Coords, error) {
	coords := make([]protein.Coords, natoms)
	for i := range coords {
		for axis := 0; axis < 3; axis++ {
			v, err := x.float()
			if err != nil {
				return nil, err
			}
			coords[i][axis] = float64(v) * nmToAngstrom
		}
	}
	return coords, nil
}

func (x *XTC) compressed(natoms int) ([]protein.Coords, error) {
	precision, err := x.float()
	if err != nil {
		return nil, err
	}
	if precision <= 0 {
		return nil, fmt.Errorf("The compression precision is %g.", precision)
	}
	var minint, maxint [3]int32
	for _, v := range []*int32{
		&minint[0], &minint[1], &minint[2],
		&maxint[0], &maxint[1], &maxint[2],
	} {
		if *v, err = x.int(); err != nil {
			return nil, err
		}
	}
	smallidx, err := x.int()
	if err != nil {
		return nil, err
	}
	if smallidx < xtcFirstIdx || int(smallidx) >= len(xtcMagicInts) {
		return nil, fmt.Errorf("The small integer index %d is out of range.",
			smallidx)
	}
	length, err := x.int()
	if err != nil {
		return nil, err
	}
	if length < 0 {
		return nil, fmt.Errorf("The compressed block has %d bytes.", length)
	}
	data := make([]byte, (length+3)/4*4)
	if _, err := io.ReadFull(x.r, data); err != nil {
		return nil, err
	}

	d := xtcDecoder{
		bits:     bitReader{data: data[:length]},
		scale:    nmToAngstrom / float64(precision),
		minint:   minint,
		smallidx: int(smallidx),
	}
	for i := range d.sizeint {
		d.sizeint[i] = uint32(maxint[i] - minint[i] + 1)
	}
	return d.decode(natoms)
}

func (x *XTC) int() (int32, error) {
	var b [4]byte
	if _, err := io.ReadFull(x.r, b[:]); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b[:])), nil
}

func (x *XTC) float() (float32, error) {
	v, err := x.int()
	return math.Float32frombits(uint32(v)), err
}

func (x *XTC) Frame() *Frame { return x.cur }
func (x *XTC) Err() error    { return x.err }

// xtcDecoder undoes the GROMACS coordinate compression of one frame. The
// first atom of a run is stored with the full range; the atoms after it are
// stored as small offsets from their predecessor.
type xtcDecoder struct {
	bits bitReader

	// scale converts a decoded integer to Angstroms.
	scale    float64
	minint   [3]int32
	sizeint  [3]uint32
	smallidx int
}

func (d *xtcDecoder) decode(natoms int) ([]protein.Coords, error) {
	large := d.sizeint[0]|d.sizeint[1]|d.sizeint[2] > 0xffffff
	var bitsizeint [3]int
	bitsize := 0
	if large {
		for i, size := range d.sizeint {
			bitsizeint[i] = sizeOfInt(size)
		}
	} else {
		bitsize = sizeOfInts(d.sizeint[:])
	}

	smaller := int32(xtcMagicInts[max(xtcFirstIdx, d.smallidx-1)] / 2)
	smallnum := int32(xtcMagicInts[d.smallidx] / 2)
	sizesmall := xtcMagicInts[d.smallidx]

	// A run length is kept until the stream sets a new one.
	run := 0
	coords := make([]protein.Coords, 0, natoms)
	emit := func(c [3]int32) error {
		if len(coords) == natoms {
			return fmt.Errorf("The compressed block has more than %d atoms.",
				natoms)
		}
		coords = append(coords, protein.Coords{
			float64(c[0]) * d.scale,
			float64(c[1]) * d.scale,
			float64(c[2]) * d.scale,
		})
		return nil
	}

	for len(coords) < natoms {
		var this [3]int32
		if large {
			for i := range this {
				this[i] = int32(d.bits.read(bitsizeint[i]))
			}
		} else {
			this = d.bits.readInts(bitsize, d.sizeint)
		}
		for i := range this {
			this[i] += d.minint[i]
		}
		prev := this

		isSmaller := 0
		if d.bits.read(1) == 1 {
			run = int(d.bits.read(5))
			isSmaller = run % 3
			run -= isSmaller
			isSmaller--
		}
		if run > 0 {
			for k := 0; k < run; k += 3 {
				small := d.bits.readInts(d.smallidx,
					[3]uint32{sizesmall, sizesmall, sizesmall})
				for i := range small {
					small[i] += prev[i] - smallnum
				}
				if k == 0 {
					// The first two atoms of a run are stored swapped.
					small, prev = prev, small
					if err := emit(prev); err != nil {
						return nil, err
					}
				} else {
					prev = small
				}
				if err := emit(small); err != nil {
					return nil, err
				}
			}
		} else if err := emit(this); err != nil {
			return nil, err
		}
		if d.bits.err != nil {
			return nil, d.bits.err
		}

		d.smallidx += isSmaller
		if d.smallidx < xtcFirstIdx || d.smallidx >= len(xtcMagicInts) {
			return nil, fmt.Errorf("The small integer index %d is out of "+
				"range.", d.smallidx)
		}
		switch {
		case isSmaller < 0:
			smallnum = smaller
			if d.smallidx > xtcFirstIdx {
				smaller = int32(xtcMagicInts[d.smallidx-1] / 2)
			} else {
				smaller = 0
			}
		case isSmaller > 0:
			smaller = smallnum
			smallnum = int32(xtcMagicInts[d.smallidx] / 2)
		}
		sizesmall = xtcMagicInts[d.smallidx]
	}
	return coords, nil
}

// bitReader reads big endian bit fields from a byte slice. Reading past the
// end sets err and yields zero bits.
type bitReader struct {
	data []byte
	pos  int
	bits uint
	last uint32
	err  error
}

func (b *bitReader) next() uint32 {
	if b.pos >= len(b.data) {
		if b.err == nil {
			b.err = io.ErrUnexpectedEOF
		}
		return 0
	}
	c := b.data[b.pos]
	b.pos++
	return uint32(c)
}

func (b *bitReader) read(n int) uint32 {
	mask := uint32(1<<uint(n) - 1)
	var num uint32
	for n >= 8 {
		b.last = b.last<<8 | b.next()
		num |= (b.last >> b.bits) << uint(n-8)
		n -= 8
	}
	if n > 0 {
		if b.bits < uint(n) {
			b.bits += 8
			b.last = b.last<<8 | b.next()
		}
		b.bits -= uint(n)
		num |= (b.last >> b.bits) & (1<<uint(n) - 1)
	}
	return num & mask
}

// readInts reads three integers packed into a single number of nbits bits,
// the i-th integer being smaller than sizes[i].
func (b *bitReader) readInts(nbits int, sizes [3]uint32) [3]int32 {
	var bytes [32]uint32
	nbytes := 0
	for nbits > 8 {
		bytes[nbytes] = b.read(8)
		nbytes++
		nbits -= 8
	}
	if nbits > 0 {
		bytes[nbytes] = b.read(nbits)
		nbytes++
	}

	var nums [3]int32
	for i := 2; i > 0; i-- {
		var num uint64
		for j := nbytes - 1; j >= 0; j-- {
			num = num<<8 | uint64(bytes[j])
			p := num / uint64(sizes[i])
			bytes[j] = uint32(p)
			num -= p * uint64(sizes[i])
		}
		nums[i] = int32(num)
	}
	nums[0] = int32(bytes[0] | bytes[1]<<8 | bytes[2]<<16 | bytes[3]<<24)
	return nums
}

// sizeOfInt returns the number of bits needed to store integers in
// [0, size].
func sizeOfInt(size uint32) int {
	n := 0
	for num := uint64(1); uint64(size) >= num && n < 32; num <<= 1 {
		n++
	}
	return n
}

// sizeOfInts returns the number of bits needed to store the product of
// sizes.
func sizeOfInts(sizes []uint32) int {
	bytes := []uint32{1}
	for _, size := range sizes {
		var tmp uint64
		for i := range bytes {
			tmp += uint64(bytes[i]) * uint64(size)
			bytes[i] = uint32(tmp & 0xff)
			tmp >>= 8
		}
		for ; tmp != 0; tmp >>= 8 {
			bytes = append(bytes, uint32(tmp&0xff))
		}
	}
	top := bytes[len(bytes)-1]
	n := 0
	for num := uint32(1); top >= num; num *= 2 {
		n++
	}
	return n + (len(bytes)-1)*8
}
