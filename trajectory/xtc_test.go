package trajectory

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"math/bits"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BurntSushi/reach/protein"
)

// bitWriter is the inverse of bitReader.
type bitWriter struct {
	buf []byte
	n   uint
}

func (w *bitWriter) write(nbits int, v uint64) {
	for b := nbits - 1; b >= 0; b-- {
		if w.n%8 == 0 {
			w.buf = append(w.buf, 0)
		}
		if v>>uint(b)&1 == 1 {
			w.buf[len(w.buf)-1] |= 1 << (7 - w.n%8)
		}
		w.n++
	}
}

func (w *bitWriter) writeInts(nbits int, sizes [3]uint32, nums [3]uint32) {
	v := (uint64(nums[0])*uint64(sizes[1])+uint64(nums[1]))*uint64(sizes[2]) +
		uint64(nums[2])
	for rem := nbits; rem > 0; rem -= 8 {
		n := min(8, rem)
		w.write(n, v&0xff)
		v >>= 8
	}
}

// xtcEncoding selects how writeXTC compresses coordinates.
type xtcEncoding int

const (
	// Every atom is stored with the full range.
	xtcSingles xtcEncoding = iota

	// Atoms are stored in pairs. The first pair sets the run length and the
	// following pairs reuse it.
	xtcPairs
)

const (
	xtcTestPrecision = 1000
	xtcTestSmallIdx  = 24
)

// writeXTC encodes frames the way GROMACS does, restricted to the run
// patterns chosen by enc.
func writeXTC(frames [][]protein.Coords, enc xtcEncoding) []byte {
	var buf bytes.Buffer
	put := func(v interface{}) { binary.Write(&buf, binary.BigEndian, v) }
	for f, frame := range frames {
		natoms := len(frame)
		put(int32(xtcMagic))
		put(int32(natoms))
		put(int32(f))
		put(float32(f))
		for i := 0; i < 9; i++ {
			put(float32(1))
		}
		put(int32(natoms))
		if natoms <= xtcUncompressed {
			for _, c := range frame {
				for axis := 0; axis < 3; axis++ {
					put(float32(c[axis] / nmToAngstrom))
				}
			}
			continue
		}

		ints := make([][3]int32, natoms)
		minint := [3]int32{math.MaxInt32, math.MaxInt32, math.MaxInt32}
		maxint := [3]int32{math.MinInt32, math.MinInt32, math.MinInt32}
		for i, c := range frame {
			for axis := 0; axis < 3; axis++ {
				v := int32(math.Round(c[axis] / nmToAngstrom * xtcTestPrecision))
				ints[i][axis] = v
				minint[axis] = min(minint[axis], v)
				maxint[axis] = max(maxint[axis], v)
			}
		}
		var sizeint [3]uint32
		for axis := range sizeint {
			sizeint[axis] = uint32(maxint[axis] - minint[axis] + 1)
		}
		large := sizeint[0]|sizeint[1]|sizeint[2] > 0xffffff
		product := uint64(sizeint[0]) * uint64(sizeint[1]) * uint64(sizeint[2])
		bitsize := bits.Len64(product)

		var w bitWriter
		big := func(c [3]int32) {
			var nums [3]uint32
			for axis := range nums {
				nums[axis] = uint32(c[axis] - minint[axis])
			}
			if large {
				for axis := range nums {
					w.write(bits.Len32(sizeint[axis]), uint64(nums[axis]))
				}
			} else {
				w.writeInts(bitsize, sizeint, nums)
			}
		}
		sizesmall := xtcMagicInts[xtcTestSmallIdx]
		smallnum := int32(sizesmall / 2)

		i := 0
		prevrun := 0
		for i < natoms {
			if enc == xtcSingles || i+1 == natoms {
				big(ints[i])
				if prevrun == 0 {
					w.write(1, 0)
				} else {
					w.write(1, 1)
					w.write(5, 1)
					prevrun = 0
				}
				i++
				continue
			}
			a, b := ints[i], ints[i+1]
			big(b)
			if prevrun == 3 {
				w.write(1, 0)
			} else {
				w.write(1, 1)
				w.write(5, 4)
				prevrun = 3
			}
			var nums [3]uint32
			for axis := range nums {
				nums[axis] = uint32(a[axis] - b[axis] + smallnum)
			}
			w.writeInts(xtcTestSmallIdx,
				[3]uint32{sizesmall, sizesmall, sizesmall}, nums)
			i += 2
		}

		put(float32(xtcTestPrecision))
		put(minint)
		put(maxint)
		put(int32(xtcTestSmallIdx))
		put(int32(len(w.buf)))
		buf.Write(w.buf)
		buf.Write(make([]byte, (4-len(w.buf)%4)%4))
	}
	return buf.Bytes()
}

func TestXTC(t *testing.T) {
	spread := testFrames(2, 11)
	spread[1][3] = protein.Coords{200000, -0.5, 3}
	tests := []struct {
		name   string
		frames [][]protein.Coords
		enc    xtcEncoding
	}{
		{"plain", testFrames(3, 5), xtcSingles},
		{"singles", testFrames(3, 12), xtcSingles},
		{"pairs", testFrames(2, 12), xtcPairs},
		{"pairs-odd", testFrames(2, 13), xtcPairs},
		{"large", append(spread, testFrames(1, 11)...), xtcSingles},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			src := NewXTC(bytes.NewReader(writeXTC(test.frames, test.enc)))
			assertFrames(t, test.frames, collect(t, src), 1e-6)
		})
	}
}

func TestXTCTruncated(t *testing.T) {
	data := writeXTC(testFrames(2, 12), xtcPairs)
	src := NewXTC(bytes.NewReader(data[:len(data)-6]))
	assert.True(t, src.Scan())
	assert.False(t, src.Scan())
	assert.ErrorIs(t, src.Err(), io.ErrUnexpectedEOF)
}

func TestXTCBadMagic(t *testing.T) {
	data := writeXTC(testFrames(1, 3), xtcSingles)
	binary.BigEndian.PutUint32(data, trrMagic)
	src := NewXTC(bytes.NewReader(data))
	assert.False(t, src.Scan())
	assert.ErrorIs(t, src.Err(), ErrUnsupportedFormat)
}

func TestXTCOpen(t *testing.T) {
	want := testFrames(3, 10)
	path := filepath.Join(t.TempDir(), "run.xtc")
	require.NoError(t, os.WriteFile(path, writeXTC(want, xtcPairs), 0o644))

	f, err := Open(path, Options{})
	require.NoError(t, err)
	defer f.Close()
	assertFrames(t, want, collect(t, f), 1e-6)
}

func TestSizeOfInts(t *testing.T) {
	tests := [][3]uint32{
		{1, 1, 1},
		{2, 3, 4},
		{100, 200, 300},
		{255, 256, 257},
		{0xfff, 0xfff, 0xfff},
	}
	for _, sizes := range tests {
		product := uint64(sizes[0]) * uint64(sizes[1]) * uint64(sizes[2])
		assert.Equal(t, bits.Len64(product), sizeOfInts(sizes[:]), "%v", sizes)
	}
	for _, size := range []uint32{1, 2, 255, 256, 0xffffff, 0x1000000} {
		assert.Equal(t, bits.Len32(size), sizeOfInt(size), "%d", size)
	}
}
