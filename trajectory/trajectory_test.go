package trajectory

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	chem "github.com/rmera/gochem"
	"github.com/rmera/gochem/traj/dcd"
	v3 "github.com/rmera/gochem/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BurntSushi/reach/protein"
)

// testFrames returns nframes frames of natoms atoms with easily checked,
// float32 representable positions.
func testFrames(nframes, natoms int) [][]protein.Coords {
	frames := make([][]protein.Coords, nframes)
	for f := range frames {
		frames[f] = make([]protein.Coords, natoms)
		for i := range frames[f] {
			frames[f][i] = protein.Coords{
				float64(f) + 0.5, float64(i) * 0.25, -float64(f*natoms + i),
			}
		}
	}
	return frames
}

func record(buf *bytes.Buffer, order binary.ByteOrder, payload []byte) {
	binary.Write(buf, order, uint32(len(payload)))
	buf.Write(payload)
	binary.Write(buf, order, uint32(len(payload)))
}

func writeDCD(order binary.ByteOrder, frames [][]protein.Coords, cell bool) []byte {
	natoms := len(frames[0])
	var buf bytes.Buffer

	var hdr bytes.Buffer
	hdr.WriteString("CORD")
	icntrl := make([]int32, 20)
	icntrl[0] = int32(len(frames))
	icntrl[19] = 24
	if cell {
		icntrl[10] = 1
	}
	binary.Write(&hdr, order, icntrl)
	record(&buf, order, hdr.Bytes())

	var title bytes.Buffer
	binary.Write(&title, order, int32(1))
	title.Write(bytes.Repeat([]byte{' '}, 80))
	record(&buf, order, title.Bytes())

	var natom bytes.Buffer
	binary.Write(&natom, order, int32(natoms))
	record(&buf, order, natom.Bytes())

	for _, frame := range frames {
		if cell {
			var uc bytes.Buffer
			binary.Write(&uc, order, [6]float64{10, 90, 10, 90, 90, 10})
			record(&buf, order, uc.Bytes())
		}
		for axis := 0; axis < 3; axis++ {
			var xs bytes.Buffer
			for _, c := range frame {
				binary.Write(&xs, order, float32(c[axis]))
			}
			record(&buf, order, xs.Bytes())
		}
	}
	return buf.Bytes()
}

func writeTRR(frames [][]protein.Coords, prec int, skipX bool) []byte {
	natoms := len(frames[0])
	order := binary.BigEndian
	var buf bytes.Buffer
	putReal := func(v float64) {
		if prec == 4 {
			binary.Write(&buf, order, float32(v))
		} else {
			binary.Write(&buf, order, v)
		}
	}
	for f, frame := range frames {
		xSize := int32(natoms * 3 * prec)
		if skipX && f == 0 {
			xSize = 0
		}
		binary.Write(&buf, order, int32(trrMagic))
		binary.Write(&buf, order, int32(13))
		binary.Write(&buf, order, int32(12))
		buf.WriteString(trrVersion)
		binary.Write(&buf, order, []int32{
			0, 0, int32(9 * prec), 0, 0, 0, 0, xSize, 0, 0,
			int32(natoms), int32(f), 0,
		})
		putReal(float64(f))
		putReal(0)
		for i := 0; i < 9; i++ {
			putReal(1)
		}
		if xSize == 0 {
			continue
		}
		for _, c := range frame {
			for axis := 0; axis < 3; axis++ {
				putReal(c[axis] / nmToAngstrom)
			}
		}
	}
	return buf.Bytes()
}

func collect(t *testing.T, src Source) [][]protein.Coords {
	var got [][]protein.Coords
	for src.Scan() {
		f := src.Frame()
		coords := make([]protein.Coords, f.Len())
		for i := range coords {
			coords[i] = f.Atom(i + 1)
		}
		got = append(got, coords)
	}
	require.NoError(t, src.Err())
	return got
}

func assertFrames(t *testing.T, want, got [][]protein.Coords, delta float64) {
	require.Len(t, got, len(want))
	for f := range want {
		require.Len(t, got[f], len(want[f]))
		for i := range want[f] {
			for axis := 0; axis < 3; axis++ {
				assert.InDelta(t, want[f][i][axis], got[f][i][axis], delta)
			}
		}
	}
}

func TestDCD(t *testing.T) {
	want := testFrames(3, 5)
	tests := []struct {
		name  string
		order binary.ByteOrder
		cell  bool
	}{
		{"little", binary.LittleEndian, false},
		{"big", binary.BigEndian, false},
		{"little-cell", binary.LittleEndian, true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			data := writeDCD(test.order, want, test.cell)
			d, err := NewDCD(bytes.NewReader(data), test.cell)
			require.NoError(t, err)
			assert.Equal(t, 5, d.Atoms())
			assertFrames(t, want, collect(t, d), 0)
		})
	}
}

// TestDCDGochem reads the same file with gochem's DCD reader and expects
// identical coordinates.
func TestDCDGochem(t *testing.T) {
	want := testFrames(4, 6)
	path := filepath.Join(t.TempDir(), "run.dcd")
	require.NoError(t, os.WriteFile(path,
		writeDCD(binary.LittleEndian, want, false), 0o644))

	ref, err := dcd.New(path)
	require.NoError(t, err)
	defer ref.Close()
	require.Equal(t, len(want[0]), ref.Len())

	f, err := Open(path, Options{})
	require.NoError(t, err)
	defer f.Close()

	coords := v3.Zeros(ref.Len())
	frames := 0
	for f.Scan() {
		require.NoError(t, ref.Next(coords))
		frame := f.Frame()
		require.Equal(t, ref.Len(), frame.Len())
		for i := 0; i < frame.Len(); i++ {
			atom := frame.Atom(i + 1)
			for axis := 0; axis < 3; axis++ {
				assert.Equal(t, coords.At(i, axis), atom[axis])
			}
		}
		frames++
	}
	require.NoError(t, f.Err())
	assert.Equal(t, len(want), frames)

	err = ref.Next(coords)
	_, last := err.(chem.LastFrameError)
	assert.True(t, last, "%v", err)
}

func TestDCDTruncated(t *testing.T) {
	data := writeDCD(binary.LittleEndian, testFrames(2, 4), false)
	d, err := NewDCD(bytes.NewReader(data[:len(data)-10]), false)
	require.NoError(t, err)
	assert.True(t, d.Scan())
	assert.False(t, d.Scan())
	assert.Error(t, d.Err())
}

func TestDCDNotDCD(t *testing.T) {
	_, err := NewDCD(bytes.NewReader([]byte("not a dcd file at all")), false)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestTRR(t *testing.T) {
	want := testFrames(3, 4)
	for _, prec := range []int{4, 8} {
		src := NewTRR(bytes.NewReader(writeTRR(want, prec, false)))
		delta := 1e-12
		if prec == 4 {
			delta = 1e-4
		}
		assertFrames(t, want, collect(t, src), delta)
	}

	src := NewTRR(bytes.NewReader(writeTRR(want, 4, true)))
	assertFrames(t, want[1:], collect(t, src), 1e-4)
}

func TestTRRBadMagic(t *testing.T) {
	data := writeTRR(testFrames(1, 2), 4, false)
	binary.BigEndian.PutUint32(data, 7)
	src := NewTRR(bytes.NewReader(data))
	assert.False(t, src.Scan())
	assert.ErrorIs(t, src.Err(), ErrUnsupportedFormat)
}

func TestConcat(t *testing.T) {
	dir := t.TempDir()
	first, second := testFrames(2, 3), testFrames(3, 3)
	p1 := filepath.Join(dir, "a.dcd")
	p2 := filepath.Join(dir, "b.trr")
	require.NoError(t, os.WriteFile(p1,
		writeDCD(binary.LittleEndian, first, false), 0o644))
	require.NoError(t, os.WriteFile(p2, writeTRR(second, 8, false), 0o644))

	c := NewConcat([]string{p1, p2}, Options{})
	got := collect(t, c)
	require.NoError(t, c.Close())
	assertFrames(t, append(first, second...), got, 1e-9)
}

func TestOpenUnsupported(t *testing.T) {
	_, err := Open("run.xyz", Options{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	c := NewConcat([]string{filepath.Join(t.TempDir(), "missing.dcd")}, Options{})
	assert.False(t, c.Scan())
	assert.Error(t, c.Err())
}

func TestSlice(t *testing.T) {
	frames := []*Frame{
		NewFrame([]protein.Coords{{1, 2, 3}}),
		NewFrame([]protein.Coords{{4, 5, 6}}),
	}
	got := collect(t, NewSlice(frames))
	assert.Equal(t, [][]protein.Coords{{{1, 2, 3}}, {{4, 5, 6}}}, got)
}
