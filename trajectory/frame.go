package trajectory

import (
	"errors"

	"github.com/BurntSushi/reach/protein"
)

// ErrUnsupportedFormat is returned when a trajectory file format cannot be
// read.
var ErrUnsupportedFormat = errors.New("unsupported trajectory format")

// Frame is a snapshot of the positions of all atoms.
type Frame struct {
	coords []protein.Coords
}

// NewFrame creates a frame from atom positions in atom number order.
func NewFrame(coords []protein.Coords) *Frame {
	return &Frame{coords}
}

// Len returns the number of atoms in the frame.
func (f *Frame) Len() int {
	return len(f.coords)
}

// Atom returns the position of the atom with 1-based number n.
func (f *Frame) Atom(n int) protein.Coords {
	return f.coords[n-1]
}

// Source is a lazy, finite stream of frames.
type Source interface {
	// Scan advances to the next frame. It returns false when the stream is
	// exhausted or an error occurred.
	Scan() bool

	// Frame returns the frame read by the last call to Scan.
	Frame() *Frame

	// Err returns the first error encountered, if any.
	Err() error
}

// Slice is a Source over frames already in memory.
type Slice struct {
	frames []*Frame
	cur    *Frame
}

// NewSlice returns a source that yields frames in order.
func NewSlice(frames []*Frame) *Slice {
	return &Slice{frames: frames}
}

func (s *Slice) Scan() bool {
	if len(s.frames) == 0 {
		s.cur = nil
		return false
	}
	s.cur, s.frames = s.frames[0], s.frames[1:]
	return true
}

func (s *Slice) Frame() *Frame { return s.cur }
func (s *Slice) Err() error    { return nil }
