package trajectory

import (
	"fmt"
	"io"

	"github.com/BurntSushi/reach/internal/fileio"
)

// Options controls how trajectory files are read.
type Options struct {
	// UnitCell indicates that every DCD frame starts with a unit cell record.
	UnitCell bool
}

// File is a Source backed by an open file.
type File struct {
	Source
	Path   string
	closer io.Closer
}

// Close closes the underlying file.
func (f *File) Close() error {
	return f.closer.Close()
}

// Open opens the trajectory at path. The format is chosen by the file
// extension (".dcd", ".trr" or ".xtc"), after any compression extension has
// been removed.
func Open(path string, opts Options) (*File, error) {
	ext := fileio.Ext(path)
	switch ext {
	case ".dcd", ".trr", ".xtc":
	default:
		return nil, fmt.Errorf("Could not open trajectory '%s': %w (%s)",
			path, ErrUnsupportedFormat, ext)
	}

	r, err := fileio.Open(path)
	if err != nil {
		return nil, err
	}
	var src Source
	switch ext {
	case ".dcd":
		src, err = NewDCD(r, opts.UnitCell)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("Could not open trajectory '%s': %w",
				path, err)
		}
	case ".trr":
		src = NewTRR(r)
	case ".xtc":
		src = NewXTC(r)
	}
	return &File{Source: src, Path: path, closer: r}, nil
}

// Concat reads the trajectories at paths one after the other, as if they
// were a single trajectory. Each file is opened when the previous one is
// exhausted and closed as soon as it is.
type Concat struct {
	paths []string
	opts  Options
	cur   *File
	err   error
}

// NewConcat returns a source over all frames of all files in paths.
func NewConcat(paths []string, opts Options) *Concat {
	return &Concat{paths: paths, opts: opts}
}

func (c *Concat) Scan() bool {
	for c.err == nil {
		if c.cur == nil {
			if len(c.paths) == 0 {
				return false
			}
			c.cur, c.err = Open(c.paths[0], c.opts)
			c.paths = c.paths[1:]
			if c.err != nil {
				return false
			}
		}
		if c.cur.Scan() {
			return true
		}
		if err := c.cur.Err(); err != nil {
			c.err = fmt.Errorf("'%s': %w", c.cur.Path, err)
		}
		if err := c.cur.Close(); err != nil && c.err == nil {
			c.err = err
		}
		c.cur = nil
	}
	return false
}

func (c *Concat) Frame() *Frame {
	if c.cur == nil {
		return nil
	}
	return c.cur.Frame()
}

func (c *Concat) Err() error { return c.err }

// Close closes the file currently being read, if any.
func (c *Concat) Close() error {
	if c.cur == nil {
		return nil
	}
	err := c.cur.Close()
	c.cur = nil
	return err
}
