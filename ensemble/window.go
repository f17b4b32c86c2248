package ensemble

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/BurntSushi/reach/fit"
	"github.com/BurntSushi/reach/protein"
	"github.com/BurntSushi/reach/trajectory"
)

// varianceTolerance is the ratio of the covariance trace to the second
// moment trace below which the ensemble is considered not to vary.
const varianceTolerance = 1e-12

// Window accumulates the displacement vectors of one segment over the frames
// of one ensemble window. A Window must only be used by one goroutine at a
// time, but the segment and frames it reads are never modified.
type Window struct {
	Segment *protein.Segment

	ref    *fit.Reference
	atoms  []int
	coords []protein.Coords

	frames    int
	sum       []float64
	outer     []float64
	deviation float64
}

// NewWindow returns an empty window for seg.
func NewWindow(seg *protein.Segment) (*Window, error) {
	coords, masses := seg.Reference()
	ref, err := fit.NewReference(coords, masses)
	if err != nil {
		return nil, fmt.Errorf("Could not build the reference of segment "+
			"%s: %w", seg.Name(), err)
	}
	dim := 3 * len(coords)
	return &Window{
		Segment: seg,
		ref:     ref,
		atoms:   seg.AtomNumbers(),
		coords:  make([]protein.Coords, len(coords)),
		sum:     make([]float64, dim),
		outer:   make([]float64, dim*dim),
	}, nil
}

// Add superposes the segment's atoms in f onto the reference and
// accumulates the resulting displacement vector.
func (w *Window) Add(f *trajectory.Frame) error {
	for i, num := range w.atoms {
		if num < 1 || num > f.Len() {
			return fmt.Errorf("Segment %s needs atom %d, but the frame has "+
				"%d atoms.", w.Segment.Name(), num, f.Len())
		}
		w.coords[i] = f.Atom(num)
	}
	d, err := w.ref.Superpose(w.coords)
	if err != nil {
		return err
	}

	dim := len(d)
	for i, di := range d {
		w.sum[i] += di
		row := w.outer[i*dim : i*dim+i+1]
		for j := range row {
			row[j] += di * d[j]
		}
	}
	w.deviation += w.ref.Deviation(d)
	w.frames++
	return nil
}

// Len returns the number of frames added.
func (w *Window) Len() int {
	return w.frames
}

// MeanDeviation returns the mean RMSD of the added frames from the
// reference.
func (w *Window) MeanDeviation() float64 {
	if w.frames == 0 {
		return 0
	}
	return w.deviation / float64(w.frames)
}

// Sample computes the mean displacement, the covariance about the mean and
// the force constants at the given temperature. ErrNoVariance is returned
// if the window has fewer than two frames or its frames do not vary.
func (w *Window) Sample(temperature float64) (*Sample, error) {
	if w.frames < 2 {
		return nil, fmt.Errorf("segment %s: %w (%d frames)",
			w.Segment.Name(), ErrNoVariance, w.frames)
	}
	n := float64(w.frames)
	dim := len(w.sum)

	mean := make([]float64, dim)
	for i := range mean {
		mean[i] = w.sum[i] / n
	}
	cov := mat.NewSymDense(dim, nil)
	var trace, moment float64
	for i := 0; i < dim; i++ {
		for j := 0; j <= i; j++ {
			m := w.outer[i*dim+j] / n
			cov.SetSym(i, j, m-mean[i]*mean[j])
		}
		moment += w.outer[i*dim+i] / n
		trace += cov.At(i, i)
	}
	if !(trace > varianceTolerance*moment) {
		return nil, fmt.Errorf("segment %s: %w", w.Segment.Name(), ErrNoVariance)
	}

	fc, err := Extract(cov, mean, temperature)
	if err != nil {
		return nil, fmt.Errorf("segment %s: %w", w.Segment.Name(), err)
	}
	return &Sample{ForceConstants: fc, Displacement: mean, Covariance: cov}, nil
}
