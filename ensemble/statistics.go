package ensemble

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/BurntSushi/reach/protein"
)

// Statistics keeps running sums of the samples of one segment over all
// ensemble windows.
type Statistics struct {
	Segment *protein.Segment

	samples int
	k, r    *mat.SymDense
	cov     *mat.SymDense
	disp    []float64
	msf     []float64
}

// NewStatistics returns empty statistics for seg.
func NewStatistics(seg *protein.Segment) *Statistics {
	n := seg.Len()
	return &Statistics{
		Segment: seg,
		k:       mat.NewSymDense(n, nil),
		r:       mat.NewSymDense(n, nil),
		cov:     mat.NewSymDense(3*n, nil),
		disp:    make([]float64, 3*n),
		msf:     make([]float64, n),
	}
}

// Len returns the number of samples added.
func (s *Statistics) Len() int {
	return s.samples
}

// Add folds one sample into the running sums.
func (s *Statistics) Add(sample *Sample) error {
	n := s.Segment.Len()
	if sample.ForceConstants.Len() != n || len(sample.Displacement) != 3*n ||
		sample.Covariance.SymmetricDim() != 3*n {
		return fmt.Errorf("A sample of %d residues cannot be added to "+
			"segment %s of %d residues.", sample.ForceConstants.Len(),
			s.Segment.Name(), n)
	}
	s.k.AddSym(s.k, sample.ForceConstants.K)
	s.r.AddSym(s.r, sample.ForceConstants.R)
	s.cov.AddSym(s.cov, sample.Covariance)
	for i, v := range sample.Displacement {
		s.disp[i] += v
	}
	for i, v := range sample.MeanSquareFluctuation() {
		s.msf[i] += v
	}
	s.samples++
	return nil
}

// Averages are the statistics of one segment averaged over all windows.
type Averages struct {
	Segment               *protein.Segment
	Windows               int
	ForceConstants        *ForceConstants
	Displacement          []float64
	MeanSquareFluctuation []float64
	Covariance            *mat.SymDense
}

// Averages returns the averages of all samples added so far.
func (s *Statistics) Averages() (*Averages, error) {
	if s.samples == 0 {
		return nil, fmt.Errorf("segment %s: %w", s.Segment.Name(), ErrNoSamples)
	}
	f := 1 / float64(s.samples)
	avg := &Averages{
		Segment: s.Segment,
		Windows: s.samples,
		ForceConstants: &ForceConstants{
			K: scaled(f, s.k),
			R: scaled(f, s.r),
		},
		Covariance:            scaled(f, s.cov),
		Displacement:          make([]float64, len(s.disp)),
		MeanSquareFluctuation: make([]float64, len(s.msf)),
	}
	for i, v := range s.disp {
		avg.Displacement[i] = v * f
	}
	for i, v := range s.msf {
		avg.MeanSquareFluctuation[i] = v * f
	}
	return avg, nil
}

func scaled(f float64, a *mat.SymDense) *mat.SymDense {
	var m mat.SymDense
	m.ScaleSym(f, a)
	return &m
}
