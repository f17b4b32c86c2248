package reach

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/BurntSushi/reach/ensemble"
	"github.com/BurntSushi/reach/nlfit"
	"github.com/BurntSushi/reach/nma"
	"github.com/BurntSushi/reach/selector"
)

// Result holds every artifact of a run.
type Result struct {
	// Averaged statistics of every segment, in the order the segments were
	// given. Segments that never produced a sample are nil.
	Segments []*ensemble.Averages

	Report   Report
	Complete Table

	Fast, Slow nlfit.Result
	Selector   *selector.Selector

	// Hessian of the complete protein, reduced if a reduction was given.
	Hessian *mat.SymDense

	// Masses of the residues the Hessian describes.
	Masses []float64

	Modes *nma.Modes

	// Mean square fluctuation of the residues the Hessian describes, as
	// observed in the ensemble.
	MeanSquareFluctuation []float64

	// Averaged covariance of the complete protein.
	Covariance *mat.SymDense
}

// Compute averages the collected statistics, fits the force constant
// decay and computes the normal modes of the complete protein.
func (r *Reach) Compute() (*Result, error) {
	cats, err := newCategories(r.opts)
	if err != nil {
		return nil, err
	}

	res := &Result{Segments: make([]*ensemble.Averages, len(r.stats))}
	for i, s := range r.stats {
		avg, err := s.Averages()
		if errors.Is(err, ensemble.ErrNoSamples) && i > 0 {
			r.log.Warn("segment has no samples",
				zap.String("segment", s.Segment.Name()))
			continue
		}
		if err != nil {
			return nil, err
		}
		res.Segments[i] = avg
		if err := cats.add(r.protein, s.Segment, avg.ForceConstants); err != nil {
			return nil, fmt.Errorf("segment %s: %w", s.Segment.Name(), err)
		}
	}
	res.Report = cats.report()
	res.Complete = cats.table()

	width := r.opts.AverageBinLength
	bins := len(res.Complete.Rs)
	fast := int((r.opts.MaximumLength - r.opts.MinimumLength) / width)
	res.Fast = fitDecay(r.log, "fast", res.Complete, 0, min(fast, bins))
	if r.opts.UseSlowFitting {
		slow := int((r.opts.SlowMaximumLength - r.opts.SlowMinimumLength) / width)
		res.Slow = fitDecay(r.log, "slow", res.Complete, max(bins-slow, 0), bins)
	}
	res.Selector = selector.New(cats.constants(), selector.Decay{
		A:    res.Fast.A,
		B:    res.Fast.B,
		A2:   res.Slow.A,
		B2:   res.Slow.B,
		Slow: r.opts.UseSlowFitting,
	})

	complete := res.Segments[0]
	masses := r.protein.Masses()
	h, err := nma.Hessian(complete.Displacement, masses, r.protein, res.Selector)
	if err != nil {
		return nil, err
	}
	res.Hessian, err = r.opts.Reduction.Reduce(h)
	var cond mat.Condition
	if errors.As(err, &cond) {
		r.log.Warn("reduced Hessian may be inaccurate", zap.Error(err))
	} else if err != nil {
		return nil, err
	}
	if len(r.opts.Reduction) > 0 {
		r.log.Info("reduced Hessian",
			zap.Int("residues", len(masses)),
			zap.Int("selected", len(r.opts.Reduction)))
	}
	res.Masses = r.opts.Reduction.Pick(masses)
	res.MeanSquareFluctuation = r.opts.Reduction.Pick(
		complete.MeanSquareFluctuation)
	res.Covariance = complete.Covariance

	res.Modes, err = nma.Analyze(res.Hessian, res.Masses, r.opts.Temperature)
	if err != nil {
		return nil, err
	}
	return res, nil
}
