package reach

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/BurntSushi/reach/ensemble"
	"github.com/BurntSushi/reach/protein"
	"github.com/BurntSushi/reach/trajectory"
)

// feedBuffer is the number of frames queued for every accumulating worker.
const feedBuffer = 64

// Reach collects force constant statistics of the segments of a protein.
type Reach struct {
	protein  *protein.Protein
	segments []*protein.Segment
	stats    []*ensemble.Statistics
	opts     Options
	log      *zap.Logger
	windows  int
}

// New prepares a run over the given segments of p. The first segment must
// be the complete protein.
func New(p *protein.Protein, segments []*protein.Segment, opts Options) (*Reach, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if len(segments) == 0 || segments[0].Type != protein.CompleteProtein ||
		segments[0].Len() != p.Len() {
		return nil, fmt.Errorf("The first segment must cover all %d residues "+
			"of the protein.", p.Len())
	}
	for _, r := range opts.Reduction {
		if r < 1 || r > p.Len() {
			return nil, fmt.Errorf("The reduction selects residue %d, but the "+
				"protein has %d residues.", r, p.Len())
		}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	r := &Reach{
		protein:  p,
		segments: segments,
		stats:    make([]*ensemble.Statistics, len(segments)),
		opts:     opts,
		log:      opts.Logger,
	}
	for i, seg := range segments {
		r.stats[i] = ensemble.NewStatistics(seg)
	}
	return r, nil
}

// Windows returns the number of windows (or covariance matrices) added.
func (r *Reach) Windows() int {
	return r.windows
}

// AddTrajectory consumes src window by window. Every window is superposed
// onto the reference structure of every segment, and the force constants of
// each segment are added to its statistics.
func (r *Reach) AddTrajectory(ctx context.Context, src trajectory.Source) error {
	total := 0
	for {
		windows, frames, err := r.accumulate(ctx, src)
		if err != nil {
			return err
		}
		if frames == 0 {
			break
		}
		total += frames
		if frames < 2 {
			r.log.Warn("discarding window with too few frames",
				zap.Int("window", r.windows+1), zap.Int("frames", frames))
			continue
		}
		if err := r.fold(ctx, windows); err != nil {
			return err
		}
		if frames < r.opts.EnsembleSize {
			break
		}
	}
	if total == 0 {
		return fmt.Errorf("The trajectory has no frames.")
	}
	return nil
}

// accumulate reads at most one window of frames from src. Segments are
// divided among the workers; every worker owns its windows and sees every
// frame.
func (r *Reach) accumulate(ctx context.Context, src trajectory.Source) ([]*ensemble.Window, int, error) {
	windows := make([]*ensemble.Window, len(r.segments))
	for i, seg := range r.segments {
		w, err := ensemble.NewWindow(seg)
		if err != nil {
			return nil, 0, err
		}
		windows[i] = w
	}

	workers := r.opts.workers()
	if workers > len(windows) {
		workers = len(windows)
	}
	g, gctx := errgroup.WithContext(ctx)
	feeds := make([]chan *trajectory.Frame, workers)
	for first := range feeds {
		first := first
		feed := make(chan *trajectory.Frame, feedBuffer)
		feeds[first] = feed
		g.Go(func() error {
			for f := range feed {
				for i := first; i < len(windows); i += workers {
					if err := windows[i].Add(f); err != nil {
						return err
					}
				}
			}
			return nil
		})
	}

	frames := 0
scan:
	for (r.opts.EnsembleSize <= 0 || frames < r.opts.EnsembleSize) && src.Scan() {
		f := src.Frame()
		for _, feed := range feeds {
			select {
			case feed <- f:
			case <-gctx.Done():
				break scan
			}
		}
		frames++
	}
	for _, feed := range feeds {
		close(feed)
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if err := src.Err(); err != nil {
		return nil, 0, fmt.Errorf("Could not read frame %d of window %d: %w",
			frames+1, r.windows+1, err)
	}
	return windows, frames, nil
}

// fold computes the force constants of every window and adds them to the
// statistics of their segments.
func (r *Reach) fold(ctx context.Context, windows []*ensemble.Window) error {
	samples := make([]*ensemble.Sample, len(windows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.workers())
	for i, w := range windows {
		i, w := i, w
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s, err := w.Sample(r.opts.Temperature)
			if errors.Is(err, ensemble.ErrNoVariance) {
				r.log.Warn("skipping segment without variance",
					zap.String("segment", w.Segment.Name()),
					zap.Int("window", r.windows+1))
				return nil
			}
			samples[i] = s
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := r.addSamples(samples); err != nil {
		return err
	}

	report := WindowReport{
		Index:     r.windows,
		Frames:    windows[0].Len(),
		Deviation: windows[0].MeanDeviation(),
	}
	r.log.Info("window done",
		zap.Int("window", report.Index),
		zap.Int("frames", report.Frames),
		zap.Float64("rmsd", report.Deviation))
	if r.opts.Progress != nil {
		r.opts.Progress(report)
	}
	return nil
}

func (r *Reach) addSamples(samples []*ensemble.Sample) error {
	for i, s := range samples {
		if s == nil {
			continue
		}
		if err := r.stats[i].Add(s); err != nil {
			return err
		}
	}
	r.windows++
	return nil
}

// AddCovariance adds the force constants derived from a precomputed
// covariance matrix of all 3N alpha carbon coordinates. Only the lower
// triangle of cov is read.
func (r *Reach) AddCovariance(cov mat.Matrix) error {
	rows, cols := cov.Dims()
	dim := 3 * r.protein.Len()
	if rows != dim || cols != dim {
		return fmt.Errorf("The covariance matrix is %dx%d, but the protein "+
			"needs %dx%d.", rows, cols, dim, dim)
	}

	samples := make([]*ensemble.Sample, len(r.segments))
	for i, seg := range r.segments {
		s, err := ensemble.FromCovariance(block(cov, seg), r.opts.Temperature)
		if errors.Is(err, ensemble.ErrNoVariance) {
			r.log.Warn("skipping segment without variance",
				zap.String("segment", seg.Name()))
			continue
		}
		if err != nil {
			return fmt.Errorf("segment %s: %w", seg.Name(), err)
		}
		samples[i] = s
	}
	if err := r.addSamples(samples); err != nil {
		return err
	}
	r.log.Info("added covariance matrix", zap.Int("size", dim))
	return nil
}

// block returns the symmetric block of cov belonging to seg.
func block(cov mat.Matrix, seg *protein.Segment) *mat.SymDense {
	off := 3 * (seg.Start - 1)
	dim := 3 * seg.Len()
	b := mat.NewSymDense(dim, nil)
	for i := 0; i < dim; i++ {
		for j := 0; j <= i; j++ {
			b.SetSym(i, j, cov.At(off+i, off+j))
		}
	}
	return b
}
