package reach

import (
	"math"

	"go.uber.org/zap"

	"github.com/BurntSushi/reach/average"
	"github.com/BurntSushi/reach/ensemble"
	"github.com/BurntSushi/reach/nlfit"
	"github.com/BurntSushi/reach/protein"
	"github.com/BurntSushi/reach/selector"
)

// ReportEntry is one named value of the averaged force constant report.
type ReportEntry struct {
	Name  string
	Value float64
}

// Report lists the averaged force constants, mean distances and errors of
// every category in a fixed order.
type Report []ReportEntry

// Get returns the value named name.
func (r Report) Get(name string) (float64, bool) {
	for _, e := range r {
		if e.Name == name {
			return e.Value, true
		}
	}
	return 0, false
}

// Names returns the names of all entries in order.
func (r Report) Names() []string {
	names := make([]string, len(r))
	for i, e := range r {
		names[i] = e.Name
	}
	return names
}

// Values returns the values of all entries in order.
func (r Report) Values() []float64 {
	vs := make([]float64, len(r))
	for i, e := range r {
		vs[i] = e.Value
	}
	return vs
}

// Table is the binned force constants of the complete protein: for every
// distance bin its center, mean force constant and squared error.
type Table struct {
	Rs, Ks, KErrors []float64
	Counts          []int
}

// categories holds one averager per structural category and sequence
// offset.
type categories struct {
	alpha    [4]*average.Averager
	beta     [3]*average.Averager
	betaPair *average.Averager
	local12  *average.Cis
	local    [2]*average.Averager
	complete *average.Bins
}

func newCategories(opts Options) (*categories, error) {
	complete, err := average.NewBins(opts.MinimumLength,
		opts.SlowMaximumLength, opts.AverageBinLength)
	if err != nil {
		return nil, err
	}
	c := &categories{
		betaPair: average.New(),
		local12:  average.NewCis(selector.CisThreshold),
		complete: complete,
	}
	c.alpha[0] = average.NewThreshold(selector.CisThreshold)
	c.beta[0] = average.NewThreshold(selector.CisThreshold)
	for i := 1; i < len(c.alpha); i++ {
		c.alpha[i] = average.New()
	}
	for i := 1; i < len(c.beta); i++ {
		c.beta[i] = average.New()
	}
	for i := range c.local {
		c.local[i] = average.New()
	}
	return c, nil
}

// add samples the force constants of one segment into the averagers of its
// category.
func (c *categories) add(p *protein.Protein, seg *protein.Segment, fc *ensemble.ForceConstants) error {
	diagonal := func(a interface{ AddVectors(ks, rs []float64) error }, offset int) error {
		return a.AddVectors(fc.Diagonal(offset))
	}
	switch seg.Type {
	case protein.AlphaHelix:
		for i, a := range c.alpha {
			if err := diagonal(a, i+1); err != nil {
				return err
			}
		}
	case protein.BetaStrand:
		for i, a := range c.beta {
			if err := diagonal(a, i+1); err != nil {
				return err
			}
		}
	case protein.LocalInteraction:
		if err := diagonal(c.local12, 1); err != nil {
			return err
		}
		for i, a := range c.local {
			if err := diagonal(a, i+2); err != nil {
				return err
			}
		}
	case protein.CompleteProtein:
		c.addComplete(p, fc)
		c.addBetaPairs(p, fc)
	}
	return nil
}

// addComplete bins all pairs of the complete protein that are far enough
// apart in sequence and not covered by a structural category.
func (c *categories) addComplete(p *protein.Protein, fc *ensemble.ForceConstants) {
	gap := 4
	if p.HasSecondaryStructure() {
		gap = 2
	}
	n := fc.Len()
	for i := 0; i < n; i++ {
		for j := 0; j <= i-gap; j++ {
			if p.Classify(i+1, j+1) != protein.None {
				continue
			}
			c.complete.Add(fc.K.At(i, j), fc.R.At(i, j))
		}
	}
}

func (c *categories) addBetaPairs(p *protein.Protein, fc *ensemble.ForceConstants) {
	n := fc.Len()
	for _, pair := range p.SS.BetaPairs {
		i, j := pair.First-1, pair.Second-1
		if i < 0 || j < 0 || i >= n || j >= n || i == j {
			continue
		}
		c.betaPair.Add(fc.K.At(i, j), fc.R.At(i, j))
	}
}

func (c *categories) report() Report {
	var r Report
	add := func(name string, k, dist, kerr float64) {
		r = append(r,
			ReportEntry{name + "_k", k},
			ReportEntry{name + "_r", dist},
			ReportEntry{name + "_k_error", kerr})
	}
	plain := func(name string, a *average.Averager) {
		add(name, a.Average(), a.AverageDistance(), a.StandardError())
	}
	for i, a := range c.alpha {
		plain(offsetName("alpha", i+1), a)
	}
	for i, a := range c.beta {
		plain(offsetName("beta", i+1), a)
	}
	plain("beta_pair", c.betaPair)
	add("local_12", c.local12.CisAverage(), c.local12.CisDistance(),
		c.local12.StandardError())
	for i, a := range c.local {
		plain(offsetName("local", i+2), a)
	}
	return r
}

func offsetName(category string, offset int) string {
	return category + "_1" + string(rune('1'+offset))
}

func (c *categories) table() Table {
	return Table{
		Rs:      c.complete.Centers(),
		Ks:      c.complete.Averages(),
		KErrors: c.complete.SquaredErrors(),
		Counts:  c.complete.Counts(),
	}
}

func (c *categories) constants() selector.Constants {
	var cs selector.Constants
	cs[selector.Local12] = c.local12.Average()
	cs[selector.Local12Cis] = c.local12.CisAverage()
	cs[selector.Local13] = c.local[0].Average()
	cs[selector.Local14] = c.local[1].Average()
	for i, a := range c.alpha {
		cs[selector.Helix12+selector.Constant(i)] = a.Average()
	}
	for i, a := range c.beta {
		cs[selector.Strand12+selector.Constant(i)] = a.Average()
	}
	cs[selector.BetaPair] = c.betaPair.Average()
	return cs
}

// fitDecay fits an exponential decay to the bins from through to-1 of t.
// Bins with fewer than two samples or without variance are left out. A fit
// that cannot be done yields a zero decay with status NotFitted.
func fitDecay(log *zap.Logger, name string, t Table, from, to int) nlfit.Result {
	var xs, ys, vs []float64
	for i := from; i < to; i++ {
		if t.Counts[i] < 2 || !(t.KErrors[i] > 0) {
			continue
		}
		xs = append(xs, t.Rs[i])
		ys = append(ys, t.Ks[i])
		vs = append(vs, t.KErrors[i])
	}
	res, err := nlfit.Exponential(xs, ys, vs)
	if err != nil {
		log.Warn("could not fit force constant decay",
			zap.String("fit", name), zap.Int("bins", len(xs)), zap.Error(err))
		return nlfit.Result{Status: nlfit.NotFitted}
	}
	if !finite(res.A) || !finite(res.B) {
		log.Warn("force constant decay fit diverged", zap.String("fit", name))
		return nlfit.Result{Status: nlfit.NotFitted, Iterations: res.Iterations}
	}
	fields := []zap.Field{
		zap.String("fit", name),
		zap.Float64("a", res.A),
		zap.Float64("b", res.B),
		zap.Int("iterations", res.Iterations),
		zap.Stringer("status", res.Status),
	}
	if res.Status == nlfit.MaxIterationsReached {
		log.Warn("force constant decay fit did not converge", fields...)
	} else {
		log.Info("fitted force constant decay", fields...)
	}
	return res
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
