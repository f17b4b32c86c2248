// Package average collects (force constant, distance) samples and reports
// their means and standard errors.
//
// An averager without samples reports zero for every statistic. Callers must
// read such zeros as "no data" rather than as a measured force constant.
package average

import (
	"fmt"
	"math"
)

// Averager keeps running sums of force constants, their squares and
// distances. The zero value is an empty averager that accepts every sample.
type Averager struct {
	threshold    float64
	useThreshold bool

	n        int
	k, kk, r float64
}

// New returns an averager that accepts every sample.
func New() *Averager {
	return &Averager{}
}

// NewThreshold returns an averager that only accepts samples whose distance
// is greater than threshold.
func NewThreshold(threshold float64) *Averager {
	return &Averager{threshold: threshold, useThreshold: true}
}

// Add adds one sample.
func (a *Averager) Add(k, r float64) {
	if a.useThreshold && !(r > a.threshold) {
		return
	}
	a.n++
	a.k += k
	a.kk += k * k
	a.r += r
}

// AddVectors adds the samples (ks[i], rs[i]).
func (a *Averager) AddVectors(ks, rs []float64) error {
	if len(ks) != len(rs) {
		return fmt.Errorf("There are %d force constants but %d distances.",
			len(ks), len(rs))
	}
	for i := range ks {
		a.Add(ks[i], rs[i])
	}
	return nil
}

// Len returns the number of accepted samples.
func (a *Averager) Len() int {
	return a.n
}

// Average returns the mean force constant.
func (a *Averager) Average() float64 {
	if a.n == 0 {
		return 0
	}
	return a.k / float64(a.n)
}

// AverageDistance returns the mean distance.
func (a *Averager) AverageDistance() float64 {
	if a.n == 0 {
		return 0
	}
	return a.r / float64(a.n)
}

// SquaredError is the variance of the mean force constant,
// (mean(k^2) - mean(k)^2) / n.
func (a *Averager) SquaredError() float64 {
	if a.n == 0 {
		return 0
	}
	n := float64(a.n)
	mean := a.k / n
	return (a.kk/n - mean*mean) / n
}

// StandardError is the square root of SquaredError.
func (a *Averager) StandardError() float64 {
	return math.Sqrt(math.Max(0, a.SquaredError()))
}

// Cis routes samples by distance: samples at or below the threshold go to a
// separate cis averager, everything else to the generic one.
type Cis struct {
	Averager
	cis       Averager
	threshold float64
}

// NewCis returns a cis aware averager with the given distance threshold.
func NewCis(threshold float64) *Cis {
	return &Cis{threshold: threshold}
}

// Add adds one sample to either the generic or the cis statistics.
func (c *Cis) Add(k, r float64) {
	if r > c.threshold {
		c.Averager.Add(k, r)
	} else {
		c.cis.Add(k, r)
	}
}

// AddVectors adds the samples (ks[i], rs[i]).
func (c *Cis) AddVectors(ks, rs []float64) error {
	if len(ks) != len(rs) {
		return fmt.Errorf("There are %d force constants but %d distances.",
			len(ks), len(rs))
	}
	for i := range ks {
		c.Add(ks[i], rs[i])
	}
	return nil
}

// CisAverage returns the mean force constant of the cis samples.
func (c *Cis) CisAverage() float64 {
	return c.cis.Average()
}

// CisDistance returns the mean distance of the cis samples.
func (c *Cis) CisDistance() float64 {
	return c.cis.AverageDistance()
}

// CisLen returns the number of cis samples.
func (c *Cis) CisLen() int {
	return c.cis.Len()
}

// Bins partitions the distance range [min, max) into bins of equal width,
// each with its own averager. Samples outside of the range are dropped.
type Bins struct {
	min, width float64
	bins       []Averager
}

// NewBins returns a binned averager. The number of bins is the number of
// whole bin widths that fit in [min, max).
func NewBins(min, max, width float64) (*Bins, error) {
	if !(width > 0) {
		return nil, fmt.Errorf("The bin width must be positive, but is %g.",
			width)
	}
	if max < min {
		return nil, fmt.Errorf("The bin range [%g, %g) is empty.", min, max)
	}
	n := int((max - min) / width)
	return &Bins{min: min, width: width, bins: make([]Averager, n)}, nil
}

// Add adds one sample to the bin containing r.
func (b *Bins) Add(k, r float64) {
	n := math.Floor((r - b.min) / b.width)
	if n >= 0 && n < float64(len(b.bins)) {
		b.bins[int(n)].Add(k, r)
	}
}

// AddVectors adds the samples (ks[i], rs[i]).
func (b *Bins) AddVectors(ks, rs []float64) error {
	if len(ks) != len(rs) {
		return fmt.Errorf("There are %d force constants but %d distances.",
			len(ks), len(rs))
	}
	for i := range ks {
		b.Add(ks[i], rs[i])
	}
	return nil
}

// Len returns the number of bins.
func (b *Bins) Len() int {
	return len(b.bins)
}

// Bin returns the averager of bin i.
func (b *Bins) Bin(i int) *Averager {
	return &b.bins[i]
}

// Centers returns the distance at the center of every bin.
func (b *Bins) Centers() []float64 {
	return b.collect(func(i int, _ *Averager) float64 {
		return b.min + b.width*(float64(i)+0.5)
	})
}

// Averages returns the mean force constant of every bin.
func (b *Bins) Averages() []float64 {
	return b.collect(func(_ int, a *Averager) float64 { return a.Average() })
}

// StandardErrors returns the standard error of every bin.
func (b *Bins) StandardErrors() []float64 {
	return b.collect(func(_ int, a *Averager) float64 {
		return a.StandardError()
	})
}

// SquaredErrors returns the variance of the mean of every bin.
func (b *Bins) SquaredErrors() []float64 {
	return b.collect(func(_ int, a *Averager) float64 {
		return a.SquaredError()
	})
}

// Counts returns the number of samples in every bin.
func (b *Bins) Counts() []int {
	counts := make([]int, len(b.bins))
	for i := range b.bins {
		counts[i] = b.bins[i].Len()
	}
	return counts
}

func (b *Bins) collect(f func(i int, a *Averager) float64) []float64 {
	vs := make([]float64, len(b.bins))
	for i := range b.bins {
		vs[i] = f(i, &b.bins[i])
	}
	return vs
}
