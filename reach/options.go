package reach

import (
	"fmt"
	"runtime"

	"go.uber.org/zap"

	"github.com/BurntSushi/reach/nma"
)

// Options controls a run. The zero value is not useful; start from
// DefaultOptions.
type Options struct {
	// Temperature of the ensemble in Kelvin.
	Temperature float64

	// EnsembleSize is the number of consecutive frames that form one
	// window. A value <= 0 makes the whole trajectory a single window.
	EnsembleSize int

	// AverageBinLength is the width of the distance bins used to average
	// force constants of the complete protein.
	AverageBinLength float64

	// The fast decay is fitted to bins in [MinimumLength, MaximumLength).
	MinimumLength float64
	MaximumLength float64

	// If UseSlowFitting is set, a second decay is fitted to bins in
	// [SlowMinimumLength, SlowMaximumLength) and added to the fast one.
	UseSlowFitting    bool
	SlowMinimumLength float64
	SlowMaximumLength float64

	// Reduction selects the residues the Hessian is reduced to. Empty
	// means no reduction.
	Reduction nma.Selection

	// Workers bounds the number of goroutines used per window. A value
	// <= 0 means one per CPU.
	Workers int

	Logger *zap.Logger

	// Progress, if not nil, is called after every window.
	Progress func(WindowReport)
}

// DefaultOptions returns the options used when a configuration does not
// say otherwise.
func DefaultOptions() Options {
	return Options{
		Temperature:       300,
		EnsembleSize:      2000,
		AverageBinLength:  1,
		MinimumLength:     6,
		MaximumLength:     12,
		UseSlowFitting:    true,
		SlowMinimumLength: 11,
		SlowMaximumLength: 20,
	}
}

func (o Options) validate() error {
	if !(o.Temperature >= 0) {
		return fmt.Errorf("The temperature must not be negative, but is %g.",
			o.Temperature)
	}
	if !(o.AverageBinLength > 0) {
		return fmt.Errorf("The bin length must be positive, but is %g.",
			o.AverageBinLength)
	}
	lengths := []struct {
		name string
		v    float64
	}{
		{"minimum length", o.MinimumLength},
		{"maximum length", o.MaximumLength},
		{"slow minimum length", o.SlowMinimumLength},
		{"slow maximum length", o.SlowMaximumLength},
	}
	for _, l := range lengths {
		if !(l.v >= 0) {
			return fmt.Errorf("The %s must not be negative, but is %g.",
				l.name, l.v)
		}
	}
	if o.MaximumLength <= o.MinimumLength {
		return fmt.Errorf("The fitting range [%g, %g) is empty.",
			o.MinimumLength, o.MaximumLength)
	}
	if o.SlowMaximumLength < o.MinimumLength {
		return fmt.Errorf("The averaging range [%g, %g) is empty.",
			o.MinimumLength, o.SlowMaximumLength)
	}
	if o.UseSlowFitting && o.SlowMaximumLength <= o.SlowMinimumLength {
		return fmt.Errorf("The slow fitting range [%g, %g) is empty.",
			o.SlowMinimumLength, o.SlowMaximumLength)
	}
	return nil
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.NumCPU()
}

// WindowReport describes one processed ensemble window.
type WindowReport struct {
	// 1-based window number.
	Index int

	Frames int

	// Mean RMSD of the complete protein from its reference structure.
	Deviation float64
}
