// Package output writes the results of a REACH run as CSV files into a
// directory.
package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/BurntSushi/reach/csvmat"
	"github.com/BurntSushi/reach/reach"
)

// Switches selects the groups of files that are written.
type Switches struct {
	Hessian               bool
	ForceConstants        bool
	MeanSquareFluctuation bool
	Eigen                 bool
	AverageForceConstants bool
	Covariance            bool
}

// All enables every group of files.
func All() Switches {
	return Switches{true, true, true, true, true, true}
}

// Writer writes results into Dir.
type Writer struct {
	Dir string
	Switches

	log *zap.Logger
}

// New returns a writer into dir, creating dir if it does not exist.
func New(dir string, sw Switches, log *zap.Logger) (*Writer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("Could not create output directory: %w", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("'%s' is not a directory.", dir)
	}
	return &Writer{Dir: dir, Switches: sw, log: log}, nil
}

// Write writes every enabled group of files for res.
func (w *Writer) Write(res *reach.Result) error {
	if w.ForceConstants {
		for _, avg := range res.Segments {
			if avg == nil {
				continue
			}
			name := fmt.Sprintf("force_constant_%s.csv", avg.Segment.Name())
			packed := avg.ForceConstants.Packed()
			err := w.file(name, func(f io.Writer) error {
				return csvmat.WriteMatrix(f, packed, true)
			})
			if err != nil {
				return err
			}
		}
	}
	if w.MeanSquareFluctuation {
		err := w.file("mean_square_fluctuation.csv", func(f io.Writer) error {
			return csvmat.WriteTable(f, []string{"x2_MD", "x2_NMA"},
				res.MeanSquareFluctuation, res.Modes.MeanSquareFluctuation)
		})
		if err != nil {
			return err
		}
	}
	if w.Eigen {
		if err := w.eigen(res); err != nil {
			return err
		}
	}
	if w.AverageForceConstants {
		err := w.file("avg_force_constants.csv", func(f io.Writer) error {
			cols := make([][]float64, len(res.Report))
			for i, v := range res.Report.Values() {
				cols[i] = []float64{v}
			}
			return csvmat.WriteTable(f, res.Report.Names(), cols...)
		})
		if err != nil {
			return err
		}
		err = w.file("avg_force_constants_complete_protein.csv",
			func(f io.Writer) error {
				c := res.Complete
				return csvmat.WriteTable(f,
					[]string{"ks", "rs", "k_errors"}, c.Ks, c.Rs, c.KErrors)
			})
		if err != nil {
			return err
		}
	}
	if w.Hessian {
		err := w.file("hessian_matrix.csv", func(f io.Writer) error {
			return csvmat.WriteMatrix(f, res.Hessian, true)
		})
		if err != nil {
			return err
		}
	}
	if w.Covariance {
		err := w.file("covariance_matrix.csv", func(f io.Writer) error {
			return csvmat.WriteMatrix(f, res.Covariance, false)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) eigen(res *reach.Result) error {
	m := res.Modes
	err := w.file("eigenvectors.csv", func(f io.Writer) error {
		return csvmat.WriteMatrix(f, m.Vectors, true)
	})
	if err != nil {
		return err
	}
	err = w.file("eigenvalues.csv", func(f io.Writer) error {
		return csvmat.WriteVector(f, m.Values, true)
	})
	if err != nil {
		return err
	}
	return w.file("eig_and_vec.csv", func(f io.Writer) error {
		return csvmat.WriteTable(f, []string{"eig", "vec"},
			m.Weighted, m.WeightedVector)
	})
}

// file creates name in the output directory and fills it with write.
func (w *Writer) file(name string, write func(io.Writer) error) error {
	path := filepath.Join(w.Dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("Could not create '%s': %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("Could not write '%s': %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("Could not write '%s': %w", path, err)
	}
	w.log.Debug("wrote output", zap.String("file", path))
	return nil
}
