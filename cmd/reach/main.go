// Command reach derives residue force constants from a molecular dynamics
// trajectory (or a precomputed covariance matrix), builds the elastic network
// Hessian they describe and writes its normal modes as CSV files.
//
// Usage:
//
//	reach -c config.ini -o outdir [-d] [-v] [--cpu N]
//	reach rmsd pdb-file start end pdb-file start end
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BurntSushi/reach/cmd/util"
	"github.com/BurntSushi/reach/config"
	"github.com/BurntSushi/reach/output"
	"github.com/BurntSushi/reach/protein"
	"github.com/BurntSushi/reach/reach"
	"github.com/BurntSushi/reach/trajectory"
)

var (
	flagConfig = ""
	flagOutput = ""
)

func main() {
	root := &cobra.Command{
		Use:   "reach -c config-file -o output-dir",
		Short: "Compute REACH force constants and normal modes.",
		Args:  cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			util.FlagInit()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
		SilenceUsage: true,
	}
	util.FlagUse(root, "cpu", "debug", "verbose")
	root.Flags().StringVarP(&flagConfig, "config", "c", "",
		"The INI file describing the run.")
	root.Flags().StringVarP(&flagOutput, "output", "o", "",
		"The directory to write CSV results to.")
	root.MarkFlagRequired("config")
	root.MarkFlagRequired("output")
	root.AddCommand(rmsdCommand())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	conf, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	log, err := util.InitLogger(conf.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	p := util.ProteinRead(conf.Files.Protein, conf.Files.SecondaryStructure)
	segments, err := protein.Segments(p, conf.General.SegmentSize)
	util.Assert(err, "Could not split '%s' into segments", conf.Files.Protein)
	log.Info("loaded protein",
		zap.String("path", conf.Files.Protein),
		zap.Int("residues", p.Len()),
		zap.Int("segments", len(segments)))

	opts := conf.Options()
	if opts.Workers <= 0 {
		opts.Workers = util.FlagCpu
	}
	opts.Logger = log
	if conf.Files.Reduction != "" {
		opts.Reduction = util.SelectionRead(conf.Files.Reduction, p.Len())
	}
	progress := util.NewProgress()
	opts.Progress = progress.WindowDone

	r, err := reach.New(p, segments, opts)
	if err != nil {
		progress.Close()
		return err
	}
	if conf.Files.Covariance != "" {
		cov := util.CovarianceRead(conf.Files.Covariance, 3*p.Len())
		err = r.AddCovariance(cov)
	} else {
		traj := trajectory.NewConcat(conf.Files.Trajectories,
			trajectory.Options{UnitCell: conf.General.CrystalInformation})
		err = r.AddTrajectory(ctx, traj)
		util.Warning(traj.Close(), "Could not close trajectory")
	}
	progress.Close()
	if err != nil {
		return err
	}

	res, err := r.Compute()
	if err != nil {
		return err
	}
	w, err := output.New(flagOutput, conf.Output, log)
	if err != nil {
		return err
	}
	if err := w.Write(res); err != nil {
		return err
	}
	log.Info("done", zap.String("output", flagOutput))
	return nil
}
