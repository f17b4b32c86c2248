package util

import (
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BurntSushi/reach/config"
)

var (
	FlagCpu = runtime.NumCPU()

	FlagDebug   = false
	FlagVerbose = false
)

type commonFlag struct {
	set  func(cmd *cobra.Command)
	init func()
	use  bool
}

var commonFlags = map[string]*commonFlag{
	"cpu": {
		set: func(cmd *cobra.Command) {
			cmd.PersistentFlags().IntVar(&FlagCpu, "cpu", FlagCpu,
				"The max number of CPUs to use.")
		},
		init: func() {
			runtime.GOMAXPROCS(FlagCpu)
		},
	},
	"debug": {
		set: func(cmd *cobra.Command) {
			cmd.PersistentFlags().BoolVarP(&FlagDebug, "debug", "d", FlagDebug,
				"When set, debug messages are logged.")
		},
	},
	"verbose": {
		set: func(cmd *cobra.Command) {
			cmd.PersistentFlags().BoolVarP(&FlagVerbose, "verbose", "v",
				FlagVerbose, "When set, every message is logged.")
		},
	},
}

// FlagUse registers the named common flags on cmd and its sub-commands.
func FlagUse(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		fl := commonFlags[name]
		fl.use = true
		fl.set(cmd)
	}
}

// FlagInit applies the common flags in use. It belongs in a
// PersistentPreRun hook.
func FlagInit() {
	for _, fl := range commonFlags {
		if fl.use && fl.init != nil {
			fl.init()
		}
	}
}

// InitLogger installs the global logger for the given configured log level.
// The debug and verbose flags override the level.
func InitLogger(level int) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	switch {
	case FlagVerbose:
		level = config.LevelVerbose
	case FlagDebug:
		level = config.LevelDebug
	}
	if level >= config.LevelDebug {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.DisableStacktrace = level < config.LevelVerbose

	zl, ok := config.ZapLevel(level)
	if !ok {
		zap.ReplaceGlobals(zap.NewNop())
		return zap.L(), nil
	}
	cfg.Level = zap.NewAtomicLevelAt(zl)
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}
