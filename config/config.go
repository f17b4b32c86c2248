// Package config reads the INI configuration of a REACH run.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-ini/ini"
	"go.uber.org/zap/zapcore"

	"github.com/BurntSushi/reach/output"
	"github.com/BurntSushi/reach/reach"
)

// Log levels, from silent to most verbose.
const (
	LevelNone = iota
	LevelFatal
	LevelError
	LevelWarning
	LevelInfo
	LevelDebug
	LevelVerbose
)

type General struct {
	Temperature        float64
	EnsembleSize       int
	SegmentSize        int
	CrystalInformation bool
}

// Files holds absolute paths of all input files. Optional files that are not
// configured are empty.
type Files struct {
	Protein            string
	Trajectories       []string
	Covariance         string
	SecondaryStructure string
	Reduction          string
}

type Fitting struct {
	AverageBinLength  float64
	MinimumLength     float64
	MaximumLength     float64
	UseSlowFitting    bool
	SlowMinimumLength float64
	SlowMaximumLength float64
}

type Config struct {
	General General
	Files   Files
	Fitting Fitting
	Output  output.Switches

	// Threads is the number of workers; 0 means one per CPU.
	Threads int

	LogLevel int
}

// Load reads the configuration at path. Relative file names are resolved
// against the directory of path, and every named file must exist.
func Load(path string) (*Config, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("Could not read configuration '%s': %w",
			path, err)
	}
	p := &parser{file: f, root: filepath.Dir(path)}

	var c Config
	c.General = General{
		Temperature:        p.float("General", "TEMPERATURE", nil),
		EnsembleSize:       p.int("General", "ENSEMBLE_SIZE", 2000, 0),
		SegmentSize:        p.int("General", "SEGMENT_SIZE", 20, 0),
		CrystalInformation: p.bool("General", "CRYSTAL_INFORMATION", false),
	}
	c.Files.Protein = p.path("Files", "PROTEIN", true)
	c.Files.SecondaryStructure = p.path("Files", "SECONDARY_STRUCTURE", false)
	c.Files.Reduction = p.path("Files", "REDUCTION", false)
	c.Files.Covariance = p.path("Files", "NMA_COVARIANCE", false)
	if c.Files.Covariance == "" {
		c.Files.Trajectories = p.paths("Files", "TRAJECTORIES")
	}

	fallback := reach.DefaultOptions()
	c.Fitting = Fitting{
		AverageBinLength:  p.length("AVERAGE_BIN_LENGTH", fallback.AverageBinLength),
		MinimumLength:     p.length("MINIMUM_LENGTH", fallback.MinimumLength),
		MaximumLength:     p.length("MAXIMUM_LENGTH", fallback.MaximumLength),
		UseSlowFitting:    p.bool("Fitting", "USE_SLOW_FITTING", fallback.UseSlowFitting),
		SlowMinimumLength: p.length("SLOW_MINIMUM_LENGTH", fallback.SlowMinimumLength),
		SlowMaximumLength: p.length("SLOW_MAXIMUM_LENGTH", fallback.SlowMaximumLength),
	}
	c.Output = output.Switches{
		Hessian:               p.bool("Output", "HESSIAN_MATRIX", true),
		ForceConstants:        p.bool("Output", "FORCE_CONSTANTS", true),
		MeanSquareFluctuation: p.bool("Output", "MEAN_SQUARE_FLUCTUATION", true),
		Eigen:                 p.bool("Output", "EIGENVALUES_AND_EIGENVECTORS", true),
		AverageForceConstants: p.bool("Output", "AVG_FORCE_CONSTANTS", true),
		Covariance:            p.bool("Output", "COVARIANCE_MATRIX", true),
	}
	c.Threads = p.int("Threading", "THREADS", 0, 0)
	c.LogLevel = p.int("Logging", "LEVEL", LevelInfo, LevelNone)
	if p.err == nil && c.LogLevel > LevelVerbose {
		p.fail("Logging", "LEVEL", "must be at most %d, but is %d",
			LevelVerbose, c.LogLevel)
	}
	if p.err == nil && !(c.General.Temperature >= 0) {
		p.fail("General", "TEMPERATURE", "must not be negative, but is %g",
			c.General.Temperature)
	}
	if p.err == nil && !(c.Fitting.AverageBinLength > 0) {
		p.fail("Fitting", "AVERAGE_BIN_LENGTH", "must be positive")
	}
	if p.err != nil {
		return nil, fmt.Errorf("Invalid configuration '%s': %w", path, p.err)
	}
	return &c, nil
}

// Options returns the run options described by c.
func (c *Config) Options() reach.Options {
	return reach.Options{
		Temperature:       c.General.Temperature,
		EnsembleSize:      c.General.EnsembleSize,
		AverageBinLength:  c.Fitting.AverageBinLength,
		MinimumLength:     c.Fitting.MinimumLength,
		MaximumLength:     c.Fitting.MaximumLength,
		UseSlowFitting:    c.Fitting.UseSlowFitting,
		SlowMinimumLength: c.Fitting.SlowMinimumLength,
		SlowMaximumLength: c.Fitting.SlowMaximumLength,
		Workers:           c.Threads,
	}
}

// ZapLevel maps a log level onto a zap level. ok is false for LevelNone.
func ZapLevel(level int) (l zapcore.Level, ok bool) {
	switch {
	case level <= LevelNone:
		return zapcore.InvalidLevel, false
	case level == LevelFatal:
		return zapcore.FatalLevel, true
	case level == LevelError:
		return zapcore.ErrorLevel, true
	case level == LevelWarning:
		return zapcore.WarnLevel, true
	case level == LevelInfo:
		return zapcore.InfoLevel, true
	}
	return zapcore.DebugLevel, true
}

// parser keeps the first error encountered; later lookups are no-ops.
type parser struct {
	file *ini.File
	root string
	err  error
}

func (p *parser) fail(section, key, format string, args ...interface{}) {
	if p.err == nil {
		p.err = fmt.Errorf("%s.%s %s.", section, key, fmt.Sprintf(format, args...))
	}
}

func (p *parser) key(section, key string) *ini.Key {
	if p.err != nil {
		return nil
	}
	sec := p.file.Section(section)
	if !sec.HasKey(key) {
		return nil
	}
	return sec.Key(key)
}

// float returns the value of section.key, or *def if it is missing. A nil
// def makes the key required.
func (p *parser) float(section, key string, def *float64) float64 {
	k := p.key(section, key)
	if k == nil {
		if def == nil {
			p.fail(section, key, "is required")
			return 0
		}
		return *def
	}
	v, err := k.Float64()
	if err != nil {
		p.fail(section, key, "is not a number: '%s'", k.String())
	}
	return v
}

func (p *parser) length(key string, def float64) float64 {
	v := p.float("Fitting", key, &def)
	if p.err == nil && !(v >= 0) {
		p.fail("Fitting", key, "must not be negative, but is %g", v)
	}
	return v
}

func (p *parser) int(section, key string, def, least int) int {
	k := p.key(section, key)
	if k == nil {
		return def
	}
	v, err := k.Int()
	if err != nil {
		p.fail(section, key, "is not an integer: '%s'", k.String())
		return def
	}
	if v < least {
		p.fail(section, key, "must be at least %d, but is %d", least, v)
	}
	return v
}

func (p *parser) bool(section, key string, def bool) bool {
	k := p.key(section, key)
	if k == nil {
		return def
	}
	v, err := k.Bool()
	if err != nil {
		p.fail(section, key, "is not a boolean: '%s'", k.String())
		return def
	}
	return v
}

// path returns the absolute path named by section.key.
func (p *parser) path(section, key string, required bool) string {
	k := p.key(section, key)
	if k == nil || strings.TrimSpace(k.String()) == "" {
		if required && p.err == nil {
			p.fail(section, key, "is required")
		}
		return ""
	}
	return p.existing(section, key, k.String())
}

func (p *parser) paths(section, key string) []string {
	k := p.key(section, key)
	if k == nil {
		if p.err == nil {
			p.fail(section, key, "is required when no covariance matrix "+
				"is given")
		}
		return nil
	}
	var paths []string
	for _, name := range k.Strings(",") {
		if name == "" {
			continue
		}
		paths = append(paths, p.existing(section, key, name))
	}
	if len(paths) == 0 {
		p.fail(section, key, "does not name any file")
	}
	return paths
}

func (p *parser) existing(section, key, name string) string {
	name = strings.TrimSpace(name)
	if !filepath.IsAbs(name) {
		name = filepath.Join(p.root, name)
	}
	abs, err := filepath.Abs(name)
	if err != nil {
		p.fail(section, key, "has an invalid path '%s'", name)
		return ""
	}
	if _, err := os.Stat(abs); err != nil {
		p.fail(section, key, "names a file that does not exist: '%s'", abs)
		return ""
	}
	return abs
}
