// Package config layers defaults, a TOML file, GAMATCH_* environment variables and flags
package config

import (
	"math/rand/v2"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/lixenwraith/gamatch/correlation"
	"github.com/lixenwraith/gamatch/genetic"
	"github.com/lixenwraith/gamatch/parameter"
)

// ErrConfig is wrapped by every settings validation failure
var ErrConfig = errors.New("invalid settings")

// EnvPrefix prefixes environment overrides, e.g. GAMATCH_POPULATION
const EnvPrefix = "GAMATCH"

// Setting keys, shared with command-line flag names
const (
	KeyPopulation       = "population"
	KeyCrossover        = "crossover"
	KeyMutation         = "mutation"
	KeyCrossoverPercent = "crossover-percent"
	KeyMutationPercent  = "mutation-percent"
	KeySeed             = "seed"
	KeyGray             = "gray"
	KeyScale            = "scale"
	KeyRegion           = "region"
	KeyGenerations      = "generations"
	KeyLogEvery         = "log-every"
	KeyReports          = "reports"
	KeyDelay            = "delay"
	KeyAudio            = "audio"
	KeyListen           = "listen"
	KeyTrials           = "trials"
	KeyParallel         = "parallel"
	KeyLogLevel         = "log-level"
	KeyLogFormat        = "log-format"
	KeyLogFile          = "log-file"
)

// Settings is the resolved configuration of one command invocation
type Settings struct {
	Population  int
	Crossover   float64
	Mutation    float64
	Seed        int64
	Gray        bool
	Scale       int
	Region      string
	Generations int
	LogEvery    int
	Reports     string
	Delay       time.Duration
	Audio       bool
	Listen      string
	Trials      int
	Parallel    int
	LogLevel    string
	LogFormat   string
	LogFile     string
}

// New returns a viper instance with defaults and environment binding
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyPopulation, parameter.GAPopulationSize)
	v.SetDefault(KeyCrossover, parameter.GACrossoverRate)
	v.SetDefault(KeyMutation, parameter.GAMutationRate)
	v.SetDefault(KeySeed, 0)
	v.SetDefault(KeyGray, false)
	v.SetDefault(KeyScale, 1)
	v.SetDefault(KeyRegion, "")
	v.SetDefault(KeyGenerations, parameter.RunGenerations)
	v.SetDefault(KeyLogEvery, parameter.RunLogEvery)
	v.SetDefault(KeyReports, parameter.ReportPath)
	v.SetDefault(KeyDelay, parameter.ViewerEventLoopDelay)
	v.SetDefault(KeyAudio, false)
	v.SetDefault(KeyListen, parameter.ServerListenAddr)
	v.SetDefault(KeyTrials, parameter.BenchTrials)
	v.SetDefault(KeyParallel, parameter.BenchParallelism)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyLogFile, "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return v
}

// ReadFile merges a TOML (or any viper-supported) config file; empty path is a no-op
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "read config %s", path)
	}
	return nil
}

// Load resolves and validates settings
// Percent keys, when set, take precedence over the fractional rates
func Load(v *viper.Viper) (Settings, error) {
	s := Settings{
		Population:  v.GetInt(KeyPopulation),
		Crossover:   v.GetFloat64(KeyCrossover),
		Mutation:    v.GetFloat64(KeyMutation),
		Seed:        v.GetInt64(KeySeed),
		Gray:        v.GetBool(KeyGray),
		Scale:       v.GetInt(KeyScale),
		Region:      v.GetString(KeyRegion),
		Generations: v.GetInt(KeyGenerations),
		LogEvery:    v.GetInt(KeyLogEvery),
		Reports:     v.GetString(KeyReports),
		Delay:       v.GetDuration(KeyDelay),
		Audio:       v.GetBool(KeyAudio),
		Listen:      v.GetString(KeyListen),
		Trials:      v.GetInt(KeyTrials),
		Parallel:    v.GetInt(KeyParallel),
		LogLevel:    v.GetString(KeyLogLevel),
		LogFormat:   v.GetString(KeyLogFormat),
		LogFile:     v.GetString(KeyLogFile),
	}

	if v.IsSet(KeyCrossoverPercent) {
		rate, err := PercentToRate(v.GetInt(KeyCrossoverPercent))
		if err != nil {
			return s, errors.Wrap(err, KeyCrossoverPercent)
		}
		s.Crossover = rate
	}
	if v.IsSet(KeyMutationPercent) {
		rate, err := PercentToRate(v.GetInt(KeyMutationPercent))
		if err != nil {
			return s, errors.Wrap(err, KeyMutationPercent)
		}
		s.Mutation = rate
	}

	return s, s.Validate()
}

// Validate checks ranges that do not depend on the search image
func (s Settings) Validate() error {
	if s.Population <= 0 {
		return errors.Wrapf(ErrConfig, "population %d must be positive", s.Population)
	}
	if s.Crossover < 0 || s.Crossover > 1 {
		return errors.Wrapf(ErrConfig, "crossover %v outside [0,1]", s.Crossover)
	}
	if s.Mutation < 0 || s.Mutation > 1 {
		return errors.Wrapf(ErrConfig, "mutation %v outside [0,1]", s.Mutation)
	}
	if s.Seed < 0 {
		return errors.Wrapf(ErrConfig, "seed %d must not be negative", s.Seed)
	}
	if s.Scale < 1 {
		return errors.Wrapf(ErrConfig, "scale %d must be at least 1", s.Scale)
	}
	if s.Generations < 0 {
		return errors.Wrapf(ErrConfig, "generations %d must not be negative", s.Generations)
	}
	if s.Delay < parameter.ViewerMinDelay {
		return errors.Wrapf(ErrConfig, "delay %v below %v", s.Delay, parameter.ViewerMinDelay)
	}
	if s.Trials < 1 || s.Parallel < 1 {
		return errors.Wrapf(ErrConfig, "trials %d and parallel %d must be positive", s.Trials, s.Parallel)
	}
	switch s.LogFormat {
	case "text", "json":
	default:
		return errors.Wrapf(ErrConfig, "log format %q", s.LogFormat)
	}
	return nil
}

// PercentToRate converts a 0-100 slider value into a rate
func PercentToRate(percent int) (float64, error) {
	if percent < 0 || percent > parameter.GARateSliderMax {
		return 0, errors.Wrapf(ErrConfig, "percent %d outside [0,%d]", percent, parameter.GARateSliderMax)
	}
	return float64(percent) / 100, nil
}

// EngineConfig builds the engine configuration for a search geometry
func (s Settings) EngineConfig(bounds genetic.Bounds) genetic.Config {
	return genetic.Config{
		PopulationSize: s.Population,
		CrossoverRate:  s.Crossover,
		MutationRate:   s.Mutation,
		Bounds:         bounds,
	}
}

// Mode returns the matching mode
func (s Settings) Mode() correlation.Mode {
	if s.Gray {
		return correlation.ModeGray
	}
	return correlation.ModeRGB
}

// SeedValue returns the configured seed, or a fresh non-negative one when unset
func (s Settings) SeedValue() uint64 {
	if s.Seed > 0 {
		return uint64(s.Seed)
	}
	return uint64(rand.Int64())
}
