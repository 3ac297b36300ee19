// Package cnf loads the carprice configuration.
//
// Values come from an optional JSON file, then CARPRICE_* environment
// variables override them, then ValidateAndDefaults fills in what is left.
package cnf

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"

	"github.com/ezoic/carprice/artifact"
	"github.com/ezoic/carprice/pkg/errors"
	"github.com/ezoic/carprice/pkg/log"
	"github.com/ezoic/carprice/pricing"
	"github.com/ezoic/carprice/session"
)

// EnvPrefix prefixes every environment variable read by LoadConfig.
const EnvPrefix = "CARPRICE_"

const (
	dfltLogLevel    = "info"
	dfltBackend     = artifact.BackendFS
	dfltArtifactDir = "saved_model"
	dfltSQLitePath  = "carprice.db"
	dfltNEstimators = 100
	dfltSeed        = 42
	dfltTestSize    = 0.2
	dfltSampleSize  = 100
)

// Conf is the process configuration.
type Conf struct {
	srcPath string

	LogLevel    string `json:"logLevel" env:"LOG_LEVEL"`
	Backend     string `json:"backend" env:"BACKEND"`
	ArtifactDir string `json:"artifactDir" env:"ARTIFACT_DIR"`
	SQLitePath  string `json:"sqlitePath" env:"SQLITE_PATH"`
	// DatasetPath is the CSV used when an action gets no -data argument.
	DatasetPath string `json:"datasetPath" env:"DATASET"`

	NEstimators    int     `json:"nEstimators" env:"N_ESTIMATORS"`
	MaxDepth       int     `json:"maxDepth" env:"MAX_DEPTH"`
	MinSamplesLeaf int     `json:"minSamplesLeaf" env:"MIN_SAMPLES_LEAF"`
	MaxFeatures    int     `json:"maxFeatures" env:"MAX_FEATURES"`
	// Seed drives the split, the forest and the scatter sample. Nil means
	// 42; an explicit 0 is kept.
	Seed           *uint64 `json:"seed" env:"SEED"`
	TestSize       float64 `json:"testSize" env:"TEST_SIZE"`

	// SampleSize is the number of rows shown in scatter plots.
	SampleSize int `json:"sampleSize" env:"SAMPLE_SIZE"`
}

// SrcPath returns the file the configuration was read from, if any.
func (c *Conf) SrcPath() string { return c.srcPath }

// LoadConfig reads path (skipped when empty) and applies environment
// overrides. Call ValidateAndDefaults afterwards.
func LoadConfig(path string) (*Conf, error) {
	conf := &Conf{srcPath: path}
	if path != "" {
		rawData, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "cannot load config")
		}
		if err := json.Unmarshal(rawData, conf); err != nil {
			return nil, errors.Wrapf(err, "cannot parse config %s", path)
		}
	}
	if err := env.ParseWithOptions(conf, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, errors.Wrap(err, "cannot parse environment")
	}
	return conf, nil
}

// ValidateAndDefaults fills unset values with defaults and rejects invalid ones.
func ValidateAndDefaults(conf *Conf) error {
	logger := log.GetLogger()

	if conf.LogLevel == "" {
		conf.LogLevel = dfltLogLevel
	}
	if conf.Backend == "" {
		conf.Backend = dfltBackend
	}
	switch conf.Backend {
	case artifact.BackendFS:
		if conf.ArtifactDir == "" {
			conf.ArtifactDir = dfltArtifactDir
			logger.Warn().Str("artifactDir", dfltArtifactDir).Msg("artifactDir not specified, using default")
		}
	case artifact.BackendSQLite:
		if conf.SQLitePath == "" {
			conf.SQLitePath = dfltSQLitePath
			logger.Warn().Str("sqlitePath", dfltSQLitePath).Msg("sqlitePath not specified, using default")
		}
	default:
		return errors.NewValueError("cnf.ValidateAndDefaults",
			fmt.Sprintf("backend must be %q or %q, got %q", artifact.BackendFS, artifact.BackendSQLite, conf.Backend))
	}

	if conf.NEstimators == 0 {
		conf.NEstimators = dfltNEstimators
	}
	if conf.NEstimators < 0 || conf.MaxDepth < 0 || conf.MinSamplesLeaf < 0 || conf.MaxFeatures < 0 {
		return errors.NewValueError("cnf.ValidateAndDefaults", "forest hyperparameters must not be negative")
	}
	if conf.Seed == nil {
		seed := uint64(dfltSeed)
		conf.Seed = &seed
	}
	if conf.TestSize == 0 {
		conf.TestSize = dfltTestSize
	}
	if conf.TestSize <= 0 || conf.TestSize >= 1 {
		return errors.NewValueError("cnf.ValidateAndDefaults", fmt.Sprintf("testSize must be in (0, 1), got %v", conf.TestSize))
	}
	if conf.SampleSize == 0 {
		conf.SampleSize = dfltSampleSize
	}
	if conf.SampleSize < 0 {
		return errors.NewValueError("cnf.ValidateAndDefaults", fmt.Sprintf("sampleSize must be positive, got %d", conf.SampleSize))
	}
	return nil
}

// TrainerConfig returns the forest settings for pricing.NewTrainer.
func (c *Conf) TrainerConfig() pricing.TrainerConfig {
	cfg := pricing.DefaultTrainerConfig()
	cfg.NEstimators = c.NEstimators
	cfg.MaxDepth = c.MaxDepth
	if c.MinSamplesLeaf > 0 {
		cfg.MinSamplesLeaf = c.MinSamplesLeaf
	}
	cfg.MaxFeatures = c.MaxFeatures
	cfg.Seed = c.seed()
	cfg.TestSize = c.TestSize
	return cfg
}

// SessionOptions returns the scatter sample settings.
func (c *Conf) SessionOptions() session.Options {
	return session.Options{SampleSize: c.SampleSize, SampleSeed: c.seed()}
}

func (c *Conf) seed() uint64 {
	if c.Seed == nil {
		return dfltSeed
	}
	return *c.Seed
}

// Dataset returns path, or DatasetPath when path is empty.
func (c *Conf) Dataset(path string) string {
	if path == "" {
		return c.DatasetPath
	}
	return path
}

// OpenStore opens the configured artifact backend.
func (c *Conf) OpenStore() (artifact.Store, error) {
	return artifact.Open(c.Backend, c.ArtifactDir, c.SQLitePath)
}
