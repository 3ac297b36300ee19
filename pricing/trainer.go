package pricing

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ezoic/carprice/dataset"
	"github.com/ezoic/carprice/pkg/errors"
	"github.com/ezoic/carprice/pkg/log"
	"github.com/ezoic/carprice/preprocessing"
	"github.com/ezoic/carprice/sklearn/ensemble"
	"github.com/ezoic/carprice/sklearn/model_selection"
)

// TrainerConfig holds the training hyperparameters.
type TrainerConfig struct {
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int
	Seed            uint64
	TestSize        float64

	// Progress, when set, is called after each fitted tree.
	Progress ensemble.ProgressFunc
}

// DefaultTrainerConfig returns 100 trees, seed 42 and a 20% test split.
func DefaultTrainerConfig() TrainerConfig {
	return TrainerConfig{
		NEstimators:     100,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Seed:            42,
		TestSize:        0.2,
	}
}

// Trainer runs the training pipeline.
type Trainer struct {
	cfg    TrainerConfig
	logger log.Logger
}

// NewTrainer creates a Trainer. Zero fields of cfg take their defaults,
// except MaxDepth and MaxFeatures where zero means unlimited and Seed,
// which is used as given.
func NewTrainer(cfg TrainerConfig) *Trainer {
	def := DefaultTrainerConfig()
	if cfg.NEstimators == 0 {
		cfg.NEstimators = def.NEstimators
	}
	if cfg.MinSamplesSplit == 0 {
		cfg.MinSamplesSplit = def.MinSamplesSplit
	}
	if cfg.MinSamplesLeaf == 0 {
		cfg.MinSamplesLeaf = def.MinSamplesLeaf
	}
	if cfg.TestSize == 0 {
		cfg.TestSize = def.TestSize
	}
	return &Trainer{cfg: cfg, logger: log.GetLoggerWithName("pricing.trainer")}
}

// TrainingReport describes a training run. It is not persisted.
type TrainingReport struct {
	RowsIn       int
	Cleaned      *dataset.Table // Rows surviving outlier removal, raw values
	Bounds       []preprocessing.Bounds
	TrainIndices []int // Rows of Cleaned used for fitting
	TestIndices  []int // Rows of Cleaned held out
	Duration     time.Duration
}

// Train fits encoders, scalers and the forest on table. Nothing is written
// anywhere; persist the result with SaveArtifacts.
//
// Errors:
//   - MissingColumnError: if a required column is absent, before any work is done
//   - ValueError: if a numeric column holds strings, NaN or infinities
//   - ErrEmptyData: if too few rows survive outlier removal
//   - DegenerateColumnError: if a feature column is constant after cleaning
func (tr *Trainer) Train(ctx context.Context, table *dataset.Table) (*Artifacts, error) {
	start := time.Now()
	if err := validateTable(table); err != nil {
		return nil, err
	}

	cleaned, bounds, err := preprocessing.RemoveOutliers(table, OutlierColumns)
	if err != nil {
		return nil, err
	}
	tr.logger.Info("Outliers removed",
		log.PhaseKey, log.PhasePreprocessing,
		log.RowsBeforeKey, table.NumRows(),
		log.RowsAfterKey, cleaned.NumRows(),
	)
	if cleaned.NumRows() < 2 {
		return nil, errors.NewModelError("Trainer.Train",
			fmt.Sprintf("%d rows left after outlier removal", cleaned.NumRows()), errors.ErrEmptyData)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	encoded := cleaned.Clone()
	encoders := make(map[string]*preprocessing.LabelEncoder, len(CategoricalColumns))
	for _, name := range CategoricalColumns {
		labels, err := encoded.Strings(name)
		if err != nil {
			return nil, err
		}
		enc := preprocessing.NewLabelEncoder(name)
		codes, err := enc.FitTransform(labels)
		if err != nil {
			return nil, err
		}
		if err := encoded.SetFloatColumn(name, codes); err != nil {
			return nil, err
		}
		encoders[name] = enc
	}

	scalers := preprocessing.NewScalerSet(FeatureOrder, ColumnPrice)
	scaled, err := scalers.FitTransform(encoded)
	if err != nil {
		return nil, err
	}

	train, test, err := model_selection.TrainTestSplit(scaled.NumRows(), tr.cfg.TestSize, tr.cfg.Seed)
	if err != nil {
		return nil, err
	}
	trainTable := scaled.Take(train)
	X, err := trainTable.Matrix(FeatureOrder)
	if err != nil {
		return nil, err
	}
	y, err := trainTable.Matrix([]string{ColumnPrice})
	if err != nil {
		return nil, err
	}

	opts := []ensemble.Option{
		ensemble.WithNEstimators(tr.cfg.NEstimators),
		ensemble.WithMaxDepth(tr.cfg.MaxDepth),
		ensemble.WithMinSamplesSplit(tr.cfg.MinSamplesSplit),
		ensemble.WithMinSamplesLeaf(tr.cfg.MinSamplesLeaf),
		ensemble.WithMaxFeatures(tr.cfg.MaxFeatures),
		ensemble.WithRandomState(tr.cfg.Seed),
	}
	if tr.cfg.Progress != nil {
		opts = append(opts, ensemble.WithProgress(tr.cfg.Progress))
	}
	forest := ensemble.NewRandomForestRegressor(opts...)
	if err := forest.FitContext(ctx, X, y); err != nil {
		return nil, err
	}

	report := &TrainingReport{
		RowsIn:       table.NumRows(),
		Cleaned:      cleaned,
		Bounds:       bounds,
		TrainIndices: train,
		TestIndices:  test,
		Duration:     time.Since(start),
	}
	tr.logger.Info("Training pipeline completed",
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, len(train),
		"held_out", len(test),
		log.DurationMsKey, report.Duration.Milliseconds(),
	)
	return &Artifacts{Encoders: encoders, Scalers: scalers, Forest: forest, Report: report}, nil
}

// validateTable checks presence and kinds of every required column.
func validateTable(table *dataset.Table) error {
	for _, name := range RequiredColumns() {
		if !table.Has(name) {
			return errors.NewMissingColumnError(name)
		}
	}
	for _, name := range CategoricalColumns {
		if _, err := table.Strings(name); err != nil {
			return err
		}
	}
	for _, name := range NumericColumns {
		values, err := table.Floats(name)
		if err != nil {
			return err
		}
		for i, v := range values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return errors.NewValueError("Trainer.Train",
					fmt.Sprintf("column %q has a missing or non-finite value at row %d", name, i))
			}
		}
	}
	return nil
}

// LoadCSV reads a dataset with the categorical columns forced to strings.
func LoadCSV(path string) (*dataset.Table, error) {
	return dataset.LoadCSV(path, CategoricalColumns...)
}
