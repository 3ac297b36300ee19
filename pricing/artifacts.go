package pricing

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ezoic/carprice/artifact"
	"github.com/ezoic/carprice/pkg/errors"
	"github.com/ezoic/carprice/pkg/log"
	"github.com/ezoic/carprice/preprocessing"
	"github.com/ezoic/carprice/sklearn/ensemble"
)

// Artifacts are the fitted statistics and model of one training run.
type Artifacts struct {
	Encoders map[string]*preprocessing.LabelEncoder
	Scalers  *preprocessing.ScalerSet
	Forest   *ensemble.RandomForestRegressor

	// Run identifies the stored run. It is set by SaveArtifacts and
	// LoadArtifacts and empty for artifacts that were never stored.
	Run string

	// Report is set by Trainer.Train and nil for loaded artifacts.
	Report *TrainingReport
}

// Names returns every artifact name of a run in write order. The model comes last.
func Names() []string {
	names := make([]string, 0, len(CategoricalColumns)+len(FeatureOrder)+1)
	for _, col := range CategoricalColumns {
		names = append(names, MappingArtifact(col))
	}
	for _, col := range FeatureOrder {
		names = append(names, ScalerArtifact(col))
	}
	return append(names, ModelArtifact)
}

// encode serialises every artifact of a, keyed by name.
func (a *Artifacts) encode() (map[string][]byte, error) {
	blobs := make(map[string][]byte, len(CategoricalColumns)+len(FeatureOrder)+1)
	for _, col := range CategoricalColumns {
		enc, ok := a.Encoders[col]
		if !ok {
			return nil, errors.NewNotFittedError("LabelEncoder("+col+")", "SaveArtifacts")
		}
		var buf bytes.Buffer
		if err := enc.WriteMapping(&buf); err != nil {
			return nil, err
		}
		blobs[MappingArtifact(col)] = buf.Bytes()
	}
	for _, col := range FeatureOrder {
		scaler, ok := a.Scalers.Scaler(col)
		if !ok {
			return nil, errors.NewNotFittedError("MinMaxScaler("+col+")", "SaveArtifacts")
		}
		data, err := scaler.Encode()
		if err != nil {
			return nil, err
		}
		blobs[ScalerArtifact(col)] = data
	}
	data, err := a.Forest.Encode()
	if err != nil {
		return nil, err
	}
	blobs[ModelArtifact] = data
	return blobs, nil
}

// CurrentRun returns the run CurrentArtifact points to.
func CurrentRun(ctx context.Context, store artifact.Store) (string, error) {
	data, err := store.Get(ctx, CurrentArtifact)
	if err != nil {
		return "", err
	}
	run := strings.TrimSpace(string(data))
	if run == "" || strings.ContainsAny(run, "/\\.") {
		return "", errors.NewValueError("CurrentRun", "invalid run id "+run)
	}
	return run, nil
}

// SaveArtifacts stores a as a new run and then points CurrentArtifact at it.
// Until that last write succeeds, readers keep loading the previous run, so
// a failed save never leaves a mix of old and new artifacts visible. Once the
// new run is current, the previous one is removed.
func SaveArtifacts(ctx context.Context, store artifact.Store, a *Artifacts) error {
	logger := log.GetLoggerWithName("pricing.artifacts").With(log.OperationKey, log.OperationPersist, log.PhaseKey, log.PhasePersistence)
	start := time.Now()

	blobs, err := a.encode()
	if err != nil {
		return err
	}
	previous, err := CurrentRun(ctx, store)
	if err != nil && !errors.Is(err, errors.ErrArtifactNotFound) {
		logger.Warn("Current run unreadable, it will be replaced", log.ErrorDetailKey, err.Error())
		previous = ""
	}

	run := uuid.NewString()
	written := make([]string, 0, len(blobs))
	for _, name := range Names() {
		full := RunArtifact(run, name)
		if err := store.Put(ctx, full, blobs[name]); err != nil {
			removeRun(store, written, logger)
			return err
		}
		written = append(written, full)
	}
	if err := store.Put(ctx, CurrentArtifact, []byte(run)); err != nil {
		removeRun(store, written, logger)
		return err
	}
	a.Run = run

	if previous != "" && previous != run {
		stale := make([]string, 0, len(blobs))
		for _, name := range Names() {
			stale = append(stale, RunArtifact(previous, name))
		}
		removeRun(store, stale, logger)
	}
	logger.Info("Artifacts saved",
		"run", run,
		log.ArtifactKey, len(blobs),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// removeRun deletes names, logging failures. It runs without the caller's
// context so cleanup still happens after cancellation.
func removeRun(store artifact.Store, names []string, logger log.Logger) {
	for _, name := range names {
		if err := store.Delete(context.Background(), name); err != nil {
			logger.Warn("Failed to remove artifact", log.ArtifactKey, name, log.ErrorDetailKey, err.Error())
		}
	}
}

// LoadArtifacts reads every artifact of the current run.
//
// Errors:
//   - ArtifactLoadError: naming the first artifact that is missing, corrupt
//     or was written by another format version
func LoadArtifacts(ctx context.Context, store artifact.Store) (*Artifacts, error) {
	logger := log.GetLoggerWithName("pricing.artifacts").With(log.OperationKey, log.OperationLoad, log.PhaseKey, log.PhasePersistence)

	run, err := CurrentRun(ctx, store)
	if err != nil {
		return nil, errors.NewArtifactLoadError(CurrentArtifact, err)
	}
	a := &Artifacts{
		Encoders: make(map[string]*preprocessing.LabelEncoder, len(CategoricalColumns)),
		Scalers:  preprocessing.NewScalerSet(FeatureOrder, ColumnPrice),
		Run:      run,
	}
	for _, col := range CategoricalColumns {
		name := RunArtifact(run, MappingArtifact(col))
		data, err := store.Get(ctx, name)
		if err != nil {
			return nil, errors.NewArtifactLoadError(name, err)
		}
		enc, err := preprocessing.ReadMapping(col, bytes.NewReader(data))
		if err != nil {
			return nil, errors.NewArtifactLoadError(name, err)
		}
		a.Encoders[col] = enc
	}
	for _, col := range FeatureOrder {
		name := RunArtifact(run, ScalerArtifact(col))
		data, err := store.Get(ctx, name)
		if err != nil {
			return nil, errors.NewArtifactLoadError(name, err)
		}
		scaler, err := preprocessing.DecodeMinMaxScaler(data)
		if err == nil && scaler.Column != col {
			err = errors.NewValueError("LoadArtifacts", "scaler for column "+scaler.Column+" stored as "+name)
		}
		if err != nil {
			return nil, errors.NewArtifactLoadError(name, err)
		}
		if err := a.Scalers.Set(scaler); err != nil {
			return nil, errors.NewArtifactLoadError(name, err)
		}
	}

	name := RunArtifact(run, ModelArtifact)
	data, err := store.Get(ctx, name)
	if err != nil {
		return nil, errors.NewArtifactLoadError(name, err)
	}
	forest, err := ensemble.DecodeRandomForestRegressor(data)
	if err == nil && forest.State.NFeatures != len(FeatureOrder) {
		err = errors.NewDimensionError("LoadArtifacts", len(FeatureOrder), forest.State.NFeatures, 1)
	}
	if err != nil {
		return nil, errors.NewArtifactLoadError(name, err)
	}
	a.Forest = forest

	logger.Debug("Artifacts loaded", "run", run, log.EstimatorsKey, len(forest.Trees))
	return a, nil
}

// Vector encodes and scales in into the model's feature vector.
func (a *Artifacts) Vector(in Input) ([]float64, error) {
	raw := make([]float64, len(FeatureOrder))
	for j, col := range FeatureOrder {
		if enc, ok := a.Encoders[col]; ok {
			code, err := enc.TransformValue(in.label(col))
			if err != nil {
				return nil, err
			}
			raw[j] = float64(code)
			continue
		}
		v, _ := in.Value(col)
		raw[j] = v
	}
	return a.Scalers.TransformVector(raw)
}
