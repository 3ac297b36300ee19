package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoic/carprice/artifact"
	"github.com/ezoic/carprice/core/model"
	"github.com/ezoic/carprice/dataset"
	cpErrors "github.com/ezoic/carprice/pkg/errors"
	"github.com/ezoic/carprice/pricing"
	"github.com/ezoic/carprice/pricing/pricingtest"
	"github.com/ezoic/carprice/session"
)

func newSession(t *testing.T, train bool) (*session.Session, *pricing.Estimator, artifact.Store) {
	t.Helper()
	cfg := pricing.DefaultTrainerConfig()
	cfg.NEstimators = 5
	trainer := pricing.NewTrainer(cfg)

	store, err := artifact.NewFSStore(t.TempDir())
	require.NoError(t, err)

	table := pricingtest.Cars(300, 11)
	est := pricing.NewEstimator()
	if train {
		_, err := est.Train(context.Background(), trainer, store, table)
		require.NoError(t, err)
	}
	s, err := session.New(table, est, trainer, store, session.DefaultOptions())
	require.NoError(t, err)
	return s, est, store
}

func input() pricing.Input {
	return pricing.Input{
		Brand: "Ford", Model: " Focus", Transmission: "Manual", FuelType: "Petrol",
		Year: 2018, Mileage: 30000, Tax: 145, MPG: 50, EngineSize: 1.6,
	}
}

func TestSession_InitialView(t *testing.T) {
	s, _, _ := newSession(t, true)
	view, err := s.Dispatch(context.Background(), session.Event{Command: session.CommandRefresh})
	require.NoError(t, err)

	assert.False(t, view.HasPrice)
	assert.Equal(t, "None", view.PriceLabel())
	assert.Equal(t, "year", view.Variable)
	assert.Len(t, view.Scatter.Points, 100)
	assert.Nil(t, view.Scatter.Highlight)
	assert.Equal(t, "Scatter Plot: Price vs. Year", view.Scatter.Title)
	assert.NotEmpty(t, view.Stats.TopModel)
	assert.Greater(t, view.Stats.AverageMileage, 0)
	assert.GreaterOrEqual(t, view.Stats.AverageMPG, 30)
}

func TestSession_SampleIsStable(t *testing.T) {
	a, _, _ := newSession(t, false)
	b, _, _ := newSession(t, false)
	va, err := a.View()
	require.NoError(t, err)
	vb, err := b.View()
	require.NoError(t, err)
	assert.Equal(t, va.Scatter.Points, vb.Scatter.Points)
}

func TestSession_VariableNavigationWraps(t *testing.T) {
	s, _, _ := newSession(t, false)
	ctx := context.Background()

	view, err := s.Dispatch(ctx, session.Event{Command: session.CommandPreviousVariable})
	require.NoError(t, err)
	assert.Equal(t, "engineSize", view.Variable)
	assert.Equal(t, "EngineSize", view.Scatter.XLabel)

	view, err = s.Dispatch(ctx, session.Event{Command: session.CommandNextVariable})
	require.NoError(t, err)
	assert.Equal(t, "year", view.Variable)

	for _, want := range []string{"mileage", "tax", "mpg", "engineSize", "year"} {
		view, err = s.Dispatch(ctx, session.Event{Command: session.CommandNextVariable})
		require.NoError(t, err)
		assert.Equal(t, want, view.Variable)
	}
}

func TestSession_Predict(t *testing.T) {
	s, est, _ := newSession(t, true)
	ctx := context.Background()

	view, err := s.Dispatch(ctx, session.Event{Command: session.CommandPredict, Input: input()})
	require.NoError(t, err)
	require.True(t, view.HasPrice)

	price, err := est.Predict(input())
	require.NoError(t, err)
	assert.Equal(t, int(price), view.Price)

	require.NotNil(t, view.Scatter.Highlight)
	assert.Equal(t, 2018.0, view.Scatter.Highlight.X)
	assert.Equal(t, float64(int(price)), view.Scatter.Highlight.Y)

	view, err = s.Dispatch(ctx, session.Event{Command: session.CommandNextVariable})
	require.NoError(t, err)
	assert.Equal(t, 30000.0, view.Scatter.Highlight.X)
}

func TestSession_PredictErrorsKeepState(t *testing.T) {
	s, _, _ := newSession(t, false)
	ctx := context.Background()

	_, err := s.Dispatch(ctx, session.Event{Command: session.CommandPredict, Input: input()})
	assert.True(t, errors.Is(err, cpErrors.ErrNotFitted))

	trained, _, _ := newSession(t, true)
	tesla := input()
	tesla.Brand = "Tesla"
	view, err := trained.Dispatch(ctx, session.Event{Command: session.CommandPredict, Input: tesla})
	assert.True(t, errors.Is(err, cpErrors.ErrUnknownCategory))
	assert.False(t, view.HasPrice)
}

func TestSession_ImportDataset(t *testing.T) {
	s, est, store := newSession(t, false)
	ctx := context.Background()
	require.Equal(t, model.Untrained, est.State())

	view, err := s.Dispatch(ctx, session.Event{Command: session.CommandImportDataset, Table: pricingtest.Cars(200, 12)})
	require.NoError(t, err)
	assert.Equal(t, model.Trained, est.State())
	assert.LessOrEqual(t, s.Data().NumRows(), 200)
	assert.Len(t, view.Scatter.Points, 100)

	run, err := pricing.CurrentRun(ctx, store)
	require.NoError(t, err)
	_, err = store.Get(ctx, pricing.RunArtifact(run, pricing.ModelArtifact))
	assert.NoError(t, err)

	view, err = s.Dispatch(ctx, session.Event{Command: session.CommandPredict, Input: input()})
	require.NoError(t, err)
	assert.True(t, view.HasPrice)

	// A bad import keeps the current data and model.
	before := s.Data()
	_, err = s.Dispatch(ctx, session.Event{Command: session.CommandImportDataset, Table: dataset.New()})
	assert.True(t, errors.Is(err, cpErrors.ErrMissingColumn))
	assert.Same(t, before, s.Data())
}

func TestSession_UnknownCommand(t *testing.T) {
	s, _, _ := newSession(t, false)
	_, err := s.Dispatch(context.Background(), session.Event{Command: session.Command(99)})
	assert.True(t, errors.Is(err, cpErrors.ErrInvalidValue))
}
