// Package session is the headless presentation boundary of carprice.
//
// A Session holds what a front end shows: the cleaned dataset, a fixed random
// sample for scatter plots, the variable currently plotted against price and
// the last prediction. Front ends send Events to Dispatch and render the
// returned View; they never touch the pipeline directly.
package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/ezoic/carprice/artifact"
	"github.com/ezoic/carprice/dataset"
	"github.com/ezoic/carprice/pkg/errors"
	"github.com/ezoic/carprice/pkg/log"
	"github.com/ezoic/carprice/preprocessing"
	"github.com/ezoic/carprice/pricing"
)

// Command identifies a user action.
type Command int

const (
	// CommandPredict prices Event.Input.
	CommandPredict Command = iota
	// CommandNextVariable plots the next variable against price.
	CommandNextVariable
	// CommandPreviousVariable plots the previous variable against price.
	CommandPreviousVariable
	// CommandImportDataset retrains on Event.Table, persists and swaps the model.
	CommandImportDataset
	// CommandRefresh returns the current view.
	CommandRefresh
)

func (c Command) String() string {
	switch c {
	case CommandPredict:
		return "predict"
	case CommandNextVariable:
		return "next_variable"
	case CommandPreviousVariable:
		return "previous_variable"
	case CommandImportDataset:
		return "import_dataset"
	case CommandRefresh:
		return "refresh"
	default:
		return fmt.Sprintf("Command(%d)", int(c))
	}
}

// Event is one user action with its payload.
type Event struct {
	Command Command
	Input   pricing.Input  // CommandPredict
	Table   *dataset.Table // CommandImportDataset
}

// Variables plotted against price, in navigation order.
var Variables = []string{
	pricing.ColumnYear,
	pricing.ColumnMileage,
	pricing.ColumnTax,
	pricing.ColumnMPG,
	pricing.ColumnEngineSize,
}

// Options configures a Session. SampleSeed is used as given, zero included.
type Options struct {
	SampleSize int    // Rows in the scatter sample, 100 when not positive
	SampleSeed uint64 // Sample seed
}

// DefaultOptions returns a 100-row sample drawn with seed 42.
func DefaultOptions() Options {
	return Options{SampleSize: 100, SampleSeed: 42}
}

func (o Options) withDefaults() Options {
	if o.SampleSize <= 0 {
		o.SampleSize = DefaultOptions().SampleSize
	}
	return o
}

// Session is the state behind one front end. It is not safe for concurrent use.
type Session struct {
	opts      Options
	estimator *pricing.Estimator
	trainer   *pricing.Trainer
	store     artifact.Store
	logger    log.Logger

	data    *dataset.Table
	sample  *dataset.Table
	current int

	lastInput *pricing.Input
	lastPrice *float64
}

// New creates a Session over table, which is cleaned of outliers first.
// estimator may be Untrained; predictions then fail until a dataset is
// imported. store may be nil to skip persisting imported models.
func New(table *dataset.Table, estimator *pricing.Estimator, trainer *pricing.Trainer, store artifact.Store, opts Options) (*Session, error) {
	s := &Session{
		opts:      opts.withDefaults(),
		estimator: estimator,
		trainer:   trainer,
		store:     store,
		logger:    log.GetLoggerWithName("session").With(log.PhaseKey, log.PhasePresentation),
	}
	cleaned, _, err := preprocessing.RemoveOutliers(table, pricing.OutlierColumns)
	if err != nil {
		return nil, err
	}
	s.setData(cleaned)
	return s, nil
}

func (s *Session) setData(cleaned *dataset.Table) {
	s.data = cleaned
	s.sample = cleaned.Sample(s.opts.SampleSize, s.opts.SampleSeed)
}

// Variable returns the variable currently plotted against price.
func (s *Session) Variable() string { return Variables[s.current] }

// Data returns the cleaned dataset.
func (s *Session) Data() *dataset.Table { return s.data }

// Dispatch applies ev and returns the resulting view. On error the session
// state is unchanged and the returned view reflects it.
func (s *Session) Dispatch(ctx context.Context, ev Event) (View, error) {
	s.logger.Debug("Dispatch", "command", ev.Command.String())

	var err error
	switch ev.Command {
	case CommandPredict:
		err = s.predict(ev.Input)
	case CommandNextVariable:
		s.current = (s.current + 1) % len(Variables)
	case CommandPreviousVariable:
		s.current = (s.current - 1 + len(Variables)) % len(Variables)
	case CommandImportDataset:
		err = s.importDataset(ctx, ev.Table)
	case CommandRefresh:
	default:
		err = errors.NewValueError("Session.Dispatch", "unknown command "+ev.Command.String())
	}

	view, viewErr := s.View()
	if err != nil {
		return view, err
	}
	return view, viewErr
}

func (s *Session) predict(in pricing.Input) error {
	price, err := s.estimator.Predict(in)
	if err != nil {
		return err
	}
	s.lastInput = &in
	s.lastPrice = &price
	return nil
}

func (s *Session) importDataset(ctx context.Context, table *dataset.Table) error {
	if table == nil {
		return errors.NewModelError("Session.ImportDataset", "no table", errors.ErrEmptyData)
	}
	a, err := s.estimator.Train(ctx, s.trainer, s.store, table)
	if err != nil {
		return err
	}
	s.setData(a.Report.Cleaned)
	s.lastInput = nil
	s.lastPrice = nil
	s.logger.Info("Dataset imported", log.SamplesKey, a.Report.RowsIn, log.RowsAfterKey, s.data.NumRows())
	return nil
}

// Title returns the display form of a variable name, e.g. "EngineSize".
func Title(variable string) string {
	if variable == "" {
		return ""
	}
	return strings.ToUpper(variable[:1]) + variable[1:]
}
