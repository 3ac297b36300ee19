// Package log provides structured logging for carprice on top of zerolog.
//
// Estimators and pipeline stages obtain a named Logger with GetLoggerWithName
// and log key/value pairs using the shared keys declared below, so that every
// line emitted during training or inference can be filtered by operation and
// phase:
//
//	logger := log.GetLoggerWithName("ensemble").With(log.ModelNameKey, "RandomForestRegressor")
//	logger.Info("Training started", log.SamplesKey, 1000, log.FeaturesKey, 9)
//
// SetupLogger configures the process-wide level and output once at startup.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Structured logging keys.
const (
	ComponentKey   = "component"
	ModelNameKey   = "model_name"
	OperationKey   = "operation"
	PhaseKey       = "phase"
	SamplesKey     = "samples"
	FeaturesKey    = "features"
	ColumnKey      = "column"
	RowsBeforeKey  = "rows_before"
	RowsAfterKey   = "rows_after"
	DurationMsKey  = "duration_ms"
	PredsKey       = "predictions"
	ArtifactKey    = "artifact"
	EstimatorsKey  = "n_estimators"
	ErrorDetailKey = "error_detail"
)

// Operation and phase values.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationTransform = "transform"
	OperationFilter    = "filter"
	OperationPersist   = "persist"
	OperationLoad      = "load"
	PhaseTraining      = "training"
	PhaseInference     = "inference"
	PhasePreprocessing = "preprocessing"
	PhasePersistence   = "persistence"
	PhasePresentation  = "presentation"
)

const (
	defaultLoggerLevel  = zerolog.InfoLevel
	defaultTimeFieldFmt = time.RFC3339
)

// Logger is a key/value structured logger.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	With(fields ...interface{}) Logger
}

type zerologLogger struct {
	zl zerolog.Logger
}

func (l *zerologLogger) Debug(msg string, fields ...interface{}) {
	l.zl.Debug().Fields(fields).Msg(msg)
}

func (l *zerologLogger) Info(msg string, fields ...interface{}) {
	l.zl.Info().Fields(fields).Msg(msg)
}

func (l *zerologLogger) Warn(msg string, fields ...interface{}) {
	l.zl.Warn().Fields(fields).Msg(msg)
}

// Error logs at error level. A leading error value in fields is attached with
// zerolog's Err so it renders under the "error" key.
func (l *zerologLogger) Error(msg string, fields ...interface{}) {
	ev := l.zl.Error()
	if len(fields)%2 == 1 {
		if err, ok := fields[0].(error); ok {
			ev = ev.Err(err)
			fields = fields[1:]
		}
	}
	ev.Fields(fields).Msg(msg)
}

func (l *zerologLogger) With(fields ...interface{}) Logger {
	return &zerologLogger{zl: l.zl.With().Fields(fields).Logger()}
}

var (
	mu     sync.RWMutex
	global = zerolog.New(os.Stderr).Level(defaultLoggerLevel).With().Timestamp().Logger()
)

// ToLogLevel parses a level name, falling back to info for unknown input.
func ToLogLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		return defaultLoggerLevel
	}
	return lvl
}

// SetupLogger configures the process-wide logger with a human readable
// console writer on stderr.
func SetupLogger(level string) {
	SetupLoggerWithWriter(level, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: defaultTimeFieldFmt})
}

// SetupLoggerWithWriter configures the process-wide logger to write to w.
func SetupLoggerWithWriter(level string, w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	global = zerolog.New(w).Level(ToLogLevel(level)).With().Timestamp().Logger()
}

// GetLogger returns the process-wide zerolog logger.
func GetLogger() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := global
	return &l
}

// GetLoggerWithName returns a Logger tagged with the component name.
func GetLoggerWithName(name string) Logger {
	mu.RLock()
	defer mu.RUnlock()
	return &zerologLogger{zl: global.With().Str(ComponentKey, name).Logger()}
}

// LogError logs err with its full cockroachdb stack detail at error level.
func LogError(err error, msg string) {
	if err == nil {
		return
	}
	logger := GetLogger()
	logger.Error().Err(err).Str(ErrorDetailKey, detail(err)).Msg(msg)
}

func detail(err error) string {
	return fmt.Sprintf("%+v", err)
}
