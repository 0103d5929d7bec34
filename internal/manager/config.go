package manager

import (
	"context"

	"github.com/rs/zerolog"

	"sentimentd/internal/pipeline"
	"sentimentd/internal/telemetry"
)

// DefaultModelID is used when ManagerConfig.ModelID is empty.
const DefaultModelID = "distilbert-base-uncased-finetuned-sst-2-english"

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	// ModelID identifies the model the handle is built for.
	ModelID string
	// Backend names the pipeline backend, for status reporting.
	Backend string
	// Loader constructs the pipeline. Nil makes every load fail with a
	// dependency-unavailable error.
	Loader pipeline.Loader
	// Recorder receives one record per successful prediction.
	Recorder telemetry.Recorder
	// Publisher receives lifecycle events.
	Publisher EventPublisher
	// Logger for lifecycle and telemetry failures. Nil discards.
	Logger *zerolog.Logger
	// SerializeInference forces one classification at a time even when the
	// pipeline reports itself safe for concurrent use.
	SerializeInference bool
}

// NewWithConfig constructs a Manager from ManagerConfig, applying defaults.
func NewWithConfig(cfg ManagerConfig) *Manager {
	m := &Manager{
		state:     StateIdle,
		modelID:   cfg.ModelID,
		backend:   cfg.Backend,
		loader:    cfg.Loader,
		publisher: cfg.Publisher,
		log:       zerolog.Nop(),
		serialize: cfg.SerializeInference,
		loaded:    make(chan struct{}),
	}
	if cfg.Logger != nil {
		m.log = *cfg.Logger
	}
	if m.modelID == "" {
		m.modelID = DefaultModelID
	}
	if m.loader == nil {
		m.loader = pipeline.LoaderFunc(func(context.Context, string) (pipeline.Pipeline, error) {
			return nil, ErrDependencyUnavailable("no inference backend configured")
		})
	}
	if m.publisher == nil {
		m.publisher = noopPublisher{}
	}
	rec := cfg.Recorder
	if rec == nil {
		rec = telemetry.Noop{}
	}
	m.recorder = telemetry.Isolate(rec, func(err error) {
		m.log.Warn().Err(err).Str("model", m.modelID).Msg("telemetry dropped")
	})
	m.startTime = timeNow()
	return m
}
