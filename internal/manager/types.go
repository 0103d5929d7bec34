package manager

import (
	"context"
	"time"

	"sentimentd/internal/pipeline"
)

// State represents the lifecycle state of the model handle.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// ModelHandle is the loaded model shared by all requests. It is immutable
// after construction.
type ModelHandle struct {
	ModelID  string
	Backend  string
	LoadedAt time.Time

	pipeline pipeline.Pipeline
	// gate is a size-1 channel holding the single in-flight slot when calls
	// must be serialized; nil otherwise.
	gate chan struct{}
}

// Serialized reports whether Classify calls run one at a time.
func (h *ModelHandle) Serialized() bool { return h.gate != nil }

// Classify runs the pipeline on text, honoring the serialization gate.
func (h *ModelHandle) Classify(ctx context.Context, text string) (pipeline.Prediction, error) {
	release, err := h.acquire(ctx)
	if err != nil {
		return pipeline.Prediction{}, err
	}
	defer release()
	return h.pipeline.Classify(ctx, text)
}

// Snapshot is a read-only projection of the manager state.
type Snapshot struct {
	State   State
	ModelID string
	Err     string
}
