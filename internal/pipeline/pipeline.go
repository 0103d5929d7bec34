// Package pipeline provides text-classification backends. A Loader resolves a
// model identifier into a ready Pipeline; a Pipeline maps text to the model's
// top label and its confidence.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Backend names accepted by NewLoader.
const (
	BackendHFInference = "hf-inference"
	BackendLexicon     = "lexicon"
)

var (
	// ErrUnknownModel is returned by Load when the model id cannot be resolved.
	ErrUnknownModel = errors.New("unknown model")
	// ErrUnsupportedTask is returned by Load when the model is not a text classifier.
	ErrUnsupportedTask = errors.New("model does not support text-classification")
	// ErrUnknownBackend is returned by NewLoader for unrecognized backend names.
	ErrUnknownBackend = errors.New("unknown inference backend")
)

// Prediction is the top-1 output of a classification call.
type Prediction struct {
	Label string
	Score float64
}

// Pipeline classifies text with a loaded model.
type Pipeline interface {
	Classify(ctx context.Context, text string) (Prediction, error)
}

// Loader constructs a Pipeline for a model id. Load may perform network or
// disk I/O and is expected to be called once per process.
type Loader interface {
	Load(ctx context.Context, modelID string) (Pipeline, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, modelID string) (Pipeline, error)

func (f LoaderFunc) Load(ctx context.Context, modelID string) (Pipeline, error) {
	return f(ctx, modelID)
}

// ConcurrentSafe reports whether p declares itself safe for concurrent
// Classify calls. Pipelines that say nothing are treated as unsafe.
func ConcurrentSafe(p Pipeline) bool {
	cs, ok := p.(interface{ ConcurrentSafe() bool })
	return ok && cs.ConcurrentSafe()
}

// Options configures backend construction.
type Options struct {
	// Endpoint is the base URL of the hosted inference API.
	Endpoint string
	// HubURL is the base URL of the model hub used to resolve model ids.
	// Empty skips resolution.
	HubURL string
	// Token is sent as a bearer token to the inference API and hub.
	Token string
	// ConnectTimeout bounds TCP dial time. Zero uses 10s.
	ConnectTimeout time.Duration
}

// NewLoader returns the Loader for the named backend.
func NewLoader(backend string, opts Options) (Loader, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case BackendHFInference, "":
		return NewHFInferenceLoader(opts), nil
	case BackendLexicon:
		return NewLexiconLoader(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// UpstreamError reports a non-2xx answer from a remote inference service.
type UpstreamError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: upstream returned status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: upstream returned status %d: %s", e.Op, e.StatusCode, e.Body)
}
