package manager

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"sentimentd/internal/pipeline"
)

// countingLoader counts Load calls and optionally blocks until release is closed.
type countingLoader struct {
	calls   atomic.Int32
	release chan struct{}
	err     error
	pipe    pipeline.Pipeline
}

func (l *countingLoader) Load(ctx context.Context, modelID string) (pipeline.Pipeline, error) {
	l.calls.Add(1)
	if l.release != nil {
		<-l.release
	}
	if l.err != nil {
		return nil, l.err
	}
	if l.pipe != nil {
		return l.pipe, nil
	}
	return fakePipeline{label: "POSITIVE", score: 0.99, safe: true}, nil
}

// fakePipeline returns a fixed prediction.
type fakePipeline struct {
	label string
	score float64
	err   error
	safe  bool
}

func (f fakePipeline) Classify(ctx context.Context, text string) (pipeline.Prediction, error) {
	if f.err != nil {
		return pipeline.Prediction{}, f.err
	}
	return pipeline.Prediction{Label: f.label, Score: f.score}, nil
}

func (f fakePipeline) ConcurrentSafe() bool { return f.safe }

// inflightPipeline tracks the maximum number of concurrent Classify calls.
// It does not implement ConcurrentSafe.
type inflightPipeline struct {
	mu      sync.Mutex
	cur     int
	max     int
	holdFor time.Duration
}

func (p *inflightPipeline) Classify(ctx context.Context, text string) (pipeline.Prediction, error) {
	p.mu.Lock()
	p.cur++
	if p.cur > p.max {
		p.max = p.cur
	}
	p.mu.Unlock()
	time.Sleep(p.holdFor)
	p.mu.Lock()
	p.cur--
	p.mu.Unlock()
	return pipeline.Prediction{Label: "NEGATIVE", Score: 0.8}, nil
}

// testCtx returns a context with a short timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return c
}
