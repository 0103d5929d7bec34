package loadtest

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"sentimentd/pkg/types"
)

const (
	DefaultURL      = "http://127.0.0.1:8080/predict"
	DefaultRequests = 20
	MaxRequests     = 1000
	DefaultTimeout  = 10 * time.Second
)

// DefaultTexts are the sample sentences fired when none are given.
var DefaultTexts = []string{
	"I love Azure!",
	"This new feature is terrible.",
	"The movie was okay, nothing special.",
	"Streamlit makes demos easy.",
}

// Config describes one load-test run.
type Config struct {
	URL      string
	Requests int
	// Concurrency caps in-flight requests; 0 fires all at once.
	Concurrency int
	Timeout     time.Duration
	Texts       []string
	// Seed fixes text selection; 0 picks a random seed.
	Seed uint64
}

// Validate checks the run parameters.
func (c Config) Validate() error {
	var errs []error
	if c.URL == "" {
		errs = append(errs, errors.New("url is required"))
	}
	if c.Requests < 1 || c.Requests > MaxRequests {
		errs = append(errs, fmt.Errorf("requests must be between 1 and %d, got %d", MaxRequests, c.Requests))
	}
	if c.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("concurrency must be >= 0, got %d", c.Concurrency))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must be >= 0, got %s", c.Timeout))
	}
	return errors.Join(errs...)
}

// Result is the outcome of one request.
type Result struct {
	// Seq is the 1-based completion order.
	Seq       int                    `json:"seq"`
	Index     int                    `json:"index"`
	RequestID string                 `json:"request_id"`
	Text      string                 `json:"text"`
	Status    int                    `json:"status,omitempty"`
	Response  *types.PredictResponse `json:"response,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Elapsed   time.Duration          `json:"-"`
	ElapsedMS float64                `json:"elapsed_ms"`
}

// OK reports whether the request produced a prediction.
func (r Result) OK() bool { return r.Error == "" && r.Response != nil }

// Run fires cfg.Requests requests, each with a text chosen at random from
// cfg.Texts, and calls onResult once per request in completion order. Calls to
// onResult are serialized. Failures never abort the run; they become results.
func Run(ctx context.Context, cfg Config, onResult func(Result)) (Summary, error) {
	if len(cfg.Texts) == 0 {
		cfg.Texts = DefaultTexts
	}
	if err := cfg.Validate(); err != nil {
		return Summary{}, err
	}
	client := NewClient(cfg.URL, cfg.Timeout)
	texts := pickTexts(cfg.Texts, cfg.Requests, cfg.Seed)

	var (
		mu      sync.Mutex
		results = make([]Result, 0, cfg.Requests)
	)
	emit := func(r Result) {
		mu.Lock()
		defer mu.Unlock()
		r.Seq = len(results) + 1
		results = append(results, r)
		if onResult != nil {
			onResult(r)
		}
	}

	var g errgroup.Group
	if cfg.Concurrency > 0 {
		g.SetLimit(cfg.Concurrency)
	}
	start := time.Now()
	for i, text := range texts {
		g.Go(func() error {
			emit(fire(ctx, client, i, text))
			return nil
		})
	}
	_ = g.Wait()
	return Summarize(results, time.Since(start)), nil
}

func fire(ctx context.Context, client *Client, index int, text string) Result {
	r := Result{Index: index, RequestID: uuid.NewString(), Text: text}
	start := time.Now()
	res, status, err := client.Predict(ctx, r.RequestID, text)
	r.Elapsed = time.Since(start)
	r.ElapsedMS = float64(r.Elapsed) / float64(time.Millisecond)
	r.Status = status
	if err != nil {
		r.Error = err.Error()
		return r
	}
	r.Response = &res
	return r
}

// pickTexts draws n texts with replacement. A zero seed is replaced by a
// random one.
func pickTexts(pool []string, n int, seed uint64) []string {
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]string, n)
	for i := range out {
		out[i] = pool[rng.IntN(len(pool))]
	}
	return out
}
