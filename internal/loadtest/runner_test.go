package loadtest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentimentd/pkg/types"
)

func predictServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func echoLabel(w http.ResponseWriter, r *http.Request) {
	var req types.PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == nil {
		http.Error(w, "bad", http.StatusBadRequest)
		return
	}
	label := "POSITIVE"
	if strings.Contains(*req.Text, "terrible") {
		label = "NEGATIVE"
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(types.PredictResponse{Label: label, Score: 0.97, LatencyMS: 1.25})
}

func TestRun_AllSucceed(t *testing.T) {
	var (
		mu  sync.Mutex
		ids = map[string]bool{}
	)
	srv := predictServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		mu.Lock()
		ids[r.Header.Get("X-Request-Id")] = true
		mu.Unlock()
		echoLabel(w, r)
	})

	var seen []Result
	sum, err := Run(context.Background(), Config{URL: srv.URL, Requests: 20, Timeout: time.Second, Seed: 7}, func(r Result) {
		seen = append(seen, r)
	})
	require.NoError(t, err)

	assert.Len(t, seen, 20)
	assert.Len(t, ids, 20, "request ids must be unique")
	for i, r := range seen {
		assert.Equal(t, i+1, r.Seq)
		assert.True(t, r.OK(), r.Error)
		assert.Equal(t, http.StatusOK, r.Status)
		assert.Contains(t, DefaultTexts, r.Text)
	}
	assert.Equal(t, 20, sum.Requests)
	assert.Equal(t, 20, sum.Succeeded)
	assert.Zero(t, sum.Failed)
	assert.Equal(t, 20, sum.Labels["POSITIVE"]+sum.Labels["NEGATIVE"])
	assert.InDelta(t, 1.25, sum.ServerMeanMS, 1e-9)
	assert.LessOrEqual(t, sum.MinMS, sum.P50MS)
	assert.LessOrEqual(t, sum.P50MS, sum.P95MS)
	assert.LessOrEqual(t, sum.P95MS, sum.MaxMS)
}

func TestRun_NonOKBecomesResult(t *testing.T) {
	srv := predictServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: "model failed to load", Code: 503})
	})

	var seen []Result
	sum, err := Run(context.Background(), Config{URL: srv.URL, Requests: 3, Timeout: time.Second}, func(r Result) {
		seen = append(seen, r)
	})
	require.NoError(t, err)
	require.Len(t, seen, 3)
	for _, r := range seen {
		assert.False(t, r.OK())
		assert.Equal(t, http.StatusServiceUnavailable, r.Status)
		assert.Equal(t, "status code 503: model failed to load", r.Error)
		assert.Nil(t, r.Response)
	}
	assert.Equal(t, 3, sum.Failed)
	assert.Equal(t, 3, sum.Errors["status code 503"])
}

func TestRun_TimeoutBecomesResult(t *testing.T) {
	release := make(chan struct{})
	srv := predictServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	sum, err := Run(context.Background(), Config{URL: srv.URL, Requests: 2, Timeout: 50 * time.Millisecond}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Failed)
	assert.Equal(t, 2, sum.Errors["timeout after 50ms"])
}

func TestRun_ConcurrencyLimit(t *testing.T) {
	var inflight, peak atomic.Int32
	srv := predictServer(t, func(w http.ResponseWriter, r *http.Request) {
		n := inflight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inflight.Add(-1)
		echoLabel(w, r)
	})

	sum, err := Run(context.Background(), Config{URL: srv.URL, Requests: 12, Concurrency: 3, Timeout: time.Second}, nil)
	require.NoError(t, err)
	assert.Equal(t, 12, sum.Succeeded)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestRun_CustomTexts(t *testing.T) {
	srv := predictServer(t, echoLabel)
	var texts []string
	_, err := Run(context.Background(), Config{URL: srv.URL, Requests: 5, Texts: []string{"only this"}}, func(r Result) {
		texts = append(texts, r.Text)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"only this", "only this", "only this", "only this", "only this"}, texts)
}

func TestRun_InvalidConfig(t *testing.T) {
	_, err := Run(context.Background(), Config{URL: "http://x", Requests: 0}, nil)
	require.Error(t, err)
	_, err = Run(context.Background(), Config{URL: "http://x", Requests: MaxRequests + 1}, nil)
	require.Error(t, err)
	_, err = Run(context.Background(), Config{Requests: 1, Concurrency: -1}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "url is required")
	assert.Contains(t, err.Error(), "concurrency")
}

func TestPickTexts_Deterministic(t *testing.T) {
	a := pickTexts(DefaultTexts, 50, 42)
	b := pickTexts(DefaultTexts, 50, 42)
	assert.Equal(t, a, b)
	for _, s := range a {
		assert.Contains(t, DefaultTexts, s)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, time.Second)
	assert.Zero(t, s.Requests)
	assert.Zero(t, s.MeanMS)
	assert.InDelta(t, 1000, s.WallMS, 1e-9)
}

func TestPercentile(t *testing.T) {
	v := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	assert.Equal(t, 5.0, percentile(v, 50))
	assert.Equal(t, 10.0, percentile(v, 95))
	assert.Equal(t, 1.0, percentile(v, 0))
}
