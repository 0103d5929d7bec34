package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// predictRoute is the route whose outcomes are broken down separately.
const predictRoute = "/predict"

// Predict outcomes, keyed by response class.
const (
	outcomeOK               = "ok"
	outcomeRejected         = "rejected"
	outcomeModelUnavailable = "model_unavailable"
	outcomeFailed           = "failed"
)

var (
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sentimentd",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status code.",
		},
		[]string{"route", "method", "code"},
	)

	// Buckets span a cached lexicon call up to a cold hosted-model load.
	httpLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sentimentd",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route, including model load on first use.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"route", "method"},
	)

	httpInflight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sentimentd",
		Subsystem: "http",
		Name:      "inflight_requests",
		Help:      "HTTP requests currently being served.",
	})

	predictOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sentimentd",
			Subsystem: "predict",
			Name:      "outcomes_total",
			Help:      "POST /predict responses by outcome: ok, rejected (4xx), model_unavailable (503), failed (other 5xx).",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(httpRequests, httpLatency, httpInflight, predictOutcomes)
}

// MetricsMiddleware records request counts, latency and in-flight requests.
// Labels use the chi route pattern, known only after routing.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpInflight.Inc()
		defer httpInflight.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		route := routeLabel(r)
		httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(code)).Inc()
		httpLatency.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		if route == predictRoute && r.Method == http.MethodPost {
			predictOutcomes.WithLabelValues(predictOutcome(code)).Inc()
		}
	})
}

func predictOutcome(code int) string {
	switch {
	case code < 400:
		return outcomeOK
	case code < 500:
		return outcomeRejected
	case code == http.StatusServiceUnavailable:
		return outcomeModelUnavailable
	default:
		return outcomeFailed
	}
}

// routeLabel returns the chi route pattern, or "unmatched" so stray paths do
// not create new series.
func routeLabel(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
