package telemetry

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder counts inference requests per model.
type PrometheusRecorder struct {
	requests *prometheus.CounterVec
}

// NewPrometheusRecorder registers the inference request counter with reg.
// A nil reg uses the default registerer. Registering twice against the same
// registry reuses the existing collector.
func NewPrometheusRecorder(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	cv := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sentimentd",
			Subsystem: "inference",
			Name:      "requests_total",
			Help:      "Total number of inference requests served, by model",
		},
		[]string{"model"},
	)
	if err := reg.Register(cv); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, err
		}
		cv = existing
	}
	return &PrometheusRecorder{requests: cv}, nil
}

func (p *PrometheusRecorder) RecordRequest(modelID string) {
	p.requests.WithLabelValues(modelID).Inc()
}
