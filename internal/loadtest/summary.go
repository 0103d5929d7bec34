package loadtest

import (
	"math"
	"slices"
	"time"
)

// Summary aggregates a run.
type Summary struct {
	Requests  int            `json:"requests"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Labels    map[string]int `json:"labels"`
	Errors    map[string]int `json:"errors,omitempty"`
	WallMS    float64        `json:"wall_ms"`
	// Latency figures cover successful requests, measured client-side.
	MinMS  float64 `json:"min_ms"`
	MeanMS float64 `json:"mean_ms"`
	P50MS  float64 `json:"p50_ms"`
	P95MS  float64 `json:"p95_ms"`
	MaxMS  float64 `json:"max_ms"`
	// ServerMeanMS averages the latency_ms reported by the service.
	ServerMeanMS float64 `json:"server_mean_ms"`
}

// Summarize folds results into a Summary.
func Summarize(results []Result, wall time.Duration) Summary {
	s := Summary{
		Requests: len(results),
		Labels:   map[string]int{},
		WallMS:   float64(wall) / float64(time.Millisecond),
	}
	var lat []float64
	var serverSum float64
	for _, r := range results {
		if !r.OK() {
			s.Failed++
			if s.Errors == nil {
				s.Errors = map[string]int{}
			}
			s.Errors[errorKey(r)]++
			continue
		}
		s.Succeeded++
		s.Labels[r.Response.Label]++
		lat = append(lat, r.ElapsedMS)
		serverSum += r.Response.LatencyMS
	}
	if len(lat) == 0 {
		return s
	}
	slices.Sort(lat)
	var sum float64
	for _, v := range lat {
		sum += v
	}
	s.MinMS = lat[0]
	s.MaxMS = lat[len(lat)-1]
	s.MeanMS = sum / float64(len(lat))
	s.P50MS = percentile(lat, 50)
	s.P95MS = percentile(lat, 95)
	s.ServerMeanMS = serverSum / float64(len(lat))
	return s
}

// errorKey groups failures by status code, or by message when no response
// arrived.
func errorKey(r Result) string {
	if r.Status != 0 {
		return (&StatusError{StatusCode: r.Status}).Error()
	}
	return r.Error
}

// percentile uses nearest-rank on sorted values.
func percentile(sorted []float64, p float64) float64 {
	rank := int(math.Ceil(p / 100 * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}
