package manager

import (
	"context"
	"fmt"
	"math"
	"time"

	"sentimentd/pkg/types"
)

// Predict classifies text with the process-wide model. Latency covers
// obtaining the handle and the classification call. Text is passed through
// unvalidated. Telemetry is recorded only for successful predictions and can
// never fail the call.
func (m *Manager) Predict(ctx context.Context, text string) (types.PredictResponse, error) {
	start := time.Now()
	h, err := m.GetModel(ctx)
	if err != nil {
		return types.PredictResponse{}, err
	}
	pred, err := h.Classify(ctx, text)
	if err != nil {
		if ctx.Err() != nil {
			return types.PredictResponse{}, ctx.Err()
		}
		return types.PredictResponse{}, inferenceError{modelID: h.ModelID, err: err}
	}
	if math.IsNaN(pred.Score) || pred.Score < 0 || pred.Score > 1 {
		return types.PredictResponse{}, inferenceError{modelID: h.ModelID, err: fmt.Errorf("score %v for %q outside [0,1]", pred.Score, pred.Label)}
	}
	latency := float64(time.Since(start)) / float64(time.Millisecond)
	m.requests.Add(1)
	m.recorder.RecordRequest(h.ModelID)
	return types.PredictResponse{
		Label:     pred.Label,
		Score:     pred.Score,
		LatencyMS: latency,
	}, nil
}
