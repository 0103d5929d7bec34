package types

// PredictRequest is the body of POST /predict.
type PredictRequest struct {
	// Text to classify. Required; passed to the model as-is.
	// example: I love Azure!
	Text *string `json:"text" example:"I love Azure!"`
}

// PredictResponse is returned by POST /predict.
type PredictResponse struct {
	// Classification tag produced by the model.
	// example: POSITIVE
	Label string `json:"label" example:"POSITIVE"`
	// Confidence of the label in [0,1].
	// example: 0.9998
	Score float64 `json:"score" example:"0.9998"`
	// Wall-clock duration of the inference call in milliseconds.
	// example: 12.5
	LatencyMS float64 `json:"latency_ms" example:"12.5"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Provider state: idle, loading, ready or error.
	// example: ready
	State string `json:"state" example:"ready"`
	// Configured model identifier.
	// example: distilbert-base-uncased-finetuned-sst-2-english
	ModelID string `json:"model_id" example:"distilbert-base-uncased-finetuned-sst-2-english"`
	// Inference backend serving the model.
	// example: hf-inference
	Backend string `json:"backend" example:"hf-inference"`
	// Number of model construction attempts, successful or not (0 or 1).
	// example: 1
	LoadsTotal uint64 `json:"loads_total" example:"1"`
	// Time spent constructing the model in milliseconds.
	// example: 850
	LoadMS int64 `json:"load_ms" example:"850"`
	// Whether classification calls are serialized.
	// example: false
	Serialized bool `json:"serialized" example:"false"`
	// Number of successful predictions served.
	// example: 42
	RequestsTotal uint64 `json:"requests_total" example:"42"`
	// Last error observed by the provider (if any).
	LastError string `json:"last_error,omitempty"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
