package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultHFEndpoint   = "https://router.huggingface.co/hf-inference"
	taskTextClassifying = "text-classification"
	maxErrorBody        = 4096
)

// hfLoader resolves models on the Hugging Face hub and serves them through the
// hosted inference API.
type hfLoader struct {
	endpoint   string
	hubURL     string
	token      string
	httpClient *http.Client
}

// NewHFInferenceLoader constructs a loader backed by the Hugging Face inference API.
func NewHFInferenceLoader(opts Options) Loader {
	connectTimeout := opts.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 10 * time.Second
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   32,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	endpoint := strings.TrimRight(opts.Endpoint, "/")
	if endpoint == "" {
		endpoint = defaultHFEndpoint
	}
	// Timeout=0: requests are bounded by their context only.
	return &hfLoader{
		endpoint:   endpoint,
		hubURL:     strings.TrimRight(opts.HubURL, "/"),
		token:      opts.Token,
		httpClient: &http.Client{Transport: tr, Timeout: 0},
	}
}

type hfModelInfo struct {
	ID          string `json:"id"`
	PipelineTag string `json:"pipeline_tag"`
}

func (l *hfLoader) Load(ctx context.Context, modelID string) (Pipeline, error) {
	id := strings.Trim(strings.TrimSpace(modelID), "/")
	if id == "" {
		return nil, fmt.Errorf("%w: empty model id", ErrUnknownModel)
	}
	if l.hubURL != "" {
		info, err := l.modelInfo(ctx, id)
		if err != nil {
			return nil, err
		}
		if info.PipelineTag != "" && info.PipelineTag != taskTextClassifying {
			return nil, fmt.Errorf("%w: %s is tagged %q", ErrUnsupportedTask, id, info.PipelineTag)
		}
	}
	return &hfPipeline{
		loader:  l,
		modelID: id,
		url:     l.endpoint + "/models/" + escapeModelPath(id),
	}, nil
}

func (l *hfLoader) modelInfo(ctx context.Context, id string) (hfModelInfo, error) {
	var info hfModelInfo
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.hubURL+"/api/models/"+escapeModelPath(id), http.NoBody)
	if err != nil {
		return info, fmt.Errorf("failed to create request: %w", err)
	}
	l.authorize(req)
	resp, err := l.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return info, ctx.Err()
		}
		return info, fmt.Errorf("resolve model %s: %w", id, err)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusUnauthorized:
		// The hub answers 401 rather than 404 for missing repos when unauthenticated.
		return info, fmt.Errorf("%w: %s", ErrUnknownModel, id)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return info, &UpstreamError{Op: "resolve model " + id, StatusCode: resp.StatusCode, Body: readErrorBody(resp.Body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return info, fmt.Errorf("failed to decode model info: %w", err)
	}
	return info, nil
}

func (l *hfLoader) authorize(req *http.Request) {
	if l.token != "" {
		req.Header.Set("Authorization", "Bearer "+l.token)
	}
}

// hfPipeline is a loaded model served by the inference API.
type hfPipeline struct {
	loader  *hfLoader
	modelID string
	url     string
}

type hfClassifyRequest struct {
	Inputs  string           `json:"inputs"`
	Options hfRequestOptions `json:"options"`
}

type hfRequestOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

type hfLabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// ConcurrentSafe reports true: each call is an independent HTTP request.
func (p *hfPipeline) ConcurrentSafe() bool { return true }

func (p *hfPipeline) Classify(ctx context.Context, text string) (Prediction, error) {
	body, err := json.Marshal(hfClassifyRequest{Inputs: text, Options: hfRequestOptions{WaitForModel: true}})
	if err != nil {
		return Prediction{}, fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return Prediction{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	p.loader.authorize(req)

	resp, err := p.loader.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Prediction{}, ctx.Err()
		}
		return Prediction{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Prediction{}, &UpstreamError{Op: "classify " + p.modelID, StatusCode: resp.StatusCode, Body: readErrorBody(resp.Body)}
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Prediction{}, fmt.Errorf("failed to read response: %w", err)
	}
	return decodeClassification(raw)
}

// decodeClassification accepts both the nested ([[...]]) and flat ([...])
// response shapes and returns the highest-scoring label.
func decodeClassification(raw []byte) (Prediction, error) {
	var candidates []hfLabelScore
	var nested [][]hfLabelScore
	if err := json.Unmarshal(raw, &nested); err == nil {
		if len(nested) > 0 {
			candidates = nested[0]
		}
	} else if err := json.Unmarshal(raw, &candidates); err != nil {
		return Prediction{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(candidates) == 0 {
		return Prediction{}, errors.New("empty classification response")
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Score > best.Score {
			best = c
		}
	}
	if best.Score < 0 || best.Score > 1 {
		return Prediction{}, fmt.Errorf("score %v for %q outside [0,1]", best.Score, best.Label)
	}
	return Prediction{Label: best.Label, Score: best.Score}, nil
}

func escapeModelPath(id string) string {
	parts := strings.Split(id, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

func readErrorBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	return strings.TrimSpace(string(b))
}
