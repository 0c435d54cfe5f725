// Package predictor is the scoring port: it produces a success probability
// in [0,1] for a customer-agent pair. The production implementation calls an
// external model service; Heuristic is the deterministic fallback used when
// the model is unavailable.
package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/queuewise/router/internal/store"
)

// ErrModelUnavailable signals that the model service cannot serve predictions.
// Callers recover by switching to the heuristic for the rest of the pass.
var ErrModelUnavailable = errors.New("model unavailable")

type Pair struct {
	Customer *store.Customer
	Agent    *store.Agent
}

type Predictor interface {
	Predict(ctx context.Context, customer *store.Customer, agent *store.Agent) (float64, error)
	PredictBatch(ctx context.Context, pairs []Pair) ([]float64, error)
}

// HTTPClient calls an external model-serving endpoint.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewHTTPClient(baseURL, token string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type predictRequest struct {
	Customer *store.Customer `json:"customer"`
	Agent    *store.Agent    `json:"agent"`
}

type predictResponse struct {
	Score float64 `json:"score"`
}

func (c *HTTPClient) Predict(ctx context.Context, customer *store.Customer, agent *store.Agent) (float64, error) {
	body, err := json.Marshal(predictRequest{Customer: customer, Agent: agent})
	if err != nil {
		return 0, err
	}
	data, err := c.doReq(ctx, "POST", "/v1/predict", body)
	if err != nil {
		return 0, err
	}
	var resp predictResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return 0, fmt.Errorf("decode prediction: %w", err)
	}
	return clampScore(resp.Score), nil
}

type batchRequest struct {
	Pairs []predictRequest `json:"pairs"`
}

type batchResponse struct {
	Scores []float64 `json:"scores"`
}

func (c *HTTPClient) PredictBatch(ctx context.Context, pairs []Pair) ([]float64, error) {
	req := batchRequest{Pairs: make([]predictRequest, len(pairs))}
	for i, p := range pairs {
		req.Pairs[i] = predictRequest{Customer: p.Customer, Agent: p.Agent}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	data, err := c.doReq(ctx, "POST", "/v1/predict/batch", body)
	if err != nil {
		return nil, err
	}
	var resp batchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode batch prediction: %w", err)
	}
	if len(resp.Scores) != len(pairs) {
		return nil, fmt.Errorf("batch prediction: expected %d scores, got %d", len(pairs), len(resp.Scores))
	}
	for i := range resp.Scores {
		resp.Scores[i] = clampScore(resp.Scores[i])
	}
	return resp.Scores, nil
}

func (c *HTTPClient) doReq(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Keep the cause in the chain: callers distinguish a per-call
		// deadline from the service being down.
		return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusServiceUnavailable {
		return nil, fmt.Errorf("%w: model service returned 503", ErrModelUnavailable)
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: model service %s %s: %d", ErrModelUnavailable, method, path, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("model service %s %s: %d %s", method, path, resp.StatusCode, string(data))
	}
	return data, nil
}

// ModelInfo describes which predictor is serving scores.
type ModelInfo struct {
	ModelLoaded bool   `json:"model_loaded"`
	ModelType   string `json:"model_type"`
}

// Info reports whether the model service is reachable and has a model loaded.
// An unreachable service is reported as the heuristic, not an error, since
// routing keeps working either way.
func (c *HTTPClient) Info(ctx context.Context) *ModelInfo {
	data, err := c.doReq(ctx, "GET", "/v1/model/info", nil)
	if err != nil {
		return &ModelInfo{ModelLoaded: false, ModelType: "rule_based_heuristic"}
	}
	var info ModelInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return &ModelInfo{ModelLoaded: false, ModelType: "rule_based_heuristic"}
	}
	return &info
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
