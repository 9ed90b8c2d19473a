// Package inference talks to the model server that scores ECG signals.
package inference

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/raiahtisham/ecg-health-iq/internal/core/domain"
)

const (
	defaultTimeout = 20 * time.Second
	maxErrorBody   = 512
)

type predictRequest struct {
	Signal []float64 `json:"signal"`
}

type predictResponse struct {
	Probabilities []float64 `json:"probabilities"`
}

// HTTPClassifier calls POST {baseURL}/predict with {"signal": [...]} and
// expects {"probabilities": [...]} ordered as domain.Labels.
type HTTPClassifier struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClassifier(baseURL string, timeout time.Duration) *HTTPClassifier {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPClassifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Predict returns an error wrapping domain.ErrClassifierUnavailable for every
// failure so callers can map it to a single status.
func (c *HTTPClassifier) Predict(ctx context.Context, signal []float64) ([]float64, error) {
	body, err := json.Marshal(predictRequest{Signal: signal})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", domain.ErrClassifierUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrClassifierUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrClassifierUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrClassifierUnavailable, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrClassifierUnavailable, err)
	}
	if len(out.Probabilities) != len(domain.Labels) {
		return nil, fmt.Errorf("%w: expected %d probabilities, got %d",
			domain.ErrClassifierUnavailable, len(domain.Labels), len(out.Probabilities))
	}
	return out.Probabilities, nil
}

// Ping checks that the model server answers on /health.
func (c *HTTPClassifier) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("classifier health: status %d", resp.StatusCode)
	}
	return nil
}
