package estimator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	apperrors "github.com/spec-kit/queue-service/pkg/util"
)

// Estimator predicts the wait in minutes for a department queue. A failing or
// slow estimator must never fail ticket creation; callers substitute a
// fallback on error.
type Estimator interface {
	PredictWait(ctx context.Context, departmentID string) (int, error)
}

type predictionRequest struct {
	DepartmentID string `json:"department_id"`
}

type predictionResponse struct {
	EstimatedWaitMinutes int `json:"estimated_wait_time"`
}

// Client calls the external prediction service over HTTP with a bounded
// timeout per request.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
}

// NewClient configures the HTTP estimator client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		timeout: timeout,
		http:    &http.Client{Timeout: timeout},
	}
}

// PredictWait POSTs the department to /predict and returns the estimate.
func (c *Client) PredictWait(ctx context.Context, departmentID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(predictionRequest{DepartmentID: departmentID})
	if err != nil {
		return 0, apperrors.NewUnavailable("estimator", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return 0, apperrors.NewUnavailable("estimator", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, apperrors.NewUnavailable("estimator", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, apperrors.NewUnavailable("estimator", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var prediction predictionResponse
	if err := json.NewDecoder(resp.Body).Decode(&prediction); err != nil {
		return 0, apperrors.NewUnavailable("estimator", err)
	}
	return prediction.EstimatedWaitMinutes, nil
}
