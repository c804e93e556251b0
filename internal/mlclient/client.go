// Package mlclient talks to the PCOS inference service, which scores a
// screening vector and renders PDF reports.
package mlclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pcoscare/internal/models"
	"pcoscare/internal/observability"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
)

const (
	EndpointPredict = "/predict"
	EndpointReport  = "/generate-report"
	EndpointHealth  = "/health"

	maxPredictBody = 1 << 20
	maxReportBody  = 20 << 20
)

var errResponseTooLarge = errors.New("response too large")

// PredictResult is the inference service's answer for one screening.
type PredictResult struct {
	Prediction    int                  `json:"prediction"`
	Probabilities models.Probabilities `json:"probabilities"`
	TopFeatures   models.FeaturePairs  `json:"top_features"`
	LocalImpacts  map[string]float64   `json:"local_impacts,omitempty"`
}

// ReportRequest is the payload the report renderer expects.
type ReportRequest struct {
	Prediction    int                  `json:"prediction"`
	Probabilities models.Probabilities `json:"probabilities"`
	TopFeatures   models.FeaturePairs  `json:"top_features"`
}

// Error is a failed call to the inference service. Body holds the decoded
// error payload when the service answered, or the transport error text.
type Error struct {
	Endpoint   string
	StatusCode int
	Body       any
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("ml service %s: status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("ml service %s: %v", e.Endpoint, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Client calls the inference service over HTTP. Calls are never retried.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	reportLimit int64
}

// New returns a client for baseURL. Every call is bounded by timeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: timeout},
		reportLimit: maxReportBody,
	}
}

// Predict submits the screening vector to /predict.
func (c *Client) Predict(ctx context.Context, in *models.ScreeningInput) (*PredictResult, error) {
	body, err := c.post(ctx, EndpointPredict, in, maxPredictBody)
	if err != nil {
		return nil, err
	}

	var out PredictResult
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &Error{Endpoint: EndpointPredict, Body: "invalid response from ML service", Err: err}
	}
	if out.Prediction != 0 && out.Prediction != 1 {
		return nil, &Error{
			Endpoint: EndpointPredict,
			Body:     fmt.Sprintf("unexpected prediction value %d", out.Prediction),
			Err:      errors.New("prediction out of range"),
		}
	}
	return &out, nil
}

// GenerateReport asks /generate-report to render a PDF and returns its bytes.
func (c *Client) GenerateReport(ctx context.Context, req ReportRequest) ([]byte, error) {
	return c.post(ctx, EndpointReport, req, c.reportLimit)
}

// Health pings the inference service's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+EndpointHealth, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ml service health: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) post(ctx context.Context, endpoint string, payload any, limit int64) (_ []byte, err error) {
	start := time.Now()
	span, ctx := observability.StartClientSpan(ctx, "ml-service", endpoint)
	defer func() {
		observability.ObserveMLCall(endpoint, start, err)
		if err != nil {
			span.SetError(err)
		}
		span.End()
	}()

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, &Error{Endpoint: endpoint, Body: err.Error(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, &Error{Endpoint: endpoint, Body: err.Error(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Endpoint: endpoint, Body: err.Error(), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, &Error{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: err.Error(), Err: err}
	}
	span.AddAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if int64(len(body)) > limit {
		return nil, &Error{
			Endpoint: endpoint,
			Body:     fmt.Sprintf("response exceeds %d bytes", limit),
			Err:      errResponseTooLarge,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       decodeErrorBody(body),
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}
	return body, nil
}

// decodeErrorBody returns JSON error payloads as values and anything else as text.
func decodeErrorBody(body []byte) any {
	var v any
	if err := json.Unmarshal(body, &v); err == nil {
		return v
	}
	return strings.TrimSpace(string(body))
}
