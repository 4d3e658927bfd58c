package integrity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var analysisFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "arena",
	Subsystem: "integrity",
	Name:      "analysis_request_failures_total",
	Help:      "Number of failed integrity analysis submissions",
}, []string{"operation"})

// AnalysisRequest describes one submission handed to the plagiarism/AI analyzer.
// The analyzer reports asynchronously to WebhookURL.
type AnalysisRequest struct {
	SubmissionID string `json:"submission_id"`
	UserID       uint   `json:"user_id"`
	ContestID    uint   `json:"contest_id"`
	ProblemID    uint   `json:"problem_id"`
	Code         string `json:"code"`
	Language     string `json:"language"`
	WebhookURL   string `json:"webhook_url"`
}

// Analyzer accepts submissions for asynchronous integrity analysis.
type Analyzer interface {
	SubmitForAnalysis(ctx context.Context, req AnalysisRequest) error
}

const defaultTimeout = 10 * time.Second

// HTTPClient implements Analyzer against the analysis collaborator's REST API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewHTTPClient builds an analyzer client with a short request timeout; the
// analysis itself is asynchronous, only the handoff is awaited.
func NewHTTPClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *HTTPClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "integrity_client").Logger(),
	}
}

// SubmitForAnalysis enqueues the submission with the analyzer.
func (c *HTTPClient) SubmitForAnalysis(ctx context.Context, payload AnalysisRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal analysis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/analyze", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build analysis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		analysisFailures.WithLabelValues("submit").Inc()
		return fmt.Errorf("analysis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		analysisFailures.WithLabelValues("submit").Inc()
		return fmt.Errorf("analyzer returned status %d", resp.StatusCode)
	}

	return nil
}
