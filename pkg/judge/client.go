package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	judgeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "arena",
		Subsystem: "judge",
		Name:      "request_duration_seconds",
		Help:      "Duration of judge history requests",
	}, []string{"operation"})

	judgeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arena",
		Subsystem: "judge",
		Name:      "request_failures_total",
		Help:      "Number of failed judge requests",
	}, []string{"operation"})
)

const defaultTimeout = 30 * time.Second

// HTTPClient implements Client against the judge collaborator's REST API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewHTTPClient builds a judge client with a bounded request timeout.
func NewHTTPClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *HTTPClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "judge_client").Logger(),
	}
}

type listEnvelope struct {
	Success bool         `json:"success"`
	Data    []Submission `json:"data"`
	Message string       `json:"message"`
}

// ListSubmissions fetches the user's full submission history for one problem,
// scoped to the contest. The caller's bearer token is forwarded as-is.
func (c *HTTPClient) ListSubmissions(ctx context.Context, userID, problemID, contestID uint, token string) ([]Submission, error) {
	start := time.Now()
	defer func() {
		judgeDuration.WithLabelValues("list_submissions").Observe(time.Since(start).Seconds())
	}()

	query := url.Values{}
	query.Set("user_id", strconv.FormatUint(uint64(userID), 10))
	query.Set("problem_id", strconv.FormatUint(uint64(problemID), 10))
	query.Set("contest_id", strconv.FormatUint(uint64(contestID), 10))

	endpoint := fmt.Sprintf("%s/api/v1/submissions?%s", c.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build judge request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		judgeFailures.WithLabelValues("list_submissions").Inc()
		return nil, fmt.Errorf("judge request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		judgeFailures.WithLabelValues("list_submissions").Inc()
		return nil, fmt.Errorf("judge returned status %d", resp.StatusCode)
	}

	var envelope listEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		judgeFailures.WithLabelValues("list_submissions").Inc()
		return nil, fmt.Errorf("decode judge response: %w", err)
	}

	return envelope.Data, nil
}
