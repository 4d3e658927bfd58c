package proctor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// PenaltySuggestion aggregates proctoring violation signals into a suggested
// score deduction. It is advisory; organizers apply penalties explicitly.
type PenaltySuggestion struct {
	Score        int      `json:"score"`
	IsDistinct   bool     `json:"is_distinct"`
	IsSuspicious bool     `json:"is_suspicious"`
	Details      []string `json:"details"`
}

// Client queries the monitoring collaborator for violation penalty suggestions.
type Client interface {
	GetSuggestedPenalty(ctx context.Context, contestID, userID uint) (PenaltySuggestion, error)
}

const defaultTimeout = 10 * time.Second

// HTTPClient implements Client against the monitoring collaborator's REST API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewHTTPClient builds a monitoring client.
func NewHTTPClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *HTTPClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "proctor_client").Logger(),
	}
}

type penaltyEnvelope struct {
	Success bool              `json:"success"`
	Data    PenaltySuggestion `json:"data"`
	Message string            `json:"message"`
}

// GetSuggestedPenalty fetches the accumulated violation penalty suggestion.
func (c *HTTPClient) GetSuggestedPenalty(ctx context.Context, contestID, userID uint) (PenaltySuggestion, error) {
	endpoint := fmt.Sprintf("%s/api/v1/contests/%d/users/%d/penalty", c.baseURL, contestID, userID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return PenaltySuggestion{}, fmt.Errorf("build penalty request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return PenaltySuggestion{}, fmt.Errorf("penalty request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return PenaltySuggestion{}, fmt.Errorf("monitoring returned status %d", resp.StatusCode)
	}

	var envelope penaltyEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return PenaltySuggestion{}, fmt.Errorf("decode penalty response: %w", err)
	}

	return envelope.Data, nil
}
