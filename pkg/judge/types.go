package judge

import (
	"context"
	"time"
)

// Submission is one judged attempt as reported by the judging collaborator.
type Submission struct {
	ID          string    `json:"id"`
	Verdict     string    `json:"verdict"`
	PassedTests int       `json:"passed_tests"`
	TotalTests  int       `json:"total_tests"`
	Code        string    `json:"code"`
	Language    string    `json:"language"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Accepted reports whether the submission fully passed its test set.
func (s Submission) Accepted() bool {
	return s.TotalTests > 0 && s.PassedTests == s.TotalTests
}

// Client fetches a contestant's judged submission history.
type Client interface {
	ListSubmissions(ctx context.Context, userID, problemID, contestID uint, token string) ([]Submission, error)
}
