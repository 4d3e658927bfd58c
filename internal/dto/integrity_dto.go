package dto

// IntegrityMatch names one similar submission found by the analyzer.
type IntegrityMatch struct {
	SubmissionID string  `json:"submission_id"`
	UserID       uint    `json:"user_id"`
	Similarity   float64 `json:"similarity"`
}

// IntegrityWebhookRequest is the analyzer's asynchronous verdict delivery.
// AssessmentID is accepted as an alias for ContestID for older analyzer
// deployments.
type IntegrityWebhookRequest struct {
	SubmissionID  string           `json:"submission_id" validate:"required"`
	UserID        uint             `json:"user_id" validate:"required"`
	ContestID     uint             `json:"contest_id"`
	AssessmentID  uint             `json:"assessment_id"`
	ProblemID     uint             `json:"problem_id" validate:"required"`
	MaxSimilarity float64          `json:"max_similarity" validate:"gte=0,lte=100"`
	Verdict       string           `json:"verdict" validate:"required"`
	AIScore       float64          `json:"ai_score" validate:"gte=0,lte=1"`
	Matches       []IntegrityMatch `json:"matches"`
	ReportPath    string           `json:"report_path"`
}

// Contest resolves the contest id, honoring the assessment_id alias.
func (r IntegrityWebhookRequest) Contest() uint {
	if r.ContestID != 0 {
		return r.ContestID
	}
	return r.AssessmentID
}
