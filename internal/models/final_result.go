package models

import "time"

const (
	// ProblemStatusAccepted means the judged submission passed every test.
	ProblemStatusAccepted = "accepted"
	// ProblemStatusAttempted means submissions exist but none fully passed.
	ProblemStatusAttempted = "attempted"
	// ProblemStatusNotAttempted means the contestant never submitted.
	ProblemStatusNotAttempted = "not_attempted"
	// ProblemStatusError means the judge history could not be fetched.
	ProblemStatusError = "error"
)

// ProblemStat captures the judged outcome of one problem inside a final result.
type ProblemStat struct {
	Score        int    `json:"score"`
	Verdict      string `json:"verdict"`
	TestsPassed  int    `json:"tests_passed"`
	TestsTotal   int    `json:"tests_total"`
	Status       string `json:"status"`
	SubmissionID string `json:"submission_id,omitempty"`
}

// ProblemStatsMap keys problem stats by the decimal problem id.
type ProblemStatsMap map[string]ProblemStat

// TimeMetrics describes how much of the allocated budget a contestant used.
type TimeMetrics struct {
	UsedSeconds      int     `json:"used_seconds"`
	AllocatedSeconds int     `json:"allocated_seconds"`
	PercentageUsed   float64 `json:"percentage_used"`
	WasExpired       bool    `json:"was_expired"`
}

// ViolationReport holds the proctoring penalty suggestion recorded at finalize time.
type ViolationReport struct {
	SuggestedScore int      `json:"suggested_score"`
	IsDistinct     bool     `json:"is_distinct"`
	IsSuspicious   bool     `json:"is_suspicious"`
	Details        []string `json:"details,omitempty"`
}

// FinalResult is the create-once outcome of finalization for one (contest, user) pair.
// FinalScore equals BaseScore at write time; the violation penalty is applied
// later by an organizer, never automatically.
type FinalResult struct {
	ID                        uint            `gorm:"primaryKey" json:"id"`
	ContestID                 uint            `gorm:"not null;uniqueIndex:idx_final_results_contest_user" json:"contest_id"`
	UserID                    uint            `gorm:"not null;uniqueIndex:idx_final_results_contest_user" json:"user_id"`
	BaseScore                 int             `gorm:"not null" json:"base_score"`
	SuggestedViolationPenalty int             `json:"suggested_violation_penalty"`
	AppliedViolationPenalty   int             `json:"applied_violation_penalty"`
	FinalScore                int             `gorm:"not null" json:"final_score"`
	TotalProblems             int             `json:"total_problems"`
	TotalSolved               int             `json:"total_solved"`
	DurationSeconds           int             `gorm:"not null;index" json:"duration_seconds"`
	ProblemStats              ProblemStatsMap `gorm:"serializer:json" json:"problem_stats"`
	TimeMetrics               TimeMetrics     `gorm:"serializer:json" json:"time_metrics"`
	ViolationReport           ViolationReport `gorm:"serializer:json" json:"violation_report"`
	IntegrityReport           IntegrityReport `gorm:"serializer:json" json:"integrity_report"`
	StartedAt                 time.Time       `json:"started_at"`
	FinishedAt                time.Time       `json:"finished_at"`
	CreatedAt                 time.Time       `json:"created_at"`
	UpdatedAt                 time.Time       `json:"updated_at"`
}
