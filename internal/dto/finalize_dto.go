package dto

import (
	"strconv"
	"time"

	"github.com/noah-isme/arena-go-api/internal/models"
)

// ProblemResult is the per-problem breakdown of a finalize response.
type ProblemResult struct {
	ProblemID    uint   `json:"problem_id"`
	Title        string `json:"title"`
	Difficulty   string `json:"difficulty"`
	BaseScore    int    `json:"base_score"`
	TestsPassed  int    `json:"tests_passed"`
	TestsTotal   int    `json:"tests_total"`
	Status       string `json:"status"`
	SubmissionID string `json:"submission_id,omitempty"`
}

// ScoringSummary totals the finalize outcome.
type ScoringSummary struct {
	TotalBaseScore   int `json:"total_base_score"`
	ViolationPenalty int `json:"violation_penalty"`
	FinalScore       int `json:"final_score"`
}

// SessionSummary reports the authoritative session timing.
type SessionSummary struct {
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	DurationSeconds int       `json:"duration_seconds"`
}

// ViolationReportResponse mirrors the proctoring penalty suggestion.
type ViolationReportResponse struct {
	SuggestedScore int      `json:"suggested_score"`
	AppliedScore   int      `json:"applied_score"`
	IsDistinct     bool     `json:"is_distinct"`
	IsSuspicious   bool     `json:"is_suspicious"`
	Details        []string `json:"details,omitempty"`
}

// SubmitAllResponse is the finalize summary returned to the contestant.
type SubmitAllResponse struct {
	Results         []ProblemResult         `json:"results"`
	Scoring         ScoringSummary          `json:"scoring"`
	Session         SessionSummary          `json:"session"`
	ViolationReport ViolationReportResponse `json:"violation_report"`
	TimeMetrics     models.TimeMetrics      `json:"time_metrics"`
	TotalProblems   int                     `json:"total_problems"`
	TotalSolved     int                     `json:"total_solved"`
	Rank            int                     `json:"rank"`
}

// NewSubmitAllResponse builds the summary from the persisted result. Problems
// drive the ordering so replays render identically to the first call.
func NewSubmitAllResponse(result models.FinalResult, problems []models.Problem, rank int) SubmitAllResponse {
	results := make([]ProblemResult, 0, len(problems))
	for _, problem := range problems {
		stat := result.ProblemStats[strconv.FormatUint(uint64(problem.ID), 10)]
		results = append(results, ProblemResult{
			ProblemID:    problem.ID,
			Title:        problem.Title,
			Difficulty:   problem.Difficulty,
			BaseScore:    stat.Score,
			TestsPassed:  stat.TestsPassed,
			TestsTotal:   stat.TestsTotal,
			Status:       stat.Status,
			SubmissionID: stat.SubmissionID,
		})
	}

	return SubmitAllResponse{
		Results: results,
		Scoring: ScoringSummary{
			TotalBaseScore:   result.BaseScore,
			ViolationPenalty: result.AppliedViolationPenalty,
			FinalScore:       result.FinalScore,
		},
		Session: SessionSummary{
			StartedAt:       result.StartedAt,
			FinishedAt:      result.FinishedAt,
			DurationSeconds: result.DurationSeconds,
		},
		ViolationReport: ViolationReportResponse{
			SuggestedScore: result.ViolationReport.SuggestedScore,
			AppliedScore:   result.AppliedViolationPenalty,
			IsDistinct:     result.ViolationReport.IsDistinct,
			IsSuspicious:   result.ViolationReport.IsSuspicious,
			Details:        result.ViolationReport.Details,
		},
		TimeMetrics:   result.TimeMetrics,
		TotalProblems: result.TotalProblems,
		TotalSolved:   result.TotalSolved,
		Rank:          rank,
	}
}

// ApplyPenaltyRequest is the organizer's explicit penalty application.
type ApplyPenaltyRequest struct {
	Penalty int `json:"penalty" validate:"gte=0"`
}

// PenaltyResponse reports the recomputed scoring after penalty application.
type PenaltyResponse struct {
	ContestID               uint `json:"contest_id"`
	UserID                  uint `json:"user_id"`
	BaseScore               int  `json:"base_score"`
	AppliedViolationPenalty int  `json:"applied_violation_penalty"`
	FinalScore              int  `json:"final_score"`
}

// NewPenaltyResponse converts the updated result.
func NewPenaltyResponse(result models.FinalResult) PenaltyResponse {
	return PenaltyResponse{
		ContestID:               result.ContestID,
		UserID:                  result.UserID,
		BaseScore:               result.BaseScore,
		AppliedViolationPenalty: result.AppliedViolationPenalty,
		FinalScore:              result.FinalScore,
	}
}
