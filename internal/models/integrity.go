package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	// IntegrityVerdictClean is the baseline verdict.
	IntegrityVerdictClean = "Clean"
	// IntegrityVerdictAIGenerated flags likely AI-generated code.
	IntegrityVerdictAIGenerated = "AIGenerated"
	// IntegrityVerdictSuspicious flags elevated similarity.
	IntegrityVerdictSuspicious = "Suspicious"
	// IntegrityVerdictPlagiarized is the most severe verdict.
	IntegrityVerdictPlagiarized = "Plagiarized"
)

var integritySeverity = map[string]int{
	IntegrityVerdictClean:       0,
	IntegrityVerdictAIGenerated: 1,
	IntegrityVerdictSuspicious:  2,
	IntegrityVerdictPlagiarized: 3,
}

// EscalateIntegrityVerdict returns the more severe of the two verdicts.
// Unknown verdicts never displace a known one.
func EscalateIntegrityVerdict(current, incoming string) string {
	if current == "" {
		current = IntegrityVerdictClean
	}
	if integritySeverity[incoming] > integritySeverity[current] {
		return incoming
	}
	return current
}

// ProblemIntegrity is the per-problem slice of an integrity report.
type ProblemIntegrity struct {
	SubmissionID string  `json:"submission_id"`
	Similarity   float64 `json:"similarity"`
	AIScore      float64 `json:"ai_score"`
	Verdict      string  `json:"verdict"`
	EvidenceRef  string  `json:"evidence_ref,omitempty"`
}

// IntegrityReport aggregates asynchronous plagiarism verdicts into a result.
// CountedSubmissions tracks which submission ids already contributed to
// FlaggedCount so webhook re-delivery never double-counts.
type IntegrityReport struct {
	Problems           map[string]ProblemIntegrity `json:"problems,omitempty"`
	MaxSimilarity      float64                     `json:"max_similarity"`
	MaxAIScore         float64                     `json:"max_ai_score"`
	FlaggedCount       int                         `json:"flagged_count"`
	Verdict            string                      `json:"verdict"`
	CountedSubmissions map[string]bool             `json:"counted_submissions,omitempty"`
}

// OrphanIntegrityResult stores a webhook verdict that arrived before the
// matching FinalResult existed. Rows are drained into the result during the
// post-finalize poll and deleted once merged.
type OrphanIntegrityResult struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	SubmissionID string         `gorm:"size:64;not null;uniqueIndex" json:"submission_id"`
	ContestID    uint           `gorm:"not null;index:idx_orphans_contest_user" json:"contest_id"`
	UserID       uint           `gorm:"not null;index:idx_orphans_contest_user" json:"user_id"`
	ProblemID    uint           `gorm:"not null" json:"problem_id"`
	Similarity   float64        `json:"similarity"`
	AIScore      float64        `json:"ai_score"`
	Verdict      string         `gorm:"size:32;not null" json:"verdict"`
	EvidenceRef  string         `gorm:"size:512" json:"evidence_ref"`
	Payload      datatypes.JSON `json:"payload"`
	CreatedAt    time.Time      `json:"created_at"`
}
