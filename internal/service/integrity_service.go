package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/arena-go-api/internal/models"
	"github.com/noah-isme/arena-go-api/internal/observability"
	"github.com/noah-isme/arena-go-api/internal/repository"
)

// IntegrityVerdict is one asynchronous analyzer verdict to merge into a result.
type IntegrityVerdict struct {
	SubmissionID string
	ContestID    uint
	UserID       uint
	ProblemID    uint
	Similarity   float64
	AIScore      float64
	Verdict      string
	EvidenceRef  string
	Raw          []byte
}

// IntegrityService merges analyzer verdicts into stored final results.
// Merging is idempotent per (submission, problem) and only ever escalates the
// aggregate verdict.
type IntegrityService interface {
	Merge(ctx context.Context, verdict IntegrityVerdict) error
	// MergePending drains stored orphan verdicts into the persisted result.
	MergePending(ctx context.Context, contestID, userID uint) (int, error)
	// PendingVerdicts lists verdicts that arrived before the result existed.
	PendingVerdicts(ctx context.Context, contestID, userID uint) ([]IntegrityVerdict, error)
}

type integrityService struct {
	results repository.FinalResultRepository
	orphans repository.IntegrityRepository
	sink    NotificationSink
	logger  zerolog.Logger
}

// NewIntegrityService constructs the merger.
func NewIntegrityService(results repository.FinalResultRepository, orphans repository.IntegrityRepository, sink NotificationSink, logger zerolog.Logger) IntegrityService {
	return &integrityService{
		results: results,
		orphans: orphans,
		sink:    sink,
		logger:  logger.With().Str("component", "integrity_service").Logger(),
	}
}

func (s *integrityService) Merge(ctx context.Context, verdict IntegrityVerdict) error {
	result, err := s.results.UpdateLocked(ctx, verdict.ContestID, verdict.UserID, func(result *models.FinalResult) error {
		mergeVerdictInto(result, verdict)
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.storeOrphan(ctx, verdict)
		}
		return err
	}

	observability.IntegrityWebhooks().WithLabelValues("merged").Inc()

	if verdict.Verdict != models.IntegrityVerdictClean {
		s.sink.Notify(ctx, Event{
			Type:      "integrity.flagged",
			ContestID: verdict.ContestID,
			UserID:    verdict.UserID,
			Payload: map[string]any{
				"submission_id": verdict.SubmissionID,
				"problem_id":    verdict.ProblemID,
				"verdict":       verdict.Verdict,
				"similarity":    verdict.Similarity,
			},
		})
	}

	s.logger.Info().
		Uint("contest_id", verdict.ContestID).
		Uint("user_id", verdict.UserID).
		Str("submission_id", verdict.SubmissionID).
		Str("verdict", verdict.Verdict).
		Str("aggregate_verdict", result.IntegrityReport.Verdict).
		Msg("integrity verdict merged")

	return nil
}

func (s *integrityService) MergePending(ctx context.Context, contestID, userID uint) (int, error) {
	orphans, err := s.orphans.ListOrphans(ctx, contestID, userID)
	if err != nil {
		return 0, err
	}
	if len(orphans) == 0 {
		return 0, nil
	}

	_, err = s.results.UpdateLocked(ctx, contestID, userID, func(result *models.FinalResult) error {
		for _, orphan := range orphans {
			mergeVerdictInto(result, IntegrityVerdict{
				SubmissionID: orphan.SubmissionID,
				ContestID:    orphan.ContestID,
				UserID:       orphan.UserID,
				ProblemID:    orphan.ProblemID,
				Similarity:   orphan.Similarity,
				AIScore:      orphan.AIScore,
				Verdict:      orphan.Verdict,
				EvidenceRef:  orphan.EvidenceRef,
			})
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	ids := make([]uint, 0, len(orphans))
	for _, orphan := range orphans {
		ids = append(ids, orphan.ID)
	}
	if err := s.orphans.DeleteOrphans(ctx, ids); err != nil {
		s.logger.Warn().Err(err).Msg("failed to delete merged orphan verdicts")
	}

	return len(orphans), nil
}

func (s *integrityService) PendingVerdicts(ctx context.Context, contestID, userID uint) ([]IntegrityVerdict, error) {
	orphans, err := s.orphans.ListOrphans(ctx, contestID, userID)
	if err != nil {
		return nil, err
	}

	verdicts := make([]IntegrityVerdict, 0, len(orphans))
	for _, orphan := range orphans {
		verdicts = append(verdicts, IntegrityVerdict{
			SubmissionID: orphan.SubmissionID,
			ContestID:    orphan.ContestID,
			UserID:       orphan.UserID,
			ProblemID:    orphan.ProblemID,
			Similarity:   orphan.Similarity,
			AIScore:      orphan.AIScore,
			Verdict:      orphan.Verdict,
			EvidenceRef:  orphan.EvidenceRef,
		})
	}

	return verdicts, nil
}

func (s *integrityService) storeOrphan(ctx context.Context, verdict IntegrityVerdict) error {
	orphan := models.OrphanIntegrityResult{
		SubmissionID: verdict.SubmissionID,
		ContestID:    verdict.ContestID,
		UserID:       verdict.UserID,
		ProblemID:    verdict.ProblemID,
		Similarity:   verdict.Similarity,
		AIScore:      verdict.AIScore,
		Verdict:      verdict.Verdict,
		EvidenceRef:  verdict.EvidenceRef,
		Payload:      verdict.Raw,
	}

	if err := s.orphans.SaveOrphan(ctx, &orphan); err != nil {
		return err
	}

	observability.IntegrityWebhooks().WithLabelValues("orphaned").Inc()

	s.logger.Info().
		Uint("contest_id", verdict.ContestID).
		Uint("user_id", verdict.UserID).
		Str("submission_id", verdict.SubmissionID).
		Msg("integrity verdict stored for later merge")

	return nil
}

// mergeVerdictInto applies one verdict to a result's integrity report.
// Per-problem entries are upserted, aggregates are max-monotonic and the
// aggregate verdict only escalates. FlaggedCount increments at most once per
// submission id so webhook re-delivery cannot double-count.
func mergeVerdictInto(result *models.FinalResult, verdict IntegrityVerdict) {
	report := &result.IntegrityReport
	if report.Problems == nil {
		report.Problems = make(map[string]models.ProblemIntegrity)
	}
	if report.CountedSubmissions == nil {
		report.CountedSubmissions = make(map[string]bool)
	}
	if report.Verdict == "" {
		report.Verdict = models.IntegrityVerdictClean
	}

	key := strconv.FormatUint(uint64(verdict.ProblemID), 10)
	report.Problems[key] = models.ProblemIntegrity{
		SubmissionID: verdict.SubmissionID,
		Similarity:   verdict.Similarity,
		AIScore:      verdict.AIScore,
		Verdict:      verdict.Verdict,
		EvidenceRef:  verdict.EvidenceRef,
	}

	if verdict.Similarity > report.MaxSimilarity {
		report.MaxSimilarity = verdict.Similarity
	}
	if verdict.AIScore > report.MaxAIScore {
		report.MaxAIScore = verdict.AIScore
	}

	if verdict.Verdict != models.IntegrityVerdictClean && !report.CountedSubmissions[verdict.SubmissionID] {
		report.FlaggedCount++
		report.CountedSubmissions[verdict.SubmissionID] = true
	}

	report.Verdict = models.EscalateIntegrityVerdict(report.Verdict, verdict.Verdict)
}
