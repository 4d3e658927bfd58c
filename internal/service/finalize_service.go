package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/arena-go-api/internal/dto"
	"github.com/noah-isme/arena-go-api/internal/models"
	"github.com/noah-isme/arena-go-api/internal/observability"
	"github.com/noah-isme/arena-go-api/internal/repository"
	"github.com/noah-isme/arena-go-api/pkg/integrity"
	"github.com/noah-isme/arena-go-api/pkg/judge"
	"github.com/noah-isme/arena-go-api/pkg/proctor"
)

// FinalizeConfig tunes the finalize pipeline.
type FinalizeConfig struct {
	// PollAttempts and PollInterval bound the wait for integrity verdicts that
	// already arrived; later deliveries merge out-of-band via the webhook.
	PollAttempts int
	PollInterval time.Duration
	// WebhookURL is where the analyzer should deliver verdicts.
	WebhookURL string
	// AnalysisTimeout bounds each fire-and-forget analyzer handoff.
	AnalysisTimeout time.Duration
}

func (c FinalizeConfig) withDefaults() FinalizeConfig {
	if c.PollAttempts <= 0 {
		c.PollAttempts = 5
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.AnalysisTimeout <= 0 {
		c.AnalysisTimeout = 15 * time.Second
	}
	return c
}

// FinalizeService is the one-shot finalization pipeline: it closes the
// session, collects and scores every problem attempt, records the violation
// penalty suggestion, persists the create-once result and ranks it.
type FinalizeService interface {
	SubmitAll(ctx context.Context, contestID, userID uint, judgeToken string) (dto.SubmitAllResponse, error)
}

type finalizeService struct {
	contests  *ContestLoader
	sessions  SessionService
	results   repository.FinalResultRepository
	integrity IntegrityService
	judge     judge.Client
	analyzer  integrity.Analyzer
	proctor   proctor.Client
	sink      NotificationSink
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
	cfg       FinalizeConfig
	now       func() time.Time
}

// NewFinalizeService constructs the finalization pipeline.
func NewFinalizeService(
	contests *ContestLoader,
	sessions SessionService,
	results repository.FinalResultRepository,
	integritySvc IntegrityService,
	judgeClient judge.Client,
	analyzer integrity.Analyzer,
	proctorClient proctor.Client,
	sink NotificationSink,
	logger zerolog.Logger,
	cfg FinalizeConfig,
) FinalizeService {
	return &finalizeService{
		contests:  contests,
		sessions:  sessions,
		results:   results,
		integrity: integritySvc,
		judge:     judgeClient,
		analyzer:  analyzer,
		proctor:   proctorClient,
		sink:      sink,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "finalize_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/arena-go-api/internal/service/finalize"),
		cfg:       cfg.withDefaults(),
		now:       time.Now,
	}
}

func (s *finalizeService) SubmitAll(ctx context.Context, contestID, userID uint, judgeToken string) (dto.SubmitAllResponse, error) {
	start := s.now()
	defer func() {
		observability.FinalizeDuration().Observe(s.now().Sub(start).Seconds())
	}()

	spanCtx, span := s.tracer.Start(ctx, "finalize.submit_all", trace.WithAttributes(
		attribute.Int64("contest_id", int64(contestID)),
		attribute.Int64("user_id", int64(userID)),
	))
	defer span.End()
	ctx = spanCtx

	contest, err := s.contests.Get(ctx, contestID)
	if err != nil {
		observability.FinalizeRequests().WithLabelValues("error").Inc()
		return dto.SubmitAllResponse{}, err
	}

	// Replay: once a result exists the call is a read, never a second write.
	if existing, err := s.results.GetByContestAndUser(ctx, contestID, userID); err == nil {
		if _, mergeErr := s.integrity.MergePending(ctx, contestID, userID); mergeErr != nil {
			s.logger.Warn().Err(mergeErr).Msg("failed to merge pending integrity verdicts on replay")
		}
		return s.respond(ctx, contest, existing, "replay")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		observability.FinalizeRequests().WithLabelValues("error").Inc()
		return dto.SubmitAllResponse{}, err
	}

	if _, err := s.sessions.Current(ctx, contestID, userID); err != nil {
		observability.FinalizeRequests().WithLabelValues("rejected").Inc()
		return dto.SubmitAllResponse{}, err
	}

	stats, baseScore, totalSolved := s.evaluateProblems(ctx, contest, userID, judgeToken)

	violation := s.suggestPenalty(ctx, contest, userID)

	session, err := s.sessions.FinalizeSession(ctx, contest, userID)
	if err != nil {
		observability.FinalizeRequests().WithLabelValues("rejected").Inc()
		return dto.SubmitAllResponse{}, err
	}
	observability.SessionTransitions().WithLabelValues(session.Status).Inc()

	result := s.buildResult(contest, session, userID, stats, baseScore, totalSolved, violation)

	s.pollIntegrity(ctx, &result)

	if err := s.results.Create(ctx, &result); err != nil {
		// A concurrent retry may have won the create; the stored row is the
		// one true result.
		if stored, getErr := s.results.GetByContestAndUser(ctx, contestID, userID); getErr == nil {
			return s.respond(ctx, contest, stored, "replay")
		}
		observability.FinalizeRequests().WithLabelValues("error").Inc()
		return dto.SubmitAllResponse{}, err
	}

	// Orphans merged in memory above are superseded by the persisted report;
	// drain the store so they are not double-merged later.
	if _, err := s.integrity.MergePending(ctx, contestID, userID); err != nil {
		s.logger.Warn().Err(err).Msg("failed to drain orphan integrity verdicts after persist")
	}

	s.sink.Notify(ctx, Event{
		Type:      "result.finalized",
		ContestID: contestID,
		UserID:    userID,
		Payload: map[string]any{
			"final_score":  result.FinalScore,
			"total_solved": result.TotalSolved,
			"was_expired":  result.TimeMetrics.WasExpired,
		},
	})

	return s.respond(ctx, contest, result, "finalized")
}

// evaluateProblems queries the judge per problem and scores the best target.
// Collaborator failures degrade the single problem to an error entry with
// score zero; they never abort the loop.
func (s *finalizeService) evaluateProblems(ctx context.Context, contest models.Contest, userID uint, judgeToken string) (models.ProblemStatsMap, int, int) {
	stats := make(models.ProblemStatsMap, len(contest.Problems))
	baseScore := 0
	totalSolved := 0

	for _, problem := range contest.Problems {
		key := strconv.FormatUint(uint64(problem.ID), 10)

		submissions, err := s.judge.ListSubmissions(ctx, userID, problem.ID, contest.ID, judgeToken)
		if err != nil {
			observability.CollaboratorErrors().WithLabelValues("judge").Inc()
			s.logger.Error().Err(err).
				Uint("problem_id", problem.ID).
				Msg("judge history fetch failed, degrading problem")
			stats[key] = models.ProblemStat{Status: models.ProblemStatusError, Verdict: "error"}
			continue
		}

		if len(submissions) == 0 {
			stats[key] = models.ProblemStat{Status: models.ProblemStatusNotAttempted}
			continue
		}

		target := selectJudgingTarget(submissions)
		score := Score(target.PassedTests, target.TotalTests, problem.Difficulty)

		status := models.ProblemStatusAttempted
		if target.Accepted() {
			status = models.ProblemStatusAccepted
			totalSolved++
		}
		baseScore += score

		stats[key] = models.ProblemStat{
			Score:        score,
			Verdict:      target.Verdict,
			TestsPassed:  target.PassedTests,
			TestsTotal:   target.TotalTests,
			Status:       status,
			SubmissionID: target.ID,
		}

		s.submitForAnalysis(ctx, contest.ID, userID, problem.ID, target)
	}

	return stats, baseScore, totalSolved
}

// selectJudgingTarget picks the most recent fully-accepted submission, or the
// most recent of any verdict when none was accepted.
func selectJudgingTarget(submissions []judge.Submission) judge.Submission {
	ordered := make([]judge.Submission, len(submissions))
	copy(ordered, submissions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SubmittedAt.After(ordered[j].SubmittedAt)
	})

	for _, submission := range ordered {
		if submission.Accepted() {
			return submission
		}
	}

	return ordered[0]
}

// submitForAnalysis hands the judged submission to the integrity analyzer on
// a detached goroutine. Failures feed logging only, never the caller.
func (s *finalizeService) submitForAnalysis(ctx context.Context, contestID, userID, problemID uint, target judge.Submission) {
	if s.analyzer == nil {
		return
	}

	detached := context.WithoutCancel(ctx)
	logger := s.logger.With().
		Uint("contest_id", contestID).
		Uint("problem_id", problemID).
		Str("submission_id", target.ID).
		Logger()

	go func() {
		analysisCtx, cancel := context.WithTimeout(detached, s.cfg.AnalysisTimeout)
		defer cancel()

		err := s.analyzer.SubmitForAnalysis(analysisCtx, integrity.AnalysisRequest{
			SubmissionID: target.ID,
			UserID:       userID,
			ContestID:    contestID,
			ProblemID:    problemID,
			Code:         target.Code,
			Language:     target.Language,
			WebhookURL:   s.cfg.WebhookURL,
		})
		if err != nil {
			observability.CollaboratorErrors().WithLabelValues("integrity").Inc()
			logger.Warn().Err(err).Msg("integrity analysis submission failed")
		}
	}()
}

func (s *finalizeService) suggestPenalty(ctx context.Context, contest models.Contest, userID uint) models.ViolationReport {
	if !contest.ProctoringEnabled || s.proctor == nil {
		return models.ViolationReport{}
	}

	suggestion, err := s.proctor.GetSuggestedPenalty(ctx, contest.ID, userID)
	if err != nil {
		observability.CollaboratorErrors().WithLabelValues("monitoring").Inc()
		s.logger.Warn().Err(err).Msg("penalty suggestion unavailable, defaulting to zero")
		return models.ViolationReport{}
	}

	details := make([]string, 0, len(suggestion.Details))
	for _, detail := range suggestion.Details {
		clean := s.sanitizer.Sanitize(detail)
		if clean != "" {
			details = append(details, clean)
		}
	}

	return models.ViolationReport{
		SuggestedScore: suggestion.Score,
		IsDistinct:     suggestion.IsDistinct,
		IsSuspicious:   suggestion.IsSuspicious,
		Details:        details,
	}
}

func (s *finalizeService) buildResult(contest models.Contest, session models.Session, userID uint, stats models.ProblemStatsMap, baseScore, totalSolved int, violation models.ViolationReport) models.FinalResult {
	allocated := contest.DurationSeconds()
	used := allocated
	if session.DurationSeconds != nil {
		used = *session.DurationSeconds
	}

	percentage := 0.0
	if allocated > 0 {
		percentage = float64(used) / float64(allocated) * 100
		if percentage > 100 {
			percentage = 100
		}
	}

	finishedAt := session.StartedAt
	if session.FinishedAt != nil {
		finishedAt = *session.FinishedAt
	}

	return models.FinalResult{
		ContestID:                 contest.ID,
		UserID:                    userID,
		BaseScore:                 baseScore,
		SuggestedViolationPenalty: violation.SuggestedScore,
		AppliedViolationPenalty:   0,
		// Penalty application is a deliberate organizer step, never automatic.
		FinalScore:      baseScore,
		TotalProblems:   len(contest.Problems),
		TotalSolved:     totalSolved,
		DurationSeconds: used,
		ProblemStats:    stats,
		TimeMetrics: models.TimeMetrics{
			UsedSeconds:      used,
			AllocatedSeconds: allocated,
			PercentageUsed:   percentage,
			WasExpired:       session.Status == models.SessionStatusExpired,
		},
		ViolationReport: violation,
		IntegrityReport: models.IntegrityReport{Verdict: models.IntegrityVerdictClean},
		StartedAt:       session.StartedAt,
		FinishedAt:      finishedAt,
	}
}

// pollIntegrity waits briefly for verdicts that already arrived and merges
// them into the result being built. The wait is bounded; later deliveries
// merge out-of-band through the webhook path.
func (s *finalizeService) pollIntegrity(ctx context.Context, result *models.FinalResult) {
	attempted := 0
	for _, stat := range result.ProblemStats {
		if stat.Status == models.ProblemStatusAccepted || stat.Status == models.ProblemStatusAttempted {
			attempted++
		}
	}
	if attempted == 0 {
		return
	}

	for attempt := 0; attempt < s.cfg.PollAttempts; attempt++ {
		orphans, err := s.integrity.PendingVerdicts(ctx, result.ContestID, result.UserID)
		if err != nil {
			s.logger.Warn().Err(err).Msg("integrity poll failed")
			return
		}

		for _, verdict := range orphans {
			mergeVerdictInto(result, verdict)
		}

		if len(result.IntegrityReport.Problems) >= attempted {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.cfg.PollInterval):
		}
	}
}

func (s *finalizeService) respond(ctx context.Context, contest models.Contest, result models.FinalResult, outcome string) (dto.SubmitAllResponse, error) {
	// Replays re-read the stored row so out-of-band merges show up.
	if outcome == "replay" {
		if stored, err := s.results.GetByContestAndUser(ctx, contest.ID, result.UserID); err == nil {
			result = stored
		}
	}

	rank, err := ComputeRank(ctx, s.results, result)
	if err != nil {
		observability.FinalizeRequests().WithLabelValues("error").Inc()
		return dto.SubmitAllResponse{}, err
	}

	observability.FinalizeRequests().WithLabelValues(outcome).Inc()

	s.logger.Info().
		Uint("contest_id", contest.ID).
		Uint("user_id", result.UserID).
		Int("final_score", result.FinalScore).
		Int("rank", rank).
		Str("outcome", outcome).
		Msg("finalize completed")

	return dto.NewSubmitAllResponse(result, contest.Problems, rank), nil
}
