package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/arena-go-api/internal/models"
	"github.com/noah-isme/arena-go-api/pkg/integrity"
	"github.com/noah-isme/arena-go-api/pkg/judge"
	"github.com/noah-isme/arena-go-api/pkg/proctor"
)

type stubJudge struct {
	mu          sync.Mutex
	submissions map[uint][]judge.Submission
	errs        map[uint]error
}

func (s *stubJudge) ListSubmissions(ctx context.Context, userID, problemID, contestID uint, token string) ([]judge.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.errs[problemID]; ok {
		return nil, err
	}
	return s.submissions[problemID], nil
}

type stubAnalyzer struct {
	mu       sync.Mutex
	requests []integrity.AnalysisRequest
	err      error
}

func (s *stubAnalyzer) SubmitForAnalysis(ctx context.Context, req integrity.AnalysisRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	return s.err
}

func (s *stubAnalyzer) requestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

type stubProctor struct {
	suggestion proctor.PenaltySuggestion
	err        error
}

func (s *stubProctor) GetSuggestedPenalty(ctx context.Context, contestID, userID uint) (proctor.PenaltySuggestion, error) {
	if s.err != nil {
		return proctor.PenaltySuggestion{}, s.err
	}
	return s.suggestion, nil
}

type finalizeFixture struct {
	contest  models.Contest
	sessions *memorySessionRepo
	results  *memoryResultRepo
	orphans  *memoryOrphanRepo
	judge    *stubJudge
	analyzer *stubAnalyzer
	proctor  *stubProctor
	sink     *recordingSink
	svc      *finalizeService
}

func newFinalizeFixture(t *testing.T, now time.Time) *finalizeFixture {
	t.Helper()

	starts := now.Add(-3 * time.Hour)
	contest := models.Contest{
		ID:                1,
		Title:             "Qualifier Round",
		StartsAt:          starts,
		EndsAt:            starts.Add(12 * time.Hour),
		DurationMinutes:   60,
		ProctoringEnabled: true,
		Problems: []models.Problem{
			{ID: 10, ContestID: 1, Title: "Two Sum", Difficulty: models.DifficultyEasy, Position: 1},
			{ID: 11, ContestID: 1, Title: "Graph Paths", Difficulty: models.DifficultyHard, Position: 2},
		},
	}

	f := &finalizeFixture{
		contest:  contest,
		sessions: &memorySessionRepo{},
		results:  newMemoryResultRepo(),
		orphans:  &memoryOrphanRepo{},
		judge:    &stubJudge{submissions: map[uint][]judge.Submission{}, errs: map[uint]error{}},
		analyzer: &stubAnalyzer{},
		proctor:  &stubProctor{},
		sink:     &recordingSink{},
	}

	loader := NewContestLoader(&stubContestRepo{contest: contest}, nil, 0, zerolog.Nop())
	sessionSvc := NewSessionService(f.sessions, loader, zerolog.Nop()).(*sessionService)
	sessionSvc.now = func() time.Time { return now }
	integritySvc := NewIntegrityService(f.results, f.orphans, f.sink, zerolog.Nop())

	f.svc = NewFinalizeService(
		loader,
		sessionSvc,
		f.results,
		integritySvc,
		f.judge,
		f.analyzer,
		f.proctor,
		f.sink,
		zerolog.Nop(),
		FinalizeConfig{PollAttempts: 1, PollInterval: time.Millisecond, AnalysisTimeout: 100 * time.Millisecond},
	).(*finalizeService)
	f.svc.now = func() time.Time { return now }

	return f
}

func (f *finalizeFixture) startSession(t *testing.T, userID uint, startedAt time.Time) {
	t.Helper()
	require.NoError(t, f.sessions.Create(context.Background(), &models.Session{
		ContestID: f.contest.ID,
		UserID:    userID,
		StartedAt: startedAt,
		Status:    models.SessionStatusActive,
	}))
}

func TestSubmitAllFinalizesExpiredAttempt(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 5, 0, 0, time.UTC)
	f := newFinalizeFixture(t, now)

	// 60 minute budget, finalize arrives 65 minutes after the start.
	f.startSession(t, 42, now.Add(-65*time.Minute))

	f.judge.submissions[10] = []judge.Submission{
		{ID: "sub-1", Verdict: "accepted", PassedTests: 3, TotalTests: 3, Language: "go", SubmittedAt: now.Add(-70 * time.Minute)},
	}
	f.judge.submissions[11] = []judge.Submission{
		{ID: "sub-2", Verdict: "wrong_answer", PassedTests: 1, TotalTests: 5, Language: "go", SubmittedAt: now.Add(-80 * time.Minute)},
		{ID: "sub-3", Verdict: "wrong_answer", PassedTests: 2, TotalTests: 5, Language: "go", SubmittedAt: now.Add(-72 * time.Minute)},
	}
	f.proctor.suggestion = proctor.PenaltySuggestion{
		Score:        2,
		IsSuspicious: true,
		Details:      []string{"<b>tab</b> switching detected"},
	}

	resp, err := f.svc.SubmitAll(context.Background(), f.contest.ID, 42, "token")
	require.NoError(t, err)

	require.Equal(t, 3, resp.Scoring.TotalBaseScore)
	require.Equal(t, 3, resp.Scoring.FinalScore)
	require.Zero(t, resp.Scoring.ViolationPenalty)
	require.Equal(t, 2, resp.ViolationReport.SuggestedScore)
	require.True(t, resp.ViolationReport.IsSuspicious)
	require.Equal(t, []string{"tab switching detected"}, resp.ViolationReport.Details)

	require.Equal(t, 1, resp.TotalSolved)
	require.Equal(t, 2, resp.TotalProblems)
	require.Equal(t, 1, resp.Rank)

	require.True(t, resp.TimeMetrics.WasExpired)
	require.Equal(t, 3600, resp.TimeMetrics.UsedSeconds)
	require.Equal(t, 3600, resp.TimeMetrics.AllocatedSeconds)
	require.Equal(t, 100.0, resp.TimeMetrics.PercentageUsed)
	require.Equal(t, 3600, resp.Session.DurationSeconds)

	require.Len(t, resp.Results, 2)
	require.Equal(t, models.ProblemStatusAccepted, resp.Results[0].Status)
	require.Equal(t, "sub-1", resp.Results[0].SubmissionID)
	require.Equal(t, 3, resp.Results[0].BaseScore)
	require.Equal(t, models.ProblemStatusAttempted, resp.Results[1].Status)
	require.Equal(t, "sub-3", resp.Results[1].SubmissionID)
	require.Zero(t, resp.Results[1].BaseScore)

	require.Len(t, f.sink.eventsOfType("result.finalized"), 1)

	// Judged targets are handed to the analyzer asynchronously.
	require.Eventually(t, func() bool { return f.analyzer.requestCount() == 2 }, time.Second, 5*time.Millisecond)
}

func TestSubmitAllIsIdempotent(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	f := newFinalizeFixture(t, now)
	f.startSession(t, 42, now.Add(-30*time.Minute))
	f.judge.submissions[10] = []judge.Submission{
		{ID: "sub-1", Verdict: "accepted", PassedTests: 3, TotalTests: 3, SubmittedAt: now.Add(-20 * time.Minute)},
	}

	first, err := f.svc.SubmitAll(context.Background(), f.contest.ID, 42, "token")
	require.NoError(t, err)

	second, err := f.svc.SubmitAll(context.Background(), f.contest.ID, 42, "token")
	require.NoError(t, err)

	require.Equal(t, 1, f.results.creates)
	require.Equal(t, first.Scoring, second.Scoring)
	require.Equal(t, first.Session, second.Session)
	require.Equal(t, first.Results, second.Results)
	require.Equal(t, first.Rank, second.Rank)
}

func TestSubmitAllDegradesOnJudgeFailure(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	f := newFinalizeFixture(t, now)
	f.startSession(t, 42, now.Add(-30*time.Minute))
	f.judge.submissions[10] = []judge.Submission{
		{ID: "sub-1", Verdict: "accepted", PassedTests: 3, TotalTests: 3, SubmittedAt: now.Add(-20 * time.Minute)},
	}
	f.judge.errs[11] = errors.New("judge unavailable")

	resp, err := f.svc.SubmitAll(context.Background(), f.contest.ID, 42, "token")
	require.NoError(t, err)

	require.Equal(t, 3, resp.Scoring.TotalBaseScore)
	require.Equal(t, models.ProblemStatusAccepted, resp.Results[0].Status)
	require.Equal(t, models.ProblemStatusError, resp.Results[1].Status)
	require.Zero(t, resp.Results[1].BaseScore)
}

func TestSubmitAllSurvivesAnalyzerFailure(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	f := newFinalizeFixture(t, now)
	f.startSession(t, 42, now.Add(-30*time.Minute))
	f.judge.submissions[10] = []judge.Submission{
		{ID: "sub-1", Verdict: "accepted", PassedTests: 3, TotalTests: 3, SubmittedAt: now.Add(-20 * time.Minute)},
	}
	f.analyzer.err = errors.New("analyzer down")

	_, err := f.svc.SubmitAll(context.Background(), f.contest.ID, 42, "token")
	require.NoError(t, err)
}

func TestSubmitAllSurvivesProctorFailure(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	f := newFinalizeFixture(t, now)
	f.startSession(t, 42, now.Add(-30*time.Minute))
	f.judge.submissions[10] = []judge.Submission{
		{ID: "sub-1", Verdict: "accepted", PassedTests: 3, TotalTests: 3, SubmittedAt: now.Add(-20 * time.Minute)},
	}
	f.proctor.err = errors.New("monitoring unavailable")

	resp, err := f.svc.SubmitAll(context.Background(), f.contest.ID, 42, "token")
	require.NoError(t, err)
	require.Zero(t, resp.ViolationReport.SuggestedScore)
	require.Empty(t, resp.ViolationReport.Details)
}

func TestSubmitAllWithoutSession(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	f := newFinalizeFixture(t, now)

	_, err := f.svc.SubmitAll(context.Background(), f.contest.ID, 42, "token")
	require.ErrorIs(t, err, ErrNoActiveSession)
}

func TestSubmitAllMergesEarlyVerdicts(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	f := newFinalizeFixture(t, now)
	f.startSession(t, 42, now.Add(-30*time.Minute))
	f.judge.submissions[10] = []judge.Submission{
		{ID: "sub-1", Verdict: "accepted", PassedTests: 3, TotalTests: 3, SubmittedAt: now.Add(-20 * time.Minute)},
	}

	// A verdict delivered before finalization waits in the orphan store.
	require.NoError(t, f.orphans.SaveOrphan(context.Background(), &models.OrphanIntegrityResult{
		SubmissionID: "sub-1",
		ContestID:    f.contest.ID,
		UserID:       42,
		ProblemID:    10,
		Similarity:   93,
		Verdict:      models.IntegrityVerdictSuspicious,
	}))

	_, err := f.svc.SubmitAll(context.Background(), f.contest.ID, 42, "token")
	require.NoError(t, err)

	stored, err := f.results.GetByContestAndUser(context.Background(), f.contest.ID, 42)
	require.NoError(t, err)
	require.Equal(t, models.IntegrityVerdictSuspicious, stored.IntegrityReport.Verdict)
	require.Equal(t, 93.0, stored.IntegrityReport.MaxSimilarity)
	require.Equal(t, 1, stored.IntegrityReport.FlaggedCount)
	require.Empty(t, f.orphans.orphans)
}

func TestSubmitAllRanksAgainstExistingResults(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	f := newFinalizeFixture(t, now)
	f.startSession(t, 42, now.Add(-30*time.Minute))
	f.judge.submissions[10] = []judge.Submission{
		{ID: "sub-1", Verdict: "accepted", PassedTests: 3, TotalTests: 3, SubmittedAt: now.Add(-20 * time.Minute)},
	}

	// A competitor already finalized with a higher score.
	require.NoError(t, f.results.Create(context.Background(), &models.FinalResult{
		ContestID:       f.contest.ID,
		UserID:          7,
		FinalScore:      9,
		TotalSolved:     2,
		DurationSeconds: 1000,
	}))

	resp, err := f.svc.SubmitAll(context.Background(), f.contest.ID, 42, "token")
	require.NoError(t, err)
	require.Equal(t, 2, resp.Rank)
}

func TestSelectJudgingTargetPrefersRecentAccepted(t *testing.T) {
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	submissions := []judge.Submission{
		{ID: "old-accepted", PassedTests: 3, TotalTests: 3, SubmittedAt: base},
		{ID: "new-failed", PassedTests: 1, TotalTests: 3, SubmittedAt: base.Add(10 * time.Minute)},
		{ID: "new-accepted", PassedTests: 3, TotalTests: 3, SubmittedAt: base.Add(5 * time.Minute)},
	}

	require.Equal(t, "new-accepted", selectJudgingTarget(submissions).ID)
}

func TestSelectJudgingTargetFallsBackToMostRecent(t *testing.T) {
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	submissions := []judge.Submission{
		{ID: "first", PassedTests: 1, TotalTests: 3, SubmittedAt: base},
		{ID: "second", PassedTests: 2, TotalTests: 3, SubmittedAt: base.Add(time.Minute)},
	}

	require.Equal(t, "second", selectJudgingTarget(submissions).ID)
}
