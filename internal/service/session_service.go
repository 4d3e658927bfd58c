package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/arena-go-api/internal/dto"
	"github.com/noah-isme/arena-go-api/internal/models"
	"github.com/noah-isme/arena-go-api/internal/repository"
)

// ErrOutsideWindow indicates the contest entry window is closed.
var ErrOutsideWindow = errors.New("contest window is closed")

// ErrTimeExpired indicates the contestant's time budget ran out.
var ErrTimeExpired = errors.New("session time expired")

// ErrAlreadyCompleted indicates the contestant already finished their attempt.
var ErrAlreadyCompleted = errors.New("attempt already completed")

// ErrNoActiveSession indicates no session exists to operate on.
var ErrNoActiveSession = errors.New("no active session")

// SessionService governs the start/resume/finish/expire lifecycle of a
// contestant's single timed attempt per contest.
type SessionService interface {
	Start(ctx context.Context, contestID, userID uint, payload dto.StartSessionRequest) (dto.StartSessionResponse, error)
	Finish(ctx context.Context, contestID, userID uint) (models.Session, error)
	Timer(ctx context.Context, contestID, userID uint) (dto.TimerResponse, error)
	// Current returns the contestant's most recent session in any state;
	// ErrNoActiveSession when none exists.
	Current(ctx context.Context, contestID, userID uint) (models.Session, error)
	// FinalizeSession closes the active session at finalize time, reclassifying
	// it to expired with a clamped duration when the budget is exhausted. A
	// session that is already terminal is returned unchanged.
	FinalizeSession(ctx context.Context, contest models.Contest, userID uint) (models.Session, error)
}

type sessionService struct {
	sessions repository.SessionRepository
	contests *ContestLoader
	logger   zerolog.Logger
	now      func() time.Time
}

// NewSessionService constructs a SessionService instance.
func NewSessionService(sessionRepo repository.SessionRepository, contests *ContestLoader, logger zerolog.Logger) SessionService {
	return &sessionService{
		sessions: sessionRepo,
		contests: contests,
		logger:   logger.With().Str("component", "session_service").Logger(),
		now:      time.Now,
	}
}

func (s *sessionService) Start(ctx context.Context, contestID, userID uint, payload dto.StartSessionRequest) (dto.StartSessionResponse, error) {
	now := s.now()

	contest, err := s.contests.Get(ctx, contestID)
	if err != nil {
		return dto.StartSessionResponse{}, err
	}

	if !contest.WindowContains(now) {
		return dto.StartSessionResponse{}, ErrOutsideWindow
	}

	active, err := s.sessions.GetActive(ctx, contestID, userID)
	if err == nil {
		status := ComputeTimerStatus(contest.DurationSeconds(), &active, now)
		if status.HasExpired {
			if err := s.expire(ctx, &active, contest); err != nil {
				return dto.StartSessionResponse{}, err
			}
			return dto.StartSessionResponse{}, ErrTimeExpired
		}

		return dto.NewStartSessionResponse(active, *status.ExpiresAt, status.RemainingSeconds, true), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.StartSessionResponse{}, err
	}

	latest, err := s.sessions.GetLatest(ctx, contestID, userID)
	if err == nil && latest.IsTerminal() {
		if latest.Status == models.SessionStatusExpired {
			return dto.StartSessionResponse{}, ErrTimeExpired
		}
		return dto.StartSessionResponse{}, ErrAlreadyCompleted
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.StartSessionResponse{}, err
	}

	// The declared start is advisory; a value in the future would shift the
	// attempt window past the contest end, so it is clamped to the server clock.
	startedAt := now
	if payload.StartedAt != nil && !payload.StartedAt.IsZero() && payload.StartedAt.Before(now) {
		startedAt = *payload.StartedAt
	}

	session := models.Session{
		ContestID: contestID,
		UserID:    userID,
		StartedAt: startedAt,
		Status:    models.SessionStatusActive,
	}
	if err := s.sessions.Create(ctx, &session); err != nil {
		return dto.StartSessionResponse{}, err
	}

	s.logger.Info().
		Uint("contest_id", contestID).
		Uint("user_id", userID).
		Time("started_at", startedAt).
		Msg("session started")

	status := ComputeTimerStatus(contest.DurationSeconds(), &session, now)
	return dto.NewStartSessionResponse(session, *status.ExpiresAt, status.RemainingSeconds, false), nil
}

func (s *sessionService) Finish(ctx context.Context, contestID, userID uint) (models.Session, error) {
	now := s.now()

	active, err := s.sessions.GetActive(ctx, contestID, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Session{}, err
		}

		latest, latestErr := s.sessions.GetLatest(ctx, contestID, userID)
		if latestErr == nil && latest.Status == models.SessionStatusFinished {
			return latest, nil
		}
		return models.Session{}, ErrNoActiveSession
	}

	elapsed := int(now.Sub(active.StartedAt).Seconds())
	if elapsed < 0 {
		elapsed = 0
	}

	active.Status = models.SessionStatusFinished
	active.FinishedAt = &now
	active.DurationSeconds = &elapsed

	if err := s.sessions.Update(ctx, &active); err != nil {
		return models.Session{}, err
	}

	return active, nil
}

func (s *sessionService) Timer(ctx context.Context, contestID, userID uint) (dto.TimerResponse, error) {
	contest, err := s.contests.Get(ctx, contestID)
	if err != nil {
		return dto.TimerResponse{}, err
	}

	var session *models.Session
	latest, err := s.sessions.GetLatest(ctx, contestID, userID)
	if err == nil {
		session = &latest
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.TimerResponse{}, err
	}

	status := ComputeTimerStatus(contest.DurationSeconds(), session, s.now())

	sessionStatus := ""
	if session != nil {
		sessionStatus = session.Status
	}

	return dto.TimerResponse{
		HasStarted:       status.HasStarted,
		HasExpired:       status.HasExpired,
		RemainingSeconds: status.RemainingSeconds,
		ElapsedSeconds:   status.ElapsedSeconds,
		SessionStatus:    sessionStatus,
		DurationMinutes:  contest.DurationMinutes,
	}, nil
}

func (s *sessionService) Current(ctx context.Context, contestID, userID uint) (models.Session, error) {
	session, err := s.sessions.GetLatest(ctx, contestID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Session{}, ErrNoActiveSession
		}
		return models.Session{}, err
	}

	return session, nil
}

// FinalizeSession closes the attempt with the server clock as the only source
// of truth: if the budget is exhausted the session is reclassified to expired
// and its duration clamped to the allocation, regardless of what the client
// reported or when the call arrived.
func (s *sessionService) FinalizeSession(ctx context.Context, contest models.Contest, userID uint) (models.Session, error) {
	now := s.now()

	active, err := s.sessions.GetActive(ctx, contest.ID, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Session{}, err
		}

		latest, latestErr := s.sessions.GetLatest(ctx, contest.ID, userID)
		if latestErr == nil && latest.IsTerminal() {
			return latest, nil
		}
		return models.Session{}, ErrNoActiveSession
	}

	status := ComputeTimerStatus(contest.DurationSeconds(), &active, now)
	if status.HasExpired {
		if err := s.expire(ctx, &active, contest); err != nil {
			return models.Session{}, err
		}
		return active, nil
	}

	elapsed := status.ElapsedSeconds
	active.Status = models.SessionStatusFinished
	active.FinishedAt = &now
	active.DurationSeconds = &elapsed

	if err := s.sessions.Update(ctx, &active); err != nil {
		return models.Session{}, err
	}

	return active, nil
}

func (s *sessionService) expire(ctx context.Context, session *models.Session, contest models.Contest) error {
	allocated := contest.DurationSeconds()
	expiresAt := session.StartedAt.Add(time.Duration(allocated) * time.Second)

	session.Status = models.SessionStatusExpired
	session.FinishedAt = &expiresAt
	session.DurationSeconds = &allocated

	if err := s.sessions.Update(ctx, session); err != nil {
		return err
	}

	s.logger.Info().
		Uint("contest_id", session.ContestID).
		Uint("user_id", session.UserID).
		Time("expired_at", expiresAt).
		Msg("session expired")

	return nil
}
