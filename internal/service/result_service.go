package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/arena-go-api/internal/dto"
	"github.com/noah-isme/arena-go-api/internal/models"
	"github.com/noah-isme/arena-go-api/internal/repository"
)

// ErrResultNotFound indicates no finalized result exists for the pair.
var ErrResultNotFound = errors.New("final result not found")

// ResultService covers organizer-side operations on finalized results.
type ResultService interface {
	// ApplyPenalty records the organizer's penalty decision and recomputes the
	// final score. This is the explicit, non-automatic step that follows the
	// suggestion captured at finalize time.
	ApplyPenalty(ctx context.Context, contestID, userID uint, payload dto.ApplyPenaltyRequest) (dto.PenaltyResponse, error)
}

type resultService struct {
	results repository.FinalResultRepository
	logger  zerolog.Logger
}

// NewResultService constructs a ResultService instance.
func NewResultService(results repository.FinalResultRepository, logger zerolog.Logger) ResultService {
	return &resultService{
		results: results,
		logger:  logger.With().Str("component", "result_service").Logger(),
	}
}

func (s *resultService) ApplyPenalty(ctx context.Context, contestID, userID uint, payload dto.ApplyPenaltyRequest) (dto.PenaltyResponse, error) {
	result, err := s.results.UpdateLocked(ctx, contestID, userID, func(result *models.FinalResult) error {
		result.AppliedViolationPenalty = payload.Penalty
		score := result.BaseScore - payload.Penalty
		if score < 0 {
			score = 0
		}
		result.FinalScore = score
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PenaltyResponse{}, ErrResultNotFound
		}
		return dto.PenaltyResponse{}, err
	}

	s.logger.Info().
		Uint("contest_id", contestID).
		Uint("user_id", userID).
		Int("penalty", payload.Penalty).
		Int("final_score", result.FinalScore).
		Msg("violation penalty applied")

	return dto.NewPenaltyResponse(result), nil
}
