package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/arena-go-api/internal/dto"
	"github.com/noah-isme/arena-go-api/internal/models"
)

func TestApplyPenaltyRecomputesFinalScore(t *testing.T) {
	results := newMemoryResultRepo()
	require.NoError(t, results.Create(context.Background(), &models.FinalResult{
		ContestID:                 1,
		UserID:                    42,
		BaseScore:                 10,
		FinalScore:                10,
		SuggestedViolationPenalty: 4,
	}))

	svc := NewResultService(results, zerolog.Nop())

	resp, err := svc.ApplyPenalty(context.Background(), 1, 42, dto.ApplyPenaltyRequest{Penalty: 4})
	require.NoError(t, err)
	require.Equal(t, 10, resp.BaseScore)
	require.Equal(t, 4, resp.AppliedViolationPenalty)
	require.Equal(t, 6, resp.FinalScore)
}

func TestApplyPenaltyFloorsAtZero(t *testing.T) {
	results := newMemoryResultRepo()
	require.NoError(t, results.Create(context.Background(), &models.FinalResult{
		ContestID:  1,
		UserID:     42,
		BaseScore:  3,
		FinalScore: 3,
	}))

	svc := NewResultService(results, zerolog.Nop())

	resp, err := svc.ApplyPenalty(context.Background(), 1, 42, dto.ApplyPenaltyRequest{Penalty: 7})
	require.NoError(t, err)
	require.Zero(t, resp.FinalScore)
}

func TestApplyPenaltyWithoutResult(t *testing.T) {
	svc := NewResultService(newMemoryResultRepo(), zerolog.Nop())

	_, err := svc.ApplyPenalty(context.Background(), 1, 42, dto.ApplyPenaltyRequest{Penalty: 1})
	require.ErrorIs(t, err, ErrResultNotFound)
}
