package service

import (
	"context"

	"github.com/noah-isme/arena-go-api/internal/models"
	"github.com/noah-isme/arena-go-api/internal/repository"
)

// ComputeRank returns 1 plus the number of other finalized results in the
// contest that beat the candidate on (final score desc, solved desc, duration
// asc). Results equal on all three share the same rank number; no compaction
// is applied.
func ComputeRank(ctx context.Context, results repository.FinalResultRepository, candidate models.FinalResult) (int, error) {
	better, err := results.CountBetter(
		ctx,
		candidate.ContestID,
		candidate.UserID,
		candidate.FinalScore,
		candidate.TotalSolved,
		candidate.DurationSeconds,
	)
	if err != nil {
		return 0, err
	}

	return int(better) + 1, nil
}
