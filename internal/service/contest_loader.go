package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/arena-go-api/internal/models"
	"github.com/noah-isme/arena-go-api/internal/repository"
)

// ErrContestNotFound indicates the contest does not exist.
var ErrContestNotFound = errors.New("contest not found")

// ContestLoader serves contests with their problem sets, caching them in
// redis since the timer and finalize paths hit the same rows repeatedly and
// the problem set is fixed for the contest's lifetime.
type ContestLoader struct {
	contests repository.ContestRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// NewContestLoader builds the loader; cache may be nil.
func NewContestLoader(contests repository.ContestRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) *ContestLoader {
	return &ContestLoader{
		contests: contests,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "contest_loader").Logger(),
	}
}

// Get loads a contest by id, preferring the cache.
func (l *ContestLoader) Get(ctx context.Context, id uint) (models.Contest, error) {
	cacheKey := fmt.Sprintf("contest:%d", id)

	if l.cache != nil {
		if cached, err := l.cache.Get(ctx, cacheKey).Result(); err == nil {
			var contest models.Contest
			if unmarshalErr := json.Unmarshal([]byte(cached), &contest); unmarshalErr == nil {
				l.logger.Debug().Uint("contest_id", id).Msg("contest cache hit")
				return contest, nil
			}
		} else if err != redis.Nil {
			l.logger.Warn().Err(err).Msg("failed to read contest cache")
		}
	}

	contest, err := l.contests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Contest{}, ErrContestNotFound
		}
		return models.Contest{}, err
	}

	if l.cache != nil {
		if payload, err := json.Marshal(contest); err == nil {
			if err := l.cache.Set(ctx, cacheKey, payload, l.cacheTTL).Err(); err != nil {
				l.logger.Warn().Err(err).Msg("failed to store contest cache")
			}
		}
	}

	return contest, nil
}
