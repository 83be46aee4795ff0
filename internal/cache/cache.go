package cache

import (
	"context"
	"time"

	"smartquote/backend/internal/domain"
)

// RankingCache stores computed rankings by key. Get may return shared backing
// memory; the ranking engine copies candidates before handing them to callers.
type RankingCache interface {
	Get(ctx context.Context, key string) ([]domain.RankedCandidate, bool, error)
	Set(ctx context.Context, key string, value []domain.RankedCandidate, ttl time.Duration) error
}

type NoopRankingCache struct{}

func (NoopRankingCache) Get(_ context.Context, _ string) ([]domain.RankedCandidate, bool, error) {
	return nil, false, nil
}

func (NoopRankingCache) Set(_ context.Context, _ string, _ []domain.RankedCandidate, _ time.Duration) error {
	return nil
}
