package cache

import (
	"context"
	"time"

	"pharmapos/backend/internal/domain"
)

// AnalysisCache remembers image analysis results keyed by image digest.
type AnalysisCache interface {
	Get(ctx context.Context, key string) (*domain.ImageAnalysis, bool, error)
	Set(ctx context.Context, key string, value *domain.ImageAnalysis, ttl time.Duration) error
}

type NoopAnalysisCache struct{}

func (NoopAnalysisCache) Get(_ context.Context, _ string) (*domain.ImageAnalysis, bool, error) {
	return nil, false, nil
}

func (NoopAnalysisCache) Set(_ context.Context, _ string, _ *domain.ImageAnalysis, _ time.Duration) error {
	return nil
}
