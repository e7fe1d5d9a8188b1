package service

import (
	"context"
	"errors"
	"fmt"

	"pharmapos/backend/internal/analysis"
	"pharmapos/backend/internal/domain"
	"pharmapos/backend/internal/store"
)

var ErrAnalysisUnavailable = errors.New("image analysis is not configured")

// AnalyzeImages does not take the session lock.
func (s *Service) AnalyzeImages(ctx context.Context, front analysis.Image, back *analysis.Image) (domain.AnalysisPrefill, error) {
	if s.analyzer == nil {
		return domain.AnalysisPrefill{}, ErrAnalysisUnavailable
	}
	if len(front.Data) == 0 {
		return domain.AnalysisPrefill{}, fmt.Errorf("%w: front image is required", store.ErrInvalidInput)
	}

	result, cached, err := s.analyzer.Analyze(ctx, front, back)
	if err != nil {
		return domain.AnalysisPrefill{}, err
	}
	return domain.AnalysisPrefill{
		Form:      result.Prefill(),
		Generated: result.Generated(),
		Cached:    cached,
	}, nil
}
