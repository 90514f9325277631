package experiment

import (
	"context"
	"fmt"

	"abpulse/domain"
	"abpulse/pkg/logger"
)

// Results recomputes the full snapshot for a test from its current variants
// and hits. Nothing is cached between calls.
//
// The confidence score is a deliberate heuristic rather than a rigorous
// two-proportion test: sampleSizeFactor * improvementFactor * 100, where
// sampleSizeFactor is progress toward the target sample size (capped at 1)
// and improvementFactor saturates at a 10% lift over control. The rigorous
// z-test is reported per variant as Significance alongside it.
func (s *Service) Results(ctx context.Context, testID uint) (*domain.TestResults, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	test, err := s.testRepo.FindByID(ctx, testID)
	if err != nil {
		return nil, err
	}

	variants, err := s.variantRepo.FindByTest(ctx, testID)
	if err != nil {
		logger.Error("Failed to load variants for results", err)
		return nil, err
	}

	results := &domain.TestResults{
		TestID:   testID,
		Variants: []domain.VariantResult{},
		Timeline: []domain.TimelinePoint{},
	}

	if len(variants) == 0 {
		return results, nil
	}

	var control *domain.Variant
	for i := range variants {
		results.TotalImpressions += variants[i].Impressions
		results.TotalConversions += variants[i].Conversions
		if variants[i].IsControl && control == nil {
			control = &variants[i]
		}
	}
	if results.TotalImpressions > 0 {
		results.AverageConversionRate = float64(results.TotalConversions) / float64(results.TotalImpressions) * 100
	}

	controlRate := 0.0
	if control != nil {
		controlRate = control.ConversionRate
	}

	// Best challenger: strictly highest conversion rate among non-control
	// variants. Control-first ordering means ties resolve to the lowest ID.
	bestIdx := -1

	for i := range variants {
		v := variants[i]
		vr := domain.VariantResult{Variant: v}

		if !v.IsControl && controlRate > 0 {
			improvement := (v.ConversionRate - controlRate) / controlRate * 100
			vr.Improvement = &improvement
		}
		if !v.IsControl && control != nil {
			vr.Significance = pairwiseConfidence(v.Conversions, v.Impressions, control.Conversions, control.Impressions) * 100
		}
		vr.RateLowerBound, vr.RateUpperBound = wilsonInterval(v.Conversions, v.Impressions, 0.95)

		results.Variants = append(results.Variants, vr)

		if !v.IsControl && (bestIdx < 0 || vr.ConversionRate > results.Variants[bestIdx].ConversionRate) {
			bestIdx = len(results.Variants) - 1
		}
	}

	var best *domain.VariantResult
	if bestIdx >= 0 {
		best = &results.Variants[bestIdx]
	}

	if control != nil && best != nil && best.Improvement != nil && *best.Improvement > 0 {
		sampleSizeFactor := float64(results.TotalImpressions) / float64(test.TargetSampleSize)
		if sampleSizeFactor > 1 {
			sampleSizeFactor = 1
		}
		improvementFactor := *best.Improvement / 10
		if improvementFactor > 1 {
			improvementFactor = 1
		}
		results.ConfidenceLevel = sampleSizeFactor * improvementFactor * 100

		if results.TotalImpressions >= int64(test.TargetSampleSize) && results.ConfidenceLevel >= test.MinConfidence {
			winnerID := best.ID
			results.WinnerVariantID = &winnerID
		}
	}

	timeline, err := s.Timeline(ctx, &test)
	if err != nil {
		return nil, err
	}
	results.Timeline = timeline

	return results, nil
}
