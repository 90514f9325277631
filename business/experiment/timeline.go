package experiment

import (
	"context"
	"fmt"
	"sort"
	"time"

	"abpulse/domain"
)

const dayLayout = "2006-01-02"

// Timeline buckets the test's hits into (UTC day, variant) points for trend
// charts, bounded by the test's start/end timestamps when present. The series
// is rebuilt from the raw hits on every call.
func (s *Service) Timeline(ctx context.Context, test *domain.Test) ([]domain.TimelinePoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	hits, err := s.hitRepo.FindByTest(ctx, test.ID, test.StartedAt, test.EndedAt)
	if err != nil {
		return nil, err
	}

	return buildTimeline(hits, test.StartedAt, test.EndedAt), nil
}

func buildTimeline(hits []domain.Hit, from, to *time.Time) []domain.TimelinePoint {
	type bucketKey struct {
		date      string
		variantID uint
	}

	buckets := make(map[bucketKey]*domain.TimelinePoint)

	for i := range hits {
		hit := &hits[i]
		if from != nil && hit.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && hit.CreatedAt.After(*to) {
			continue
		}

		key := bucketKey{
			date:      hit.CreatedAt.UTC().Format(dayLayout),
			variantID: hit.VariantID,
		}

		point, ok := buckets[key]
		if !ok {
			point = &domain.TimelinePoint{Date: key.date, VariantID: key.variantID}
			buckets[key] = point
		}

		point.Impressions++
		if hit.Converted {
			point.Conversions++
		}
	}

	timeline := make([]domain.TimelinePoint, 0, len(buckets))
	for _, point := range buckets {
		timeline = append(timeline, *point)
	}

	sort.Slice(timeline, func(i, j int) bool {
		if timeline[i].Date != timeline[j].Date {
			return timeline[i].Date < timeline[j].Date
		}
		return timeline[i].VariantID < timeline[j].VariantID
	})

	return timeline
}
