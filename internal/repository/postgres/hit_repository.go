package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"abpulse/domain"

	"gorm.io/gorm"
)

type HitRepository struct {
	DB *gorm.DB
}

func NewHitRepository(db *gorm.DB) *HitRepository {
	return &HitRepository{
		DB: db,
	}
}

func (r *HitRepository) Create(ctx context.Context, hit *domain.Hit) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Create(hit).Error; err != nil {
		return fmt.Errorf("failed to create hit: %w", err)
	}

	return nil
}

func (r *HitRepository) LatestOpenBySession(ctx context.Context, variantID uint, sessionID string) (domain.Hit, error) {
	if err := ctx.Err(); err != nil {
		return domain.Hit{}, fmt.Errorf("context error: %w", err)
	}

	var hit domain.Hit

	err := r.DB.WithContext(ctx).
		Where("variant_id = ? AND session_id = ? AND converted = ?", variantID, sessionID, false).
		Order("created_at DESC").
		First(&hit).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Hit{}, fmt.Errorf("%w: no open hit for variant %d session %s", domain.ErrNotFound, variantID, sessionID)
		}
		return domain.Hit{}, fmt.Errorf("failed to find open hit: %w", err)
	}

	return hit, nil
}

// MarkConverted flips the converted flag, conditional on it still being
// false. When two conversions race for the same session only the first
// UPDATE matches; the loser gets ErrNoMatchingImpression.
func (r *HitRepository) MarkConverted(ctx context.Context, hitID uint, conversionType string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	result := r.DB.WithContext(ctx).Model(&domain.Hit{}).
		Where("id = ? AND converted = ?", hitID, false).
		Updates(map[string]interface{}{
			"converted":       true,
			"conversion_type": conversionType,
			"converted_at":    at,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark hit converted: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: hit %d already converted", domain.ErrNoMatchingImpression, hitID)
	}

	return nil
}

func (r *HitRepository) FindByTest(ctx context.Context, testID uint, from, to *time.Time) ([]domain.Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	query := r.DB.WithContext(ctx).
		Joins("JOIN ab_variants ON ab_variants.id = ab_hits.variant_id").
		Where("ab_variants.test_id = ?", testID)

	if from != nil {
		query = query.Where("ab_hits.created_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("ab_hits.created_at <= ?", *to)
	}

	var hits []domain.Hit
	if err := query.Order("ab_hits.created_at ASC").Find(&hits).Error; err != nil {
		return nil, fmt.Errorf("failed to find hits: %w", err)
	}

	return hits, nil
}
