package postgres

import (
	"context"
	"errors"
	"fmt"

	"abpulse/domain"

	"gorm.io/gorm"
)

type VariantRepository struct {
	DB *gorm.DB
}

func NewVariantRepository(db *gorm.DB) *VariantRepository {
	return &VariantRepository{
		DB: db,
	}
}

func (r *VariantRepository) Create(ctx context.Context, variant *domain.Variant) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Create(variant).Error; err != nil {
		return fmt.Errorf("failed to create variant: %w", err)
	}

	return nil
}

func (r *VariantRepository) FindByID(ctx context.Context, id uint) (domain.Variant, error) {
	if err := ctx.Err(); err != nil {
		return domain.Variant{}, fmt.Errorf("context error: %w", err)
	}

	var variant domain.Variant

	err := r.DB.WithContext(ctx).First(&variant, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Variant{}, fmt.Errorf("%w: variant %d", domain.ErrNotFound, id)
		}
		return domain.Variant{}, fmt.Errorf("failed to find variant: %w", err)
	}

	return variant, nil
}

func (r *VariantRepository) FindByTest(ctx context.Context, testID uint) ([]domain.Variant, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var variants []domain.Variant
	err := r.DB.WithContext(ctx).
		Where("test_id = ?", testID).
		Order("is_control DESC, id ASC").
		Find(&variants).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find variants: %w", err)
	}

	return variants, nil
}

func (r *VariantRepository) Update(ctx context.Context, variant *domain.Variant) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	// Counters are only ever touched by the increment methods.
	updateData := map[string]interface{}{
		"name":       variant.Name,
		"is_control": variant.IsControl,
		"content":    variant.Content,
	}

	result := r.DB.WithContext(ctx).Model(&domain.Variant{}).Where("id = ?", variant.ID).Updates(updateData)
	if result.Error != nil {
		return fmt.Errorf("failed to update variant: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: variant %d", domain.ErrNotFound, variant.ID)
	}

	return nil
}

func (r *VariantRepository) ClearControl(ctx context.Context, testID uint, exceptID uint) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	err := r.DB.WithContext(ctx).Model(&domain.Variant{}).
		Where("test_id = ? AND id <> ?", testID, exceptID).
		Update("is_control", false).Error
	if err != nil {
		return fmt.Errorf("failed to clear control flag: %w", err)
	}

	return nil
}

func (r *VariantRepository) Delete(ctx context.Context, id uint) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	result := r.DB.WithContext(ctx).Delete(&domain.Variant{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete variant: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: variant %d", domain.ErrNotFound, id)
	}

	return nil
}

// IncrementImpressions bumps the counter and recomputes the conversion rate
// in a single UPDATE, so concurrent recorder calls serialize on the row and
// never lose updates. All expressions read the pre-update column values.
func (r *VariantRepository) IncrementImpressions(ctx context.Context, id uint) (domain.Variant, error) {
	if err := ctx.Err(); err != nil {
		return domain.Variant{}, fmt.Errorf("context error: %w", err)
	}

	result := r.DB.WithContext(ctx).Model(&domain.Variant{}).Where("id = ?", id).Updates(map[string]interface{}{
		"impressions":     gorm.Expr("impressions + 1"),
		"conversion_rate": gorm.Expr("conversions * 100.0 / (impressions + 1)"),
	})
	if result.Error != nil {
		return domain.Variant{}, fmt.Errorf("failed to increment impressions: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.Variant{}, fmt.Errorf("%w: variant %d", domain.ErrNotFound, id)
	}

	return r.FindByID(ctx, id)
}

func (r *VariantRepository) IncrementConversions(ctx context.Context, id uint) (domain.Variant, error) {
	if err := ctx.Err(); err != nil {
		return domain.Variant{}, fmt.Errorf("context error: %w", err)
	}

	result := r.DB.WithContext(ctx).Model(&domain.Variant{}).Where("id = ?", id).Updates(map[string]interface{}{
		"conversions":     gorm.Expr("conversions + 1"),
		"conversion_rate": gorm.Expr("COALESCE((conversions + 1) * 100.0 / NULLIF(impressions, 0), 0)"),
	})
	if result.Error != nil {
		return domain.Variant{}, fmt.Errorf("failed to increment conversions: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.Variant{}, fmt.Errorf("%w: variant %d", domain.ErrNotFound, id)
	}

	return r.FindByID(ctx, id)
}
