package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"abpulse/domain"

	"gorm.io/gorm"
)

type TestRepository struct {
	DB *gorm.DB
}

func NewTestRepository(db *gorm.DB) *TestRepository {
	return &TestRepository{
		DB: db,
	}
}

func (r *TestRepository) Create(ctx context.Context, test *domain.Test) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Create(test).Error; err != nil {
		return fmt.Errorf("failed to create test: %w", err)
	}

	return nil
}

func (r *TestRepository) FindByID(ctx context.Context, id uint) (domain.Test, error) {
	if err := ctx.Err(); err != nil {
		return domain.Test{}, fmt.Errorf("context error: %w", err)
	}

	var test domain.Test

	err := r.DB.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_control DESC, id ASC")
		}).
		First(&test, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Test{}, fmt.Errorf("%w: test %d", domain.ErrNotFound, id)
		}
		return domain.Test{}, fmt.Errorf("failed to find test: %w", err)
	}

	return test, nil
}

func (r *TestRepository) FindAll(ctx context.Context) ([]domain.Test, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var tests []domain.Test
	err := r.DB.WithContext(ctx).Order("created_at DESC").Find(&tests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find tests: %w", err)
	}

	return tests, nil
}

func (r *TestRepository) Update(ctx context.Context, test *domain.Test) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	updateData := map[string]interface{}{
		"name":               test.Name,
		"test_type":          test.Type,
		"target_url":         test.TargetURL,
		"conversion_metric":  test.ConversionMetric,
		"target_sample_size": test.TargetSampleSize,
		"min_confidence":     test.MinConfidence,
	}

	result := r.DB.WithContext(ctx).Model(&domain.Test{}).Where("id = ?", test.ID).Updates(updateData)
	if result.Error != nil {
		return fmt.Errorf("failed to update test: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: test %d", domain.ErrNotFound, test.ID)
	}

	return nil
}

func (r *TestRepository) UpdateStatus(ctx context.Context, id uint, status domain.TestStatus, startedAt, endedAt *time.Time) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	result := r.DB.WithContext(ctx).Model(&domain.Test{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     status,
		"started_at": startedAt,
		"ended_at":   endedAt,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update test status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: test %d", domain.ErrNotFound, id)
	}

	return nil
}

// Delete removes the test and cascades to its variants and their hits in one
// transaction.
func (r *TestRepository) Delete(ctx context.Context, id uint) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		variantIDs := tx.Model(&domain.Variant{}).Select("id").Where("test_id = ?", id)

		if err := tx.Where("variant_id IN (?)", variantIDs).Delete(&domain.Hit{}).Error; err != nil {
			return fmt.Errorf("failed to delete hits: %w", err)
		}

		if err := tx.Where("test_id = ?", id).Delete(&domain.Variant{}).Error; err != nil {
			return fmt.Errorf("failed to delete variants: %w", err)
		}

		result := tx.Delete(&domain.Test{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete test: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: test %d", domain.ErrNotFound, id)
		}

		return nil
	})
}
