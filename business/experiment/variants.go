package experiment

import (
	"context"
	"fmt"

	"abpulse/domain"
	"abpulse/pkg/logger"
)

// CreateVariant inserts a new variant with zeroed counters. The first variant
// of a test always becomes the control; a later variant created with the
// control flag set takes the flag over from its siblings.
func (s *Service) CreateVariant(ctx context.Context, testID uint, variant *domain.Variant) (*domain.Variant, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	if variant.Name == "" {
		return nil, fmt.Errorf("%w: variant name is required", domain.ErrValidation)
	}

	if _, err := s.testRepo.FindByID(ctx, testID); err != nil {
		return nil, err
	}

	siblings, err := s.variantRepo.FindByTest(ctx, testID)
	if err != nil {
		logger.Error("Failed to load sibling variants", err)
		return nil, err
	}

	if len(siblings) == 0 {
		variant.IsControl = true
	} else if variant.IsControl {
		if err := s.variantRepo.ClearControl(ctx, testID, 0); err != nil {
			logger.Error("Failed to clear control flag", err)
			return nil, fmt.Errorf("failed to clear control flag: %w", err)
		}
	}

	variant.TestID = testID
	variant.Impressions = 0
	variant.Conversions = 0
	variant.ConversionRate = 0

	if err := s.variantRepo.Create(ctx, variant); err != nil {
		logger.Error("Failed to create variant", err)
		return nil, fmt.Errorf("failed to create variant: %w", err)
	}

	logger.Info("variant created", "test_id", testID, "variant_id", variant.ID, "is_control", variant.IsControl)

	return variant, nil
}

// UpdateVariant applies name/content changes and control promotion. Promoting
// a variant clears the flag on every sibling first, so exactly one control
// survives the call. Demoting the current control directly is rejected; the
// flag only moves by promoting another variant.
func (s *Service) UpdateVariant(ctx context.Context, testID, variantID uint, variant *domain.Variant) (*domain.Variant, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	if variant.Name == "" {
		return nil, fmt.Errorf("%w: variant name is required", domain.ErrValidation)
	}

	current, err := s.variantRepo.FindByID(ctx, variantID)
	if err != nil {
		return nil, err
	}
	if current.TestID != testID {
		return nil, fmt.Errorf("%w: variant %d does not belong to test %d", domain.ErrNotFound, variantID, testID)
	}

	if current.IsControl && !variant.IsControl {
		return nil, fmt.Errorf("%w: promote another variant to move the control flag", domain.ErrInvalidOperation)
	}

	if variant.IsControl && !current.IsControl {
		if err := s.variantRepo.ClearControl(ctx, testID, variantID); err != nil {
			logger.Error("Failed to clear control flag", err)
			return nil, fmt.Errorf("failed to clear control flag: %w", err)
		}
	}

	current.Name = variant.Name
	current.IsControl = variant.IsControl || current.IsControl
	current.Content = variant.Content

	if err := s.variantRepo.Update(ctx, &current); err != nil {
		logger.Error("Failed to update variant", err)
		return nil, fmt.Errorf("failed to update variant: %w", err)
	}

	return &current, nil
}

// DeleteVariant removes a variant. The control cannot be deleted while other
// variants remain; a replacement control has to be promoted first. Hits are
// left in place for historical reporting.
func (s *Service) DeleteVariant(ctx context.Context, testID, variantID uint) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	current, err := s.variantRepo.FindByID(ctx, variantID)
	if err != nil {
		return err
	}
	if current.TestID != testID {
		return fmt.Errorf("%w: variant %d does not belong to test %d", domain.ErrNotFound, variantID, testID)
	}

	if current.IsControl {
		siblings, err := s.variantRepo.FindByTest(ctx, testID)
		if err != nil {
			logger.Error("Failed to load sibling variants", err)
			return err
		}
		if len(siblings) > 1 {
			return fmt.Errorf("%w: cannot delete the control variant while other variants exist", domain.ErrInvalidOperation)
		}
	}

	if err := s.variantRepo.Delete(ctx, variantID); err != nil {
		logger.Error("Failed to delete variant", err)
		return fmt.Errorf("failed to delete variant: %w", err)
	}

	logger.Info("variant deleted", "test_id", testID, "variant_id", variantID)

	return nil
}

// ListVariants returns a test's variants ordered control-first.
func (s *Service) ListVariants(ctx context.Context, testID uint) ([]domain.Variant, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	if _, err := s.testRepo.FindByID(ctx, testID); err != nil {
		return nil, err
	}

	return s.variantRepo.FindByTest(ctx, testID)
}
