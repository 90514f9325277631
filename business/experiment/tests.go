package experiment

import (
	"context"
	"fmt"
	"time"

	"abpulse/domain"
	"abpulse/pkg/logger"
)

var testTypes = map[domain.TestType]bool{
	domain.TestTypeLanding:  true,
	domain.TestTypeCTA:      true,
	domain.TestTypeHeadline: true,
	domain.TestTypeImage:    true,
	domain.TestTypeContent:  true,
	domain.TestTypeLayout:   true,
	domain.TestTypeColor:    true,
	domain.TestTypeCustom:   true,
}

// transitions is the full set of permitted status changes. Anything not in
// this table is rejected with domain.ErrInvalidTransition.
var transitions = map[domain.TestStatus][]domain.TestStatus{
	domain.StatusDraft:     {domain.StatusRunning},
	domain.StatusRunning:   {domain.StatusPaused, domain.StatusCompleted},
	domain.StatusPaused:    {domain.StatusRunning, domain.StatusCompleted},
	domain.StatusCompleted: {domain.StatusDraft},
}

func transitionAllowed(from, to domain.TestStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func validateTest(test *domain.Test) error {
	if test.Name == "" {
		return fmt.Errorf("%w: test name is required", domain.ErrValidation)
	}
	if !testTypes[test.Type] {
		return fmt.Errorf("%w: unknown test type %q", domain.ErrValidation, test.Type)
	}
	if test.TargetSampleSize < 1 {
		return fmt.Errorf("%w: target sample size must be at least 1", domain.ErrValidation)
	}
	if test.MinConfidence < 70 || test.MinConfidence > 99.9 {
		return fmt.Errorf("%w: minimum confidence must be between 70 and 99.9", domain.ErrValidation)
	}
	return nil
}

func (s *Service) CreateTest(ctx context.Context, test *domain.Test) (*domain.Test, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	if test.Type == "" {
		test.Type = domain.TestTypeLanding
	}
	test.Status = domain.StatusDraft
	test.StartedAt = nil
	test.EndedAt = nil

	if err := validateTest(test); err != nil {
		logger.Error("Invalid test data", err)
		return nil, err
	}

	if err := s.testRepo.Create(ctx, test); err != nil {
		logger.Error("Failed to create test", err)
		return nil, fmt.Errorf("failed to create test: %w", err)
	}

	logger.Info("test created", "test_id", test.ID, "name", test.Name)

	return test, nil
}

func (s *Service) GetTest(ctx context.Context, id uint) (*domain.Test, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	test, err := s.testRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return &test, nil
}

func (s *Service) ListTests(ctx context.Context) ([]domain.Test, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	tests, err := s.testRepo.FindAll(ctx)
	if err != nil {
		logger.Error("Failed to list tests", err)
		return nil, err
	}

	return tests, nil
}

func (s *Service) UpdateTest(ctx context.Context, test *domain.Test) (*domain.Test, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	current, err := s.testRepo.FindByID(ctx, test.ID)
	if err != nil {
		return nil, err
	}

	// Status, lifecycle timestamps and counters are owned by the state
	// machine and the recorder, not by the update path.
	test.Status = current.Status
	test.StartedAt = current.StartedAt
	test.EndedAt = current.EndedAt

	if err := validateTest(test); err != nil {
		logger.Error("Invalid test data", err)
		return nil, err
	}

	if err := s.testRepo.Update(ctx, test); err != nil {
		logger.Error("Failed to update test", err)
		return nil, fmt.Errorf("failed to update test: %w", err)
	}

	updated, err := s.testRepo.FindByID(ctx, test.ID)
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

// DeleteTest removes the test together with its variants and hits.
func (s *Service) DeleteTest(ctx context.Context, id uint) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if _, err := s.testRepo.FindByID(ctx, id); err != nil {
		return err
	}

	if err := s.testRepo.Delete(ctx, id); err != nil {
		logger.Error("Failed to delete test", err)
		return fmt.Errorf("failed to delete test: %w", err)
	}

	logger.Info("test deleted", "test_id", id)

	return nil
}

// ChangeStatus applies one operator-triggered lifecycle transition. Starting a
// draft stamps StartedAt, completing stamps EndedAt, resetting a completed
// test back to draft clears both. Variant and hit rows are never touched.
func (s *Service) ChangeStatus(ctx context.Context, id uint, next domain.TestStatus) (*domain.Test, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	test, err := s.testRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !transitionAllowed(test.Status, next) {
		logger.Warn("rejected status transition", "test_id", id, "from", test.Status, "to", next)
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, test.Status, next)
	}

	startedAt := test.StartedAt
	endedAt := test.EndedAt
	now := time.Now().UTC()

	switch next {
	case domain.StatusRunning:
		if startedAt == nil {
			startedAt = &now
		}
	case domain.StatusCompleted:
		endedAt = &now
	case domain.StatusDraft:
		startedAt = nil
		endedAt = nil
	}

	if err := s.testRepo.UpdateStatus(ctx, id, next, startedAt, endedAt); err != nil {
		logger.Error("Failed to update test status", err)
		return nil, fmt.Errorf("failed to update test status: %w", err)
	}

	logger.Info("test status changed", "test_id", id, "from", test.Status, "to", next)

	test.Status = next
	test.StartedAt = startedAt
	test.EndedAt = endedAt

	return &test, nil
}
