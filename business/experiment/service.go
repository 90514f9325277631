package experiment

import (
	"context"
	"time"

	"abpulse/domain"
)

// TestRepository contract interface
type TestRepository interface {
	Create(ctx context.Context, test *domain.Test) error
	FindByID(ctx context.Context, id uint) (domain.Test, error)
	FindAll(ctx context.Context) ([]domain.Test, error)
	Update(ctx context.Context, test *domain.Test) error
	UpdateStatus(ctx context.Context, id uint, status domain.TestStatus, startedAt, endedAt *time.Time) error
	Delete(ctx context.Context, id uint) error
}

// VariantRepository contract interface
type VariantRepository interface {
	Create(ctx context.Context, variant *domain.Variant) error
	FindByID(ctx context.Context, id uint) (domain.Variant, error)
	// FindByTest returns the variants of a test ordered control-first.
	FindByTest(ctx context.Context, testID uint) ([]domain.Variant, error)
	Update(ctx context.Context, variant *domain.Variant) error
	// ClearControl unsets is_control on every variant of the test except exceptID.
	ClearControl(ctx context.Context, testID uint, exceptID uint) error
	Delete(ctx context.Context, id uint) error
	// IncrementImpressions adds 1 to the variant's impression counter and
	// recomputes its conversion rate in a single serialized storage update.
	IncrementImpressions(ctx context.Context, id uint) (domain.Variant, error)
	IncrementConversions(ctx context.Context, id uint) (domain.Variant, error)
}

// HitRepository contract interface
type HitRepository interface {
	Create(ctx context.Context, hit *domain.Hit) error
	// LatestOpenBySession returns the most recent un-converted hit for the
	// (variant, session) pair, or domain.ErrNotFound when none exists.
	LatestOpenBySession(ctx context.Context, variantID uint, sessionID string) (domain.Hit, error)
	// MarkConverted flips the hit to converted, conditional on converted still
	// being false. Returns domain.ErrNoMatchingImpression when the hit was
	// already converted (the loser of a concurrent conversion race).
	MarkConverted(ctx context.Context, hitID uint, conversionType string, at time.Time) error
	FindByTest(ctx context.Context, testID uint, from, to *time.Time) ([]domain.Hit, error)
}

type Service struct {
	testRepo    TestRepository
	variantRepo VariantRepository
	hitRepo     HitRepository
}

func NewService(testRepo TestRepository, variantRepo VariantRepository, hitRepo HitRepository) *Service {
	return &Service{
		testRepo:    testRepo,
		variantRepo: variantRepo,
		hitRepo:     hitRepo,
	}
}
