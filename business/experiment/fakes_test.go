package experiment

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"abpulse/domain"
)

// In-memory repositories backing the service tests. The variant repo guards
// its counters with a mutex so the concurrency tests exercise real parallel
// increments.

type fakeTestRepo struct {
	mu     sync.Mutex
	nextID uint
	tests  map[uint]domain.Test
}

func newFakeTestRepo() *fakeTestRepo {
	return &fakeTestRepo{tests: make(map[uint]domain.Test)}
}

func (r *fakeTestRepo) Create(_ context.Context, test *domain.Test) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	test.ID = r.nextID
	r.tests[test.ID] = *test
	return nil
}

func (r *fakeTestRepo) FindByID(_ context.Context, id uint) (domain.Test, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	test, ok := r.tests[id]
	if !ok {
		return domain.Test{}, fmt.Errorf("%w: test %d", domain.ErrNotFound, id)
	}
	return test, nil
}

func (r *fakeTestRepo) FindAll(_ context.Context) ([]domain.Test, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Test, 0, len(r.tests))
	for _, t := range r.tests {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTestRepo) Update(_ context.Context, test *domain.Test) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tests[test.ID]; !ok {
		return fmt.Errorf("%w: test %d", domain.ErrNotFound, test.ID)
	}
	r.tests[test.ID] = *test
	return nil
}

func (r *fakeTestRepo) UpdateStatus(_ context.Context, id uint, status domain.TestStatus, startedAt, endedAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	test, ok := r.tests[id]
	if !ok {
		return fmt.Errorf("%w: test %d", domain.ErrNotFound, id)
	}
	test.Status = status
	test.StartedAt = startedAt
	test.EndedAt = endedAt
	r.tests[id] = test
	return nil
}

func (r *fakeTestRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tests[id]; !ok {
		return fmt.Errorf("%w: test %d", domain.ErrNotFound, id)
	}
	delete(r.tests, id)
	return nil
}

type fakeVariantRepo struct {
	mu       sync.Mutex
	nextID   uint
	variants map[uint]domain.Variant
}

func newFakeVariantRepo() *fakeVariantRepo {
	return &fakeVariantRepo{variants: make(map[uint]domain.Variant)}
}

func (r *fakeVariantRepo) Create(_ context.Context, variant *domain.Variant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	variant.ID = r.nextID
	r.variants[variant.ID] = *variant
	return nil
}

func (r *fakeVariantRepo) FindByID(_ context.Context, id uint) (domain.Variant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	variant, ok := r.variants[id]
	if !ok {
		return domain.Variant{}, fmt.Errorf("%w: variant %d", domain.ErrNotFound, id)
	}
	return variant, nil
}

func (r *fakeVariantRepo) FindByTest(_ context.Context, testID uint) ([]domain.Variant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Variant
	for _, v := range r.variants {
		if v.TestID == testID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsControl != out[j].IsControl {
			return out[i].IsControl
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *fakeVariantRepo) Update(_ context.Context, variant *domain.Variant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.variants[variant.ID]
	if !ok {
		return fmt.Errorf("%w: variant %d", domain.ErrNotFound, variant.ID)
	}
	current.Name = variant.Name
	current.IsControl = variant.IsControl
	current.Content = variant.Content
	r.variants[variant.ID] = current
	return nil
}

func (r *fakeVariantRepo) ClearControl(_ context.Context, testID uint, exceptID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, v := range r.variants {
		if v.TestID == testID && id != exceptID {
			v.IsControl = false
			r.variants[id] = v
		}
	}
	return nil
}

func (r *fakeVariantRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.variants[id]; !ok {
		return fmt.Errorf("%w: variant %d", domain.ErrNotFound, id)
	}
	delete(r.variants, id)
	return nil
}

func (r *fakeVariantRepo) IncrementImpressions(_ context.Context, id uint) (domain.Variant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	variant, ok := r.variants[id]
	if !ok {
		return domain.Variant{}, fmt.Errorf("%w: variant %d", domain.ErrNotFound, id)
	}
	variant.Impressions++
	variant.ConversionRate = float64(variant.Conversions) / float64(variant.Impressions) * 100
	r.variants[id] = variant
	return variant, nil
}

func (r *fakeVariantRepo) IncrementConversions(_ context.Context, id uint) (domain.Variant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	variant, ok := r.variants[id]
	if !ok {
		return domain.Variant{}, fmt.Errorf("%w: variant %d", domain.ErrNotFound, id)
	}
	variant.Conversions++
	if variant.Impressions > 0 {
		variant.ConversionRate = float64(variant.Conversions) / float64(variant.Impressions) * 100
	}
	r.variants[id] = variant
	return variant, nil
}

type fakeHitRepo struct {
	mu       sync.Mutex
	nextID   uint
	hits     []domain.Hit
	variants *fakeVariantRepo
}

func newFakeHitRepo(variants *fakeVariantRepo) *fakeHitRepo {
	return &fakeHitRepo{variants: variants}
}

func (r *fakeHitRepo) Create(_ context.Context, hit *domain.Hit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	hit.ID = r.nextID
	if hit.CreatedAt.IsZero() {
		hit.CreatedAt = time.Now().UTC()
	}
	r.hits = append(r.hits, *hit)
	return nil
}

func (r *fakeHitRepo) LatestOpenBySession(_ context.Context, variantID uint, sessionID string) (domain.Hit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.hits) - 1; i >= 0; i-- {
		h := r.hits[i]
		if h.VariantID == variantID && h.SessionID == sessionID && !h.Converted {
			return h, nil
		}
	}
	return domain.Hit{}, fmt.Errorf("%w: no open hit", domain.ErrNotFound)
}

func (r *fakeHitRepo) MarkConverted(_ context.Context, hitID uint, conversionType string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.hits {
		if r.hits[i].ID == hitID {
			if r.hits[i].Converted {
				return fmt.Errorf("%w: hit %d already converted", domain.ErrNoMatchingImpression, hitID)
			}
			r.hits[i].Converted = true
			r.hits[i].ConversionType = conversionType
			r.hits[i].ConvertedAt = &at
			return nil
		}
	}
	return fmt.Errorf("%w: hit %d", domain.ErrNotFound, hitID)
}

func (r *fakeHitRepo) FindByTest(_ context.Context, testID uint, from, to *time.Time) ([]domain.Hit, error) {
	r.variants.mu.Lock()
	owners := make(map[uint]uint, len(r.variants.variants))
	for id, v := range r.variants.variants {
		owners[id] = v.TestID
	}
	r.variants.mu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Hit
	for _, h := range r.hits {
		if owners[h.VariantID] != testID {
			continue
		}
		if from != nil && h.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && h.CreatedAt.After(*to) {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}

// newTestService wires a service over fresh fakes and returns the fakes for
// seeding and inspection.
func newTestService() (*Service, *fakeTestRepo, *fakeVariantRepo, *fakeHitRepo) {
	testRepo := newFakeTestRepo()
	variantRepo := newFakeVariantRepo()
	hitRepo := newFakeHitRepo(variantRepo)
	return NewService(testRepo, variantRepo, hitRepo), testRepo, variantRepo, hitRepo
}

func seedTest(repo *fakeTestRepo, status domain.TestStatus, targetSampleSize int, minConfidence float64) domain.Test {
	test := domain.Test{
		Name:             "landing page hero",
		Type:             domain.TestTypeLanding,
		Status:           status,
		TargetSampleSize: targetSampleSize,
		MinConfidence:    minConfidence,
	}
	_ = repo.Create(context.Background(), &test)
	return test
}

func seedVariant(repo *fakeVariantRepo, testID uint, name string, isControl bool, impressions, conversions int64) domain.Variant {
	rate := 0.0
	if impressions > 0 {
		rate = float64(conversions) / float64(impressions) * 100
	}
	variant := domain.Variant{
		TestID:         testID,
		Name:           name,
		IsControl:      isControl,
		Impressions:    impressions,
		Conversions:    conversions,
		ConversionRate: rate,
	}
	_ = repo.Create(context.Background(), &variant)
	return variant
}
