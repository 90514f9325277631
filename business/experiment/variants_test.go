package experiment

import (
	"context"
	"errors"
	"testing"

	"abpulse/domain"
)

func controlCount(t *testing.T, repo *fakeVariantRepo, testID uint) int {
	t.Helper()
	variants, err := repo.FindByTest(context.Background(), testID)
	if err != nil {
		t.Fatalf("FindByTest: %v", err)
	}
	count := 0
	for _, v := range variants {
		if v.IsControl {
			count++
		}
	}
	return count
}

func TestFirstVariantBecomesControl(t *testing.T) {
	svc, testRepo, variantRepo, _ := newTestService()
	test := seedTest(testRepo, domain.StatusDraft, 1000, 95)
	ctx := context.Background()

	created, err := svc.CreateVariant(ctx, test.ID, &domain.Variant{Name: "original", IsControl: false})
	if err != nil {
		t.Fatalf("CreateVariant: %v", err)
	}
	if !created.IsControl {
		t.Fatal("the first variant of a test must become the control")
	}
	if n := controlCount(t, variantRepo, test.ID); n != 1 {
		t.Fatalf("control count = %d, want 1", n)
	}
}

func TestCreateControlTakesOverFlag(t *testing.T) {
	svc, testRepo, variantRepo, _ := newTestService()
	test := seedTest(testRepo, domain.StatusDraft, 1000, 95)
	ctx := context.Background()

	first, err := svc.CreateVariant(ctx, test.ID, &domain.Variant{Name: "original"})
	if err != nil {
		t.Fatalf("CreateVariant: %v", err)
	}

	second, err := svc.CreateVariant(ctx, test.ID, &domain.Variant{Name: "new hero", IsControl: true})
	if err != nil {
		t.Fatalf("CreateVariant: %v", err)
	}
	if !second.IsControl {
		t.Fatal("second variant should carry the control flag it asked for")
	}

	updated, _ := variantRepo.FindByID(ctx, first.ID)
	if updated.IsControl {
		t.Fatal("previous control must have been cleared")
	}
	if n := controlCount(t, variantRepo, test.ID); n != 1 {
		t.Fatalf("control count = %d, want 1", n)
	}
}

func TestPromoteVariantMovesControl(t *testing.T) {
	svc, testRepo, variantRepo, _ := newTestService()
	test := seedTest(testRepo, domain.StatusDraft, 1000, 95)
	ctx := context.Background()

	x, _ := svc.CreateVariant(ctx, test.ID, &domain.Variant{Name: "x"})
	y, _ := svc.CreateVariant(ctx, test.ID, &domain.Variant{Name: "y"})

	promoted, err := svc.UpdateVariant(ctx, test.ID, y.ID, &domain.Variant{Name: "y", IsControl: true})
	if err != nil {
		t.Fatalf("UpdateVariant: %v", err)
	}
	if !promoted.IsControl {
		t.Fatal("promoted variant should be control")
	}

	prev, _ := variantRepo.FindByID(ctx, x.ID)
	if prev.IsControl {
		t.Fatal("former control should have lost the flag")
	}
	if n := controlCount(t, variantRepo, test.ID); n != 1 {
		t.Fatalf("control count = %d, want 1", n)
	}
}

func TestDemoteControlRejected(t *testing.T) {
	svc, testRepo, _, _ := newTestService()
	test := seedTest(testRepo, domain.StatusDraft, 1000, 95)
	ctx := context.Background()

	control, _ := svc.CreateVariant(ctx, test.ID, &domain.Variant{Name: "control"})
	_, _ = svc.CreateVariant(ctx, test.ID, &domain.Variant{Name: "challenger"})

	_, err := svc.UpdateVariant(ctx, test.ID, control.ID, &domain.Variant{Name: "control", IsControl: false})
	if !errors.Is(err, domain.ErrInvalidOperation) {
		t.Fatalf("expected ErrInvalidOperation, got %v", err)
	}
}

func TestDeleteControlWithSiblingsRejected(t *testing.T) {
	svc, testRepo, _, _ := newTestService()
	test := seedTest(testRepo, domain.StatusDraft, 1000, 95)
	ctx := context.Background()

	control, _ := svc.CreateVariant(ctx, test.ID, &domain.Variant{Name: "control"})
	_, _ = svc.CreateVariant(ctx, test.ID, &domain.Variant{Name: "challenger"})

	err := svc.DeleteVariant(ctx, test.ID, control.ID)
	if !errors.Is(err, domain.ErrInvalidOperation) {
		t.Fatalf("expected ErrInvalidOperation, got %v", err)
	}
}

func TestDeleteControlAfterReassignment(t *testing.T) {
	svc, testRepo, variantRepo, _ := newTestService()
	test := seedTest(testRepo, domain.StatusDraft, 1000, 95)
	ctx := context.Background()

	oldControl, _ := svc.CreateVariant(ctx, test.ID, &domain.Variant{Name: "old"})
	challenger, _ := svc.CreateVariant(ctx, test.ID, &domain.Variant{Name: "new"})

	if _, err := svc.UpdateVariant(ctx, test.ID, challenger.ID, &domain.Variant{Name: "new", IsControl: true}); err != nil {
		t.Fatalf("promote: %v", err)
	}
	if err := svc.DeleteVariant(ctx, test.ID, oldControl.ID); err != nil {
		t.Fatalf("delete after reassignment: %v", err)
	}
	if n := controlCount(t, variantRepo, test.ID); n != 1 {
		t.Fatalf("control count = %d, want 1", n)
	}
}

func TestDeleteLastVariantAllowed(t *testing.T) {
	svc, testRepo, _, _ := newTestService()
	test := seedTest(testRepo, domain.StatusDraft, 1000, 95)
	ctx := context.Background()

	only, _ := svc.CreateVariant(ctx, test.ID, &domain.Variant{Name: "only"})

	if err := svc.DeleteVariant(ctx, test.ID, only.ID); err != nil {
		t.Fatalf("deleting the sole variant should succeed, got %v", err)
	}
}

func TestVariantBelongsToStatedTest(t *testing.T) {
	svc, testRepo, _, _ := newTestService()
	testA := seedTest(testRepo, domain.StatusDraft, 1000, 95)
	testB := seedTest(testRepo, domain.StatusDraft, 1000, 95)
	ctx := context.Background()

	variant, _ := svc.CreateVariant(ctx, testA.ID, &domain.Variant{Name: "a"})

	if _, err := svc.UpdateVariant(ctx, testB.ID, variant.ID, &domain.Variant{Name: "a"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("update across tests: expected ErrNotFound, got %v", err)
	}
	if err := svc.DeleteVariant(ctx, testB.ID, variant.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("delete across tests: expected ErrNotFound, got %v", err)
	}
}

func TestCreateVariantUnknownTest(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.CreateVariant(context.Background(), 99, &domain.Variant{Name: "orphan"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestControlInvariantAcrossSequence(t *testing.T) {
	svc, testRepo, variantRepo, _ := newTestService()
	test := seedTest(testRepo, domain.StatusDraft, 1000, 95)
	ctx := context.Background()

	a, _ := svc.CreateVariant(ctx, test.ID, &domain.Variant{Name: "a"})
	b, _ := svc.CreateVariant(ctx, test.ID, &domain.Variant{Name: "b", IsControl: true})
	c, _ := svc.CreateVariant(ctx, test.ID, &domain.Variant{Name: "c"})

	steps := []func() error{
		func() error { _, err := svc.UpdateVariant(ctx, test.ID, a.ID, &domain.Variant{Name: "a", IsControl: true}); return err },
		func() error { _, err := svc.UpdateVariant(ctx, test.ID, c.ID, &domain.Variant{Name: "c", IsControl: true}); return err },
		func() error { return svc.DeleteVariant(ctx, test.ID, b.ID) },
		func() error { _, err := svc.UpdateVariant(ctx, test.ID, a.ID, &domain.Variant{Name: "a2"}); return err },
	}

	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if n := controlCount(t, variantRepo, test.ID); n != 1 {
			t.Fatalf("step %d: control count = %d, want 1", i, n)
		}
	}
}
