package experiment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"abpulse/domain"
	"abpulse/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// HitMetadata carries the optional client metadata attached to an impression.
// The IP is expected to be pseudonymised by the transport layer before it
// reaches the recorder.
type HitMetadata struct {
	Device    string
	IPHash    string
	UserAgent string
	Context   map[string]interface{}
}

// RecordImpression appends a hit for the session and bumps the variant's
// impression counter through a serialized storage update. Safe to call
// concurrently for the same variant.
func (s *Service) RecordImpression(ctx context.Context, variantID uint, sessionID string, meta HitMetadata) (*domain.Hit, *domain.Variant, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("context error: %w", err)
	}

	if _, err := s.variantRepo.FindByID(ctx, variantID); err != nil {
		return nil, nil, err
	}

	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	hit := domain.Hit{
		VariantID: variantID,
		SessionID: sessionID,
		Device:    meta.Device,
		IPHash:    meta.IPHash,
		UserAgent: meta.UserAgent,
		Context:   datatypes.JSONMap(meta.Context),
	}

	if err := s.hitRepo.Create(ctx, &hit); err != nil {
		logger.Error("Failed to record hit", err)
		return nil, nil, fmt.Errorf("failed to record hit: %w", err)
	}

	variant, err := s.variantRepo.IncrementImpressions(ctx, variantID)
	if err != nil {
		logger.Error("Failed to increment impressions", err)
		return nil, nil, fmt.Errorf("failed to increment impressions: %w", err)
	}

	return &hit, &variant, nil
}

// RecordConversion marks the session's open hit converted and bumps the
// variant's conversion counter. A session converts at most once: when no
// un-converted hit exists, or a concurrent call already claimed it, the call
// fails with domain.ErrNoMatchingImpression and no counter changes.
func (s *Service) RecordConversion(ctx context.Context, variantID uint, sessionID, conversionType string) (*domain.Variant, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", domain.ErrValidation)
	}

	hit, err := s.hitRepo.LatestOpenBySession(ctx, variantID, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: variant %d session %s", domain.ErrNoMatchingImpression, variantID, sessionID)
		}
		logger.Error("Failed to look up open hit", err)
		return nil, err
	}

	if err := s.hitRepo.MarkConverted(ctx, hit.ID, conversionType, time.Now().UTC()); err != nil {
		if errors.Is(err, domain.ErrNoMatchingImpression) {
			// Lost the race against a concurrent conversion for the
			// same session.
			return nil, err
		}
		logger.Error("Failed to mark hit converted", err)
		return nil, fmt.Errorf("failed to mark hit converted: %w", err)
	}

	variant, err := s.variantRepo.IncrementConversions(ctx, variantID)
	if err != nil {
		logger.Error("Failed to increment conversions", err)
		return nil, fmt.Errorf("failed to increment conversions: %w", err)
	}

	return &variant, nil
}
