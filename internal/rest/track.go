package rest

import (
	"context"
	"net/http"
	"time"

	"abpulse/business/experiment"
	"abpulse/domain"
	"abpulse/pkg/metrics"
	"abpulse/pkg/utils"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Recorder interface {
	RecordImpression(ctx context.Context, variantID uint, sessionID string, meta experiment.HitMetadata) (*domain.Hit, *domain.Variant, error)
	RecordConversion(ctx context.Context, variantID uint, sessionID, conversionType string) (*domain.Variant, error)
}

// TrackHandler serves the public tracking beacon: impressions and conversions
// posted by the client snippet. No auth; payloads are minimal.
type TrackHandler struct {
	recorder Recorder
	validate *validator.Validate
	ipKey    string
	timeout  time.Duration
}

func NewTrackHandler(recorder Recorder, ipKey string) *TrackHandler {
	return &TrackHandler{
		recorder: recorder,
		validate: validator.New(),
		ipKey:    ipKey,
		timeout:  10 * time.Second,
	}
}

type ImpressionRequest struct {
	VariantID uint                   `json:"variant_id" validate:"required"`
	SessionID string                 `json:"session_id"`
	Device    string                 `json:"device"`
	Context   map[string]interface{} `json:"context"`
}

type ConversionRequest struct {
	VariantID      uint   `json:"variant_id" validate:"required"`
	SessionID      string `json:"session_id" validate:"required"`
	ConversionType string `json:"conversion_type"`
}

type ImpressionResponse struct {
	SessionID string `json:"session_id"`
	HitID     uint   `json:"hit_id"`
}

func (h *TrackHandler) Impression(c echo.Context) error {
	var req ImpressionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	meta := experiment.HitMetadata{
		Device:    req.Device,
		IPHash:    utils.PseudonymizeIP(c.RealIP(), h.ipKey),
		UserAgent: c.Request().UserAgent(),
		Context:   req.Context,
	}

	hit, _, err := h.recorder.RecordImpression(ctx, req.VariantID, req.SessionID, meta)
	if err != nil {
		return c.JSON(httpStatus(err), ResponseError{Message: err.Error()})
	}

	metrics.ImpressionsRecorded.Inc()

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(ImpressionResponse{
		SessionID: hit.SessionID,
		HitID:     hit.ID,
	}))
}

func (h *TrackHandler) Conversion(c echo.Context) error {
	var req ConversionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	variant, err := h.recorder.RecordConversion(ctx, req.VariantID, req.SessionID, req.ConversionType)
	if err != nil {
		if httpStatus(err) == http.StatusUnprocessableEntity {
			metrics.ConversionsRejected.Inc()
		}
		return c.JSON(httpStatus(err), ResponseError{Message: err.Error()})
	}

	metrics.ConversionsRecorded.Inc()

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(variant))
}
