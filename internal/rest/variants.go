package rest

import (
	"context"
	"net/http"
	"time"

	"abpulse/domain"
	"abpulse/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"gorm.io/datatypes"
)

type VariantService interface {
	CreateVariant(ctx context.Context, testID uint, variant *domain.Variant) (*domain.Variant, error)
	UpdateVariant(ctx context.Context, testID, variantID uint, variant *domain.Variant) (*domain.Variant, error)
	DeleteVariant(ctx context.Context, testID, variantID uint) error
	ListVariants(ctx context.Context, testID uint) ([]domain.Variant, error)
}

type VariantHandler struct {
	variantService VariantService
	validator      *validator.Validate
	timeout        time.Duration
}

func NewVariantHandler(variantService VariantService) *VariantHandler {
	return &VariantHandler{
		variantService: variantService,
		validator:      validator.New(),
		timeout:        10 * time.Second,
	}
}

type VariantRequest struct {
	Name      string            `json:"name" validate:"required"`
	IsControl bool              `json:"is_control"`
	Content   map[string]string `json:"content"`
}

func (h *VariantHandler) CreateVariant(c echo.Context) error {
	testID, err := paramID(c, "testId")
	if err != nil {
		logger.Error("Invalid test id", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	var req VariantRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind request", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if err := h.validator.Struct(&req); err != nil {
		logger.Error("Failed to validate variant request", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	variant := &domain.Variant{
		Name:      req.Name,
		IsControl: req.IsControl,
		Content:   datatypes.NewJSONType(req.Content),
	}

	created, err := h.variantService.CreateVariant(ctx, testID, variant)
	if err != nil {
		logger.Error("Failed to create variant", err)
		return c.JSON(httpStatus(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "variant successfully created",
		"variant": created,
	})
}

func (h *VariantHandler) UpdateVariant(c echo.Context) error {
	testID, err := paramID(c, "testId")
	if err != nil {
		logger.Error("Invalid test id", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	variantID, err := paramID(c, "id")
	if err != nil {
		logger.Error("Invalid variant id", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	var req VariantRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind request", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if err := h.validator.Struct(&req); err != nil {
		logger.Error("Failed to validate variant request", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	variant := &domain.Variant{
		Name:      req.Name,
		IsControl: req.IsControl,
		Content:   datatypes.NewJSONType(req.Content),
	}

	updated, err := h.variantService.UpdateVariant(ctx, testID, variantID, variant)
	if err != nil {
		logger.Error("Failed to update variant", err)
		return c.JSON(httpStatus(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "successfully update variant",
		"variant": updated,
	})
}

func (h *VariantHandler) DeleteVariant(c echo.Context) error {
	testID, err := paramID(c, "testId")
	if err != nil {
		logger.Error("Invalid test id", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	variantID, err := paramID(c, "id")
	if err != nil {
		logger.Error("Invalid variant id", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.variantService.DeleteVariant(ctx, testID, variantID); err != nil {
		logger.Error("Failed to delete variant", err)
		return c.JSON(httpStatus(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":    "variant successfully deleted",
		"variant_id": variantID,
	})
}

func (h *VariantHandler) ListVariants(c echo.Context) error {
	testID, err := paramID(c, "testId")
	if err != nil {
		logger.Error("Invalid test id", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	variants, err := h.variantService.ListVariants(ctx, testID)
	if err != nil {
		logger.Error("Failed to list variants", err)
		return c.JSON(httpStatus(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":  "successfully get all variants",
		"variants": variants,
	})
}
