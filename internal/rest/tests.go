package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"abpulse/domain"
	"abpulse/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// ResponseError represent the response error struct
type ResponseError struct {
	Message string `json:"message"`
}

// httpStatus maps the engine's typed error kinds onto response codes. Anything
// unrecognized is a storage fault and surfaces as 500.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidOperation), errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNoMatchingImpression):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func paramID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

type TestService interface {
	CreateTest(ctx context.Context, test *domain.Test) (*domain.Test, error)
	GetTest(ctx context.Context, id uint) (*domain.Test, error)
	ListTests(ctx context.Context) ([]domain.Test, error)
	UpdateTest(ctx context.Context, test *domain.Test) (*domain.Test, error)
	DeleteTest(ctx context.Context, id uint) error
	ChangeStatus(ctx context.Context, id uint, next domain.TestStatus) (*domain.Test, error)
}

type TestHandler struct {
	testService TestService
	validator   *validator.Validate
	timeout     time.Duration
}

func NewTestHandler(testService TestService) *TestHandler {
	return &TestHandler{
		testService: testService,
		validator:   validator.New(),
		timeout:     10 * time.Second,
	}
}

type CreateTestRequest struct {
	Name             string  `json:"name" validate:"required"`
	TestType         string  `json:"test_type" validate:"omitempty,oneof=landing cta headline image content layout color custom"`
	TargetURL        string  `json:"target_url"`
	ConversionMetric string  `json:"conversion_metric"`
	TargetSampleSize int     `json:"target_sample_size" validate:"required,gte=1"`
	MinConfidence    float64 `json:"min_confidence" validate:"required,gte=70,lte=99.9"`
}

type UpdateTestRequest struct {
	Name             string  `json:"name" validate:"required"`
	TestType         string  `json:"test_type" validate:"required,oneof=landing cta headline image content layout color custom"`
	TargetURL        string  `json:"target_url"`
	ConversionMetric string  `json:"conversion_metric"`
	TargetSampleSize int     `json:"target_sample_size" validate:"required,gte=1"`
	MinConfidence    float64 `json:"min_confidence" validate:"required,gte=70,lte=99.9"`
}

type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft running paused completed"`
}

func (h *TestHandler) CreateTest(c echo.Context) error {
	var req CreateTestRequest

	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind request", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if err := h.validator.Struct(&req); err != nil {
		logger.Error("Failed to validate test request", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	test := &domain.Test{
		Name:             req.Name,
		Type:             domain.TestType(req.TestType),
		TargetURL:        req.TargetURL,
		ConversionMetric: req.ConversionMetric,
		TargetSampleSize: req.TargetSampleSize,
		MinConfidence:    req.MinConfidence,
	}

	created, err := h.testService.CreateTest(ctx, test)
	if err != nil {
		logger.Error("Failed to create test", err)
		return c.JSON(httpStatus(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "test successfully created",
		"test":    created,
	})
}

func (h *TestHandler) GetTest(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		logger.Error("Invalid test id", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	test, err := h.testService.GetTest(ctx, id)
	if err != nil {
		return c.JSON(httpStatus(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "successfully find test by id",
		"test":    test,
	})
}

func (h *TestHandler) ListTests(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	tests, err := h.testService.ListTests(ctx)
	if err != nil {
		logger.Error("Failed to list tests", err)
		return c.JSON(httpStatus(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "successfully get all tests",
		"tests":   tests,
	})
}

func (h *TestHandler) UpdateTest(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		logger.Error("Invalid test id", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	var req UpdateTestRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind request", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if err := h.validator.Struct(&req); err != nil {
		logger.Error("Failed to validate test request", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	test := &domain.Test{
		ID:               id,
		Name:             req.Name,
		Type:             domain.TestType(req.TestType),
		TargetURL:        req.TargetURL,
		ConversionMetric: req.ConversionMetric,
		TargetSampleSize: req.TargetSampleSize,
		MinConfidence:    req.MinConfidence,
	}

	updated, err := h.testService.UpdateTest(ctx, test)
	if err != nil {
		logger.Error("Failed to update test", err)
		return c.JSON(httpStatus(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "successfully update test",
		"test":    updated,
	})
}

func (h *TestHandler) DeleteTest(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		logger.Error("Invalid test id", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.testService.DeleteTest(ctx, id); err != nil {
		logger.Error("Failed to delete test", err)
		return c.JSON(httpStatus(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "test successfully deleted",
		"test_id": id,
	})
}

func (h *TestHandler) ChangeStatus(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		logger.Error("Invalid test id", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	var req ChangeStatusRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind request", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if err := h.validator.Struct(&req); err != nil {
		logger.Error("Failed to validate status request", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	test, err := h.testService.ChangeStatus(ctx, id, domain.TestStatus(req.Status))
	if err != nil {
		logger.Error("Failed to change test status", err)
		return c.JSON(httpStatus(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "successfully update test status",
		"test":    test,
	})
}
