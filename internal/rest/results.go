package rest

import (
	"context"
	"net/http"
	"time"

	"abpulse/domain"
	"abpulse/pkg/logger"
	"abpulse/pkg/metrics"

	"github.com/AMFarhan21/fres"
	"github.com/labstack/echo/v4"
)

type ResultsService interface {
	Results(ctx context.Context, testID uint) (*domain.TestResults, error)
}

type ResultsHandler struct {
	resultsService ResultsService
	timeout        time.Duration
}

func NewResultsHandler(resultsService ResultsService) *ResultsHandler {
	return &ResultsHandler{
		resultsService: resultsService,
		timeout:        15 * time.Second,
	}
}

func (h *ResultsHandler) GetResults(c echo.Context) error {
	testID, err := paramID(c, "id")
	if err != nil {
		logger.Error("Invalid test id", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	start := time.Now()

	results, err := h.resultsService.Results(ctx, testID)
	if err != nil {
		logger.Error("Failed to compute results", err)
		return c.JSON(httpStatus(err), ResponseError{Message: err.Error()})
	}

	metrics.ResultsDuration.Observe(time.Since(start).Seconds())

	return c.JSON(http.StatusOK, fres.Response.StatusOK(results))
}
