package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
)

const artifactHint = "Set AI_MODEL_PATH and AI_SCALER_PATH in settings or env vars."

// statusClientClosedRequest is the nginx convention for a caller that went away.
const statusClientClosedRequest = 499

type Forecaster interface {
	Forecast(ctx context.Context, req domain.ForecastRequest) (*domain.ForecastResult, error)
	ListForecasts(ctx context.Context, filter domain.ForecastFilter) ([]domain.Forecast, int, error)
}

type Recommender interface {
	Recommendations(ctx context.Context) ([]domain.Recommendation, error)
}

type ForecastHandler struct {
	forecasts       Forecaster
	recommendations Recommender
}

func NewForecastHandler(forecasts Forecaster, recommendations Recommender) *ForecastHandler {
	return &ForecastHandler{forecasts: forecasts, recommendations: recommendations}
}

// CreateForecast handles POST /predictions/forecast.
func (h *ForecastHandler) CreateForecast(c *gin.Context) {
	var req domain.ForecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	result, err := h.forecasts.Forecast(c.Request.Context(), req)
	if err != nil {
		writeError(c, err, req.ProductID)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListForecasts handles GET /predictions.
func (h *ForecastHandler) ListForecasts(c *gin.Context) {
	filter, err := parseForecastFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items, total, err := h.forecasts.ListForecasts(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch predictions", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":     items,
		"total":     total,
		"page":      filter.Page,
		"page_size": filter.PageSize,
	})
}

// GetRecommendations handles GET /predictions/recommendations.
func (h *ForecastHandler) GetRecommendations(c *gin.Context) {
	recs, err := h.recommendations.Recommendations(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute recommendations", "details": err.Error()})
		return
	}
	if recs == nil {
		recs = []domain.Recommendation{}
	}

	c.JSON(http.StatusOK, recs)
}

func parseForecastFilter(c *gin.Context) (domain.ForecastFilter, error) {
	filter := domain.ForecastFilter{
		Page:     1,
		PageSize: 50,
	}

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && page > 0 {
		filter.Page = page
	}

	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "50")); err == nil && size > 0 {
		if size > 500 {
			size = 500
		}
		filter.PageSize = size
	}

	if raw := strings.TrimSpace(c.Query("product_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return filter, fmt.Errorf("invalid product_id %q", raw)
		}
		filter.ProductID = &id
	}

	return filter, nil
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrServiceUnavailable), errors.Is(err, domain.ErrArtifactMissing):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error, productID int64) {
	status := StatusFor(err)
	switch status {
	case http.StatusNotFound:
		c.JSON(status, gin.H{"error": fmt.Sprintf("Product %d not found.", productID)})
	case http.StatusServiceUnavailable:
		c.JSON(status, gin.H{
			"error": "LSTM model or scaler artifact not found.",
			"hint":  artifactHint,
		})
	case http.StatusBadRequest:
		c.JSON(status, gin.H{"error": err.Error()})
	case statusClientClosedRequest, http.StatusGatewayTimeout:
		log.Warn().Err(err).Int64("product_id", productID).Msg("forecast request abandoned")
		c.JSON(status, gin.H{"error": "Prediction cancelled."})
	default:
		log.Error().Err(err).Int64("product_id", productID).Msg("forecast request failed")
		c.JSON(status, gin.H{"error": fmt.Sprintf("Prediction failed: %s", err.Error())})
	}
}
