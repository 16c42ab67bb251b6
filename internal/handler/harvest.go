package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"maps-api/internal/catalog"
	"maps-api/internal/models"
	"maps-api/internal/repository"
	"maps-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// HarvestService interface for dependency injection
type HarvestService interface {
	Chart(ctx context.Context, model string, id int64) (*models.HarvestChart, error)
}

// HarvestHandler serves the weight chart shown beside map markers
type HarvestHandler struct {
	service HarvestService
}

// NewHarvestHandler creates a new harvest handler
func NewHarvestHandler(svc HarvestService) *HarvestHandler {
	return &HarvestHandler{service: svc}
}

// Chart handles GET /maps/locations/:id/chart
//
//	@Summary	Monthly harvest weight of a block or estate
//	@Tags		maps
//	@Produce	json
//	@Param		id		path		int		true	"Location id"
//	@Param		model	query		string	false	"Location model"	default(estate.block)
//	@Success	200		{object}	models.HarvestChart
//	@Failure	400		{object}	map[string]string
//	@Failure	404		{object}	map[string]string
//	@Router		/maps/locations/{id}/chart [get]
func (h *HarvestHandler) Chart(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	model := c.DefaultQuery("model", "estate.block")

	chart, err := h.service.Chart(c.Request.Context(), model, id)
	switch {
	case errors.Is(err, repository.ErrNoHarvest), errors.Is(err, catalog.ErrUnknownModel):
		c.JSON(http.StatusBadRequest, gin.H{"error": "model has no harvest chart"})
	case errors.Is(err, service.ErrLocationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "location not found"})
	case err != nil:
		log.Error().Err(err).Str("model", model).Int64("id", id).Msg("failed to build harvest chart")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	default:
		c.JSON(http.StatusOK, chart)
	}
}
