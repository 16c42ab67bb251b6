package handler

import (
	"context"
	"net/http"
	"strconv"

	"maps-api/internal/models"
	"maps-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// InspectionService interface for dependency injection
type InspectionService interface {
	EstateBoundaries(ctx context.Context, companyID int64) ([]models.EstateBoundary, error)
	InspectionReport(ctx context.Context, companyID *int64, query string) ([]*service.EmployeeInspections, error)
}

// InspectionHandler serves the farm overview and reporting maps
type InspectionHandler struct {
	service InspectionService
}

// NewInspectionHandler creates a new inspection handler
func NewInspectionHandler(svc InspectionService) *InspectionHandler {
	return &InspectionHandler{service: svc}
}

// EstateBoundaries handles GET /geo/location/data
//
//	@Summary	Estate boundaries of a company
//	@Tags		inspection
//	@Produce	json
//	@Param		company_id	query		int	true	"Company id"
//	@Success	200			{object}	map[string][]models.EstateBoundary
//	@Router		/geo/location/data [get]
func (h *InspectionHandler) EstateBoundaries(c *gin.Context) {
	companyID, err := strconv.ParseInt(c.Query("company_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid company_id"})
		return
	}

	estates, err := h.service.EstateBoundaries(c.Request.Context(), companyID)
	if err != nil {
		log.Error().Err(err).Int64("company_id", companyID).Msg("failed to load estate boundaries")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"estates": estates})
}

// InspectionReport handles GET /get/inspection/location/data
//
//	@Summary	Inspection routes grouped by employee
//	@Tags		inspection
//	@Produce	json
//	@Param		company_id	query	int		false	"Company id"
//	@Param		q			query	string	false	"Employee name filter"
//	@Success	200			{array}	service.EmployeeInspections
//	@Router		/get/inspection/location/data [get]
func (h *InspectionHandler) InspectionReport(c *gin.Context) {
	var companyID *int64
	if raw := c.Query("company_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid company_id"})
			return
		}
		companyID = &id
	}

	report, err := h.service.InspectionReport(c.Request.Context(), companyID, c.Query("q"))
	if err != nil {
		log.Error().Err(err).Msg("failed to build inspection report")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, report)
}
