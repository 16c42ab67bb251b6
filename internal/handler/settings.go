package handler

import (
	"context"
	"net/http"

	"maps-api/internal/geocoding"
	"maps-api/internal/i18n"

	"github.com/gin-gonic/gin"
)

// TokenValidator interface for dependency injection
type TokenValidator interface {
	Validate(ctx context.Context, token string) geocoding.TokenCheck
}

// SettingsHandler serves the map settings page
type SettingsHandler struct {
	validator TokenValidator
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(v TokenValidator) *SettingsHandler {
	return &SettingsHandler{validator: v}
}

type validateTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// ValidateMapBoxToken handles POST /settings/mapbox-token/validate
//
//	@Summary	Check a MapBox token
//	@Tags		settings
//	@Accept		json
//	@Produce	json
//	@Param		lang	query		string	false	"Language of the message"
//	@Success	200		{object}	geocoding.TokenCheck
//	@Router		/settings/mapbox-token/validate [post]
func (h *SettingsHandler) ValidateMapBoxToken(c *gin.Context) {
	var req validateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required field 'token'"})
		return
	}

	check := h.validator.Validate(c.Request.Context(), req.Token)
	lang := c.Query("lang")
	switch {
	case check.Valid:
	case check.Status == http.StatusUnauthorized:
		check.Message = i18n.T(lang, i18n.TokenNotValid)
	case check.Status == http.StatusForbidden:
		check.Message = i18n.T(lang, i18n.RefererNotAuthorized)
	default:
		check.Message = i18n.T(lang, i18n.ServerUnreachable)
	}
	c.JSON(http.StatusOK, check)
}
