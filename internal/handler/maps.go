package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"maps-api/internal/models"
	"maps-api/internal/service"
	"maps-api/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const keepAliveInterval = 15 * time.Second

// MapSession is one map view's pipeline as the HTTP layer drives it
type MapSession interface {
	Load(ctx context.Context, params models.Query) (*models.State, error)
	StopFetchingCoordinates()
	State() *models.State
	Subscribe() (<-chan *models.State, func())
	Notifications() (<-chan models.Notification, func())
}

// SessionStore interface for dependency injection
type SessionStore interface {
	Create(query models.Query) string
	Get(id string) (MapSession, error)
	Delete(id string) error
}

// HubSessions adapts a session hub to SessionStore.
type HubSessions struct {
	Hub *session.Hub
}

func (h HubSessions) Create(query models.Query) string { return h.Hub.Create(query).ID }

func (h HubSessions) Get(id string) (MapSession, error) {
	s, err := h.Hub.Get(id)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (h HubSessions) Delete(id string) error { return h.Hub.Delete(id) }

// MapsHandler serves map sessions
type MapsHandler struct {
	sessions SessionStore
}

// NewMapsHandler creates a new maps handler
func NewMapsHandler(sessions SessionStore) *MapsHandler {
	return &MapsHandler{sessions: sessions}
}

// Register mounts the session routes on g.
func (h *MapsHandler) Register(g *gin.RouterGroup) {
	g.POST("/sessions", h.CreateSession)
	g.POST("/sessions/:id/load", h.Load)
	g.GET("/sessions/:id/state", h.State)
	g.GET("/sessions/:id/events", h.Events)
	g.POST("/sessions/:id/stop", h.Stop)
	g.DELETE("/sessions/:id", h.DeleteSession)
}

// bindQuery reads an optional JSON query body.
func bindQuery(c *gin.Context, q *models.Query) bool {
	if err := c.ShouldBindJSON(q); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	return true
}

func (h *MapsHandler) session(c *gin.Context) (MapSession, bool) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return nil, false
	}
	return s, true
}

// CreateSession handles POST /maps/sessions
//
//	@Summary	Open a map session
//	@Tags		maps
//	@Accept		json
//	@Produce	json
//	@Param		query	body		models.Query	false	"Stored view metadata"
//	@Success	201		{object}	map[string]string
//	@Router		/maps/sessions [post]
func (h *MapsHandler) CreateSession(c *gin.Context) {
	var q models.Query
	if !bindQuery(c, &q) {
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": h.sessions.Create(q)})
}

// Load handles POST /maps/sessions/:id/load
//
//	@Summary	Load map data
//	@Tags		maps
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string			true	"Session id"
//	@Param		params	body		models.Query	false	"Load params"
//	@Success	200		{object}	models.State
//	@Failure	404		{object}	map[string]string
//	@Failure	409		{object}	map[string]string
//	@Router		/maps/sessions/{id}/load [post]
func (h *MapsHandler) Load(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var params models.Query
	if !bindQuery(c, &params) {
		return
	}

	state, err := s.Load(c.Request.Context(), params)
	switch {
	case errors.Is(err, service.ErrSuperseded):
		c.JSON(http.StatusConflict, gin.H{"error": "load superseded by a newer load"})
		return
	case err != nil:
		log.Error().Err(err).Str("session", c.Param("id")).Msg("map load failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, state)
}

// State handles GET /maps/sessions/:id/state
func (h *MapsHandler) State(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.State())
}

// Events handles GET /maps/sessions/:id/events, a server-sent event stream of
// "state" and "notification" events. The current state is sent first.
func (h *MapsHandler) Events(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	states, cancelStates := s.Subscribe()
	defer cancelStates()
	notes, cancelNotes := s.Notifications()
	defer cancelNotes()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("state", s.State())
	c.Writer.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()
	c.Stream(func(io.Writer) bool {
		select {
		case st, ok := <-states:
			if !ok {
				return false
			}
			c.SSEvent("state", st)
		case n, ok := <-notes:
			if !ok {
				return false
			}
			c.SSEvent("notification", n)
		case <-ticker.C:
			c.SSEvent("ping", "")
		case <-c.Request.Context().Done():
			return false
		}
		return true
	})
}

// Stop handles POST /maps/sessions/:id/stop
func (h *MapsHandler) Stop(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	s.StopFetchingCoordinates()
	c.Status(http.StatusNoContent)
}

// DeleteSession handles DELETE /maps/sessions/:id
func (h *MapsHandler) DeleteSession(c *gin.Context) {
	if err := h.sessions.Delete(c.Param("id")); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}
