package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"pegfall/internal/domain"
	"pegfall/internal/logger"
	"pegfall/internal/ws"
)

const (
	inspectTimeout = 2 * time.Second
	maxHistory     = 100
)

// History lists archived rounds. Implemented by the round repository.
type History interface {
	ListByRoom(ctx context.Context, code string, limit int) ([]*domain.RoundResult, error)
}

type RoomsHandler struct {
	hub     *ws.Hub
	history History
}

// NewRoomsHandler serves the room API. history may be nil when no
// database is configured.
func NewRoomsHandler(hub *ws.Hub, history History) *RoomsHandler {
	return &RoomsHandler{hub: hub, history: history}
}

// List GET /rooms
func (h *RoomsHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.hub.List()})
}

// Create POST /rooms
func (h *RoomsHandler) Create(c *gin.Context) {
	room, err := h.hub.Create()
	if err != nil {
		logger.Error("create room failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create room"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"code": room.Code})
}

// Get GET /rooms/:code
func (h *RoomsHandler) Get(c *gin.Context) {
	room, err := h.hub.Get(c.Param("code"))
	if errors.Is(err, ws.ErrRoomNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), inspectTimeout)
	defer cancel()
	view, ok := room.View(ctx)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room closed"})
		return
	}
	c.JSON(http.StatusOK, view)
}

// History GET /rooms/:code/history?limit=N
func (h *RoomsHandler) History(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "round archive disabled"})
		return
	}

	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxHistory)
	}

	rounds, err := h.history.ListByRoom(c.Request.Context(), ws.NormalizeCode(c.Param("code")), limit)
	if err != nil {
		logger.Error("list round history failed", "room", c.Param("code"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load history"})
		return
	}
	if rounds == nil {
		rounds = []*domain.RoundResult{}
	}
	c.JSON(http.StatusOK, gin.H{"rounds": rounds})
}
