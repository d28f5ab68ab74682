package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/activity-tracker-go/internal/repository"
	"github.com/jengzang/activity-tracker-go/internal/service"
	"github.com/jengzang/activity-tracker-go/pkg/response"
)

// ActivityHandler handles HTTP requests for the activity history
type ActivityHandler struct {
	service *service.ActivityService
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(service *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{service: service}
}

// List handles GET /api/v1/activities
func (h *ActivityHandler) List(c *gin.Context) {
	activities, err := h.service.List(c.Request.Context())
	if err != nil {
		response.InternalError(c, "Failed to get activities", err)
		return
	}
	response.Success(c, gin.H{
		"data":  activities,
		"total": len(activities),
	})
}

// Get handles GET /api/v1/activities/:id
func (h *ActivityHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	activity, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrActivityNotFound) {
			response.NotFound(c, "Activity not found")
			return
		}
		response.InternalError(c, "Failed to get activity", err)
		return
	}
	response.Success(c, activity)
}

// Delete handles DELETE /api/v1/activities/:id
func (h *ActivityHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	err := h.service.Delete(c.Request.Context(), id)
	switch {
	case err == nil:
		response.Success(c, gin.H{"deleted": id})
	case errors.Is(err, repository.ErrActivityNotFound):
		response.NotFound(c, "Activity not found")
	case errors.Is(err, service.ErrActivityInProgress):
		response.Conflict(c, "Activity is still being tracked", err)
	default:
		response.InternalError(c, "Failed to delete activity", err)
	}
}

// Stats handles GET /api/v1/activities/stats
func (h *ActivityHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.InternalError(c, "Failed to get activity stats", err)
		return
	}
	response.Success(c, stats)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "Invalid activity ID", err)
		return 0, false
	}
	return id, true
}
