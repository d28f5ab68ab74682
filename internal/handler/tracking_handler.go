package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/activity-tracker-go/internal/location"
	"github.com/jengzang/activity-tracker-go/internal/models"
	"github.com/jengzang/activity-tracker-go/internal/notify"
	"github.com/jengzang/activity-tracker-go/internal/tracking"
	"github.com/jengzang/activity-tracker-go/pkg/response"
)

const (
	eventBuffer       = 64
	heartbeatInterval = 15 * time.Second
)

// TrackingHandler handles HTTP requests driving the live session
type TrackingHandler struct {
	coordinator *tracking.Coordinator
	broker      *tracking.Broker
	source      *location.PushSource
	dispatcher  *notify.Dispatcher
}

// NewTrackingHandler creates a new tracking handler
func NewTrackingHandler(coordinator *tracking.Coordinator, broker *tracking.Broker, source *location.PushSource, dispatcher *notify.Dispatcher) *TrackingHandler {
	return &TrackingHandler{
		coordinator: coordinator,
		broker:      broker,
		source:      source,
		dispatcher:  dispatcher,
	}
}

// StartRequest is the body of POST /tracking/start
type StartRequest struct {
	Type string `json:"type"`
}

// LocationsRequest is the body of POST /tracking/locations
type LocationsRequest struct {
	Locations []models.LocationFix `json:"locations" binding:"required"`
}

// Start handles POST /api/v1/tracking/start
func (h *TrackingHandler) Start(c *gin.Context) {
	var req StartRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body", err)
			return
		}
	}

	activityType, err := models.ParseActivityType(req.Type)
	if err != nil {
		response.BadRequest(c, "Invalid activity type", err)
		return
	}

	started, err := h.coordinator.Start(c.Request.Context(), activityType)
	if err != nil {
		writeTrackingError(c, "Failed to start tracking", err)
		return
	}

	data := gin.H{"started": started, "session": h.coordinator.Snapshot()}
	if started {
		response.Created(c, data)
		return
	}
	response.Success(c, data)
}

// Pause handles POST /api/v1/tracking/pause
func (h *TrackingHandler) Pause(c *gin.Context) {
	paused, err := h.coordinator.Pause(c.Request.Context())
	if err != nil {
		writeTrackingError(c, "Failed to pause tracking", err)
		return
	}
	response.Success(c, gin.H{"applied": paused, "session": h.coordinator.Snapshot()})
}

// Resume handles POST /api/v1/tracking/resume
func (h *TrackingHandler) Resume(c *gin.Context) {
	resumed, err := h.coordinator.Resume(c.Request.Context())
	if err != nil {
		writeTrackingError(c, "Failed to resume tracking", err)
		return
	}
	response.Success(c, gin.H{"applied": resumed, "session": h.coordinator.Snapshot()})
}

// Stop handles POST /api/v1/tracking/stop
func (h *TrackingHandler) Stop(c *gin.Context) {
	summary, err := h.coordinator.Stop(c.Request.Context())
	if err != nil {
		writeTrackingError(c, "Failed to stop tracking", err)
		return
	}
	response.Success(c, gin.H{"stopped": summary != nil, "summary": summary})
}

// Status handles GET /api/v1/tracking/status
func (h *TrackingHandler) Status(c *gin.Context) {
	response.Success(c, h.coordinator.Snapshot())
}

// PushLocations handles POST /api/v1/tracking/locations
func (h *TrackingHandler) PushLocations(c *gin.Context) {
	var req LocationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}
	for i, fix := range req.Locations {
		if fix.Latitude < -90 || fix.Latitude > 90 || fix.Longitude < -180 || fix.Longitude > 180 {
			response.BadRequest(c, "Invalid location", fmt.Errorf("location %d out of range: %v,%v", i, fix.Latitude, fix.Longitude))
			return
		}
	}

	delivered, err := h.source.Push(req.Locations)
	if err != nil {
		if errors.Is(err, location.ErrBackpressure) {
			response.ServiceUnavailable(c, "Location buffer full, retry later", err)
			return
		}
		response.InternalError(c, "Failed to queue locations", err)
		return
	}
	if delivered {
		c.JSON(http.StatusAccepted, response.Response{
			Code:    0,
			Message: "queued",
			Data:    gin.H{"queued": len(req.Locations)},
		})
		return
	}

	// nobody subscribed: hand the batch to the engine, which drops it unless tracking
	accepted, err := h.coordinator.IngestBatch(c.Request.Context(), req.Locations)
	if err != nil {
		writeTrackingError(c, "Failed to ingest locations", err)
		return
	}
	response.Success(c, gin.H{"accepted": accepted})
}

// Events handles GET /api/v1/tracking/events as a server-sent event stream.
// The first event is the current snapshot; later events may be dropped for
// slow readers, who should reconcile with the next snapshot they receive.
func (h *TrackingHandler) Events(c *gin.Context) {
	sub := h.broker.Subscribe(eventBuffer)
	defer sub.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	c.SSEvent("snapshot", h.coordinator.Snapshot())
	c.Writer.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			c.SSEvent("snapshot", h.coordinator.Snapshot())
			c.Writer.Flush()
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			c.SSEvent(string(ev.Kind), ev)
			c.Writer.Flush()
		}
	}
}

// Notification handles GET /api/v1/tracking/notification
func (h *TrackingHandler) Notification(c *gin.Context) {
	response.Success(c, notify.Render(h.coordinator.Snapshot()))
}

// Action handles POST /api/v1/tracking/actions/:action
func (h *TrackingHandler) Action(c *gin.Context) {
	result, err := h.dispatcher.Handle(c.Request.Context(), c.Param("action"))
	if err != nil {
		if errors.Is(err, notify.ErrUnknownAction) {
			response.BadRequest(c, "Unknown action", err)
			return
		}
		writeTrackingError(c, "Failed to handle action", err)
		return
	}
	response.Success(c, gin.H{
		"result":       result,
		"notification": notify.Render(h.coordinator.Snapshot()),
	})
}

// writeTrackingError maps engine errors onto HTTP statuses
func writeTrackingError(c *gin.Context, message string, err error) {
	var finalizeErr *tracking.FinalizeError
	switch {
	case errors.As(err, &finalizeErr):
		// the session is closed in memory; return the totals so the client keeps them
		response.ErrorWithData(c, http.StatusInternalServerError, message, err, gin.H{"summary": finalizeErr.Summary})
	case errors.Is(err, tracking.ErrForegroundPermissionDenied), errors.Is(err, tracking.ErrBackgroundPermissionDenied):
		response.Forbidden(c, message, err)
	case errors.Is(err, models.ErrInvalidActivityType):
		response.BadRequest(c, message, err)
	case errors.Is(err, tracking.ErrSourceUnavailable), errors.Is(err, tracking.ErrCoordinatorClosed):
		response.ServiceUnavailable(c, message, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		response.ServiceUnavailable(c, message, err)
	default:
		response.InternalError(c, message, err)
	}
}
