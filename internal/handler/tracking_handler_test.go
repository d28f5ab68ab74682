package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/activity-tracker-go/internal/models"
	"github.com/jengzang/activity-tracker-go/internal/tracking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestWriteTrackingErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"foreground denied", tracking.ErrForegroundPermissionDenied, http.StatusForbidden},
		{"background denied", fmt.Errorf("start: %w", tracking.ErrBackgroundPermissionDenied), http.StatusForbidden},
		{"invalid type", fmt.Errorf("%w: %q", models.ErrInvalidActivityType, "swim"), http.StatusBadRequest},
		{"source unavailable", tracking.ErrSourceUnavailable, http.StatusServiceUnavailable},
		{"closed", tracking.ErrCoordinatorClosed, http.StatusServiceUnavailable},
		{"canceled", context.Canceled, http.StatusServiceUnavailable},
		{"create failed", fmt.Errorf("create session: %w: %w", tracking.ErrPersistenceWriteFailed, errors.New("disk full")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			writeTrackingError(c, "failed", tt.err)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestWriteTrackingErrorCarriesSummary(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	err := &tracking.FinalizeError{
		Summary: models.NewActivitySummary(4, 2, 3600, nil),
		Err:     errors.New("database is locked"),
	}
	writeTrackingError(c, "Failed to stop tracking", err)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var body struct {
		Error string `json:"error"`
		Data  struct {
			Summary models.ActivitySummary `json:"summary"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(4), body.Data.Summary.SessionID)
	assert.Equal(t, 2.0, body.Data.Summary.AvgSpeedKmh)
	assert.Contains(t, body.Error, "database is locked")
}
