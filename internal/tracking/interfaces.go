package tracking

import (
	"context"

	"github.com/jengzang/activity-tracker-go/internal/models"
)

// SubscribeConfig is handed to the location source when tracking starts
type SubscribeConfig struct {
	Accuracy          string  `json:"accuracy"`
	MinIntervalMs     int64   `json:"minIntervalMs"`
	MinDistanceMeters float64 `json:"minDistanceMeters"`
}

// LocationSource delivers batches of fixes, possibly while no UI is attached.
// The returned channel is closed once ctx is done.
type LocationSource interface {
	Subscribe(ctx context.Context, cfg SubscribeConfig) (<-chan []models.LocationFix, error)
}

// PermissionChecker asks the platform for location permissions
type PermissionChecker interface {
	RequestForegroundPermission(ctx context.Context) (bool, error)
	RequestBackgroundPermission(ctx context.Context) (bool, error)
}

// PersistenceGateway stores sessions and their points
type PersistenceGateway interface {
	CreateSession(ctx context.Context, activityType models.ActivityType) (int64, error)
	AppendPoint(ctx context.Context, sessionID int64, fix models.LocationFix) error
	FinalizeSession(ctx context.Context, sessionID int64, distanceKm, durationSeconds float64, route []models.RoutePoint) (*models.ActivitySummary, error)
	GetSessions(ctx context.Context) ([]models.Activity, error)
	GetSession(ctx context.Context, sessionID int64) (*models.Activity, error)
	DeleteSession(ctx context.Context, sessionID int64) error
}
