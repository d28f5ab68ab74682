package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jengzang/activity-tracker-go/internal/spatial"
)

// ErrInvalidActivityType is returned for activity labels outside the supported set
var ErrInvalidActivityType = errors.New("invalid activity type")

// ActivityType is the caller-supplied label of a session
type ActivityType string

const (
	ActivityRun  ActivityType = "run"
	ActivityWalk ActivityType = "walk"
	ActivityBike ActivityType = "bike"
	ActivityHike ActivityType = "hike"
)

// Valid reports whether t is one of the supported activity types
func (t ActivityType) Valid() bool {
	switch t {
	case ActivityRun, ActivityWalk, ActivityBike, ActivityHike:
		return true
	}
	return false
}

// ParseActivityType parses a label, defaulting to run when empty
func ParseActivityType(s string) (ActivityType, error) {
	if s == "" {
		return ActivityRun, nil
	}
	t := ActivityType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidActivityType, s)
	}
	return t, nil
}

// Status is the lifecycle state of the tracking session
type Status string

const (
	StatusIdle    Status = "idle"
	StatusActive  Status = "active"
	StatusPaused  Status = "paused"
	StatusStopped Status = "stopped"
)

// LocationFix is one position reported by the location source
type LocationFix struct {
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	TimestampMs int64    `json:"timestamp"`          // Unix milliseconds
	Speed       *float64 `json:"speed,omitempty"`    // m/s
	Accuracy    *float64 `json:"accuracy,omitempty"` // meters, informational only
}

// RoutePoint is an accepted fix retained in the session route
type RoutePoint struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	TimestampMs int64   `json:"timestamp"`
}

// RoutePointFromFix keeps the positional part of a fix
func RoutePointFromFix(fix LocationFix) RoutePoint {
	return RoutePoint{
		Latitude:    fix.Latitude,
		Longitude:   fix.Longitude,
		TimestampMs: fix.TimestampMs,
	}
}

// Session is the in-memory state of the session being tracked
type Session struct {
	ID            int64
	Type          ActivityType
	Status        Status
	StartTimeMs   int64
	PauseStartMs  *int64
	TotalPausedMs int64
	DistanceKm    float64
	Route         []RoutePoint
}

// ActivitySummary is the result of finalizing a session
type ActivitySummary struct {
	SessionID       int64        `json:"sessionId"`
	DistanceKm      float64      `json:"distanceKm"`
	DurationSeconds float64      `json:"durationSeconds"`
	AvgSpeedKmh     float64      `json:"avgSpeedKmh"`
	Polyline        []RoutePoint `json:"polyline"`
}

// NewActivitySummary derives the average speed from distance and duration
func NewActivitySummary(sessionID int64, distanceKm, durationSeconds float64, polyline []RoutePoint) ActivitySummary {
	return ActivitySummary{
		SessionID:       sessionID,
		DistanceKm:      distanceKm,
		DurationSeconds: durationSeconds,
		AvgSpeedKmh:     AverageSpeedKmh(distanceKm, durationSeconds),
		Polyline:        polyline,
	}
}

// AverageSpeedKmh returns km/h, or 0 for a non-positive duration
func AverageSpeedKmh(distanceKm, durationSeconds float64) float64 {
	if durationSeconds > 0 {
		return distanceKm / durationSeconds * 3600
	}
	return 0
}

// Activity is a persisted session row
type Activity struct {
	ID              int64           `json:"id"`
	Type            ActivityType    `json:"type"`
	StartTimeMs     int64           `json:"startTime"`
	EndTimeMs       *int64          `json:"endTime,omitempty"`
	DurationSeconds float64         `json:"durationSeconds"`
	DistanceKm      float64         `json:"distanceKm"`
	AvgSpeedKmh     float64         `json:"avgSpeedKmh"`
	PointCount      int64           `json:"pointCount"`
	Polyline        []RoutePoint    `json:"polyline,omitempty"`
	Region          *spatial.Region `json:"region,omitempty"`
}

// Finalized reports whether the activity has been stopped
func (a Activity) Finalized() bool {
	return a.EndTimeMs != nil
}

// RouteRegion returns the map viewport framing the polyline
func (a Activity) RouteRegion() spatial.Region {
	points := make([]spatial.Point, len(a.Polyline))
	for i, p := range a.Polyline {
		points[i] = spatial.Point{Lat: p.Latitude, Lon: p.Longitude}
	}
	return spatial.RegionFor(points)
}

// Summary projects the activity onto its finalization summary
func (a Activity) Summary() ActivitySummary {
	return ActivitySummary{
		SessionID:       a.ID,
		DistanceKm:      a.DistanceKm,
		DurationSeconds: a.DurationSeconds,
		AvgSpeedKmh:     a.AvgSpeedKmh,
		Polyline:        a.Polyline,
	}
}
