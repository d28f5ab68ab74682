package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jengzang/activity-tracker-go/internal/database"
	"github.com/jengzang/activity-tracker-go/internal/models"
)

// ErrActivityNotFound is returned when no activity row matches the id
var ErrActivityNotFound = errors.New("activity not found")

// ActivityRepository handles database operations for activities and their points
type ActivityRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db, now: time.Now}
}

// CreateSession inserts an open activity row and returns its id
func (r *ActivityRepository) CreateSession(ctx context.Context, activityType models.ActivityType) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO activities (type, start_time) VALUES (?, ?)",
		string(activityType), r.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to create activity: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get activity id: %w", err)
	}
	return id, nil
}

// AppendPoint stores one accepted fix for the activity
func (r *ActivityRepository) AppendPoint(ctx context.Context, sessionID int64, fix models.LocationFix) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO location_points (activity_id, latitude, longitude, timestamp, speed, accuracy)
		VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, fix.Latitude, fix.Longitude, fix.TimestampMs, nullFloat(fix.Speed), nullFloat(fix.Accuracy))
	if err != nil {
		return fmt.Errorf("failed to append point: %w", err)
	}
	return nil
}

// FinalizeSession closes the activity with its totals and route
func (r *ActivityRepository) FinalizeSession(ctx context.Context, sessionID int64, distanceKm, durationSeconds float64, route []models.RoutePoint) (*models.ActivitySummary, error) {
	if route == nil {
		route = []models.RoutePoint{}
	}
	polyline, err := json.Marshal(route)
	if err != nil {
		return nil, fmt.Errorf("failed to encode polyline: %w", err)
	}

	summary := models.NewActivitySummary(sessionID, distanceKm, durationSeconds, route)

	result, err := r.db.ExecContext(ctx,
		`UPDATE activities
		SET end_time = ?, duration = ?, distance = ?, avg_speed = ?, polyline_json = ?
		WHERE id = ?`,
		r.now().UnixMilli(), durationSeconds, distanceKm, summary.AvgSpeedKmh, string(polyline), sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to finalize activity: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, ErrActivityNotFound
	}

	return &summary, nil
}

// GetSessions returns finalized activities, newest first, without polylines
func (r *ActivityRepository) GetSessions(ctx context.Context) ([]models.Activity, error) {
	query := `SELECT a.id, a.type, a.start_time, a.end_time, a.duration, a.distance, a.avg_speed,
		(SELECT COUNT(*) FROM location_points p WHERE p.activity_id = a.id)
		FROM activities a
		WHERE a.end_time IS NOT NULL
		ORDER BY a.start_time DESC, a.id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	activities := []models.Activity{}
	for rows.Next() {
		var a models.Activity
		var activityType string
		var endTime sql.NullInt64
		if err := rows.Scan(&a.ID, &activityType, &a.StartTimeMs, &endTime,
			&a.DurationSeconds, &a.DistanceKm, &a.AvgSpeedKmh, &a.PointCount); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		a.Type = models.ActivityType(activityType)
		if endTime.Valid {
			a.EndTimeMs = &endTime.Int64
		}
		activities = append(activities, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activities: %w", err)
	}
	return activities, nil
}

// GetSession returns one activity, finalized or not, with its polyline
func (r *ActivityRepository) GetSession(ctx context.Context, sessionID int64) (*models.Activity, error) {
	query := `SELECT a.id, a.type, a.start_time, a.end_time, a.duration, a.distance, a.avg_speed,
		a.polyline_json,
		(SELECT COUNT(*) FROM location_points p WHERE p.activity_id = a.id)
		FROM activities a
		WHERE a.id = ?`

	var a models.Activity
	var activityType string
	var endTime sql.NullInt64
	var polyline sql.NullString
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(&a.ID, &activityType, &a.StartTimeMs, &endTime,
		&a.DurationSeconds, &a.DistanceKm, &a.AvgSpeedKmh, &polyline, &a.PointCount)
	if err == sql.ErrNoRows {
		return nil, ErrActivityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}

	a.Type = models.ActivityType(activityType)
	if endTime.Valid {
		a.EndTimeMs = &endTime.Int64
	}
	if polyline.Valid && polyline.String != "" {
		if err := json.Unmarshal([]byte(polyline.String), &a.Polyline); err != nil {
			return nil, fmt.Errorf("failed to decode polyline: %w", err)
		}
	}
	return &a, nil
}

// DeleteSession removes the activity and its points
func (r *ActivityRepository) DeleteSession(ctx context.Context, sessionID int64) error {
	return database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM location_points WHERE activity_id = ?", sessionID); err != nil {
			return fmt.Errorf("failed to delete points: %w", err)
		}

		result, err := tx.ExecContext(ctx, "DELETE FROM activities WHERE id = ?", sessionID)
		if err != nil {
			return fmt.Errorf("failed to delete activity: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return ErrActivityNotFound
		}
		return nil
	})
}

// GetStats aggregates totals over finalized activities
func (r *ActivityRepository) GetStats(ctx context.Context) (*models.GlobalStats, error) {
	var stats models.GlobalStats
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(distance), 0), COALESCE(SUM(duration), 0)
		FROM activities WHERE end_time IS NOT NULL`,
	).Scan(&stats.TotalActivities, &stats.TotalDistanceKm, &stats.TotalDurationSeconds)
	if err != nil {
		return nil, fmt.Errorf("failed to get activity stats: %w", err)
	}
	return &stats, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
