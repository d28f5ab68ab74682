package service

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jengzang/activity-tracker-go/internal/models"
	"github.com/jengzang/activity-tracker-go/internal/repository"
	"github.com/jengzang/activity-tracker-go/internal/tracking"
	"github.com/rs/zerolog"
)

// ErrActivityInProgress is returned when deleting the activity currently being tracked
var ErrActivityInProgress = errors.New("activity is still in progress")

// LiveSession reports the session being tracked right now
type LiveSession interface {
	Snapshot() tracking.Snapshot
}

// ActivityService handles business logic for the activity history
type ActivityService struct {
	repo   *repository.ActivityRepository
	live   LiveSession
	cache  *lru.Cache[int64, *models.Activity]
	logger zerolog.Logger
}

// NewActivityService creates a new activity service with a read cache of
// cacheSize entries. live may be nil when nothing is tracked in this process.
func NewActivityService(repo *repository.ActivityRepository, live LiveSession, cacheSize int, logger zerolog.Logger) (*ActivityService, error) {
	cache, err := lru.New[int64, *models.Activity](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create activity cache: %w", err)
	}
	return &ActivityService{
		repo:   repo,
		live:   live,
		cache:  cache,
		logger: logger.With().Str("component", "activity-service").Logger(),
	}, nil
}

// List returns finalized activities, newest first
func (s *ActivityService) List(ctx context.Context) ([]models.Activity, error) {
	return s.repo.GetSessions(ctx)
}

// Get returns one activity with its polyline. Finalized activities are cached.
func (s *ActivityService) Get(ctx context.Context, id int64) (*models.Activity, error) {
	if activity, ok := s.cache.Get(id); ok {
		s.logger.Debug().Int64("activity_id", id).Msg("Activity cache hit")
		return activity, nil
	}

	activity, err := s.repo.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	region := activity.RouteRegion()
	activity.Region = &region

	if activity.Finalized() {
		s.cache.Add(id, activity)
	}
	return activity, nil
}

// Delete removes an activity and its points. Rows left open by a crash or a
// failed finalize can be deleted; only the live session is refused.
func (s *ActivityService) Delete(ctx context.Context, id int64) error {
	if s.live != nil {
		if snap := s.live.Snapshot(); snap.IsTracking && snap.SessionID == id {
			return ErrActivityInProgress
		}
	}

	if err := s.repo.DeleteSession(ctx, id); err != nil {
		return err
	}
	s.cache.Remove(id)

	s.logger.Info().Int64("activity_id", id).Msg("Activity deleted")
	return nil
}

// Stats returns totals over finalized activities
func (s *ActivityService) Stats(ctx context.Context) (*models.GlobalStats, error) {
	return s.repo.GetStats(ctx)
}
