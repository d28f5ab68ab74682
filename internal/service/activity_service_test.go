package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jengzang/activity-tracker-go/internal/database"
	"github.com/jengzang/activity-tracker-go/internal/models"
	"github.com/jengzang/activity-tracker-go/internal/repository"
	"github.com/jengzang/activity-tracker-go/internal/tracking"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSession struct {
	snap tracking.Snapshot
}

func (f *fixedSession) Snapshot() tracking.Snapshot {
	return f.snap
}

func newTestService(t *testing.T) (*ActivityService, *repository.ActivityRepository) {
	return newLiveTestService(t, nil)
}

func newLiveTestService(t *testing.T, live LiveSession) (*ActivityService, *repository.ActivityRepository) {
	t.Helper()
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "activities.db")}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := repository.NewActivityRepository(db)
	svc, err := NewActivityService(repo, live, 8, zerolog.Nop())
	require.NoError(t, err)
	return svc, repo
}

func finalized(t *testing.T, repo *repository.ActivityRepository, distanceKm float64) int64 {
	t.Helper()
	ctx := context.Background()
	id, err := repo.CreateSession(ctx, models.ActivityRun)
	require.NoError(t, err)
	_, err = repo.FinalizeSession(ctx, id, distanceKm, 60, []models.RoutePoint{{Latitude: 1, Longitude: 2, TimestampMs: 3}})
	require.NoError(t, err)
	return id
}

func TestGetCachesFinalized(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	id := finalized(t, repo, 2)

	first, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, svc.cache.Len())

	second, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Same(t, first, second)

	require.NotNil(t, first.Region)
	assert.Equal(t, 1.0, first.Region.Latitude)
	assert.Equal(t, 2.0, first.Region.Longitude)
}

func TestGetDoesNotCacheOpen(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	id, err := repo.CreateSession(ctx, models.ActivityWalk)
	require.NoError(t, err)

	activity, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, activity.Finalized())
	assert.Zero(t, svc.cache.Len())
}

func TestGetMissing(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Get(context.Background(), 99)
	assert.ErrorIs(t, err, repository.ErrActivityNotFound)
}

func TestDeleteEvictsCache(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	id := finalized(t, repo, 1)

	_, err := svc.Get(ctx, id)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, id))
	assert.Zero(t, svc.cache.Len())

	_, err = svc.Get(ctx, id)
	assert.ErrorIs(t, err, repository.ErrActivityNotFound)
}

func TestDeleteLiveSession(t *testing.T) {
	ctx := context.Background()
	live := &fixedSession{}
	svc, repo := newLiveTestService(t, live)
	id, err := repo.CreateSession(ctx, models.ActivityRun)
	require.NoError(t, err)
	live.snap = tracking.Snapshot{SessionID: id, Status: models.StatusActive, IsTracking: true}

	assert.ErrorIs(t, svc.Delete(ctx, id), ErrActivityInProgress)

	_, err = svc.Get(ctx, id)
	assert.NoError(t, err)
}

func TestDeleteOrphanedOpenRow(t *testing.T) {
	ctx := context.Background()
	live := &fixedSession{}
	svc, repo := newLiveTestService(t, live)
	orphan, err := repo.CreateSession(ctx, models.ActivityRun)
	require.NoError(t, err)
	current, err := repo.CreateSession(ctx, models.ActivityWalk)
	require.NoError(t, err)
	live.snap = tracking.Snapshot{SessionID: current, Status: models.StatusPaused, IsTracking: true, IsPaused: true}

	require.NoError(t, svc.Delete(ctx, orphan))
	_, err = svc.Get(ctx, orphan)
	assert.ErrorIs(t, err, repository.ErrActivityNotFound)
}

func TestDeleteOpenRowWithoutLiveSession(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	id, err := repo.CreateSession(ctx, models.ActivityRun)
	require.NoError(t, err)

	assert.NoError(t, svc.Delete(ctx, id))
}

func TestListAndStats(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	finalized(t, repo, 1.25)
	finalized(t, repo, 2.5)

	activities, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, activities, 2)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalActivities)
	assert.InDelta(t, 3.75, stats.TotalDistanceKm, 1e-9)
	assert.InDelta(t, 120, stats.TotalDurationSeconds, 1e-9)
}
