package tracking

import (
	"context"
	"fmt"
	"time"

	"github.com/jengzang/activity-tracker-go/internal/metrics"
	"github.com/jengzang/activity-tracker-go/internal/models"
	"github.com/rs/zerolog"
)

// DefaultPersistTimeout bounds a single per-point write
const DefaultPersistTimeout = 2 * time.Second

// Options configures a Machine
type Options struct {
	MinDistanceMeters float64
	PersistTimeout    time.Duration
	Clock             Clock
	Broker            *Broker
}

// Machine owns the lifecycle of the single tracked session.
//
// Machine is not safe for concurrent use; the Coordinator is its only caller.
type Machine struct {
	gateway        PersistenceGateway
	permissions    PermissionChecker
	filter         PointFilter
	clock          Clock
	broker         *Broker
	persistTimeout time.Duration
	logger         zerolog.Logger

	status  models.Status
	session *models.Session
	acc     DistanceAccumulator
}

// NewMachine creates an idle state machine. A nil permissions checker grants everything.
func NewMachine(gateway PersistenceGateway, permissions PermissionChecker, opts Options, logger zerolog.Logger) *Machine {
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = DefaultPersistTimeout
	}

	return &Machine{
		gateway:        gateway,
		permissions:    permissions,
		filter:         NewPointFilter(opts.MinDistanceMeters),
		clock:          opts.Clock,
		broker:         opts.Broker,
		persistTimeout: opts.PersistTimeout,
		logger:         logger.With().Str("component", "session-machine").Logger(),
		status:         models.StatusIdle,
	}
}

// Status returns the current lifecycle state
func (m *Machine) Status() models.Status {
	return m.status
}

// Start creates a session and begins tracking. It is a no-op (false, nil)
// unless the machine is idle. Permission errors leave the machine idle.
func (m *Machine) Start(ctx context.Context, activityType models.ActivityType) (bool, error) {
	if m.status != models.StatusIdle {
		m.logger.Debug().Str("status", string(m.status)).Msg("Start ignored, session already running")
		return false, nil
	}
	if !activityType.Valid() {
		return false, fmt.Errorf("%w: %q", models.ErrInvalidActivityType, activityType)
	}

	if err := m.checkPermissions(ctx); err != nil {
		return false, err
	}

	id, err := m.gateway.CreateSession(ctx, activityType)
	if err != nil {
		metrics.PersistenceFailures.WithLabelValues("create").Inc()
		return false, fmt.Errorf("create session: %w: %w", ErrPersistenceWriteFailed, err)
	}

	m.acc.Reset()
	m.session = &models.Session{
		ID:          id,
		Type:        activityType,
		Status:      models.StatusActive,
		StartTimeMs: m.nowMs(),
		Route:       []models.RoutePoint{},
	}
	m.setStatus(models.StatusActive)
	metrics.SessionTransitions.WithLabelValues("start").Inc()
	metrics.SessionActive.Set(1)

	m.logger.Info().
		Int64("session_id", id).
		Str("type", string(activityType)).
		Msg("Tracking started")

	m.publish(EventSessionStarted, nil)
	return true, nil
}

func (m *Machine) checkPermissions(ctx context.Context) error {
	if m.permissions == nil {
		return nil
	}

	granted, err := m.permissions.RequestForegroundPermission(ctx)
	if err != nil {
		return fmt.Errorf("request foreground permission: %w", err)
	}
	if !granted {
		return ErrForegroundPermissionDenied
	}

	granted, err = m.permissions.RequestBackgroundPermission(ctx)
	if err != nil {
		return fmt.Errorf("request background permission: %w", err)
	}
	if !granted {
		return ErrBackgroundPermissionDenied
	}
	return nil
}

// Ingest evaluates one fix. It returns true when the fix was added to the route.
// Fixes arriving while not active are dropped, not buffered.
func (m *Machine) Ingest(ctx context.Context, fix models.LocationFix) bool {
	metrics.FixesReceived.Inc()
	if m.status != models.StatusActive {
		metrics.FixesDropped.WithLabelValues(string(m.status)).Inc()
		return false
	}

	var last *models.RoutePoint
	if n := len(m.session.Route); n > 0 {
		last = &m.session.Route[n-1]
	}
	if !m.filter.Accept(fix, last) {
		metrics.FixesDropped.WithLabelValues("filtered").Inc()
		return false
	}

	point := models.RoutePointFromFix(fix)
	if last != nil {
		m.acc.Add(*last, point)
		m.session.DistanceKm = m.acc.Total()
	}
	m.session.Route = append(m.session.Route, point)
	metrics.FixesAccepted.Inc()

	m.persistPoint(ctx, fix)
	m.publish(EventLocationsUpdated, []models.LocationFix{fix})
	return true
}

// persistPoint writes the raw fix. Failures are logged and swallowed: the
// in-memory route stays authoritative until Stop.
//
// The write runs inline so points land before the session is finalized. A
// slow store therefore delays ingest by up to persistTimeout per accepted fix.
func (m *Machine) persistPoint(ctx context.Context, fix models.LocationFix) {
	writeCtx, cancel := context.WithTimeout(ctx, m.persistTimeout)
	defer cancel()

	if err := m.gateway.AppendPoint(writeCtx, m.session.ID, fix); err != nil {
		metrics.PersistenceFailures.WithLabelValues("append").Inc()
		m.logger.Error().
			Err(fmt.Errorf("%w: %w", ErrPersistenceWriteFailed, err)).
			Int64("session_id", m.session.ID).
			Int64("timestamp", fix.TimestampMs).
			Msg("Failed to persist location point")
	}
}

// Pause freezes the elapsed time. No-op unless active.
func (m *Machine) Pause() bool {
	if m.status != models.StatusActive {
		return false
	}

	now := m.nowMs()
	m.session.PauseStartMs = &now
	m.setStatus(models.StatusPaused)
	metrics.SessionTransitions.WithLabelValues("pause").Inc()

	m.logger.Info().Int64("session_id", m.session.ID).Msg("Tracking paused")
	m.publish(EventSessionPaused, nil)
	return true
}

// Resume adds the paused interval to the paused total. No-op unless paused.
func (m *Machine) Resume() bool {
	if m.status != models.StatusPaused {
		return false
	}

	now := m.nowMs()
	if m.session.PauseStartMs != nil {
		m.session.TotalPausedMs += now - *m.session.PauseStartMs
	}
	m.session.PauseStartMs = nil
	m.setStatus(models.StatusActive)
	metrics.SessionTransitions.WithLabelValues("resume").Inc()

	m.logger.Info().
		Int64("session_id", m.session.ID).
		Int64("total_paused_ms", m.session.TotalPausedMs).
		Msg("Tracking resumed")
	m.publish(EventSessionResumed, nil)
	return true
}

// Stop finalizes the session and returns the machine to idle.
//
// From idle it returns (nil, nil) without touching the gateway. A finalize
// failure is returned as *FinalizeError; the machine is idle either way.
func (m *Machine) Stop(ctx context.Context) (*models.ActivitySummary, error) {
	if m.status != models.StatusActive && m.status != models.StatusPaused {
		return nil, nil
	}

	s := m.session
	elapsed := ElapsedMs(m.nowMs(), s.StartTimeMs, s.TotalPausedMs, s.PauseStartMs)
	durationSeconds := float64(elapsed) / 1000
	route := make([]models.RoutePoint, len(s.Route))
	copy(route, s.Route)

	m.setStatus(models.StatusStopped)
	final := m.snapshotAt(m.nowMs())

	summary, err := m.gateway.FinalizeSession(ctx, s.ID, s.DistanceKm, durationSeconds, route)
	m.reset()
	metrics.SessionTransitions.WithLabelValues("stop").Inc()
	metrics.SessionActive.Set(0)

	if err != nil {
		metrics.PersistenceFailures.WithLabelValues("finalize").Inc()
		return nil, &FinalizeError{
			Summary: models.NewActivitySummary(s.ID, s.DistanceKm, durationSeconds, route),
			Err:     err,
		}
	}
	if summary == nil {
		in := models.NewActivitySummary(s.ID, s.DistanceKm, durationSeconds, route)
		summary = &in
	}
	metrics.SessionDistanceKm.Observe(summary.DistanceKm)

	m.logger.Info().
		Int64("session_id", s.ID).
		Float64("distance_km", summary.DistanceKm).
		Float64("duration_s", summary.DurationSeconds).
		Float64("avg_speed_kmh", summary.AvgSpeedKmh).
		Int("points", len(route)).
		Msg("Tracking stopped")

	if m.broker != nil {
		m.broker.Publish(Event{
			Kind:      EventSessionStopped,
			SessionID: s.ID,
			Snapshot:  final,
			AtMs:      m.nowMs(),
		})
	}
	return summary, nil
}

// Abort discards a session that was created but could not start tracking.
// Observers that saw it start receive EventSessionAborted.
func (m *Machine) Abort(ctx context.Context) {
	if m.session == nil {
		return
	}
	id := m.session.ID
	m.setStatus(models.StatusStopped)
	final := m.snapshotAt(m.nowMs())

	if err := m.gateway.DeleteSession(ctx, id); err != nil {
		metrics.PersistenceFailures.WithLabelValues("delete").Inc()
		m.logger.Error().Err(err).Int64("session_id", id).Msg("Failed to discard aborted session")
	}
	m.reset()
	metrics.SessionTransitions.WithLabelValues("abort").Inc()
	metrics.SessionActive.Set(0)
	m.logger.Warn().Int64("session_id", id).Msg("Tracking aborted")

	if m.broker != nil {
		m.broker.Publish(Event{
			Kind:      EventSessionAborted,
			SessionID: id,
			Snapshot:  final,
			AtMs:      m.nowMs(),
		})
	}
}

func (m *Machine) reset() {
	m.session = nil
	m.acc.Reset()
	m.status = models.StatusIdle
}

func (m *Machine) setStatus(status models.Status) {
	m.status = status
	if m.session != nil {
		m.session.Status = status
	}
}

// Snapshot copies the observable state at the current time
func (m *Machine) Snapshot() Snapshot {
	return m.snapshotAt(m.nowMs())
}

func (m *Machine) snapshotAt(nowMs int64) Snapshot {
	return m.view().at(nowMs)
}

// sessionView is an immutable copy of the fields a Snapshot is derived from.
type sessionView struct {
	status        models.Status
	sessionID     int64
	activityType  models.ActivityType
	startMs       int64
	totalPausedMs int64
	pauseStartMs  *int64
	distanceKm    float64
	points        int
}

func (m *Machine) view() sessionView {
	v := sessionView{status: m.status}
	if m.session == nil {
		return v
	}

	s := m.session
	v.sessionID = s.ID
	v.activityType = s.Type
	v.startMs = s.StartTimeMs
	v.totalPausedMs = s.TotalPausedMs
	if s.PauseStartMs != nil {
		pauseStart := *s.PauseStartMs
		v.pauseStartMs = &pauseStart
	}
	v.distanceKm = s.DistanceKm
	v.points = len(s.Route)
	return v
}

func (v sessionView) at(nowMs int64) Snapshot {
	snap := Snapshot{Status: v.status}
	if v.status == models.StatusIdle {
		return snap
	}

	snap.SessionID = v.sessionID
	snap.Type = v.activityType
	snap.IsTracking = v.status == models.StatusActive || v.status == models.StatusPaused
	snap.IsPaused = v.status == models.StatusPaused
	snap.DistanceKm = v.distanceKm
	snap.ElapsedMs = ElapsedMs(nowMs, v.startMs, v.totalPausedMs, v.pauseStartMs)
	snap.PointCount = v.points
	return snap
}

// Route returns a copy of the accepted points
func (m *Machine) Route() []models.RoutePoint {
	if m.session == nil {
		return nil
	}
	route := make([]models.RoutePoint, len(m.session.Route))
	copy(route, m.session.Route)
	return route
}

func (m *Machine) publish(kind EventKind, fixes []models.LocationFix) {
	if m.broker == nil {
		return
	}
	now := m.nowMs()
	m.broker.Publish(Event{
		Kind:      kind,
		SessionID: m.session.ID,
		Fixes:     fixes,
		Snapshot:  m.snapshotAt(now),
		AtMs:      now,
	})
}

func (m *Machine) nowMs() int64 {
	return m.clock.Now().UnixMilli()
}
