// Package location adapts externally pushed fixes to the tracking engine's
// LocationSource and PermissionChecker capabilities.
package location

import (
	"context"
	"errors"
	"sync"

	"github.com/jengzang/activity-tracker-go/internal/models"
	"github.com/jengzang/activity-tracker-go/internal/tracking"
	"github.com/rs/zerolog"
)

// ErrBackpressure is returned when the subscriber has not drained earlier batches
var ErrBackpressure = errors.New("location buffer full")

// Config configures a PushSource
type Config struct {
	Buffer            int
	ForegroundGranted bool
	BackgroundGranted bool
}

// PushSource is a LocationSource fed by Push calls (e.g. an HTTP endpoint
// receiving batches from a device). Only the latest subscriber receives batches.
type PushSource struct {
	cfg    Config
	logger zerolog.Logger

	mu      sync.Mutex
	sub     chan []models.LocationFix
	options tracking.SubscribeConfig
}

// NewPushSource creates a source with no subscriber
func NewPushSource(cfg Config, logger zerolog.Logger) *PushSource {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 64
	}
	return &PushSource{
		cfg:    cfg,
		logger: logger.With().Str("component", "location-source").Logger(),
	}
}

// Subscribe replaces any previous subscriber. The channel closes when ctx ends.
func (s *PushSource) Subscribe(ctx context.Context, opts tracking.SubscribeConfig) (<-chan []models.LocationFix, error) {
	ch := make(chan []models.LocationFix, s.cfg.Buffer)

	s.mu.Lock()
	if s.sub != nil {
		close(s.sub)
	}
	s.sub = ch
	s.options = opts
	s.mu.Unlock()

	s.logger.Info().
		Str("accuracy", opts.Accuracy).
		Int64("min_interval_ms", opts.MinIntervalMs).
		Float64("min_distance_m", opts.MinDistanceMeters).
		Msg("Location updates requested")

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.sub == ch {
			close(ch)
			s.sub = nil
			s.logger.Info().Msg("Location updates stopped")
		}
	}()

	return ch, nil
}

// Push hands a batch to the current subscriber. It reports false without
// error when nobody is subscribed; such fixes are dropped, as they would be
// by an idle engine.
func (s *PushSource) Push(batch []models.LocationFix) (bool, error) {
	if len(batch) == 0 {
		return false, nil
	}
	cp := make([]models.LocationFix, len(batch))
	copy(cp, batch)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub == nil {
		return false, nil
	}

	select {
	case s.sub <- cp:
		return true, nil
	default:
		return false, ErrBackpressure
	}
}

// Subscribed reports whether a subscriber is attached
func (s *PushSource) Subscribed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sub != nil
}

// Options returns the configuration requested by the current subscriber
func (s *PushSource) Options() tracking.SubscribeConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.options
}

// RequestForegroundPermission reports the configured foreground grant
func (s *PushSource) RequestForegroundPermission(context.Context) (bool, error) {
	return s.cfg.ForegroundGranted, nil
}

// RequestBackgroundPermission reports the configured background grant
func (s *PushSource) RequestBackgroundPermission(context.Context) (bool, error) {
	return s.cfg.BackgroundGranted, nil
}
