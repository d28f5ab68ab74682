package tracking

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jengzang/activity-tracker-go/internal/metrics"
	"github.com/jengzang/activity-tracker-go/internal/models"
	"github.com/rs/zerolog"
)

// Coordinator is the single writer of session state.
//
// Every command runs to completion on one goroutine, in the order it was
// received, so commands from HTTP handlers, notification actions and batches
// from the location source never interleave. Batches already buffered by the
// source are applied before the next command runs.
type Coordinator struct {
	machine   *Machine
	source    LocationSource
	subscribe SubscribeConfig
	clock     Clock
	logger    zerolog.Logger

	commands  chan command
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	// view is republished after every command for lock-free polling
	view atomic.Pointer[sessionView]

	// owned by the loop goroutine
	cancelPump context.CancelFunc
	batches    <-chan []models.LocationFix
}

type command struct {
	name string
	run  func()
	done chan struct{}
}

// NewCoordinator starts the command loop. source may be nil when fixes are
// only delivered through IngestBatch.
func NewCoordinator(machine *Machine, source LocationSource, cfg SubscribeConfig, logger zerolog.Logger) *Coordinator {
	c := &Coordinator{
		machine:   machine,
		source:    source,
		subscribe: cfg,
		clock:     machine.clock,
		logger:    logger.With().Str("component", "coordinator").Logger(),
		commands:  make(chan command),
		done:      make(chan struct{}),
	}
	v := machine.view()
	c.view.Store(&v)

	c.wg.Add(1)
	go c.loop()
	return c
}

func (c *Coordinator) loop() {
	defer c.wg.Done()
	for {
		select {
		case cmd := <-c.commands:
			c.drainPending()
			c.execute(cmd.name, cmd.run)
			close(cmd.done)
		case batch, ok := <-c.batches:
			if !ok {
				c.batches = nil
				continue
			}
			c.execute("ingest", func() { c.ingest(context.Background(), batch) })
		case <-c.done:
			if c.cancelPump != nil {
				c.cancelPump()
				c.cancelPump = nil
			}
			return
		}
	}
}

func (c *Coordinator) execute(name string, fn func()) {
	start := time.Now()
	fn()
	v := c.machine.view()
	c.view.Store(&v)
	metrics.CommandDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}

func (c *Coordinator) ingest(ctx context.Context, fixes []models.LocationFix) int {
	var accepted int
	for _, fix := range fixes {
		if c.machine.Ingest(ctx, fix) {
			accepted++
		}
	}
	return accepted
}

// drainPending applies the batches the source has already buffered without
// waiting for more.
func (c *Coordinator) drainPending() {
	for c.batches != nil {
		select {
		case batch, ok := <-c.batches:
			if !ok {
				c.batches = nil
				return
			}
			c.ingest(context.Background(), batch)
		default:
			return
		}
	}
}

// do queues fn and waits for it to finish. Once accepted, a command always
// runs to completion even if ctx ends meanwhile.
func (c *Coordinator) do(ctx context.Context, name string, fn func()) error {
	cmd := command{name: name, run: fn, done: make(chan struct{})}
	select {
	case c.commands <- cmd:
	case <-c.done:
		return ErrCoordinatorClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	<-cmd.done
	return nil
}

// Start begins a new session and subscribes to the location source.
// It returns false without error when a session is already running.
func (c *Coordinator) Start(ctx context.Context, activityType models.ActivityType) (bool, error) {
	var (
		started bool
		err     error
	)
	qerr := c.do(ctx, "start", func() {
		started, err = c.machine.Start(ctx, activityType)
		if err != nil || !started {
			return
		}
		if perr := c.startPump(); perr != nil {
			c.machine.Abort(ctx)
			started, err = false, perr
		}
	})
	if qerr != nil {
		return false, qerr
	}
	return started, err
}

// Pause pauses the running session
func (c *Coordinator) Pause(ctx context.Context) (bool, error) {
	var paused bool
	err := c.do(ctx, "pause", func() {
		paused = c.machine.Pause()
	})
	return paused, err
}

// Resume resumes a paused session
func (c *Coordinator) Resume(ctx context.Context) (bool, error) {
	var resumed bool
	err := c.do(ctx, "resume", func() {
		resumed = c.machine.Resume()
	})
	return resumed, err
}

// Stop finalizes the session. It returns (nil, nil) when nothing is tracked.
func (c *Coordinator) Stop(ctx context.Context) (*models.ActivitySummary, error) {
	var (
		summary *models.ActivitySummary
		err     error
	)
	qerr := c.do(ctx, "stop", func() {
		c.stopPump()
		summary, err = c.machine.Stop(ctx)
	})
	if qerr != nil {
		return nil, qerr
	}
	return summary, err
}

// IngestBatch applies each fix in order and returns how many were accepted.
func (c *Coordinator) IngestBatch(ctx context.Context, fixes []models.LocationFix) (int, error) {
	var accepted int
	err := c.do(ctx, "ingest", func() {
		accepted = c.ingest(ctx, fixes)
	})
	return accepted, err
}

// Route returns a copy of the accepted points of the running session
func (c *Coordinator) Route(ctx context.Context) ([]models.RoutePoint, error) {
	var route []models.RoutePoint
	err := c.do(ctx, "route", func() {
		route = c.machine.Route()
	})
	return route, err
}

// Snapshot returns the state as of the last completed command, with the
// elapsed time evaluated now. It never waits behind queued commands.
func (c *Coordinator) Snapshot() Snapshot {
	return c.view.Load().at(c.clock.Now().UnixMilli())
}

// IsTracking reports whether a session is active or paused
func (c *Coordinator) IsTracking() bool {
	return c.Snapshot().IsTracking
}

// IsPaused reports whether the session is paused
func (c *Coordinator) IsPaused() bool {
	return c.Snapshot().IsPaused
}

// CurrentDistanceKm returns the distance accumulated so far
func (c *Coordinator) CurrentDistanceKm() float64 {
	return c.Snapshot().DistanceKm
}

// ElapsedMs returns the active time of the session, 0 when idle
func (c *Coordinator) ElapsedMs() int64 {
	return c.Snapshot().ElapsedMs
}

// Close stops the command loop and the location pump
func (c *Coordinator) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
	c.wg.Wait()
}

// startPump subscribes to the source. The loop receives its batches.
// Must run on the loop goroutine.
func (c *Coordinator) startPump() error {
	if c.source == nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	batches, err := c.source.Subscribe(ctx, c.subscribe)
	if err != nil {
		cancel()
		return fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	c.cancelPump = cancel
	c.batches = batches

	c.logger.Debug().
		Str("accuracy", c.subscribe.Accuracy).
		Int64("min_interval_ms", c.subscribe.MinIntervalMs).
		Float64("min_distance_m", c.subscribe.MinDistanceMeters).
		Msg("Subscribed to location source")
	return nil
}

// stopPump cancels the subscription and applies every batch the source
// accepted before its channel closed. Must run on the loop goroutine.
func (c *Coordinator) stopPump() {
	if c.cancelPump == nil {
		return
	}
	c.cancelPump()
	c.cancelPump = nil

	drained := 0
	if c.batches != nil {
		for batch := range c.batches {
			drained += len(batch)
			c.ingest(context.Background(), batch)
		}
		c.batches = nil
	}

	if drained > 0 {
		c.logger.Debug().Int("fixes", drained).Msg("Applied buffered fixes before stop")
	}
}
