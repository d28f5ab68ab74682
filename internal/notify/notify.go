// Package notify renders the ongoing tracking notification and dispatches
// its action buttons to the coordinator.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/jengzang/activity-tracker-go/internal/models"
	"github.com/jengzang/activity-tracker-go/internal/tracking"
	"github.com/rs/zerolog"
)

// ErrUnknownAction is returned for action ids other than pause, resume and stop
var ErrUnknownAction = errors.New("unknown notification action")

// Action ids carried by notification buttons
const (
	ActionPause  = "pause"
	ActionResume = "resume"
	ActionStop   = "stop"
)

// Commander is the subset of the coordinator driven by notification buttons
type Commander interface {
	Pause(ctx context.Context) (bool, error)
	Resume(ctx context.Context) (bool, error)
	Stop(ctx context.Context) (*models.ActivitySummary, error)
}

// Button is one action shown on the notification
type Button struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	OpensApp bool   `json:"opensApp"`
}

// Content is the ongoing notification for the current snapshot
type Content struct {
	Visible bool     `json:"visible"`
	Title   string   `json:"title,omitempty"`
	Body    string   `json:"body,omitempty"`
	Sticky  bool     `json:"sticky"`
	Actions []Button `json:"actions,omitempty"`
}

// Render builds the notification for s. Nothing is shown while idle.
func Render(s tracking.Snapshot) Content {
	if !s.IsTracking {
		return Content{}
	}

	title := "Tracking"
	toggle := Button{ID: ActionPause, Label: "Pause"}
	if s.IsPaused {
		title = "Tracking (paused)"
		toggle = Button{ID: ActionResume, Label: "Resume"}
	}

	return Content{
		Visible: true,
		Title:   title,
		Body:    fmt.Sprintf("%.2f km • %s", s.DistanceKm, FormatDuration(s.ElapsedMs)),
		Sticky:  true,
		Actions: []Button{toggle, {ID: ActionStop, Label: "Finish", OpensApp: true}},
	}
}

// FormatDuration renders elapsed milliseconds as "Xm Ys". Minutes wrap at the hour.
func FormatDuration(ms int64) string {
	totalSeconds := ms / 1000
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	return fmt.Sprintf("%dm %ds", (totalSeconds%3600)/60, totalSeconds%60)
}

// Result reports the outcome of a dispatched action
type Result struct {
	Action  string                  `json:"action"`
	Applied bool                    `json:"applied"`
	Summary *models.ActivitySummary `json:"summary,omitempty"`
}

// Dispatcher routes notification actions to the coordinator
type Dispatcher struct {
	commander Commander
	logger    zerolog.Logger
}

// NewDispatcher creates a dispatcher over commander
func NewDispatcher(commander Commander, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		commander: commander,
		logger:    logger.With().Str("component", "notify").Logger(),
	}
}

// Handle runs the command behind action. Actions that do not apply to the
// current state are no-ops reported with Applied false.
func (d *Dispatcher) Handle(ctx context.Context, action string) (Result, error) {
	result := Result{Action: action}

	var err error
	switch action {
	case ActionPause:
		result.Applied, err = d.commander.Pause(ctx)
	case ActionResume:
		result.Applied, err = d.commander.Resume(ctx)
	case ActionStop:
		result.Summary, err = d.commander.Stop(ctx)
		result.Applied = result.Summary != nil
	default:
		return result, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	if err != nil {
		d.logger.Error().Err(err).Str("action", action).Msg("Notification action failed")
		return result, err
	}

	d.logger.Debug().Str("action", action).Bool("applied", result.Applied).Msg("Notification action handled")
	return result, nil
}
