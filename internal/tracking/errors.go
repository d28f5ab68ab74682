package tracking

import (
	"errors"
	"fmt"

	"github.com/jengzang/activity-tracker-go/internal/models"
)

var (
	// ErrForegroundPermissionDenied aborts Start before a session is created
	ErrForegroundPermissionDenied = errors.New("foreground location permission denied")

	// ErrBackgroundPermissionDenied aborts Start before a session is created
	ErrBackgroundPermissionDenied = errors.New("background location permission denied")

	// ErrPersistenceWriteFailed wraps failures of the persistence gateway
	ErrPersistenceWriteFailed = errors.New("persistence write failed")

	// ErrSourceUnavailable is returned when the location source cannot be subscribed
	ErrSourceUnavailable = errors.New("location source unavailable")

	// ErrCoordinatorClosed is returned for commands sent after Close
	ErrCoordinatorClosed = errors.New("coordinator closed")
)

// FinalizeError reports a failed finalization. The engine is already back
// to idle; Summary holds the aggregated values so the caller can retry.
type FinalizeError struct {
	Summary models.ActivitySummary
	Err     error
}

func (e *FinalizeError) Error() string {
	return fmt.Sprintf("finalize session %d: %v: %v", e.Summary.SessionID, ErrPersistenceWriteFailed, e.Err)
}

func (e *FinalizeError) Unwrap() []error {
	return []error{ErrPersistenceWriteFailed, e.Err}
}
