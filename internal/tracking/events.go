package tracking

import (
	"sync"

	"github.com/google/uuid"
	"github.com/jengzang/activity-tracker-go/internal/metrics"
	"github.com/jengzang/activity-tracker-go/internal/models"
)

// EventKind names what happened to the session
type EventKind string

const (
	EventLocationsUpdated EventKind = "locations_updated"
	EventSessionStarted   EventKind = "session_started"
	EventSessionPaused    EventKind = "session_paused"
	EventSessionResumed   EventKind = "session_resumed"
	EventSessionStopped   EventKind = "session_stopped"
	EventSessionAborted   EventKind = "session_aborted"
)

// Event is published after a state change or an accepted fix.
type Event struct {
	Kind      EventKind            `json:"kind"`
	SessionID int64                `json:"sessionId"`
	Fixes     []models.LocationFix `json:"fixes,omitempty"`
	Snapshot  Snapshot             `json:"snapshot"`
	AtMs      int64                `json:"at"`
}

// Snapshot is a point-in-time copy of the session as observers see it
type Snapshot struct {
	SessionID  int64               `json:"sessionId,omitempty"`
	Type       models.ActivityType `json:"type,omitempty"`
	Status     models.Status       `json:"status"`
	IsTracking bool                `json:"isTracking"`
	IsPaused   bool                `json:"isPaused"`
	DistanceKm float64             `json:"distanceKm"`
	ElapsedMs  int64               `json:"elapsedMs"`
	PointCount int                 `json:"pointCount"`
}

// Broker fans events out to subscribers.
//
// Delivery is at-most-once with no replay: a subscriber whose buffer is full
// misses the event. Subscribers reconcile through snapshot accessors.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]*Subscription
}

// Subscription receives events on C until Close is called
type Subscription struct {
	ID string
	C  <-chan Event

	ch     chan Event
	broker *Broker
	once   sync.Once
}

// NewBroker creates an empty broker
func NewBroker() *Broker {
	return &Broker{subs: make(map[string]*Subscription)}
}

// Subscribe registers a subscriber. buffer may be zero, in which case only a
// receiver blocked on C at publish time gets the event.
func (b *Broker) Subscribe(buffer int) *Subscription {
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan Event, buffer)
	sub := &Subscription{
		ID:     uuid.NewString(),
		C:      ch,
		ch:     ch,
		broker: b,
	}

	b.mu.Lock()
	b.subs[sub.ID] = sub
	b.mu.Unlock()
	return sub
}

// Close unregisters the subscription and closes C
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.broker.mu.Lock()
		delete(s.broker.subs, s.ID)
		close(s.ch)
		s.broker.mu.Unlock()
	})
}

// Publish delivers ev to every subscriber that can take it without blocking
func (b *Broker) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		select {
		case sub.ch <- ev:
		default:
			metrics.EventsDropped.Inc()
		}
	}
}

// Len returns the number of live subscriptions
func (b *Broker) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
