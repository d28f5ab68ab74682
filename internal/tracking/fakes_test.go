package tracking

import (
	"context"
	"errors"
	"sync"

	"github.com/jengzang/activity-tracker-go/internal/models"
)

type finalizeCall struct {
	sessionID       int64
	distanceKm      float64
	durationSeconds float64
	route           []models.RoutePoint
}

type fakeGateway struct {
	mu sync.Mutex

	nextID    int64
	created   []models.ActivityType
	points    map[int64][]models.LocationFix
	finalized []finalizeCall
	deleted   []int64

	createErr   error
	appendErr   error
	finalizeErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{points: make(map[int64][]models.LocationFix)}
}

func (g *fakeGateway) CreateSession(_ context.Context, t models.ActivityType) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return 0, g.createErr
	}
	g.nextID++
	g.created = append(g.created, t)
	return g.nextID, nil
}

func (g *fakeGateway) AppendPoint(_ context.Context, id int64, fix models.LocationFix) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.appendErr != nil {
		return g.appendErr
	}
	g.points[id] = append(g.points[id], fix)
	return nil
}

func (g *fakeGateway) FinalizeSession(_ context.Context, id int64, distanceKm, durationSeconds float64, route []models.RoutePoint) (*models.ActivitySummary, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.finalized = append(g.finalized, finalizeCall{
		sessionID:       id,
		distanceKm:      distanceKm,
		durationSeconds: durationSeconds,
		route:           route,
	})
	if g.finalizeErr != nil {
		return nil, g.finalizeErr
	}
	s := models.NewActivitySummary(id, distanceKm, durationSeconds, route)
	return &s, nil
}

func (g *fakeGateway) GetSessions(context.Context) ([]models.Activity, error) {
	return nil, nil
}

func (g *fakeGateway) GetSession(context.Context, int64) (*models.Activity, error) {
	return nil, errors.New("not implemented")
}

func (g *fakeGateway) DeleteSession(_ context.Context, id int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deleted = append(g.deleted, id)
	return nil
}

func (g *fakeGateway) createdCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.created)
}

func (g *fakeGateway) pointCount(id int64) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.points[id])
}

func (g *fakeGateway) finalizeCalls() []finalizeCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]finalizeCall(nil), g.finalized...)
}

type fakePermissions struct {
	foreground bool
	background bool
	calls      int
}

func (p *fakePermissions) RequestForegroundPermission(context.Context) (bool, error) {
	p.calls++
	return p.foreground, nil
}

func (p *fakePermissions) RequestBackgroundPermission(context.Context) (bool, error) {
	p.calls++
	return p.background, nil
}

// fakeSource hands the test the channel the coordinator subscribed to.
// Like a real source it closes the channel once the subscription ends.
type fakeSource struct {
	mu        sync.Mutex
	ch        chan []models.LocationFix
	cfg       SubscribeConfig
	err       error
	subscribe int
}

func (s *fakeSource) Subscribe(ctx context.Context, cfg SubscribeConfig) (<-chan []models.LocationFix, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribe++
	if s.err != nil {
		return nil, s.err
	}
	s.cfg = cfg
	ch := make(chan []models.LocationFix, 8)
	s.ch = ch
	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		close(ch)
		if s.ch == ch {
			s.ch = nil
		}
	}()
	return ch, nil
}

// deliver buffers a batch and reports false once the subscription has ended.
func (s *fakeSource) deliver(batch []models.LocationFix) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ch == nil {
		return false
	}
	s.ch <- batch
	return true
}

// gatedGateway blocks AppendPoint until open is called.
type gatedGateway struct {
	*fakeGateway
	entered     chan struct{}
	release     chan struct{}
	once        sync.Once
	releaseOnce sync.Once
}

func newGatedGateway() *gatedGateway {
	return &gatedGateway{
		fakeGateway: newFakeGateway(),
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
}

func (g *gatedGateway) open() {
	g.releaseOnce.Do(func() { close(g.release) })
}

func (g *gatedGateway) AppendPoint(ctx context.Context, id int64, fix models.LocationFix) error {
	g.once.Do(func() { close(g.entered) })
	<-g.release
	return g.fakeGateway.AppendPoint(ctx, id, fix)
}
