package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/auction-engine/internal/domain/auction"
	"github.com/riskibarqy/auction-engine/internal/domain/user"
	"github.com/riskibarqy/auction-engine/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/auction-engine/internal/platform/logging"
)

const testVenue = "venue-1"

var (
	testHost   = user.Principal{UserID: "1", Name: "Host"}
	testOwner1 = user.Principal{UserID: "101", Name: "Owner One"}
	testOwner2 = user.Principal{UserID: "102", Name: "Owner Two"}
	testGuest  = user.Principal{UserID: "555", Name: "Guest"}
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 19, 19, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type captureNotifier struct {
	mu     sync.Mutex
	events []auction.Event
}

func (n *captureNotifier) Notify(_ context.Context, event auction.Event) {
	n.mu.Lock()
	n.events = append(n.events, event)
	n.mu.Unlock()
}

func (n *captureNotifier) count(kind auction.EventType) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	total := 0
	for _, e := range n.events {
		if e.Type == kind {
			total++
		}
	}
	return total
}

func (n *captureNotifier) last(kind auction.EventType) (auction.Event, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.events) - 1; i >= 0; i-- {
		if n.events[i].Type == kind {
			return n.events[i], true
		}
	}
	return auction.Event{}, false
}

type sequenceIDs struct {
	mu sync.Mutex
	n  int
}

func (g *sequenceIDs) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("run-%d", g.n), nil
}

type testHarness struct {
	svc      *AuctionService
	store    *memory.SessionStore
	clock    *fakeClock
	notifier *captureNotifier
}

// newTestHarness builds a service whose timer never fires on its own; tests drive it with tick.
func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	h := &testHarness{
		store:    memory.NewSessionStore(),
		clock:    newFakeClock(),
		notifier: &captureNotifier{},
	}
	h.svc = NewAuctionService(h.store, h.notifier, nil, &sequenceIDs{}, AuctionConfig{
		TickInterval:            time.Hour,
		StaleGrace:              5 * time.Second,
		DefaultCountdownSeconds: 15,
	}, logging.NewNop())
	h.svc.now = h.clock.Now
	h.svc.shuffle = func([]auction.Player) {}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = h.svc.Shutdown(ctx)
	})
	return h
}

// setupVenue starts an auction with 4 tables, the given budget and teams T1 (101) and T2 (102).
func (h *testHarness) setupVenue(t *testing.T, budget int64) {
	t.Helper()
	ctx := context.Background()

	if _, err := h.svc.StartAuction(ctx, testHost, testVenue); err != nil {
		t.Fatalf("start auction: %v", err)
	}
	if err := h.svc.SetTables(ctx, testHost, testVenue, 4); err != nil {
		t.Fatalf("set tables: %v", err)
	}
	if err := h.svc.SetBudget(ctx, testHost, testVenue, budget); err != nil {
		t.Fatalf("set budget: %v", err)
	}
	if _, err := h.svc.AssignTeam(ctx, testHost, testVenue, "T1", "101"); err != nil {
		t.Fatalf("assign T1: %v", err)
	}
	if _, err := h.svc.AssignTeam(ctx, testHost, testVenue, "T2", "102"); err != nil {
		t.Fatalf("assign T2: %v", err)
	}
}

// tick runs one timer step for the venue's installed timer.
func (h *testHarness) tick(t *testing.T) bool {
	t.Helper()
	handle, ok := h.svc.scheduler.handle(testVenue)
	if !ok {
		t.Fatalf("expected a live timer for %s", testVenue)
	}
	return h.svc.onTick(context.Background(), testVenue, handle.slotID, handle.gen)
}

func (h *testHarness) session(t *testing.T) auction.Session {
	t.Helper()
	session, err := h.store.GetSession(context.Background(), testVenue)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	return session
}

func (h *testHarness) run(t *testing.T) auction.Run {
	t.Helper()
	session := h.session(t)
	run, err := h.store.GetRun(context.Background(), testVenue, session.CurrentRunID)
	if err != nil {
		t.Fatalf("get run %q: %v", session.CurrentRunID, err)
	}
	return run
}

func amount(v int64) *int64 {
	return &v
}
