package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
)

const defaultTickInterval = time.Second

// TickFunc runs one timer step for a venue; returning true stops the loop.
type TickFunc func(ctx context.Context, venueID string, slotID int64, gen uint64) (done bool)

// Scheduler supervises at most one timer loop per venue.
type Scheduler struct {
	mu       sync.Mutex
	handles  map[string]timerHandle
	nextGen  uint64
	interval time.Duration
	tick     TickFunc

	baseCtx context.Context
	stopAll context.CancelFunc
	wg      conc.WaitGroup
	closed  bool
}

type timerHandle struct {
	gen    uint64
	slotID int64
	cancel context.CancelFunc
}

func NewScheduler(interval time.Duration, tick TickFunc) *Scheduler {
	if interval <= 0 {
		interval = defaultTickInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		handles:  make(map[string]timerHandle),
		interval: interval,
		tick:     tick,
		baseCtx:  ctx,
		stopAll:  cancel,
	}
}

// Start cancels any live timer of the venue and installs a new one for slotID.
func (s *Scheduler) Start(venueID string, slotID int64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.handles[venueID]; ok {
		old.cancel()
	}
	if s.closed {
		delete(s.handles, venueID)
		return 0
	}

	s.nextGen++
	gen := s.nextGen
	ctx, cancel := context.WithCancel(s.baseCtx)
	s.handles[venueID] = timerHandle{gen: gen, slotID: slotID, cancel: cancel}

	s.wg.Go(func() {
		s.loop(ctx, venueID, slotID, gen)
	})
	return gen
}

// Stop cancels the venue's timer, if any.
func (s *Scheduler) Stop(venueID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if handle, ok := s.handles[venueID]; ok {
		handle.cancel()
		delete(s.handles, venueID)
	}
}

// Live reports whether a timer is running for exactly this slot.
func (s *Scheduler) Live(venueID string, slotID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	handle, ok := s.handles[venueID]
	return ok && handle.slotID == slotID
}

// Current reports whether gen is still the venue's installed timer.
func (s *Scheduler) Current(venueID string, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	handle, ok := s.handles[venueID]
	return ok && handle.gen == gen
}

func (s *Scheduler) handle(venueID string) (timerHandle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	handle, ok := s.handles[venueID]
	return handle, ok
}

func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}

// Shutdown cancels every timer and waits for the loops to return.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	for venueID, handle := range s.handles {
		handle.cancel()
		delete(s.handles, venueID)
	}
	s.mu.Unlock()
	s.stopAll()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) loop(ctx context.Context, venueID string, slotID int64, gen uint64) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.tick == nil || s.tick(ctx, venueID, slotID, gen) {
				s.release(venueID, gen)
				return
			}
		}
	}
}

func (s *Scheduler) release(venueID string, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if handle, ok := s.handles[venueID]; ok && handle.gen == gen {
		handle.cancel()
		delete(s.handles, venueID)
	}
}
