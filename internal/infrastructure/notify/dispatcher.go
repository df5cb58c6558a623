package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/auction-engine/internal/domain/auction"
	"github.com/riskibarqy/auction-engine/internal/platform/logging"
)

const defaultWorkers = 8

var ErrDispatcherClosed = errors.New("notify dispatcher closed")

// Dispatcher delivers events to a sink off the caller's goroutine. Events of one venue are
// delivered in the order they were queued; venues drain in parallel on a bounded pool.
type Dispatcher struct {
	sink   auction.Notifier
	pool   *ants.Pool
	logger *logging.Logger

	mu     sync.Mutex
	queues map[string]*venueQueue
	closed bool
	wg     sync.WaitGroup
}

type venueQueue struct {
	pending []queuedEvent
}

type queuedEvent struct {
	ctx   context.Context
	event auction.Event
}

func NewDispatcher(sink auction.Notifier, workers int, logger *logging.Logger) (*Dispatcher, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if sink == nil {
		sink = auction.NopNotifier()
	}
	if workers <= 0 {
		workers = defaultWorkers
	}

	pool, err := ants.NewPool(workers, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("create notify worker pool: %w", err)
	}
	return &Dispatcher{
		sink:   sink,
		pool:   pool,
		logger: logger,
		queues: make(map[string]*venueQueue),
	}, nil
}

// Notify queues the event and returns immediately.
func (d *Dispatcher) Notify(ctx context.Context, event auction.Event) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.logger.WarnContext(ctx, "dropping event after dispatcher close", "venue_id", event.VenueID, "event", string(event.Type))
		return
	}

	queued := queuedEvent{ctx: context.WithoutCancel(ctx), event: event}
	if q, ok := d.queues[event.VenueID]; ok {
		q.pending = append(q.pending, queued)
		d.mu.Unlock()
		return
	}
	d.queues[event.VenueID] = &venueQueue{pending: []queuedEvent{queued}}
	d.wg.Add(1)
	d.mu.Unlock()

	venueID := event.VenueID
	if err := d.pool.Submit(func() { d.drain(venueID) }); err != nil {
		// Pool saturated: the venue still needs a drainer.
		go d.drain(venueID)
	}
}

func (d *Dispatcher) drain(venueID string) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		q := d.queues[venueID]
		if q == nil || len(q.pending) == 0 {
			delete(d.queues, venueID)
			d.mu.Unlock()
			return
		}
		next := q.pending[0]
		q.pending[0] = queuedEvent{}
		q.pending = q.pending[1:]
		d.mu.Unlock()

		d.deliver(next)
	}
}

func (d *Dispatcher) deliver(q queuedEvent) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.ErrorContext(q.ctx, "notifier panicked",
				"venue_id", q.event.VenueID,
				"event", string(q.event.Type),
				"panic", r,
			)
		}
	}()
	d.sink.Notify(q.ctx, q.event)
}

// Close stops accepting events and waits for queued ones to be delivered.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrDispatcherClosed
	}
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.pool.Release()
		return nil
	case <-ctx.Done():
		d.pool.Release()
		return ctx.Err()
	}
}
