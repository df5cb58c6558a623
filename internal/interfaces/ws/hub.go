package ws

import (
	"context"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/riskibarqy/auction-engine/internal/domain/auction"
	"github.com/riskibarqy/auction-engine/internal/infrastructure/notify"
	"github.com/riskibarqy/auction-engine/internal/platform/logging"
)

const defaultSubscriberBuffer = 32

// Hub fans venue events out to live subscribers. It implements auction.Notifier.
type Hub struct {
	mu     sync.RWMutex
	venues map[string]map[string]*subscriber
	buffer int
	logger *logging.Logger
}

type subscriber struct {
	id      string
	venueID string
	out     chan []byte
	once    sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.out) })
}

func NewHub(buffer int, logger *logging.Logger) *Hub {
	if logger == nil {
		logger = logging.Default()
	}
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	return &Hub{
		venues: make(map[string]map[string]*subscriber),
		buffer: buffer,
		logger: logger,
	}
}

func (h *Hub) subscribe(venueID string) *subscriber {
	sub := &subscriber{
		id:      uuid.NewString(),
		venueID: venueID,
		out:     make(chan []byte, h.buffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.venues[venueID]
	if !ok {
		subs = make(map[string]*subscriber)
		h.venues[venueID] = subs
	}
	subs[sub.id] = sub
	return sub
}

func (h *Hub) unsubscribe(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(sub)
}

func (h *Hub) removeLocked(sub *subscriber) {
	if subs, ok := h.venues[sub.venueID]; ok {
		delete(subs, sub.id)
		if len(subs) == 0 {
			delete(h.venues, sub.venueID)
		}
	}
	sub.close()
}

// Subscribers reports how many streams are open for a venue.
func (h *Hub) Subscribers(venueID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.venues[venueID])
}

// Notify encodes the event once and hands it to every subscriber of the venue. A subscriber whose
// buffer is full is disconnected rather than allowed to stall the others.
func (h *Hub) Notify(ctx context.Context, event auction.Event) {
	h.mu.RLock()
	if len(h.venues[event.VenueID]) == 0 {
		h.mu.RUnlock()
		return
	}
	h.mu.RUnlock()

	payload, err := sonic.Marshal(notify.Message{Event: event, Text: notify.FormatEvent(event)})
	if err != nil {
		h.logger.WarnContext(ctx, "encode ws event failed", "venue_id", event.VenueID, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.venues[event.VenueID] {
		select {
		case sub.out <- payload:
		default:
			h.logger.WarnContext(ctx, "dropping slow ws subscriber", "venue_id", event.VenueID, "subscriber", sub.id)
			h.removeLocked(sub)
		}
	}
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, subs := range h.venues {
		for _, sub := range subs {
			h.removeLocked(sub)
		}
	}
}
