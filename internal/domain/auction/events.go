package auction

import (
	"context"
	"time"
)

type EventType string

const (
	EventAuctionStarted   EventType = "auction_started"
	EventSlotOpened       EventType = "slot_opened"
	EventBidAccepted      EventType = "bid_accepted"
	EventCountdownWarning EventType = "countdown_warning"
	EventSlotSold         EventType = "slot_sold"
	EventSlotUnsold       EventType = "slot_unsold"
	EventPaused           EventType = "paused"
	EventResumed          EventType = "resumed"
	EventSetComplete      EventType = "set_complete"
	EventRunComplete      EventType = "run_complete"
	EventAuctionEnded     EventType = "auction_ended"
)

// Event is an observable transition of a venue.
type Event struct {
	Type       EventType `json:"type"`
	VenueID    string    `json:"venue_id"`
	RunID      string    `json:"run_id,omitempty"`
	SlotID     int64     `json:"slot_id,omitempty"`
	Player     *Player   `json:"player,omitempty"`
	Team       string    `json:"team,omitempty"`
	Bidder     *Identity `json:"bidder,omitempty"`
	BidderName string    `json:"bidder_name,omitempty"`
	Amount     int64     `json:"amount,omitempty"`
	Remaining  int       `json:"remaining_seconds,omitempty"`
	NextSet    *int      `json:"next_set,omitempty"`
	At         time.Time `json:"at"`
}

// Notifier receives events in venue order. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

type NotifierFunc func(ctx context.Context, event Event)

func (f NotifierFunc) Notify(ctx context.Context, event Event) {
	f(ctx, event)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Event) {}

func NopNotifier() Notifier {
	return nopNotifier{}
}

// MultiNotifier fans an event out to every notifier in order.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, event Event) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, event)
		}
	}
}
