package notify

import (
	"testing"

	"github.com/riskibarqy/auction-engine/internal/domain/auction"
)

func TestFormatEvent(t *testing.T) {
	t.Parallel()

	player := &auction.Player{Name: "Asha", Handle: "asha", Role: "Batter"}
	next := 2

	tests := []struct {
		name  string
		event auction.Event
		want  string
	}{
		{
			name:  "slot opened",
			event: auction.Event{Type: auction.EventSlotOpened, Player: player, Amount: 50, Remaining: 15},
			want:  "Now bidding: " + player.DisplayName() + " (Batter) | base price 50 | 15s on the clock",
		},
		{
			name:  "bid accepted",
			event: auction.Event{Type: auction.EventBidAccepted, Player: player, Team: "Tigers", Amount: 60, BidderName: "Ravi"},
			want:  "Tigers bids 60 for " + player.DisplayName() + " via Ravi",
		},
		{
			name:  "warning",
			event: auction.Event{Type: auction.EventCountdownWarning, Player: player, Remaining: 10},
			want:  "10 seconds left for " + player.DisplayName(),
		},
		{
			name:  "sold",
			event: auction.Event{Type: auction.EventSlotSold, Player: player, Team: "Tigers", Amount: 60},
			want:  "SOLD: " + player.DisplayName() + " to Tigers for 60",
		},
		{
			name:  "unsold without player",
			event: auction.Event{Type: auction.EventSlotUnsold},
			want:  "UNSOLD: unknown player",
		},
		{
			name:  "paused",
			event: auction.Event{Type: auction.EventPaused, Remaining: 8},
			want:  "Auction paused with 8s remaining",
		},
		{
			name:  "set complete with next",
			event: auction.Event{Type: auction.EventSetComplete, NextSet: &next},
			want:  "Set complete. Start set 2 when ready.",
		},
		{
			name:  "all sets complete",
			event: auction.Event{Type: auction.EventSetComplete},
			want:  "All sets complete.",
		},
		{
			name:  "unknown type",
			event: auction.Event{Type: "custom"},
			want:  "custom",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatEvent(tc.event); got != tc.want {
				t.Fatalf("FormatEvent() = %q, want %q", got, tc.want)
			}
		})
	}
}
