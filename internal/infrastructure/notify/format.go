package notify

import (
	"strconv"

	"github.com/riskibarqy/auction-engine/internal/domain/auction"
	"github.com/valyala/bytebufferpool"
)

// FormatEvent renders the announcement text shown to a venue for an event.
func FormatEvent(event auction.Event) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	player := "unknown player"
	if event.Player != nil {
		player = event.Player.DisplayName()
	}

	switch event.Type {
	case auction.EventAuctionStarted:
		_, _ = buf.WriteString("Auction started. Set tables and budget before assigning teams.")
	case auction.EventSlotOpened:
		_, _ = buf.WriteString("Now bidding: ")
		_, _ = buf.WriteString(player)
		if event.Player != nil && event.Player.Role != "" {
			_, _ = buf.WriteString(" (")
			_, _ = buf.WriteString(event.Player.Role)
			_ = buf.WriteByte(')')
		}
		_, _ = buf.WriteString(" | base price ")
		writeInt(buf, event.Amount)
		_, _ = buf.WriteString(" | ")
		writeInt(buf, int64(event.Remaining))
		_, _ = buf.WriteString("s on the clock")
	case auction.EventBidAccepted:
		_, _ = buf.WriteString(event.Team)
		_, _ = buf.WriteString(" bids ")
		writeInt(buf, event.Amount)
		_, _ = buf.WriteString(" for ")
		_, _ = buf.WriteString(player)
		if event.BidderName != "" {
			_, _ = buf.WriteString(" via ")
			_, _ = buf.WriteString(event.BidderName)
		}
	case auction.EventCountdownWarning:
		writeInt(buf, int64(event.Remaining))
		_, _ = buf.WriteString(" seconds left for ")
		_, _ = buf.WriteString(player)
	case auction.EventSlotSold:
		_, _ = buf.WriteString("SOLD: ")
		_, _ = buf.WriteString(player)
		_, _ = buf.WriteString(" to ")
		_, _ = buf.WriteString(event.Team)
		_, _ = buf.WriteString(" for ")
		writeInt(buf, event.Amount)
	case auction.EventSlotUnsold:
		_, _ = buf.WriteString("UNSOLD: ")
		_, _ = buf.WriteString(player)
	case auction.EventPaused:
		_, _ = buf.WriteString("Auction paused")
		if event.Remaining > 0 {
			_, _ = buf.WriteString(" with ")
			writeInt(buf, int64(event.Remaining))
			_, _ = buf.WriteString("s remaining")
		}
	case auction.EventResumed:
		_, _ = buf.WriteString("Auction resumed")
		if event.Remaining > 0 {
			_, _ = buf.WriteString(", ")
			writeInt(buf, int64(event.Remaining))
			_, _ = buf.WriteString("s remaining")
		}
	case auction.EventSetComplete:
		if event.NextSet != nil {
			_, _ = buf.WriteString("Set complete. Start set ")
			writeInt(buf, int64(*event.NextSet))
			_, _ = buf.WriteString(" when ready.")
		} else {
			_, _ = buf.WriteString("All sets complete.")
		}
	case auction.EventRunComplete:
		_, _ = buf.WriteString("Every loaded player has been auctioned.")
	case auction.EventAuctionEnded:
		_, _ = buf.WriteString("Auction ended.")
	default:
		_, _ = buf.WriteString(string(event.Type))
	}
	return buf.String()
}

func writeInt(buf *bytebufferpool.ByteBuffer, v int64) {
	buf.B = strconv.AppendInt(buf.B, v, 10)
}
