package notify

import (
	"context"

	"github.com/riskibarqy/auction-engine/internal/domain/auction"
	"github.com/riskibarqy/auction-engine/internal/platform/logging"
)

// LogNotifier writes every event as a structured log line.
type LogNotifier struct {
	logger *logging.Logger
}

func NewLogNotifier(logger *logging.Logger) *LogNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, event auction.Event) {
	n.logger.InfoContext(ctx, FormatEvent(event),
		"venue_id", event.VenueID,
		"run_id", event.RunID,
		"event", string(event.Type),
		"slot_id", event.SlotID,
	)
}
