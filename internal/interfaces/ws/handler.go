package ws

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/riskibarqy/auction-engine/internal/platform/logging"
)

const writeTimeout = 5 * time.Second

type HandlerOptions struct {
	OriginPatterns []string
	Logger         *logging.Logger
}

// Handler streams a venue's events to a WebSocket client. The stream is read-only; anything the
// client sends is discarded.
func Handler(hub *Hub, opts HandlerOptions) http.HandlerFunc {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}

	return func(w http.ResponseWriter, r *http.Request) {
		venueID := strings.TrimSpace(r.PathValue("venueID"))
		if venueID == "" {
			http.Error(w, "missing venue id", http.StatusBadRequest)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: opts.OriginPatterns})
		if err != nil {
			logger.WarnContext(r.Context(), "websocket accept failed", "venue_id", venueID, "error", err)
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		sub := hub.subscribe(venueID)
		defer hub.unsubscribe(sub)

		// CloseRead handles control frames and cancels ctx once the peer goes away.
		ctx := conn.CloseRead(r.Context())
		logger.DebugContext(ctx, "websocket subscriber joined", "venue_id", venueID, "subscriber", sub.id)

		for {
			select {
			case <-ctx.Done():
				return
			case payload, ok := <-sub.out:
				if !ok {
					conn.Close(websocket.StatusTryAgainLater, "subscriber dropped")
					return
				}
				if err := write(ctx, conn, payload); err != nil {
					logger.DebugContext(ctx, "websocket write failed", "venue_id", venueID, "error", err)
					return
				}
			}
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, payload []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, payload)
}
