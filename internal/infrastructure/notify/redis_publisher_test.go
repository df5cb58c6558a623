package notify

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"github.com/riskibarqy/auction-engine/internal/domain/auction"
	"github.com/riskibarqy/auction-engine/internal/platform/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisPublisher_PublishesOnVenueChannel(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	publisher := NewRedisPublisher(rdb, "", logging.NewNop())
	require.Equal(t, "auction.events:venue-1", publisher.Channel("venue-1"))

	sub := rdb.Subscribe(ctx, publisher.Channel("venue-1"))
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	event := auction.Event{
		Type:    auction.EventSlotSold,
		VenueID: "venue-1",
		RunID:   "run-1",
		SlotID:  3,
		Player:  &auction.Player{Name: "Asha"},
		Team:    "Tigers",
		Amount:  60,
		At:      time.Date(2026, 10, 19, 20, 0, 0, 0, time.UTC),
	}
	publisher.Notify(ctx, event)

	select {
	case msg := <-sub.Channel():
		var got Message
		require.NoError(t, sonic.UnmarshalString(msg.Payload, &got))
		assert.Equal(t, event.Type, got.Type)
		assert.Equal(t, event.SlotID, got.SlotID)
		assert.Equal(t, "Tigers", got.Team)
		assert.Equal(t, FormatEvent(event), got.Text)
		assert.True(t, event.At.Equal(got.At))
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

func TestRedisPublisher_ReportsConnectionErrors(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	publisher := NewRedisPublisher(rdb, "events", logging.NewNop())
	err := publisher.Publish(context.Background(), auction.Event{VenueID: "v", Type: auction.EventPaused})
	require.Error(t, err)
}
