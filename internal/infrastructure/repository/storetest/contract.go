// Package storetest holds the behavioural contract every auction.Store backend must satisfy.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/auction-engine/internal/domain/auction"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2026, 10, 19, 20, 15, 30, 123000000, time.UTC)

// SampleSession returns a session exercising every optional and nested field.
func SampleSession(venueID string) auction.Session {
	price := int64(55)
	buyer := auction.ParseIdentity("101")
	paused := fixedTime.Add(-time.Second)

	s := auction.NewSession(venueID)
	s.Active = true
	s.HostID = auction.ParseIdentity("1")
	s.HostName = "Host"
	s.Tables = 4
	s.Teams = []auction.Team{
		{Name: "Royal Strikers", Members: []auction.Identity{buyer, auction.ParseIdentity("@mate")}},
		{Name: "Night Owls", Members: []auction.Identity{auction.ParseIdentity("102")}},
	}
	s.TeamBudgets = map[string]int64{auction.TeamKey("Royal Strikers"): 945, auction.TeamKey("Night Owls"): 1000}
	s.Budget = 1000
	s.MinBuy = 3
	s.MaxBuy = 15
	s.CountdownSeconds = 20
	s.Players = []auction.Player{
		{UserID: 900, Name: "Asha", Handle: "asha", Role: "Batter", Code: "P-1", BasePrice: 10},
		{Name: "ghost", Handle: "ghost", Placeholder: true},
	}
	s.Slot = &auction.Slot{
		ID:         3,
		Player:     s.Players[1],
		StartPrice: 10,
		OpenedAt:   fixedTime,
		Deadline:   fixedTime.Add(20 * time.Second),
		Highest: &auction.Bid{
			Team:       "Night Owls",
			Bidder:     auction.ParseIdentity("102"),
			BidderName: "Owl",
			Amount:     12,
			At:         fixedTime.Add(2 * time.Second),
		},
		Warned10:       true,
		LastWarnSecond: 4,
	}
	s.AutoMode = true
	s.Queue = []auction.Player{s.Players[0]}
	s.SetIndex = 1
	s.Sets = []auction.PlayerSet{{Name: "Set 1", BasePrice: 10, Players: s.Players[:1]}}
	s.Assistants = map[string]auction.Identity{auction.TeamKey("Night Owls"): auction.ParseIdentity("@aide")}
	s.AccessUsers = []auction.Identity{auction.ParseIdentity("@delegate")}
	s.Paused = true
	s.PausedAt = &paused
	s.CurrentRunID = "1760900000-abcdef12"
	s.SlotSeq = 3
	s.Log = []auction.LogEntry{
		{SlotID: 1, Player: s.Players[0], Team: "Royal Strikers", Buyer: &buyer, Price: &price, At: fixedTime},
		{SlotID: 2, Player: s.Players[1], At: fixedTime},
	}
	s.UpdatedAt = fixedTime
	return s
}

func SampleRun(venueID, runID string, started time.Time) auction.Run {
	completed := started.Add(time.Hour)
	return auction.Run{
		RunID:         runID,
		VenueID:       venueID,
		StartedAt:     started,
		HostID:        auction.ParseIdentity("1"),
		Tables:        4,
		Teams:         []string{"Royal Strikers", "Night Owls"},
		Budget:        1000,
		PlayersLoaded: 2,
		Sold: []auction.Sale{{
			SlotID: 1, Player: auction.Player{UserID: 900, Name: "Asha"},
			Team: "Royal Strikers", Buyer: auction.ParseIdentity("101"), Price: 55, At: started,
		}},
		Unsold:      []auction.UnsoldEntry{{SlotID: 2, Player: auction.Player{Name: "ghost", Handle: "ghost"}, StartPrice: 10, At: started}},
		Attempts:    map[string]int{"n:900": 1, "h:ghost": 1},
		CompletedAt: &completed,
	}
}

// Run executes the contract against a fresh store from newStore.
func Run(t *testing.T, newStore func(t *testing.T) auction.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("unknown venue yields default session", func(t *testing.T) {
		store := newStore(t)
		got, err := store.GetSession(ctx, "fresh")
		require.NoError(t, err)
		require.Equal(t, auction.NewSession("fresh"), got)
	})

	t.Run("session round-trips losslessly", func(t *testing.T) {
		store := newStore(t)
		want := SampleSession("venue-a")
		require.NoError(t, store.PutSession(ctx, want))

		got, err := store.GetSession(ctx, "venue-a")
		require.NoError(t, err)
		require.Equal(t, want, got)

		require.NoError(t, store.PutSession(ctx, got))
		again, err := store.GetSession(ctx, "venue-a")
		require.NoError(t, err)
		require.Equal(t, want, again)
	})

	t.Run("latest put wins", func(t *testing.T) {
		store := newStore(t)
		first := SampleSession("venue-b")
		require.NoError(t, store.PutSession(ctx, first))

		second := first
		second.Active = false
		second.Slot = nil
		second.CountdownSeconds = 15
		require.NoError(t, store.PutSession(ctx, second))

		got, err := store.GetSession(ctx, "venue-b")
		require.NoError(t, err)
		require.False(t, got.Active)
		require.Nil(t, got.Slot)
		require.Equal(t, 15, got.CountdownSeconds)
	})

	t.Run("missing run is not found", func(t *testing.T) {
		store := newStore(t)
		_, err := store.GetRun(ctx, "venue-c", "nope")
		require.True(t, errors.Is(err, auction.ErrNotFound), "got %v", err)
	})

	t.Run("run events are appended apart from the run body", func(t *testing.T) {
		store := newStore(t)
		run := SampleRun("venue-d", "run-1", fixedTime)
		require.NoError(t, store.PutRun(ctx, run))

		opened := auction.Event{Type: auction.EventSlotOpened, VenueID: "venue-d", RunID: "run-1", SlotID: 1, Player: &run.Sold[0].Player, Amount: 10, Remaining: 30, At: fixedTime}
		sold := auction.Event{Type: auction.EventSlotSold, VenueID: "venue-d", RunID: "run-1", SlotID: 1, Team: "Royal Strikers", Amount: 55, At: fixedTime.Add(time.Second)}
		require.NoError(t, store.AppendRunLog(ctx, "venue-d", "run-1", opened))
		require.NoError(t, store.AppendRunLog(ctx, "venue-d", "run-1", sold))

		run.PlayersLoaded = 3
		require.NoError(t, store.PutRun(ctx, run))

		got, err := store.GetRun(ctx, "venue-d", "run-1")
		require.NoError(t, err)
		require.Equal(t, []auction.Event{opened, sold}, got.Events)

		got.Events = nil
		require.Equal(t, run, got)
	})

	t.Run("list runs is scoped to the venue", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.PutRun(ctx, SampleRun("venue-e", "run-1", fixedTime)))
		require.NoError(t, store.PutRun(ctx, SampleRun("venue-e", "run-2", fixedTime.Add(time.Hour))))
		require.NoError(t, store.PutRun(ctx, SampleRun("venue-f", "run-9", fixedTime)))

		runs, err := store.ListRuns(ctx, "venue-e")
		require.NoError(t, err)
		require.Len(t, runs, 2)
		ids := []string{runs[0].RunID, runs[1].RunID}
		require.ElementsMatch(t, []string{"run-1", "run-2"}, ids)

		empty, err := store.ListRuns(ctx, "venue-none")
		require.NoError(t, err)
		require.Empty(t, empty)
	})
}
