package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/auction-engine/internal/domain/auction"
	"github.com/riskibarqy/auction-engine/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/auction-engine/internal/infrastructure/repository/storetest"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	auction.Store
	sessionReads int
	listReads    int
	failPut      bool
}

func (c *countingStore) GetSession(ctx context.Context, venueID string) (auction.Session, error) {
	c.sessionReads++
	return c.Store.GetSession(ctx, venueID)
}

func (c *countingStore) PutSession(ctx context.Context, session auction.Session) error {
	if c.failPut {
		return errors.New("write failed")
	}
	return c.Store.PutSession(ctx, session)
}

func (c *countingStore) ListRuns(ctx context.Context, venueID string) ([]auction.Run, error) {
	c.listReads++
	return c.Store.ListRuns(ctx, venueID)
}

func TestSessionStoreContract_Cached(t *testing.T) {
	storetest.Run(t, func(*testing.T) auction.Store {
		return NewSessionStore(memory.NewSessionStore(), time.Minute)
	})
}

func TestSessionStore_ServesSessionsFromCache(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{Store: memory.NewSessionStore()}
	store := NewSessionStore(backing, time.Minute)

	require.NoError(t, store.PutSession(ctx, storetest.SampleSession("v")))
	for range 3 {
		got, err := store.GetSession(ctx, "v")
		require.NoError(t, err)
		require.Equal(t, "v", got.VenueID)
	}
	require.Zero(t, backing.sessionReads)

	_, err := store.GetSession(ctx, "other")
	require.NoError(t, err)
	_, err = store.GetSession(ctx, "other")
	require.NoError(t, err)
	require.Equal(t, 1, backing.sessionReads)
}

func TestSessionStore_CallersGetIndependentCopies(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(memory.NewSessionStore(), time.Minute)
	require.NoError(t, store.PutSession(ctx, storetest.SampleSession("v")))

	first, err := store.GetSession(ctx, "v")
	require.NoError(t, err)
	first.Teams[0].Members = nil
	first.Active = false

	second, err := store.GetSession(ctx, "v")
	require.NoError(t, err)
	require.True(t, second.Active)
	require.Len(t, second.Teams[0].Members, 2)
}

func TestSessionStore_FailedWriteDropsCachedSession(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{Store: memory.NewSessionStore()}
	store := NewSessionStore(backing, time.Minute)

	require.NoError(t, store.PutSession(ctx, storetest.SampleSession("v")))
	changed := storetest.SampleSession("v")
	changed.Active = false

	backing.failPut = true
	require.Error(t, store.PutSession(ctx, changed))

	got, err := store.GetSession(ctx, "v")
	require.NoError(t, err)
	require.True(t, got.Active)
	require.Equal(t, 1, backing.sessionReads)
}

func TestSessionStore_PutRunInvalidatesRunList(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{Store: memory.NewSessionStore()}
	store := NewSessionStore(backing, time.Minute)
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.PutRun(ctx, storetest.SampleRun("v", "run-1", started)))
	runs, err := store.ListRuns(ctx, "v")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	_, err = store.ListRuns(ctx, "v")
	require.NoError(t, err)
	require.Equal(t, 1, backing.listReads)

	require.NoError(t, store.PutRun(ctx, storetest.SampleRun("v", "run-2", started.Add(time.Hour))))
	runs, err = store.ListRuns(ctx, "v")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, 2, backing.listReads)
}
