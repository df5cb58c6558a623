package cache

import (
	"context"
	"time"

	"github.com/riskibarqy/auction-engine/internal/domain/auction"
	"github.com/riskibarqy/auction-engine/internal/infrastructure/repository/codec"
	basecache "github.com/riskibarqy/auction-engine/internal/platform/cache"
)

// SessionStore is a write-through cache in front of a durable store. Sessions are read on every
// command and timer tick; run lists on every history query. Values are held encoded so callers
// never share state with the cache. It assumes this process is the only writer.
type SessionStore struct {
	next     auction.Store
	sessions *basecache.Store[[]byte]
	runLists *basecache.Store[[][]byte]
}

func NewSessionStore(next auction.Store, ttl time.Duration) *SessionStore {
	return &SessionStore{
		next:     next,
		sessions: basecache.NewStore[[]byte](ttl),
		runLists: basecache.NewStore[[][]byte](ttl),
	}
}

func (s *SessionStore) GetSession(ctx context.Context, venueID string) (auction.Session, error) {
	payload, err := s.sessions.GetOrLoad(ctx, sessionKey(venueID), func(ctx context.Context) ([]byte, error) {
		session, err := s.next.GetSession(ctx, venueID)
		if err != nil {
			return nil, err
		}
		return codec.EncodeSession(session)
	})
	if err != nil {
		return auction.Session{}, err
	}
	return codec.DecodeSession(payload)
}

func (s *SessionStore) PutSession(ctx context.Context, session auction.Session) error {
	key := sessionKey(session.VenueID)
	if err := s.next.PutSession(ctx, session); err != nil {
		s.sessions.Delete(ctx, key)
		return err
	}

	if payload, err := codec.EncodeSession(session); err == nil {
		s.sessions.Set(ctx, key, payload)
	} else {
		s.sessions.Delete(ctx, key)
	}
	return nil
}

// GetRun always reads through: the event log grows with every command.
func (s *SessionStore) GetRun(ctx context.Context, venueID, runID string) (auction.Run, error) {
	return s.next.GetRun(ctx, venueID, runID)
}

func (s *SessionStore) PutRun(ctx context.Context, run auction.Run) error {
	defer s.runLists.Delete(ctx, runListKey(run.VenueID))
	return s.next.PutRun(ctx, run)
}

func (s *SessionStore) AppendRunLog(ctx context.Context, venueID, runID string, event auction.Event) error {
	return s.next.AppendRunLog(ctx, venueID, runID, event)
}

func (s *SessionStore) ListRuns(ctx context.Context, venueID string) ([]auction.Run, error) {
	payloads, err := s.runLists.GetOrLoad(ctx, runListKey(venueID), func(ctx context.Context) ([][]byte, error) {
		runs, err := s.next.ListRuns(ctx, venueID)
		if err != nil {
			return nil, err
		}
		out := make([][]byte, 0, len(runs))
		for _, run := range runs {
			payload, err := codec.EncodeRun(run)
			if err != nil {
				return nil, err
			}
			out = append(out, payload)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	runs := make([]auction.Run, 0, len(payloads))
	for _, payload := range payloads {
		run, err := codec.DecodeRun(payload)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func sessionKey(venueID string) string {
	return "session:" + venueID
}

func runListKey(venueID string) string {
	return "runs:" + venueID
}
