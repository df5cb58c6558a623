package redisstore

import (
	"context"
	"fmt"
	"strings"

	crerr "github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"github.com/riskibarqy/auction-engine/internal/domain/auction"
	"github.com/riskibarqy/auction-engine/internal/infrastructure/repository/codec"
)

const defaultPrefix = "auction"

// SessionStore keeps one key per session and run, a sorted set of run ids per venue and a
// list of encoded events per run.
type SessionStore struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewSessionStore(rdb redis.UniversalClient, prefix string) *SessionStore {
	prefix = strings.Trim(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &SessionStore{rdb: rdb, prefix: prefix}
}

// Open parses a redis:// URL and verifies the server answers.
func Open(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(strings.TrimSpace(url))
	if err != nil {
		return nil, crerr.Wrap(err, "parse redis url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, crerr.Wrap(err, "ping redis")
	}
	return client, nil
}

func (s *SessionStore) sessionKey(venueID string) string {
	return fmt.Sprintf("%s:session:%s", s.prefix, venueID)
}

func (s *SessionStore) runKey(venueID, runID string) string {
	return fmt.Sprintf("%s:run:%s:%s", s.prefix, venueID, runID)
}

func (s *SessionStore) runIndexKey(venueID string) string {
	return fmt.Sprintf("%s:runs:%s", s.prefix, venueID)
}

func (s *SessionStore) eventsKey(venueID, runID string) string {
	return fmt.Sprintf("%s:events:%s:%s", s.prefix, venueID, runID)
}

func (s *SessionStore) GetSession(ctx context.Context, venueID string) (auction.Session, error) {
	payload, err := s.rdb.Get(ctx, s.sessionKey(venueID)).Bytes()
	if crerr.Is(err, redis.Nil) {
		return auction.NewSession(venueID), nil
	}
	if err != nil {
		return auction.Session{}, crerr.Wrapf(err, "get session venue=%s", venueID)
	}
	return codec.DecodeSession(payload)
}

func (s *SessionStore) PutSession(ctx context.Context, session auction.Session) error {
	payload, err := codec.EncodeSession(session)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, s.sessionKey(session.VenueID), payload, 0).Err(); err != nil {
		return crerr.Wrapf(err, "put session venue=%s", session.VenueID)
	}
	return nil
}

func (s *SessionStore) GetRun(ctx context.Context, venueID, runID string) (auction.Run, error) {
	var (
		runCmd    *redis.StringCmd
		eventsCmd *redis.StringSliceCmd
	)
	_, err := s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		runCmd = pipe.Get(ctx, s.runKey(venueID, runID))
		eventsCmd = pipe.LRange(ctx, s.eventsKey(venueID, runID), 0, -1)
		return nil
	})
	if err != nil && !crerr.Is(err, redis.Nil) {
		return auction.Run{}, crerr.Wrapf(err, "get run %s", runID)
	}

	payload, err := runCmd.Bytes()
	if crerr.Is(err, redis.Nil) {
		return auction.Run{}, fmt.Errorf("%w: run %s", auction.ErrNotFound, runID)
	}
	if err != nil {
		return auction.Run{}, crerr.Wrapf(err, "get run %s", runID)
	}
	run, err := codec.DecodeRun(payload)
	if err != nil {
		return auction.Run{}, err
	}

	raw := eventsCmd.Val()
	run.Events = make([]auction.Event, 0, len(raw))
	for _, item := range raw {
		event, err := codec.DecodeEvent([]byte(item))
		if err != nil {
			return auction.Run{}, err
		}
		run.Events = append(run.Events, event)
	}
	return run, nil
}

// PutRun writes the run body and indexes it by start time in one MULTI/EXEC.
func (s *SessionStore) PutRun(ctx context.Context, run auction.Run) error {
	payload, err := codec.EncodeRun(run)
	if err != nil {
		return err
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.runKey(run.VenueID, run.RunID), payload, 0)
		pipe.ZAdd(ctx, s.runIndexKey(run.VenueID), redis.Z{
			Score:  float64(run.StartedAt.UnixMilli()),
			Member: run.RunID,
		})
		return nil
	})
	if err != nil {
		return crerr.Wrapf(err, "put run %s", run.RunID)
	}
	return nil
}

func (s *SessionStore) AppendRunLog(ctx context.Context, venueID, runID string, event auction.Event) error {
	payload, err := codec.EncodeEvent(event)
	if err != nil {
		return err
	}
	if err := s.rdb.RPush(ctx, s.eventsKey(venueID, runID), payload).Err(); err != nil {
		return crerr.Wrapf(err, "append run log run=%s", runID)
	}
	return nil
}

// ListRuns returns run headers without events, oldest first.
func (s *SessionStore) ListRuns(ctx context.Context, venueID string) ([]auction.Run, error) {
	ids, err := s.rdb.ZRange(ctx, s.runIndexKey(venueID), 0, -1).Result()
	if err != nil {
		return nil, crerr.Wrapf(err, "list runs venue=%s", venueID)
	}
	if len(ids) == 0 {
		return []auction.Run{}, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, s.runKey(venueID, id))
	}
	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, crerr.Wrapf(err, "load runs venue=%s", venueID)
	}

	runs := make([]auction.Run, 0, len(values))
	for _, value := range values {
		payload, ok := value.(string)
		if !ok {
			continue
		}
		run, err := codec.DecodeRun([]byte(payload))
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}
