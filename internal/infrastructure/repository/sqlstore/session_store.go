package sqlstore

import (
	"context"
	"fmt"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/auction-engine/internal/domain/auction"
	"github.com/riskibarqy/auction-engine/internal/infrastructure/repository/codec"
	qb "github.com/riskibarqy/auction-engine/internal/platform/querybuilder"
)

// SessionStore persists sessions and runs as JSON payloads in a SQL database. It works on
// Postgres through lib/pq and on SQLite through modernc.org/sqlite.
type SessionStore struct {
	db     *sqlx.DB
	format qb.Format
	now    func() time.Time
}

func NewSessionStore(db *sqlx.DB) *SessionStore {
	return &SessionStore{
		db:     db,
		format: qb.FormatForDriver(db.DriverName()),
		now:    time.Now,
	}
}

type keyColumn struct {
	column string
	value  string
}

func (s *SessionStore) GetSession(ctx context.Context, venueID string) (auction.Session, error) {
	payload, ok, err := s.getPayload(ctx, sessionsTable, keyColumn{"venue_id", venueID})
	if err != nil {
		return auction.Session{}, crerr.Wrapf(err, "get session venue=%s", venueID)
	}
	if !ok {
		return auction.NewSession(venueID), nil
	}
	return codec.DecodeSession([]byte(payload))
}

func (s *SessionStore) PutSession(ctx context.Context, session auction.Session) error {
	payload, err := codec.EncodeSession(session)
	if err != nil {
		return err
	}

	builder, err := qb.UpsertModel(sessionsTable, sessionTableModel{
		VenueID:   session.VenueID,
		Payload:   string(payload),
		UpdatedAt: s.now().UTC(),
	})
	if err != nil {
		return crerr.Wrap(err, "build put session query")
	}
	query, args, err := builder.Format(s.format).ToSQL()
	if err != nil {
		return crerr.Wrap(err, "build put session query")
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return crerr.Wrapf(err, "put session venue=%s", session.VenueID)
	}
	return nil
}

func (s *SessionStore) GetRun(ctx context.Context, venueID, runID string) (auction.Run, error) {
	payload, ok, err := s.getPayload(ctx, runsTable, keyColumn{"venue_id", venueID}, keyColumn{"run_id", runID})
	if err != nil {
		return auction.Run{}, crerr.Wrapf(err, "get run %s", runID)
	}
	if !ok {
		return auction.Run{}, fmt.Errorf("%w: run %s", auction.ErrNotFound, runID)
	}

	run, err := codec.DecodeRun([]byte(payload))
	if err != nil {
		return auction.Run{}, err
	}

	events, err := s.listEvents(ctx, venueID, runID)
	if err != nil {
		return auction.Run{}, err
	}
	run.Events = events
	return run, nil
}

func (s *SessionStore) PutRun(ctx context.Context, run auction.Run) error {
	payload, err := codec.EncodeRun(run)
	if err != nil {
		return err
	}

	builder, err := qb.UpsertModel(runsTable, runTableModel{
		VenueID:   run.VenueID,
		RunID:     run.RunID,
		StartedAt: run.StartedAt.UTC(),
		Payload:   string(payload),
		UpdatedAt: s.now().UTC(),
	})
	if err != nil {
		return crerr.Wrap(err, "build put run query")
	}
	query, args, err := builder.Format(s.format).ToSQL()
	if err != nil {
		return crerr.Wrap(err, "build put run query")
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return crerr.Wrapf(err, "put run %s", run.RunID)
	}
	return nil
}

// AppendRunLog allocates the next sequence number inside a transaction so events keep their order.
func (s *SessionStore) AppendRunLog(ctx context.Context, venueID, runID string, event auction.Event) (err error) {
	payload, err := codec.EncodeEvent(event)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return crerr.Wrap(err, "begin append run log")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	seqQuery, seqArgs, err := qb.Select("COALESCE(MAX(seq), 0)").
		Format(s.format).
		From(runEventsTable).
		Where(qb.Eq("venue_id", venueID), qb.Eq("run_id", runID)).
		ToSQL()
	if err != nil {
		return crerr.Wrap(err, "build run log seq query")
	}
	var last int64
	if err = tx.GetContext(ctx, &last, seqQuery, seqArgs...); err != nil {
		return crerr.Wrapf(err, "read run log seq run=%s", runID)
	}

	builder, err := qb.InsertModel(runEventsTable, runEventTableModel{
		VenueID:   venueID,
		RunID:     runID,
		Seq:       last + 1,
		Payload:   string(payload),
		CreatedAt: event.At.UTC(),
	})
	if err != nil {
		return crerr.Wrap(err, "build append run log query")
	}
	query, args, err := builder.Format(s.format).ToSQL()
	if err != nil {
		return crerr.Wrap(err, "build append run log query")
	}
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return crerr.Wrapf(err, "append run log run=%s", runID)
	}

	if err = tx.Commit(); err != nil {
		return crerr.Wrap(err, "commit append run log")
	}
	return nil
}

// ListRuns returns run headers without their event logs, oldest first.
func (s *SessionStore) ListRuns(ctx context.Context, venueID string) ([]auction.Run, error) {
	query, args, err := qb.Select("payload").
		Format(s.format).
		From(runsTable).
		Where(qb.Eq("venue_id", venueID)).
		OrderBy("started_at", "run_id").
		ToSQL()
	if err != nil {
		return nil, crerr.Wrap(err, "build list runs query")
	}

	var payloads []string
	if err := s.db.SelectContext(ctx, &payloads, query, args...); err != nil {
		return nil, crerr.Wrapf(err, "list runs venue=%s", venueID)
	}

	runs := make([]auction.Run, 0, len(payloads))
	for _, payload := range payloads {
		run, err := codec.DecodeRun([]byte(payload))
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func (s *SessionStore) listEvents(ctx context.Context, venueID, runID string) ([]auction.Event, error) {
	query, args, err := qb.Select("payload").
		Format(s.format).
		From(runEventsTable).
		Where(qb.Eq("venue_id", venueID), qb.Eq("run_id", runID)).
		OrderBy("seq").
		ToSQL()
	if err != nil {
		return nil, crerr.Wrap(err, "build list run events query")
	}

	var payloads []string
	if err := s.db.SelectContext(ctx, &payloads, query, args...); err != nil {
		return nil, crerr.Wrapf(err, "list run events run=%s", runID)
	}

	events := make([]auction.Event, 0, len(payloads))
	for _, payload := range payloads {
		event, err := codec.DecodeEvent([]byte(payload))
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

// getPayload reads one payload by key. A pooler that lost the prepared statement gets a
// second attempt with the key values inlined as literals.
func (s *SessionStore) getPayload(ctx context.Context, table string, keys ...keyColumn) (string, bool, error) {
	payload, ok, err := s.selectPayload(ctx, table, false, keys)
	if err != nil && shouldRetryLiteral(err) {
		return s.selectPayload(ctx, table, true, keys)
	}
	return payload, ok, err
}

func (s *SessionStore) selectPayload(ctx context.Context, table string, literal bool, keys []keyColumn) (string, bool, error) {
	conds := make([]qb.Condition, 0, len(keys))
	for _, key := range keys {
		if literal {
			conds = append(conds, qb.EqLiteral(key.column, key.value))
			continue
		}
		conds = append(conds, qb.Eq(key.column, key.value))
	}

	query, args, err := qb.Select("payload").Format(s.format).From(table).Where(conds...).ToSQL()
	if err != nil {
		return "", false, crerr.Wrapf(err, "build select %s query", table)
	}

	var payload string
	if err := s.db.GetContext(ctx, &payload, query, args...); err != nil {
		if isNotFound(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return payload, true, nil
}
