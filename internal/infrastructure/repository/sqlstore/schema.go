package sqlstore

import (
	"context"

	crerr "github.com/cockroachdb/errors"
)

const (
	sessionsTable  = "auction_sessions"
	runsTable      = "auction_runs"
	runEventsTable = "auction_run_events"
)

// schemaStatements is the portable subset used by EnsureSchema. Postgres deployments apply
// db/migrations instead.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS auction_sessions (
		venue_id   TEXT PRIMARY KEY,
		payload    TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS auction_runs (
		venue_id   TEXT NOT NULL,
		run_id     TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL,
		payload    TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (venue_id, run_id)
	)`,
	`CREATE TABLE IF NOT EXISTS auction_run_events (
		venue_id   TEXT NOT NULL,
		run_id     TEXT NOT NULL,
		seq        BIGINT NOT NULL,
		payload    TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		PRIMARY KEY (venue_id, run_id, seq)
	)`,
}

func (s *SessionStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return crerr.Wrap(err, "ensure auction schema")
		}
	}
	return nil
}
