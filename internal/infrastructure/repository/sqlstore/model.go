package sqlstore

import "time"

type sessionTableModel struct {
	VenueID   string    `db:"venue_id,key"`
	Payload   string    `db:"payload"`
	UpdatedAt time.Time `db:"updated_at"`
}

type runTableModel struct {
	VenueID   string    `db:"venue_id,key"`
	RunID     string    `db:"run_id,key"`
	StartedAt time.Time `db:"started_at"`
	Payload   string    `db:"payload"`
	UpdatedAt time.Time `db:"updated_at"`
}

type runEventTableModel struct {
	VenueID   string    `db:"venue_id"`
	RunID     string    `db:"run_id"`
	Seq       int64     `db:"seq"`
	Payload   string    `db:"payload"`
	CreatedAt time.Time `db:"created_at"`
}
