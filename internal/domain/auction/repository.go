package auction

import "context"

// Store persists venue sessions and run records. Puts are atomic and gets observe the latest
// successful put. GetSession returns NewSession(venueID) for an unknown venue.
type Store interface {
	GetSession(ctx context.Context, venueID string) (Session, error)
	PutSession(ctx context.Context, session Session) error
	GetRun(ctx context.Context, venueID, runID string) (Run, error)
	PutRun(ctx context.Context, run Run) error
	AppendRunLog(ctx context.Context, venueID, runID string, event Event) error
	ListRuns(ctx context.Context, venueID string) ([]Run, error)
}
