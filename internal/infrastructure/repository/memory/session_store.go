package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/riskibarqy/auction-engine/internal/domain/auction"
	"github.com/riskibarqy/auction-engine/internal/infrastructure/repository/codec"
)

// SessionStore keeps encoded payloads so callers never share memory with the store.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string][]byte
	runs     map[string][]byte
	runOrder map[string][]string
	events   map[string][][]byte
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string][]byte),
		runs:     make(map[string][]byte),
		runOrder: make(map[string][]string),
		events:   make(map[string][][]byte),
	}
}

func (s *SessionStore) GetSession(_ context.Context, venueID string) (auction.Session, error) {
	s.mu.RLock()
	payload, ok := s.sessions[venueID]
	s.mu.RUnlock()
	if !ok {
		return auction.NewSession(venueID), nil
	}

	return codec.DecodeSession(payload)
}

func (s *SessionStore) PutSession(_ context.Context, session auction.Session) error {
	payload, err := codec.EncodeSession(session)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.sessions[session.VenueID] = payload
	s.mu.Unlock()
	return nil
}

func (s *SessionStore) GetRun(_ context.Context, venueID, runID string) (auction.Run, error) {
	key := runKey(venueID, runID)

	s.mu.RLock()
	payload, ok := s.runs[key]
	events := append([][]byte(nil), s.events[key]...)
	s.mu.RUnlock()
	if !ok {
		return auction.Run{}, fmt.Errorf("%w: run %s", auction.ErrNotFound, runID)
	}

	run, err := codec.DecodeRun(payload)
	if err != nil {
		return auction.Run{}, err
	}
	run.Events = make([]auction.Event, 0, len(events))
	for _, raw := range events {
		event, err := codec.DecodeEvent(raw)
		if err != nil {
			return auction.Run{}, err
		}
		run.Events = append(run.Events, event)
	}
	return run, nil
}

func (s *SessionStore) PutRun(_ context.Context, run auction.Run) error {
	payload, err := codec.EncodeRun(run)
	if err != nil {
		return err
	}
	key := runKey(run.VenueID, run.RunID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.runs[key]; !exists {
		s.runOrder[run.VenueID] = append(s.runOrder[run.VenueID], run.RunID)
	}
	s.runs[key] = payload
	return nil
}

func (s *SessionStore) AppendRunLog(_ context.Context, venueID, runID string, event auction.Event) error {
	payload, err := codec.EncodeEvent(event)
	if err != nil {
		return err
	}
	key := runKey(venueID, runID)

	s.mu.Lock()
	s.events[key] = append(s.events[key], payload)
	s.mu.Unlock()
	return nil
}

// ListRuns returns run headers without their event logs, in creation order.
func (s *SessionStore) ListRuns(_ context.Context, venueID string) ([]auction.Run, error) {
	s.mu.RLock()
	ids := append([]string(nil), s.runOrder[venueID]...)
	payloads := make([][]byte, 0, len(ids))
	for _, id := range ids {
		payloads = append(payloads, s.runs[runKey(venueID, id)])
	}
	s.mu.RUnlock()

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

func runKey(venueID, runID string) string {
	return venueID + "::" + runID
}
