package codec

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/auction-engine/internal/domain/auction"
)

// api is the std-compatible sonic config so payloads stay readable by encoding/json.
var api = sonic.ConfigStd

func EncodeSession(session auction.Session) ([]byte, error) {
	payload, err := api.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("encode session %s: %w", session.VenueID, err)
	}
	return payload, nil
}

func DecodeSession(payload []byte) (auction.Session, error) {
	var session auction.Session
	if err := api.Unmarshal(payload, &session); err != nil {
		return auction.Session{}, fmt.Errorf("decode session: %w", err)
	}
	session.Normalize()
	return session, nil
}

// EncodeRun drops the event log; events are appended through AppendRunLog only.
func EncodeRun(run auction.Run) ([]byte, error) {
	run.Events = nil
	payload, err := api.Marshal(run)
	if err != nil {
		return nil, fmt.Errorf("encode run %s: %w", run.RunID, err)
	}
	return payload, nil
}

func DecodeRun(payload []byte) (auction.Run, error) {
	var run auction.Run
	if err := api.Unmarshal(payload, &run); err != nil {
		return auction.Run{}, fmt.Errorf("decode run: %w", err)
	}
	run.Normalize()
	return run, nil
}

func EncodeEvent(event auction.Event) ([]byte, error) {
	payload, err := api.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode event %s: %w", event.Type, err)
	}
	return payload, nil
}

func DecodeEvent(payload []byte) (auction.Event, error) {
	var event auction.Event
	if err := api.Unmarshal(payload, &event); err != nil {
		return auction.Event{}, fmt.Errorf("decode event: %w", err)
	}
	return event, nil
}
