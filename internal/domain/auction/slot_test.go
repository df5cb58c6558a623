package auction

import (
	"errors"
	"testing"
	"time"
)

func TestOpenSlot_SingleActiveSlot(t *testing.T) {
	s := newTestSession(t, 100)
	slot, err := s.OpenSlot(Player{UserID: 900, Name: "P"}, 10, testNow)
	if err != nil {
		t.Fatalf("open slot: %v", err)
	}
	if !slot.Deadline.Equal(testNow.Add(15 * time.Second)) {
		t.Fatalf("unexpected deadline %s", slot.Deadline)
	}
	if _, err := s.OpenSlot(Player{UserID: 901, Name: "Q"}, 10, testNow); !errors.Is(err, ErrSlotActive) || !errors.Is(err, ErrStateConflict) {
		t.Fatalf("expected slot conflict, got %v", err)
	}
	if s.Slot.ID != slot.ID {
		t.Fatalf("active slot must not be replaced")
	}
}

func TestOpenSlot_RejectedWhilePaused(t *testing.T) {
	s := newTestSession(t, 100)
	if err := s.Pause(testNow); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if _, err := s.OpenSlot(Player{UserID: 900, Name: "P"}, 10, testNow.Add(100*time.Second)); !errors.Is(err, ErrStateConflict) {
		t.Fatalf("expected a state conflict while paused, got %v", err)
	}
	if s.Slot != nil || s.SlotSeq != 0 {
		t.Fatalf("no slot may open while paused: %+v", s.Slot)
	}
}

func TestCloseSlot_ScenarioA_UnsoldWithoutBids(t *testing.T) {
	s := newTestSession(t, 100)
	if _, err := s.OpenSlot(Player{UserID: 900, Name: "P"}, 10, testNow); err != nil {
		t.Fatalf("open slot: %v", err)
	}

	expiry := testNow.Add(15 * time.Second)
	if !s.Slot.Expired(expiry) {
		t.Fatalf("slot must expire after the countdown")
	}

	outcome, ok := s.CloseSlot(expiry)
	if !ok {
		t.Fatalf("expected an outcome")
	}
	if outcome.Sold() || outcome.Entry.Buyer != nil || outcome.Entry.Price != nil {
		t.Fatalf("expected unsold outcome with no buyer, got %+v", outcome.Entry)
	}
	if s.Slot != nil {
		t.Fatalf("slot must be cleared")
	}
}

func TestCloseSlot_IdempotentWithoutSlot(t *testing.T) {
	s := newTestSession(t, 100)
	if _, err := s.OpenSlot(Player{UserID: 900, Name: "P"}, 10, testNow); err != nil {
		t.Fatalf("open slot: %v", err)
	}
	if _, ok := s.CloseSlot(testNow); !ok {
		t.Fatalf("first close must finalize")
	}
	logLen := len(s.Log)
	for i := 0; i < 3; i++ {
		if _, ok := s.CloseSlot(testNow); ok {
			t.Fatalf("close without slot must be a no-op")
		}
	}
	if len(s.Log) != logLen {
		t.Fatalf("no-op close must not touch the log")
	}
}

func TestPauseResume_ScenarioE(t *testing.T) {
	s := newTestSession(t, 100)
	if _, err := s.OpenSlot(Player{UserID: 900, Name: "P"}, 10, testNow); err != nil {
		t.Fatalf("open slot: %v", err)
	}

	pauseAt := testNow.Add(7 * time.Second)
	if got := s.Slot.Remaining(pauseAt); got != 8*time.Second {
		t.Fatalf("expected 8s remaining before pause, got %s", got)
	}
	if err := s.Pause(pauseAt); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := s.Pause(pauseAt); !errors.Is(err, ErrStateConflict) {
		t.Fatalf("double pause must conflict, got %v", err)
	}

	resumeAt := pauseAt.Add(20 * time.Second)
	restored, err := s.Resume(resumeAt)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if restored != 8*time.Second || s.Slot.Remaining(resumeAt) != 8*time.Second {
		t.Fatalf("expected exactly 8s after resume, got %s", s.Slot.Remaining(resumeAt))
	}
	if s.Paused || s.PausedAt != nil {
		t.Fatalf("resume must clear pause state")
	}
}

func TestResume_NeverNegative(t *testing.T) {
	s := newTestSession(t, 100)
	if _, err := s.OpenSlot(Player{UserID: 900, Name: "P"}, 10, testNow); err != nil {
		t.Fatalf("open slot: %v", err)
	}
	late := testNow.Add(20 * time.Second)
	if err := s.Pause(late); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if _, err := s.Resume(late.Add(time.Minute)); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if got := s.Slot.Remaining(late.Add(time.Minute)); got != 0 {
		t.Fatalf("expected zero remaining, got %s", got)
	}
}

func TestNextWarning_Milestones(t *testing.T) {
	s := newTestSession(t, 100)
	slot, err := s.OpenSlot(Player{UserID: 900, Name: "P"}, 10, testNow)
	if err != nil {
		t.Fatalf("open slot: %v", err)
	}

	var fired []int
	for elapsed := 0; elapsed <= 15; elapsed++ {
		now := testNow.Add(time.Duration(elapsed) * time.Second)
		if sec, ok := slot.NextWarning(now); ok {
			fired = append(fired, sec)
		}
		// a second tick within the same second must not refire
		if _, ok := slot.NextWarning(now.Add(100 * time.Millisecond)); ok {
			t.Fatalf("duplicate warning at elapsed=%d", elapsed)
		}
	}

	want := []int{10, 5, 4, 3, 2, 1}
	if len(fired) != len(want) {
		t.Fatalf("unexpected warnings %v", fired)
	}
	for i := range want {
		if fired[i] != want[i] {
			t.Fatalf("unexpected warnings %v", fired)
		}
	}

	if err := s.AcceptBid(bid("T1", "101", 10, testNow.Add(14*time.Second))); err != nil {
		t.Fatalf("bid: %v", err)
	}
	if slot.Warned10 || slot.LastWarnSecond != 0 {
		t.Fatalf("accepted bid must clear milestone flags")
	}
}
