package auction

import (
	"fmt"
	"time"
)

// Outcome is the result of finalizing a slot.
type Outcome struct {
	Slot  Slot
	Entry LogEntry
}

func (o Outcome) Sold() bool {
	return o.Entry.Sold()
}

// OpenSlot creates the single active slot with deadline = now + countdown.
func (s *Session) OpenSlot(player Player, startPrice int64, now time.Time) (*Slot, error) {
	if s.Slot != nil {
		return nil, fmt.Errorf("%w: %s is on the block", ErrSlotActive, s.Slot.Player.DisplayName())
	}
	if s.Paused {
		return nil, fmt.Errorf("%w: auction is paused, resume before opening a slot", ErrStateConflict)
	}
	if startPrice <= 0 {
		return nil, fmt.Errorf("%w: start price must be > 0", ErrValidation)
	}

	s.SlotSeq++
	slot := &Slot{
		ID:         s.SlotSeq,
		Player:     player,
		StartPrice: startPrice,
		OpenedAt:   now,
		Deadline:   now.Add(s.Countdown()),
	}
	s.Slot = slot
	return slot, nil
}

// AcceptBid validates and records a bid, resetting the deadline to now + countdown.
func (s *Session) AcceptBid(bid Bid) error {
	if err := s.ValidateBid(bid.Team, bid.Bidder, bid.Amount); err != nil {
		return err
	}
	if found, ok := s.FindTeam(bid.Team); ok {
		bid.Team = found.Name
	}
	s.Slot.extend(bid, s.Countdown())
	return nil
}

func (sl *Slot) extend(bid Bid, countdown time.Duration) {
	highest := bid
	sl.Highest = &highest
	sl.Deadline = bid.At.Add(countdown)
	sl.Warned10 = false
	sl.LastWarnSecond = 0
}

func (sl *Slot) Expired(now time.Time) bool {
	return !now.Before(sl.Deadline)
}

func (sl *Slot) Remaining(now time.Time) time.Duration {
	remaining := sl.Deadline.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RemainingSeconds rounds the remaining time up to whole seconds.
func (sl *Slot) RemainingSeconds(now time.Time) int {
	remaining := sl.Remaining(now)
	seconds := int(remaining / time.Second)
	if remaining%time.Second != 0 {
		seconds++
	}
	return seconds
}

// NextWarning reports a countdown notice due at now: once when 10 seconds remain
// and once per whole second while 5 or fewer remain.
func (sl *Slot) NextWarning(now time.Time) (int, bool) {
	seconds := sl.RemainingSeconds(now)
	switch {
	case seconds <= 0:
		return 0, false
	case seconds <= 5:
		if sl.LastWarnSecond == seconds {
			return 0, false
		}
		sl.LastWarnSecond = seconds
		sl.Warned10 = true
		return seconds, true
	case seconds <= 10:
		if sl.Warned10 {
			return 0, false
		}
		sl.Warned10 = true
		return seconds, true
	default:
		return 0, false
	}
}

func (s *Session) Pause(now time.Time) error {
	if s.Paused {
		return fmt.Errorf("%w: auction is already paused", ErrStateConflict)
	}
	paused := now
	s.Paused = true
	s.PausedAt = &paused
	return nil
}

// Resume restores the remaining time the slot had when it was paused.
func (s *Session) Resume(now time.Time) (time.Duration, error) {
	if !s.Paused {
		return 0, fmt.Errorf("%w: auction is not paused", ErrStateConflict)
	}

	var remaining time.Duration
	if s.Slot != nil && s.PausedAt != nil {
		remaining = s.Slot.Deadline.Sub(*s.PausedAt)
		if remaining < 0 {
			remaining = 0
		}
		s.Slot.Deadline = now.Add(remaining)
	}
	s.Paused = false
	s.PausedAt = nil
	return remaining, nil
}

// CloseSlot finalizes the active slot. It is a no-op without one.
func (s *Session) CloseSlot(now time.Time) (Outcome, bool) {
	if s.Slot == nil {
		return Outcome{}, false
	}

	slot := *s.Slot
	entry := LogEntry{
		SlotID: slot.ID,
		Player: slot.Player,
		At:     now,
	}
	if slot.Highest != nil {
		price := slot.Highest.Amount
		buyer := slot.Highest.Bidder
		entry.Team = slot.Highest.Team
		entry.Buyer = &buyer
		entry.Price = &price
		s.debit(slot.Highest.Team, price)
	}

	s.Log = append(s.Log, entry)
	s.Slot = nil
	return Outcome{Slot: slot, Entry: entry}, true
}
