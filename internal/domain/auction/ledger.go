package auction

import (
	"fmt"
	"math"
)

// Remaining is the team's remaining balance.
func (s *Session) Remaining(team string) int64 {
	return s.TeamBudgets[TeamKey(team)]
}

// Purchases counts recorded sales to team.
func (s *Session) Purchases(team string) int {
	key := TeamKey(team)
	count := 0
	for _, entry := range s.Log {
		if entry.Sold() && TeamKey(entry.Team) == key {
			count++
		}
	}
	return count
}

func (s *Session) Spent(team string) int64 {
	key := TeamKey(team)
	var total int64
	for _, entry := range s.Log {
		if entry.Sold() && TeamKey(entry.Team) == key {
			total += *entry.Price
		}
	}
	return total
}

// Purchased lists the sold log entries of team in sale order.
func (s *Session) Purchased(team string) []LogEntry {
	key := TeamKey(team)
	out := make([]LogEntry, 0)
	for _, entry := range s.Log {
		if entry.Sold() && TeamKey(entry.Team) == key {
			out = append(out, entry)
		}
	}
	return out
}

// SetBudget sets the initial budget and resets the balance of every team without purchases.
func (s *Session) SetBudget(amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: budget must be > 0", ErrValidation)
	}
	s.Budget = amount
	for _, team := range s.Teams {
		if s.Purchases(team.Name) == 0 {
			s.TeamBudgets[TeamKey(team.Name)] = amount
		}
	}
	return nil
}

// Adjust applies a host correction to the team balance. Deductions below zero fail.
func (s *Session) Adjust(team string, delta int64) (int64, error) {
	found, ok := s.FindTeam(team)
	if !ok {
		return 0, fmt.Errorf("%w: team %q", ErrNotFound, team)
	}
	if delta == 0 {
		return 0, fmt.Errorf("%w: adjustment must not be zero", ErrValidation)
	}

	key := TeamKey(found.Name)
	next := s.TeamBudgets[key] + delta
	if next < 0 {
		return s.TeamBudgets[key], fmt.Errorf("%w: team %s has %d", ErrInsufficientFunds, found.Name, s.TeamBudgets[key])
	}
	s.TeamBudgets[key] = next
	return next, nil
}

// debit is the sale-time deduction; sufficiency was checked when the bid was accepted.
func (s *Session) debit(team string, amount int64) {
	s.TeamBudgets[TeamKey(team)] -= amount
}

// DefaultBidAmount is 1% of the per-team budget, at least 1.
func DefaultBidAmount(budget int64) int64 {
	amount := int64(math.Round(float64(budget) * 0.01))
	if amount < 1 {
		return 1
	}
	return amount
}

// ValidateBid checks a bid against the active slot and the team ledger, in a fixed order.
func (s *Session) ValidateBid(team string, bidder Identity, amount int64) error {
	slot := s.Slot
	if slot == nil {
		return ErrNoActiveSlot
	}
	if !s.CanBidFor(team, bidder) {
		return fmt.Errorf("%w: team %q", ErrNotAuthorizedBidder, team)
	}
	if amount < slot.StartPrice {
		return fmt.Errorf("%w: start price is %d", ErrBelowMinimum, slot.StartPrice)
	}
	if slot.Highest != nil {
		if amount <= slot.Highest.Amount {
			return fmt.Errorf("%w: current highest is %d", ErrNotHighEnough, slot.Highest.Amount)
		}
		if slot.Highest.Bidder.Equal(bidder) {
			return ErrAlreadyHighest
		}
	}
	if remaining := s.Remaining(team); remaining < amount {
		return fmt.Errorf("%w: remaining %d, bid %d", ErrInsufficientBudget, remaining, amount)
	}
	if s.MaxBuy > 0 && s.Purchases(team) >= s.MaxBuy {
		return fmt.Errorf("%w: limit is %d", ErrMaxPurchasesReached, s.MaxBuy)
	}
	return nil
}
