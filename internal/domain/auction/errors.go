package auction

import (
	"errors"
	"fmt"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrAuthorization = errors.New("authorization error")
	ErrStateConflict = errors.New("state conflict")
	ErrNotFound      = errors.New("not found")
	ErrBudget        = errors.New("budget error")
	ErrRaceCondition = errors.New("race condition")
)

var (
	ErrNoActiveSlot        = fmt.Errorf("%w: no active slot", ErrStateConflict)
	ErrNotAuthorizedBidder = fmt.Errorf("%w: bidder is neither owner nor assistant of the team", ErrAuthorization)
	ErrBelowMinimum        = fmt.Errorf("%w: bid below start price", ErrValidation)
	ErrNotHighEnough       = fmt.Errorf("%w: bid must exceed the current highest bid", ErrValidation)
	ErrAlreadyHighest      = fmt.Errorf("%w: bidder already holds the highest bid", ErrStateConflict)
	ErrInsufficientBudget  = fmt.Errorf("%w: insufficient budget", ErrBudget)
	ErrMaxPurchasesReached = fmt.Errorf("%w: max purchases reached", ErrStateConflict)
	ErrBidTooLate          = fmt.Errorf("%w: bid arrived after the deadline", ErrRaceCondition)
	ErrInsufficientFunds   = fmt.Errorf("%w: insufficient funds", ErrBudget)
	ErrSlotActive          = fmt.Errorf("%w: a slot is already active", ErrStateConflict)
	ErrAuctionInactive     = fmt.Errorf("%w: no auction running", ErrStateConflict)
)
