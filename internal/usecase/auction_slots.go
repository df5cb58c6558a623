package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/auction-engine/internal/domain/auction"
	"github.com/riskibarqy/auction-engine/internal/domain/user"
)

// AnnounceSlot puts a player on the block. A zero basePrice falls back to the player's base price.
func (s *AuctionService) AnnounceSlot(ctx context.Context, actor user.Principal, venueID, identifier string, basePrice int64) (auction.Slot, error) {
	ctx, span := startVenueSpan(ctx, "AnnounceSlot", venueID)
	defer span.End()

	var out auction.Slot
	err := s.withVenue(ctx, venueID, actor, func(tx *venueTx) error {
		if err := s.requireHostOrAccess(tx); err != nil {
			return err
		}
		if err := requireSlotFree(tx); err != nil {
			return err
		}
		if strings.TrimSpace(identifier) == "" {
			return fmt.Errorf("%w: player identifier is required", auction.ErrValidation)
		}

		player := s.resolve(tx, identifier)
		run, err := s.ensureRun(tx)
		if err != nil {
			return err
		}
		if run.IsSold(player.Key()) {
			return fmt.Errorf("%w: %s was already sold in this run", auction.ErrStateConflict, player.DisplayName())
		}

		price := basePrice
		if price <= 0 {
			price = player.BasePrice
		}
		slot, err := s.openSlot(tx, player, price)
		if err != nil {
			return err
		}
		out = *slot
		return nil
	})
	return out, err
}

// AutoAdvance announces the next queued player, as finalize does in auto mode.
func (s *AuctionService) AutoAdvance(ctx context.Context, actor user.Principal, venueID string) (*auction.Slot, error) {
	ctx, span := startVenueSpan(ctx, "AutoAdvance", venueID)
	defer span.End()

	var out *auction.Slot
	err := s.withVenue(ctx, venueID, actor, func(tx *venueTx) error {
		if err := s.requireHostOrAccess(tx); err != nil {
			return err
		}
		if err := requireSlotFree(tx); err != nil {
			return err
		}
		if len(tx.session.Queue) == 0 {
			return fmt.Errorf("%w: no queued players, start a set first", auction.ErrStateConflict)
		}
		if err := s.advance(tx); err != nil {
			return err
		}
		if tx.session.Slot != nil {
			slot := *tx.session.Slot
			out = &slot
		}
		return nil
	})
	return out, err
}

// StartSet queues a defined set (by zero-based index) or the unsold pool and announces the first player.
func (s *AuctionService) StartSet(ctx context.Context, actor user.Principal, venueID, ref string) (*auction.Slot, error) {
	ctx, span := startVenueSpan(ctx, "StartSet", venueID)
	defer span.End()

	var out *auction.Slot
	err := s.withVenue(ctx, venueID, actor, func(tx *venueTx) error {
		if err := s.requireHostOrAccess(tx); err != nil {
			return err
		}
		if err := requireSlotFree(tx); err != nil {
			return err
		}
		index, unsold, err := auction.ParseSetRef(ref)
		if err != nil {
			return err
		}
		run, err := s.ensureRun(tx)
		if err != nil {
			return err
		}

		var players []auction.Player
		if unsold {
			players = run.UnsoldPool()
			if len(players) == 0 {
				return fmt.Errorf("%w: no unsold players in this run", auction.ErrNotFound)
			}
			index = tx.session.SetIndex
		} else {
			if index >= len(tx.session.Sets) {
				return fmt.Errorf("%w: set %d", auction.ErrNotFound, index)
			}
			players = tx.session.Sets[index].Players
		}

		queued := tx.session.LoadQueue(players, index, unsold, s.shuffle)
		tx.touch()
		s.logger.InfoContext(tx.ctx, "set started", "set", ref, "queued", queued)

		if err := s.advance(tx); err != nil {
			return err
		}
		if tx.session.Slot != nil {
			slot := *tx.session.Slot
			out = &slot
		}
		return nil
	})
	return out, err
}

// PlaceBidInput carries an optional team (derived from the bidder when empty) and amount.
type PlaceBidInput struct {
	Team   string
	Amount *int64
}

func (s *AuctionService) PlaceBid(ctx context.Context, actor user.Principal, venueID string, input PlaceBidInput) (auction.Bid, error) {
	ctx, span := startVenueSpan(ctx, "PlaceBid", venueID)
	defer span.End()

	var out auction.Bid
	// Stale repair is skipped: an expired slot must reject this bid, not hand it to the next queued player.
	err := s.inVenue(ctx, venueID, actor, false, func(tx *venueTx) error {
		slot := tx.session.Slot
		if slot == nil {
			return auction.ErrNoActiveSlot
		}
		if tx.session.Paused {
			return fmt.Errorf("%w: auction is paused", auction.ErrStateConflict)
		}
		if slot.Expired(tx.now) {
			if err := s.finalize(tx); err != nil {
				return err
			}
			return auction.ErrBidTooLate
		}
		if !s.scheduler.Live(tx.venueID, slot.ID) {
			s.scheduler.Start(tx.venueID, slot.ID)
		}

		team := strings.TrimSpace(input.Team)
		if team == "" {
			found, ok := tx.session.BiddingTeam(tx.actor)
			if !ok {
				return fmt.Errorf("%w: %s owns or assists no team", auction.ErrNotAuthorizedBidder, tx.actor)
			}
			team = found.Name
		}

		amount := auction.DefaultBidAmount(tx.session.Budget)
		if input.Amount != nil {
			amount = *input.Amount
		}

		bid := auction.Bid{
			Team:       team,
			Bidder:     tx.actor,
			BidderName: tx.actorName,
			Amount:     amount,
			At:         tx.now,
		}
		if err := tx.session.AcceptBid(bid); err != nil {
			return err
		}
		tx.touch()

		accepted := *tx.session.Slot.Highest
		player := tx.session.Slot.Player
		tx.emit(auction.Event{
			Type:       auction.EventBidAccepted,
			SlotID:     tx.session.Slot.ID,
			Player:     &player,
			Team:       accepted.Team,
			Bidder:     &accepted.Bidder,
			BidderName: accepted.BidderName,
			Amount:     accepted.Amount,
			Remaining:  tx.session.Slot.RemainingSeconds(tx.now),
		})
		out = accepted
		return nil
	})
	return out, err
}

func (s *AuctionService) Pause(ctx context.Context, actor user.Principal, venueID string) error {
	ctx, span := startVenueSpan(ctx, "Pause", venueID)
	defer span.End()

	return s.withVenue(ctx, venueID, actor, func(tx *venueTx) error {
		if err := s.requireHostOrAccess(tx); err != nil {
			return err
		}
		if err := tx.session.Pause(tx.now); err != nil {
			return err
		}
		tx.touch()

		event := auction.Event{Type: auction.EventPaused}
		if slot := tx.session.Slot; slot != nil {
			event.SlotID = slot.ID
			event.Remaining = slot.RemainingSeconds(tx.now)
		}
		tx.emit(event)
		return nil
	})
}

func (s *AuctionService) Resume(ctx context.Context, actor user.Principal, venueID string) error {
	ctx, span := startVenueSpan(ctx, "Resume", venueID)
	defer span.End()

	return s.withVenue(ctx, venueID, actor, func(tx *venueTx) error {
		if err := s.requireHostOrAccess(tx); err != nil {
			return err
		}
		remaining, err := tx.session.Resume(tx.now)
		if err != nil {
			return err
		}
		tx.touch()

		event := auction.Event{Type: auction.EventResumed}
		if slot := tx.session.Slot; slot != nil {
			event.SlotID = slot.ID
			event.Remaining = slot.RemainingSeconds(tx.now)
			if !s.scheduler.Live(tx.venueID, slot.ID) {
				s.scheduler.Start(tx.venueID, slot.ID)
			}
		}
		tx.emit(event)
		s.logger.InfoContext(tx.ctx, "auction resumed", "remaining", remaining.String())
		return nil
	})
}

// onTick is the scheduler step: finalize on expiry, otherwise emit due countdown notices.
func (s *AuctionService) onTick(ctx context.Context, venueID string, slotID int64, gen uint64) bool {
	// finalize cancels the timer context; the step itself must still complete.
	ctx = context.WithoutCancel(ctx)

	done := false
	err := s.inVenue(ctx, venueID, user.Principal{}, false, func(tx *venueTx) error {
		if !s.scheduler.Current(tx.venueID, gen) {
			done = true
			return nil
		}
		slot := tx.session.Slot
		if slot == nil || slot.ID != slotID {
			done = true
			return nil
		}
		if tx.session.Paused {
			return nil
		}
		if slot.Expired(tx.now) {
			done = true
			return s.finalize(tx)
		}
		if seconds, ok := slot.NextWarning(tx.now); ok {
			tx.touch()
			player := slot.Player
			tx.emit(auction.Event{
				Type:      auction.EventCountdownWarning,
				SlotID:    slot.ID,
				Player:    &player,
				Remaining: seconds,
			})
		}
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "slot tick failed", "venue_id", venueID, "slot_id", slotID, "error", err)
	}
	return done
}

// finalize closes the active slot. It is a no-op without one.
func (s *AuctionService) finalize(tx *venueTx) error {
	if tx.session.Slot == nil {
		return nil
	}
	run, err := s.ensureRun(tx)
	if err != nil {
		return err
	}

	outcome, ok := tx.session.CloseSlot(tx.now)
	if !ok {
		return nil
	}
	s.scheduler.Stop(tx.venueID)
	tx.touch()

	run.Record(outcome)
	tx.runDirty = true

	player := outcome.Slot.Player
	if outcome.Sold() {
		tx.emit(auction.Event{
			Type:   auction.EventSlotSold,
			SlotID: outcome.Slot.ID,
			Player: &player,
			Team:   outcome.Entry.Team,
			Bidder: outcome.Entry.Buyer,
			Amount: *outcome.Entry.Price,
		})
	} else {
		tx.emit(auction.Event{
			Type:   auction.EventSlotUnsold,
			SlotID: outcome.Slot.ID,
			Player: &player,
			Amount: outcome.Slot.StartPrice,
		})
	}

	if run.Complete(tx.session.Players) {
		s.markComplete(tx, run)
	}
	if tx.session.AutoMode {
		return s.advance(tx)
	}
	return nil
}

// advance announces the next eligible queued player or handles exhaustion of the queue.
func (s *AuctionService) advance(tx *venueTx) error {
	run, err := s.ensureRun(tx)
	if err != nil {
		return err
	}

	next, ok := tx.session.NextQueued(run)
	tx.touch()
	if ok {
		price := next.BasePrice
		if price <= 0 {
			price = 1
		}
		_, err := s.openSlot(tx, next, price)
		return err
	}

	tx.session.AutoMode = false
	if index, more := tx.session.NextSetIndex(); more {
		tx.emit(auction.Event{Type: auction.EventSetComplete, NextSet: &index})
		return nil
	}
	tx.emit(auction.Event{Type: auction.EventSetComplete})
	s.markComplete(tx, run)
	return nil
}

// requireSlotFree rejects opening a slot while one is live or the venue is paused.
func requireSlotFree(tx *venueTx) error {
	if tx.session.Slot != nil {
		return auction.ErrSlotActive
	}
	if tx.session.Paused {
		return fmt.Errorf("%w: auction is paused, resume before opening a slot", auction.ErrStateConflict)
	}
	return nil
}

func (s *AuctionService) openSlot(tx *venueTx, player auction.Player, price int64) (*auction.Slot, error) {
	if _, err := s.ensureRun(tx); err != nil {
		return nil, err
	}
	slot, err := tx.session.OpenSlot(player, price, tx.now)
	if err != nil {
		return nil, err
	}
	tx.session.AddPlayers(player)
	tx.touch()
	s.scheduler.Start(tx.venueID, slot.ID)

	snapshot := slot.Player
	tx.emit(auction.Event{
		Type:      auction.EventSlotOpened,
		SlotID:    slot.ID,
		Player:    &snapshot,
		Amount:    slot.StartPrice,
		Remaining: slot.RemainingSeconds(tx.now),
	})
	return slot, nil
}

func (s *AuctionService) markComplete(tx *venueTx, run *auction.Run) {
	if !run.MarkComplete(tx.now) {
		return
	}
	tx.runDirty = true
	tx.emit(auction.Event{Type: auction.EventRunComplete})
	s.logger.InfoContext(tx.ctx, "run complete", "run_id", run.RunID, "sold", len(run.Sold), "unsold", len(run.Unsold))
}
