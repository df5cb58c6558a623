package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/auction-engine/internal/domain/auction"
	"github.com/riskibarqy/auction-engine/internal/domain/user"
)

// StartAuction makes the actor host of a fresh session and opens a new run.
func (s *AuctionService) StartAuction(ctx context.Context, actor user.Principal, venueID string) (auction.Session, error) {
	ctx, span := startVenueSpan(ctx, "StartAuction", venueID)
	defer span.End()

	var out auction.Session
	err := s.withVenue(ctx, venueID, actor, func(tx *venueTx) error {
		if tx.session.Active {
			return fmt.Errorf("%w: an auction is already running", auction.ErrStateConflict)
		}
		if tx.actor.IsZero() {
			return fmt.Errorf("%w: host identity is required", auction.ErrValidation)
		}

		s.scheduler.Stop(tx.venueID)
		session := auction.NewSession(tx.venueID)
		session.Active = true
		session.HostID = tx.actor
		session.HostName = tx.actorName
		session.CountdownSeconds = s.cfg.DefaultCountdownSeconds
		tx.session = session
		tx.run = nil

		if _, err := s.startRun(tx); err != nil {
			return err
		}
		tx.emit(auction.Event{Type: auction.EventAuctionStarted, Bidder: &session.HostID, BidderName: session.HostName})
		out = tx.session
		return nil
	})
	if err != nil {
		return auction.Session{}, err
	}

	s.logger.InfoContext(ctx, "auction started", "venue_id", venueID, "run_id", out.CurrentRunID, "host", out.HostID.String())
	return out, nil
}

// EndAuction finalizes any open slot, closes the run and clears the session.
func (s *AuctionService) EndAuction(ctx context.Context, actor user.Principal, venueID string) (auction.Run, error) {
	ctx, span := startVenueSpan(ctx, "EndAuction", venueID)
	defer span.End()

	var out auction.Run
	err := s.withVenue(ctx, venueID, actor, func(tx *venueTx) error {
		if err := s.requireHostOrAccess(tx); err != nil {
			return err
		}

		s.scheduler.Stop(tx.venueID)
		tx.session.AutoMode = false
		tx.session.Queue = nil
		if tx.session.Paused {
			if _, err := tx.session.Resume(tx.now); err != nil {
				return err
			}
		}
		if err := s.finalize(tx); err != nil {
			return err
		}

		run, err := s.ensureRun(tx)
		if err != nil {
			return err
		}
		run.Snapshot(tx.session)
		run.Close(tx.now)
		tx.runDirty = true
		tx.emit(auction.Event{Type: auction.EventAuctionEnded})

		out = *run
		ended := auction.NewSession(tx.venueID)
		ended.CountdownSeconds = s.cfg.DefaultCountdownSeconds
		// the last host and delegates keep read access to run history
		ended.HostID = tx.session.HostID
		ended.HostName = tx.session.HostName
		ended.AccessUsers = tx.session.AccessUsers
		tx.session = ended
		tx.touch()
		return nil
	})
	if err != nil {
		return auction.Run{}, err
	}

	s.logger.InfoContext(ctx, "auction ended", "venue_id", venueID, "run_id", out.RunID, "sold", len(out.Sold), "unsold", len(out.Unsold))
	return out, nil
}

func (s *AuctionService) SetTables(ctx context.Context, actor user.Principal, venueID string, tables int) error {
	ctx, span := startVenueSpan(ctx, "SetTables", venueID)
	defer span.End()

	return s.withVenue(ctx, venueID, actor, func(tx *venueTx) error {
		if err := s.requireHostOrAccess(tx); err != nil {
			return err
		}
		if err := tx.session.SetTables(tables); err != nil {
			return err
		}
		tx.touch()
		return nil
	})
}

func (s *AuctionService) SetBudget(ctx context.Context, actor user.Principal, venueID string, amount int64) error {
	ctx, span := startVenueSpan(ctx, "SetBudget", venueID)
	defer span.End()

	return s.withVenue(ctx, venueID, actor, func(tx *venueTx) error {
		if err := s.requireHostOrAccess(tx); err != nil {
			return err
		}
		if err := tx.session.SetBudget(amount); err != nil {
			return err
		}
		tx.touch()
		return nil
	})
}

func (s *AuctionService) SetMinMax(ctx context.Context, actor user.Principal, venueID string, minBuy, maxBuy int) error {
	ctx, span := startVenueSpan(ctx, "SetMinMax", venueID)
	defer span.End()

	return s.withVenue(ctx, venueID, actor, func(tx *venueTx) error {
		if err := s.requireHostOrAccess(tx); err != nil {
			return err
		}
		if err := tx.session.SetMinMax(minBuy, maxBuy); err != nil {
			return err
		}
		tx.touch()
		return nil
	})
}

func (s *AuctionService) SetCountdown(ctx context.Context, actor user.Principal, venueID string, seconds int) error {
	ctx, span := startVenueSpan(ctx, "SetCountdown", venueID)
	defer span.End()

	return s.withVenue(ctx, venueID, actor, func(tx *venueTx) error {
		if err := s.requireHostOrAccess(tx); err != nil {
			return err
		}
		if err := tx.session.SetCountdown(seconds); err != nil {
			return err
		}
		tx.touch()
		return nil
	})
}

// AssignTeam adds a member to a team; the first member of a new team becomes its owner.
func (s *AuctionService) AssignTeam(ctx context.Context, actor user.Principal, venueID, team, member string) (auction.Team, error) {
	ctx, span := startVenueSpan(ctx, "AssignTeam", venueID)
	defer span.End()

	var out auction.Team
	err := s.withVenue(ctx, venueID, actor, func(tx *venueTx) error {
		if err := s.requireTeamAdmin(tx, team); err != nil {
			return err
		}
		memberID, _, err := s.resolveIdentity(tx, member)
		if err != nil {
			return err
		}
		if _, err := tx.session.AssignMember(team, memberID); err != nil {
			return err
		}
		if _, err := s.ensureRun(tx); err != nil {
			return err
		}
		tx.touch()
		out, _ = tx.session.FindTeam(team)
		return nil
	})
	return out, err
}

func (s *AuctionService) RemoveTeam(ctx context.Context, actor user.Principal, venueID, team string) error {
	ctx, span := startVenueSpan(ctx, "RemoveTeam", venueID)
	defer span.End()

	return s.withVenue(ctx, venueID, actor, func(tx *venueTx) error {
		if err := s.requireHostOrAccess(tx); err != nil {
			return err
		}
		if slot := tx.session.Slot; slot != nil && slot.Highest != nil && auction.TeamKey(slot.Highest.Team) == auction.TeamKey(team) {
			return fmt.Errorf("%w: team %q holds the highest bid", auction.ErrStateConflict, team)
		}
		if _, err := tx.session.RemoveTeam(team); err != nil {
			return err
		}
		tx.touch()
		return nil
	})
}

// GrantAccess gives a user host-equivalent rights. Only the host may grant.
func (s *AuctionService) GrantAccess(ctx context.Context, actor user.Principal, venueID, userRef string) (auction.Identity, error) {
	ctx, span := startVenueSpan(ctx, "GrantAccess", venueID)
	defer span.End()

	var out auction.Identity
	err := s.withVenue(ctx, venueID, actor, func(tx *venueTx) error {
		if err := s.requireActive(tx); err != nil {
			return err
		}
		if !tx.session.HostID.Equal(tx.actor) {
			return fmt.Errorf("%w: only the host may grant access", auction.ErrAuthorization)
		}
		id, _, err := s.resolveIdentity(tx, userRef)
		if err != nil {
			return err
		}
		if !tx.session.GrantAccess(id) {
			return fmt.Errorf("%w: %s already has access", auction.ErrStateConflict, id)
		}
		tx.touch()
		out = id
		return nil
	})
	return out, err
}

func (s *AuctionService) AssignAssistant(ctx context.Context, actor user.Principal, venueID, team, userRef string) (auction.Identity, error) {
	ctx, span := startVenueSpan(ctx, "AssignAssistant", venueID)
	defer span.End()

	var out auction.Identity
	err := s.withVenue(ctx, venueID, actor, func(tx *venueTx) error {
		if err := s.requireTeamAdmin(tx, team); err != nil {
			return err
		}
		id, _, err := s.resolveIdentity(tx, userRef)
		if err != nil {
			return err
		}
		if _, err := tx.session.SetAssistant(team, id); err != nil {
			return err
		}
		tx.touch()
		out = id
		return nil
	})
	return out, err
}

func (s *AuctionService) RemoveAssistant(ctx context.Context, actor user.Principal, venueID, team string) (auction.Identity, error) {
	ctx, span := startVenueSpan(ctx, "RemoveAssistant", venueID)
	defer span.End()

	var out auction.Identity
	err := s.withVenue(ctx, venueID, actor, func(tx *venueTx) error {
		if err := s.requireTeamAdmin(tx, team); err != nil {
			return err
		}
		removed, err := tx.session.RemoveAssistant(team)
		if err != nil {
			return err
		}
		tx.touch()
		out = removed
		return nil
	})
	return out, err
}

// AdjustBudget applies a host correction (positive or negative) to a team balance.
func (s *AuctionService) AdjustBudget(ctx context.Context, actor user.Principal, venueID, team string, delta int64) (int64, error) {
	ctx, span := startVenueSpan(ctx, "AdjustBudget", venueID)
	defer span.End()

	var remaining int64
	err := s.withVenue(ctx, venueID, actor, func(tx *venueTx) error {
		if err := s.requireHostOrAccess(tx); err != nil {
			return err
		}
		next, err := tx.session.Adjust(team, delta)
		if err != nil {
			return err
		}
		tx.touch()
		remaining = next
		return nil
	})
	if err == nil {
		s.logger.InfoContext(ctx, "team budget adjusted", "venue_id", venueID, "team", team, "delta", delta, "remaining", remaining)
	}
	return remaining, err
}

// PlayerInput is one entry of a load or set definition; Identifier is a handle, code or id.
type PlayerInput struct {
	Identifier string
	Name       string
	Role       string
}

func (s *AuctionService) resolvePlayers(tx *venueTx, inputs []PlayerInput) ([]auction.Player, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: players are required", auction.ErrValidation)
	}

	out := make([]auction.Player, 0, len(inputs))
	for _, in := range inputs {
		identifier := strings.TrimSpace(in.Identifier)
		if identifier == "" {
			return nil, fmt.Errorf("%w: player identifier is required", auction.ErrValidation)
		}
		player := s.resolve(tx, identifier)
		if name := strings.TrimSpace(in.Name); name != "" {
			player.Name = name
		}
		if role := strings.TrimSpace(in.Role); role != "" {
			player.Role = role
		}
		out = append(out, player)
	}
	return out, nil
}

// LoadPlayers resolves and appends players to the venue pool.
func (s *AuctionService) LoadPlayers(ctx context.Context, actor user.Principal, venueID string, inputs []PlayerInput) (int, error) {
	ctx, span := startVenueSpan(ctx, "LoadPlayers", venueID)
	defer span.End()

	added := 0
	err := s.withVenue(ctx, venueID, actor, func(tx *venueTx) error {
		if err := s.requireHostOrAccess(tx); err != nil {
			return err
		}
		players, err := s.resolvePlayers(tx, inputs)
		if err != nil {
			return err
		}
		run, err := s.ensureRun(tx)
		if err != nil {
			return err
		}
		added = tx.session.AddPlayers(players...)
		run.PlayersLoaded = len(tx.session.Players)
		tx.runDirty = true
		tx.touch()
		return nil
	})
	return added, err
}

// DefineSet appends a named set sharing one base price.
func (s *AuctionService) DefineSet(ctx context.Context, actor user.Principal, venueID, name string, basePrice int64, inputs []PlayerInput) (auction.PlayerSet, int, error) {
	ctx, span := startVenueSpan(ctx, "DefineSet", venueID)
	defer span.End()

	var (
		out   auction.PlayerSet
		index int
	)
	err := s.withVenue(ctx, venueID, actor, func(tx *venueTx) error {
		if err := s.requireHostOrAccess(tx); err != nil {
			return err
		}
		players, err := s.resolvePlayers(tx, inputs)
		if err != nil {
			return err
		}
		run, err := s.ensureRun(tx)
		if err != nil {
			return err
		}
		set, err := tx.session.DefineSet(name, basePrice, players)
		if err != nil {
			return err
		}
		run.PlayersLoaded = len(tx.session.Players)
		tx.runDirty = true
		tx.touch()
		out = set
		index = len(tx.session.Sets) - 1
		return nil
	})
	return out, index, err
}
