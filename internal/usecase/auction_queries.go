package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/riskibarqy/auction-engine/internal/domain/auction"
	"github.com/riskibarqy/auction-engine/internal/domain/user"
)

type TeamStatus struct {
	Name      string            `json:"name"`
	Owner     auction.Identity  `json:"owner"`
	Assistant *auction.Identity `json:"assistant,omitempty"`
	Members   int               `json:"members"`
	Bought    int               `json:"bought"`
	Spent     int64             `json:"spent"`
	Remaining int64             `json:"remaining"`
	Shortfall int               `json:"shortfall"`
}

type StatusView struct {
	VenueID string       `json:"venue_id"`
	RunID   string       `json:"run_id,omitempty"`
	MinBuy  int          `json:"min_buy,omitempty"`
	MaxBuy  int          `json:"max_buy,omitempty"`
	Teams   []TeamStatus `json:"teams"`
}

type Purchase struct {
	Name   string `json:"name"`
	Handle string `json:"handle,omitempty"`
	Role   string `json:"role,omitempty"`
	Price  int64  `json:"price"`
}

type MyTeamView struct {
	Team      string     `json:"team"`
	Purchases []Purchase `json:"purchases"`
	Spent     int64      `json:"spent"`
	Remaining int64      `json:"remaining"`
}

type SummaryView struct {
	VenueID       string    `json:"venue_id"`
	Active        bool      `json:"active"`
	RunID         string    `json:"run_id,omitempty"`
	TablesSet     int       `json:"tables_set"`
	TablesTotal   int       `json:"tables_total"`
	Budget        int64     `json:"budget"`
	PlayersLoaded int       `json:"players_loaded"`
	Sold          int       `json:"sold"`
	Unsold        int       `json:"unsold"`
	Available     int       `json:"available"`
	Paused        bool      `json:"paused"`
	AutoMode      bool      `json:"auto_mode"`
	Sets          int       `json:"sets"`
	Slot          *SlotView `json:"slot,omitempty"`
}

type SlotView struct {
	Slot             auction.Slot `json:"slot"`
	RemainingSeconds int          `json:"remaining_seconds"`
	Paused           bool         `json:"paused"`
}

type PlayerRecord struct {
	Player auction.Player `json:"player"`
	Sold   bool           `json:"sold"`
	Team   string         `json:"team,omitempty"`
	Price  int64          `json:"price,omitempty"`
}

// Status reports per-team progress to the host, delegated users and team owners.
func (s *AuctionService) Status(ctx context.Context, actor user.Principal, venueID string) (StatusView, error) {
	ctx, span := startVenueSpan(ctx, "Status", venueID)
	defer span.End()

	var out StatusView
	err := s.withVenue(ctx, venueID, actor, func(tx *venueTx) error {
		if err := s.requireActive(tx); err != nil {
			return err
		}
		_, owner := tx.session.OwnedTeam(tx.actor)
		if !tx.session.IsHostOrAccess(tx.actor) && !owner {
			return fmt.Errorf("%w: status is limited to the host and team owners", auction.ErrAuthorization)
		}

		session := tx.session
		out = StatusView{
			VenueID: session.VenueID,
			RunID:   session.CurrentRunID,
			MinBuy:  session.MinBuy,
			MaxBuy:  session.MaxBuy,
			Teams:   make([]TeamStatus, 0, len(session.Teams)),
		}
		for _, team := range session.Teams {
			status := TeamStatus{
				Name:      team.Name,
				Owner:     team.Owner(),
				Members:   len(team.Members),
				Bought:    session.Purchases(team.Name),
				Spent:     session.Spent(team.Name),
				Remaining: session.Remaining(team.Name),
			}
			if assistant, ok := session.Assistants[auction.TeamKey(team.Name)]; ok {
				status.Assistant = &assistant
			}
			if session.MinBuy > status.Bought {
				status.Shortfall = session.MinBuy - status.Bought
			}
			out.Teams = append(out.Teams, status)
		}
		return nil
	})
	return out, err
}

// MyTeam shows the caller's team purchases. Members and the assistant may ask.
func (s *AuctionService) MyTeam(ctx context.Context, actor user.Principal, venueID string) (MyTeamView, error) {
	ctx, span := startVenueSpan(ctx, "MyTeam", venueID)
	defer span.End()

	var out MyTeamView
	err := s.withVenue(ctx, venueID, actor, func(tx *venueTx) error {
		team, ok := tx.session.TeamOf(tx.actor)
		if !ok {
			team, ok = tx.session.AssistedTeam(tx.actor)
		}
		if !ok {
			return fmt.Errorf("%w: %s is not part of any team", auction.ErrNotFound, tx.actor)
		}

		out = MyTeamView{
			Team:      team.Name,
			Purchases: []Purchase{},
			Spent:     tx.session.Spent(team.Name),
			Remaining: tx.session.Remaining(team.Name),
		}
		for _, entry := range tx.session.Purchased(team.Name) {
			out.Purchases = append(out.Purchases, Purchase{
				Name:   entry.Player.DisplayName(),
				Handle: entry.Player.Handle,
				Role:   entry.Player.Role,
				Price:  *entry.Price,
			})
		}
		return nil
	})
	return out, err
}

func (s *AuctionService) Summary(ctx context.Context, actor user.Principal, venueID string) (SummaryView, error) {
	ctx, span := startVenueSpan(ctx, "Summary", venueID)
	defer span.End()

	var out SummaryView
	err := s.withVenue(ctx, venueID, actor, func(tx *venueTx) error {
		if err := s.requireHostOrAccess(tx); err != nil {
			return err
		}

		session := tx.session
		sold := soldKeys(session)
		unsold := 0
		for _, entry := range session.Log {
			if !entry.Sold() {
				unsold++
			}
		}

		out = SummaryView{
			VenueID:       session.VenueID,
			Active:        session.Active,
			RunID:         session.CurrentRunID,
			TablesSet:     len(session.Teams),
			TablesTotal:   session.Tables,
			Budget:        session.Budget,
			PlayersLoaded: len(session.Players),
			Sold:          len(sold),
			Unsold:        unsold,
			Available:     len(session.Players) - len(sold),
			Paused:        session.Paused,
			AutoMode:      session.AutoMode,
			Sets:          len(session.Sets),
		}
		if slot := session.Slot; slot != nil {
			out.Slot = &SlotView{Slot: *slot, RemainingSeconds: slot.RemainingSeconds(tx.now), Paused: session.Paused}
		}
		return nil
	})
	return out, err
}

// Unsold lists loaded players that have not been sold. Anyone may ask.
func (s *AuctionService) Unsold(ctx context.Context, venueID string) ([]auction.Player, error) {
	ctx, span := startVenueSpan(ctx, "Unsold", venueID)
	defer span.End()

	var out []auction.Player
	err := s.withVenue(ctx, venueID, user.Principal{}, func(tx *venueTx) error {
		sold := soldKeys(tx.session)
		out = make([]auction.Player, 0, len(tx.session.Players))
		for _, p := range tx.session.Players {
			if _, ok := sold[p.Key()]; !ok {
				out = append(out, p)
			}
		}
		return nil
	})
	return out, err
}

// Player reports whether a loaded player was sold, to whom and for how much.
func (s *AuctionService) Player(ctx context.Context, venueID, identifier string) (PlayerRecord, error) {
	ctx, span := startVenueSpan(ctx, "Player", venueID)
	defer span.End()

	var out PlayerRecord
	err := s.withVenue(ctx, venueID, user.Principal{}, func(tx *venueTx) error {
		if strings.TrimSpace(identifier) == "" {
			return fmt.Errorf("%w: player identifier is required", auction.ErrValidation)
		}
		player, ok, err := auction.PoolLookup(tx.session.Players).Lookup(tx.ctx, identifier)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: player %q is not loaded", auction.ErrNotFound, identifier)
		}

		out = PlayerRecord{Player: player}
		key := player.Key()
		for _, entry := range tx.session.Log {
			if entry.Sold() && entry.Player.Key() == key {
				out.Sold = true
				out.Team = entry.Team
				out.Price = *entry.Price
			}
		}
		return nil
	})
	return out, err
}

// CurrentSlot returns the active slot with its remaining time; clients count down locally.
func (s *AuctionService) CurrentSlot(ctx context.Context, venueID string) (SlotView, error) {
	ctx, span := startVenueSpan(ctx, "CurrentSlot", venueID)
	defer span.End()

	var out SlotView
	err := s.withVenue(ctx, venueID, user.Principal{}, func(tx *venueTx) error {
		slot := tx.session.Slot
		if slot == nil {
			return auction.ErrNoActiveSlot
		}
		out = SlotView{Slot: *slot, RemainingSeconds: slot.RemainingSeconds(tx.now), Paused: tx.session.Paused}
		if tx.session.Paused && tx.session.PausedAt != nil {
			out.RemainingSeconds = slot.RemainingSeconds(*tx.session.PausedAt)
		}
		return nil
	})
	return out, err
}

// ListRuns returns the venue's run history, newest first.
func (s *AuctionService) ListRuns(ctx context.Context, actor user.Principal, venueID string) ([]auction.Run, error) {
	ctx, span := startVenueSpan(ctx, "ListRuns", venueID)
	defer span.End()

	var out []auction.Run
	err := s.withVenue(ctx, venueID, actor, func(tx *venueTx) error {
		if !tx.session.IsHostOrAccess(tx.actor) {
			return fmt.Errorf("%w: run history is limited to the host", auction.ErrAuthorization)
		}
		runs, err := s.store.ListRuns(tx.ctx, tx.venueID)
		if err != nil {
			return fmt.Errorf("%w: list runs venue=%s: %w", ErrDependencyUnavailable, tx.venueID, err)
		}
		sort.SliceStable(runs, func(i, j int) bool {
			return runs[i].StartedAt.After(runs[j].StartedAt)
		})
		out = runs
		return nil
	})
	return out, err
}

func (s *AuctionService) GetRun(ctx context.Context, actor user.Principal, venueID, runID string) (auction.Run, error) {
	ctx, span := startVenueSpan(ctx, "GetRun", venueID)
	defer span.End()

	var out auction.Run
	err := s.withVenue(ctx, venueID, actor, func(tx *venueTx) error {
		if !tx.session.IsHostOrAccess(tx.actor) {
			return fmt.Errorf("%w: run history is limited to the host", auction.ErrAuthorization)
		}
		run, err := s.store.GetRun(tx.ctx, tx.venueID, strings.TrimSpace(runID))
		if err != nil {
			if errors.Is(err, auction.ErrNotFound) {
				return err
			}
			return fmt.Errorf("%w: get run %s: %w", ErrDependencyUnavailable, runID, err)
		}
		out = run
		return nil
	})
	return out, err
}

func soldKeys(session auction.Session) map[string]struct{} {
	sold := make(map[string]struct{})
	for _, entry := range session.Log {
		if entry.Sold() {
			sold[entry.Player.Key()] = struct{}{}
		}
	}
	return sold
}
