package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/auction-engine/internal/domain/auction"
	"github.com/riskibarqy/auction-engine/internal/domain/user"
	idgen "github.com/riskibarqy/auction-engine/internal/platform/id"
	"github.com/riskibarqy/auction-engine/internal/platform/logging"
)

// AuctionConfig tunes the timer and stale-slot repair.
type AuctionConfig struct {
	TickInterval            time.Duration
	StaleGrace              time.Duration
	DefaultCountdownSeconds int
}

func DefaultAuctionConfig() AuctionConfig {
	return AuctionConfig{
		TickInterval:            time.Second,
		StaleGrace:              5 * time.Second,
		DefaultCountdownSeconds: auction.DefaultCountdownSeconds,
	}
}

// AuctionService is the command surface of the auction engine. Every command and every
// timer tick of a venue runs under that venue's lock.
type AuctionService struct {
	store     auction.Store
	notifier  auction.Notifier
	resolver  *auction.Resolver
	idGen     idgen.Generator
	cfg       AuctionConfig
	logger    *logging.Logger
	locks     *venueLocks
	scheduler *Scheduler
	shuffle   auction.Shuffler
	now       func() time.Time
}

func NewAuctionService(
	store auction.Store,
	notifier auction.Notifier,
	resolver *auction.Resolver,
	idGen idgen.Generator,
	cfg AuctionConfig,
	logger *logging.Logger,
) *AuctionService {
	if logger == nil {
		logger = logging.Default()
	}
	if notifier == nil {
		notifier = auction.NopNotifier()
	}
	if idGen == nil {
		idGen = idgen.NewRunIDGenerator()
	}
	defaults := DefaultAuctionConfig()
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaults.TickInterval
	}
	if cfg.StaleGrace <= 0 {
		cfg.StaleGrace = defaults.StaleGrace
	}
	cfg.DefaultCountdownSeconds = auction.ClampCountdown(cfg.DefaultCountdownSeconds)

	s := &AuctionService{
		store:    store,
		notifier: notifier,
		idGen:    idGen,
		cfg:      cfg,
		logger:   logger,
		locks:    newVenueLocks(),
		shuffle:  auction.RandomShuffle,
		now:      time.Now,
	}
	if resolver == nil {
		resolver = auction.NewResolver(s.reportLookupError, auction.NumericFallback())
	}
	s.resolver = resolver
	s.scheduler = NewScheduler(cfg.TickInterval, s.onTick)
	return s
}

// Shutdown stops every venue timer. Slots left open are repaired on the next command.
func (s *AuctionService) Shutdown(ctx context.Context) error {
	return s.scheduler.Shutdown(ctx)
}

type venueTx struct {
	ctx       context.Context
	venueID   string
	actor     auction.Identity
	actorName string
	now       time.Time
	session   auction.Session
	run       *auction.Run
	dirty     bool
	runDirty  bool
	events    []auction.Event
}

func (tx *venueTx) emit(event auction.Event) {
	event.VenueID = tx.venueID
	if event.RunID == "" {
		event.RunID = tx.session.CurrentRunID
	}
	if event.At.IsZero() {
		event.At = tx.now
	}
	tx.events = append(tx.events, event)
}

func (tx *venueTx) touch() {
	tx.dirty = true
}

func actorIdentity(actor user.Principal) auction.Identity {
	return auction.ParseIdentity(actor.UserID)
}

// withVenue loads the session under the venue lock, repairs a stale slot, runs fn and persists
// whatever fn marked dirty. State mutated before fn fails is still persisted, so fn must only
// mutate on success paths.
func (s *AuctionService) withVenue(ctx context.Context, venueID string, actor user.Principal, fn func(tx *venueTx) error) error {
	return s.inVenue(ctx, venueID, actor, true, fn)
}

func (s *AuctionService) inVenue(ctx context.Context, venueID string, actor user.Principal, repair bool, fn func(tx *venueTx) error) error {
	venueID = strings.TrimSpace(venueID)
	if venueID == "" {
		return fmt.Errorf("%w: venue id is required", auction.ErrValidation)
	}

	ctx = logging.ContextWith(ctx, "venue_id", venueID)
	unlock := s.locks.lock(venueID)
	defer unlock()

	session, err := s.store.GetSession(ctx, venueID)
	if err != nil {
		return fmt.Errorf("%w: load session venue=%s: %w", ErrDependencyUnavailable, venueID, err)
	}
	session.Normalize()
	session.VenueID = venueID

	tx := &venueTx{
		ctx:       ctx,
		venueID:   venueID,
		actor:     actorIdentity(actor),
		actorName: strings.TrimSpace(actor.Name),
		now:       s.now().UTC(),
		session:   session,
	}

	var fnErr error
	if repair {
		fnErr = s.repairStale(tx)
	}
	if fnErr == nil {
		fnErr = fn(tx)
	}

	if err := s.commit(tx); err != nil {
		recordSpanError(ctx, err)
		return err
	}
	recordSpanError(ctx, fnErr)
	return fnErr
}

func (s *AuctionService) commit(tx *venueTx) error {
	if tx.runDirty && tx.run != nil {
		if err := s.store.PutRun(tx.ctx, *tx.run); err != nil {
			return fmt.Errorf("%w: save run %s: %w", ErrDependencyUnavailable, tx.run.RunID, err)
		}
	}
	if tx.dirty {
		tx.session.UpdatedAt = tx.now
		if err := s.store.PutSession(tx.ctx, tx.session); err != nil {
			return fmt.Errorf("%w: save session venue=%s: %w", ErrDependencyUnavailable, tx.venueID, err)
		}
	}

	for _, event := range tx.events {
		if event.RunID != "" {
			if err := s.store.AppendRunLog(tx.ctx, tx.venueID, event.RunID, event); err != nil {
				s.logger.WarnContext(tx.ctx, "append run log failed",
					"run_id", event.RunID,
					"event", string(event.Type),
					"error", err,
				)
			}
		}
		s.notifier.Notify(tx.ctx, event)
	}
	return nil
}

// ensureRun loads the current run or starts one on the first state-changing action.
func (s *AuctionService) ensureRun(tx *venueTx) (*auction.Run, error) {
	if tx.run != nil {
		return tx.run, nil
	}

	if runID := tx.session.CurrentRunID; runID != "" {
		run, err := s.store.GetRun(tx.ctx, tx.venueID, runID)
		switch {
		case err == nil:
			run.Normalize()
			run.Events = nil
			tx.run = &run
			return tx.run, nil
		case !errors.Is(err, auction.ErrNotFound):
			return nil, fmt.Errorf("%w: load run %s: %w", ErrDependencyUnavailable, runID, err)
		}
		s.logger.WarnContext(tx.ctx, "current run missing, starting a new one", "run_id", runID)
	}

	return s.startRun(tx)
}

func (s *AuctionService) startRun(tx *venueTx) (*auction.Run, error) {
	runID, err := s.idGen.NewID()
	if err != nil {
		return nil, fmt.Errorf("generate run id: %w", err)
	}
	run := auction.NewRun(runID, tx.session, tx.now)
	tx.session.CurrentRunID = runID
	tx.run = &run
	tx.runDirty = true
	tx.touch()
	return tx.run, nil
}

// repairStale finalizes a slot whose timer died long after its deadline, or restarts the timer.
func (s *AuctionService) repairStale(tx *venueTx) error {
	slot := tx.session.Slot
	if slot == nil || s.scheduler.Live(tx.venueID, slot.ID) {
		return nil
	}

	if !tx.session.Paused && tx.now.Sub(slot.Deadline) > s.cfg.StaleGrace {
		s.logger.WarnContext(tx.ctx, "force finalizing stale slot",
			"slot_id", slot.ID,
			"deadline", slot.Deadline,
		)
		return s.finalize(tx)
	}

	s.logger.InfoContext(tx.ctx, "restarting slot timer", "slot_id", slot.ID)
	s.scheduler.Start(tx.venueID, slot.ID)
	return nil
}

func (s *AuctionService) requireActive(tx *venueTx) error {
	if !tx.session.Active {
		return auction.ErrAuctionInactive
	}
	return nil
}

func (s *AuctionService) requireHostOrAccess(tx *venueTx) error {
	if err := s.requireActive(tx); err != nil {
		return err
	}
	if !tx.session.IsHostOrAccess(tx.actor) {
		return fmt.Errorf("%w: only the host or delegated users may do this", auction.ErrAuthorization)
	}
	return nil
}

// requireTeamAdmin allows the host, delegated users and the owner of team.
func (s *AuctionService) requireTeamAdmin(tx *venueTx, team string) error {
	if err := s.requireActive(tx); err != nil {
		return err
	}
	if tx.session.IsHostOrAccess(tx.actor) || tx.session.IsOwnerOf(team, tx.actor) {
		return nil
	}
	return fmt.Errorf("%w: only the host or the team owner may manage team %q", auction.ErrAuthorization, team)
}

func (s *AuctionService) reportLookupError(identifier string, err error) {
	s.logger.Warn("identity lookup failed", "identifier", identifier, "error", err)
}

// resolve consults the venue pool before the configured lookups.
func (s *AuctionService) resolve(tx *venueTx, identifier string) auction.Player {
	return s.resolver.With(auction.PoolLookup(tx.session.Players)).Resolve(tx.ctx, identifier)
}

func (s *AuctionService) resolveIdentity(tx *venueTx, identifier string) (auction.Identity, auction.Player, error) {
	if strings.TrimSpace(identifier) == "" {
		return auction.Identity{}, auction.Player{}, fmt.Errorf("%w: user is required", auction.ErrValidation)
	}
	player := s.resolve(tx, identifier)
	id := player.Identity()
	if id.IsZero() {
		return auction.Identity{}, player, fmt.Errorf("%w: cannot identify %q", auction.ErrValidation, identifier)
	}
	return id, player, nil
}
