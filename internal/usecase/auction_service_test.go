package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/auction-engine/internal/domain/auction"
	"github.com/riskibarqy/auction-engine/internal/domain/user"
)

func TestAuctionService_ScenarioA_UnsoldAfterCountdown(t *testing.T) {
	h := newTestHarness(t)
	h.setupVenue(t, 1000)
	ctx := context.Background()

	slot, err := h.svc.AnnounceSlot(ctx, testHost, testVenue, "500", 10)
	if err != nil {
		t.Fatalf("announce: %v", err)
	}
	if got := slot.Deadline.Sub(h.clock.Now()); got != 15*time.Second {
		t.Fatalf("expected 15s countdown, got %s", got)
	}

	h.clock.Advance(5 * time.Second)
	if done := h.tick(t); done {
		t.Fatalf("timer should keep running at 10s remaining")
	}
	warning, ok := h.notifier.last(auction.EventCountdownWarning)
	if !ok || warning.Remaining != 10 {
		t.Fatalf("expected 10s warning, got %+v ok=%v", warning, ok)
	}

	h.clock.Advance(10 * time.Second)
	if done := h.tick(t); !done {
		t.Fatalf("timer should stop once the slot is finalized")
	}

	if h.session(t).Slot != nil {
		t.Fatalf("slot should be cleared")
	}
	run := h.run(t)
	if len(run.Unsold) != 1 || len(run.Sold) != 0 {
		t.Fatalf("expected one unsold entry, got sold=%d unsold=%d", len(run.Sold), len(run.Unsold))
	}
	if run.Unsold[0].StartPrice != 10 {
		t.Fatalf("unexpected start price %d", run.Unsold[0].StartPrice)
	}
	entry := h.session(t).Log[0]
	if entry.Buyer != nil || entry.Price != nil {
		t.Fatalf("unsold entry must have no buyer or price: %+v", entry)
	}
	if h.notifier.count(auction.EventSlotUnsold) != 1 {
		t.Fatalf("expected exactly one unsold event")
	}
	if h.svc.scheduler.Len() != 0 {
		t.Fatalf("expected no live timers, got %d", h.svc.scheduler.Len())
	}
}

func TestAuctionService_ScenarioB_BidsExtendDeadline(t *testing.T) {
	h := newTestHarness(t)
	h.setupVenue(t, 100)
	ctx := context.Background()

	if _, err := h.svc.AnnounceSlot(ctx, testHost, testVenue, "500", 10); err != nil {
		t.Fatalf("announce: %v", err)
	}

	if _, err := h.svc.PlaceBid(ctx, testOwner1, testVenue, PlaceBidInput{Amount: amount(50)}); err != nil {
		t.Fatalf("T1 bid 50: %v", err)
	}
	h.clock.Advance(4 * time.Second)

	_, err := h.svc.PlaceBid(ctx, testOwner2, testVenue, PlaceBidInput{Amount: amount(40)})
	if !errors.Is(err, auction.ErrNotHighEnough) {
		t.Fatalf("expected ErrNotHighEnough, got %v", err)
	}
	if !errors.Is(err, auction.ErrValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}

	bid, err := h.svc.PlaceBid(ctx, testOwner2, testVenue, PlaceBidInput{Amount: amount(60)})
	if err != nil {
		t.Fatalf("T2 bid 60: %v", err)
	}
	if bid.Team != "T2" {
		t.Fatalf("team should be derived from the bidder, got %q", bid.Team)
	}

	view, err := h.svc.CurrentSlot(ctx, testVenue)
	if err != nil {
		t.Fatalf("current slot: %v", err)
	}
	if view.RemainingSeconds != 15 {
		t.Fatalf("deadline should reset to 15s, got %d", view.RemainingSeconds)
	}
	if view.Slot.Highest == nil || view.Slot.Highest.Amount != 60 {
		t.Fatalf("unexpected highest bid: %+v", view.Slot.Highest)
	}

	h.clock.Advance(15 * time.Second)
	h.tick(t)

	session := h.session(t)
	if got := session.Remaining("T2"); got != 40 {
		t.Fatalf("T2 remaining should be 40 after the sale, got %d", got)
	}
	if got := session.Remaining("T1"); got != 100 {
		t.Fatalf("T1 remaining should be untouched, got %d", got)
	}
}

func TestAuctionService_PlaceBid_Rejections(t *testing.T) {
	h := newTestHarness(t)
	h.setupVenue(t, 1000)
	ctx := context.Background()

	if _, err := h.svc.PlaceBid(ctx, testOwner1, testVenue, PlaceBidInput{}); !errors.Is(err, auction.ErrNoActiveSlot) {
		t.Fatalf("expected ErrNoActiveSlot, got %v", err)
	}

	if _, err := h.svc.AnnounceSlot(ctx, testHost, testVenue, "500", 10); err != nil {
		t.Fatalf("announce: %v", err)
	}

	cases := []struct {
		name  string
		actor user.Principal
		input PlaceBidInput
		want  error
	}{
		{name: "no team", actor: testGuest, input: PlaceBidInput{}, want: auction.ErrNotAuthorizedBidder},
		{name: "foreign team", actor: testOwner1, input: PlaceBidInput{Team: "T2", Amount: amount(20)}, want: auction.ErrNotAuthorizedBidder},
		{name: "below start", actor: testOwner1, input: PlaceBidInput{Amount: amount(5)}, want: auction.ErrBelowMinimum},
		{name: "over budget", actor: testOwner1, input: PlaceBidInput{Amount: amount(5000)}, want: auction.ErrInsufficientBudget},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.svc.PlaceBid(ctx, tc.actor, testVenue, tc.input)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	// default amount is 1% of the budget
	bid, err := h.svc.PlaceBid(ctx, testOwner1, testVenue, PlaceBidInput{})
	if err != nil {
		t.Fatalf("default bid: %v", err)
	}
	if bid.Amount != 10 {
		t.Fatalf("expected default amount 10, got %d", bid.Amount)
	}
	if _, err := h.svc.PlaceBid(ctx, testOwner1, testVenue, PlaceBidInput{Amount: amount(20)}); !errors.Is(err, auction.ErrAlreadyHighest) {
		t.Fatalf("expected ErrAlreadyHighest, got %v", err)
	}
}

func TestAuctionService_BidAfterDeadlineFinalizes(t *testing.T) {
	h := newTestHarness(t)
	h.setupVenue(t, 1000)
	ctx := context.Background()

	if _, err := h.svc.AnnounceSlot(ctx, testHost, testVenue, "500", 10); err != nil {
		t.Fatalf("announce: %v", err)
	}
	h.clock.Advance(15 * time.Second)

	_, err := h.svc.PlaceBid(ctx, testOwner1, testVenue, PlaceBidInput{Amount: amount(20)})
	if !errors.Is(err, auction.ErrBidTooLate) {
		t.Fatalf("expected ErrBidTooLate, got %v", err)
	}
	if h.session(t).Slot != nil {
		t.Fatalf("late bid should finalize the slot")
	}
	if len(h.run(t).Unsold) != 1 {
		t.Fatalf("expected the slot to be recorded unsold")
	}
}

func TestAuctionService_ScenarioD_AutoSequenceAndCompletion(t *testing.T) {
	h := newTestHarness(t)
	h.setupVenue(t, 1000)
	ctx := context.Background()

	inputs := []PlayerInput{{Identifier: "@p1"}, {Identifier: "@p2"}, {Identifier: "@p3"}}
	if _, index, err := h.svc.DefineSet(ctx, testHost, testVenue, "", 5, inputs); err != nil || index != 0 {
		t.Fatalf("define set: index=%d err=%v", index, err)
	}

	slot, err := h.svc.StartSet(ctx, testHost, testVenue, "0")
	if err != nil {
		t.Fatalf("start set: %v", err)
	}
	if slot == nil || slot.Player.Handle != "p1" || slot.StartPrice != 5 {
		t.Fatalf("expected p1 at 5, got %+v", slot)
	}

	h.clock.Advance(15 * time.Second)
	h.tick(t)

	current := h.session(t).Slot
	if current == nil || current.Player.Handle != "p2" {
		t.Fatalf("p2 should be announced automatically, got %+v", current)
	}
	if _, err := h.svc.PlaceBid(ctx, testOwner1, testVenue, PlaceBidInput{Amount: amount(5)}); err != nil {
		t.Fatalf("bid on p2: %v", err)
	}

	h.clock.Advance(15 * time.Second)
	h.tick(t)
	if current := h.session(t).Slot; current == nil || current.Player.Handle != "p3" {
		t.Fatalf("p3 should follow p2, got %+v", current)
	}
	if h.notifier.count(auction.EventRunComplete) != 0 {
		t.Fatalf("run should not be complete yet")
	}

	h.clock.Advance(15 * time.Second)
	h.tick(t)

	session := h.session(t)
	if session.Slot != nil || session.AutoMode {
		t.Fatalf("sequencer should stop: slot=%+v auto=%v", session.Slot, session.AutoMode)
	}
	setDone, ok := h.notifier.last(auction.EventSetComplete)
	if !ok || setDone.NextSet != nil {
		t.Fatalf("expected set_complete without a next set, got %+v ok=%v", setDone, ok)
	}
	if got := h.notifier.count(auction.EventRunComplete); got != 1 {
		t.Fatalf("expected exactly one run_complete, got %d", got)
	}

	run := h.run(t)
	if len(run.Sold) != 1 || run.Sold[0].Player.Handle != "p2" || run.Sold[0].Team != "T1" {
		t.Fatalf("unexpected sales: %+v", run.Sold)
	}
	if run.CompletedAt == nil {
		t.Fatalf("run should carry a completion time")
	}

	// replaying the unsold pool must not fire completion again
	slot, err = h.svc.StartSet(ctx, testHost, testVenue, auction.UnsoldSetRef)
	if err != nil {
		t.Fatalf("start unsold replay: %v", err)
	}
	if slot == nil || slot.Player.Handle != "p1" {
		t.Fatalf("expected p1 first in the replay, got %+v", slot)
	}
	h.clock.Advance(15 * time.Second)
	h.tick(t)
	h.clock.Advance(15 * time.Second)
	h.tick(t)

	if h.session(t).Slot != nil {
		t.Fatalf("replay should be exhausted")
	}
	if got := h.notifier.count(auction.EventRunComplete); got != 1 {
		t.Fatalf("run_complete must fire once, got %d", got)
	}
	if got := h.run(t).Attempts["h:p1"]; got != 2 {
		t.Fatalf("expected two attempts for p1, got %d", got)
	}
}

func TestAuctionService_StartSet_Errors(t *testing.T) {
	h := newTestHarness(t)
	h.setupVenue(t, 1000)
	ctx := context.Background()

	if _, err := h.svc.StartSet(ctx, testHost, testVenue, "3"); !errors.Is(err, auction.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a missing set, got %v", err)
	}
	if _, err := h.svc.StartSet(ctx, testHost, testVenue, auction.UnsoldSetRef); !errors.Is(err, auction.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for an empty unsold pool, got %v", err)
	}
	if _, err := h.svc.StartSet(ctx, testHost, testVenue, "first"); !errors.Is(err, auction.ErrValidation) {
		t.Fatalf("expected ErrValidation for a bad ref, got %v", err)
	}
	if _, err := h.svc.AutoAdvance(ctx, testHost, testVenue); !errors.Is(err, auction.ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict with an empty queue, got %v", err)
	}
}

func TestAuctionService_ScenarioE_PauseResume(t *testing.T) {
	h := newTestHarness(t)
	h.setupVenue(t, 1000)
	ctx := context.Background()

	if _, err := h.svc.AnnounceSlot(ctx, testHost, testVenue, "500", 10); err != nil {
		t.Fatalf("announce: %v", err)
	}
	h.clock.Advance(7 * time.Second)

	if err := h.svc.Pause(ctx, testHost, testVenue); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := h.svc.Pause(ctx, testHost, testVenue); !errors.Is(err, auction.ErrStateConflict) {
		t.Fatalf("second pause should conflict, got %v", err)
	}

	h.clock.Advance(20 * time.Second)
	if done := h.tick(t); done {
		t.Fatalf("paused slot must not finalize")
	}
	if _, err := h.svc.PlaceBid(ctx, testOwner1, testVenue, PlaceBidInput{Amount: amount(20)}); !errors.Is(err, auction.ErrStateConflict) {
		t.Fatalf("bids while paused should conflict, got %v", err)
	}

	view, err := h.svc.CurrentSlot(ctx, testVenue)
	if err != nil {
		t.Fatalf("current slot: %v", err)
	}
	if !view.Paused || view.RemainingSeconds != 8 {
		t.Fatalf("paused view should freeze at 8s, got %+v", view)
	}

	if err := h.svc.Resume(ctx, testHost, testVenue); err != nil {
		t.Fatalf("resume: %v", err)
	}
	view, err = h.svc.CurrentSlot(ctx, testVenue)
	if err != nil {
		t.Fatalf("current slot: %v", err)
	}
	if view.Paused || view.RemainingSeconds != 8 {
		t.Fatalf("resume should restore 8s, got %+v", view)
	}
}

func TestAuctionService_RepairsStaleSlot(t *testing.T) {
	h := newTestHarness(t)
	h.setupVenue(t, 1000)
	ctx := context.Background()

	if _, err := h.svc.AnnounceSlot(ctx, testHost, testVenue, "500", 10); err != nil {
		t.Fatalf("announce: %v", err)
	}

	t.Run("within grace the timer restarts", func(t *testing.T) {
		h.svc.scheduler.Stop(testVenue)
		h.clock.Advance(16 * time.Second)

		if _, err := h.svc.Summary(ctx, testHost, testVenue); err != nil {
			t.Fatalf("summary: %v", err)
		}
		if !h.svc.scheduler.Live(testVenue, h.session(t).Slot.ID) {
			t.Fatalf("timer should be restarted")
		}
	})

	t.Run("past grace the slot is finalized", func(t *testing.T) {
		h.svc.scheduler.Stop(testVenue)
		h.clock.Advance(10 * time.Second)

		summary, err := h.svc.Summary(ctx, testHost, testVenue)
		if err != nil {
			t.Fatalf("summary: %v", err)
		}
		if summary.Slot != nil || summary.Unsold != 1 {
			t.Fatalf("stale slot should be finalized unsold: %+v", summary)
		}
	})
}

func TestAuctionService_Authorization(t *testing.T) {
	h := newTestHarness(t)
	h.setupVenue(t, 1000)
	ctx := context.Background()

	if _, err := h.svc.AnnounceSlot(ctx, testGuest, testVenue, "500", 10); !errors.Is(err, auction.ErrAuthorization) {
		t.Fatalf("guest announce should be unauthorized, got %v", err)
	}
	if _, err := h.svc.GrantAccess(ctx, testOwner1, testVenue, "555"); !errors.Is(err, auction.ErrAuthorization) {
		t.Fatalf("only the host may grant access, got %v", err)
	}
	if _, err := h.svc.GrantAccess(ctx, testHost, testVenue, "555"); err != nil {
		t.Fatalf("grant access: %v", err)
	}
	if _, err := h.svc.GrantAccess(ctx, testHost, testVenue, "@555"); !errors.Is(err, auction.ErrStateConflict) {
		t.Fatalf("duplicate grant should conflict, got %v", err)
	}
	if _, err := h.svc.AnnounceSlot(ctx, testGuest, testVenue, "500", 10); err != nil {
		t.Fatalf("delegated announce: %v", err)
	}

	// owners manage their own team only
	if _, err := h.svc.AssignAssistant(ctx, testOwner1, testVenue, "T1", "@aide"); err != nil {
		t.Fatalf("owner assigns assistant: %v", err)
	}
	if _, err := h.svc.AssignAssistant(ctx, testOwner1, testVenue, "T2", "@other"); !errors.Is(err, auction.ErrAuthorization) {
		t.Fatalf("owner of T1 must not manage T2, got %v", err)
	}

	aide := user.Principal{UserID: "@aide", Name: "Aide"}
	bid, err := h.svc.PlaceBid(ctx, aide, testVenue, PlaceBidInput{Amount: amount(30)})
	if err != nil {
		t.Fatalf("assistant bid: %v", err)
	}
	if bid.Team != "T1" {
		t.Fatalf("assistant should bid for T1, got %q", bid.Team)
	}

	if _, err := h.svc.Status(ctx, aide, testVenue); !errors.Is(err, auction.ErrAuthorization) {
		t.Fatalf("assistants may not read status, got %v", err)
	}
	view, err := h.svc.MyTeam(ctx, aide, testVenue)
	if err != nil || view.Team != "T1" {
		t.Fatalf("assistant my-team: view=%+v err=%v", view, err)
	}
	if _, err := h.svc.MyTeam(ctx, user.Principal{UserID: "999"}, testVenue); !errors.Is(err, auction.ErrNotFound) {
		t.Fatalf("outsider my-team should be not found, got %v", err)
	}
}

func TestAuctionService_TeamManagement(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	if err := h.svc.SetTables(ctx, testHost, testVenue, 4); !errors.Is(err, auction.ErrAuctionInactive) {
		t.Fatalf("inactive venue should reject commands, got %v", err)
	}
	if _, err := h.svc.StartAuction(ctx, testHost, testVenue); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := h.svc.StartAuction(ctx, testHost, testVenue); !errors.Is(err, auction.ErrStateConflict) {
		t.Fatalf("second start should conflict, got %v", err)
	}
	if _, err := h.svc.AssignTeam(ctx, testHost, testVenue, "T1", "101"); !errors.Is(err, auction.ErrStateConflict) {
		t.Fatalf("teams need tables first, got %v", err)
	}
	if err := h.svc.SetTables(ctx, testHost, testVenue, 1); !errors.Is(err, auction.ErrValidation) {
		t.Fatalf("tables below 2 should be invalid, got %v", err)
	}
	if err := h.svc.SetTables(ctx, testHost, testVenue, 2); err != nil {
		t.Fatalf("set tables: %v", err)
	}
	if err := h.svc.SetBudget(ctx, testHost, testVenue, 500); err != nil {
		t.Fatalf("set budget: %v", err)
	}
	if _, err := h.svc.AssignTeam(ctx, testHost, testVenue, "Royal Strikers", "101"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	team, err := h.svc.AssignTeam(ctx, testOwner1, testVenue, "royal  strikers", "@mate")
	if err != nil {
		t.Fatalf("owner adds member: %v", err)
	}
	if team.Name != "Royal Strikers" || len(team.Members) != 2 {
		t.Fatalf("unexpected team: %+v", team)
	}
	if _, err := h.svc.AssignTeam(ctx, testHost, testVenue, "Night Owls", "102"); err != nil {
		t.Fatalf("assign second team: %v", err)
	}
	if _, err := h.svc.AssignTeam(ctx, testHost, testVenue, "Third", "103"); !errors.Is(err, auction.ErrStateConflict) {
		t.Fatalf("tables are full, got %v", err)
	}

	remaining, err := h.svc.AdjustBudget(ctx, testHost, testVenue, "Night Owls", -200)
	if err != nil || remaining != 300 {
		t.Fatalf("adjust: remaining=%d err=%v", remaining, err)
	}
	if _, err := h.svc.AdjustBudget(ctx, testHost, testVenue, "Night Owls", -301); !errors.Is(err, auction.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	status, err := h.svc.Status(ctx, testOwner1, testVenue)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if len(status.Teams) != 2 || status.Teams[1].Remaining != 300 {
		t.Fatalf("unexpected status: %+v", status)
	}

	if err := h.svc.RemoveTeam(ctx, testHost, testVenue, "night owls"); err != nil {
		t.Fatalf("remove team: %v", err)
	}
	if err := h.svc.RemoveTeam(ctx, testHost, testVenue, "night owls"); !errors.Is(err, auction.ErrNotFound) {
		t.Fatalf("second remove should be not found, got %v", err)
	}
}

func TestAuctionService_EndAuctionKeepsHistory(t *testing.T) {
	h := newTestHarness(t)
	h.setupVenue(t, 1000)
	ctx := context.Background()

	if _, err := h.svc.LoadPlayers(ctx, testHost, testVenue, []PlayerInput{{Identifier: "500", Name: "Asha", Role: "Batter"}}); err != nil {
		t.Fatalf("load players: %v", err)
	}
	if _, err := h.svc.AnnounceSlot(ctx, testHost, testVenue, "500", 0); err == nil {
		t.Fatalf("zero start price without a base price should be rejected")
	}
	if _, err := h.svc.AnnounceSlot(ctx, testHost, testVenue, "500", 25); err != nil {
		t.Fatalf("announce: %v", err)
	}
	if _, err := h.svc.PlaceBid(ctx, testOwner2, testVenue, PlaceBidInput{Amount: amount(40)}); err != nil {
		t.Fatalf("bid: %v", err)
	}

	run, err := h.svc.EndAuction(ctx, testHost, testVenue)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if len(run.Sold) != 1 || run.Sold[0].Price != 40 || run.EndedAt == nil {
		t.Fatalf("open slot should be sold on end: %+v", run)
	}
	if h.svc.scheduler.Len() != 0 {
		t.Fatalf("end should stop the timer")
	}

	session := h.session(t)
	if session.Active || len(session.Teams) != 0 {
		t.Fatalf("session should be reset: %+v", session)
	}

	record, err := h.svc.Player(ctx, testVenue, "500")
	if !errors.Is(err, auction.ErrNotFound) {
		t.Fatalf("player pool is cleared after end, got record=%+v err=%v", record, err)
	}

	runs, err := h.svc.ListRuns(ctx, testHost, testVenue)
	if err != nil || len(runs) != 1 {
		t.Fatalf("list runs: runs=%d err=%v", len(runs), err)
	}
	stored, err := h.svc.GetRun(ctx, testHost, testVenue, runs[0].RunID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if len(stored.Events) == 0 || stored.Events[0].Type != auction.EventAuctionStarted {
		t.Fatalf("run log should start with auction_started: %+v", stored.Events)
	}
	if stored.Events[len(stored.Events)-1].Type != auction.EventAuctionEnded {
		t.Fatalf("run log should end with auction_ended")
	}
	if _, err := h.svc.GetRun(ctx, testGuest, testVenue, runs[0].RunID); !errors.Is(err, auction.ErrAuthorization) {
		t.Fatalf("guests may not read run history, got %v", err)
	}
}

func TestAuctionService_ConcurrentBidsStayMonotonic(t *testing.T) {
	h := newTestHarness(t)
	h.setupVenue(t, 10000)
	ctx := context.Background()

	if _, err := h.svc.AnnounceSlot(ctx, testHost, testVenue, "500", 10); err != nil {
		t.Fatalf("announce: %v", err)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted []int64
	)
	for i := 0; i < 40; i++ {
		actor := testOwner1
		if i%2 == 1 {
			actor = testOwner2
		}
		value := int64(10 + i*7)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if bid, err := h.svc.PlaceBid(ctx, actor, testVenue, PlaceBidInput{Amount: amount(value)}); err == nil {
				mu.Lock()
				accepted = append(accepted, bid.Amount)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(accepted) == 0 {
		t.Fatalf("at least one bid must be accepted")
	}
	var highest int64
	for _, v := range accepted {
		highest = max(highest, v)
	}
	slot := h.session(t).Slot
	if slot == nil || slot.Highest == nil || slot.Highest.Amount != highest {
		t.Fatalf("highest bid should equal the largest accepted amount %d, got %+v", highest, slot)
	}
	if got := h.notifier.count(auction.EventBidAccepted); got != len(accepted) {
		t.Fatalf("expected %d bid events, got %d", len(accepted), got)
	}
}

func TestAuctionService_LateBidAfterTimerLoss(t *testing.T) {
	ctx := context.Background()

	t.Run("auto mode does not hand the bid to the next player", func(t *testing.T) {
		h := newTestHarness(t)
		h.setupVenue(t, 1000)

		inputs := []PlayerInput{{Identifier: "@p1"}, {Identifier: "@p2"}}
		if _, _, err := h.svc.DefineSet(ctx, testHost, testVenue, "", 5, inputs); err != nil {
			t.Fatalf("define set: %v", err)
		}
		if _, err := h.svc.StartSet(ctx, testHost, testVenue, "0"); err != nil {
			t.Fatalf("start set: %v", err)
		}

		h.svc.scheduler.Stop(testVenue)
		h.clock.Advance(60 * time.Second)

		if _, err := h.svc.PlaceBid(ctx, testOwner1, testVenue, PlaceBidInput{Amount: amount(7)}); !errors.Is(err, auction.ErrBidTooLate) {
			t.Fatalf("expected ErrBidTooLate, got %v", err)
		}
		slot := h.session(t).Slot
		if slot == nil || slot.Player.Handle != "p2" {
			t.Fatalf("p2 should be on the block, got %+v", slot)
		}
		if slot.Highest != nil {
			t.Fatalf("the late bid must not land on p2: %+v", slot.Highest)
		}
		run := h.run(t)
		if len(run.Unsold) != 1 || run.Unsold[0].Player.Handle != "p1" || len(run.Sold) != 0 {
			t.Fatalf("p1 should be recorded unsold only: sold=%+v unsold=%+v", run.Sold, run.Unsold)
		}
	})

	t.Run("manual slot reports too late, not missing", func(t *testing.T) {
		h := newTestHarness(t)
		h.setupVenue(t, 1000)

		if _, err := h.svc.AnnounceSlot(ctx, testHost, testVenue, "500", 10); err != nil {
			t.Fatalf("announce: %v", err)
		}
		h.svc.scheduler.Stop(testVenue)
		h.clock.Advance(60 * time.Second)

		if _, err := h.svc.PlaceBid(ctx, testOwner1, testVenue, PlaceBidInput{Amount: amount(20)}); !errors.Is(err, auction.ErrBidTooLate) {
			t.Fatalf("expected ErrBidTooLate, got %v", err)
		}
		if h.session(t).Slot != nil {
			t.Fatalf("the expired slot should be finalized")
		}
	})

	t.Run("a bid within the countdown restarts the timer", func(t *testing.T) {
		h := newTestHarness(t)
		h.setupVenue(t, 1000)

		slot, err := h.svc.AnnounceSlot(ctx, testHost, testVenue, "500", 10)
		if err != nil {
			t.Fatalf("announce: %v", err)
		}
		h.svc.scheduler.Stop(testVenue)
		h.clock.Advance(3 * time.Second)

		if _, err := h.svc.PlaceBid(ctx, testOwner1, testVenue, PlaceBidInput{Amount: amount(20)}); err != nil {
			t.Fatalf("bid: %v", err)
		}
		if !h.svc.scheduler.Live(testVenue, slot.ID) {
			t.Fatalf("timer should be running again after the bid")
		}
	})
}

func TestAuctionService_NoSlotOpensWhilePaused(t *testing.T) {
	h := newTestHarness(t)
	h.setupVenue(t, 1000)
	ctx := context.Background()

	if _, _, err := h.svc.DefineSet(ctx, testHost, testVenue, "", 5, []PlayerInput{{Identifier: "@p1"}}); err != nil {
		t.Fatalf("define set: %v", err)
	}
	if err := h.svc.Pause(ctx, testHost, testVenue); err != nil {
		t.Fatalf("pause: %v", err)
	}
	h.clock.Advance(100 * time.Second)

	if _, err := h.svc.AnnounceSlot(ctx, testHost, testVenue, "500", 10); !errors.Is(err, auction.ErrStateConflict) {
		t.Fatalf("announce while paused: expected ErrStateConflict, got %v", err)
	}
	if _, err := h.svc.StartSet(ctx, testHost, testVenue, "0"); !errors.Is(err, auction.ErrStateConflict) {
		t.Fatalf("start set while paused: expected ErrStateConflict, got %v", err)
	}
	if _, err := h.svc.AutoAdvance(ctx, testHost, testVenue); !errors.Is(err, auction.ErrStateConflict) {
		t.Fatalf("auto advance while paused: expected ErrStateConflict, got %v", err)
	}
	session := h.session(t)
	if session.Slot != nil || session.AutoMode || len(session.Queue) != 0 {
		t.Fatalf("a rejected start must leave the session untouched: slot=%+v auto=%v queue=%d", session.Slot, session.AutoMode, len(session.Queue))
	}

	if err := h.svc.Resume(ctx, testHost, testVenue); err != nil {
		t.Fatalf("resume: %v", err)
	}
	h.clock.Advance(100 * time.Second)
	slot, err := h.svc.AnnounceSlot(ctx, testHost, testVenue, "500", 10)
	if err != nil {
		t.Fatalf("announce after resume: %v", err)
	}
	if got := slot.RemainingSeconds(h.clock.Now()); got != 15 {
		t.Fatalf("expected a fresh 15s countdown, got %d", got)
	}
}

func TestAuctionService_PlayerSoldOncePerRun(t *testing.T) {
	h := newTestHarness(t)
	h.setupVenue(t, 1000)
	ctx := context.Background()

	if _, err := h.svc.AnnounceSlot(ctx, testHost, testVenue, "500", 10); err != nil {
		t.Fatalf("announce: %v", err)
	}
	if _, err := h.svc.PlaceBid(ctx, testOwner1, testVenue, PlaceBidInput{Amount: amount(20)}); err != nil {
		t.Fatalf("bid: %v", err)
	}
	h.clock.Advance(15 * time.Second)
	h.tick(t)
	if len(h.run(t).Sold) != 1 {
		t.Fatalf("expected the player to be sold")
	}

	if _, err := h.svc.AnnounceSlot(ctx, testHost, testVenue, "500", 10); !errors.Is(err, auction.ErrStateConflict) {
		t.Fatalf("re-announcing a sold player: expected ErrStateConflict, got %v", err)
	}
	if h.session(t).Slot != nil {
		t.Fatalf("no slot may open for a sold player")
	}
}

func TestAuctionService_UnsoldReplay(t *testing.T) {
	h := newTestHarness(t)
	h.setupVenue(t, 1000)
	ctx := context.Background()

	inputs := []PlayerInput{{Identifier: "@p1"}, {Identifier: "@p2"}, {Identifier: "@p3"}}
	if _, _, err := h.svc.DefineSet(ctx, testHost, testVenue, "", 5, inputs); err != nil {
		t.Fatalf("define set: %v", err)
	}
	if _, err := h.svc.StartSet(ctx, testHost, testVenue, "0"); err != nil {
		t.Fatalf("start set: %v", err)
	}
	// p1 unsold, p2 sold to T1, p3 unsold
	h.clock.Advance(15 * time.Second)
	h.tick(t)
	if _, err := h.svc.PlaceBid(ctx, testOwner1, testVenue, PlaceBidInput{Amount: amount(9)}); err != nil {
		t.Fatalf("bid on p2: %v", err)
	}
	h.clock.Advance(15 * time.Second)
	h.tick(t)
	h.clock.Advance(15 * time.Second)
	h.tick(t)

	h.notifier.mu.Lock()
	replayFrom := len(h.notifier.events)
	h.notifier.mu.Unlock()

	slot, err := h.svc.StartSet(ctx, testHost, testVenue, auction.UnsoldSetRef)
	if err != nil {
		t.Fatalf("start unsold replay: %v", err)
	}
	if slot == nil || slot.Player.Handle != "p1" || slot.StartPrice != 5 {
		t.Fatalf("expected p1 at its base price first, got %+v", slot)
	}
	h.clock.Advance(15 * time.Second)
	h.tick(t)
	h.clock.Advance(15 * time.Second)
	h.tick(t)

	h.notifier.mu.Lock()
	var opened []string
	for _, e := range h.notifier.events[replayFrom:] {
		if e.Type == auction.EventSlotOpened {
			opened = append(opened, e.Player.Handle)
		}
	}
	h.notifier.mu.Unlock()
	if len(opened) != 2 || opened[0] != "p1" || opened[1] != "p3" {
		t.Fatalf("replay should announce only p1 and p3, got %v", opened)
	}

	session := h.session(t)
	if session.Slot != nil || session.AutoMode || len(session.Queue) != 0 {
		t.Fatalf("replay should be exhausted: slot=%+v auto=%v", session.Slot, session.AutoMode)
	}
	done, ok := h.notifier.last(auction.EventSetComplete)
	if !ok || done.NextSet != nil {
		t.Fatalf("replay exhaustion must not name a next set: %+v", done)
	}
	run := h.run(t)
	if len(run.Sold) != 1 || run.Sold[0].Player.Handle != "p2" {
		t.Fatalf("p2 must stay sold once: %+v", run.Sold)
	}
	if run.Attempts["h:p1"] != 2 || run.Attempts["h:p3"] != 2 {
		t.Fatalf("unexpected attempts: %+v", run.Attempts)
	}
}
