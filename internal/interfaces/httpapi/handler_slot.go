package httpapi

import (
	"net/http"

	"github.com/riskibarqy/auction-engine/internal/usecase"
)

func (h *Handler) LoadPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.LoadPlayers")
	defer span.End()

	venueID := venueIDFromPath(r)
	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	var req loadPlayersRequest
	if err := h.decodeRequest(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	added, err := h.auctionService.LoadPlayers(ctx, principal, venueID, playerInputs(req.Players))
	if err != nil {
		h.fail(ctx, w, "load players failed", venueID, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, loadedDTO{Added: added})
}

func (h *Handler) DefineSet(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DefineSet")
	defer span.End()

	venueID := venueIDFromPath(r)
	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	var req defineSetRequest
	if err := h.decodeRequest(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	set, index, err := h.auctionService.DefineSet(ctx, principal, venueID, req.Name, req.BasePrice, playerInputs(req.Players))
	if err != nil {
		h.fail(ctx, w, "define set failed", venueID, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, setDTO{
		Index:     index,
		Name:      set.Name,
		BasePrice: set.BasePrice,
		Players:   set.Players,
	})
}

func (h *Handler) StartSet(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StartSet")
	defer span.End()

	venueID := venueIDFromPath(r)
	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	slot, err := h.auctionService.StartSet(ctx, principal, venueID, r.PathValue("set"))
	if err != nil {
		h.fail(ctx, w, "start set failed", venueID, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, slotStartDTO{Slot: slot})
}

func (h *Handler) AnnounceSlot(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AnnounceSlot")
	defer span.End()

	venueID := venueIDFromPath(r)
	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	var req announceSlotRequest
	if err := h.decodeRequest(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	slot, err := h.auctionService.AnnounceSlot(ctx, principal, venueID, req.Player, req.BasePrice)
	if err != nil {
		h.fail(ctx, w, "announce slot failed", venueID, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, slot)
}

func (h *Handler) AutoAdvance(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AutoAdvance")
	defer span.End()

	venueID := venueIDFromPath(r)
	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	slot, err := h.auctionService.AutoAdvance(ctx, principal, venueID)
	if err != nil {
		h.fail(ctx, w, "auto advance failed", venueID, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, slotStartDTO{Slot: slot})
}

func (h *Handler) GetSlot(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSlot")
	defer span.End()

	venueID := venueIDFromPath(r)
	slot, err := h.auctionService.CurrentSlot(ctx, venueID)
	if err != nil {
		h.fail(ctx, w, "get slot failed", venueID, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, slot)
}

func (h *Handler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PlaceBid")
	defer span.End()

	venueID := venueIDFromPath(r)
	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	var req placeBidRequest
	if err := h.decodeRequest(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	bid, err := h.auctionService.PlaceBid(ctx, principal, venueID, usecase.PlaceBidInput{
		Team:   req.Team,
		Amount: req.Amount,
	})
	if err != nil {
		h.fail(ctx, w, "place bid failed", venueID, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, bid)
}

func (h *Handler) Pause(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Pause")
	defer span.End()

	venueID := venueIDFromPath(r)
	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.auctionService.Pause(ctx, principal, venueID); err != nil {
		h.fail(ctx, w, "pause failed", venueID, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]bool{"paused": true})
}

func (h *Handler) Resume(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Resume")
	defer span.End()

	venueID := venueIDFromPath(r)
	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.auctionService.Resume(ctx, principal, venueID); err != nil {
		h.fail(ctx, w, "resume failed", venueID, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]bool{"paused": false})
}
