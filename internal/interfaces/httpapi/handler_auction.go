package httpapi

import (
	"net/http"
)

func (h *Handler) StartAuction(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StartAuction")
	defer span.End()

	venueID := venueIDFromPath(r)
	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	session, err := h.auctionService.StartAuction(ctx, principal, venueID)
	if err != nil {
		h.fail(ctx, w, "start auction failed", venueID, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, sessionToDTO(session))
}

func (h *Handler) EndAuction(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.EndAuction")
	defer span.End()

	venueID := venueIDFromPath(r)
	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	run, err := h.auctionService.EndAuction(ctx, principal, venueID)
	if err != nil {
		h.fail(ctx, w, "end auction failed", venueID, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, run)
}

func (h *Handler) SetTables(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetTables")
	defer span.End()

	venueID := venueIDFromPath(r)
	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	var req setTablesRequest
	if err := h.decodeRequest(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.auctionService.SetTables(ctx, principal, venueID, req.Tables); err != nil {
		h.fail(ctx, w, "set tables failed", venueID, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, req)
}

func (h *Handler) SetBudget(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetBudget")
	defer span.End()

	venueID := venueIDFromPath(r)
	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	var req setBudgetRequest
	if err := h.decodeRequest(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.auctionService.SetBudget(ctx, principal, venueID, req.Budget); err != nil {
		h.fail(ctx, w, "set budget failed", venueID, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, req)
}

func (h *Handler) SetLimits(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetLimits")
	defer span.End()

	venueID := venueIDFromPath(r)
	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	var req setLimitsRequest
	if err := h.decodeRequest(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.auctionService.SetMinMax(ctx, principal, venueID, req.MinBuy, req.MaxBuy); err != nil {
		h.fail(ctx, w, "set limits failed", venueID, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, req)
}

func (h *Handler) SetCountdown(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetCountdown")
	defer span.End()

	venueID := venueIDFromPath(r)
	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	var req setCountdownRequest
	if err := h.decodeRequest(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.auctionService.SetCountdown(ctx, principal, venueID, req.Seconds); err != nil {
		h.fail(ctx, w, "set countdown failed", venueID, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, req)
}
