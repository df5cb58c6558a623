package httpapi

import (
	"net/http"
	"strings"
)

func (h *Handler) AssignTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AssignTeam")
	defer span.End()

	venueID := venueIDFromPath(r)
	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	var req assignTeamRequest
	if err := h.decodeRequest(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	team, err := h.auctionService.AssignTeam(ctx, principal, venueID, req.Team, req.Member)
	if err != nil {
		h.fail(ctx, w, "assign team failed", venueID, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, team)
}

func (h *Handler) RemoveTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RemoveTeam")
	defer span.End()

	venueID := venueIDFromPath(r)
	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.auctionService.RemoveTeam(ctx, principal, venueID, r.PathValue("team")); err != nil {
		h.fail(ctx, w, "remove team failed", venueID, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AssignAssistant(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AssignAssistant")
	defer span.End()

	venueID := venueIDFromPath(r)
	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	var req userRefRequest
	if err := h.decodeRequest(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	assistant, err := h.auctionService.AssignAssistant(ctx, principal, venueID, r.PathValue("team"), req.User)
	if err != nil {
		h.fail(ctx, w, "assign assistant failed", venueID, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, identityDTO{User: assistant.String()})
}

func (h *Handler) RemoveAssistant(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RemoveAssistant")
	defer span.End()

	venueID := venueIDFromPath(r)
	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	removed, err := h.auctionService.RemoveAssistant(ctx, principal, venueID, r.PathValue("team"))
	if err != nil {
		h.fail(ctx, w, "remove assistant failed", venueID, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, identityDTO{User: removed.String()})
}

func (h *Handler) AdjustBudget(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdjustBudget")
	defer span.End()

	venueID := venueIDFromPath(r)
	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	var req adjustBudgetRequest
	if err := h.decodeRequest(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	team := strings.TrimSpace(r.PathValue("team"))
	remaining, err := h.auctionService.AdjustBudget(ctx, principal, venueID, team, req.Delta)
	if err != nil {
		h.fail(ctx, w, "adjust budget failed", venueID, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, budgetDTO{Team: team, Remaining: remaining})
}

func (h *Handler) GrantAccess(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GrantAccess")
	defer span.End()

	venueID := venueIDFromPath(r)
	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	var req userRefRequest
	if err := h.decodeRequest(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	granted, err := h.auctionService.GrantAccess(ctx, principal, venueID, req.User)
	if err != nil {
		h.fail(ctx, w, "grant access failed", venueID, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, identityDTO{User: granted.String()})
}
