package httpapi

import (
	"net/http"
)

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetStatus")
	defer span.End()

	venueID := venueIDFromPath(r)
	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	status, err := h.auctionService.Status(ctx, principal, venueID)
	if err != nil {
		h.fail(ctx, w, "get status failed", venueID, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, status)
}

func (h *Handler) GetMyTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMyTeam")
	defer span.End()

	venueID := venueIDFromPath(r)
	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	team, err := h.auctionService.MyTeam(ctx, principal, venueID)
	if err != nil {
		h.fail(ctx, w, "get my team failed", venueID, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, team)
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSummary")
	defer span.End()

	venueID := venueIDFromPath(r)
	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	summary, err := h.auctionService.Summary(ctx, principal, venueID)
	if err != nil {
		h.fail(ctx, w, "get summary failed", venueID, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, summary)
}

func (h *Handler) ListUnsold(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListUnsold")
	defer span.End()

	venueID := venueIDFromPath(r)
	players, err := h.auctionService.Unsold(ctx, venueID)
	if err != nil {
		h.fail(ctx, w, "list unsold failed", venueID, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, players)
}

func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPlayer")
	defer span.End()

	venueID := venueIDFromPath(r)
	record, err := h.auctionService.Player(ctx, venueID, r.PathValue("identifier"))
	if err != nil {
		h.fail(ctx, w, "get player failed", venueID, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, record)
}

func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListRuns")
	defer span.End()

	venueID := venueIDFromPath(r)
	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	runs, err := h.auctionService.ListRuns(ctx, principal, venueID)
	if err != nil {
		h.fail(ctx, w, "list runs failed", venueID, err)
		return
	}

	items := make([]runSummaryDTO, 0, len(runs))
	for _, run := range runs {
		items = append(items, runToSummaryDTO(run))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetRun")
	defer span.End()

	venueID := venueIDFromPath(r)
	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	run, err := h.auctionService.GetRun(ctx, principal, venueID, r.PathValue("runID"))
	if err != nil {
		h.fail(ctx, w, "get run failed", venueID, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, run)
}
