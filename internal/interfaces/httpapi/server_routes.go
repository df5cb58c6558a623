package httpapi

import "net/http"

const venuePrefix = "/v1/venues/{venueID}"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicAuctionRoutes(mux *http.ServeMux, handler *Handler, events http.Handler) {
	mux.Handle("GET "+venuePrefix+"/slot", scopeVenue(http.HandlerFunc(handler.GetSlot)))
	mux.Handle("GET "+venuePrefix+"/unsold", scopeVenue(http.HandlerFunc(handler.ListUnsold)))
	mux.Handle("GET "+venuePrefix+"/players/{identifier}", scopeVenue(http.HandlerFunc(handler.GetPlayer)))
	if events != nil {
		mux.Handle("GET "+venuePrefix+"/events", scopeVenue(events))
	}
}

func registerAuthorizedAuctionRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	authorized := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, scopeVenue(RequireAuth(verifier, fn)))
	}

	authorized("POST "+venuePrefix+"/auction/start", handler.StartAuction)
	authorized("POST "+venuePrefix+"/auction/end", handler.EndAuction)
	authorized("PUT "+venuePrefix+"/auction/tables", handler.SetTables)
	authorized("PUT "+venuePrefix+"/auction/budget", handler.SetBudget)
	authorized("PUT "+venuePrefix+"/auction/limits", handler.SetLimits)
	authorized("PUT "+venuePrefix+"/auction/countdown", handler.SetCountdown)

	authorized("POST "+venuePrefix+"/teams", handler.AssignTeam)
	authorized("DELETE "+venuePrefix+"/teams/{team}", handler.RemoveTeam)
	authorized("PUT "+venuePrefix+"/teams/{team}/assistant", handler.AssignAssistant)
	authorized("DELETE "+venuePrefix+"/teams/{team}/assistant", handler.RemoveAssistant)
	authorized("POST "+venuePrefix+"/teams/{team}/budget-adjustments", handler.AdjustBudget)
	authorized("POST "+venuePrefix+"/access", handler.GrantAccess)

	authorized("POST "+venuePrefix+"/players", handler.LoadPlayers)
	authorized("POST "+venuePrefix+"/sets", handler.DefineSet)
	authorized("POST "+venuePrefix+"/sets/{set}/start", handler.StartSet)
	authorized("POST "+venuePrefix+"/slots", handler.AnnounceSlot)
	authorized("POST "+venuePrefix+"/slots/next", handler.AutoAdvance)
	authorized("POST "+venuePrefix+"/bids", handler.PlaceBid)
	authorized("POST "+venuePrefix+"/pause", handler.Pause)
	authorized("POST "+venuePrefix+"/resume", handler.Resume)

	authorized("GET "+venuePrefix+"/status", handler.GetStatus)
	authorized("GET "+venuePrefix+"/my-team", handler.GetMyTeam)
	authorized("GET "+venuePrefix+"/summary", handler.GetSummary)
	authorized("GET "+venuePrefix+"/runs", handler.ListRuns)
	authorized("GET "+venuePrefix+"/runs/{runID}", handler.GetRun)
}
