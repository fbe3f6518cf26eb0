package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	mux.HandleFunc("GET /readyz", handler.Readyz)
}

func registerPublicDomainRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/slates/today", handler.GetTodaySlate)
	mux.HandleFunc("GET /v1/slates/{slateID}/scores", handler.GetSlateScores)
	mux.HandleFunc("GET /v1/slates/{slateID}/activity", handler.GetSlateActivity)
	mux.HandleFunc("POST /v1/slates/{slateID}/picks", handler.SubmitPick)
	mux.HandleFunc("DELETE /v1/slates/{slateID}/picks/{gameID}", handler.DeletePick)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/build-slate", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunBuildSlateJob)))
	mux.Handle("POST /v1/internal/jobs/check-scores", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunCheckScoresJob)))
	mux.Handle("POST /v1/internal/jobs/finalize", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunFinalizeJob)))
}
