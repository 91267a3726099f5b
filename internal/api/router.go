// Package api assembles the HTTP surface: middleware stack plus all routes.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	mw "github.com/pkosov/masterdesk/internal/api/middleware"
	"github.com/pkosov/masterdesk/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	RateLimit *mw.RateLimit

	HealthHandler http.HandlerFunc

	EstimateHandler      http.HandlerFunc
	TemplatesHandler     http.HandlerFunc
	TemplateQuoteHandler http.HandlerFunc

	CreateJobHandler      http.HandlerFunc
	ListJobsHandler       http.HandlerFunc
	GetJobHandler         http.HandlerFunc
	AssignJobHandler      http.HandlerFunc
	UpdateJobStatus       http.HandlerFunc
	DepartJobHandler      http.HandlerFunc
	ArriveJobHandler      http.HandlerFunc
	TrackJobHandler       http.HandlerFunc
	JobStatusHandler      http.HandlerFunc
	SettleJobHandler      http.HandlerFunc
	GetTransactionHandler http.HandlerFunc

	RegisterMasterHandler   http.HandlerFunc
	ListMastersHandler      http.HandlerFunc
	GetMasterHandler        http.HandlerFunc
	TerminalHandler         http.HandlerFunc
	DeactivateMasterHandler http.HandlerFunc
	MasterJobsHandler       http.HandlerFunc
	MasterStatsHandler      http.HandlerFunc
	MasterEarningsHandler   http.HandlerFunc
}

// NewRouter builds the Chi router with the middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	// Public health check
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	r.Group(func(r chi.Router) {
		if deps.RateLimit != nil {
			r.Use(deps.RateLimit.Limit)
		}

		r.Post("/api/v1/pricing/estimate", orNotImplemented(deps.EstimateHandler))
		r.Get("/api/v1/pricing/templates", orNotImplemented(deps.TemplatesHandler))
		r.Post("/api/v1/pricing/templates/{name}", orNotImplemented(deps.TemplateQuoteHandler))

		r.Post("/api/v1/jobs", orNotImplemented(deps.CreateJobHandler))
		r.Get("/api/v1/jobs", orNotImplemented(deps.ListJobsHandler))
		r.Get("/api/v1/jobs/{jobID}", orNotImplemented(deps.GetJobHandler))
		r.Post("/api/v1/jobs/{jobID}/assign", orNotImplemented(deps.AssignJobHandler))
		r.Post("/api/v1/jobs/{jobID}/status", orNotImplemented(deps.UpdateJobStatus))
		r.Post("/api/v1/jobs/{jobID}/depart", orNotImplemented(deps.DepartJobHandler))
		r.Post("/api/v1/jobs/{jobID}/arrive", orNotImplemented(deps.ArriveJobHandler))
		r.Get("/api/v1/jobs/{jobID}/track", orNotImplemented(deps.TrackJobHandler))
		r.Get("/api/v1/jobs/{jobID}/status", orNotImplemented(deps.JobStatusHandler))
		r.Post("/api/v1/jobs/{jobID}/settle", orNotImplemented(deps.SettleJobHandler))
		r.Get("/api/v1/jobs/{jobID}/transaction", orNotImplemented(deps.GetTransactionHandler))

		r.Post("/api/v1/masters", orNotImplemented(deps.RegisterMasterHandler))
		r.Get("/api/v1/masters/available", orNotImplemented(deps.ListMastersHandler))
		r.Get("/api/v1/masters/{masterID}", orNotImplemented(deps.GetMasterHandler))
		r.Post("/api/v1/masters/{masterID}/terminal", orNotImplemented(deps.TerminalHandler))
		r.Delete("/api/v1/masters/{masterID}", orNotImplemented(deps.DeactivateMasterHandler))
		r.Get("/api/v1/masters/{masterID}/jobs", orNotImplemented(deps.MasterJobsHandler))
		r.Get("/api/v1/masters/{masterID}/stats", orNotImplemented(deps.MasterStatsHandler))
		r.Get("/api/v1/masters/{masterID}/earnings", orNotImplemented(deps.MasterEarningsHandler))
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
