package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/pkosov/masterdesk/internal/api/response"
	"github.com/pkosov/masterdesk/internal/dispatch"
	"github.com/pkosov/masterdesk/pkg/models"
)

// MasterService defines the master directory operations the handlers depend on.
type MasterService interface {
	RegisterMaster(ctx context.Context, params dispatch.RegisterMasterParams) (*models.Master, error)
	GetMaster(ctx context.Context, id uuid.UUID) (*models.Master, error)
	ListAvailableMasters(ctx context.Context, category, city string) ([]*models.Master, error)
	SetTerminalActive(ctx context.Context, id uuid.UUID, active bool) error
	DeactivateMaster(ctx context.Context, id uuid.UUID) error
	ListMasterJobs(ctx context.Context, masterID uuid.UUID, status string) ([]*models.Job, error)
	MasterStats(ctx context.Context, id uuid.UUID) (*models.MasterStats, error)
	MasterEarnings(ctx context.Context, id uuid.UUID) (*dispatch.Earnings, error)
}

// NewRegisterMasterHandler returns the handler for POST /api/v1/masters.
func NewRegisterMasterHandler(svc MasterService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			FullName         string   `json:"full_name"`
			Phone            string   `json:"phone"`
			Specializations  []string `json:"specializations"`
			City             string   `json:"city"`
			PreferredChannel string   `json:"preferred_channel"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		master, err := svc.RegisterMaster(r.Context(), dispatch.RegisterMasterParams{
			FullName:         req.FullName,
			Phone:            req.Phone,
			Specializations:  req.Specializations,
			City:             req.City,
			PreferredChannel: req.PreferredChannel,
		})
		if err != nil {
			serviceError(w, err)
			return
		}
		response.Created(w, master)
	}
}

// NewGetMasterHandler returns the handler for GET /api/v1/masters/{masterID}.
func NewGetMasterHandler(svc MasterService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "masterID")
		if !ok {
			return
		}

		master, err := svc.GetMaster(r.Context(), id)
		if err != nil {
			serviceError(w, err)
			return
		}
		response.JSON(w, master)
	}
}

// NewListAvailableMastersHandler returns the handler for
// GET /api/v1/masters/available. The list comes back in dispatch order.
func NewListAvailableMastersHandler(svc MasterService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category := r.URL.Query().Get("category")
		if category == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "category is required", nil)
			return
		}

		masters, err := svc.ListAvailableMasters(r.Context(), category, r.URL.Query().Get("city"))
		if err != nil {
			serviceError(w, err)
			return
		}
		response.JSON(w, masters)
	}
}

// NewTerminalHandler returns the handler for POST /api/v1/masters/{masterID}/terminal:
// the master's own availability toggle.
func NewTerminalHandler(svc MasterService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "masterID")
		if !ok {
			return
		}

		var req struct {
			Active bool `json:"active"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		if err := svc.SetTerminalActive(r.Context(), id, req.Active); err != nil {
			serviceError(w, err)
			return
		}
		response.JSON(w, map[string]any{"id": id.String(), "terminal_active": req.Active})
	}
}

// NewDeactivateMasterHandler returns the handler for DELETE /api/v1/masters/{masterID}.
func NewDeactivateMasterHandler(svc MasterService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "masterID")
		if !ok {
			return
		}

		if err := svc.DeactivateMaster(r.Context(), id); err != nil {
			serviceError(w, err)
			return
		}
		response.NoContent(w)
	}
}

// NewMasterJobsHandler returns the handler for GET /api/v1/masters/{masterID}/jobs.
func NewMasterJobsHandler(svc MasterService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "masterID")
		if !ok {
			return
		}

		jobs, err := svc.ListMasterJobs(r.Context(), id, r.URL.Query().Get("status"))
		if err != nil {
			serviceError(w, err)
			return
		}
		response.JSON(w, jobs)
	}
}

// NewMasterStatsHandler returns the handler for GET /api/v1/masters/{masterID}/stats.
func NewMasterStatsHandler(svc MasterService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "masterID")
		if !ok {
			return
		}

		stats, err := svc.MasterStats(r.Context(), id)
		if err != nil {
			serviceError(w, err)
			return
		}
		response.JSON(w, stats)
	}
}

// NewMasterEarningsHandler returns the handler for GET /api/v1/masters/{masterID}/earnings.
func NewMasterEarningsHandler(svc MasterService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "masterID")
		if !ok {
			return
		}

		earnings, err := svc.MasterEarnings(r.Context(), id)
		if err != nil {
			serviceError(w, err)
			return
		}
		response.JSON(w, earnings)
	}
}
