package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkosov/masterdesk/internal/api/response"
	"github.com/pkosov/masterdesk/internal/dispatch"
	"github.com/pkosov/masterdesk/internal/pricing"
	"github.com/pkosov/masterdesk/internal/store"
	"github.com/pkosov/masterdesk/pkg/models"
)

// JobService defines the lifecycle operations the job handlers depend on.
type JobService interface {
	CreateJob(ctx context.Context, params dispatch.CreateJobParams) (*models.Job, pricing.Quote, error)
	GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
	ListJobs(ctx context.Context, filter store.JobFilter) ([]*models.Job, int, error)
	JobStatus(ctx context.Context, id uuid.UUID) (string, error)
	AssignJob(ctx context.Context, jobID, masterID uuid.UUID) (*models.Job, error)
	SetJobStatus(ctx context.Context, jobID uuid.UUID, status string) error
	DepartJob(ctx context.Context, jobID uuid.UUID, lat, lon float64, routeURL string) error
	ArriveJob(ctx context.Context, jobID uuid.UUID) (*models.Job, error)
	SettleJob(ctx context.Context, jobID uuid.UUID, amount float64, paymentMethod string) (*models.Transaction, error)
	GetTransaction(ctx context.Context, jobID uuid.UUID) (*models.Transaction, error)
}

// NewCreateJobHandler returns the handler for POST /api/v1/jobs.
func NewCreateJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ClientName  string           `json:"client_name"`
			ClientPhone string           `json:"client_phone"`
			Category    string           `json:"category"`
			Description string           `json:"description"`
			Address     string           `json:"address"`
			City        string           `json:"city"`
			Factors     *pricing.Factors `json:"factors"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		job, quote, err := svc.CreateJob(r.Context(), dispatch.CreateJobParams{
			ClientName:  req.ClientName,
			ClientPhone: req.ClientPhone,
			Category:    req.Category,
			Description: req.Description,
			Address:     req.Address,
			City:        req.City,
			Factors:     req.Factors,
		})
		if err != nil {
			serviceError(w, err)
			return
		}

		response.Created(w, map[string]any{
			"job":   job,
			"quote": quote,
		})
	}
}

// NewListJobsHandler returns the handler for GET /api/v1/jobs.
func NewListJobsHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		page := queryInt(q.Get("page"), 1)
		limit := queryInt(q.Get("limit"), 20)
		if limit > 100 {
			limit = 100
		}

		jobs, total, err := svc.ListJobs(r.Context(), store.JobFilter{
			Status:   q.Get("status"),
			Category: q.Get("category"),
			Page:     page,
			Limit:    limit,
		})
		if err != nil {
			serviceError(w, err)
			return
		}

		response.Collection(w, jobs, response.NewMeta(page, limit, total))
	}
}

// NewGetJobHandler returns the handler for GET /api/v1/jobs/{jobID}.
func NewGetJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "jobID")
		if !ok {
			return
		}

		job, err := svc.GetJob(r.Context(), id)
		if err != nil {
			serviceError(w, err)
			return
		}
		response.JSON(w, job)
	}
}

// NewAssignJobHandler returns the handler for POST /api/v1/jobs/{jobID}/assign.
func NewAssignJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "jobID")
		if !ok {
			return
		}

		var req struct {
			MasterID string `json:"master_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		masterID, err := uuid.Parse(req.MasterID)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "master_id must be a valid UUID", nil)
			return
		}

		job, err := svc.AssignJob(r.Context(), id, masterID)
		if err != nil {
			serviceError(w, err)
			return
		}
		response.JSON(w, job)
	}
}

// NewUpdateJobStatusHandler returns the handler for POST /api/v1/jobs/{jobID}/status.
func NewUpdateJobStatusHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "jobID")
		if !ok {
			return
		}

		var req struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		if err := svc.SetJobStatus(r.Context(), id, req.Status); err != nil {
			serviceError(w, err)
			return
		}
		response.JSON(w, map[string]string{"id": id.String(), "status": req.Status})
	}
}

// NewDepartJobHandler returns the handler for POST /api/v1/jobs/{jobID}/depart.
func NewDepartJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "jobID")
		if !ok {
			return
		}

		var req struct {
			Lat      float64 `json:"lat"`
			Lon      float64 `json:"lon"`
			RouteURL string  `json:"route_url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		if err := svc.DepartJob(r.Context(), id, req.Lat, req.Lon, req.RouteURL); err != nil {
			serviceError(w, err)
			return
		}
		response.JSON(w, map[string]string{"id": id.String(), "status": models.JobStatusOnTheWay})
	}
}

// NewArriveJobHandler returns the handler for POST /api/v1/jobs/{jobID}/arrive.
// The response includes the client phone: arrival is the reveal point.
func NewArriveJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "jobID")
		if !ok {
			return
		}

		job, err := svc.ArriveJob(r.Context(), id)
		if err != nil {
			serviceError(w, err)
			return
		}
		response.JSON(w, job)
	}
}

// NewTrackJobHandler returns the handler for GET /api/v1/jobs/{jobID}/track:
// the client-facing progress view. The client phone never appears here.
func NewTrackJobHandler(svc JobService) http.HandlerFunc {
	type trackView struct {
		ID         uuid.UUID  `json:"id"`
		Status     string     `json:"status"`
		Category   string     `json:"category"`
		Price      float64    `json:"price"`
		Assigned   bool       `json:"assigned"`
		DepartedAt *time.Time `json:"departed_at,omitempty"`
		ArrivedAt  *time.Time `json:"arrived_at,omitempty"`
		RouteURL   *string    `json:"route_url,omitempty"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "jobID")
		if !ok {
			return
		}

		job, err := svc.GetJob(r.Context(), id)
		if err != nil {
			serviceError(w, err)
			return
		}

		response.JSON(w, trackView{
			ID:         job.ID,
			Status:     job.Status,
			Category:   job.Category,
			Price:      job.Price,
			Assigned:   job.MasterID != nil,
			DepartedAt: job.DepartedAt,
			ArrivedAt:  job.ArrivedAt,
			RouteURL:   job.RouteURL,
		})
	}
}

// NewJobStatusHandler returns the handler for GET /api/v1/jobs/{jobID}/status,
// the lightweight polling endpoint behind the tracking page.
func NewJobStatusHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "jobID")
		if !ok {
			return
		}

		status, err := svc.JobStatus(r.Context(), id)
		if err != nil {
			serviceError(w, err)
			return
		}
		response.JSON(w, map[string]string{"id": id.String(), "status": status})
	}
}

// NewSettleJobHandler returns the handler for POST /api/v1/jobs/{jobID}/settle.
func NewSettleJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "jobID")
		if !ok {
			return
		}

		var req struct {
			Amount        float64 `json:"amount"`
			PaymentMethod string  `json:"payment_method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		tx, err := svc.SettleJob(r.Context(), id, req.Amount, req.PaymentMethod)
		if err != nil {
			serviceError(w, err)
			return
		}
		response.Created(w, tx)
	}
}

// NewGetTransactionHandler returns the handler for GET /api/v1/jobs/{jobID}/transaction.
func NewGetTransactionHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "jobID")
		if !ok {
			return
		}

		tx, err := svc.GetTransaction(r.Context(), id)
		if err != nil {
			serviceError(w, err)
			return
		}
		response.JSON(w, tx)
	}
}

func queryInt(raw string, defaultVal int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return defaultVal
	}
	return n
}
