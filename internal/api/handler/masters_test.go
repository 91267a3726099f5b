package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pkosov/masterdesk/internal/dispatch"
	"github.com/pkosov/masterdesk/internal/store"
	"github.com/pkosov/masterdesk/pkg/models"
)

// --- mock MasterService ---

type mockMasterService struct {
	registerFn   func(params dispatch.RegisterMasterParams) (*models.Master, error)
	getFn        func(id uuid.UUID) (*models.Master, error)
	listFn       func(category, city string) ([]*models.Master, error)
	terminalFn   func(id uuid.UUID, active bool) error
	deactivateFn func(id uuid.UUID) error
	jobsFn       func(masterID uuid.UUID, status string) ([]*models.Job, error)
	statsFn      func(id uuid.UUID) (*models.MasterStats, error)
	earningsFn   func(id uuid.UUID) (*dispatch.Earnings, error)
}

func (m *mockMasterService) RegisterMaster(_ context.Context, params dispatch.RegisterMasterParams) (*models.Master, error) {
	return m.registerFn(params)
}
func (m *mockMasterService) GetMaster(_ context.Context, id uuid.UUID) (*models.Master, error) {
	return m.getFn(id)
}
func (m *mockMasterService) ListAvailableMasters(_ context.Context, category, city string) ([]*models.Master, error) {
	return m.listFn(category, city)
}
func (m *mockMasterService) SetTerminalActive(_ context.Context, id uuid.UUID, active bool) error {
	return m.terminalFn(id, active)
}
func (m *mockMasterService) DeactivateMaster(_ context.Context, id uuid.UUID) error {
	return m.deactivateFn(id)
}
func (m *mockMasterService) ListMasterJobs(_ context.Context, masterID uuid.UUID, status string) ([]*models.Job, error) {
	return m.jobsFn(masterID, status)
}
func (m *mockMasterService) MasterStats(_ context.Context, id uuid.UUID) (*models.MasterStats, error) {
	return m.statsFn(id)
}
func (m *mockMasterService) MasterEarnings(_ context.Context, id uuid.UUID) (*dispatch.Earnings, error) {
	return m.earningsFn(id)
}

func masterRouter(svc MasterService) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/v1/masters", NewRegisterMasterHandler(svc))
	r.Get("/api/v1/masters/available", NewListAvailableMastersHandler(svc))
	r.Get("/api/v1/masters/{masterID}", NewGetMasterHandler(svc))
	r.Post("/api/v1/masters/{masterID}/terminal", NewTerminalHandler(svc))
	r.Delete("/api/v1/masters/{masterID}", NewDeactivateMasterHandler(svc))
	r.Get("/api/v1/masters/{masterID}/jobs", NewMasterJobsHandler(svc))
	r.Get("/api/v1/masters/{masterID}/stats", NewMasterStatsHandler(svc))
	r.Get("/api/v1/masters/{masterID}/earnings", NewMasterEarningsHandler(svc))
	return r
}

// --- tests ---

func TestRegisterMasterHandler_Success(t *testing.T) {
	var captured dispatch.RegisterMasterParams
	svc := &mockMasterService{
		registerFn: func(params dispatch.RegisterMasterParams) (*models.Master, error) {
			captured = params
			return &models.Master{ID: uuid.New(), FullName: params.FullName, IsActive: true}, nil
		},
	}

	rec := doJSON(t, masterRouter(svc), http.MethodPost, "/api/v1/masters", map[string]any{
		"full_name":       "Сергей Волков",
		"phone":           "+79005556677",
		"specializations": []string{"electrical", "hvac"},
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.FullName != "Сергей Волков" || len(captured.Specializations) != 2 {
		t.Errorf("params not passed through: %+v", captured)
	}
}

func TestRegisterMasterHandler_DuplicatePhone(t *testing.T) {
	svc := &mockMasterService{
		registerFn: func(dispatch.RegisterMasterParams) (*models.Master, error) {
			return nil, store.ErrDuplicateKey
		},
	}

	rec := doJSON(t, masterRouter(svc), http.MethodPost, "/api/v1/masters", map[string]any{})

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if code := decodeErrCode(t, rec); code != "DUPLICATE" {
		t.Errorf("unexpected code: %s", code)
	}
}

func TestListAvailableMastersHandler_RequiresCategory(t *testing.T) {
	svc := &mockMasterService{}

	rec := doJSON(t, masterRouter(svc), http.MethodGet, "/api/v1/masters/available", nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListAvailableMastersHandler(t *testing.T) {
	var gotCategory, gotCity string
	svc := &mockMasterService{
		listFn: func(category, city string) ([]*models.Master, error) {
			gotCategory, gotCity = category, city
			return []*models.Master{{ID: uuid.New()}}, nil
		},
	}

	rec := doJSON(t, masterRouter(svc), http.MethodGet,
		"/api/v1/masters/available?category=electrical&city=svetlogorsk", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotCategory != "electrical" || gotCity != "svetlogorsk" {
		t.Errorf("query not passed through: %q %q", gotCategory, gotCity)
	}
}

func TestTerminalHandler(t *testing.T) {
	var gotActive bool
	svc := &mockMasterService{
		terminalFn: func(_ uuid.UUID, active bool) error {
			gotActive = active
			return nil
		},
	}

	rec := doJSON(t, masterRouter(svc), http.MethodPost,
		"/api/v1/masters/"+uuid.NewString()+"/terminal",
		map[string]bool{"active": true})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !gotActive {
		t.Error("active flag not passed through")
	}
	if data := decodeData(t, rec); data["terminal_active"] != true {
		t.Errorf("unexpected response: %v", data)
	}
}

func TestDeactivateMasterHandler(t *testing.T) {
	svc := &mockMasterService{
		deactivateFn: func(uuid.UUID) error { return nil },
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/masters/"+uuid.NewString(), nil)
	masterRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestMasterJobsHandler_StatusFilter(t *testing.T) {
	var gotStatus string
	svc := &mockMasterService{
		jobsFn: func(_ uuid.UUID, status string) ([]*models.Job, error) {
			gotStatus = status
			return nil, nil
		},
	}

	rec := doJSON(t, masterRouter(svc), http.MethodGet,
		"/api/v1/masters/"+uuid.NewString()+"/jobs?status=accepted", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotStatus != models.JobStatusAccepted {
		t.Errorf("status filter not passed through: %q", gotStatus)
	}
}

func TestMasterEarningsHandler(t *testing.T) {
	masterID := uuid.New()
	svc := &mockMasterService{
		earningsFn: func(id uuid.UUID) (*dispatch.Earnings, error) {
			return &dispatch.Earnings{
				Stats: &models.MasterStats{MasterID: id, CompletedJobs: 3, TotalEarnings: 2205},
			}, nil
		},
	}

	rec := doJSON(t, masterRouter(svc), http.MethodGet,
		"/api/v1/masters/"+masterID.String()+"/earnings", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data := decodeData(t, rec)
	stats := data["stats"].(map[string]any)
	if stats["completed_jobs"] != float64(3) {
		t.Errorf("unexpected stats: %v", stats)
	}
}

func TestMasterStatsHandler_NotFound(t *testing.T) {
	svc := &mockMasterService{
		statsFn: func(uuid.UUID) (*models.MasterStats, error) { return nil, store.ErrNotFound },
	}

	rec := doJSON(t, masterRouter(svc), http.MethodGet,
		"/api/v1/masters/"+uuid.NewString()+"/stats", nil)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
