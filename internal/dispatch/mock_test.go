package dispatch_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkosov/masterdesk/internal/calendar"
	"github.com/pkosov/masterdesk/internal/store"
	"github.com/pkosov/masterdesk/pkg/models"
)

// mockStore is an in-memory store.Store with the same guarded-update
// semantics as the postgres implementation, so the assignment race and the
// transition guards can be exercised without a database.
type mockStore struct {
	mu           sync.Mutex
	masters      map[uuid.UUID]*models.Master
	jobs         map[uuid.UUID]*models.Job
	transactions map[uuid.UUID]*models.Transaction // keyed by job id

	getJobCalls int
}

func newMockStore() *mockStore {
	return &mockStore{
		masters:      make(map[uuid.UUID]*models.Master),
		jobs:         make(map[uuid.UUID]*models.Job),
		transactions: make(map[uuid.UUID]*models.Transaction),
	}
}

func (m *mockStore) Ping(context.Context) error { return nil }

func (m *mockStore) CreateMaster(_ context.Context, master *models.Master) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.masters {
		if existing.Phone == master.Phone {
			return store.ErrDuplicateKey
		}
	}
	master.CreatedAt = time.Now()
	m.masters[master.ID] = master
	return nil
}

func (m *mockStore) GetMaster(_ context.Context, id uuid.UUID) (*models.Master, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	master, ok := m.masters[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *master
	return &copied, nil
}

func (m *mockStore) FindAvailableMaster(_ context.Context, category, city string) (*models.Master, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *models.Master
	for _, master := range m.masters {
		if !m.eligible(master, category, city) {
			continue
		}
		if best == nil || master.Rating > best.Rating ||
			(master.Rating == best.Rating && master.CreatedAt.Before(best.CreatedAt)) {
			best = master
		}
	}
	if best == nil {
		return nil, store.ErrNotFound
	}
	copied := *best
	return &copied, nil
}

func (m *mockStore) ListAvailableMasters(_ context.Context, category, city string) ([]*models.Master, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Master
	for _, master := range m.masters {
		if m.eligible(master, category, city) {
			copied := *master
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *mockStore) eligible(master *models.Master, category, city string) bool {
	if !master.IsActive || !master.TerminalActive || master.City != city {
		return false
	}
	for _, spec := range master.Specializations {
		if spec == category {
			return true
		}
	}
	return false
}

func (m *mockStore) SetTerminalActive(_ context.Context, id uuid.UUID, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	master, ok := m.masters[id]
	if !ok {
		return store.ErrNotFound
	}
	master.TerminalActive = active
	return nil
}

func (m *mockStore) DeactivateMaster(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	master, ok := m.masters[id]
	if !ok {
		return store.ErrNotFound
	}
	master.IsActive = false
	master.TerminalActive = false
	return nil
}

func (m *mockStore) GetMasterStats(_ context.Context, id uuid.UUID) (*models.MasterStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.masters[id]; !ok {
		return nil, store.ErrNotFound
	}
	stats := &models.MasterStats{MasterID: id}
	for _, job := range m.jobs {
		if job.MasterID == nil || *job.MasterID != id || job.Status != models.JobStatusCompleted {
			continue
		}
		stats.CompletedJobs++
		if tx, ok := m.transactions[job.ID]; ok {
			stats.TotalRevenue += tx.Amount
			stats.TotalEarnings += tx.MasterEarnings
		}
	}
	return stats, nil
}

func (m *mockStore) ListMasterTransactions(_ context.Context, masterID uuid.UUID) ([]*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Transaction
	for jobID, tx := range m.transactions {
		job, ok := m.jobs[jobID]
		if !ok || job.MasterID == nil || *job.MasterID != masterID {
			continue
		}
		copied := *tx
		out = append(out, &copied)
	}
	return out, nil
}

func (m *mockStore) CreateJob(_ context.Context, job *models.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job.CreatedAt = time.Now()
	job.UpdatedAt = job.CreatedAt
	m.jobs[job.ID] = job
	return nil
}

func (m *mockStore) GetJob(_ context.Context, id uuid.UUID) (*models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getJobCalls++
	job, ok := m.jobs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *job
	return &copied, nil
}

func (m *mockStore) ListJobs(_ context.Context, filter store.JobFilter) ([]*models.Job, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Job
	for _, job := range m.jobs {
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		if filter.Category != "" && job.Category != filter.Category {
			continue
		}
		copied := *job
		out = append(out, &copied)
	}
	return out, len(out), nil
}

func (m *mockStore) ListMasterJobs(_ context.Context, masterID uuid.UUID, status string) ([]*models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Job
	for _, job := range m.jobs {
		if job.MasterID == nil || *job.MasterID != masterID {
			continue
		}
		if status != "" && job.Status != status {
			continue
		}
		copied := *job
		out = append(out, &copied)
	}
	return out, nil
}

func (m *mockStore) AssignMaster(_ context.Context, jobID, masterID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return store.ErrNotFound
	}
	if job.Status != models.JobStatusPending {
		return store.ErrConflict
	}
	job.Status = models.JobStatusAccepted
	job.MasterID = &masterID
	job.UpdatedAt = time.Now()
	return nil
}

func (m *mockStore) UpdateJobStatus(_ context.Context, jobID uuid.UUID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return store.ErrNotFound
	}
	if !models.CanTransition(job.Status, status) {
		return store.ErrConflict
	}
	job.Status = status
	job.UpdatedAt = time.Now()
	return nil
}

func (m *mockStore) MarkDeparted(_ context.Context, jobID uuid.UUID, lat, lon float64, routeURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return store.ErrNotFound
	}
	switch job.Status {
	case models.JobStatusAccepted, models.JobStatusInProgress, models.JobStatusOnTheWay:
	default:
		return store.ErrConflict
	}
	now := time.Now()
	job.Status = models.JobStatusOnTheWay
	if job.DepartedAt == nil {
		job.DepartedAt = &now
	}
	job.LocationLat, job.LocationLon = &lat, &lon
	if routeURL != "" {
		job.RouteURL = &routeURL
	}
	job.UpdatedAt = now
	return nil
}

func (m *mockStore) MarkArrived(_ context.Context, jobID uuid.UUID) (*models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return nil, store.ErrNotFound
	}
	switch job.Status {
	case models.JobStatusOnTheWay, models.JobStatusArrived:
	default:
		return nil, store.ErrConflict
	}
	job.Status = models.JobStatusArrived
	if job.ArrivedAt == nil {
		now := time.Now()
		job.ArrivedAt = &now
	}
	job.PhoneRevealed = true
	job.UpdatedAt = time.Now()
	copied := *job
	return &copied, nil
}

func (m *mockStore) SetCalendarRefs(_ context.Context, jobID uuid.UUID, eventRef, taskRef string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return store.ErrNotFound
	}
	if eventRef != "" {
		job.CalendarEventRef = &eventRef
	}
	if taskRef != "" {
		job.CalendarTaskRef = &taskRef
	}
	return nil
}

func (m *mockStore) SettleJob(_ context.Context, tx *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[tx.JobID]
	if !ok {
		return store.ErrNotFound
	}
	if job.Status != models.JobStatusInProgress {
		return store.ErrConflict
	}
	if _, exists := m.transactions[tx.JobID]; exists {
		return store.ErrDuplicateKey
	}
	job.Status = models.JobStatusCompleted
	job.UpdatedAt = time.Now()
	tx.CreatedAt = time.Now()
	m.transactions[tx.JobID] = tx
	return nil
}

func (m *mockStore) GetTransactionByJobID(_ context.Context, jobID uuid.UUID) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.transactions[jobID]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *tx
	return &copied, nil
}

// mockCache is an in-memory cache.Cache that counts writes.
type mockCache struct {
	mu       sync.Mutex
	values   map[string][]byte
	statuses map[uuid.UUID]string
	setCalls int
}

func newMockCache() *mockCache {
	return &mockCache{
		values:   make(map[string][]byte),
		statuses: make(map[uuid.UUID]string),
	}
}

func (c *mockCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setCalls++
	c.values[key] = value
	return nil
}

func (c *mockCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	val, ok := c.values[key]
	return val, ok, nil
}

func (c *mockCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
	return nil
}

func (c *mockCache) Ping(context.Context) error { return nil }

func (c *mockCache) SetJobStatus(_ context.Context, jobID uuid.UUID, status string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses[jobID] = status
	return nil
}

func (c *mockCache) GetJobStatus(_ context.Context, jobID uuid.UUID) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	status, ok := c.statuses[jobID]
	return status, ok, nil
}

func (c *mockCache) IncrWithExpiry(_ context.Context, key string, _ time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = append(c.values[key], 1)
	return int64(len(c.values[key])), nil
}

// mockSink records calendar bridge calls and can be made to fail.
type mockSink struct {
	mu          sync.Mutex
	events      []calendar.JobSummary
	reveals     []string
	createErr   error
	revealErr   error
	returnEmpty bool
}

func (s *mockSink) CreateEvent(_ context.Context, summary calendar.JobSummary) (calendar.EventRefs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return calendar.EventRefs{}, s.createErr
	}
	s.events = append(s.events, summary)
	if s.returnEmpty {
		return calendar.EventRefs{}, nil
	}
	return calendar.EventRefs{EventRef: "evt_" + summary.JobID, TaskRef: "task_" + summary.JobID}, nil
}

func (s *mockSink) RevealClientContact(_ context.Context, eventRef, _, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revealErr != nil {
		return s.revealErr
	}
	s.reveals = append(s.reveals, eventRef)
	return nil
}
