// Package dispatch is the job lifecycle core: it prices incoming requests,
// picks a master, walks jobs through the status machine, and settles the
// money at completion. Storage holds the truth; the cache and the calendar
// sink are best-effort sidecars.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pkosov/masterdesk/internal/cache"
	"github.com/pkosov/masterdesk/internal/calendar"
	"github.com/pkosov/masterdesk/internal/pricing"
	"github.com/pkosov/masterdesk/internal/store"
	"github.com/pkosov/masterdesk/pkg/models"
)

const (
	quoteTTL     = 10 * time.Minute
	jobStatusTTL = 5 * time.Minute

	minDescriptionRunes = 10
	minAddressRunes     = 5
)

var phonePattern = regexp.MustCompile(`^\+\d{10,15}$`)

// Service coordinates pricing, dispatch, lifecycle, and settlement.
type Service struct {
	store       store.Store
	cache       cache.Cache
	sink        calendar.Sink
	estimator   pricing.Estimator
	defaultCity string
}

// NewService creates the dispatch service. The sink may be calendar.Noop when
// no bridge is configured.
func NewService(st store.Store, ca cache.Cache, sink calendar.Sink, est pricing.Estimator, defaultCity string) *Service {
	return &Service{
		store:       st,
		cache:       ca,
		sink:        sink,
		estimator:   est,
		defaultCity: defaultCity,
	}
}

// EstimateFactors prices fully structured factors. Pure passthrough, never
// fails, never cached.
func (s *Service) EstimateFactors(f pricing.Factors) pricing.Quote {
	return pricing.Calculate(f)
}

// Estimate prices a free-text description. Quotes are deterministic per
// (category, description) pair so they are cached; a cold or broken cache
// just means recomputing.
func (s *Service) Estimate(ctx context.Context, description string, categoryHint string) pricing.Quote {
	key := cache.QuoteKey(categoryHint, description)

	if raw, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		var quote pricing.Quote
		if json.Unmarshal(raw, &quote) == nil {
			return quote
		}
	}

	hint, _ := pricing.ParseCategory(categoryHint)
	quote := pricing.Calculate(s.estimator.Factors(description, hint))

	if raw, err := json.Marshal(quote); err == nil {
		if err := s.cache.Set(ctx, key, raw, quoteTTL); err != nil {
			slog.Warn("failed to cache quote", "error", err)
		}
	}
	return quote
}

// CreateJobParams is the input to CreateJob. Factors, when set, bypasses the
// free-text estimator and prices the structured attributes directly.
type CreateJobParams struct {
	ClientName  string
	ClientPhone string
	Category    string
	Description string
	Address     string
	City        string
	Factors     *pricing.Factors
}

func (p CreateJobParams) validate() error {
	if p.ClientName == "" {
		return fmt.Errorf("%w: client_name is required", ErrValidation)
	}
	if !phonePattern.MatchString(p.ClientPhone) {
		return fmt.Errorf("%w: client_phone must match +<10-15 digits>", ErrValidation)
	}
	if _, ok := pricing.ParseCategory(p.Category); !ok {
		return fmt.Errorf("%w: unknown category %q", ErrValidation, p.Category)
	}
	if utf8.RuneCountInString(p.Description) < minDescriptionRunes {
		return fmt.Errorf("%w: description must be at least %d characters", ErrValidation, minDescriptionRunes)
	}
	if utf8.RuneCountInString(p.Address) < minAddressRunes {
		return fmt.Errorf("%w: address must be at least %d characters", ErrValidation, minAddressRunes)
	}
	return nil
}

// CreateJob prices the request, persists the job, and tries to hand it to the
// best available master. With no candidate the job is created pending and
// waits for a manual assignment. The calendar event is attempted only for
// assigned jobs and its failure never fails the create.
func (s *Service) CreateJob(ctx context.Context, params CreateJobParams) (*models.Job, pricing.Quote, error) {
	if err := params.validate(); err != nil {
		return nil, pricing.Quote{}, err
	}

	var quote pricing.Quote
	if params.Factors != nil {
		quote = pricing.Calculate(*params.Factors)
	} else {
		quote = s.Estimate(ctx, params.Description, params.Category)
	}

	city := params.City
	if city == "" {
		city = s.defaultCity
	}

	job := &models.Job{
		ID:          uuid.New(),
		ClientName:  params.ClientName,
		ClientPhone: params.ClientPhone,
		Category:    params.Category,
		Description: params.Description,
		Address:     params.Address,
		Price:       quote.TotalPrice,
		Status:      models.JobStatusPending,
	}

	master, err := s.store.FindAvailableMaster(ctx, params.Category, city)
	switch {
	case err == nil:
		job.MasterID = &master.ID
		job.Status = models.JobStatusAccepted
	case errors.Is(err, store.ErrNotFound):
		slog.Info("no available master, job stays pending", "category", params.Category, "city", city)
	default:
		return nil, pricing.Quote{}, fmt.Errorf("finding master: %w", err)
	}

	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, pricing.Quote{}, fmt.Errorf("creating job: %w", err)
	}
	s.cacheStatus(ctx, job.ID, job.Status)

	if job.MasterID != nil {
		s.announceJob(ctx, job)
	}

	return job, quote, nil
}

// announceJob pushes the job to the calendar bridge and records the artifact
// refs. Best-effort: a failed announcement is logged and the job proceeds
// without calendar artifacts.
func (s *Service) announceJob(ctx context.Context, job *models.Job) {
	refs, err := s.sink.CreateEvent(ctx, calendar.JobSummary{
		JobID:       job.ID.String(),
		ClientName:  job.ClientName,
		Category:    job.Category,
		Description: job.Description,
		Address:     job.Address,
		Price:       job.Price,
	})
	if err != nil {
		slog.Warn("calendar announce failed", "job_id", job.ID, "error", err)
		return
	}
	if refs.EventRef == "" && refs.TaskRef == "" {
		return
	}

	if err := s.store.SetCalendarRefs(ctx, job.ID, refs.EventRef, refs.TaskRef); err != nil {
		slog.Warn("failed to record calendar refs", "job_id", job.ID, "error", err)
		return
	}
	if refs.EventRef != "" {
		job.CalendarEventRef = &refs.EventRef
	}
	if refs.TaskRef != "" {
		job.CalendarTaskRef = &refs.TaskRef
	}
}

// GetJob returns one job by id.
func (s *Service) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	return s.store.GetJob(ctx, id)
}

// ListJobs returns a filtered page of jobs with the unpaged total.
func (s *Service) ListJobs(ctx context.Context, filter store.JobFilter) ([]*models.Job, int, error) {
	if filter.Status != "" && !models.ValidJobStatus(filter.Status) {
		return nil, 0, fmt.Errorf("%w: unknown status %q", ErrValidation, filter.Status)
	}
	return s.store.ListJobs(ctx, filter)
}

// JobStatus answers the polled tracking endpoint from cache when it can,
// falling back to storage and refilling the cache on a miss.
func (s *Service) JobStatus(ctx context.Context, id uuid.UUID) (string, error) {
	if status, ok, err := s.cache.GetJobStatus(ctx, id); err == nil && ok {
		return status, nil
	}

	job, err := s.store.GetJob(ctx, id)
	if err != nil {
		return "", err
	}
	s.cacheStatus(ctx, id, job.Status)
	return job.Status, nil
}

// AssignJob binds a master to a pending job. The store applies the update as
// a compare-and-swap, so under concurrent assignment exactly one caller wins
// and the rest get store.ErrConflict.
func (s *Service) AssignJob(ctx context.Context, jobID, masterID uuid.UUID) (*models.Job, error) {
	master, err := s.store.GetMaster(ctx, masterID)
	if err != nil {
		return nil, fmt.Errorf("loading master: %w", err)
	}
	if !master.IsActive {
		return nil, fmt.Errorf("%w: master is deactivated", ErrValidation)
	}

	if err := s.store.AssignMaster(ctx, jobID, masterID); err != nil {
		return nil, err
	}
	s.cacheStatus(ctx, jobID, models.JobStatusAccepted)

	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	s.announceJob(ctx, job)
	return job, nil
}

// SetJobStatus applies a guarded transition. Illegal moves surface as
// store.ErrConflict from the guarded update.
func (s *Service) SetJobStatus(ctx context.Context, jobID uuid.UUID, status string) error {
	if !models.ValidJobStatus(status) {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	if err := s.store.UpdateJobStatus(ctx, jobID, status); err != nil {
		return err
	}
	s.cacheStatus(ctx, jobID, status)
	return nil
}

// DepartJob records that the master left for the client, with an optional
// position and route artifact. Idempotent: repeating the call refreshes the
// position without changing the status.
func (s *Service) DepartJob(ctx context.Context, jobID uuid.UUID, lat, lon float64, routeURL string) error {
	if err := s.store.MarkDeparted(ctx, jobID, lat, lon, routeURL); err != nil {
		return err
	}
	s.cacheStatus(ctx, jobID, models.JobStatusOnTheWay)
	return nil
}

// ArriveJob records arrival and reveals the client phone. The first arrival
// pins the timestamp; repeats are no-ops that return the same job. The
// calendar contact reveal is best-effort.
func (s *Service) ArriveJob(ctx context.Context, jobID uuid.UUID) (*models.Job, error) {
	job, err := s.store.MarkArrived(ctx, jobID)
	if err != nil {
		return nil, err
	}
	s.cacheStatus(ctx, jobID, job.Status)

	if job.CalendarEventRef != nil {
		if err := s.sink.RevealClientContact(ctx, *job.CalendarEventRef, job.ClientName, job.ClientPhone); err != nil {
			slog.Warn("calendar contact reveal failed", "job_id", job.ID, "error", err)
		}
	}
	return job, nil
}

// SettleJob completes an in-progress job: splits the gross amount into the
// fee cascade and writes the job completion plus the transaction atomically.
func (s *Service) SettleJob(ctx context.Context, jobID uuid.UUID, amount float64, paymentMethod string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if !models.ValidPaymentMethod(paymentMethod) {
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrValidation, paymentMethod)
	}

	split := SplitFees(amount)
	tx := &models.Transaction{
		ID:             uuid.New(),
		JobID:          jobID,
		Amount:         amount,
		PaymentMethod:  paymentMethod,
		GatewayFee:     split.GatewayFee,
		PlatformFee:    split.PlatformCommission,
		MasterEarnings: split.MasterEarnings,
		Status:         models.TransactionStatusCompleted,
	}

	if err := s.store.SettleJob(ctx, tx); err != nil {
		return nil, err
	}
	s.cacheStatus(ctx, jobID, models.JobStatusCompleted)
	return tx, nil
}

// GetTransaction returns the settlement record for a job.
func (s *Service) GetTransaction(ctx context.Context, jobID uuid.UUID) (*models.Transaction, error) {
	return s.store.GetTransactionByJobID(ctx, jobID)
}

// RegisterMasterParams is the input to RegisterMaster.
type RegisterMasterParams struct {
	FullName         string
	Phone            string
	Specializations  []string
	City             string
	PreferredChannel string
}

func (p RegisterMasterParams) validate() error {
	if p.FullName == "" {
		return fmt.Errorf("%w: full_name is required", ErrValidation)
	}
	if !phonePattern.MatchString(p.Phone) {
		return fmt.Errorf("%w: phone must match +<10-15 digits>", ErrValidation)
	}
	if len(p.Specializations) == 0 {
		return fmt.Errorf("%w: at least one specialization is required", ErrValidation)
	}
	for _, spec := range p.Specializations {
		if _, ok := pricing.ParseCategory(spec); !ok {
			return fmt.Errorf("%w: unknown specialization %q", ErrValidation, spec)
		}
	}
	return nil
}

// RegisterMaster creates a master. Phone numbers are unique; a duplicate
// surfaces as store.ErrDuplicateKey.
func (s *Service) RegisterMaster(ctx context.Context, params RegisterMasterParams) (*models.Master, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	city := params.City
	if city == "" {
		city = s.defaultCity
	}
	channel := params.PreferredChannel
	if channel == "" {
		channel = "telegram"
	}

	master := &models.Master{
		ID:               uuid.New(),
		FullName:         params.FullName,
		Phone:            params.Phone,
		Specializations:  params.Specializations,
		City:             city,
		PreferredChannel: channel,
		Rating:           5.0,
		IsActive:         true,
		TerminalActive:   false,
	}
	if err := s.store.CreateMaster(ctx, master); err != nil {
		return nil, err
	}
	return master, nil
}

// GetMaster returns one master by id.
func (s *Service) GetMaster(ctx context.Context, id uuid.UUID) (*models.Master, error) {
	return s.store.GetMaster(ctx, id)
}

// ListAvailableMasters returns dispatch candidates for a category, in the
// same order FindAvailableMaster picks from.
func (s *Service) ListAvailableMasters(ctx context.Context, category, city string) ([]*models.Master, error) {
	if city == "" {
		city = s.defaultCity
	}
	return s.store.ListAvailableMasters(ctx, category, city)
}

// SetTerminalActive toggles a master's availability for dispatch.
func (s *Service) SetTerminalActive(ctx context.Context, id uuid.UUID, active bool) error {
	return s.store.SetTerminalActive(ctx, id, active)
}

// DeactivateMaster takes a master off the platform. Soft: the row stays for
// history and settled transactions.
func (s *Service) DeactivateMaster(ctx context.Context, id uuid.UUID) error {
	return s.store.DeactivateMaster(ctx, id)
}

// ListMasterJobs returns a master's jobs, optionally filtered by status.
func (s *Service) ListMasterJobs(ctx context.Context, masterID uuid.UUID, status string) ([]*models.Job, error) {
	if status != "" && !models.ValidJobStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	return s.store.ListMasterJobs(ctx, masterID, status)
}

// MasterStats aggregates a master's completed work.
func (s *Service) MasterStats(ctx context.Context, id uuid.UUID) (*models.MasterStats, error) {
	return s.store.GetMasterStats(ctx, id)
}

// Earnings is a master's settlement history with the aggregate totals.
type Earnings struct {
	Stats        *models.MasterStats   `json:"stats"`
	Transactions []*models.Transaction `json:"transactions"`
}

// MasterEarnings returns a master's earnings summary and transaction list.
func (s *Service) MasterEarnings(ctx context.Context, id uuid.UUID) (*Earnings, error) {
	stats, err := s.store.GetMasterStats(ctx, id)
	if err != nil {
		return nil, err
	}
	txs, err := s.store.ListMasterTransactions(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Earnings{Stats: stats, Transactions: txs}, nil
}

// cacheStatus is the write-through for the tracking cache. Failures are
// logged and ignored; the cache is never authoritative.
func (s *Service) cacheStatus(ctx context.Context, jobID uuid.UUID, status string) {
	if err := s.cache.SetJobStatus(ctx, jobID, status, jobStatusTTL); err != nil {
		slog.Warn("failed to cache job status", "job_id", jobID, "error", err)
	}
}
