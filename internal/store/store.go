package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pkosov/masterdesk/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// ErrConflict is returned when a guarded update loses: an illegal status
// transition, an assignment race on a job that is no longer pending, or a
// settlement on a job that is not in progress.
var ErrConflict = errors.New("conflicting state transition")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	CreateMaster(ctx context.Context, master *models.Master) error
	GetMaster(ctx context.Context, id uuid.UUID) (*models.Master, error)
	// FindAvailableMaster returns the best candidate for a category in a
	// city: active, terminal on, specialized in the category, highest rating.
	// Equal ratings are broken by earliest registration, then lowest id; the
	// order is total. Returns ErrNotFound when nobody matches.
	FindAvailableMaster(ctx context.Context, category, city string) (*models.Master, error)
	ListAvailableMasters(ctx context.Context, category, city string) ([]*models.Master, error)
	SetTerminalActive(ctx context.Context, id uuid.UUID, active bool) error
	DeactivateMaster(ctx context.Context, id uuid.UUID) error
	GetMasterStats(ctx context.Context, id uuid.UUID) (*models.MasterStats, error)
	ListMasterTransactions(ctx context.Context, masterID uuid.UUID) ([]*models.Transaction, error)

	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*models.Job, int, error)
	ListMasterJobs(ctx context.Context, masterID uuid.UUID, status string) ([]*models.Job, error)

	// AssignMaster moves a pending job to accepted with the master bound.
	// The update is a compare-and-swap on status; under a race the first
	// writer wins and the second receives ErrConflict.
	AssignMaster(ctx context.Context, jobID, masterID uuid.UUID) error

	// UpdateJobStatus applies a guarded transition. The new status must be
	// reachable from the current one per models.CanTransition and the update
	// only lands if the status has not changed in between.
	UpdateJobStatus(ctx context.Context, jobID uuid.UUID, status string) error

	MarkDeparted(ctx context.Context, jobID uuid.UUID, lat, lon float64, routeURL string) error
	MarkArrived(ctx context.Context, jobID uuid.UUID) (*models.Job, error)
	SetCalendarRefs(ctx context.Context, jobID uuid.UUID, eventRef, taskRef string) error

	// SettleJob completes an in-progress job and writes its transaction in
	// one database transaction. The only writer of transactions rows.
	SettleJob(ctx context.Context, tx *models.Transaction) error
	GetTransactionByJobID(ctx context.Context, jobID uuid.UUID) (*models.Transaction, error)
}

// JobFilter narrows ListJobs. Zero values mean "any".
type JobFilter struct {
	Status   string
	Category string
	MasterID uuid.UUID
	Page     int
	Limit    int
}
