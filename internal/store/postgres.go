package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkosov/masterdesk/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Masters ---

const masterColumns = `id, full_name, phone, specializations, city, preferred_channel,
	rating, is_active, terminal_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMaster(row rowScanner) (*models.Master, error) {
	var m models.Master
	err := row.Scan(&m.ID, &m.FullName, &m.Phone, &m.Specializations, &m.City,
		&m.PreferredChannel, &m.Rating, &m.IsActive, &m.TerminalActive,
		&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *PostgresStore) CreateMaster(ctx context.Context, master *models.Master) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO masters (id, full_name, phone, specializations, city, preferred_channel,
		   rating, is_active, terminal_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING created_at, updated_at`,
		master.ID, master.FullName, master.Phone, master.Specializations, master.City,
		master.PreferredChannel, master.Rating, master.IsActive, master.TerminalActive,
	).Scan(&master.CreatedAt, &master.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create master: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetMaster(ctx context.Context, id uuid.UUID) (*models.Master, error) {
	m, err := scanMaster(s.pool.QueryRow(ctx,
		`SELECT `+masterColumns+` FROM masters WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get master: %w", err)
	}
	return m, nil
}

// FindAvailableMaster picks the highest-rated available master for the
// category in the city. The (rating DESC, created_at ASC, id ASC) order makes
// the equal-rating tie-break deterministic: earliest registration wins.
func (s *PostgresStore) FindAvailableMaster(ctx context.Context, category, city string) (*models.Master, error) {
	m, err := scanMaster(s.pool.QueryRow(ctx,
		`SELECT `+masterColumns+` FROM masters
		 WHERE is_active AND terminal_active AND city = $1 AND $2 = ANY(specializations)
		 ORDER BY rating DESC, created_at ASC, id ASC
		 LIMIT 1`, city, category))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find available master: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) ListAvailableMasters(ctx context.Context, category, city string) ([]*models.Master, error) {
	conditions := []string{"is_active", "terminal_active"}
	args := []any{}
	argIdx := 1

	if category != "" {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(specializations)", argIdx))
		args = append(args, category)
		argIdx++
	}
	if city != "" {
		conditions = append(conditions, fmt.Sprintf("city = $%d", argIdx))
		args = append(args, city)
		argIdx++
	}

	query := `SELECT ` + masterColumns + ` FROM masters WHERE ` +
		strings.Join(conditions, " AND ") +
		` ORDER BY rating DESC, created_at ASC, id ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list available masters: %w", err)
	}
	defer rows.Close()

	var masters []*models.Master
	for rows.Next() {
		m, err := scanMaster(rows)
		if err != nil {
			return nil, fmt.Errorf("scan master: %w", err)
		}
		masters = append(masters, m)
	}
	return masters, rows.Err()
}

func (s *PostgresStore) SetTerminalActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE masters SET terminal_active = $2, updated_at = NOW() WHERE id = $1 AND is_active`,
		id, active)
	if err != nil {
		return fmt.Errorf("set terminal active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeactivateMaster(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE masters SET is_active = FALSE, terminal_active = FALSE, updated_at = NOW()
		 WHERE id = $1 AND is_active`, id)
	if err != nil {
		return fmt.Errorf("deactivate master: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) GetMasterStats(ctx context.Context, id uuid.UUID) (*models.MasterStats, error) {
	var rating float64
	err := s.pool.QueryRow(ctx, `SELECT rating FROM masters WHERE id = $1`, id).Scan(&rating)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get master rating: %w", err)
	}

	stats := models.MasterStats{MasterID: id, AverageRating: rating}
	err = s.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(t.amount), 0), COALESCE(SUM(t.master_earnings), 0)
		 FROM jobs j
		 JOIN transactions t ON t.job_id = j.id
		 WHERE j.master_id = $1 AND j.status = $2`,
		id, models.JobStatusCompleted,
	).Scan(&stats.CompletedJobs, &stats.TotalRevenue, &stats.TotalEarnings)
	if err != nil {
		return nil, fmt.Errorf("get master stats: %w", err)
	}
	return &stats, nil
}

func (s *PostgresStore) ListMasterTransactions(ctx context.Context, masterID uuid.UUID) ([]*models.Transaction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT t.id, t.job_id, t.amount, t.payment_method, t.gateway_fee, t.platform_fee,
		   t.master_earnings, t.status, t.created_at
		 FROM transactions t
		 JOIN jobs j ON j.id = t.job_id
		 WHERE j.master_id = $1
		 ORDER BY t.created_at DESC`, masterID)
	if err != nil {
		return nil, fmt.Errorf("list master transactions: %w", err)
	}
	defer rows.Close()

	var txs []*models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.JobID, &t.Amount, &t.PaymentMethod, &t.GatewayFee,
			&t.PlatformFee, &t.MasterEarnings, &t.Status, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, &t)
	}
	return txs, rows.Err()
}

// --- Jobs ---

const jobColumns = `id, client_name, client_phone, category, description, address, price,
	status, master_id, departed_at, arrived_at, location_lat, location_lon, route_url,
	phone_revealed, calendar_event_ref, calendar_task_ref, created_at, updated_at`

func scanJob(row rowScanner) (*models.Job, error) {
	var j models.Job
	err := row.Scan(&j.ID, &j.ClientName, &j.ClientPhone, &j.Category, &j.Description,
		&j.Address, &j.Price, &j.Status, &j.MasterID, &j.DepartedAt, &j.ArrivedAt,
		&j.LocationLat, &j.LocationLon, &j.RouteURL, &j.PhoneRevealed,
		&j.CalendarEventRef, &j.CalendarTaskRef, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (s *PostgresStore) CreateJob(ctx context.Context, job *models.Job) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO jobs (id, client_name, client_phone, category, description, address,
		   price, status, master_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING created_at, updated_at`,
		job.ID, job.ClientName, job.ClientPhone, job.Category, job.Description, job.Address,
		job.Price, job.Status, job.MasterID,
	).Scan(&job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	j, err := scanJob(s.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return j, nil
}

func (s *PostgresStore) ListJobs(ctx context.Context, filter JobFilter) ([]*models.Job, int, error) {
	conditions := []string{"TRUE"}
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, filter.Status)
		argIdx++
	}
	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argIdx))
		args = append(args, filter.Category)
		argIdx++
	}
	if filter.MasterID != uuid.Nil {
		conditions = append(conditions, fmt.Sprintf("master_id = $%d", argIdx))
		args = append(args, filter.MasterID)
		argIdx++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM jobs WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count jobs: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	query := fmt.Sprintf(
		`SELECT `+jobColumns+` FROM jobs WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, total, rows.Err()
}

func (s *PostgresStore) ListMasterJobs(ctx context.Context, masterID uuid.UUID, status string) ([]*models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE master_id = $1`
	args := []any{masterID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list master jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (s *PostgresStore) AssignMaster(ctx context.Context, jobID, masterID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET master_id = $2, status = $3, updated_at = NOW()
		 WHERE id = $1 AND status = $4`,
		jobID, masterID, models.JobStatusAccepted, models.JobStatusPending)
	if err != nil {
		return fmt.Errorf("assign master: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.conflictOrNotFound(ctx, jobID)
	}
	return nil
}

func (s *PostgresStore) UpdateJobStatus(ctx context.Context, jobID uuid.UUID, status string) error {
	var current string
	err := s.pool.QueryRow(ctx, `SELECT status FROM jobs WHERE id = $1`, jobID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get job status: %w", err)
	}

	if !models.CanTransition(current, status) {
		return fmt.Errorf("%w: %s -> %s", ErrConflict, current, status)
	}

	// CAS on the status read above; a concurrent transition voids this one.
	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET status = $2, updated_at = NOW() WHERE id = $1 AND status = $3`,
		jobID, status, current)
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: job changed concurrently", ErrConflict)
	}
	return nil
}

func (s *PostgresStore) MarkDeparted(ctx context.Context, jobID uuid.UUID, lat, lon float64, routeURL string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET status = $2, departed_at = NOW(), location_lat = $3, location_lon = $4,
		   route_url = $5, updated_at = NOW()
		 WHERE id = $1 AND status = ANY($6)`,
		jobID, models.JobStatusOnTheWay, lat, lon, routeURL,
		[]string{models.JobStatusAccepted, models.JobStatusInProgress, models.JobStatusOnTheWay})
	if err != nil {
		return fmt.Errorf("mark departed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.conflictOrNotFound(ctx, jobID)
	}
	return nil
}

// MarkArrived sets the arrival timestamp and reveals the client contact.
// Idempotent: a repeat call keeps the original timestamp and the revealed
// flag, and still returns the job for the caller to surface the contact.
func (s *PostgresStore) MarkArrived(ctx context.Context, jobID uuid.UUID) (*models.Job, error) {
	j, err := scanJob(s.pool.QueryRow(ctx,
		`UPDATE jobs SET status = $2, arrived_at = COALESCE(arrived_at, NOW()),
		   phone_revealed = TRUE, updated_at = NOW()
		 WHERE id = $1 AND status = ANY($3)
		 RETURNING `+jobColumns,
		jobID, models.JobStatusArrived,
		[]string{models.JobStatusOnTheWay, models.JobStatusArrived}))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, s.conflictOrNotFound(ctx, jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("mark arrived: %w", err)
	}
	return j, nil
}

func (s *PostgresStore) SetCalendarRefs(ctx context.Context, jobID uuid.UUID, eventRef, taskRef string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE jobs SET calendar_event_ref = NULLIF($2, ''), calendar_task_ref = NULLIF($3, ''),
		   updated_at = NOW()
		 WHERE id = $1`, jobID, eventRef, taskRef)
	if err != nil {
		return fmt.Errorf("set calendar refs: %w", err)
	}
	return nil
}

// --- Transactions ---

func (s *PostgresStore) SettleJob(ctx context.Context, t *models.Transaction) error {
	dbTx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin settle: %w", err)
	}
	defer dbTx.Rollback(ctx)

	tag, err := dbTx.Exec(ctx,
		`UPDATE jobs SET status = $2, updated_at = NOW() WHERE id = $1 AND status = $3`,
		t.JobID, models.JobStatusCompleted, models.JobStatusInProgress)
	if err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.conflictOrNotFound(ctx, t.JobID)
	}

	err = dbTx.QueryRow(ctx,
		`INSERT INTO transactions (id, job_id, amount, payment_method, gateway_fee,
		   platform_fee, master_earnings, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at`,
		t.ID, t.JobID, t.Amount, t.PaymentMethod, t.GatewayFee,
		t.PlatformFee, t.MasterEarnings, t.Status,
	).Scan(&t.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create transaction: %w", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return fmt.Errorf("commit settle: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetTransactionByJobID(ctx context.Context, jobID uuid.UUID) (*models.Transaction, error) {
	var t models.Transaction
	err := s.pool.QueryRow(ctx,
		`SELECT id, job_id, amount, payment_method, gateway_fee, platform_fee,
		   master_earnings, status, created_at
		 FROM transactions WHERE job_id = $1`, jobID,
	).Scan(&t.ID, &t.JobID, &t.Amount, &t.PaymentMethod, &t.GatewayFee,
		&t.PlatformFee, &t.MasterEarnings, &t.Status, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction by job: %w", err)
	}
	return &t, nil
}

// conflictOrNotFound disambiguates a zero-row guarded update: a missing job
// is ErrNotFound, an existing job in the wrong state is ErrConflict.
func (s *PostgresStore) conflictOrNotFound(ctx context.Context, jobID uuid.UUID) error {
	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM jobs WHERE id = $1)`, jobID).Scan(&exists); err != nil {
		return fmt.Errorf("check job exists: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrConflict
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
