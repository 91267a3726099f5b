package models

import (
	"time"

	"github.com/google/uuid"
)

// Master is a field worker eligible to receive job assignments.
// Masters are never deleted; IsActive is flipped off instead. TerminalActive
// is the self-toggled availability flag: only masters with an active terminal
// are considered by dispatch.
type Master struct {
	ID               uuid.UUID `db:"id"                json:"id"`
	FullName         string    `db:"full_name"         json:"full_name"`
	Phone            string    `db:"phone"             json:"phone"`
	Specializations  []string  `db:"specializations"   json:"specializations"`
	City             string    `db:"city"              json:"city"`
	PreferredChannel string    `db:"preferred_channel" json:"preferred_channel"`
	Rating           float64   `db:"rating"            json:"rating"`
	IsActive         bool      `db:"is_active"         json:"is_active"`
	TerminalActive   bool      `db:"terminal_active"   json:"terminal_active"`
	CreatedAt        time.Time `db:"created_at"        json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"        json:"updated_at"`
}

// MasterStats aggregates a master's completed work.
type MasterStats struct {
	MasterID      uuid.UUID `json:"master_id"`
	CompletedJobs int       `json:"completed_jobs"`
	TotalRevenue  float64   `json:"total_revenue"`
	TotalEarnings float64   `json:"total_earnings"`
	AverageRating float64   `json:"average_rating"`
}
