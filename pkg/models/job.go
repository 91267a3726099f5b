package models

import (
	"time"

	"github.com/google/uuid"
)

// Job statuses. A job moves pending -> accepted -> in_progress -> completed,
// with an optional travel sub-sequence accepted -> on-the-way -> arrived ->
// in_progress. Cancellation is only reachable before work starts.
const (
	JobStatusPending    = "pending"
	JobStatusAccepted   = "accepted"
	JobStatusOnTheWay   = "on-the-way"
	JobStatusArrived    = "arrived"
	JobStatusInProgress = "in_progress"
	JobStatusCompleted  = "completed"
	JobStatusCancelled  = "cancelled"
)

// jobTransitions is the complete legal transition table. Anything not listed
// here is rejected; there is no generic status overwrite. The self-loops on
// on-the-way and arrived make the depart and arrive operations idempotent.
var jobTransitions = map[string][]string{
	JobStatusPending:    {JobStatusAccepted, JobStatusCancelled},
	JobStatusAccepted:   {JobStatusOnTheWay, JobStatusInProgress, JobStatusCancelled},
	JobStatusOnTheWay:   {JobStatusOnTheWay, JobStatusArrived},
	JobStatusArrived:    {JobStatusArrived, JobStatusInProgress},
	JobStatusInProgress: {JobStatusOnTheWay, JobStatusCompleted},
}

// ValidJobStatus reports whether s is a known job status.
func ValidJobStatus(s string) bool {
	switch s {
	case JobStatusPending, JobStatusAccepted, JobStatusOnTheWay, JobStatusArrived,
		JobStatusInProgress, JobStatusCompleted, JobStatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether a job may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range jobTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TerminalStatus reports whether a status admits no further transitions.
func TerminalStatus(s string) bool {
	return len(jobTransitions[s]) == 0
}

// Job is one client service request tracked through dispatch, fulfillment,
// and settlement. Jobs are never deleted; cancelled and completed jobs stay
// as the audit trail.
type Job struct {
	ID          uuid.UUID  `db:"id"           json:"id"`
	ClientName  string     `db:"client_name"  json:"client_name"`
	ClientPhone string     `db:"client_phone" json:"client_phone"`
	Category    string     `db:"category"     json:"category"`
	Description string     `db:"description"  json:"description"`
	Address     string     `db:"address"      json:"address"`
	Price       float64    `db:"price"        json:"price"`
	Status      string     `db:"status"       json:"status"`
	MasterID    *uuid.UUID `db:"master_id"    json:"master_id,omitempty"`

	// Travel tracking. Location is the master's last reported position,
	// RouteURL an optional route artifact shown to the client.
	DepartedAt  *time.Time `db:"departed_at"  json:"departed_at,omitempty"`
	ArrivedAt   *time.Time `db:"arrived_at"   json:"arrived_at,omitempty"`
	LocationLat *float64   `db:"location_lat" json:"location_lat,omitempty"`
	LocationLon *float64   `db:"location_lon" json:"location_lon,omitempty"`
	RouteURL    *string    `db:"route_url"    json:"route_url,omitempty"`

	// PhoneRevealed flips to true on arrival and never back.
	PhoneRevealed bool `db:"phone_revealed" json:"phone_revealed"`

	// External notification artifacts, set when the calendar sink accepted
	// the job on creation.
	CalendarEventRef *string `db:"calendar_event_ref" json:"calendar_event_ref,omitempty"`
	CalendarTaskRef  *string `db:"calendar_task_ref"  json:"calendar_task_ref,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
