// Package waitlist matches waitlisted patients against freed appointment
// slots. It scores each entry with tunable weights, ranks the candidates,
// and manages the offer flow for the best match.
package waitlist

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Priority is the staff-assigned urgency tier of a waitlist entry.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// EntryStatus tracks an entry through the waitlist lifecycle.
type EntryStatus string

const (
	EntryActive  EntryStatus = "active"
	EntryOffered EntryStatus = "offered"
	EntryBooked  EntryStatus = "booked"
	EntryRemoved EntryStatus = "removed"
)

// Entry is a patient's standing request for a service.
type Entry struct {
	ID                    uuid.UUID `json:"id"`
	PatientID             uuid.UUID `json:"patient_id"`
	PatientName           string    `json:"patient_name"`
	Service               string    `json:"service"`
	ServiceDurationMin    int       `json:"service_duration_min"`
	Priority              Priority  `json:"priority"`
	PreferredPractitioner uuid.UUID `json:"preferred_practitioner_id,omitempty"`
	// Preferred time-of-day window, minutes since midnight.
	AvailStartMin int         `json:"avail_start_min"`
	AvailEndMin   int         `json:"avail_end_min"`
	FormsComplete bool        `json:"forms_complete"`
	DepositCents  int         `json:"deposit_cents"`
	WaitingSince  time.Time   `json:"waiting_since"`
	Status        EntryStatus `json:"status"`
	OfferCount    int         `json:"offer_count"`
	DeclinedCount int         `json:"declined_count"`
	AcceptedCount int         `json:"accepted_count"`
	Version       int64       `json:"version"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Validate checks the entry's structural invariants.
func (e *Entry) Validate() error {
	if e.ServiceDurationMin <= 0 {
		return &ValidationError{Field: "service_duration_min", Msg: "must be positive"}
	}
	if e.AvailStartMin > e.AvailEndMin {
		return &ValidationError{Field: "availability", Msg: "window start must not be after end"}
	}
	return nil
}

// OpenSlot describes a newly cancelled or otherwise freed appointment
// slot that waitlist entries are matched against.
type OpenSlot struct {
	PractitionerID uuid.UUID `json:"practitioner_id"`
	Service        string    `json:"service"`
	DurationMin    int       `json:"duration_min"`
	StartAt        time.Time `json:"start_at"`
}

// Key identifies the slot for locking and offer idempotency.
func (s OpenSlot) Key() string {
	return s.PractitionerID.String() + ":" + s.StartAt.UTC().Format(time.RFC3339)
}

// MatchResult is one ranked candidate for a freed slot. Reasons list the
// human-relevant positive signals only; penalties lower the score without
// being surfaced.
type MatchResult struct {
	Entry   Entry    `json:"entry"`
	Score   int      `json:"score"`
	Reasons []string `json:"reasons"`
}

// ValidationError reports malformed waitlist input.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("waitlist: invalid %s: %s", e.Field, e.Msg)
}
