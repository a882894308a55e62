// Package schedule implements the appointment scheduling core: calendar
// layout for overlapping appointments, validation of proposed time changes
// against practitioner shifts and existing bookings, and expansion of
// recurring shift templates into concrete shift instances.
//
// All computations are pure functions of their inputs. Persistence lives in
// Store; callers own atomicity when applying a validated change.
package schedule

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus tracks the lifecycle of a booked appointment.
type AppointmentStatus string

const (
	StatusScheduled  AppointmentStatus = "scheduled"
	StatusConfirmed  AppointmentStatus = "confirmed"
	StatusInProgress AppointmentStatus = "in_progress"
	StatusCompleted  AppointmentStatus = "completed"
	StatusCancelled  AppointmentStatus = "cancelled"
	StatusNoShow     AppointmentStatus = "no_show"
)

// Blocking reports whether an appointment in this status occupies its
// time window on the practitioner's timeline. Cancelled and no-show
// appointments free their slot.
func (s AppointmentStatus) Blocking() bool {
	return s != StatusCancelled && s != StatusNoShow
}

// Appointment is a booked service on one practitioner's timeline.
// DurationMin is redundant with StartAt/EndAt but authoritative for
// layout math.
type Appointment struct {
	ID             uuid.UUID         `json:"id"`
	PractitionerID uuid.UUID         `json:"practitioner_id"`
	PatientName    string            `json:"patient_name"`
	Service        string            `json:"service"`
	StartAt        time.Time         `json:"start_at"`
	EndAt          time.Time         `json:"end_at"`
	DurationMin    int               `json:"duration_min"`
	Status         AppointmentStatus `json:"status"`
	RoomID         string            `json:"room_id,omitempty"`
	Version        int64             `json:"version"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// Overlaps reports whether two appointments intersect in time.
// Intervals are half-open: an appointment ending at 10:00 does not
// overlap one starting at 10:00.
func (a Appointment) Overlaps(b Appointment) bool {
	return a.StartAt.Before(b.EndAt) && b.StartAt.Before(a.EndAt)
}

// Cadence is the recurrence interval of a shift series.
type Cadence string

const (
	RepeatNone     Cadence = "no-repeat"
	RepeatWeekly   Cadence = "weekly"
	RepeatBiweekly Cadence = "biweekly"
)

// Interval returns the day step between instances, or 0 for no repeat.
func (c Cadence) Interval() int {
	switch c {
	case RepeatWeekly:
		return 7
	case RepeatBiweekly:
		return 14
	}
	return 0
}

// Shift is one concrete working window for a practitioner. Instances
// generated from a recurring template share a SeriesID but are otherwise
// independent records: editing or deleting one never touches siblings.
type Shift struct {
	ID             uuid.UUID  `json:"id"`
	PractitionerID uuid.UUID  `json:"practitioner_id"`
	StartAt        time.Time  `json:"start_at"`
	EndAt          time.Time  `json:"end_at"`
	Repeat         Cadence    `json:"repeat"`
	RepeatUntil    *time.Time `json:"repeat_until,omitempty"`
	SeriesID       uuid.UUID  `json:"series_id,omitempty"`
	Room           string     `json:"room,omitempty"`
	Tags           []string   `json:"tags,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	CreatedBy      string     `json:"created_by,omitempty"`
	Version        int64      `json:"version"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Contains reports whether the instant falls inside the shift window
// (half-open, same convention as appointments).
func (s Shift) Contains(t time.Time) bool {
	return !t.Before(s.StartAt) && t.Before(s.EndAt)
}
