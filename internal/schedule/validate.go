package schedule

import (
	"time"

	"github.com/google/uuid"
)

// MinViableDurationMin is the shortest appointment the validator will
// shrink a move down to when it runs past the end of a shift.
const MinViableDurationMin = 5

// MoveCandidate is a proposed new time for an appointment, either an
// existing one being dragged (AppointmentID set, excluded from the
// conflict check) or a brand new booking (AppointmentID zero).
type MoveCandidate struct {
	AppointmentID  uuid.UUID `json:"appointment_id,omitempty"`
	PractitionerID uuid.UUID `json:"practitioner_id"`
	StartAt        time.Time `json:"start_at"`
	DurationMin    int       `json:"duration_min"`
	RoomID         string    `json:"room_id,omitempty"`
}

// ShiftInfo echoes the shift boundaries the validator clamped against.
type ShiftInfo struct {
	ShiftID uuid.UUID `json:"shift_id"`
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
}

// MoveResult is the validator's verdict on a candidate move. Conflict is
// a business signal for the user to resolve, not an error: when set, the
// proposed time is returned unchanged so the UI can show exactly what was
// attempted. The validator never relocates a move around a conflict.
type MoveResult struct {
	AdjustedStart    time.Time `json:"adjusted_start"`
	AdjustedDuration int       `json:"adjusted_duration"`
	Adjusted         bool      `json:"adjusted"`
	Conflict         bool      `json:"conflict"`
	Reason           string    `json:"reason,omitempty"`
	Shift            ShiftInfo `json:"shift"`
}

// ValidateMove checks a candidate start time and duration against the
// practitioner's shift window and their existing bookings.
//
// The candidate is first clamped to the shift: a start before the shift
// snaps to shift start; a window running past shift end is shrunk to the
// remaining time if at least MinViableDurationMin remains, otherwise the
// move is rejected as outside the shift. The clamped window is then
// tested against every other blocking appointment using the same
// half-open interval rule as Layout, so back-to-back bookings never
// conflict. Breaks and lunch blocks are expected in existing as blocking
// entries; they participate in the same test.
//
// With allowDoubleBooking set, a detected conflict is still reported but
// does not invalidate the move; the caller decides whether to accept it.
func ValidateMove(candidate MoveCandidate, existing []Appointment, shift Shift, allowDoubleBooking bool) MoveResult {
	res := MoveResult{
		AdjustedStart:    candidate.StartAt,
		AdjustedDuration: candidate.DurationMin,
		Shift: ShiftInfo{
			ShiftID: shift.ID,
			StartAt: shift.StartAt,
			EndAt:   shift.EndAt,
		},
	}

	if candidate.DurationMin <= 0 {
		res.Conflict = true
		res.Reason = "invalid duration"
		return res
	}

	// Clamp to the shift window.
	if res.AdjustedStart.Before(shift.StartAt) {
		res.AdjustedStart = shift.StartAt
		res.Adjusted = true
	}
	if !res.AdjustedStart.Before(shift.EndAt) {
		res.Conflict = true
		res.Reason = "outside shift"
		return res
	}
	end := res.AdjustedStart.Add(time.Duration(res.AdjustedDuration) * time.Minute)
	if end.After(shift.EndAt) {
		remaining := int(shift.EndAt.Sub(res.AdjustedStart) / time.Minute)
		if remaining < MinViableDurationMin {
			res.Conflict = true
			res.Reason = "outside shift"
			return res
		}
		res.AdjustedDuration = remaining
		res.Adjusted = true
		end = shift.EndAt
	}

	// Conflict scan against every other blocking appointment.
	window := Appointment{StartAt: res.AdjustedStart, EndAt: end}
	for _, other := range existing {
		if other.ID == candidate.AppointmentID && candidate.AppointmentID != uuid.Nil {
			continue
		}
		if !other.Status.Blocking() {
			continue
		}
		if window.Overlaps(other) {
			res.Reason = "overlaps existing appointment"
			if !allowDoubleBooking {
				res.Conflict = true
				// Report the attempted time untouched so the caller can
				// surface it; a conflicting move is never repositioned.
				res.AdjustedStart = candidate.StartAt
				res.AdjustedDuration = candidate.DurationMin
				res.Adjusted = false
			}
			return res
		}
	}
	return res
}
