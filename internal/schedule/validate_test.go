package schedule

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return ts
}

func dayShift(t *testing.T, start, end string) Shift {
	t.Helper()
	return Shift{
		ID:      uuid.New(),
		StartAt: mustTime(t, start),
		EndAt:   mustTime(t, end),
	}
}

func TestValidateMove_CleanMoveInsideShift(t *testing.T) {
	shift := dayShift(t, "2025-03-10T09:00:00Z", "2025-03-10T17:00:00Z")
	cand := MoveCandidate{
		StartAt:     mustTime(t, "2025-03-10T10:00:00Z"),
		DurationMin: 60,
	}

	res := ValidateMove(cand, nil, shift, false)
	assert.False(t, res.Conflict)
	assert.False(t, res.Adjusted)
	assert.Equal(t, cand.StartAt, res.AdjustedStart)
	assert.Equal(t, 60, res.AdjustedDuration)
	assert.Empty(t, res.Reason)
	assert.Equal(t, shift.ID, res.Shift.ShiftID)
}

func TestValidateMove_ClampsEarlyStartToShift(t *testing.T) {
	shift := dayShift(t, "2025-03-10T09:00:00Z", "2025-03-10T17:00:00Z")
	cand := MoveCandidate{
		StartAt:     mustTime(t, "2025-03-10T08:45:00Z"),
		DurationMin: 30,
	}

	res := ValidateMove(cand, nil, shift, false)
	assert.False(t, res.Conflict)
	assert.True(t, res.Adjusted)
	assert.Equal(t, shift.StartAt, res.AdjustedStart)
	assert.Equal(t, 30, res.AdjustedDuration)
}

func TestValidateMove_ShrinksToShiftEnd(t *testing.T) {
	shift := dayShift(t, "2025-03-10T09:00:00Z", "2025-03-10T17:00:00Z")
	cand := MoveCandidate{
		StartAt:     mustTime(t, "2025-03-10T16:40:00Z"),
		DurationMin: 45,
	}

	res := ValidateMove(cand, nil, shift, false)
	assert.False(t, res.Conflict)
	assert.True(t, res.Adjusted)
	assert.Equal(t, 20, res.AdjustedDuration)
}

func TestValidateMove_RejectsWhenRemainderTooShort(t *testing.T) {
	shift := dayShift(t, "2025-03-10T09:00:00Z", "2025-03-10T17:00:00Z")
	cand := MoveCandidate{
		StartAt:     mustTime(t, "2025-03-10T16:58:00Z"),
		DurationMin: 30,
	}

	res := ValidateMove(cand, nil, shift, false)
	assert.True(t, res.Conflict)
	assert.Equal(t, "outside shift", res.Reason)
}

func TestValidateMove_RejectsStartAtOrAfterShiftEnd(t *testing.T) {
	shift := dayShift(t, "2025-03-10T09:00:00Z", "2025-03-10T17:00:00Z")
	cand := MoveCandidate{
		StartAt:     mustTime(t, "2025-03-10T17:00:00Z"),
		DurationMin: 30,
	}

	res := ValidateMove(cand, nil, shift, false)
	assert.True(t, res.Conflict)
	assert.Equal(t, "outside shift", res.Reason)
}

func TestValidateMove_InvalidDuration(t *testing.T) {
	shift := dayShift(t, "2025-03-10T09:00:00Z", "2025-03-10T17:00:00Z")
	for _, dur := range []int{0, -15} {
		res := ValidateMove(MoveCandidate{StartAt: shift.StartAt, DurationMin: dur}, nil, shift, false)
		assert.True(t, res.Conflict, "duration %d", dur)
		assert.Equal(t, "invalid duration", res.Reason)
	}
}

func TestValidateMove_BackToBackIsNotAConflict(t *testing.T) {
	shift := dayShift(t, "2025-03-10T09:00:00Z", "2025-03-10T17:00:00Z")
	existing := []Appointment{{
		ID:      uuid.New(),
		StartAt: mustTime(t, "2025-03-10T10:00:00Z"),
		EndAt:   mustTime(t, "2025-03-10T11:00:00Z"),
		Status:  StatusConfirmed,
	}}

	// Ends exactly when the existing one starts.
	before := ValidateMove(MoveCandidate{
		StartAt:     mustTime(t, "2025-03-10T09:30:00Z"),
		DurationMin: 30,
	}, existing, shift, false)
	assert.False(t, before.Conflict)

	// Starts exactly when the existing one ends.
	after := ValidateMove(MoveCandidate{
		StartAt:     mustTime(t, "2025-03-10T11:00:00Z"),
		DurationMin: 30,
	}, existing, shift, false)
	assert.False(t, after.Conflict)
}

func TestValidateMove_ConflictReportsAttemptedTimeUnchanged(t *testing.T) {
	shift := dayShift(t, "2025-03-10T09:00:00Z", "2025-03-10T17:00:00Z")
	existing := []Appointment{{
		ID:      uuid.New(),
		StartAt: mustTime(t, "2025-03-10T09:00:00Z"),
		EndAt:   mustTime(t, "2025-03-10T10:00:00Z"),
		Status:  StatusConfirmed,
	}}

	// The candidate would be clamped to 09:00, colliding with the existing
	// booking. The result must echo the raw 08:30 attempt, not the clamp.
	cand := MoveCandidate{
		StartAt:     mustTime(t, "2025-03-10T08:30:00Z"),
		DurationMin: 45,
	}
	res := ValidateMove(cand, existing, shift, false)
	assert.True(t, res.Conflict)
	assert.Equal(t, "overlaps existing appointment", res.Reason)
	assert.Equal(t, cand.StartAt, res.AdjustedStart)
	assert.Equal(t, cand.DurationMin, res.AdjustedDuration)
	assert.False(t, res.Adjusted)
}

func TestValidateMove_IgnoresSelf(t *testing.T) {
	shift := dayShift(t, "2025-03-10T09:00:00Z", "2025-03-10T17:00:00Z")
	self := Appointment{
		ID:      uuid.New(),
		StartAt: mustTime(t, "2025-03-10T10:00:00Z"),
		EndAt:   mustTime(t, "2025-03-10T11:00:00Z"),
		Status:  StatusConfirmed,
	}

	// Nudging an appointment 15 minutes later overlaps its own old slot.
	res := ValidateMove(MoveCandidate{
		AppointmentID: self.ID,
		StartAt:       mustTime(t, "2025-03-10T10:15:00Z"),
		DurationMin:   60,
	}, []Appointment{self}, shift, false)
	assert.False(t, res.Conflict)
}

func TestValidateMove_IgnoresCancelledAndNoShow(t *testing.T) {
	shift := dayShift(t, "2025-03-10T09:00:00Z", "2025-03-10T17:00:00Z")
	existing := []Appointment{
		{
			ID:      uuid.New(),
			StartAt: mustTime(t, "2025-03-10T10:00:00Z"),
			EndAt:   mustTime(t, "2025-03-10T11:00:00Z"),
			Status:  StatusCancelled,
		},
		{
			ID:      uuid.New(),
			StartAt: mustTime(t, "2025-03-10T10:00:00Z"),
			EndAt:   mustTime(t, "2025-03-10T11:00:00Z"),
			Status:  StatusNoShow,
		},
	}

	res := ValidateMove(MoveCandidate{
		StartAt:     mustTime(t, "2025-03-10T10:00:00Z"),
		DurationMin: 60,
	}, existing, shift, false)
	assert.False(t, res.Conflict)
}

func TestValidateMove_DoubleBookingOverride(t *testing.T) {
	shift := dayShift(t, "2025-03-10T09:00:00Z", "2025-03-10T17:00:00Z")
	existing := []Appointment{{
		ID:      uuid.New(),
		StartAt: mustTime(t, "2025-03-10T10:00:00Z"),
		EndAt:   mustTime(t, "2025-03-10T11:00:00Z"),
		Status:  StatusConfirmed,
	}}
	cand := MoveCandidate{
		StartAt:     mustTime(t, "2025-03-10T10:30:00Z"),
		DurationMin: 60,
	}

	res := ValidateMove(cand, existing, shift, true)
	require.False(t, res.Conflict)
	// The overlap is still surfaced so the caller can audit the override.
	assert.Equal(t, "overlaps existing appointment", res.Reason)
	assert.Equal(t, cand.StartAt, res.AdjustedStart)
}
