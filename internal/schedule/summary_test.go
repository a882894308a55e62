package schedule

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSummarizeDay(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	mk := func(status AppointmentStatus, durMin int) Appointment {
		return Appointment{
			ID:          uuid.New(),
			StartAt:     day.Add(9 * time.Hour),
			EndAt:       day.Add(9 * time.Hour).Add(time.Duration(durMin) * time.Minute),
			DurationMin: durMin,
			Status:      status,
		}
	}
	appts := []Appointment{
		mk(StatusConfirmed, 60),
		mk(StatusScheduled, 30),
		mk(StatusCancelled, 45),
		mk(StatusCompleted, 30),
		mk(StatusNoShow, 60),
		mk(StatusInProgress, 60),
	}
	shifts := []Shift{{
		StartAt: day.Add(9 * time.Hour),
		EndAt:   day.Add(15 * time.Hour),
	}}

	s := SummarizeDay(appts, shifts)
	assert.Equal(t, 6, s.Total)
	assert.Equal(t, 1, s.Confirmed)
	assert.Equal(t, 1, s.Pending)
	assert.Equal(t, 1, s.Cancelled)
	assert.Equal(t, 1, s.Completed)
	assert.Equal(t, 1, s.NoShow)
	assert.Equal(t, 1, s.InProgress)
	// Cancelled and no-show minutes do not count toward utilization.
	assert.Equal(t, 180, s.BookedMinutes)
	assert.Equal(t, 360, s.ShiftMinutes)
	assert.InDelta(t, 50.0, s.UtilizationPct, 1e-9)
}

func TestSummarizeDay_NoShifts(t *testing.T) {
	appts := []Appointment{{
		ID:          uuid.New(),
		Status:      StatusConfirmed,
		DurationMin: 60,
	}}

	s := SummarizeDay(appts, nil)
	assert.Equal(t, 60, s.BookedMinutes)
	assert.Zero(t, s.ShiftMinutes)
	assert.Zero(t, s.UtilizationPct)
}

func TestSummarizeDay_Empty(t *testing.T) {
	s := SummarizeDay(nil, nil)
	assert.Zero(t, s.Total)
	assert.Zero(t, s.UtilizationPct)
}
