package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store provides persistence for appointments and shifts. Writes that
// apply a validated change use optimistic concurrency: the caller passes
// the version it read, and a stale version fails with ErrVersionConflict
// instead of silently overwriting a concurrent reschedule.
type Store struct {
	db DB
}

// NewStore creates a schedule store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

const appointmentColumns = `id, practitioner_id, patient_name, service, start_at, end_at, duration_min, status, room_id, version, created_at, updated_at`

// ListAppointmentsForDay returns a practitioner's appointments whose
// start falls on the given calendar day, ordered by start time.
func (s *Store) ListAppointmentsForDay(ctx context.Context, practitionerID uuid.UUID, day time.Time) ([]Appointment, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)
	rows, err := s.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE practitioner_id = $1 AND start_at >= $2 AND start_at < $3
		ORDER BY start_at ASC, id ASC`, practitionerID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("schedule: list appointments: %w", err)
	}
	defer rows.Close()
	return scanAppointments(rows)
}

// CreateAppointment inserts a new appointment row.
func (s *Store) CreateAppointment(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	a.Version = 1
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO appointments (`+appointmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		a.ID, a.PractitionerID, a.PatientName, a.Service, a.StartAt, a.EndAt,
		a.DurationMin, string(a.Status), a.RoomID, a.Version, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("schedule: create appointment: %w", err)
	}
	return nil
}

// RescheduleAppointment applies a validated move. expectedVersion must be
// the version the caller read before validating; a mismatch means a
// concurrent write landed first and the caller should re-run validation
// against the refreshed timeline.
func (s *Store) RescheduleAppointment(ctx context.Context, id uuid.UUID, startAt time.Time, durationMin int, expectedVersion int64) error {
	endAt := startAt.Add(time.Duration(durationMin) * time.Minute)
	tag, err := s.db.Exec(ctx, `
		UPDATE appointments
		SET start_at = $1, end_at = $2, duration_min = $3, version = version + 1, updated_at = $4
		WHERE id = $5 AND version = $6`,
		startAt, endAt, durationMin, time.Now().UTC(), id, expectedVersion)
	if err != nil {
		return fmt.Errorf("schedule: reschedule appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	return nil
}

// UpdateAppointmentStatus transitions an appointment's status.
func (s *Store) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status AppointmentStatus) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE appointments SET status = $1, version = version + 1, updated_at = $2
		WHERE id = $3`, string(status), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("schedule: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const shiftColumns = `id, practitioner_id, start_at, end_at, repeat, repeat_until, series_id, room, tags, notes, created_by, version, created_at, updated_at`

// CreateShifts bulk-inserts a generated shift series.
func (s *Store) CreateShifts(ctx context.Context, shifts []Shift) error {
	for i := range shifts {
		sh := &shifts[i]
		var seriesID any
		if sh.SeriesID != uuid.Nil {
			seriesID = sh.SeriesID
		}
		_, err := s.db.Exec(ctx, `
			INSERT INTO shifts (`+shiftColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			sh.ID, sh.PractitionerID, sh.StartAt, sh.EndAt, string(sh.Repeat),
			sh.RepeatUntil, seriesID, sh.Room, sh.Tags, sh.Notes, sh.CreatedBy,
			sh.Version, sh.CreatedAt, sh.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("schedule: create shift %s: %w", sh.ID, err)
		}
	}
	return nil
}

// ListShiftsForDay returns a practitioner's shifts starting on the day.
func (s *Store) ListShiftsForDay(ctx context.Context, practitionerID uuid.UUID, day time.Time) ([]Shift, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)
	rows, err := s.db.Query(ctx, `
		SELECT `+shiftColumns+`
		FROM shifts
		WHERE practitioner_id = $1 AND start_at >= $2 AND start_at < $3
		ORDER BY start_at ASC`, practitionerID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("schedule: list shifts: %w", err)
	}
	defer rows.Close()
	return scanShifts(rows)
}

// GetShift loads a single shift.
func (s *Store) GetShift(ctx context.Context, id uuid.UUID) (*Shift, error) {
	row := s.db.QueryRow(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE id = $1`, id)
	sh, err := scanShift(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("schedule: get shift: %w", err)
	}
	return sh, nil
}

// DeleteShift removes a single shift instance. Siblings from the same
// series are untouched.
func (s *Store) DeleteShift(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM shifts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("schedule: delete shift: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSeries removes every shift sharing a series identifier and
// returns how many instances were deleted.
func (s *Store) DeleteSeries(ctx context.Context, seriesID uuid.UUID) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM shifts WHERE series_id = $1`, seriesID)
	if err != nil {
		return 0, fmt.Errorf("schedule: delete series: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanAppointments(rows pgx.Rows) ([]Appointment, error) {
	var out []Appointment
	for rows.Next() {
		var a Appointment
		var status string
		if err := rows.Scan(&a.ID, &a.PractitionerID, &a.PatientName, &a.Service,
			&a.StartAt, &a.EndAt, &a.DurationMin, &status, &a.RoomID,
			&a.Version, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("schedule: scan appointment: %w", err)
		}
		a.Status = AppointmentStatus(status)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("schedule: iterate appointments: %w", err)
	}
	return out, nil
}

func scanShifts(rows pgx.Rows) ([]Shift, error) {
	var out []Shift
	for rows.Next() {
		sh, err := scanShiftFrom(rows)
		if err != nil {
			return nil, fmt.Errorf("schedule: scan shift: %w", err)
		}
		out = append(out, *sh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("schedule: iterate shifts: %w", err)
	}
	return out, nil
}

func scanShift(row pgx.Row) (*Shift, error) {
	return scanShiftFrom(row)
}

func scanShiftFrom(row pgx.Row) (*Shift, error) {
	var sh Shift
	var repeat string
	var seriesID *uuid.UUID
	if err := row.Scan(&sh.ID, &sh.PractitionerID, &sh.StartAt, &sh.EndAt,
		&repeat, &sh.RepeatUntil, &seriesID, &sh.Room, &sh.Tags, &sh.Notes,
		&sh.CreatedBy, &sh.Version, &sh.CreatedAt, &sh.UpdatedAt); err != nil {
		return nil, err
	}
	sh.Repeat = Cadence(repeat)
	if seriesID != nil {
		sh.SeriesID = *seriesID
	}
	return &sh, nil
}
