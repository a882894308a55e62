package waitlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned by store lookups for missing rows.
var ErrNotFound = errors.New("waitlist: not found")

// ErrVersionConflict is returned when an optimistic write loses the race.
var ErrVersionConflict = errors.New("waitlist: version conflict")

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists waitlist entries and offers.
type Store struct {
	db DB
}

// NewStore creates a waitlist store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

const entryColumns = `id, patient_id, patient_name, service, service_duration_min, priority, preferred_practitioner_id, avail_start_min, avail_end_min, forms_complete, deposit_cents, waiting_since, status, offer_count, declined_count, accepted_count, version, created_at, updated_at`

// CreateEntry inserts a new waitlist entry after validating it.
func (s *Store) CreateEntry(ctx context.Context, e *Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	e.Version = 1
	if e.Status == "" {
		e.Status = EntryActive
	}
	if e.WaitingSince.IsZero() {
		e.WaitingSince = now
	}
	var preferred any
	if e.PreferredPractitioner != uuid.Nil {
		preferred = e.PreferredPractitioner
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO waitlist_entries (`+entryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		e.ID, e.PatientID, e.PatientName, e.Service, e.ServiceDurationMin,
		string(e.Priority), preferred, e.AvailStartMin, e.AvailEndMin,
		e.FormsComplete, e.DepositCents, e.WaitingSince, string(e.Status),
		e.OfferCount, e.DeclinedCount, e.AcceptedCount, e.Version, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("waitlist: create entry: %w", err)
	}
	return nil
}

// ListActive returns every active waitlist entry, longest-waiting first.
func (s *Store) ListActive(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+entryColumns+`
		FROM waitlist_entries
		WHERE status = 'active'
		ORDER BY waiting_since ASC`)
	if err != nil {
		return nil, fmt.Errorf("waitlist: list active: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// GetEntry loads a single entry.
func (s *Store) GetEntry(ctx context.Context, id uuid.UUID) (*Entry, error) {
	row := s.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM waitlist_entries WHERE id = $1`, id)
	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("waitlist: get entry: %w", err)
	}
	return e, nil
}

// UpdateEntryStatus transitions an entry, guarded by its version.
func (s *Store) UpdateEntryStatus(ctx context.Context, id uuid.UUID, status EntryStatus, expectedVersion int64) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE waitlist_entries SET status = $1, version = version + 1, updated_at = $2
		WHERE id = $3 AND version = $4`,
		string(status), time.Now().UTC(), id, expectedVersion)
	if err != nil {
		return fmt.Errorf("waitlist: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	return nil
}

// RecordOfferOutcome bumps the entry's offer counters after a response.
func (s *Store) RecordOfferOutcome(ctx context.Context, id uuid.UUID, accepted bool) error {
	column := "declined_count"
	if accepted {
		column = "accepted_count"
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE waitlist_entries SET `+column+` = `+column+` + 1, version = version + 1, updated_at = $1
		WHERE id = $2`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("waitlist: record offer outcome: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkOffered increments the entry's offer count.
func (s *Store) MarkOffered(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE waitlist_entries SET offer_count = offer_count + 1, version = version + 1, updated_at = $1
		WHERE id = $2`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("waitlist: mark offered: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveEntry soft-deletes an entry from the waitlist.
func (s *Store) RemoveEntry(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE waitlist_entries SET status = 'removed', version = version + 1, updated_at = $1
		WHERE id = $2 AND status != 'removed'`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("waitlist: remove entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const offerColumns = `id, token, entry_id, slot_key, practitioner_id, service, start_at, duration_min, status, expires_at, responded_at, created_at`

// CreateOffer inserts an offer row. The unique index on
// (entry_id, slot_key) makes duplicate offers for the same entry and
// slot fail, which callers treat as idempotent suppression.
func (s *Store) CreateOffer(ctx context.Context, o *Offer) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO waitlist_offers (`+offerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		o.ID, o.Token, o.EntryID, o.SlotKey, o.PractitionerID, o.Service,
		o.StartAt, o.DurationMin, string(o.Status), o.ExpiresAt, o.RespondedAt, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("waitlist: create offer: %w", err)
	}
	return nil
}

// HasOffer reports whether any offer already exists for the entry+slot
// pair, regardless of its state.
func (s *Store) HasOffer(ctx context.Context, entryID uuid.UUID, slotKey string) (bool, error) {
	var n int
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(1) FROM waitlist_offers WHERE entry_id = $1 AND slot_key = $2`,
		entryID, slotKey).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("waitlist: check offer: %w", err)
	}
	return n > 0, nil
}

// GetOfferByToken loads a pending offer by its response token.
func (s *Store) GetOfferByToken(ctx context.Context, token string) (*Offer, error) {
	row := s.db.QueryRow(ctx, `SELECT `+offerColumns+` FROM waitlist_offers WHERE token = $1`, token)
	o, err := scanOffer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("waitlist: get offer: %w", err)
	}
	return o, nil
}

// UpdateOfferStatus transitions an offer out of pending.
func (s *Store) UpdateOfferStatus(ctx context.Context, id uuid.UUID, status OfferStatus) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE waitlist_offers SET status = $1, responded_at = $2
		WHERE id = $3 AND status = 'pending'`,
		string(status), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("waitlist: update offer status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanEntries(rows pgx.Rows) ([]Entry, error) {
	var out []Entry
	for rows.Next() {
		e, err := scanEntryFrom(rows)
		if err != nil {
			return nil, fmt.Errorf("waitlist: scan entry: %w", err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("waitlist: iterate entries: %w", err)
	}
	return out, nil
}

func scanEntry(row pgx.Row) (*Entry, error) {
	return scanEntryFrom(row)
}

func scanEntryFrom(row pgx.Row) (*Entry, error) {
	var e Entry
	var priority, status string
	var preferred *uuid.UUID
	if err := row.Scan(&e.ID, &e.PatientID, &e.PatientName, &e.Service,
		&e.ServiceDurationMin, &priority, &preferred, &e.AvailStartMin,
		&e.AvailEndMin, &e.FormsComplete, &e.DepositCents, &e.WaitingSince,
		&status, &e.OfferCount, &e.DeclinedCount, &e.AcceptedCount,
		&e.Version, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.Priority = Priority(priority)
	e.Status = EntryStatus(status)
	if preferred != nil {
		e.PreferredPractitioner = *preferred
	}
	return &e, nil
}

func scanOffer(row pgx.Row) (*Offer, error) {
	var o Offer
	var status string
	if err := row.Scan(&o.ID, &o.Token, &o.EntryID, &o.SlotKey, &o.PractitionerID,
		&o.Service, &o.StartAt, &o.DurationMin, &status, &o.ExpiresAt,
		&o.RespondedAt, &o.CreatedAt); err != nil {
		return nil, err
	}
	o.Status = OfferStatus(status)
	return &o, nil
}
