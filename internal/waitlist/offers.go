package waitlist

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/glowops/medspa-scheduling/internal/observability/metrics"
	"github.com/glowops/medspa-scheduling/internal/slotlock"
	"github.com/glowops/medspa-scheduling/pkg/logging"
)

var waitlistTracer = otel.Tracer("medspa.internal.waitlist")

// OfferStatus tracks the lifecycle of a slot offer.
type OfferStatus string

const (
	OfferPending  OfferStatus = "pending"
	OfferAccepted OfferStatus = "accepted"
	OfferDeclined OfferStatus = "declined"
	OfferExpired  OfferStatus = "expired"
)

// Offer is a time-limited hold on a freed slot for one waitlist entry.
// While the offer is pending the slot stays locked so no second offer
// flow can start.
type Offer struct {
	ID             uuid.UUID   `json:"id"`
	Token          string      `json:"token"`
	EntryID        uuid.UUID   `json:"entry_id"`
	SlotKey        string      `json:"slot_key"`
	PractitionerID uuid.UUID   `json:"practitioner_id"`
	Service        string      `json:"service"`
	StartAt        time.Time   `json:"start_at"`
	DurationMin    int         `json:"duration_min"`
	Status         OfferStatus `json:"status"`
	ExpiresAt      time.Time   `json:"expires_at"`
	RespondedAt    *time.Time  `json:"responded_at,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

// ErrNoCandidates is returned when no eligible entry scores above zero
// for the slot.
var ErrNoCandidates = errors.New("waitlist: no matching candidates")

// ErrSlotLocked is returned when another offer already holds the slot.
var ErrSlotLocked = errors.New("waitlist: slot already locked by another offer")

// ErrOfferExpired is returned when responding to an offer past its
// expiry window.
var ErrOfferExpired = errors.New("waitlist: offer expired")

// ErrAlreadyOffered is returned when every ranked candidate has already
// received an offer for this slot.
var ErrAlreadyOffered = errors.New("waitlist: all candidates already offered this slot")

// ErrOfferSettled is returned when responding to an offer that was
// already accepted, declined, or expired.
var ErrOfferSettled = errors.New("waitlist: offer already settled")

// OfferService runs the auto-fill flow: rank the waitlist against a
// freed slot, lock the slot, and hold an offer open for the best match
// until it is accepted, declined, or expires.
type OfferService struct {
	store    *Store
	scorer   *Scorer
	locks    *slotlock.Locker
	metrics  *metrics.SchedulingMetrics
	logger   *logging.Logger
	offerTTL time.Duration
	now      func() time.Time
}

// NewOfferService constructs the offer flow service. The clock is
// injectable for tests; pass nil for wall time.
func NewOfferService(store *Store, scorer *Scorer, locks *slotlock.Locker, m *metrics.SchedulingMetrics, logger *logging.Logger, offerTTL time.Duration, now func() time.Time) *OfferService {
	if store == nil {
		panic("waitlist: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	if offerTTL <= 0 {
		offerTTL = 15 * time.Minute
	}
	return &OfferService{
		store:    store,
		scorer:   scorer,
		locks:    locks,
		metrics:  m,
		logger:   logger,
		offerTTL: offerTTL,
		now:      now,
	}
}

// Suggest ranks the current waitlist against a freed slot without side
// effects. Used by the suggestion banner in the calendar UI.
func (s *OfferService) Suggest(ctx context.Context, slot OpenSlot) ([]MatchResult, error) {
	ctx, span := waitlistTracer.Start(ctx, "waitlist.suggest")
	defer span.End()
	span.SetAttributes(attribute.String("medspa.slot_key", slot.Key()))

	entries, err := s.store.ListActive(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	results := s.scorer.Rank(entries, slot, s.now())
	s.metrics.ObserveMatchRun(len(results))
	return results, nil
}

// CreateOffer locks the slot and opens an offer for the best-ranked
// candidate that has not already been offered this slot. The entry is
// marked offered and its offer count bumped; delivering the notification
// is the caller's concern.
func (s *OfferService) CreateOffer(ctx context.Context, slot OpenSlot) (*Offer, *MatchResult, error) {
	ctx, span := waitlistTracer.Start(ctx, "waitlist.create_offer")
	defer span.End()

	results, err := s.Suggest(ctx, slot)
	if err != nil {
		return nil, nil, err
	}
	if len(results) == 0 {
		return nil, nil, ErrNoCandidates
	}

	slotKey := slot.Key()
	var match *MatchResult
	for i := range results {
		offered, err := s.store.HasOffer(ctx, results[i].Entry.ID, slotKey)
		if err != nil {
			return nil, nil, err
		}
		if !offered {
			match = &results[i]
			break
		}
	}
	if match == nil {
		return nil, nil, ErrAlreadyOffered
	}

	now := s.now()
	offer := &Offer{
		ID:             uuid.New(),
		Token:          newToken(),
		EntryID:        match.Entry.ID,
		SlotKey:        slotKey,
		PractitionerID: slot.PractitionerID,
		Service:        slot.Service,
		StartAt:        slot.StartAt,
		DurationMin:    slot.DurationMin,
		Status:         OfferPending,
		ExpiresAt:      now.Add(s.offerTTL),
		CreatedAt:      now,
	}

	if s.locks != nil {
		if _, err := s.locks.Acquire(ctx, slotKey, offer.ID, s.offerTTL); err != nil {
			if errors.Is(err, slotlock.ErrLocked) {
				return nil, nil, ErrSlotLocked
			}
			return nil, nil, err
		}
	}

	if err := s.store.CreateOffer(ctx, offer); err != nil {
		// Undo the lock so the slot is not stranded until TTL.
		if s.locks != nil {
			_ = s.locks.Release(ctx, slotKey, offer.ID)
		}
		return nil, nil, err
	}
	if err := s.store.MarkOffered(ctx, match.Entry.ID); err != nil {
		s.logger.Error("waitlist: mark offered", "entry_id", match.Entry.ID, "error", err)
	}

	s.metrics.ObserveOffer("created")
	s.logger.Info("waitlist offer created",
		"offer_id", offer.ID,
		"entry_id", match.Entry.ID,
		"slot_key", slotKey,
		"score", match.Score,
		"expires_at", offer.ExpiresAt,
	)
	return offer, match, nil
}

// Respond settles a pending offer by its token. Accepting books the
// entry; declining returns it to the pool with a decline recorded, which
// feeds the scorer's decline penalty. Either way the slot lock is
// released. Responding after expiry marks the offer expired.
func (s *OfferService) Respond(ctx context.Context, token string, accept bool) (*Offer, error) {
	ctx, span := waitlistTracer.Start(ctx, "waitlist.respond")
	defer span.End()

	offer, err := s.store.GetOfferByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if offer.Status != OfferPending {
		return nil, fmt.Errorf("%w (%s)", ErrOfferSettled, offer.Status)
	}
	if s.now().After(offer.ExpiresAt) {
		if err := s.store.UpdateOfferStatus(ctx, offer.ID, OfferExpired); err != nil {
			return nil, err
		}
		s.releaseLock(ctx, offer)
		s.metrics.ObserveOffer("expired")
		return nil, ErrOfferExpired
	}

	status := OfferDeclined
	if accept {
		status = OfferAccepted
	}
	if err := s.store.UpdateOfferStatus(ctx, offer.ID, status); err != nil {
		return nil, err
	}
	if err := s.store.RecordOfferOutcome(ctx, offer.EntryID, accept); err != nil {
		s.logger.Error("waitlist: record offer outcome", "entry_id", offer.EntryID, "error", err)
	}
	if accept {
		entry, err := s.store.GetEntry(ctx, offer.EntryID)
		if err == nil {
			if err := s.store.UpdateEntryStatus(ctx, entry.ID, EntryBooked, entry.Version); err != nil {
				s.logger.Error("waitlist: mark entry booked", "entry_id", entry.ID, "error", err)
			}
		}
	}
	s.releaseLock(ctx, offer)

	offer.Status = status
	now := s.now()
	offer.RespondedAt = &now
	s.metrics.ObserveOffer(string(status))
	s.logger.Info("waitlist offer settled", "offer_id", offer.ID, "status", status)
	return offer, nil
}

func (s *OfferService) releaseLock(ctx context.Context, offer *Offer) {
	if s.locks == nil {
		return
	}
	if err := s.locks.Release(ctx, offer.SlotKey, offer.ID); err != nil && !errors.Is(err, slotlock.ErrNotHeld) {
		s.logger.Warn("waitlist: release slot lock", "slot_key", offer.SlotKey, "error", err)
	}
}

func newToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
