// Package slotlock serializes waitlist offer flows on a freed slot.
// Only one offer may be in flight per slot at a time; locks carry the
// owning offer ID and a version for optimistic extension, and expire via
// Redis TTL so an abandoned offer frees the slot on its own.
package slotlock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/glowops/medspa-scheduling/pkg/logging"
)

// ErrLocked is returned by Acquire when another offer holds the slot.
var ErrLocked = errors.New("slotlock: slot is locked")

// ErrNotHeld is returned when releasing or extending a lock that does
// not exist or belongs to a different offer.
var ErrNotHeld = errors.New("slotlock: lock not held")

// ErrVersionMismatch is returned by Extend when the caller's version is
// stale.
var ErrVersionMismatch = errors.New("slotlock: version mismatch")

// Lock is the stored lock record.
type Lock struct {
	SlotKey   string    `json:"slot_key"`
	OfferID   uuid.UUID `json:"offer_id"`
	Version   int       `json:"version"`
	LockedAt  time.Time `json:"locked_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Locker implements slot locks on Redis.
type Locker struct {
	rdb    *redis.Client
	logger *logging.Logger
}

// New creates a slot locker.
func New(rdb *redis.Client, logger *logging.Logger) *Locker {
	if logger == nil {
		logger = logging.Default()
	}
	return &Locker{rdb: rdb, logger: logger}
}

func key(slotKey string) string {
	return "slotlock:" + slotKey
}

// Acquire takes the lock for an offer, failing with ErrLocked if a live
// lock for another offer exists. Expiry is enforced by Redis TTL.
func (l *Locker) Acquire(ctx context.Context, slotKey string, offerID uuid.UUID, ttl time.Duration) (*Lock, error) {
	now := time.Now().UTC()
	lock := &Lock{
		SlotKey:   slotKey,
		OfferID:   offerID,
		Version:   1,
		LockedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	payload, err := json.Marshal(lock)
	if err != nil {
		return nil, fmt.Errorf("slotlock: marshal lock: %w", err)
	}
	ok, err := l.rdb.SetNX(ctx, key(slotKey), payload, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("slotlock: acquire %s: %w", slotKey, err)
	}
	if !ok {
		return nil, ErrLocked
	}
	l.logger.Info("slot lock acquired", "slot_key", slotKey, "offer_id", offerID, "expires_at", lock.ExpiresAt)
	return lock, nil
}

// Get returns the current lock for a slot, or nil if unlocked.
func (l *Locker) Get(ctx context.Context, slotKey string) (*Lock, error) {
	payload, err := l.rdb.Get(ctx, key(slotKey)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("slotlock: get %s: %w", slotKey, err)
	}
	var lock Lock
	if err := json.Unmarshal(payload, &lock); err != nil {
		return nil, fmt.Errorf("slotlock: decode lock %s: %w", slotKey, err)
	}
	return &lock, nil
}

// Release frees the slot. Only the owning offer may release; a mismatch
// leaves the lock in place and returns ErrNotHeld.
func (l *Locker) Release(ctx context.Context, slotKey string, offerID uuid.UUID) error {
	lock, err := l.Get(ctx, slotKey)
	if err != nil {
		return err
	}
	if lock == nil || lock.OfferID != offerID {
		l.logger.Warn("slot lock release refused", "slot_key", slotKey, "offer_id", offerID)
		return ErrNotHeld
	}
	if err := l.rdb.Del(ctx, key(slotKey)).Err(); err != nil {
		return fmt.Errorf("slotlock: release %s: %w", slotKey, err)
	}
	l.logger.Info("slot lock released", "slot_key", slotKey, "offer_id", offerID)
	return nil
}

// Extend bumps the lock's version and pushes out its expiry, failing
// with ErrVersionMismatch when the caller's version is stale.
func (l *Locker) Extend(ctx context.Context, slotKey string, offerID uuid.UUID, expectedVersion int, ttl time.Duration) (*Lock, error) {
	lock, err := l.Get(ctx, slotKey)
	if err != nil {
		return nil, err
	}
	if lock == nil || lock.OfferID != offerID {
		return nil, ErrNotHeld
	}
	if lock.Version != expectedVersion {
		l.logger.Warn("slot lock version mismatch", "slot_key", slotKey, "expected", expectedVersion, "actual", lock.Version)
		return nil, ErrVersionMismatch
	}
	lock.Version++
	lock.ExpiresAt = time.Now().UTC().Add(ttl)
	payload, err := json.Marshal(lock)
	if err != nil {
		return nil, fmt.Errorf("slotlock: marshal lock: %w", err)
	}
	if err := l.rdb.Set(ctx, key(slotKey), payload, ttl).Err(); err != nil {
		return nil, fmt.Errorf("slotlock: extend %s: %w", slotKey, err)
	}
	return lock, nil
}
