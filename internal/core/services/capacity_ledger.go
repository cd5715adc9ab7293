package services

import (
	"context"
	"errors"
	"log"

	"fitbook/internal/adapters/persistence/repositories"

	"gorm.io/gorm"
)

// Ledger errors
var (
	ErrOccurrenceNotFound = errors.New("occurrence not found")
	ErrClassFull          = errors.New("class is full")
	ErrCapacityUnderflow  = errors.New("occurrence capacity underflow")
	ErrInvalidCapacity    = errors.New("max capacity must be positive")
)

// CapacityLedger is the single authority for mutating an occurrence's
// occupancy. Both seat operations are one conditional UPDATE each, so
// 0 <= current_capacity <= max_capacity holds under concurrent callers
// without any global lock. Callers that need a multi-step unit (duplicate
// check + reserve + insert) bind the ledger into their transaction with
// WithTx and serialize per occurrence.
type CapacityLedger struct {
	occurrenceRepo repositories.OccurrenceRepository
}

// NewCapacityLedger creates a new capacity ledger
func NewCapacityLedger(occurrenceRepo repositories.OccurrenceRepository) *CapacityLedger {
	return &CapacityLedger{occurrenceRepo: occurrenceRepo}
}

// WithTx returns the ledger bound to an in-flight transaction
func (l *CapacityLedger) WithTx(tx *gorm.DB) *CapacityLedger {
	return &CapacityLedger{occurrenceRepo: l.occurrenceRepo.WithTx(tx)}
}

// Reserve takes one seat on the occurrence and returns the new occupancy.
// Exactly one of two racing callers wins the last seat; the loser gets
// ErrClassFull with no partial mutation.
func (l *CapacityLedger) Reserve(ctx context.Context, occurrenceID uint) (int, error) {
	current, err := l.occurrenceRepo.ReserveSeat(ctx, occurrenceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrOccurrenceNotFound
		}
		if errors.Is(err, repositories.ErrNoFreeSeat) {
			return current, ErrClassFull
		}
		return 0, err
	}
	return current, nil
}

// Release returns one seat on the occurrence and returns the new occupancy.
// Underflow means reserve/release pairing broke somewhere upstream: it is
// logged as a bug signal and the counter stays clamped at zero.
func (l *CapacityLedger) Release(ctx context.Context, occurrenceID uint) (int, error) {
	current, err := l.occurrenceRepo.ReleaseSeat(ctx, occurrenceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrOccurrenceNotFound
		}
		if errors.Is(err, repositories.ErrNoSeatToRelease) {
			log.Printf("⚠️ Capacity underflow on occurrence %d, clamped at 0", occurrenceID)
			return 0, ErrCapacityUnderflow
		}
		return 0, err
	}
	return current, nil
}

// SetMaxCapacity updates the seat limit of an occurrence. Setting it below
// current occupancy is allowed: the occurrence stays over-subscribed and
// Reserve keeps rejecting until cancellations bring occupancy back under.
func (l *CapacityLedger) SetMaxCapacity(ctx context.Context, occurrenceID uint, maxCapacity int) error {
	if maxCapacity <= 0 {
		return ErrInvalidCapacity
	}

	err := l.occurrenceRepo.SetMaxCapacity(ctx, occurrenceID, maxCapacity)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrOccurrenceNotFound
	}
	return err
}

// Reconcile recomputes an occurrence's occupancy from its live booking
// count and returns the corrected value. Paired reserve/release make this
// a no-op in the common case; it exists to repair drift after a crash
// between paired steps.
func (l *CapacityLedger) Reconcile(ctx context.Context, occurrenceID uint) (int, error) {
	before, err := l.occurrenceRepo.GetByID(ctx, occurrenceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrOccurrenceNotFound
		}
		return 0, err
	}

	current, err := l.occurrenceRepo.ReconcileCapacity(ctx, occurrenceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrOccurrenceNotFound
		}
		return 0, err
	}

	if current != before.CurrentCapacity {
		log.Printf("⚠️ Occurrence %d occupancy drifted (%d -> %d), corrected from live bookings",
			occurrenceID, before.CurrentCapacity, current)
	}
	return current, nil
}

// ReconcileAll reconciles every occurrence and returns how many counters
// needed correction.
func (l *CapacityLedger) ReconcileAll(ctx context.Context) (int, error) {
	ids, err := l.occurrenceRepo.ListIDs(ctx)
	if err != nil {
		return 0, err
	}

	corrected := 0
	for _, id := range ids {
		before, err := l.occurrenceRepo.GetByID(ctx, id)
		if err != nil {
			return corrected, err
		}
		current, err := l.occurrenceRepo.ReconcileCapacity(ctx, id)
		if err != nil {
			return corrected, err
		}
		if current != before.CurrentCapacity {
			corrected++
			log.Printf("⚠️ Occurrence %d occupancy drifted (%d -> %d), corrected from live bookings",
				id, before.CurrentCapacity, current)
		}
	}
	return corrected, nil
}
