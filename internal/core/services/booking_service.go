package services

import (
	"context"
	"errors"
	"log"
	"time"

	"fitbook/internal/adapters/persistence/models"
	"fitbook/internal/adapters/persistence/repositories"
	"fitbook/internal/pkg/keylock"

	"gorm.io/gorm"
)

// Booking errors
var (
	ErrAlreadyBooked   = errors.New("you have already booked this class")
	ErrBookingNotFound = errors.New("booking not found")
)

// BookingService orchestrates a reservation or cancellation as one logical
// transaction spanning the booking record and the capacity ledger. A keyed
// mutex per occurrence makes the duplicate-check + reserve + insert unit
// atomic with respect to other callers on the same occurrence while leaving
// distinct occurrences fully independent.
type BookingService struct {
	db             *gorm.DB
	bookingRepo    repositories.BookingRepository
	occurrenceRepo repositories.OccurrenceRepository
	ledger         *CapacityLedger
	locks          *keylock.KeyedMutex
}

// NewBookingService creates a new booking service
func NewBookingService(
	db *gorm.DB,
	bookingRepo repositories.BookingRepository,
	occurrenceRepo repositories.OccurrenceRepository,
	ledger *CapacityLedger,
) *BookingService {
	return &BookingService{
		db:             db,
		bookingRepo:    bookingRepo,
		occurrenceRepo: occurrenceRepo,
		ledger:         ledger,
		locks:          keylock.New(),
	}
}

// BookingResult reports the occurrence's occupancy after a schedule or
// cancel operation.
type BookingResult struct {
	OccurrenceID    uint `json:"occurrence_id"`
	CurrentCapacity int  `json:"current_capacity"`
	MaxCapacity     int  `json:"max_capacity"`
}

// Schedule reserves a seat on the occurrence for the user.
// Inside the per-occurrence lock and a single transaction: an existing live
// booking rejects with ErrAlreadyBooked, the ledger reserve errors propagate
// verbatim, and a failed booking insert rolls the reserve back so no
// orphaned capacity increment survives.
func (s *BookingService) Schedule(ctx context.Context, userID, occurrenceID uint) (*BookingResult, error) {
	unlock := s.locks.Lock(occurrenceID)
	defer unlock()

	var result *BookingResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bookings := s.bookingRepo.WithTx(tx)

		existing, err := bookings.GetLive(ctx, userID, occurrenceID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyBooked
		}

		current, err := s.ledger.WithTx(tx).Reserve(ctx, occurrenceID)
		if err != nil {
			return err
		}

		booking := &models.Booking{
			UserID:       userID,
			OccurrenceID: occurrenceID,
			BookingDate:  time.Now().UTC(),
		}
		if err := bookings.Create(ctx, booking); err != nil {
			return err
		}

		occ, err := s.occurrenceRepo.WithTx(tx).GetByID(ctx, occurrenceID)
		if err != nil {
			return err
		}

		result = &BookingResult{
			OccurrenceID:    occurrenceID,
			CurrentCapacity: current,
			MaxCapacity:     occ.MaxCapacity,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Booking created: user %d, occurrence %d (%d/%d)",
		userID, occurrenceID, result.CurrentCapacity, result.MaxCapacity)
	return result, nil
}

// Cancel deletes the user's live booking for the occurrence and releases
// the seat, as one atomic unit. A ledger underflow is already logged and
// clamped by the ledger; the cancellation still completes since the
// booking record is what the member cares about.
func (s *BookingService) Cancel(ctx context.Context, userID, occurrenceID uint) (*BookingResult, error) {
	unlock := s.locks.Lock(occurrenceID)
	defer unlock()

	var result *BookingResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bookings := s.bookingRepo.WithTx(tx)

		booking, err := bookings.GetLive(ctx, userID, occurrenceID)
		if err != nil {
			return err
		}
		if booking == nil {
			return ErrBookingNotFound
		}

		if err := bookings.Delete(ctx, booking.ID); err != nil {
			return err
		}

		if _, err := s.ledger.WithTx(tx).Release(ctx, occurrenceID); err != nil &&
			!errors.Is(err, ErrCapacityUnderflow) {
			return err
		}

		occ, err := s.occurrenceRepo.WithTx(tx).GetByID(ctx, occurrenceID)
		if err != nil {
			return err
		}

		result = &BookingResult{
			OccurrenceID:    occurrenceID,
			CurrentCapacity: occ.CurrentCapacity,
			MaxCapacity:     occ.MaxCapacity,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Booking cancelled: user %d, occurrence %d (%d/%d)",
		userID, occurrenceID, result.CurrentCapacity, result.MaxCapacity)
	return result, nil
}

// ListBookings returns the user's bookings enriched with class details
func (s *BookingService) ListBookings(ctx context.Context, userID uint) ([]*models.BookingResponse, error) {
	bookings, err := s.bookingRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	responses := make([]*models.BookingResponse, len(bookings))
	for i := range bookings {
		responses[i] = bookings[i].ToResponse()
	}
	return responses, nil
}
