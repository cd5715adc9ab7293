package repositories

import (
	"context"
	"errors"

	"fitbook/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// bookingRepository implements BookingRepository interface
type bookingRepository struct {
	db *gorm.DB
}

// NewBookingRepository creates a new booking repository
func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

// WithTx returns the repository bound to an in-flight transaction
func (r *bookingRepository) WithTx(tx *gorm.DB) BookingRepository {
	return &bookingRepository{db: tx}
}

// Create creates a new booking
func (r *bookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

// GetLive returns the live booking for a (user, occurrence) pair, or
// nil, nil when there is none.
func (r *bookingRepository) GetLive(ctx context.Context, userID, occurrenceID uint) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND occurrence_id = ?", userID, occurrenceID).
		First(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// ListByUser lists a user's bookings with occurrence and class preloaded
func (r *bookingRepository) ListByUser(ctx context.Context, userID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Preload("Occurrence").
		Preload("Occurrence.GymClass").
		Where("user_id = ?", userID).
		Order("booking_date DESC").
		Find(&bookings).Error
	return bookings, err
}

// Delete hard deletes a booking
func (r *bookingRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Booking{}, id).Error
}

// DeleteByUser hard deletes all bookings of a user
func (r *bookingRepository) DeleteByUser(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Booking{}).Error
}

// DeleteByOccurrence hard deletes all bookings of an occurrence
func (r *bookingRepository) DeleteByOccurrence(ctx context.Context, occurrenceID uint) error {
	return r.db.WithContext(ctx).Where("occurrence_id = ?", occurrenceID).Delete(&models.Booking{}).Error
}

// CountByOccurrence counts live bookings for an occurrence
func (r *bookingRepository) CountByOccurrence(ctx context.Context, occurrenceID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("occurrence_id = ?", occurrenceID).
		Count(&count).Error
	return count, err
}
