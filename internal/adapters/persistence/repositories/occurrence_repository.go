package repositories

import (
	"context"
	"errors"

	"fitbook/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// occurrenceRepository implements OccurrenceRepository interface
type occurrenceRepository struct {
	db *gorm.DB
}

// NewOccurrenceRepository creates a new occurrence repository
func NewOccurrenceRepository(db *gorm.DB) OccurrenceRepository {
	return &occurrenceRepository{db: db}
}

// WithTx returns the repository bound to an in-flight transaction
func (r *occurrenceRepository) WithTx(tx *gorm.DB) OccurrenceRepository {
	return &occurrenceRepository{db: tx}
}

// Create creates a new occurrence
func (r *occurrenceRepository) Create(ctx context.Context, occ *models.Occurrence) error {
	return r.db.WithContext(ctx).Create(occ).Error
}

// GetByID gets an occurrence by ID with its class
func (r *occurrenceRepository) GetByID(ctx context.Context, id uint) (*models.Occurrence, error) {
	var occ models.Occurrence
	err := r.db.WithContext(ctx).Preload("GymClass").First(&occ, id).Error
	if err != nil {
		return nil, err
	}
	return &occ, nil
}

// GetByClassDayTime gets an occurrence by its (class, day, time) key.
// Returns nil, nil when absent.
func (r *occurrenceRepository) GetByClassDayTime(ctx context.Context, classID uint, day, timeOfDay string) (*models.Occurrence, error) {
	var occ models.Occurrence
	err := r.db.WithContext(ctx).
		Where("gym_class_id = ? AND day = ? AND time = ?", classID, day, timeOfDay).
		First(&occ).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &occ, nil
}

// List lists all occurrences with their classes
func (r *occurrenceRepository) List(ctx context.Context) ([]models.Occurrence, error) {
	var occs []models.Occurrence
	err := r.db.WithContext(ctx).Preload("GymClass").Order("id ASC").Find(&occs).Error
	return occs, err
}

// ListByClass lists occurrences belonging to a class
func (r *occurrenceRepository) ListByClass(ctx context.Context, classID uint) ([]models.Occurrence, error) {
	var occs []models.Occurrence
	err := r.db.WithContext(ctx).Where("gym_class_id = ?", classID).Order("id ASC").Find(&occs).Error
	return occs, err
}

// Update updates an occurrence's schedule fields. CurrentCapacity is never
// written here; it belongs to the seat operations below.
func (r *occurrenceRepository) Update(ctx context.Context, occ *models.Occurrence) error {
	return r.db.WithContext(ctx).Model(&models.Occurrence{}).
		Where("id = ?", occ.ID).
		Updates(map[string]interface{}{
			"day":          occ.Day,
			"time":         occ.Time,
			"max_capacity": occ.MaxCapacity,
		}).Error
}

// Delete deletes an occurrence together with its bookings
func (r *occurrenceRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("occurrence_id = ?", id).Delete(&models.Booking{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Occurrence{}, id).Error
	})
}

// ReserveSeat atomically takes one seat. The guard and the increment are a
// single UPDATE, so two racing callers can never both take the last seat.
func (r *occurrenceRepository) ReserveSeat(ctx context.Context, id uint) (int, error) {
	res := r.db.WithContext(ctx).Model(&models.Occurrence{}).
		Where("id = ? AND current_capacity < max_capacity", id).
		UpdateColumn("current_capacity", gorm.Expr("current_capacity + 1"))
	if res.Error != nil {
		return 0, res.Error
	}

	var occ models.Occurrence
	if err := r.db.WithContext(ctx).Select("current_capacity").First(&occ, id).Error; err != nil {
		return 0, err
	}

	if res.RowsAffected == 0 {
		return occ.CurrentCapacity, ErrNoFreeSeat
	}
	return occ.CurrentCapacity, nil
}

// ReleaseSeat atomically returns one seat, guarded so capacity never drops
// below zero.
func (r *occurrenceRepository) ReleaseSeat(ctx context.Context, id uint) (int, error) {
	res := r.db.WithContext(ctx).Model(&models.Occurrence{}).
		Where("id = ? AND current_capacity > 0", id).
		UpdateColumn("current_capacity", gorm.Expr("current_capacity - 1"))
	if res.Error != nil {
		return 0, res.Error
	}

	var occ models.Occurrence
	if err := r.db.WithContext(ctx).Select("current_capacity").First(&occ, id).Error; err != nil {
		return 0, err
	}

	if res.RowsAffected == 0 {
		return occ.CurrentCapacity, ErrNoSeatToRelease
	}
	return occ.CurrentCapacity, nil
}

// SetMaxCapacity updates the seat limit. Lowering below current occupancy is
// allowed; reservations stay rejected until cancellations catch up.
func (r *occurrenceRepository) SetMaxCapacity(ctx context.Context, id uint, maxCapacity int) error {
	res := r.db.WithContext(ctx).Model(&models.Occurrence{}).
		Where("id = ?", id).
		UpdateColumn("max_capacity", maxCapacity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// MySQL reports zero affected rows when the value is unchanged,
		// so distinguish that from a missing occurrence.
		var occ models.Occurrence
		if err := r.db.WithContext(ctx).Select("id").First(&occ, id).Error; err != nil {
			return err
		}
	}
	return nil
}

// ReconcileCapacity recomputes current_capacity from the live booking count
// and returns the corrected value.
func (r *occurrenceRepository) ReconcileCapacity(ctx context.Context, id uint) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("occurrence_id = ?", id).
		Count(&count).Error; err != nil {
		return 0, err
	}

	res := r.db.WithContext(ctx).Model(&models.Occurrence{}).
		Where("id = ?", id).
		UpdateColumn("current_capacity", count)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		var occ models.Occurrence
		if err := r.db.WithContext(ctx).Select("id").First(&occ, id).Error; err != nil {
			return 0, err
		}
	}
	return int(count), nil
}

// ListIDs returns all occurrence IDs
func (r *occurrenceRepository) ListIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Occurrence{}).Order("id ASC").Pluck("id", &ids).Error
	return ids, err
}
