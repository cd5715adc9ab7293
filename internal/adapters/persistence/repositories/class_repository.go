package repositories

import (
	"context"
	"errors"

	"fitbook/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// classRepository implements ClassRepository interface
type classRepository struct {
	db *gorm.DB
}

// NewClassRepository creates a new class repository
func NewClassRepository(db *gorm.DB) ClassRepository {
	return &classRepository{db: db}
}

// WithTx returns the repository bound to an in-flight transaction
func (r *classRepository) WithTx(tx *gorm.DB) ClassRepository {
	return &classRepository{db: tx}
}

// Create creates a new class (occurrences on the struct are created with it)
func (r *classRepository) Create(ctx context.Context, class *models.GymClass) error {
	return r.db.WithContext(ctx).Create(class).Error
}

// GetByID gets a class by ID with its occurrences
func (r *classRepository) GetByID(ctx context.Context, id uint) (*models.GymClass, error) {
	var class models.GymClass
	err := r.db.WithContext(ctx).Preload("Occurrences").First(&class, id).Error
	if err != nil {
		return nil, err
	}
	return &class, nil
}

// GetByNameAndInstructor gets a class by its (name, instructor) pair.
// Returns nil, nil when absent; used by the timetable import upsert.
func (r *classRepository) GetByNameAndInstructor(ctx context.Context, name, instructor string) (*models.GymClass, error) {
	var class models.GymClass
	err := r.db.WithContext(ctx).
		Where("name = ? AND instructor = ?", name, instructor).
		First(&class).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &class, nil
}

// List lists all classes with their occurrences
func (r *classRepository) List(ctx context.Context) ([]models.GymClass, error) {
	var classes []models.GymClass
	err := r.db.WithContext(ctx).Preload("Occurrences").Order("id ASC").Find(&classes).Error
	return classes, err
}

// ListPaged lists classes with pagination
func (r *classRepository) ListPaged(ctx context.Context, offset, limit int) ([]models.GymClass, int64, error) {
	var classes []models.GymClass
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.GymClass{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Preload("Occurrences").
		Order("id ASC").
		Offset(offset).Limit(limit).
		Find(&classes).Error
	return classes, total, err
}

// Update updates class fields
func (r *classRepository) Update(ctx context.Context, class *models.GymClass) error {
	return r.db.WithContext(ctx).Model(&models.GymClass{}).
		Where("id = ?", class.ID).
		Updates(map[string]interface{}{
			"name":       class.Name,
			"instructor": class.Instructor,
		}).Error
}

// Delete deletes a class, its occurrences, and their bookings in one
// transaction. Cascade is explicit here rather than left to the FK
// constraints so the delete order is the same on every backend.
func (r *classRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var occIDs []uint
		if err := tx.Model(&models.Occurrence{}).
			Where("gym_class_id = ?", id).
			Pluck("id", &occIDs).Error; err != nil {
			return err
		}

		if len(occIDs) > 0 {
			if err := tx.Where("occurrence_id IN ?", occIDs).Delete(&models.Booking{}).Error; err != nil {
				return err
			}
			if err := tx.Where("gym_class_id = ?", id).Delete(&models.Occurrence{}).Error; err != nil {
				return err
			}
		}

		return tx.Delete(&models.GymClass{}, id).Error
	})
}

// Count returns the number of classes
func (r *classRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.GymClass{}).Count(&count).Error
	return count, err
}
