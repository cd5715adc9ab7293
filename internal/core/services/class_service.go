package services

import (
	"context"
	"errors"
	"log"

	"fitbook/internal/adapters/persistence/models"
	"fitbook/internal/adapters/persistence/repositories"
	"fitbook/internal/pkg/pagination"

	"gorm.io/gorm"
)

// Class errors
var (
	ErrClassNotFound = errors.New("class not found")
)

// ClassService handles admin CRUD on gym classes and their occurrences.
// Every mutation refreshes the timetable snapshot so the exported file
// always reflects the store.
type ClassService struct {
	db             *gorm.DB
	classRepo      repositories.ClassRepository
	occurrenceRepo repositories.OccurrenceRepository
	timetable      *TimetableService
}

// NewClassService creates a new class service
func NewClassService(
	db *gorm.DB,
	classRepo repositories.ClassRepository,
	occurrenceRepo repositories.OccurrenceRepository,
	timetable *TimetableService,
) *ClassService {
	return &ClassService{
		db:             db,
		classRepo:      classRepo,
		occurrenceRepo: occurrenceRepo,
		timetable:      timetable,
	}
}

// OccurrenceInput describes one weekly slot in a create or update request.
// ID is zero for slots that should be created.
type OccurrenceInput struct {
	ID          uint   `json:"id"`
	Day         string `json:"day" validate:"required,max=10"`
	Time        string `json:"time" validate:"required,max=5"`
	MaxCapacity int    `json:"max_capacity" validate:"required,gt=0"`
}

// ClassInput describes a class create or update request
type ClassInput struct {
	Name        string            `json:"name" validate:"required,max=100"`
	Instructor  string            `json:"instructor" validate:"required,max=100"`
	Occurrences []OccurrenceInput `json:"occurrences" validate:"required,min=1,dive"`
}

// Create creates a class with its occurrences, all starting empty
func (s *ClassService) Create(ctx context.Context, input *ClassInput) (*models.GymClass, error) {
	class := &models.GymClass{
		Name:       input.Name,
		Instructor: input.Instructor,
	}
	for _, occ := range input.Occurrences {
		class.Occurrences = append(class.Occurrences, models.Occurrence{
			Day:             occ.Day,
			Time:            occ.Time,
			MaxCapacity:     occ.MaxCapacity,
			CurrentCapacity: 0,
		})
	}

	if err := s.classRepo.Create(ctx, class); err != nil {
		return nil, err
	}

	log.Printf("✅ Class created: %s with %s (%d occurrences)",
		class.Name, class.Instructor, len(class.Occurrences))
	s.timetable.Refresh(ctx)
	return class, nil
}

// Update rewrites a class and syncs its occurrence set against the input:
// slots sent with an ID are updated in place keeping their live occupancy,
// slots without an ID are added empty, and stored slots absent from the
// input are removed together with their bookings.
func (s *ClassService) Update(ctx context.Context, id uint, input *ClassInput) (*models.GymClass, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		classes := s.classRepo.WithTx(tx)
		occurrences := s.occurrenceRepo.WithTx(tx)

		class, err := classes.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrClassNotFound
			}
			return err
		}

		class.Name = input.Name
		class.Instructor = input.Instructor
		if err := classes.Update(ctx, class); err != nil {
			return err
		}

		existing, err := occurrences.ListByClass(ctx, id)
		if err != nil {
			return err
		}
		byID := make(map[uint]*models.Occurrence, len(existing))
		for i := range existing {
			byID[existing[i].ID] = &existing[i]
		}

		kept := make(map[uint]bool, len(input.Occurrences))
		for _, in := range input.Occurrences {
			if in.ID != 0 {
				occ, ok := byID[in.ID]
				if !ok || occ.GymClassID != id {
					return ErrOccurrenceNotFound
				}
				occ.Day = in.Day
				occ.Time = in.Time
				occ.MaxCapacity = in.MaxCapacity
				if err := occurrences.Update(ctx, occ); err != nil {
					return err
				}
				kept[in.ID] = true
				continue
			}

			occ := &models.Occurrence{
				GymClassID:      id,
				Day:             in.Day,
				Time:            in.Time,
				MaxCapacity:     in.MaxCapacity,
				CurrentCapacity: 0,
			}
			if err := occurrences.Create(ctx, occ); err != nil {
				return err
			}
		}

		for occID := range byID {
			if !kept[occID] {
				if err := occurrences.Delete(ctx, occID); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Class updated: id %d", id)
	s.timetable.Refresh(ctx)
	return s.Get(ctx, id)
}

// Delete removes a class, its occurrences and their bookings
func (s *ClassService) Delete(ctx context.Context, id uint) error {
	if _, err := s.classRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClassNotFound
		}
		return err
	}

	if err := s.classRepo.Delete(ctx, id); err != nil {
		return err
	}

	log.Printf("✅ Class deleted: id %d", id)
	s.timetable.Refresh(ctx)
	return nil
}

// Get returns a class with its occurrences
func (s *ClassService) Get(ctx context.Context, id uint) (*models.GymClass, error) {
	class, err := s.classRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}
	return class, nil
}

// List returns every class with its occurrences
func (s *ClassService) List(ctx context.Context) ([]models.GymClass, error) {
	return s.classRepo.List(ctx)
}

// ListPaged returns a page of classes with pagination metadata
func (s *ClassService) ListPaged(ctx context.Context, params *pagination.Params) ([]models.GymClass, *pagination.Meta, error) {
	classes, total, err := s.classRepo.ListPaged(ctx, params.Offset, params.Limit)
	if err != nil {
		return nil, nil, err
	}
	return classes, pagination.GetMeta(params, total), nil
}

// ListOccurrences returns every occurrence with its class
func (s *ClassService) ListOccurrences(ctx context.Context) ([]models.Occurrence, error) {
	return s.occurrenceRepo.List(ctx)
}

// GetOccurrence returns a single occurrence
func (s *ClassService) GetOccurrence(ctx context.Context, id uint) (*models.Occurrence, error) {
	occ, err := s.occurrenceRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOccurrenceNotFound
		}
		return nil, err
	}
	return occ, nil
}
