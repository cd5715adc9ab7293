package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"

	"fitbook/internal/adapters/persistence/models"
	"fitbook/internal/adapters/persistence/repositories"
	"fitbook/internal/core/domain"

	"gorm.io/gorm"
)

// TimetableService projects the class/occurrence graph to the external
// timetable snapshot and seeds the store from it. Export is a one-way
// Store -> document sync run after admin class mutations; Import is an
// idempotent document -> Store upsert used at first-run seeding.
type TimetableService struct {
	db             *gorm.DB
	classRepo      repositories.ClassRepository
	occurrenceRepo repositories.OccurrenceRepository
	path           string
}

// NewTimetableService creates a new timetable service
func NewTimetableService(
	db *gorm.DB,
	classRepo repositories.ClassRepository,
	occurrenceRepo repositories.OccurrenceRepository,
	path string,
) *TimetableService {
	return &TimetableService{
		db:             db,
		classRepo:      classRepo,
		occurrenceRepo: occurrenceRepo,
		path:           path,
	}
}

// Export returns the full timetable snapshot. No side effects.
func (s *TimetableService) Export(ctx context.Context) (domain.Timetable, error) {
	classes, err := s.classRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	timetable := make(domain.Timetable, 0, len(classes))
	for _, class := range classes {
		entry := domain.TimetableClass{
			Name:        class.Name,
			Instructor:  class.Instructor,
			Occurrences: make([]domain.TimetableOccurrence, 0, len(class.Occurrences)),
		}
		for _, occ := range class.Occurrences {
			entry.Occurrences = append(entry.Occurrences, domain.TimetableOccurrence{
				Day:             occ.Day,
				Time:            occ.Time,
				MaxCapacity:     occ.MaxCapacity,
				CurrentCapacity: occ.CurrentCapacity,
			})
		}
		timetable = append(timetable, entry)
	}
	return timetable, nil
}

// ExportToFile writes the snapshot to the configured timetable file
func (s *TimetableService) ExportToFile(ctx context.Context) error {
	timetable, err := s.Export(ctx)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(timetable, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0644)
}

// Refresh rewrites the timetable file after an admin mutation. Failures
// are logged, not surfaced: the store already committed and the snapshot
// catches up on the next mutation.
func (s *TimetableService) Refresh(ctx context.Context) {
	if err := s.ExportToFile(ctx); err != nil {
		log.Printf("⚠️ Failed to refresh timetable snapshot: %v", err)
	}
}

// Import upserts the snapshot into the store: classes are keyed by
// (name, instructor), occurrences by (day, time) under their class. An
// existing occurrence is left untouched, so re-running an import never
// resets live current_capacity.
func (s *TimetableService) Import(ctx context.Context, timetable domain.Timetable) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		classes := s.classRepo.WithTx(tx)
		occurrences := s.occurrenceRepo.WithTx(tx)

		for _, entry := range timetable {
			class, err := classes.GetByNameAndInstructor(ctx, entry.Name, entry.Instructor)
			if err != nil {
				return err
			}
			if class == nil {
				class = &models.GymClass{
					Name:       entry.Name,
					Instructor: entry.Instructor,
				}
				if err := classes.Create(ctx, class); err != nil {
					return err
				}
			}

			for _, occEntry := range entry.Occurrences {
				existing, err := occurrences.GetByClassDayTime(ctx, class.ID, occEntry.Day, occEntry.Time)
				if err != nil {
					return err
				}
				if existing != nil {
					continue
				}

				occ := &models.Occurrence{
					GymClassID:      class.ID,
					Day:             occEntry.Day,
					Time:            occEntry.Time,
					MaxCapacity:     occEntry.MaxCapacity,
					CurrentCapacity: occEntry.CurrentCapacity,
				}
				if err := occurrences.Create(ctx, occ); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// ImportFromFile seeds the store from the timetable file. A missing file
// is not an error; there is simply nothing to seed from.
func (s *TimetableService) ImportFromFile(ctx context.Context) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("⚠️ Timetable file %s not found, skipping seed", s.path)
			return nil
		}
		return err
	}

	var timetable domain.Timetable
	if err := json.Unmarshal(data, &timetable); err != nil {
		return err
	}

	if err := s.Import(ctx, timetable); err != nil {
		return err
	}

	log.Printf("✅ Timetable seeded from %s (%d classes)", s.path, len(timetable))
	return nil
}
