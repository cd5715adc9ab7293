package services

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"fitbook/internal/adapters/persistence/models"
	"fitbook/internal/adapters/persistence/repositories"
	"fitbook/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTimetableService(t *testing.T, db *gorm.DB) *TimetableService {
	t.Helper()
	path := filepath.Join(t.TempDir(), "timetable.json")
	return NewTimetableService(
		db,
		repositories.NewClassRepository(db),
		repositories.NewOccurrenceRepository(db),
		path,
	)
}

func readTimetableFile(t *testing.T, path string) (domain.Timetable, error) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc domain.Timetable
	err = json.Unmarshal(data, &doc)
	return doc, err
}

func TestExportShape(t *testing.T) {
	db := newTestDB(t)
	svc := newTimetableService(t, db)
	_, occ := seedClass(t, db, "Spin", "Maria", "Monday", "07:00", 20)
	ctx := context.Background()

	require.NoError(t, db.Model(&models.Occurrence{}).Where("id = ?", occ.ID).
		UpdateColumn("current_capacity", 3).Error)

	timetable, err := svc.Export(ctx)
	require.NoError(t, err)
	require.Len(t, timetable, 1)

	assert.Equal(t, "Spin", timetable[0].Name)
	assert.Equal(t, "Maria", timetable[0].Instructor)
	require.Len(t, timetable[0].Occurrences, 1)
	assert.Equal(t, domain.TimetableOccurrence{
		Day:             "Monday",
		Time:            "07:00",
		MaxCapacity:     20,
		CurrentCapacity: 3,
	}, timetable[0].Occurrences[0])
}

func TestExportToFileAndImportRoundTrip(t *testing.T) {
	db := newTestDB(t)
	svc := newTimetableService(t, db)
	seedClass(t, db, "Yoga", "Priya", "Tuesday", "06:30", 15)
	ctx := context.Background()

	require.NoError(t, svc.ExportToFile(ctx))

	data, err := os.ReadFile(svc.path)
	require.NoError(t, err)

	var doc domain.Timetable
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc, 1)
	assert.Equal(t, "Yoga", doc[0].Name)

	// Importing the exported document into a fresh store reproduces it
	db2 := newTestDB(t)
	svc2 := newTimetableService(t, db2)
	require.NoError(t, svc2.Import(ctx, doc))

	exported, err := svc2.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, doc, exported)
}

func TestImportIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := newTimetableService(t, db)
	ctx := context.Background()

	doc := domain.Timetable{
		{
			Name:       "Boxing",
			Instructor: "Dan",
			Occurrences: []domain.TimetableOccurrence{
				{Day: "Monday", Time: "19:30", MaxCapacity: 12},
				{Day: "Friday", Time: "17:30", MaxCapacity: 12},
			},
		},
	}

	require.NoError(t, svc.Import(ctx, doc))
	require.NoError(t, svc.Import(ctx, doc))

	var classCount, occCount int64
	require.NoError(t, db.Model(&models.GymClass{}).Count(&classCount).Error)
	require.NoError(t, db.Model(&models.Occurrence{}).Count(&occCount).Error)
	assert.Equal(t, int64(1), classCount)
	assert.Equal(t, int64(2), occCount)
}

func TestImportPreservesLiveCapacity(t *testing.T) {
	db := newTestDB(t)
	svc := newTimetableService(t, db)
	_, occ := seedClass(t, db, "HIIT", "Sofia", "Wednesday", "06:00", 18)
	ctx := context.Background()

	require.NoError(t, db.Model(&models.Occurrence{}).Where("id = ?", occ.ID).
		UpdateColumn("current_capacity", 7).Error)

	// The document claims zero occupancy; a re-import must not reset the
	// live counter.
	doc := domain.Timetable{
		{
			Name:       "HIIT",
			Instructor: "Sofia",
			Occurrences: []domain.TimetableOccurrence{
				{Day: "Wednesday", Time: "06:00", MaxCapacity: 18, CurrentCapacity: 0},
			},
		},
	}
	require.NoError(t, svc.Import(ctx, doc))

	assert.Equal(t, 7, capacityOf(t, db, occ.ID))
}

func TestImportAddsNewOccurrenceToExistingClass(t *testing.T) {
	db := newTestDB(t)
	svc := newTimetableService(t, db)
	class, _ := seedClass(t, db, "Spin", "Maria", "Monday", "07:00", 20)
	ctx := context.Background()

	doc := domain.Timetable{
		{
			Name:       "Spin",
			Instructor: "Maria",
			Occurrences: []domain.TimetableOccurrence{
				{Day: "Monday", Time: "07:00", MaxCapacity: 20},
				{Day: "Wednesday", Time: "18:30", MaxCapacity: 20},
			},
		},
	}
	require.NoError(t, svc.Import(ctx, doc))

	var occs []models.Occurrence
	require.NoError(t, db.Where("gym_class_id = ?", class.ID).Order("id ASC").Find(&occs).Error)
	require.Len(t, occs, 2)
	assert.Equal(t, "Wednesday", occs[1].Day)
}

func TestImportFromMissingFile(t *testing.T) {
	db := newTestDB(t)
	svc := newTimetableService(t, db)

	// A missing file is not an error, there is just nothing to seed
	require.NoError(t, svc.ImportFromFile(context.Background()))

	var count int64
	require.NoError(t, db.Model(&models.GymClass{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}
