package services

import (
	"context"
	"testing"

	"fitbook/internal/adapters/persistence/models"
	"fitbook/internal/adapters/persistence/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newClassService(t *testing.T, db *gorm.DB) *ClassService {
	t.Helper()
	return NewClassService(
		db,
		repositories.NewClassRepository(db),
		repositories.NewOccurrenceRepository(db),
		newTimetableService(t, db),
	)
}

func TestCreateClass(t *testing.T) {
	db := newTestDB(t)
	svc := newClassService(t, db)

	class, err := svc.Create(context.Background(), &ClassInput{
		Name:       "Spin",
		Instructor: "Maria",
		Occurrences: []OccurrenceInput{
			{Day: "Monday", Time: "07:00", MaxCapacity: 20},
			{Day: "Wednesday", Time: "18:30", MaxCapacity: 20},
		},
	})
	require.NoError(t, err)
	require.Len(t, class.Occurrences, 2)
	assert.Equal(t, 0, class.Occurrences[0].CurrentCapacity)
	assert.Equal(t, 0, class.Occurrences[1].CurrentCapacity)
}

func TestUpdateClassSyncsOccurrences(t *testing.T) {
	db := newTestDB(t)
	svc := newClassService(t, db)
	_, bookingSvc := newBookingStack(db)
	user := seedUser(t, db, "alice", "MEMBER")
	ctx := context.Background()

	class, err := svc.Create(ctx, &ClassInput{
		Name:       "Yoga",
		Instructor: "Priya",
		Occurrences: []OccurrenceInput{
			{Day: "Tuesday", Time: "06:30", MaxCapacity: 15},
			{Day: "Thursday", Time: "19:00", MaxCapacity: 15},
		},
	})
	require.NoError(t, err)
	keptID := class.Occurrences[0].ID
	droppedID := class.Occurrences[1].ID

	// Book the slot that will survive the update
	_, err = bookingSvc.Schedule(ctx, user.ID, keptID)
	require.NoError(t, err)

	// Update: keep the first slot at a new time, drop the second, add one
	updated, err := svc.Update(ctx, class.ID, &ClassInput{
		Name:       "Yoga Flow",
		Instructor: "Priya",
		Occurrences: []OccurrenceInput{
			{ID: keptID, Day: "Tuesday", Time: "07:00", MaxCapacity: 18},
			{Day: "Saturday", Time: "09:00", MaxCapacity: 25},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Yoga Flow", updated.Name)
	require.Len(t, updated.Occurrences, 2)

	// The kept slot keeps its live occupancy under the new schedule
	kept, err := repositories.NewOccurrenceRepository(db).GetByID(ctx, keptID)
	require.NoError(t, err)
	assert.Equal(t, "07:00", kept.Time)
	assert.Equal(t, 18, kept.MaxCapacity)
	assert.Equal(t, 1, kept.CurrentCapacity)

	// The dropped slot is gone together with its bookings
	var occCount int64
	require.NoError(t, db.Model(&models.Occurrence{}).Where("id = ?", droppedID).Count(&occCount).Error)
	assert.Equal(t, int64(0), occCount)
}

func TestUpdateClassRemovesDroppedSlotBookings(t *testing.T) {
	db := newTestDB(t)
	svc := newClassService(t, db)
	_, bookingSvc := newBookingStack(db)
	user := seedUser(t, db, "alice", "MEMBER")
	ctx := context.Background()

	class, err := svc.Create(ctx, &ClassInput{
		Name:       "Boxing",
		Instructor: "Dan",
		Occurrences: []OccurrenceInput{
			{Day: "Monday", Time: "19:30", MaxCapacity: 12},
			{Day: "Friday", Time: "17:30", MaxCapacity: 12},
		},
	})
	require.NoError(t, err)
	droppedID := class.Occurrences[1].ID

	_, err = bookingSvc.Schedule(ctx, user.ID, droppedID)
	require.NoError(t, err)

	_, err = svc.Update(ctx, class.ID, &ClassInput{
		Name:       "Boxing",
		Instructor: "Dan",
		Occurrences: []OccurrenceInput{
			{ID: class.Occurrences[0].ID, Day: "Monday", Time: "19:30", MaxCapacity: 12},
		},
	})
	require.NoError(t, err)

	var bookingCount int64
	require.NoError(t, db.Model(&models.Booking{}).Where("occurrence_id = ?", droppedID).Count(&bookingCount).Error)
	assert.Equal(t, int64(0), bookingCount)
}

func TestUpdateMissingClass(t *testing.T) {
	db := newTestDB(t)
	svc := newClassService(t, db)

	_, err := svc.Update(context.Background(), 999, &ClassInput{
		Name:       "Ghost",
		Instructor: "Nobody",
		Occurrences: []OccurrenceInput{
			{Day: "Monday", Time: "10:00", MaxCapacity: 5},
		},
	})
	assert.ErrorIs(t, err, ErrClassNotFound)
}

func TestUpdateRejectsForeignOccurrenceID(t *testing.T) {
	db := newTestDB(t)
	svc := newClassService(t, db)
	ctx := context.Background()

	classA, err := svc.Create(ctx, &ClassInput{
		Name:       "Spin",
		Instructor: "Maria",
		Occurrences: []OccurrenceInput{
			{Day: "Monday", Time: "07:00", MaxCapacity: 20},
		},
	})
	require.NoError(t, err)

	classB, err := svc.Create(ctx, &ClassInput{
		Name:       "Yoga",
		Instructor: "Priya",
		Occurrences: []OccurrenceInput{
			{Day: "Tuesday", Time: "06:30", MaxCapacity: 15},
		},
	})
	require.NoError(t, err)

	// Referencing another class's occurrence must fail
	_, err = svc.Update(ctx, classA.ID, &ClassInput{
		Name:       "Spin",
		Instructor: "Maria",
		Occurrences: []OccurrenceInput{
			{ID: classB.Occurrences[0].ID, Day: "Monday", Time: "07:00", MaxCapacity: 20},
		},
	})
	assert.ErrorIs(t, err, ErrOccurrenceNotFound)
}

func TestDeleteClassCascades(t *testing.T) {
	db := newTestDB(t)
	svc := newClassService(t, db)
	_, bookingSvc := newBookingStack(db)
	user := seedUser(t, db, "alice", "MEMBER")
	ctx := context.Background()

	class, err := svc.Create(ctx, &ClassInput{
		Name:       "HIIT",
		Instructor: "Sofia",
		Occurrences: []OccurrenceInput{
			{Day: "Wednesday", Time: "06:00", MaxCapacity: 18},
		},
	})
	require.NoError(t, err)

	_, err = bookingSvc.Schedule(ctx, user.ID, class.Occurrences[0].ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, class.ID))

	var classes, occs, bookings int64
	require.NoError(t, db.Model(&models.GymClass{}).Count(&classes).Error)
	require.NoError(t, db.Model(&models.Occurrence{}).Count(&occs).Error)
	require.NoError(t, db.Model(&models.Booking{}).Count(&bookings).Error)
	assert.Equal(t, int64(0), classes)
	assert.Equal(t, int64(0), occs)
	assert.Equal(t, int64(0), bookings)

	assert.ErrorIs(t, svc.Delete(ctx, class.ID), ErrClassNotFound)
}

func TestClassMutationsRefreshTimetableFile(t *testing.T) {
	db := newTestDB(t)
	timetable := newTimetableService(t, db)
	svc := NewClassService(
		db,
		repositories.NewClassRepository(db),
		repositories.NewOccurrenceRepository(db),
		timetable,
	)
	ctx := context.Background()

	_, err := svc.Create(ctx, &ClassInput{
		Name:       "Pilates",
		Instructor: "Emma",
		Occurrences: []OccurrenceInput{
			{Day: "Thursday", Time: "07:30", MaxCapacity: 14},
		},
	})
	require.NoError(t, err)

	exported, err := timetable.Export(ctx)
	require.NoError(t, err)
	require.Len(t, exported, 1)

	// The snapshot file was rewritten by the mutation
	doc, err := readTimetableFile(t, timetable.path)
	require.NoError(t, err)
	require.Len(t, doc, 1)
	assert.Equal(t, "Pilates", doc[0].Name)
}
