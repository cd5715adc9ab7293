package services

import (
	"context"
	"testing"

	"fitbook/internal/adapters/persistence/models"
	"fitbook/internal/adapters/persistence/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserveUntilFull(t *testing.T) {
	db := newTestDB(t)
	ledger := NewCapacityLedger(repositories.NewOccurrenceRepository(db))
	_, occ := seedClass(t, db, "Spin", "Maria", "Monday", "07:00", 2)
	ctx := context.Background()

	current, err := ledger.Reserve(ctx, occ.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, current)

	current, err = ledger.Reserve(ctx, occ.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, current)

	_, err = ledger.Reserve(ctx, occ.ID)
	assert.ErrorIs(t, err, ErrClassFull)
	assert.Equal(t, 2, capacityOf(t, db, occ.ID))
}

func TestReserveMissingOccurrence(t *testing.T) {
	db := newTestDB(t)
	ledger := NewCapacityLedger(repositories.NewOccurrenceRepository(db))

	_, err := ledger.Reserve(context.Background(), 999)
	assert.ErrorIs(t, err, ErrOccurrenceNotFound)
}

func TestReleaseAndUnderflow(t *testing.T) {
	db := newTestDB(t)
	ledger := NewCapacityLedger(repositories.NewOccurrenceRepository(db))
	_, occ := seedClass(t, db, "Yoga", "Priya", "Tuesday", "06:30", 5)
	ctx := context.Background()

	_, err := ledger.Reserve(ctx, occ.ID)
	require.NoError(t, err)

	current, err := ledger.Release(ctx, occ.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, current)

	// Counter is at zero; a further release is an underflow and must clamp
	current, err = ledger.Release(ctx, occ.ID)
	assert.ErrorIs(t, err, ErrCapacityUnderflow)
	assert.Equal(t, 0, current)
	assert.Equal(t, 0, capacityOf(t, db, occ.ID))
}

func TestSetMaxCapacity(t *testing.T) {
	db := newTestDB(t)
	ledger := NewCapacityLedger(repositories.NewOccurrenceRepository(db))
	_, occ := seedClass(t, db, "Boxing", "Dan", "Monday", "19:30", 12)
	ctx := context.Background()

	require.NoError(t, ledger.SetMaxCapacity(ctx, occ.ID, 8))

	var stored models.Occurrence
	require.NoError(t, db.First(&stored, occ.ID).Error)
	assert.Equal(t, 8, stored.MaxCapacity)

	assert.ErrorIs(t, ledger.SetMaxCapacity(ctx, occ.ID, 0), ErrInvalidCapacity)
	assert.ErrorIs(t, ledger.SetMaxCapacity(ctx, occ.ID, -3), ErrInvalidCapacity)
	assert.ErrorIs(t, ledger.SetMaxCapacity(ctx, 999, 5), ErrOccurrenceNotFound)
}

func TestSetMaxCapacityBelowOccupancy(t *testing.T) {
	db := newTestDB(t)
	ledger := NewCapacityLedger(repositories.NewOccurrenceRepository(db))
	_, occ := seedClass(t, db, "HIIT", "Sofia", "Wednesday", "06:00", 5)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := ledger.Reserve(ctx, occ.ID)
		require.NoError(t, err)
	}

	// Lowering below occupancy is allowed; the occurrence stays
	// over-subscribed and rejects new reservations.
	require.NoError(t, ledger.SetMaxCapacity(ctx, occ.ID, 2))

	_, err := ledger.Reserve(ctx, occ.ID)
	assert.ErrorIs(t, err, ErrClassFull)
	assert.Equal(t, 3, capacityOf(t, db, occ.ID))

	// Releases still work and bring occupancy back under the new limit
	current, err := ledger.Release(ctx, occ.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, current)
}

func TestReconcileRepairsDrift(t *testing.T) {
	db := newTestDB(t)
	ledger := NewCapacityLedger(repositories.NewOccurrenceRepository(db))
	_, occ := seedClass(t, db, "Pilates", "Emma", "Thursday", "07:30", 10)
	user1 := seedUser(t, db, "alice", "MEMBER")
	user2 := seedUser(t, db, "bob", "MEMBER")
	ctx := context.Background()

	require.NoError(t, db.Create(&models.Booking{UserID: user1.ID, OccurrenceID: occ.ID}).Error)
	require.NoError(t, db.Create(&models.Booking{UserID: user2.ID, OccurrenceID: occ.ID}).Error)

	// Simulate drift: counter says 5, live bookings say 2
	require.NoError(t, db.Model(&models.Occurrence{}).Where("id = ?", occ.ID).
		UpdateColumn("current_capacity", 5).Error)

	current, err := ledger.Reconcile(ctx, occ.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, current)
	assert.Equal(t, 2, capacityOf(t, db, occ.ID))
}

func TestReconcileAll(t *testing.T) {
	db := newTestDB(t)
	ledger := NewCapacityLedger(repositories.NewOccurrenceRepository(db))
	_, occ1 := seedClass(t, db, "Spin", "Maria", "Monday", "07:00", 10)
	_, occ2 := seedClass(t, db, "Yoga", "Priya", "Tuesday", "06:30", 10)
	ctx := context.Background()

	// occ1 drifts, occ2 is already consistent at zero
	require.NoError(t, db.Model(&models.Occurrence{}).Where("id = ?", occ1.ID).
		UpdateColumn("current_capacity", 4).Error)

	corrected, err := ledger.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, corrected)
	assert.Equal(t, 0, capacityOf(t, db, occ1.ID))
	assert.Equal(t, 0, capacityOf(t, db, occ2.ID))
}
