package services

import (
	"fmt"
	"strings"
	"testing"

	"fitbook/internal/adapters/persistence/models"
	"fitbook/internal/adapters/persistence/repositories"
	"fitbook/internal/pkg/password"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory database for one test. The DSN is
// derived from the test name so parallel tests never share state.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// newBookingStack wires a ledger and booking service over the test DB
func newBookingStack(db *gorm.DB) (*CapacityLedger, *BookingService) {
	occurrenceRepo := repositories.NewOccurrenceRepository(db)
	bookingRepo := repositories.NewBookingRepository(db)
	ledger := NewCapacityLedger(occurrenceRepo)
	return ledger, NewBookingService(db, bookingRepo, occurrenceRepo, ledger)
}

// seedClass creates a class with one occurrence and returns both
func seedClass(t *testing.T, db *gorm.DB, name, instructor, day, timeOfDay string, maxCapacity int) (*models.GymClass, *models.Occurrence) {
	t.Helper()

	class := &models.GymClass{
		Name:       name,
		Instructor: instructor,
		Occurrences: []models.Occurrence{
			{Day: day, Time: timeOfDay, MaxCapacity: maxCapacity},
		},
	}
	require.NoError(t, db.Create(class).Error)
	return class, &class.Occurrences[0]
}

// seedUser creates an active user account
func seedUser(t *testing.T, db *gorm.DB, username, role string) *models.User {
	t.Helper()

	hash, err := password.Hash("password123")
	require.NoError(t, err)

	user := &models.User{
		Username: username,
		Password: hash,
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// capacityOf reads the stored occupancy of an occurrence
func capacityOf(t *testing.T, db *gorm.DB, occurrenceID uint) int {
	t.Helper()

	var occ models.Occurrence
	require.NoError(t, db.First(&occ, occurrenceID).Error)
	return occ.CurrentCapacity
}
