package config

import (
	"context"
	"log"
	"time"

	"fitbook/internal/adapters/persistence/models"
	"fitbook/internal/pkg/password"

	"gorm.io/gorm"
)

// TimetableImporter seeds classes and occurrences from the timetable file
type TimetableImporter interface {
	ImportFromFile(ctx context.Context) error
}

// Seeder handles first-run database seeding
type Seeder struct {
	db        *gorm.DB
	cfg       *Config
	timetable TimetableImporter
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, cfg *Config, timetable TimetableImporter) *Seeder {
	return &Seeder{db: db, cfg: cfg, timetable: timetable}
}

// Run executes all seeders. Each step only fires on an empty table, so
// restarting the server never duplicates or resets anything.
func (s *Seeder) Run(ctx context.Context) error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedTimetable(ctx); err != nil {
		log.Printf("⚠️ Timetable seeder skipped: %v", err)
	}

	if err := s.seedAdminUser(); err != nil {
		log.Printf("⚠️ Admin seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedTimetable imports the timetable file when no classes exist yet
func (s *Seeder) seedTimetable(ctx context.Context) error {
	var count int64
	if err := s.db.Model(&models.GymClass{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil // Classes already present
	}

	return s.timetable.ImportFromFile(ctx)
}

// seedAdminUser creates the default admin account on an empty users table.
// The password comes from SEED_ADMIN_PASSWORD and should be changed after
// first login.
func (s *Seeder) seedAdminUser() error {
	var count int64
	if err := s.db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil // Users already present
	}

	hashedPassword, err := password.Hash(s.cfg.Seed.AdminPassword)
	if err != nil {
		return err
	}

	admin := &models.User{
		Username: s.cfg.Seed.AdminUsername,
		Password: hashedPassword,
		Role:     "ADMIN",
		IsActive: true,
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(admin).Error; err != nil {
			return err
		}

		member := &models.Member{
			UserID:           admin.ID,
			Name:             "Administrator",
			Username:         admin.Username,
			MembershipNumber: "MEM001",
			DateOfBirth:      time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC),
			MemberSince:      time.Now().UTC(),
		}
		if err := tx.Create(member).Error; err != nil {
			return err
		}

		log.Printf("✅ Admin user created: %s", admin.Username)
		return nil
	})
}
