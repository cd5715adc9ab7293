package services

import (
	"context"
	"log"

	"fitbook/internal/adapters/persistence/repositories"

	"github.com/robfig/cron/v3"
)

// CronService runs the nightly maintenance jobs: capacity reconciliation
// against live bookings and expired refresh token cleanup.
type CronService struct {
	ledger           *CapacityLedger
	refreshTokenRepo repositories.RefreshTokenRepository
	cron             *cron.Cron
}

// NewCronService creates a new cron service
func NewCronService(ledger *CapacityLedger, refreshTokenRepo repositories.RefreshTokenRepository) *CronService {
	return &CronService{
		ledger:           ledger,
		refreshTokenRepo: refreshTokenRepo,
		cron:             cron.New(),
	}
}

// Start registers and launches the scheduled jobs
func (s *CronService) Start() {
	// Reconcile occupancy counters at 03:00 every day
	s.cron.AddFunc("0 3 * * *", s.reconcileCapacities)

	// Purge expired and revoked refresh tokens at 03:30 every day
	s.cron.AddFunc("30 3 * * *", s.purgeRefreshTokens)

	s.cron.Start()
	log.Println("🚀 CronService started")
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("🛑 CronService stopped")
}

func (s *CronService) reconcileCapacities() {
	corrected, err := s.ledger.ReconcileAll(context.Background())
	if err != nil {
		log.Printf("❌ Capacity reconciliation error: %v", err)
		return
	}
	if corrected > 0 {
		log.Printf("✅ Capacity reconciliation corrected %d occurrences", corrected)
	}
}

func (s *CronService) purgeRefreshTokens() {
	deleted, err := s.refreshTokenRepo.DeleteExpired(context.Background())
	if err != nil {
		log.Printf("❌ Refresh token cleanup error: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("✅ Deleted %d expired refresh tokens", deleted)
	}
}
