package repositories

import (
	"context"
	"errors"

	"fitbook/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// Capacity errors surfaced by the occurrence repository's atomic seat
// operations. Services translate them into their own taxonomy.
var (
	ErrNoFreeSeat      = errors.New("occurrence has no free seat")
	ErrNoSeatToRelease = errors.New("occurrence capacity already at zero")
)

// ClassRepository defines gym class repository interface
type ClassRepository interface {
	WithTx(tx *gorm.DB) ClassRepository
	Create(ctx context.Context, class *models.GymClass) error
	GetByID(ctx context.Context, id uint) (*models.GymClass, error)
	GetByNameAndInstructor(ctx context.Context, name, instructor string) (*models.GymClass, error)
	List(ctx context.Context) ([]models.GymClass, error)
	ListPaged(ctx context.Context, offset, limit int) ([]models.GymClass, int64, error)
	Update(ctx context.Context, class *models.GymClass) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}

// OccurrenceRepository defines occurrence repository interface.
// ReserveSeat and ReleaseSeat are single conditional updates so the
// check-then-increment is one atomic statement, never two steps.
type OccurrenceRepository interface {
	WithTx(tx *gorm.DB) OccurrenceRepository
	Create(ctx context.Context, occ *models.Occurrence) error
	GetByID(ctx context.Context, id uint) (*models.Occurrence, error)
	GetByClassDayTime(ctx context.Context, classID uint, day, timeOfDay string) (*models.Occurrence, error)
	List(ctx context.Context) ([]models.Occurrence, error)
	ListByClass(ctx context.Context, classID uint) ([]models.Occurrence, error)
	Update(ctx context.Context, occ *models.Occurrence) error
	Delete(ctx context.Context, id uint) error
	ReserveSeat(ctx context.Context, id uint) (int, error)
	ReleaseSeat(ctx context.Context, id uint) (int, error)
	SetMaxCapacity(ctx context.Context, id uint, maxCapacity int) error
	ReconcileCapacity(ctx context.Context, id uint) (int, error)
	ListIDs(ctx context.Context) ([]uint, error)
}

// BookingRepository defines booking repository interface
type BookingRepository interface {
	WithTx(tx *gorm.DB) BookingRepository
	Create(ctx context.Context, booking *models.Booking) error
	GetLive(ctx context.Context, userID, occurrenceID uint) (*models.Booking, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Booking, error)
	Delete(ctx context.Context, id uint) error
	DeleteByUser(ctx context.Context, userID uint) error
	DeleteByOccurrence(ctx context.Context, occurrenceID uint) error
	CountByOccurrence(ctx context.Context, occurrenceID uint) (int64, error)
}

// UserRepository defines user repository interface
type UserRepository interface {
	WithTx(tx *gorm.DB) UserRepository
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, offset, limit int) ([]*models.User, int64, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Count(ctx context.Context) (int64, error)
}

// MemberRepository defines member repository interface
type MemberRepository interface {
	WithTx(tx *gorm.DB) MemberRepository
	Create(ctx context.Context, member *models.Member) error
	GetByUserID(ctx context.Context, userID uint) (*models.Member, error)
	GetByMembershipNumber(ctx context.Context, membershipNumber string) (*models.Member, error)
	Update(ctx context.Context, member *models.Member) error
	DeleteByUserID(ctx context.Context, userID uint) error
	ExistsByMembershipNumber(ctx context.Context, membershipNumber string) (bool, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) (int64, error)
}
