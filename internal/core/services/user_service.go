package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"fitbook/internal/adapters/persistence/models"
	"fitbook/internal/adapters/persistence/repositories"
	"fitbook/internal/core/domain"
	"fitbook/internal/pkg/pagination"
	"fitbook/internal/pkg/password"

	"gorm.io/gorm"
)

// User management errors
var (
	ErrUsernameTaken         = errors.New("username already taken")
	ErrMembershipNumberTaken = errors.New("membership number already taken")
	ErrInvalidDate           = errors.New("date must be in DD/MM/YYYY format")
	ErrWeakPassword          = errors.New("password must be at least 8 characters")
	ErrCannotDeleteSelf      = errors.New("cannot delete your own account")
	ErrMemberNotFound        = errors.New("member profile not found")
)

// UserService handles admin provisioning of accounts and their member
// profiles. Account plus profile are created and deleted as one unit.
type UserService struct {
	db         *gorm.DB
	userRepo   repositories.UserRepository
	memberRepo repositories.MemberRepository
}

// NewUserService creates a new user service
func NewUserService(db *gorm.DB, userRepo repositories.UserRepository, memberRepo repositories.MemberRepository) *UserService {
	return &UserService{
		db:         db,
		userRepo:   userRepo,
		memberRepo: memberRepo,
	}
}

// CreateUserInput represents admin user creation input.
// Dates come in DD/MM/YYYY like the frontend sends them.
type CreateUserInput struct {
	Username         string `json:"username" validate:"required,min=3,max=50"`
	Password         string `json:"password" validate:"required,min=8"`
	Name             string `json:"name" validate:"required,max=100"`
	MembershipNumber string `json:"membership_number" validate:"required,max=20"`
	DateOfBirth      string `json:"date_of_birth" validate:"required"`
	MemberSince      string `json:"member_since" validate:"required"`
	IsAdmin          bool   `json:"is_admin"`
}

// UpdateUserInput represents admin user update input.
// Password is optional; empty means keep the current one.
type UpdateUserInput struct {
	Username         string `json:"username" validate:"required,min=3,max=50"`
	Password         string `json:"password"`
	Name             string `json:"name" validate:"required,max=100"`
	MembershipNumber string `json:"membership_number" validate:"required,max=20"`
	DateOfBirth      string `json:"date_of_birth" validate:"required"`
	MemberSince      string `json:"member_since" validate:"required"`
	IsAdmin          bool   `json:"is_admin"`
}

// Create provisions a user account with its member profile
func (s *UserService) Create(ctx context.Context, input *CreateUserInput) (*models.User, error) {
	dateOfBirth, err := time.Parse(models.DateLayout, input.DateOfBirth)
	if err != nil {
		return nil, ErrInvalidDate
	}
	memberSince, err := time.Parse(models.DateLayout, input.MemberSince)
	if err != nil {
		return nil, ErrInvalidDate
	}

	if !password.Validate(input.Password) {
		return nil, ErrWeakPassword
	}

	exists, err := s.userRepo.ExistsByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUsernameTaken
	}

	exists, err = s.memberRepo.ExistsByMembershipNumber(ctx, input.MembershipNumber)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrMembershipNumberTaken
	}

	hashedPassword, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username: input.Username,
		Password: hashedPassword,
		Role:     roleFor(input.IsAdmin),
		IsActive: true,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.WithTx(tx).Create(ctx, user); err != nil {
			return mapDuplicateKey(err)
		}

		member := &models.Member{
			UserID:           user.ID,
			Name:             input.Name,
			Username:         input.Username,
			MembershipNumber: input.MembershipNumber,
			DateOfBirth:      dateOfBirth,
			MemberSince:      memberSince,
		}
		if err := s.memberRepo.WithTx(tx).Create(ctx, member); err != nil {
			return mapDuplicateKey(err)
		}

		user.Member = member
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ User created: %s (%s)", user.Username, user.Member.MembershipNumber)
	return user, nil
}

// Update rewrites a user account and its member profile
func (s *UserService) Update(ctx context.Context, id uint, input *UpdateUserInput) (*models.User, error) {
	dateOfBirth, err := time.Parse(models.DateLayout, input.DateOfBirth)
	if err != nil {
		return nil, ErrInvalidDate
	}
	memberSince, err := time.Parse(models.DateLayout, input.MemberSince)
	if err != nil {
		return nil, ErrInvalidDate
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	member, err := s.memberRepo.GetByUserID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}

	if input.Username != user.Username {
		exists, err := s.userRepo.ExistsByUsername(ctx, input.Username)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrUsernameTaken
		}
	}

	if input.MembershipNumber != member.MembershipNumber {
		exists, err := s.memberRepo.ExistsByMembershipNumber(ctx, input.MembershipNumber)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrMembershipNumberTaken
		}
	}

	user.Username = input.Username
	user.Role = roleFor(input.IsAdmin)
	if input.Password != "" {
		if !password.Validate(input.Password) {
			return nil, ErrWeakPassword
		}
		hashed, err := password.Hash(input.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hashed
	}

	member.Name = input.Name
	member.Username = input.Username
	member.MembershipNumber = input.MembershipNumber
	member.DateOfBirth = dateOfBirth
	member.MemberSince = memberSince

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.WithTx(tx).Update(ctx, user); err != nil {
			return mapDuplicateKey(err)
		}
		return mapDuplicateKey(s.memberRepo.WithTx(tx).Update(ctx, member))
	})
	if err != nil {
		return nil, err
	}

	user.Member = member
	log.Printf("✅ User updated: %s", user.Username)
	return user, nil
}

// Delete removes a user with their member profile, bookings and sessions.
// An admin cannot delete the account they are logged in with.
func (s *UserService) Delete(ctx context.Context, id, actorID uint) error {
	if id == actorID {
		return ErrCannotDeleteSelf
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}

	log.Printf("✅ User deleted: %s", user.Username)
	return nil
}

// Get returns a user with their member profile
func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if member, _ := s.memberRepo.GetByUserID(ctx, id); member != nil {
		user.Member = member
	}
	return user, nil
}

// List returns a page of users with their member profiles
func (s *UserService) List(ctx context.Context, params *pagination.Params) ([]*models.UserResponse, *pagination.Meta, error) {
	users, total, err := s.userRepo.List(ctx, params.Offset, params.Limit)
	if err != nil {
		return nil, nil, err
	}

	responses := make([]*models.UserResponse, len(users))
	for i := range users {
		responses[i] = users[i].ToResponse()
	}
	return responses, pagination.GetMeta(params, total), nil
}

// GetMember returns the member profile of a user
func (s *UserService) GetMember(ctx context.Context, userID uint) (*models.Member, error) {
	member, err := s.memberRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return member, nil
}

// mapDuplicateKey translates a unique-constraint violation from the write
// into the matching business error. The existence checks catch most
// duplicates up front; this covers a racing insert between check and write,
// which would otherwise surface as a raw storage error.
func mapDuplicateKey(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if !errors.Is(err, gorm.ErrDuplicatedKey) &&
		!strings.Contains(msg, "UNIQUE constraint failed") &&
		!strings.Contains(msg, "Duplicate entry") {
		return err
	}
	if strings.Contains(msg, "membership_number") {
		return ErrMembershipNumberTaken
	}
	return ErrUsernameTaken
}

func roleFor(isAdmin bool) string {
	if isAdmin {
		return string(domain.RoleAdmin)
	}
	return string(domain.RoleMember)
}
