package repositories

import (
	"context"

	"fitbook/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// memberRepository implements MemberRepository interface
type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

// WithTx returns the repository bound to an in-flight transaction
func (r *memberRepository) WithTx(tx *gorm.DB) MemberRepository {
	return &memberRepository{db: tx}
}

// Create creates a new member profile
func (r *memberRepository) Create(ctx context.Context, member *models.Member) error {
	return r.db.WithContext(ctx).Create(member).Error
}

// GetByUserID gets the member profile for a user
func (r *memberRepository) GetByUserID(ctx context.Context, userID uint) (*models.Member, error) {
	var member models.Member
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// GetByMembershipNumber gets a member by membership number
func (r *memberRepository) GetByMembershipNumber(ctx context.Context, membershipNumber string) (*models.Member, error) {
	var member models.Member
	err := r.db.WithContext(ctx).Where("membership_number = ?", membershipNumber).First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// Update updates a member profile
func (r *memberRepository) Update(ctx context.Context, member *models.Member) error {
	return r.db.WithContext(ctx).Model(&models.Member{}).
		Where("id = ?", member.ID).
		Updates(map[string]interface{}{
			"name":              member.Name,
			"username":          member.Username,
			"membership_number": member.MembershipNumber,
			"date_of_birth":     member.DateOfBirth,
			"member_since":      member.MemberSince,
		}).Error
}

// DeleteByUserID deletes the member profile of a user
func (r *memberRepository) DeleteByUserID(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Member{}).Error
}

// ExistsByMembershipNumber checks if a membership number is taken
func (r *memberRepository) ExistsByMembershipNumber(ctx context.Context, membershipNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Member{}).
		Where("membership_number = ?", membershipNumber).
		Count(&count).Error
	return count > 0, err
}
