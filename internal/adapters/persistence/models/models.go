package models

import (
	"time"

	"gorm.io/gorm"
)

// DateLayout is the wire format for member dates (DD/MM/YYYY),
// kept for compatibility with the existing admin frontend.
const DateLayout = "02/01/2006"

// ============================================================
// Timetable Tables
// ============================================================

// GymClass represents gym_classes table
type GymClass struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:100;not null;index" json:"name"`
	Instructor string    `gorm:"size:100" json:"instructor"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Occurrences []Occurrence `gorm:"foreignKey:GymClassID;constraint:OnDelete:CASCADE" json:"occurrences,omitempty"`
}

func (GymClass) TableName() string {
	return "gym_classes"
}

// Occurrence represents occurrences table. CurrentCapacity is the single
// source of truth for occupancy and is only mutated through the capacity
// ledger or an admin max-capacity edit.
type Occurrence struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	GymClassID      uint      `gorm:"not null;index" json:"gym_class_id"`
	Day             string    `gorm:"size:10;not null" json:"day"`
	Time            string    `gorm:"size:5;not null" json:"time"`
	MaxCapacity     int       `gorm:"not null" json:"max_capacity"`
	CurrentCapacity int       `gorm:"not null;default:0" json:"current_capacity"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	GymClass *GymClass `gorm:"foreignKey:GymClassID" json:"gym_class,omitempty"`
	Bookings []Booking `gorm:"foreignKey:OccurrenceID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Occurrence) TableName() string {
	return "occurrences"
}

// HasFreeSeat reports whether the occurrence can take another booking.
func (o *Occurrence) HasFreeSeat() bool {
	return o.CurrentCapacity < o.MaxCapacity
}

// ============================================================
// Account & Member Tables
// ============================================================

// User represents users table (credential holder)
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Role      string    `gorm:"size:20;default:'MEMBER'" json:"role"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations (exactly one member per account)
	Member *Member `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"member,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == "ADMIN"
}

// UserResponse DTO
type UserResponse struct {
	ID               uint      `json:"id"`
	Username         string    `json:"username"`
	Role             string    `json:"role"`
	IsAdmin          bool      `json:"is_admin"`
	IsActive         bool      `json:"is_active"`
	Name             string    `json:"name,omitempty"`
	MembershipNumber string    `json:"membership_number,omitempty"`
	DateOfBirth      string    `json:"date_of_birth,omitempty"`
	MemberSince      string    `json:"member_since,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	resp := &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Role:      u.Role,
		IsAdmin:   u.IsAdmin(),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}

	if u.Member != nil {
		resp.Name = u.Member.Name
		resp.MembershipNumber = u.Member.MembershipNumber
		resp.DateOfBirth = u.Member.DateOfBirth.Format(DateLayout)
		resp.MemberSince = u.Member.MemberSince.Format(DateLayout)
	}

	return resp
}

// Member represents members table (profile record, 1:1 with users)
type Member struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Name             string    `gorm:"size:100;not null" json:"name"`
	Username         string    `gorm:"uniqueIndex;size:50;not null" json:"username"`
	MembershipNumber string    `gorm:"uniqueIndex;size:20;not null" json:"membership_number"`
	DateOfBirth      time.Time `gorm:"type:date;not null" json:"-"`
	MemberSince      time.Time `gorm:"type:date;not null" json:"-"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Member) TableName() string {
	return "members"
}

// MemberResponse DTO (dates in DD/MM/YYYY like the frontend expects)
type MemberResponse struct {
	ID               uint   `json:"id"`
	UserID           uint   `json:"user_id"`
	Name             string `json:"name"`
	Username         string `json:"username"`
	MembershipNumber string `json:"membership_number"`
	DateOfBirth      string `json:"date_of_birth"`
	MemberSince      string `json:"member_since"`
}

func (m *Member) ToResponse() *MemberResponse {
	return &MemberResponse{
		ID:               m.ID,
		UserID:           m.UserID,
		Name:             m.Name,
		Username:         m.Username,
		MembershipNumber: m.MembershipNumber,
		DateOfBirth:      m.DateOfBirth.Format(DateLayout),
		MemberSince:      m.MemberSince.Format(DateLayout),
	}
}

// ============================================================
// Booking Table
// ============================================================

// Booking represents bookings table. The composite unique index backs the
// at-most-one-booking-per-(user, occurrence) invariant at the storage level.
type Booking struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;uniqueIndex:idx_bookings_user_occurrence" json:"user_id"`
	OccurrenceID uint      `gorm:"not null;uniqueIndex:idx_bookings_user_occurrence;index" json:"occurrence_id"`
	BookingDate  time.Time `gorm:"not null;autoCreateTime" json:"booking_date"`

	// Relations
	User       *User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Occurrence *Occurrence `gorm:"foreignKey:OccurrenceID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Booking) TableName() string {
	return "bookings"
}

// BookingResponse DTO enriched with class details for listings
type BookingResponse struct {
	ID           uint      `json:"id"`
	UserID       uint      `json:"user_id"`
	OccurrenceID uint      `json:"occurrence_id"`
	BookingDate  time.Time `json:"booking_date"`
	ClassName    string    `json:"class_name"`
	Day          string    `json:"day"`
	Time         string    `json:"time"`
}

func (b *Booking) ToResponse() *BookingResponse {
	resp := &BookingResponse{
		ID:           b.ID,
		UserID:       b.UserID,
		OccurrenceID: b.OccurrenceID,
		BookingDate:  b.BookingDate,
	}

	if b.Occurrence != nil {
		resp.Day = b.Occurrence.Day
		resp.Time = b.Occurrence.Time
		if b.Occurrence.GymClass != nil {
			resp.ClassName = b.Occurrence.GymClass.Name
		}
	}

	return resp
}

// ============================================================
// Auth Tables
// ============================================================

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate creates or updates all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Member{},
		&RefreshToken{},
		&GymClass{},
		&Occurrence{},
		&Booking{},
	)
}
