package models

import "time"

// User is the application account. Profile data lives in UserProfile.
type User struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Email         string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash  string     `gorm:"size:255" json:"-"`
	FullName      string     `gorm:"size:255" json:"full_name"`
	GoogleID      *string    `gorm:"size:255;index" json:"-"`
	IsActive      bool       `gorm:"default:true" json:"is_active"`
	ResetToken    string     `gorm:"size:64;index" json:"-"`
	ResetTokenExp time.Time  `json:"-"`
	ResetAttempts int        `gorm:"default:0" json:"-"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	Profile *UserProfile `gorm:"constraint:OnDelete:CASCADE" json:"profile,omitempty"`
}

type UserProfile struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UserID        uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	FirstName     string     `gorm:"size:100" json:"first_name"`
	LastName      string     `gorm:"size:100" json:"last_name"`
	DateOfBirth   *time.Time `json:"date_of_birth,omitempty"`
	Gender        string     `gorm:"size:16" json:"gender"`
	HeightCm      float64    `json:"height_cm"`
	WeightKg      float64    `json:"weight_kg"`
	ActivityLevel string     `gorm:"size:32" json:"activity_level"`
	AvatarURL     string     `gorm:"size:512" json:"avatar_url"`
	Bio           string     `gorm:"type:text" json:"bio"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
