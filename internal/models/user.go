package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User represents a player account and their progression counters.
type User struct {
	ID             int        `json:"id" db:"id"`
	Username       string     `json:"username" db:"username"`
	Email          string     `json:"email" db:"email"`
	Password       string     `json:"-" db:"password_hash"` // Never expose in JSON
	DisplayName    string     `json:"display_name" db:"display_name"`
	OverallXP      int        `json:"overall_xp" db:"overall_xp"`
	CurrentStreak  int        `json:"current_streak" db:"current_streak"`
	LongestStreak  int        `json:"longest_streak" db:"longest_streak"`
	LastPlayedDate *string    `json:"last_played_date" db:"last_played_date"` // UTC calendar day, "2006-01-02"
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
	LastLoginAt    *time.Time `json:"last_login_at" db:"last_login_at"`
	IsActive       bool       `json:"is_active" db:"is_active"`
}

// CreateUserRequest represents the request to create a new user
type CreateUserRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=20"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	DisplayName string `json:"display_name" validate:"required,min=1,max=50"`
}

// LoginRequest represents a login attempt
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UserStats is the profile summary returned to the frontend.
type UserStats struct {
	UserID         int            `json:"user_id"`
	OverallXP      int            `json:"overall_xp"`
	CurrentStreak  int            `json:"current_streak"`
	LongestStreak  int            `json:"longest_streak"`
	LastPlayedDate *string        `json:"last_played_date"`
	SessionsPlayed int            `json:"sessions_played"`
	XPTodayByType  map[string]int `json:"xp_today_by_type"`
	CapRemaining   map[string]int `json:"cap_remaining_by_type"`
}

// LeaderboardEntry is one row of a ranked user listing.
type LeaderboardEntry struct {
	Rank          int    `json:"rank"`
	Username      string `json:"username" db:"username"`
	DisplayName   string `json:"display_name" db:"display_name"`
	OverallXP     int    `json:"overall_xp" db:"overall_xp"`
	LongestStreak int    `json:"longest_streak" db:"longest_streak"`
}

// SetPassword hashes and sets the user's password
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword verifies a password against the user's hash
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// ProfileUpdateRequest represents a profile update request
type ProfileUpdateRequest struct {
	DisplayName string `json:"display_name" validate:"required,min=1,max=50"`
	Email       string `json:"email" validate:"required,email"`
}

// PasswordChangeRequest represents a password change request
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
}
