package models

import (
	"time"
)

// GameSession is one finished game, recorded once and immutable thereafter.
// XPEarned holds the capped amount that was actually credited, not the raw
// score the client reported.
type GameSession struct {
	ID              int       `json:"id" db:"id"`
	SessionID       string    `json:"session_id" db:"session_id"`
	UserID          int       `json:"user_id" db:"user_id"`
	GameType        string    `json:"game_type" db:"game_type"`
	GameMode        string    `json:"game_mode" db:"game_mode"`
	DifficultyLevel string    `json:"difficulty_level" db:"difficulty_level"`
	RegionFilter    *string   `json:"region_filter" db:"region_filter"`
	Score           int       `json:"score" db:"score"`
	CorrectCount    int       `json:"correct_count" db:"correct_count"`
	XPEarned        int       `json:"xp_earned" db:"xp_earned"`
	CompletedAt     time.Time `json:"completed_at" db:"completed_at"`
}

// AnswerOutcome reports one fact shown during a session.
type AnswerOutcome struct {
	FactID   string `json:"fact_id" validate:"required"`
	FactType string `json:"fact_type" validate:"required"`
	Correct  bool   `json:"correct"`
}

// SubmitSessionRequest is the "session completed" event posted by the client.
type SubmitSessionRequest struct {
	GameType        string          `json:"game_type" validate:"required"`
	GameMode        string          `json:"game_mode"`
	DifficultyLevel string          `json:"difficulty_level"`
	RegionFilter    *string         `json:"region_filter"`
	Score           int             `json:"score"`
	CorrectCount    int             `json:"correct_count"`
	XPEarned        int             `json:"xp_earned"`
	Answers         []AnswerOutcome `json:"answers"`
}

// SessionResult is what the frontend renders after a session is credited.
type SessionResult struct {
	SessionID     string `json:"session_id"`
	AppliedXP     int    `json:"applied_xp"`
	CapRemaining  int    `json:"cap_remaining"`
	OverallXP     int    `json:"overall_xp"`
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
}
