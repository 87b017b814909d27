package models

import (
	"time"
)

// FactProgress tracks per-user mastery of a single quiz fact
// (a country's flag, capital, and so on).
type FactProgress struct {
	UserID       int       `json:"user_id" db:"user_id"`
	FactID       string    `json:"fact_id" db:"fact_id"`
	FactType     string    `json:"fact_type" db:"fact_type"`
	TimesSeen    int       `json:"times_seen" db:"times_seen"`
	TimesCorrect int       `json:"times_correct" db:"times_correct"`
	TimesWrong   int       `json:"times_wrong" db:"times_wrong"`
	LastSeenAt   time.Time `json:"last_seen_at" db:"last_seen_at"`
}
