package services

import (
	"fmt"

	"github.com/smuotoe/GeoElevate-sub002/internal/database"
	"github.com/smuotoe/GeoElevate-sub002/internal/models"
)

type LeaderboardService struct {
	db *database.DB
}

func NewLeaderboardService(db *database.DB) *LeaderboardService {
	return &LeaderboardService{db: db}
}

// TopByXP returns the highest-XP active users, ranked from 1.
func (s *LeaderboardService) TopByXP(limit int) ([]models.LeaderboardEntry, error) {
	return s.top(`
		SELECT username, display_name, overall_xp, longest_streak
		FROM users
		WHERE is_active = TRUE
		ORDER BY overall_xp DESC, username
		LIMIT ?`, limit)
}

// TopByStreak ranks active users by their longest streak.
func (s *LeaderboardService) TopByStreak(limit int) ([]models.LeaderboardEntry, error) {
	return s.top(`
		SELECT username, display_name, overall_xp, longest_streak
		FROM users
		WHERE is_active = TRUE
		ORDER BY longest_streak DESC, overall_xp DESC, username
		LIMIT ?`, limit)
}

func (s *LeaderboardService) top(query string, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	var entries []models.LeaderboardEntry
	if err := s.db.Select(&entries, query, limit); err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}
