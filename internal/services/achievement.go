package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/smuotoe/GeoElevate-sub002/internal/database"
	"github.com/smuotoe/GeoElevate-sub002/internal/game"
	"github.com/smuotoe/GeoElevate-sub002/internal/logger"
	"github.com/smuotoe/GeoElevate-sub002/internal/models"
)

type AchievementService struct {
	db  *database.DB
	log *logger.Log
}

func NewAchievementService(db *database.DB) *AchievementService {
	return &AchievementService{db: db, log: logger.New()}
}

// GetUserAchievements returns all achievements with user's progress
func (s *AchievementService) GetUserAchievements(userID int) ([]models.UserAchievementView, error) {
	query := `
		SELECT
			a.id, a.icon, a.title, a.description, a.type, a.category, a.max_progress, a.created_at,
			COALESCE(ua.progress, 0) as progress,
			COALESCE(ua.completed, false) as completed,
			ua.completed_at
		FROM achievements a
		LEFT JOIN user_achievements ua ON a.id = ua.achievement_id AND ua.user_id = ?
		ORDER BY ua.completed DESC, a.category, a.created_at
	`

	var achievements []models.UserAchievementView
	err := s.db.Select(&achievements, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user achievements: %w", err)
	}

	return achievements, nil
}

// UpdateAchievementProgress updates or creates user achievement progress
func (s *AchievementService) UpdateAchievementProgress(userID int, achievementID string, progress int) error {
	var achievement models.Achievement
	err := s.db.Get(&achievement, "SELECT * FROM achievements WHERE id = ?", achievementID)
	if err != nil {
		return fmt.Errorf("achievement not found: %w", err)
	}

	// Cap progress at max_progress
	if achievement.MaxProgress > 0 && progress > achievement.MaxProgress {
		progress = achievement.MaxProgress
	}

	completed := false
	var completedAt *time.Time

	if achievement.MaxProgress == 0 {
		// Binary achievement (no progress tracking)
		completed = progress > 0
	} else {
		completed = progress >= achievement.MaxProgress
	}

	var alreadyCompleted bool
	err = s.db.Get(&alreadyCompleted,
		`SELECT COALESCE(completed, false) FROM user_achievements
		 WHERE user_id = ? AND achievement_id = ?`, userID, achievementID)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to check achievement state: %w", err)
	}

	if completed {
		now := time.Now()
		completedAt = &now
	}

	query := `
		INSERT INTO user_achievements (user_id, achievement_id, progress, completed, completed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, achievement_id) DO UPDATE SET
			progress = ?,
			completed = ?,
			completed_at = CASE WHEN ? THEN ? ELSE completed_at END,
			updated_at = ?
	`

	now := time.Now()
	_, err = s.db.Exec(query,
		userID, achievementID, progress, completed, completedAt, now, now,
		progress, completed, completed, completedAt, now)

	if err != nil {
		return fmt.Errorf("failed to update achievement progress: %w", err)
	}

	// Record the badge on first completion only
	if completed && !alreadyCompleted {
		s.RecordActivity(userID, "badge_earned", fmt.Sprintf("Earned \"%s\" badge", achievement.Title), "", achievement.Icon)
	}

	return nil
}

// CheckAndUpdateAchievements checks achievement conditions after game events.
// Failures here are logged and never block or roll back XP credit.
func (s *AchievementService) CheckAndUpdateAchievements(userID int, event string, data map[string]interface{}) error {
	switch event {
	case "session_completed":
		return s.checkSessionAchievements(userID, data)
	case "streak_updated":
		return s.checkStreakAchievements(userID, data)
	}
	return nil
}

func (s *AchievementService) checkSessionAchievements(userID int, data map[string]interface{}) error {
	var sessionCount int
	if err := s.db.Get(&sessionCount,
		`SELECT COUNT(*) FROM game_sessions WHERE user_id = ?`, userID); err != nil {
		return err
	}

	// First Flight
	if sessionCount == 1 {
		s.UpdateAchievementProgress(userID, "first-flight", 1)
	}

	// Globetrotter (play every game type)
	var typesPlayed int
	if err := s.db.Get(&typesPlayed,
		`SELECT COUNT(DISTINCT game_type) FROM game_sessions WHERE user_id = ?`, userID); err == nil {
		s.UpdateAchievementProgress(userID, "globetrotter", typesPlayed)
	}

	// Rising Star / Geography Guru (cumulative XP)
	if overallXP, ok := data["overall_xp"].(int); ok {
		s.UpdateAchievementProgress(userID, "rising-star", overallXP)
		s.UpdateAchievementProgress(userID, "geography-guru", overallXP)
	}

	// Maxed Out (hit the daily cap for a game type)
	if capHit, ok := data["cap_hit"].(bool); ok && capHit {
		s.UpdateAchievementProgress(userID, "maxed-out", 1)
	}

	// Flag Expert (correct flag answers accumulated across sessions)
	var flagCorrect int
	if err := s.db.Get(&flagCorrect,
		`SELECT COALESCE(SUM(times_correct), 0) FROM user_fact_progress
		 WHERE user_id = ? AND fact_type = ?`, userID, game.TypeFlags); err == nil {
		s.UpdateAchievementProgress(userID, "flag-expert", flagCorrect)
	}

	completedAt := time.Now()
	if at, ok := data["completed_at"].(time.Time); ok {
		completedAt = at
	}

	// Night Navigator (session finished between midnight and 6am)
	if completedAt.Hour() >= 0 && completedAt.Hour() < 6 {
		s.UpdateAchievementProgress(userID, "night-navigator", 1)
	}

	// Weekend Wanderer (sessions finished on weekends)
	if completedAt.Weekday() == time.Saturday || completedAt.Weekday() == time.Sunday {
		current := s.getAchievementProgress(userID, "weekend-wanderer")
		s.UpdateAchievementProgress(userID, "weekend-wanderer", current+1)
	}

	return nil
}

func (s *AchievementService) checkStreakAchievements(userID int, data map[string]interface{}) error {
	streak, ok := data["current_streak"].(int)
	if !ok {
		return nil
	}

	s.UpdateAchievementProgress(userID, "week-streak", streak)
	s.UpdateAchievementProgress(userID, "monthly-devotion", streak)
	return nil
}

func (s *AchievementService) getAchievementProgress(userID int, achievementID string) int {
	var progress int
	query := `SELECT COALESCE(progress, 0) FROM user_achievements WHERE user_id = ? AND achievement_id = ?`
	err := s.db.Get(&progress, query, userID, achievementID)
	if err != nil {
		return 0
	}
	return progress
}

// RecordActivity adds a new activity entry for the user
func (s *AchievementService) RecordActivity(userID int, activityType, title, details, icon string) error {
	query := `
		INSERT INTO game_activities (user_id, type, title, details, icon, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query, userID, activityType, title, details, icon, time.Now())
	return err
}

// GetRecentActivities returns recent user activities
func (s *AchievementService) GetRecentActivities(userID int, limit int) ([]models.GameActivity, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, user_id, type, title, details, icon, created_at
		FROM game_activities
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`

	var activities []models.GameActivity
	err := s.db.Select(&activities, query, userID, limit)
	return activities, err
}

// Seed default achievements
func (s *AchievementService) SeedDefaultAchievements() error {
	achievements := []models.Achievement{
		{ID: "first-flight", Icon: "🛫", Title: "First Flight", Description: "Complete your first game session", Type: "milestone", Category: "progress"},
		{ID: "week-streak", Icon: "🔥", Title: "Seven in a Row", Description: "Play every day for a week", Type: "progress", Category: "streak", MaxProgress: 7},
		{ID: "monthly-devotion", Icon: "📅", Title: "Monthly Devotion", Description: "Keep a 30-day play streak", Type: "progress", Category: "streak", MaxProgress: 30},
		{ID: "rising-star", Icon: "⭐", Title: "Rising Star", Description: "Earn 1,000 XP overall", Type: "progress", Category: "xp", MaxProgress: 1000},
		{ID: "geography-guru", Icon: "🌍", Title: "Geography Guru", Description: "Earn 10,000 XP overall", Type: "mastery", Category: "xp", MaxProgress: 10000},
		{ID: "globetrotter", Icon: "🧭", Title: "Globetrotter", Description: "Play every game type at least once", Type: "collection", Category: "variety", MaxProgress: 5},
		{ID: "maxed-out", Icon: "💯", Title: "Maxed Out", Description: "Hit the daily XP cap for a game type", Type: "special", Category: "xp"},
		{ID: "flag-expert", Icon: "🚩", Title: "Flag Expert", Description: "Answer 100 flag questions correctly", Type: "progress", Category: "mastery", MaxProgress: 100},
		{ID: "night-navigator", Icon: "🌙", Title: "Night Navigator", Description: "Finish a session after midnight", Type: "special", Category: "time"},
		{ID: "weekend-wanderer", Icon: "🏖️", Title: "Weekend Wanderer", Description: "Finish 5 sessions on weekends", Type: "progress", Category: "time", MaxProgress: 5},
	}

	for _, achievement := range achievements {
		query := `
			INSERT OR IGNORE INTO achievements (id, icon, title, description, type, category, max_progress, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`
		_, err := s.db.Exec(query, achievement.ID, achievement.Icon, achievement.Title,
			achievement.Description, achievement.Type, achievement.Category, achievement.MaxProgress, time.Now())
		if err != nil {
			return fmt.Errorf("failed to seed achievement %s: %w", achievement.ID, err)
		}
	}

	return nil
}
