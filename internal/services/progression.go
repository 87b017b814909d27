package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/smuotoe/GeoElevate-sub002/internal/database"
	"github.com/smuotoe/GeoElevate-sub002/internal/game"
	"github.com/smuotoe/GeoElevate-sub002/internal/logger"
	"github.com/smuotoe/GeoElevate-sub002/internal/models"
)

// DefaultDailyCap is the XP a user may accrue per game type per UTC calendar
// day unless configured otherwise.
const DefaultDailyCap = 500

// sqliteTimeLayout keeps completed_at values in a form SQLite's date()
// function can read back.
const sqliteTimeLayout = "2006-01-02 15:04:05"

// ProgressionService owns XP accrual, streak maintenance, and fact progress.
// Every mutation is a single short transaction scoped to one user row.
type ProgressionService struct {
	db       *database.DB
	dailyCap int
	log      *logger.Log
}

func NewProgressionService(db *database.DB, dailyCap int) *ProgressionService {
	if dailyCap <= 0 {
		dailyCap = DefaultDailyCap
	}
	return &ProgressionService{db: db, dailyCap: dailyCap, log: logger.New()}
}

// DailyCap returns the configured per-(user, game type, day) XP ceiling.
func (s *ProgressionService) DailyCap() int {
	return s.dailyCap
}

// userProgress is the slice of the users row the progression logic reads and
// writes inside a transaction.
type userProgress struct {
	ID             int     `db:"id"`
	OverallXP      int     `db:"overall_xp"`
	CurrentStreak  int     `db:"current_streak"`
	LongestStreak  int     `db:"longest_streak"`
	LastPlayedDate *string `db:"last_played_date"`
}

// RecordSessionXP credits a finished session: it caps the candidate XP
// against what the user already earned today for this game type, persists
// the session with the capped amount, bumps overall_xp, and advances the
// streak, all in one transaction. Reaching the cap is not an error; the
// applied amount (possibly zero) is returned for the frontend to render.
func (s *ProgressionService) RecordSessionXP(userID int, req *models.SubmitSessionRequest, completedAt time.Time) (*models.SessionResult, error) {
	if !game.ValidType(req.GameType) {
		return nil, fmt.Errorf("%w: unknown game type %q", ErrInvalidArgument, req.GameType)
	}
	if req.XPEarned < 0 {
		return nil, fmt.Errorf("%w: negative xp amount %d", ErrInvalidArgument, req.XPEarned)
	}
	if req.CorrectCount < 0 || req.Score < 0 {
		return nil, fmt.Errorf("%w: negative session counters", ErrInvalidArgument)
	}

	day := dayOf(completedAt)
	sessionID := uuid.NewString()

	var result models.SessionResult
	err := s.withRetry(func(tx *sqlx.Tx) error {
		user, err := lockUserProgress(tx, userID)
		if err != nil {
			return err
		}

		var alreadyEarned int
		err = tx.Get(&alreadyEarned,
			`SELECT COALESCE(SUM(xp_earned), 0) FROM game_sessions
			 WHERE user_id = ? AND game_type = ? AND date(completed_at) = ?`,
			userID, req.GameType, day)
		if err != nil {
			return fmt.Errorf("failed to sum today's xp: %w", err)
		}

		remaining := s.dailyCap - alreadyEarned
		if remaining < 0 {
			remaining = 0
		}
		applied := req.XPEarned
		if applied > remaining {
			applied = remaining
		}

		_, err = tx.Exec(
			`INSERT INTO game_sessions
			 (session_id, user_id, game_type, game_mode, difficulty_level, region_filter, score, correct_count, xp_earned, completed_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sessionID, userID, req.GameType, req.GameMode, req.DifficultyLevel,
			req.RegionFilter, req.Score, req.CorrectCount, applied,
			completedAt.UTC().Format(sqliteTimeLayout))
		if err != nil {
			return fmt.Errorf("failed to insert session: %w", err)
		}

		streak := advanceStreak(user.LastPlayedDate, user.CurrentStreak, day)
		longest := user.LongestStreak
		if streak > longest {
			longest = streak
		}

		_, err = tx.Exec(
			`UPDATE users
			 SET overall_xp = overall_xp + ?, current_streak = ?, longest_streak = ?,
			     last_played_date = ?, updated_at = ?
			 WHERE id = ?`,
			applied, streak, longest, day, time.Now().UTC(), userID)
		if err != nil {
			return fmt.Errorf("failed to update user progression: %w", err)
		}

		result = models.SessionResult{
			SessionID:     sessionID,
			AppliedXP:     applied,
			CapRemaining:  remaining - applied,
			OverallXP:     user.OverallXP + applied,
			CurrentStreak: streak,
			LongestStreak: longest,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.AppliedXP < req.XPEarned {
		s.log.Info(fmt.Sprintf("user %d hit the %s daily cap: %d of %d xp applied",
			userID, req.GameType, result.AppliedXP, req.XPEarned))
	}

	return &result, nil
}

// UpdateStreak advances the consecutive-day play streak for a play on the
// given instant's UTC calendar day. Calling it again for the same day is a
// no-op, so it is safe to invoke once per session submission.
func (s *ProgressionService) UpdateStreak(userID int, playedOn time.Time) (int, error) {
	day := dayOf(playedOn)

	var newStreak int
	err := s.withRetry(func(tx *sqlx.Tx) error {
		user, err := lockUserProgress(tx, userID)
		if err != nil {
			return err
		}

		newStreak = advanceStreak(user.LastPlayedDate, user.CurrentStreak, day)
		if user.LastPlayedDate != nil && *user.LastPlayedDate == day && newStreak == user.CurrentStreak {
			return nil // already counted today
		}

		longest := user.LongestStreak
		if newStreak > longest {
			longest = newStreak
		}

		_, err = tx.Exec(
			`UPDATE users
			 SET current_streak = ?, longest_streak = ?, last_played_date = ?, updated_at = ?
			 WHERE id = ?`,
			newStreak, longest, day, time.Now().UTC(), userID)
		if err != nil {
			return fmt.Errorf("failed to update streak: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return newStreak, nil
}

// RecordFactOutcome bumps the per-user counters for one fact shown during a
// session. Counters only ever grow; last_seen_at always moves forward.
func (s *ProgressionService) RecordFactOutcome(userID int, factID, factType string, wasCorrect bool, seenAt time.Time) error {
	if factID == "" || factType == "" {
		return fmt.Errorf("%w: fact id and type are required", ErrInvalidArgument)
	}

	correct, wrong := 0, 1
	if wasCorrect {
		correct, wrong = 1, 0
	}

	return s.withRetry(func(tx *sqlx.Tx) error {
		if _, err := lockUserProgress(tx, userID); err != nil {
			return err
		}

		_, err := tx.Exec(
			`INSERT INTO user_fact_progress
			 (user_id, fact_id, fact_type, times_seen, times_correct, times_wrong, last_seen_at)
			 VALUES (?, ?, ?, 1, ?, ?, ?)
			 ON CONFLICT(user_id, fact_id) DO UPDATE SET
				times_seen = times_seen + 1,
				times_correct = times_correct + ?,
				times_wrong = times_wrong + ?,
				last_seen_at = ?`,
			userID, factID, factType, correct, wrong, seenAt.UTC(),
			correct, wrong, seenAt.UTC())
		if err != nil {
			return fmt.Errorf("failed to record fact outcome: %w", err)
		}
		return nil
	})
}

// ReviewQueue returns the user's facts ordered for spaced repetition:
// most-missed first, most recently seen breaking ties.
func (s *ProgressionService) ReviewQueue(userID, limit int) ([]models.FactProgress, error) {
	if limit <= 0 {
		limit = 20
	}

	var facts []models.FactProgress
	err := s.db.Select(&facts,
		`SELECT user_id, fact_id, fact_type, times_seen, times_correct, times_wrong, last_seen_at
		 FROM user_fact_progress
		 WHERE user_id = ?
		 ORDER BY times_wrong DESC, last_seen_at DESC
		 LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load review queue: %w", err)
	}

	return facts, nil
}

// RecentSessions returns the user's latest completed sessions.
func (s *ProgressionService) RecentSessions(userID, limit int) ([]models.GameSession, error) {
	if limit <= 0 {
		limit = 20
	}

	var sessions []models.GameSession
	err := s.db.Select(&sessions,
		`SELECT id, session_id, user_id, game_type, game_mode, difficulty_level,
		        region_filter, score, correct_count, xp_earned, completed_at
		 FROM game_sessions
		 WHERE user_id = ?
		 ORDER BY completed_at DESC, id DESC
		 LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}

	return sessions, nil
}

// XPEarnedToday sums the persisted xp for one game type on the given day.
func (s *ProgressionService) XPEarnedToday(userID int, gameType string, on time.Time) (int, error) {
	var total int
	err := s.db.Get(&total,
		`SELECT COALESCE(SUM(xp_earned), 0) FROM game_sessions
		 WHERE user_id = ? AND game_type = ? AND date(completed_at) = ?`,
		userID, gameType, dayOf(on))
	if err != nil {
		return 0, fmt.Errorf("failed to sum today's xp: %w", err)
	}
	return total, nil
}

// advanceStreak is the streak state machine over (last_played_date,
// current_streak). Days are UTC calendar dates in "2006-01-02" form.
func advanceStreak(lastPlayed *string, current int, playedOn string) int {
	if lastPlayed == nil || *lastPlayed == "" {
		return 1 // first-ever play
	}
	if *lastPlayed == playedOn {
		return current // already counted today
	}
	if nextDay(*lastPlayed) == playedOn {
		return current + 1
	}
	return 1 // gap: streak restarts on the day play resumes
}

func nextDay(day string) string {
	t, err := time.ParseInLocation("2006-01-02", day, time.UTC)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, 1).Format("2006-01-02")
}

func dayOf(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// lockUserProgress reads the user's progression columns inside the
// transaction, surfacing ErrNotFound for unknown users before any write.
func lockUserProgress(tx *sqlx.Tx, userID int) (*userProgress, error) {
	var user userProgress
	err := tx.Get(&user,
		`SELECT id, overall_xp, current_streak, longest_streak, last_played_date
		 FROM users WHERE id = ?`, userID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: user %d", ErrNotFound, userID)
	} else if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// withRetry runs fn in an immediate transaction, retrying once when SQLite
// reports a write conflict. A second failure surfaces as ErrConflict so the
// caller can prompt a client retry instead of silently dropping XP.
func (s *ProgressionService) withRetry(fn func(tx *sqlx.Tx) error) error {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		lastErr = s.inTx(fn)
		if lastErr == nil || !isBusy(lastErr) {
			return lastErr
		}
	}
	return fmt.Errorf("%w: %v", ErrConflict, lastErr)
}

func (s *ProgressionService) inTx(fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}
