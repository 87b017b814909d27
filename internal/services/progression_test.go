package services

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smuotoe/GeoElevate-sub002/internal/database"
	"github.com/smuotoe/GeoElevate-sub002/internal/game"
	"github.com/smuotoe/GeoElevate-sub002/internal/models"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func createTestUser(t *testing.T, db *database.DB, username string) int {
	t.Helper()

	users := NewUserService(db, DefaultDailyCap)
	user, err := users.CreateUser(&models.CreateUserRequest{
		Username:    username,
		Email:       username + "@example.com",
		Password:    "secret123",
		DisplayName: username,
	})
	require.NoError(t, err)

	return user.ID
}

func submitXP(t *testing.T, s *ProgressionService, userID int, gameType string, xp int, at time.Time) *models.SessionResult {
	t.Helper()

	result, err := s.RecordSessionXP(userID, &models.SubmitSessionRequest{
		GameType: gameType,
		XPEarned: xp,
	}, at)
	require.NoError(t, err)

	return result
}

func TestRecordSessionXPAppliesCandidateUnderCap(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db, "alice")
	s := NewProgressionService(db, DefaultDailyCap)

	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	result := submitXP(t, s, userID, game.TypeFlags, 120, now)

	assert.Equal(t, 120, result.AppliedXP)
	assert.Equal(t, 380, result.CapRemaining)
	assert.Equal(t, 120, result.OverallXP)
	assert.NotEmpty(t, result.SessionID)
}

func TestRecordSessionXPCapsAtDailyLimit(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db, "alice")
	s := NewProgressionService(db, DefaultDailyCap)

	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	submitXP(t, s, userID, game.TypeFlags, 480, now)

	// 480 already earned today; a 50 XP session only credits 20
	result := submitXP(t, s, userID, game.TypeFlags, 50, now.Add(time.Hour))
	assert.Equal(t, 20, result.AppliedXP)
	assert.Equal(t, 0, result.CapRemaining)
	assert.Equal(t, 500, result.OverallXP)

	// Cap reached: further sessions apply zero, without error
	result = submitXP(t, s, userID, game.TypeFlags, 100, now.Add(2*time.Hour))
	assert.Equal(t, 0, result.AppliedXP)
	assert.Equal(t, 500, result.OverallXP)

	total, err := s.XPEarnedToday(userID, game.TypeFlags, now)
	require.NoError(t, err)
	assert.Equal(t, DefaultDailyCap, total)
}

func TestRecordSessionXPNeverExceedsCapAcrossSubmissions(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db, "alice")
	s := NewProgressionService(db, DefaultDailyCap)

	now := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	for i, xp := range []int{90, 250, 400, 10, 75} {
		submitXP(t, s, userID, game.TypeCapitals, xp, now.Add(time.Duration(i)*time.Minute))

		total, err := s.XPEarnedToday(userID, game.TypeCapitals, now)
		require.NoError(t, err)
		assert.LessOrEqual(t, total, DefaultDailyCap)
	}
}

func TestRecordSessionXPCapIsPerGameType(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db, "alice")
	s := NewProgressionService(db, DefaultDailyCap)

	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	submitXP(t, s, userID, game.TypeFlags, 500, now)

	// A different game type accrues independently
	result := submitXP(t, s, userID, game.TypeCapitals, 300, now)
	assert.Equal(t, 300, result.AppliedXP)
	assert.Equal(t, 800, result.OverallXP)
}

func TestRecordSessionXPCapResetsNextDay(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db, "alice")
	s := NewProgressionService(db, DefaultDailyCap)

	day1 := time.Date(2024, 1, 10, 23, 0, 0, 0, time.UTC)
	submitXP(t, s, userID, game.TypeFlags, 500, day1)

	day2 := time.Date(2024, 1, 11, 1, 0, 0, 0, time.UTC)
	result := submitXP(t, s, userID, game.TypeFlags, 200, day2)
	assert.Equal(t, 200, result.AppliedXP)
}

func TestRecordSessionXPRejectsUnknownGameType(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db, "alice")
	s := NewProgressionService(db, DefaultDailyCap)

	_, err := s.RecordSessionXP(userID, &models.SubmitSessionRequest{
		GameType: "bowling",
		XPEarned: 10,
	}, time.Now())
	require.ErrorIs(t, err, ErrInvalidArgument)

	// Nothing was written
	var count int
	require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM game_sessions WHERE user_id = ?`, userID))
	assert.Zero(t, count)
}

func TestRecordSessionXPRejectsNegativeXP(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db, "alice")
	s := NewProgressionService(db, DefaultDailyCap)

	_, err := s.RecordSessionXP(userID, &models.SubmitSessionRequest{
		GameType: game.TypeFlags,
		XPEarned: -5,
	}, time.Now())
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestRecordSessionXPMissingUser(t *testing.T) {
	db := newTestDB(t)
	s := NewProgressionService(db, DefaultDailyCap)

	_, err := s.RecordSessionXP(9999, &models.SubmitSessionRequest{
		GameType: game.TypeFlags,
		XPEarned: 10,
	}, time.Now())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRecordSessionXPAdvancesStreak(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db, "alice")
	s := NewProgressionService(db, DefaultDailyCap)

	day1 := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	result := submitXP(t, s, userID, game.TypeFlags, 10, day1)
	assert.Equal(t, 1, result.CurrentStreak)

	day2 := day1.AddDate(0, 0, 1)
	result = submitXP(t, s, userID, game.TypeFlags, 10, day2)
	assert.Equal(t, 2, result.CurrentStreak)
	assert.Equal(t, 2, result.LongestStreak)
}

func TestZeroXPSessionStillCountsForStreak(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db, "alice")
	s := NewProgressionService(db, DefaultDailyCap)

	result := submitXP(t, s, userID, game.TypeTrivia, 0, time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, 0, result.AppliedXP)
	assert.Equal(t, 1, result.CurrentStreak)
}

func seedStreak(t *testing.T, db *database.DB, userID int, lastPlayed string, current, longest int) {
	t.Helper()

	_, err := db.Exec(
		`UPDATE users SET last_played_date = ?, current_streak = ?, longest_streak = ? WHERE id = ?`,
		lastPlayed, current, longest, userID)
	require.NoError(t, err)
}

func TestUpdateStreakFirstPlay(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db, "alice")
	s := NewProgressionService(db, DefaultDailyCap)

	streak, err := s.UpdateStreak(userID, time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, streak)
}

func TestUpdateStreakConsecutiveDay(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db, "alice")
	seedStreak(t, db, userID, "2024-01-10", 5, 5)
	s := NewProgressionService(db, DefaultDailyCap)

	streak, err := s.UpdateStreak(userID, time.Date(2024, 1, 11, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 6, streak)

	var lastPlayed string
	require.NoError(t, db.Get(&lastPlayed, `SELECT last_played_date FROM users WHERE id = ?`, userID))
	assert.Equal(t, "2024-01-11", lastPlayed)
}

func TestUpdateStreakIdempotentSameDay(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db, "alice")
	s := NewProgressionService(db, DefaultDailyCap)

	playedOn := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	first, err := s.UpdateStreak(userID, playedOn)
	require.NoError(t, err)

	// Later the same UTC day: no change
	second, err := s.UpdateStreak(userID, playedOn.Add(10*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestUpdateStreakGapResetsToOne(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db, "alice")
	seedStreak(t, db, userID, "2024-01-10", 7, 7)
	s := NewProgressionService(db, DefaultDailyCap)

	streak, err := s.UpdateStreak(userID, time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, streak)

	// Longest streak survives the reset
	var longest int
	require.NoError(t, db.Get(&longest, `SELECT longest_streak FROM users WHERE id = ?`, userID))
	assert.Equal(t, 7, longest)
}

func TestUpdateStreakThreeDayGap(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db, "alice")
	seedStreak(t, db, userID, "2024-01-10", 4, 4)
	s := NewProgressionService(db, DefaultDailyCap)

	streak, err := s.UpdateStreak(userID, time.Date(2024, 1, 13, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, streak)
}

func TestUpdateStreakUsesUTCCalendarDay(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db, "alice")
	seedStreak(t, db, userID, "2024-01-10", 3, 3)
	s := NewProgressionService(db, DefaultDailyCap)

	// 2024-01-11 23:30 in UTC-5 is already 2024-01-12 in UTC
	est := time.FixedZone("EST", -5*3600)
	playedOn := time.Date(2024, 1, 11, 23, 30, 0, 0, est)

	streak, err := s.UpdateStreak(userID, playedOn)
	require.NoError(t, err)
	assert.Equal(t, 1, streak) // UTC saw a one-day gap, not a consecutive day
}

func TestAdvanceStreakStateMachine(t *testing.T) {
	day10 := "2024-01-10"

	tests := []struct {
		name       string
		lastPlayed *string
		current    int
		playedOn   string
		want       int
	}{
		{"first ever play", nil, 0, "2024-01-10", 1},
		{"same day", &day10, 5, "2024-01-10", 5},
		{"consecutive day", &day10, 5, "2024-01-11", 6},
		{"two day gap", &day10, 5, "2024-01-12", 1},
		{"long gap", &day10, 5, "2024-01-20", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, advanceStreak(tt.lastPlayed, tt.current, tt.playedOn))
		})
	}
}

func TestRecordFactOutcomeCounters(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db, "alice")
	s := NewProgressionService(db, DefaultDailyCap)

	seen := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.RecordFactOutcome(userID, "fr", "flags", true, seen))
	require.NoError(t, s.RecordFactOutcome(userID, "fr", "flags", false, seen.Add(time.Minute)))
	require.NoError(t, s.RecordFactOutcome(userID, "fr", "flags", false, seen.Add(2*time.Minute)))

	facts, err := s.ReviewQueue(userID, 10)
	require.NoError(t, err)
	require.Len(t, facts, 1)

	assert.Equal(t, 3, facts[0].TimesSeen)
	assert.Equal(t, 1, facts[0].TimesCorrect)
	assert.Equal(t, 2, facts[0].TimesWrong)
}

func TestRecordFactOutcomeRequiresFactID(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db, "alice")
	s := NewProgressionService(db, DefaultDailyCap)

	err := s.RecordFactOutcome(userID, "", "flags", true, time.Now())
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestReviewQueueOrdersByDifficulty(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db, "alice")
	s := NewProgressionService(db, DefaultDailyCap)

	base := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

	// "de" missed twice, "fr" missed once, "jp" never missed
	require.NoError(t, s.RecordFactOutcome(userID, "jp", "capitals", true, base))
	require.NoError(t, s.RecordFactOutcome(userID, "fr", "capitals", false, base.Add(time.Minute)))
	require.NoError(t, s.RecordFactOutcome(userID, "de", "capitals", false, base.Add(2*time.Minute)))
	require.NoError(t, s.RecordFactOutcome(userID, "de", "capitals", false, base.Add(3*time.Minute)))

	facts, err := s.ReviewQueue(userID, 10)
	require.NoError(t, err)
	require.Len(t, facts, 3)

	assert.Equal(t, "de", facts[0].FactID)
	assert.Equal(t, "fr", facts[1].FactID)
	assert.Equal(t, "jp", facts[2].FactID)
}

func TestRecentSessionsNewestFirst(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db, "alice")
	s := NewProgressionService(db, DefaultDailyCap)

	base := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	submitXP(t, s, userID, game.TypeFlags, 10, base)
	submitXP(t, s, userID, game.TypeCapitals, 20, base.Add(time.Hour))

	sessions, err := s.RecentSessions(userID, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	assert.Equal(t, game.TypeCapitals, sessions[0].GameType)
	assert.Equal(t, game.TypeFlags, sessions[1].GameType)
	assert.Equal(t, 20, sessions[0].XPEarned)
}

func TestCustomDailyCap(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db, "alice")
	s := NewProgressionService(db, 100)

	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	result := submitXP(t, s, userID, game.TypeMaps, 250, now)
	assert.Equal(t, 100, result.AppliedXP)
	assert.Equal(t, 0, result.CapRemaining)
}
