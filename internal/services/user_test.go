package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smuotoe/GeoElevate-sub002/internal/game"
	"github.com/smuotoe/GeoElevate-sub002/internal/models"
)

func TestCreateUserAndAuthenticate(t *testing.T) {
	db := newTestDB(t)
	users := NewUserService(db, DefaultDailyCap)

	user, err := users.CreateUser(&models.CreateUserRequest{
		Username:    "bob",
		Email:       "bob@example.com",
		Password:    "hunter22",
		DisplayName: "Bob",
	})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.NotEqual(t, "hunter22", user.Password) // stored hashed

	got, err := users.AuthenticateUser(&models.LoginRequest{Username: "bob", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = users.AuthenticateUser(&models.LoginRequest{Username: "bob", Password: "wrong"})
	require.Error(t, err)
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	users := NewUserService(db, DefaultDailyCap)

	req := &models.CreateUserRequest{
		Username: "bob",
		Email:    "bob@example.com",
		Password: "hunter22",
	}
	_, err := users.CreateUser(req)
	require.NoError(t, err)

	req.Email = "other@example.com"
	_, err = users.CreateUser(req)
	require.ErrorIs(t, err, ErrConflict)
}

func TestCreateUserDefaultsDisplayName(t *testing.T) {
	db := newTestDB(t)
	users := NewUserService(db, DefaultDailyCap)

	user, err := users.CreateUser(&models.CreateUserRequest{
		Username: "bob",
		Email:    "bob@example.com",
		Password: "hunter22",
	})
	require.NoError(t, err)
	assert.Equal(t, "bob", user.DisplayName)
}

func TestGetUserByIDNotFound(t *testing.T) {
	db := newTestDB(t)
	users := NewUserService(db, DefaultDailyCap)

	_, err := users.GetUserByID(12345)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetUserStatsReflectsTodaysPlay(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db, "carol")
	users := NewUserService(db, DefaultDailyCap)
	progression := NewProgressionService(db, DefaultDailyCap)

	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	submitXP(t, progression, userID, game.TypeFlags, 450, now)
	submitXP(t, progression, userID, game.TypeFlags, 100, now) // capped to 50
	submitXP(t, progression, userID, game.TypeCapitals, 80, now)

	stats, err := users.GetUserStats(userID, now)
	require.NoError(t, err)

	assert.Equal(t, 580, stats.OverallXP)
	assert.Equal(t, 3, stats.SessionsPlayed)
	assert.Equal(t, 1, stats.CurrentStreak)
	assert.Equal(t, 500, stats.XPTodayByType[game.TypeFlags])
	assert.Equal(t, 0, stats.CapRemaining[game.TypeFlags])
	assert.Equal(t, 80, stats.XPTodayByType[game.TypeCapitals])
	assert.Equal(t, 420, stats.CapRemaining[game.TypeCapitals])
	assert.Equal(t, 0, stats.XPTodayByType[game.TypeTrivia])
	assert.Equal(t, 500, stats.CapRemaining[game.TypeTrivia])
}

func TestChangePasswordVerifiesCurrent(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db, "dave")
	users := NewUserService(db, DefaultDailyCap)

	err := users.ChangePassword(userID, "wrong-password", "newsecret")
	require.ErrorIs(t, err, ErrInvalidArgument)

	require.NoError(t, users.ChangePassword(userID, "secret123", "newsecret"))

	_, err = users.AuthenticateUser(&models.LoginRequest{Username: "dave", Password: "newsecret"})
	require.NoError(t, err)
}

func TestUpdateProfileRejectsTakenEmail(t *testing.T) {
	db := newTestDB(t)
	aliceID := createTestUser(t, db, "alice")
	createTestUser(t, db, "bob")
	users := NewUserService(db, DefaultDailyCap)

	err := users.UpdateProfile(aliceID, "Alice", "bob@example.com")
	require.ErrorIs(t, err, ErrConflict)

	require.NoError(t, users.UpdateProfile(aliceID, "Alice", "alice-new@example.com"))
}
