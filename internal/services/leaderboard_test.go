package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smuotoe/GeoElevate-sub002/internal/game"
)

func TestLeaderboardTopByXP(t *testing.T) {
	db := newTestDB(t)
	progression := NewProgressionService(db, DefaultDailyCap)

	aliceID := createTestUser(t, db, "alice")
	bobID := createTestUser(t, db, "bob")
	createTestUser(t, db, "carol")

	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	submitXP(t, progression, aliceID, game.TypeFlags, 300, now)
	submitXP(t, progression, bobID, game.TypeFlags, 450, now)

	entries, err := NewLeaderboardService(db).TopByXP(10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "bob", entries[0].Username)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 450, entries[0].OverallXP)
	assert.Equal(t, "alice", entries[1].Username)
	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, "carol", entries[2].Username)
}

func TestLeaderboardTopByStreak(t *testing.T) {
	db := newTestDB(t)

	aliceID := createTestUser(t, db, "alice")
	bobID := createTestUser(t, db, "bob")
	seedStreak(t, db, aliceID, "2024-01-10", 2, 9)
	seedStreak(t, db, bobID, "2024-01-10", 4, 4)

	entries, err := NewLeaderboardService(db).TopByStreak(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "alice", entries[0].Username)
	assert.Equal(t, 9, entries[0].LongestStreak)
}

func TestLeaderboardLimitClamped(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "alice")

	entries, err := NewLeaderboardService(db).TopByXP(-3)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
