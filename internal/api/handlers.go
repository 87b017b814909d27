package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/smuotoe/GeoElevate-sub002/internal/auth"
	"github.com/smuotoe/GeoElevate-sub002/internal/game"
	"github.com/smuotoe/GeoElevate-sub002/internal/logger"
	"github.com/smuotoe/GeoElevate-sub002/internal/models"
	"github.com/smuotoe/GeoElevate-sub002/internal/services"
	"github.com/smuotoe/GeoElevate-sub002/internal/websocket"
)

type GameHandler struct {
	progression  *services.ProgressionService
	users        *services.UserService
	achievements *services.AchievementService
	leaderboard  *services.LeaderboardService
	hub          *websocket.Hub
	log          *logger.Log
}

func NewGameHandler(
	progression *services.ProgressionService,
	users *services.UserService,
	achievements *services.AchievementService,
	leaderboard *services.LeaderboardService,
	hub *websocket.Hub,
) *GameHandler {
	return &GameHandler{
		progression:  progression,
		users:        users,
		achievements: achievements,
		leaderboard:  leaderboard,
		hub:          hub,
		log:          logger.New(),
	}
}

// POST /api/v1/sessions - credit a finished game session
func (gh *GameHandler) SubmitSession(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserIDFromSession(r)
	if userID == 0 {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var req models.SubmitSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Clients report raw scores; the XP value is always derived server-side
	// from the difficulty and correct count, then capped during credit.
	if req.XPEarned == 0 && req.CorrectCount > 0 {
		req.XPEarned = game.SessionXP(req.DifficultyLevel, req.CorrectCount)
	}

	completedAt := time.Now()
	result, err := gh.progression.RecordSessionXP(userID, &req, completedAt)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	for _, answer := range req.Answers {
		if err := gh.progression.RecordFactOutcome(userID, answer.FactID, answer.FactType, answer.Correct, completedAt); err != nil {
			gh.log.WithError(err).Warn(fmt.Sprintf("failed to record fact outcome %s for user %d", answer.FactID, userID))
		}
	}

	gh.runAchievementChecks(userID, &req, result, completedAt)
	gh.broadcastSession(userID, &req, result)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// runAchievementChecks fires the post-commit achievement and activity-feed
// side effects. None of them may fail the already-credited session.
func (gh *GameHandler) runAchievementChecks(userID int, req *models.SubmitSessionRequest, result *models.SessionResult, completedAt time.Time) {
	if err := gh.achievements.RecordActivity(userID, "session_completed",
		fmt.Sprintf("Finished a %s session for %d XP", req.GameType, result.AppliedXP), "", "🎮"); err != nil {
		gh.log.WithError(err).Warn("failed to record session activity")
	}

	err := gh.achievements.CheckAndUpdateAchievements(userID, "session_completed", map[string]interface{}{
		"game_type":    req.GameType,
		"overall_xp":   result.OverallXP,
		"cap_hit":      result.CapRemaining == 0,
		"completed_at": completedAt,
	})
	if err != nil {
		gh.log.WithError(err).Warn("session achievement check failed")
	}

	err = gh.achievements.CheckAndUpdateAchievements(userID, "streak_updated", map[string]interface{}{
		"current_streak": result.CurrentStreak,
	})
	if err != nil {
		gh.log.WithError(err).Warn("streak achievement check failed")
	}
}

func (gh *GameHandler) broadcastSession(userID int, req *models.SubmitSessionRequest, result *models.SessionResult) {
	user, err := gh.users.GetUserByID(userID)
	if err != nil {
		return
	}

	gh.hub.Broadcast(websocket.ActivityEvent{
		Type:      "session_completed",
		Username:  user.Username,
		Title:     fmt.Sprintf("%s earned %d XP playing %s", user.DisplayName, result.AppliedXP, req.GameType),
		Icon:      "🎮",
		Timestamp: time.Now(),
	})
}

// GET /api/v1/sessions - the user's recent session history
func (gh *GameHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserIDFromSession(r)
	if userID == 0 {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	sessions, err := gh.progression.RecentSessions(userID, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"sessions": sessions,
	})
}

// GET /api/v1/facts/review - facts ordered for spaced repetition
func (gh *GameHandler) ReviewFacts(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserIDFromSession(r)
	if userID == 0 {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	facts, err := gh.progression.ReviewQueue(userID, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"facts": facts,
	})
}

type checkAnswerRequest struct {
	Typed    string   `json:"typed"`
	Accepted []string `json:"accepted"`
}

// POST /api/v1/answers/check - fuzzy-match a free-typed answer
func (gh *GameHandler) CheckAnswer(w http.ResponseWriter, r *http.Request) {
	var req checkAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if len(req.Accepted) == 0 {
		http.Error(w, "No accepted answers supplied", http.StatusBadRequest)
		return
	}

	canonical, ok := game.NewAnswerChecker(req.Accepted).Match(req.Typed)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"correct":   ok,
		"canonical": canonical,
	})
}

// GET /api/v1/profile - user record plus stats summary
func (gh *GameHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserIDFromSession(r)
	if userID == 0 {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	user, err := gh.users.GetUserByID(userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	stats, err := gh.users.GetUserStats(userID, time.Now())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"user":  user,
		"stats": stats,
	})
}

// PUT /api/v1/profile
func (gh *GameHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserIDFromSession(r)
	if userID == 0 {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var req models.ProfileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := gh.users.UpdateProfile(userID, req.DisplayName, req.Email); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// POST /api/v1/profile/password
func (gh *GameHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserIDFromSession(r)
	if userID == 0 {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var req models.PasswordChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := gh.users.ChangePassword(userID, req.CurrentPassword, req.NewPassword); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// GET /api/v1/profile/stats
func (gh *GameHandler) GetUserStats(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserIDFromSession(r)
	if userID == 0 {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	stats, err := gh.users.GetUserStats(userID, time.Now())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// GET /api/v1/achievements
func (gh *GameHandler) GetAchievements(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserIDFromSession(r)
	if userID == 0 {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	achievements, err := gh.achievements.GetUserAchievements(userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"achievements": achievements,
	})
}

// GET /api/v1/activities
func (gh *GameHandler) GetActivities(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserIDFromSession(r)
	if userID == 0 {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	activities, err := gh.achievements.GetRecentActivities(userID, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"activities": activities,
	})
}

// GET /api/v1/leaderboard?by=xp|streak
func (gh *GameHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	var entries []models.LeaderboardEntry
	var err error
	switch r.URL.Query().Get("by") {
	case "streak":
		entries, err = gh.leaderboard.TopByStreak(limit)
	default:
		entries, err = gh.leaderboard.TopByXP(limit)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"entries": entries,
	})
}

// RegisterRoutes mounts the authenticated game API onto the router.
func RegisterRoutes(
	r *mux.Router,
	progression *services.ProgressionService,
	users *services.UserService,
	achievements *services.AchievementService,
	leaderboard *services.LeaderboardService,
	hub *websocket.Hub,
) *GameHandler {
	gh := NewGameHandler(progression, users, achievements, leaderboard, hub)

	r.HandleFunc("/sessions", gh.SubmitSession).Methods("POST")
	r.HandleFunc("/sessions", gh.ListSessions).Methods("GET")
	r.HandleFunc("/facts/review", gh.ReviewFacts).Methods("GET")
	r.HandleFunc("/answers/check", gh.CheckAnswer).Methods("POST")
	r.HandleFunc("/profile", gh.GetProfile).Methods("GET")
	r.HandleFunc("/profile", gh.UpdateProfile).Methods("PUT")
	r.HandleFunc("/profile/password", gh.ChangePassword).Methods("POST")
	r.HandleFunc("/profile/stats", gh.GetUserStats).Methods("GET")
	r.HandleFunc("/achievements", gh.GetAchievements).Methods("GET")
	r.HandleFunc("/activities", gh.GetActivities).Methods("GET")

	return gh
}

// writeServiceError maps the service layer's sentinel errors onto HTTP
// status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
