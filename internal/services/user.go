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

type UserService struct {
	db       *database.DB
	dailyCap int
	log      *logger.Log
}

func NewUserService(db *database.DB, dailyCap int) *UserService {
	if dailyCap <= 0 {
		dailyCap = DefaultDailyCap
	}
	return &UserService{db: db, dailyCap: dailyCap, log: logger.New()}
}

// CreateUser creates a new user account
func (s *UserService) CreateUser(req *models.CreateUserRequest) (*models.User, error) {
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", ErrInvalidArgument)
	}

	if exists, err := s.UsernameExists(req.Username); err != nil {
		return nil, err
	} else if exists {
		return nil, fmt.Errorf("%w: username already exists", ErrConflict)
	}

	if exists, err := s.EmailExists(req.Email); err != nil {
		return nil, err
	} else if exists {
		return nil, fmt.Errorf("%w: email already exists", ErrConflict)
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = req.Username
	}

	user := &models.User{
		Username:    req.Username,
		Email:       req.Email,
		DisplayName: displayName,
		IsActive:    true,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	query := `
		INSERT INTO users (username, email, password_hash, display_name, created_at, updated_at, is_active)
		VALUES (:username, :email, :password_hash, :display_name, :created_at, :updated_at, :is_active)
	`

	result, err := s.db.NamedExec(query, user)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get user ID: %w", err)
	}

	user.ID = int(id)
	return user, nil
}

// AuthenticateUser validates login credentials and returns the user
func (s *UserService) AuthenticateUser(req *models.LoginRequest) (*models.User, error) {
	user, err := s.GetUserByUsername(req.Username)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	if !user.CheckPassword(req.Password) {
		return nil, fmt.Errorf("invalid credentials")
	}

	if !user.IsActive {
		return nil, fmt.Errorf("account is disabled")
	}

	if err := s.UpdateLastLogin(user.ID); err != nil {
		s.log.WithError(err).Warn(fmt.Sprintf("failed to update last login for user %d", user.ID))
	}

	return user, nil
}

// GetUserByID retrieves a user by their ID
func (s *UserService) GetUserByID(id int) (*models.User, error) {
	var user models.User
	query := `SELECT id, username, email, display_name, overall_xp, current_streak, longest_streak,
			         last_played_date, created_at, updated_at, last_login_at, is_active
			  FROM users WHERE id = ?`

	err := s.db.Get(&user, query, id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: user %d", ErrNotFound, id)
	} else if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// GetUserByUsername retrieves a user by their username
func (s *UserService) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	query := `SELECT id, username, email, password_hash, display_name, overall_xp, current_streak,
			         longest_streak, last_played_date, created_at, updated_at, last_login_at, is_active
			  FROM users WHERE username = ?`

	err := s.db.Get(&user, query, username)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: user %q", ErrNotFound, username)
	} else if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// UsernameExists checks if a username is already taken
func (s *UserService) UsernameExists(username string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM users WHERE username = ?`
	err := s.db.Get(&count, query, username)
	return count > 0, err
}

// EmailExists checks if an email is already registered
func (s *UserService) EmailExists(email string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM users WHERE email = ?`
	err := s.db.Get(&count, query, email)
	return count > 0, err
}

// UpdateLastLogin updates the user's last login timestamp
func (s *UserService) UpdateLastLogin(userID int) error {
	query := `UPDATE users SET last_login_at = ? WHERE id = ?`
	_, err := s.db.Exec(query, time.Now(), userID)
	return err
}

// GetUserStats builds the profile summary: overall XP, streaks, sessions
// played, and per-game-type XP earned today against the daily cap.
func (s *UserService) GetUserStats(userID int, now time.Time) (*models.UserStats, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	var sessionsPlayed int
	err = s.db.Get(&sessionsPlayed,
		`SELECT COUNT(*) FROM game_sessions WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}

	type dayTotal struct {
		GameType string `db:"game_type"`
		Total    int    `db:"total"`
	}
	var totals []dayTotal
	err = s.db.Select(&totals,
		`SELECT game_type, COALESCE(SUM(xp_earned), 0) AS total
		 FROM game_sessions
		 WHERE user_id = ? AND date(completed_at) = ?
		 GROUP BY game_type`,
		userID, now.UTC().Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to sum today's xp: %w", err)
	}

	xpToday := make(map[string]int, len(game.Types))
	capRemaining := make(map[string]int, len(game.Types))
	for _, t := range game.Types {
		xpToday[t] = 0
		capRemaining[t] = s.dailyCap
	}
	for _, row := range totals {
		xpToday[row.GameType] = row.Total
		remaining := s.dailyCap - row.Total
		if remaining < 0 {
			remaining = 0
		}
		capRemaining[row.GameType] = remaining
	}

	return &models.UserStats{
		UserID:         user.ID,
		OverallXP:      user.OverallXP,
		CurrentStreak:  user.CurrentStreak,
		LongestStreak:  user.LongestStreak,
		LastPlayedDate: user.LastPlayedDate,
		SessionsPlayed: sessionsPlayed,
		XPTodayByType:  xpToday,
		CapRemaining:   capRemaining,
	}, nil
}

// UpdateProfile allows users to update their display name and email
func (s *UserService) UpdateProfile(userID int, displayName, email string) error {
	var count int
	query := `SELECT COUNT(*) FROM users WHERE email = ? AND id != ?`
	if err := s.db.Get(&count, query, email, userID); err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: email already exists", ErrConflict)
	}

	query = `UPDATE users SET display_name = ?, email = ?, updated_at = ? WHERE id = ?`
	_, err := s.db.Exec(query, displayName, email, time.Now(), userID)
	return err
}

// ChangePassword allows users to change their password
func (s *UserService) ChangePassword(userID int, currentPassword, newPassword string) error {
	var user models.User
	query := `SELECT password_hash FROM users WHERE id = ?`
	if err := s.db.Get(&user, query, userID); err != nil {
		return fmt.Errorf("%w: user %d", ErrNotFound, userID)
	}

	if !user.CheckPassword(currentPassword) {
		return fmt.Errorf("%w: current password is incorrect", ErrInvalidArgument)
	}

	if err := user.SetPassword(newPassword); err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	updateQuery := `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`
	_, err := s.db.Exec(updateQuery, user.Password, time.Now(), userID)
	return err
}
