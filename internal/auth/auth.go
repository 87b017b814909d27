package auth

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/spf13/viper"

	"github.com/smuotoe/GeoElevate-sub002/internal/logger"
	"github.com/smuotoe/GeoElevate-sub002/internal/models"
	"github.com/smuotoe/GeoElevate-sub002/internal/services"
)

const sessionName = "geoelevate-session"

var (
	store       *sessions.CookieStore
	userService *services.UserService
	log         = logger.New()
)

// Init wires the cookie store and the user service the handlers depend on.
func Init(us *services.UserService) {
	store = sessions.NewCookieStore([]byte(viper.GetString("auth.session_secret")))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
	}
	userService = us
}

// RegisterHandler creates an account and signs the new user in.
func RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := userService.CreateUser(&req)
	if err != nil {
		log.WithError(err).Warn("registration failed")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := saveUserSession(w, r, user.ID); err != nil {
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(user)
}

// LoginHandler validates credentials and starts a cookie session.
func LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := userService.AuthenticateUser(&req)
	if err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	if err := saveUserSession(w, r, user.ID); err != nil {
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

func LogoutHandler(w http.ResponseWriter, r *http.Request) {
	session, _ := store.Get(r, sessionName)
	session.Values["user_id"] = 0
	session.Options.MaxAge = -1
	session.Save(r, w)
	w.WriteHeader(http.StatusNoContent)
}

// AuthMiddleware rejects requests without a signed-in user.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUserIDFromSession(r) == 0 {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetUserIDFromSession returns the signed-in user's ID, or 0.
func GetUserIDFromSession(r *http.Request) int {
	session, err := store.Get(r, sessionName)
	if err != nil {
		return 0
	}
	userID, ok := session.Values["user_id"].(int)
	if !ok {
		return 0
	}
	return userID
}

func saveUserSession(w http.ResponseWriter, r *http.Request, userID int) error {
	session, _ := store.Get(r, sessionName)
	session.Values["user_id"] = userID
	return session.Save(r, w)
}
