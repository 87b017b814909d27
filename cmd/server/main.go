// cmd/server/main.go
package main

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/smuotoe/GeoElevate-sub002/config"
	"github.com/smuotoe/GeoElevate-sub002/internal/api"
	"github.com/smuotoe/GeoElevate-sub002/internal/auth"
	"github.com/smuotoe/GeoElevate-sub002/internal/database"
	"github.com/smuotoe/GeoElevate-sub002/internal/services"
	"github.com/smuotoe/GeoElevate-sub002/internal/websocket"
)

func main() {
	// Load config from files and environment variables
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Initialize services
	userService := services.NewUserService(db, cfg.Progression.DailyXPCap)
	progressionService := services.NewProgressionService(db, cfg.Progression.DailyXPCap)
	achievementService := services.NewAchievementService(db)
	leaderboardService := services.NewLeaderboardService(db)

	if err := achievementService.SeedDefaultAchievements(); err != nil {
		log.Fatalf("Failed to seed achievements: %v", err)
	}

	// Initialize auth with user service
	auth.Init(userService)

	r := mux.NewRouter()

	// Public routes (no authentication required)
	publicRouter := r.PathPrefix("/api/v1").Subrouter()
	publicRouter.HandleFunc("/auth/register", auth.RegisterHandler).Methods("POST")
	publicRouter.HandleFunc("/auth/login", auth.LoginHandler).Methods("POST")
	publicRouter.HandleFunc("/auth/logout", auth.LogoutHandler).Methods("POST")

	// Authenticated routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(auth.AuthMiddleware)

	// WebSocket activity feed
	hub := websocket.RegisterRoutes(authRouter)

	// API routes
	apiRouter := authRouter.PathPrefix("/api/v1").Subrouter()
	gameHandler := api.RegisterRoutes(apiRouter, progressionService, userService, achievementService, leaderboardService, hub)

	// Leaderboard is public data
	publicRouter.HandleFunc("/leaderboard", gameHandler.GetLeaderboard).Methods("GET")

	// CORS setup for development
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	handler := c.Handler(r)

	log.Printf("geo-elevate server starting on port %s", cfg.Server.Port)
	log.Printf("Database: %s", cfg.Database.Path)

	if err := http.ListenAndServe(":"+cfg.Server.Port, handler); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
