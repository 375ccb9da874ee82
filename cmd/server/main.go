package main

import (
	"context"
	"log"

	"github.com/assignmate/assignmate/internal/config"
	"github.com/assignmate/assignmate/internal/constants"
	"github.com/assignmate/assignmate/internal/database"
	"github.com/assignmate/assignmate/internal/handlers"
	"github.com/assignmate/assignmate/internal/middleware"
	"github.com/assignmate/assignmate/internal/repository"
	"github.com/assignmate/assignmate/internal/services"
	"github.com/assignmate/assignmate/internal/store"
	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Pick the assignment store backing
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	var assignmentStore store.AssignmentStore
	switch cfg.StoreBackend {
	case "redis":
		client := goredis.NewClient(&goredis.Options{
			Addr:     redisAddr,
			Password: cfg.RedisPassword,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		assignmentStore = store.NewRedisAssignmentStore(client, "assignments")
	case "gorm":
		assignmentStore = store.NewGormAssignmentStore(database.GetDB())
	default:
		log.Fatalf("Unsupported STORE_BACKEND %q", cfg.StoreBackend)
	}

	// Initialize Gin router
	r := gin.Default()

	// Setup session middleware with Redis
	sessionStore, err := redisStore.NewStore(
		10,        // Redis pool size
		"tcp",     // network type
		redisAddr, // Redis address from config
		"",        // username (empty for default user)
		cfg.RedisPassword,
		[]byte(cfg.SessionSecret), // authentication key
	)
	if err != nil {
		log.Fatalf("Failed to create Redis store: %v", err)
	}
	isProduction := cfg.GinMode == "release"
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: 2, // SameSite=Lax (1=Strict, 2=Lax, 3=None)
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, sessionStore))

	// Initialize services
	userRepo := repository.NewUserRepository(database.GetDB())
	authService := services.NewAuthService(userRepo)
	assignmentService := services.NewAssignmentService(assignmentStore)
	adminService := services.NewAdminService(database.GetDB(), userRepo)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	assignmentHandler := handlers.NewAssignmentHandler(assignmentService)
	dashboardHandler := handlers.NewDashboardHandler(assignmentService)
	adminHandler := handlers.NewAdminHandler(adminService)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Assignmate API is running",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
		}

		// Assignment routes (protected)
		assignments := api.Group("/assignments")
		assignments.Use(middleware.RequireAuth())
		{
			assignments.GET("", assignmentHandler.ListAssignments)
			assignments.POST("", assignmentHandler.CreateAssignment)
			assignments.GET("/watch", assignmentHandler.WatchAssignments)
			assignments.GET("/:id", assignmentHandler.GetAssignment)
			assignments.PUT("/:id", assignmentHandler.ReplaceAssignment)
			assignments.PATCH("/:id", assignmentHandler.PatchAssignment)
			assignments.DELETE("/:id", assignmentHandler.DeleteAssignment)
		}

		// Dashboard and calendar (protected)
		api.GET("/dashboard", middleware.RequireAuth(), dashboardHandler.GetDashboard)
		api.GET("/calendar", middleware.RequireAuth(), dashboardHandler.GetCalendar)

		// Admin routes (protected, admin only)
		admin := api.Group("/admin")
		admin.Use(middleware.RequireAuth(), middleware.RequireAdmin())
		{
			admin.GET("/stats", adminHandler.GetStats)
			admin.GET("/users", adminHandler.ListUsers)
			admin.PATCH("/users/:id", adminHandler.SetAdmin)
		}
	}

	// Start server
	log.Printf("Server starting on %s", cfg.ServerAddr)
	if err := r.Run(cfg.ServerAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
