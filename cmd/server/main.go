package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/dansduels/community-backend/internal/config"
	"github.com/dansduels/community-backend/internal/database"
	"github.com/dansduels/community-backend/internal/handlers"
	"github.com/dansduels/community-backend/internal/middleware"
	"github.com/dansduels/community-backend/internal/models"
	"github.com/dansduels/community-backend/internal/services"
	"github.com/dansduels/community-backend/pkg/discord"
	"github.com/dansduels/community-backend/pkg/jwt"
	"github.com/dansduels/community-backend/pkg/validator"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting dansduels community backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	if err := database.EnsureSchema(db); err != nil {
		logger.Fatalf("Failed to ensure database schema: %v", err)
	}

	// Initialize repositories
	userRepository := database.NewUserRepository(db)
	pastStaffRepository := database.NewPastStaffRepository(db)
	documentRepository := database.NewDocumentRepository(db)
	postRepository := database.NewPostRepository(db)
	eventRepository := database.NewEventRepository(db)

	if err := seedAdminUser(userRepository, cfg.Security.BcryptCost, logger); err != nil {
		logger.Fatalf("Failed to seed admin user: %v", err)
	}

	// Initialize Discord integration
	discordClient := discord.NewClient(discord.Config{
		BotToken: cfg.Discord.BotToken,
	})
	memberCache := discord.NewMemberCache(cfg.Discord.MemberCacheTTL)
	roleMap := discord.NewRoleMap(roleMappings(cfg.Discord.RoleMappings), cfg.Discord.RetiredRoleID)
	if err := roleMap.Validate(); err != nil {
		logger.Fatalf("Invalid Discord role mapping: %v", err)
	}
	oauthFlow := discord.NewOAuthFlow(discord.OAuthConfig{
		ClientID:     cfg.Discord.ClientID,
		ClientSecret: cfg.Discord.ClientSecret,
		RedirectURL:  cfg.Discord.RedirectURL,
	})

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.TokenExpiry)
	idValidator := validator.NewIDValidator()

	rosterService := services.NewRosterService(
		discordClient,
		cfg.Discord.GuildID,
		memberCache,
		roleMap,
		userRepository,
		pastStaffRepository,
		logger,
	)
	identityService := services.NewIdentityService(
		oauthFlow,
		discordClient,
		cfg.Discord.GuildID,
		roleMap,
		cfg.Discord.AllowedRoleIDs,
		userRepository,
		jwtService,
		logger,
	)
	documentService := services.NewDocumentService(documentRepository, logger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(jwtService, userRepository, cfg.Security.BcryptCost, logger)
	discordAuthHandler := handlers.NewDiscordAuthHandler(identityService, cfg.Discord.FrontendURL, logger)
	staffHandler := handlers.NewStaffHandler(rosterService, idValidator, logger)
	documentHandler := handlers.NewDocumentHandler(documentService, identityService, userRepository, logger)
	postHandler := handlers.NewPostHandler(postRepository, logger)
	eventHandler := handlers.NewEventHandler(eventRepository, logger)
	userHandler := handlers.NewUserHandler(userRepository, postRepository, eventRepository, pastStaffRepository, cfg.Security.BcryptCost, logger)
	statsHandler := handlers.NewStatsHandler(discordClient, cfg.Discord.GuildID, logger)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Security.EnableRequestLog {
		router.Use(middleware.RequestLogger(logger))
	}

	// CORS configuration
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// One request budget shared by all public endpoints per client IP.
	perWindow := rate.Limit(float64(cfg.RateLimit.Requests) / float64(cfg.RateLimit.WindowSeconds))
	ipLimiter := middleware.NewIPRateLimiter(perWindow, cfg.RateLimit.Requests)
	router.Use(middleware.RateLimitMiddleware(ipLimiter))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	api := router.Group("/api")
	{
		// Local account authentication
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/register", authHandler.Register)

			protected := auth.Group("")
			protected.Use(middleware.AuthMiddleware(jwtService, logger))
			{
				protected.GET("/me", authHandler.Me)
				protected.POST("/change-password", authHandler.ChangePassword)
			}
		}

		// Discord OAuth login flow
		discordAuth := api.Group("/discord-auth")
		{
			discordAuth.GET("/login", discordAuthHandler.Begin)
			discordAuth.GET("/callback", discordAuthHandler.Callback)
			discordAuth.GET("/verify", middleware.AuthMiddleware(jwtService, logger), discordAuthHandler.Verify)
		}

		// Staff roster routes. The roster carries PlayFab ids and
		// internal notes, so the whole group is staff-only.
		staff := api.Group("/staff")
		staff.Use(middleware.AuthMiddleware(jwtService, logger), middleware.RequireRole(models.RoleStaff, models.RoleAdmin))
		{
			staff.GET("/roster", staffHandler.Roster)
			staff.GET("/server-roles", staffHandler.ServerRoles)
			staff.GET("/search-members", staffHandler.SearchMembers)
			staff.GET("/debug-members", staffHandler.DebugMembers)
			staff.POST("/clear-cache", staffHandler.ClearCache)
			staff.POST("/add-role", staffHandler.AddRole)
			staff.DELETE("/remove-role", staffHandler.RemoveRole)
			staff.POST("/change-rank", staffHandler.ChangeRank)
			staff.PUT("/update-staff", staffHandler.UpdateStaff)
			staff.POST("/add-past-staff", staffHandler.AddPastStaff)
			staff.PUT("/past-staff/:discordID", staffHandler.UpdatePastStaff)
			staff.DELETE("/past-staff/:discordID", staffHandler.RemovePastStaff)
		}

		// Staff document routes (all protected; access levels enforced
		// per document)
		documents := api.Group("/staff-documents")
		documents.Use(middleware.AuthMiddleware(jwtService, logger), middleware.RequireRole(models.RoleStaff, models.RoleAdmin))
		{
			documents.GET("", documentHandler.List)
			documents.GET("/categories/list", documentHandler.Categories)
			documents.GET("/:id", documentHandler.Get)
			documents.POST("", documentHandler.Create)
			documents.PUT("/:id", documentHandler.Update)
			documents.DELETE("/:id", documentHandler.Delete)
		}

		// News posts. Reads are public, writes need auth.
		posts := api.Group("/posts")
		{
			posts.GET("", postHandler.List)
			posts.GET("/:id", postHandler.Get)

			postsProtected := posts.Group("")
			postsProtected.Use(middleware.AuthMiddleware(jwtService, logger))
			{
				postsProtected.POST("", postHandler.Create)
				postsProtected.PUT("/:id", postHandler.Update)
				postsProtected.DELETE("/:id", postHandler.Delete)
			}
		}

		// Community events. Reads are public, writes need auth.
		events := api.Group("/events")
		{
			events.GET("", eventHandler.List)
			events.GET("/:id", eventHandler.Get)

			eventsProtected := events.Group("")
			eventsProtected.Use(middleware.AuthMiddleware(jwtService, logger))
			{
				eventsProtected.POST("", eventHandler.Create)
				eventsProtected.PUT("/:id", eventHandler.Update)
				eventsProtected.DELETE("/:id", eventHandler.Delete)
			}
		}

		// Live Discord server statistics
		stats := api.Group("/discord-stats")
		{
			stats.GET("/server-stats", statsHandler.ServerStats)
			stats.GET("/test", statsHandler.Ping)

			statsProtected := stats.Group("")
			statsProtected.Use(middleware.AuthMiddleware(jwtService, logger))
			{
				statsProtected.GET("/recent-activity", statsHandler.RecentActivity)
			}
		}

		// Account administration (admin only)
		users := api.Group("/users")
		users.Use(middleware.AuthMiddleware(jwtService, logger), middleware.RequireAdmin())
		{
			users.GET("", userHandler.List)
			users.GET("/stats/overview", userHandler.Overview)
			users.GET("/:id", userHandler.Get)
			users.POST("", userHandler.Create)
			users.PUT("/:id", userHandler.Update)
			users.PATCH("/:id/role", userHandler.UpdateRole)
			users.DELETE("/:id", userHandler.Delete)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// roleMappings converts configured rank mappings into the Discord
// package's form.
func roleMappings(mappings []config.RoleMapping) []discord.RoleMapping {
	out := make([]discord.RoleMapping, 0, len(mappings))
	for _, m := range mappings {
		out = append(out, discord.RoleMapping{
			RoleID: m.RoleID,
			Name:   m.Name,
			Level:  m.Level,
		})
	}
	return out
}

// seedAdminUser creates the initial admin account when the users table
// is empty. The password comes from DEFAULT_ADMIN_PASSWORD; nothing is
// seeded without it.
func seedAdminUser(users *database.UserRepository, bcryptCost int, logger *logrus.Logger) error {
	count, err := users.CountUsers()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	password := os.Getenv("DEFAULT_ADMIN_PASSWORD")
	if password == "" {
		logger.Warn("No users exist and DEFAULT_ADMIN_PASSWORD is unset, skipping admin seed")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return err
	}

	if _, err := users.CreateLocalUser("admin", "admin@dansduels.net", string(hash), "admin"); err != nil {
		return err
	}

	logger.Info("Seeded initial admin account")
	return nil
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		dbStatus := "healthy"
		if err := db.Ping(); err != nil {
			dbStatus = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": dbStatus,
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  dbStatus,
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
