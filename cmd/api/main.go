package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/palparty/backend/docs"
	"github.com/palparty/backend/internal/auth"
	"github.com/palparty/backend/internal/bot"
	"github.com/palparty/backend/internal/comment"
	"github.com/palparty/backend/internal/config"
	"github.com/palparty/backend/internal/database"
	"github.com/palparty/backend/internal/event"
	"github.com/palparty/backend/internal/media"
	"github.com/palparty/backend/internal/scheduler"
	"github.com/palparty/backend/internal/user"
	mw "github.com/palparty/backend/pkg/middleware"
)

// @title           PalParty API
// @version         1.0
// @description     Social event-coordination backend.
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	// Initialize database connection
	db, err := database.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db, cfg.MigrationsDir); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	slog.Info("connected to database")

	// Media storage
	var storage media.Storage = media.Noop{}
	if cfg.CloudinaryURL != "" {
		cloudinaryStorage, err := media.NewCloudinary(cfg.CloudinaryURL, cfg.MediaFolder)
		if err != nil {
			log.Fatalf("Failed to init media storage: %v", err)
		}
		storage = cloudinaryStorage
	} else {
		slog.Warn("no CLOUDINARY_URL configured, image uploads are disabled")
	}

	// Lifecycle scheduler
	sched := scheduler.New()
	defer sched.Stop()

	// User feature
	userRepo := user.NewRepository(db)
	userService := user.NewService(userRepo, storage)

	// Auth feature
	authService := auth.NewService(userRepo, cfg.JWTSecret, cfg.TokenTTL)
	authHandler := auth.NewHandler(authService, userService)

	// Comment feature (event source injected below through the event service)
	commentRepo := comment.NewRepository(db)

	// Event feature
	eventRepo := event.NewRepository(db)
	eventService := event.NewService(eventRepo, commentRepo, sched, storage)

	commentService := comment.NewService(commentRepo, eventService)
	commentHandler := comment.NewHandler(commentService)

	userHandler := user.NewHandler(userService)
	eventHandler := event.NewHandler(eventService)

	// Re-register lifecycle timers lost on restart
	if err := eventService.RecoverSchedules(context.Background()); err != nil {
		log.Fatalf("Failed to recover event schedules: %v", err)
	}

	// Telegram collaborator
	if cfg.TelegramBotToken != "" {
		telegramBot, err := bot.New(cfg.TelegramBotToken, authService, userService, eventService)
		if err != nil {
			log.Fatalf("Failed to init telegram bot: %v", err)
		}
		go func() {
			if err := telegramBot.Run(); err != nil {
				slog.Error("telegram bot stopped", "error", err)
			}
		}()
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/auth", authHandler.Routes())

		// Every protected route requires an authenticated PERSON caller
		r.Group(func(r chi.Router) {
			r.Use(mw.Authenticator(authService, userService))
			r.Use(mw.RequireRole(string(user.RolePerson)))

			r.Mount("/profile", userHandler.Routes())
			r.Mount("/events", eventHandler.Routes())
			r.Mount("/comments", commentHandler.Routes())
		})
	})

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	slog.Info("server starting", "port", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

// setupLogging configures the process-wide structured logger
func setupLogging(level string) {
	logLevel := slog.LevelInfo
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
}
