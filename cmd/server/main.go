package main

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/contrib/otelfiber/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/jackc/pgx/v5/stdlib"

	"skill-marketplace/internal/api"
	"skill-marketplace/internal/config"
	"skill-marketplace/internal/events"
	"skill-marketplace/internal/repository"
	"skill-marketplace/internal/s3"
	"skill-marketplace/internal/service"
	"skill-marketplace/internal/tracing"
	_ "skill-marketplace/migrations"
)

func main() {
	cfg := config.Load()

	api.SetupGlobalHandler(cfg.ServiceName)

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		handleMigrations(cfg.DB.URL())
		return
	}

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	ctx := context.Background()

	shutdownTracer, err := tracing.InitTracerProvider(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize OpenTelemetry: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			slog.Error("Error shutting down tracer provider", "error", err)
		}
	}()

	db := connectDB(cfg.DB.URL())
	defer db.Close()

	eventPublisher, err := events.NewNatsPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer eventPublisher.Close()
	slog.Info("Successfully connected to NATS")

	userRepo := repository.NewPostgresUserRepository(db)
	tokenRepo := repository.NewPostgresTokenRepository(db)
	settingsRepo := repository.NewPostgresSettingsRepository(db)
	sessionRepo := repository.NewPostgresSessionRepository(db)
	bookingRepo := repository.NewPostgresBookingRepository(db)
	ratingRepo := repository.NewPostgresRatingRepository(db)
	auditRepo := repository.NewPostgresAuditRepository(db)

	auditSubscriber, err := events.NewAuditSubscriber(cfg.NATS.URL, auditRepo, cfg.NATS.AuditRetries, cfg.NATS.AuditRetryWait)
	if err != nil {
		// the API keeps serving without an audit trail
		slog.Warn("Failed to start audit subscriber", "error", err)
	} else {
		defer auditSubscriber.Close()
	}

	presigner, err := s3.NewFilePresigner(ctx, cfg.S3)
	if err != nil {
		log.Fatalf("Failed to initialize S3 presigner: %v", err)
	}

	authService := service.NewAuthService(userRepo, tokenRepo)
	userService := service.NewUserService(userRepo, settingsRepo, presigner)
	sessionService := service.NewSessionService(sessionRepo, bookingRepo, eventPublisher, cfg.CategoriesCacheTTL)
	bookingService := service.NewBookingService(bookingRepo, sessionRepo, eventPublisher)
	ratingService := service.NewRatingService(ratingRepo, sessionRepo, bookingRepo, eventPublisher)

	app := fiber.New()
	app.Use(otelfiber.Middleware())
	app.Use(api.PrometheusMiddleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.ServiceName})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api.SetupRoutes(app, api.Handlers{
		Auth:     api.NewAuthHandler(authService),
		User:     api.NewUserHandler(userService),
		Session:  api.NewSessionHandler(sessionService),
		Booking:  api.NewBookingHandler(bookingService),
		Rating:   api.NewRatingHandler(ratingService),
		Internal: api.NewInternalHandler(auditRepo, sessionService),
	}, api.RouteConfig{
		InternalSecret:      cfg.InternalSharedSecret,
		RateLimitMax:        cfg.RateLimitMax,
		RateLimitExpiration: cfg.RateLimitExpiration,
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		slog.Info("Shutting down server")
		if err := app.Shutdown(); err != nil {
			slog.Error("Error during server shutdown", "error", err)
		}
	}()

	slog.Info("Listening", "service", cfg.ServiceName, "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("Server stopped", "error", err)
	}
}

func connectDB(dbURL string) *sqlx.DB {
	db, err := sqlx.Connect("pgx", dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	slog.Info("Successfully connected to the database")
	return db
}

func handleMigrations(dbURL string) {
	slog.Info("Running database migrations")

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		log.Fatalf("failed to connect to database for migration: %v", err)
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("failed to set goose dialect: %v", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		log.Fatalf("goose: failed to run migrations: %v", err)
	}

	slog.Info("Migrations applied successfully")
}
