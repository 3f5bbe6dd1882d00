package main

import (
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib"

	"skill-marketplace/internal/api"
	"skill-marketplace/internal/config"
	"skill-marketplace/internal/notifier"
	"skill-marketplace/internal/repository"
)

func main() {
	cfg := config.Load()

	api.SetupGlobalHandler(cfg.ServiceName + "-notifier")

	pusher, err := notifier.NewPusher(cfg.APNS)
	if err != nil {
		log.Fatalf("Failed to initialize APNs client: %v", err)
	}

	db, err := sqlx.Connect("pgx", cfg.DB.URL())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	worker := notifier.NewWorker(
		pusher,
		repository.NewPostgresUserRepository(db),
		notifier.NewSettingsPreferences(repository.NewPostgresSettingsRepository(db)),
		cfg.APNS.Topic,
	)
	if err := worker.Start(cfg.NATS.URL); err != nil {
		log.Fatalf("Failed to start worker: %v", err)
	}
	defer worker.Close()

	slog.Info("Notification worker started, waiting for events")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down notification worker")
}
