package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/config"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/database"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/logger"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/notifier"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/redisutil"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/repository"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "medtrack-notifier")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting medtrack-notifier service")

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	redisClient := redisutil.NewClient(&cfg.Redis)
	defer redisutil.Close(redisClient)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := redisutil.Ping(ctx, redisClient); err != nil {
		log.Fatal("Failed to connect to redis", zap.Error(err))
	}

	usersRepo := repository.NewPostgresUsersRepository(db)
	notificationsRepo := repository.NewPostgresNotificationsRepository(db)
	push := notifier.NewFCMClient(cfg.Push.Endpoint, cfg.Push.ServerKey, cfg.Push.Timeout, log)

	handler := notifier.NewHandler(usersRepo, notificationsRepo, push, log)
	consumer := notifier.NewConsumer(
		redisClient,
		handler,
		cfg.Events.Stream,
		cfg.Events.Group,
		cfg.Events.Consumer,
		cfg.Events.BatchSize,
		log,
	)

	errChan := make(chan error, 1)
	go func() {
		errChan <- consumer.Run(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info("Received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
		<-errChan
	case err := <-errChan:
		if err != nil && err != context.Canceled {
			log.Error("Consumer error", zap.Error(err))
		}
	}

	log.Info("Service stopped")
}
