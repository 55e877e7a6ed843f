package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/config"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/database"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/events"
	httpapi "github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/http"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/logger"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/redisutil"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/repository"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/service"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/store"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "medtrack-api")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting medtrack-api service")

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

	// Repositories
	usersRepo := repository.NewPostgresUsersRepository(db)
	patientsRepo := repository.NewPostgresPatientsRepository(db)
	medicationsRepo := repository.NewPostgresMedicationsRepository(db)
	intakesRepo := repository.NewPostgresIntakesRepository(db)
	labResultsRepo := repository.NewPostgresLabResultsRepository(db)
	chatsRepo := repository.NewPostgresChatsRepository(db)
	notificationsRepo := repository.NewPostgresNotificationsRepository(db)
	historyRepo := repository.NewPostgresHistoryRepository(db)
	reconcilerRepo := repository.NewPostgresReconcilerRepository(db)

	// Event publisher: document-event stream plus live pub/sub fan-out.
	publisher := events.NewRedisPublisher(redisClient, cfg.Events.Stream, log)

	// Services
	sessions := store.NewRedisKV(redisClient)
	authService := service.NewAuthService(usersRepo, patientsRepo, sessions, cfg.Session.TTL, log)
	patientService := service.NewPatientService(patientsRepo, usersRepo, historyRepo, log)
	doctorService := service.NewDoctorService(usersRepo, log)
	medicationService := service.NewMedicationService(medicationsRepo, usersRepo, publisher, log)
	intakeService := service.NewIntakeService(intakesRepo, medicationsRepo, log)
	labService := service.NewLabService(labResultsRepo, publisher, log)
	chatService := service.NewChatService(chatsRepo, publisher, log)
	notificationService := service.NewNotificationService(notificationsRepo, log)
	dashboardService := service.NewDashboardService(patientsRepo, medicationsRepo, intakesRepo, chatsRepo, log)
	reconciler := service.NewReconciler(medicationsRepo, reconcilerRepo, log)

	// Background sweep so medications expire even while nobody is logged in.
	go reconciler.Run(ctx, cfg.Reconciler.Interval)

	// HTTP layer
	authMiddleware := httpapi.NewAuthMiddleware(authService, log)
	router := httpapi.NewRouter(log)
	router.RegisterAuthRoutes(httpapi.NewAuthHandler(authService, log), authMiddleware)
	router.RegisterPatientRoutes(httpapi.NewPatientHandler(patientService, log), authMiddleware)
	router.RegisterDoctorRoutes(httpapi.NewDoctorHandler(doctorService, log), authMiddleware)
	router.RegisterMedicationRoutes(httpapi.NewMedicationHandler(medicationService, log), authMiddleware)
	router.RegisterIntakeRoutes(httpapi.NewIntakeHandler(intakeService, reconciler, log), authMiddleware)
	router.RegisterLabRoutes(httpapi.NewLabHandler(labService, log), authMiddleware)
	router.RegisterChatRoutes(httpapi.NewChatHandler(chatService, log), authMiddleware)
	router.RegisterNotificationRoutes(httpapi.NewNotificationHandler(notificationService, log), authMiddleware)
	router.RegisterDashboardRoutes(httpapi.NewDashboardHandler(dashboardService, log), authMiddleware)
	router.RegisterLiveRoutes(httpapi.NewLiveHandler(redisClient, log), authMiddleware)

	server := service.NewServer(cfg.HTTP.Addr, router, log)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info("Received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-errChan:
		log.Error("Server error", zap.Error(err))
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping server", zap.Error(err))
	}

	log.Info("Service stopped")
}
