package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	httpapi "vacation-rental-backend/internal/api/http"
	"vacation-rental-backend/internal/clock"
	"vacation-rental-backend/internal/config"
	"vacation-rental-backend/internal/jobs"
	"vacation-rental-backend/internal/lock"
	"vacation-rental-backend/internal/logger"
	"vacation-rental-backend/internal/repository/postgres"
	"vacation-rental-backend/internal/scheduler"
	"vacation-rental-backend/internal/security"
	"vacation-rental-backend/internal/service"
	"vacation-rental-backend/internal/storage"

	_ "github.com/lib/pq"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	noScheduler := flag.Bool("no-scheduler", false, "Do not run scheduled jobs in this process (use cmd/cronjob instead)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Vacation Rental Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
	logger.Info("Email configuration", "enabled", cfg.Email.Enabled, "from", cfg.Email.From)
	logger.Info("Scheduler configuration", "timezone", cfg.Scheduler.Timezone, "reservation_status", cfg.Scheduler.ReservationStatus)

	// Initialize Database
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)
	clk := clock.System(cfg.Location())

	// Initialize Storage
	files, err := storage.NewLocalStorage(storage.Config{Dir: cfg.Storage.Dir, BaseURL: cfg.Storage.BaseURL})
	if err != nil {
		logger.Error("Failed to initialize file storage", "error", err)
		log.Fatalf("Failed to initialize file storage: %v", err)
	}

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.AccessTokenTTL())

	// Initialize Services
	invoiceSvc := service.NewInvoiceService(
		store.ReservationRepository,
		store.PaymentRepository,
		files,
		service.CompanyInfo{Name: cfg.Company.Name, Address: cfg.Company.Address, TaxID: cfg.Company.TaxID},
		clk,
	)
	emailSvc := service.NewEmailService(service.EmailOptions{
		APIKey:      cfg.Email.SendGridAPIKey,
		FromEmail:   cfg.Email.From,
		FromName:    cfg.Email.FromName,
		AdminEmail:  cfg.Email.AdminEmail,
		CompanyName: cfg.Company.Name,
		Enabled:     cfg.Email.Enabled,
	}, invoiceSvc, store.NotificationRepository)

	// Payment and reservation changes on one reservation share a lock
	reservationLocks := lock.NewKeyedMutex()
	paymentSvc := service.NewPaymentService(store, store.ReservationRepository, store.PaymentRepository, emailSvc, clk, reservationLocks)
	reservationSvc := service.NewReservationService(store, store.ReservationRepository, store.ApartmentRepository, reservationLocks)
	reportSvc := service.NewReportService(store.ReservationRepository, store.PaymentRepository)
	authSvc := service.NewAuthService(store.UserRepository, tokenManager)
	userSvc := service.NewUserService(store.UserRepository)
	apartmentSvc := service.NewApartmentService(store.ApartmentRepository)
	noteSvc := service.NewNotificationService(store.NotificationRepository)

	// Initialize Scheduler
	runLock, closeLock := newRunLock(cfg)
	defer closeLock()

	sweeper := jobs.NewStatusSweeper(store.ReservationRepository, emailSvc, clk)
	jobRunner := jobs.NewJobRunner(sweeper, &jobs.Services{Email: emailSvc, Reports: reportSvc}, clk)
	cronScheduler, err := scheduler.NewScheduler(jobRunner, runLock, cfg.Scheduler)
	if err != nil {
		logger.Error("Failed to initialize scheduler", "error", err)
		log.Fatalf("Failed to initialize scheduler: %v", err)
	}
	if !*noScheduler {
		cronScheduler.Start()
	}

	// Set up HTTP server
	router := httpapi.NewRouter(&httpapi.Services{
		Auth:          authSvc,
		Users:         userSvc,
		Apartments:    apartmentSvc,
		Reservations:  reservationSvc,
		Payments:      paymentSvc,
		Invoices:      invoiceSvc,
		Reports:       reportSvc,
		Notifications: noteSvc,
		Sweeper:       cronScheduler,
		Files:         files,
		Clock:         clk,
	}, tokenManager)

	srv := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down server...")
	if cronScheduler.IsRunning() {
		cronScheduler.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	logger.Info("Server stopped. Goodbye!")
}

// newRunLock guards scheduled jobs within this process and, when Redis is
// configured, across every process sharing the database.
func newRunLock(cfg *config.Config) (lock.RunLock, func()) {
	local := lock.NewLocalRunLock()
	if cfg.Redis.Addr == "" {
		return local, func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	logger.Info("Using Redis run lock", "addr", cfg.Redis.Addr)
	ttl := time.Duration(cfg.Redis.LockTTL) * time.Second
	return lock.Chain(local, lock.NewRedisRunLock(client, fmt.Sprintf("vacation-rental:%s:", cfg.Database.Database), ttl)), func() {
		if err := client.Close(); err != nil {
			logger.Error("Failed to close Redis client", "error", err)
		}
	}
}
