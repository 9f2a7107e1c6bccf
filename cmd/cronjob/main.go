package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	_ "github.com/lib/pq"

	"vacation-rental-backend/internal/clock"
	"vacation-rental-backend/internal/config"
	"vacation-rental-backend/internal/jobs"
	"vacation-rental-backend/internal/lock"
	"vacation-rental-backend/internal/logger"
	"vacation-rental-backend/internal/repository/postgres"
	"vacation-rental-backend/internal/scheduler"
	"vacation-rental-backend/internal/service"
	"vacation-rental-backend/internal/storage"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit ('status-sweep' or 'daily-report')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Vacation Rental Cronjob Runner...", "log_level", cfg.Log.Level, "timezone", cfg.Scheduler.Timezone)

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
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

	files, err := storage.NewLocalStorage(storage.Config{Dir: cfg.Storage.Dir, BaseURL: cfg.Storage.BaseURL})
	if err != nil {
		logger.Error("Failed to initialize file storage", "error", err)
		log.Fatalf("Failed to initialize file storage: %v", err)
	}

	// Initialize Services
	invoiceService := service.NewInvoiceService(
		store.ReservationRepository,
		store.PaymentRepository,
		files,
		service.CompanyInfo{Name: cfg.Company.Name, Address: cfg.Company.Address, TaxID: cfg.Company.TaxID},
		clk,
	)
	emailService := service.NewEmailService(service.EmailOptions{
		APIKey:      cfg.Email.SendGridAPIKey,
		FromEmail:   cfg.Email.From,
		FromName:    cfg.Email.FromName,
		AdminEmail:  cfg.Email.AdminEmail,
		CompanyName: cfg.Company.Name,
		Enabled:     cfg.Email.Enabled,
	}, invoiceService, store.NotificationRepository)
	reportService := service.NewReportService(store.ReservationRepository, store.PaymentRepository)

	jobServices := &jobs.Services{
		Email:   emailService,
		Reports: reportService,
	}

	// Initialize Job Runner
	sweeper := jobs.NewStatusSweeper(store.ReservationRepository, emailService, clk)
	jobRunner := jobs.NewJobRunner(sweeper, jobServices, clk)

	runLock, closeLock := newRunLock(cfg)
	defer closeLock()

	// Initialize Scheduler
	cronScheduler, err := scheduler.NewScheduler(jobRunner, runLock, cfg.Scheduler)
	if err != nil {
		logger.Error("Failed to initialize scheduler", "error", err)
		log.Fatalf("Failed to initialize scheduler: %v", err)
	}

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		if err := runJobOnce(context.Background(), cronScheduler, *runOnce); err != nil {
			logger.Error("Job execution failed", "job", *runOnce, "error", err)
			os.Exit(1)
		}
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(ctx context.Context, s *scheduler.Scheduler, jobName string) error {
	switch jobName {
	case "status-sweep":
		result, err := s.RunOnce(ctx)
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		for _, t := range result.Transitions {
			fmt.Printf("  reservation %d: %s -> %s (notified: %t)\n", t.ReservationID, t.PreviousStatus, t.NewStatus, t.Notified)
		}
		return nil
	case "daily-report":
		return s.RunDailyReport(ctx)
	default:
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - status-sweep\n")
		fmt.Printf("  - daily-report\n")
		return fmt.Errorf("unknown job name %q", jobName)
	}
}

// newRunLock matches the server's lock so a manual sweep and a scheduled one
// never overlap.
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
	ttl := time.Duration(cfg.Redis.LockTTL) * time.Second
	return lock.Chain(local, lock.NewRedisRunLock(client, fmt.Sprintf("vacation-rental:%s:", cfg.Database.Database), ttl)), func() {
		if err := client.Close(); err != nil {
			logger.Error("Failed to close Redis client", "error", err)
		}
	}
}
