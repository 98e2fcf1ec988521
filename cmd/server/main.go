/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the credit ledger service. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags and environment configuration
  2. Initialize SQLite store
  3. Seed the bootstrap operator account if configured
  4. Configure HTTP router and the optional reminder scheduler
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides PORT)
  -db      SQLite database path (overrides DB_PATH)
           Use ":memory:" for an in-memory database

ENVIRONMENT:
  JWT_SECRET (required), BUSINESS_TZ, LOG_LEVEL, ADMIN_USER,
  ADMIN_PASSWORD, and the SMTP_* / REMINDER_* group for the daily
  collection reminder. See config/config.go.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the reminder scheduler and close the database
  4. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/crediario/credit-engine/api"
	"github.com/crediario/credit-engine/config"
	"github.com/crediario/credit-engine/credit"
	"github.com/crediario/credit-engine/notify"
	"github.com/crediario/credit-engine/store/sqlite"
)

func main() {
	// Logger first; everything else reports through it
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logger.SetLevel(level)
	}

	cfg, err := config.New()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Flags override environment for local runs
	port := flag.String("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	flag.Parse()

	cal, err := credit.NewCalendar(cfg.Timezone)
	if err != nil {
		logger.Fatalf("Failed to load business timezone: %v", err)
	}

	store, err := sqlite.New(*dbPath)
	if err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	if err := api.EnsureAdminUser(context.Background(), store, cfg.AdminUser, cfg.AdminPassword); err != nil {
		logger.Fatalf("Failed to seed admin user: %v", err)
	}

	handler := api.NewHandler(store, store, cal, cfg.JWTSecret, logger)
	router := api.NewRouter(handler)

	// Daily collection reminder, armed only when SMTP is configured
	var reminder *api.ReminderScheduler
	if cfg.ReminderEnabled() {
		sender := notify.NewSender(cfg, logger)
		reminder = api.NewReminderScheduler(store, sender, cal, cfg.ReminderCron, logger)
		if err := reminder.Start(); err != nil {
			logger.Fatalf("Failed to start reminder scheduler: %v", err)
		}
	} else {
		logger.Info("Reminder scheduler disabled: SMTP not configured")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Server starting on :%s", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}
	if reminder != nil {
		reminder.Stop()
	}

	logger.Info("Server stopped")
}
