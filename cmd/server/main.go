package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/dimitryivaniuta/contactdir/internal/api"
	"github.com/dimitryivaniuta/contactdir/internal/config"
	"github.com/dimitryivaniuta/contactdir/internal/contact"
	"github.com/dimitryivaniuta/contactdir/internal/pkg/logger"
	"github.com/dimitryivaniuta/contactdir/internal/store/memory"
	"github.com/dimitryivaniuta/contactdir/internal/store/postgres"
	"github.com/dimitryivaniuta/contactdir/internal/store/sqlite"
)

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	if cfg.Logging.RedactPII != nil {
		logger.SetRedactPII(*cfg.Logging.RedactPII)
	}

	store, cleanup, err := openStore(cfg.Database)
	if err != nil {
		logger.Error("open store", "driver", cfg.Database.Driver, "error", err.Error())
		os.Exit(1)
	}
	defer cleanup()

	service := contact.NewService(store)
	handlers := api.NewHandlers(service)
	router := api.SetupRoutes(handlers)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr(), "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("listen", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown", "error", err.Error())
	}
	logger.Info("server stopped")
}

// openStore builds the contact store selected by the database config and
// returns it together with its close function.
func openStore(cfg config.DatabaseConfig) (contact.Store, func(), error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := sql.Open("postgres", cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("ping postgres: %w", err)
		}
		return postgres.NewContactStore(db), func() { db.Close() }, nil

	case config.DriverSQLite:
		st, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		return st, func() { st.Close() }, nil

	case config.DriverMemory:
		return memory.New(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
