package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/thalib/veil/cmd/veil/internal/config"
	"github.com/thalib/veil/cmd/veil/internal/constants"
	"github.com/thalib/veil/cmd/veil/internal/database"
	"github.com/thalib/veil/cmd/veil/internal/logging"
	"github.com/thalib/veil/cmd/veil/internal/preflight"
	"github.com/thalib/veil/cmd/veil/internal/stream"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "", "path to configuration file (default: /etc/veil.conf)")
	table := flag.String("table", "", "table to export (overrides export.table)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("veil %s\n", config.Version())
		return
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *table != "" {
		cfg.Export.Table = *table
	}

	// Run preflight checks before any other initialization
	if err := runPreflightChecks(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Preflight checks failed: %v\n", err)
		os.Exit(1)
	}

	// The redaction stage is always installed in the logger; every emitted
	// line passes through it before reaching stdout or the log file.
	logFile := filepath.Join(cfg.Logging.Path, "main.log")
	if cfg.Logging.Truncate {
		if err := preflight.CreateOrTruncateFile(logFile); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to truncate log file: %v\n", err)
			os.Exit(1)
		}
	}
	logger := logging.NewLogger(logging.LoggerConfig{
		Level:              logging.Level(cfg.Logging.Level),
		Format:             cfg.Logging.Format,
		FilePath:           logFile,
		DualOutput:         true,
		ServiceName:        "veil",
		SensitiveFields:    cfg.Logging.AdditionalSensitiveFields,
		SlowQueryThreshold: time.Duration(cfg.Database.SlowQueryThreshold) * time.Millisecond,
	})

	logger.Infof("veil %s starting", config.Version())
	logger.Infof("Database: %s", cfg.Database.Redacted())
	logger.Infof("Export table: %s", cfg.Export.Table)

	// Stop between rows on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.ErrorWithErr("Export failed", err)
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		os.Exit(1)
	}
}

// run connects to the row source, verifies the export table and streams it.
func run(ctx context.Context, cfg *config.AppConfig, logger *logging.Logger) error {
	driver, err := database.NewDriver(database.Config{
		ConnectionString: cfg.Database.ConnectionString(),
	})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, constants.ConnectTimeout)
	defer cancel()
	if err := driver.Connect(connectCtx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer driver.Close()

	logger.Infof("Connected to %s database", driver.Dialect())

	exists, err := driver.TableExists(ctx, cfg.Export.Table)
	if err != nil {
		return fmt.Errorf("failed to check export table: %w", err)
	}
	if !exists {
		return fmt.Errorf("export table does not exist: %s", cfg.Export.Table)
	}

	streamer := stream.New(driver, logger, stream.Config{
		Table:        cfg.Export.Table,
		QueryTimeout: time.Duration(cfg.Database.QueryTimeout) * time.Second,
	})

	if _, err := streamer.Run(ctx); err != nil {
		return fmt.Errorf("export run failed: %w", err)
	}

	return nil
}

// runPreflightChecks validates and creates required directories
func runPreflightChecks(cfg *config.AppConfig) error {
	checks := []preflight.Check{
		{Path: cfg.Logging.Path, Dir: true},
	}

	// For SQLite, the database file's parent directory must exist.
	if cfg.Database.Connection == "sqlite" && cfg.Database.Database != ":memory:" {
		checks = append(checks, preflight.Check{
			Path: filepath.Dir(cfg.Database.Database),
			Dir:  true,
		})
	}

	results, err := preflight.Ensure(checks)
	if err != nil {
		return err
	}

	for _, result := range results {
		if result.Created {
			fmt.Printf("✓ Created: %s\n", result.Path)
		}
	}

	return nil
}
