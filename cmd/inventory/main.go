package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/medtrack/backend/internal/infrastructure/config"
	"github.com/medtrack/backend/internal/infrastructure/logger"
	"github.com/medtrack/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// Parse flags
	var (
		configPath string
		hospitalID string
		logLevel   string
		out        string
		list       listOptions
	)

	flag.StringVar(&configPath, "config", "", "Path to a TOML config file (default: ./config.toml when present)")
	flag.StringVar(&hospitalID, "hospital", "", "Hospital id (default: inventory.hospital_id)")
	flag.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default: log.level)")
	flag.StringVar(&out, "out", "", "Write command output to this file")
	flag.StringVar(&list.Filter, "filter", "", "list: all, critical or lowStock")
	flag.StringVar(&list.Search, "search", "", "list: match name, serial number or manufacturer")
	flag.StringVar(&list.Category, "category", "", "list: only this category")
	flag.StringVar(&list.SortBy, "sort", "", "list: name, quantity or category")
	flag.StringVar(&list.Direction, "order", "", "list: asc or desc")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	// Load configuration
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	// Initialize logger
	log, err := logger.NewForEnvironment(cfg.App.Env, &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	if command == "hospitals" {
		if err := listHospitals(cfg, os.Stdout); err != nil {
			log.Fatal("Failed to list hospitals", zap.Error(err))
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize telemetry
	tp, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	mp, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	lp, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	log = lp.Bridge(log, zapcore.InfoLevel)
	defer func() {
		shutdownCtx := context.Background()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn("Tracer provider shutdown failed", zap.Error(err))
		}
		if err := mp.Shutdown(shutdownCtx); err != nil {
			log.Warn("Meter provider shutdown failed", zap.Error(err))
		}
		if err := lp.Shutdown(shutdownCtx); err != nil {
			log.Warn("Logger provider shutdown failed", zap.Error(err))
		}
	}()

	metrics, err := telemetry.NewInventoryMetrics(mp.Meter(telemetry.TracerName))
	if err != nil {
		log.Fatal("Failed to create inventory metrics", zap.Error(err))
	}

	a, err := newApp(ctx, cfg, hospitalID, metrics, log)
	if err != nil {
		log.Fatal("Failed to open inventory", zap.Error(err))
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("Failed to close storage", zap.Error(err))
		}
	}()

	log.Debug("Inventory CLI started",
		zap.String("command", command),
		zap.String("hospital_id", a.store.HospitalID()),
		zap.String("storage_driver", cfg.Storage.Driver),
	)

	if err := a.run(ctx, command, out, os.Stdout, list); err != nil {
		log.Error("Command failed", zap.String("command", command), zap.Error(err))
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`MedTrack Inventory Tool

Usage:
  inventory [flags] <command>

Commands:
  stats       Show totals, critical and low-stock counts
  list        List assets (see -filter, -search, -category, -sort, -order)
  export      Write the working set as CSV
  archive     Upload a CSV export to object storage and print a download link
  seed        Load assets, generating sample data when the repository is empty
  load        Alias for seed
  reset       Remove every asset of the hospital
  metrics     Write stock gauges in Prometheus textfile format to -out
  hospitals   List the available hospital configurations

Flags:
  -config string     Path to a TOML config file
  -hospital string   Hospital id (default: inventory.hospital_id)
  -log-level string  Log level: debug, info, warn, error
  -out string        Write command output to this file
  -filter string     all, critical or lowStock
  -search string     Case-insensitive match on name, serial number, manufacturer
  -category string   Only this category
  -sort string       name, quantity or category
  -order string      asc or desc

Environment Variables:
  MEDTRACK_STORAGE_DRIVER, MEDTRACK_STORAGE_SQLITE_PATH, MEDTRACK_INVENTORY_HOSPITAL_ID,
  MEDTRACK_DATABASE_HOST, MEDTRACK_REDIS_HOST, MEDTRACK_OBJECT_STORAGE_ENABLED

Examples:
  # Seed and summarize the default hospital in a local SQLite file
  inventory seed
  inventory stats

  # Critical assets of another hospital, largest quantities first
  inventory -hospital riverside -filter critical -sort quantity -order desc list

  # CSV export to a file
  inventory -out assets.csv export`)
}
