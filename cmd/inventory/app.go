package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/medtrack/backend/internal/application/inventory"
	"github.com/medtrack/backend/internal/domain/asset"
	"github.com/medtrack/backend/internal/domain/shared"
	"github.com/medtrack/backend/internal/infrastructure/config"
	"github.com/medtrack/backend/internal/infrastructure/event"
	"github.com/medtrack/backend/internal/infrastructure/kvstore"
	"github.com/medtrack/backend/internal/infrastructure/logger"
	"github.com/medtrack/backend/internal/infrastructure/persistence"
	"github.com/medtrack/backend/internal/infrastructure/storage"
	"github.com/medtrack/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// listColumns are the fields printed by the list command
var listColumns = []struct {
	title string
	field string
}{
	{"NAME", asset.FieldName},
	{"CATEGORY", asset.FieldCategory},
	{"QTY", asset.FieldQuantity},
	{"SERIAL", asset.FieldSerialNumber},
	{"LEVEL", asset.FieldCriticalLevel},
	{"LOCATION", asset.FieldLocation},
	{"CONDITION", asset.FieldCondition},
}

// listOptions narrows and orders the list command output
type listOptions struct {
	Filter    string
	Search    string
	Category  string
	SortBy    string
	Direction string
}

// app is one wired inventory store plus the resources it owns
type app struct {
	log   *zap.Logger
	kv    kvstore.Store
	repo  *persistence.AssetRepository[*asset.HospitalAsset]
	store *inventory.Store
}

// newApp opens the configured key-value store and builds the inventory store
// for hospitalID on top of it. metrics may be nil.
func newApp(ctx context.Context, cfg *config.Config, hospitalID string, metrics *telemetry.InventoryMetrics, log *zap.Logger) (*app, error) {
	registry, err := config.LoadHospitals(cfg.Inventory.HospitalConfigDir)
	if err != nil {
		return nil, err
	}
	if hospitalID == "" {
		hospitalID = cfg.Inventory.HospitalID
	}
	hospitalCfg, err := registry.Get(hospitalID)
	if err != nil {
		return nil, err
	}

	kv, err := kvstore.Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	repo := persistence.NewAssetRepository[*asset.HospitalAsset](ctx, kv,
		asset.HospitalDecoder(hospitalCfg),
		persistence.WithKeyPrefix(cfg.Storage.KeyPrefix),
		persistence.WithHospitalID(hospitalCfg.ID),
		persistence.WithRepositoryLogger(log),
	)

	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(event.NewLoggingHandler(log))

	archive, err := storage.Open(ctx, &cfg.ObjectStorage, log)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}

	store := inventory.NewStore(repo, hospitalCfg,
		inventory.WithLogger(log),
		inventory.WithEventPublisher(bus),
		inventory.WithArchiveStorage(archive, cfg.ObjectStorage.ArchivePrefix),
		inventory.WithArchiveExpiry(cfg.ObjectStorage.PresignExpiry),
		inventory.WithMetrics(metrics),
		inventory.WithSampleSize(cfg.Inventory.SampleSize),
		inventory.WithSeedBatchSize(cfg.Inventory.SeedBatchSize),
	)

	return &app{
		log:   log,
		kv:    kv,
		repo:  repo,
		store: store,
	}, nil
}

// Close releases the key-value store
func (a *app) Close() error {
	return a.kv.Close()
}

// load fills the working set, seeding an empty repository
func (a *app) load(ctx context.Context) error {
	if err := a.store.LoadAssets(ctx); err != nil {
		return err
	}
	if res := a.store.LastWrite(); res.Outcome == shared.WriteInMemory {
		logger.FromContext(ctx).Warn("Sample assets were not persisted", zap.Error(res.Err))
	}
	return nil
}

func (a *app) stats(ctx context.Context, w io.Writer) error {
	if err := a.load(ctx); err != nil {
		return err
	}
	stats := a.store.Statistics()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Hospital:\t%s\n", a.store.Hospital().Name)
	fmt.Fprintf(tw, "Total assets:\t%d\n", stats.TotalAssets)
	fmt.Fprintf(tw, "Total value:\t%s\n", stats.TotalValue.StringFixed(2))
	fmt.Fprintf(tw, "Critical:\t%d\n", stats.CriticalCount)
	fmt.Fprintf(tw, "Low stock:\t%d\n", stats.LowStockCount)
	fmt.Fprintf(tw, "Categories:\t%d\n", stats.CategoriesCount)
	return tw.Flush()
}

func (a *app) list(ctx context.Context, w io.Writer, opts listOptions) error {
	if err := a.load(ctx); err != nil {
		return err
	}
	if opts.Filter != "" {
		if err := a.store.SetActiveFilter(inventory.Filter(opts.Filter)); err != nil {
			return err
		}
	}
	if opts.SortBy != "" || opts.Direction != "" {
		view := a.store.View()
		sortBy, dir := view.SortBy, view.SortDirection
		if opts.SortBy != "" {
			sortBy = inventory.SortField(opts.SortBy)
		}
		if opts.Direction != "" {
			dir = inventory.SortDirection(opts.Direction)
		}
		if err := a.store.SetSort(sortBy, dir); err != nil {
			return err
		}
	}
	a.store.SetSearchQuery(opts.Search)
	a.store.SetCategory(opts.Category)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, col := range listColumns {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, col.title)
	}
	fmt.Fprintln(tw)
	for _, item := range a.store.FilteredAssets() {
		for i, col := range listColumns {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, item.DisplayValue(col.field))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func (a *app) export(ctx context.Context, w io.Writer) error {
	if err := a.load(ctx); err != nil {
		return err
	}
	_, err := io.WriteString(w, a.store.ExportToCSV())
	return err
}

func (a *app) archive(ctx context.Context, w io.Writer) error {
	if err := a.load(ctx); err != nil {
		return err
	}
	archive, err := a.store.ArchiveExport(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Key:\t%s\n", archive.Key)
	fmt.Fprintf(tw, "Rows:\t%d\n", archive.Rows)
	fmt.Fprintf(tw, "Bytes:\t%d\n", archive.Bytes)
	fmt.Fprintf(tw, "URL:\t%s\n", archive.URL)
	fmt.Fprintf(tw, "Expires:\t%s\n", archive.ExpiresAt.UTC().Format("2006-01-02 15:04:05 MST"))
	return tw.Flush()
}

func (a *app) seed(ctx context.Context, w io.Writer) error {
	if err := a.load(ctx); err != nil {
		return err
	}
	res := a.store.LastWrite()
	durability := "durable"
	if res.Outcome == shared.WriteInMemory {
		durability = "in memory only"
	}
	_, err := fmt.Fprintf(w, "%d assets loaded (%s)\n", len(a.store.Assets()), durability)
	return err
}

func (a *app) reset(ctx context.Context, w io.Writer) error {
	n, res := a.repo.DeleteAll(ctx)
	if !res.Committed() {
		return fmt.Errorf("reset inventory: %w", res.Err)
	}
	if !res.Durable() {
		logger.FromContext(ctx).Warn("Reset kept in memory only", zap.Error(res.Err))
	}
	_, err := fmt.Fprintf(w, "%d assets removed\n", n)
	return err
}

func (a *app) writeMetrics(ctx context.Context, w io.Writer, path string) error {
	if path == "" {
		return errors.New("metrics requires -out")
	}
	if err := a.load(ctx); err != nil {
		return err
	}
	if err := telemetry.WriteStockTextfile(path, a.store.HospitalID(), a.store.Stock); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Metrics written to %s\n", path)
	return err
}

// run executes one command, writing its output to w or to out when set.
// The context carries the hospital id down to the SQL logger.
func (a *app) run(ctx context.Context, command string, out string, w io.Writer, opts listOptions) error {
	ctx, _ = logger.WithHospitalID(ctx, a.log, a.store.HospitalID())

	if out != "" && command != "metrics" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create %s: %w", out, err)
		}
		defer f.Close()
		w = f
	}

	switch command {
	case "stats":
		return a.stats(ctx, w)
	case "list":
		return a.list(ctx, w, opts)
	case "export":
		return a.export(ctx, w)
	case "archive":
		return a.archive(ctx, w)
	case "seed", "load":
		return a.seed(ctx, w)
	case "reset":
		return a.reset(ctx, w)
	case "metrics":
		return a.writeMetrics(ctx, w, out)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func listHospitals(cfg *config.Config, w io.Writer) error {
	registry, err := config.LoadHospitals(cfg.Inventory.HospitalConfigDir)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tFIELDS\tCATALOG")
	for _, id := range registry.IDs() {
		h, err := registry.Get(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", h.ID, h.Name, len(h.Fields), len(h.Catalog))
	}
	return tw.Flush()
}
