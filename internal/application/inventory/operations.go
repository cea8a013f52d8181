package inventory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/medtrack/backend/internal/domain/asset"
	"github.com/medtrack/backend/internal/domain/shared"
	"github.com/medtrack/backend/internal/infrastructure/logger"
	"github.com/medtrack/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Operation names used for spans, logs and metrics
const (
	opLoadAssets    = "load_assets"
	opCreateAsset   = "create_asset"
	opUpdateAsset   = "update_asset"
	opDeleteAsset   = "delete_asset"
	opArchiveExport = "archive_export"
)

const outcomeFailed = "failed"

// Fallback messages for errors that carry none
const (
	msgLoadFailed   = "Failed to load assets"
	msgDeleteFailed = "Failed to delete asset"
	msgUnexpected   = "An unexpected error occurred"
)

// LoadAssets replaces the working set with the repository contents. An
// empty repository is first seeded with sample assets from the hospital
// catalog. On failure the working set is emptied and the error state set.
func (s *Store) LoadAssets(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, opLoadAssets)
	defer span.End()
	start := time.Now()

	s.mu.Lock()
	s.loading = true
	s.errMsg = ""
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	assets, seeded, err := s.fetchOrSeed(ctx)
	if err != nil {
		s.mu.Lock()
		s.assets = nil
		s.mu.Unlock()
		return s.fail(ctx, span, opLoadAssets, start, err, msgLoadFailed)
	}

	s.mu.Lock()
	s.assets = assets
	s.mu.Unlock()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrAssetCount, len(assets),
		telemetry.SpanAttrSeededCount, seeded,
	)
	telemetry.SetOK(span)
	s.logger.Info("Assets loaded",
		zap.String("hospital_id", s.HospitalID()),
		zap.Int("count", len(assets)),
		zap.Int("seeded", seeded))
	s.record(ctx, opLoadAssets, "ok", start)
	s.publish(ctx, asset.NewAssetsLoadedEvent(s.HospitalID(), len(assets), seeded))
	return nil
}

// RefreshData reloads the working set
func (s *Store) RefreshData(ctx context.Context) error {
	return s.LoadAssets(ctx)
}

func (s *Store) fetchOrSeed(ctx context.Context) ([]*asset.HospitalAsset, int, error) {
	assets := s.repo.FindAll(ctx)
	if len(assets) > 0 || s.sampleSize == 0 {
		return assets, 0, nil
	}

	samples := s.seeder.Generate(s.hospital, s.sampleSize)
	s.logger.Info("Seeding sample assets",
		zap.String("hospital_id", s.HospitalID()),
		zap.Int("count", len(samples)),
		zap.Int("batch_size", s.batchSize))

	span := trace.SpanFromContext(ctx)
	for batch := range slices.Chunk(samples, s.batchSize) {
		res := s.repo.BulkSave(ctx, batch)
		s.setLastWrite(res)
		telemetry.AddEvent(span, "seed_batch",
			telemetry.SpanAttrAssetCount, len(batch),
			telemetry.SpanAttrWriteOutcome, string(res.Outcome))
		if !res.Committed() {
			return nil, 0, fmt.Errorf("seed sample assets: %w", res.Err)
		}
	}
	return s.repo.FindAll(ctx), len(samples), nil
}

// CreateAsset validates a and saves it. An invalid asset never reaches the
// repository and leaves the working set unchanged.
func (s *Store) CreateAsset(ctx context.Context, a *asset.HospitalAsset) error {
	ctx, span := s.startSpan(ctx, opCreateAsset)
	defer span.End()
	start := time.Now()

	if a == nil {
		return s.fail(ctx, span, opCreateAsset, start, shared.ErrInvalidInput, msgUnexpected)
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrAssetID, a.ID())

	if !a.Validate() {
		return s.fail(ctx, span, opCreateAsset, start, validationFailed(a.Errors()), msgUnexpected)
	}

	res := s.repo.Save(ctx, a)
	s.setLastWrite(res)
	if !res.Committed() {
		return s.fail(ctx, span, opCreateAsset, start, res.Err, msgUnexpected)
	}

	s.mu.Lock()
	s.assets = append(s.assets, a.Clone())
	s.errMsg = ""
	s.mu.Unlock()

	s.committed(ctx, span, opCreateAsset, start, res, a.ID())
	s.publish(ctx, asset.NewAssetCreatedEvent(s.HospitalID(), a, res.Durable()))
	s.publishIfCritical(ctx, a)
	return nil
}

// UpdateAsset applies updates to a copy of the stored asset and commits the
// copy only if it validates. Keys are applied in sorted order.
func (s *Store) UpdateAsset(ctx context.Context, id string, updates map[string]any) error {
	ctx, span := s.startSpan(ctx, opUpdateAsset, telemetry.WithAttribute(telemetry.SpanAttrAssetID, id))
	defer span.End()
	start := time.Now()

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return s.fail(ctx, span, opUpdateAsset, start, assetNotFound(id, err), msgUnexpected)
	}

	changed := make([]string, 0, len(updates))
	for k := range updates {
		changed = append(changed, k)
	}
	slices.Sort(changed)

	next := current.Clone()
	for _, k := range changed {
		next.Apply(k, updates[k])
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrChanged, changed)

	if !next.Validate() {
		return s.fail(ctx, span, opUpdateAsset, start, validationFailed(next.Errors()), msgUnexpected)
	}

	res := s.repo.Save(ctx, next)
	s.setLastWrite(res)
	if !res.Committed() {
		return s.fail(ctx, span, opUpdateAsset, start, res.Err, msgUnexpected)
	}

	s.mu.Lock()
	if i := s.indexOf(id); i >= 0 {
		s.assets[i] = next.Clone()
	} else {
		s.assets = append(s.assets, next.Clone())
	}
	s.errMsg = ""
	s.mu.Unlock()

	s.committed(ctx, span, opUpdateAsset, start, res, id)
	s.publish(ctx, asset.NewAssetUpdatedEvent(s.HospitalID(), next, changed, res.Durable()))
	s.publishIfCritical(ctx, next)
	return nil
}

// DeleteAsset removes the asset from the repository and the working set
func (s *Store) DeleteAsset(ctx context.Context, id string) error {
	ctx, span := s.startSpan(ctx, opDeleteAsset, telemetry.WithAttribute(telemetry.SpanAttrAssetID, id))
	defer span.End()
	start := time.Now()

	deleted, res := s.repo.Delete(ctx, id)
	s.setLastWrite(res)
	if !deleted {
		err := errors.New(msgDeleteFailed)
		if res.Err != nil {
			err = fmt.Errorf("%s: %w", msgDeleteFailed, res.Err)
		}
		return s.failWith(ctx, span, opDeleteAsset, start, err, msgDeleteFailed)
	}

	s.mu.Lock()
	if i := s.indexOf(id); i >= 0 {
		s.assets = slices.Delete(s.assets, i, i+1)
	}
	s.errMsg = ""
	s.mu.Unlock()

	s.committed(ctx, span, opDeleteAsset, start, res, id)
	s.publish(ctx, asset.NewAssetDeletedEvent(s.HospitalID(), id, res.Durable()))
	return nil
}

// indexOf must be called with mu held
func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.assets, func(a *asset.HospitalAsset) bool { return a.ID() == id })
}

func (s *Store) startSpan(ctx context.Context, op string, opts ...telemetry.SpanOption) (context.Context, trace.Span) {
	opts = append(opts, telemetry.WithAttribute(telemetry.SpanAttrHospitalID, s.HospitalID()))
	return telemetry.StartServiceSpan(ctx, "inventory", op, opts...)
}

// fail records err as the store error using its own message, or fallback
// when it has none.
func (s *Store) fail(ctx context.Context, span trace.Span, op string, start time.Time, err error, fallback string) error {
	return s.failWith(ctx, span, op, start, err, errorMessage(err, fallback))
}

func (s *Store) failWith(ctx context.Context, span trace.Span, op string, start time.Time, err error, msg string) error {
	if err == nil {
		err = errors.New(msg)
	}
	s.mu.Lock()
	s.errMsg = msg
	s.mu.Unlock()

	telemetry.RecordError(span, err)
	logger.WithTraceContext(ctx, s.logger).Warn("Inventory operation failed",
		zap.String("operation", op),
		zap.String("hospital_id", s.HospitalID()),
		zap.Error(err))
	s.record(ctx, op, outcomeFailed, start)
	return err
}

func (s *Store) committed(ctx context.Context, span trace.Span, op string, start time.Time, res shared.WriteResult, id string) {
	telemetry.SetAttributes(span, telemetry.SpanAttrWriteOutcome, string(res.Outcome))
	telemetry.SetOK(span)
	log := logger.WithTraceContext(ctx, s.logger)
	if !res.Durable() {
		log.Warn("Asset change kept in memory only",
			zap.String("operation", op),
			zap.String("asset_id", id),
			zap.Error(res.Err))
	} else {
		log.Debug("Asset change saved",
			zap.String("operation", op),
			zap.String("asset_id", id))
	}
	s.record(ctx, op, string(res.Outcome), start)
}

func (s *Store) record(ctx context.Context, op, outcome string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordOperation(ctx, s.HospitalID(), op, outcome, time.Since(start))
	s.metrics.RecordStock(ctx, s.HospitalID(), s.Stock())
}

func (s *Store) setLastWrite(res shared.WriteResult) {
	s.mu.Lock()
	s.lastWrite = res
	s.mu.Unlock()
}

func (s *Store) publishIfCritical(ctx context.Context, a *asset.HospitalAsset) {
	if a.IsCritical() {
		s.publish(ctx, asset.NewStockCriticalEvent(s.HospitalID(), a))
	}
}

func (s *Store) publish(ctx context.Context, event shared.DomainEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event",
			zap.String("event_type", event.EventType()),
			zap.Error(err))
	}
}

// validationFailed composes every field message into one error
func validationFailed(errs asset.ValidationErrors) error {
	return shared.NewDomainError(shared.ErrValidation.Code, "Validation failed: "+errs.String())
}

func assetNotFound(id string, err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewDomainError(shared.ErrNotFound.Code, fmt.Sprintf("Asset %s not found", id))
	}
	return err
}

// errorMessage extracts a message from known error shapes
func errorMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	var validationErr *asset.ValidationError
	if errors.As(err, &validationErr) {
		return "Validation failed: " + validationErr.Detail()
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) && domainErr.Message != "" {
		return domainErr.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
