package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/medtrack/backend/internal/application/inventory"
	"github.com/medtrack/backend/internal/infrastructure/telemetry"
)

func setupTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func spanByName(spans []sdktrace.ReadOnlySpan, name string) sdktrace.ReadOnlySpan {
	for _, s := range spans {
		if s.Name() == name {
			return s
		}
	}
	return nil
}

func TestStore_Spans(t *testing.T) {
	sr := setupTracer(t)
	ctx := context.Background()
	f := newFixture(t, nil, inventory.WithSampleSize(3))

	require.NoError(t, f.store.LoadAssets(ctx))
	bad := newAsset(f.cfg, assetInput{name: "Bad", serial: "x", quantity: 1})
	require.Error(t, f.store.CreateAsset(ctx, bad))

	load := spanByName(sr.Ended(), "inventory.load_assets")
	require.NotNil(t, load)
	assert.Equal(t, codes.Ok, load.Status().Code)
	attrs := map[string]any{}
	for _, kv := range load.Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, "general", attrs[telemetry.SpanAttrHospitalID])
	assert.Equal(t, int64(3), attrs[telemetry.SpanAttrSeededCount])

	create := spanByName(sr.Ended(), "inventory.create_asset")
	require.NotNil(t, create)
	assert.Equal(t, codes.Error, create.Status().Code)
}

func TestStore_Metrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	metrics, err := telemetry.NewInventoryMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	f := newFixture(t, nil, inventory.WithMetrics(metrics), inventory.WithSampleSize(4))
	require.NoError(t, f.store.LoadAssets(ctx))
	require.Error(t, f.store.DeleteAsset(ctx, "missing"))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	outcomes := map[string]int64{}
	var assets int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				if m.Name != "medtrack_store_operations_total" {
					continue
				}
				for _, dp := range data.DataPoints {
					op, _ := dp.Attributes.Value(telemetry.AttrOperation)
					outcome, _ := dp.Attributes.Value(telemetry.AttrOutcome)
					outcomes[op.AsString()+"/"+outcome.AsString()] += dp.Value
				}
			case metricdata.Gauge[int64]:
				if m.Name == "medtrack_inventory_assets" {
					assets = data.DataPoints[0].Value
				}
			}
		}
	}

	assert.Equal(t, map[string]int64{"load_assets/ok": 1, "delete_asset/failed": 1}, outcomes)
	assert.Equal(t, int64(4), assets)
}

func TestStore_LogsFailures(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	f := newFixture(t, nil, inventory.WithLogger(zap.New(core)), inventory.WithSampleSize(0))

	require.Error(t, f.store.DeleteAsset(context.Background(), "missing"))

	entries := logs.FilterMessage("Inventory operation failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "delete_asset", entries[0].ContextMap()["operation"])
	assert.Equal(t, "general", entries[0].ContextMap()["hospital_id"])
}

func TestStore_SeedBatchEvents(t *testing.T) {
	sr := setupTracer(t)
	f := newFixture(t, nil, inventory.WithSampleSize(5), inventory.WithSeedBatchSize(2))

	require.NoError(t, f.store.LoadAssets(context.Background()))

	load := spanByName(sr.Ended(), "inventory.load_assets")
	require.NotNil(t, load)
	var sizes []int64
	for _, ev := range load.Events() {
		if ev.Name != "seed_batch" {
			continue
		}
		for _, kv := range ev.Attributes {
			if string(kv.Key) == telemetry.SpanAttrAssetCount {
				sizes = append(sizes, kv.Value.AsInt64())
			}
		}
	}
	assert.Equal(t, []int64{2, 2, 1}, sizes)
}

func TestStore_LogsCarryTraceContext(t *testing.T) {
	sr := setupTracer(t)
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := context.Background()
	f := newFixture(t, nil, inventory.WithLogger(zap.New(core)), inventory.WithSampleSize(0))
	require.NoError(t, f.store.LoadAssets(ctx))

	require.Error(t, f.store.DeleteAsset(ctx, "missing"))
	require.NoError(t, f.store.CreateAsset(ctx,
		newAsset(f.cfg, assetInput{name: "Monitor", serial: "MO-000001", quantity: 30})))

	del := spanByName(sr.Ended(), "inventory.delete_asset")
	require.NotNil(t, del)
	failed := logs.FilterMessage("Inventory operation failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, del.SpanContext().TraceID().String(), failed[0].ContextMap()["trace_id"])
	assert.Equal(t, del.SpanContext().SpanID().String(), failed[0].ContextMap()["span_id"])

	create := spanByName(sr.Ended(), "inventory.create_asset")
	require.NotNil(t, create)
	saved := logs.FilterMessage("Asset change saved").All()
	require.Len(t, saved, 1)
	assert.Equal(t, create.SpanContext().TraceID().String(), saved[0].ContextMap()["trace_id"])
}
