package telemetry

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
)

// Stock is a point-in-time view of one hospital's inventory
type Stock struct {
	Total      int
	Critical   int
	LowStock   int
	TotalValue decimal.Decimal
}

// InventoryMetrics records store operations and stock levels.
type InventoryMetrics struct {
	operations        *Counter
	operationDuration *Histogram
	assets            *Gauge
	criticalAssets    *Gauge
	lowStockAssets    *Gauge
	totalValue        *FloatGauge
}

// NewInventoryMetrics creates the inventory instruments on meter
func NewInventoryMetrics(meter metric.Meter) (*InventoryMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	m := &InventoryMetrics{}
	var err error
	if m.operations, err = NewCounter(meter,
		"medtrack_store_operations_total", "Inventory store operations by outcome", "{operations}"); err != nil {
		return nil, err
	}
	if m.operationDuration, err = NewHistogram(meter,
		"medtrack_store_operation_duration_seconds", "Inventory store operation latency", "s", StoreDurationBuckets...); err != nil {
		return nil, err
	}
	if m.assets, err = NewGauge(meter,
		"medtrack_inventory_assets", "Assets in the working set", "{assets}"); err != nil {
		return nil, err
	}
	if m.criticalAssets, err = NewGauge(meter,
		"medtrack_inventory_critical_assets", "Assets tagged critical or at the critical threshold", "{assets}"); err != nil {
		return nil, err
	}
	if m.lowStockAssets, err = NewGauge(meter,
		"medtrack_inventory_low_stock_assets", "Assets below their reorder point", "{assets}"); err != nil {
		return nil, err
	}
	if m.totalValue, err = NewFloatGauge(meter,
		"medtrack_inventory_total_value", "Sum of quantity times purchase price", "{currency}"); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordOperation counts one store operation and its latency.
// outcome is "ok", "failed" or a write outcome.
func (m *InventoryMetrics) RecordOperation(ctx context.Context, hospitalID, operation, outcome string, d time.Duration) {
	m.operations.Inc(ctx,
		AttrHospitalID.String(hospitalID),
		AttrOperation.String(operation),
		AttrOutcome.String(outcome),
	)
	m.operationDuration.RecordDuration(ctx, d,
		AttrHospitalID.String(hospitalID),
		AttrOperation.String(operation),
	)
}

// RecordStock records the stock gauges for a hospital
func (m *InventoryMetrics) RecordStock(ctx context.Context, hospitalID string, s Stock) {
	attr := AttrHospitalID.String(hospitalID)
	m.assets.Record(ctx, int64(s.Total), attr)
	m.criticalAssets.Record(ctx, int64(s.Critical), attr)
	m.lowStockAssets.Record(ctx, int64(s.LowStock), attr)
	m.totalValue.Record(ctx, s.TotalValue.InexactFloat64(), attr)
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewInventoryMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
