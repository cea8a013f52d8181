package telemetry

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus metric names for the textfile export
const (
	PromMetricAssets         = "medtrack_inventory_assets"
	PromMetricCriticalAssets = "medtrack_inventory_critical_assets"
	PromMetricLowStockAssets = "medtrack_inventory_low_stock_assets"
	PromMetricTotalValue     = "medtrack_inventory_total_value"
)

// StockSource returns the current stock of one hospital
type StockSource func() Stock

// StockCollector exposes a hospital's stock as Prometheus gauges. Values
// are read from the source on every scrape.
type StockCollector struct {
	hospitalID string
	source     StockSource

	assets     *prometheus.Desc
	critical   *prometheus.Desc
	lowStock   *prometheus.Desc
	totalValue *prometheus.Desc
}

// NewStockCollector creates a collector for hospitalID
func NewStockCollector(hospitalID string, source StockSource) *StockCollector {
	labels := prometheus.Labels{"hospital_id": hospitalID}
	return &StockCollector{
		hospitalID: hospitalID,
		source:     source,
		assets: prometheus.NewDesc(PromMetricAssets,
			"Assets in the working set.", nil, labels),
		critical: prometheus.NewDesc(PromMetricCriticalAssets,
			"Assets tagged critical or at the critical threshold.", nil, labels),
		lowStock: prometheus.NewDesc(PromMetricLowStockAssets,
			"Assets below their reorder point.", nil, labels),
		totalValue: prometheus.NewDesc(PromMetricTotalValue,
			"Sum of quantity times purchase price.", nil, labels),
	}
}

// Describe implements prometheus.Collector
func (c *StockCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.assets
	ch <- c.critical
	ch <- c.lowStock
	ch <- c.totalValue
}

// Collect implements prometheus.Collector
func (c *StockCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.source()
	ch <- prometheus.MustNewConstMetric(c.assets, prometheus.GaugeValue, float64(s.Total))
	ch <- prometheus.MustNewConstMetric(c.critical, prometheus.GaugeValue, float64(s.Critical))
	ch <- prometheus.MustNewConstMetric(c.lowStock, prometheus.GaugeValue, float64(s.LowStock))
	ch <- prometheus.MustNewConstMetric(c.totalValue, prometheus.GaugeValue, s.TotalValue.InexactFloat64())
}

// NewStockRegistry returns a registry holding only the stock collector
func NewStockRegistry(hospitalID string, source StockSource) (*prometheus.Registry, error) {
	registry := prometheus.NewRegistry()
	if err := registry.Register(NewStockCollector(hospitalID, source)); err != nil {
		return nil, fmt.Errorf("register stock collector: %w", err)
	}
	return registry, nil
}

// WriteStockTextfile writes the stock gauges in the node_exporter textfile
// format. The file is replaced atomically.
func WriteStockTextfile(path, hospitalID string, source StockSource) error {
	registry, err := NewStockRegistry(hospitalID, source)
	if err != nil {
		return err
	}
	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
