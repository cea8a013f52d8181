package inventory

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/medtrack/backend/internal/domain/asset"
	"github.com/medtrack/backend/internal/domain/shared"
	"github.com/medtrack/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// CSVContentType is the content type of exported files
const CSVContentType = "text/csv"

var csvHeader = []string{
	"Name", "Manufacturer", "Category", "Quantity",
	"Serial Number", "Critical Level", "Reorder Point", "Location",
}

// ErrArchiveNotConfigured is returned by ArchiveExport without archive storage
var ErrArchiveNotConfigured = shared.NewDomainError("ARCHIVE_NOT_CONFIGURED", "Archive storage is not configured")

// Archive describes an uploaded export
type Archive struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
	Rows      int       `json:"rows"`
	Bytes     int       `json:"bytes"`
}

// ExportToCSV renders the whole working set, ignoring search and filters.
// Every value is double-quoted and embedded quotes are doubled.
func (s *Store) ExportToCSV() string {
	return renderCSV(s.snapshot())
}

func renderCSV(assets []*asset.HospitalAsset) string {
	var b strings.Builder
	writeCSVRow(&b, csvHeader)
	for _, a := range assets {
		writeCSVRow(&b, []string{
			a.Name(),
			a.Manufacturer(),
			a.Category(),
			quantityString(a),
			a.SerialNumber(),
			a.CriticalLevel().String(),
			strconv.Itoa(a.ReorderPoint()),
			a.Location(),
		})
	}
	return b.String()
}

func writeCSVRow(b *strings.Builder, values []string) {
	for i, v := range values {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(v, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteByte('\n')
}

func quantityString(a *asset.HospitalAsset) string {
	if q := a.Quantity(); q.Valid {
		return q.Decimal.String()
	}
	return ""
}

// ArchiveExport uploads ExportToCSV to archive storage and returns a
// time-limited download link.
func (s *Store) ArchiveExport(ctx context.Context) (*Archive, error) {
	ctx, span := s.startSpan(ctx, opArchiveExport)
	defer span.End()
	start := time.Now()

	if s.archive == nil {
		return nil, s.fail(ctx, span, opArchiveExport, start, ErrArchiveNotConfigured, msgUnexpected)
	}

	assets := s.snapshot()
	rows := len(assets)
	data := []byte(renderCSV(assets))

	key := s.archiveKey(start)
	telemetry.SetAttributes(span,
		telemetry.SpanAttrStorageKey, key,
		telemetry.SpanAttrAssetCount, rows,
	)

	if err := s.archive.Upload(ctx, key, data, CSVContentType); err != nil {
		return nil, s.fail(ctx, span, opArchiveExport, start, fmt.Errorf("upload export: %w", err), msgUnexpected)
	}
	url, expiresAt, err := s.archive.GenerateDownloadURL(ctx, key, s.archiveExpiry)
	if err != nil {
		return nil, s.fail(ctx, span, opArchiveExport, start, fmt.Errorf("generate download url: %w", err), msgUnexpected)
	}

	telemetry.SetOK(span)
	s.logger.Info("Export archived",
		zap.String("hospital_id", s.HospitalID()),
		zap.String("key", key),
		zap.Int("rows", rows),
		zap.Int("bytes", len(data)))
	s.record(ctx, opArchiveExport, "ok", start)

	return &Archive{Key: key, URL: url, ExpiresAt: expiresAt, Rows: rows, Bytes: len(data)}, nil
}

// archiveKey is "<prefix>/<hospital>/assets-<UTC timestamp>.csv"
func (s *Store) archiveKey(at time.Time) string {
	hospitalID := s.HospitalID()
	if hospitalID == "" {
		hospitalID = "default"
	}
	name := "assets-" + at.UTC().Format("20060102T150405.000Z") + ".csv"
	return path.Join(s.archivePrefix, hospitalID, name)
}
