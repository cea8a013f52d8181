package telemetry

import (
	"fmt"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/gorm"
)

// RegisterDBTracing adds otelgorm spans to every statement run through db.
// Query variables are never recorded.
func RegisterDBTracing(db *gorm.DB, dbSystem string) error {
	plugin := otelgorm.NewPlugin(
		otelgorm.WithDBName(dbSystem),
		otelgorm.WithoutQueryVariables(),
	)
	if err := db.Use(plugin); err != nil {
		return fmt.Errorf("failed to register db tracing: %w", err)
	}
	return nil
}
