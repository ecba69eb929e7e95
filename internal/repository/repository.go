// internal/repository/repository.go
package repository

import (
	"context"

	"github.com/andresuchdata/optistock/internal/domain"
)

// DemandRepository serves normalized demand history. The ingestion
// collaborator has already deduplicated rows and coerced types; these
// methods only read.
type DemandRepository interface {
	// GetSeries returns the period-bucketed demand series for one SKU
	// (optionally one location), gap-filled with zeros: a period without
	// sales is data, not missing data.
	GetSeries(ctx context.Context, sku, location, freq string) (domain.DemandSeries, error)

	// ListDemandRecords returns the full population's (sku, qty, value)
	// observations for classification.
	ListDemandRecords(ctx context.Context) ([]domain.DemandRecord, error)

	// ListSKUs returns every known SKU.
	ListSKUs(ctx context.Context) ([]string, error)
}

// LeadTimeRepository serves supplier lead-time profiles keyed by SKU.
type LeadTimeRepository interface {
	GetProfile(ctx context.Context, sku string) (domain.LeadTimeProfile, error)
}

// StockRepository serves the current on-hand stock per SKU/location.
type StockRepository interface {
	GetCurrentStock(ctx context.Context, sku, location string) (float64, error)

	// RecordStock appends a new on-hand observation; the latest recorded
	// value is what GetCurrentStock returns.
	RecordStock(ctx context.Context, sku, location string, qty float64) error
}
