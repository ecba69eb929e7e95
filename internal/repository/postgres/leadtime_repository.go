package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/optistock/internal/domain"
	"github.com/andresuchdata/optistock/internal/repository"
)

type leadTimeRepository struct {
	db *DB
}

// NewLeadTimeRepository creates a lead-time repository over the supplier
// lead_times table.
func NewLeadTimeRepository(db *DB) repository.LeadTimeRepository {
	return &leadTimeRepository{db: db}
}

// GetProfile returns the lead-time profile for a SKU. A missing row is not an
// error: planning falls back to a zero-variance profile and the configured
// default lead time.
func (r *leadTimeRepository) GetProfile(ctx context.Context, sku string) (domain.LeadTimeProfile, error) {
	var profile domain.LeadTimeProfile
	query := `
        SELECT sku,
               mean_days::float AS mean_days,
               std_days::float AS std_days,
               min_order_qty::float AS min_order_qty
        FROM lead_times
        WHERE sku = $1
    `
	err := r.db.GetContext(ctx, &profile, query, sku)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug().Str("sku", sku).Msg("no lead time profile, using defaults")
		return domain.LeadTimeProfile{SKU: sku}, nil
	}
	if err != nil {
		return domain.LeadTimeProfile{}, fmt.Errorf("failed to load lead time for %s: %w", sku, err)
	}
	return profile, nil
}
