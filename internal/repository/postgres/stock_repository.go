package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andresuchdata/optistock/internal/repository"
)

type stockRepository struct {
	db *DB
}

// NewStockRepository creates a stock repository over the stock_levels table.
func NewStockRepository(db *DB) repository.StockRepository {
	return &stockRepository{db: db}
}

// GetCurrentStock returns the latest recorded on-hand quantity. Unknown
// SKU/location pairs read as zero stock.
func (r *stockRepository) GetCurrentStock(ctx context.Context, sku, location string) (float64, error) {
	locFilter := ""
	args := []interface{}{sku}
	if location != "" {
		locFilter = "AND location = $2"
		args = append(args, location)
	}

	var qty float64
	query := fmt.Sprintf(`
        SELECT qty::float
        FROM stock_levels
        WHERE sku = $1 %s
        ORDER BY recorded_at DESC
        LIMIT 1
    `, locFilter)

	err := r.db.GetContext(ctx, &qty, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load stock for %s: %w", sku, err)
	}
	return qty, nil
}

// RecordStock appends an on-hand observation. Negative counts are rejected
// here so a bad cycle count cannot poison downstream planning.
func (r *stockRepository) RecordStock(ctx context.Context, sku, location string, qty float64) error {
	if qty < 0 {
		return fmt.Errorf("stock for %s cannot be negative", sku)
	}

	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
            INSERT INTO stock_levels (sku, location, qty, recorded_at)
            VALUES ($1, $2, $3, NOW())
        `, sku, location, qty)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to record stock for %s: %w", sku, err)
	}
	return nil
}
