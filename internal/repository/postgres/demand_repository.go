package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/optistock/internal/domain"
	"github.com/andresuchdata/optistock/internal/repository"
)

type demandRepository struct {
	db *DB
}

// NewDemandRepository creates a demand repository backed by the sales_demand
// table populated by the ingestion pipeline.
func NewDemandRepository(db *DB) repository.DemandRepository {
	return &demandRepository{db: db}
}

// truncUnit maps the series frequency to a date_trunc unit.
func truncUnit(freq string) (string, string) {
	switch freq {
	case "D":
		return "day", "1 day"
	case "M":
		return "month", "1 month"
	default:
		return "week", "1 week"
	}
}

// GetSeries buckets raw demand rows to the requested frequency and joins them
// against a generated calendar so missing periods come back as explicit
// zeros. Timestamps are strictly increasing by construction.
func (r *demandRepository) GetSeries(ctx context.Context, sku, location, freq string) (domain.DemandSeries, error) {
	if freq == "" {
		freq = "W"
	}
	unit, step := truncUnit(freq)

	locFilter := ""
	args := []interface{}{sku}
	if location != "" {
		locFilter = "AND location = $2"
		args = append(args, location)
	}

	query := fmt.Sprintf(`
        WITH bounds AS (
            SELECT date_trunc('%[1]s', MIN(sold_at)) AS first_period,
                   date_trunc('%[1]s', MAX(sold_at)) AS last_period
            FROM sales_demand
            WHERE sku = $1 %[3]s
        ),
        calendar AS (
            SELECT generate_series(first_period, last_period, INTERVAL '%[2]s') AS period
            FROM bounds
            WHERE first_period IS NOT NULL
        ),
        bucketed AS (
            SELECT date_trunc('%[1]s', sold_at) AS period, SUM(qty) AS qty
            FROM sales_demand
            WHERE sku = $1 %[3]s
            GROUP BY 1
        )
        SELECT c.period, COALESCE(b.qty, 0)::float AS qty
        FROM calendar c
        LEFT JOIN bucketed b ON b.period = c.period
        ORDER BY c.period
    `, unit, step, locFilter)

	rows := []struct {
		Period time.Time `db:"period"`
		Qty    float64   `db:"qty"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return domain.DemandSeries{}, fmt.Errorf("failed to load demand series for %s: %w", sku, err)
	}

	series := domain.DemandSeries{SKU: sku, Location: location, Freq: freq}
	for _, row := range rows {
		qty := row.Qty
		if qty < 0 {
			qty = 0 // negative rows should not survive ingestion, but never let one escape
		}
		series.Points = append(series.Points, domain.DemandPoint{Period: row.Period, Qty: qty})
	}
	return series, nil
}

func (r *demandRepository) ListDemandRecords(ctx context.Context) ([]domain.DemandRecord, error) {
	query := `
        SELECT sku,
               qty::float AS qty,
               COALESCE(qty * unit_price, 0)::float AS value
        FROM sales_demand
        ORDER BY sku, sold_at
    `
	var records []domain.DemandRecord
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("failed to load demand records: %w", err)
	}
	return records, nil
}

func (r *demandRepository) ListSKUs(ctx context.Context) ([]string, error) {
	var skus []string
	if err := r.db.SelectContext(ctx, &skus, `SELECT DISTINCT sku FROM sales_demand ORDER BY sku`); err != nil {
		return nil, fmt.Errorf("failed to list SKUs: %w", err)
	}
	return skus, nil
}
