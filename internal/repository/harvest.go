package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"maps-api/internal/models"
)

// ErrNoHarvest is returned for models that do not record harvests.
var ErrNoHarvest = errors.New("model has no harvest records")

const harvestSQL = `
	SELECT
		to_char(h.operation_date, 'YYYY-MM') AS month,
		COALESCE(mp.name, ''),
		COALESCE(op.name, ''),
		SUM(COALESCE(h.harvest_qty_weight, 0) + COALESCE(h.other_harvest_stock_qty, 0))::float8,
		CASE WHEN SUM(h.harvest_qty_unit) <> 0
			THEN ROUND((SUM(h.harvest_qty_weight) / SUM(h.harvest_qty_unit))::numeric, 2)
			ELSE 0 END::float8,
		CASE WHEN SUM(h.other_harvest_qty) <> 0
			THEN ROUND((SUM(h.other_harvest_stock_qty) / SUM(h.other_harvest_qty))::numeric, 2)
			ELSE 0 END::float8
	FROM estate_harvest h
	LEFT JOIN product_product mp ON mp.id = h.harvest_main_product_id
	LEFT JOIN product_product op ON op.id = h.harvest_other_product_id
	WHERE h.operation_date BETWEEN $1 AND $2 AND h.%s = ANY($3)
	GROUP BY month, h.harvest_main_product_id, mp.name, h.harvest_other_product_id, op.name
	ORDER BY month, h.harvest_main_product_id, h.harvest_other_product_id
`

// harvestColumns maps the models that record harvests to their estate_harvest column.
var harvestColumns = map[string]string{
	"estate.block":  "block_id",
	"estate.estate": "afdeling_id",
}

// RecordsHarvests reports whether HarvestByMonth supports model.
func RecordsHarvests(model string) bool {
	_, ok := harvestColumns[model]
	return ok
}

// HarvestByMonth aggregates the harvests of a block or an estate between from and to, inclusive.
// An estate covers the harvests of its divisions, or its own when it has none.
func (r *Repository) HarvestByMonth(ctx context.Context, model string, id int64, from, to time.Time) ([]models.HarvestMonth, error) {
	column, ok := harvestColumns[model]
	if !ok {
		return nil, fmt.Errorf("repository: %s: %w", model, ErrNoHarvest)
	}
	ids := []int64{id}
	if model == "estate.estate" {
		children, err := r.childEstates(ctx, id)
		if err != nil {
			return nil, err
		}
		if len(children) > 0 {
			ids = children
		}
	}

	rows, err := r.db.Query(ctx, fmt.Sprintf(harvestSQL, column), from.Format(time.DateOnly), to.Format(time.DateOnly), ids)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to execute harvest query: %w", err)
	}
	defer rows.Close()

	months := []models.HarvestMonth{}
	for rows.Next() {
		var m models.HarvestMonth
		err := rows.Scan(&m.Month, &m.MainProduct, &m.OtherProduct, &m.TotalWeight, &m.AvgHarvestWeight, &m.AvgOtherHarvestWeight)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan harvest: %w", err)
		}
		months = append(months, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating rows: %w", err)
	}
	return months, nil
}

func (r *Repository) childEstates(ctx context.Context, id int64) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM estate_estate WHERE parent_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to execute division query: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var child int64
		if err := rows.Scan(&child); err != nil {
			return nil, fmt.Errorf("repository: failed to scan division: %w", err)
		}
		ids = append(ids, child)
	}
	return ids, rows.Err()
}
