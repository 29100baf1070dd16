package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
)

const dateLayout = "2006-01-02"

type productRepository struct {
	db *DB
}

func NewProductRepository(db *DB) *productRepository {
	return &productRepository{db: db}
}

func (r *productRepository) GetActiveProduct(ctx context.Context, id int64) (*domain.Product, error) {
	query := `
		SELECT id, name, sku, price::float8 AS price, quantity, low_stock_threshold, is_active
		FROM products
		WHERE id = $1 AND is_active = TRUE
	`

	var p domain.Product
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("error getting product %d: %w", id, err)
	}
	return &p, nil
}

func (r *productRepository) ListActiveProducts(ctx context.Context) ([]domain.Product, error) {
	query := `
		SELECT id, name, sku, price::float8 AS price, quantity, low_stock_threshold, is_active
		FROM products
		WHERE is_active = TRUE
		ORDER BY name
	`

	var products []domain.Product
	if err := r.db.SelectContext(ctx, &products, query); err != nil {
		return nil, fmt.Errorf("error listing active products: %w", err)
	}
	return products, nil
}

type salesRepository struct {
	db *DB
}

func NewSalesRepository(db *DB) *salesRepository {
	return &salesRepository{db: db}
}

func (r *salesRepository) DailySales(ctx context.Context, productID int64, from, to time.Time) ([]domain.SalesObservation, error) {
	query := `
		SELECT
			DATE(t.timestamp) AS sale_date,
			SUM(t.quantity)::float8 AS total_qty
		FROM transactions t
		WHERE t.product_id = $1
		  AND DATE(t.timestamp) BETWEEN $2::date AND $3::date
		GROUP BY DATE(t.timestamp)
		ORDER BY sale_date
	`

	var rows []domain.SalesObservation
	err := r.db.SelectContext(ctx, &rows, query, productID, from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("error getting daily sales for product %d: %w", productID, err)
	}
	return rows, nil
}

type promotionRepository struct {
	db *DB
}

func NewPromotionRepository(db *DB) *promotionRepository {
	return &promotionRepository{db: db}
}

func (r *promotionRepository) PromoDays(ctx context.Context, productID int64, from, to time.Time) (map[time.Time]int, error) {
	query := `
		SELECT DISTINCT d::date AS promo_day
		FROM promotions pm
		JOIN promotion_products pp ON pp.promotion_id = pm.id
		CROSS JOIN LATERAL generate_series(
			GREATEST(pm.start_date::date, $2::date),
			LEAST(pm.end_date::date, $3::date),
			interval '1 day'
		) AS d
		WHERE pp.product_id = $1
		  AND pm.start_date::date <= $3::date
		  AND pm.end_date::date >= $2::date
	`

	var days []time.Time
	err := r.db.SelectContext(ctx, &days, query, productID, from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("error getting promotion days for product %d: %w", productID, err)
	}

	flags := make(map[time.Time]int, len(days))
	for _, d := range days {
		y, m, day := d.Date()
		flags[time.Date(y, m, day, 0, 0, 0, 0, time.UTC)] = 1
	}
	return flags, nil
}
