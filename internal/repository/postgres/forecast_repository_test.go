package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
)

const fixtureSchema = `
CREATE TABLE products (
	id                  BIGSERIAL PRIMARY KEY,
	name                TEXT NOT NULL,
	sku                 TEXT,
	price               NUMERIC(10, 2) NOT NULL,
	quantity            INT NOT NULL,
	low_stock_threshold INT NOT NULL,
	is_active           BOOLEAN NOT NULL DEFAULT TRUE
);
CREATE TABLE transactions (
	id         BIGSERIAL PRIMARY KEY,
	product_id BIGINT NOT NULL REFERENCES products(id),
	quantity   INT NOT NULL,
	timestamp  TIMESTAMPTZ NOT NULL
);
CREATE TABLE promotions (
	id         BIGSERIAL PRIMARY KEY,
	start_date DATE NOT NULL,
	end_date   DATE NOT NULL
);
CREATE TABLE promotion_products (
	promotion_id BIGINT NOT NULL REFERENCES promotions(id),
	product_id   BIGINT NOT NULL REFERENCES products(id)
);
`

// openTestDB connects to TEST_DATABASE_URL inside a throwaway schema.
func openTestDB(t *testing.T) *DB {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	raw, err := sqlx.Open("pgx", url)
	require.NoError(t, err)
	raw.SetMaxOpenConns(1)
	raw.SetMaxIdleConns(1)

	schema := fmt.Sprintf("forecast_test_%d", time.Now().UnixNano())
	_, err = raw.ExecContext(ctx, "CREATE SCHEMA "+schema+"; SET search_path TO "+schema+"; SET TIME ZONE 'UTC'")
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = raw.ExecContext(context.Background(), "DROP SCHEMA "+schema+" CASCADE")
		raw.Close()
	})

	_, err = raw.ExecContext(ctx, fixtureSchema)
	require.NoError(t, err)

	db := Wrap(raw)
	// search_path is per session, so keep everything on one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	require.NoError(t, db.EnsureSchema(ctx))
	return db
}

func TestForecastRepositoryUpsertIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	var productID int64
	require.NoError(t, db.GetContext(ctx, &productID,
		`INSERT INTO products (name, price, quantity, low_stock_threshold) VALUES ('Rice', 12.50, 5, 10) RETURNING id`))

	repo := NewForecastRepository(db)
	day := func(d int) time.Time { return time.Date(2024, 5, d, 0, 0, 0, 0, time.UTC) }
	rows := []domain.Forecast{
		{ProductID: productID, PredictionDate: day(21), PredictedDemand: 4},
		{ProductID: productID, PredictionDate: day(22), PredictedDemand: 4},
	}

	first, err := repo.UpsertForecasts(ctx, rows)
	require.NoError(t, err)
	require.Len(t, first, 2)

	rows[0].PredictedDemand, rows[1].PredictedDemand = 9, 9
	second, err := repo.UpsertForecasts(ctx, rows)
	require.NoError(t, err)

	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, 9.0, second[1].PredictedDemand)

	items, total, err := repo.ListForecasts(ctx, domain.ForecastFilter{ProductID: &productID, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, items, 2)
	assert.Equal(t, "Rice", items[0].ProductName)

	latest, err := repo.LatestForecasts(ctx, []int64{productID})
	require.NoError(t, err)
	assert.True(t, latest[productID].PredictionDate.Equal(day(22)))
}

func TestProductAndSalesRepositories(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	var active, inactive int64
	require.NoError(t, db.GetContext(ctx, &active,
		`INSERT INTO products (name, price, quantity, low_stock_threshold) VALUES ('Oil', 3.25, 20, 5) RETURNING id`))
	require.NoError(t, db.GetContext(ctx, &inactive,
		`INSERT INTO products (name, price, quantity, low_stock_threshold, is_active) VALUES ('Old', 1, 0, 0, FALSE) RETURNING id`))

	_, err := db.ExecContext(ctx, `
		INSERT INTO transactions (product_id, quantity, timestamp) VALUES
			($1, 2, '2024-05-18 09:00:00+00'),
			($1, 3, '2024-05-18 17:00:00+00'),
			($1, 1, '2024-05-19 12:00:00+00')`, active)
	require.NoError(t, err)

	products := NewProductRepository(db)
	p, err := products.GetActiveProduct(ctx, active)
	require.NoError(t, err)
	assert.Equal(t, 3.25, p.Price)

	_, err = products.GetActiveProduct(ctx, inactive)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	from := time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	obs, err := NewSalesRepository(db).DailySales(ctx, active, from, to)
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.Equal(t, 5.0, obs[0].Quantity)
	assert.Equal(t, 1.0, obs[1].Quantity)

	var promoID int64
	require.NoError(t, db.GetContext(ctx, &promoID,
		`INSERT INTO promotions (start_date, end_date) VALUES ('2024-05-17', '2024-05-18') RETURNING id`))
	_, err = db.ExecContext(ctx, `INSERT INTO promotion_products (promotion_id, product_id) VALUES ($1, $2)`, promoID, active)
	require.NoError(t, err)

	promo, err := NewPromotionRepository(db).PromoDays(ctx, active, from, to)
	require.NoError(t, err)
	assert.Equal(t, map[time.Time]int{
		time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC): 1,
		time.Date(2024, 5, 18, 0, 0, 0, 0, time.UTC): 1,
	}, promo)
}
