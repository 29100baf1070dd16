package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/demandcast/backend-go/internal/app"
	"github.com/andresuchdata/demandcast/backend-go/internal/config"
	"github.com/andresuchdata/demandcast/backend-go/internal/pipeline"
	"github.com/andresuchdata/demandcast/backend-go/internal/report"
	"github.com/andresuchdata/demandcast/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/demandcast/backend-go/internal/storage"
	"github.com/andresuchdata/demandcast/backend-go/pkg/logger"
)

type dbKey struct{}

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func initDB(c *cli.Context) error {
	db, err := sqlx.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.PingContext(c.Context); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	c.Context = context.WithValue(c.Context, dbKey{}, postgres.Wrap(db))
	return nil
}

func closeDB(c *cli.Context) error {
	if db, ok := c.Context.Value(dbKey{}).(*postgres.DB); ok && db != nil {
		return db.Close()
	}
	return nil
}

func dbFrom(c *cli.Context) (*postgres.DB, error) {
	db, ok := c.Context.Value(dbKey{}).(*postgres.DB)
	if !ok || db == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	return db, nil
}

func main() {
	cfg := config.Load()
	logger.Setup(cfg.Server.LogLevel, cfg.Server.LogFormat)

	cliApp := &cli.App{
		Name:  "forecast",
		Usage: "Run demand forecasts and restock reports",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Forecast demand for every active product",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.IntFlag{
						Name:    "days-ahead",
						Usage:   "Number of future days to store per product (1-30)",
						Value:   cfg.Forecast.DefaultDaysAhead,
						EnvVars: []string{"FORECAST_DEFAULT_DAYS_AHEAD"},
					},
					&cli.IntFlag{
						Name:    "workers",
						Usage:   "Concurrent product forecasts",
						Value:   cfg.Forecast.BatchWorkers,
						EnvVars: []string{"FORECAST_BATCH_WORKERS"},
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: func(c *cli.Context) error { return runBatch(c, cfg) },
			},
			{
				Name:  "recommend",
				Usage: "Print restock recommendations, optionally exporting them to xlsx",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:  "xlsx",
						Usage: "Write the recommendations to this xlsx file",
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: func(c *cli.Context) error { return runRecommend(c, cfg) },
			},
			{
				Name:  "run-status",
				Usage: "Show the bookkeeping row of a batch run",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.Int64Flag{
						Name:     "id",
						Usage:    "Forecast run ID",
						Required: true,
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: runStatus,
			},
			{
				Name:   "list-artifacts",
				Usage:  "List objects in the artifact store",
				Flags:  []cli.Flag{&cli.StringFlag{Name: "prefix", Usage: "Key prefix", Value: "models/"}},
				Action: func(c *cli.Context) error { return runListArtifacts(c, cfg) },
			},
			{
				Name:   "fetch-artifacts",
				Usage:  "Download the model and scaler from the artifact store",
				Action: func(c *cli.Context) error { return runFetchArtifacts(c, cfg) },
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("forecast command failed")
	}
}

func runBatch(c *cli.Context, cfg *config.Config) error {
	db, err := dbFrom(c)
	if err != nil {
		return err
	}
	if err := db.EnsureSchema(c.Context); err != nil {
		return err
	}

	if workers := c.Int("workers"); workers > 0 {
		cfg.Forecast.BatchWorkers = workers
	}

	services := app.New(cfg, db)
	run, outcomes, err := services.BatchWorker(cfg, c.Int("days-ahead")).Run(c.Context)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRODUCT ID\tPRODUCT\tPER DAY\tERROR")
	for _, o := range outcomes {
		errText := ""
		if o.Err != nil {
			errText = o.Err.Error()
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", o.ProductID, o.Product, o.PerDay, errText)
	}
	w.Flush()

	if run != nil {
		logger.Log.Info().
			Int64("run_id", run.ID).
			Int("processed", run.ProcessedProducts).
			Int("failed", run.FailedProducts).
			Msg("batch forecast summary")
	}
	return err
}

func runRecommend(c *cli.Context, cfg *config.Config) error {
	db, err := dbFrom(c)
	if err != nil {
		return err
	}

	recs, err := app.New(cfg, db).Recommendations.Recommendations(c.Context)
	if err != nil {
		return fmt.Errorf("failed to compute recommendations: %w", err)
	}

	if path := c.String("xlsx"); path != "" {
		if err := report.SaveRestockXLSX(path, recs); err != nil {
			return err
		}
		logger.Log.Info().Str("path", path).Int("rows", len(recs)).Msg("restock report written")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRODUCT ID\tPRODUCT\tSTOCK\tDEMAND\tRESTOCK\tURGENCY")
	for _, r := range recs {
		fmt.Fprintf(w, "%d\t%s\t%d\t%g\t%d\t%s\n",
			r.ProductID, r.ProductName, r.CurrentStock, r.PredictedDemand, r.RecommendedRestock, r.Urgency)
	}
	return w.Flush()
}

func runStatus(c *cli.Context) error {
	db, err := dbFrom(c)
	if err != nil {
		return err
	}

	run, err := pipeline.NewRepository(db.DB.DB).GetRun(c.Context, c.Int64("id"))
	if err != nil {
		return err
	}

	completed := "-"
	if run.CompletedAt != nil {
		completed = run.CompletedAt.Format(time.RFC3339)
	}
	fmt.Printf("run %d: %s (%d/%d processed, %d failed, days_ahead=%d)\nstarted %s, completed %s\n",
		run.ID, run.Status, run.ProcessedProducts, run.TotalProducts, run.FailedProducts, run.DaysAhead,
		run.StartedAt.Format(time.RFC3339), completed)
	if run.ErrorMessage != "" {
		fmt.Printf("error: %s\n", run.ErrorMessage)
	}
	return nil
}

func runListArtifacts(c *cli.Context, cfg *config.Config) error {
	store, err := newArtifactStore(cfg)
	if err != nil {
		return err
	}

	objects, err := store.ListObjects(c.Context, c.String("prefix"))
	if err != nil {
		return err
	}
	for _, obj := range objects {
		fmt.Printf("%s\t%d\n", obj.Key, obj.Size)
	}
	return nil
}

func newArtifactStore(cfg *config.Config) (*storage.MinioClient, error) {
	return storage.NewMinioClient(storage.MinioConfig{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		UseSSL:    cfg.Storage.UseSSL,
	})
}

func runFetchArtifacts(c *cli.Context, cfg *config.Config) error {
	store, err := newArtifactStore(cfg)
	if err != nil {
		return err
	}

	return storage.FetchArtifacts(c.Context, store,
		storage.ArtifactObject{Key: cfg.Storage.ModelKey, LocalPath: cfg.Forecast.ModelPath},
		storage.ArtifactObject{Key: cfg.Storage.ScalerKey, LocalPath: cfg.Forecast.ScalerPath},
	)
}
