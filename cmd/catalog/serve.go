package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/reliktarte/catalog-service/app/admin"
	"github.com/reliktarte/catalog-service/app/api"
	"github.com/reliktarte/catalog-service/app/catalog"
	"github.com/reliktarte/catalog-service/app/categories"
	"github.com/reliktarte/catalog-service/app/middleware"
	"github.com/reliktarte/catalog-service/cache"
	"github.com/reliktarte/catalog-service/database"
	"github.com/reliktarte/catalog-service/importer"
	"github.com/reliktarte/catalog-service/metrics"
	"github.com/reliktarte/catalog-service/models"
)

func newServeCmd(e *env) *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the admin import endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), e, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "run schema migrations before serving")
	return cmd
}

func serve(ctx context.Context, e *env, migrate bool) error {
	cfg, logger := e.cfg, e.logger

	categoryPlans, err := plans(cfg.Catalog)
	if err != nil {
		return err
	}

	db, err := database.Connect(ctx, cfg.Postgres, logger)
	if err != nil {
		return err
	}
	defer closeDB(db, logger)

	if migrate {
		if err := database.Migrate(db); err != nil {
			return err
		}
	}

	store := importer.NewGormStore(db)
	if err := bootstrapCategories(ctx, store, categoryPlans, logger); err != nil {
		return err
	}

	memo, closeCache, err := newCache(ctx, cfg.Cache, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	syncer, err := newSynchronizer(cfg.Catalog, store, logger.Named("import"))
	if err != nil {
		return err
	}

	m := metrics.New()
	runner := importer.NewRunner(ctx, syncer, importer.NewTracker(), categoryPlans, logger.Named("runner"))
	runner.OnFinish(invalidateCatalog(memo, logger))
	runner.OnFinish(recordImport(m))

	mux := http.NewServeMux()
	catalogHandler := catalog.NewCatalogHandler(catalog.NewCachedProvider(models.NewProductsRepository(db), memo), logger)
	categoryHandler := categories.NewCategoryHandler(models.NewCategoriesRepository(db), logger)
	adminHandler := admin.NewAdminHandler(runner, cfg.Server.AdminToken, logger)

	mux.HandleFunc("GET /catalog", catalogHandler.HandleGet)
	mux.HandleFunc("GET /catalog/{sku}", catalogHandler.HandleGetProduct)
	mux.HandleFunc("GET /categories", categoryHandler.HandleGetAll)
	mux.HandleFunc("POST /categories", categoryHandler.HandleCreate)
	adminHandler.Register(mux)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.Catalog.StaticDir))))
	mux.HandleFunc("GET /health", health(db))
	mux.Handle("GET /metrics", m.Handler())

	chain := []middleware.Middleware{
		middleware.Recover(logger),
		middleware.Prometheus(m),
		middleware.AccessLog(logger.Named("http")),
	}
	if cfg.Server.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(rate.Limit(cfg.Server.RateLimit), cfg.Server.RateBurst, cfg.Server.RateTTL)
		go limiter.Run(ctx)
		chain = append(chain, limiter.Middleware)
	}
	if cfg.Server.AdminToken == "" {
		logger.Warn("ADMIN_TOKEN is empty, admin routes are open")
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           middleware.Chain(mux, chain...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	runner.Wait()
	logger.Info("server stopped")
	return nil
}

func health(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(r.Context())
		}
		if err != nil {
			api.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func invalidateCatalog(memo *cache.Cache, logger *zap.Logger) importer.AfterRun {
	return func(ctx context.Context, _ importer.Mode, _ *importer.Report, _ error) {
		if err := memo.Invalidate(ctx, catalog.CacheNamespace); err != nil {
			logger.Warn("catalog cache invalidation failed", zap.Error(err))
		}
	}
}

func recordImport(m *metrics.Metrics) importer.AfterRun {
	return func(ctx context.Context, mode importer.Mode, report *importer.Report, err error) {
		var counts metrics.ImportCounts
		var duration time.Duration
		if report != nil {
			totals := report.Totals()
			counts = metrics.ImportCounts{
				Added:   totals.Added,
				Updated: totals.Updated,
				Skipped: totals.Skipped,
				Failed:  totals.Failed,
				Photos:  totals.PhotosAdded,
			}
			duration = report.Duration()
		}
		m.RecordImport(string(mode), counts, duration, err)
	}
}
