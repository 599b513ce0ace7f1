package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reliktarte/catalog-service/app/catalog"
	"github.com/reliktarte/catalog-service/database"
	"github.com/reliktarte/catalog-service/importer"
)

func newImportCmd(e *env) *cobra.Command {
	var root string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Upsert the catalog from the directory tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), e, importer.ModeUpsert, root, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "catalog directory (default CATALOG_DIR)")
	return cmd
}

func newResetCmd(e *env) *cobra.Command {
	var (
		root string
		yes  bool
	)
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every product and import the catalog from scratch",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("reset deletes all products and photos, pass --yes to confirm")
			}
			return runImport(cmd.Context(), e, importer.ModeReset, root, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "catalog directory (default CATALOG_DIR)")
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the destructive reset")
	return cmd
}

func runImport(ctx context.Context, e *env, mode importer.Mode, root string, out io.Writer) error {
	cfg, logger := e.cfg, e.logger
	catalogCfg := cfg.Catalog
	if root != "" {
		catalogCfg.CatalogDir = root
	}
	if _, err := os.Stat(catalogCfg.CatalogDir); err != nil {
		return fmt.Errorf("catalog directory: %w", err)
	}

	categoryPlans, err := plans(catalogCfg)
	if err != nil {
		return err
	}

	db, err := database.Connect(ctx, cfg.Postgres, logger)
	if err != nil {
		return err
	}
	defer closeDB(db, logger)

	syncer, err := newSynchronizer(catalogCfg, importer.NewGormStore(db), logger.Named("import"))
	if err != nil {
		return err
	}

	progress := importer.LogProgress(logger.Named("import"))
	var report *importer.Report
	if mode == importer.ModeReset {
		report, err = syncer.Reset(ctx, categoryPlans, progress)
	} else {
		report, err = syncer.Sync(ctx, categoryPlans, progress)
	}
	if err != nil {
		return fmt.Errorf("%s import: %w", mode, err)
	}

	memo, closeCache, err := newCache(ctx, cfg.Cache, logger)
	if err != nil {
		logger.Warn("catalog cache not invalidated", zap.Error(err))
	} else {
		defer closeCache()
		if err := memo.Invalidate(ctx, catalog.CacheNamespace); err != nil {
			logger.Warn("catalog cache not invalidated", zap.Error(err))
		}
	}

	for _, line := range report.Summary() {
		fmt.Fprintln(out, line)
	}
	return nil
}
