package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reliktarte/catalog-service/database"
	"github.com/reliktarte/catalog-service/imageopt"
)

func newOptimizeCmd(e *env) *cobra.Command {
	var root string
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Recompress catalog photos in place",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger := e.cfg, e.logger
			if root == "" {
				root = cfg.Catalog.StaticDir
			}

			opt := imageopt.New(imageopt.Options{
				Workers:     cfg.Images.Workers,
				JPEGQuality: cfg.Images.JPEGQuality,
				MaxWidth:    cfg.Images.MaxWidth,
			}, logger.Named("imageopt"))

			files, err := opt.Files(root)
			if err != nil {
				return err
			}
			logger.Info("optimizing images", zap.String("root", root), zap.Int("files", len(files)))

			results, err := opt.Run(cmd.Context(), files)
			if err != nil {
				return err
			}
			s := imageopt.Summarize(results)
			fmt.Fprintf(cmd.OutOrStdout(), "files=%d replaced=%d skipped=%d failed=%d saved=%dB\n",
				s.Files, s.Replaced, s.Skipped, s.Failed, s.Saved())
			return nil
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "directory to scan (default STATIC_DIR)")
	return cmd
}

func newMigrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the catalog schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.Connect(cmd.Context(), e.cfg.Postgres, e.logger)
			if err != nil {
				return err
			}
			defer closeDB(db, e.logger)
			if err := database.Migrate(db); err != nil {
				return err
			}
			e.logger.Info("schema migrated")
			return nil
		},
	}
}
