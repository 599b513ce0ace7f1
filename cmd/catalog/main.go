package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reliktarte/catalog-service/config"
	"github.com/reliktarte/catalog-service/logging"
)

// env is what every subcommand needs before it does its own work.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFiles []string
	e := &env{}

	root := &cobra.Command{
		Use:           "catalog",
		Short:         "Door and moulding catalog service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFiles...)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Server.AppEnv, cfg.Logger.Level)
			if err != nil {
				return err
			}
			zap.ReplaceGlobals(logger)
			e.cfg = cfg
			e.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if e.logger != nil {
				_ = e.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "env files to load before the environment (default .env)")

	root.AddCommand(
		newServeCmd(e),
		newImportCmd(e),
		newResetCmd(e),
		newOptimizeCmd(e),
		newMigrateCmd(e),
	)
	return root
}
