package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alexandresoro/ouca-sub007/internal/config"
	"github.com/alexandresoro/ouca-sub007/internal/logging"
	"github.com/alexandresoro/ouca-sub007/internal/repository/postgresql"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "importctl",
		Short:         "Run, check and inspect Ouca imports from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newReportCmd())
	cmd.AddCommand(newSchemaCmd())
	cmd.AddCommand(newSettingsCmd())
	return cmd
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		code := exitCode(err)
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(code)
	}
}

// env is what every command needs to reach the database.
type env struct {
	cfg  *config.Config
	log  *zap.Logger
	pool postgresql.DB
	done func()
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load(".env", ".env.local")
	if err != nil {
		return nil, withCode(exitUsage, err)
	}
	log, err := logging.New(cfg.AppEnv)
	if err != nil {
		return nil, err
	}
	pool, err := postgresql.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, withCode(exitDB, fmt.Errorf("pg: %w", err))
	}
	return &env{
		cfg:  cfg,
		log:  log,
		pool: pool,
		done: func() {
			pool.Close()
			_ = log.Sync()
		},
	}, nil
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Create the import tables when they do not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.done()

			if err := postgresql.EnsureSchema(cmd.Context(), e.pool); err != nil {
				return withCode(exitDBWrite, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema ok")
			return nil
		},
	}
}
