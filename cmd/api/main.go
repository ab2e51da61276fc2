package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	_ "github.com/alexandresoro/ouca-sub007/docs"
	"github.com/alexandresoro/ouca-sub007/internal/app"
	"github.com/alexandresoro/ouca-sub007/internal/config"
	"github.com/alexandresoro/ouca-sub007/internal/logging"
	"github.com/alexandresoro/ouca-sub007/internal/progress"
	"github.com/alexandresoro/ouca-sub007/internal/repository/postgresql"
	"github.com/alexandresoro/ouca-sub007/internal/service"
	httptransport "github.com/alexandresoro/ouca-sub007/internal/transport/http"
)

// @title Ouca import API
// @version 1.0
// @description Submits ';' separated import files and reports their validation progress.
// @BasePath /
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(".env", ".env.local")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, err := logging.New(cfg.AppEnv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("api failed", zap.Error(err))
		os.Exit(1)
	}
	log.Info("api stopped")
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	pool, err := postgresql.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("pg: %w", err)
	}
	defer pool.Close()
	if err := postgresql.EnsureSchema(ctx, pool); err != nil {
		return err
	}

	rdb, err := app.NewRedis(ctx, cfg.Redis.Addr)
	if err != nil {
		return err
	}
	defer rdb.Close()

	uploads, err := app.NewUploads(ctx, cfg.Upload)
	if err != nil {
		return err
	}
	status, err := app.NewStatus(rdb, cfg, log)
	if err != nil {
		return err
	}
	defer status.Close()

	queue := app.NewQueue(rdb, cfg.Redis)
	svc := service.NewImportService(
		postgresql.NewJobRepository(pool),
		queue,
		uploads,
		status.Sink,
		progress.NewTracker(status.Redis, cfg.Status.StaleAfter),
		log,
	)
	h := httptransport.NewHandler(svc, queue, status.Redis, log, httptransport.Options{
		RequesterHeader: cfg.RequesterHeader,
		MaxUploadSize:   cfg.Upload.MaxSize,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httptransport.Routes(h, cfg.MetricsPath, promhttp.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("api listening", zap.String("addr", cfg.HTTPAddr), zap.String("postgres_dsn", app.RedactDSN(cfg.PostgresDSN)))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
