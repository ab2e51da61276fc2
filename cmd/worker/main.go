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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/alexandresoro/ouca-sub007/internal/app"
	"github.com/alexandresoro/ouca-sub007/internal/config"
	"github.com/alexandresoro/ouca-sub007/internal/entity"
	"github.com/alexandresoro/ouca-sub007/internal/importer"
	"github.com/alexandresoro/ouca-sub007/internal/logging"
	"github.com/alexandresoro/ouca-sub007/internal/metrics"
	"github.com/alexandresoro/ouca-sub007/internal/repository/postgresql"
	"github.com/alexandresoro/ouca-sub007/internal/service"
	"github.com/alexandresoro/ouca-sub007/internal/worker"
)

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
		log.Error("worker failed", zap.Error(err))
		os.Exit(1)
	}
	log.Info("worker stopped")
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	log.Info("worker config",
		zap.Int("workers", cfg.Workers),
		zap.String("redis_addr", cfg.Redis.Addr),
		zap.String("queue_key", cfg.Redis.QueueKey),
		zap.String("processing_key", cfg.Redis.ProcessingKey),
		zap.String("upload_backend", cfg.Upload.Backend),
		zap.String("postgres_dsn", app.RedactDSN(cfg.PostgresDSN)),
	)

	// Postgres
	pool, err := postgresql.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("pg: %w", err)
	}
	defer pool.Close()
	if err := postgresql.EnsureSchema(ctx, pool); err != nil {
		return err
	}

	// Redis
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

	m := metrics.NewImport(prometheus.DefaultRegisterer)
	queue := app.NewQueue(rdb, cfg.Redis)

	reaper, err := startReaper(ctx, cfg.Reaper, queue, log)
	if err != nil {
		return err
	}
	defer func() { <-reaper.Stop().Done() }()

	metricsSrv := serveMetrics(cfg, log)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}()

	// DI
	deps := postgresql.ImporterDeps(pool)
	processor := worker.NewProcessor(
		postgresql.NewJobRepository(pool),
		importer.NewPipeline(uploads, log, m),
		func(t entity.EntityType) (importer.Validator, error) { return importer.New(t, deps) },
		status.Sink,
		log,
		m,
	).WithLease(cfg.Reaper.OlderThan)

	log.Info("worker started", zap.Int("workers", cfg.Workers))
	worker.NewPool(queue, processor, cfg.Workers, log).
		WithHeartbeat(cfg.Reaper.OlderThan / 3).
		Run(ctx)
	return nil
}

// startReaper puts back in their queue the jobs a dead worker left claimed.
func startReaper(ctx context.Context, opts config.ReaperOptions, queue service.Queue, log *zap.Logger) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(opts.Schedule, func() {
		n, err := queue.RequeueStale(ctx, opts.OlderThan, opts.Batch)
		if err != nil {
			log.Warn("requeue stale jobs failed", zap.Error(err))
			return
		}
		if n > 0 {
			log.Info("requeued stale jobs", zap.Int64("count", n))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("reaper schedule: %w", err)
	}
	c.Start()
	return c, nil
}

func serveMetrics(cfg *config.Config, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.MetricsPath, promhttp.Handler())
	srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()
	return srv
}
