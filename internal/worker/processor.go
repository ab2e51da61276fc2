package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alexandresoro/ouca-sub007/internal/entity"
	"github.com/alexandresoro/ouca-sub007/internal/importer"
	"github.com/alexandresoro/ouca-sub007/internal/metrics"
	"github.com/alexandresoro/ouca-sub007/internal/progress"
)

type JobRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.ImportJob, error)
	Acquire(ctx context.Context, id, token uuid.UUID, lease time.Duration) (bool, error)
	RenewLease(ctx context.Context, id, token uuid.UUID) error
	SetFinalStatus(ctx context.Context, id uuid.UUID, status entity.ImportStatus) error
}

// Runner is implemented by *importer.Pipeline.
type Runner interface {
	Run(ctx context.Context, job entity.ImportJob, v importer.Validator, r importer.Reporter) (entity.ImportStatus, error)
}

// ValidatorFactory builds a fresh validator for one run.
type ValidatorFactory func(t entity.EntityType) (importer.Validator, error)

type Processor struct {
	repo       JobRepo
	pipeline   Runner
	validators ValidatorFactory
	sink       progress.Sink
	log        *zap.Logger
	metrics    *metrics.Import
	lease      time.Duration
}

func NewProcessor(repo JobRepo, pipeline Runner, validators ValidatorFactory, sink progress.Sink, log *zap.Logger, m *metrics.Import) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{
		repo:       repo,
		pipeline:   pipeline,
		validators: validators,
		sink:       sink,
		log:        log,
		metrics:    m,
		lease:      10 * time.Minute,
	}
}

// WithLease sets how long a run keeps its job without renewing the lease.
func (p *Processor) WithLease(d time.Duration) *Processor {
	if d > 0 {
		p.lease = d
	}
	return p
}

// Process runs one import job to a terminal status and stores that status on the job.
// Every run ends with Completed or Failed, whatever goes wrong inside it.
func (p *Processor) Process(ctx context.Context, jobID string) error {
	start := time.Now()
	log := p.log.With(zap.String("job_id", jobID))

	id, err := uuid.Parse(jobID)
	if err != nil {
		log.Error("invalid job id", zap.Error(err))
		return err
	}

	job, err := p.repo.GetByID(ctx, id)
	if err != nil {
		log.Error("get job failed", zap.Error(err))
		return fmt.Errorf("get job %s: %w", jobID, err)
	}
	if len(job.FinalStatus) > 0 {
		log.Info("job already finished, skipping")
		return nil
	}

	token := uuid.New()
	acquired, err := p.repo.Acquire(ctx, id, token, p.lease)
	if err != nil {
		log.Error("lease job failed", zap.Error(err))
		return fmt.Errorf("lease job %s: %w", jobID, err)
	}
	if !acquired {
		log.Info("job leased by another run, skipping")
		return nil
	}
	defer p.holdLease(ctx, id, token, log)()

	log = log.With(zap.String("entity_type", string(job.EntityType)))
	log.Info("import started")
	p.metrics.JobStarted(job.EntityType)

	relay := progress.NewEmitter(jobID, p.sink, log).Relay(ctx)
	status := p.run(ctx, *job, relay, log)
	relay.Close()

	p.metrics.JobFinished(job.EntityType, status.State, time.Since(start))
	log.Info("import finished",
		zap.String("state", string(status.State)),
		zap.String("reason", status.Reason),
		zap.Int("total", status.TotalLinesInFile),
		zap.Int("rejected", len(status.Errors)),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	if err := p.repo.SetFinalStatus(context.WithoutCancel(ctx), id, status); err != nil {
		log.Error("store final status failed", zap.Error(err))
		return fmt.Errorf("store final status of %s: %w", jobID, err)
	}
	return nil
}

func (p *Processor) run(ctx context.Context, job entity.ImportJob, r importer.Reporter, log *zap.Logger) (status entity.ImportStatus) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("import panicked", zap.Any("panic", rec), zap.Stack("stack"))
			status = fail(ctx, r, importer.ReasonUnexpectedWorkerError)
		}
	}()

	v, err := p.validators(job.EntityType)
	if err != nil {
		log.Error("build validator failed", zap.Error(err))
		return fail(ctx, r, importer.ReasonUnexpectedWorkerError)
	}

	status, err = p.pipeline.Run(ctx, job, v, r)
	if err != nil {
		log.Error("persist imported data failed", zap.Error(err))
		return fail(ctx, r, importer.ReasonPersistenceFailed)
	}
	return status
}

// holdLease renews the job lease until the returned func is called.
func (p *Processor) holdLease(ctx context.Context, id, token uuid.UUID, log *zap.Logger) (release func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		t := time.NewTicker(p.lease / 3)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if err := p.repo.RenewLease(ctx, id, token); err != nil && ctx.Err() == nil {
					log.Warn("renew job lease failed", zap.Error(err))
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

func fail(ctx context.Context, r importer.Reporter, reason string) entity.ImportStatus {
	failed := entity.Failed(reason)
	r.Report(ctx, failed)
	return failed
}
