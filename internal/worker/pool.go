package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/alexandresoro/ouca-sub007/internal/service"
)

type JobProcessor interface {
	Process(ctx context.Context, jobID string) error
}

type Pool struct {
	queue      service.Queue
	processor  JobProcessor
	workers    int
	claimDelay time.Duration
	retryDelay time.Duration
	heartbeat  time.Duration
	log        *zap.Logger
}

func NewPool(queue service.Queue, processor JobProcessor, workers int, log *zap.Logger) *Pool {
	if workers <= 0 {
		workers = 4
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Pool{
		queue:      queue,
		processor:  processor,
		workers:    workers,
		claimDelay: 5 * time.Second,
		retryDelay: time.Second,
		heartbeat:  time.Minute,
		log:        log,
	}
}

// WithHeartbeat sets how often the claim of a running job is refreshed. It must
// stay well below the reaper threshold.
func (p *Pool) WithHeartbeat(d time.Duration) *Pool {
	if d > 0 {
		p.heartbeat = d
	}
	return p
}

// Run claims jobs until ctx is done, then waits for the running imports to finish.
// Imports are not cancelled mid-flight: they get a context that outlives ctx.
func (p *Pool) Run(ctx context.Context) {
	p.log.Info("worker pool started", zap.Int("workers", p.workers))

	jobCh := make(chan string)
	runCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			log := p.log.With(zap.Int("worker", n))
			for jobID := range jobCh {
				stop := p.keepClaim(runCtx, jobID, log)
				err := p.processor.Process(runCtx, jobID)
				stop()
				if err != nil {
					log.Error("process job failed", zap.String("job_id", jobID), zap.Error(err))
				}

				// Ack in every case: the final status is stored, or the job can never be
				// processed. A crash before this point leaves the id for the reaper.
				if err := p.queue.Ack(runCtx, jobID); err != nil {
					log.Error("ack job failed", zap.String("job_id", jobID), zap.Error(err))
				}
			}
		}(i + 1)
	}

	defer func() {
		close(jobCh)
		wg.Wait()
		p.log.Info("worker pool stopped")
	}()

	for {
		jobID, err := p.queue.ClaimBlocking(ctx, p.claimDelay)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return
		case errors.Is(err, redis.Nil):
			continue
		default:
			p.log.Warn("claim job failed", zap.Error(err))
			select {
			case <-time.After(p.retryDelay):
				continue
			case <-ctx.Done():
				return
			}
		}

		select {
		case jobCh <- jobID:
		case <-ctx.Done():
			return
		}
	}
}

// keepClaim touches the claim of jobID until the returned func is called.
func (p *Pool) keepClaim(ctx context.Context, jobID string, log *zap.Logger) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		t := time.NewTicker(p.heartbeat)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if err := p.queue.Touch(ctx, jobID); err != nil && ctx.Err() == nil {
					log.Warn("refresh job claim failed", zap.String("job_id", jobID), zap.Error(err))
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
