package progress

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/alexandresoro/ouca-sub007/internal/entity"
)

const publishTimeout = 2 * time.Second

// Emitter stamps the statuses of one job run and hands them to a Sink.
// Publishing errors are logged and dropped.
type Emitter struct {
	jobID string
	sink  Sink
	log   *zap.Logger
	now   func() time.Time

	mu      sync.Mutex
	lastSeq int64
}

func NewEmitter(jobID string, sink Sink, log *zap.Logger) *Emitter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Emitter{jobID: jobID, sink: sink, log: log, now: time.Now}
}

// Report implements importer.Reporter. It publishes before returning.
func (e *Emitter) Report(ctx context.Context, status entity.ImportStatus) {
	e.publish(ctx, e.stamp(status))
}

func (e *Emitter) publish(ctx context.Context, msg entity.StatusMessage) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := e.sink.Publish(ctx, msg); err != nil {
		e.log.Warn("publish import status failed",
			zap.String("job_id", e.jobID),
			zap.String("state", string(msg.Status.State)),
			zap.Int64("seq", msg.Seq),
			zap.Error(err),
		)
	}
}

// Relay starts a goroutine publishing the statuses of a running job out of band.
func (e *Emitter) Relay(ctx context.Context) *Relay {
	r := &Relay{
		e:    e,
		ctx:  context.WithoutCancel(ctx),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go r.loop()
	return r
}

// Relay is an importer.Reporter that never waits on the sink for progress
// statuses. Only the newest pending status is kept. A terminal status closes
// the relay and is published before Report returns.
type Relay struct {
	e    *Emitter
	ctx  context.Context
	wake chan struct{}
	done chan struct{}

	mu      sync.Mutex
	pending *entity.StatusMessage
	closed  bool
	once    sync.Once
}

func (r *Relay) Report(ctx context.Context, status entity.ImportStatus) {
	msg := r.e.stamp(status)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.e.publish(ctx, msg)
		return
	}
	r.pending = &msg
	r.mu.Unlock()
	r.signal()

	if status.Terminal() {
		r.Close()
	}
}

// Close publishes the pending status, if any, and stops the goroutine.
// Statuses reported afterwards are published synchronously.
func (r *Relay) Close() {
	r.once.Do(func() {
		r.mu.Lock()
		r.closed = true
		r.mu.Unlock()
		r.signal()
	})
	<-r.done
}

func (r *Relay) signal() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *Relay) loop() {
	defer close(r.done)
	for range r.wake {
		r.mu.Lock()
		msg, closed := r.pending, r.closed
		r.pending = nil
		r.mu.Unlock()

		if msg != nil {
			r.e.publish(r.ctx, *msg)
		}
		if closed {
			return
		}
	}
}

// stamp assigns a sequence number derived from the clock, so that a job requeued
// after a crash keeps superseding what the previous run emitted.
func (e *Emitter) stamp(status entity.ImportStatus) entity.StatusMessage {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	seq := now.UnixNano()
	if seq <= e.lastSeq {
		seq = e.lastSeq + 1
	}
	e.lastSeq = seq

	return entity.StatusMessage{
		JobID:     e.jobID,
		Seq:       seq,
		EmittedAt: now.UTC(),
		Status:    status,
	}
}
