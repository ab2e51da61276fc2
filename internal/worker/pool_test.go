package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexandresoro/ouca-sub007/internal/worker"
)

type chanQueue struct {
	ids chan string

	mu      sync.Mutex
	acked   []string
	touched map[string]int
}

func (q *chanQueue) Enqueue(ctx context.Context, jobID string, priority int) error {
	q.ids <- jobID
	return nil
}

func (q *chanQueue) ClaimBlocking(ctx context.Context, timeout time.Duration) (string, error) {
	select {
	case id := <-q.ids:
		return id, nil
	case <-time.After(10 * time.Millisecond):
		return "", redis.Nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (q *chanQueue) Ack(ctx context.Context, jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.acked = append(q.acked, jobID)
	return nil
}

func (q *chanQueue) Touch(ctx context.Context, jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.touched == nil {
		q.touched = map[string]int{}
	}
	q.touched[jobID]++
	return nil
}

func (q *chanQueue) touches(jobID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.touched[jobID]
}

func (q *chanQueue) RequeueStale(context.Context, time.Duration, int64) (int64, error) { return 0, nil }
func (q *chanQueue) Depth(context.Context) (int64, error)                              { return int64(len(q.ids)), nil }

func (q *chanQueue) ackedIDs() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.acked...)
}

type recordingProcessor struct {
	mu   sync.Mutex
	seen []string
	fail map[string]bool
}

func (p *recordingProcessor) Process(ctx context.Context, jobID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen = append(p.seen, jobID)
	if p.fail[jobID] {
		return errors.New("boom")
	}
	return nil
}

func TestPool_ProcessesAndAcksEveryJob(t *testing.T) {
	q := &chanQueue{ids: make(chan string, 3)}
	proc := &recordingProcessor{fail: map[string]bool{"b": true}}
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Enqueue(context.Background(), id, 1))
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.NewPool(q, proc, 2, nil).Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(q.ackedIDs()) == 3 }, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not stop")
	}
	assert.ElementsMatch(t, []string{"a", "b", "c"}, q.ackedIDs())
	assert.ElementsMatch(t, []string{"a", "b", "c"}, proc.seen)
}

type slowProcessor struct{ d time.Duration }

func (p slowProcessor) Process(ctx context.Context, jobID string) error {
	time.Sleep(p.d)
	return nil
}

func TestPool_TouchesClaimWhileProcessing(t *testing.T) {
	q := &chanQueue{ids: make(chan string, 1)}
	require.NoError(t, q.Enqueue(context.Background(), "long", 1))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.NewPool(q, slowProcessor{d: 150 * time.Millisecond}, 1, nil).WithHeartbeat(20 * time.Millisecond).Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(q.ackedIDs()) == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done

	touched := q.touches("long")
	assert.GreaterOrEqual(t, touched, 2)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, touched, q.touches("long"), "no touch after the job is acked")
}
