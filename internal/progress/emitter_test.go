package progress

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/alexandresoro/ouca-sub007/internal/entity"
)

type captureSink struct {
	msgs []entity.StatusMessage
	err  error
}

func (s *captureSink) Publish(ctx context.Context, msg entity.StatusMessage) error {
	s.msgs = append(s.msgs, msg)
	return s.err
}

func TestEmitter_SeqStrictlyIncreasesWithFrozenClock(t *testing.T) {
	sink := &captureSink{}
	e := NewEmitter("job-1", sink, nil)
	frozen := time.Date(2024, 5, 12, 8, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return frozen }

	e.Report(context.Background(), entity.Ongoing(entity.StepProcessStarted))
	e.Report(context.Background(), entity.Ongoing(entity.StepImportRetrieved))
	e.Report(context.Background(), entity.Completed(0, 0, 0, nil))

	require.Len(t, sink.msgs, 3)
	assert.Equal(t, frozen.UnixNano(), sink.msgs[0].Seq)
	assert.Equal(t, frozen.UnixNano()+1, sink.msgs[1].Seq)
	assert.Equal(t, frozen.UnixNano()+2, sink.msgs[2].Seq)
	for _, m := range sink.msgs {
		assert.Equal(t, "job-1", m.JobID)
		assert.Equal(t, frozen, m.EmittedAt)
	}
	assert.Equal(t, entity.StateCompleted, sink.msgs[2].Status.State)
}

func TestEmitter_LaterRunSupersedesEarlierRun(t *testing.T) {
	store := NewMemoryStore()
	start := time.Date(2024, 5, 12, 8, 0, 0, 0, time.UTC)

	first := NewEmitter("job-1", store, nil)
	first.now = func() time.Time { return start }
	first.Report(context.Background(), entity.Ongoing(entity.StepValidatingInputFile))

	second := NewEmitter("job-1", store, nil)
	second.now = func() time.Time { return start.Add(time.Minute) }
	second.Report(context.Background(), entity.Ongoing(entity.StepProcessStarted))

	latest, err := store.Latest(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, entity.StepProcessStarted, latest.Status.Step)
}

func TestEmitter_PublishErrorIsLoggedNotPropagated(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	sink := &captureSink{err: errors.New("redis down")}
	e := NewEmitter("job-1", sink, zap.New(core))

	e.Report(context.Background(), entity.Failed("boom"))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "publish import status failed", entry.Message)
	assert.Equal(t, "job-1", entry.ContextMap()["job_id"])
}

func TestEmitter_PublishesAfterCallerCancelled(t *testing.T) {
	sink := &captureSink{}
	e := NewEmitter("job-1", sink, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e.Report(ctx, entity.Failed("stopped"))

	require.Len(t, sink.msgs, 1)
}

type blockingSink struct {
	release chan struct{}

	mu   sync.Mutex
	msgs []entity.StatusMessage
}

func (s *blockingSink) Publish(ctx context.Context, msg entity.StatusMessage) error {
	<-s.release
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return nil
}

func (s *blockingSink) published() []entity.StatusMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.StatusMessage(nil), s.msgs...)
}

func TestRelay_ProgressDoesNotWaitForSlowSink(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	relay := NewEmitter("job-1", sink, nil).Relay(context.Background())

	returned := make(chan struct{})
	go func() {
		defer close(returned)
		for i := 1; i <= 100; i++ {
			relay.Report(context.Background(), entity.Progress(entity.StepValidatingInputFile, 100, 100, i, nil))
		}
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Report blocked on the sink")
	}

	close(sink.release)
	relay.Report(context.Background(), entity.Completed(100, 100, 100, nil))

	msgs := sink.published()
	require.NotEmpty(t, msgs)
	assert.LessOrEqual(t, len(msgs), 3)
	assert.Equal(t, entity.StateCompleted, msgs[len(msgs)-1].Status.State)
	for i := 1; i < len(msgs); i++ {
		assert.Greater(t, msgs[i].Seq, msgs[i-1].Seq)
	}
}

func TestRelay_TerminalStatusIsStoredBeforeReportReturns(t *testing.T) {
	store := NewMemoryStore()
	relay := NewEmitter("job-1", store, nil).Relay(context.Background())

	relay.Report(context.Background(), entity.Ongoing(entity.StepProcessStarted))
	relay.Report(context.Background(), entity.Failed("boom"))

	latest, err := store.Latest(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, entity.Failed("boom"), latest.Status)

	relay.Report(context.Background(), entity.Failed("again"))
	latest, err = store.Latest(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, entity.Failed("again"), latest.Status)
	relay.Close()
}
