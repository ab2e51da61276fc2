package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexandresoro/ouca-sub007/internal/entity"
	"github.com/alexandresoro/ouca-sub007/internal/progress"
	"github.com/alexandresoro/ouca-sub007/internal/repository/postgresql"
	"github.com/alexandresoro/ouca-sub007/internal/service"
)

type fakeRepo struct {
	createCalled  int
	lastType      entity.EntityType
	lastRequester string
	lastPriority  int

	createID  uuid.UUID
	createErr error
	jobs      map[uuid.UUID]*entity.ImportJob
}

func (r *fakeRepo) Create(ctx context.Context, t entity.EntityType, requesterID string, priority int) (uuid.UUID, error) {
	r.createCalled++
	r.lastType = t
	r.lastRequester = requesterID
	r.lastPriority = priority
	if r.createErr != nil {
		return uuid.Nil, r.createErr
	}
	return r.createID, nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.ImportJob, error) {
	job, ok := r.jobs[id]
	if !ok {
		return nil, postgresql.ErrNotFound
	}
	return job, nil
}

type fakeQueue struct {
	enqueuedIDs        []string
	enqueuedPriorities []int
	enqueueErr         error
}

func (q *fakeQueue) Enqueue(ctx context.Context, jobID string, priority int) error {
	q.enqueuedIDs = append(q.enqueuedIDs, jobID)
	q.enqueuedPriorities = append(q.enqueuedPriorities, priority)
	return q.enqueueErr
}

type fakeUploads struct {
	data   map[string][]byte
	putErr error
}

func (u *fakeUploads) Put(ctx context.Context, jobID string, data []byte) error {
	if u.putErr != nil {
		return u.putErr
	}
	u.data[jobID] = data
	return nil
}

type fixture struct {
	repo    *fakeRepo
	queue   *fakeQueue
	uploads *fakeUploads
	store   *progress.MemoryStore
	svc     *service.ImportService
}

func newFixture(id uuid.UUID) *fixture {
	f := &fixture{
		repo:    &fakeRepo{createID: id, jobs: map[uuid.UUID]*entity.ImportJob{}},
		queue:   &fakeQueue{},
		uploads: &fakeUploads{data: map[string][]byte{}},
		store:   progress.NewMemoryStore(),
	}
	f.svc = service.NewImportService(f.repo, f.queue, f.uploads, f.store, progress.NewTracker(f.store, time.Minute), nil)
	return f
}

func TestImportService_SubmitImport(t *testing.T) {
	ctx := context.Background()
	id := uuid.MustParse("66666666-6666-6666-6666-666666666666")
	f := newFixture(id)

	got, err := f.svc.SubmitImport(ctx, service.SubmitImportRequest{
		EntityType:  entity.TypeTown,
		RequesterID: "user-1",
		Priority:    2,
		Data:        []byte("01;999;Sample Town\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, id, got)

	assert.Equal(t, entity.TypeTown, f.repo.lastType)
	assert.Equal(t, "user-1", f.repo.lastRequester)
	assert.Equal(t, []byte("01;999;Sample Town\n"), f.uploads.data[id.String()])
	assert.Equal(t, []string{id.String()}, f.queue.enqueuedIDs)
	assert.Equal(t, []int{2}, f.queue.enqueuedPriorities)

	latest, err := f.store.Latest(ctx, id.String())
	require.NoError(t, err)
	assert.Equal(t, entity.StateNotStarted, latest.Status.State)
}

func TestImportService_SubmitImport_PriorityClampedToNormal(t *testing.T) {
	f := newFixture(uuid.New())

	_, err := f.svc.SubmitImport(context.Background(), service.SubmitImportRequest{
		EntityType:  entity.TypeObserver,
		RequesterID: "user-1",
		Priority:    999,
		Data:        []byte("Alice\n"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, f.repo.lastPriority)
	assert.Equal(t, []int{1}, f.queue.enqueuedPriorities)
}

func TestImportService_SubmitImport_Rejections(t *testing.T) {
	tests := []struct {
		name string
		req  service.SubmitImportRequest
		want error
	}{
		{"unknown type", service.SubmitImportRequest{EntityType: "bird", RequesterID: "u", Data: []byte("x")}, service.ErrUnknownEntityType},
		{"no requester", service.SubmitImportRequest{EntityType: entity.TypeAge, Data: []byte("x")}, service.ErrRequesterRequired},
		{"empty upload", service.SubmitImportRequest{EntityType: entity.TypeAge, RequesterID: "u"}, service.ErrEmptyUpload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(uuid.New())

			_, err := f.svc.SubmitImport(context.Background(), tt.req)
			require.ErrorIs(t, err, tt.want)
			assert.Zero(t, f.repo.createCalled)
			assert.Empty(t, f.queue.enqueuedIDs)
		})
	}
}

func TestImportService_SubmitImport_UploadFailureIsNotEnqueued(t *testing.T) {
	f := newFixture(uuid.New())
	boom := errors.New("bucket unavailable")
	f.uploads.putErr = boom

	_, err := f.svc.SubmitImport(context.Background(), service.SubmitImportRequest{
		EntityType: entity.TypeAge, RequesterID: "u", Data: []byte("Adulte"),
	})
	require.ErrorIs(t, err, boom)
	assert.Empty(t, f.queue.enqueuedIDs)
}

func TestImportService_GetImport(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	f := newFixture(id)
	f.repo.jobs[id] = &entity.ImportJob{ID: id, EntityType: entity.TypeTown, RequesterID: "user-1"}

	view, err := f.svc.GetImport(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.StateNotStarted, view.Status.State)

	f.store.Apply(entity.StatusMessage{
		JobID:     id.String(),
		Seq:       10,
		EmittedAt: time.Now().Add(-time.Hour),
		Status:    entity.Ongoing(entity.StepValidatingInputFile),
	})
	view, err = f.svc.GetImport(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.StepValidatingInputFile, view.Status.Step)
	assert.True(t, view.Stale)

	final, err := json.Marshal(entity.Completed(1, 1, 0, []entity.ImportError{{Row: []string{"x"}, Message: "bad"}}))
	require.NoError(t, err)
	f.repo.jobs[id].FinalStatus = final

	view, err = f.svc.GetImport(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.StateCompleted, view.Status.State)
	assert.False(t, view.Stale)

	rep, err := f.svc.ImportErrors(ctx, id, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []entity.ImportError{{Row: []string{"x"}, Message: "bad"}}, rep.Errors)
	assert.Equal(t, []string{"departmentCode", "townCode", "townName"}, rep.Columns)
}

func TestImportService_ImportErrors_NotCompleted(t *testing.T) {
	id := uuid.New()
	f := newFixture(id)
	f.repo.jobs[id] = &entity.ImportJob{ID: id, RequesterID: "user-1"}

	_, err := f.svc.ImportErrors(context.Background(), id, "user-1")
	require.ErrorIs(t, err, service.ErrImportNotCompleted)

	_, err = f.svc.ImportErrors(context.Background(), id, "someone-else")
	require.ErrorIs(t, err, service.ErrNotOwner)

	_, err = f.svc.GetImport(context.Background(), uuid.New())
	require.ErrorIs(t, err, postgresql.ErrNotFound)
}
