package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alexandresoro/ouca-sub007/internal/entity"
	"github.com/alexandresoro/ouca-sub007/internal/importer"
	"github.com/alexandresoro/ouca-sub007/internal/progress"
)

var (
	ErrUnknownEntityType  = importer.ErrUnknownEntityType
	ErrRequesterRequired  = errors.New("requester is required")
	ErrEmptyUpload        = errors.New("uploaded file is empty")
	ErrImportNotCompleted = errors.New("import is not completed")
	ErrNotOwner           = errors.New("import belongs to another requester")
)

// JobRepository is implemented by postgresql.JobRepository.
type JobRepository interface {
	Create(ctx context.Context, t entity.EntityType, requesterID string, priority int) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.ImportJob, error)
}

// JobQueue only adds jobs; the worker side uses Queue.
type JobQueue interface {
	Enqueue(ctx context.Context, jobID string, priority int) error
}

type UploadWriter interface {
	Put(ctx context.Context, jobID string, data []byte) error
}

type StatusReader interface {
	Latest(ctx context.Context, jobID string) (progress.Snapshot, error)
}

type ImportService struct {
	repo    JobRepository
	queue   JobQueue
	uploads UploadWriter
	sink    progress.Sink
	status  StatusReader
	log     *zap.Logger
}

func NewImportService(repo JobRepository, queue JobQueue, uploads UploadWriter, sink progress.Sink, status StatusReader, log *zap.Logger) *ImportService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ImportService{repo: repo, queue: queue, uploads: uploads, sink: sink, status: status, log: log}
}

type SubmitImportRequest struct {
	EntityType  entity.EntityType
	RequesterID string
	Priority    int
	Data        []byte
}

// SubmitImport stores the upload, records the job and hands it to the workers.
func (s *ImportService) SubmitImport(ctx context.Context, req SubmitImportRequest) (uuid.UUID, error) {
	if !req.EntityType.Valid() {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrUnknownEntityType, req.EntityType)
	}
	if req.RequesterID == "" {
		return uuid.Nil, ErrRequesterRequired
	}
	if len(req.Data) == 0 {
		return uuid.Nil, ErrEmptyUpload
	}

	priority := req.Priority
	if priority < 0 || priority > 2 {
		priority = 1 // normal
	}

	id, err := s.repo.Create(ctx, req.EntityType, req.RequesterID, priority)
	if err != nil {
		return uuid.Nil, fmt.Errorf("create job: %w", err)
	}
	if err := s.uploads.Put(ctx, id.String(), req.Data); err != nil {
		return uuid.Nil, fmt.Errorf("store upload: %w", err)
	}

	progress.NewEmitter(id.String(), s.sink, s.log).Report(ctx, entity.NotStarted())

	if err := s.queue.Enqueue(ctx, id.String(), priority); err != nil {
		return uuid.Nil, fmt.Errorf("enqueue job: %w", err)
	}

	s.log.Info("import submitted",
		zap.String("job_id", id.String()),
		zap.String("entity_type", string(req.EntityType)),
		zap.Int("priority", priority),
		zap.Int("bytes", len(req.Data)),
	)
	return id, nil
}

// ImportView is a job together with its latest known status.
type ImportView struct {
	Job    entity.ImportJob    `json:"job"`
	Status entity.ImportStatus `json:"status"`
	Stale  bool                `json:"stale"`
}

// GetImport prefers the final status stored on the job row over the progress stream.
func (s *ImportService) GetImport(ctx context.Context, id uuid.UUID) (*ImportView, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := &ImportView{Job: *job}

	if len(job.FinalStatus) > 0 {
		if err := json.Unmarshal(job.FinalStatus, &view.Status); err != nil {
			return nil, fmt.Errorf("decode final status: %w", err)
		}
		return view, nil
	}

	snap, err := s.status.Latest(ctx, id.String())
	switch {
	case errors.Is(err, progress.ErrNoStatus):
		view.Status = entity.NotStarted()
	case err != nil:
		return nil, fmt.Errorf("read status: %w", err)
	default:
		view.Status = snap.Status
		view.Stale = snap.Stale
	}
	return view, nil
}

// ErrorReport holds the rejected rows of a completed import and the column
// layout they were read with.
type ErrorReport struct {
	EntityType  entity.EntityType
	RequesterID string
	Columns     []string
	Errors      []entity.ImportError
}

// ImportErrors returns the rejected rows of a completed import. Another requester's
// import yields ErrNotOwner, whatever its state.
func (s *ImportService) ImportErrors(ctx context.Context, id uuid.UUID, requesterID string) (*ErrorReport, error) {
	view, err := s.GetImport(ctx, id)
	if err != nil {
		return nil, err
	}
	if view.Job.RequesterID != requesterID {
		return nil, ErrNotOwner
	}
	if view.Status.State != entity.StateCompleted {
		return nil, ErrImportNotCompleted
	}
	return &ErrorReport{
		EntityType:  view.Job.EntityType,
		RequesterID: view.Job.RequesterID,
		Columns:     importer.ColumnsOf(view.Job.EntityType),
		Errors:      view.Status.Errors,
	}, nil
}
