package importer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/alexandresoro/ouca-sub007/internal/entity"
	"github.com/alexandresoro/ouca-sub007/internal/metrics"
)

const (
	ReasonUploadUnreadable      = "Uploaded file could not be read"
	ReasonUploadMalformed       = "Uploaded file could not be parsed"
	ReasonReferenceDataMissing  = "Required data could not be retrieved"
	ReasonPersistenceFailed     = "Imported data could not be saved"
	ReasonUnexpectedWorkerError = "Import stopped unexpectedly"
)

// UploadReader returns the uploaded bytes of a job, or nil when nothing was stored.
type UploadReader interface {
	Get(ctx context.Context, jobID string) ([]byte, error)
}

// Reporter receives every status the pipeline emits. Reports are fire and forget.
type Reporter interface {
	Report(ctx context.Context, status entity.ImportStatus)
}

type ReporterFunc func(ctx context.Context, status entity.ImportStatus)

func (f ReporterFunc) Report(ctx context.Context, status entity.ImportStatus) { f(ctx, status) }

type Pipeline struct {
	uploads UploadReader
	log     *zap.Logger
	metrics *metrics.Import
}

func NewPipeline(uploads UploadReader, log *zap.Logger, m *metrics.Import) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{uploads: uploads, log: log, metrics: m}
}

// Run drives one import from the stored upload to the batch insert and returns the
// terminal status it emitted. A persistence error is returned as is and no terminal
// status is emitted for it: the caller decides how the job ends.
func (p *Pipeline) Run(ctx context.Context, job entity.ImportJob, v Validator, r Reporter) (entity.ImportStatus, error) {
	start := time.Now()
	jobID := job.ID.String()
	log := p.log.With(zap.String("job_id", jobID), zap.String("entity_type", string(job.EntityType)))

	r.Report(ctx, entity.Ongoing(entity.StepProcessStarted))

	data, err := p.uploads.Get(ctx, jobID)
	if err != nil {
		log.Warn("read upload failed", zap.Error(err))
	}
	if err != nil || data == nil {
		return p.fail(ctx, r, ReasonUploadUnreadable), nil
	}

	r.Report(ctx, entity.Ongoing(entity.StepImportRetrieved))

	rows, err := ParseRows(data)
	if err != nil {
		log.Warn("parse upload failed", zap.Error(err))
		return p.fail(ctx, r, ReasonUploadMalformed), nil
	}

	total := len(rows)
	if total == 0 {
		done := entity.Completed(0, 0, 0, nil)
		r.Report(ctx, done)
		return done, nil
	}

	r.Report(ctx, entity.Ongoing(entity.StepRetrievingRequiredData))

	if err := v.Init(ctx, job.RequesterID); err != nil {
		log.Error("load reference data failed", zap.Error(err))
		return p.fail(ctx, r, ReasonReferenceDataMissing), nil
	}

	errs := make([]entity.ImportError, 0)
	validated := 0
	r.Report(ctx, entity.Progress(entity.StepValidatingInputFile, total, total, validated, snapshot(errs)))

	want := v.NumberOfColumns()
	for _, row := range rows {
		var rejection error
		if len(row) != want {
			rejection = columnCountMismatch(len(row), want)
		} else {
			rejection = v.ValidateAndPrepare(row)
		}
		if rejection != nil {
			errs = append(errs, entity.ImportError{Row: row, Message: rejection.Error()})
		}
		p.metrics.RowValidated(job.EntityType, rejection == nil)

		validated++
		r.Report(ctx, entity.Progress(entity.StepValidatingInputFile, total, total, validated, snapshot(errs)))
	}

	r.Report(ctx, entity.Progress(entity.StepInsertingImportedData, total, total, validated, snapshot(errs)))

	if staged := v.Pending(); staged > 0 {
		if err := v.Persist(ctx, job.RequesterID); err != nil {
			return entity.ImportStatus{}, fmt.Errorf("persist %d %s records: %w", staged, job.EntityType, err)
		}
	}

	done := entity.Completed(total, total, total-len(errs), errs)
	r.Report(ctx, done)

	log.Info("import completed",
		zap.Int("total", total),
		zap.Int("rejected", len(errs)),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return done, nil
}

func (p *Pipeline) fail(ctx context.Context, r Reporter, reason string) entity.ImportStatus {
	failed := entity.Failed(reason)
	r.Report(ctx, failed)
	return failed
}

// snapshot caps the slice so a reporter appending to it cannot touch later entries.
func snapshot(errs []entity.ImportError) []entity.ImportError {
	return errs[:len(errs):len(errs)]
}
