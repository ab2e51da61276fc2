package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/alexandresoro/ouca-sub007/internal/entity"
)

var ErrLeaseLost = errors.New("job lease held by another run")

type JobRepository struct {
	db DB
}

func NewJobRepository(db DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) Create(ctx context.Context, t entity.EntityType, requesterID string, priority int) (uuid.UUID, error) {
	const q = `
INSERT INTO import_jobs (entity_type, requester_id, priority)
VALUES ($1, $2, $3)
RETURNING id;
`
	var id uuid.UUID
	if err := r.db.QueryRow(ctx, q, string(t), requesterID, priority).Scan(&id); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (r *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.ImportJob, error) {
	const q = `
SELECT id, entity_type, requester_id, priority, final_status, created_at, updated_at
FROM import_jobs
WHERE id = $1;
`
	var (
		job         entity.ImportJob
		entityType  string
		finalStatus []byte
	)
	if err := r.db.QueryRow(ctx, q, id).Scan(
		&job.ID,
		&entityType,
		&job.RequesterID,
		&job.Priority,
		&finalStatus, // NULL => nil
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	job.EntityType = entity.EntityType(entityType)
	if finalStatus != nil {
		job.FinalStatus = json.RawMessage(finalStatus)
	}
	return &job, nil
}

// SetFinalStatus records the terminal status of the job run.
func (r *JobRepository) SetFinalStatus(ctx context.Context, id uuid.UUID, status entity.ImportStatus) error {
	payload, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("encode final status: %w", err)
	}

	const q = `UPDATE import_jobs SET final_status=$2, updated_at=NOW() WHERE id=$1;`

	tag, err := r.db.Exec(ctx, q, id, payload)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Acquire leases an unfinished job to the run identified by token. It reports false
// while another run renewed its lease less than lease ago.
func (r *JobRepository) Acquire(ctx context.Context, id, token uuid.UUID, lease time.Duration) (bool, error) {
	const q = `
UPDATE import_jobs
SET claim_token = $2, claimed_at = NOW(), updated_at = NOW()
WHERE id = $1
  AND final_status IS NULL
  AND (claimed_at IS NULL OR claimed_at < NOW() - make_interval(secs => $3));
`
	tag, err := r.db.Exec(ctx, q, id, token, lease.Seconds())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *JobRepository) RenewLease(ctx context.Context, id, token uuid.UUID) error {
	const q = `UPDATE import_jobs SET claimed_at = NOW() WHERE id = $1 AND claim_token = $2 AND final_status IS NULL;`

	tag, err := r.db.Exec(ctx, q, id, token)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLeaseLost
	}
	return nil
}
