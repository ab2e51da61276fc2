package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrInvalidKey = errors.New("invalid upload key")

// Uploads keeps the raw file of each import job until a worker reads it.
// Get returns (nil, nil) when nothing was stored for the job.
type Uploads interface {
	Put(ctx context.Context, jobID string, data []byte) error
	Get(ctx context.Context, jobID string) ([]byte, error)
}

// objectName maps a job id to the name its upload is stored under.
func objectName(jobID string) (string, error) {
	id, err := uuid.Parse(jobID)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, jobID)
	}
	return id.String() + ".csv", nil
}
