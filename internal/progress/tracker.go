package progress

import (
	"context"
	"time"

	"github.com/alexandresoro/ouca-sub007/internal/entity"
)

// Snapshot is the latest known status of a job as seen by a supervisor.
type Snapshot struct {
	entity.StatusMessage
	// Stale is set when a running job has not reported for longer than the tracker allows.
	Stale bool `json:"stale"`
}

// Tracker reads the newest status of jobs and flags the ones that went silent.
type Tracker struct {
	store      Store
	staleAfter time.Duration
	now        func() time.Time
}

func NewTracker(store Store, staleAfter time.Duration) *Tracker {
	return &Tracker{store: store, staleAfter: staleAfter, now: time.Now}
}

func (t *Tracker) Latest(ctx context.Context, jobID string) (Snapshot, error) {
	msg, err := t.store.Latest(ctx, jobID)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{StatusMessage: msg, Stale: t.stale(msg)}, nil
}

func (t *Tracker) stale(msg entity.StatusMessage) bool {
	if t.staleAfter <= 0 || msg.Status.Terminal() || msg.Status.State == entity.StateNotStarted {
		return false
	}
	return t.now().Sub(msg.EmittedAt) > t.staleAfter
}
