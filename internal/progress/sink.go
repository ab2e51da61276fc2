package progress

import (
	"context"
	"errors"

	"github.com/alexandresoro/ouca-sub007/internal/entity"
)

var ErrNoStatus = errors.New("no status recorded for job")

// Sink receives status messages. Delivery is at least once and may be out of order;
// readers keep the message with the highest Seq.
type Sink interface {
	Publish(ctx context.Context, msg entity.StatusMessage) error
}

// Store returns the newest message recorded for a job, or ErrNoStatus.
type Store interface {
	Latest(ctx context.Context, jobID string) (entity.StatusMessage, error)
}

type fanout []Sink

// Fanout publishes to every sink and joins their errors.
func Fanout(sinks ...Sink) Sink {
	out := make(fanout, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (f fanout) Publish(ctx context.Context, msg entity.StatusMessage) error {
	var errs []error
	for _, s := range f {
		if err := s.Publish(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Newer reports whether a supersedes b.
func Newer(a, b entity.StatusMessage) bool {
	return a.Seq > b.Seq
}
