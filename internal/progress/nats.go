package progress

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/alexandresoro/ouca-sub007/internal/entity"
)

const SubjectPrefix = "imports.status."

// Publisher is the part of *nats.Conn the sink needs.
type Publisher interface {
	Publish(subj string, data []byte) error
}

var _ Publisher = (*nats.Conn)(nil)

// NATSSink fans status messages out on imports.status.<jobID>.
type NATSSink struct {
	pub Publisher
}

func NewNATSSink(pub Publisher) *NATSSink {
	return &NATSSink{pub: pub}
}

func (s *NATSSink) Publish(_ context.Context, msg entity.StatusMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}
	if err := s.pub.Publish(SubjectPrefix+msg.JobID, payload); err != nil {
		return fmt.Errorf("nats publish status of job %s: %w", msg.JobID, err)
	}
	return nil
}
