package progress

import (
	"context"
	"sync"

	"github.com/alexandresoro/ouca-sub007/internal/entity"
)

// MemoryStore is an in-process Sink and Store applying the newest-seq rule.
type MemoryStore struct {
	mu     sync.RWMutex
	latest map[string]entity.StatusMessage
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{latest: make(map[string]entity.StatusMessage)}
}

func (m *MemoryStore) Publish(_ context.Context, msg entity.StatusMessage) error {
	m.Apply(msg)
	return nil
}

// Apply records msg unless a newer message is already known and reports whether it was kept.
func (m *MemoryStore) Apply(msg entity.StatusMessage) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current, ok := m.latest[msg.JobID]; ok && !Newer(msg, current) {
		return false
	}
	m.latest[msg.JobID] = msg
	return true
}

func (m *MemoryStore) Latest(_ context.Context, jobID string) (entity.StatusMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	msg, ok := m.latest[jobID]
	if !ok {
		return entity.StatusMessage{}, ErrNoStatus
	}
	return msg, nil
}
