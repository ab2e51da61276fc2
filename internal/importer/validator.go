package importer

import (
	"context"
	"fmt"
)

// Validator is implemented once per importable entity type.
// A validator instance belongs to a single pipeline run: its reference caches and
// its staged records are never shared with another run.
type Validator interface {
	NumberOfColumns() int
	// Init loads every collection the row checks rely on.
	Init(ctx context.Context, requesterID string) error
	// ValidateAndPrepare returns nil when the row was accepted and staged.
	ValidateAndPrepare(row []string) error
	// Pending is the number of staged records.
	Pending() int
	Persist(ctx context.Context, requesterID string) error
}

type Finder[T any] interface {
	FindAll(ctx context.Context) ([]T, error)
}

type Store[T any] interface {
	Finder[T]
	BulkCreate(ctx context.Context, records []T, ownerID string) error
}

// staging accumulates the records of one run. pending is what gets persisted,
// shadow is what later rows of the same file are compared against.
type staging[T any] struct {
	store   Store[T]
	shadow  []T
	pending []T
}

func (s *staging[T]) load(ctx context.Context, what string) error {
	existing, err := s.store.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("load %s: %w", what, err)
	}
	s.shadow = existing
	s.pending = nil
	return nil
}

func (s *staging[T]) stage(record T) {
	s.pending = append(s.pending, record)
	s.shadow = append(s.shadow, record)
}

func (s *staging[T]) any(match func(T) bool) bool {
	for _, r := range s.shadow {
		if match(r) {
			return true
		}
	}
	return false
}

func (s *staging[T]) Pending() int {
	return len(s.pending)
}

func (s *staging[T]) Persist(ctx context.Context, requesterID string) error {
	if len(s.pending) == 0 {
		return nil
	}
	if err := s.store.BulkCreate(ctx, s.pending, requesterID); err != nil {
		return err
	}
	s.pending = nil
	return nil
}

// loadAll fetches a reference collection that is only read, never written.
func loadAll[T any](ctx context.Context, f Finder[T], what string) ([]T, error) {
	all, err := f.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", what, err)
	}
	return all, nil
}
