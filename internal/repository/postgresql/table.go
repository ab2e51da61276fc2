package postgresql

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Table reads and bulk inserts one reference table. columns lists the struct
// fields after id, in the order values returns them.
type Table[T any] struct {
	db      DB
	name    string
	columns []string
	values  func(T) []any
}

func newTable[T any](db DB, name string, columns []string, values func(T) []any) *Table[T] {
	return &Table[T]{db: db, name: name, columns: columns, values: values}
}

func (t *Table[T]) FindAll(ctx context.Context) ([]T, error) {
	q := fmt.Sprintf(`SELECT id, %s FROM %s ORDER BY id;`,
		strings.Join(t.columns, ", "), pgx.Identifier{t.name}.Sanitize())

	rows, err := t.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", t.name, err)
	}
	all, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", t.name, err)
	}
	return all, nil
}

// BulkCreate inserts every record with a single COPY, all owned by ownerID.
func (t *Table[T]) BulkCreate(ctx context.Context, records []T, ownerID string) error {
	if len(records) == 0 {
		return nil
	}

	columns := append(append([]string(nil), t.columns...), "owner_id")
	n, err := t.db.CopyFrom(ctx, pgx.Identifier{t.name}, columns,
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			return append(t.values(records[i]), ownerID), nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy into %s: %w", t.name, err)
	}
	if int(n) != len(records) {
		return fmt.Errorf("copy into %s: inserted %d of %d rows", t.name, n, len(records))
	}
	return nil
}
