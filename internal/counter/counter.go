// Package counter issues durable sequential IDs, one named sequence per
// logical entity type ("orders", "products", "users").
package counter

import (
	"context"
	"fmt"

	"github.com/cheapshop/backend/internal/db"
)

type Sequence struct{}

func New() *Sequence {
	return &Sequence{}
}

// Next atomically increments the named counter and returns the new value,
// creating the counter at zero when absent. The increment is a single
// statement against the store, never a read-modify-write in process, so
// concurrent callers for the same name cannot observe the same value.
// Callers that must not burn values on abort pass their transaction as q.
func (s *Sequence) Next(ctx context.Context, q db.Querier, name string) (int64, error) {
	var value int64
	err := q.QueryRow(ctx, `
		INSERT INTO counters (name, value)
		VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE SET value = counters.value + 1
		RETURNING value
	`, name).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("counter: failed to advance sequence %q: %w", name, err)
	}
	return value, nil
}
