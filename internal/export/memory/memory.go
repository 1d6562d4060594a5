// Package memory is an in-process export target for tests and local runs
// without Google credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	"budgetwise/internal/export"
)

type Store struct {
	mu   sync.Mutex
	rows []export.Row
}

func New() *Store {
	return &Store{}
}

var _ export.TransactionWriter = (*Store)(nil)

// Append stores the row and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, row export.Row) (string, error) {
	if err := row.Transaction.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []export.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]export.Row(nil), s.rows...)
}
