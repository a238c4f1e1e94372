// Package memory is an in-process export target for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"copilote/internal/core"
	"copilote/internal/export"
)

type Store struct {
	mu   sync.Mutex
	rows []Row
	byID map[string]int
}

// Row is one mirrored transaction.
type Row struct {
	UserID      string
	Transaction core.Transaction
}

var _ export.LedgerWriter = (*Store)(nil)

func New() *Store {
	return &Store{byID: make(map[string]int)}
}

// Append stores the transaction and returns a synthetic row reference.
// A known transaction ID overwrites its row, mirroring the sheet adapter.
func (s *Store) Append(_ context.Context, userID string, tx core.Transaction) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.byID[tx.ID]; ok {
		s.rows[i] = Row{UserID: userID, Transaction: tx}
		return fmt.Sprintf("mem:%d", i+1), nil
	}

	s.rows = append(s.rows, Row{UserID: userID, Transaction: tx})
	s.byID[tx.ID] = len(s.rows) - 1
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of the mirrored rows in export order.
func (s *Store) Rows() []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Row(nil), s.rows...)
}
