// Package memory is the in-memory data backend. It backs tests and local
// development; the sqlite backend is the durable one.
package memory

import (
	"context"
	"sync"

	"copilote/internal/core"
	"copilote/internal/export"
)

type Store struct {
	mu    sync.Mutex
	seq   int64
	rules map[string][]core.Rule
	txs   map[string][]core.Transaction
}

func New() *Store {
	return &Store{
		rules: make(map[string][]core.Rule),
		txs:   make(map[string][]core.Transaction),
	}
}

// SaveRule implements rules.Repo. Keywords are unique per user; an existing
// keyword is overwritten in place.
func (s *Store) SaveRule(_ context.Context, userID string, r core.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.rules[userID] {
		if existing.Keyword == r.Keyword {
			s.rules[userID][i] = r
			return nil
		}
	}
	s.rules[userID] = append(s.rules[userID], r)
	return nil
}

// ListRules implements rules.Repo, returning rules in insertion order.
func (s *Store) ListRules(_ context.Context, userID string) ([]core.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Rule(nil), s.rules[userID]...), nil
}

// AppendTransaction implements ledger.Repo, assigning the insertion sequence.
func (s *Store) AppendTransaction(_ context.Context, userID string, tx core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	tx.Seq = s.seq
	tx.Version = 1
	s.txs[userID] = append(s.txs[userID], tx)
	return tx, nil
}

func (s *Store) GetTransaction(_ context.Context, userID, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range s.txs[userID] {
		if tx.ID == id {
			return tx, nil
		}
	}
	return core.Transaction{}, core.ErrNotFound
}

func (s *Store) UpdateTransactionCategory(_ context.Context, userID, id string, category core.Category, subcategory string, method core.Method) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, tx := range s.txs[userID] {
		if tx.ID == id {
			s.txs[userID][i].Category = category
			s.txs[userID][i].Subcategory = subcategory
			s.txs[userID][i].Method = method
			s.txs[userID][i].Version++
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) ListTransactions(_ context.Context, userID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.txs[userID]...), nil
}

// PendingSync implements export.SyncQueue for the memory backend: nothing
// is ever pending, the backend has no external target.
func (s *Store) PendingSync(_ context.Context, _ int) ([]export.PendingRow, error) {
	return nil, nil
}

func (s *Store) MarkSynced(_ context.Context, _ int64) error { return nil }

func (s *Store) MarkSyncError(_ context.Context, _ int64) error { return nil }

func (s *Store) Close() error { return nil }
