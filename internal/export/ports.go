// Package export defines the outbound ports for mirroring the ledger to an
// external target, and the sync bookkeeping the worker drains.
package export

import (
	"context"

	"copilote/internal/core"
)

// PendingRow identifies a locally committed transaction awaiting export.
type PendingRow struct {
	Seq     int64
	UserID  string
	TxID    string
	Version int64
}

// Ports for outbound adapters.
type (
	// LedgerWriter mirrors one transaction to the export target. Append
	// must be idempotent per (userID, tx.ID): the worker retries.
	LedgerWriter interface {
		Append(ctx context.Context, userID string, tx core.Transaction) (rowRef string, err error)
	}

	// SyncQueue is the bookkeeping side: which rows still need export,
	// and the outcome once tried.
	SyncQueue interface {
		PendingSync(ctx context.Context, limit int) ([]PendingRow, error)
		MarkSynced(ctx context.Context, seq int64) error
		MarkSyncError(ctx context.Context, seq int64) error
	}
)
