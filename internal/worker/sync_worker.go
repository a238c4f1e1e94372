// Package worker drains the export queue: it mirrors locally committed
// ledger rows to the configured export target.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"copilote/internal/amqp"
	"copilote/internal/core"
	"copilote/internal/export"
)

// Storage is what the worker needs from the backend: row lookup plus the
// sync bookkeeping.
type Storage interface {
	GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
	export.SyncQueue
}

// SyncWorker mirrors ledger rows from the local store to the export target.
type SyncWorker struct {
	storage   Storage
	writer    export.LedgerWriter
	batchSize int
}

func NewSyncWorker(storage Storage, writer export.LedgerWriter, batchSize int) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &SyncWorker{
		storage:   storage,
		writer:    writer,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single sync message from AMQP. The message
// carries only the row identity; the transaction is re-read from storage so
// the export always reflects the latest categorization.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.LedgerSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"seq", msg.Seq,
		"user_id", msg.UserID,
		"version", msg.Version)

	tx, err := w.storage.GetTransaction(ctx, msg.UserID, msg.TxID)
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	if err := w.syncRow(ctx, msg.Seq, msg.UserID, tx); err != nil {
		return fmt.Errorf("sync transaction: %w", err)
	}
	return nil
}

// ProcessPending sweeps rows that never made it through AMQP. This is the
// backup path: lost messages leave rows pending, the sweep retries them.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.storage.PendingSync(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending rows: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending rows", "count", len(pending))

	for _, p := range pending {
		tx, err := w.storage.GetTransaction(ctx, p.UserID, p.TxID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get transaction", "seq", p.Seq, "error", err)
			if err := w.storage.MarkSyncError(ctx, p.Seq); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "seq", p.Seq, "error", err)
			}
			continue
		}

		if err := w.syncRow(ctx, p.Seq, p.UserID, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction", "seq", p.Seq, "error", err)
			continue
		}
	}

	return nil
}

// StartupSyncCheck drains rows left pending across worker downtime. It runs
// once at startup with a larger batch than the periodic sweep.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.PendingSync(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending rows for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending rows found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending rows on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0

	for _, p := range pending {
		tx, err := w.storage.GetTransaction(ctx, p.UserID, p.TxID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get transaction for startup sync",
				"seq", p.Seq, "error", err)
			if err := w.storage.MarkSyncError(ctx, p.Seq); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "seq", p.Seq, "error", err)
			}
			errorCount++
			continue
		}

		if err := w.syncRow(ctx, p.Seq, p.UserID, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction during startup",
				"seq", p.Seq, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)

	return nil
}

func (w *SyncWorker) syncRow(ctx context.Context, seq int64, userID string, tx core.Transaction) error {
	ref, err := w.writer.Append(ctx, userID, tx)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, seq); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "seq", seq, "error", markErr)
		}
		return fmt.Errorf("append to export target: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, seq); err != nil {
		// The export worked; only the bookkeeping failed. The row will be
		// retried and the idempotent writer absorbs the duplicate.
		slog.ErrorContext(ctx, "Failed to mark as synced", "seq", seq, "error", err)
	}

	slog.InfoContext(ctx, "Synced transaction",
		"seq", seq,
		"export_ref", ref,
		"label", tx.RawLabel,
		"category", tx.Category)

	return nil
}
