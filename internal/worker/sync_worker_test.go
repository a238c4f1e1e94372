package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"copilote/internal/amqp"
	"copilote/internal/core"
	"copilote/internal/export"
	"copilote/internal/export/memory"
)

type fakeStorage struct {
	txs     map[string]core.Transaction
	pending []export.PendingRow
	synced  []int64
	failed  []int64
}

func (f *fakeStorage) GetTransaction(_ context.Context, _, id string) (core.Transaction, error) {
	tx, ok := f.txs[id]
	if !ok {
		return core.Transaction{}, core.ErrNotFound
	}
	return tx, nil
}

func (f *fakeStorage) PendingSync(_ context.Context, limit int) ([]export.PendingRow, error) {
	if len(f.pending) > limit {
		return f.pending[:limit], nil
	}
	return f.pending, nil
}

func (f *fakeStorage) MarkSynced(_ context.Context, seq int64) error {
	f.synced = append(f.synced, seq)
	return nil
}

func (f *fakeStorage) MarkSyncError(_ context.Context, seq int64) error {
	f.failed = append(f.failed, seq)
	return nil
}

type failingWriter struct{}

func (failingWriter) Append(context.Context, string, core.Transaction) (string, error) {
	return "", errors.New("target unavailable")
}

func TestHandleSyncMessage(t *testing.T) {
	tx := core.Transaction{ID: "tx-1", RawLabel: "NETFLIX", Amount: decimal.NewFromInt(-14), Category: core.CategoryAbonnements}
	storage := &fakeStorage{txs: map[string]core.Transaction{"tx-1": tx}}
	target := memory.New()
	w := NewSyncWorker(storage, target, 10)

	msg := amqp.NewLedgerSyncMessage(7, "alice", "tx-1", 1)
	if err := w.HandleSyncMessage(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	rows := target.Rows()
	if len(rows) != 1 || rows[0].Transaction.ID != "tx-1" {
		t.Errorf("export target rows = %+v", rows)
	}
	if len(storage.synced) != 1 || storage.synced[0] != 7 {
		t.Errorf("synced = %v, want [7]", storage.synced)
	}
}

func TestHandleSyncMessageUnknownTransaction(t *testing.T) {
	w := NewSyncWorker(&fakeStorage{txs: map[string]core.Transaction{}}, memory.New(), 10)

	msg := amqp.NewLedgerSyncMessage(7, "alice", "missing", 1)
	if err := w.HandleSyncMessage(context.Background(), msg); err == nil {
		t.Error("expected error for unknown transaction")
	}
}

func TestProcessPendingMarksErrors(t *testing.T) {
	tx := core.Transaction{ID: "tx-1", RawLabel: "LOYER", Amount: decimal.NewFromInt(-700)}
	storage := &fakeStorage{
		txs:     map[string]core.Transaction{"tx-1": tx},
		pending: []export.PendingRow{{Seq: 1, UserID: "alice", TxID: "tx-1"}},
	}
	w := NewSyncWorker(storage, failingWriter{}, 10)

	if err := w.ProcessPending(context.Background()); err != nil {
		t.Fatalf("process pending: %v", err)
	}
	if len(storage.failed) != 1 || storage.failed[0] != 1 {
		t.Errorf("failed = %v, want [1]", storage.failed)
	}
	if len(storage.synced) != 0 {
		t.Errorf("nothing should be marked synced, got %v", storage.synced)
	}
}

func TestStartupSyncCheckDrainsBacklog(t *testing.T) {
	storage := &fakeStorage{
		txs: map[string]core.Transaction{
			"tx-1": {ID: "tx-1", RawLabel: "A", Amount: decimal.NewFromInt(-1)},
			"tx-2": {ID: "tx-2", RawLabel: "B", Amount: decimal.NewFromInt(-2)},
		},
		pending: []export.PendingRow{
			{Seq: 1, UserID: "alice", TxID: "tx-1"},
			{Seq: 2, UserID: "alice", TxID: "tx-2"},
		},
	}
	target := memory.New()
	w := NewSyncWorker(storage, target, 10)

	if err := w.StartupSyncCheck(context.Background()); err != nil {
		t.Fatalf("startup check: %v", err)
	}
	if len(target.Rows()) != 2 {
		t.Errorf("got %d exported rows, want 2", len(target.Rows()))
	}
	if len(storage.synced) != 2 {
		t.Errorf("synced = %v", storage.synced)
	}
}
