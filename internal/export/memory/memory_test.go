package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"copilote/internal/core"
)

func TestAppendAssignsRowRefs(t *testing.T) {
	s := New()
	ctx := context.Background()

	ref, err := s.Append(ctx, "alice", core.Transaction{ID: "a", RawLabel: "NETFLIX", Amount: decimal.NewFromInt(-14)})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if ref != "mem:1" {
		t.Errorf("ref = %q, want mem:1", ref)
	}

	ref, err = s.Append(ctx, "alice", core.Transaction{ID: "b", RawLabel: "LOYER", Amount: decimal.NewFromInt(-700)})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if ref != "mem:2" {
		t.Errorf("ref = %q, want mem:2", ref)
	}
}

func TestAppendIsIdempotentPerTransaction(t *testing.T) {
	s := New()
	ctx := context.Background()

	tx := core.Transaction{ID: "a", RawLabel: "FNAC", Amount: decimal.NewFromInt(-80), Category: core.CategoryNeedsReview}
	if _, err := s.Append(ctx, "alice", tx); err != nil {
		t.Fatalf("append: %v", err)
	}

	// Re-export after a correction overwrites the row in place.
	tx.Category = core.CategoryShopping
	ref, err := s.Append(ctx, "alice", tx)
	if err != nil {
		t.Fatalf("re-append: %v", err)
	}
	if ref != "mem:1" {
		t.Errorf("ref = %q, want the original row", ref)
	}

	rows := s.Rows()
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].Transaction.Category != core.CategoryShopping {
		t.Errorf("row not updated: %+v", rows[0])
	}
}
