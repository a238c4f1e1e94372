package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"copilote/internal/core"
	"copilote/internal/store/memory"
)

func amt(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func seed(t *testing.T, l *Ledger, userID string, txs ...core.Transaction) []core.Transaction {
	t.Helper()
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		stored, err := l.Append(context.Background(), userID, tx)
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		out = append(out, stored)
	}
	return out
}

func TestAppendAssignsUniqueIDs(t *testing.T) {
	l := New(memory.New())
	stored := seed(t, l, "u1",
		core.Transaction{Date: core.NewDate(2025, 11, 1), RawLabel: "A", Amount: amt(-1), Category: core.CategoryAutres},
		core.Transaction{Date: core.NewDate(2025, 11, 1), RawLabel: "B", Amount: amt(-2), Category: core.CategoryAutres},
	)
	if stored[0].ID == "" || stored[1].ID == "" {
		t.Fatal("ids must be assigned at append")
	}
	if stored[0].ID == stored[1].ID {
		t.Error("ids must be unique")
	}
	if stored[1].Seq <= stored[0].Seq {
		t.Errorf("sequence must grow: %d then %d", stored[0].Seq, stored[1].Seq)
	}
}

func TestListOrdersByDateThenInsertion(t *testing.T) {
	l := New(memory.New())
	seed(t, l, "u1",
		core.Transaction{Date: core.NewDate(2025, 11, 10), RawLabel: "LATE", Amount: amt(-1), Category: core.CategoryAutres},
		core.Transaction{Date: core.NewDate(2025, 11, 2), RawLabel: "EARLY", Amount: amt(-1), Category: core.CategoryAutres},
		core.Transaction{Date: core.NewDate(2025, 11, 2), RawLabel: "EARLY-SECOND", Amount: amt(-1), Category: core.CategoryAutres},
	)

	txs, err := l.List(context.Background(), "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got := []string{txs[0].RawLabel, txs[1].RawLabel, txs[2].RawLabel}
	want := []string{"EARLY", "EARLY-SECOND", "LATE"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestUpdateCategoryNotFound(t *testing.T) {
	l := New(memory.New())
	err := l.UpdateCategory(context.Background(), "u1", "missing", core.CategoryAutres, "", core.MethodUser)
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestNeedingReview(t *testing.T) {
	l := New(memory.New())
	seed(t, l, "u1",
		core.Transaction{Date: core.NewDate(2025, 11, 1), RawLabel: "OK", Amount: amt(-5), Category: core.CategoryAutres},
		core.Transaction{Date: core.NewDate(2025, 11, 2), RawLabel: "???", Amount: amt(-7), Category: core.CategoryNeedsReview},
	)

	pending, err := l.NeedingReview(context.Background(), "u1")
	if err != nil {
		t.Fatalf("needing review: %v", err)
	}
	if len(pending) != 1 || pending[0].RawLabel != "???" {
		t.Errorf("pending = %+v", pending)
	}
}

func TestAggregateByCategoryExpensesOnly(t *testing.T) {
	l := New(memory.New())
	seed(t, l, "u1",
		core.Transaction{Date: core.NewDate(2025, 11, 1), RawLabel: "SALAIRE", Amount: amt(2500), Category: core.CategoryRevenus},
		core.Transaction{Date: core.NewDate(2025, 11, 2), RawLabel: "CARREFOUR", Amount: amt(-80), Category: core.CategoryAlimentation},
		core.Transaction{Date: core.NewDate(2025, 11, 3), RawLabel: "PAUL", Amount: amt(-20), Category: core.CategoryAlimentation},
	)

	agg, err := l.AggregateByCategory(context.Background(), "u1", true)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if !agg[core.CategoryAlimentation].Equal(amt(-100)) {
		t.Errorf("Alimentation = %s, want -100", agg[core.CategoryAlimentation])
	}
	if _, ok := agg[core.CategoryRevenus]; ok {
		t.Error("income must be excluded with expensesOnly")
	}
}

func TestSummarize(t *testing.T) {
	l := New(memory.New())
	seed(t, l, "u1",
		core.Transaction{Date: core.NewDate(2025, 11, 1), RawLabel: "SALAIRE", Amount: amt(2500), Category: core.CategoryRevenus},
		core.Transaction{Date: core.NewDate(2025, 11, 2), RawLabel: "LOYER", Amount: amt(-800), Category: core.CategoryChargesFixe},
		core.Transaction{Date: core.NewDate(2025, 11, 3), RawLabel: "CARREFOUR", Amount: amt(-300), Category: core.CategoryAlimentation},
		core.Transaction{Date: core.NewDate(2025, 11, 4), RawLabel: "METRO", Amount: amt(-60), Category: core.CategoryTransport},
		core.Transaction{Date: core.NewDate(2025, 11, 5), RawLabel: "???", Amount: amt(-12), Category: core.CategoryNeedsReview},
	)

	sum, err := l.Summarize(context.Background(), "u1")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if !sum.Income.Equal(amt(2500)) {
		t.Errorf("income = %s", sum.Income)
	}
	if !sum.FixedCharges.Equal(amt(-800)) {
		t.Errorf("fixed = %s", sum.FixedCharges)
	}
	if !sum.VariableByCategory[core.CategoryAlimentation].Equal(amt(-300)) {
		t.Errorf("Alimentation = %s", sum.VariableByCategory[core.CategoryAlimentation])
	}
	if sum.ReviewCount != 1 {
		t.Errorf("review count = %d", sum.ReviewCount)
	}
	if _, ok := sum.VariableByCategory[core.CategoryNeedsReview]; ok {
		t.Error("review rows must not be aggregated")
	}
}

func TestLedgersAreScopedPerUser(t *testing.T) {
	l := New(memory.New())
	seed(t, l, "u1",
		core.Transaction{Date: core.NewDate(2025, 11, 1), RawLabel: "A", Amount: amt(-1), Category: core.CategoryAutres},
	)
	txs, err := l.List(context.Background(), "u2")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("u2 sees %d transactions", len(txs))
	}
}
