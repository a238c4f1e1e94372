package budget

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"copilote/internal/core"
)

func liveProposal() *core.BudgetProposal {
	return &core.BudgetProposal{
		Envelopes: []*core.Envelope{
			{Category: core.CategoryAlimentation, Proposed: amt(100), Remaining: amt(100)},
			{Category: core.CategorySorties, Proposed: amt(50), Remaining: amt(50)},
		},
		TotalRemaining: amt(150),
		DailyRemaining: amt(5),
		PeriodDays:     30,
		CreatedAt:      time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC),
	}
}

func expense(cat core.Category, v float64) core.Transaction {
	return core.Transaction{
		ID:       "tx",
		Amount:   decimal.NewFromFloat(v),
		Category: cat,
		Method:   core.MethodRule,
	}
}

func TestOnTransactionAddedDebitsEnvelope(t *testing.T) {
	r := NewReconciler()
	b := liveProposal()

	r.OnTransactionAdded(b, expense(core.CategoryAlimentation, -20))

	if got := b.Envelope(core.CategoryAlimentation).Remaining; !got.Equal(amt(80)) {
		t.Errorf("envelope remaining = %s, want 80", got)
	}
	if !b.TotalRemaining.Equal(amt(130)) {
		t.Errorf("total remaining = %s, want 130", b.TotalRemaining)
	}
	if got := b.Envelope(core.CategorySorties).Remaining; !got.Equal(amt(50)) {
		t.Errorf("untouched envelope moved: %s", got)
	}
}

func TestOnTransactionAddedIncomeIsNeutral(t *testing.T) {
	r := NewReconciler()
	b := liveProposal()
	before := b.DailyRemaining

	r.OnTransactionAdded(b, core.Transaction{
		ID:       "pay",
		Amount:   amt(2500),
		Category: core.CategoryRevenus,
		Method:   core.MethodRule,
	})

	if !b.TotalRemaining.Equal(amt(150)) {
		t.Errorf("income moved the remainder: %s", b.TotalRemaining)
	}
	if !b.DailyRemaining.Equal(before) {
		t.Errorf("income moved the daily remainder: %s", b.DailyRemaining)
	}
}

func TestOnTransactionAddedNoEnvelopeStillMovesTotal(t *testing.T) {
	r := NewReconciler()
	b := liveProposal()

	// Expense in a category the proposal never allocated.
	r.OnTransactionAdded(b, expense(core.CategorySante, -30))

	if !b.TotalRemaining.Equal(amt(120)) {
		t.Errorf("total remaining = %s, want 120", b.TotalRemaining)
	}
}

func TestOnTransactionAddedNilProposal(t *testing.T) {
	r := NewReconciler()
	r.OnTransactionAdded(nil, expense(core.CategoryAlimentation, -20))
}

func TestOnTransactionAddedRecomputesDaily(t *testing.T) {
	r := NewReconciler()
	b := liveProposal()

	// Ten days into a thirty-day window: 130 over 20 days.
	r.now = func() time.Time { return b.CreatedAt.AddDate(0, 0, 10) }
	r.OnTransactionAdded(b, expense(core.CategoryAlimentation, -20))

	if !b.DailyRemaining.Equal(amt(6.5)) {
		t.Errorf("daily remaining = %s, want 6.5", b.DailyRemaining)
	}
}

func TestOnTransactionAddedDailyFloorsAtOneDay(t *testing.T) {
	r := NewReconciler()
	b := liveProposal()

	// Past the end of the window the divisor stays one day.
	r.now = func() time.Time { return b.CreatedAt.AddDate(0, 0, 45) }
	r.OnTransactionAdded(b, expense(core.CategoryAlimentation, -20))

	if !b.DailyRemaining.Equal(amt(130)) {
		t.Errorf("daily remaining = %s, want 130", b.DailyRemaining)
	}
}

func TestOnTransactionRecategorizedMovesBetweenEnvelopes(t *testing.T) {
	r := NewReconciler()
	b := liveProposal()

	tx := expense(core.CategoryAlimentation, -20)
	r.OnTransactionAdded(b, tx)

	// The user corrects the category: the old envelope is restored in full,
	// the new one takes the hit, the total does not move.
	tx.Category = core.CategorySorties
	tx.Method = core.MethodUser
	r.OnTransactionRecategorized(b, core.CategoryAlimentation, tx)

	if got := b.Envelope(core.CategoryAlimentation).Remaining; !got.Equal(amt(100)) {
		t.Errorf("old envelope = %s, want 100 restored", got)
	}
	if got := b.Envelope(core.CategorySorties).Remaining; !got.Equal(amt(30)) {
		t.Errorf("new envelope = %s, want 30", got)
	}
	if !b.TotalRemaining.Equal(amt(130)) {
		t.Errorf("total remaining = %s, want 130 unchanged", b.TotalRemaining)
	}
}

func TestOnTransactionRecategorizedSameCategory(t *testing.T) {
	r := NewReconciler()
	b := liveProposal()

	tx := expense(core.CategoryAlimentation, -20)
	r.OnTransactionAdded(b, tx)
	r.OnTransactionRecategorized(b, core.CategoryAlimentation, tx)

	if got := b.Envelope(core.CategoryAlimentation).Remaining; !got.Equal(amt(80)) {
		t.Errorf("same-category recategorization moved the envelope: %s", got)
	}
}

func TestOnTransactionRecategorizedFromReview(t *testing.T) {
	r := NewReconciler()
	b := liveProposal()

	// A reviewed transaction had no envelope effect; assigning it a real
	// category debits only the new envelope.
	tx := expense(core.CategorySorties, -10)
	r.OnTransactionRecategorized(b, core.CategoryNeedsReview, tx)

	if got := b.Envelope(core.CategorySorties).Remaining; !got.Equal(amt(40)) {
		t.Errorf("new envelope = %s, want 40", got)
	}
	if got := b.Envelope(core.CategoryAlimentation).Remaining; !got.Equal(amt(100)) {
		t.Errorf("old envelope moved: %s", got)
	}
}
