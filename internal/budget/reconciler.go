package budget

import (
	"time"

	"github.com/shopspring/decimal"

	"copilote/internal/core"
)

// Reconciler applies single ledger mutations to the live proposal without
// recomputing it. The proposal stays a derived cache: re-proposing from the
// ledger always reconstructs the same aggregates, so drift is recoverable.
type Reconciler struct {
	now func() time.Time
}

func NewReconciler() *Reconciler {
	return &Reconciler{now: time.Now}
}

// OnTransactionAdded folds a freshly appended transaction into the live
// proposal. Income never moves the live view post-proposal; only expenses
// do. A nil proposal is a no-op: reconciliation never creates one.
func (r *Reconciler) OnTransactionAdded(b *core.BudgetProposal, tx core.Transaction) {
	if b == nil || !tx.IsExpense() {
		return
	}

	b.TotalRemaining = b.TotalRemaining.Add(tx.Amount)
	r.recomputeDaily(b)

	if env := b.Envelope(tx.Category); env != nil {
		env.Remaining = env.Remaining.Add(tx.Amount)
	}
}

// OnTransactionRecategorized moves a transaction's effect from oldCategory
// to its current category: the amount is put back into the old envelope and
// taken out of the new one, so nothing is double-counted or leaked. The
// total remainder does not move, the expense itself is unchanged.
func (r *Reconciler) OnTransactionRecategorized(b *core.BudgetProposal, oldCategory core.Category, tx core.Transaction) {
	if b == nil || !tx.IsExpense() || oldCategory == tx.Category {
		return
	}

	if env := b.Envelope(oldCategory); env != nil {
		env.Remaining = env.Remaining.Sub(tx.Amount)
	}
	if env := b.Envelope(tx.Category); env != nil {
		env.Remaining = env.Remaining.Add(tx.Amount)
	}
}

// recomputeDaily spreads the remainder over the days left in the window,
// floored at one day to keep the division defined at period end.
func (r *Reconciler) recomputeDaily(b *core.BudgetProposal) {
	elapsed := int(r.now().Sub(b.CreatedAt).Hours() / 24)
	left := b.PeriodDays - elapsed
	if left < 1 {
		left = 1
	}
	b.DailyRemaining = b.TotalRemaining.Div(decimal.NewFromInt(int64(left))).Round(2)
}
