// Package ledger is the append/mutate-only record of a user's transactions.
package ledger

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"copilote/internal/core"
)

// Repo is the outbound port to the durable transaction store. Append assigns
// the insertion sequence; the ledger assigns the ID.
type Repo interface {
	AppendTransaction(ctx context.Context, userID string, tx core.Transaction) (core.Transaction, error)
	GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
	UpdateTransactionCategory(ctx context.Context, userID, id string, category core.Category, subcategory string, method core.Method) error
	ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
}

// Summary aggregates the ledger for budget proposing. VariableByCategory
// holds signed (negative) totals per spending category, fixed charges and
// income excluded.
type Summary struct {
	Income             decimal.Decimal
	FixedCharges       decimal.Decimal
	VariableByCategory map[core.Category]decimal.Decimal
	ReviewCount        int
}

type Ledger struct {
	repo Repo
}

func New(repo Repo) *Ledger {
	return &Ledger{repo: repo}
}

// Append assigns an ID and stores the transaction. The repo fixes the
// insertion sequence, used only to break date ties when listing.
func (l *Ledger) Append(ctx context.Context, userID string, tx core.Transaction) (core.Transaction, error) {
	tx.ID = uuid.NewString()
	stored, err := l.repo.AppendTransaction(ctx, userID, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("append transaction: %w", err)
	}
	return stored, nil
}

func (l *Ledger) Get(ctx context.Context, userID, id string) (core.Transaction, error) {
	return l.repo.GetTransaction(ctx, userID, id)
}

// UpdateCategory mutates a ledger entry in place. Returns core.ErrNotFound
// when the id is absent.
func (l *Ledger) UpdateCategory(ctx context.Context, userID, id string, category core.Category, subcategory string, method core.Method) error {
	if err := l.repo.UpdateTransactionCategory(ctx, userID, id, category, subcategory, method); err != nil {
		return fmt.Errorf("update category for %s: %w", id, err)
	}
	return nil
}

// List returns the user's transactions ordered by date, insertion sequence
// breaking ties.
func (l *Ledger) List(ctx context.Context, userID string) ([]core.Transaction, error) {
	txs, err := l.repo.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date.Time) {
			return txs[i].Date.Before(txs[j].Date.Time)
		}
		return txs[i].Seq < txs[j].Seq
	})
	return txs, nil
}

// NeedingReview returns the transactions still carrying the review sentinel.
// Budget creation is gated on this being empty.
func (l *Ledger) NeedingReview(ctx context.Context, userID string) ([]core.Transaction, error) {
	txs, err := l.repo.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	var out []core.Transaction
	for _, tx := range txs {
		if tx.NeedsReview() {
			out = append(out, tx)
		}
	}
	return out, nil
}

// AggregateByCategory sums amounts per category. With expensesOnly set, only
// negative amounts are counted.
func (l *Ledger) AggregateByCategory(ctx context.Context, userID string, expensesOnly bool) (map[core.Category]decimal.Decimal, error) {
	txs, err := l.repo.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make(map[core.Category]decimal.Decimal)
	for _, tx := range txs {
		if expensesOnly && !tx.IsExpense() {
			continue
		}
		out[tx.Category] = out[tx.Category].Add(tx.Amount)
	}
	return out, nil
}

// Summarize computes the aggregates the budget proposer needs in one pass.
// Income is the sum of positive amounts regardless of category; fixed
// charges are the expenses categorized Charges Fixes; every other expense
// category lands in VariableByCategory. Review-sentinel rows are counted but
// not aggregated.
func (l *Ledger) Summarize(ctx context.Context, userID string) (Summary, error) {
	txs, err := l.repo.ListTransactions(ctx, userID)
	if err != nil {
		return Summary{}, fmt.Errorf("list transactions: %w", err)
	}

	sum := Summary{VariableByCategory: make(map[core.Category]decimal.Decimal)}
	for _, tx := range txs {
		if tx.NeedsReview() {
			sum.ReviewCount++
			continue
		}
		if tx.Amount.IsPositive() {
			sum.Income = sum.Income.Add(tx.Amount)
			continue
		}
		if tx.Category == core.CategoryChargesFixe {
			sum.FixedCharges = sum.FixedCharges.Add(tx.Amount)
			continue
		}
		sum.VariableByCategory[tx.Category] = sum.VariableByCategory[tx.Category].Add(tx.Amount)
	}
	return sum, nil
}
