// Package budget turns a categorized ledger into an envelope proposal and
// keeps the live proposal reconciled as single ledger mutations arrive.
package budget

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"copilote/internal/core"
	"copilote/internal/ledger"
)

// BonusCategory receives whatever the round-to-five allocation left over, so
// the envelope sum always equals the disposable remainder.
const BonusCategory core.Category = "Bonus (Non Alloué)"

// Proposer computes envelope proposals. Buffer is a safety margin subtracted
// from the disposable remainder before allocation; PeriodDays is the budget
// window (30 by default).
type Proposer struct {
	Buffer     decimal.Decimal
	PeriodDays int

	now func() time.Time
}

func NewProposer(buffer decimal.Decimal, periodDays int) *Proposer {
	if periodDays <= 0 {
		periodDays = 30
	}
	return &Proposer{Buffer: buffer, PeriodDays: periodDays, now: time.Now}
}

// Propose builds a BudgetProposal from the ledger summary and a savings
// goal. It fails with core.ErrIncompleteCategorization while any transaction
// still needs review; no partial proposal is ever produced.
//
// Disposable = income − |fixed charges| − goal − buffer. Each spending
// category gets an envelope proportional to its share of observed variable
// spend, floored to a multiple of five; the flooring leftover becomes the
// bonus envelope, so envelopes sum exactly to the disposable remainder.
func (p *Proposer) Propose(sum ledger.Summary, goal decimal.Decimal) (*core.BudgetProposal, error) {
	if sum.ReviewCount > 0 {
		return nil, fmt.Errorf("%d transaction(s) to review: %w", sum.ReviewCount, core.ErrIncompleteCategorization)
	}

	fixedAbs := sum.FixedCharges.Abs()
	disposable := sum.Income.Sub(fixedAbs).Sub(goal).Sub(p.Buffer)

	totalVariable := decimal.Zero
	for _, v := range sum.VariableByCategory {
		totalVariable = totalVariable.Add(v.Abs())
	}

	// Deterministic envelope order regardless of map iteration.
	cats := make([]core.Category, 0, len(sum.VariableByCategory))
	for cat := range sum.VariableByCategory {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })

	proposal := &core.BudgetProposal{
		IncomeObserved: sum.Income,
		FixedObserved:  fixedAbs,
		TotalRemaining: disposable,
		DailyRemaining: disposable.Div(decimal.NewFromInt(int64(p.PeriodDays))).Round(2),
		PeriodDays:     p.PeriodDays,
		CreatedAt:      p.now(),
	}

	allocated := decimal.Zero
	if totalVariable.IsPositive() && disposable.IsPositive() {
		for _, cat := range cats {
			observed := sum.VariableByCategory[cat].Abs()
			share := observed.Div(totalVariable)
			amount := core.FloorToFive(disposable.Mul(share))
			proposal.Envelopes = append(proposal.Envelopes, &core.Envelope{
				Category:      cat,
				ObservedSpend: observed,
				Proposed:      amount,
				Remaining:     amount,
			})
			allocated = allocated.Add(amount)
		}
	}

	if bonus := disposable.Sub(allocated); bonus.IsPositive() {
		proposal.Envelopes = append(proposal.Envelopes, &core.Envelope{
			Category:  BonusCategory,
			Proposed:  bonus,
			Remaining: bonus,
		})
	}

	proposal.Advisory = advisory(goal, sum.Income, disposable)
	return proposal, nil
}

func advisory(goal, income, disposable decimal.Decimal) string {
	return fmt.Sprintf(
		"Pour atteindre votre objectif de %s d'épargne (sur %s de revenus), il reste %s à répartir sur les enveloppes.",
		core.FormatEuros(goal), core.FormatEuros(income), core.FormatEuros(disposable))
}
