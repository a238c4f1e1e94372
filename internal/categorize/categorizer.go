// Package categorize resolves a transaction's category: learned rules first,
// then the external oracle, else the review sentinel.
package categorize

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"copilote/internal/core"
	"copilote/internal/rules"
)

// Oracle is the external natural-language classifier. It may be slow or
// unavailable; callers bound it with a timeout and treat any failure as
// "could not classify". It is never required to be deterministic.
type Oracle interface {
	Classify(ctx context.Context, label string) (Result, error)
}

// Result is the oracle's answer. Category is the review sentinel when the
// oracle looked at the label and gave up.
type Result struct {
	Label       string
	Category    core.Category
	Subcategory string
}

// The subcategory placeholders mirror the vocabulary of the rule table.
const (
	subcategoryOracle = "Analysé par IA"
	subcategoryUser   = "Validé par l'utilisateur"
	subcategoryRule   = "Règle"
)

type Categorizer struct {
	rules   *rules.Store
	oracle  Oracle
	timeout time.Duration
}

// New builds a categorizer. A nil oracle is allowed; labels no rule matches
// then go straight to review.
func New(store *rules.Store, oracle Oracle, oracleTimeout time.Duration) *Categorizer {
	if oracleTimeout <= 0 {
		oracleTimeout = 10 * time.Second
	}
	return &Categorizer{rules: store, oracle: oracle, timeout: oracleTimeout}
}

// Categorize fills category, subcategory, cleaned label, and method on the
// transaction. The raw label is normalized to upper case first. The rule
// lookup is fast and total; only the oracle call can fail, and failure
// resolves to the review sentinel instead of propagating.
func (c *Categorizer) Categorize(ctx context.Context, userID string, tx core.Transaction) core.Transaction {
	tx.RawLabel = core.NormalizeLabel(tx.RawLabel)

	if r, ok := c.rules.Lookup(ctx, userID, tx.RawLabel); ok {
		tx.Category = r.Category
		tx.Subcategory = r.Subcategory
		if tx.Subcategory == "" {
			tx.Subcategory = subcategoryRule
		}
		tx.CleanedLabel = r.Label
		if tx.CleanedLabel == "" {
			tx.CleanedLabel = tx.RawLabel
		}
		tx.Method = core.MethodRule
		return tx
	}

	tx.Method = core.MethodOracle
	tx.CleanedLabel = tx.RawLabel

	if c.oracle == nil {
		tx.Category = core.CategoryNeedsReview
		return tx
	}

	octx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.oracle.Classify(octx, tx.RawLabel)
	if err != nil {
		if !errors.Is(err, core.ErrOracleUnavailable) {
			slog.WarnContext(ctx, "Oracle classification failed",
				"user_id", userID,
				"label", tx.RawLabel,
				"error", err)
		}
		tx.Category = core.CategoryNeedsReview
		return tx
	}

	if !res.Category.IsValid() {
		// Unknown or sentinel answer: the user has to decide.
		tx.Category = core.CategoryNeedsReview
		return tx
	}

	tx.Category = res.Category
	tx.Subcategory = res.Subcategory
	if tx.Subcategory == "" {
		tx.Subcategory = subcategoryOracle
	}
	if res.Label != "" {
		tx.CleanedLabel = res.Label
	}
	return tx
}

// Recategorize applies a user decision: the category is set with method
// "user", and the whole normalized raw label is taught back to the rule
// store. Coarse-grained on purpose: a future label must contain this entire
// label to reuse the rule, which trades recall for precision.
func (c *Categorizer) Recategorize(ctx context.Context, userID string, tx core.Transaction, category core.Category) (core.Transaction, error) {
	if !category.IsValid() {
		return tx, core.ErrInvalidCategory
	}

	tx.Category = category
	tx.Subcategory = subcategoryUser
	tx.Method = core.MethodUser

	if err := c.rules.Learn(ctx, userID, tx.RawLabel, category); err != nil {
		return tx, err
	}
	return tx, nil
}
