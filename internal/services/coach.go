// Package services orchestrates the domain: it ties the categorizer, the
// ledger, the budget engine, and the export queue into the operations the
// API exposes.
package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"copilote/internal/budget"
	"copilote/internal/categorize"
	"copilote/internal/core"
	"copilote/internal/ledger"
	"copilote/internal/log"
	"copilote/internal/rules"
)

// SyncPublisher queues one ledger row for export. A nil publisher disables
// export without failing any operation.
type SyncPublisher interface {
	PublishLedgerSync(ctx context.Context, seq int64, userID, txID string, version int64) error
}

// Coach is the per-user orchestrator. All mutating operations on one user
// are serialized; users never contend with each other.
type Coach struct {
	ledger      *ledger.Ledger
	rules       *rules.Store
	categorizer *categorize.Categorizer
	proposer    *budget.Proposer
	reconciler  *budget.Reconciler
	publisher   SyncPublisher
	logger      *log.Logger

	mu    sync.Mutex
	users map[string]*userState
}

// userState carries everything live for one user: the lock serializing the
// user's operations and the current budget proposal, a derived cache the
// reconciler keeps consistent with the ledger.
type userState struct {
	mu     sync.Mutex
	budget *core.BudgetProposal
}

func NewCoach(led *ledger.Ledger, ruleStore *rules.Store, cat *categorize.Categorizer, prop *budget.Proposer, publisher SyncPublisher, logger *log.Logger) *Coach {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Coach{
		ledger:      led,
		rules:       ruleStore,
		categorizer: cat,
		proposer:    prop,
		reconciler:  budget.NewReconciler(),
		publisher:   publisher,
		logger:      logger.WithComponent(log.ComponentCoach),
		users:       make(map[string]*userState),
	}
}

func (c *Coach) user(userID string) *userState {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.users[userID]
	if !ok {
		st = &userState{}
		c.users[userID] = st
	}
	return st
}

// AddTransaction validates, categorizes, and appends one transaction, then
// folds it into the live budget if one exists.
func (c *Coach) AddTransaction(ctx context.Context, userID string, draft core.TransactionDraft) (core.Transaction, error) {
	if err := draft.Validate(); err != nil {
		return core.Transaction{}, err
	}

	st := c.user(userID)
	st.mu.Lock()
	defer st.mu.Unlock()

	tx := core.Transaction{
		Date:     draft.Date,
		RawLabel: draft.Label,
		Amount:   draft.Amount,
	}
	tx = c.categorizer.Categorize(ctx, userID, tx)

	saved, err := c.ledger.Append(ctx, userID, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("append transaction: %w", err)
	}

	c.reconciler.OnTransactionAdded(st.budget, saved)

	c.publishSync(ctx, saved.Seq, userID, saved.ID, saved.Version)

	c.logger.InfoContext(ctx, "Transaction added",
		log.FieldUserID, userID,
		log.FieldTransaction, saved.ID,
		log.FieldLabel, saved.RawLabel,
		log.FieldCategory, saved.Category,
		log.FieldCatMethod, saved.Method,
		log.FieldOperation, log.OpAppend)

	return saved, nil
}

// ListTransactions returns the user's ledger ordered by date then insertion.
func (c *Coach) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	return c.ledger.List(ctx, userID)
}

// NeedingReview returns the transactions still awaiting a user decision.
func (c *Coach) NeedingReview(ctx context.Context, userID string) ([]core.Transaction, error) {
	return c.ledger.NeedingReview(ctx, userID)
}

// Recategorize applies a user correction to one transaction: the ledger row
// is updated, the whole label is taught back to the rule table, and the live
// budget moves the amount between the affected envelopes.
func (c *Coach) Recategorize(ctx context.Context, userID, txID string, category core.Category) (core.Transaction, error) {
	st := c.user(userID)
	st.mu.Lock()
	defer st.mu.Unlock()

	old, err := c.ledger.Get(ctx, userID, txID)
	if err != nil {
		return core.Transaction{}, err
	}

	updated, err := c.categorizer.Recategorize(ctx, userID, old, category)
	if err != nil {
		return core.Transaction{}, err
	}

	if err := c.ledger.UpdateCategory(ctx, userID, txID, updated.Category, updated.Subcategory, updated.Method); err != nil {
		return core.Transaction{}, err
	}
	// The store bumps the row version once per category update; the per-user
	// lock makes old.Version the pre-update value.
	updated.Version = old.Version + 1

	c.reconciler.OnTransactionRecategorized(st.budget, old.Category, updated)

	c.publishSync(ctx, updated.Seq, userID, txID, updated.Version)

	c.logger.InfoContext(ctx, "Transaction recategorized",
		log.FieldUserID, userID,
		log.FieldTransaction, txID,
		log.FieldCategory, updated.Category,
		log.FieldOperation, log.OpUpdate)

	return updated, nil
}

// CreateBudget builds a fresh proposal from the full ledger and installs it
// as the user's live budget. It refuses while any transaction still needs
// review.
func (c *Coach) CreateBudget(ctx context.Context, userID string, goal decimal.Decimal) (*core.BudgetProposal, error) {
	st := c.user(userID)
	st.mu.Lock()
	defer st.mu.Unlock()

	sum, err := c.ledger.Summarize(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("summarize ledger: %w", err)
	}

	proposal, err := c.proposer.Propose(sum, goal)
	if err != nil {
		return nil, err
	}
	st.budget = proposal

	c.logger.InfoContext(ctx, "Budget proposal created",
		log.FieldUserID, userID,
		log.FieldOperation, log.OpPropose,
		"envelopes", len(proposal.Envelopes),
		"total_remaining", proposal.TotalRemaining)

	return proposal.Clone(), nil
}

// CurrentBudget returns a snapshot of the live budget, or core.ErrNotFound
// when none has been created yet.
func (c *Coach) CurrentBudget(_ context.Context, userID string) (*core.BudgetProposal, error) {
	st := c.user(userID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.budget == nil {
		return nil, core.ErrNotFound
	}
	// Callers read the result outside st.mu while the reconciler keeps
	// mutating the live proposal; hand out a snapshot instead.
	return st.budget.Clone(), nil
}

// LearnRule records an explicit keyword rule for the user.
func (c *Coach) LearnRule(ctx context.Context, userID, keyword string, category core.Category) error {
	st := c.user(userID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if err := c.rules.Learn(ctx, userID, keyword, category); err != nil {
		return err
	}

	c.logger.InfoContext(ctx, "Rule learned",
		log.FieldUserID, userID,
		log.FieldKeyword, keyword,
		log.FieldCategory, category,
		log.FieldOperation, log.OpLearn)

	return nil
}

// Rules returns the user's rule table, seeds included.
func (c *Coach) Rules(ctx context.Context, userID string) ([]core.Rule, error) {
	return c.rules.Rules(ctx, userID)
}

func (c *Coach) publishSync(ctx context.Context, seq int64, userID, txID string, version int64) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.PublishLedgerSync(ctx, seq, userID, txID, version); err != nil {
		// The row stays pending locally; the worker's sweep picks it up.
		c.logger.ErrorContext(ctx, "Failed to publish sync message",
			log.FieldUserID, userID,
			log.FieldTransaction, txID,
			log.FieldError, err)
	}
}
