package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Category is the fixed spending taxonomy. Values are kept in French to stay
// aligned with the rule keywords and labels users actually see.
const (
	CategoryRevenus      Category = "Revenus"
	CategoryChargesFixe  Category = "Charges Fixes"
	CategoryAlimentation Category = "Alimentation"
	CategoryAbonnements  Category = "Abonnements"
	CategorySorties      Category = "Sorties"
	CategoryShopping     Category = "Shopping"
	CategorySante        Category = "Santé"
	CategoryTransport    Category = "Transport"
	CategoryEpargne      Category = "Épargne"
	CategoryAutres       Category = "Autres"

	// CategoryNeedsReview marks a transaction neither a rule nor the oracle
	// could classify. It blocks budget creation until the user resolves it.
	CategoryNeedsReview Category = "A_VERIFIER"
)

const (
	MethodRule   Method = "rule"
	MethodOracle Method = "oracle"
	MethodUser   Method = "user"
)

type (
	Category string

	// Method records how a transaction got its category.
	Method string

	Date struct {
		time.Time
	}

	// Transaction is a single ledger entry. Seq fixes insertion order and is
	// used only to break date ties; business ordering is by Date.
	Transaction struct {
		ID           string          `json:"id"`
		Seq          int64           `json:"-"`
		Version      int64           `json:"-"`
		Date         Date            `json:"date"`
		RawLabel     string          `json:"raw_label"`
		CleanedLabel string          `json:"cleaned_label"`
		Amount       decimal.Decimal `json:"amount"`
		Category     Category        `json:"category"`
		Subcategory  string          `json:"subcategory,omitempty"`
		Method       Method          `json:"method"`
	}

	// TransactionDraft is the caller-supplied part of a transaction, before
	// categorization and ledger append.
	TransactionDraft struct {
		Date   Date            `json:"date"`
		Label  string          `json:"label"`
		Amount decimal.Decimal `json:"amount"`
	}

	// Rule maps an upper-cased keyword to a category. Label and Subcategory
	// are carried along so rule-matched transactions get a clean display
	// label, the way the original rule table worked.
	Rule struct {
		Keyword     string   `json:"keyword"`
		Label       string   `json:"label"`
		Category    Category `json:"category"`
		Subcategory string   `json:"subcategory"`
	}

	// Envelope is a per-category sub-budget. Remaining starts at Proposed and
	// moves as same-category expenses post; it may go negative.
	Envelope struct {
		Category      Category        `json:"category"`
		ObservedSpend decimal.Decimal `json:"observed_spend"`
		Proposed      decimal.Decimal `json:"proposed"`
		Remaining     decimal.Decimal `json:"remaining"`
	}

	// BudgetProposal is the live budget view for one user. It is created once
	// per propose call and then mutated in place by the reconciler until a
	// new proposal supersedes it.
	BudgetProposal struct {
		Envelopes      []*Envelope     `json:"envelopes"`
		IncomeObserved decimal.Decimal `json:"income_observed"`
		FixedObserved  decimal.Decimal `json:"fixed_observed"`
		TotalRemaining decimal.Decimal `json:"total_remaining"`
		DailyRemaining decimal.Decimal `json:"daily_remaining"`
		Advisory       string          `json:"advisory"`
		PeriodDays     int             `json:"period_days"`
		CreatedAt      time.Time       `json:"created_at"`
	}
)

var (
	ErrEmptyLabel               = errors.New("empty label")
	ErrInvalidAmount            = errors.New("invalid amount")
	ErrInvalidDate              = errors.New("invalid date")
	ErrInvalidCategory          = errors.New("invalid category")
	ErrNotFound                 = errors.New("transaction not found")
	ErrIncompleteCategorization = errors.New("transactions awaiting review")
	ErrOracleUnavailable        = errors.New("categorization oracle unavailable")
)

// Categories returns the assignable categories, review sentinel excluded.
func Categories() []Category {
	return []Category{
		CategoryRevenus,
		CategoryChargesFixe,
		CategoryAlimentation,
		CategoryAbonnements,
		CategorySorties,
		CategoryShopping,
		CategorySante,
		CategoryTransport,
		CategoryEpargne,
		CategoryAutres,
	}
}

// IsValid reports whether c is an assignable category. The review sentinel is
// not assignable by users or rules; only the categorizer sets it.
func (c Category) IsValid() bool {
	for _, v := range Categories() {
		if c == v {
			return true
		}
	}
	return false
}

func (c Category) String() string { return string(c) }

// NeedsReview reports whether the transaction is still awaiting the user.
func (t Transaction) NeedsReview() bool {
	return t.Category == CategoryNeedsReview
}

// IsExpense reports whether the transaction takes money out.
func (t Transaction) IsExpense() bool {
	return t.Amount.IsNegative()
}

// NormalizeLabel upper-cases and trims a raw transaction label. Both rule
// keywords and labels pass through here so substring matching is total.
func NormalizeLabel(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// NewDate creates a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// MarshalJSON renders the date as YYYY-MM-DD, the wire format of the ledger.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format("2006-01-02") + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return ErrInvalidDate
	}
	d.Time = t
	return nil
}

func (t TransactionDraft) Validate() error {
	if strings.TrimSpace(t.Label) == "" {
		return ErrEmptyLabel
	}
	if len(t.Label) > 200 {
		return errors.New("label too long (max 200 characters)")
	}
	if t.Amount.IsZero() {
		return ErrInvalidAmount
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	return nil
}

// Envelope returns the envelope for cat, or nil when the proposal has none.
func (b *BudgetProposal) Envelope(cat Category) *Envelope {
	for _, e := range b.Envelopes {
		if e.Category == cat {
			return e
		}
	}
	return nil
}

// Clone returns an independent copy of the proposal, envelopes included.
// The reconciler mutates the live proposal in place, so anything handed
// outside the owning lock must be a clone.
func (b *BudgetProposal) Clone() *BudgetProposal {
	if b == nil {
		return nil
	}
	out := *b
	out.Envelopes = make([]*Envelope, len(b.Envelopes))
	for i, e := range b.Envelopes {
		env := *e
		out.Envelopes[i] = &env
	}
	return &out
}
