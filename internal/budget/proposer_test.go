package budget

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"copilote/internal/core"
	"copilote/internal/ledger"
)

func amt(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func sampleSummary() ledger.Summary {
	return ledger.Summary{
		Income:       amt(2500),
		FixedCharges: amt(-800),
		VariableByCategory: map[core.Category]decimal.Decimal{
			core.CategoryAlimentation: amt(-300),
			core.CategoryTransport:    amt(-100),
			core.CategorySorties:      amt(-100),
		},
	}
}

func TestProposeGatesOnReview(t *testing.T) {
	p := NewProposer(decimal.Zero, 30)
	sum := sampleSummary()
	sum.ReviewCount = 1

	proposal, err := p.Propose(sum, amt(200))
	if !errors.Is(err, core.ErrIncompleteCategorization) {
		t.Errorf("got %v, want ErrIncompleteCategorization", err)
	}
	if proposal != nil {
		t.Error("no partial proposal may be produced")
	}
}

func TestProposeEnvelopeConservation(t *testing.T) {
	p := NewProposer(decimal.Zero, 30)
	proposal, err := p.Propose(sampleSummary(), amt(200))
	if err != nil {
		t.Fatalf("propose: %v", err)
	}

	// disposable = 2500 - 800 - 200 = 1500
	if !proposal.TotalRemaining.Equal(amt(1500)) {
		t.Errorf("total remaining = %s, want 1500", proposal.TotalRemaining)
	}

	sum := decimal.Zero
	for _, env := range proposal.Envelopes {
		if env.Proposed.IsNegative() {
			t.Errorf("envelope %s proposed negative: %s", env.Category, env.Proposed)
		}
		if !env.Remaining.Equal(env.Proposed) {
			t.Errorf("envelope %s remaining %s != proposed %s", env.Category, env.Remaining, env.Proposed)
		}
		sum = sum.Add(env.Proposed)
	}
	if sum.GreaterThan(proposal.TotalRemaining) {
		t.Errorf("envelopes sum to %s, exceeding remainder %s", sum, proposal.TotalRemaining)
	}
	// The bonus envelope absorbs the flooring leftover exactly.
	if !sum.Equal(proposal.TotalRemaining) {
		t.Errorf("envelopes sum to %s, want exactly %s", sum, proposal.TotalRemaining)
	}
}

func TestProposeAllocatesProportionally(t *testing.T) {
	p := NewProposer(decimal.Zero, 30)
	proposal, err := p.Propose(sampleSummary(), amt(200))
	if err != nil {
		t.Fatalf("propose: %v", err)
	}

	// Alimentation is 60% of variable spend (300/500): 1500*0.6 = 900.
	env := proposal.Envelope(core.CategoryAlimentation)
	if env == nil {
		t.Fatal("missing Alimentation envelope")
	}
	if !env.Proposed.Equal(amt(900)) {
		t.Errorf("Alimentation proposed = %s, want 900", env.Proposed)
	}
	if !env.ObservedSpend.Equal(amt(300)) {
		t.Errorf("observed spend = %s, want 300", env.ObservedSpend)
	}

	// 100/500 of 1500 = 300 for each of the two smaller categories.
	for _, cat := range []core.Category{core.CategoryTransport, core.CategorySorties} {
		env := proposal.Envelope(cat)
		if env == nil {
			t.Fatalf("missing %s envelope", cat)
		}
		if !env.Proposed.Equal(amt(300)) {
			t.Errorf("%s proposed = %s, want 300", cat, env.Proposed)
		}
	}
}

func TestProposeFloorsToFiveWithBonus(t *testing.T) {
	p := NewProposer(decimal.Zero, 30)
	sum := ledger.Summary{
		Income:       amt(1000),
		FixedCharges: amt(-1),
		VariableByCategory: map[core.Category]decimal.Decimal{
			core.CategoryAlimentation: amt(-333),
			core.CategoryTransport:    amt(-666),
		},
	}
	proposal, err := p.Propose(sum, decimal.Zero)
	if err != nil {
		t.Fatalf("propose: %v", err)
	}

	for _, env := range proposal.Envelopes {
		if env.Category == BonusCategory {
			continue
		}
		if !env.Proposed.Mod(decimal.NewFromInt(5)).IsZero() {
			t.Errorf("envelope %s = %s, not a multiple of five", env.Category, env.Proposed)
		}
	}
	if proposal.Envelope(BonusCategory) == nil {
		t.Error("expected a bonus envelope for the flooring leftover")
	}
}

func TestProposeDailyRemaining(t *testing.T) {
	p := NewProposer(decimal.Zero, 30)
	proposal, err := p.Propose(sampleSummary(), amt(200))
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if !proposal.DailyRemaining.Equal(amt(50)) {
		t.Errorf("daily = %s, want 50 (1500/30)", proposal.DailyRemaining)
	}
	if proposal.PeriodDays != 30 {
		t.Errorf("period = %d", proposal.PeriodDays)
	}
}

func TestProposeAppliesBuffer(t *testing.T) {
	p := NewProposer(amt(100), 30)
	proposal, err := p.Propose(sampleSummary(), amt(200))
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if !proposal.TotalRemaining.Equal(amt(1400)) {
		t.Errorf("total remaining = %s, want 1400 with buffer", proposal.TotalRemaining)
	}
}

func TestProposeAdvisoryNonEmpty(t *testing.T) {
	p := NewProposer(decimal.Zero, 30)
	proposal, err := p.Propose(sampleSummary(), amt(200))
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if proposal.Advisory == "" {
		t.Error("advisory message must not be empty")
	}
}

func TestProposeEmptyLedger(t *testing.T) {
	p := NewProposer(decimal.Zero, 30)
	proposal, err := p.Propose(ledger.Summary{VariableByCategory: map[core.Category]decimal.Decimal{}}, decimal.Zero)
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if len(proposal.Envelopes) != 0 {
		t.Errorf("expected no envelopes, got %d", len(proposal.Envelopes))
	}
	if !proposal.TotalRemaining.IsZero() {
		t.Errorf("total remaining = %s", proposal.TotalRemaining)
	}
}

func TestProposeSetsCreatedAt(t *testing.T) {
	p := NewProposer(decimal.Zero, 30)
	fixed := time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	proposal, err := p.Propose(sampleSummary(), decimal.Zero)
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if !proposal.CreatedAt.Equal(fixed) {
		t.Errorf("created at = %v", proposal.CreatedAt)
	}
}
