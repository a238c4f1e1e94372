package categorize

import (
	"context"
	"errors"
	"testing"
	"time"

	"copilote/internal/core"
)

type countingOracle struct {
	calls  int
	result Result
	err    error
}

func (o *countingOracle) Classify(_ context.Context, _ string) (Result, error) {
	o.calls++
	return o.result, o.err
}

func TestCachedOracleMemoizesDecisiveAnswers(t *testing.T) {
	inner := &countingOracle{result: Result{Label: "Netflix", Category: core.CategoryAbonnements}}
	o := NewCachedOracle(inner, 16, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := o.Classify(ctx, "prlv netflix sarl")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Category != core.CategoryAbonnements {
			t.Errorf("category = %q", res.Category)
		}
	}
	if inner.calls != 1 {
		t.Errorf("inner called %d times, want 1", inner.calls)
	}

	// Different normalization of the same label hits the same entry.
	if _, err := o.Classify(ctx, "  PRLV NETFLIX SARL "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("inner called %d times after re-spelled label, want 1", inner.calls)
	}
}

func TestCachedOracleDoesNotCacheGiveUps(t *testing.T) {
	inner := &countingOracle{result: Result{Category: core.CategoryNeedsReview}}
	o := NewCachedOracle(inner, 16, time.Minute)
	ctx := context.Background()

	o.Classify(ctx, "VIR MYSTERE")
	o.Classify(ctx, "VIR MYSTERE")
	if inner.calls != 2 {
		t.Errorf("inner called %d times, want 2 (give-ups are retried)", inner.calls)
	}
}

func TestCachedOracleDoesNotCacheErrors(t *testing.T) {
	inner := &countingOracle{err: errors.New("oracle down")}
	o := NewCachedOracle(inner, 16, time.Minute)
	ctx := context.Background()

	if _, err := o.Classify(ctx, "X"); err == nil {
		t.Fatal("expected error")
	}
	o.Classify(ctx, "X")
	if inner.calls != 2 {
		t.Errorf("inner called %d times, want 2 (errors are retried)", inner.calls)
	}
}
