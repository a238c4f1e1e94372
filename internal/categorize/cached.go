package categorize

import (
	"context"
	"time"

	"copilote/internal/cache"
	"copilote/internal/core"
)

// CachedOracle memoizes oracle answers per normalized label. Bank statements
// repeat labels constantly; asking the oracle once per distinct label is
// enough. Only decisive answers are cached: give-ups and errors pass through
// so a later attempt can still succeed.
type CachedOracle struct {
	inner   Oracle
	answers *cache.LRUCache[Result]
}

func NewCachedOracle(inner Oracle, maxSize int, ttl time.Duration) *CachedOracle {
	return &CachedOracle{
		inner:   inner,
		answers: cache.NewLRUCache[Result](maxSize, ttl),
	}
}

func (o *CachedOracle) Classify(ctx context.Context, label string) (Result, error) {
	key := core.NormalizeLabel(label)
	if res, ok := o.answers.Get(key); ok {
		return res, nil
	}

	res, err := o.inner.Classify(ctx, label)
	if err != nil {
		return res, err
	}
	if res.Category != core.CategoryNeedsReview {
		o.answers.Set(key, res)
	}
	return res, nil
}

// CleanExpired implements cache.Cleaner so the answer cache can be swept by
// a cache.Manager.
func (o *CachedOracle) CleanExpired() int {
	return o.answers.CleanExpired()
}
