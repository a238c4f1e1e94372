// Package rules implements the per-user keyword rule store used by the
// categorizer. Lookup is a deterministic longest-match scan: the longest
// keyword contained in the label wins, ties broken by earliest insertion.
package rules

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"copilote/internal/core"
)

// Repo persists learned rules. Seed rules are compiled in and never hit the
// repo; only explicit teaching events do.
type Repo interface {
	SaveRule(ctx context.Context, userID string, r core.Rule) error
	ListRules(ctx context.Context, userID string) ([]core.Rule, error)
}

// Store keeps an in-memory rule index per user, hydrated lazily from the
// repo. Keywords are unique within a user: learning an existing keyword
// overwrites its category in place, keeping the original insertion slot so
// tie-breaking stays stable across equivalent runs.
type Store struct {
	repo Repo

	mu     sync.RWMutex
	byUser map[string]*index
}

type index struct {
	ordered []core.Rule
	pos     map[string]int
}

func NewStore(repo Repo) *Store {
	return &Store{
		repo:   repo,
		byUser: make(map[string]*index),
	}
}

// Learn inserts or overwrites the keyword mapping and persists it. A learn
// that fails, on validation or persistence, leaves the lookup index
// untouched.
func (s *Store) Learn(ctx context.Context, userID, keyword string, category core.Category) error {
	if !category.IsValid() {
		return fmt.Errorf("learn rule %q: %w", keyword, core.ErrInvalidCategory)
	}
	keyword = core.NormalizeLabel(keyword)
	if keyword == "" {
		return fmt.Errorf("learn rule: %w", core.ErrEmptyLabel)
	}

	r := core.Rule{
		Keyword:     keyword,
		Label:       cleanLabel(keyword),
		Category:    category,
		Subcategory: "Validé (Utilisateur)",
	}

	// Persist before touching the index: a failed write must not leave a
	// phantom rule categorizing transactions until restart.
	if err := s.repo.SaveRule(ctx, userID, r); err != nil {
		return fmt.Errorf("persist rule %q: %w", keyword, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx, err := s.ensureLocked(ctx, userID)
	if err != nil {
		return err
	}
	idx.upsert(r)
	return nil
}

// Lookup returns the rule whose keyword is a substring of the upper-cased
// label. It is total: it always returns, and never touches the repo after
// the first call for a user.
func (s *Store) Lookup(ctx context.Context, userID, label string) (core.Rule, bool) {
	norm := core.NormalizeLabel(label)

	s.mu.Lock()
	idx, err := s.ensureLocked(ctx, userID)
	s.mu.Unlock()
	if err != nil {
		// A cold cache with an unreachable repo still leaves the seed rules;
		// ensureLocked only fails before any index exists.
		return core.Rule{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	best := -1
	for i, r := range idx.ordered {
		if !strings.Contains(norm, r.Keyword) {
			continue
		}
		if best == -1 || len(r.Keyword) > len(idx.ordered[best].Keyword) {
			best = i
		}
		// Equal length keeps the earlier insertion, ordered scan guarantees it.
	}
	if best == -1 {
		return core.Rule{}, false
	}
	return idx.ordered[best], true
}

// Rules returns a snapshot of the user's rules in insertion order.
func (s *Store) Rules(ctx context.Context, userID string) ([]core.Rule, error) {
	s.mu.Lock()
	idx, err := s.ensureLocked(ctx, userID)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Rule, len(idx.ordered))
	copy(out, idx.ordered)
	return out, nil
}

// ensureLocked hydrates the user's index on first touch: seed rules first,
// learned rules after, so a learned rule of equal keyword length never
// shadows a seed by accident and longer learned keywords always win.
func (s *Store) ensureLocked(ctx context.Context, userID string) (*index, error) {
	if idx, ok := s.byUser[userID]; ok {
		return idx, nil
	}

	idx := &index{pos: make(map[string]int)}
	for _, r := range SeedRules() {
		idx.upsert(r)
	}

	learned, err := s.repo.ListRules(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load rules for user %s: %w", userID, err)
	}
	for _, r := range learned {
		idx.upsert(r)
	}

	s.byUser[userID] = idx
	return idx, nil
}

func (i *index) upsert(r core.Rule) {
	if at, ok := i.pos[r.Keyword]; ok {
		i.ordered[at] = r
		return
	}
	i.pos[r.Keyword] = len(i.ordered)
	i.ordered = append(i.ordered, r)
}

// cleanLabel builds a display label from a keyword, matching the original
// capitalize-first behavior of taught rules.
func cleanLabel(keyword string) string {
	r := []rune(strings.ToLower(keyword))
	if len(r) == 0 {
		return ""
	}
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
