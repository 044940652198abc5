package repository

import (
	"context"

	"github.com/rgehrsitz/ratebook/internal/domain"
)

// MemoryRepository serves pre-loaded rule-sets. It is used by tests and by
// callers that load reference data once at startup.
type MemoryRepository struct {
	ruleSets []domain.RuleSet
}

// NewMemoryRepository creates a repository over a copy of ruleSets, keeping
// their order as load order
func NewMemoryRepository(ruleSets ...domain.RuleSet) *MemoryRepository {
	held := make([]domain.RuleSet, len(ruleSets))
	copy(held, ruleSets)
	return &MemoryRepository{ruleSets: held}
}

func (m *MemoryRepository) LoadAll(ctx context.Context) ([]domain.RuleSet, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	out := make([]domain.RuleSet, len(m.ruleSets))
	copy(out, m.ruleSets)
	return out, nil
}

// LoadOne returns the last-loaded rule-set with the given effective start
func (m *MemoryRepository) LoadOne(ctx context.Context, effectiveStart domain.Date) (domain.RuleSet, error) {
	if err := checkContext(ctx); err != nil {
		return domain.RuleSet{}, err
	}
	for i := len(m.ruleSets) - 1; i >= 0; i-- {
		if m.ruleSets[i].EffectiveStart.Equal(effectiveStart) {
			return m.ruleSets[i], nil
		}
	}
	return domain.RuleSet{}, unavailable("no rule-set effective %s", effectiveStart)
}
