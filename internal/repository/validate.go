package repository

import (
	"fmt"
	"sort"

	"github.com/rgehrsitz/ratebook/internal/domain"
	"github.com/shopspring/decimal"
)

var maxRate = decimal.NewFromInt(100)

// ValidateRuleSet checks that a decoded rule-set is well formed: at least one
// bracket, unique non-negative floors, rates within [0,100], explicit upper
// bounds above their floor and not past the next floor, and an open-ended
// top bracket. Brackets may arrive in any order.
func ValidateRuleSet(rs domain.RuleSet) error {
	if rs.EffectiveStart.IsZero() {
		return fmt.Errorf("effective start is required")
	}
	if len(rs.Brackets) == 0 {
		return fmt.Errorf("rule-set %s has no brackets", rs.EffectiveStart)
	}

	sorted := sortedBrackets(rs.Brackets)
	for i, b := range sorted {
		if err := validateBracket(b); err != nil {
			return fmt.Errorf("bracket starting at %s: %w", b.RangeStart, err)
		}
		if i+1 < len(sorted) {
			next := sorted[i+1]
			if next.RangeStart.Equal(b.RangeStart) {
				return fmt.Errorf("duplicate bracket start %s", b.RangeStart)
			}
			if b.RangeEnd != nil && b.RangeEnd.GreaterThan(next.RangeStart) {
				return fmt.Errorf("bracket starting at %s overlaps the next bracket at %s", b.RangeStart, next.RangeStart)
			}
		}
	}

	if top := sorted[len(sorted)-1]; !top.IsOpenEnded() {
		return fmt.Errorf("top bracket starting at %s must be open-ended", top.RangeStart)
	}
	return nil
}

// validateBracket validates a single bracket
func validateBracket(b domain.Bracket) error {
	if b.RangeStart.IsNegative() {
		return fmt.Errorf("range start cannot be negative")
	}
	if b.RangeEnd != nil && b.RangeEnd.LessThanOrEqual(b.RangeStart) {
		return fmt.Errorf("range end %s must be greater than range start", b.RangeEnd)
	}
	if b.PercentageRate.IsNegative() || b.PercentageRate.GreaterThan(maxRate) {
		return fmt.Errorf("percentage rate must be between 0 and 100")
	}
	if b.FixedAmount.IsNegative() {
		return fmt.Errorf("fixed amount cannot be negative")
	}
	for key, amount := range b.Parts {
		if amount.IsNegative() {
			return fmt.Errorf("part %s cannot be negative", key)
		}
	}
	return nil
}

// sortedBrackets returns an ascending copy by range start
func sortedBrackets(brackets []domain.Bracket) []domain.Bracket {
	sorted := make([]domain.Bracket, len(brackets))
	copy(sorted, brackets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].RangeStart.LessThan(sorted[j].RangeStart)
	})
	return sorted
}
