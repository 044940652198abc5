package calculation

import (
	"fmt"
	"sort"

	"github.com/rgehrsitz/ratebook/internal/domain"
	"github.com/shopspring/decimal"
)

// SortBrackets returns a copy of brackets in ascending RangeStart order.
// The input slice is never modified.
func SortBrackets(brackets []domain.Bracket) []domain.Bracket {
	sorted := make([]domain.Bracket, len(brackets))
	copy(sorted, brackets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].RangeStart.LessThan(sorted[j].RangeStart)
	})
	return sorted
}

// ClampNonNegative floors negative input at zero
func ClampNonNegative(value decimal.Decimal) decimal.Decimal {
	if value.IsNegative() {
		return decimal.Zero
	}
	return value
}

// LocateBracket finds the bracket that applies to value. It sorts its own copy
// of the brackets and always returns a bracket for a non-empty rule-set:
//   - negative values are clamped to zero
//   - the highest bracket with RangeStart <= value < RangeEnd wins
//   - a value past a bracket's soft upper bound but below the next floor
//     stays in the highest bracket whose floor it reached
//   - a value below every floor falls back to the lowest bracket
func LocateBracket(rs domain.RuleSet, value decimal.Decimal) (domain.Bracket, error) {
	if len(rs.Brackets) == 0 {
		return domain.Bracket{}, fmt.Errorf("%w: rule-set %s has no brackets", domain.ErrDataUnavailable, rs.EffectiveStart)
	}

	v := ClampNonNegative(value)
	sorted := SortBrackets(rs.Brackets)

	reached := -1
	for i := len(sorted) - 1; i >= 0; i-- {
		b := sorted[i]
		if b.RangeStart.GreaterThan(v) {
			continue
		}
		if b.Contains(v) {
			return b, nil
		}
		if reached < 0 {
			reached = i
		}
	}

	if reached >= 0 {
		return sorted[reached], nil
	}
	return sorted[0], nil
}
