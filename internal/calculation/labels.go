package calculation

import (
	"fmt"

	"github.com/rgehrsitz/ratebook/internal/domain"
	"github.com/shopspring/decimal"
)

var labelStep = decimal.New(1, -2) // 0.01

// FormatRangeLabel derives a human-readable range for a bracket from its
// successor: "1000 - 4999.99", or "Above 5000" for the top bracket
func FormatRangeLabel(bracket domain.Bracket, next *domain.Bracket) string {
	if next == nil {
		return "Above " + bracket.RangeStart.String()
	}
	return fmt.Sprintf("%s - %s", bracket.RangeStart.String(), next.RangeStart.Sub(labelStep).String())
}

// MaterializeBrackets returns the rule-set's brackets sorted ascending with
// RangeLabel filled in pairwise with each successor
func MaterializeBrackets(rs domain.RuleSet) []domain.Bracket {
	sorted := SortBrackets(rs.Brackets)
	for i := range sorted {
		var next *domain.Bracket
		if i+1 < len(sorted) {
			next = &sorted[i+1]
		}
		sorted[i].RangeLabel = FormatRangeLabel(sorted[i], next)
	}
	return sorted
}
