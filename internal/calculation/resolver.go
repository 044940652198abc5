package calculation

import (
	"fmt"
	"sort"
	"time"

	"github.com/rgehrsitz/ratebook/internal/domain"
)

// sortRuleSets returns an ascending copy ordered by effective start. The sort
// is stable so rule-sets sharing a date keep their load order.
func sortRuleSets(ruleSets []domain.RuleSet) []domain.RuleSet {
	sorted := make([]domain.RuleSet, len(ruleSets))
	copy(sorted, ruleSets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EffectiveStart.Before(sorted[j].EffectiveStart)
	})
	return sorted
}

// ResolveRuleSet selects the latest rule-set whose effective start is on or
// before asOf. Only the calendar date of asOf matters.
//
// When asOf predates every rule-set the oldest one is returned instead of an
// error. Among rule-sets sharing an effective start the last loaded wins.
func ResolveRuleSet(asOf time.Time, ruleSets []domain.RuleSet) (domain.RuleSet, error) {
	if len(ruleSets) == 0 {
		return domain.RuleSet{}, fmt.Errorf("%w: no rule-sets loaded", domain.ErrDataUnavailable)
	}

	day := domain.DateOf(asOf)
	sorted := sortRuleSets(ruleSets)

	for i := len(sorted) - 1; i >= 0; i-- {
		if !sorted[i].EffectiveStart.After(day) {
			return sorted[i], nil
		}
	}

	oldest := 0
	for oldest+1 < len(sorted) && sorted[oldest+1].EffectiveStart.Equal(sorted[0].EffectiveStart) {
		oldest++
	}
	return sorted[oldest], nil
}

// PredatesAll reports whether asOf is earlier than every rule-set, i.e.
// whether ResolveRuleSet had to use the oldest-fallback
func PredatesAll(asOf time.Time, ruleSets []domain.RuleSet) bool {
	day := domain.DateOf(asOf)
	for _, rs := range ruleSets {
		if !rs.EffectiveStart.After(day) {
			return false
		}
	}
	return len(ruleSets) > 0
}

// ListSelectableDates returns one entry per known effective start in
// ascending chronological order. Duplicate dates collapse into one entry
// carrying the last-loaded label.
func ListSelectableDates(ruleSets []domain.RuleSet) []domain.SelectableDate {
	sorted := sortRuleSets(ruleSets)
	dates := make([]domain.SelectableDate, 0, len(sorted))
	for _, rs := range sorted {
		entry := domain.SelectableDate{Key: rs.EffectiveStart.String(), Label: rs.Label}
		if entry.Label == "" {
			entry.Label = entry.Key
		}
		if n := len(dates); n > 0 && dates[n-1].Key == entry.Key {
			dates[n-1] = entry
			continue
		}
		dates = append(dates, entry)
	}
	return dates
}
