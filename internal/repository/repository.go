// Package repository loads versioned rule-sets from their backing stores.
//
// Every implementation reports store failures, missing documents and
// malformed data as domain.ErrDataUnavailable so callers can test for it with
// errors.Is. None of them caches; CachedRepository wraps another repository
// when caching is wanted.
package repository

import (
	"context"
	"fmt"

	"github.com/rgehrsitz/ratebook/internal/domain"
)

// Repository loads every known rule-set of one rule family
type Repository interface {
	// LoadAll returns all rule-sets of the family in no particular order
	LoadAll(ctx context.Context) ([]domain.RuleSet, error)
	// LoadOne returns the rule-set with exactly this effective start
	LoadOne(ctx context.Context, effectiveStart domain.Date) (domain.RuleSet, error)
}

// unavailable wraps err so that it matches domain.ErrDataUnavailable
func unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrDataUnavailable, fmt.Sprintf(format, args...))
}

// checkContext converts a done context into ErrDataUnavailable
func checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrDataUnavailable, err)
	}
	return nil
}
