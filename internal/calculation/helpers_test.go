package calculation

import (
	"time"

	"github.com/rgehrsitz/ratebook/internal/domain"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// bracket builds a bracket from start, end ("" for open-ended), fixed and rate
func bracket(start, end, fixed, rate string) domain.Bracket {
	b := domain.Bracket{
		RangeStart:     dec(start),
		FixedAmount:    dec(fixed),
		PercentageRate: dec(rate),
	}
	if end != "" {
		b.RangeEnd = decPtr(end)
	}
	return b
}

// train2023 is the annual withholding table effective 2023-01-01, listed out
// of order on purpose
func train2023() domain.RuleSet {
	return domain.RuleSet{
		EffectiveStart: domain.NewDate(2023, time.January, 1),
		Label:          "TRAIN 2023 onwards",
		Brackets: []domain.Bracket{
			bracket("800000", "2000000", "102500", "25"),
			bracket("0", "250000", "0", "0"),
			bracket("8000000", "", "2202500", "35"),
			bracket("250000", "400000", "0", "15"),
			bracket("2000000", "8000000", "402500", "30"),
			bracket("400000", "800000", "22500", "20"),
		},
	}
}

// TestLogger records formats per level
type TestLogger struct {
	messages []string
}

func (tl *TestLogger) Debugf(format string, args ...interface{}) {
	tl.messages = append(tl.messages, "DEBUG: "+format)
}

func (tl *TestLogger) Infof(format string, args ...interface{}) {
	tl.messages = append(tl.messages, "INFO: "+format)
}

func (tl *TestLogger) Warnf(format string, args ...interface{}) {
	tl.messages = append(tl.messages, "WARN: "+format)
}

func (tl *TestLogger) Errorf(format string, args ...interface{}) {
	tl.messages = append(tl.messages, "ERROR: "+format)
}

func (tl *TestLogger) count(prefix string) int {
	n := 0
	for _, m := range tl.messages {
		if len(m) >= len(prefix) && m[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}
