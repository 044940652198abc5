package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/rgehrsitz/ratebook/internal/domain"
	"github.com/shopspring/decimal"
)

// Formatter renders engine results for one output format
type Formatter interface {
	Name() string
	FormatTable(table *domain.RuleTable, family domain.RuleFamily) ([]byte, error)
	FormatBreakdown(result *domain.BreakdownResult, family domain.RuleFamily) ([]byte, error)
	FormatDates(dates []domain.SelectableDate) ([]byte, error)
}

var formatters = []Formatter{
	ConsoleFormatter{},
	JSONFormatter{},
	CSVFormatter{},
}

// GetFormatterByName returns the formatter registered under name, or nil
func GetFormatterByName(name string) Formatter {
	for _, f := range formatters {
		if strings.EqualFold(f.Name(), name) {
			return f
		}
	}
	return nil
}

// FormatterNames lists the registered format names
func FormatterNames() []string {
	names := make([]string, 0, len(formatters))
	for _, f := range formatters {
		names = append(names, f.Name())
	}
	return names
}

// Write renders with the named formatter to w
func Write(w io.Writer, format string, render func(Formatter) ([]byte, error)) error {
	f := GetFormatterByName(format)
	if f == nil {
		return fmt.Errorf("unsupported format: %s (expected one of %s)", format, strings.Join(FormatterNames(), ", "))
	}
	data, err := render(f)
	if err != nil {
		return fmt.Errorf("failed to format %s output: %w", f.Name(), err)
	}
	_, err = w.Write(data)
	return err
}

// FormatAmount formats money with two decimals
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// FormatRate formats a percentage rate held as 20 for 20%
func FormatRate(rate decimal.Decimal) string {
	return rate.String() + "%"
}

// partKeys returns the part columns for a table: the family's parts in
// order, followed by any other keys the brackets carry
func partKeys(table *domain.RuleTable, family domain.RuleFamily) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, p := range family.Parts {
		seen[p.Key] = true
		keys = append(keys, p.Key)
	}
	var extra []string
	for _, b := range table.Brackets {
		for k := range b.Parts {
			if !seen[k] {
				seen[k] = true
				extra = append(extra, k)
			}
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}
