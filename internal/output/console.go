package output

import (
	"bytes"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/rgehrsitz/ratebook/internal/domain"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Faint(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// ConsoleFormatter renders bordered terminal tables
type ConsoleFormatter struct{}

func (ConsoleFormatter) Name() string { return "console" }

func (ConsoleFormatter) FormatTable(rt *domain.RuleTable, family domain.RuleFamily) ([]byte, error) {
	if rt == nil {
		return nil, fmt.Errorf("table cannot be nil")
	}
	keys := partKeys(rt, family)

	headers := []string{"Range", "Fixed", "Rate"}
	for _, k := range keys {
		headers = append(headers, partLabel(family, k))
	}

	t := newTable(headers...)
	for _, b := range rt.Brackets {
		row := []string{b.RangeLabel, FormatAmount(b.FixedAmount), FormatRate(b.PercentageRate)}
		for _, k := range keys {
			row = append(row, FormatAmount(b.Parts[k]))
		}
		t.Row(row...)
	}

	var buf bytes.Buffer
	fmt.Fprintln(&buf, titleStyle.Render(fmt.Sprintf("%s: %s", rt.Family, rt.Label)))
	fmt.Fprintln(&buf, mutedStyle.Render("Effective "+rt.EffectiveStart.String()))
	fmt.Fprintln(&buf, t.String())
	return buf.Bytes(), nil
}

func (ConsoleFormatter) FormatBreakdown(result *domain.BreakdownResult, family domain.RuleFamily) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("result cannot be nil")
	}

	t := newTable("Field", "Value")
	t.Row("Bracket start", result.Bracket.RangeStart.String())
	t.Row("Rate", FormatRate(result.Bracket.PercentageRate))
	t.Row(family.FieldName(domain.FieldOffset), FormatAmount(result.Offset))
	t.Row(family.FieldName(domain.FieldFix), FormatAmount(result.Bracket.FixedAmount))
	t.Row(family.FieldName(domain.FieldByPercentage), FormatAmount(result.MarginalAmount))
	t.Row(family.FieldName(domain.FieldTotal), FormatAmount(result.TotalAmount))
	for _, p := range result.Parts {
		t.Row(p.Label, FormatAmount(p.Amount))
	}
	if result.CompoundTotal != nil {
		t.Row("Compound total", FormatAmount(*result.CompoundTotal))
	}

	var buf bytes.Buffer
	fmt.Fprintln(&buf, titleStyle.Render(fmt.Sprintf("%s breakdown", result.Family)))
	fmt.Fprintln(&buf, mutedStyle.Render("Rule-set effective "+result.EffectiveStart.String()))
	fmt.Fprintln(&buf, t.String())
	return buf.Bytes(), nil
}

func (ConsoleFormatter) FormatDates(dates []domain.SelectableDate) ([]byte, error) {
	t := newTable("Key", "Label")
	for _, d := range dates {
		t.Row(d.Key, d.Label)
	}
	return []byte(t.String() + "\n"), nil
}

// newTable builds a bordered table whose non-first columns are right aligned
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return cellStyle
			default:
				return numberStyle
			}
		})
}

func partLabel(family domain.RuleFamily, key string) string {
	for _, p := range family.Parts {
		if p.Key == key && p.Label != "" {
			return p.Label
		}
	}
	return key
}
