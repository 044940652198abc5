package output

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/rgehrsitz/ratebook/internal/domain"
)

// CSVFormatter writes one row per bracket, field or date
type CSVFormatter struct{}

func (CSVFormatter) Name() string { return "csv" }

func (CSVFormatter) FormatTable(table *domain.RuleTable, family domain.RuleFamily) ([]byte, error) {
	if table == nil {
		return nil, fmt.Errorf("table cannot be nil")
	}
	keys := partKeys(table, family)

	header := []string{"range_label", "range_start", "range_end", "fixed_amount", "percentage_rate"}
	header = append(header, keys...)

	rows := make([][]string, 0, len(table.Brackets))
	for _, b := range table.Brackets {
		end := ""
		if b.RangeEnd != nil {
			end = b.RangeEnd.String()
		}
		row := []string{b.RangeLabel, b.RangeStart.String(), end, FormatAmount(b.FixedAmount), b.PercentageRate.String()}
		for _, k := range keys {
			row = append(row, FormatAmount(b.Parts[k]))
		}
		rows = append(rows, row)
	}
	return writeCSV(header, rows)
}

func (CSVFormatter) FormatBreakdown(result *domain.BreakdownResult, family domain.RuleFamily) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("result cannot be nil")
	}
	rows := [][]string{
		{"effectiveStart", result.EffectiveStart.String()},
		{"rangeStart", result.Bracket.RangeStart.String()},
		{family.FieldName(domain.FieldOffset), FormatAmount(result.Offset)},
		{family.FieldName(domain.FieldFix), FormatAmount(result.Bracket.FixedAmount)},
		{family.FieldName(domain.FieldByPercentage), FormatAmount(result.MarginalAmount)},
		{family.FieldName(domain.FieldTotal), FormatAmount(result.TotalAmount)},
	}
	for _, p := range result.Parts {
		rows = append(rows, []string{p.Key, FormatAmount(p.Amount)})
	}
	if result.CompoundTotal != nil {
		rows = append(rows, []string{"compoundTotal", FormatAmount(*result.CompoundTotal)})
	}
	return writeCSV([]string{"field", "value"}, rows)
}

func (CSVFormatter) FormatDates(dates []domain.SelectableDate) ([]byte, error) {
	rows := make([][]string, 0, len(dates))
	for _, d := range dates {
		rows = append(rows, []string{d.Key, d.Label})
	}
	return writeCSV([]string{"key", "label"}, rows)
}

func writeCSV(header []string, rows [][]string) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
