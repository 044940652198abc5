package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rgehrsitz/ratebook/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sssFamily() domain.RuleFamily {
	family, _ := domain.FindFamily(domain.DefaultFamilies(), domain.FamilySSS)
	return family
}

func taxFamily() domain.RuleFamily {
	family, _ := domain.FindFamily(domain.DefaultFamilies(), domain.FamilyTax)
	return family
}

func buildTestTable() *domain.RuleTable {
	end := dec("250000")
	return &domain.RuleTable{
		Family:         domain.FamilyTax,
		EffectiveStart: domain.NewDate(2023, time.January, 1),
		Label:          "TRAIN 2023 onwards",
		Brackets: []domain.Bracket{
			{RangeStart: dec("0"), RangeEnd: &end, FixedAmount: dec("0"), PercentageRate: dec("0"), RangeLabel: "0 - 249999.99"},
			{RangeStart: dec("250000"), FixedAmount: dec("0"), PercentageRate: dec("15"), RangeLabel: "Above 250000"},
		},
	}
}

func buildTestBreakdown() *domain.BreakdownResult {
	end := dec("400000")
	return &domain.BreakdownResult{
		Family:         domain.FamilyTax,
		EffectiveStart: domain.NewDate(2023, time.January, 1),
		Bracket:        domain.Bracket{RangeStart: dec("250000"), RangeEnd: &end, FixedAmount: dec("0"), PercentageRate: dec("15")},
		Offset:         dec("50000"),
		MarginalAmount: dec("7500"),
		TotalAmount:    dec("7500"),
	}
}

func buildCompoundBreakdown() *domain.BreakdownResult {
	total := dec("770")
	return &domain.BreakdownResult{
		Family:         domain.FamilySSS,
		EffectiveStart: domain.NewDate(2025, time.January, 1),
		Bracket:        domain.Bracket{RangeStart: dec("0"), FixedAmount: dec("0"), PercentageRate: dec("0")},
		Offset:         dec("4000"),
		MarginalAmount: decimal.Zero,
		TotalAmount:    decimal.Zero,
		Parts: []domain.PartAmount{
			{Key: "regular_ee", Label: "Regular SS (Employee)", Amount: dec("250")},
			{Key: "regular_er", Label: "Regular SS (Employer)", Amount: dec("510")},
			{Key: "ec_er", Label: "EC (Employer)", Amount: dec("10")},
		},
		CompoundTotal: &total,
	}
}

func TestGetFormatterByName(t *testing.T) {
	for _, name := range []string{"console", "json", "csv", "JSON"} {
		f := GetFormatterByName(name)
		require.NotNil(t, f, name)
		assert.True(t, strings.EqualFold(name, f.Name()))
	}
	assert.Nil(t, GetFormatterByName("html"), "Should return nil formatter for non-existent name")
	assert.Equal(t, []string{"console", "json", "csv"}, FormatterNames())
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, "json", func(f Formatter) ([]byte, error) {
		return f.FormatDates([]domain.SelectableDate{{Key: "2023-01-01", Label: "TRAIN"}})
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"key":"2023-01-01","label":"TRAIN"}]`, buf.String())

	err = Write(&buf, "xml", func(f Formatter) ([]byte, error) { return nil, nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format: xml")
}

func TestJSONFormatter_Breakdown(t *testing.T) {
	data, err := JSONFormatter{}.FormatBreakdown(buildTestBreakdown(), taxFamily())
	require.NoError(t, err)

	assert.Contains(t, string(data), `"taxTotal": 7500.00`)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	for _, key := range []string{"bracket", "taxOffset", "taxFix", "taxByPercentage", "taxTotal", "effectiveStart"} {
		assert.Contains(t, doc, key)
	}
	assert.NotContains(t, doc, "compoundTotal")
}

func TestJSONFormatter_CompoundBreakdown(t *testing.T) {
	data, err := JSONFormatter{}.FormatBreakdown(buildCompoundBreakdown(), sssFamily())
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "offset")
	assert.Equal(t, 770.0, doc["compoundTotal"])
	assert.Len(t, doc["parts"], 3)
}

func TestJSONFormatter_Table(t *testing.T) {
	data, err := JSONFormatter{}.FormatTable(buildTestTable(), taxFamily())
	require.NoError(t, err)

	var doc TableDocument
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "2023-01-01", doc.EffectiveStart)
	require.Len(t, doc.Brackets, 2)
	assert.Equal(t, "Above 250000", doc.Brackets[1].RangeLabel)
	assert.Nil(t, doc.Brackets[1].RangeEnd)
	assert.Equal(t, json.Number("250000"), *doc.Brackets[0].RangeEnd)
}

func TestJSONFormatter_NilInput(t *testing.T) {
	_, err := JSONFormatter{}.FormatTable(nil, taxFamily())
	assert.Error(t, err)
	_, err = JSONFormatter{}.FormatBreakdown(nil, taxFamily())
	assert.Error(t, err)

	data, err := JSONFormatter{}.FormatDates(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestCSVFormatter_Table(t *testing.T) {
	data, err := CSVFormatter{}.FormatTable(buildTestTable(), taxFamily())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"range_label", "range_start", "range_end", "fixed_amount", "percentage_rate"}, records[0])
	assert.Equal(t, []string{"0 - 249999.99", "0", "250000", "0.00", "0"}, records[1])
	assert.Equal(t, []string{"Above 250000", "250000", "", "0.00", "15"}, records[2])
}

func TestCSVFormatter_TableWithParts(t *testing.T) {
	table := &domain.RuleTable{
		Family:         domain.FamilySSS,
		EffectiveStart: domain.NewDate(2025, time.January, 1),
		Brackets: []domain.Bracket{{
			RangeStart: dec("0"),
			Parts:      map[string]decimal.Decimal{"regular_ee": dec("250"), "wisp_ee": dec("0")},
			RangeLabel: "Above 0",
		}},
	}

	data, err := CSVFormatter{}.FormatTable(table, sssFamily())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	header := records[0]
	assert.Equal(t, "regular_ee", header[5], "family parts come first")
	assert.Equal(t, "wisp_ee", header[len(header)-1], "unknown parts are appended")
	assert.Equal(t, "250.00", records[1][5])
}

func TestCSVFormatter_Breakdown(t *testing.T) {
	data, err := CSVFormatter{}.FormatBreakdown(buildCompoundBreakdown(), sssFamily())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"field", "value"}, records[0])
	assert.Equal(t, []string{"offset", "4000.00"}, records[3])
	assert.Equal(t, []string{"compoundTotal", "770.00"}, records[len(records)-1])
}

func TestConsoleFormatter(t *testing.T) {
	f := ConsoleFormatter{}

	data, err := f.FormatTable(buildTestTable(), taxFamily())
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "tax: TRAIN 2023 onwards")
	assert.Contains(t, out, "Effective 2023-01-01")
	assert.Contains(t, out, "0 - 249999.99")
	assert.Contains(t, out, "15%")

	data, err = f.FormatBreakdown(buildCompoundBreakdown(), sssFamily())
	require.NoError(t, err)
	out = string(data)
	assert.Contains(t, out, "sss breakdown")
	assert.Contains(t, out, "Regular SS (Employer)")
	assert.Contains(t, out, "770.00")

	data, err = f.FormatDates([]domain.SelectableDate{{Key: "2018-01-01", Label: "TRAIN 2018"}})
	require.NoError(t, err)
	assert.Contains(t, string(data), "TRAIN 2018")
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "1234.50", FormatAmount(dec("1234.5")))
	assert.Equal(t, "12.5%", FormatRate(dec("12.5")))
}
