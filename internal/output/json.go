package output

import (
	"encoding/json"
	"fmt"

	"github.com/rgehrsitz/ratebook/internal/domain"
)

// JSONFormatter writes indented JSON documents
type JSONFormatter struct{}

func (JSONFormatter) Name() string { return "json" }

func (JSONFormatter) FormatTable(table *domain.RuleTable, _ domain.RuleFamily) ([]byte, error) {
	if table == nil {
		return nil, fmt.Errorf("table cannot be nil")
	}
	return marshal(NewTableDocument(table))
}

func (JSONFormatter) FormatBreakdown(result *domain.BreakdownResult, family domain.RuleFamily) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("result cannot be nil")
	}
	return marshal(BreakdownDocument(family, result))
}

func (JSONFormatter) FormatDates(dates []domain.SelectableDate) ([]byte, error) {
	if dates == nil {
		dates = []domain.SelectableDate{}
	}
	return marshal(dates)
}

func marshal(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
