package output

import (
	"encoding/json"

	"github.com/rgehrsitz/ratebook/internal/domain"
	"github.com/shopspring/decimal"
)

// The document types below are the JSON shapes shared by the HTTP API and
// the json formatter. Money is a JSON number with two decimals.

func amountNumber(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

func plainNumber(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// BracketDocument is the JSON form of a bracket. RangeEnd is null when the
// bracket is open-ended.
type BracketDocument struct {
	RangeStart     json.Number            `json:"rangeStart"`
	RangeEnd       *json.Number           `json:"rangeEnd"`
	FixedAmount    json.Number            `json:"fixedAmount"`
	PercentageRate json.Number            `json:"percentageRate"`
	Parts          map[string]json.Number `json:"parts,omitempty"`
	RangeLabel     string                 `json:"rangeLabel,omitempty"`
}

// NewBracketDocument converts a bracket
func NewBracketDocument(b domain.Bracket) BracketDocument {
	doc := BracketDocument{
		RangeStart:     plainNumber(b.RangeStart),
		FixedAmount:    amountNumber(b.FixedAmount),
		PercentageRate: plainNumber(b.PercentageRate),
		RangeLabel:     b.RangeLabel,
	}
	if b.RangeEnd != nil {
		end := plainNumber(*b.RangeEnd)
		doc.RangeEnd = &end
	}
	if len(b.Parts) > 0 {
		doc.Parts = make(map[string]json.Number, len(b.Parts))
		for k, p := range b.Parts {
			doc.Parts[k] = amountNumber(p)
		}
	}
	return doc
}

// PartDocument is one compound line item
type PartDocument struct {
	Key    string      `json:"key"`
	Label  string      `json:"label"`
	Amount json.Number `json:"amount"`
}

// BreakdownDocument flattens a breakdown with family-specific field names:
// taxOffset, taxFix, taxByPercentage and taxTotal for a "tax" prefix, or
// offset, fix, byPercentage and total without one. Compound families add
// parts and compoundTotal.
func BreakdownDocument(family domain.RuleFamily, res *domain.BreakdownResult) map[string]any {
	doc := map[string]any{
		"bracket":        NewBracketDocument(res.Bracket),
		"effectiveStart": res.EffectiveStart.String(),
		family.FieldName(domain.FieldOffset):       amountNumber(res.Offset),
		family.FieldName(domain.FieldFix):          amountNumber(res.Bracket.FixedAmount),
		family.FieldName(domain.FieldByPercentage): amountNumber(res.MarginalAmount),
		family.FieldName(domain.FieldTotal):        amountNumber(res.TotalAmount),
	}
	if res.CompoundTotal != nil {
		parts := make([]PartDocument, 0, len(res.Parts))
		for _, p := range res.Parts {
			parts = append(parts, PartDocument{Key: p.Key, Label: p.Label, Amount: amountNumber(p.Amount)})
		}
		doc["parts"] = parts
		doc["compoundTotal"] = amountNumber(*res.CompoundTotal)
	}
	return doc
}

// TableDocument is the JSON form of a labelled rule table
type TableDocument struct {
	Family         string            `json:"family"`
	EffectiveStart string            `json:"effectiveStart"`
	Label          string            `json:"label"`
	Brackets       []BracketDocument `json:"brackets"`
}

// NewTableDocument converts a rule table, keeping bracket order
func NewTableDocument(t *domain.RuleTable) TableDocument {
	doc := TableDocument{
		Family:         t.Family,
		EffectiveStart: t.EffectiveStart.String(),
		Label:          t.Label,
		Brackets:       make([]BracketDocument, 0, len(t.Brackets)),
	}
	for _, b := range t.Brackets {
		doc.Brackets = append(doc.Brackets, NewBracketDocument(b))
	}
	return doc
}
