package domain

import (
	"github.com/shopspring/decimal"
)

// Bracket represents a contiguous numeric range within a rule-set with its
// own fixed amount and marginal rate
type Bracket struct {
	RangeStart     decimal.Decimal            `yaml:"rangeStart" json:"rangeStart"`
	RangeEnd       *decimal.Decimal           `yaml:"rangeEnd,omitempty" json:"rangeEnd,omitempty"` // nil = open-ended
	FixedAmount    decimal.Decimal            `yaml:"fixedAmount" json:"fixedAmount"`
	PercentageRate decimal.Decimal            `yaml:"percentageRate" json:"percentageRate"` // percent, 20 means 20%
	Parts          map[string]decimal.Decimal `yaml:"parts,omitempty" json:"parts,omitempty"`

	// RangeLabel is computed on materialization and never stored
	RangeLabel string `yaml:"-" json:"rangeLabel,omitempty"`
}

// IsOpenEnded reports whether the bracket has no upper bound
func (b Bracket) IsOpenEnded() bool {
	return b.RangeEnd == nil
}

// Contains reports whether value falls inside [RangeStart, RangeEnd)
func (b Bracket) Contains(value decimal.Decimal) bool {
	if value.LessThan(b.RangeStart) {
		return false
	}
	return b.RangeEnd == nil || value.LessThan(*b.RangeEnd)
}

// RuleSet is a dated collection of brackets defining a tax or contribution
// schedule effective from EffectiveStart
type RuleSet struct {
	EffectiveStart Date      `yaml:"effectiveStart" json:"effectiveStart"`
	Label          string    `yaml:"label" json:"label"`
	Brackets       []Bracket `yaml:"brackets" json:"brackets"`
}

// BreakdownResult is the computed monetary breakdown for one input value
type BreakdownResult struct {
	Family         string          `json:"family"`
	EffectiveStart Date            `json:"effectiveStart"`
	Bracket        Bracket         `json:"bracket"`
	Offset         decimal.Decimal `json:"offset"`
	MarginalAmount decimal.Decimal `json:"marginalAmount"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`

	// Parts and CompoundTotal are only set for families with compound parts
	Parts         []PartAmount     `json:"parts,omitempty"`
	CompoundTotal *decimal.Decimal `json:"compoundTotal,omitempty"`
}

// PartAmount is one rounded line item of a compound breakdown
type PartAmount struct {
	Key    string          `json:"key"`
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// SelectableDate is one entry of a date picker
type SelectableDate struct {
	Key   string `yaml:"key" json:"key"`
	Label string `yaml:"label" json:"label"`
}

// RuleTable is a resolved rule-set with its brackets sorted and labelled
type RuleTable struct {
	Family         string    `json:"family"`
	EffectiveStart Date      `json:"effectiveStart"`
	Label          string    `json:"label"`
	Brackets       []Bracket `json:"brackets"`
}
