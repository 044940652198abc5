package domain

import (
	"strings"
	"unicode"
)

// PartDef names one compound sub-component of a rule family, e.g. the
// employee share of a social-insurance contribution
type PartDef struct {
	Key   string `mapstructure:"key" yaml:"key" json:"key"`
	Label string `mapstructure:"label" yaml:"label" json:"label"`
}

// RuleFamily configures one instance of the bracket engine. The tax and the
// social-insurance schedules differ only in field naming and compound parts.
type RuleFamily struct {
	Name        string    `mapstructure:"name" yaml:"name" json:"name"`
	Description string    `mapstructure:"description" yaml:"description" json:"description"`
	FieldPrefix string    `mapstructure:"field_prefix" yaml:"field_prefix" json:"field_prefix"`
	Parts       []PartDef `mapstructure:"parts" yaml:"parts" json:"parts"`
}

// Field names used when a breakdown is flattened for API consumers
const (
	FieldOffset       = "Offset"
	FieldFix          = "Fix"
	FieldByPercentage = "ByPercentage"
	FieldTotal        = "Total"
)

// FieldName returns the family-specific name of a breakdown field.
// With prefix "tax", "Offset" becomes "taxOffset"; without a prefix it
// becomes "offset".
func (f RuleFamily) FieldName(base string) string {
	if f.FieldPrefix != "" {
		return f.FieldPrefix + base
	}
	if base == "" {
		return base
	}
	r := []rune(base)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// HasParts reports whether the family defines compound sub-components
func (f RuleFamily) HasParts() bool {
	return len(f.Parts) > 0
}

// Built-in family names
const (
	FamilyTax = "tax"
	FamilySSS = "sss"
)

// DefaultFamilies returns the built-in tax and social-insurance families
func DefaultFamilies() []RuleFamily {
	return []RuleFamily{
		{
			Name:        FamilyTax,
			Description: "Withholding tax on compensation",
			FieldPrefix: "tax",
		},
		{
			Name:        FamilySSS,
			Description: "Social Security System contributions",
			Parts: []PartDef{
				{Key: "regular_ee", Label: "Regular SS (Employee)"},
				{Key: "regular_er", Label: "Regular SS (Employer)"},
				{Key: "mpf_ee", Label: "MPF (Employee)"},
				{Key: "mpf_er", Label: "MPF (Employer)"},
				{Key: "ec_er", Label: "EC (Employer)"},
			},
		},
	}
}

// FindFamily looks up a family by case-insensitive name
func FindFamily(families []RuleFamily, name string) (RuleFamily, bool) {
	for _, f := range families {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return RuleFamily{}, false
}
