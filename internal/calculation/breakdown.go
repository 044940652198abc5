package calculation

import (
	"github.com/rgehrsitz/ratebook/internal/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Round2 rounds half-up to two decimal places. decimal.Round rounds half away
// from zero, which is half-up for the non-negative amounts computed here.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ComputeBreakdown applies the bracket's marginal rate to the excess above its
// floor and adds the fixed amount. Each derived field is rounded once; the
// total is rounded from the already-rounded marginal amount.
func ComputeBreakdown(bracket domain.Bracket, value decimal.Decimal) domain.BreakdownResult {
	offset := value.Sub(bracket.RangeStart)
	if offset.IsNegative() {
		offset = decimal.Zero
	}

	marginal := Round2(offset.Mul(bracket.PercentageRate).Div(hundred))
	total := Round2(marginal.Add(bracket.FixedAmount))

	return domain.BreakdownResult{
		Bracket:        bracket,
		Offset:         offset,
		MarginalAmount: marginal,
		TotalAmount:    total,
	}
}

// ComputeCompoundTotal sums already-rounded parts. It never re-derives from
// raw fractions so a displayed subtotal always equals its displayed items.
func ComputeCompoundTotal(parts []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, p := range parts {
		total = total.Add(p)
	}
	return total
}

// ComputeFamilyBreakdown computes the breakdown and, for families with
// compound parts, the rounded line items in family order plus their total.
// A part missing from the bracket counts as zero.
func ComputeFamilyBreakdown(family domain.RuleFamily, bracket domain.Bracket, value decimal.Decimal) domain.BreakdownResult {
	result := ComputeBreakdown(bracket, value)
	result.Family = family.Name

	if !family.HasParts() {
		return result
	}

	amounts := make([]decimal.Decimal, 0, len(family.Parts))
	result.Parts = make([]domain.PartAmount, 0, len(family.Parts))
	for _, def := range family.Parts {
		amount := Round2(bracket.Parts[def.Key])
		amounts = append(amounts, amount)
		result.Parts = append(result.Parts, domain.PartAmount{Key: def.Key, Label: def.Label, Amount: amount})
	}
	compound := ComputeCompoundTotal(amounts)
	result.CompoundTotal = &compound

	return result
}
