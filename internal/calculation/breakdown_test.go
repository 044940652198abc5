package calculation

import (
	"testing"

	"github.com/rgehrsitz/ratebook/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeBreakdown(t *testing.T) {
	tests := []struct {
		name         string
		bracket      domain.Bracket
		value        string
		wantOffset   string
		wantMarginal string
		wantTotal    string
	}{
		{
			name:         "simple marginal",
			bracket:      bracket("0", "", "0", "20"),
			value:        "1000",
			wantOffset:   "1000",
			wantMarginal: "200.00",
			wantTotal:    "200.00",
		},
		{
			name:         "half-up rounding on each step",
			bracket:      bracket("0", "", "10.005", "15"),
			value:        "333.33",
			wantOffset:   "333.33",
			wantMarginal: "50.00",
			wantTotal:    "60.01",
		},
		{
			name:         "TRAIN 2023 third bracket",
			bracket:      bracket("400000", "800000", "22500", "20"),
			value:        "500000",
			wantOffset:   "100000",
			wantMarginal: "20000",
			wantTotal:    "42500",
		},
		{
			name:         "value below floor gives zero offset",
			bracket:      bracket("100", "200", "5", "10"),
			value:        "50",
			wantOffset:   "0",
			wantMarginal: "0",
			wantTotal:    "5",
		},
		{
			name:         "fixed amount only",
			bracket:      bracket("5250", "5750", "835", "0"),
			value:        "5500",
			wantOffset:   "250",
			wantMarginal: "0",
			wantTotal:    "835",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeBreakdown(tt.bracket, dec(tt.value))
			assert.True(t, got.Offset.Equal(dec(tt.wantOffset)), "offset %s", got.Offset)
			assert.True(t, got.MarginalAmount.Equal(dec(tt.wantMarginal)), "marginal %s", got.MarginalAmount)
			assert.True(t, got.TotalAmount.Equal(dec(tt.wantTotal)), "total %s", got.TotalAmount)
			assert.Equal(t, tt.bracket.RangeStart, got.Bracket.RangeStart)
		})
	}
}

func TestComputeBreakdown_PartsSumToCompoundTotal(t *testing.T) {
	rs := train2023()
	for _, v := range []string{"0", "250001", "399999.99", "654321.09", "1999999", "9000000.55"} {
		value := dec(v)
		b, err := LocateBracket(rs, value)
		require.NoError(t, err)

		got := ComputeBreakdown(b, value)
		assert.True(t, got.Offset.Add(b.RangeStart).Equal(value), "offset + start == value for %s", v)
		want := Round2(got.MarginalAmount.Add(b.FixedAmount))
		assert.True(t, got.TotalAmount.Equal(want), "total for %s", v)
	}
}

func TestRound2(t *testing.T) {
	tests := []struct{ in, want string }{
		{"0.005", "0.01"},
		{"0.004", "0"},
		{"49.9995", "50"},
		{"60.005", "60.01"},
		{"100", "100"},
	}
	for _, tt := range tests {
		if got := Round2(dec(tt.in)); !got.Equal(dec(tt.want)) {
			t.Errorf("Round2(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestComputeCompoundTotal(t *testing.T) {
	assert.True(t, ComputeCompoundTotal(nil).IsZero())
	got := ComputeCompoundTotal([]decimal.Decimal{dec("250.00"), dec("510.00"), dec("10.00")})
	assert.True(t, got.Equal(dec("770")))
}

func TestComputeFamilyBreakdown_Parts(t *testing.T) {
	family := domain.RuleFamily{
		Name: domain.FamilySSS,
		Parts: []domain.PartDef{
			{Key: "ee", Label: "Employee"},
			{Key: "er", Label: "Employer"},
			{Key: "ec", Label: "EC"},
		},
	}
	b := bracket("5250", "5750", "0", "0")
	b.Parts = map[string]decimal.Decimal{
		"ee": dec("275.005"),
		"er": dec("550.004"),
	}

	got := ComputeFamilyBreakdown(family, b, dec("5500"))

	assert.Equal(t, domain.FamilySSS, got.Family)
	require.Len(t, got.Parts, 3)
	assert.Equal(t, "ee", got.Parts[0].Key)
	assert.Equal(t, "Employee", got.Parts[0].Label)
	assert.True(t, got.Parts[0].Amount.Equal(dec("275.01")))
	assert.True(t, got.Parts[1].Amount.Equal(dec("550.00")))
	assert.True(t, got.Parts[2].Amount.IsZero(), "missing part counts as zero")

	require.NotNil(t, got.CompoundTotal)
	sum := decimal.Zero
	for _, p := range got.Parts {
		sum = sum.Add(p.Amount)
	}
	assert.True(t, got.CompoundTotal.Equal(sum), "compound total %s equals displayed parts %s", got.CompoundTotal, sum)
	assert.True(t, got.CompoundTotal.Equal(dec("825.01")))
}

func TestComputeFamilyBreakdown_NoParts(t *testing.T) {
	family := domain.RuleFamily{Name: domain.FamilyTax, FieldPrefix: "tax"}
	got := ComputeFamilyBreakdown(family, bracket("0", "", "0", "20"), dec("1000"))

	assert.Equal(t, domain.FamilyTax, got.Family)
	assert.Nil(t, got.Parts)
	assert.Nil(t, got.CompoundTotal)
}
