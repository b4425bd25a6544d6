package commission

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	discountdomain "github.com/dentalclinic/payouts/internal/discount/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func TestCalculateAppliesInsuranceThenRate(t *testing.T) {
	res := Calculate(Input{
		AmountCharged:               dec("100"),
		InsuranceDiscountPercentage: dec("20"),
		CommissionPercentage:        decimal.NewNullDecimal(dec("30")),
		ServiceCommissionPercentage: dec("50"),
	})
	assertDecimal(t, "24", res.Amount)
	assertDecimal(t, "80", res.NetBase)
	assertDecimal(t, "30", res.Rate)
}

func TestCalculateFallsBackToServiceRate(t *testing.T) {
	res := Calculate(Input{
		AmountCharged:               dec("200"),
		InsuranceDiscountPercentage: decimal.Zero,
		ServiceCommissionPercentage: dec("40"),
	})
	assertDecimal(t, "80", res.Amount)
	assertDecimal(t, "40", res.Rate)
}

func TestCalculateZeroOverrideIsHonoured(t *testing.T) {
	res := Calculate(Input{
		AmountCharged:               dec("150"),
		CommissionPercentage:        decimal.NewNullDecimal(decimal.Zero),
		ServiceCommissionPercentage: dec("40"),
	})
	assert.True(t, res.Amount.IsZero())
}

func TestCalculateKeepsFullPrecision(t *testing.T) {
	res := Calculate(Input{
		AmountCharged:               dec("33.33"),
		InsuranceDiscountPercentage: dec("12.5"),
		ServiceCommissionPercentage: dec("33.33"),
	})
	// 33.33 * 0.875 * 0.3333 = 9.720277875
	assertDecimal(t, "9.720277875", res.Amount)
}

func TestCalculateFullInsuranceCoverage(t *testing.T) {
	res := Calculate(Input{
		AmountCharged:               dec("500"),
		InsuranceDiscountPercentage: dec("100"),
		ServiceCommissionPercentage: dec("30"),
	})
	assert.True(t, res.Amount.IsZero())
}

func rule(id int64, category discountdomain.Category, typ discountdomain.Type, value string) discountdomain.Discount {
	return discountdomain.Discount{
		ID:           snowflakeID(id),
		Name:         string(category),
		Category:     category,
		DiscountType: typ,
		Value:        dec(value),
		Active:       true,
	}
}

func TestApplyRulesScenario(t *testing.T) {
	agg := ApplyRules(dec("500"), []discountdomain.Discount{
		rule(1, discountdomain.CategoryDiscount, discountdomain.TypePercentage, "10"),
		rule(2, discountdomain.CategoryRetention, discountdomain.TypeFixed, "20"),
	})

	assertDecimal(t, "50", agg.TotalDiscounts)
	assertDecimal(t, "20", agg.TotalRetentions)
	require.Len(t, agg.Applied, 2)
	assertDecimal(t, "430", dec("500").Sub(agg.TotalDiscounts).Sub(agg.TotalRetentions))
}

func TestApplyRulesDeductionIsInert(t *testing.T) {
	agg := ApplyRules(dec("500"), []discountdomain.Discount{
		rule(1, discountdomain.CategoryDeduction, discountdomain.TypePercentage, "50"),
		rule(2, discountdomain.CategoryDeduction, discountdomain.TypeFixed, "100"),
	})

	assert.True(t, agg.TotalDiscounts.IsZero())
	assert.True(t, agg.TotalRetentions.IsZero())
	assert.Empty(t, agg.Applied)
}

func TestApplyRulesOrderIndependent(t *testing.T) {
	rules := []discountdomain.Discount{
		rule(1, discountdomain.CategoryDiscount, discountdomain.TypePercentage, "10"),
		rule(2, discountdomain.CategoryDiscount, discountdomain.TypePercentage, "15"),
		rule(3, discountdomain.CategoryRetention, discountdomain.TypeFixed, "20"),
		rule(4, discountdomain.CategoryRetention, discountdomain.TypePercentage, "3.5"),
	}
	reversed := make([]discountdomain.Discount, len(rules))
	for i, r := range rules {
		reversed[len(rules)-1-i] = r
	}

	a := ApplyRules(dec("812.40"), rules)
	b := ApplyRules(dec("812.40"), reversed)

	assert.True(t, a.TotalDiscounts.Equal(b.TotalDiscounts))
	assert.True(t, a.TotalRetentions.Equal(b.TotalRetentions))
	// 10% and 15% of the same base, not compounded
	assertDecimal(t, "203.1", a.TotalDiscounts)
}

func TestApplyRulesFixedRuleAppliesOnceOnZeroTotal(t *testing.T) {
	agg := ApplyRules(decimal.Zero, []discountdomain.Discount{
		rule(1, discountdomain.CategoryRetention, discountdomain.TypeFixed, "20"),
		rule(2, discountdomain.CategoryDiscount, discountdomain.TypePercentage, "10"),
	})
	assertDecimal(t, "20", agg.TotalRetentions)
	assert.True(t, agg.TotalDiscounts.IsZero())
	assert.Len(t, agg.Applied, 2)
}

func TestApplyRulesSkipsInactive(t *testing.T) {
	inactive := rule(1, discountdomain.CategoryDiscount, discountdomain.TypePercentage, "10")
	inactive.Active = false
	agg := ApplyRules(dec("100"), []discountdomain.Discount{inactive})
	assert.True(t, agg.TotalDiscounts.IsZero())
	assert.Empty(t, agg.Applied)
}

func snowflakeID(v int64) snowflake.ID { return snowflake.ID(v) }
