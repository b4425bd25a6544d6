package commission

import (
	discountdomain "github.com/dentalclinic/payouts/internal/discount/domain"
	"github.com/shopspring/decimal"
)

// Applied is the amount one rule took from a settlement.
type Applied struct {
	Rule   discountdomain.Discount
	Amount decimal.Decimal
}

type Aggregate struct {
	TotalDiscounts  decimal.Decimal
	TotalRetentions decimal.Decimal
	Applied         []Applied
}

// ApplyRules evaluates every rule against the same pre-discount total, so rule order
// never changes the totals. Percentage rules take total*value/100, fixed rules take
// value once per settlement. Deduction rules and inactive rules are skipped.
func ApplyRules(total decimal.Decimal, rules []discountdomain.Discount) Aggregate {
	agg := Aggregate{
		TotalDiscounts:  decimal.Zero,
		TotalRetentions: decimal.Zero,
	}

	for _, rule := range rules {
		if !rule.Active {
			continue
		}

		var amount decimal.Decimal
		switch rule.DiscountType {
		case discountdomain.TypePercentage:
			amount = total.Mul(rule.Value).Div(hundred)
		case discountdomain.TypeFixed:
			amount = rule.Value
		default:
			continue
		}

		switch rule.Category {
		case discountdomain.CategoryDiscount:
			agg.TotalDiscounts = agg.TotalDiscounts.Add(amount)
		case discountdomain.CategoryRetention:
			agg.TotalRetentions = agg.TotalRetentions.Add(amount)
		default:
			continue
		}
		agg.Applied = append(agg.Applied, Applied{Rule: rule, Amount: amount})
	}

	return agg
}
