// Package commission holds the pure settlement math: per-attention commission and
// the aggregation of clinic-wide discount and retention rules. Nothing here rounds;
// callers round once when persisting.
package commission

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Input is the subset of an attention the calculator needs.
type Input struct {
	AmountCharged               decimal.Decimal
	InsuranceDiscountPercentage decimal.Decimal
	// CommissionPercentage overrides ServiceCommissionPercentage when valid.
	CommissionPercentage        decimal.NullDecimal
	ServiceCommissionPercentage decimal.Decimal
}

// Result carries the effective rate alongside the amount so line items can record both.
type Result struct {
	Rate    decimal.Decimal
	NetBase decimal.Decimal
	Amount  decimal.Decimal
}

// EffectiveRate picks the attention override or falls back to the service default.
func EffectiveRate(in Input) decimal.Decimal {
	if in.CommissionPercentage.Valid {
		return in.CommissionPercentage.Decimal
	}
	return in.ServiceCommissionPercentage
}

// Calculate returns amount_charged * (1 - insurance%/100) * rate/100 at full precision.
func Calculate(in Input) Result {
	rate := EffectiveRate(in)
	netBase := in.AmountCharged.Mul(hundred.Sub(in.InsuranceDiscountPercentage)).Div(hundred)
	return Result{
		Rate:    rate,
		NetBase: netBase,
		Amount:  netBase.Mul(rate).Div(hundred),
	}
}
