package services

import "github.com/shopspring/decimal"

// FeeSplit is the processor's deduction from a charge. Informational only:
// the payer is always charged the gross amount.
type FeeSplit struct {
	Total decimal.Decimal
	Net   decimal.Decimal
}

// ComputeSplit applies total = fixed + amount*percent, net = amount - total.
// Decimal arithmetic keeps net + total == amount exactly.
func ComputeSplit(amount, fixedFee, percentFee decimal.Decimal) FeeSplit {
	total := fixedFee.Add(amount.Mul(percentFee))
	return FeeSplit{Total: total, Net: amount.Sub(total)}
}
