package services

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestComputeSplit(t *testing.T) {
	amount := decimal.RequireFromString("9.90")
	fixed := decimal.RequireFromString("1.48")
	pct := decimal.RequireFromString("0.05")

	split := ComputeSplit(amount, fixed, pct)
	if !split.Total.Equal(decimal.RequireFromString("1.975")) {
		t.Errorf("total fee = %s, want 1.975", split.Total)
	}
	if !split.Net.Equal(decimal.RequireFromString("7.925")) {
		t.Errorf("net = %s, want 7.925", split.Net)
	}
}

func TestComputeSplitNoPennyDrift(t *testing.T) {
	fixed := decimal.RequireFromString("1.48")
	pct := decimal.RequireFromString("0.05")
	for _, raw := range []string{"1.48", "5.00", "9.90", "10.01", "19.99", "123.45", "9999.99"} {
		amount := decimal.RequireFromString(raw)
		split := ComputeSplit(amount, fixed, pct)
		if !split.Net.Add(split.Total).Equal(amount) {
			t.Errorf("amount %s: net %s + total %s != amount", raw, split.Net, split.Total)
		}
	}
}
