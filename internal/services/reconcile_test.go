package services

import "testing"

func TestNormalizeGatewayStatus(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"paid", statusPaid},
		{"PAID", statusPaid},
		{" approved ", statusPaid},
		{"confirmed", statusPaid},
		{"succeeded", statusPaid},
		{"failed", statusFailed},
		{"refused", statusFailed},
		{"canceled", statusFailed},
		{"cancelled", statusFailed},
		{"chargeback", statusFailed},
		{"created", statusOther},
		{"pending", statusOther},
		{"", statusOther},
	}
	for _, tt := range tests {
		if got := normalizeGatewayStatus(tt.in); got != tt.want {
			t.Errorf("normalizeGatewayStatus(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
