package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func TestCheckGatewaySignature(t *testing.T) {
	secret := "testsecret"
	body := []byte(`{"event":"payment.status_changed","data":{"id":"ch_1","status":"paid"}}`)

	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	calc := hex.EncodeToString(h.Sum(nil))

	tests := []struct {
		desc       string
		authHeader string
		sigHeader  string
		want       bool
	}{
		{"valid Authorization", "HMAC " + calc, "", true},
		{"valid Authorization SHA256", "HMAC-SHA256 " + calc, "", true},
		{"valid signature header", "", calc, true},
		{"wrong signature", "HMAC wrong", "", false},
		{"wrong signature header", "", "wrong", false},
		{"both empty", "", "", false},
	}

	for _, tt := range tests {
		if got := checkGatewaySignature(secret, body, tt.authHeader, tt.sigHeader); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.desc, got, tt.want)
		}
	}
}
