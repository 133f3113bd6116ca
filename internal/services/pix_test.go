package services

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"PIX-Group-Bot/config"
)

func withGateway(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(handler)
	prev := config.AppCfg.GatewayAPIURL
	config.AppCfg.GatewayAPIURL = srv.URL
	t.Cleanup(func() {
		config.AppCfg.GatewayAPIURL = prev
		srv.Close()
	})
}

func TestCreatePixChargeMapsResponse(t *testing.T) {
	var gotBody map[string]interface{}
	withGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pix/cashIn" {
			t.Errorf("path = %s, want /pix/cashIn", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer key-123" {
			t.Errorf("Authorization = %q", auth)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":             "chg-1",
			"qr_code":        "00020126pixcopypaste",
			"qr_code_base64": "aVBORw==",
			"expires_at":     int64(1790000000),
		})
	})

	charge, err := CreatePixCharge("key-123", decimal.RequireFromString("9.90"), "ext-1")
	if err != nil {
		t.Fatalf("CreatePixCharge errored: %v", err)
	}
	if charge.Reference != "chg-1" {
		t.Errorf("Reference = %s, want chg-1", charge.Reference)
	}
	if charge.PixCode != "00020126pixcopypaste" {
		t.Errorf("PixCode = %s", charge.PixCode)
	}
	if charge.QRCodeBase64 != "aVBORw==" {
		t.Errorf("QRCodeBase64 = %q, want the gateway payload", charge.QRCodeBase64)
	}
	if charge.ExpiresAt != 1790000000 {
		t.Errorf("ExpiresAt = %d, want 1790000000", charge.ExpiresAt)
	}
	if v, ok := gotBody["value"].(float64); !ok || int64(v) != 990 {
		t.Errorf("request value = %v, want 990 centavos", gotBody["value"])
	}
}

func TestCreatePixChargeDefaultsExpiry(t *testing.T) {
	withGateway(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "chg-2",
			"qr_code": "00020126pixcopypaste",
		})
	})

	before := time.Now().Add(chargeTTL).Unix()
	charge, err := CreatePixCharge("key-123", decimal.RequireFromString("5.00"), "ext-2")
	if err != nil {
		t.Fatalf("CreatePixCharge errored: %v", err)
	}
	after := time.Now().Add(chargeTTL).Unix()
	if charge.ExpiresAt < before || charge.ExpiresAt > after {
		t.Errorf("ExpiresAt = %d, want within [%d, %d]", charge.ExpiresAt, before, after)
	}
	if charge.QRCodeBase64 != "" {
		t.Errorf("QRCodeBase64 = %q, want empty when the gateway sent none", charge.QRCodeBase64)
	}
}

func TestCreatePixChargeErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"server error is retryable", http.StatusInternalServerError, ErrGatewayUnavailable},
		{"bad key is rejected", http.StatusUnauthorized, ErrGatewayRejected},
		{"bad request is rejected", http.StatusUnprocessableEntity, ErrGatewayRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withGateway(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			_, err := CreatePixCharge("key-123", decimal.RequireFromString("9.90"), "ext-3")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreatePixChargeIncompleteResponse(t *testing.T) {
	withGateway(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "chg-4"})
	})
	_, err := CreatePixCharge("key-123", decimal.RequireFromString("9.90"), "ext-4")
	if !errors.Is(err, ErrGatewayUnavailable) {
		t.Errorf("err = %v, want %v for a charge without a PIX code", err, ErrGatewayUnavailable)
	}
}
