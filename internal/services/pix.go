package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	qrcode "github.com/skip2/go-qrcode"

	"PIX-Group-Bot/config"
)

// Taxonomy the state machine branches on: unavailable is retryable and worth
// a "try again" to the payer, rejected is an operator configuration problem
// (bad gateway key) and must never be shown to the payer as their fault.
var (
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrGatewayRejected    = errors.New("payment gateway rejected request")
)

const chargeTTL = 30 * time.Minute

var gatewayClient = &http.Client{Timeout: 15 * time.Second}

// Charge is a created PIX charge as returned by the gateway. QRCodeBase64 is
// the gateway-rendered QR PNG; when absent the bot renders one locally.
type Charge struct {
	Reference    string
	PixCode      string
	QRCodeBase64 string
	ExpiresAt    int64
}

type chargeResponse struct {
	ID           string `json:"id"`
	QRCode       string `json:"qr_code"`
	QRCodeBase64 string `json:"qr_code_base64"`
	ExpiresAt    int64  `json:"expires_at"`
}

// CreatePixCharge asks the gateway for a PIX charge. Amount travels in
// centavos; the gateway calls our webhook back on status changes.
func CreatePixCharge(apiKey string, amount decimal.Decimal, externalRef string) (Charge, error) {
	body := map[string]interface{}{
		"value":              amount.Mul(decimal.NewFromInt(100)).IntPart(),
		"external_reference": externalRef,
		"webhook_url":        config.AppCfg.PublicBaseURL + "/webhooks/pushinpay",
	}
	jsonBody, _ := json.Marshal(body)
	req, err := http.NewRequest("POST", config.AppCfg.GatewayAPIURL+"/pix/cashIn", bytes.NewBuffer(jsonBody))
	if err != nil {
		return Charge{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := gatewayClient.Do(req)
	if err != nil {
		return Charge{}, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode >= 500:
		return Charge{}, fmt.Errorf("%w: status %d", ErrGatewayUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return Charge{}, fmt.Errorf("%w: status %d", ErrGatewayRejected, resp.StatusCode)
	}

	var cr chargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return Charge{}, fmt.Errorf("%w: bad response body: %v", ErrGatewayUnavailable, err)
	}
	if cr.ID == "" || cr.QRCode == "" {
		return Charge{}, fmt.Errorf("%w: incomplete charge in response", ErrGatewayUnavailable)
	}
	charge := Charge{
		Reference:    cr.ID,
		PixCode:      cr.QRCode,
		QRCodeBase64: cr.QRCodeBase64,
		ExpiresAt:    cr.ExpiresAt,
	}
	if charge.ExpiresAt == 0 {
		charge.ExpiresAt = time.Now().Add(chargeTTL).Unix()
	}
	return charge, nil
}

// ValidateGatewayKey makes a lightweight authenticated call so a broken key is
// refused before it is persisted on a bot.
func ValidateGatewayKey(apiKey string) error {
	req, err := http.NewRequest("GET", config.AppCfg.GatewayAPIURL+"/balance", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)
	resp, err := gatewayClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", ErrGatewayUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return fmt.Errorf("%w: status %d", ErrGatewayRejected, resp.StatusCode)
	}
	return nil
}

// QRImage renders the PIX copy-paste code as a PNG for chats where the
// gateway returned no image of its own.
func QRImage(pixCode string) ([]byte, error) {
	return qrcode.Encode(pixCode, qrcode.Medium, 512)
}
