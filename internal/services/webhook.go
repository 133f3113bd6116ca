package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"PIX-Group-Bot/config"
	"PIX-Group-Bot/internal/logger"
)

// checkGatewaySignature verifies the HMAC-SHA256 signature of the webhook
// body against either the Authorization or the X-Webhook-Signature header.
func checkGatewaySignature(secret string, body []byte, authHeader, sigHeader string) bool {
	var signatures []string
	if authHeader != "" {
		if strings.HasPrefix(authHeader, "HMAC ") || strings.HasPrefix(authHeader, "HMAC-SHA256 ") {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 {
				signatures = append(signatures, parts[1])
			}
		}
	}
	if sigHeader != "" {
		signatures = append(signatures, sigHeader)
	}
	if len(signatures) == 0 {
		return false
	}
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	calc := hex.EncodeToString(h.Sum(nil))
	for _, sig := range signatures {
		if hmac.Equal([]byte(sig), []byte(calc)) {
			return true
		}
	}
	return false
}

// GatewayWebhookHandler receives payment.status_changed events. It must answer
// 200 promptly; reconciliation faults are absorbed here and logged with
// enough context for manual follow-up.
func GatewayWebhookHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer logger.RecoverAndNotify("gateway webhook")
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		r.Body.Close()

		if secret := config.AppCfg.GatewayWebhookSecret; secret != "" {
			if !checkGatewaySignature(secret, body, r.Header.Get("Authorization"), r.Header.Get("X-Webhook-Signature")) {
				logger.Warn("gateway webhook with invalid signature")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte("invalid signature"))
				return
			}
		}

		var ev GatewayEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			logger.Warn("malformed gateway webhook body", zap.Error(err))
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		ProcessGatewayEvent(ev)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	}
}
