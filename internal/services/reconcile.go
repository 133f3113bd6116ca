package services

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"PIX-Group-Bot/internal/db"
	"PIX-Group-Bot/internal/links"
	"PIX-Group-Bot/internal/logger"
	"PIX-Group-Bot/internal/registry"
)

// GatewayEvent is the body of a payment.status_changed webhook delivery.
type GatewayEvent struct {
	Event string `json:"event"`
	Data  struct {
		ID                string `json:"id"`
		Status            string `json:"status"`
		Amount            int64  `json:"amount"`
		ExternalReference string `json:"external_reference"`
	} `json:"data"`
}

const (
	statusPaid   = "paid"
	statusFailed = "failed"
	statusOther  = "other"
)

// normalizeGatewayStatus folds the gateway's status vocabulary into the three
// outcomes the reconciler acts on.
func normalizeGatewayStatus(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "paid", "approved", "confirmed", "succeeded":
		return statusPaid
	case "failed", "refused", "rejected", "canceled", "cancelled", "chargeback":
		return statusFailed
	default:
		return statusOther
	}
}

// ProcessGatewayEvent reconciles one status-change delivery against the
// payment it references. Unknown references are logged, never errors: the
// gateway may notify about charges this system did not create. Deliveries are
// also replayed and reordered at will, which the guarded status transitions
// absorb: the first terminal state wins, every later delivery is a no-op.
func ProcessGatewayEvent(ev GatewayEvent) {
	pay, err := db.FindPaymentByAnyRef(ev.Data.ID, ev.Data.ExternalReference)
	if err != nil {
		logger.Info("gateway event for untracked charge",
			zap.String("charge_ref", ev.Data.ID),
			zap.String("external_ref", ev.Data.ExternalReference),
			zap.String("status", ev.Data.Status))
		return
	}

	switch normalizeGatewayStatus(ev.Data.Status) {
	case statusPaid:
		approvePayment(pay)
	case statusFailed:
		failPayment(pay)
	default:
		logger.Info("ignoring gateway status",
			zap.String("charge_ref", pay.ChargeRef), zap.String("status", ev.Data.Status))
	}
}

func approvePayment(pay db.Payment) {
	now := time.Now().Unix()
	ok, err := db.MarkPaymentApproved(pay.ChargeRef, now)
	if err != nil {
		logger.Error("failed to approve payment",
			zap.String("charge_ref", pay.ChargeRef), zap.Uint("bot_id", pay.BotID), zap.Error(err))
		logger.NotifyOperator(fmt.Sprintf("Falha ao aprovar pagamento %s (bot %d): %v", pay.ChargeRef, pay.BotID, err))
		return
	}
	if !ok {
		// Already terminal. A "paid" arriving after the expiry sweep means
		// real money landed on a dead charge, so tell the payer to reach out.
		current, err := db.FindPaymentByChargeRef(pay.ChargeRef)
		if err == nil && current.Status == db.PaymentExpired {
			logger.Warn("paid callback for expired charge",
				zap.String("charge_ref", pay.ChargeRef), zap.Uint("bot_id", pay.BotID))
			notifyChat(pay.BotID, pay.ChatID, "Recebemos seu pagamento, mas a cobrança já havia expirado. Contate o suporte para liberar o acesso.")
			return
		}
		logger.Info("duplicate paid callback ignored",
			zap.String("charge_ref", pay.ChargeRef), zap.String("status", current.Status))
		return
	}

	var plan db.Plan
	if err := db.DB.First(&plan, pay.PlanID).Error; err != nil {
		logger.Error("approved payment references missing plan",
			zap.String("charge_ref", pay.ChargeRef), zap.Uint("plan_id", pay.PlanID), zap.Error(err))
		return
	}
	until := db.GrantExpiresAt(now, plan.PeriodDays)
	text := fmt.Sprintf("Pagamento confirmado! Seu acesso está liberado até %s.",
		time.Unix(until, 0).Format("02/01/2006"))
	if b, err := db.FindActiveBotByID(pay.BotID); err == nil {
		if link := links.GroupLink(b.GroupRef); link != "" {
			text += "\n\nEntre no grupo: " + link
		}
	}
	notifyChat(pay.BotID, pay.ChatID, text)
	if err := db.TransitionChatState(pay.BotID, pay.ChatID, db.StateIdle, nil); err != nil {
		logger.Warn("failed to reset chat state after approval",
			zap.Uint("bot_id", pay.BotID), zap.Int64("chat_id", pay.ChatID), zap.Error(err))
	}
	logger.Info("payment approved",
		zap.String("charge_ref", pay.ChargeRef), zap.Uint("bot_id", pay.BotID),
		zap.Int64("user_id", pay.TelegramUserID))
}

func failPayment(pay db.Payment) {
	ok, err := db.MarkPaymentFailed(pay.ChargeRef)
	if err != nil {
		logger.Error("failed to mark payment failed",
			zap.String("charge_ref", pay.ChargeRef), zap.Error(err))
		return
	}
	if !ok {
		logger.Info("failure callback for already-terminal payment",
			zap.String("charge_ref", pay.ChargeRef))
		return
	}
	notifyChat(pay.BotID, pay.ChatID, "Seu pagamento não foi concluído. Use /start para gerar uma nova cobrança.")
	if err := db.TransitionChatState(pay.BotID, pay.ChatID, db.StateAwaitingPlan, nil); err != nil {
		logger.Warn("failed to reset chat state after failure",
			zap.Uint("bot_id", pay.BotID), zap.Int64("chat_id", pay.ChatID), zap.Error(err))
	}
	logger.Info("payment failed",
		zap.String("charge_ref", pay.ChargeRef), zap.Uint("bot_id", pay.BotID))
}

func notifyChat(botID uint, chatID int64, text string) {
	b, err := db.FindActiveBotByID(botID)
	if err != nil {
		logger.Warn("cannot notify chat of inactive bot",
			zap.Uint("bot_id", botID), zap.Int64("chat_id", chatID))
		return
	}
	api, err := registry.API(b)
	if err != nil {
		logger.Error("failed to build bot client for notification",
			zap.Uint("bot_id", botID), zap.Error(err))
		return
	}
	if _, err := api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		logger.Warn("failed to notify chat",
			zap.Uint("bot_id", botID), zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
