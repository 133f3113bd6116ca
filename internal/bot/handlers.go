package bot

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"PIX-Group-Bot/config"
	"PIX-Group-Bot/internal/db"
	"PIX-Group-Bot/internal/logger"
	"PIX-Group-Bot/internal/services"
)

var rateLimiter = NewRateLimiter()

// HandleUpdate drives the conversation state machine for one classified
// update: start → show plans → create PIX charge → await payment.
func HandleUpdate(b db.Bot, api *tgbotapi.BotAPI, update tgbotapi.Update) {
	ev := Classify(update)
	if ev.Type == EventUnhandled {
		logger.Info("unhandled update",
			zap.Uint("bot_id", b.ID), zap.Int("update_id", update.UpdateID))
		return
	}
	if rateLimiter.IsLimited(b.ID, ev.UserID, ev.Type) {
		api.Send(tgbotapi.NewMessage(ev.ChatID, "Calma! Aguarde alguns segundos e tente de novo."))
		return
	}
	switch ev.Type {
	case EventStart:
		handleStart(b, api, ev)
	case EventSelectPlan:
		handleSelectPlan(b, api, ev)
	case EventActivateGroup:
		handleActivateGroup(b, api, ev)
	}
}

func handleStart(b db.Bot, api *tgbotapi.BotAPI, ev Event) {
	// Buyers with a live grant see when it lapses; plans still follow so they
	// can renew early (renewals extend, they never stack).
	if pay, plan, err := db.ActiveGrant(b.ID, ev.UserID, time.Now().Unix()); err == nil {
		until := db.GrantExpiresAt(*pay.PaidAt, plan.PeriodDays)
		api.Send(tgbotapi.NewMessage(ev.ChatID,
			fmt.Sprintf("Seu acesso está ativo até %s.", time.Unix(until, 0).Format("02/01/2006"))))
	}

	welcome := b.WelcomeMessage
	if welcome == "" {
		welcome = "Bem-vindo! Escolha um plano para liberar seu acesso ao grupo:"
	}
	plans := db.GetActivePlans(b.ID)

	if b.WelcomeMediaURL != "" {
		sendWelcomeMedia(api, ev.ChatID, b.WelcomeMediaURL, welcome, plans)
	} else {
		msg := tgbotapi.NewMessage(ev.ChatID, welcome)
		if len(plans) > 0 {
			msg.ReplyMarkup = BuildPlanKeyboard(plans)
		}
		api.Send(msg)
	}
	if len(plans) == 0 {
		api.Send(tgbotapi.NewMessage(ev.ChatID, "No momento não há planos disponíveis. Tente novamente mais tarde."))
		setChatState(b.ID, ev.ChatID, db.StateIdle, nil)
		return
	}
	setChatState(b.ID, ev.ChatID, db.StateAwaitingPlan, nil)
}

// sendWelcomeMedia picks sendPhoto or sendVideo by the media extension and
// carries the welcome text as the caption.
func sendWelcomeMedia(api *tgbotapi.BotAPI, chatID int64, mediaURL, caption string, plans []db.Plan) {
	lower := strings.ToLower(mediaURL)
	if strings.HasSuffix(lower, ".mp4") || strings.HasSuffix(lower, ".mov") || strings.HasSuffix(lower, ".webm") {
		video := tgbotapi.NewVideo(chatID, tgbotapi.FileURL(mediaURL))
		video.Caption = caption
		if len(plans) > 0 {
			video.ReplyMarkup = BuildPlanKeyboard(plans)
		}
		if _, err := api.Send(video); err == nil {
			return
		}
	} else {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(mediaURL))
		photo.Caption = caption
		if len(plans) > 0 {
			photo.ReplyMarkup = BuildPlanKeyboard(plans)
		}
		if _, err := api.Send(photo); err == nil {
			return
		}
	}
	// Media fetch failures must not eat the welcome.
	msg := tgbotapi.NewMessage(chatID, caption)
	if len(plans) > 0 {
		msg.ReplyMarkup = BuildPlanKeyboard(plans)
	}
	api.Send(msg)
}

func handleSelectPlan(b db.Bot, api *tgbotapi.BotAPI, ev Event) {
	plan, err := db.FindActivePlan(b.ID, ev.PlanID)
	if err != nil {
		answerCallback(api, ev.CallbackID, "Plano indisponível")
		api.Send(tgbotapi.NewMessage(ev.ChatID, "Esse plano não está mais disponível. Use /start para ver os planos atuais."))
		return
	}
	now := time.Now().Unix()

	// A chat already awaiting payment for this plan (second tap, redelivered
	// update) gets the open PIX code resent instead of a second charge.
	if cs, err := db.GetChatState(b.ID, ev.ChatID); err == nil && cs.State == db.StateAwaitingPayment {
		if pending, err := db.FindReusablePendingPayment(b.ID, ev.ChatID, plan.ID, now); err == nil {
			answerCallback(api, ev.CallbackID, "Cobrança já gerada")
			sendPixCharge(api, ev.ChatID, plan, pending)
			return
		}
	}

	externalRef := uuid.New().String()
	charge, err := services.CreatePixCharge(b.GatewayAPIKey, plan.Price, externalRef)
	if err != nil {
		answerCallback(api, ev.CallbackID, "Falha ao gerar cobrança")
		switch {
		case errors.Is(err, services.ErrGatewayRejected):
			// Operator misconfiguration, not the payer's problem.
			logger.Error("gateway rejected charge creation",
				zap.Uint("bot_id", b.ID), zap.Uint("plan_id", plan.ID), zap.Error(err))
			logger.NotifyOperator(fmt.Sprintf("Gateway rejeitou cobrança do bot %d (%s): chave de API inválida?", b.ID, b.Username))
			api.Send(tgbotapi.NewMessage(ev.ChatID, "Pagamentos estão temporariamente indisponíveis neste bot. Contate o suporte."))
		default:
			logger.Warn("gateway unavailable",
				zap.Uint("bot_id", b.ID), zap.Uint("plan_id", plan.ID), zap.Error(err))
			api.Send(tgbotapi.NewMessage(ev.ChatID, "Não foi possível gerar o PIX agora. Tente novamente em instantes."))
		}
		// Stay in plan selection so the next tap retries.
		setChatState(b.ID, ev.ChatID, db.StateAwaitingPlan, nil)
		return
	}

	split := services.ComputeSplit(plan.Price, config.AppCfg.GatewayFixedFee, config.AppCfg.GatewayPercentFee)
	pay := db.Payment{
		BotID:          b.ID,
		PlanID:         plan.ID,
		TelegramUserID: ev.UserID,
		ChatID:         ev.ChatID,
		Amount:         plan.Price,
		FeeTotal:       split.Total,
		NetAmount:      split.Net,
		Status:         db.PaymentPending,
		ChargeRef:      charge.Reference,
		ExternalRef:    externalRef,
		PixCode:        charge.PixCode,
		QRCodeBase64:   charge.QRCodeBase64,
		CreatedAt:      now,
		ExpiresAt:      charge.ExpiresAt,
	}
	if err := db.CreatePayment(&pay); err != nil {
		logger.Error("failed to persist payment",
			zap.Uint("bot_id", b.ID), zap.String("charge_ref", charge.Reference), zap.Error(err))
		api.Send(tgbotapi.NewMessage(ev.ChatID, "Algo deu errado ao registrar a cobrança. Tente novamente."))
		return
	}

	answerCallback(api, ev.CallbackID, "Cobrança PIX gerada")
	sendPixCharge(api, ev.ChatID, plan, pay)
	setChatState(b.ID, ev.ChatID, db.StateAwaitingPayment, &plan.ID)
}

func sendPixCharge(api *tgbotapi.BotAPI, chatID int64, plan db.Plan, pay db.Payment) {
	text := fmt.Sprintf(
		"Pague R$ %s via PIX para liberar %d dias de acesso.\n\nCopia e cola:\n%s\n\nA cobrança expira em %s.",
		pay.Amount.StringFixed(2), plan.PeriodDays, pay.PixCode,
		time.Unix(pay.ExpiresAt, 0).Format("02/01/2006 15:04"))
	api.Send(tgbotapi.NewMessage(chatID, text))

	// Prefer the gateway-rendered QR; fall back to a local render when the
	// gateway sent none or the payload is mangled.
	if pay.QRCodeBase64 != "" {
		if png, err := base64.StdEncoding.DecodeString(pay.QRCodeBase64); err == nil {
			api.Send(tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "pix.png", Bytes: png}))
			return
		}
		logger.Warn("gateway QR payload is not valid base64", zap.String("charge_ref", pay.ChargeRef))
	}
	png, err := services.QRImage(pay.PixCode)
	if err != nil {
		logger.Warn("failed to render PIX QR", zap.String("charge_ref", pay.ChargeRef), zap.Error(err))
		return
	}
	api.Send(tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "pix.png", Bytes: png}))
}

func handleActivateGroup(b db.Bot, api *tgbotapi.BotAPI, ev Event) {
	if ev.UserID != b.OwnerTelegramID {
		// Group links from payers are just chatter.
		logger.Info("activation attempt by non-owner",
			zap.Uint("bot_id", b.ID), zap.Int64("user_id", ev.UserID))
		return
	}
	if ev.GroupRef == "" {
		api.Send(tgbotapi.NewMessage(ev.ChatID, "Link de grupo não reconhecido. Envie o ID numérico, @usuario ou um link t.me do grupo."))
		return
	}
	if b.GroupRef == ev.GroupRef {
		api.Send(tgbotapi.NewMessage(ev.ChatID, "Este grupo já está ativado para o bot."))
		return
	}
	if err := db.SetBotGroupRef(b.ID, ev.GroupRef); err != nil {
		logger.Error("failed to store group ref", zap.Uint("bot_id", b.ID), zap.Error(err))
		api.Send(tgbotapi.NewMessage(ev.ChatID, "Não foi possível salvar o grupo agora. Tente novamente."))
		return
	}
	api.Send(tgbotapi.NewMessage(ev.ChatID, "Grupo ativado com sucesso! Compradores serão direcionados para "+ev.GroupRef+"."))
}

// setChatState persists a transition; a failed write is logged because the
// next update for this chat would otherwise replay from a stale state.
func setChatState(botID uint, chatID int64, state string, planID *uint) {
	if err := db.TransitionChatState(botID, chatID, state, planID); err != nil {
		logger.Warn("failed to persist chat state",
			zap.Uint("bot_id", botID), zap.Int64("chat_id", chatID),
			zap.String("state", state), zap.Error(err))
	}
}

func answerCallback(api *tgbotapi.BotAPI, callbackID, text string) {
	if callbackID == "" {
		return
	}
	api.Request(tgbotapi.NewCallback(callbackID, text))
}
