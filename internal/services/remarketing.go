package services

import (
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"PIX-Group-Bot/internal/db"
	"PIX-Group-Bot/internal/logger"
	"PIX-Group-Bot/internal/registry"
)

// Only recently lapsed buyers get the remarketing nudge; older ones are gone.
const remarketingLookback = 30 * 24 * time.Hour

// SendRemarketing messages users whose access lapsed recently, once per
// payment, for every bot that configured a remarketing message.
func SendRemarketing() {
	now := time.Now().Unix()
	for _, b := range db.GetActiveBots() {
		if b.RemarketingMessage == "" {
			continue
		}
		api, err := registry.API(b)
		if err != nil {
			logger.Error("cannot build client for remarketing",
				zap.Uint("bot_id", b.ID), zap.Error(err))
			continue
		}

		periods := make(map[uint]int)
		for _, p := range db.GetPlans(b.ID) {
			periods[p.ID] = p.PeriodDays
		}

		for _, pay := range db.GetApprovedUnremarketed(b.ID) {
			if pay.PaidAt == nil {
				continue
			}
			lapsedAt := db.GrantExpiresAt(*pay.PaidAt, periods[pay.PlanID])
			if lapsedAt > now || now-lapsedAt > int64(remarketingLookback.Seconds()) {
				continue
			}
			// Claim the payment first; the send is best-effort after that.
			ok, err := db.MarkPaymentRemarketed(pay.ID)
			if err != nil || !ok {
				continue
			}
			if _, err := api.Send(tgbotapi.NewMessage(pay.ChatID, b.RemarketingMessage)); err != nil {
				logger.Warn("remarketing message failed",
					zap.Uint("bot_id", b.ID), zap.Int64("chat_id", pay.ChatID), zap.Error(err))
			}
		}
	}
}
