package services

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"PIX-Group-Bot/config"
	"PIX-Group-Bot/internal/db"
	"PIX-Group-Bot/internal/logger"
	"PIX-Group-Bot/internal/registry"
)

// The registration manager keeps every bot's webhook pointed at this
// deployment. Telegram's getWebhookInfo is the source of truth; the columns
// on the bot row are only a staleness cache.

const (
	registrationStaleAfter = 6 * time.Hour
	sweepConcurrency       = 4
)

const (
	outcomeSucceeded = "succeeded"
	outcomeFailed    = "failed"
	outcomeSkipped   = "skipped"
)

type SweepSummary struct {
	Succeeded int
	Failed    int
	Skipped   int
}

func (s *SweepSummary) add(outcome string) {
	switch outcome {
	case outcomeSucceeded:
		s.Succeeded++
	case outcomeFailed:
		s.Failed++
	default:
		s.Skipped++
	}
}

// CanonicalWebhookURL derives the expected registration target for a bot.
func CanonicalWebhookURL(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/webhook?token=" + url.QueryEscape(token)
}

// SweepWebhookRegistrations verifies and repairs the registration of every
// active bot. One bot's failure or timeout never aborts the rest.
func SweepWebhookRegistrations() SweepSummary {
	summary := sweep(db.GetActiveBots(), checkBotWebhook)
	logger.Info("webhook registration sweep finished",
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped))
	if summary.Failed > 0 {
		logger.NotifyOperator(fmt.Sprintf(
			"Webhook sweep: %d re-registrados, %d falharam, %d ok",
			summary.Succeeded, summary.Failed, summary.Skipped))
	}
	return summary
}

// sweep fans the per-bot check out with bounded concurrency and collects the
// per-bot outcomes into a summary.
func sweep(bots []db.Bot, check func(db.Bot) string) SweepSummary {
	var (
		mu      sync.Mutex
		summary SweepSummary
		wg      sync.WaitGroup
	)
	sem := make(chan struct{}, sweepConcurrency)
	for _, b := range bots {
		wg.Add(1)
		sem <- struct{}{}
		go func(b db.Bot) {
			defer wg.Done()
			defer func() { <-sem }()
			outcome := check(b)
			mu.Lock()
			summary.add(outcome)
			mu.Unlock()
		}(b)
	}
	wg.Wait()
	return summary
}

// checkBotWebhook compares the registered URL with the canonical one and
// re-registers on mismatch or staleness. The Telegram client carries a fixed
// per-call timeout, so a hung call costs one slot, not the sweep.
func checkBotWebhook(b db.Bot) string {
	api, err := registry.API(b)
	if err != nil {
		logger.Error("cannot build client for webhook check",
			zap.Uint("bot_id", b.ID), zap.Error(err))
		return outcomeFailed
	}
	expected := CanonicalWebhookURL(config.AppCfg.PublicBaseURL, b.Token)
	now := time.Now().Unix()

	info, err := api.GetWebhookInfo()
	if err != nil {
		logger.Error("getWebhookInfo failed",
			zap.Uint("bot_id", b.ID), zap.Error(err))
		return outcomeFailed
	}

	stale := b.WebhookCheckedAt == nil ||
		now-*b.WebhookCheckedAt > int64(registrationStaleAfter.Seconds())
	if info.URL == expected && !stale {
		db.TouchWebhookVerified(b.ID, now)
		return outcomeSkipped
	}

	wh, err := tgbotapi.NewWebhook(expected)
	if err != nil {
		logger.Error("bad canonical webhook URL",
			zap.Uint("bot_id", b.ID), zap.Error(err))
		return outcomeFailed
	}
	wh.AllowedUpdates = []string{"message", "callback_query"}
	// Queued updates may hold payments in flight; never drop them.
	wh.DropPendingUpdates = false
	if _, err := api.Request(wh); err != nil {
		logger.Error("setWebhook failed",
			zap.Uint("bot_id", b.ID), zap.Error(err))
		return outcomeFailed
	}
	db.TouchWebhookRegistration(b.ID, expected, now)
	logger.Info("webhook re-registered",
		zap.Uint("bot_id", b.ID), zap.String("url", expected))
	return outcomeSucceeded
}

// RegisterBotWebhook registers a single bot on demand, e.g. right after it
// was created, without waiting for the next sweep.
func RegisterBotWebhook(botID uint) error {
	b, err := db.FindActiveBotByID(botID)
	if err != nil {
		return err
	}
	if outcome := checkBotWebhook(b); outcome == outcomeFailed {
		return fmt.Errorf("webhook registration failed for bot %d", botID)
	}
	return nil
}
