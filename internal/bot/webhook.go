package bot

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"PIX-Group-Bot/internal/db"
	"PIX-Group-Bot/internal/dedup"
	"PIX-Group-Bot/internal/logger"
	"PIX-Group-Bot/internal/registry"
)

// WebhookHandler is the single shared endpoint receiving updates for every
// registered bot. Telegram retries on any non-2xx, so after the payload is
// parsed the handler answers 200 no matter what went wrong internally.
func WebhookHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panic in telegram webhook", zap.Any("panic", rec))
				logger.NotifyOperator("Panic in telegram webhook")
				ack(w, false, "internal error")
			}
		}()

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

		var update tgbotapi.Update
		if err := json.Unmarshal(body, &update); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("invalid update payload"))
			return
		}

		b, err := resolveBot(r)
		if err != nil {
			logger.Warn("webhook for unknown bot", zap.String("path", r.URL.Path))
			ack(w, false, "unknown bot")
			return
		}

		if !dedup.FirstSeen(b.ID, update.UpdateID) {
			logger.Info("duplicate update absorbed",
				zap.Uint("bot_id", b.ID), zap.Int("update_id", update.UpdateID))
			ack(w, true, "duplicate")
			return
		}

		api, err := registry.API(b)
		if err != nil {
			logger.Error("failed to build bot client",
				zap.Uint("bot_id", b.ID), zap.Error(err))
			ack(w, false, "bot client error")
			return
		}

		HandleUpdate(b, api, update)
		ack(w, true, "")
	}
}

// resolveBot routes on the token query parameter; the /webhook/<botID> path
// shape is a deprecated alias consulted only when no token is present, so the
// two can never disagree within one request.
func resolveBot(r *http.Request) (db.Bot, error) {
	if token := r.URL.Query().Get("token"); token != "" {
		return registry.ResolveByToken(token)
	}
	if idStr, found := strings.CutPrefix(r.URL.Path, "/webhook/"); found && idStr != "" {
		id, err := strconv.ParseUint(idStr, 10, 32)
		if err == nil {
			return registry.ResolveByID(uint(id))
		}
	}
	return db.Bot{}, registry.ErrUnknownBot
}

func ack(w http.ResponseWriter, ok bool, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{"ok": ok, "description": description})
}
