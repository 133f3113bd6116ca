package bot

import (
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"PIX-Group-Bot/internal/links"
)

const (
	EventStart         = "start"
	EventSelectPlan    = "select_plan"
	EventActivateGroup = "activate_group"
	EventUnhandled     = "unhandled"
)

// Event is one classified inbound update. GroupRef is empty on an
// activation attempt whose link shape was not recognized.
type Event struct {
	Type       string
	PlanID     uint
	GroupRef   string
	ChatID     int64
	UserID     int64
	CallbackID string
}

// Classify maps a raw Telegram update onto a state-machine event.
func Classify(update tgbotapi.Update) Event {
	if cb := update.CallbackQuery; cb != nil {
		ev := Event{Type: EventUnhandled, CallbackID: cb.ID}
		if cb.From != nil {
			ev.UserID = cb.From.ID
			ev.ChatID = cb.From.ID
		}
		if cb.Message != nil && cb.Message.Chat != nil {
			ev.ChatID = cb.Message.Chat.ID
		}
		if idStr, found := strings.CutPrefix(cb.Data, "plan_"); found {
			planID, err := strconv.ParseUint(idStr, 10, 32)
			if err == nil && planID > 0 {
				ev.Type = EventSelectPlan
				ev.PlanID = uint(planID)
			}
		}
		return ev
	}

	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return Event{Type: EventUnhandled}
	}
	ev := Event{Type: EventUnhandled, ChatID: msg.Chat.ID, UserID: msg.From.ID}
	text := strings.TrimSpace(msg.Text)
	switch {
	case strings.HasPrefix(text, "/start"):
		ev.Type = EventStart
	case links.LooksLikeGroupRef(text):
		ev.Type = EventActivateGroup
		ev.GroupRef, _ = links.ExtractGroupRef(text)
	}
	return ev
}
