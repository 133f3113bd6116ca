package bot

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func msgUpdate(id int, text string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: id,
		Message: &tgbotapi.Message{
			Text: text,
			From: &tgbotapi.User{ID: 42},
			Chat: &tgbotapi.Chat{ID: 100},
		},
	}
}

func callbackUpdate(data string) tgbotapi.Update {
	return tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb1",
			Data: data,
			From: &tgbotapi.User{ID: 42},
			Message: &tgbotapi.Message{
				Chat: &tgbotapi.Chat{ID: 100},
			},
		},
	}
}

func TestClassifyCommands(t *testing.T) {
	ev := Classify(msgUpdate(1, "/start"))
	if ev.Type != EventStart || ev.ChatID != 100 || ev.UserID != 42 {
		t.Errorf("unexpected event for /start: %+v", ev)
	}
	ev = Classify(msgUpdate(2, "/start deep-link-payload"))
	if ev.Type != EventStart {
		t.Errorf("expected start for /start with payload, got %s", ev.Type)
	}
}

func TestClassifyPlanCallback(t *testing.T) {
	ev := Classify(callbackUpdate("plan_7"))
	if ev.Type != EventSelectPlan || ev.PlanID != 7 {
		t.Errorf("unexpected event for plan callback: %+v", ev)
	}
	if ev.ChatID != 100 || ev.CallbackID != "cb1" {
		t.Errorf("callback context lost: %+v", ev)
	}

	for _, data := range []string{"plan_", "plan_abc", "plan_0", "other_7"} {
		if ev := Classify(callbackUpdate(data)); ev.Type != EventUnhandled {
			t.Errorf("callback %q classified as %s, want unhandled", data, ev.Type)
		}
	}
}

func TestClassifyGroupActivation(t *testing.T) {
	ev := Classify(msgUpdate(3, "https://t.me/+AbCdEf"))
	if ev.Type != EventActivateGroup || ev.GroupRef != "AbCdEf" {
		t.Errorf("unexpected event for invite link: %+v", ev)
	}

	// A link-shaped message that fails extraction still routes to activation
	// so the owner gets an invalid-link reply instead of silence.
	ev = Classify(msgUpdate(4, "t.me/+"))
	if ev.Type != EventActivateGroup || ev.GroupRef != "" {
		t.Errorf("unexpected event for bad invite link: %+v", ev)
	}
}

func TestClassifyUnhandled(t *testing.T) {
	if ev := Classify(msgUpdate(5, "oi, quanto custa?")); ev.Type != EventUnhandled {
		t.Errorf("plain text classified as %s", ev.Type)
	}
	if ev := Classify(tgbotapi.Update{UpdateID: 6}); ev.Type != EventUnhandled {
		t.Errorf("empty update classified as %s", ev.Type)
	}
}
