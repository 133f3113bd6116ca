package logger

import (
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var (
	botInstance *tgbotapi.BotAPI
	operatorID  int64
	once        sync.Once
)

// InitNotifier wires the operator bot that relays critical faults (rejected
// gateway keys, failed webhook re-registrations) to the operator's chat.
func InitNotifier(bot *tgbotapi.BotAPI, operator int64) {
	once.Do(func() {
		botInstance = bot
		operatorID = operator
	})
}

// NotifyOperator sends a critical alert to the operator chat.
func NotifyOperator(msg string) {
	if botInstance == nil || operatorID == 0 {
		return
	}
	botInstance.Send(tgbotapi.NewMessage(operatorID, "[ALERT] "+msg))
}

// RecoverAndNotify catches a panic at a webhook boundary, logs it and alerts.
func RecoverAndNotify(context string) {
	if r := recover(); r != nil {
		Error("panic recovered: " + context + ": " + toString(r))
		NotifyOperator("Panic in " + context + ": " + toString(r))
	}
}

func toString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	if err, ok := v.(error); ok {
		return err.Error()
	}
	return fmt.Sprintf("%v", v)
}
