package bot

import (
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"PIX-Group-Bot/internal/db"
)

// BuildPlanKeyboard renders one button per active plan. Callback data is
// "plan_<planId>", which Classify turns back into a SelectPlan event.
func BuildPlanKeyboard(plans []db.Plan) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, p := range plans {
		label := fmt.Sprintf("%s — R$ %s (%d dias)", p.Name, p.Price.StringFixed(2), p.PeriodDays)
		row := tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, "plan_"+strconv.FormatUint(uint64(p.ID), 10)),
		)
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
