package bot

import (
	"testing"

	"github.com/shopspring/decimal"

	"PIX-Group-Bot/internal/db"
)

func TestBuildPlanKeyboard(t *testing.T) {
	plans := []db.Plan{
		{ID: 1, Name: "Mensal", Price: decimal.RequireFromString("9.90"), PeriodDays: 30},
		{ID: 15, Name: "Anual", Price: decimal.RequireFromString("99.00"), PeriodDays: 365},
	}
	kb := BuildPlanKeyboard(plans)
	if len(kb.InlineKeyboard) != 2 {
		t.Fatalf("expected one row per plan, got %d rows", len(kb.InlineKeyboard))
	}
	btn := kb.InlineKeyboard[1][0]
	if btn.CallbackData == nil || *btn.CallbackData != "plan_15" {
		t.Errorf("callback data = %v, want plan_15", btn.CallbackData)
	}
	if btn.Text != "Anual — R$ 99.00 (365 dias)" {
		t.Errorf("unexpected button label: %q", btn.Text)
	}
}
