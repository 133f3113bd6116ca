package db

import "github.com/shopspring/decimal"

// Bot is one tenant: a Telegram bot selling access to a private group.
// Deactivated bots keep their rows (is_active = false), never hard-deleted.
type Bot struct {
	ID                 uint   `gorm:"primaryKey"`
	OwnerTelegramID    int64  `gorm:"index"`
	Name               string
	Token              string `gorm:"uniqueIndex"`
	Username           string
	IsActive           bool `gorm:"default:true"`
	WelcomeMessage     string
	WelcomeMediaURL    string
	RemarketingMessage string
	GatewayAPIKey      string
	GroupRef           string // resolved group id, invite code or @username
	WebhookURL         string
	WebhookSetAt       *int64
	WebhookCheckedAt   *int64
}

type Plan struct {
	ID         uint `gorm:"primaryKey"`
	BotID      uint `gorm:"index"`
	Name       string
	Price      decimal.Decimal `gorm:"type:numeric(10,2)"`
	PeriodDays int
	IsActive   bool `gorm:"default:true"`
}

const (
	PaymentPending  = "pending"
	PaymentApproved = "approved"
	PaymentExpired  = "expired"
	PaymentFailed   = "failed"
)

// Payment is one PIX charge. Status transitions are guarded: a row leaves
// "pending" exactly once, terminal statuses never change again.
type Payment struct {
	ID             uint `gorm:"primaryKey"`
	BotID          uint `gorm:"index"`
	PlanID         uint
	TelegramUserID int64 `gorm:"index"`
	ChatID         int64
	Amount         decimal.Decimal `gorm:"type:numeric(10,2)"`
	FeeTotal       decimal.Decimal `gorm:"type:numeric(12,4)"`
	NetAmount      decimal.Decimal `gorm:"type:numeric(12,4)"`
	Status         string          `gorm:"index;default:pending"`
	ChargeRef      string          `gorm:"uniqueIndex"`
	ExternalRef    string          `gorm:"index"`
	PixCode        string
	QRCodeBase64   string
	CreatedAt      int64
	ExpiresAt      int64
	PaidAt         *int64
	Remarketed     bool `gorm:"default:false"`
}

const (
	StateIdle            = "idle"
	StateAwaitingPlan    = "awaiting_plan"
	StateAwaitingPayment = "awaiting_payment"
)

// ChatState holds the conversation position of one chat with one bot. It lives
// in the store because any instance may serve the next update for this chat.
type ChatState struct {
	ID        uint  `gorm:"primaryKey"`
	BotID     uint  `gorm:"uniqueIndex:idx_chat_states_bot_chat"`
	ChatID    int64 `gorm:"uniqueIndex:idx_chat_states_bot_chat"`
	State     string
	PlanID    *uint
	UpdatedAt int64
}
