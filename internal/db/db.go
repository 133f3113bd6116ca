package db

import (
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"PIX-Group-Bot/config"
)

var DB *gorm.DB

func InitDB() {
	dsn := config.AppCfg.DatabaseURL
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	DB = db
	db.AutoMigrate(&Bot{}, &Plan{}, &Payment{}, &ChatState{})
}

// --- Bots and plans ---

func FindActiveBotByToken(token string) (Bot, error) {
	var bot Bot
	err := DB.Where("token = ? AND is_active = true", token).First(&bot).Error
	return bot, err
}

func FindActiveBotByID(id uint) (Bot, error) {
	var bot Bot
	err := DB.Where("id = ? AND is_active = true", id).First(&bot).Error
	return bot, err
}

func GetActiveBots() []Bot {
	var bots []Bot
	DB.Where("is_active = true").Find(&bots)
	return bots
}

func GetActivePlans(botID uint) []Plan {
	var plans []Plan
	DB.Where("bot_id = ? AND is_active = true", botID).Order("price asc").Find(&plans)
	return plans
}

func FindActivePlan(botID, planID uint) (Plan, error) {
	var plan Plan
	err := DB.Where("id = ? AND bot_id = ? AND is_active = true", planID, botID).First(&plan).Error
	return plan, err
}

// --- Payments ---

func CreatePayment(pay *Payment) error {
	return DB.Create(pay).Error
}

func FindPaymentByChargeRef(ref string) (Payment, error) {
	var pay Payment
	err := DB.Where("charge_ref = ?", ref).First(&pay).Error
	return pay, err
}

// FindPaymentByAnyRef matches a gateway event to a payment by the gateway's
// charge id first, then by the external reference we generated for it.
func FindPaymentByAnyRef(chargeRef, externalRef string) (Payment, error) {
	var pay Payment
	err := DB.Where("charge_ref = ?", chargeRef).First(&pay).Error
	if err != nil && externalRef != "" {
		err = DB.Where("external_ref = ?", externalRef).First(&pay).Error
	}
	return pay, err
}

// FindReusablePendingPayment returns a still-valid pending charge for the same
// chat and plan, so a duplicate plan selection does not create a second charge.
func FindReusablePendingPayment(botID uint, chatID int64, planID uint, now int64) (Payment, error) {
	var pay Payment
	err := DB.Where("bot_id = ? AND chat_id = ? AND plan_id = ? AND status = ? AND expires_at > ?",
		botID, chatID, planID, PaymentPending, now).First(&pay).Error
	return pay, err
}

// MarkPaymentApproved moves a pending payment to approved. The WHERE guard on
// the current status makes the transition a compare-and-set: replays and
// late callbacks for already-terminal rows affect zero rows.
func MarkPaymentApproved(chargeRef string, paidAt int64) (bool, error) {
	res := DB.Model(&Payment{}).
		Where("charge_ref = ? AND status = ?", chargeRef, PaymentPending).
		Updates(map[string]interface{}{"status": PaymentApproved, "paid_at": paidAt})
	return res.RowsAffected > 0, res.Error
}

func MarkPaymentFailed(chargeRef string) (bool, error) {
	res := DB.Model(&Payment{}).
		Where("charge_ref = ? AND status = ?", chargeRef, PaymentPending).
		Update("status", PaymentFailed)
	return res.RowsAffected > 0, res.Error
}

// ExpireOverduePayments marks every pending payment past its expiry as expired.
// Returns how many rows were flipped.
func ExpireOverduePayments(now int64) (int64, error) {
	res := DB.Model(&Payment{}).
		Where("status = ? AND expires_at < ?", PaymentPending, now).
		Update("status", PaymentExpired)
	return res.RowsAffected, res.Error
}

// ActiveGrant returns the approved payment currently granting (bot, user)
// access, or gorm.ErrRecordNotFound. The grant is derived: latest approved
// payment whose plan period, counted from paid_at, has not elapsed.
func ActiveGrant(botID uint, telegramUserID int64, now int64) (Payment, Plan, error) {
	var pays []Payment
	err := DB.Where("bot_id = ? AND telegram_user_id = ? AND status = ?", botID, telegramUserID, PaymentApproved).
		Order("paid_at desc").Find(&pays).Error
	if err != nil {
		return Payment{}, Plan{}, err
	}
	for _, pay := range pays {
		if pay.PaidAt == nil {
			continue
		}
		var plan Plan
		if err := DB.First(&plan, pay.PlanID).Error; err != nil {
			continue
		}
		if GrantExpiresAt(*pay.PaidAt, plan.PeriodDays) > now {
			return pay, plan, nil
		}
	}
	return Payment{}, Plan{}, gorm.ErrRecordNotFound
}

// GrantExpiresAt computes when access bought at paidAt for periodDays lapses.
func GrantExpiresAt(paidAt int64, periodDays int) int64 {
	return paidAt + int64(periodDays)*24*60*60
}

// GetPlans returns every plan of a bot, inactive ones included, so lapsed
// payments referencing retired plans still resolve a period.
func GetPlans(botID uint) []Plan {
	var plans []Plan
	DB.Where("bot_id = ?", botID).Find(&plans)
	return plans
}

func GetApprovedUnremarketed(botID uint) []Payment {
	var pays []Payment
	DB.Where("bot_id = ? AND status = ? AND remarketed = false", botID, PaymentApproved).Find(&pays)
	return pays
}

// MarkPaymentRemarketed flips the flag once; a concurrent sweep loses the
// race and sends nothing.
func MarkPaymentRemarketed(id uint) (bool, error) {
	res := DB.Model(&Payment{}).
		Where("id = ? AND remarketed = false", id).
		Update("remarketed", true)
	return res.RowsAffected > 0, res.Error
}

// --- Chat state ---

// TransitionChatState upserts the conversation state of a chat. The write is
// a single INSERT ... ON CONFLICT on the unique (bot_id, chat_id) pair, so
// concurrent handlers for the same chat converge on one row instead of racing
// a read-then-create into a duplicate-key error.
func TransitionChatState(botID uint, chatID int64, state string, planID *uint) error {
	now := time.Now().Unix()
	cs := ChatState{BotID: botID, ChatID: chatID, State: state, PlanID: planID, UpdatedAt: now}
	return DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "bot_id"}, {Name: "chat_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"state": state, "plan_id": planID, "updated_at": now,
		}),
	}).Create(&cs).Error
}

func GetChatState(botID uint, chatID int64) (ChatState, error) {
	var cs ChatState
	err := DB.Where("bot_id = ? AND chat_id = ?", botID, chatID).First(&cs).Error
	return cs, err
}

// SetBotGroupRef stores the activated group on the bot row.
func SetBotGroupRef(botID uint, ref string) error {
	return DB.Model(&Bot{}).Where("id = ?", botID).Update("group_ref", ref).Error
}

// TouchWebhookRegistration records a successful setWebhook call.
func TouchWebhookRegistration(botID uint, url string, at int64) error {
	return DB.Model(&Bot{}).Where("id = ?", botID).Updates(map[string]interface{}{
		"webhook_url": url, "webhook_set_at": at, "webhook_checked_at": at,
	}).Error
}

// TouchWebhookVerified records that the registered URL was confirmed healthy.
func TouchWebhookVerified(botID uint, at int64) error {
	return DB.Model(&Bot{}).Where("id = ?", botID).Update("webhook_checked_at", at).Error
}
