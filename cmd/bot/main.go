package main

import (
	"crypto/hmac"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/robfig/cron/v3"

	"PIX-Group-Bot/config"
	"PIX-Group-Bot/internal/bot"
	"PIX-Group-Bot/internal/db"
	"PIX-Group-Bot/internal/dedup"
	"PIX-Group-Bot/internal/logger"
	"PIX-Group-Bot/internal/services"
)

func main() {
	config.LoadConfig()
	db.InitDB()
	if err := dedup.Init(config.AppCfg.RedisAddr, config.AppCfg.RedisPassword); err != nil {
		log.Printf("Redis unavailable, duplicate updates will not be absorbed: %v", err)
	}

	// Operator alerts go through a dedicated bot when one is configured.
	if config.AppCfg.OperatorBotToken != "" {
		operatorID, err := strconv.ParseInt(config.AppCfg.OperatorTelegramID, 10, 64)
		if err != nil {
			log.Fatalf("Invalid OPERATOR_TELEGRAM_ID: %v", err)
		}
		opBot, err := tgbotapi.NewBotAPI(config.AppCfg.OperatorBotToken)
		if err != nil {
			log.Fatalf("Failed to create operator bot: %v", err)
		}
		logger.InitNotifier(opBot, operatorID)
	}

	// --- Logging to file and console ---
	logFile, err := os.OpenFile("bot.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	mw := io.MultiWriter(os.Stdout, logFile)
	log.SetOutput(mw)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	c := cron.New()
	// Overdue pending charges become expired without a gateway callback.
	c.AddFunc("@every 1m", services.ExpirePendingPayments)
	// Webhook registrations drift (redeploys, manual setWebhook calls); heal them.
	c.AddFunc("@every 15m", func() { services.SweepWebhookRegistrations() })
	// Remarketing nudge for recently lapsed buyers (daily at 12:00)
	c.AddFunc("0 12 * * *", services.SendRemarketing)
	c.Start()

	// One sweep right away so freshly deployed instances register themselves.
	go services.SweepWebhookRegistrations()

	http.HandleFunc("/webhook", bot.WebhookHandler())
	http.HandleFunc("/webhook/", bot.WebhookHandler())
	http.HandleFunc("/webhooks/pushinpay", services.GatewayWebhookHandler())
	http.HandleFunc("/cron/webhooks", cronHandler(func() { services.SweepWebhookRegistrations() }))
	http.HandleFunc("/cron/expire", cronHandler(services.ExpirePendingPayments))
	http.HandleFunc("/cron/remarketing", cronHandler(services.SendRemarketing))
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	log.Println("Starting webhook server on :8080")
	if err := http.ListenAndServe(":8080", nil); err != nil {
		log.Fatalf("Webhook server error: %v", err)
	}
}

// cronHandler exposes a scheduled job as an on-demand trigger guarded by the
// shared cron secret.
func cronHandler(job func()) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		secret := r.Header.Get("X-Cron-Secret")
		if secret == "" {
			secret = r.URL.Query().Get("secret")
		}
		if !hmac.Equal([]byte(secret), []byte(config.AppCfg.CronSecret)) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		job()
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}
}
