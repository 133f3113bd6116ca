package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type AppConfig struct {
	PublicBaseURL        string
	DatabaseURL          string
	RedisAddr            string
	RedisPassword        string
	GatewayAPIURL        string
	GatewayWebhookSecret string
	CronSecret           string
	OperatorBotToken     string
	OperatorTelegramID   string
	GatewayFixedFee      decimal.Decimal
	GatewayPercentFee    decimal.Decimal
}

var AppCfg AppConfig

func LoadConfig() {
	err := godotenv.Load()
	if err != nil {
		log.Println(".env file not found, relying on environment variables")
	}

	AppCfg.PublicBaseURL = os.Getenv("PUBLIC_BASE_URL")
	AppCfg.DatabaseURL = os.Getenv("DATABASE_URL")
	AppCfg.RedisAddr = getenvDefault("REDIS_ADDR", "localhost:6379")
	AppCfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	AppCfg.GatewayAPIURL = os.Getenv("GATEWAY_API_URL")
	AppCfg.GatewayWebhookSecret = os.Getenv("GATEWAY_WEBHOOK_SECRET")
	AppCfg.CronSecret = os.Getenv("CRON_SECRET")
	AppCfg.OperatorBotToken = os.Getenv("OPERATOR_BOT_TOKEN")
	AppCfg.OperatorTelegramID = os.Getenv("OPERATOR_TELEGRAM_ID")
	AppCfg.GatewayFixedFee = mustDecimal(getenvDefault("GATEWAY_FIXED_FEE", "1.48"))
	AppCfg.GatewayPercentFee = mustDecimal(getenvDefault("GATEWAY_PERCENT_FEE", "0.05"))

	if AppCfg.PublicBaseURL == "" || AppCfg.DatabaseURL == "" || AppCfg.GatewayAPIURL == "" || AppCfg.CronSecret == "" {
		log.Fatal("Critical environment variables are missing. Bot will exit.")
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		log.Fatalf("Invalid decimal in environment: %q", s)
	}
	return d
}
