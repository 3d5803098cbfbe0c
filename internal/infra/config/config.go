package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL       string
	DBMaxOpenConns    int
	DBConnMaxLifetime time.Duration
	LogLevel          string
	Environment       string
	Timezone          *time.Location

	WhatsAppWebhookURL    string
	WhatsAppToken         string
	WhatsAppTemplateD3    string
	WhatsAppTemplateD1    string
	WhatsAppTemplateD0    string
	WhatsAppTimeout       time.Duration
	WhatsAppRatePerSecond float64
	DefaultLeaderContact  string

	CronSpecReminders string

	HTTPAddr           string
	CronSecret         string // bearer token expected by the cron webhook; empty disables it
	SupabaseJWTSecret  string // empty disables the manual trigger endpoint
	ManualTriggerRoles []string
	CORSAllowedOrigins []string

	TelegramToken   string // empty disables the admin bot
	AdminTelegramID int64

	RedisAddr     string // empty disables the run lock
	RedisPassword string
	RedisDB       int
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	cfg.DBMaxOpenConns, err = strconv.Atoi(getenv("DB_MAX_OPEN_CONNS", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS: %w", err)
	}
	cfg.DBConnMaxLifetime, err = time.ParseDuration(getenv("DB_CONN_MAX_LIFETIME", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %w", err)
	}

	cfg.WhatsAppWebhookURL = os.Getenv("WHATSAPP_WEBHOOK_URL")
	if cfg.WhatsAppWebhookURL == "" {
		return nil, fmt.Errorf("WHATSAPP_WEBHOOK_URL is not set")
	}
	cfg.WhatsAppToken = os.Getenv("WHATSAPP_TOKEN")
	cfg.WhatsAppTemplateD3 = getenv("WHATSAPP_TEMPLATE_D3", "escala_lembrete_d3")
	cfg.WhatsAppTemplateD1 = getenv("WHATSAPP_TEMPLATE_D1", "escala_lembrete_d1")
	cfg.WhatsAppTemplateD0 = getenv("WHATSAPP_TEMPLATE_D0", "escala_lembrete_d0")

	cfg.WhatsAppTimeout, err = time.ParseDuration(getenv("WHATSAPP_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid WHATSAPP_TIMEOUT: %w", err)
	}
	cfg.WhatsAppRatePerSecond, err = strconv.ParseFloat(getenv("WHATSAPP_RATE_PER_SECOND", "5"), 64)
	if err != nil || cfg.WhatsAppRatePerSecond <= 0 {
		return nil, fmt.Errorf("invalid WHATSAPP_RATE_PER_SECOND: %q", os.Getenv("WHATSAPP_RATE_PER_SECOND"))
	}
	cfg.DefaultLeaderContact = os.Getenv("DEFAULT_LEADER_CONTACT")

	tz := getenv("TIMEZONE", "America/Sao_Paulo")
	cfg.Timezone, err = time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}

	cfg.LogLevel = strings.ToLower(getenv("LOG_LEVEL", "info"))
	cfg.Environment = strings.ToLower(getenv("ENVIRONMENT", "development"))

	cfg.CronSpecReminders = getenv("CRON_SPEC_REMINDERS", "0 8 * * *") // 08:00 daily

	cfg.HTTPAddr = getenv("HTTP_ADDR", ":8080")
	cfg.CronSecret = os.Getenv("CRON_SECRET")
	cfg.SupabaseJWTSecret = os.Getenv("SUPABASE_JWT_SECRET")
	cfg.ManualTriggerRoles = splitList(getenv("MANUAL_TRIGGER_ROLES", "admin"))
	cfg.CORSAllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID"); adminIDStr != "" {
		cfg.AdminTelegramID, err = strconv.ParseInt(adminIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}
	if cfg.TelegramToken != "" && cfg.AdminTelegramID == 0 {
		return nil, fmt.Errorf("ADMIN_TELEGRAM_ID is required when TELEGRAM_TOKEN is set")
	}

	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisDB, err = strconv.Atoi(getenv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	return cfg, nil
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func splitList(s string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
