package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // TIMEZONE must resolve in minimal images

	"escala_notifier/internal/app"
	"escala_notifier/internal/domain/reminder"
	domainTelegram "escala_notifier/internal/domain/telegram"
	"escala_notifier/internal/infra/auth"
	"escala_notifier/internal/infra/config"
	idb "escala_notifier/internal/infra/database"
	"escala_notifier/internal/infra/httpapi"
	"escala_notifier/internal/infra/lock"
	"escala_notifier/internal/infra/logger"
	"escala_notifier/internal/infra/scheduler"
	"escala_notifier/internal/infra/telegram"
	"escala_notifier/internal/infra/whatsapp"

	"gopkg.in/telebot.v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("FATAL: Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	mainLogger := logger.Component("main")
	mainLogger.Infof("Configuration loaded. Environment: %s, Timezone: %s", cfg.Environment, cfg.Timezone)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Database Connection
	db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL, idb.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		mainLogger.Fatalf("FATAL: Could not connect to database: %v", err)
	}
	defer db.Close()
	mainLogger.Info("Database connection established successfully.")

	escalaRepo := idb.NewPostgresEscalaRepository(db, cfg.Timezone)
	peopleRepo := idb.NewPostgresPeopleRepository(db)
	logRepo := idb.NewPostgresReminderLogRepository(db, cfg.Timezone)
	dispatchRepo := idb.NewPostgresDispatchLogRepository(db)

	var locker app.RunLocker
	if cfg.RedisAddr != "" {
		redisClient, err := lock.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			mainLogger.Fatalf("FATAL: %v", err)
		}
		defer redisClient.Close()
		locker = lock.NewRedisLocker(redisClient)
		mainLogger.Info("Redis run lock enabled.")
	}

	waClient := whatsapp.NewWebhookClient(cfg.WhatsAppWebhookURL, cfg.WhatsAppToken, cfg.WhatsAppTimeout, cfg.WhatsAppRatePerSecond)
	templates := app.TemplateSet{
		reminder.KindD3: cfg.WhatsAppTemplateD3,
		reminder.KindD1: cfg.WhatsAppTemplateD1,
		reminder.KindD0: cfg.WhatsAppTemplateD0,
	}

	fetcher := app.NewAssignmentFetcher(escalaRepo, peopleRepo, cfg.DefaultLeaderContact, logger.Component("fetcher"))
	gate := app.NewIdempotencyGate(logRepo, reminder.RetryBackoff, time.Now)
	sender := app.NewReminderSender(waClient, logRepo, dispatchRepo, templates, reminder.RetryBackoff, time.Now, logger.Component("sender"))
	reminderService := app.NewReminderServiceImpl(fetcher, gate, sender, locker, cfg.Timezone, time.Now, logger.Component("reminders"))

	// Telegram admin bot is optional
	var bot *telebot.Bot
	var tgClient domainTelegram.Client
	if cfg.TelegramToken != "" {
		bot, err = telebot.NewBot(telebot.Settings{
			Token:  cfg.TelegramToken,
			Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
			OnError: func(err error, c telebot.Context) {
				entry := logger.Component("telebot").WithError(err)
				if c != nil && c.Sender() != nil {
					entry = entry.WithField("sender_id", c.Sender().ID)
				}
				entry.Error("Telegram handler error")
			},
		})
		if err != nil {
			mainLogger.Fatalf("FATAL: Could not create Telegram bot: %v", err)
		}
		tgClient = telegram.NewTelebotAdapter(bot)
	}

	adminService := app.NewAdminService(reminderService, logRepo, tgClient, cfg.AdminTelegramID, cfg.Timezone, logger.Component("admin"))

	if bot != nil {
		botLogger := logger.Component("telegram")
		telegram.RegisterBotCommands(bot, adminService, botLogger)
		telegram.RegisterAdminHandlers(ctx, bot, adminService, botLogger)
		go bot.Start()
		mainLogger.Info("Telegram admin bot started.")
	}

	reminderScheduler := scheduler.NewReminderScheduler(reminderService, adminService, logger.Component("scheduler"), cfg.Timezone, cfg.CronSpecReminders)
	if err := reminderScheduler.Start(); err != nil {
		mainLogger.Fatalf("FATAL: %v", err)
	}

	routerCfg := httpapi.RouterConfig{
		CronSecret:         cfg.CronSecret,
		ManualTriggerRoles: cfg.ManualTriggerRoles,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}
	if cfg.SupabaseJWTSecret != "" {
		routerCfg.JWTVerifier = auth.NewVerifier(cfg.SupabaseJWTSecret)
	}
	handler := &httpapi.ReminderHandler{Svc: reminderService, Reporter: adminService, Logger: logger.Component("http")}
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(routerCfg, handler),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		mainLogger.Infof("HTTP server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			mainLogger.Fatalf("FATAL: HTTP server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	mainLogger.Info("Shutting down application...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	if bot != nil {
		bot.Stop()
	}
	reminderScheduler.Stop()
	mainLogger.Info("Application shut down gracefully.")
}
