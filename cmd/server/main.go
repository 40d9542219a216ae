// Package main provides the Telegram location bot server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/telelocator/telelocator-go/internal/bot"
	"github.com/telelocator/telelocator-go/internal/buildinfo"
	"github.com/telelocator/telelocator-go/internal/config"
	"github.com/telelocator/telelocator-go/internal/geocode"
	"github.com/telelocator/telelocator-go/internal/logger"
	"github.com/telelocator/telelocator-go/internal/metrics"
	"github.com/telelocator/telelocator-go/internal/ratelimit"
	"github.com/telelocator/telelocator-go/internal/retry"
	"github.com/telelocator/telelocator-go/internal/sentry"
	"github.com/telelocator/telelocator-go/internal/storage"
	"github.com/telelocator/telelocator-go/internal/telegram"
	"github.com/telelocator/telelocator-go/internal/timeouts"
	"github.com/telelocator/telelocator-go/internal/webhook"
)

func main() {
	// Load configuration. Missing credentials are fatal at boot.
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger (stdout JSON, plus Better Stack when configured)
	log := logger.NewWithOptions(cfg.LogLevel, logger.Options{
		BetterStackToken:    cfg.BetterStackToken,
		BetterStackEndpoint: cfg.BetterStackHost,
	})
	log.WithField("version", buildinfo.Version).
		WithField("commit", buildinfo.Commit).
		Info("Starting Telelocator server")

	// Initialize Sentry error reporting (disabled when no token)
	if err := sentry.Initialize(sentry.Config{
		Token:       cfg.SentryToken,
		Host:        cfg.SentryHost,
		Environment: cfg.SentryEnvironment,
		Release:     buildinfo.Version,
	}); err != nil {
		log.WithError(err).Warn("Failed to initialize Sentry, continuing without error reporting")
	}
	defer sentry.Flush(2 * time.Second)

	// Connect to database
	db, err := storage.New(cfg.SQLitePath())
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer func() { _ = db.Close() }()
	log.WithField("path", cfg.SQLitePath()).Info("Database connected")

	// Create Prometheus registry and collectors
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewBuildInfoCollector())

	m := metrics.New(registry)
	log.Info("Metrics initialized")

	// Shared retry policy for every external call
	retrier := retry.New(cfg.RetryMaxAttempts, cfg.RetryBaseDelay)

	// Telegram Bot API client
	chatClient := telegram.NewClient(cfg.TelegramBotToken, cfg.TelegramAPIBase, retrier, m)

	// Geocoder client
	geocoder := geocode.NewClient(cfg.GeocoderBaseURL, cfg.GeocoderTimeout, retrier, m)

	// Rate limiting: flood ceiling per user plus the daily search quota
	flood := ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
		Action:     "message",
		Burst:      float64(cfg.Bot.MessagesPerMinute) / 4,
		RefillRate: float64(cfg.Bot.MessagesPerMinute) / 60,
		Metrics:    m,
	})
	defer flood.Stop()

	cmdFlood := ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
		Action:     "command",
		Burst:      float64(cfg.Bot.CommandsPerMinute) / 4,
		RefillRate: float64(cfg.Bot.CommandsPerMinute) / 60,
		Metrics:    m,
	})
	defer cmdFlood.Stop()

	quota := ratelimit.NewSearchQuota(db, cfg.Bot.SearchQuota, cfg.Bot.SearchQuotaWindow, log, m)

	// Conversation layer
	processor := bot.NewProcessor(bot.ProcessorParams{
		States:   bot.NewStateStore(db, retrier, log),
		Search:   bot.NewLocationSearchService(db, retrier, log, m),
		Visits:   bot.NewVisitCounterBatcher(db, retrier, log, m),
		Activity: bot.NewActivityLogger(db, retrier, log, cfg.Bot.MaxQueryLogLength),
		Quota:    quota,
		Flood:    flood,
		CmdFlood: cmdFlood,
		Users:    db,
		Geocoder: geocoder,
		Chat:     chatClient,
		Retrier:  retrier,
		Config:   cfg.Bot,
		Invite:   cfg.InviteLink,
		Logger:   log,
		Metrics:  m,
	})

	// Webhook handler
	webhookHandler := webhook.NewHandler(webhook.HandlerConfig{
		Processor: processor,
		Dedup:     db,
		Metrics:   m,
		Logger:    log,
	})
	log.Info("Webhook handler created")

	// Register the webhook and publish the command list with Telegram
	bootstrapTelegram(chatClient, cfg, log)

	// Set Gin mode based on log level
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if sentry.IsEnabled() {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(securityHeadersMiddleware())
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(log))

	setupRoutes(router, webhookHandler, db, registry, cfg)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  timeouts.HTTPRead,
		WriteTimeout: timeouts.HTTPWrite,
		IdleTimeout:  timeouts.HTTPIdle,
	}

	// Background maintenance jobs
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.WithField("panic", r).Error("Panic in search log prune goroutine")
			}
		}()
		pruneSearchLogs(ctx, db, cfg, log)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.WithField("panic", r).Error("Panic in dedup prune goroutine")
			}
		}()
		pruneProcessedUpdates(ctx, db, cfg, log)
	}()

	// Start server
	go func() {
		log.WithField("port", cfg.Port).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	cancel()

	goDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(goDone)
	}()

	select {
	case <-goDone:
		log.Info("Background jobs stopped")
	case <-time.After(5 * time.Second):
		log.Warn("Timeout waiting for background jobs to stop")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	if err := db.Close(); err != nil {
		log.WithError(err).Error("Failed to close database")
	}

	log.Info("Server stopped")
}

// bootstrapTelegram registers the webhook URL (when configured) and publishes
// the command list derived from the dispatch table. Failures are logged but
// not fatal; the operator can re-run registration by restarting.
func bootstrapTelegram(client *telegram.Client, cfg *config.Config, log *logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Bootstrap)
	defer cancel()

	me, err := client.GetMe(ctx)
	if err != nil {
		log.WithError(err).Warn("Bot identity check failed")
	} else {
		log.WithField("bot_username", me.Username).Info("Telegram token verified")
	}

	commands := make([]telegram.BotCommand, 0)
	for _, spec := range bot.CommandList() {
		commands = append(commands, telegram.BotCommand{
			Command:     spec.Name,
			Description: spec.Description,
		})
	}
	current, cmdErr := client.GetMyCommands(ctx)
	if cmdErr == nil && commandsEqual(current, commands) {
		log.Info("Command list already published")
	} else if err := client.SetMyCommands(ctx, commands); err != nil {
		log.WithError(err).Warn("Failed to publish command list")
	}

	if cfg.WebhookURL == "" {
		log.Info("WEBHOOK_URL not set, skipping webhook registration")
		return
	}
	if err := client.SetWebhook(ctx, cfg.WebhookURL); err != nil {
		log.WithError(err).Error("Failed to register webhook")
		return
	}
	log.WithField("url", cfg.WebhookURL).Info("Webhook registered")
}

func commandsEqual(a, b []telegram.BotCommand) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
