// Command pengeluaran runs the Telegram expense bot.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"pengeluaran/internal/backend"
	"pengeluaran/internal/bot"
	"pengeluaran/internal/cache"
	"pengeluaran/internal/cli"
	"pengeluaran/internal/config"
	apphttp "pengeluaran/internal/http"
	"pengeluaran/internal/ledger"
	applog "pengeluaran/internal/log"
	"pengeluaran/internal/middleware/ratelimit"
)

const shutdownTimeout = 30 * time.Second

func main() {
	_ = cli.LoadEnvFile()

	cfg, err := cli.LoadConfig((*config.Config).ValidateBot)
	if err != nil {
		logger := cli.SetupLogger(os.Stdout, slog.LevelInfo, applog.ComponentApp)
		cli.Fatal(logger, "Configuration validation failed", err)
	}
	logger := cli.SetupLogger(os.Stdout, cfg.SlogLevel(), applog.ComponentApp)
	logger.Info("Starting pengeluaran", "backend", cfg.DataBackend, "mode", cfg.BotMode, "timezone", cfg.Timezone)

	if err := run(cfg, logger); err != nil {
		cli.Fatal(logger, "Bot stopped with error", err)
	}
	logger.Info("Bot stopped gracefully")
}

func run(cfg *config.Config, logger *applog.Logger) error {
	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	store, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("Backend cleanup failed", applog.FieldError, err)
		}
	}()

	engine := ledger.NewEngine(store.Store,
		ledger.WithLocation(cfg.Location()),
		ledger.WithLogger(logger.WithComponent(applog.ComponentLedger).Logger))

	api, err := tgbotapi.NewBotAPI(cfg.BotAPIToken)
	if err != nil {
		return err
	}
	logger.Info("Authorized on Telegram", "bot", api.Self.UserName)

	handler := bot.NewHandler(api, engine, logger)
	webhooks := bot.Webhooks{Sender: api}

	opts := apphttp.Options{
		Addr:   ":" + cfg.Port,
		Ready:  apphttp.ReadinessCheck(store.Ping),
		Logger: logger,
		RateLimit: ratelimit.Config{
			RequestsPerMinute: cfg.RateLimitRequestsPerMinute,
			CleanupInterval:   cfg.CacheCleanupInterval,
		},
	}
	if cfg.BotMode == config.ModeWebhook {
		opts.Updates = handler
		opts.Webhooks = webhooks
		opts.WebhookURL = cfg.WebhookURL
	}
	srv := apphttp.NewServer(opts)

	caches := cache.NewManager(logger.WithComponent(applog.ComponentCache).Logger)
	for _, c := range store.Caches {
		caches.Register(c)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !apphttp.IsServerClosed(err) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return caches.Run(gctx, cfg.CacheCleanupInterval)
	})

	switch cfg.BotMode {
	case config.ModeWebhook:
		if err := webhooks.SetWebhook(cfg.WebhookURL); err != nil {
			logger.Error("Failed to register webhook; use /set_webhook to retry", applog.FieldError, err)
		} else {
			logger.Info("Webhook registered", "url", cfg.WebhookURL)
		}
	default:
		if err := webhooks.RemoveWebhook(); err != nil {
			logger.Warn("Failed to clear webhook before polling", applog.FieldError, err)
		}
		poller := bot.NewPoller(api, handler, logger)
		g.Go(func() error {
			err := poller.Run(gctx)
			cancel()
			return err
		})
	}

	return g.Wait()
}
