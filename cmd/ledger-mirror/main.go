// Command ledger-mirror consumes row events published by the bot and
// replays them onto a Google Sheet.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"pengeluaran/internal/amqp"
	"pengeluaran/internal/backend"
	"pengeluaran/internal/cache"
	"pengeluaran/internal/cli"
	"pengeluaran/internal/config"
	apphttp "pengeluaran/internal/http"
	applog "pengeluaran/internal/log"
	"pengeluaran/internal/middleware/ratelimit"
	"pengeluaran/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	_ = cli.LoadEnvFile()

	cfg, err := cli.LoadConfig((*config.Config).ValidateMirror)
	if err != nil {
		logger := cli.SetupLogger(os.Stdout, slog.LevelInfo, applog.ComponentWorker)
		cli.Fatal(logger, "Configuration validation failed", err)
	}
	logger := cli.SetupLogger(os.Stdout, cfg.SlogLevel(), applog.ComponentWorker)
	logger.Info("Starting ledger-mirror", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)

	if err := run(cfg, logger); err != nil {
		cli.Fatal(logger, "Mirror stopped with error", err)
	}
	logger.Info("Mirror stopped gracefully")
}

func run(cfg *config.Config, logger *applog.Logger) error {
	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	replicaCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	// The replica is always the sheet and must not publish events of its own.
	replicaCfg.Type = backend.SheetsBackend
	replicaCfg.AMQPURL = ""

	replica, err := backend.NewFactory(logger).CreateBackend(ctx, replicaCfg)
	if err != nil {
		return err
	}
	defer replica.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	mirror := worker.NewMirrorWorker(replica.Store, logger)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:   ":" + cfg.Port,
		Ready:  apphttp.ReadinessCheck(replica.Ping),
		Logger: logger,
		RateLimit: ratelimit.Config{
			RequestsPerMinute: cfg.RateLimitRequestsPerMinute,
			CleanupInterval:   cfg.CacheCleanupInterval,
		},
	})

	caches := cache.NewManager(logger.WithComponent(applog.ComponentCache).Logger)
	for _, c := range replica.Caches {
		caches.Register(c)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := client.ConsumeRowEvents(gctx, mirror.HandleRowEvent)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
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

	return g.Wait()
}
