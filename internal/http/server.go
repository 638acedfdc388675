// Package http serves the Telegram webhook plus liveness and readiness probes.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	applog "pengeluaran/internal/log"
	"pengeluaran/internal/middleware/ratelimit"
	"pengeluaran/internal/middleware/security"
	"pengeluaran/internal/middleware/trace"
)

// maxUpdateBytes bounds a single webhook body.
const maxUpdateBytes = 1 << 20

// UpdateHandler consumes one decoded Telegram update.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, upd tgbotapi.Update) error
}

// WebhookManager registers and removes the bot webhook.
type WebhookManager interface {
	SetWebhook(url string) error
	RemoveWebhook() error
}

// ReadinessCheck reports whether the ledger backend can serve requests.
type ReadinessCheck func(ctx context.Context) error

// Options wires the server. Updates and Webhooks are optional: without them
// only the probe endpoints are mounted, which is how polling mode runs.
type Options struct {
	Addr       string
	Updates    UpdateHandler
	Webhooks   WebhookManager
	WebhookURL string
	Ready      ReadinessCheck
	Logger     *applog.Logger
	RateLimit  ratelimit.Config
}

type Server struct {
	http.Server
	updates    UpdateHandler
	webhooks   WebhookManager
	webhookURL string
	ready      ReadinessCheck
	logger     *applog.Logger

	rateLimiter  *ratelimit.Limiter
	detector     *security.Detector
	tracer       *trace.Middleware
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	detector := security.NewDetector(logger)
	s := &Server{
		updates:     opts.Updates,
		webhooks:    opts.Webhooks,
		webhookURL:  opts.WebhookURL,
		ready:       opts.Ready,
		logger:      logger,
		rateLimiter: ratelimit.NewLimiter(opts.RateLimit),
		detector:    detector,
		tracer:      trace.NewMiddleware(detector.ExtractClientIP, logger),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	if s.updates != nil {
		mux.Handle("POST /webhook", s.rateLimiter.Middleware(detector.ExtractClientIP, nil)(http.HandlerFunc(s.handleWebhook)))
	}
	if s.webhooks != nil {
		mux.HandleFunc("GET /set_webhook", s.handleSetWebhook)
		mux.HandleFunc("GET /remove_webhook", s.handleRemoveWebhook)
	}

	var h http.Handler = mux
	h = detector.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter, gracefully drains the server and logs the
// request counters gathered over its lifetime.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
		s.logMetrics()
	})
	return err
}

func (s *Server) logMetrics() {
	req, sec, limited := s.Metrics()
	s.logger.Info("HTTP server stopped",
		"total_requests", req.TotalRequests,
		"failed_requests", req.FailedRequests,
		"suspicious_requests", sec.SuspiciousRequests,
		"blocked_requests", sec.BlockedRequests,
		"rate_limited_requests", limited)
}

// Metrics exposes the request, security and rate-limit counters.
func (s *Server) Metrics() (trace.Metrics, security.DetectionMetrics, int64) {
	return s.tracer.GetMetrics(), s.detector.GetMetrics(), s.rateLimiter.Hits()
}
