package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	applog "pengeluaran/internal/log"
)

const indexText = "Expense Tracker Bot is running!"

// updateTimeout bounds how long one update may keep the webhook request open.
const updateTimeout = 50 * time.Second

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, indexText)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, "ok")
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			writeText(w, http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	writeText(w, http.StatusOK, "ready")
}

// handleWebhook accepts only JSON bodies. Once the body is read the response is
// always 200 so Telegram never redelivers an update that failed to process.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	logger := applog.FromContext(r.Context())

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		logger.WarnContext(r.Context(), "Webhook rejected non-JSON request", "content_type", r.Header.Get("Content-Type"))
		writeText(w, http.StatusForbidden, "forbidden")
		return
	}

	var upd tgbotapi.Update
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpdateBytes))
	if err := dec.Decode(&upd); err != nil {
		logger.ErrorContext(r.Context(), "Failed to decode update",
			applog.NewFields().WithOperation(applog.OpWebhook).WithError(err).ToSlice()...)
		w.WriteHeader(http.StatusOK)
		return
	}
	logger.DebugContext(r.Context(), "Webhook received update", "update_id", upd.UpdateID)

	// Processing continues even if Telegram hangs up early.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), updateTimeout)
	defer cancel()
	if err := s.updates.HandleUpdate(ctx, upd); err != nil {
		logger.ErrorContext(r.Context(), "Error processing update",
			applog.NewFields().WithOperation(applog.OpWebhook).WithError(err).ToSlice()...)
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleSetWebhook(w http.ResponseWriter, r *http.Request) {
	if s.webhookURL == "" {
		writeText(w, http.StatusInternalServerError, "Failed to set webhook: WEBHOOK_URL is not configured")
		return
	}
	// A stale registration would otherwise keep pointing at the old URL.
	if err := s.webhooks.RemoveWebhook(); err != nil {
		s.logger.WarnContext(r.Context(), "Failed to remove previous webhook", applog.FieldError, err)
	}
	if err := s.webhooks.SetWebhook(s.webhookURL); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to set webhook", applog.FieldError, err)
		writeText(w, http.StatusInternalServerError, "Failed to set webhook")
		return
	}
	s.logger.InfoContext(r.Context(), "Webhook registered", "url", s.webhookURL)
	writeText(w, http.StatusOK, fmt.Sprintf("Webhook set to: %s", s.webhookURL))
}

func (s *Server) handleRemoveWebhook(w http.ResponseWriter, r *http.Request) {
	if err := s.webhooks.RemoveWebhook(); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to remove webhook", applog.FieldError, err)
		writeText(w, http.StatusInternalServerError, "Failed to remove webhook")
		return
	}
	writeText(w, http.StatusOK, "Webhook removed.")
}

// IsServerClosed reports whether err only signals a graceful shutdown.
func IsServerClosed(err error) bool {
	return errors.Is(err, http.ErrServerClosed)
}
