package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	applog "pengeluaran/internal/log"
)

// PollTimeout is the long-polling timeout in seconds.
const PollTimeout = 60

// UpdateSource is the long-polling part of *tgbotapi.BotAPI.
type UpdateSource interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Poller feeds long-polled updates to a Handler, one at a time.
type Poller struct {
	source  UpdateSource
	handler *Handler
	logger  *applog.Logger
}

func NewPoller(source UpdateSource, handler *Handler, logger *applog.Logger) *Poller {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Poller{source: source, handler: handler, logger: logger.WithComponent(applog.ComponentBot)}
}

// Run blocks until ctx is cancelled or the update channel closes.
func (p *Poller) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = PollTimeout

	updates := p.source.GetUpdatesChan(u)
	defer p.source.StopReceivingUpdates()

	p.logger.Info("Polling for updates", "timeout_s", PollTimeout)
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Polling stopped")
			return nil
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			if err := p.handler.HandleUpdate(ctx, upd); err != nil {
				p.logger.ErrorContext(ctx, "Failed to handle update", "update_id", upd.UpdateID, applog.FieldError, err)
			}
		}
	}
}

// SetWebhook registers url as the Telegram webhook.
func SetWebhook(sender Sender, url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("build webhook config: %w", err)
	}
	resp, err := sender.Request(wh)
	if err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	if resp != nil && !resp.Ok {
		return fmt.Errorf("set webhook: %s", resp.Description)
	}
	return nil
}

// RemoveWebhook deletes the registered webhook so polling can be used again.
func RemoveWebhook(sender Sender) error {
	resp, err := sender.Request(tgbotapi.DeleteWebhookConfig{})
	if err != nil {
		return fmt.Errorf("remove webhook: %w", err)
	}
	if resp != nil && !resp.Ok {
		return fmt.Errorf("remove webhook: %s", resp.Description)
	}
	return nil
}

// Webhooks exposes SetWebhook and RemoveWebhook as methods on a Sender.
type Webhooks struct {
	Sender Sender
}

func (w Webhooks) SetWebhook(url string) error { return SetWebhook(w.Sender, url) }

func (w Webhooks) RemoveWebhook() error { return RemoveWebhook(w.Sender) }
