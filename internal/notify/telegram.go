// Package notify posts operational events (subscription activations, failed jobs) to a Telegram chat.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/digkill/futurepro/internal/config"
	"github.com/digkill/futurepro/internal/service"
)

type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
	log    *slog.Logger
}

// New returns a Telegram notifier when a bot token and chat id are configured, a no-op otherwise.
func New(cfg config.Config, log *slog.Logger) (service.Notifier, error) {
	if !cfg.TelegramEnabled() {
		return service.NopNotifier{}, nil
	}
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("init telegram api: %w", err)
	}
	log.Info("telegram notifier enabled", "bot", api.Self.UserName, "chat_id", cfg.TelegramAlertChatID)
	return NewTelegram(api, cfg.TelegramAlertChatID, log), nil
}

func NewTelegram(api *tgbotapi.BotAPI, chatID int64, log *slog.Logger) *Telegram {
	return &Telegram{api: api, chatID: chatID, log: log}
}

func (t *Telegram) Notify(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
