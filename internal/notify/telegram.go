// Package notify delivers validation failure alerts to operators.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"pubops/internal/config"
)

const telegramMaxMsgLen = 4000

// Notifier sends a short plain-text alert.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// Noop discards every alert. Used when no channel is configured.
type Noop struct{}

func (Noop) Send(context.Context, string) error { return nil }

// Telegram sends alerts to a single chat via the Bot API.
type Telegram struct {
	token  string
	chatID int64
	logger *slog.Logger
}

func NewTelegram(token, chatID string, logger *slog.Logger) (*Telegram, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(chatID), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid telegram chat id %q: %w", chatID, err)
	}
	return &Telegram{token: token, chatID: id, logger: logger}, nil
}

func (t *Telegram) Send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(text) > telegramMaxMsgLen {
		text = text[:telegramMaxMsgLen] + "\n... (truncated)"
	}

	bot, err := tgbotapi.NewBotAPI(t.token)
	if err != nil {
		return fmt.Errorf("telegram bot init: %w", err)
	}

	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	t.logger.Info("alert sent", "channel", "telegram", "chat", t.chatID)
	return nil
}

// FromConfig returns the configured notifier, or Noop when alerting is off.
func FromConfig(cfg config.NotifyConfig, logger *slog.Logger) (Notifier, error) {
	if !cfg.Telegram.Enabled {
		return Noop{}, nil
	}
	return NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, logger)
}
