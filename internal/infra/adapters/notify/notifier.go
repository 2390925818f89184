package notify

import (
	"context"
	"errors"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"workforce-billing/internal/config"
	"workforce-billing/internal/domain/ports/adapter"
)

var _ adapter.Notifier = (*TelegramNotifier)(nil)

// TelegramNotifier posts operational alerts to a single ops chat.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramNotifier(cfg config.TelegramConfig) (*TelegramNotifier, error) {
	return NewTelegramNotifierWithEndpoint(cfg, tgbotapi.APIEndpoint, &http.Client{Timeout: 10 * time.Second})
}

// NewTelegramNotifierWithEndpoint lets tests point the bot at a fake API.
func NewTelegramNotifierWithEndpoint(cfg config.TelegramConfig, endpoint string, client *http.Client) (*TelegramNotifier, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram token is empty")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram chat id is empty")
	}
	bot, err := tgbotapi.NewBotAPIWithClient(cfg.Token, endpoint, client)
	if err != nil {
		return nil, err
	}
	return &TelegramNotifier{bot: bot, chatID: cfg.ChatID}, nil
}

func (n *TelegramNotifier) Notify(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.DisableWebPagePreview = true
	_, err := n.bot.Send(msg)
	return err
}

var _ adapter.Notifier = (*NoopNotifier)(nil)

// NoopNotifier logs alerts instead of sending them.
type NoopNotifier struct {
	log *zerolog.Logger
}

func NewNoopNotifier(log *zerolog.Logger) *NoopNotifier {
	return &NoopNotifier{log: log}
}

func (n *NoopNotifier) Notify(_ context.Context, text string) error {
	if n.log != nil {
		n.log.Info().Str("notifier", "noop").Msg(text)
	}
	return nil
}
