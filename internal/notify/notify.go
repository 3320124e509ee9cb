// Package notify delivers best-effort operator notifications.
package notify

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Notification is one message to a business operator.
type Notification struct {
	BusinessID string
	Subject    string
	Body       string
}

func (n Notification) text() string {
	if n.Subject == "" {
		return n.Body
	}
	return n.Subject + "\n\n" + n.Body
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Nop drops every notification.
type Nop struct{}

func (Nop) Notify(context.Context, Notification) error { return nil }

// sender is the part of the bot API the notifier needs.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts notifications to one chat.
type TelegramNotifier struct {
	api    sender
	chatID int64
	logger *zap.Logger
}

func NewTelegramNotifier(botToken string, chatID int64, logger *zap.Logger) (*TelegramNotifier, error) {
	botAPI, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot API: %w", err)
	}
	logger.Info("Telegram notifier authorized", zap.String("username", botAPI.Self.UserName))
	return &TelegramNotifier{api: botAPI, chatID: chatID, logger: logger}, nil
}

func (t *TelegramNotifier) Notify(_ context.Context, n Notification) error {
	msg := tgbotapi.NewMessage(t.chatID, n.text())
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram notification: %w", err)
	}
	return nil
}

// Async sends n in the background. Failures are logged and never returned.
func Async(notifier Notifier, logger *zap.Logger, n Notification) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := notifier.Notify(ctx, n); err != nil {
			logger.Warn("Notification failed",
				zap.String("business_id", n.BusinessID),
				zap.String("subject", n.Subject),
				zap.Error(err))
		}
	}()
}
