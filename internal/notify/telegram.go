package notify

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tradeplusonline/accessbot/models"
)

var expiringSoonText = map[string]string{
	"uk": "⚠️ Завтра завершується підписка! Продовжіть її, щоб не втратити доступ.",
	"ru": "⚠️ Завтра заканчивается подписка! Продлите её, чтобы не потерять доступ.",
	"en": "⚠️ Your subscription expires tomorrow! Renew it to keep your access.",
}

// Telegram delivers sweep notices through the bot API.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	logger zerolog.Logger
}

// NewTelegram creates a Telegram notifier around an authorized bot.
func NewTelegram(bot *tgbotapi.BotAPI) *Telegram {
	return &Telegram{
		bot:    bot,
		logger: log.With().Str("component", "notifier").Logger(),
	}
}

// NotifyExpiringSoon sends the near-expiry warning in the user's language.
// The bot API client has no context support, so the send runs in a goroutine
// and the caller's deadline only bounds how long we wait for it.
func (t *Telegram) NotifyExpiringSoon(ctx context.Context, ent models.Entitlement) error {
	text, ok := expiringSoonText[ent.Lang]
	if !ok {
		text = expiringSoonText["uk"]
	}

	msg := tgbotapi.NewMessage(ent.ChatID, text)

	done := make(chan error, 1)
	go func() {
		_, err := t.bot.Send(msg)
		done <- err
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return err
		}
	}

	t.logger.Debug().Int64("user_id", ent.UserID).Msg("Near-expiry notice delivered")
	return nil
}
