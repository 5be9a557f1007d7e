// Package notify sends completed booking selections to an admin chat.
package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/AdiYohanes/mge-booking/internal/booking"
)

// Telegram notifies an admin chat about completed selections. A nil
// *Telegram is a no-op, so callers can wire it unconditionally.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *zerolog.Logger
}

// NewTelegram creates a notifier, or nil when no token is configured.
func NewTelegram(token string, chatID int64, logger *zerolog.Logger) (*Telegram, error) {
	if token == "" || chatID == 0 {
		return nil, nil
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID, logger: logger}, nil
}

// SelectionComplete sends a summary of the finished selection. Send
// failures are logged and swallowed; notifications never fail the flow.
func (t *Telegram) SelectionComplete(snap booking.Snapshot) {
	if t == nil {
		return
	}

	text := fmt.Sprintf(
		"New booking selection\n\nUnit: %d\nDate: %s\nStart: %s\nDuration: %dh\nEnds: %s",
		snap.UnitID,
		snap.Date.Format("2006-01-02"),
		snap.SelectedTime,
		snap.DurationHours,
		snap.EndTime.Format("2006-01-02 15:04"),
	)

	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.bot.Send(msg); err != nil {
		t.logger.Error().Err(err).Msg("telegram notification failed")
	}
}
