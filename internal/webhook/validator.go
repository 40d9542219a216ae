package webhook

import (
	"strconv"

	"github.com/telelocator/telelocator-go/internal/bot"
	apperrors "github.com/telelocator/telelocator-go/internal/errors"
	"github.com/telelocator/telelocator-go/internal/telegram"
)

// Validate checks an update for the fields dispatch requires and produces a
// typed event. A validation error is not a failure: the caller acknowledges
// the update and drops it, so the platform has no reason to redeliver.
func Validate(update *telegram.Update) (*bot.InboundEvent, error) {
	if update == nil || update.Message == nil {
		return nil, apperrors.NewValidationError("message", "missing")
	}

	msg := update.Message
	if msg.From == nil {
		return nil, apperrors.NewValidationError("message.from", "missing")
	}
	if msg.Chat == nil {
		return nil, apperrors.NewValidationError("message.chat", "missing")
	}

	return &bot.InboundEvent{
		UpdateID:  update.UpdateID,
		UserID:    strconv.FormatInt(msg.From.ID, 10),
		ChatID:    msg.Chat.ID,
		Username:  msg.From.Username,
		FirstName: msg.From.FirstName,
		Text:      msg.Text,
		Location:  msg.Location,
	}, nil
}
