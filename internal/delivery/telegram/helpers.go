package telegram

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/gre-quiz-bot/internal/domain/entities"
	"github.com/aliskhannn/gre-quiz-bot/internal/service"
)

func newHTMLMessage(chatID int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	return msg
}

// toUser converts a Telegram user into a quiz participant.
func toUser(u *tgbotapi.User) entities.User {
	if u == nil {
		return entities.User{}
	}

	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.UserName
	}

	return entities.User{ID: u.ID, Name: name}
}

// Telegram error descriptions that mean the chat or message can no longer be
// written to.
var unavailableDescriptions = []string{
	"message to edit not found",
	"message can't be edited",
	"chat not found",
	"bot was kicked",
	"bot was blocked",
	"have no rights to send",
}

// rateLimited reports whether Telegram throttled the request and for how
// long it asked us to back off.
func rateLimited(err error) (time.Duration, bool) {
	var tgErr *tgbotapi.Error
	if !errors.As(err, &tgErr) {
		return 0, false
	}
	if tgErr.Code != 429 && tgErr.RetryAfter <= 0 {
		return 0, false
	}

	wait := time.Duration(tgErr.RetryAfter) * time.Second
	if wait <= 0 {
		wait = time.Second
	}
	return wait, true
}

// classifyError maps Telegram API errors onto the notifier contract:
// unchanged edits are not errors, and gone messages or chats become
// service.ErrPresentationUnavailable.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var tgErr *tgbotapi.Error
	if !errors.As(err, &tgErr) {
		return err
	}

	desc := strings.ToLower(tgErr.Message)
	if strings.Contains(desc, "message is not modified") {
		return nil
	}

	if tgErr.Code == 403 {
		return fmt.Errorf("%w: %s", service.ErrPresentationUnavailable, tgErr.Message)
	}
	for _, d := range unavailableDescriptions {
		if strings.Contains(desc, d) {
			return fmt.Errorf("%w: %s", service.ErrPresentationUnavailable, tgErr.Message)
		}
	}

	return err
}
