package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/gre-quiz-bot/internal/domain/entities"
)

// buildAnswerKeyboard builds one row of lettered buttons, one per option.
func buildAnswerKeyboard(token string, options int) tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, options)
	for i := 0; i < options; i++ {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			entities.OptionLabel(i),
			buildQuizAnswerCallback(token, i),
		))
	}

	return tgbotapi.NewInlineKeyboardMarkup(row)
}

// emptyKeyboard removes the buttons of an edited message.
func emptyKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
	}
}
