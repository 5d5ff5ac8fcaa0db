package telegram

import (
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/gre-quiz-bot/internal/domain/entities"
)

func (h *Handler) handleCallback(cb *tgbotapi.CallbackQuery) {
	text := h.quizAnswerToast(cb)

	answer := tgbotapi.NewCallback(cb.ID, text)
	if _, err := h.bot.Request(answer); err != nil {
		h.logger.Warn("callback answer error",
			zap.String("callback_id", cb.ID),
			zap.Error(err),
		)
	}
}

// quizAnswerToast records a quiz answer and returns the text shown only to
// the user who pressed the button.
func (h *Handler) quizAnswerToast(cb *tgbotapi.CallbackQuery) string {
	token, idx, ok := parseQuizAnswer(decodeCallback(cb.Data))
	if !ok {
		return ""
	}
	if cb.Message == nil || cb.Message.Chat == nil {
		return toastRoundOver
	}

	chatID := cb.Message.Chat.ID
	user := toUser(cb.From)

	res, choice, err := h.quiz.SubmitAnswer(chatID, token, user, idx)
	if errors.Is(err, entities.ErrInvalidOption) {
		return toastUnknownOption
	}
	if err != nil {
		h.logger.Error("failed to submit answer",
			zap.Int64("chat_id", chatID),
			zap.Int64("user_id", user.ID),
			zap.Error(err),
		)
		return msgInternalError
	}

	switch res {
	case entities.SubmitAccepted:
		h.logger.Debug("answer accepted",
			zap.Int64("chat_id", chatID),
			zap.Int64("user_id", user.ID),
			zap.String("token", token),
		)
		return formatChoiceToast(choice)
	case entities.SubmitAlreadyAnswered:
		return toastAlreadyAnswered
	default:
		return toastRoundOver
	}
}
