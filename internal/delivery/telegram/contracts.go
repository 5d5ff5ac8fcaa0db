package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/gre-quiz-bot/internal/domain/entities"
	"github.com/aliskhannn/gre-quiz-bot/internal/service"
	"github.com/aliskhannn/gre-quiz-bot/internal/storage"
)

// BotAPI is the part of *tgbotapi.BotAPI the handler uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
}

type QuizService interface {
	StartSession(ctx context.Context, chatID int64, params entities.QuizParams, n service.Notifier) error
	SubmitAnswer(chatID int64, token string, user entities.User, index int) (entities.SubmitResult, string, error)
	GroupNames() []string
	Leaderboard(n int) []entities.PlayerRating
}

type MessageStorage interface {
	Store(chatID int64, token string, messageID int)
	Get(chatID int64) (storage.QuestionMessage, bool)
	Delete(chatID int64)
}
