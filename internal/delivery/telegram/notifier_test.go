package telegram

import (
	"context"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aliskhannn/gre-quiz-bot/internal/domain/entities"
	"github.com/aliskhannn/gre-quiz-bot/internal/service"
	"github.com/aliskhannn/gre-quiz-bot/internal/storage"
)

const chatID int64 = -1001

func question(token string, remaining int) entities.QuestionView {
	return entities.QuestionView{
		Token:            token,
		Round:            1,
		TotalRounds:      2,
		Word:             "cat",
		Options:          []string{"a feline", "a canine", "a bird"},
		SecondsRemaining: remaining,
	}
}

func TestChatNotifier_SendsThenEdits(t *testing.T) {
	bot := newFakeBot()
	messages := storage.NewMessageStorage()
	n := newChatNotifier(bot, chatID, messages, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, n.RenderQuestion(ctx, question("abc-1", 10)))
	require.NoError(t, n.RenderQuestion(ctx, question("abc-1", 9)))

	require.Len(t, bot.sent, 1)
	msg, ok := bot.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)
	assert.Contains(t, msg.Text, "Time left: 10s")

	kb, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, kb.InlineKeyboard, 1)
	require.Len(t, kb.InlineKeyboard[0], 3)
	assert.Equal(t, "A", kb.InlineKeyboard[0][0].Text)
	require.NotNil(t, kb.InlineKeyboard[0][2].CallbackData)
	assert.Equal(t, "quiz:abc-1:2", *kb.InlineKeyboard[0][2].CallbackData)

	require.Len(t, bot.requests, 1)
	edit, ok := bot.requests[0].(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	assert.Equal(t, 101, edit.MessageID)
	assert.Contains(t, edit.Text, "Time left: 9s")

	stored, ok := messages.Get(chatID)
	require.True(t, ok)
	assert.Equal(t, "abc-1", stored.Token)

	// a new round sends a new message
	require.NoError(t, n.RenderQuestion(ctx, question("abc-2", 10)))
	assert.Len(t, bot.sent, 2)
}

func TestChatNotifier_RoundResultRemovesButtons(t *testing.T) {
	bot := newFakeBot()
	messages := storage.NewMessageStorage()
	n := newChatNotifier(bot, chatID, messages, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, n.RenderQuestion(ctx, question("abc-1", 10)))
	require.NoError(t, n.RenderRoundResult(ctx, entities.RoundResult{
		Round:         1,
		Word:          "cat",
		CorrectAnswer: "a feline",
	}))

	require.Len(t, bot.requests, 1)
	markup, ok := bot.requests[0].(tgbotapi.EditMessageReplyMarkupConfig)
	require.True(t, ok)
	assert.Equal(t, 101, markup.MessageID)

	_, ok = messages.Get(chatID)
	assert.False(t, ok)

	texts := bot.sentTexts()
	require.Len(t, texts, 2)
	assert.Contains(t, texts[1], msgNoAnswers)
}

func TestChatNotifier_ErrorMapping(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		unavailable bool
		ignored     bool
	}{
		{
			name:        "message deleted",
			err:         &tgbotapi.Error{Code: 400, Message: "Bad Request: message to edit not found"},
			unavailable: true,
		},
		{
			name:        "bot kicked",
			err:         &tgbotapi.Error{Code: 403, Message: "Forbidden: bot was kicked from the group chat"},
			unavailable: true,
		},
		{
			name:    "same text",
			err:     &tgbotapi.Error{Code: 400, Message: "Bad Request: message is not modified"},
			ignored: true,
		},
		{
			name:    "rate limited",
			err:     &tgbotapi.Error{Code: 429, Message: "Too Many Requests: retry after 5"},
			ignored: true,
		},
		{
			name: "server error",
			err:  &tgbotapi.Error{Code: 500, Message: "Internal Server Error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bot := newFakeBot()
			messages := storage.NewMessageStorage()
			n := newChatNotifier(bot, chatID, messages, zap.NewNop())
			ctx := context.Background()

			require.NoError(t, n.RenderQuestion(ctx, question("abc-1", 10)))
			bot.requestErr = tt.err

			err := n.RenderQuestion(ctx, question("abc-1", 9))
			switch {
			case tt.ignored:
				assert.NoError(t, err)
			case tt.unavailable:
				assert.ErrorIs(t, err, service.ErrPresentationUnavailable)
			default:
				require.Error(t, err)
				assert.NotErrorIs(t, err, service.ErrPresentationUnavailable)
			}
		})
	}
}

func TestChatNotifier_RateLimitSkipsTicks(t *testing.T) {
	bot := newFakeBot()
	messages := storage.NewMessageStorage()
	n := newChatNotifier(bot, chatID, messages, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, n.RenderQuestion(ctx, question("abc-1", 10)))

	bot.requestErr = &tgbotapi.Error{
		Code:               429,
		Message:            "Too Many Requests: retry after 5",
		ResponseParameters: tgbotapi.ResponseParameters{RetryAfter: 5},
	}
	require.NoError(t, n.RenderQuestion(ctx, question("abc-1", 9)))
	require.Len(t, bot.requests, 1)

	bot.requestErr = nil
	for remaining := 8; remaining > 5; remaining-- {
		require.NoError(t, n.RenderQuestion(ctx, question("abc-1", remaining)))
	}
	assert.Len(t, bot.requests, 1, "no edits while Telegram asks to back off")

	// a new round sends its question regardless
	require.NoError(t, n.RenderQuestion(ctx, question("abc-2", 10)))
	assert.Len(t, bot.sent, 2)
}

func TestChatNotifier_ReportError(t *testing.T) {
	bot := newFakeBot()
	n := newChatNotifier(bot, chatID, storage.NewMessageStorage(), zap.NewNop())

	err := n.ReportError(context.Background(), &service.GroupNotFoundError{
		Name:  "plants",
		Valid: []string{"animals", "colors"},
	})
	require.NoError(t, err)

	texts := bot.sentTexts()
	require.Len(t, texts, 1)
	assert.Equal(t, "❌ Group <code>plants</code> not found! Valid groups: animals, colors", texts[0])
}
