package telegram

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/gre-quiz-bot/internal/domain/entities"
)

// chatNotifier renders the events of one quiz session into one chat.
// The first render of a round sends the question; later ticks of the same
// round edit that message. Edits are skipped while Telegram rate limits
// the chat; the window keeps running and the next allowed tick catches up.
type chatNotifier struct {
	bot      BotAPI
	chatID   int64
	messages MessageStorage
	logger   *zap.Logger

	// written only by the countdown of the running round
	editsPausedUntil time.Time
}

func newChatNotifier(bot BotAPI, chatID int64, messages MessageStorage, logger *zap.Logger) *chatNotifier {
	return &chatNotifier{
		bot:      bot,
		chatID:   chatID,
		messages: messages,
		logger:   logger.With(zap.Int64("chat_id", chatID)),
	}
}

func (n *chatNotifier) Announce(_ context.Context, a entities.Announcement) error {
	return n.sendText(formatAnnouncement(a))
}

func (n *chatNotifier) RenderQuestion(ctx context.Context, v entities.QuestionView) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	text := formatQuestion(v)
	kb := buildAnswerKeyboard(v.Token, len(v.Options))

	prev, ok := n.messages.Get(n.chatID)
	if !ok || prev.Token != v.Token {
		msg := newHTMLMessage(n.chatID, text)
		msg.ReplyMarkup = kb

		sent, err := n.bot.Send(msg)
		if err != nil {
			return classifyError(fmt.Errorf("send question: %w", err))
		}

		n.messages.Store(n.chatID, v.Token, sent.MessageID)
		return nil
	}

	if time.Now().Before(n.editsPausedUntil) {
		return nil
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(n.chatID, prev.MessageID, text, kb)
	edit.ParseMode = tgbotapi.ModeHTML

	if _, err := n.bot.Request(edit); err != nil {
		if wait, ok := rateLimited(err); ok {
			n.editsPausedUntil = time.Now().Add(wait)
			n.logger.Debug("countdown edit rate limited",
				zap.Duration("retry_after", wait),
				zap.Int("seconds_remaining", v.SecondsRemaining),
			)
			return nil
		}
		return classifyError(fmt.Errorf("edit question: %w", err))
	}

	return nil
}

func (n *chatNotifier) RenderRoundResult(_ context.Context, r entities.RoundResult) error {
	n.closeQuestion()
	return n.sendText(formatRoundResult(r))
}

func (n *chatNotifier) RenderFinalScores(_ context.Context, ranked []entities.PlayerScore) error {
	return n.sendText(formatFinalScores(ranked))
}

func (n *chatNotifier) RenderRatings(_ context.Context, ratings []entities.PlayerRating) error {
	return n.sendText(formatRatings(ratings))
}

func (n *chatNotifier) ReportError(_ context.Context, err error) error {
	return n.sendText(formatError(err))
}

// closeQuestion removes the answer buttons of the last question.
func (n *chatNotifier) closeQuestion() {
	prev, ok := n.messages.Get(n.chatID)
	if !ok {
		return
	}
	n.messages.Delete(n.chatID)

	edit := tgbotapi.NewEditMessageReplyMarkup(n.chatID, prev.MessageID, emptyKeyboard())
	if _, err := n.bot.Request(edit); classifyError(err) != nil {
		n.logger.Debug("failed to remove answer buttons",
			zap.Int("message_id", prev.MessageID),
			zap.Error(err),
		)
	}
}

func (n *chatNotifier) sendText(text string) error {
	if _, err := n.bot.Send(newHTMLMessage(n.chatID, text)); err != nil {
		return classifyError(fmt.Errorf("send message: %w", err))
	}
	return nil
}
