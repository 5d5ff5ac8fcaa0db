package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/gre-quiz-bot/internal/domain/entities"
	"github.com/aliskhannn/gre-quiz-bot/internal/service"
)

var errBadArguments = errors.New("bad arguments")

// parseStartQuizArgs parses "[rounds] [round_length] [groupname]".
// Omitted numbers are left zero so the service applies its defaults.
func parseStartQuizArgs(args string) (entities.QuizParams, error) {
	var p entities.QuizParams

	fields := strings.Fields(args)
	if len(fields) > 3 {
		return p, fmt.Errorf("%w: too many arguments", errBadArguments)
	}

	if len(fields) > 0 {
		n, err := strconv.Atoi(fields[0])
		if err != nil {
			return p, fmt.Errorf("%w: rounds must be a number", errBadArguments)
		}
		p.Rounds = n
	}

	if len(fields) > 1 {
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return p, fmt.Errorf("%w: round length must be a number", errBadArguments)
		}
		p.RoundLength = n
	}

	if len(fields) > 2 {
		p.Group = fields[2]
	}

	return p, nil
}

// handleStartQuiz runs the quiz in its own goroutine so updates, including
// answers to this quiz, keep being processed.
func (h *Handler) handleStartQuiz(ctx context.Context, chatID int64, args string) {
	params, err := parseStartQuizArgs(args)
	if err != nil {
		h.sendError(chatID, esc(msgStartQuizUsage))
		return
	}

	notifier := newChatNotifier(h.bot, chatID, h.messages, h.logger)

	h.background.Add(1)
	go func() {
		defer h.background.Done()

		err := h.quiz.StartSession(ctx, chatID, params, notifier)
		switch {
		case err == nil:
		case errors.Is(err, context.Canceled),
			errors.Is(err, service.ErrGroupNotFound),
			errors.Is(err, service.ErrInvalidParams),
			errors.Is(err, service.ErrQuizInProgress):
			h.logger.Info("quiz not completed",
				zap.Int64("chat_id", chatID),
				zap.Error(err),
			)
		default:
			h.logger.Error("quiz failed",
				zap.Int64("chat_id", chatID),
				zap.Error(err),
			)
		}
	}()
}

func (h *Handler) listGroupsHandler() HandlerFunc {
	return func(_ context.Context, chatID int64) error {
		return h.send(newHTMLMessage(chatID, formatGroups(h.quiz.GroupNames())))
	}
}

// leaderboardHandler shows the top ratings. Users who cannot be resolved as
// members of the chat are left out.
func (h *Handler) leaderboardHandler() HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		top := h.quiz.Leaderboard(h.opts.LeaderboardSize)
		if len(top) == 0 {
			return h.send(newHTMLMessage(chatID, msgNoRatings))
		}

		named := make([]entities.PlayerRating, 0, len(top))
		for _, pr := range top {
			if err := ctx.Err(); err != nil {
				return err
			}

			member, err := h.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
				ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
					ChatID: chatID,
					UserID: pr.User.ID,
				},
			})
			if err != nil || member.User == nil {
				h.logger.Debug("skipping unresolved leaderboard user",
					zap.Int64("chat_id", chatID),
					zap.Int64("user_id", pr.User.ID),
					zap.Error(err),
				)
				continue
			}

			pr.User = toUser(member.User)
			named = append(named, pr)
		}

		return h.send(newHTMLMessage(chatID, formatLeaderboard(named)))
	}
}

func (h *Handler) helpHandler() HandlerFunc {
	return func(_ context.Context, chatID int64) error {
		text := fmt.Sprintf(msgHelp, h.opts.DefaultRounds, h.opts.DefaultRoundLength, h.opts.LeaderboardSize)
		return h.send(newHTMLMessage(chatID, text))
	}
}

func (h *Handler) textHandler(text string) HandlerFunc {
	return func(_ context.Context, chatID int64) error {
		return h.send(newHTMLMessage(chatID, text))
	}
}
