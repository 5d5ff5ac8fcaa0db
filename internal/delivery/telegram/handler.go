package telegram

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Options configure the Telegram handler.
type Options struct {
	PollTimeout        int // long polling timeout in seconds
	LeaderboardSize    int // entries shown by /leaderboard
	DefaultRounds      int // shown in /quizhelp
	DefaultRoundLength int // shown in /quizhelp
}

type Handler struct {
	bot      BotAPI
	logger   *zap.Logger
	quiz     QuizService
	messages MessageStorage
	opts     Options

	background sync.WaitGroup // quizzes and slow commands still running
}

func NewHandler(
	bot BotAPI,
	logger *zap.Logger,
	quiz QuizService,
	messages MessageStorage,
	opts Options,
) *Handler {
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 60
	}
	if opts.LeaderboardSize <= 0 {
		opts.LeaderboardSize = 10
	}

	return &Handler{
		bot:      bot,
		logger:   logger,
		quiz:     quiz,
		messages: messages,
		opts:     opts,
	}
}

// RegisterCommands publishes the command list shown by Telegram clients.
func (h *Handler) RegisterCommands() error {
	commands := []tgbotapi.BotCommand{
		{Command: "startquiz", Description: "Start a quiz: /startquiz [rounds] [round_length] [group]"},
		{Command: "listgroups", Description: "Show available word groups"},
		{Command: "leaderboard", Description: "Show top players"},
		{Command: "quizhelp", Description: "Help"},
	}

	_, err := h.bot.Request(tgbotapi.NewSetMyCommands(commands...))
	return err
}

// Run polls updates until ctx is done, then waits for running quizzes to
// stop.
func (h *Handler) Run(ctx context.Context) error {
	h.logger.Info("telegram handler started")
	defer h.logger.Info("telegram handler stopped")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = h.opts.PollTimeout

	updates := h.bot.GetUpdatesChan(u)
	defer h.background.Wait()
	defer h.bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			h.handleUpdate(ctx, update)
		}
	}
}

func (h *Handler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		h.logger.Debug("callback received",
			zap.Int64("user_id", update.CallbackQuery.From.ID),
			zap.String("data", update.CallbackQuery.Data),
		)
		h.handleCallback(update.CallbackQuery)
		return
	}

	if update.Message == nil {
		h.logger.Debug("update without message and callback")
		return
	}

	if !update.Message.IsCommand() {
		return
	}

	chatID := update.Message.Chat.ID

	h.logger.Debug("command received",
		zap.Int64("chat_id", chatID),
		zap.String("command", update.Message.Command()),
	)

	switch update.Message.Command() {
	case "startquiz":
		h.handleStartQuiz(ctx, chatID, update.Message.CommandArguments())

	case "listgroups":
		_ = h.withErrorHandling(h.listGroupsHandler())(ctx, chatID)

	case "leaderboard":
		// one chat member lookup per entry
		h.handleAsync(ctx, chatID, h.leaderboardHandler())

	case "quizhelp", "help":
		_ = h.withErrorHandling(h.helpHandler())(ctx, chatID)

	case "start":
		_ = h.withErrorHandling(h.textHandler(msgWelcome))(ctx, chatID)

	default:
		if update.Message.Chat.IsPrivate() {
			_ = h.withErrorHandling(h.textHandler(msgUnknownCommand))(ctx, chatID)
		}
	}
}

// handleAsync runs a slow handler off the update loop so answers to running
// rounds are not held up behind it.
func (h *Handler) handleAsync(ctx context.Context, chatID int64, next HandlerFunc) {
	h.background.Add(1)
	go func() {
		defer h.background.Done()
		_ = h.withErrorHandling(next)(ctx, chatID)
	}()
}

func (h *Handler) sendError(chatID int64, err string) {
	msg := newHTMLMessage(chatID, err)
	_ = h.send(msg)
}

func (h *Handler) send(c tgbotapi.Chattable) error {
	if _, err := h.bot.Send(c); err != nil {
		h.logger.Error("failed to send telegram message",
			zap.Error(err),
		)
		return err
	}
	return nil
}
