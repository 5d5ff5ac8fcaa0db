package cli

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aliskhannn/gre-quiz-bot/internal/config"
	"github.com/aliskhannn/gre-quiz-bot/internal/delivery/telegram"
	"github.com/aliskhannn/gre-quiz-bot/internal/logger"
	"github.com/aliskhannn/gre-quiz-bot/internal/repository"
	"github.com/aliskhannn/gre-quiz-bot/internal/service"
	"github.com/aliskhannn/gre-quiz-bot/internal/storage"
)

// NewRunCmd builds the CLI subcommand that starts the bot.
func NewRunCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cmd.Context(), *configPath)
		},
	}
}

func runBot(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	token, err := cfg.Token()
	if err != nil {
		return fmt.Errorf("TELEGRAM_API_TOKEN: %w", err)
	}

	if err := tgbotapi.SetLogger(zap.NewStdLog(log.Named("tgbotapi"))); err != nil {
		return err
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return fmt.Errorf("telegram auth: %w", err)
	}
	bot.Debug = cfg.Telegram.Debug

	log.Info("authorized on telegram", zap.String("account", bot.Self.UserName))

	corpus, err := loadCorpus(ctx, cfg, log)
	if err != nil {
		return err
	}

	ratingStore, err := repository.NewRatingStore(cfg.Ratings.Path, log)
	if err != nil {
		return err
	}

	guard, closeGuard, err := newSessionGuard(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeGuard()

	settings, err := quizSettings(cfg)
	if err != nil {
		return err
	}

	quizService := service.NewQuizService(
		corpus,
		service.NewQuestionSelector(),
		service.NewRoundEngine(cfg.Quiz.Tick, log),
		service.NewRatingEngine(ratingStore, cfg.Rating.KFactor, cfg.Rating.Initial),
		ratingStore,
		storage.NewRoundStorage(),
		guard,
		settings,
		log,
	)

	handler := telegram.NewHandler(
		bot,
		log,
		quizService,
		storage.NewMessageStorage(),
		telegram.Options{
			PollTimeout:        cfg.Telegram.PollTimeout,
			LeaderboardSize:    cfg.Quiz.LeaderboardSize,
			DefaultRounds:      cfg.Quiz.DefaultRounds,
			DefaultRoundLength: cfg.Quiz.DefaultRoundLength,
		},
	)

	if err := handler.RegisterCommands(); err != nil {
		log.Warn("failed to set bot commands", zap.Error(err))
	}

	if err := handler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	log.Info("shutdown signal received")
	return nil
}
