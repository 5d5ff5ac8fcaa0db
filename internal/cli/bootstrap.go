package cli

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aliskhannn/gre-quiz-bot/internal/config"
	"github.com/aliskhannn/gre-quiz-bot/internal/infra/postgres"
	pgrepo "github.com/aliskhannn/gre-quiz-bot/internal/infra/postgres/repository"
	redisguard "github.com/aliskhannn/gre-quiz-bot/internal/infra/redis"
	"github.com/aliskhannn/gre-quiz-bot/internal/infra/xlsx"
	"github.com/aliskhannn/gre-quiz-bot/internal/infra/yamlcorpus"
	"github.com/aliskhannn/gre-quiz-bot/internal/repository"
	"github.com/aliskhannn/gre-quiz-bot/internal/service"
	"github.com/aliskhannn/gre-quiz-bot/internal/storage"
)

// loadCorpus builds the corpus from the configured source.
func loadCorpus(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*repository.Corpus, error) {
	var source service.CorpusSource

	switch cfg.Corpus.Source {
	case config.CorpusSourceXLSX:
		source = xlsx.NewSource(cfg.Corpus.Path, cfg.Corpus.FallbackPath, logger)

	case config.CorpusSourceYAML:
		source = yamlcorpus.NewSource(cfg.Corpus.Path)

	case config.CorpusSourcePostgres:
		dsn, err := cfg.DB.DSN()
		if err != nil {
			return nil, err
		}

		pool, err := postgres.NewPool(ctx, dsn, postgres.PoolConfig{
			MaxConns:        int32(cfg.DB.MaxConnections),
			MaxConnLifetime: cfg.DB.MaxConnLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", repository.ErrCorpusLoad, err)
		}
		// The corpus is immutable after load.
		defer pool.Close()

		source = pgrepo.NewCorpusRepository(postgres.NewTransactor(pool))

	default:
		return nil, fmt.Errorf("%w: unknown corpus source %q", config.ErrInvalidConfig, cfg.Corpus.Source)
	}

	data, err := source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", repository.ErrCorpusLoad, err)
	}

	corpus, err := repository.NewCorpus(data)
	if err != nil {
		return nil, err
	}

	if corpus.FallbackFromAll() {
		logger.Warn("no fallback word list, quizzes without a group use all groups")
	}

	logger.Info("corpus loaded",
		zap.String("source", cfg.Corpus.Source),
		zap.Int("groups", len(corpus.GroupNames())),
		zap.Int("words", len(corpus.All())),
	)

	return corpus, nil
}

// newSessionGuard returns the Redis lock when Redis is configured and the
// in-process lock otherwise. The returned func releases its resources.
func newSessionGuard(ctx context.Context, cfg *config.Config, logger *zap.Logger) (service.SessionGuard, func(), error) {
	if cfg.Redis.Addr == "" {
		return storage.NewSessionLocks(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}

	logger.Info("using redis session lock", zap.String("addr", cfg.Redis.Addr))

	closeFn := func() {
		if err := client.Close(); err != nil {
			logger.Warn("failed to close redis client", zap.Error(err))
		}
	}

	return redisguard.NewSessionGuard(client, cfg.Redis.LockTTL), closeFn, nil
}

func quizSettings(cfg *config.Config) (service.QuizSettings, error) {
	policy, err := service.ParseConcurrencyPolicy(cfg.Quiz.Concurrency)
	if err != nil {
		return service.QuizSettings{}, err
	}

	s := service.DefaultQuizSettings()
	s.DefaultRounds = cfg.Quiz.DefaultRounds
	s.DefaultRoundLength = cfg.Quiz.DefaultRoundLength
	s.MaxRounds = cfg.Quiz.MaxRounds
	s.MaxRoundLength = cfg.Quiz.MaxRoundLength
	s.Pause = cfg.Quiz.Pause
	s.Policy = policy

	return s, nil
}
