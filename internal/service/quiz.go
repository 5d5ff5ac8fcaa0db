package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aliskhannn/gre-quiz-bot/internal/domain/entities"
)

// ConcurrencyPolicy decides what happens when a quiz is started in a chat
// that already runs one.
type ConcurrencyPolicy string

const (
	PolicySerialize ConcurrencyPolicy = "serialize" // wait for the running quiz to finish
	PolicyReject    ConcurrencyPolicy = "reject"    // refuse the new quiz
)

// ParseConcurrencyPolicy validates a policy name from configuration.
func ParseConcurrencyPolicy(s string) (ConcurrencyPolicy, error) {
	switch ConcurrencyPolicy(s) {
	case PolicySerialize, PolicyReject:
		return ConcurrencyPolicy(s), nil
	case "":
		return PolicySerialize, nil
	default:
		return "", fmt.Errorf("unknown concurrency policy %q", s)
	}
}

// QuizSettings are the tunables of quiz sessions.
type QuizSettings struct {
	DefaultRounds      int               // rounds when none are requested
	DefaultRoundLength int               // seconds per round when none are requested
	MaxRounds          int               // upper bound for requested rounds, 0 for none
	MaxRoundLength     int               // upper bound for requested seconds, 0 for none
	Pause              time.Duration     // pause after each round result
	LockRetry          time.Duration     // poll interval while waiting for a chat lock
	Policy             ConcurrencyPolicy // overlapping session handling
}

// DefaultQuizSettings returns the production defaults.
func DefaultQuizSettings() QuizSettings {
	return QuizSettings{
		DefaultRounds:      5,
		DefaultRoundLength: 10,
		MaxRounds:          50,
		MaxRoundLength:     120,
		Pause:              2 * time.Second,
		LockRetry:          500 * time.Millisecond,
		Policy:             PolicySerialize,
	}
}

// QuizService sequences the rounds of a quiz session.
type QuizService struct {
	corpus   Corpus
	selector *QuestionSelector
	rounds   *RoundEngine
	ratings  *RatingEngine
	store    RatingStore
	registry RoundRegistry
	guard    SessionGuard
	settings QuizSettings
	logger   *zap.Logger
}

// NewQuizService creates a QuizService.
func NewQuizService(
	corpus Corpus,
	selector *QuestionSelector,
	rounds *RoundEngine,
	ratings *RatingEngine,
	store RatingStore,
	registry RoundRegistry,
	guard SessionGuard,
	settings QuizSettings,
	logger *zap.Logger,
) *QuizService {
	return &QuizService{
		corpus:   corpus,
		selector: selector,
		rounds:   rounds,
		ratings:  ratings,
		store:    store,
		registry: registry,
		guard:    guard,
		settings: settings,
		logger:   logger,
	}
}

// StartSession runs a whole quiz in a chat and returns when it finished.
//
// Invalid parameters and unknown groups are reported through n and returned
// before anything else happens. Per-round failures are logged and never abort
// the session; only cancellation of ctx or a failure to persist ratings does.
func (s *QuizService) StartSession(ctx context.Context, chatID int64, params entities.QuizParams, n Notifier) error {
	params, err := s.resolveParams(params)
	if err != nil {
		s.report(ctx, n, chatID, err)
		return err
	}

	group, source, err := s.resolveSource(params.Group)
	if err != nil {
		s.report(ctx, n, chatID, err)
		return err
	}
	params.Group = group

	release, err := s.acquire(ctx, chatID)
	if err != nil {
		if errors.Is(err, ErrQuizInProgress) {
			s.report(ctx, n, chatID, err)
		}
		return err
	}
	defer release()

	session := entities.NewQuizSession(uuid.NewString(), chatID, params)
	log := s.logger.With(
		zap.String("session_id", session.ID),
		zap.Int64("chat_id", chatID),
	)

	log.Info("quiz session started",
		zap.Int("rounds", params.Rounds),
		zap.Int("round_length", params.RoundLength),
		zap.String("group", params.Group),
	)

	session.Phase = entities.PhaseAnnouncing
	announcement := entities.Announcement{
		Rounds:          params.Rounds,
		RoundLength:     params.RoundLength,
		Group:           params.Group,
		FallbackFromAll: params.Group == "" && s.corpus.FallbackFromAll(),
	}
	if err := n.Announce(ctx, announcement); err != nil {
		log.Warn("failed to announce quiz", zap.Error(err))
	}

	session.Phase = entities.PhaseRound
	for round := 1; round <= params.Rounds; round++ {
		session.Round = round
		if err := s.playRound(ctx, session, source, n, log); err != nil {
			log.Info("quiz session aborted", zap.Int("round", round), zap.Error(err))
			return err
		}

		if err := sleepCtx(ctx, s.settings.Pause); err != nil {
			log.Info("quiz session aborted", zap.Int("round", round), zap.Error(err))
			return err
		}
	}

	if err := s.tally(ctx, session, n, log); err != nil {
		return err
	}

	session.Complete()
	log.Info("quiz session finished",
		zap.Duration("duration", session.CompletedAt.Sub(session.StartedAt)),
	)

	return nil
}

// SubmitAnswer records a user's answer for the round identified by token.
// Answers for a round that is not open in the chat yield SubmitRoundClosed.
func (s *QuizService) SubmitAnswer(
	chatID int64,
	token string,
	user entities.User,
	index int,
) (entities.SubmitResult, string, error) {
	active, ledger, ok := s.registry.Get(chatID)
	if !ok || active != token {
		return entities.SubmitRoundClosed, "", nil
	}

	return ledger.Submit(user, index)
}

// GroupNames lists the groups that can be passed to StartSession.
func (s *QuizService) GroupNames() []string {
	return s.corpus.GroupNames()
}

// Leaderboard returns the n highest ratings.
func (s *QuizService) Leaderboard(n int) []entities.PlayerRating {
	return s.store.Top(n)
}

func (s *QuizService) playRound(
	ctx context.Context,
	session *entities.QuizSession,
	source []entities.WordEntry,
	n Notifier,
	log *zap.Logger,
) error {
	round := session.Round
	log = log.With(zap.Int("round", round))

	q, err := s.selector.SelectQuestion(source, session.UsedWords, s.corpus)
	if err != nil {
		log.Error("failed to select question", zap.Error(err))
		s.report(ctx, n, session.ChatID, err)
		return nil
	}

	token := roundToken(session.ID, round)
	ledger := entities.NewAnswerLedger(q.Options)

	s.registry.Open(session.ChatID, token, ledger)
	defer s.registry.Close(session.ChatID, token)

	render := func(ctx context.Context, remaining int) error {
		return n.RenderQuestion(ctx, entities.QuestionView{
			Token:            token,
			Round:            round,
			TotalRounds:      session.Params.Rounds,
			Word:             q.Word,
			Options:          q.Options,
			SecondsRemaining: remaining,
		})
	}

	err = s.rounds.OpenAnswerWindow(ctx, ledger, session.Params.RoundLength, render)
	switch {
	case err == nil:
	case errors.Is(err, ErrCountdownFailed):
		log.Error("countdown failed", zap.Error(err))
		s.report(ctx, n, session.ChatID, err)
	default:
		return err
	}

	result := ScoreRound(round, q, ledger.Answers())
	for _, c := range result.Choices {
		session.AddPoints(c.User, c.Points)
	}

	log.Debug("round scored",
		zap.String("word", q.Word),
		zap.Int("answers", len(result.Choices)),
	)

	if err := n.RenderRoundResult(ctx, result); err != nil {
		log.Warn("failed to render round result", zap.Error(err))
	}

	return nil
}

func (s *QuizService) tally(ctx context.Context, session *entities.QuizSession, n Notifier, log *zap.Logger) error {
	session.Phase = entities.PhaseTallying

	if session.TotalPoints() == 0 {
		if err := n.RenderFinalScores(ctx, nil); err != nil {
			log.Warn("failed to render final scores", zap.Error(err))
		}
		return nil
	}

	if err := n.RenderFinalScores(ctx, session.Ranked()); err != nil {
		log.Warn("failed to render final scores", zap.Error(err))
	}

	ratings, err := s.ratings.Apply(ctx, session.Scores())
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrRatingsNotSaved, err)
		log.Error("failed to update ratings", zap.Error(err))
		s.report(ctx, n, session.ChatID, err)
		return err
	}

	if err := n.RenderRatings(ctx, ratings); err != nil {
		log.Warn("failed to render ratings", zap.Error(err))
	}

	return nil
}

func (s *QuizService) resolveParams(p entities.QuizParams) (entities.QuizParams, error) {
	if p.Rounds == 0 {
		p.Rounds = s.settings.DefaultRounds
	}
	if p.RoundLength == 0 {
		p.RoundLength = s.settings.DefaultRoundLength
	}

	if p.Rounds < 1 || (s.settings.MaxRounds > 0 && p.Rounds > s.settings.MaxRounds) {
		return p, fmt.Errorf("%w: rounds must be between 1 and %d", ErrInvalidParams, s.settings.MaxRounds)
	}
	if p.RoundLength < 1 || (s.settings.MaxRoundLength > 0 && p.RoundLength > s.settings.MaxRoundLength) {
		return p, fmt.Errorf("%w: round length must be between 1 and %d seconds", ErrInvalidParams, s.settings.MaxRoundLength)
	}

	return p, nil
}

// resolveSource returns the canonical group name and its words, or the
// fallback list when no group is requested.
func (s *QuizService) resolveSource(group string) (string, []entities.WordEntry, error) {
	if group == "" {
		return "", s.corpus.Fallback(), nil
	}

	g, ok := s.corpus.LookupGroup(group)
	if !ok {
		return "", nil, &GroupNotFoundError{Name: group, Valid: s.corpus.GroupNames()}
	}

	return g.Name, g.Entries, nil
}

// acquire takes the chat lock according to the concurrency policy and
// returns the function that releases it.
func (s *QuizService) acquire(ctx context.Context, chatID int64) (func(), error) {
	waiting := false
	for {
		ok, err := s.guard.TryLock(ctx, chatID)
		if err != nil {
			return nil, fmt.Errorf("acquire chat lock: %w", err)
		}
		if ok {
			release := func() {
				// ctx may be canceled by now; the lock must be released anyway.
				if err := s.guard.Unlock(context.Background(), chatID); err != nil {
					s.logger.Error("failed to release chat lock",
						zap.Int64("chat_id", chatID),
						zap.Error(err),
					)
				}
			}
			return release, nil
		}

		if s.settings.Policy == PolicyReject {
			return nil, ErrQuizInProgress
		}

		if !waiting {
			waiting = true
			s.logger.Info("quiz queued behind running session", zap.Int64("chat_id", chatID))
		}

		if err := sleepCtx(ctx, s.settings.LockRetry); err != nil {
			return nil, err
		}
	}
}

func (s *QuizService) report(ctx context.Context, n Notifier, chatID int64, err error) {
	if rerr := n.ReportError(ctx, err); rerr != nil {
		s.logger.Warn("failed to report error",
			zap.Int64("chat_id", chatID),
			zap.NamedError("reported", err),
			zap.Error(rerr),
		)
	}
}

func roundToken(sessionID string, round int) string {
	prefix := sessionID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return fmt.Sprintf("%s-%d", prefix, round)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
