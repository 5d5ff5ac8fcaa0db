package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aliskhannn/gre-quiz-bot/internal/domain/entities"
)

// RenderFunc shows the question with the given number of seconds left.
type RenderFunc func(ctx context.Context, secondsRemaining int) error

// RoundEngine runs the timed answer window of a round.
type RoundEngine struct {
	tick   time.Duration
	logger *zap.Logger
}

// NewRoundEngine creates a RoundEngine. tick is the length of one countdown
// second; it is time.Second outside tests.
func NewRoundEngine(tick time.Duration, logger *zap.Logger) *RoundEngine {
	if tick <= 0 {
		tick = time.Second
	}
	return &RoundEngine{tick: tick, logger: logger}
}

// OpenAnswerWindow keeps ledger open for seconds ticks while render is called
// once per tick, then closes the ledger. The window always lasts the full
// duration: it does not close early when everyone answered or when the
// countdown stops.
//
// ErrPresentationUnavailable from render stops the countdown silently. Any
// other render error stops the countdown and is returned wrapped in
// ErrCountdownFailed after the window closed. Cancellation of ctx closes the
// window immediately and returns ctx.Err().
func (e *RoundEngine) OpenAnswerWindow(
	ctx context.Context,
	ledger *entities.AnswerLedger,
	seconds int,
	render RenderFunc,
) error {
	defer ledger.Close()

	windowCtx, cancel := context.WithTimeout(ctx, time.Duration(seconds)*e.tick)
	defer cancel()

	g, gctx := errgroup.WithContext(windowCtx)
	g.Go(func() error {
		return e.countdown(gctx, seconds, render)
	})

	<-windowCtx.Done()
	countdownErr := g.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	if countdownErr != nil {
		return fmt.Errorf("%w: %w", ErrCountdownFailed, countdownErr)
	}
	return nil
}

func (e *RoundEngine) countdown(ctx context.Context, seconds int, render RenderFunc) error {
	ticker := time.NewTicker(e.tick)
	defer ticker.Stop()

	for remaining := seconds; remaining > 0; remaining-- {
		if err := render(ctx, remaining); err != nil {
			if errors.Is(err, ErrPresentationUnavailable) {
				e.logger.Debug("countdown stopped, question no longer available",
					zap.Int("seconds_remaining", remaining),
				)
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}

	return nil
}

// ScoreRound scores every recorded answer: 1 point when the choice equals the
// correct meaning, 0 otherwise. Users who did not answer get no entry.
func ScoreRound(round int, q entities.Question, answers []entities.Answer) entities.RoundResult {
	result := entities.RoundResult{
		Round:         round,
		Word:          q.Word,
		CorrectAnswer: q.CorrectAnswer,
		Choices:       make([]entities.Choice, 0, len(answers)),
	}

	for _, a := range answers {
		points := 0
		if a.Choice == q.CorrectAnswer {
			points = 1
		}
		result.Choices = append(result.Choices, entities.Choice{
			User:   a.User,
			Answer: a.Choice,
			Points: points,
		})
	}

	return result
}
