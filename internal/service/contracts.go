package service

import (
	"context"

	"github.com/aliskhannn/gre-quiz-bot/internal/domain/entities"
)

// Corpus is the read-only word index consumed by quiz sessions.
type Corpus interface {
	LookupGroup(name string) (entities.Group, bool)
	GroupNames() []string
	DistractorSource
	Fallback() []entities.WordEntry
	FallbackFromAll() bool
}

// DistractorSource provides wrong answers for a question.
type DistractorSource interface {
	// DistractorPool returns every corpus meaning that differs from
	// excludeMeaning, duplicates included.
	DistractorPool(excludeMeaning string) []string
}

// CorpusSource loads raw corpus data from a backing store.
type CorpusSource interface {
	Load(ctx context.Context) (entities.CorpusData, error)
}

// RatingStore keeps persistent user ratings.
type RatingStore interface {
	// Update runs fn on the current ratings of ids and persists its result
	// atomically with respect to other updates.
	Update(ctx context.Context, ids []int64, fn func(current map[int64]float64) map[int64]float64) error
	Top(n int) []entities.PlayerRating
}

// Notifier renders quiz events in one chat.
// RenderQuestion is called once per countdown tick with the same token; it
// returns ErrPresentationUnavailable when the question can no longer be shown.
type Notifier interface {
	Announce(ctx context.Context, a entities.Announcement) error
	RenderQuestion(ctx context.Context, v entities.QuestionView) error
	RenderRoundResult(ctx context.Context, r entities.RoundResult) error
	// RenderFinalScores receives scores ranked by score; an empty slice means
	// no one scored any points.
	RenderFinalScores(ctx context.Context, ranked []entities.PlayerScore) error
	RenderRatings(ctx context.Context, ratings []entities.PlayerRating) error
	ReportError(ctx context.Context, err error) error
}

// RoundRegistry routes incoming answers to the open round of a chat.
type RoundRegistry interface {
	Open(chatID int64, token string, ledger *entities.AnswerLedger)
	Get(chatID int64) (string, *entities.AnswerLedger, bool)
	Close(chatID int64, token string)
}

// SessionGuard is a per-chat lock that keeps one quiz running per chat.
type SessionGuard interface {
	TryLock(ctx context.Context, chatID int64) (bool, error)
	Unlock(ctx context.Context, chatID int64) error
}
