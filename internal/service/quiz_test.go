package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aliskhannn/gre-quiz-bot/internal/domain/entities"
	"github.com/aliskhannn/gre-quiz-bot/internal/repository"
	"github.com/aliskhannn/gre-quiz-bot/internal/storage"
)

const testChatID int64 = 100

var (
	alice = entities.User{ID: 1, Name: "alice"}
	bob   = entities.User{ID: 2, Name: "bob"}
)

var animals = map[string]string{
	"cat": "a feline",
	"dog": "a canine",
}

type quizFixture struct {
	svc    *QuizService
	store  *memRatingStore
	guard  *storage.SessionLocks
	corpus *repository.Corpus
}

func newQuizFixture(t *testing.T, policy ConcurrencyPolicy) *quizFixture {
	t.Helper()

	corpus, err := repository.NewCorpus(entities.CorpusData{
		Groups: []entities.Group{
			{Name: "Animals", Entries: []entities.WordEntry{
				{Word: "cat", Meaning: "a feline"},
				{Word: "dog", Meaning: "a canine"},
			}},
			{Name: "Colors", Entries: []entities.WordEntry{
				{Word: "red", Meaning: "a warm color"},
			}},
		},
	})
	require.NoError(t, err)

	store := newMemRatingStore(nil)
	guard := storage.NewSessionLocks()

	settings := DefaultQuizSettings()
	settings.DefaultRoundLength = 3
	settings.Pause = 0
	settings.LockRetry = time.Millisecond
	settings.Policy = policy

	svc := NewQuizService(
		corpus,
		NewSeededQuestionSelector(11),
		NewRoundEngine(2*time.Millisecond, zap.NewNop()),
		NewRatingEngine(store, DefaultKFactor, DefaultInitialRating),
		store,
		storage.NewRoundStorage(),
		guard,
		settings,
		zap.NewNop(),
	)

	return &quizFixture{svc: svc, store: store, guard: guard, corpus: corpus}
}

func indexOf(options []string, s string) int {
	for i, o := range options {
		if o == s {
			return i
		}
	}
	return -1
}

func wrongIndex(options []string, correct string) int {
	for i, o := range options {
		if o != correct {
			return i
		}
	}
	return -1
}

// answerEveryTick submits an answer for each user on every countdown render;
// only the first one per round is recorded.
func answerEveryTick(t *testing.T, f *quizFixture, pick func(u entities.User, v entities.QuestionView) int, users ...entities.User) func(entities.QuestionView) error {
	return func(v entities.QuestionView) error {
		for _, u := range users {
			idx := pick(u, v)
			if idx < 0 {
				continue
			}
			if _, _, err := f.svc.SubmitAnswer(testChatID, v.Token, u, idx); err != nil {
				t.Errorf("submit: %v", err)
			}
		}
		return nil
	}
}

func TestStartSession_SingleScorer(t *testing.T) {
	f := newQuizFixture(t, PolicySerialize)
	n := &recordingNotifier{}
	n.onQuestion = answerEveryTick(t, f, func(u entities.User, v entities.QuestionView) int {
		if u.ID != alice.ID {
			return -1
		}
		return indexOf(v.Options, animals[v.Word])
	}, alice)

	err := f.svc.StartSession(context.Background(), testChatID, entities.QuizParams{Rounds: 2, Group: "ANIMALS"}, n)
	require.NoError(t, err)

	require.Len(t, n.announcements, 1)
	assert.Equal(t, entities.Announcement{Rounds: 2, RoundLength: 3, Group: "animals"}, n.announcements[0])

	require.Len(t, n.results, 2)
	words := []string{n.results[0].Word, n.results[1].Word}
	assert.ElementsMatch(t, []string{"cat", "dog"}, words, "no word repeats within a session")
	for _, r := range n.results {
		require.Len(t, r.Choices, 1)
		assert.Equal(t, alice, r.Choices[0].User)
		assert.Equal(t, 1, r.Choices[0].Points)
	}

	require.Len(t, n.finalScores, 1)
	assert.Equal(t, []entities.PlayerScore{{User: alice, Score: 2}}, n.finalScores[0])

	require.Len(t, n.ratings, 1)
	assert.Equal(t, []entities.PlayerRating{{User: alice, Rating: 1000}}, n.ratings[0])
	assert.Empty(t, n.reported)

	r, ok := f.store.Rating(alice.ID)
	require.True(t, ok)
	assert.Equal(t, 1000.0, r)
}

func TestStartSession_WinnerAndLoser(t *testing.T) {
	f := newQuizFixture(t, PolicySerialize)
	n := &recordingNotifier{}
	n.onQuestion = answerEveryTick(t, f, func(u entities.User, v entities.QuestionView) int {
		if u.ID == alice.ID {
			return indexOf(v.Options, animals[v.Word])
		}
		return wrongIndex(v.Options, animals[v.Word])
	}, alice, bob)

	err := f.svc.StartSession(context.Background(), testChatID, entities.QuizParams{Rounds: 1, Group: "animals"}, n)
	require.NoError(t, err)

	require.Len(t, n.finalScores, 1)
	assert.Equal(t, []entities.PlayerScore{
		{User: alice, Score: 1},
		{User: bob, Score: 0},
	}, n.finalScores[0])

	require.Len(t, n.ratings, 1)
	require.Len(t, n.ratings[0], 2)
	assert.InDelta(t, 1016, n.ratings[0][0].Rating, 1e-9)
	assert.InDelta(t, 984, n.ratings[0][1].Rating, 1e-9)
	assert.Equal(t, 1, f.store.commitCount())
}

func TestStartSession_NoScores(t *testing.T) {
	tests := []struct {
		name string
		pick func(u entities.User, v entities.QuestionView) int
	}{
		{
			name: "nobody answers",
			pick: func(entities.User, entities.QuestionView) int { return -1 },
		},
		{
			name: "everyone is wrong",
			pick: func(_ entities.User, v entities.QuestionView) int {
				return wrongIndex(v.Options, animals[v.Word])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newQuizFixture(t, PolicySerialize)
			n := &recordingNotifier{}
			n.onQuestion = answerEveryTick(t, f, tt.pick, alice, bob)

			err := f.svc.StartSession(context.Background(), testChatID, entities.QuizParams{Rounds: 2, Group: "animals"}, n)
			require.NoError(t, err)

			require.Len(t, n.finalScores, 1)
			assert.Empty(t, n.finalScores[0])
			assert.Empty(t, n.ratings)
			assert.Zero(t, f.store.commitCount())
		})
	}
}

func TestStartSession_UnknownGroup(t *testing.T) {
	f := newQuizFixture(t, PolicySerialize)
	n := &recordingNotifier{}

	err := f.svc.StartSession(context.Background(), testChatID, entities.QuizParams{Group: "plants"}, n)
	require.ErrorIs(t, err, ErrGroupNotFound)

	var gnf *GroupNotFoundError
	require.ErrorAs(t, err, &gnf)
	assert.Equal(t, "plants", gnf.Name)
	assert.Equal(t, []string{"animals", "colors"}, gnf.Valid)

	assert.Empty(t, n.announcements)
	assert.Empty(t, n.questions)
	require.Len(t, n.reported, 1)
	assert.ErrorIs(t, n.reported[0], ErrGroupNotFound)
	assert.Zero(t, f.store.commitCount())

	ok, err := f.guard.TryLock(context.Background(), testChatID)
	require.NoError(t, err)
	assert.True(t, ok, "the chat lock is never taken for an unknown group")
}

func TestStartSession_InvalidParams(t *testing.T) {
	tests := []struct {
		name   string
		params entities.QuizParams
	}{
		{name: "negative rounds", params: entities.QuizParams{Rounds: -1}},
		{name: "too many rounds", params: entities.QuizParams{Rounds: 51}},
		{name: "negative length", params: entities.QuizParams{RoundLength: -5}},
		{name: "too long", params: entities.QuizParams{RoundLength: 121}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newQuizFixture(t, PolicySerialize)
			n := &recordingNotifier{}

			err := f.svc.StartSession(context.Background(), testChatID, tt.params, n)
			require.ErrorIs(t, err, ErrInvalidParams)
			assert.Empty(t, n.announcements)
			require.Len(t, n.reported, 1)
		})
	}
}

func TestStartSession_DefaultsAndFallback(t *testing.T) {
	f := newQuizFixture(t, PolicySerialize)
	n := &recordingNotifier{}

	err := f.svc.StartSession(context.Background(), testChatID, entities.QuizParams{Rounds: 1}, n)
	require.NoError(t, err)

	require.Len(t, n.announcements, 1)
	assert.Equal(t, entities.Announcement{Rounds: 1, RoundLength: 3, FallbackFromAll: true}, n.announcements[0])

	require.NotEmpty(t, n.questions)
	assert.Equal(t, 3, n.questions[0].SecondsRemaining)
	assert.Equal(t, 1, n.questions[0].TotalRounds)
}

func TestStartSession_RejectPolicy(t *testing.T) {
	f := newQuizFixture(t, PolicyReject)
	ctx := context.Background()

	ok, err := f.guard.TryLock(ctx, testChatID)
	require.NoError(t, err)
	require.True(t, ok)

	n := &recordingNotifier{}
	err = f.svc.StartSession(ctx, testChatID, entities.QuizParams{Rounds: 1}, n)
	require.ErrorIs(t, err, ErrQuizInProgress)

	assert.Empty(t, n.announcements)
	require.Len(t, n.reported, 1)
	assert.ErrorIs(t, n.reported[0], ErrQuizInProgress)
}

func TestStartSession_SerializePolicy(t *testing.T) {
	f := newQuizFixture(t, PolicySerialize)
	ctx := context.Background()

	ok, err := f.guard.TryLock(ctx, testChatID)
	require.NoError(t, err)
	require.True(t, ok)

	t.Run("gives up when the context ends", func(t *testing.T) {
		waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()

		n := &recordingNotifier{}
		err := f.svc.StartSession(waitCtx, testChatID, entities.QuizParams{Rounds: 1}, n)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Empty(t, n.announcements)
		assert.Empty(t, n.reported)
	})

	t.Run("runs once the lock is released", func(t *testing.T) {
		time.AfterFunc(20*time.Millisecond, func() {
			_ = f.guard.Unlock(ctx, testChatID)
		})

		n := &recordingNotifier{}
		err := f.svc.StartSession(ctx, testChatID, entities.QuizParams{Rounds: 1}, n)
		require.NoError(t, err)
		assert.Len(t, n.announcements, 1)
		assert.Len(t, n.finalScores, 1)
	})
}

func TestStartSession_ReleasesLock(t *testing.T) {
	f := newQuizFixture(t, PolicyReject)
	ctx := context.Background()

	require.NoError(t, f.svc.StartSession(ctx, testChatID, entities.QuizParams{Rounds: 1}, &recordingNotifier{}))
	require.NoError(t, f.svc.StartSession(ctx, testChatID, entities.QuizParams{Rounds: 1}, &recordingNotifier{}))
}

func TestStartSession_CountdownFailureDoesNotAbort(t *testing.T) {
	f := newQuizFixture(t, PolicySerialize)
	n := &recordingNotifier{}
	n.onQuestion = func(entities.QuestionView) error {
		return errors.New("flood control exceeded")
	}

	err := f.svc.StartSession(context.Background(), testChatID, entities.QuizParams{Rounds: 2, Group: "animals"}, n)
	require.NoError(t, err)

	assert.Len(t, n.results, 2)
	require.Len(t, n.reported, 2)
	for _, r := range n.reported {
		assert.ErrorIs(t, r, ErrCountdownFailed)
	}
}

func TestStartSession_Canceled(t *testing.T) {
	f := newQuizFixture(t, PolicyReject)
	ctx, cancel := context.WithCancel(context.Background())

	n := &recordingNotifier{}
	n.onQuestion = func(v entities.QuestionView) error {
		if v.Round == 2 {
			cancel()
		}
		_, _, _ = f.svc.SubmitAnswer(testChatID, v.Token, alice, indexOf(v.Options, animals[v.Word]))
		return nil
	}

	err := f.svc.StartSession(ctx, testChatID, entities.QuizParams{Rounds: 3, Group: "animals"}, n)
	require.ErrorIs(t, err, context.Canceled)

	assert.Empty(t, n.finalScores)
	assert.Zero(t, f.store.commitCount(), "ratings are committed only after a complete session")

	ok, err := f.guard.TryLock(context.Background(), testChatID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSubmitAnswer_StaleToken(t *testing.T) {
	f := newQuizFixture(t, PolicySerialize)

	var (
		firstToken string
		checked    bool
		staleRes   entities.SubmitResult
	)
	n := &recordingNotifier{}
	n.onQuestion = func(v entities.QuestionView) error {
		if v.Round == 1 {
			firstToken = v.Token
		}
		if v.Round == 2 && !checked {
			checked = true
			staleRes, _, _ = f.svc.SubmitAnswer(testChatID, firstToken, alice, 0)
		}
		return nil
	}

	require.NoError(t, f.svc.StartSession(context.Background(), testChatID, entities.QuizParams{Rounds: 2, Group: "animals"}, n))
	require.True(t, checked)
	assert.Equal(t, entities.SubmitRoundClosed, staleRes)

	res, _, err := f.svc.SubmitAnswer(testChatID, "nope-1", alice, 0)
	require.NoError(t, err)
	assert.Equal(t, entities.SubmitRoundClosed, res)
}

func TestQuizService_GroupNamesAndLeaderboard(t *testing.T) {
	f := newQuizFixture(t, PolicySerialize)
	f.store.seed(map[int64]float64{1: 1016, 2: 984})

	assert.Equal(t, []string{"animals", "colors"}, f.svc.GroupNames())

	top := f.svc.Leaderboard(1)
	require.Len(t, top, 1)
	assert.Equal(t, int64(1), top[0].User.ID)
}

func TestParseConcurrencyPolicy(t *testing.T) {
	p, err := ParseConcurrencyPolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicySerialize, p)

	p, err = ParseConcurrencyPolicy("reject")
	require.NoError(t, err)
	assert.Equal(t, PolicyReject, p)

	_, err = ParseConcurrencyPolicy("parallel")
	assert.Error(t, err)
}
