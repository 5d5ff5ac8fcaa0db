package telegram

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/gre-quiz-bot/internal/domain/entities"
	"github.com/aliskhannn/gre-quiz-bot/internal/service"
)

type fakeBot struct {
	mu sync.Mutex

	nextID   int
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable

	sendErr    error
	requestErr error
	members    map[int64]*tgbotapi.User
	memberGate chan struct{} // when set, GetChatMember waits for it to close

	updates chan tgbotapi.Update
	stopped bool
}

func newFakeBot() *fakeBot {
	return &fakeBot{
		nextID:  100,
		members: make(map[int64]*tgbotapi.User),
		updates: make(chan tgbotapi.Update),
	}
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sendErr != nil {
		return tgbotapi.Message{}, b.sendErr
	}

	b.nextID++
	b.sent = append(b.sent, c)
	return tgbotapi.Message{MessageID: b.nextID}, nil
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.requests = append(b.requests, c)
	if b.requestErr != nil {
		return nil, b.requestErr
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return b.updates
}

func (b *fakeBot) StopReceivingUpdates() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopped = true
}

func (b *fakeBot) GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error) {
	if b.memberGate != nil {
		<-b.memberGate
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	u, ok := b.members[config.UserID]
	if !ok {
		return tgbotapi.ChatMember{}, &tgbotapi.Error{Code: 400, Message: "Bad Request: user not found"}
	}
	return tgbotapi.ChatMember{User: u}, nil
}

func (b *fakeBot) sentTexts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []string
	for _, c := range b.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m.Text)
		}
	}
	return out
}

type fakeQuiz struct {
	mu sync.Mutex

	started  []entities.QuizParams
	startErr error

	submitted    []entities.User
	submitRes    entities.SubmitResult
	submitChoice string
	submitErr    error

	groups []string
	top    []entities.PlayerRating
}

func (q *fakeQuiz) StartSession(ctx context.Context, _ int64, params entities.QuizParams, n service.Notifier) error {
	q.mu.Lock()
	q.started = append(q.started, params)
	err := q.startErr
	q.mu.Unlock()

	if err != nil {
		return err
	}
	return n.Announce(ctx, entities.Announcement{Rounds: params.Rounds, RoundLength: params.RoundLength, Group: params.Group})
}

func (q *fakeQuiz) SubmitAnswer(_ int64, _ string, user entities.User, _ int) (entities.SubmitResult, string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.submitted = append(q.submitted, user)
	return q.submitRes, q.submitChoice, q.submitErr
}

func (q *fakeQuiz) GroupNames() []string {
	return q.groups
}

func (q *fakeQuiz) Leaderboard(n int) []entities.PlayerRating {
	if len(q.top) > n {
		return q.top[:n]
	}
	return q.top
}

func (q *fakeQuiz) submittedUsers() []entities.User {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]entities.User(nil), q.submitted...)
}

func (q *fakeQuiz) startedParams() []entities.QuizParams {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]entities.QuizParams(nil), q.started...)
}
