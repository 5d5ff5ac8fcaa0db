package service

import (
	"context"
	"sort"
	"sync"

	"github.com/aliskhannn/gre-quiz-bot/internal/domain/entities"
)

type memRatingStore struct {
	mu      sync.Mutex
	ratings map[int64]float64
	commits []map[int64]float64
	err     error
}

func newMemRatingStore(initial map[int64]float64) *memRatingStore {
	s := &memRatingStore{ratings: make(map[int64]float64)}
	for id, r := range initial {
		s.ratings[id] = r
	}
	return s
}

func (s *memRatingStore) Rating(userID int64) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.ratings[userID]
	return r, ok
}

func (s *memRatingStore) Update(
	_ context.Context,
	ids []int64,
	fn func(current map[int64]float64) map[int64]float64,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	current := make(map[int64]float64, len(ids))
	for _, id := range ids {
		if r, ok := s.ratings[id]; ok {
			current[id] = r
		}
	}
	updates := fn(current)
	snapshot := make(map[int64]float64, len(updates))
	for id, r := range updates {
		s.ratings[id] = r
		snapshot[id] = r
	}
	s.commits = append(s.commits, snapshot)
	return nil
}

func (s *memRatingStore) seed(ratings map[int64]float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range ratings {
		s.ratings[id] = r
	}
}

func (s *memRatingStore) Top(n int) []entities.PlayerRating {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entities.PlayerRating, 0, len(s.ratings))
	for id, r := range s.ratings {
		out = append(out, entities.PlayerRating{User: entities.User{ID: id}, Rating: r})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func (s *memRatingStore) commitCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.commits)
}

type recordingNotifier struct {
	mu sync.Mutex

	announcements []entities.Announcement
	questions     []entities.QuestionView
	results       []entities.RoundResult
	finalScores   [][]entities.PlayerScore
	ratings       [][]entities.PlayerRating
	reported      []error

	// onQuestion runs on every question render; its error is returned to the caller.
	onQuestion func(v entities.QuestionView) error
}

func (n *recordingNotifier) Announce(_ context.Context, a entities.Announcement) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.announcements = append(n.announcements, a)
	return nil
}

func (n *recordingNotifier) RenderQuestion(_ context.Context, v entities.QuestionView) error {
	n.mu.Lock()
	n.questions = append(n.questions, v)
	hook := n.onQuestion
	n.mu.Unlock()

	if hook != nil {
		return hook(v)
	}
	return nil
}

func (n *recordingNotifier) RenderRoundResult(_ context.Context, r entities.RoundResult) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.results = append(n.results, r)
	return nil
}

func (n *recordingNotifier) RenderFinalScores(_ context.Context, ranked []entities.PlayerScore) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.finalScores = append(n.finalScores, ranked)
	return nil
}

func (n *recordingNotifier) RenderRatings(_ context.Context, ratings []entities.PlayerRating) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ratings = append(n.ratings, ratings)
	return nil
}

func (n *recordingNotifier) ReportError(_ context.Context, err error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reported = append(n.reported, err)
	return nil
}
