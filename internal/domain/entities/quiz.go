package entities

import (
	"sort"
	"time"
)

// SessionPhase is the lifecycle state of a quiz session.
type SessionPhase string

const (
	PhaseIdle       SessionPhase = "idle"
	PhaseAnnouncing SessionPhase = "announcing"
	PhaseRound      SessionPhase = "round"
	PhaseTallying   SessionPhase = "tallying"
	PhaseFinished   SessionPhase = "finished"
)

// QuizParams are the invocation parameters of /startquiz.
// Zero Rounds or RoundLength mean "use the configured default".
type QuizParams struct {
	Rounds      int    // number of questions
	RoundLength int    // seconds per round
	Group       string // optional word group, empty for the fallback list
}

// QuizSession is the transient state of one quiz invocation in a chat.
// It is owned by a single goroutine and is not safe for concurrent use.
type QuizSession struct {
	ID          string              // session ID used in logs and round tokens
	ChatID      int64               // chat the quiz runs in
	Params      QuizParams          // resolved parameters
	Phase       SessionPhase        // current lifecycle phase
	Round       int                 // current round number, 1-based
	UsedWords   map[string]struct{} // words already asked in this session
	StartedAt   time.Time           // timestamp when the session started
	CompletedAt *time.Time          // timestamp when the session finished (nullable)

	scores map[int64]int
	order  []User
}

// NewQuizSession creates an idle session for a chat.
func NewQuizSession(id string, chatID int64, params QuizParams) *QuizSession {
	return &QuizSession{
		ID:        id,
		ChatID:    chatID,
		Params:    params,
		Phase:     PhaseIdle,
		UsedWords: make(map[string]struct{}),
		StartedAt: time.Now(),
		scores:    make(map[int64]int),
	}
}

// AddPoints adds round points to the user's cumulative score. The first
// contribution creates the entry, even when points is zero.
func (qs *QuizSession) AddPoints(u User, points int) {
	if _, ok := qs.scores[u.ID]; !ok {
		qs.order = append(qs.order, u)
	}
	qs.scores[u.ID] += points
}

// Scores returns cumulative scores in first-contribution order.
func (qs *QuizSession) Scores() []PlayerScore {
	out := make([]PlayerScore, 0, len(qs.order))
	for _, u := range qs.order {
		out = append(out, PlayerScore{User: u, Score: qs.scores[u.ID]})
	}
	return out
}

// Ranked returns cumulative scores sorted by score descending.
// Equal scores keep first-contribution order.
func (qs *QuizSession) Ranked() []PlayerScore {
	return RankScores(qs.Scores())
}

// TotalPoints returns the sum of all cumulative scores.
func (qs *QuizSession) TotalPoints() int {
	total := 0
	for _, s := range qs.scores {
		total += s
	}
	return total
}

// Complete marks the session as finished and sets the completion timestamp.
func (qs *QuizSession) Complete() {
	qs.Phase = PhaseFinished
	now := time.Now()
	qs.CompletedAt = &now
}

// PlayerScore is a user's cumulative score in a session.
type PlayerScore struct {
	User  User
	Score int
}

// RankScores returns a copy of scores sorted by score descending, stable.
func RankScores(scores []PlayerScore) []PlayerScore {
	out := append([]PlayerScore(nil), scores...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// PlayerRating is a user's skill rating.
type PlayerRating struct {
	User   User
	Rating float64
}

// Announcement is the one-time summary shown before the first round.
type Announcement struct {
	Rounds          int    // number of rounds
	RoundLength     int    // seconds per round
	Group           string // requested group, empty when the fallback list is used
	FallbackFromAll bool   // fallback list is all groups because no dedicated list exists
}

// QuestionView is what the chat shows for a question at a given second.
type QuestionView struct {
	Token            string   // round token carried by answer buttons
	Round            int      // 1-based round number
	TotalRounds      int      // number of rounds in the session
	Word             string   // word being asked
	Options          []string // options in display order
	SecondsRemaining int      // countdown value
}

// Choice is one responder's answer and the points it earned.
type Choice struct {
	User   User
	Answer string
	Points int
}

// RoundResult is the scored outcome of one round.
type RoundResult struct {
	Round         int      // 1-based round number
	Word          string   // word that was asked
	CorrectAnswer string   // correct meaning
	Choices       []Choice // responders in answer order, empty if no one answered
}
