package storage

import (
	"sync"

	"github.com/aliskhannn/gre-quiz-bot/internal/domain/entities"
)

type openRound struct {
	token  string
	ledger *entities.AnswerLedger
}

// RoundStorage provides in-memory storage for the open round of each chat.
type RoundStorage struct {
	mu     sync.RWMutex
	rounds map[int64]openRound
}

// NewRoundStorage creates a new RoundStorage.
func NewRoundStorage() *RoundStorage {
	return &RoundStorage{
		rounds: make(map[int64]openRound),
	}
}

// Open registers the ledger of the round identified by token, replacing any
// round previously open in the chat.
func (s *RoundStorage) Open(chatID int64, token string, ledger *entities.AnswerLedger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rounds[chatID] = openRound{token: token, ledger: ledger}
}

// Get returns the token and ledger of the round open in the chat.
func (s *RoundStorage) Get(chatID int64) (string, *entities.AnswerLedger, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rounds[chatID]
	return r.token, r.ledger, ok
}

// Close removes the round if it is still the one open in the chat.
func (s *RoundStorage) Close(chatID int64, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.rounds[chatID]; ok && r.token == token {
		delete(s.rounds, chatID)
	}
}
