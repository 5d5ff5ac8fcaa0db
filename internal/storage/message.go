package storage

import (
	"sync"
	"time"
)

// QuestionMessage is the chat message that shows the question of a round.
type QuestionMessage struct {
	ChatID    int64
	MessageID int
	Token     string
	SentAt    time.Time
}

// MessageStorage remembers the last question message sent to each chat, so
// countdown ticks can edit it instead of sending a new one.
type MessageStorage struct {
	mu       sync.RWMutex
	messages map[int64]QuestionMessage
}

func NewMessageStorage() *MessageStorage {
	return &MessageStorage{
		messages: make(map[int64]QuestionMessage),
	}
}

func (s *MessageStorage) Store(chatID int64, token string, messageID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages[chatID] = QuestionMessage{
		ChatID:    chatID,
		MessageID: messageID,
		Token:     token,
		SentAt:    time.Now(),
	}
}

func (s *MessageStorage) Get(chatID int64) (QuestionMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msg, ok := s.messages[chatID]
	return msg, ok
}

func (s *MessageStorage) Delete(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.messages, chatID)
}
