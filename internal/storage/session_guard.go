package storage

import (
	"context"
	"sync"
)

// SessionLocks is an in-process per-chat lock. It serves a single bot
// replica; use the Redis guard when several replicas poll the same bot.
type SessionLocks struct {
	mu     sync.Mutex
	locked map[int64]struct{}
}

func NewSessionLocks() *SessionLocks {
	return &SessionLocks{
		locked: make(map[int64]struct{}),
	}
}

// TryLock takes the chat lock if it is free.
func (s *SessionLocks) TryLock(_ context.Context, chatID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.locked[chatID]; ok {
		return false, nil
	}
	s.locked[chatID] = struct{}{}
	return true, nil
}

// Unlock releases the chat lock. Unlocking a free chat is a no-op.
func (s *SessionLocks) Unlock(_ context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.locked, chatID)
	return nil
}
