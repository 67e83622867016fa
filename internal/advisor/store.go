package advisor

import (
	"sync"

	"signal-deck/internal/domain"
)

// MemoryStore keeps per-chat conversation history in process memory,
// trimmed to the most recent limit messages.
type MemoryStore struct {
	mu    sync.Mutex
	limit int
	chats map[int64][]domain.ConversationMessage
}

func NewMemoryStore(limit int) *MemoryStore {
	if limit <= 0 {
		limit = DefaultMaxHistory
	}
	return &MemoryStore{limit: limit, chats: make(map[int64][]domain.ConversationMessage)}
}

func (s *MemoryStore) Append(chatID int64, msgs ...domain.ConversationMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.chats[chatID], msgs...)
	if extra := len(history) - s.limit; extra > 0 {
		history = append([]domain.ConversationMessage(nil), history[extra:]...)
	}
	s.chats[chatID] = history
}

func (s *MemoryStore) History(chatID int64) []domain.ConversationMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ConversationMessage(nil), s.chats[chatID]...)
}

func (s *MemoryStore) Reset(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chats, chatID)
}
